package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "LinePlan Scheduler API",
        "description": "Production line scheduling: daily plans, changeover rules, proposal builds and signed exports",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Token issuing and rotation"},
        {"name": "Plan", "description": "Daily production plans"},
        {"name": "Rules", "description": "Changeover rule tables"},
        {"name": "Schedule", "description": "Proposal builds and the applied schedule"},
        {"name": "Export", "description": "CSV/PDF rendering with signed downloads"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Login",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Auth"],
                "summary": "Rotate a refresh token",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RefreshTokenRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Expired or revoked token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Auth"],
                "summary": "Current user from the access token",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/plan": {
            "get": {
                "tags": ["Plan"],
                "summary": "List the plan of a date",
                "parameters": [
                    {"name": "date", "in": "query", "required": true, "type": "string"},
                    {"name": "line", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Plan"],
                "summary": "Replace the plan of a date",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReplacePlanRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/rules/cip": {
            "get": {
                "tags": ["Rules"],
                "summary": "List cleaning rule sets",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Rules"],
                "summary": "Replace a named cleaning rule set",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReplaceCIPRuleSetRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/rules/eviction": {
            "get": {
                "tags": ["Rules"],
                "summary": "List eviction rule sets",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Rules"],
                "summary": "Replace a named eviction rule set",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReplaceEvictionRuleSetRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/rules/norms": {
            "get": {
                "tags": ["Rules"],
                "summary": "List transition norm sets",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Rules"],
                "summary": "Replace a named norms set",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReplaceNormsRuleSetRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/rules/auto-clean": {
            "get": {
                "tags": ["Rules"],
                "summary": "List per-line auto-clean policies",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Rules"],
                "summary": "Replace all auto-clean policies",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReplaceAutoCleanPoliciesRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/rules/densities": {
            "get": {
                "tags": ["Rules"],
                "summary": "List product densities",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Rules"],
                "summary": "Replace the density table",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReplaceDensitiesRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/rules/line-links": {
            "get": {
                "tags": ["Rules"],
                "summary": "List line links",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Rules"],
                "summary": "Replace all line links",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReplaceLineLinksRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/schedule": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Applied schedule of a date",
                "parameters": [
                    {"name": "date", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Nothing applied", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule/proposals": {
            "post": {
                "tags": ["Schedule"],
                "summary": "Build a schedule proposal",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BuildScheduleRequest"}}
                ],
                "responses": {
                    "200": {"description": "Built", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "202": {"description": "Enqueued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule/proposals/{id}": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Get a proposal",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown or expired", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule/proposals/{id}/apply": {
            "post": {
                "tags": ["Schedule"],
                "summary": "Apply a ready proposal",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Applied", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Proposal not ready", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule/export": {
            "post": {
                "tags": ["Export"],
                "summary": "Render a schedule to CSV or PDF",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ExportRequest"}}
                ],
                "responses": {
                    "200": {"description": "Signed URL", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule/export/{token}": {
            "get": {
                "tags": ["Export"],
                "summary": "Download a rendered file",
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File stream"},
                    "401": {"description": "Invalid or expired token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "RefreshTokenRequest": {
            "type": "object",
            "properties": {
                "refresh_token": {"type": "string"}
            },
            "required": ["refresh_token"]
        },
        "ReplacePlanRequest": {
            "type": "object",
            "properties": {
                "date": {"type": "string"},
                "jobs": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/PlanJobRequest"}
                }
            },
            "required": ["date", "jobs"]
        },
        "PlanJobRequest": {
            "type": "object",
            "properties": {
                "jobCode": {"type": "string"},
                "line": {"type": "string"},
                "productName": {"type": "string"},
                "productType": {"type": "string"},
                "flavor": {"type": "string"},
                "brand": {"type": "string"},
                "volume": {"type": "string"},
                "quantity": {"type": "number"},
                "factQuantity": {"type": "number"},
                "speed": {"type": "number"},
                "priority": {"type": "integer"},
                "status": {"type": "string"}
            },
            "required": ["jobCode", "line", "productName", "quantity"]
        },
        "ReplaceCIPRuleSetRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "lines": {"type": "array", "items": {"type": "string"}},
                "rules": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "productKey": {"type": "string"},
                            "baseLevel": {"type": "string"},
                            "exceptions": {
                                "type": "array",
                                "items": {
                                    "type": "object",
                                    "properties": {
                                        "level": {"type": "string"},
                                        "targetKey": {"type": "string"}
                                    }
                                }
                            }
                        }
                    }
                }
            },
            "required": ["name", "lines", "rules"]
        },
        "ReplaceEvictionRuleSetRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "lines": {"type": "array", "items": {"type": "string"}},
                "rules": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "fromKey": {"type": "string"},
                            "targetKey": {"type": "string"},
                            "denied": {"type": "boolean"}
                        }
                    }
                }
            },
            "required": ["name", "lines", "rules"]
        },
        "ReplaceNormsRuleSetRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "lines": {"type": "array", "items": {"type": "string"}},
                "norms": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "event": {"type": "string"},
                            "line": {"type": "string"},
                            "minutes": {"type": "integer"}
                        }
                    }
                }
            },
            "required": ["name", "lines", "norms"]
        },
        "ReplaceAutoCleanPoliciesRequest": {
            "type": "object",
            "properties": {
                "policies": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "line": {"type": "string"},
                            "enabled": {"type": "boolean"},
                            "mode": {"type": "string"},
                            "volumeThreshold": {"type": "number"},
                            "productThreshold": {"type": "number"},
                            "minRemainder": {"type": "number"},
                            "level": {"type": "string"}
                        }
                    }
                }
            },
            "required": ["policies"]
        },
        "ReplaceDensitiesRequest": {
            "type": "object",
            "properties": {
                "densities": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "productType": {"type": "string"},
                            "kgPerLitre": {"type": "number"}
                        }
                    }
                }
            },
            "required": ["densities"]
        },
        "ReplaceLineLinksRequest": {
            "type": "object",
            "properties": {
                "links": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "targetLine": {"type": "string"},
                            "sourceLine": {"type": "string"}
                        }
                    }
                }
            }
        },
        "BuildScheduleRequest": {
            "type": "object",
            "properties": {
                "date": {"type": "string"},
                "anchor": {"type": "string"},
                "optimize": {"type": "boolean"},
                "lockedPriorities": {"type": "array", "items": {"type": "integer"}},
                "async": {"type": "boolean"}
            },
            "required": ["date"]
        },
        "ExportRequest": {
            "type": "object",
            "properties": {
                "format": {"type": "string"},
                "proposalId": {"type": "string"},
                "date": {"type": "string"}
            },
            "required": ["format"]
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
