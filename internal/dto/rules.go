package dto

// CIPExceptionRequest redirects one successor product to a specific level.
type CIPExceptionRequest struct {
	Level     string `json:"level" validate:"required,oneof=CIP1 CIP2 CIP3"`
	TargetKey string `json:"targetKey" validate:"required"`
}

// CIPRuleRequest is one product's cleaning rule inside a set.
type CIPRuleRequest struct {
	ProductKey string                `json:"productKey" validate:"required"`
	BaseLevel  string                `json:"baseLevel" validate:"required,oneof=CIP1 CIP2 CIP3"`
	Exceptions []CIPExceptionRequest `json:"exceptions" validate:"omitempty,dive"`
}

// ReplaceCIPRuleSetRequest replaces one named cleaning rule set.
type ReplaceCIPRuleSetRequest struct {
	Name  string           `json:"name" validate:"required"`
	Lines []string         `json:"lines" validate:"required,min=1,dive,required"`
	Rules []CIPRuleRequest `json:"rules" validate:"required,dive"`
}

// EvictionRuleRequest whitelists or bans a fast changeover pair.
type EvictionRuleRequest struct {
	FromKey   string `json:"fromKey" validate:"required"`
	TargetKey string `json:"targetKey" validate:"required"`
	Denied    bool   `json:"denied"`
}

// ReplaceEvictionRuleSetRequest replaces one named eviction rule set.
type ReplaceEvictionRuleSetRequest struct {
	Name  string                `json:"name" validate:"required"`
	Lines []string              `json:"lines" validate:"required,min=1,dive,required"`
	Rules []EvictionRuleRequest `json:"rules" validate:"required,dive"`
}

// TransitionNormRequest sets the minutes of one changeover event on one line.
type TransitionNormRequest struct {
	Event   string `json:"event" validate:"required,oneof=CIP1 CIP2 CIP3 EVICTION FORMAT_CHANGE DEFAULT"`
	Line    string `json:"line" validate:"required"`
	Minutes int    `json:"minutes" validate:"gte=0"`
}

// ReplaceNormsRuleSetRequest replaces one named norms set.
type ReplaceNormsRuleSetRequest struct {
	Name  string                  `json:"name" validate:"required"`
	Lines []string                `json:"lines" validate:"required,min=1,dive,required"`
	Norms []TransitionNormRequest `json:"norms" validate:"required,dive"`
}

// AutoCleanPolicyRequest configures threshold cleaning for one line.
type AutoCleanPolicyRequest struct {
	Line             string  `json:"line" validate:"required"`
	Enabled          bool    `json:"enabled"`
	Mode             string  `json:"mode" validate:"omitempty,oneof=pieces mass"`
	VolumeThreshold  float64 `json:"volumeThreshold" validate:"omitempty,gt=0"`
	ProductThreshold float64 `json:"productThreshold" validate:"omitempty,gt=0"`
	MinRemainder     float64 `json:"minRemainder" validate:"omitempty,gte=0"`
	Level            string  `json:"level" validate:"omitempty,oneof=CIP1 CIP2 CIP3"`
}

// ReplaceAutoCleanPoliciesRequest replaces all per-line policies.
type ReplaceAutoCleanPoliciesRequest struct {
	Policies []AutoCleanPolicyRequest `json:"policies" validate:"required,dive"`
}

// DensityRequest sets the mass per litre of one product type.
type DensityRequest struct {
	ProductType string  `json:"productType" validate:"required"`
	KgPerLitre  float64 `json:"kgPerLitre" validate:"required,gt=0"`
}

// ReplaceDensitiesRequest replaces the density table.
type ReplaceDensitiesRequest struct {
	Densities []DensityRequest `json:"densities" validate:"required,dive"`
}

// LineLinkRequest chains the target line's start to the source line's end.
type LineLinkRequest struct {
	TargetLine string `json:"targetLine" validate:"required"`
	SourceLine string `json:"sourceLine" validate:"required,nefield=TargetLine"`
}

// ReplaceLineLinksRequest replaces all line links.
type ReplaceLineLinksRequest struct {
	Links []LineLinkRequest `json:"links" validate:"dive"`
}

// CIPRuleSetResponse mirrors one stored cleaning rule set.
type CIPRuleSetResponse struct {
	ID    string           `json:"id"`
	Name  string           `json:"name"`
	Lines []string         `json:"lines"`
	Rules []CIPRuleRequest `json:"rules"`
}

// EvictionRuleSetResponse mirrors one stored eviction rule set.
type EvictionRuleSetResponse struct {
	ID    string                `json:"id"`
	Name  string                `json:"name"`
	Lines []string              `json:"lines"`
	Rules []EvictionRuleRequest `json:"rules"`
}

// NormsRuleSetResponse mirrors one stored norms set.
type NormsRuleSetResponse struct {
	ID    string                  `json:"id"`
	Name  string                  `json:"name"`
	Lines []string                `json:"lines"`
	Norms []TransitionNormRequest `json:"norms"`
}

// AutoCleanPolicyResponse mirrors one stored policy.
type AutoCleanPolicyResponse struct {
	Line             string  `json:"line"`
	Enabled          bool    `json:"enabled"`
	Mode             string  `json:"mode"`
	VolumeThreshold  float64 `json:"volumeThreshold"`
	ProductThreshold float64 `json:"productThreshold"`
	MinRemainder     float64 `json:"minRemainder"`
	Level            string  `json:"level"`
}

// DensityResponse mirrors one stored density row.
type DensityResponse struct {
	ProductType string  `json:"productType"`
	KgPerLitre  float64 `json:"kgPerLitre"`
}

// LineLinkResponse mirrors one stored link.
type LineLinkResponse struct {
	TargetLine string `json:"targetLine"`
	SourceLine string `json:"sourceLine"`
}
