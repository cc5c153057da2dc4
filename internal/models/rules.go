package models

import (
	"time"

	"github.com/lib/pq"
)

// RuleSetKind separates the rule tables that share the set container.
type RuleSetKind string

const (
	RuleSetKindCIP      RuleSetKind = "cip"
	RuleSetKindEviction RuleSetKind = "eviction"
	RuleSetKindNorms    RuleSetKind = "norms"
)

// RuleSet scopes a group of rule rows to the lines that own them. A line
// belongs to at most one set per kind.
type RuleSet struct {
	ID        string         `db:"id" json:"id"`
	Name      string         `db:"name" json:"name"`
	Kind      RuleSetKind    `db:"kind" json:"kind"`
	Lines     pq.StringArray `db:"lines" json:"lines"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

// CIPRule assigns a base cleaning level to one product key inside a set.
type CIPRule struct {
	ID         string `db:"id" json:"id"`
	RuleSetID  string `db:"rule_set_id" json:"rule_set_id"`
	ProductKey string `db:"product_key" json:"product_key"`
	BaseLevel  string `db:"base_level" json:"base_level"`
}

// CIPException overrides the level for one specific successor product.
type CIPException struct {
	ID        string `db:"id" json:"id"`
	CIPRuleID string `db:"cip_rule_id" json:"cip_rule_id"`
	Level     string `db:"level" json:"level"`
	TargetKey string `db:"target_key" json:"target_key"`
}

// CIPRuleWithExceptions bundles a rule with its exception rows for
// set replacement and snapshot assembly.
type CIPRuleWithExceptions struct {
	Rule       CIPRule
	Exceptions []CIPException
}

// EvictionRule allows or bans a fast changeover between two product keys.
type EvictionRule struct {
	ID        string `db:"id" json:"id"`
	RuleSetID string `db:"rule_set_id" json:"rule_set_id"`
	FromKey   string `db:"from_key" json:"from_key"`
	TargetKey string `db:"target_key" json:"target_key"`
	Denied    bool   `db:"denied" json:"denied"`
}

// TransitionNorm stores the minutes of one changeover event on one line.
type TransitionNorm struct {
	ID        string `db:"id" json:"id"`
	RuleSetID string `db:"rule_set_id" json:"rule_set_id"`
	Event     string `db:"event" json:"event"`
	Line      string `db:"line" json:"line"`
	Minutes   int    `db:"minutes" json:"minutes"`
}

// AutoCleanPolicy drives threshold-based cleaning insertion for one line.
type AutoCleanPolicy struct {
	Line             string    `db:"line" json:"line"`
	Enabled          bool      `db:"enabled" json:"enabled"`
	Mode             string    `db:"mode" json:"mode"`
	VolumeThreshold  float64   `db:"volume_threshold" json:"volume_threshold"`
	ProductThreshold float64   `db:"product_threshold" json:"product_threshold"`
	MinRemainder     float64   `db:"min_remainder" json:"min_remainder"`
	CIPLevel         string    `db:"cip_level" json:"cip_level"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// Density maps a product type to kilograms per litre for mass thresholds.
type Density struct {
	ProductType string    `db:"product_type" json:"product_type"`
	KgPerLitre  float64   `db:"kg_per_litre" json:"kg_per_litre"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// LineLink starts the target line where the source line ends.
type LineLink struct {
	TargetLine string    `db:"target_line" json:"target_line"`
	SourceLine string    `db:"source_line" json:"source_line"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}
