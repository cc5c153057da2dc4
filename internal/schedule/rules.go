package schedule

// Fallback changeover durations in minutes, used whenever the norms table
// has no row for a line/event pair.
const (
	DefaultCIP1Minutes         = 40
	DefaultCIP2Minutes         = 240
	DefaultCIP3Minutes         = 300
	DefaultEvictionMinutes     = 30
	DefaultFormatChangeMinutes = 120
	DefaultTransitionMinutes   = 40
)

// DefaultDensity is assumed for product types absent from the density table.
const DefaultDensity = 1.0

// UnitMode selects how auto-clean thresholds account produced amounts.
type UnitMode string

const (
	UnitPieces UnitMode = "pieces"
	UnitMass   UnitMode = "mass"
)

// Unit returns the display unit for threshold amounts.
func (m UnitMode) Unit() string {
	if m == UnitMass {
		return "kg"
	}
	return "pcs"
}

// CIPRule is the cleaning demanded after producing one product. Exceptions
// redirect specific successors to a level other than the base one.
type CIPRule struct {
	BaseLevel  TransitionType
	Exceptions map[TransitionType]map[string]struct{}
}

// ExceptionLevel returns the exception level demanded for the successor key,
// checking levels in ascending strictness the way the rule matrix is read.
func (r CIPRule) ExceptionLevel(successorKey string) (TransitionType, bool) {
	for _, level := range []TransitionType{TransitionCIP1, TransitionCIP2, TransitionCIP3} {
		if level == r.BaseLevel {
			continue
		}
		if targets, ok := r.Exceptions[level]; ok {
			if _, hit := targets[successorKey]; hit {
				return level, true
			}
		}
	}
	return TransitionNone, false
}

// EvictionRule lists fast-changeover targets reachable from one product.
// Denied pairs override allowed ones.
type EvictionRule struct {
	Allowed map[string]struct{}
	Denied  map[string]struct{}
}

// Permits reports whether the rule sanctions an eviction into the target key.
func (r EvictionRule) Permits(targetKey string) bool {
	if _, denied := r.Denied[targetKey]; denied {
		return false
	}
	_, ok := r.Allowed[targetKey]
	return ok
}

// AutoCleanPolicy configures threshold-driven cleaning for one line.
type AutoCleanPolicy struct {
	Enabled          bool
	Mode             UnitMode
	VolumeThreshold  float64
	ProductThreshold float64
	MinRemainder     float64
	Level            TransitionType
}

// RuleSet is the immutable per-build snapshot of every rule table. It is
// constructed once by the caller and shared read-only by all components.
type RuleSet struct {
	// CIP maps line -> product key -> cleaning rule.
	CIP map[string]map[string]CIPRule
	// Eviction maps line -> predecessor key -> eviction rule.
	Eviction map[string]map[string]EvictionRule
	// Norms maps line -> transition type -> minutes.
	Norms map[string]map[TransitionType]int
	// AutoClean maps line -> threshold policy.
	AutoClean map[string]AutoCleanPolicy
	// Density maps product type -> kg per litre.
	Density map[string]float64
	// Links maps a dependent line to the line whose end anchors its start.
	Links map[string]string
}

// NewRuleSet returns an empty snapshot on which every lookup degrades to the
// documented defaults.
func NewRuleSet() *RuleSet {
	return &RuleSet{
		CIP:       map[string]map[string]CIPRule{},
		Eviction:  map[string]map[string]EvictionRule{},
		Norms:     map[string]map[TransitionType]int{},
		AutoClean: map[string]AutoCleanPolicy{},
		Density:   map[string]float64{},
		Links:     map[string]string{},
	}
}

// NormMinutes returns the changeover duration for an event on a line,
// falling back to the per-event default when the table has no row.
func (r *RuleSet) NormMinutes(line string, event TransitionType) int {
	if r != nil {
		if byEvent, ok := r.Norms[line]; ok {
			if minutes, ok := byEvent[event]; ok && minutes >= 0 {
				return minutes
			}
		}
	}
	return fallbackMinutes(event)
}

func fallbackMinutes(event TransitionType) int {
	switch event {
	case TransitionCIP1:
		return DefaultCIP1Minutes
	case TransitionCIP2:
		return DefaultCIP2Minutes
	case TransitionCIP3:
		return DefaultCIP3Minutes
	case TransitionEviction:
		return DefaultEvictionMinutes
	case TransitionFormatChange:
		return DefaultFormatChangeMinutes
	case TransitionNone:
		return 0
	default:
		return DefaultTransitionMinutes
	}
}

// CIPFor returns the cleaning rule for a product on a line.
func (r *RuleSet) CIPFor(line, productKey string) (CIPRule, bool) {
	if r == nil || productKey == "" {
		return CIPRule{}, false
	}
	byProduct, ok := r.CIP[line]
	if !ok {
		return CIPRule{}, false
	}
	rule, ok := byProduct[productKey]
	return rule, ok
}

// EvictionFor returns the eviction rule for a predecessor product on a line.
func (r *RuleSet) EvictionFor(line, productKey string) (EvictionRule, bool) {
	if r == nil || productKey == "" {
		return EvictionRule{}, false
	}
	byProduct, ok := r.Eviction[line]
	if !ok {
		return EvictionRule{}, false
	}
	rule, ok := byProduct[productKey]
	return rule, ok
}

// PolicyFor returns the auto-clean policy for a line. Disabled when absent;
// an enabled policy with unset thresholds gets the stock ones.
func (r *RuleSet) PolicyFor(line string) AutoCleanPolicy {
	if r == nil {
		return AutoCleanPolicy{}
	}
	policy, ok := r.AutoClean[line]
	if !ok {
		return AutoCleanPolicy{}
	}
	if policy.Level.CIPRank() == 0 {
		policy.Level = TransitionCIP2
	}
	if policy.Mode != UnitMass {
		policy.Mode = UnitPieces
	}
	if policy.VolumeThreshold <= 0 {
		policy.VolumeThreshold = DefaultVolumeThreshold
	}
	if policy.ProductThreshold <= 0 {
		policy.ProductThreshold = DefaultProductThreshold
	}
	if policy.MinRemainder < 0 {
		policy.MinRemainder = 0
	}
	return policy
}

// DensityFor returns the density of a product type in kg per litre.
func (r *RuleSet) DensityFor(productType string) float64 {
	if r != nil {
		if d, ok := r.Density[NormalizeKey(productType)]; ok && d > 0 {
			return d
		}
	}
	return DefaultDensity
}

// ThresholdQuantity converts a job's remaining quantity into the unit the
// auto-clean thresholds are expressed in. Pieces pass through unchanged;
// mass multiplies by container litres and product density. A job without a
// usable container volume falls back to pieces.
func (r *RuleSet) ThresholdQuantity(job Job, mode UnitMode) float64 {
	if job.Quantity <= 0 {
		return 0
	}
	if mode != UnitMass {
		return job.Quantity
	}
	if job.UnitLitres <= 0 {
		return job.Quantity
	}
	return job.Quantity * job.UnitLitres * r.DensityFor(job.Product.Type)
}
