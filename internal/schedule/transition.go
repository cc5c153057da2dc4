package schedule

// Resolver computes the changeover type and duration between two consecutive
// jobs on a line. It is pure and total: malformed or missing rules degrade
// to documented defaults and it never fails.
type Resolver struct {
	rules *RuleSet
}

// NewResolver builds a resolver over a rule snapshot. A nil snapshot behaves
// like an empty one.
func NewResolver(rules *RuleSet) *Resolver {
	if rules == nil {
		rules = NewRuleSet()
	}
	return &Resolver{rules: rules}
}

// Resolve returns the transition required between prev and next on the line.
// The cascade is ordered: format change outranks eviction, eviction outranks
// CIP. A nil prev means next is the first job on the line.
func (r *Resolver) Resolve(line string, prev *Job, next *Job) (TransitionType, int) {
	if prev == nil || next == nil {
		return TransitionNone, 0
	}

	prevVolume := prev.Product.VolumeLabel()
	nextVolume := next.Product.VolumeLabel()
	if prevVolume != "" && nextVolume != "" && prevVolume != nextVolume {
		return TransitionFormatChange, r.rules.NormMinutes(line, TransitionFormatChange)
	}

	prevKey := prev.Product.RuleKey()
	nextKey := next.Product.RuleKey()

	if rule, ok := r.rules.EvictionFor(line, prevKey); ok && rule.Permits(nextKey) {
		return TransitionEviction, r.rules.NormMinutes(line, TransitionEviction)
	}

	rule, ok := r.rules.CIPFor(line, prevKey)
	if !ok {
		return TransitionDefault, r.rules.NormMinutes(line, TransitionDefault)
	}

	level := rule.BaseLevel
	if exception, hit := rule.ExceptionLevel(nextKey); hit {
		level = exception
	}
	if level.CIPRank() == 0 {
		return TransitionDefault, r.rules.NormMinutes(line, TransitionDefault)
	}
	return level, r.rules.NormMinutes(line, level)
}

// Cost returns only the duration of the transition, serving as the pairwise
// cost oracle for the optimizer.
func (r *Resolver) Cost(line string, prev *Job, next *Job) int {
	_, minutes := r.Resolve(line, prev, next)
	return minutes
}
