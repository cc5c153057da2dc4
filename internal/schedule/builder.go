package schedule

import (
	"sort"
	"time"

	"go.uber.org/zap"
)

// BuildOptions control one build call.
type BuildOptions struct {
	// Anchor is the shift-start instant every line timeline begins at.
	// Zero means today's day-shift start.
	Anchor time.Time
	// Optimize enables the changeover optimizer.
	Optimize bool
	// LockedPriorities lists priority values whose original job order must
	// survive optimization.
	LockedPriorities []int
	// Links overrides the snapshot's line links when non-nil.
	Links map[string]string
}

// Builder runs the scheduling pipeline over an immutable rule snapshot:
// per line, order the jobs, interleave transitions and automatic cleanings,
// split at shift boundaries; then settle cross-line links. A build reads its
// inputs once and owns no state between calls.
type Builder struct {
	rules     *RuleSet
	resolver  *Resolver
	optimizer *Optimizer
	logger    *zap.Logger
}

// NewBuilder constructs a builder over the rule snapshot.
func NewBuilder(rules *RuleSet, optimizerOpts OptimizerOptions, logger *zap.Logger) *Builder {
	if rules == nil {
		rules = NewRuleSet()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	resolver := NewResolver(rules)
	return &Builder{
		rules:     rules,
		resolver:  resolver,
		optimizer: NewOptimizer(resolver, optimizerOpts, logger),
		logger:    logger,
	}
}

// Resolver exposes the builder's transition oracle.
func (b *Builder) Resolver() *Resolver {
	return b.resolver
}

// Build schedules the jobs and returns the complete result. Invalid records
// are skipped and reported, never fatal. Identical inputs produce identical
// results apart from the optimizer's bounded search.
func (b *Builder) Build(jobs []Job, opts BuildOptions) *Result {
	result := &Result{
		PerLine: make(map[string][]Entry),
		Stats:   make(map[string]LineStats),
	}

	byLine := make(map[string][]Job)
	var lines []string
	for _, job := range jobs {
		switch {
		case job.Line == "":
			result.Skipped = append(result.Skipped, SkippedJob{JobID: job.ID, Reason: "missing line"})
		case job.Quantity <= 0:
			result.Skipped = append(result.Skipped, SkippedJob{JobID: job.ID, Line: job.Line, Reason: "non-positive quantity"})
		default:
			if _, ok := byLine[job.Line]; !ok {
				lines = append(lines, job.Line)
			}
			byLine[job.Line] = append(byLine[job.Line], job)
		}
	}
	sort.Strings(lines)

	anchor := opts.Anchor
	if anchor.IsZero() {
		now := time.Now()
		anchor = time.Date(now.Year(), now.Month(), now.Day(), DayShiftStartHour, 0, 0, 0, now.Location())
	}

	for _, line := range lines {
		ordered := SortByPriority(byLine[line])
		saved := 0
		if opts.Optimize && b.optimizer != nil {
			ordered, saved = b.optimizer.Reorder(line, ordered, opts.LockedPriorities)
		}

		entries, stats := newLineScheduler(line, b.rules, b.resolver, anchor, b.logger).run(ordered)
		stats.OptimizerApplied = saved > 0
		stats.OptimizerSavedMin = saved

		result.PerLine[line] = SplitAtShiftBoundaries(entries)
		result.Stats[line] = stats
	}

	links := opts.Links
	if links == nil {
		links = b.rules.Links
	}
	ApplyLineLinks(result.PerLine, links)

	for _, line := range lines {
		result.Entries = append(result.Entries, result.PerLine[line]...)
	}

	b.logger.Debug("schedule built",
		zap.Int("lines", len(lines)),
		zap.Int("entries", len(result.Entries)),
		zap.Int("skipped", len(result.Skipped)))
	return result
}
