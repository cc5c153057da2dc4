package schedule

import (
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
)

// AutoCleanIDPrefix marks schedule entries inserted by the threshold
// simulation rather than by the transition rules.
const AutoCleanIDPrefix = "AUTO-CIP-"

const (
	// Threshold fallbacks applied when an enabled policy carries no values.
	DefaultVolumeThreshold  = 50000
	DefaultProductThreshold = 30000

	// freeSlotBound caps how far an automatic cleaning may be pushed
	// forward when probing for a conflict-free window.
	freeSlotBound = 24 * 60
)

// lineScheduler walks the ordered jobs of one line and emits production
// parts, mandatory transitions and automatic cleanings onto a contiguous
// minute timeline anchored at the shift start. All running state lives here;
// a fresh instance is created per line per build.
type lineScheduler struct {
	line     string
	rules    *RuleSet
	resolver *Resolver
	policy   AutoCleanPolicy
	anchor   time.Time
	logger   *zap.Logger

	cursor  int
	entries []Entry
	prev    *Job

	// Accumulators reset by every executed transition except eviction.
	totalSinceClean float64
	productRun      float64
	currentKey      string
	lastAutoClean   int

	stats LineStats
}

func newLineScheduler(line string, rules *RuleSet, resolver *Resolver, anchor time.Time, logger *zap.Logger) *lineScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &lineScheduler{
		line:          line,
		rules:         rules,
		resolver:      resolver,
		policy:        rules.PolicyFor(line),
		anchor:        anchor,
		logger:        logger,
		lastAutoClean: -1,
	}
}

// run builds the full timeline for the line. Jobs must already be in final
// execution order.
func (s *lineScheduler) run(jobs []Job) ([]Entry, LineStats) {
	for idx := range jobs {
		job := jobs[idx]
		var next *Job
		if idx+1 < len(jobs) {
			next = &jobs[idx+1]
		}
		s.emitTransition(&job)
		s.emitJob(&job, next)
	}
	s.stats.TotalMinutes = s.cursor
	return s.entries, s.stats
}

// emitTransition places the mandatory changeover between the previously
// emitted job and next. A transition directly after an automatic cleaning is
// redundant: the line is already clean.
func (s *lineScheduler) emitTransition(next *Job) {
	if s.prev == nil {
		return
	}
	if n := len(s.entries); n > 0 && s.entries[n-1].Kind == KindAutoClean {
		return
	}

	kind, minutes := s.resolver.Resolve(s.line, s.prev, next)
	if minutes <= 0 {
		return
	}

	s.entries = append(s.entries, Entry{
		Line:            s.line,
		Kind:            KindTransition,
		Transition:      kind,
		JobID:           transitionID(kind, next.ID),
		Name:            fmt.Sprintf("%s -> %s", shortName(s.prev.Name), shortName(next.Name)),
		Start:           s.at(s.cursor),
		End:             s.at(s.cursor + minutes),
		DurationMinutes: minutes,
		Note:            fmt.Sprintf("%s (%d min)", kind, minutes),
	})
	s.cursor += minutes
	s.stats.Transitions++
	s.stats.TransitionMinutes += minutes

	// Eviction displaces product without cleaning the line, so the
	// accumulators keep counting through it.
	if kind != TransitionEviction {
		s.resetCounters()
	}
}

// emitJob splits one job against the auto-clean thresholds and emits its
// production parts, inserting cleanings at the computed boundaries. The part
// quantities always sum exactly to the job's remaining quantity.
func (s *lineScheduler) emitJob(job *Job, next *Job) {
	massBasis := s.policy.Mode == UnitMass && job.UnitLitres > 0
	totalQty := s.rules.ThresholdQuantity(*job, s.policy.Mode)
	totalPieces := job.Quantity
	if totalQty <= 0 {
		return
	}

	remaining := totalQty
	remainingPieces := totalPieces
	partCount := s.estimatedParts(totalQty)
	part := 1
	suppressSplit := false
	boundaryDeferred := false

	for remaining > 0 {
		needClean := false
		reason := ""
		partQty := remaining

		if s.policy.Enabled && !suppressSplit {
			partQty, needClean, reason = s.splitBoundary(job, remaining)
		}
		// A buffered boundary can land beyond the end of the job; the part
		// is then capped to what is left and the cleaning waits for the
		// next boundary instead of chasing a tiny remainder.
		boundaryDeferred = needClean && partQty > remaining+1e-9
		if partQty <= 0 || remaining-partQty < 1e-9 {
			partQty = remaining
		}

		partPieces := remainingPieces
		if massBasis && partQty < remaining {
			partPieces = math.Floor(partQty / totalQty * totalPieces)
			if partPieces < 0 {
				partPieces = 0
			}
			if partPieces > remainingPieces {
				partPieces = remainingPieces
			}
		} else if !massBasis && partQty < remaining {
			partPieces = partQty
		}

		duration := job.DurationMinutes(partPieces)
		entry := Entry{
			Line:            s.line,
			Kind:            KindProduction,
			JobID:           partID(job.ID, part),
			Name:            job.Name,
			VolumeLabel:     job.Product.Volume,
			Quantity:        partPieces,
			Start:           s.at(s.cursor),
			End:             s.at(s.cursor + duration),
			DurationMinutes: duration,
		}
		if totalQty > partQty || part > 1 {
			entry.PartIndex = part
			entry.PartCount = partCount
			entry.Note = fmt.Sprintf("part %d of %d", part, partCount)
		}
		s.entries = append(s.entries, entry)

		s.cursor += duration
		s.totalSinceClean += partQty
		if key := job.Product.RuleKey(); key == s.currentKey {
			s.productRun += partQty
		} else {
			s.currentKey = key
			s.productRun = partQty
		}
		remaining -= partQty
		remainingPieces -= partPieces
		part++
		s.prev = job
		s.stats.Parts++

		if needClean && remaining > 0 && s.lastAutoClean != len(s.entries)-1 {
			if s.mandatoryOutranks(job, next) {
				// The table transition after this job is at least as
				// strict as the automatic cleaning and will reset the
				// line when it runs; emit the rest of the job whole.
				suppressSplit = true
				s.logger.Debug("auto clean superseded by mandatory transition",
					zap.String("line", s.line),
					zap.String("job", job.ID))
			} else {
				s.insertAutoClean(job, reason)
			}
		} else if !needClean {
			break
		}
	}
	s.stats.Jobs++

	// Totals may have crossed a threshold exactly at the end of the job. A
	// deferred boundary means the buffer rule already pushed the cleaning
	// past this job, so the tail runs uncut.
	if s.policy.Enabled && !boundaryDeferred &&
		(s.totalSinceClean >= s.policy.VolumeThreshold || s.productRun >= s.policy.ProductThreshold) &&
		!s.mandatoryOutranks(job, next) {
		s.insertAutoClean(job, fmt.Sprintf("accumulated %.0f %s since last clean",
			s.totalSinceClean, s.policy.Mode.Unit()))
	}
}

// splitBoundary computes the size of the next production part and whether a
// cleaning is due after it. The buffer rule extends a boundary whose
// post-clean remainder would be smaller than MinRemainder, so a cleaning is
// never followed by a near-empty part.
func (s *lineScheduler) splitBoundary(job *Job, remaining float64) (float64, bool, string) {
	unit := s.policy.Mode.Unit()

	if s.prev != nil && s.totalSinceClean+remaining > s.policy.VolumeThreshold {
		boundary := s.policy.VolumeThreshold
		remainder := s.totalSinceClean + remaining - boundary
		reason := fmt.Sprintf("line total reached %.0f %s", boundary, unit)
		if remainder < s.policy.MinRemainder {
			boundary += s.policy.MinRemainder - remainder
			reason = fmt.Sprintf("line total reached %.0f %s (boundary buffered by %.0f)",
				boundary, unit, s.policy.MinRemainder-remainder)
		}
		partQty := boundary - s.totalSinceClean
		if partQty <= 0 {
			partQty = math.Min(remaining, s.policy.VolumeThreshold)
		}
		return partQty, true, reason
	}

	if job.Product.RuleKey() == s.currentKey {
		if s.productRun+remaining > s.policy.ProductThreshold {
			boundary := s.policy.ProductThreshold
			remainder := s.productRun + remaining - boundary
			reason := fmt.Sprintf("product run reached %.0f %s", boundary, unit)
			if remainder < s.policy.MinRemainder {
				boundary += s.policy.MinRemainder - remainder
				reason = fmt.Sprintf("product run reached %.0f %s (boundary buffered by %.0f)",
					boundary, unit, s.policy.MinRemainder-remainder)
			}
			partQty := boundary - s.productRun
			if partQty <= 0 {
				partQty = math.Min(remaining, s.policy.ProductThreshold)
			}
			return partQty, true, reason
		}
		return remaining, false, ""
	}

	if remaining > s.policy.ProductThreshold {
		partQty := s.policy.ProductThreshold
		remainder := remaining - partQty
		reason := fmt.Sprintf("job exceeds product threshold %.0f %s", partQty, unit)
		if remainder < s.policy.MinRemainder {
			partQty += s.policy.MinRemainder - remainder
			reason = fmt.Sprintf("job exceeds product threshold (boundary buffered by %.0f %s)",
				s.policy.MinRemainder-remainder, unit)
		}
		return partQty, true, reason
	}
	return remaining, false, ""
}

// mandatoryOutranks reports whether the table transition from job to next is
// at least as strict as the configured automatic cleaning level. Evictions
// and format changes rank zero and never suppress a cleaning.
func (s *lineScheduler) mandatoryOutranks(job, next *Job) bool {
	if next == nil {
		return false
	}
	required, _ := s.resolver.Resolve(s.line, job, next)
	rank := required.CIPRank()
	return rank >= s.policy.Level.CIPRank() && rank > 0
}

// insertAutoClean places an automatic cleaning at the next conflict-free
// window and resets the accumulators.
func (s *lineScheduler) insertAutoClean(job *Job, reason string) {
	level := s.policy.Level
	duration := s.rules.NormMinutes(s.line, level)
	start := s.findFreeSlot(s.cursor, duration)
	if start != s.cursor {
		s.logger.Debug("auto clean shifted to a free window",
			zap.String("line", s.line),
			zap.Int("from_minute", s.cursor),
			zap.Int("to_minute", start))
	}

	s.entries = append(s.entries, Entry{
		Line:            s.line,
		Kind:            KindAutoClean,
		Transition:      level,
		JobID:           AutoCleanIDPrefix + job.ID,
		Name:            fmt.Sprintf("%s by volume (%.0f %s)", level, s.totalSinceClean, s.policy.Mode.Unit()),
		Start:           s.at(start),
		End:             s.at(start + duration),
		DurationMinutes: duration,
		Note:            reason,
	})
	s.cursor = start + duration
	s.stats.AutoCleans++
	s.resetCounters()
	s.logger.Debug("auto clean inserted",
		zap.String("line", s.line),
		zap.String("level", string(level)),
		zap.String("reason", reason))
}

// findFreeSlot probes for a window that does not overlap any entry already
// placed on the line, advancing by the cleaning's own duration up to one
// day. On exhaustion it keeps the original time: best effort, never fails.
func (s *lineScheduler) findFreeSlot(start, duration int) int {
	if duration <= 0 {
		return start
	}
	candidate := start
	for candidate < freeSlotBound {
		if !s.overlaps(candidate, duration) {
			return candidate
		}
		candidate += duration
	}
	return start
}

func (s *lineScheduler) overlaps(start, duration int) bool {
	end := start + duration
	for i := range s.entries {
		es := s.minutesAt(s.entries[i].Start)
		ee := s.minutesAt(s.entries[i].End)
		if end > es && start < ee {
			return true
		}
	}
	return false
}

func (s *lineScheduler) resetCounters() {
	s.totalSinceClean = 0
	s.productRun = 0
	s.currentKey = ""
	s.lastAutoClean = len(s.entries) - 1
}

// estimatedParts reports how many parts the job is expected to split into,
// used only for the "part i of n" annotations.
func (s *lineScheduler) estimatedParts(totalQty float64) int {
	if !s.policy.Enabled || s.policy.ProductThreshold <= 0 {
		return 1
	}
	n := int(math.Ceil(totalQty / s.policy.ProductThreshold))
	if n < 1 {
		n = 1
	}
	return n
}

func (s *lineScheduler) at(minutes int) time.Time {
	return s.anchor.Add(time.Duration(minutes) * time.Minute)
}

func (s *lineScheduler) minutesAt(t time.Time) int {
	return int(t.Sub(s.anchor) / time.Minute)
}

func transitionID(kind TransitionType, nextJobID string) string {
	switch kind {
	case TransitionEviction:
		return "EVICT-" + nextJobID
	case TransitionFormatChange:
		return "FMT-" + nextJobID
	default:
		return "CIP-" + nextJobID
	}
}

func partID(jobID string, part int) string {
	if part > 1 {
		return fmt.Sprintf("%s-P%d", jobID, part)
	}
	return jobID
}

func shortName(name string) string {
	runes := []rune(name)
	if len(runes) > 30 {
		runes = runes[:30]
	}
	return string(runes)
}
