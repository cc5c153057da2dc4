package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
)

// entry mirrors the schedule entry JSON produced by the build endpoints.
type entry struct {
	Line        string `json:"line"`
	Kind        string `json:"kind"`
	Transition  string `json:"transition"`
	JobID       string `json:"jobId"`
	Name        string `json:"name"`
	PartIndex   int    `json:"partIndex"`
	StartsAt    string `json:"startsAt"`
	EndsAt      string `json:"endsAt"`
	DurationMin int    `json:"durationMin"`
}

type buildDocument struct {
	Entries []entry `json:"entries"`
	Data    *struct {
		Entries []entry `json:"entries"`
	} `json:"data"`
}

type entryDiff struct {
	Key    string
	Before *entry
	After  *entry
}

type lineSummary struct {
	Line          string
	MinutesBefore int
	MinutesAfter  int
}

func main() {
	var (
		beforePath string
		afterPath  string
		lineFilter string
	)

	flag.StringVar(&beforePath, "a", "", "Path to the baseline build JSON")
	flag.StringVar(&afterPath, "b", "", "Path to the compared build JSON")
	flag.StringVar(&lineFilter, "lines", "", "Comma-separated line names to compare (default all)")
	flag.Parse()

	if beforePath == "" || afterPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	before, err := loadEntries(beforePath)
	if err != nil {
		log.Fatalf("failed to load %s: %v", beforePath, err)
	}
	after, err := loadEntries(afterPath)
	if err != nil {
		log.Fatalf("failed to load %s: %v", afterPath, err)
	}

	if lineFilter != "" {
		allowed := make(map[string]struct{})
		for _, l := range strings.Split(lineFilter, ",") {
			if trimmed := strings.TrimSpace(l); trimmed != "" {
				allowed[trimmed] = struct{}{}
			}
		}
		before = filterLines(before, allowed)
		after = filterLines(after, allowed)
	}

	diffs := compare(before, after)
	printReport(beforePath, afterPath, diffs, summarize(before, after))

	if len(diffs) > 0 {
		os.Exit(1)
	}
}

func loadEntries(path string) ([]entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc buildDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Data != nil && len(doc.Data.Entries) > 0 {
		return doc.Data.Entries, nil
	}
	if len(doc.Entries) == 0 {
		return nil, fmt.Errorf("no entries found in %s", path)
	}
	return doc.Entries, nil
}

func filterLines(entries []entry, allowed map[string]struct{}) []entry {
	out := entries[:0]
	for _, e := range entries {
		if _, ok := allowed[e.Line]; ok {
			out = append(out, e)
		}
	}
	return out
}

// entryKey identifies an entry across builds. Production rows key on the
// job and part; transitions key on their position after a job.
func entryKey(e entry) string {
	switch e.Kind {
	case "PRODUCTION":
		return fmt.Sprintf("%s|PRODUCTION|%s|%d", e.Line, e.JobID, e.PartIndex)
	case "TRANSITION":
		return fmt.Sprintf("%s|TRANSITION|%s|%s", e.Line, e.Transition, e.StartsAt)
	default:
		return fmt.Sprintf("%s|%s|%s|%s", e.Line, e.Kind, e.Name, e.StartsAt)
	}
}

func compare(before, after []entry) []entryDiff {
	beforeByKey := make(map[string]entry, len(before))
	for _, e := range before {
		beforeByKey[entryKey(e)] = e
	}
	afterByKey := make(map[string]entry, len(after))
	for _, e := range after {
		afterByKey[entryKey(e)] = e
	}

	var diffs []entryDiff
	for key, b := range beforeByKey {
		b := b
		a, ok := afterByKey[key]
		if !ok {
			diffs = append(diffs, entryDiff{Key: key, Before: &b})
			continue
		}
		if a.StartsAt != b.StartsAt || a.EndsAt != b.EndsAt || a.DurationMin != b.DurationMin {
			a := a
			diffs = append(diffs, entryDiff{Key: key, Before: &b, After: &a})
		}
	}
	for key, a := range afterByKey {
		if _, ok := beforeByKey[key]; !ok {
			a := a
			diffs = append(diffs, entryDiff{Key: key, After: &a})
		}
	}

	sort.Slice(diffs, func(i, j int) bool { return diffs[i].Key < diffs[j].Key })
	return diffs
}

func summarize(before, after []entry) []lineSummary {
	totals := make(map[string]*lineSummary)
	for _, e := range before {
		s := ensureSummary(totals, e.Line)
		s.MinutesBefore += e.DurationMin
	}
	for _, e := range after {
		s := ensureSummary(totals, e.Line)
		s.MinutesAfter += e.DurationMin
	}

	lines := make([]lineSummary, 0, len(totals))
	for _, s := range totals {
		lines = append(lines, *s)
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].Line < lines[j].Line })
	return lines
}

func ensureSummary(totals map[string]*lineSummary, line string) *lineSummary {
	if s, ok := totals[line]; ok {
		return s
	}
	s := &lineSummary{Line: line}
	totals[line] = s
	return s
}

func printReport(beforePath, afterPath string, diffs []entryDiff, lines []lineSummary) {
	fmt.Println("Schedule Diff Report")
	fmt.Println("====================")
	fmt.Printf("A: %s\nB: %s\n\n", beforePath, afterPath)

	for _, d := range diffs {
		switch {
		case d.After == nil:
			fmt.Printf("[ONLY A] %s (%d min, %s -> %s)\n", d.Key, d.Before.DurationMin, d.Before.StartsAt, d.Before.EndsAt)
		case d.Before == nil:
			fmt.Printf("[ONLY B] %s (%d min, %s -> %s)\n", d.Key, d.After.DurationMin, d.After.StartsAt, d.After.EndsAt)
		default:
			fmt.Printf("[MOVED ] %s\n", d.Key)
			fmt.Printf("  A: %s -> %s (%d min)\n", d.Before.StartsAt, d.Before.EndsAt, d.Before.DurationMin)
			fmt.Printf("  B: %s -> %s (%d min)\n", d.After.StartsAt, d.After.EndsAt, d.After.DurationMin)
		}
	}
	if len(diffs) == 0 {
		fmt.Println("Builds are identical.")
	}

	fmt.Println()
	for _, s := range lines {
		delta := s.MinutesAfter - s.MinutesBefore
		fmt.Printf("%s: %d min -> %d min (%+d)\n", s.Line, s.MinutesBefore, s.MinutesAfter, delta)
	}
	fmt.Printf("\nDiffering entries: %d\n", len(diffs))
}
