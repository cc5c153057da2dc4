package schedule

import "time"

var testAnchor = time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC)

func intPtr(v int) *int { return &v }

func mark(minutes int) time.Time {
	return testAnchor.Add(time.Duration(minutes) * time.Minute)
}

func entryKinds(entries []Entry) []EntryKind {
	out := make([]EntryKind, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Kind)
	}
	return out
}

func jobIDs(jobs []Job) []string {
	out := make([]string, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, j.ID)
	}
	return out
}
