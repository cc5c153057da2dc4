package schedule

import "sort"

// ApplyLineLinks shifts every linked line so that its first entry starts
// exactly when its source line's last entry ends. Links are applied in
// dependency order, sources before their dependents, so chains settle
// correctly. Cycles are not detected: a cyclic declaration degrades to the
// traversal order and is the caller's responsibility.
func ApplyLineLinks(perLine map[string][]Entry, links map[string]string) {
	for _, target := range linkOrder(links) {
		source := perLine[links[target]]
		entries := perLine[target]
		if len(source) == 0 || len(entries) == 0 {
			continue
		}
		delta := source[len(source)-1].End.Sub(entries[0].Start)
		if delta == 0 {
			continue
		}
		for i := range entries {
			entries[i].Start = entries[i].Start.Add(delta)
			entries[i].End = entries[i].End.Add(delta)
		}
	}
}

// linkOrder orders targets so a line is shifted only after the line it
// depends on has settled.
func linkOrder(links map[string]string) []string {
	targets := make([]string, 0, len(links))
	for t := range links {
		targets = append(targets, t)
	}
	sort.Strings(targets)

	const (
		unseen = iota
		visiting
		done
	)
	state := make(map[string]int, len(targets))
	order := make([]string, 0, len(targets))

	var visit func(t string)
	visit = func(t string) {
		if state[t] != unseen {
			return
		}
		state[t] = visiting
		if source, ok := links[t]; ok {
			if _, alsoTarget := links[source]; alsoTarget {
				visit(source)
			}
		}
		state[t] = done
		order = append(order, t)
	}
	for _, t := range targets {
		visit(t)
	}
	return order
}
