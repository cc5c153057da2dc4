package schedule

import "sort"

// SortByPriority orders jobs for execution: ascending priority, original
// submission order within a priority, then larger quantity first. This is
// the deterministic baseline the optimizer starts from and falls back to.
func SortByPriority(jobs []Job) []Job {
	ordered := make([]Job, len(jobs))
	copy(ordered, jobs)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if pa, pb := a.EffectivePriority(), b.EffectivePriority(); pa != pb {
			return pa < pb
		}
		if a.OriginalIndex != b.OriginalIndex {
			return a.OriginalIndex < b.OriginalIndex
		}
		return a.Quantity > b.Quantity
	})
	return ordered
}

// priorityBlock is a maximal run of equal-priority jobs in the baseline
// order. Priority ordering forces blocks to stay contiguous, so the
// optimizer only ever permutes jobs inside an unlocked block.
type priorityBlock struct {
	start  int
	end    int
	locked bool
}

func priorityBlocks(jobs []Job, lockedPriorities []int) []priorityBlock {
	lockedSet := make(map[int]struct{}, len(lockedPriorities))
	for _, p := range lockedPriorities {
		lockedSet[p] = struct{}{}
	}

	var blocks []priorityBlock
	for i := 0; i < len(jobs); {
		p := jobs[i].EffectivePriority()
		j := i + 1
		for j < len(jobs) && jobs[j].EffectivePriority() == p {
			j++
		}
		_, locked := lockedSet[p]
		blocks = append(blocks, priorityBlock{start: i, end: j, locked: locked})
		i = j
	}
	return blocks
}
