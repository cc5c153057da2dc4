package schedule

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
)

// exactBlockLimit bounds the bitmask DP: unlocked blocks up to this size are
// solved exactly, anything larger falls back to bounded local search.
const exactBlockLimit = 12

const infCost = math.MaxInt / 4

// OptimizerOptions tunes the changeover optimizer.
type OptimizerOptions struct {
	// Workers is the number of parallel local-search restarts.
	Workers int
	// TimeLimit caps the whole search. Zero scales the bound with the job
	// count; an unreachably small value forces the baseline fallback.
	TimeLimit time.Duration
}

// Optimizer reorders the jobs of one line to minimize total changeover
// minutes while honoring two hard constraints: strictly higher priority runs
// strictly earlier, and jobs sharing a locked priority keep their original
// relative order. It always returns a valid order within its wall-clock
// bound; on timeout or when no improvement exists it returns the baseline
// unchanged.
type Optimizer struct {
	resolver  *Resolver
	workers   int
	timeLimit time.Duration
	logger    *zap.Logger
}

// NewOptimizer builds an optimizer over the given cost oracle.
func NewOptimizer(resolver *Resolver, opts OptimizerOptions, logger *zap.Logger) *Optimizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 8
	}
	return &Optimizer{
		resolver:  resolver,
		workers:   workers,
		timeLimit: opts.TimeLimit,
		logger:    logger,
	}
}

// timeBudget mirrors the adaptive solver timeout: small lines finish within
// seconds, large ones get up to half a minute.
func (o *Optimizer) timeBudget(n int) time.Duration {
	if o.timeLimit != 0 {
		return o.timeLimit
	}
	switch {
	case n < 10:
		return 5 * time.Second
	case n < 20:
		return 10 * time.Second
	case n < 50:
		return 20 * time.Second
	default:
		return 30 * time.Second
	}
}

// Reorder optimizes the execution order of jobs, which must already be in
// baseline (priority-sorted) order. It returns the chosen order and the
// changeover minutes saved against the baseline, zero when it fell back.
func (o *Optimizer) Reorder(line string, jobs []Job, lockedPriorities []int) ([]Job, int) {
	n := len(jobs)
	if n < 2 {
		return jobs, 0
	}
	deadline := time.Now().Add(o.timeBudget(n))

	cost := o.costMatrix(line, jobs)
	baseline := identityOrder(n)
	baselineCost := orderCost(cost, baseline)
	blocks := priorityBlocks(jobs, lockedPriorities)

	var best []int
	bestCost := baselineCost

	if maxUnlockedBlock(blocks) <= exactBlockLimit {
		if order, c, ok := solveExact(cost, blocks, deadline); ok && c < bestCost {
			best, bestCost = order, c
		}
	}
	if best == nil {
		if order, c, ok := o.localSearch(cost, blocks, baseline, baselineCost, deadline); ok && c < bestCost {
			best, bestCost = order, c
		}
	}

	if best == nil || bestCost >= baselineCost {
		return jobs, 0
	}
	if !validOrder(jobs, best, lockedPriorities) {
		o.logger.Warn("optimizer produced an invalid order, keeping baseline",
			zap.String("line", line))
		return jobs, 0
	}

	result := make([]Job, n)
	for pos, idx := range best {
		result[pos] = jobs[idx]
	}
	saved := baselineCost - bestCost
	o.logger.Debug("changeover order optimized",
		zap.String("line", line),
		zap.Int("jobs", n),
		zap.Int("baseline_minutes", baselineCost),
		zap.Int("optimized_minutes", bestCost),
		zap.Int("saved_minutes", saved))
	return result, saved
}

func (o *Optimizer) costMatrix(line string, jobs []Job) [][]int {
	n := len(jobs)
	cost := make([][]int, n)
	for i := range jobs {
		cost[i] = make([]int, n)
		for j := range jobs {
			if i == j {
				continue
			}
			cost[i][j] = o.resolver.Cost(line, &jobs[i], &jobs[j])
		}
	}
	return cost
}

func identityOrder(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return order
}

func orderCost(cost [][]int, order []int) int {
	total := 0
	for p := 0; p+1 < len(order); p++ {
		total += cost[order[p]][order[p+1]]
	}
	return total
}

func maxUnlockedBlock(blocks []priorityBlock) int {
	max := 0
	for _, b := range blocks {
		if b.locked {
			continue
		}
		if size := b.end - b.start; size > max {
			max = size
		}
	}
	return max
}

// chainState is the optimal feasible prefix ending with a particular job.
type chainState struct {
	cost  int
	order []int
}

// solveExact walks the priority blocks left to right carrying, per possible
// trailing job, the cheapest feasible prefix. Locked blocks contribute their
// fixed internal order; unlocked ones are solved by Held-Karp relative to
// each entry state. The final minimum is globally optimal.
func solveExact(cost [][]int, blocks []priorityBlock, deadline time.Time) ([]int, int, bool) {
	states := map[int]chainState{-1: {}}

	for _, b := range blocks {
		if time.Now().After(deadline) {
			return nil, 0, false
		}
		next := make(map[int]chainState)

		if b.locked || b.end-b.start == 1 {
			exit := b.end - 1
			for last, st := range states {
				c := st.cost
				prev := last
				for idx := b.start; idx < b.end; idx++ {
					if prev >= 0 {
						c += cost[prev][idx]
					}
					prev = idx
				}
				if cur, ok := next[exit]; !ok || c < cur.cost {
					order := make([]int, 0, len(st.order)+b.end-b.start)
					order = append(order, st.order...)
					for idx := b.start; idx < b.end; idx++ {
						order = append(order, idx)
					}
					next[exit] = chainState{cost: c, order: order}
				}
			}
		} else {
			for last, st := range states {
				finish, orders, ok := heldKarp(cost, b, last, deadline)
				if !ok {
					return nil, 0, false
				}
				for exit, c := range finish {
					total := st.cost + c
					if cur, ok := next[exit]; !ok || total < cur.cost {
						order := make([]int, 0, len(st.order)+len(orders[exit]))
						order = append(order, st.order...)
						order = append(order, orders[exit]...)
						next[exit] = chainState{cost: total, order: order}
					}
				}
			}
		}
		states = next
	}

	bestCost := infCost
	var bestOrder []int
	for _, st := range states {
		if st.cost < bestCost {
			bestCost, bestOrder = st.cost, st.order
		}
	}
	if bestOrder == nil {
		return nil, 0, false
	}
	return bestOrder, bestCost, true
}

// heldKarp finds, for every possible final job of the block, the cheapest
// path through all block members starting from the entry job (-1 for none).
func heldKarp(cost [][]int, b priorityBlock, entry int, deadline time.Time) (map[int]int, map[int][]int, bool) {
	k := b.end - b.start
	full := 1<<k - 1

	dp := make([][]int, full+1)
	par := make([][]int8, full+1)
	for mask := 0; mask <= full; mask++ {
		dp[mask] = make([]int, k)
		par[mask] = make([]int8, k)
		for i := 0; i < k; i++ {
			dp[mask][i] = infCost
			par[mask][i] = -1
		}
	}
	for i := 0; i < k; i++ {
		entryCost := 0
		if entry >= 0 {
			entryCost = cost[entry][b.start+i]
		}
		dp[1<<i][i] = entryCost
	}

	for mask := 1; mask <= full; mask++ {
		if mask&1023 == 0 && time.Now().After(deadline) {
			return nil, nil, false
		}
		for last := 0; last < k; last++ {
			cur := dp[mask][last]
			if cur >= infCost || mask&(1<<last) == 0 {
				continue
			}
			for j := 0; j < k; j++ {
				if mask&(1<<j) != 0 {
					continue
				}
				nm := mask | 1<<j
				if nc := cur + cost[b.start+last][b.start+j]; nc < dp[nm][j] {
					dp[nm][j] = nc
					par[nm][j] = int8(last)
				}
			}
		}
	}

	finish := make(map[int]int, k)
	orders := make(map[int][]int, k)
	for last := 0; last < k; last++ {
		if dp[full][last] >= infCost {
			continue
		}
		order := make([]int, k)
		mask, cur := full, last
		for pos := k - 1; pos >= 0; pos-- {
			order[pos] = b.start + cur
			prev := par[mask][cur]
			mask &^= 1 << cur
			cur = int(prev)
		}
		finish[b.start+last] = dp[full][last]
		orders[b.start+last] = order
	}
	return finish, orders, true
}

// localSearch runs parallel restarts of a first-improvement swap search
// inside unlocked blocks. Worker zero starts from the baseline so the search
// can only improve on it; the others start from shuffled block interiors.
func (o *Optimizer) localSearch(cost [][]int, blocks []priorityBlock, baseline []int, baselineCost int, deadline time.Time) ([]int, int, bool) {
	if time.Now().After(deadline) {
		return nil, baselineCost, false
	}
	type attempt struct {
		order []int
		cost  int
	}
	attempts := make([]attempt, o.workers)

	var wg sync.WaitGroup
	for w := 0; w < o.workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			order := make([]int, len(baseline))
			copy(order, baseline)
			if w > 0 {
				rng := rand.New(rand.NewSource(int64(w)))
				for _, b := range blocks {
					if b.locked {
						continue
					}
					rng.Shuffle(b.end-b.start, func(x, y int) {
						order[b.start+x], order[b.start+y] = order[b.start+y], order[b.start+x]
					})
				}
			}
			cur := orderCost(cost, order)

			improved := true
			for improved && !time.Now().After(deadline) {
				improved = false
				for _, b := range blocks {
					if b.locked || b.end-b.start < 2 {
						continue
					}
					for i := b.start; i < b.end; i++ {
						for j := i + 1; j < b.end; j++ {
							if delta := trySwap(cost, order, i, j); delta < 0 {
								cur += delta
								improved = true
							}
						}
					}
				}
			}
			attempts[w] = attempt{order: order, cost: cur}
		}(w)
	}
	wg.Wait()

	best := []int(nil)
	bestCost := baselineCost
	for _, a := range attempts {
		if a.order != nil && a.cost < bestCost {
			best, bestCost = a.order, a.cost
		}
	}
	return best, bestCost, best != nil
}

// trySwap swaps the jobs at positions i and j when that lowers the total
// changeover cost, returning the (negative) delta, or zero after undoing a
// non-improving swap. Only the edges adjacent to the two positions change.
func trySwap(cost [][]int, order []int, i, j int) int {
	positions := [4]int{i - 1, i, j - 1, j}
	before := 0
	for p, pos := range positions {
		if p > 0 && pos == positions[p-1] {
			continue
		}
		before += edgeCost(cost, order, pos)
	}
	order[i], order[j] = order[j], order[i]
	after := 0
	for p, pos := range positions {
		if p > 0 && pos == positions[p-1] {
			continue
		}
		after += edgeCost(cost, order, pos)
	}
	if after >= before {
		order[i], order[j] = order[j], order[i]
		return 0
	}
	return after - before
}

// edgeCost is the changeover between positions p and p+1, zero off the ends.
func edgeCost(cost [][]int, order []int, p int) int {
	if p < 0 || p+1 >= len(order) {
		return 0
	}
	return cost[order[p]][order[p+1]]
}

// validOrder verifies both hard constraints and that the order is a true
// permutation. A violating result is never returned to the caller.
func validOrder(jobs []Job, order []int, lockedPriorities []int) bool {
	if len(order) != len(jobs) {
		return false
	}
	lockedSet := make(map[int]struct{}, len(lockedPriorities))
	for _, p := range lockedPriorities {
		lockedSet[p] = struct{}{}
	}

	seen := make([]bool, len(jobs))
	lastPriority := math.MinInt
	lastOriginal := make(map[int]int)
	for _, idx := range order {
		if idx < 0 || idx >= len(jobs) || seen[idx] {
			return false
		}
		seen[idx] = true
		p := jobs[idx].EffectivePriority()
		if p < lastPriority {
			return false
		}
		lastPriority = p
		if _, locked := lockedSet[p]; locked {
			if prev, ok := lastOriginal[p]; ok && jobs[idx].OriginalIndex < prev {
				return false
			}
			lastOriginal[p] = jobs[idx].OriginalIndex
		}
	}
	return true
}
