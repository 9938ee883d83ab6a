package migration

import (
	"github.com/google/btree"
)

// btreeDegree is the branching factor of the step index. Chains hold at most
// a few hundred steps.
const btreeDegree = 8

// Chain indexes steps by the version they produce. Adding a step for a
// version that already has one replaces it, so the last registration wins.
// A Chain is not safe for concurrent mutation.
type Chain struct {
	tree *btree.BTree
}

type stepItem struct {
	version int64
	step    Step
}

func (a stepItem) Less(b btree.Item) bool {
	return a.version < b.(stepItem).version
}

// NewChain returns a chain holding steps, added in order.
func NewChain(steps ...Step) *Chain {
	c := &Chain{tree: btree.New(btreeDegree)}
	for _, s := range steps {
		c.Add(s)
	}
	return c
}

// Add registers s under s.Version(). It returns the step it replaced, if
// any. Nil steps are ignored.
func (c *Chain) Add(s Step) Step {
	if s == nil {
		return nil
	}
	old := c.tree.ReplaceOrInsert(stepItem{version: s.Version(), step: s})
	if old == nil {
		return nil
	}
	return old.(stepItem).step
}

// Step returns the step registered for version.
func (c *Chain) Step(version int64) (Step, bool) {
	item := c.tree.Get(stepItem{version: version})
	if item == nil {
		return nil, false
	}
	return item.(stepItem).step, true
}

// Len returns the number of registered versions.
func (c *Chain) Len() int {
	return c.tree.Len()
}

// Versions returns the registered versions in ascending order.
func (c *Chain) Versions() []int64 {
	versions := make([]int64, 0, c.tree.Len())
	c.tree.Ascend(func(i btree.Item) bool {
		versions = append(versions, i.(stepItem).version)
		return true
	})
	return versions
}

// Latest returns the highest registered version, or zero for an empty
// chain.
func (c *Chain) Latest() int64 {
	item := c.tree.Max()
	if item == nil {
		return 0
	}
	return item.(stepItem).version
}

// Covered returns the registered versions within [from, to] in ascending
// order.
func (c *Chain) Covered(from, to int64) []int64 {
	var versions []int64
	c.ascendRange(from, to, func(v int64) bool {
		versions = append(versions, v)
		return true
	})
	return versions
}

// Missing returns the versions within [from, to] that have no registered
// step, in ascending order. At most limit versions are returned; a limit of
// zero or less returns all of them.
func (c *Chain) Missing(from, to int64, limit int) []int64 {
	var missing []int64
	full := func() bool { return limit > 0 && len(missing) >= limit }
	next := from
	c.ascendRange(from, to, func(v int64) bool {
		for ; next < v && !full(); next++ {
			missing = append(missing, next)
		}
		next = v + 1
		return !full()
	})
	for ; next <= to && !full(); next++ {
		missing = append(missing, next)
	}
	return missing
}

// ascendRange calls fn for each registered version in [from, to] until fn
// returns false.
func (c *Chain) ascendRange(from, to int64, fn func(int64) bool) {
	if from > to {
		return
	}
	c.tree.AscendGreaterOrEqual(stepItem{version: from}, func(i btree.Item) bool {
		v := i.(stepItem).version
		if v > to {
			return false
		}
		return fn(v)
	})
}
