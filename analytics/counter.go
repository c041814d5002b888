package analytics

// counter counts keys and remembers the order in which each key was first
// seen, so ties in top() go to the earliest key in source order.
type counter[K comparable] struct {
	counts map[K]int
	order  []K
}

func newCounter[K comparable]() *counter[K] {
	return &counter[K]{counts: make(map[K]int)}
}

func (c *counter[K]) add(k K) {
	if _, seen := c.counts[k]; !seen {
		c.order = append(c.order, k)
	}
	c.counts[k]++
}

// top returns the most frequent key. ok is false when nothing was counted.
func (c *counter[K]) top() (key K, count int, ok bool) {
	for _, k := range c.order {
		if n := c.counts[k]; n > count {
			key, count, ok = k, n, true
		}
	}
	return key, count, ok
}
