package swarm

// nearest collects neighbours. With k > 0 it keeps only the k closest, sorted
// by DistSq, by inserting into a bounded list (shift right, drop the tail)
// instead of sorting everything. With k == 0 it keeps all of them in arrival
// order. Equal distances keep arrival order.
type nearest struct {
	k     int
	items []Neighbor
}

func (n *nearest) reset(k int) {
	n.k = k
	n.items = n.items[:0]
}

func (n *nearest) offer(nb Neighbor) {
	if n.k <= 0 {
		n.items = append(n.items, nb)
		return
	}

	full := len(n.items) == n.k
	if full && nb.DistSq >= n.items[n.k-1].DistSq {
		return
	}

	// first slot holding something strictly farther
	pos := len(n.items)
	for pos > 0 && n.items[pos-1].DistSq > nb.DistSq {
		pos--
	}

	if !full {
		n.items = append(n.items, Neighbor{})
	}
	copy(n.items[pos+1:], n.items[pos:len(n.items)-1])
	n.items[pos] = nb
}

func (n *nearest) list() []Neighbor {
	return n.items
}
