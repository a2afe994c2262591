package swarm

import "testing"

func offerAll(n *nearest, d2 ...float64) {
	for i, d := range d2 {
		n.offer(Neighbor{ID: i, DistSq: d})
	}
}

func ids(nbs []Neighbor) []int {
	out := make([]int, len(nbs))
	for i, nb := range nbs {
		out[i] = nb.ID
	}
	return out
}

func TestNearestKeepsClosest(t *testing.T) {
	var n nearest
	n.reset(3)
	offerAll(&n, 25, 1, 16, 4, 9)

	got := n.list()
	want := []float64{1, 4, 9}
	if len(got) != len(want) {
		t.Fatalf("Expected %d neighbours, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].DistSq != want[i] {
			t.Errorf("slot %d: expected DistSq %v, got %v", i, want[i], got[i].DistSq)
		}
	}
}

func TestNearestUnbounded(t *testing.T) {
	var n nearest
	n.reset(0)
	offerAll(&n, 3, 1, 2)
	got := ids(n.list())
	if len(got) != 3 || got[0] != 0 || got[1] != 1 || got[2] != 2 {
		t.Errorf("Expected arrival order [0 1 2], got %v", got)
	}
}

func TestNearestTiesKeepArrivalOrder(t *testing.T) {
	var n nearest
	n.reset(2)
	offerAll(&n, 5, 5, 5, 1)
	got := ids(n.list())
	if len(got) != 2 || got[0] != 3 || got[1] != 0 {
		t.Errorf("Expected [3 0], got %v", got)
	}
}

func TestNearestFewerThanK(t *testing.T) {
	var n nearest
	n.reset(10)
	offerAll(&n, 2, 1)
	if got := ids(n.list()); len(got) != 2 || got[0] != 1 || got[1] != 0 {
		t.Errorf("Expected [1 0], got %v", got)
	}
}

func TestNearestResetReusesStorage(t *testing.T) {
	var n nearest
	n.reset(2)
	offerAll(&n, 1, 2)
	n.reset(2)
	if len(n.list()) != 0 {
		t.Fatalf("Expected empty list after reset, got %d", len(n.list()))
	}
	offerAll(&n, 7)
	if got := n.list(); len(got) != 1 || got[0].DistSq != 7 {
		t.Errorf("Expected single neighbour at 7, got %v", got)
	}
}
