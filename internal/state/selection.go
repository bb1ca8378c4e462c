package state

// removed marks a deselected slot in Selection.order.
const removed = -1

// Selection is an insertion-ordered set of record indices. Removal leaves a
// tombstone that is compacted once tombstones outnumber live entries, so
// add and remove stay amortized O(1).
type Selection struct {
	order []int
	pos   map[int]int // record index -> slot in order
	dead  int
}

// Has reports whether idx is selected.
func (sel *Selection) Has(idx int) bool {
	_, ok := sel.pos[idx]
	return ok
}

// Len returns the number of selected records.
func (sel *Selection) Len() int {
	return len(sel.pos)
}

// Indices returns the selected indices in the order they were added.
func (sel *Selection) Indices() []int {
	if len(sel.pos) == 0 {
		return nil
	}
	out := make([]int, 0, len(sel.pos))
	for _, idx := range sel.order {
		if idx != removed {
			out = append(out, idx)
		}
	}
	return out
}

// Add selects idx, returning false if it already was.
func (sel *Selection) Add(idx int) bool {
	if sel.Has(idx) {
		return false
	}
	if sel.pos == nil {
		sel.pos = make(map[int]int)
	}
	sel.pos[idx] = len(sel.order)
	sel.order = append(sel.order, idx)
	return true
}

// Remove deselects idx, returning false if it was not selected.
func (sel *Selection) Remove(idx int) bool {
	slot, ok := sel.pos[idx]
	if !ok {
		return false
	}
	delete(sel.pos, idx)
	if len(sel.pos) == 0 {
		sel.Clear()
		return true
	}
	sel.order[slot] = removed
	sel.dead++
	if sel.dead > len(sel.pos) {
		sel.compact()
	}
	return true
}

func (sel *Selection) compact() {
	live := sel.order[:0]
	for _, idx := range sel.order {
		if idx == removed {
			continue
		}
		sel.pos[idx] = len(live)
		live = append(live, idx)
	}
	clear(sel.order[len(live):])
	sel.order = live
	sel.dead = 0
}

// Toggle flips idx.
func (sel *Selection) Toggle(idx int) {
	if !sel.Remove(idx) {
		sel.Add(idx)
	}
}

// Clear empties the set.
func (sel *Selection) Clear() {
	sel.order = nil
	sel.pos = nil
	sel.dead = 0
}
