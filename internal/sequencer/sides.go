package sequencer

// SideTracker records which sides of a multi-part figure have been drawn.
// The figure completes once every side has been drawn, and only once.
type SideTracker struct {
	drawn []bool
	count int
	done  bool
}

func NewSideTracker(n int) *SideTracker {
	return &SideTracker{drawn: make([]bool, n)}
}

// Draw marks side i and returns the side to trace next. complete is true
// exactly once, when the last undrawn side is drawn.
func (t *SideTracker) Draw(i int) (next int, complete bool) {
	if i < 0 || i >= len(t.drawn) || t.done {
		return i, false
	}
	if !t.drawn[i] {
		t.drawn[i] = true
		t.count++
	}
	if t.count == len(t.drawn) {
		t.done = true
		return i, true
	}
	for j := i + 1; j < len(t.drawn); j++ {
		if !t.drawn[j] {
			return j, false
		}
	}
	for j := 0; j < i; j++ {
		if !t.drawn[j] {
			return j, false
		}
	}
	return i, false
}

// Drawn returns the drawn side indices in ascending order.
func (t *SideTracker) Drawn() []int {
	out := make([]int, 0, t.count)
	for i, ok := range t.drawn {
		if ok {
			out = append(out, i)
		}
	}
	return out
}

