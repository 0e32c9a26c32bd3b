package engine

import "github.com/lixenwraith/flowgrid/resource"

// Transfer records one executed pull along an upstream edge
type Transfer struct {
	From, To EntityIndex
	// Amount is what left the source; the sink may have received less if it clamped at Max
	Amount  uint8
	Partial bool // source could not cover the sink's wants and was emptied
}

// Update advances every holding by one tick
func (e *Entities) Update() {
	e.UpdateObserved(nil)
}

// UpdateObserved performs the tick and reports each executed transfer to observe, if non-nil
// Pulls that would move nothing (zero wants, empty source) are not transfers and are skipped.
//
// The pass is single and in place: sinks are visited in increasing index order and each sink
// drains its upstream list in edge order. Holdings change immediately, so a sink sees the
// already-updated holdings of lower-index neighbours visited earlier in the same tick and the
// pre-tick holdings of higher-index ones. Results therefore depend on index assignment; the
// iteration order must not change.
func (e *Entities) UpdateObserved(observe func(Transfer)) {
	for i := range e.position {
		want := e.wants[i]
		for _, u := range e.upstream[i] {
			// Full sinks stop pulling, re-checked before every transfer
			if e.has[i].Full() {
				continue
			}

			src := e.has[u]
			if want.Empty() || src.Empty() {
				continue
			}
			if src.AtLeast(want) {
				e.has[i] = e.has[i].MustAdd(want)
				e.has[u] = src.MustSub(want)
				if observe != nil {
					observe(Transfer{From: u, To: EntityIndex(i), Amount: want.Amount})
				}
				continue
			}

			e.has[i] = e.has[i].MustAdd(src)
			e.has[u] = resource.Zero(src.Kind)
			if observe != nil {
				observe(Transfer{From: u, To: EntityIndex(i), Amount: src.Amount, Partial: true})
			}
		}
	}
}
