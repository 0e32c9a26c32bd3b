package engine

import (
	"errors"
	"log/slog"
	"math/rand"
	"slices"
	"testing"

	"github.com/lixenwraith/flowgrid/resource"
)

func unit(n uint8) resource.Resource {
	return resource.New(resource.KindUnit, n)
}

// newChain builds the reference five-entity chain
func newChain(t *testing.T) *Entities {
	t.Helper()
	e := NewEntities(resource.KindUnit, 8)
	e.MustInsert(unit(1), unit(100), Position{1, 1}, true)
	e.MustInsert(unit(1), unit(255), Position{1, 2}, true)
	e.MustInsert(unit(2), unit(64), Position{2, 2}, true)
	e.MustInsert(unit(2), unit(192), Position{3, 2}, true)
	e.MustInsert(unit(5), unit(0), Position{3, 3}, true)
	return e
}

func TestInsertAssignsDenseIndices(t *testing.T) {
	e := NewEntities(resource.KindUnit, 0)
	for want := 0; want < 5; want++ {
		idx, err := e.Insert(unit(1), unit(1), Position{want * 10, 0}, true)
		if err != nil {
			t.Fatalf("Insert: %v", err)
		}
		if int(idx) != want {
			t.Errorf("index = %d, want %d", idx, want)
		}
	}
	if e.Len() != 5 {
		t.Errorf("Len = %d, want 5", e.Len())
	}
}

func TestChainAdjacency(t *testing.T) {
	e := newChain(t)

	wantUp := [][]EntityIndex{nil, {0}, {1}, {2}, {3}}
	wantDown := [][]EntityIndex{{1}, {2}, {3}, {4}, nil}

	for i := 0; i < e.Len(); i++ {
		if got := e.Upstream(EntityIndex(i)); !slices.Equal(got, wantUp[i]) {
			t.Errorf("upstream[%d] = %v, want %v", i, got, wantUp[i])
		}
		if got := e.Downstream(EntityIndex(i)); !slices.Equal(got, wantDown[i]) {
			t.Errorf("downstream[%d] = %v, want %v", i, got, wantDown[i])
		}
	}
}

func TestInsertRetroactiveEdges(t *testing.T) {
	// Sink first, then its source: the existing sink gains a later upstream index
	e := NewEntities(resource.KindUnit, 0)
	sink := e.MustInsert(unit(1), unit(0), Position{5, 5}, true)
	left := e.MustInsert(unit(1), unit(0), Position{4, 5}, true)
	above := e.MustInsert(unit(1), unit(0), Position{5, 4}, true)
	right := e.MustInsert(unit(1), unit(0), Position{6, 5}, true)
	below := e.MustInsert(unit(1), unit(0), Position{5, 6}, true)

	if got := e.Upstream(sink); !slices.Equal(got, []EntityIndex{left, above}) {
		t.Errorf("sink upstream = %v, want [%d %d]", got, left, above)
	}
	if got := e.Downstream(sink); !slices.Equal(got, []EntityIndex{right, below}) {
		t.Errorf("sink downstream = %v, want [%d %d]", got, right, below)
	}
	for _, n := range []EntityIndex{left, above} {
		if got := e.Downstream(n); !slices.Equal(got, []EntityIndex{sink}) {
			t.Errorf("downstream[%d] = %v, want [%d]", n, got, sink)
		}
	}
	for _, n := range []EntityIndex{right, below} {
		if got := e.Upstream(n); !slices.Equal(got, []EntityIndex{sink}) {
			t.Errorf("upstream[%d] = %v, want [%d]", n, got, sink)
		}
	}
}

func TestInsertDiagonalNotAdjacent(t *testing.T) {
	e := NewEntities(resource.KindUnit, 0)
	e.MustInsert(unit(1), unit(0), Position{0, 0}, true)
	idx := e.MustInsert(unit(1), unit(0), Position{1, 1}, true)
	e.MustInsert(unit(1), unit(0), Position{3, 1}, true)

	if len(e.Upstream(idx)) != 0 || len(e.Downstream(idx)) != 0 {
		t.Errorf("diagonal/distant entities linked: up=%v down=%v", e.Upstream(idx), e.Downstream(idx))
	}
}

func TestInsertNegativeCoordinates(t *testing.T) {
	e := NewEntities(resource.KindUnit, 0)
	a := e.MustInsert(unit(1), unit(10), Position{-3, -7}, true)
	b := e.MustInsert(unit(1), unit(0), Position{-3, -6}, false)

	if got := e.Upstream(b); !slices.Equal(got, []EntityIndex{a}) {
		t.Errorf("upstream = %v, want [%d]", got, a)
	}
}

func TestInsertRejectsForeignKind(t *testing.T) {
	e := NewEntities(resource.KindWater, 0)

	if _, err := e.Insert(resource.New(resource.KindOre, 1), resource.New(resource.KindWater, 1), Position{}, true); !errors.Is(err, resource.ErrKindMismatch) {
		t.Errorf("foreign wants: err = %v", err)
	}
	if _, err := e.Insert(resource.New(resource.KindWater, 1), resource.New(resource.KindPower, 1), Position{}, true); !errors.Is(err, resource.ErrKindMismatch) {
		t.Errorf("foreign has: err = %v", err)
	}
	if e.Len() != 0 {
		t.Errorf("rejected insert modified the graph: Len = %d", e.Len())
	}
}

// randomGraph inserts n entities on a small grid so collisions and adjacency are frequent
func randomGraph(t *testing.T, seed int64, n int, checkBackward bool) *Entities {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	e := NewEntities(resource.KindUnit, n)
	for k := 0; k < n; k++ {
		pos := Position{rng.Intn(9) - 2, rng.Intn(9) - 2}
		idx := e.MustInsert(unit(uint8(rng.Intn(8))), unit(uint8(rng.Intn(256))), pos, rng.Intn(4) != 0)
		if !checkBackward {
			continue
		}
		for _, j := range append(e.Upstream(idx), e.Downstream(idx)...) {
			if j >= idx {
				t.Fatalf("seed %d: new entity %d has forward edge to %d", seed, idx, j)
			}
		}
	}
	return e
}

func count(list []EntityIndex, v EntityIndex) int {
	c := 0
	for _, x := range list {
		if x == v {
			c++
		}
	}
	return c
}

func TestAdjacencySymmetry(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		e := randomGraph(t, seed, 60, false)
		n := e.Len()
		for a := 0; a < n; a++ {
			for b := 0; b < n; b++ {
				ia, ib := EntityIndex(a), EntityIndex(b)
				if count(e.Upstream(ia), ib) != count(e.Downstream(ib), ia) {
					t.Fatalf("seed %d: %d in upstream(%d) not mirrored in downstream(%d)", seed, b, a, b)
				}
				if count(e.Downstream(ia), ib) != count(e.Upstream(ib), ia) {
					t.Fatalf("seed %d: %d in downstream(%d) not mirrored in upstream(%d)", seed, b, a, b)
				}
			}
		}
	}
}

func TestNoSelfLoops(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		e := randomGraph(t, seed, 60, false)
		for i := 0; i < e.Len(); i++ {
			idx := EntityIndex(i)
			if slices.Contains(e.Upstream(idx), idx) || slices.Contains(e.Downstream(idx), idx) {
				t.Fatalf("seed %d: entity %d references itself", seed, i)
			}
		}
	}
}

func TestBackwardEdgeGuarantee(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		randomGraph(t, seed, 60, true)
	}
}

func TestUpdateNeverChangesTopology(t *testing.T) {
	e := randomGraph(t, 7, 40, false)
	var up, down [][]EntityIndex
	for i := 0; i < e.Len(); i++ {
		up = append(up, e.Upstream(EntityIndex(i)))
		down = append(down, e.Downstream(EntityIndex(i)))
	}
	for tick := 0; tick < 10; tick++ {
		e.Update()
	}
	for i := 0; i < e.Len(); i++ {
		if !slices.Equal(up[i], e.Upstream(EntityIndex(i))) || !slices.Equal(down[i], e.Downstream(EntityIndex(i))) {
			t.Fatalf("adjacency of %d changed by Update", i)
		}
	}
}

func TestChainGolden(t *testing.T) {
	e := newChain(t)

	steps := [][]uint8{
		{100, 255, 64, 192, 0},
		{100, 253, 64, 189, 5},
		{99, 252, 64, 186, 10},
		{98, 251, 64, 183, 15},
	}

	for tick, want := range steps {
		if got := e.Holdings(); !slices.Equal(got, want) {
			t.Fatalf("after %d updates holdings = %v, want %v", tick, got, want)
		}
		e.Update()
	}
}

func TestUpdateNotEquivalentToDoubledRates(t *testing.T) {
	twice := newChain(t)
	twice.Update()
	twice.Update()

	doubled := NewEntities(resource.KindUnit, 8)
	doubled.MustInsert(unit(2), unit(100), Position{1, 1}, true)
	doubled.MustInsert(unit(2), unit(255), Position{1, 2}, true)
	doubled.MustInsert(unit(4), unit(64), Position{2, 2}, true)
	doubled.MustInsert(unit(4), unit(192), Position{3, 2}, true)
	doubled.MustInsert(unit(10), unit(0), Position{3, 3}, true)
	doubled.Update()

	if want := []uint8{100, 251, 64, 186, 10}; !slices.Equal(doubled.Holdings(), want) {
		t.Fatalf("doubled holdings = %v, want %v", doubled.Holdings(), want)
	}
	if slices.Equal(twice.Holdings(), doubled.Holdings()) {
		t.Errorf("two updates equal one doubled update: %v", twice.Holdings())
	}
}

func TestUpdateOrderDependence(t *testing.T) {
	// Vertical chain A(0,0) -> B(0,1) -> C(0,2), all wanting 3, only A holding
	forward := NewEntities(resource.KindUnit, 3)
	forward.MustInsert(unit(3), unit(10), Position{0, 0}, true)
	forward.MustInsert(unit(3), unit(0), Position{0, 1}, true)
	forward.MustInsert(unit(3), unit(0), Position{0, 2}, true)
	forward.Update()

	// B pulls first and C sees B's fresh holding in the same tick
	if want := []uint8{7, 0, 3}; !slices.Equal(forward.Holdings(), want) {
		t.Errorf("forward order = %v, want %v", forward.Holdings(), want)
	}

	// Same geometry inserted bottom-up: C is visited before B has anything
	reverse := NewEntities(resource.KindUnit, 3)
	reverse.MustInsert(unit(3), unit(0), Position{0, 2}, true)
	reverse.MustInsert(unit(3), unit(0), Position{0, 1}, true)
	reverse.MustInsert(unit(3), unit(10), Position{0, 0}, true)
	reverse.Update()

	if want := []uint8{0, 3, 7}; !slices.Equal(reverse.Holdings(), want) {
		t.Errorf("reverse order = %v, want %v", reverse.Holdings(), want)
	}
}

func TestUpdateSaturatedSinkSkips(t *testing.T) {
	e := NewEntities(resource.KindUnit, 3)
	top := e.MustInsert(unit(0), unit(100), Position{1, 0}, true)
	left := e.MustInsert(unit(0), unit(100), Position{0, 1}, true)
	sink := e.MustInsert(unit(10), unit(250), Position{1, 1}, true)

	if got := e.Upstream(sink); !slices.Equal(got, []EntityIndex{top, left}) {
		t.Fatalf("sink upstream = %v", got)
	}

	var transfers []Transfer
	e.UpdateObserved(func(tr Transfer) { transfers = append(transfers, tr) })

	// First pull clamps the sink at Max and still charges the source the full wants
	if want := []uint8{90, 100, 255}; !slices.Equal(e.Holdings(), want) {
		t.Errorf("holdings = %v, want %v", e.Holdings(), want)
	}
	if len(transfers) != 1 || transfers[0] != (Transfer{From: top, To: sink, Amount: 10}) {
		t.Errorf("transfers = %+v, want one full transfer from %d", transfers, top)
	}
}

func TestUpdateFullSinkPullsNothing(t *testing.T) {
	e := NewEntities(resource.KindUnit, 2)
	e.MustInsert(unit(1), unit(40), Position{0, 0}, true)
	e.MustInsert(unit(5), unit(255), Position{0, 1}, true)

	e.Update()

	if want := []uint8{40, 255}; !slices.Equal(e.Holdings(), want) {
		t.Errorf("holdings = %v, want %v", e.Holdings(), want)
	}
}

func TestUpdateFullTransferConserves(t *testing.T) {
	e := NewEntities(resource.KindUnit, 2)
	src := e.MustInsert(unit(1), unit(50), Position{0, 0}, true)
	dst := e.MustInsert(unit(7), unit(20), Position{1, 0}, true)

	var got []Transfer
	e.UpdateObserved(func(tr Transfer) { got = append(got, tr) })

	if e.Has(src).Amount != 43 || e.Has(dst).Amount != 27 {
		t.Errorf("holdings = %v, want [43 27]", e.Holdings())
	}
	if len(got) != 1 || got[0].Partial || got[0].Amount != 7 {
		t.Errorf("transfers = %+v", got)
	}
}

func TestUpdatePartialTransferEmptiesSource(t *testing.T) {
	e := NewEntities(resource.KindWater, 2)
	src := e.MustInsert(resource.New(resource.KindWater, 1), resource.New(resource.KindWater, 4), Position{0, 0}, true)
	dst := e.MustInsert(resource.New(resource.KindWater, 10), resource.New(resource.KindWater, 20), Position{0, 1}, true)

	var got []Transfer
	e.UpdateObserved(func(tr Transfer) { got = append(got, tr) })

	if h := e.Has(src); h != resource.Zero(resource.KindWater) {
		t.Errorf("source = %v, want zero water", h)
	}
	if h := e.Has(dst); h.Amount != 24 {
		t.Errorf("sink = %v, want 24", h)
	}
	if len(got) != 1 || !got[0].Partial || got[0].Amount != 4 {
		t.Errorf("transfers = %+v", got)
	}
}

func TestUpdateZeroWantsMovesNothing(t *testing.T) {
	e := NewEntities(resource.KindUnit, 2)
	e.MustInsert(unit(3), unit(9), Position{0, 0}, true)
	e.MustInsert(unit(0), unit(1), Position{0, 1}, true)

	var got []Transfer
	e.UpdateObserved(func(tr Transfer) { got = append(got, tr) })

	if want := []uint8{9, 1}; !slices.Equal(e.Holdings(), want) {
		t.Errorf("holdings = %v, want %v", e.Holdings(), want)
	}
	if len(got) != 0 {
		t.Errorf("transfers = %+v, want none", got)
	}
}

func TestUpdateEmptySourceIsNotATransfer(t *testing.T) {
	e := NewEntities(resource.KindUnit, 2)
	e.MustInsert(unit(1), unit(0), Position{0, 0}, true)
	e.MustInsert(unit(3), unit(0), Position{0, 1}, true)

	var got []Transfer
	e.UpdateObserved(func(tr Transfer) { got = append(got, tr) })

	if want := []uint8{0, 0}; !slices.Equal(e.Holdings(), want) {
		t.Errorf("holdings = %v, want %v", e.Holdings(), want)
	}
	if len(got) != 0 {
		t.Errorf("transfers = %+v, want none", got)
	}
}

func TestUpdateBoundsHold(t *testing.T) {
	e := randomGraph(t, 3, 80, false)
	before := e.Total()
	for tick := 0; tick < 50; tick++ {
		e.Update()
		if e.Total() > before {
			t.Fatalf("tick %d: total grew from %d to %d", tick, before, e.Total())
		}
		before = e.Total()
	}
}

func TestSprites(t *testing.T) {
	e := NewEntities(resource.KindUnit, 3)
	e.MustInsert(unit(1), unit(10), Position{0, 0}, true)
	e.MustInsert(unit(1), unit(70), Position{9, 9}, false)
	e.MustInsert(unit(1), unit(200), Position{-4, 100}, true)

	got := e.Sprites()
	want := []Sprite{
		{Index: 0, Position: Position{0, 0}, Band: resource.BandLow},
		{Index: 2, Position: Position{-4, 100}, Band: resource.BandFull},
	}
	if !slices.Equal(got, want) {
		t.Errorf("Sprites = %+v, want %+v", got, want)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	e := newChain(t)
	info := e.Snapshot(2)

	if info.Index != 2 || info.Has.Amount != 64 || info.Wants.Amount != 2 || info.Position != (Position{2, 2}) || !info.Visible {
		t.Errorf("snapshot = %+v", info)
	}
	info.Upstream[0] = 99
	if e.Upstream(2)[0] != 1 {
		t.Error("snapshot aliases graph adjacency")
	}

	attrs := info.LogValue().Group()
	if len(attrs) != 7 || attrs[0].Key != "index" || attrs[6].Key != "downstream" {
		t.Errorf("LogValue attrs = %v", attrs)
	}
	if attrs[0].Value.Kind() != slog.KindInt64 {
		t.Errorf("index kind = %v", attrs[0].Value.Kind())
	}
}
