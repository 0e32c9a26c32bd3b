package engine

import (
	"fmt"
	"log/slog"

	"github.com/lixenwraith/flowgrid/resource"
)

// EntityIndex is the dense, insertion-ordered identifier of an entity
// Indices are never reused; the arena is append-only
type EntityIndex int

// Position is an integer grid coordinate, unbounded in both directions
type Position struct {
	X, Y int
}

func (p Position) String() string {
	return fmt.Sprintf("(%d, %d)", p.X, p.Y)
}

// Up, Left, Down and Right return the four grid neighbours
func (p Position) Up() Position    { return Position{p.X, p.Y - 1} }
func (p Position) Left() Position  { return Position{p.X - 1, p.Y} }
func (p Position) Down() Position  { return Position{p.X, p.Y + 1} }
func (p Position) Right() Position { return Position{p.X + 1, p.Y} }

// Entities is the flow graph, stored as parallel slices indexed by EntityIndex
// Adjacency lists hold indices only and keep edge insertion order
type Entities struct {
	kind resource.Kind

	wants      []resource.Resource
	has        []resource.Resource
	position   []Position
	visible    []bool
	upstream   [][]EntityIndex
	downstream [][]EntityIndex
}

// NewEntities creates an empty graph carrying resources of a single kind
// capacity is a sizing hint only
func NewEntities(kind resource.Kind, capacity int) *Entities {
	if capacity < 0 {
		capacity = 0
	}
	return &Entities{
		kind:       kind,
		wants:      make([]resource.Resource, 0, capacity),
		has:        make([]resource.Resource, 0, capacity),
		position:   make([]Position, 0, capacity),
		visible:    make([]bool, 0, capacity),
		upstream:   make([][]EntityIndex, 0, capacity),
		downstream: make([][]EntityIndex, 0, capacity),
	}
}

// Kind returns the resource kind every entity in the graph carries
func (e *Entities) Kind() resource.Kind {
	return e.kind
}

// Len returns the number of inserted entities
func (e *Entities) Len() int {
	return len(e.position)
}

// Insert appends an entity and derives its edges from grid adjacency with every existing entity
// Existing entities above or left become upstream of the new one, those below or right become
// downstream; the reverse edge is appended to the existing entity so adjacency stays symmetric.
// Resources of a kind other than the graph's are rejected before anything is modified.
func (e *Entities) Insert(wants, has resource.Resource, pos Position, visible bool) (EntityIndex, error) {
	if wants.Kind != e.kind {
		return 0, fmt.Errorf("insert at %s: wants is %s, graph carries %s: %w", pos, wants.Kind, e.kind, resource.ErrKindMismatch)
	}
	if has.Kind != e.kind {
		return 0, fmt.Errorf("insert at %s: has is %s, graph carries %s: %w", pos, has.Kind, e.kind, resource.ErrKindMismatch)
	}

	idx := EntityIndex(len(e.position))
	var up, down []EntityIndex

	up1, left := pos.Up(), pos.Left()
	down1, right := pos.Down(), pos.Right()

	for i, p := range e.position {
		if p == up1 || p == left {
			up = append(up, EntityIndex(i))
			e.downstream[i] = append(e.downstream[i], idx)
		}
		if p == down1 || p == right {
			down = append(down, EntityIndex(i))
			e.upstream[i] = append(e.upstream[i], idx)
		}
	}

	e.wants = append(e.wants, wants)
	e.has = append(e.has, has)
	e.position = append(e.position, pos)
	e.visible = append(e.visible, visible)
	e.upstream = append(e.upstream, up)
	e.downstream = append(e.downstream, down)

	return idx, nil
}

// MustInsert is Insert for literal seeding, panics on kind mismatch
func (e *Entities) MustInsert(wants, has resource.Resource, pos Position, visible bool) EntityIndex {
	idx, err := e.Insert(wants, has, pos, visible)
	if err != nil {
		panic(err)
	}
	return idx
}

// Wants returns the desired intake per tick of entity i
func (e *Entities) Wants(i EntityIndex) resource.Resource {
	return e.wants[i]
}

// Has returns the current holding of entity i
func (e *Entities) Has(i EntityIndex) resource.Resource {
	return e.has[i]
}

// Position returns the grid coordinate of entity i
func (e *Entities) Position(i EntityIndex) Position {
	return e.position[i]
}

// Visible reports whether entity i is drawn
func (e *Entities) Visible(i EntityIndex) bool {
	return e.visible[i]
}

// Upstream returns a copy of the entities i pulls from, in edge order
func (e *Entities) Upstream(i EntityIndex) []EntityIndex {
	return append([]EntityIndex(nil), e.upstream[i]...)
}

// Downstream returns a copy of the entities i may push to, in edge order
func (e *Entities) Downstream(i EntityIndex) []EntityIndex {
	return append([]EntityIndex(nil), e.downstream[i]...)
}

// Holdings returns every holding magnitude in index order
func (e *Entities) Holdings() []uint8 {
	out := make([]uint8, len(e.has))
	for i, h := range e.has {
		out[i] = h.Amount
	}
	return out
}

// Total returns the sum of all holdings
func (e *Entities) Total() uint64 {
	var sum uint64
	for _, h := range e.has {
		sum += uint64(h.Amount)
	}
	return sum
}

// Sprite is the renderer's view of one visible entity
type Sprite struct {
	Index    EntityIndex
	Position Position
	Band     resource.Band
}

// Sprites returns visible entities in index order
// Positions are grid coordinates; clipping to a viewport is left to the renderer
func (e *Entities) Sprites() []Sprite {
	out := make([]Sprite, 0, len(e.position))
	for i, vis := range e.visible {
		if !vis {
			continue
		}
		out = append(out, Sprite{
			Index:    EntityIndex(i),
			Position: e.position[i],
			Band:     e.has[i].Band(),
		})
	}
	return out
}

// EntityInfo is a point-in-time copy of one entity for diagnostics
type EntityInfo struct {
	Index      EntityIndex
	Has        resource.Resource
	Wants      resource.Resource
	Position   Position
	Visible    bool
	Upstream   []EntityIndex
	Downstream []EntityIndex
}

// Snapshot copies the state of entity i
func (e *Entities) Snapshot(i EntityIndex) EntityInfo {
	return EntityInfo{
		Index:      i,
		Has:        e.has[i],
		Wants:      e.wants[i],
		Position:   e.position[i],
		Visible:    e.visible[i],
		Upstream:   e.Upstream(i),
		Downstream: e.Downstream(i),
	}
}

// LogValue renders the entity as a flat attribute group, one log line per entity
func (info EntityInfo) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("index", int(info.Index)),
		slog.Int("has", int(info.Has.Amount)),
		slog.Int("wants", int(info.Wants.Amount)),
		slog.String("position", info.Position.String()),
		slog.Bool("visible", info.Visible),
		slog.Any("upstream", info.Upstream),
		slog.Any("downstream", info.Downstream),
	)
}
