// Package resource implements a saturating, kind-tagged quantity used as the unit of flow
// between grid entities.
package resource

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/lixenwraith/flowgrid/constant"
)

// Max is the largest representable quantity
const Max = math.MaxUint8

// ErrKindMismatch is returned when two quantities of different kinds are combined
var ErrKindMismatch = errors.New("resource kind mismatch")

// Kind identifies what a quantity measures
type Kind uint8

const (
	KindUnit Kind = iota
	KindWater
	KindPower
	KindOre
	kindCount
)

var kindNames = [kindCount]string{
	KindUnit:  "unit",
	KindWater: "water",
	KindPower: "power",
	KindOre:   "ore",
}

func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind resolves a kind name, case-insensitive
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for k, n := range kindNames {
		if n == name {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("unknown resource kind %q", s)
}

// Resource is an immutable quantity of one kind, bounded to [0, Max]
type Resource struct {
	Kind   Kind
	Amount uint8
}

// New returns a quantity of kind k
func New(k Kind, amount uint8) Resource {
	return Resource{Kind: k, Amount: amount}
}

// Zero returns the empty quantity of kind k
func Zero(k Kind) Resource {
	return Resource{Kind: k}
}

func (r Resource) String() string {
	return fmt.Sprintf("%d %s", r.Amount, r.Kind)
}

// Full reports whether the quantity is saturated at Max
func (r Resource) Full() bool {
	return r.Amount == Max
}

// Empty reports whether the quantity is zero
func (r Resource) Empty() bool {
	return r.Amount == 0
}

// Add returns r+o clamped to Max
func (r Resource) Add(o Resource) (Resource, error) {
	if r.Kind != o.Kind {
		return r, fmt.Errorf("%w: add %s to %s", ErrKindMismatch, o.Kind, r.Kind)
	}
	return Resource{Kind: r.Kind, Amount: satAdd(r.Amount, o.Amount)}, nil
}

// Sub returns r-o clamped to zero
func (r Resource) Sub(o Resource) (Resource, error) {
	if r.Kind != o.Kind {
		return r, fmt.Errorf("%w: subtract %s from %s", ErrKindMismatch, o.Kind, r.Kind)
	}
	return Resource{Kind: r.Kind, Amount: satSub(r.Amount, o.Amount)}, nil
}

// MustAdd is Add for callers that validated kinds beforehand, panics on mismatch
func (r Resource) MustAdd(o Resource) Resource {
	sum, err := r.Add(o)
	if err != nil {
		panic(err)
	}
	return sum
}

// MustSub is Sub for callers that validated kinds beforehand, panics on mismatch
func (r Resource) MustSub(o Resource) Resource {
	diff, err := r.Sub(o)
	if err != nil {
		panic(err)
	}
	return diff
}

// Compare returns -1, 0 or +1 comparing magnitudes of two same-kind quantities
func (r Resource) Compare(o Resource) (int, error) {
	if r.Kind != o.Kind {
		return 0, fmt.Errorf("%w: compare %s with %s", ErrKindMismatch, r.Kind, o.Kind)
	}
	switch {
	case r.Amount < o.Amount:
		return -1, nil
	case r.Amount > o.Amount:
		return 1, nil
	}
	return 0, nil
}

// AtLeast reports r >= o by magnitude
// Kinds must already agree; a mismatch is a construction bug and panics
func (r Resource) AtLeast(o Resource) bool {
	c, err := r.Compare(o)
	if err != nil {
		panic(err)
	}
	return c >= 0
}

// Equal reports whether kind and magnitude both match
func (r Resource) Equal(o Resource) bool {
	return r == o
}

// Band is the presentation bucket of a magnitude
type Band uint8

const (
	BandLow  Band = iota // [0,64)
	BandMid              // [64,128)
	BandHigh             // [128,192)
	BandFull             // [192,Max]
)

func (b Band) String() string {
	switch b {
	case BandLow:
		return "low"
	case BandMid:
		return "mid"
	case BandHigh:
		return "high"
	case BandFull:
		return "full"
	}
	return "band?"
}

// Band buckets the magnitude for rendering
func (r Resource) Band() Band {
	switch {
	case r.Amount >= constant.BandFullFloor:
		return BandFull
	case r.Amount >= constant.BandHighFloor:
		return BandHigh
	case r.Amount >= constant.BandMidFloor:
		return BandMid
	}
	return BandLow
}

func satAdd(a, b uint8) uint8 {
	s := a + b
	if s < a {
		return Max
	}
	return s
}

func satSub(a, b uint8) uint8 {
	if b > a {
		return 0
	}
	return a - b
}
