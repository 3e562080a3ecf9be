package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEdgeActiveAtHalfOpenInterval(t *testing.T) {
	t0 := time.Unix(0, 0)
	t1 := time.Unix(100, 0)
	e := &Edge{ValidAt: t0, InvalidAt: &t1}

	assert.True(t, e.ActiveAt(t0))
	assert.True(t, e.ActiveAt(time.Unix(50, 0)))
	assert.False(t, e.ActiveAt(t1), "invalid_at is exclusive")
	assert.False(t, e.ActiveAt(time.Unix(-1, 0)))
}

func TestEdgeActiveAtOpenEnded(t *testing.T) {
	e := &Edge{ValidAt: time.Unix(0, 0)}
	assert.True(t, e.ActiveAt(time.Unix(1_000_000, 0)))
}

func TestEdgeIsActive(t *testing.T) {
	e := &Edge{}
	assert.True(t, e.IsActive())
	t1 := time.Unix(1, 0)
	e.InvalidAt = &t1
	assert.False(t, e.IsActive())
}

func TestEdgeOverlapsHalfOpen(t *testing.T) {
	t0 := time.Unix(0, 0)
	t1 := time.Unix(100, 0)
	t2 := time.Unix(200, 0)

	a := &Edge{ValidAt: t0, InvalidAt: &t1}
	touching := &Edge{ValidAt: t1, InvalidAt: &t2}
	assert.False(t, a.Overlaps(touching), "interval ending exactly where the other starts must not overlap")

	overlapping := &Edge{ValidAt: time.Unix(50, 0), InvalidAt: &t2}
	assert.True(t, a.Overlaps(overlapping))
}

func TestEdgeOverlapsOpenEndedBothSides(t *testing.T) {
	a := &Edge{ValidAt: time.Unix(0, 0)}
	b := &Edge{ValidAt: time.Unix(1000, 0)}
	assert.True(t, a.Overlaps(b), "two open-ended intervals always overlap once both have started")
}

func TestEdgeSameEndpointsAndType(t *testing.T) {
	a := &Edge{From: "x", To: "y", Type: "R"}
	b := &Edge{From: "x", To: "y", Type: "R"}
	c := &Edge{From: "x", To: "z", Type: "R"}
	assert.True(t, a.SameEndpointsAndType(b))
	assert.False(t, a.SameEndpointsAndType(c))
}
