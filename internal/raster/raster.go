// Package raster walks a carrier's pixels in raster order, plane by plane.
package raster

import (
	"fmt"
	"strings"

	"github.com/squanchy11/cryptor/internal/plane"
	"github.com/squanchy11/cryptor/internal/util"
)

// Policy definitions

// Policy defines how a frame is laid out over the carrier's bit planes.
type Policy int

// IsValid simply determines whether a given policy is valid.
func (p Policy) IsValid() bool {
	return p > PolicyUnknown && p <= maxPolicyVal
}

// Returns the name of the policy, or "<unknown>" if unknown.
func (p Policy) String() string {
	switch p {
	case PolicyPadded:
		return "padded"
	case PolicyLayered:
		return "layered"
	default:
		return "<unknown>"
	}
}

const (
	PolicyUnknown Policy = iota     // An unknown policy type.
	PolicyPadded  Policy = iota     // Level0 only. Capacity is checked up front and the rest of the plane is filled with random padding.
	PolicyLayered Policy = iota     // Level0 first, then a single switch to Level1 once Level0 runs out. No padding.
	maxPolicyVal  Policy = iota - 1 // The maximum policy value, used for validity checking.
)

// Levels returns how many bit planes an encoder following p may write to.
func (p Policy) Levels() int {
	if p == PolicyLayered {
		return plane.Levels
	}
	return 1
}

// Capacity returns how many payload bytes fit in a carrier of the given pixel count under p.
func (p Policy) Capacity(pixels int) int {
	return pixels * p.Levels()
}

// StringToPolicy parses a string into a policy, or PolicyUnknown if the string is not recognized.
func StringToPolicy(str string) Policy {
	switch strings.ToLower(strings.TrimSpace(str)) {
	case "padded":
		return PolicyPadded
	case "layered":
		return PolicyLayered
	default:
		return PolicyUnknown
	}
}

// Error types

// UnknownPolicyError is returned when an unknown policy is provided.
type UnknownPolicyError struct {
	Policy Policy
}

func (e *UnknownPolicyError) Error() string {
	return fmt.Sprintf("The specified capacity policy (%d) does not exist.", e.Policy)
}

// ExhaustedError is returned when a cursor is advanced past the last pixel of its last level.
type ExhaustedError struct {
	Levels int
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("The carrier has no pixels left across %d bit plane(s).", e.Levels)
}

// Cursor

// Cursor is the raster position and active bit plane of one encode or decode pass.
// A new cursor sits just before the first pixel; call Next before reading.
type Cursor struct {
	X, Y  int
	Level plane.Level

	w, h   int
	levels int
}

// NewCursor returns a cursor over a w x h carrier that may use the first `levels` bit planes.
func NewCursor(w, h, levels int) *Cursor {
	levels = util.Clamp(0, plane.Levels, levels)
	return &Cursor{X: -1, Level: plane.Level0, w: w, h: h, levels: levels}
}

// Next moves to the next pixel in row-major order. Once a plane is used up the cursor restarts at the origin
// on the next level; once the last allowed level is used up it returns an *ExhaustedError.
func (c *Cursor) Next() error {
	if c.w <= 0 || c.h <= 0 || c.levels <= 0 {
		return &ExhaustedError{Levels: c.levels}
	}

	c.X++
	if c.X < c.w {
		return nil
	}
	c.X = 0
	c.Y++
	if c.Y < c.h {
		return nil
	}

	next, ok := c.Level.Next()
	if !ok || int(next) >= c.levels {
		// stay parked past the end so repeated calls keep failing
		c.X, c.Y = c.w, c.h
		return &ExhaustedError{Levels: c.levels}
	}
	c.Level = next
	c.X, c.Y = 0, 0
	return nil
}
