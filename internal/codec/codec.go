// Package codec writes a frame into the low bit planes of a pixel grid and reads it back out.
//
// One payload byte fills one pixel: channel i (alpha, red, green, blue) carries bits 2i and 2i+1 of the byte
// in the active plane. Pixels are visited in raster order, Level0 first.
package codec

import (
	"errors"
	"fmt"

	"github.com/zedseven/binmani"

	"github.com/squanchy11/cryptor/internal/flags"
	"github.com/squanchy11/cryptor/internal/pixel"
	"github.com/squanchy11/cryptor/internal/plane"
	"github.com/squanchy11/cryptor/internal/raster"
)

var (
	// ErrNoHiddenFile is returned by Decode when both planes are scanned without completing a frame.
	ErrNoHiddenFile = errors.New("no hidden file was found in the image")
	// ErrInvalidMarkers is returned when a marker pair is empty, uneven or self-identical.
	ErrInvalidMarkers = errors.New("codec: invalid marker pair")
)

// CapacityError is returned by Encode when a frame does not fit the carrier under the chosen policy.
type CapacityError struct {
	Need, Have int
	Policy     raster.Policy
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("The frame needs %d B but the carrier holds %d B under the %v policy.", e.Need, e.Have, e.Policy)
}

// Capacity returns how many frame bytes g can hold under policy.
func Capacity(g *pixel.Grid, policy raster.Policy) int {
	return policy.Capacity(g.Len())
}

// Encode splices frame into g under policy. The capacity check happens before any pixel is written, so on
// error g is unchanged.
func Encode(g *pixel.Grid, frame []byte, policy raster.Policy) error {
	if !policy.IsValid() {
		return &raster.UnknownPolicyError{Policy: policy}
	}
	if have := Capacity(g, policy); len(frame) > have {
		return &CapacityError{Need: len(frame), Have: have, Policy: policy}
	}

	cur := raster.NewCursor(g.W, g.H, policy.Levels())
	for _, b := range frame {
		if err := cur.Next(); err != nil {
			return err
		}
		p := g.At(cur.X, cur.Y)
		for c := range p {
			bits := binmani.ReadFrom(uint16(b), uint8(c)*plane.BitsPerChannel, plane.BitsPerChannel)
			p[c] = cur.Level.Splice(p[c], uint8(bits))
		}
		g.Set(cur.X, cur.Y, p)
	}
	return nil
}

// readByte reassembles the payload byte stored in p at level l.
func readByte(p pixel.Pixel, l plane.Level) byte {
	var v uint16
	for c := range p {
		v = binmani.WriteTo(v, uint8(c)*plane.BitsPerChannel, plane.BitsPerChannel, uint16(l.Extract(p[c])))
	}
	return byte(v)
}

// Decode scans g plane by plane until a Scanner for markers completes a frame. The returned fields still
// carry their trailing markers. The scanner keeps its state when the scan moves from Level0 to Level1.
func Decode(g *pixel.Grid, markers flags.Pair) (doc, name []byte, err error) {
	if !markers.Valid() {
		return nil, nil, ErrInvalidMarkers
	}

	s := NewScanner(markers)
	cur := raster.NewCursor(g.W, g.H, plane.Levels)
	for {
		if err := cur.Next(); err != nil {
			var exhausted *raster.ExhaustedError
			if errors.As(err, &exhausted) {
				return nil, nil, ErrNoHiddenFile
			}
			return nil, nil, err
		}
		if s.Feed(readByte(g.At(cur.X, cur.Y), cur.Level)) {
			return s.Document(), s.Filename(), nil
		}
	}
}

// Plane returns the byte stream stored in level l of g, one byte per pixel in raster order.
func Plane(g *pixel.Grid, l plane.Level) []byte {
	out := make([]byte, len(g.Pix))
	for i, p := range g.Pix {
		out[i] = readByte(p, l)
	}
	return out
}
