package cryptor

import (
	"fmt"
	"image"
	"math"
	"strings"

	"github.com/squanchy11/cryptor/internal/codec"
	"github.com/squanchy11/cryptor/internal/pixel"
	"github.com/squanchy11/cryptor/internal/plane"
)

// PlaneStats describes the byte stream stored in one bit plane of an image.
type PlaneStats struct {
	Level   plane.Level
	Entropy float64 // Shannon entropy of the plane's bytes, in bits per byte (0-8).
	Ones    float64 // Fraction of set bits.
}

// Randomness is Entropy as a fraction of the 8 bit maximum.
func (s PlaneStats) Randomness() float64 {
	return s.Entropy / 8
}

// Analysis is a quick look at how an image's low bit planes are filled.
// Planes written with a padded frame come out close to 8 bits of entropy and half their bits set.
type Analysis struct {
	Width, Height int
	Padded        int // Frame bytes under PolicyPadded.
	Layered       int // Frame bytes under PolicyLayered.
	Planes        [plane.Levels]PlaneStats
}

func (a *Analysis) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Dimensions: %dx%d px\nCapacity: %d B padded, %d B layered", a.Width, a.Height, a.Padded, a.Layered)
	for _, p := range a.Planes {
		fmt.Fprintf(&sb, "\n%v: entropy %.4f bits (randomness %.1f%%), ones %.1f%%",
			p.Level, p.Entropy, 100*p.Randomness(), 100*p.Ones)
	}
	return sb.String()
}

// Analyze measures both bit planes of img.
func Analyze(img image.Image) *Analysis {
	g := pixel.FromImage(img)
	a := &Analysis{
		Width:   g.W,
		Height:  g.H,
		Padded:  codec.Capacity(g, PolicyPadded),
		Layered: codec.Capacity(g, PolicyLayered),
	}
	for l := plane.Level0; l.IsValid(); l++ {
		a.Planes[l] = planeStats(l, codec.Plane(g, l))
	}
	return a
}

func planeStats(l plane.Level, data []byte) PlaneStats {
	s := PlaneStats{Level: l}
	if len(data) == 0 {
		return s
	}

	var freq [256]int
	ones := 0
	for _, b := range data {
		freq[b]++
		for ; b != 0; b &= b - 1 {
			ones++
		}
	}

	total := float64(len(data))
	for _, count := range freq {
		if count > 0 {
			p := float64(count) / total
			s.Entropy -= p * math.Log2(p)
		}
	}
	s.Ones = float64(ones) / (total * 8)
	return s
}
