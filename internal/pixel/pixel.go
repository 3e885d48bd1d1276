// Package pixel holds the 4-channel, 8-bit pixel grid the codec reads and writes.
package pixel

import (
	"image"
	"image/color"
)

// Channel indices, in the order payload bits are spread over a pixel.
const (
	ChannelAlpha = iota
	ChannelRed
	ChannelGreen
	ChannelBlue
	ChannelsPerPix
)

// Pixel is the channel vector of one pixel in ARGB order.
type Pixel [ChannelsPerPix]uint8

// Pack returns the pixel as a 32-bit 0xAARRGGBB value.
func (p Pixel) Pack() uint32 {
	return uint32(p[ChannelAlpha])<<24 |
		uint32(p[ChannelRed])<<16 |
		uint32(p[ChannelGreen])<<8 |
		uint32(p[ChannelBlue])
}

// Unpack splits a 0xAARRGGBB value into its channel vector.
func Unpack(v uint32) Pixel {
	return Pixel{
		ChannelAlpha: uint8(v >> 24),
		ChannelRed:   uint8(v >> 16),
		ChannelGreen: uint8(v >> 8),
		ChannelBlue:  uint8(v),
	}
}

// Grid is a row-major copy of an image's pixels.
type Grid struct {
	W, H int
	Pix  []Pixel
}

// NewGrid allocates a w x h grid of zero pixels.
func NewGrid(w, h int) *Grid {
	return &Grid{W: w, H: h, Pix: make([]Pixel, w*h)}
}

// At returns the pixel at column x, row y.
func (g *Grid) At(x, y int) Pixel {
	return g.Pix[y*g.W+x]
}

// Set replaces the pixel at column x, row y.
func (g *Grid) Set(x, y int, p Pixel) {
	g.Pix[y*g.W+x] = p
}

// Len is the number of pixels, which is also the number of payload bytes one bit plane holds.
func (g *Grid) Len() int {
	return g.W * g.H
}

// FromImage copies img into a new grid. Colour models without an alpha channel come out fully opaque.
func FromImage(img image.Image) *Grid {
	b := img.Bounds()
	g := NewGrid(b.Dx(), b.Dy())

	// NRGBA stores straight channel bytes, so it can be copied without a colour conversion
	if simg, ok := img.(*image.NRGBA); ok {
		for y := 0; y < g.H; y++ {
			off := simg.PixOffset(b.Min.X, b.Min.Y+y)
			for x := 0; x < g.W; x++ {
				s := simg.Pix[off+x*4 : off+x*4+4]
				g.Pix[y*g.W+x] = Pixel{s[3], s[0], s[1], s[2]}
			}
		}
		return g
	}

	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; x++ {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			g.Pix[y*g.W+x] = Pixel{c.A, c.R, c.G, c.B}
		}
	}
	return g
}

// Image renders the grid as a non-premultiplied image, so lossless encoders keep every channel byte as is.
func (g *Grid) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, g.W, g.H))
	for i, p := range g.Pix {
		img.Pix[i*4+0] = p[ChannelRed]
		img.Pix[i*4+1] = p[ChannelGreen]
		img.Pix[i*4+2] = p[ChannelBlue]
		img.Pix[i*4+3] = p[ChannelAlpha]
	}
	return img
}
