package cryptor

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/squanchy11/cryptor/internal/codec"
	"github.com/squanchy11/cryptor/internal/crypt"
	"github.com/squanchy11/cryptor/internal/flags"
	"github.com/squanchy11/cryptor/internal/frame"
	"github.com/squanchy11/cryptor/internal/pixel"
	"github.com/squanchy11/cryptor/internal/plane"
)

var testSecret = []byte("alice and bob share this")

// makeTestImage returns an opaque image with a deterministic colour pattern.
func makeTestImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 5), G: uint8(y * 3), B: uint8((x + y) * 7), A: 255})
		}
	}
	return img
}

func cloneImage(img *image.NRGBA) *image.NRGBA {
	c := image.NewNRGBA(img.Rect)
	copy(c.Pix, img.Pix)
	return c
}

// hideStatic hides doc with static markers, trying secrets until one does not collide with a marker.
func hideStatic(t *testing.T, img image.Image, name string, doc []byte, opts Options) (*image.NRGBA, []byte) {
	t.Helper()
	opts.Markers = MarkersStatic
	for i := 0; i < 16; i++ {
		secret := []byte(fmt.Sprintf("static secret %d", i))
		out, err := HideImage(img, name, doc, secret, opts)
		if errors.Is(err, frame.ErrMarkerCollision) {
			continue
		}
		require.NoError(t, err)
		return out, secret
	}
	t.Fatal("every secret collided with a static marker")
	return nil, nil
}

func TestHideExtract(t *testing.T) {
	text := bytes.Repeat([]byte("The quick brown fox jumps over the lazy dog. "), 20)

	for _, policy := range []Policy{PolicyPadded, PolicyLayered} {
		for _, method := range []Compression{CompressionNone, CompressionGzip, CompressionZstd} {
			t.Run(fmt.Sprintf("%v/%v", policy, method), func(t *testing.T) {
				img := makeTestImage(48, 48)
				orig := cloneImage(img)

				opts := Options{Policy: policy, Compression: method}
				out, err := HideImage(img, "notes.txt", text, testSecret, opts)
				require.NoError(t, err)
				assert.Equal(t, orig.Pix, img.Pix, "the source image must not be modified")
				assert.Equal(t, img.Rect, out.Rect)

				rec, err := ExtractImage(out, testSecret, Options{})
				require.NoError(t, err)
				assert.Equal(t, "notes.txt", rec.Name)
				assert.Equal(t, text, rec.Data)
			})
		}
	}
}

func TestFilenameRoundTrip(t *testing.T) {
	doc := []byte{0x25, 0x50, 0x44, 0x46, 0x2d, 0x31, 0x2e, 0x37, 0x0a, 0x00, 0xff}
	out, err := HideImage(makeTestImage(32, 32), "report.pdf", doc, testSecret, Options{})
	require.NoError(t, err)

	rec, err := ExtractImage(out, testSecret, Options{})
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", rec.Name)
	assert.Equal(t, doc, rec.Data)
}

func TestNormalizedName(t *testing.T) {
	// "e" followed by a combining acute accent comes back precomposed
	out, err := HideImage(makeTestImage(32, 32), "cafe\u0301.txt", []byte("x"), testSecret, Options{})
	require.NoError(t, err)

	rec, err := ExtractImage(out, testSecret, Options{})
	require.NoError(t, err)
	assert.Equal(t, "caf\u00e9.txt", rec.Name)
}

func TestEmptyDocument(t *testing.T) {
	out, err := HideImage(makeTestImage(16, 16), "empty", nil, testSecret, Options{})
	require.NoError(t, err)

	rec, err := ExtractImage(out, testSecret, Options{})
	require.NoError(t, err)
	assert.Equal(t, "empty", rec.Name)
	assert.Empty(t, rec.Data)
}

func TestWrongSecretDerived(t *testing.T) {
	out, err := HideImage(makeTestImage(32, 32), "a.txt", []byte("secret plans"), testSecret, Options{})
	require.NoError(t, err)

	// the markers depend on the secret, so another secret does not even find the frame
	_, err = ExtractImage(out, []byte("eve guesses"), Options{})
	assert.ErrorIs(t, err, ErrNoHiddenFile)
}

func TestWrongSecretStatic(t *testing.T) {
	out, _ := hideStatic(t, makeTestImage(32, 32), "a.txt", []byte("secret plans"), Options{})

	_, err := ExtractImage(out, []byte("eve guesses"), Options{Markers: MarkersStatic})
	var wrong *WrongSecretError
	require.ErrorAs(t, err, &wrong)
	assert.ErrorIs(t, err, crypt.ErrOpen)
}

func TestStaticMarkers(t *testing.T) {
	doc := []byte("legacy carrier")
	out, secret := hideStatic(t, makeTestImage(32, 32), "legacy.txt", doc, Options{Policy: PolicyLayered})

	rec, err := ExtractImage(out, secret, Options{Markers: MarkersStatic})
	require.NoError(t, err)
	assert.Equal(t, "legacy.txt", rec.Name)
	assert.Equal(t, doc, rec.Data)
}

func TestCapacityBoundary(t *testing.T) {
	img := makeTestImage(16, 16)
	const name = "a.txt"

	maxDoc := MaxDocumentSize(img, name, Options{})
	require.Equal(t, 16*16-frameOverhead(MarkersDerived)-len(name), maxDoc)

	fits := bytes.Repeat([]byte{'z'}, maxDoc)
	out, err := HideImage(img, name, fits, testSecret, Options{})
	require.NoError(t, err)
	rec, err := ExtractImage(out, testSecret, Options{})
	require.NoError(t, err)
	assert.Equal(t, fits, rec.Data)

	tooBig := bytes.Repeat([]byte{'z'}, maxDoc+1)
	_, err = HideImage(img, name, tooBig, testSecret, Options{})
	var capErr *InsufficientHidingSpotsError
	require.ErrorAs(t, err, &capErr)

	out, err = HideImage(img, name, tooBig, testSecret, Options{Policy: PolicyLayered})
	require.NoError(t, err)
	rec, err = ExtractImage(out, testSecret, Options{})
	require.NoError(t, err)
	assert.Equal(t, tooBig, rec.Data)

	// the layered frame spilled exactly one byte, the last marker byte, into Level1 of the first pixel
	sealer, err := crypt.New(testSecret)
	require.NoError(t, err)
	markers, err := flags.Derive(sealer)
	require.NoError(t, err)
	level1 := codec.Plane(pixel.FromImage(out), plane.Level1)
	assert.Equal(t, markers.CipherEnd[markers.Len()-1], level1[0])
	for i := 0; i < 4; i++ {
		assert.LessOrEqual(t, absDiff(img.Pix[i], out.Pix[i]), 15)
	}

	assert.Equal(t, 0, MaxDocumentSize(makeTestImage(4, 4), name, Options{}))
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

func TestPaddedPlaneIsFull(t *testing.T) {
	img := makeTestImage(32, 32)
	out, err := HideImage(img, "a", []byte("b"), testSecret, Options{})
	require.NoError(t, err)

	for i := range img.Pix {
		assert.LessOrEqual(t, absDiff(img.Pix[i], out.Pix[i]), 3)
		assert.Equal(t, img.Pix[i]&^3, out.Pix[i]&^3)
	}

	// padding reaches the last pixel, so its low bits are no longer those of an opaque pixel
	a := Analyze(out)
	assert.Greater(t, a.Planes[0].Entropy, 7.5)
}

func TestNoHiddenFile(t *testing.T) {
	img := makeTestImage(64, 64)

	_, err := ExtractImage(img, testSecret, Options{Markers: MarkersStatic})
	assert.ErrorIs(t, err, ErrNoHiddenFile)

	_, err = ExtractImage(img, testSecret, Options{})
	assert.ErrorIs(t, err, ErrNoHiddenFile)
}

func TestDamagedFrame(t *testing.T) {
	img := makeTestImage(32, 32)
	out, err := HideImage(img, "a.txt", bytes.Repeat([]byte("data "), 10), testSecret, Options{})
	require.NoError(t, err)

	// pixel 10 holds a byte of the sealed document
	out.Pix[10*4] ^= 0b01

	_, err = ExtractImage(out, testSecret, Options{})
	var damaged *DamagedFrameError
	require.ErrorAs(t, err, &damaged)
	assert.Equal(t, "document", damaged.Field)
}

func TestErrorCorrection(t *testing.T) {
	img := makeTestImage(32, 32)
	doc := bytes.Repeat([]byte("data "), 10)
	opts := Options{MaxCorrectableErrors: 2}

	out, err := HideImage(img, "a.txt", doc, testSecret, opts)
	require.NoError(t, err)

	// the same flip that damages an unprotected frame, plus one more in the first chunk
	out.Pix[10*4] ^= 0b01
	out.Pix[20*4+1] ^= 0b10

	rec, err := ExtractImage(out, testSecret, opts)
	require.NoError(t, err)
	assert.Equal(t, "a.txt", rec.Name)
	assert.Equal(t, doc, rec.Data)
	assert.Equal(t, 2, rec.Corrected)

	// the parity is part of both fields, so neither opens when it is not expected
	_, err = ExtractImage(out, testSecret, Options{})
	var wrong *WrongSecretError
	assert.ErrorAs(t, err, &wrong)

	_, err = HideImage(img, "a.txt", doc, testSecret, Options{MaxCorrectableErrors: MaxCorrectableErrorsLimit + 1})
	var invalid *InvalidFormatError
	assert.ErrorAs(t, err, &invalid)
	_, err = ExtractImage(out, testSecret, Options{MaxCorrectableErrors: MaxCorrectableErrorsLimit + 1})
	assert.ErrorAs(t, err, &invalid)
}

func TestErrorCorrectionCapacity(t *testing.T) {
	img := makeTestImage(24, 24)
	const name = "a.txt"
	opts := Options{MaxCorrectableErrors: 2}

	maxDoc := MaxDocumentSize(img, name, opts)
	require.Greater(t, maxDoc, 0)
	assert.Less(t, maxDoc, MaxDocumentSize(img, name, Options{}))

	fits := bytes.Repeat([]byte{'q'}, maxDoc)
	out, err := HideImage(img, name, fits, testSecret, opts)
	require.NoError(t, err)
	rec, err := ExtractImage(out, testSecret, opts)
	require.NoError(t, err)
	assert.Equal(t, fits, rec.Data)

	_, err = HideImage(img, name, append(fits, 'q'), testSecret, opts)
	var capErr *InsufficientHidingSpotsError
	assert.ErrorAs(t, err, &capErr)
}

func TestHideImageErrors(t *testing.T) {
	img := makeTestImage(8, 8)

	_, err := HideImage(img, "", []byte("x"), testSecret, Options{})
	var invalid *InvalidFormatError
	assert.ErrorAs(t, err, &invalid)

	_, err = HideImage(img, "a", []byte("x"), testSecret, Options{Policy: Policy(42)})
	assert.ErrorAs(t, err, &invalid)

	_, err = HideImage(img, "a", []byte("x"), testSecret, Options{Markers: MarkerMode(42)})
	assert.ErrorAs(t, err, &invalid)

	_, err = HideImage(img, "a", []byte("x"), testSecret, Options{Compression: Compression(42)})
	assert.ErrorAs(t, err, &invalid)

	_, err = HideImage(img, "a", []byte("x"), nil, Options{})
	assert.ErrorIs(t, err, crypt.ErrEmptySecret)

	_, err = ExtractImage(img, nil, Options{})
	assert.ErrorIs(t, err, crypt.ErrEmptySecret)
}

func TestCapacity(t *testing.T) {
	img := makeTestImage(10, 7)
	assert.Equal(t, 70, Capacity(img, PolicyPadded))
	assert.Equal(t, 140, Capacity(img, PolicyLayered))
	assert.Equal(t, 70, Capacity(img, Policy(0)))
}

func TestVersion(t *testing.T) {
	assert.Regexp(t, `^\d\d\.\d\d\.\d\d$`, Version())
}
