// Package cryptor hides an encrypted file in the low bit planes of an image and digs it back out.
//
// A hidden file is stored as a frame: the encrypted document, an end marker, the encrypted filename and a
// second end marker. Both encrypted fields can optionally carry BCH parity so bit errors are corrected. The markers are derived from the shared secret, so a scan with the wrong secret finds
// nothing. Each payload byte takes up the two low bits of every channel of one pixel.
package cryptor

import (
	"errors"
	"fmt"
	"image"

	"golang.org/x/text/unicode/norm"

	"github.com/squanchy11/cryptor/internal/codec"
	"github.com/squanchy11/cryptor/internal/compress"
	"github.com/squanchy11/cryptor/internal/crypt"
	"github.com/squanchy11/cryptor/internal/flags"
	"github.com/squanchy11/cryptor/internal/frame"
	"github.com/squanchy11/cryptor/internal/pixel"
)

func markerLen(markers MarkerMode) int {
	if markers == MarkersStatic {
		return flags.StaticLen
	}
	return flags.DerivedLen
}

// frameOverhead is how many bytes a frame without error correction adds around a document and a filename.
func frameOverhead(markers MarkerMode) int {
	// one compression tag, two sealed fields, two markers
	return 1 + 2*crypt.Overhead + 2*markerLen(markers)
}

// Capacity returns how many frame bytes img can carry under policy.
func Capacity(img image.Image, policy Policy) int {
	b := img.Bounds()
	if !policy.IsValid() {
		policy = PolicyPadded
	}
	return policy.Capacity(b.Dx() * b.Dy())
}

// MaxDocumentSize returns the largest uncompressed document that fits in img under name and opts, or 0 if
// not even an empty one does.
func MaxDocumentSize(img image.Image, name string, opts Options) int {
	opts = opts.withDefaults()
	nameLen := len(norm.NFC.String(name))
	n := Capacity(img, opts.Policy) - frameOverhead(opts.Markers) - nameLen

	coder, err := opts.coder()
	if err != nil {
		return 0
	}
	if coder != nil {
		room := Capacity(img, opts.Policy) - 2*markerLen(opts.Markers) - coder.CodedLen(nameLen+crypt.Overhead)
		n = coder.DataLen(room) - crypt.Overhead - 1
	}
	if n < 0 {
		return 0
	}
	return n
}

// HideImage hides doc under name in a copy of img and returns the copy. img itself is never modified.
func HideImage(img image.Image, name string, doc, secret []byte, opts Options) (*image.NRGBA, error) {
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if len(name) <= 0 {
		return nil, &InvalidFormatError{"The filename is empty."}
	}

	sealer, err := crypt.New(secret)
	if err != nil {
		return nil, err
	}
	markers, err := flags.For(opts.Markers, sealer)
	if err != nil {
		return nil, err
	}
	coder, err := opts.coder()
	if err != nil {
		return nil, err
	}

	packed, err := compress.Pack(opts.Compression, doc)
	if err != nil {
		return nil, err
	}
	encDoc, err := sealer.Encrypt(packed)
	if err != nil {
		return nil, err
	}
	encName, err := sealer.Encrypt([]byte(norm.NFC.String(name)))
	if err != nil {
		return nil, err
	}
	if coder != nil {
		if encDoc, err = coder.Encode(encDoc); err != nil {
			return nil, err
		}
		if encName, err = coder.Encode(encName); err != nil {
			return nil, err
		}
	}

	f := frame.Build(encDoc, encName, markers)
	if err := frame.Verify(f, markers, len(encDoc), len(encName)); err != nil {
		return nil, err
	}

	g := pixel.FromImage(img)
	capacity := codec.Capacity(g, opts.Policy)
	if len(f) > capacity {
		return nil, &InsufficientHidingSpotsError{AdditionalInfo: fmt.Sprintf("The frame is %d B but the image can only hold %d B "+
			"with the %v policy.", len(f), capacity, opts.Policy)}
	}
	if opts.Policy == PolicyPadded {
		if f, err = frame.Pad(f, capacity, opts.Rand); err != nil {
			return nil, err
		}
	}

	if err := codec.Encode(g, f, opts.Policy); err != nil {
		var capErr *codec.CapacityError
		if errors.As(err, &capErr) {
			return nil, &InsufficientHidingSpotsError{InnerError: err}
		}
		return nil, err
	}
	return g.Image(), nil
}

// ExtractImage digs the file hidden in img with secret back out.
// It returns ErrNoHiddenFile when no frame for secret is found, *WrongSecretError when a frame is found but
// does not open, and *DamagedFrameError when only part of it opens.
func ExtractImage(img image.Image, secret []byte, opts Options) (*Recovered, error) {
	opts = opts.withDefaults()
	if !opts.Markers.IsValid() {
		return nil, &InvalidFormatError{fmt.Sprintf("Markers is invalid: %d.", int(opts.Markers))}
	}
	if opts.MaxCorrectableErrors > MaxCorrectableErrorsLimit {
		return nil, &InvalidFormatError{fmt.Sprintf("MaxCorrectableErrors must be at most %d.", MaxCorrectableErrorsLimit)}
	}

	sealer, err := crypt.New(secret)
	if err != nil {
		return nil, err
	}
	markers, err := flags.For(opts.Markers, sealer)
	if err != nil {
		return nil, err
	}
	coder, err := opts.coder()
	if err != nil {
		return nil, err
	}

	docField, nameField, err := codec.Decode(pixel.FromImage(img), markers)
	if err != nil {
		return nil, err
	}
	return reconstruct(sealer, coder, docField, nameField, markers.Len())
}
