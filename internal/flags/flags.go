// Package flags produces the two end markers that delimit the fields of a hidden frame.
package flags

import (
	"bytes"
	"fmt"
	"strings"
)

const (
	// DerivedLen is the marker length in derived mode.
	DerivedLen = 5
	// StaticLen is the marker length in static mode.
	StaticLen = 4

	seedLen           = 100
	documentEndOffset = 88
	cipherEndOffset   = 42

	staticDocumentEnd byte = 88
	staticCipherEnd   byte = 42
)

// Mode selects how markers are produced.
type Mode int

const (
	ModeUnknown Mode = iota
	ModeDerived      // Markers are sliced out of the encryption of a zero buffer, so they depend on the secret.
	ModeStatic       // Fixed markers. Kept for carriers written by older builds.
	maxModeVal  = iota - 1
)

func (m Mode) IsValid() bool {
	return m > ModeUnknown && m <= maxModeVal
}

func (m Mode) String() string {
	switch m {
	case ModeDerived:
		return "derived"
	case ModeStatic:
		return "static"
	default:
		return "<unknown>"
	}
}

// ParseMode parses a mode name, or returns ModeUnknown if it is not recognized.
func ParseMode(s string) Mode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "derived":
		return ModeDerived
	case "static":
		return ModeStatic
	default:
		return ModeUnknown
	}
}

// Encrypter is the part of the encryption collaborator marker derivation needs.
// It must be deterministic: the same plaintext always seals to the same bytes.
type Encrypter interface {
	Encrypt(plaintext []byte) ([]byte, error)
}

// Pair is the marker pair for one hide or extract call.
type Pair struct {
	DocumentEnd []byte // Terminates the encrypted document.
	CipherEnd   []byte // Terminates the encrypted filename, and with it the frame.
}

// Len is the length of each marker.
func (p Pair) Len() int {
	return len(p.DocumentEnd)
}

// Valid reports whether both markers are non-empty, equally long and distinct.
func (p Pair) Valid() bool {
	return len(p.DocumentEnd) > 0 &&
		len(p.DocumentEnd) == len(p.CipherEnd) &&
		!bytes.Equal(p.DocumentEnd, p.CipherEnd)
}

func (p Pair) String() string {
	return fmt.Sprintf("{doc:%x cipher:%x}", p.DocumentEnd, p.CipherEnd)
}

// Static returns the fixed legacy markers.
func Static() Pair {
	return Pair{
		DocumentEnd: bytes.Repeat([]byte{staticDocumentEnd}, StaticLen),
		CipherEnd:   bytes.Repeat([]byte{staticCipherEnd}, StaticLen),
	}
}

// Derive seals an all-zero buffer with enc and slices both markers out of the result.
// Errors from enc are returned unchanged.
func Derive(enc Encrypter) (Pair, error) {
	sealed, err := enc.Encrypt(make([]byte, seedLen))
	if err != nil {
		return Pair{}, err
	}
	if len(sealed) < documentEndOffset+DerivedLen {
		return Pair{}, fmt.Errorf("flags: sealed seed is %d bytes, need at least %d", len(sealed), documentEndOffset+DerivedLen)
	}

	p := Pair{
		DocumentEnd: append([]byte(nil), sealed[documentEndOffset:documentEndOffset+DerivedLen]...),
		CipherEnd:   append([]byte(nil), sealed[cipherEndOffset:cipherEndOffset+DerivedLen]...),
	}
	return p, nil
}

// For returns the pair for mode m.
func For(m Mode, enc Encrypter) (Pair, error) {
	switch m {
	case ModeDerived:
		return Derive(enc)
	case ModeStatic:
		return Static(), nil
	default:
		return Pair{}, fmt.Errorf("flags: unknown marker mode %d", int(m))
	}
}
