// Package frame lays out the byte stream that gets hidden in a carrier:
//
//	[encrypted document][document end][encrypted filename][cipher end][random padding]
package frame

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"github.com/squanchy11/cryptor/internal/codec"
	"github.com/squanchy11/cryptor/internal/flags"
)

// ErrMarkerCollision is returned by Verify when a scan of the frame would not split it where Build joined it.
var ErrMarkerCollision = errors.New("frame: ciphertext collides with an end marker")

// Build concatenates the fields and markers into a new frame.
func Build(doc, name []byte, markers flags.Pair) []byte {
	f := make([]byte, 0, Len(len(doc), len(name), markers))
	f = append(f, doc...)
	f = append(f, markers.DocumentEnd...)
	f = append(f, name...)
	f = append(f, markers.CipherEnd...)
	return f
}

// Len is the unpadded length of a frame with the given field lengths.
func Len(docLen, nameLen int, markers flags.Pair) int {
	return docLen + nameLen + 2*markers.Len()
}

// Pad appends random bytes from rnd until the frame is capacity bytes long. A nil rnd means crypto/rand.
// Frames already at or over capacity are returned as is.
func Pad(frame []byte, capacity int, rnd io.Reader) ([]byte, error) {
	if len(frame) >= capacity {
		return frame, nil
	}
	if rnd == nil {
		rnd = rand.Reader
	}

	padded := make([]byte, capacity)
	n := copy(padded, frame)
	if _, err := io.ReadFull(rnd, padded[n:]); err != nil {
		return nil, fmt.Errorf("frame: reading padding: %w", err)
	}
	return padded, nil
}

// Verify scans frame the way the decoder will and checks that the fields come out with the given lengths.
func Verify(frame []byte, markers flags.Pair, docLen, nameLen int) error {
	if !markers.Valid() {
		return codec.ErrInvalidMarkers
	}
	want := Len(docLen, nameLen, markers)
	if len(frame) < want {
		return ErrMarkerCollision
	}

	s := codec.NewScanner(markers)
	for i, b := range frame[:want] {
		if s.Feed(b) {
			if i != want-1 {
				return ErrMarkerCollision
			}
			break
		}
	}
	if !s.Done() ||
		len(s.Document()) != docLen+markers.Len() ||
		len(s.Filename()) != nameLen+markers.Len() {
		return ErrMarkerCollision
	}
	return nil
}
