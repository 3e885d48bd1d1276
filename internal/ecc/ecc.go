// Package ecc adds optional BCH error correction to the sealed fields of a frame.
//
// A field is cut into chunks of ChunkSize bytes. Each chunk is stored as its BCH parity bits, zero-padded
// to whole bytes, followed by the chunk's own bytes. The last chunk may be shorter than ChunkSize.
package ecc

import (
	"errors"
	"fmt"
	"math/bits"
	"sync"

	"github.com/zedseven/bch"
	"github.com/zedseven/binmani"
)

const (
	// ChunkSize is the number of field bytes one BCH code word protects.
	ChunkSize = 32
	// MaxErrors is the highest number of correctable bit errors per chunk a Coder can be made with.
	MaxErrors = 16

	bitsPerByte = 8
)

var (
	// ErrUncorrectable is returned by Decode when a chunk holds more bit errors than the code can fix.
	ErrUncorrectable = errors.New("ecc: too many bit errors to correct")
	// ErrTruncated is returned by Decode when a coded field cannot be split into whole chunks.
	ErrTruncated = errors.New("ecc: coded field is truncated")
)

// Coder encodes and decodes fields with one BCH configuration.
type Coder struct {
	conf        *bch.EncodingConfig
	parityBits  int
	parityBytes int
	wordBits    int // the full code length the shortened words are decoded in
}

var (
	codersMu sync.Mutex
	coders   = make(map[int]*Coder)
)

// New returns a Coder that corrects up to maxErrors bit errors in every chunk.
// Building the BCH tables is slow, so coders are cached per strength.
func New(maxErrors int) (*Coder, error) {
	if maxErrors <= 0 || maxErrors > MaxErrors {
		return nil, fmt.Errorf("ecc: %d correctable errors is outside 1-%d", maxErrors, MaxErrors)
	}

	codersMu.Lock()
	defer codersMu.Unlock()
	if c, ok := coders[maxErrors]; ok {
		return c, nil
	}

	codeLength, err := bch.TotalBitsForConfig(ChunkSize*bitsPerByte, maxErrors)
	if err != nil {
		return nil, err
	}
	conf, err := bch.CreateConfig(codeLength, maxErrors)
	if err != nil {
		return nil, err
	}
	if conf.StorageBits < ChunkSize*bitsPerByte {
		return nil, fmt.Errorf("ecc: %v cannot hold a %d B chunk", conf, ChunkSize)
	}

	parity := conf.CodeLength - conf.StorageBits
	c := &Coder{
		conf:        conf,
		parityBits:  parity,
		parityBytes: (parity + bitsPerByte - 1) / bitsPerByte,
		wordBits:    1<<bits.Len(uint(conf.CodeLength)) - 1,
	}
	coders[maxErrors] = c
	return c, nil
}

// Strength is the number of bit errors the coder corrects per chunk.
func (c *Coder) Strength() int {
	return c.conf.MaxCorrectableErrors
}

// ParityBytes is how many bytes every chunk grows by.
func (c *Coder) ParityBytes() int {
	return c.parityBytes
}

func (c *Coder) String() string {
	return fmt.Sprintf("%v over %d B chunks", c.conf, ChunkSize)
}

// CodedLen is the length of a coded field holding n bytes.
func (c *Coder) CodedLen(n int) int {
	chunks := (n + ChunkSize - 1) / ChunkSize
	return n + chunks*c.parityBytes
}

// DataLen is the largest field length whose coded length is at most coded.
func (c *Coder) DataLen(coded int) int {
	if coded <= 0 {
		return 0
	}
	full := ChunkSize + c.parityBytes
	n := coded / full * ChunkSize
	if rem := coded % full; rem > c.parityBytes {
		n += rem - c.parityBytes
	}
	return n
}

// Encode returns field with parity prepended to each of its chunks.
func (c *Coder) Encode(field []byte) ([]byte, error) {
	out := make([]byte, 0, c.CodedLen(len(field)))
	for off := 0; off < len(field); off += ChunkSize {
		chunk := field[off:min(off+ChunkSize, len(field))]

		word, err := bch.EncodeWithConfig(c.conf, binmani.BytesToBits(&chunk))
		if err != nil {
			return nil, err
		}
		parity := make([]uint8, c.parityBytes*bitsPerByte)
		copy(parity, word[:c.parityBits])

		out = append(out, *binmani.BitsToBytes(&parity)...)
		out = append(out, chunk...)
	}
	return out, nil
}

// Decode strips the parity from a coded field and corrects the bytes it protects. It returns the number of
// bits it corrected. On ErrUncorrectable the chunks that could not be fixed are returned as stored.
func (c *Coder) Decode(coded []byte) ([]byte, int, error) {
	full := ChunkSize + c.parityBytes
	if rem := len(coded) % full; rem != 0 && rem <= c.parityBytes {
		return nil, 0, ErrTruncated
	}

	out := make([]byte, 0, c.DataLen(len(coded)))
	fixed := 0
	var decodeErr error
	for off := 0; off < len(coded); off += full {
		stored := coded[off:min(off+full, len(coded))]
		parity, chunk := stored[:c.parityBytes], stored[c.parityBytes:]

		corrected, n, err := c.decodeChunk(parity, chunk)
		if err != nil {
			decodeErr = ErrUncorrectable
			out = append(out, chunk...)
			continue
		}
		fixed += n
		out = append(out, corrected...)
	}
	return out, fixed, decodeErr
}

func (c *Coder) decodeChunk(parity, chunk []byte) ([]byte, int, error) {
	// bits past the stored chunk are the zeros it was padded with on encode
	word := make([]uint8, c.wordBits)
	copy(word, (*binmani.BytesToBits(&parity))[:c.parityBits])
	copy(word[c.parityBits:], *binmani.BytesToBits(&chunk))

	if !bch.IsDataCorrupted(c.conf, word) {
		return chunk, 0, nil
	}
	data, n, err := bch.Decode(c.conf, &word)
	if err != nil {
		return nil, 0, err
	}

	dataBits := len(chunk) * bitsPerByte
	for _, b := range data[dataBits:] {
		if b != 0 {
			return nil, 0, ErrUncorrectable
		}
	}
	corrected := data[:dataBits]
	return *binmani.BitsToBytes(&corrected), n, nil
}
