// Package compress shrinks documents before they are sealed.
//
// Packed data starts with a one-byte method tag so the extracting side never needs to be told which method
// the hiding side picked.
package compress

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Method is a compression algorithm a document can be packed with.
type Method uint8

const (
	MethodNone Method = iota
	MethodGzip
	MethodZstd
	maxMethodVal = iota - 1
)

// ErrMissingTag is returned by Unpack for empty input.
var ErrMissingTag = errors.New("compress: packed data has no method tag")

// UnknownMethodError is returned when a packed tag or a method name is not recognized.
type UnknownMethodError struct {
	Name string
}

func (e *UnknownMethodError) Error() string {
	return fmt.Sprintf("compress: unknown method %q", e.Name)
}

func (m Method) IsValid() bool {
	return m <= maxMethodVal
}

func (m Method) String() string {
	switch m {
	case MethodNone:
		return "none"
	case MethodGzip:
		return "gzip"
	case MethodZstd:
		return "zstd"
	default:
		return fmt.Sprintf("method(%d)", uint8(m))
	}
}

// ParseMethod parses a method name. The empty string means MethodNone.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return MethodNone, nil
	case "gzip":
		return MethodGzip, nil
	case "zstd":
		return MethodZstd, nil
	default:
		return MethodNone, &UnknownMethodError{Name: s}
	}
}

// Pack compresses data with m and prefixes the method tag.
// If compressing does not make the data smaller it is stored with MethodNone instead.
func Pack(m Method, data []byte) ([]byte, error) {
	if !m.IsValid() {
		return nil, &UnknownMethodError{Name: m.String()}
	}

	body := data
	if m != MethodNone && len(data) > 0 {
		compressed, err := compress(m, data)
		if err != nil {
			return nil, err
		}
		if len(compressed) < len(data) {
			body = compressed
		} else {
			m = MethodNone
		}
	} else {
		m = MethodNone
	}

	out := make([]byte, 1, 1+len(body))
	out[0] = byte(m)
	return append(out, body...), nil
}

// Unpack reverses Pack.
func Unpack(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrMissingTag
	}

	m, body := Method(data[0]), data[1:]
	switch m {
	case MethodNone:
		return append([]byte{}, body...), nil
	case MethodGzip:
		zr, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		defer zr.Close()

		var out bytes.Buffer
		if _, err := io.Copy(&out, zr); err != nil {
			return nil, err
		}
		return out.Bytes(), nil
	case MethodZstd:
		dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		return dec.DecodeAll(body, nil)
	default:
		return nil, &UnknownMethodError{Name: m.String()}
	}
}

func compress(m Method, data []byte) ([]byte, error) {
	switch m {
	case MethodGzip:
		var buf bytes.Buffer
		zw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
		if err != nil {
			return nil, err
		}
		if _, err := zw.Write(data); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case MethodZstd:
		enc, err := zstd.NewWriter(nil,
			zstd.WithEncoderConcurrency(1),
			zstd.WithEncoderLevel(zstd.SpeedBetterCompression),
			zstd.WithLowerEncoderMem(true),
		)
		if err != nil {
			return nil, err
		}
		defer enc.Close()
		return enc.EncodeAll(data, make([]byte, 0, len(data))), nil
	default:
		return nil, &UnknownMethodError{Name: m.String()}
	}
}
