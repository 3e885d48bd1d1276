package cryptor

import (
	"fmt"
	"io"
	"os"

	"github.com/squanchy11/cryptor/internal/codec"
	"github.com/squanchy11/cryptor/internal/compress"
	"github.com/squanchy11/cryptor/internal/ecc"
	"github.com/squanchy11/cryptor/internal/flags"
	"github.com/squanchy11/cryptor/internal/raster"
)

const (
	VersionMax uint8 = 1
	VersionMid uint8 = 2
	VersionMin uint8 = 0
)

// Output levels

// OutputLevel is the amount of console output the file-level operations print.
type OutputLevel int

const (
	OutputNone  OutputLevel = iota // Print nothing.
	OutputSteps                    // Print each step as it starts.
	OutputInfo                     // Also print image and payload details.
	OutputDebug                    // Also print marker and frame internals.
)

func (l OutputLevel) String() string {
	switch l {
	case OutputNone:
		return "none"
	case OutputSteps:
		return "steps"
	case OutputInfo:
		return "info"
	case OutputDebug:
		return "debug"
	default:
		return fmt.Sprintf("output(%d)", int(l))
	}
}

var output io.Writer = os.Stdout

// SetOutput redirects the console output of Hide and Dig. It is not safe to call while either is running.
func SetOutput(w io.Writer) {
	if w == nil {
		w = io.Discard
	}
	output = w
}

func printlnLvl(level, minLevel OutputLevel, a ...interface{}) {
	if level >= minLevel {
		fmt.Fprintln(output, a...)
	}
}

// Options

// Policy is how a frame is spread over the carrier's bit planes.
type Policy = raster.Policy

const (
	PolicyPadded  = raster.PolicyPadded
	PolicyLayered = raster.PolicyLayered
)

// MarkerMode is how the frame end markers are produced.
type MarkerMode = flags.Mode

const (
	MarkersDerived = flags.ModeDerived
	MarkersStatic  = flags.ModeStatic
)

// Compression is the method documents are packed with before encryption.
type Compression = compress.Method

const (
	CompressionNone = compress.MethodNone
	CompressionGzip = compress.MethodGzip
	CompressionZstd = compress.MethodZstd
)

// MaxCorrectableErrorsLimit is the highest MaxCorrectableErrors a frame can be protected with.
const MaxCorrectableErrorsLimit = ecc.MaxErrors

// Options tunes HideImage and ExtractImage. The zero value selects derived markers, the padded policy, no
// compression and no error correction. Extraction only looks at Markers and MaxCorrectableErrors.
type Options struct {
	Markers     MarkerMode
	Policy      Policy
	Compression Compression
	// MaxCorrectableErrors is the number of bit errors to be able to correct for per 32 B chunk of each
	// encrypted field. Setting it to 0 disables error correction.
	MaxCorrectableErrors uint8
	Rand                 io.Reader // Source of padding bytes. Nil means crypto/rand.
}

func (o Options) withDefaults() Options {
	if o.Markers == flags.ModeUnknown {
		o.Markers = MarkersDerived
	}
	if o.Policy == raster.PolicyUnknown {
		o.Policy = PolicyPadded
	}
	return o
}

func (o Options) validate() error {
	if !o.Markers.IsValid() {
		return &InvalidFormatError{fmt.Sprintf("Markers is invalid: %d.", int(o.Markers))}
	}
	if !o.Policy.IsValid() {
		return &InvalidFormatError{fmt.Sprintf("Policy is invalid: %d.", int(o.Policy))}
	}
	if !o.Compression.IsValid() {
		return &InvalidFormatError{fmt.Sprintf("Compression is invalid: %v.", o.Compression)}
	}
	if o.MaxCorrectableErrors > MaxCorrectableErrorsLimit {
		return &InvalidFormatError{fmt.Sprintf("MaxCorrectableErrors must be at most %d.", MaxCorrectableErrorsLimit)}
	}
	return nil
}

// coder returns the error correction coder for the options, or nil when correction is off.
func (o Options) coder() (*ecc.Coder, error) {
	if o.MaxCorrectableErrors <= 0 {
		return nil, nil
	}
	return ecc.New(int(o.MaxCorrectableErrors))
}

// Error types

// ErrNoHiddenFile is returned when an image holds no complete frame for the given secret.
var ErrNoHiddenFile = codec.ErrNoHiddenFile

// InvalidFormatError is returned for bad configuration values and unsupported file formats.
type InvalidFormatError struct {
	ErrorDesc string
}

func (e *InvalidFormatError) Error() string {
	if len(e.ErrorDesc) > 0 {
		return e.ErrorDesc
	}
	return "The provided data is of an invalid format."
}

// InsufficientHidingSpotsError is returned when a frame does not fit the carrier.
type InsufficientHidingSpotsError struct {
	AdditionalInfo string
	InnerError     error
}

func (e *InsufficientHidingSpotsError) Error() string {
	ret := "There is not enough space available to store the provided file within the provided image."
	if len(e.AdditionalInfo) > 0 && e.InnerError != nil {
		return fmt.Sprintf("%v Additional info: %v Inner error: %v", ret, e.AdditionalInfo, e.InnerError.Error())
	} else if len(e.AdditionalInfo) > 0 {
		return fmt.Sprintf("%v Additional info: %v", ret, e.AdditionalInfo)
	} else if e.InnerError != nil {
		return fmt.Sprintf("%v Inner error: %v", ret, e.InnerError.Error())
	}
	return ret
}

func (e *InsufficientHidingSpotsError) Unwrap() error {
	return e.InnerError
}

// WrongSecretError is returned when a frame was found but neither of its fields opens with the secret.
type WrongSecretError struct {
	InnerError error
}

func (e *WrongSecretError) Error() string {
	return "The hidden file could not be decrypted. The shared secret is probably wrong."
}

func (e *WrongSecretError) Unwrap() error {
	return e.InnerError
}

// DamagedFrameError is returned when one field of a frame opens with the secret and the other does not.
// The secret is right, so the carrier itself was altered after hiding.
type DamagedFrameError struct {
	Field      string
	InnerError error
}

func (e *DamagedFrameError) Error() string {
	return fmt.Sprintf("The hidden %v could not be decrypted even though the rest of the frame could. The image has been modified since the file was hidden.", e.Field)
}

func (e *DamagedFrameError) Unwrap() error {
	return e.InnerError
}

// Library methods

func Version() string {
	return fmt.Sprintf("%02d.%02d.%02d", VersionMax, VersionMid, VersionMin)
}
