package cryptor

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/squanchy11/cryptor/internal/compress"
	"github.com/squanchy11/cryptor/internal/ecc"
)

var errBad = errors.New("bad field")

// prefixDecrypter accepts fields that start with "ok:" and returns the rest.
type prefixDecrypter struct{}

func (prefixDecrypter) Decrypt(ct []byte) ([]byte, error) {
	if !bytes.HasPrefix(ct, []byte("ok:")) {
		return nil, errBad
	}
	return ct[3:], nil
}

func field(body string) []byte {
	return append([]byte(body), 88, 88, 88, 88)
}

func TestReconstruct(t *testing.T) {
	packed, err := compress.Pack(compress.MethodNone, []byte("payload"))
	require.NoError(t, err)

	rec, err := reconstruct(prefixDecrypter{}, nil, field("ok:"+string(packed)), field("ok:report.pdf"), 4)
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", rec.Name)
	assert.Equal(t, []byte("payload"), rec.Data)
}

func TestReconstructFailures(t *testing.T) {
	packed, err := compress.Pack(compress.MethodNone, []byte("payload"))
	require.NoError(t, err)
	goodDoc := field("ok:" + string(packed))
	goodName := field("ok:a.txt")

	_, err = reconstruct(prefixDecrypter{}, nil, field("xx"), field("yy"), 4)
	var wrong *WrongSecretError
	require.ErrorAs(t, err, &wrong)
	assert.ErrorIs(t, err, errBad)

	var damaged *DamagedFrameError
	_, err = reconstruct(prefixDecrypter{}, nil, field("xx"), goodName, 4)
	require.ErrorAs(t, err, &damaged)
	assert.Equal(t, "document", damaged.Field)

	_, err = reconstruct(prefixDecrypter{}, nil, goodDoc, field("yy"), 4)
	require.ErrorAs(t, err, &damaged)
	assert.Equal(t, "filename", damaged.Field)

	_, err = reconstruct(prefixDecrypter{}, nil, []byte{88}, goodName, 4)
	require.ErrorAs(t, err, &damaged)

	// decompression errors come back unchanged
	_, err = reconstruct(prefixDecrypter{}, nil, field("ok:\x09junk"), goodName, 4)
	var unknown *compress.UnknownMethodError
	assert.ErrorAs(t, err, &unknown)
}

func TestReconstructCorrected(t *testing.T) {
	coder, err := ecc.New(1)
	require.NoError(t, err)

	packed, err := compress.Pack(compress.MethodNone, []byte("payload"))
	require.NoError(t, err)
	doc, err := coder.Encode([]byte("ok:" + string(packed)))
	require.NoError(t, err)
	name, err := coder.Encode([]byte("ok:a.txt"))
	require.NoError(t, err)

	// one flipped bit in the "ok:" prefix of each field
	doc[coder.ParityBytes()] ^= 0b0000_0010
	name[coder.ParityBytes()+1] ^= 0b0100_0000

	rec, err := reconstruct(prefixDecrypter{}, coder, field(string(doc)), field(string(name)), 4)
	require.NoError(t, err)
	assert.Equal(t, "a.txt", rec.Name)
	assert.Equal(t, []byte("payload"), rec.Data)
	assert.Equal(t, 2, rec.Corrected)

	// a coded field cut inside the parity of a chunk no longer opens
	_, err = reconstruct(prefixDecrypter{}, coder, field(string(doc[:coder.ParityBytes()])), field(string(name)), 4)
	var damaged *DamagedFrameError
	require.ErrorAs(t, err, &damaged)
	assert.ErrorIs(t, err, ecc.ErrTruncated)
}
