package compress

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackUnpack(t *testing.T) {
	random := make([]byte, 128)
	_, err := rand.Read(random)
	require.NoError(t, err)

	for _, tc := range []struct {
		name    string
		method  Method
		data    []byte
		wantTag Method
	}{
		{"empty none", MethodNone, []byte{}, MethodNone},
		{"empty gzip", MethodGzip, []byte{}, MethodNone},
		{"text none", MethodNone, []byte("Hello world!"), MethodNone},
		{"repetitive gzip", MethodGzip, bytes.Repeat([]byte("a"), 4096), MethodGzip},
		{"repetitive zstd", MethodZstd, bytes.Repeat([]byte("A"), 10000), MethodZstd},
		{"random gzip falls back", MethodGzip, random, MethodNone},
		{"random zstd falls back", MethodZstd, random, MethodNone},
	} {
		t.Run(tc.name, func(t *testing.T) {
			packed, err := Pack(tc.method, tc.data)
			require.NoError(t, err)
			require.NotEmpty(t, packed)
			assert.Equal(t, byte(tc.wantTag), packed[0])
			if tc.wantTag != MethodNone {
				assert.Less(t, len(packed), len(tc.data))
			}

			got, err := Unpack(packed)
			require.NoError(t, err)
			assert.True(t, bytes.Equal(tc.data, got))
		})
	}
}

func TestUnpackErrors(t *testing.T) {
	_, err := Unpack(nil)
	assert.ErrorIs(t, err, ErrMissingTag)

	_, err = Unpack([]byte{9, 1, 2, 3})
	var unknown *UnknownMethodError
	assert.ErrorAs(t, err, &unknown)

	_, err = Unpack([]byte{byte(MethodGzip), 1, 2, 3})
	assert.Error(t, err)
}

func TestParseMethod(t *testing.T) {
	for in, want := range map[string]Method{"": MethodNone, "none": MethodNone, "GZIP": MethodGzip, " zstd": MethodZstd} {
		m, err := ParseMethod(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, m, in)
	}

	_, err := ParseMethod("lzma")
	assert.Error(t, err)
	assert.Equal(t, "zstd", MethodZstd.String())
	assert.False(t, Method(7).IsValid())

	_, err = Pack(Method(7), []byte("x"))
	assert.Error(t, err)
}
