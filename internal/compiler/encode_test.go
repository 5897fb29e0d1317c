package compiler

import (
	"bytes"
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/latexd/internal/foundation/errors"
)

func TestEncodeRoundTrip(t *testing.T) {
	prop := func(b []byte) bool {
		enc, err := Encode(b)
		if err != nil {
			return false
		}
		dec, err := Decode(enc)
		return err == nil && bytes.Equal(dec, b)
	}
	require.NoError(t, quick.Check(prop, nil))
}

func TestEncodeKnownValue(t *testing.T) {
	enc, err := Encode([]byte("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, "JVBERg==", enc)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode("not base64!")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEncoding)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryEncoding))
}

func TestVerifyPrefix(t *testing.T) {
	assert.NoError(t, verifyPrefix(""))
	assert.NoError(t, verifyPrefix("JVBERg=="))
	assert.Error(t, verifyPrefix("****"))
}
