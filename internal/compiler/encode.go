package compiler

import (
	"encoding/base64"

	ferrors "git.home.luguber.info/inful/latexd/internal/foundation/errors"
)

// selfCheckPrefix is how many encoded characters Encode decodes back as a sanity check.
const selfCheckPrefix = 100

// Encode returns the artifact as standard base64. Only a prefix of the output
// is decoded back, so a corrupted but decodable suffix would pass.
func Encode(artifact []byte) (string, error) {
	encoded := base64.StdEncoding.EncodeToString(artifact)
	if err := verifyPrefix(encoded); err != nil {
		return "", err
	}
	return encoded, nil
}

// Decode reverses Encode.
func Decode(encoded string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ferrors.EncodingError("Invalid base64 data").WithCause(ErrEncoding).
			WithContext("cause", err.Error()).
			Build()
	}
	return b, nil
}

func verifyPrefix(encoded string) error {
	prefix := encoded[:min(len(encoded), selfCheckPrefix)]
	prefix = prefix[:len(prefix)-len(prefix)%4]
	if _, err := base64.StdEncoding.DecodeString(prefix); err != nil {
		return ferrors.EncodingError("Generated invalid base64 data").WithCause(ErrEncoding).
			WithContext("cause", err.Error()).
			Build()
	}
	return nil
}
