package cryptor

import (
	"errors"

	"github.com/squanchy11/cryptor/internal/compress"
	"github.com/squanchy11/cryptor/internal/ecc"
)

// Recovered is a file dug out of a carrier.
type Recovered struct {
	Name string // The name the file was hidden under. Not sanitised.
	Data []byte
	// Corrected is the number of bit errors error correction fixed in the frame.
	Corrected int
}

type decrypter interface {
	Decrypt(ciphertext []byte) ([]byte, error)
}

// reconstruct turns the two scanned fields back into a file. Both fields still end in their marker.
// A nil coder means the fields were hidden without error correction.
func reconstruct(d decrypter, coder *ecc.Coder, docField, nameField []byte, markerLen int) (*Recovered, error) {
	if len(docField) < markerLen || len(nameField) < markerLen {
		return nil, &DamagedFrameError{Field: "frame"}
	}

	packed, docFixed, docErr := openField(d, coder, docField[:len(docField)-markerLen])
	name, nameFixed, nameErr := openField(d, coder, nameField[:len(nameField)-markerLen])
	switch {
	case docErr != nil && nameErr != nil:
		return nil, &WrongSecretError{InnerError: docErr}
	case docErr != nil:
		return nil, &DamagedFrameError{Field: "document", InnerError: docErr}
	case nameErr != nil:
		return nil, &DamagedFrameError{Field: "filename", InnerError: nameErr}
	}

	data, err := compress.Unpack(packed)
	if err != nil {
		return nil, err
	}
	return &Recovered{Name: string(name), Data: data, Corrected: docFixed + nameFixed}, nil
}

// openField corrects a sealed field if it was coded and decrypts it.
func openField(d decrypter, coder *ecc.Coder, sealed []byte) ([]byte, int, error) {
	var (
		fixed  int
		eccErr error
	)
	if coder != nil {
		sealed, fixed, eccErr = coder.Decode(sealed)
	}
	plain, err := d.Decrypt(sealed)
	if err != nil {
		if eccErr != nil {
			err = errors.Join(err, eccErr)
		}
		return nil, 0, err
	}
	return plain, fixed, nil
}
