// Package security derives keys from the configured secret and issues the
// confirmation codes and access tokens built on them
package security

import (
	"crypto/sha256"
	"errors"
	"io"

	"golang.org/x/crypto/hkdf"
)

const keySize = 32

// DeriveKey expands secret into a key bound to purpose. Different purposes
// never share key material.
func DeriveKey(secret, purpose string) ([]byte, error) {
	if secret == "" {
		return nil, errors.New("no secret provided")
	}

	key := make([]byte, keySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(purpose)), key); err != nil {
		return nil, err
	}

	return key, nil
}
