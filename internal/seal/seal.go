// Package seal derive encryption keys from account secrets and encrypt user
// documents into opaque blobs stored remotely.
package seal

//
// seal.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
	"gitlab.com/kabes/go-relay/internal/aerr"
	"gitlab.com/kabes/go-relay/internal/model"
)

const (
	// KeySize is length of decoded secret and AES-256 key.
	KeySize = 32
	// NonceSize is length of GCM nonce prepended to ciphertext.
	NonceSize = 12
	tagSize   = 16
)

var (
	ErrInvalidSecretFormat = aerr.NewSimple("invalid secret format").WithTag(aerr.CryptoError).
				WithTag(aerr.ValidationError).WithUserMsg("invalid account key")
	ErrDecryptionFailed = aerr.NewSimple("decryption failed").WithTag(aerr.CryptoError).
				WithUserMsg("can't decrypt data; wrong account key?")
	ErrMalformedDocument = aerr.NewSimple("malformed document").WithTag(aerr.CryptoError).
				WithTag(aerr.DataError).WithUserMsg("decrypted data is not valid")
	ErrEncryptionFailed = aerr.NewSimple("encryption failed").WithTag(aerr.CryptoError).
				WithTag(aerr.InternalError)

	errEmptySecret = errors.New("empty secret")
	errNoKey       = errors.New("key not initialized")
)

// Key is AES-256 key derived from account secret.
type Key struct {
	aead cipher.AEAD
}

// DeriveKey decode base58 secret into AES-256 key. Pure function, no network.
func DeriveKey(secret string) (Key, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return Key{}, ErrInvalidSecretFormat.WithError(errEmptySecret)
	}

	raw, err := base58.Decode(secret)
	if err != nil {
		return Key{}, aerr.ApplyFor(ErrInvalidSecretFormat, err)
	}

	if len(raw) != KeySize {
		return Key{}, ErrInvalidSecretFormat.WithMeta("decoded_len", len(raw))
	}

	block, err := aes.NewCipher(raw)
	if err != nil {
		return Key{}, aerr.ApplyFor(ErrInvalidSecretFormat, err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return Key{}, aerr.ApplyFor(ErrEncryptionFailed, err)
	}

	return Key{aead: aead}, nil
}

// Valid report whether key was created by DeriveKey.
func (k Key) Valid() bool {
	return k.aead != nil
}

// GenerateSecret create new random account secret (32 bytes, base58 encoded).
func GenerateSecret() (string, error) {
	raw := make([]byte, KeySize)
	if _, err := rand.Read(raw); err != nil {
		return "", aerr.ApplyFor(ErrEncryptionFailed, err)
	}

	return base58.Encode(raw), nil
}

// Encrypt serialize doc to json and encrypt it with fresh random nonce.
// Result is base64(nonce || ciphertext || tag).
func Encrypt(doc model.UserDocument, key Key) (string, error) {
	if !key.Valid() {
		return "", ErrEncryptionFailed.WithError(errNoKey)
	}

	plain, err := json.Marshal(doc)
	if err != nil {
		return "", aerr.ApplyFor(ErrEncryptionFailed, err)
	}

	nonce := make([]byte, NonceSize, NonceSize+len(plain)+tagSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", aerr.ApplyFor(ErrEncryptionFailed, err)
	}

	sealed := key.aead.Seal(nonce, nonce, plain, nil)

	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverse Encrypt. Any failure return zero document.
func Decrypt(blob string, key Key) (model.UserDocument, error) {
	if !key.Valid() {
		return model.UserDocument{}, ErrDecryptionFailed.WithError(errNoKey)
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(blob))
	if err != nil {
		return model.UserDocument{}, aerr.ApplyFor(ErrDecryptionFailed, err)
	}

	if len(raw) < NonceSize+tagSize {
		return model.UserDocument{}, ErrDecryptionFailed.WithError(
			fmt.Errorf("blob too short: %d bytes", len(raw))) //nolint:err113
	}

	plain, err := key.aead.Open(nil, raw[:NonceSize], raw[NonceSize:], nil)
	if err != nil {
		return model.UserDocument{}, aerr.ApplyFor(ErrDecryptionFailed, err)
	}

	doc := model.DefaultDocument()
	if err := json.Unmarshal(plain, &doc); err != nil {
		return model.UserDocument{}, aerr.ApplyFor(ErrMalformedDocument, err)
	}

	return doc.Normalized(), nil
}
