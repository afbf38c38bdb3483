package application

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

var (
	ErrInvalidPinHash         = errors.New("invalid operator pin hash format")
	ErrIncompatiblePinVersion = errors.New("incompatible operator pin hash version")
)

type Argon2idParams struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

var DefaultArgon2idParams = Argon2idParams{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 2,
	SaltLength:  16,
	KeyLength:   32,
}

// CreatePinHash encodes pin as $argon2id$v=19$m=...,t=...,p=...$salt$hash.
func CreatePinHash(pin string, params Argon2idParams) (string, error) {
	if strings.TrimSpace(pin) == "" {
		return "", errors.New("operator pin must not be empty")
	}
	salt := make([]byte, params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	key := argon2.IDKey([]byte(pin), salt, params.Iterations, params.Memory, params.Parallelism, params.KeyLength)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, params.Memory, params.Iterations, params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// VerifyPin compares pin against an encoded hash and returns ErrInvalidPin
// on mismatch.
func VerifyPin(encoded, pin string) error {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return ErrInvalidPinHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPinHash, err)
	}
	if version != argon2.Version {
		return ErrIncompatiblePinVersion
	}

	var params Argon2idParams
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.Memory, &params.Iterations, &params.Parallelism); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPinHash, err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPinHash, err)
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPinHash, err)
	}

	got := argon2.IDKey([]byte(pin), salt, params.Iterations, params.Memory, params.Parallelism, uint32(len(want)))
	if subtle.ConstantTimeCompare(want, got) == 1 {
		return nil
	}
	return ErrInvalidPin
}

// PinVerifier checks operator PINs against one configured hash.
type PinVerifier struct {
	hash string
}

// NewPinVerifier returns a verifier for hash. An empty hash disables the
// check.
func NewPinVerifier(hash string) (*PinVerifier, error) {
	hash = strings.TrimSpace(hash)
	if hash != "" && !strings.HasPrefix(hash, "$argon2id$") {
		return nil, ErrInvalidPinHash
	}
	return &PinVerifier{hash: hash}, nil
}

// Enabled reports whether a PIN is required.
func (v *PinVerifier) Enabled() bool {
	return v != nil && v.hash != ""
}

// Verify accepts any pin when disabled.
func (v *PinVerifier) Verify(pin string) error {
	if !v.Enabled() {
		return nil
	}
	if pin == "" {
		return ErrInvalidPin
	}
	return VerifyPin(v.hash, pin)
}
