// Package password provides one-way hashing for secrets that must never be
// stored in plaintext: account passwords and issued refresh tokens. Hashes
// use argon2id with a random per-hash salt and are encoded as PHC strings,
// so hashing the same secret twice never yields the same output.
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Config holds the argon2id cost parameters. They are fixed at construction;
// the parameters used for a given hash are recorded in its PHC encoding, so
// verification keeps working after a cost change.
type Config struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultConfig is tuned for interactive logins: 64 MB, 3 passes, 4 lanes.
func DefaultConfig() Config {
	return Config{
		Memory:      64 * 1024,
		Time:        3,
		Parallelism: 4,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Hasher computes and verifies argon2id hashes.
type Hasher struct {
	config Config
}

func NewHasher(cfg Config) (*Hasher, error) {
	if cfg.Memory < 8*1024 {
		return nil, errors.New("argon2 memory must be at least 8 MB")
	}
	if cfg.Time < 1 {
		return nil, errors.New("argon2 time cost must be at least 1")
	}
	if cfg.Parallelism < 1 {
		return nil, errors.New("argon2 parallelism must be at least 1")
	}
	if cfg.SaltLength < 8 {
		return nil, errors.New("argon2 salt must be at least 8 bytes")
	}
	if cfg.KeyLength < 16 {
		return nil, errors.New("argon2 key must be at least 16 bytes")
	}
	return &Hasher{config: cfg}, nil
}

// Hash computes a salted one-way hash of secret and returns it PHC-encoded:
// $argon2id$v=19$m=...,t=...,p=...$salt$hash
func (h *Hasher) Hash(secret string) (string, error) {
	salt := make([]byte, h.config.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key := argon2.IDKey(
		[]byte(secret),
		salt,
		h.config.Time,
		h.config.Memory,
		h.config.Parallelism,
		h.config.KeyLength,
	)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.config.Memory,
		h.config.Time,
		h.config.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether secret matches encodedHash. Any malformed hash or
// mismatch returns false; a wrong password is never an error.
func (h *Hasher) Verify(secret, encodedHash string) bool {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false
	}

	var memory, timeCost uint32
	var parallelism uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &timeCost, &parallelism); err != nil {
		return false
	}
	if memory == 0 || timeCost == 0 || parallelism == 0 {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(expected) == 0 {
		return false
	}

	computed := argon2.IDKey(
		[]byte(secret),
		salt,
		timeCost,
		memory,
		parallelism,
		uint32(len(expected)),
	)

	return subtle.ConstantTimeCompare(expected, computed) == 1
}
