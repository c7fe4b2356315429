package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testConfig keeps the cost low so the suite stays fast.
func testConfig() Config {
	return Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func newTestHasher(t *testing.T) *Hasher {
	t.Helper()
	h, err := NewHasher(testConfig())
	require.NoError(t, err)
	return h
}

func TestHashVerifyRoundTrip(t *testing.T) {
	h := newTestHasher(t)

	for _, secret := range []string{"s3cret-password", "", "पासवर्ड", strings.Repeat("x", 300)} {
		hash, err := h.Hash(secret)
		require.NoError(t, err)
		assert.True(t, h.Verify(secret, hash), "original secret must verify")
		assert.False(t, h.Verify(secret+"-nope", hash), "different secret must not verify")
	}
}

func TestHashIsSalted(t *testing.T) {
	h := newTestHasher(t)

	first, err := h.Hash("same input")
	require.NoError(t, err)
	second, err := h.Hash("same input")
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "hashing must not be deterministic across calls")
	assert.True(t, h.Verify("same input", first))
	assert.True(t, h.Verify("same input", second))
}

func TestHashEncoding(t *testing.T) {
	h := newTestHasher(t)

	hash, err := h.Hash("whatever")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$"), hash)
}

func TestVerifyMalformedHash(t *testing.T) {
	h := newTestHasher(t)

	for _, bad := range []string{
		"",
		"not a hash",
		"$argon2id$v=19$m=8192,t=1,p=1$short",
		"$argon2id$v=19$m=8192,t=1,p=1$!!!$!!!",
		"$bcrypt$v=19$m=8192,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=18$m=8192,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=0,t=0,p=0$c2FsdA$aGFzaA",
	} {
		assert.False(t, h.Verify("whatever", bad), "malformed hash %q must not verify", bad)
	}
}

func TestVerifyAcceptsOtherCostParameters(t *testing.T) {
	// A hash produced under older cost parameters keeps verifying because the
	// parameters travel inside the PHC string.
	slow, err := NewHasher(Config{Memory: 16 * 1024, Time: 2, Parallelism: 2, SaltLength: 16, KeyLength: 32})
	require.NoError(t, err)
	hash, err := slow.Hash("migrate-me")
	require.NoError(t, err)

	fast := newTestHasher(t)
	assert.True(t, fast.Verify("migrate-me", hash))
}

func TestNewHasherRejectsWeakConfig(t *testing.T) {
	for name, cfg := range map[string]Config{
		"memory":      {Memory: 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32},
		"time":        {Memory: 8 * 1024, Time: 0, Parallelism: 1, SaltLength: 16, KeyLength: 32},
		"parallelism": {Memory: 8 * 1024, Time: 1, Parallelism: 0, SaltLength: 16, KeyLength: 32},
		"salt":        {Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLength: 4, KeyLength: 32},
		"key":         {Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 8},
	} {
		_, err := NewHasher(cfg)
		assert.Error(t, err, "config with weak %s must be rejected", name)
	}
}
