package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	h, err := NewHasher(LightConfig())
	require.NoError(t, err)

	encoded, err := h.Hash("hunter2")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, "$argon2id$v=19$m=8192,t=1,p=1$"), encoded)

	ok, err := h.Verify("hunter2", encoded)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify("hunter3", encoded)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashSaltsEachCall(t *testing.T) {
	h, err := NewHasher(LightConfig())
	require.NoError(t, err)

	a, err := h.Hash("same-password")
	require.NoError(t, err)
	b, err := h.Hash("same-password")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestHashRejectsBadInput(t *testing.T) {
	h, err := NewHasher(LightConfig())
	require.NoError(t, err)

	_, err = h.Hash("")
	assert.ErrorIs(t, err, ErrEmptyPassword)

	_, err = h.Hash(strings.Repeat("x", maxPassBytes+1))
	assert.ErrorIs(t, err, ErrPasswordTooLong)

	_, err = h.Hash(strings.Repeat("x", maxPassBytes))
	assert.NoError(t, err)
}

func TestVerifyMalformedHash(t *testing.T) {
	h, err := NewHasher(LightConfig())
	require.NoError(t, err)

	for _, encoded := range []string{
		"",
		"not-a-hash",
		"$bcrypt$v=19$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$a2V5",
		"$argon2id$v=16$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$a2V5",
		"$argon2id$v=19$m=1,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$a2V5",
		"$argon2id$v=19$m=8192,t=1$c2FsdHNhbHRzYWx0c2FsdA$a2V5",
		"$argon2id$v=19$m=8192,t=1,p=1$c2hvcnQ$a2V5",
	} {
		_, err := h.Verify("pw", encoded)
		assert.ErrorIs(t, err, ErrMalformedHash, encoded)
	}
}

func TestNeedsUpgrade(t *testing.T) {
	light, err := NewHasher(LightConfig())
	require.NoError(t, err)
	cfg := LightConfig()
	cfg.Time = 2
	stronger, err := NewHasher(cfg)
	require.NoError(t, err)

	encoded, err := light.Hash("upgrade-me")
	require.NoError(t, err)

	up, err := light.NeedsUpgrade(encoded)
	require.NoError(t, err)
	assert.False(t, up)

	up, err = stronger.NeedsUpgrade(encoded)
	require.NoError(t, err)
	assert.True(t, up)

	ok, err := stronger.Verify("upgrade-me", encoded)
	require.NoError(t, err)
	assert.True(t, ok, "verification uses the encoded parameters")
}

func TestNewHasherValidation(t *testing.T) {
	cases := map[string]func(*Config){
		"memory":      func(c *Config) { c.Memory = 1024 },
		"time":        func(c *Config) { c.Time = 0 },
		"parallelism": func(c *Config) { c.Parallelism = 0 },
		"salt":        func(c *Config) { c.SaltLength = 8 },
		"key":         func(c *Config) { c.KeyLength = 8 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := LightConfig()
			mutate(&cfg)
			_, err := NewHasher(cfg)
			assert.Error(t, err)
		})
	}

	_, err := NewHasher(DefaultConfig())
	assert.NoError(t, err)
}
