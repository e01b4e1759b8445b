package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
)

const (
	minMemoryKB    uint32 = 8 * 1024
	minSaltLength  uint32 = 16
	minKeyLength   uint32 = 16
	maxPassBytes          = 1024
	algorithmID           = "argon2id"
)

var (
	// ErrMalformedHash is returned when an encoded hash is not a supported PHC string.
	ErrMalformedHash = errors.New("malformed password hash")
	// ErrEmptyPassword is returned by Hash for an empty password.
	ErrEmptyPassword = errors.New("empty password")
	// ErrPasswordTooLong is returned for passwords over 1024 bytes.
	ErrPasswordTooLong = errors.New("password too long")
)

// Config holds the Argon2id cost parameters.
type Config struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultConfig returns interactive-login parameters.
func DefaultConfig() Config {
	return Config{Memory: 64 * 1024, Time: 3, Parallelism: 2, SaltLength: 16, KeyLength: 32}
}

// LightConfig returns the cheapest accepted parameters, for tests and local stubs.
func LightConfig() Config {
	return Config{Memory: minMemoryKB, Time: 1, Parallelism: 1, SaltLength: minSaltLength, KeyLength: minKeyLength}
}

// Hasher hashes and verifies account passwords.
type Hasher struct {
	config Config
}

// NewHasher validates cfg and returns a Hasher.
func NewHasher(cfg Config) (*Hasher, error) {
	switch {
	case cfg.Memory < minMemoryKB:
		return nil, oops.Code("PASSWORD_CONFIG_INVALID").With("memory", cfg.Memory).Errorf("memory must be >= %d KB", minMemoryKB)
	case cfg.Time < 1:
		return nil, oops.Code("PASSWORD_CONFIG_INVALID").Errorf("time must be >= 1")
	case cfg.Parallelism < 1:
		return nil, oops.Code("PASSWORD_CONFIG_INVALID").Errorf("parallelism must be >= 1")
	case cfg.SaltLength < minSaltLength:
		return nil, oops.Code("PASSWORD_CONFIG_INVALID").Errorf("salt length must be >= %d", minSaltLength)
	case cfg.KeyLength < minKeyLength:
		return nil, oops.Code("PASSWORD_CONFIG_INVALID").Errorf("key length must be >= %d", minKeyLength)
	}
	return &Hasher{config: cfg}, nil
}

// Hash returns the PHC encoding of password under the configured parameters. Bytes are used
// as given; no Unicode normalization is applied.
func (h *Hasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	if len(password) > maxPassBytes {
		return "", ErrPasswordTooLong
	}

	salt := make([]byte, h.config.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", oops.Code("PASSWORD_SALT").Wrap(err)
	}
	key := argon2.IDKey([]byte(password), salt, h.config.Time, h.config.Memory, h.config.Parallelism, h.config.KeyLength)

	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmID, argon2.Version,
		h.config.Memory, h.config.Time, h.config.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether password matches encoded. The comparison is constant-time.
func (h *Hasher) Verify(password, encoded string) (bool, error) {
	if len(password) > maxPassBytes {
		return false, ErrPasswordTooLong
	}
	p, err := decode(encoded)
	if err != nil {
		return false, err
	}
	key := argon2.IDKey([]byte(password), p.salt, p.time, p.memory, p.parallelism, uint32(len(p.key)))
	return subtle.ConstantTimeCompare(key, p.key) == 1, nil
}

// NeedsUpgrade reports whether encoded was produced with weaker parameters than h uses.
func (h *Hasher) NeedsUpgrade(encoded string) (bool, error) {
	p, err := decode(encoded)
	if err != nil {
		return false, err
	}
	return h.config.Memory > p.memory ||
		h.config.Time > p.time ||
		h.config.Parallelism > p.parallelism ||
		h.config.KeyLength != uint32(len(p.key)), nil
}

type phc struct {
	memory      uint32
	time        uint32
	parallelism uint8
	salt        []byte
	key         []byte
}

func malformed(reason string) error {
	return oops.Code("PASSWORD_HASH_MALFORMED").With("reason", reason).Wrap(ErrMalformedHash)
}

// decode parses "$argon2id$v=19$m=..,t=..,p=..$salt$key".
func decode(encoded string) (*phc, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return nil, malformed("segments")
	}
	if parts[1] != algorithmID {
		return nil, malformed("algorithm")
	}
	if parts[2] != "v="+strconv.Itoa(argon2.Version) {
		return nil, malformed("version")
	}

	var p phc
	var seen int
	for _, pair := range strings.Split(parts[3], ",") {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, malformed("parameter")
		}
		switch name {
		case "m":
			v, err := strconv.ParseUint(value, 10, 32)
			if err != nil || uint32(v) < minMemoryKB {
				return nil, malformed("memory")
			}
			p.memory = uint32(v)
		case "t":
			v, err := strconv.ParseUint(value, 10, 32)
			if err != nil || v < 1 {
				return nil, malformed("time")
			}
			p.time = uint32(v)
		case "p":
			v, err := strconv.ParseUint(value, 10, 8)
			if err != nil || v < 1 {
				return nil, malformed("parallelism")
			}
			p.parallelism = uint8(v)
		default:
			return nil, malformed("parameter")
		}
		seen++
	}
	if seen != 3 || p.memory == 0 || p.time == 0 || p.parallelism == 0 {
		return nil, malformed("parameters")
	}

	var err error
	if p.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil || len(p.salt) < int(minSaltLength) {
		return nil, malformed("salt")
	}
	if p.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(p.key) == 0 {
		return nil, malformed("key")
	}
	return &p, nil
}
