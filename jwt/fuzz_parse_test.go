package jwt

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"
	"time"
)

// FuzzParse exercises the verifier and the unverified inspector with arbitrary strings.
// Invalid inputs must be rejected with errors, never panics.
func FuzzParse(f *testing.F) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		f.Fatal(err)
	}
	mgr, err := NewManager(Config{
		TTL:           5 * time.Minute,
		SigningMethod: MethodEd25519,
		PrivateKey:    priv,
		PublicKey:     pub,
		Issuer:        "fuzz-test",
		Leeway:        30 * time.Second,
		KeyID:         "k1",
	})
	if err != nil {
		f.Fatal(err)
	}

	validToken, err := mgr.Issue("uid1", "password")
	if err != nil {
		f.Fatal(err)
	}

	f.Add(validToken)
	f.Add("")
	f.Add("a.b.c")
	f.Add("eyJhbGciOiJIUzI1NiJ9.e30.")

	f.Fuzz(func(t *testing.T, token string) {
		claims, err := mgr.Parse(token)
		if err == nil && claims == nil {
			t.Fatal("nil claims without error")
		}
		_, _ = Inspect(token)
	})
}
