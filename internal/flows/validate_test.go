package flows

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidEmail(t *testing.T) {
	cases := map[string]bool{
		"a@b.com":  true,
		"x@":       true,
		"":         false,
		"   ":      false,
		"@b.com":   false,
		"nobody":   false,
		" a@b.com": true,
	}
	for email, want := range cases {
		assert.Equal(t, want, ValidEmail(email), "email %q", email)
	}
}

func TestCheckCredentialsOrder(t *testing.T) {
	assert.Equal(t, FailureInvalidEmail, CheckCredentials("bad", "").Kind)
	assert.Equal(t, FailureInvalidPassword, CheckCredentials("a@b.com", "  ").Kind)
	assert.Nil(t, CheckCredentials("a@b.com", "secret"))
}

func TestCheckProviderArgs(t *testing.T) {
	assert.Nil(t, CheckProviderArgs("app", "token"))
	f := CheckProviderArgs("app", " ")
	if assert.NotNil(t, f) {
		assert.Equal(t, FailureBadProviderToken, f.Kind)
		assert.True(t, f.Local())
	}
}
