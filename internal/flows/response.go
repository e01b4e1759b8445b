package flows

import (
	"encoding/json"
	"math"
	"strconv"
)

// TokenResponse is the interpretation of a token/user response.
type TokenResponse struct {
	Token   string
	User    map[string]any
	Failure *Failure
}

// InterpretTokenResponse reads a login response. A missing token yields the backend error
// payload (if any); a token without a user object is malformed.
func InterpretTokenResponse(payload map[string]any) TokenResponse {
	if payload == nil {
		return TokenResponse{Failure: &Failure{Kind: FailureNoData}}
	}
	token, ok := payload["token"].(string)
	if !ok {
		return TokenResponse{Failure: backendFailure(payload)}
	}
	user, ok := payload["user"].(map[string]any)
	if !ok {
		return TokenResponse{Failure: &Failure{Kind: FailureMalformed}}
	}
	return TokenResponse{Token: token, User: user}
}

// InterpretCreateUserResponse reads a create-user response. An error payload takes precedence
// over a user object; the user object must carry id, uid and email.
func InterpretCreateUserResponse(payload map[string]any) (IdentityFields, *Failure) {
	if payload == nil {
		return IdentityFields{}, &Failure{Kind: FailureNoData}
	}
	if _, hasErr := payload["error"]; hasErr {
		return IdentityFields{}, backendFailure(payload)
	}
	user, ok := payload["user"].(map[string]any)
	if !ok {
		return IdentityFields{}, &Failure{Kind: FailureMalformed}
	}
	fields, ok := ExtractIdentity(user, true)
	if !ok {
		return IdentityFields{}, &Failure{Kind: FailureMalformed}
	}
	return fields, nil
}

// InterpretStatusResponse reads a boolean-outcome response: success unless it carries an error.
func InterpretStatusResponse(payload map[string]any) *Failure {
	if payload == nil {
		return &Failure{Kind: FailureNoData}
	}
	if _, hasErr := payload["error"]; hasErr {
		return backendFailure(payload)
	}
	return nil
}

// backendFailure extracts the "error" object. A non-object error still classifies, as unknown.
func backendFailure(payload map[string]any) *Failure {
	details, _ := payload["error"].(map[string]any)
	return &Failure{Kind: FailureBackend, Payload: details}
}

// IdentityFields are the identity values read from a backend user object.
type IdentityFields struct {
	UserID     string
	UID        string
	Email      string
	HasEmail   bool
	ThirdParty map[string]any
}

// ExtractIdentity reads id and uid from user. Password identities also need email and carry no
// third-party data; other identities carry the whole user object.
func ExtractIdentity(user map[string]any, password bool) (IdentityFields, bool) {
	id, ok := stringField(user, "id")
	if !ok {
		return IdentityFields{}, false
	}
	uid, ok := stringField(user, "uid")
	if !ok {
		return IdentityFields{}, false
	}
	fields := IdentityFields{UserID: id, UID: uid}
	if password {
		email, ok := stringField(user, "email")
		if !ok {
			return IdentityFields{}, false
		}
		fields.Email = email
		fields.HasEmail = true
		fields.ThirdParty = map[string]any{}
		return fields, true
	}
	fields.ThirdParty = user
	return fields, true
}

// stringField reads a scalar as a string. Backends emit numeric ids for some providers.
func stringField(m map[string]any, key string) (string, bool) {
	switch v := m[key].(type) {
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	case float64:
		if v == math.Trunc(v) && math.Abs(v) < 1e15 {
			return strconv.FormatInt(int64(v), 10), true
		}
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(v), true
	default:
		return "", false
	}
}
