package flows

import "context"

// RunCreateUser creates an email/password account. The result carries no token.
func RunCreateUser(ctx context.Context, email, password string, deps RequestDeps) (IdentityFields, *Failure) {
	payload, failure := fetch(ctx, PathCreateUser, map[string]string{
		FieldEmail:    email,
		FieldPassword: password,
	}, deps)
	if failure != nil {
		return IdentityFields{}, failure
	}
	return InterpretCreateUserResponse(payload)
}

// RunAccountAction sends a boolean-outcome account request.
func RunAccountAction(ctx context.Context, path string, fields map[string]string, deps RequestDeps) *Failure {
	payload, failure := fetch(ctx, path, fields, deps)
	if failure != nil {
		return failure
	}
	return InterpretStatusResponse(payload)
}
