package goLogin

import (
	"context"
	"log/slog"

	"github.com/MrEthical07/goLogin/internal/flows"
)

// CreateUser registers an email/password account. The returned identity has an empty auth
// token: a new account is not logged in, and no connection exchange happens.
func (e *Engine) CreateUser(ctx context.Context, email, password string, handler AuthHandler) *Pending[*Identity] {
	return runFlow[*Identity](e, ctx, "create_user", handler, func(ctx context.Context, log *slog.Logger) (*Identity, error) {
		if f := flows.CheckCredentials(email, password); f != nil {
			return nil, e.accountFailed(ctx, log, AuditAccountCreated, f)
		}
		fields, f := flows.RunCreateUser(ctx, email, password, e.accountRequestDeps())
		if f != nil {
			return nil, e.accountFailed(ctx, log, AuditAccountCreated, f)
		}
		id := newPasswordIdentity(fields.UserID, fields.UID, "", fields.Email)
		e.metricInc(MetricAccountCreated)
		log.Info("account created", "uid", id.UID())
		e.emitAudit(ctx, AuditAccountCreated, id.UID(), ProviderPassword, true, nil, nil)
		return id, nil
	})
}

// RemoveUser deletes an email/password account.
func (e *Engine) RemoveUser(ctx context.Context, email, password string, handler CompletionHandler) *Pending[bool] {
	return e.accountAction(ctx, "remove_user", AuditAccountRemoved, MetricAccountRemoved, flows.PathRemoveUser,
		map[string]string{
			flows.FieldEmail:    email,
			flows.FieldPassword: password,
		},
		func() *flows.Failure { return flows.CheckCredentials(email, password) },
		handler)
}

// ChangePassword replaces the password of an email/password account. Only the email and the
// new password are validated locally; the backend verifies the old password.
func (e *Engine) ChangePassword(ctx context.Context, email, oldPassword, newPassword string, handler CompletionHandler) *Pending[bool] {
	return e.accountAction(ctx, "change_password", AuditPasswordChanged, MetricPasswordChanged, flows.PathChangePassword,
		map[string]string{
			flows.FieldEmail:       email,
			flows.FieldOldPassword: oldPassword,
			flows.FieldNewPassword: newPassword,
		},
		func() *flows.Failure { return flows.CheckCredentials(email, newPassword) },
		handler)
}

// SendPasswordResetEmail asks the backend to mail a password reset to email.
func (e *Engine) SendPasswordResetEmail(ctx context.Context, email string, handler CompletionHandler) *Pending[bool] {
	return e.accountAction(ctx, "reset_password", AuditPasswordResetSent, MetricPasswordResetSent, flows.PathResetPassword,
		map[string]string{flows.FieldEmail: email},
		func() *flows.Failure {
			if !flows.ValidEmail(email) {
				return &flows.Failure{Kind: flows.FailureInvalidEmail}
			}
			return nil
		},
		handler)
}

func (e *Engine) accountAction(
	ctx context.Context,
	name string,
	event string,
	metric MetricID,
	path string,
	fields map[string]string,
	check func() *flows.Failure,
	handler CompletionHandler,
) *Pending[bool] {
	return runFlow[bool](e, ctx, name, handler, func(ctx context.Context, log *slog.Logger) (bool, error) {
		if f := check(); f != nil {
			return false, e.accountFailed(ctx, log, event, f)
		}
		if f := flows.RunAccountAction(ctx, path, fields, e.accountRequestDeps()); f != nil {
			return false, e.accountFailed(ctx, log, event, f)
		}
		e.metricInc(metric)
		log.Info("account action succeeded")
		e.emitAudit(ctx, event, "", ProviderPassword, true, nil, nil)
		return true, nil
	})
}

func (e *Engine) accountFailed(ctx context.Context, log *slog.Logger, event string, f *flows.Failure) error {
	err := failureError(f)
	if f.Local() {
		e.metricInc(MetricValidationRejected)
	}
	e.metricInc(MetricAccountFlowFailure)
	log.Debug("account action failed", "failure", f.Kind.String(), "error", err)
	e.emitAudit(ctx, event, "", ProviderPassword, false, err, map[string]string{"failure": f.Kind.String()})
	return err
}
