package auth

import (
	"context"

	"github.com/uptrace/bun"
)

// UserHooks are the lifecycle extension points invoked by the
// registration and account-management commands. Hooks receive the session
// of the surrounding transaction so their writes commit or roll back with
// the triggering operation.
type UserHooks interface {
	OnRegister(ctx context.Context, tx bun.IDB, user *User) error
	OnPasswordResetRequested(ctx context.Context, tx bun.IDB, user *User, token string) error
	OnVerificationRequested(ctx context.Context, tx bun.IDB, user *User, token string) error
}

// LogHooks is the production default: it records lifecycle events and
// changes nothing.
type LogHooks struct {
	Logger Logger
}

var _ UserHooks = LogHooks{}

func (h LogHooks) logger() Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return defLogger{}
}

func (h LogHooks) OnRegister(ctx context.Context, tx bun.IDB, user *User) error {
	h.logger().Info("user %s has registered", user.ID)
	return nil
}

func (h LogHooks) OnPasswordResetRequested(ctx context.Context, tx bun.IDB, user *User, token string) error {
	h.logger().Debug("user %s requested password reset", user.ID)
	return nil
}

func (h LogHooks) OnVerificationRequested(ctx context.Context, tx bun.IDB, user *User, token string) error {
	h.logger().Debug("verification requested for user %s", user.ID)
	return nil
}

// DevModeHooks promotes every new registration to superuser. It is the
// registration-time half of the admin-bootstrap policy: a process with no
// configured administrator treats every local user as one.
type DevModeHooks struct {
	Users  Users
	Logger Logger
}

var _ UserHooks = DevModeHooks{}

func (h DevModeHooks) logger() Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return defLogger{}
}

func (h DevModeHooks) OnRegister(ctx context.Context, tx bun.IDB, user *User) error {
	if user.IsSuperuser {
		h.logger().Info("user %s has registered", user.ID)
		return nil
	}

	if err := h.Users.PromoteToSuperuserTx(ctx, tx, user.ID); err != nil {
		return err
	}

	user.IsSuperuser = true
	h.logger().Info("user %s has registered (granted superuser - dev mode)", user.ID)
	return nil
}

func (h DevModeHooks) OnPasswordResetRequested(ctx context.Context, tx bun.IDB, user *User, token string) error {
	h.logger().Debug("user %s requested password reset", user.ID)
	return nil
}

func (h DevModeHooks) OnVerificationRequested(ctx context.Context, tx bun.IDB, user *User, token string) error {
	h.logger().Debug("verification requested for user %s", user.ID)
	return nil
}

// HooksForSettings picks the hook set matching the configured mode.
func HooksForSettings(settings *Settings, users Users, logger Logger) UserHooks {
	if settings.IsDevMode() {
		return DevModeHooks{Users: users, Logger: logger}
	}
	return LogHooks{Logger: logger}
}
