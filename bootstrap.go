package auth

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// EnsureDefaultAdmin reconciles the configured administrator account.
// It is idempotent: calling it N times leaves the same end state as one
// call. It runs inside a caller-supplied session; the caller owns commit.
//
// Policy, matching the dev-mode promotion in DevModeHooks:
//   - no admin email configured: no-op, the process runs in dev mode
//   - email configured without password: warn and skip (fail safe, the
//     rest of startup proceeds)
//   - both configured: create the admin, or promote an existing user in
//     place, or do nothing when it already is a superuser
//
// Storage failures propagate; they are fatal to startup.
func EnsureDefaultAdmin(ctx context.Context, tx bun.IDB, users Users, settings *Settings, logger Logger) error {
	if logger == nil {
		logger = defLogger{}
	}

	if settings.DefaultAdminEmail == "" {
		logger.Debug("no default admin configured, running in dev mode")
		return nil
	}

	if settings.DefaultAdminPassword == "" {
		logger.Warn("default admin email %s configured without a password, skipping bootstrap", settings.DefaultAdminEmail)
		return nil
	}

	email := NormalizeEmail(settings.DefaultAdminEmail)

	existing, err := users.FindByEmailTx(ctx, tx, email)
	if err != nil && !repository.IsRecordNotFound(err) {
		return errors.Wrap(err, errors.CategoryInternal, "admin bootstrap lookup failed")
	}

	if existing != nil {
		if existing.IsSuperuser {
			return nil
		}

		if err := users.PromoteToSuperuserTx(ctx, tx, existing.ID); err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "admin bootstrap promotion failed")
		}
		logger.Info("promoted existing user %s to superuser", email)
		return nil
	}

	hash, err := HashPassword(settings.DefaultAdminPassword)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "admin bootstrap failed to hash password")
	}

	admin := &User{
		ID:           adminID(email),
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
		IsSuperuser:  true,
		IsVerified:   true,
	}

	if _, err := users.RegisterTx(ctx, tx, admin); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "admin bootstrap create failed")
	}

	logger.Info("created default admin %s", email)
	return nil
}

// adminID derives a stable id from the admin email so repeated bootstraps
// against fresh databases produce the same identifier.
func adminID(email string) uuid.UUID {
	if id, err := hashid.NewUUID(email); err == nil {
		return id
	}
	return uuid.New()
}
