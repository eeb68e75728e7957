package auth

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// TrustResolver turns a raw bearer credential into a verified, detached
// User. The database session is opened only for the user lookup and
// released before the resolver returns, so callers inside long-lived
// requests (long-poll, streaming) never hold a pool slot or the SQLite
// writer lock.
//
// Every failure collapses to ErrUnauthenticated. The cause (bad
// signature, expiry, audience, malformed subject, unknown or inactive
// user) is logged but never exposed, so a caller cannot probe which check
// failed.
type TrustResolver struct {
	sessions SessionRunner
	users    Users
	tokens   TokenService
	logger   Logger
}

func NewTrustResolver(sessions SessionRunner, users Users, tokens TokenService) *TrustResolver {
	return &TrustResolver{
		sessions: sessions,
		users:    users,
		tokens:   tokens,
		logger:   defLogger{},
	}
}

func (r *TrustResolver) WithLogger(logger Logger) *TrustResolver {
	if logger != nil {
		r.logger = logger
	}
	return r
}

// CurrentUser resolves an active user from a raw token using a scoped
// session. The returned User is a detached copy: writes through it are
// not persisted, and its active/superuser flags reflect storage at call
// time, not token-issuance time.
func (r *TrustResolver) CurrentUser(ctx context.Context, rawToken string) (*User, error) {
	if rawToken == "" {
		return nil, ErrUnauthenticated
	}

	claims, err := r.tokens.Validate(rawToken)
	if err != nil {
		r.logger.Debug("token validation failed: %v", err)
		return nil, ErrUnauthenticated
	}

	subject := claims.Subject()
	if subject == "" {
		r.logger.Debug("token has no subject claim")
		return nil, ErrUnauthenticated
	}

	userID, err := uuid.Parse(subject)
	if err != nil || userID == uuid.Nil {
		r.logger.Debug("token subject is not a valid identifier")
		return nil, ErrUnauthenticated
	}

	var user *User
	err = r.sessions.RunInSession(ctx, func(ctx context.Context, session bun.IDB) error {
		record, err := r.users.FindByIDTx(ctx, session, userID)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return nil
			}
			return err
		}

		// Detach: copy before the session is released so the caller never
		// touches session-bound state.
		detached := *record
		user = &detached
		return nil
	})
	if err != nil {
		// Storage failures also fail closed; the resolver never reports a
		// distinct outcome for them.
		r.logger.Error("scoped session lookup failed: %v", err)
		return nil, ErrUnauthenticated
	}

	if user == nil || !user.IsActive {
		return nil, ErrUnauthenticated
	}

	return user, nil
}

// CurrentSuperuser resolves an active superuser. Authentication failures
// stay uniform; a valid non-superuser gets the distinct ErrForbidden.
func (r *TrustResolver) CurrentSuperuser(ctx context.Context, rawToken string) (*User, error) {
	user, err := r.CurrentUser(ctx, rawToken)
	if err != nil {
		return nil, err
	}

	if !user.IsSuperuser {
		return nil, ErrForbidden
	}

	return user, nil
}

// OptionalUser never fails on authentication problems: it yields the
// resolved user or nil. Storage-level failures are swallowed too; routes
// using optional auth degrade to anonymous.
func (r *TrustResolver) OptionalUser(ctx context.Context, rawToken string) (*User, error) {
	user, err := r.CurrentUser(ctx, rawToken)
	if err != nil {
		return nil, nil
	}
	return user, nil
}
