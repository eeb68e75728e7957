// Package auth provides the shared authentication primitives for the
// zndraw services: the user model, JWT issuance and validation,
// registration, and role checks.
//
// Scoped sessions:
//   - TrustResolver turns a raw bearer token into a verified, detached
//     User using the narrowest possible database session. The session is
//     checked out only for the user lookup and released before the
//     resolver returns, so handlers that long-poll or stream never hold a
//     connection-pool slot or the SQLite writer lock for the lifetime of
//     the request.
//   - SessionFactory owns the pool and picks a pooling strategy from the
//     DSN shape: a single always-open connection for in-memory stores, no
//     idle connections for file-backed SQLite, a standard pool for
//     networked databases. It is built once at startup and closed at
//     shutdown; there is no ambient engine cache keyed by DSN.
//
// Trust levels:
//   - The package exposes exactly three trust levels: anonymous, active
//     user, and superuser. RequireActiveUser, RequireSuperuser, and
//     OptionalUser middleware map those onto routes. Authentication
//     failures are uniform (a single unauthenticated outcome regardless
//     of cause); authorization failures are explicit and distinct.
//
// Lifecycle hooks:
//   - UserHooks is invoked on registration and on password-reset or
//     verification requests. DevModeHooks implements the dev-mode policy:
//     when no default administrator is configured, every new registration
//     is promoted to superuser. EnsureDefaultAdmin is the production half
//     of the same policy and reconciles the configured admin account at
//     startup.
package auth
