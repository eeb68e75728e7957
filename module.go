package auth

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// Module bundles the package's process-wide state: the session factory,
// the user directory, the token service, and the resolvers built on them.
// Construct it once at startup, hand it to request handlers, and Close it
// at shutdown. There is no ambient cache keyed by connection string; a
// new configuration means a new Module.
type Module struct {
	Settings *Settings
	Sessions *SessionFactory
	Users    Users
	Auther   *Auther
	Resolver *TrustResolver
	Guard    *RouteAuthenticator
	Register *RegisterUserHandler

	logger Logger
}

type ModuleOption func(*Module)

func WithModuleLogger(l Logger) ModuleOption {
	return func(m *Module) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewModule opens the store, applies migrations, reconciles the default
// admin, and wires the resolvers. A failure leaves no open handles.
func NewModule(ctx context.Context, settings *Settings, opts ...ModuleOption) (*Module, error) {
	if settings == nil {
		return nil, errors.New("settings are required", errors.CategoryBadInput)
	}

	m := &Module{
		Settings: settings,
		logger:   defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}

	sessions, err := NewSessionFactory(settings.DatabaseDSN, WithSessionFactoryLogger(m.logger))
	if err != nil {
		return nil, err
	}
	m.Sessions = sessions

	if err := Migrate(ctx, sessions.DB()); err != nil {
		_ = sessions.Close()
		return nil, err
	}

	m.Users = NewUsersRepository(sessions.DB())

	if err := sessions.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return EnsureDefaultAdmin(ctx, tx, m.Users, settings, m.logger)
	}); err != nil {
		_ = sessions.Close()
		return nil, err
	}

	provider := NewUserProvider(m.Users).WithLogger(m.logger)
	m.Auther = NewAuthenticator(provider, settings).WithLogger(m.logger)
	m.Resolver = NewTrustResolver(sessions, m.Users, m.Auther.TokenService()).WithLogger(m.logger)
	m.Guard = NewRouteAuthenticator(m.Resolver, settings).WithLogger(m.logger)

	hooks := HooksForSettings(settings, m.Users, m.logger)
	m.Register = NewRegisterUserHandler(sessions, m.Users, hooks).WithLogger(m.logger)

	return m, nil
}

// Close disposes the process-wide state.
func (m *Module) Close() error {
	if m.Sessions == nil {
		return nil
	}
	return m.Sessions.Close()
}
