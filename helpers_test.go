package auth_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zndraw/go-auth"
)

const (
	testSecretKey = "test-secret-key"
	testIssuer    = "zndraw-auth"
)

var testAudience = []string{"zndraw:auth"}

func newTestSettings(adminEmail, adminPassword string) *auth.Settings {
	return &auth.Settings{
		SigningKey:           testSecretKey,
		TokenLifetime:        3600,
		Issuer:               testIssuer,
		Audience:             testAudience,
		AuthScheme:           "Bearer",
		ContextKey:           "user",
		DatabaseDSN:          ":memory:",
		DefaultAdminEmail:    adminEmail,
		DefaultAdminPassword: adminPassword,
	}
}

func newTestModule(t *testing.T, settings *auth.Settings) *auth.Module {
	t.Helper()

	module, err := auth.NewModule(context.Background(), settings)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, module.Close())
	})

	return module
}

func newTestFactory(t *testing.T, dsn string) *auth.SessionFactory {
	t.Helper()

	factory, err := auth.NewSessionFactory(dsn)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, factory.Close())
	})

	require.NoError(t, auth.Migrate(context.Background(), factory.DB()))

	return factory
}

var (
	testHashOnce sync.Once
	testHash     string
)

// testPasswordHash returns a shared hash of "secret-password". Hashing is
// deliberately expensive, so tests that only need a plausible credential
// reuse one.
func testPasswordHash(t *testing.T) string {
	t.Helper()

	testHashOnce.Do(func() {
		hash, err := auth.HashPassword("secret-password")
		if err != nil {
			t.Fatalf("hashing test password: %v", err)
		}
		testHash = hash
	})

	return testHash
}

// tokenServiceFor mints tokens against the test secret with an arbitrary
// lifetime, so tests can craft expired or mismatched credentials.
func tokenServiceFor(lifetime int, audience []string) auth.TokenService {
	return auth.NewTokenService([]byte(testSecretKey), lifetime, testIssuer, audience, nil)
}

// recordingLogger captures log lines for assertions on warn-and-continue
// paths.
type recordingLogger struct {
	mu    sync.Mutex
	lines map[string][]string
}

func newRecordingLogger() *recordingLogger {
	return &recordingLogger{lines: map[string][]string{}}
}

func (l *recordingLogger) record(level, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines[level] = append(l.lines[level], fmt.Sprintf(format, args...))
}

func (l *recordingLogger) Debug(format string, args ...any) { l.record("debug", format, args...) }
func (l *recordingLogger) Info(format string, args ...any)  { l.record("info", format, args...) }
func (l *recordingLogger) Warn(format string, args ...any)  { l.record("warn", format, args...) }
func (l *recordingLogger) Error(format string, args ...any) { l.record("error", format, args...) }

func (l *recordingLogger) count(level string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.lines[level])
}

var _ auth.Logger = (*recordingLogger)(nil)
