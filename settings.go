package auth

import (
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Settings are the environment-sourced options for the package. All keys
// carry the AUTH_ prefix, e.g. AUTH_SECRET_KEY.
type Settings struct {
	SigningKey    string   `env:"AUTH_SECRET_KEY" env-default:"CHANGE-ME-IN-PRODUCTION"`
	TokenLifetime int      `env:"AUTH_TOKEN_LIFETIME_SECONDS" env-default:"3600"`
	Issuer        string   `env:"AUTH_TOKEN_ISSUER" env-default:"zndraw-auth"`
	Audience      []string `env:"AUTH_TOKEN_AUDIENCE" env-default:"zndraw:auth"`
	AuthScheme    string   `env:"AUTH_SCHEME" env-default:"Bearer"`
	ContextKey    string   `env:"AUTH_CONTEXT_KEY" env-default:"user"`

	DatabaseDSN string `env:"AUTH_DATABASE_URL" env-default:"file:zndraw_auth.db"`

	ResetPasswordTokenSecret string `env:"AUTH_RESET_PASSWORD_TOKEN_SECRET" env-default:"CHANGE-ME-RESET"`
	VerificationTokenSecret  string `env:"AUTH_VERIFICATION_TOKEN_SECRET" env-default:"CHANGE-ME-VERIFY"`

	// DefaultAdminEmail empty means dev mode: no admin is bootstrapped and
	// every new registration is promoted to superuser.
	DefaultAdminEmail    string `env:"AUTH_DEFAULT_ADMIN_EMAIL" env-default:""`
	DefaultAdminPassword string `env:"AUTH_DEFAULT_ADMIN_PASSWORD" env-default:""`
}

// LoadSettings reads Settings from the environment, layering an optional
// .env file underneath real environment variables.
func LoadSettings() (*Settings, error) {
	if _, err := os.Stat(".env"); err == nil {
		// Real env vars win over .env entries; godotenv does not override.
		_ = godotenv.Load()
	}

	s := &Settings{}
	if err := cleanenv.ReadEnv(s); err != nil {
		return nil, err
	}
	return s, nil
}

// IsDevMode reports whether the process runs without a configured
// administrator account.
func (s *Settings) IsDevMode() bool {
	return s.DefaultAdminEmail == ""
}

var _ Config = (*Settings)(nil)

func (s *Settings) GetSigningKey() string    { return s.SigningKey }
func (s *Settings) GetSigningMethod() string { return "HS256" }
func (s *Settings) GetTokenLifetime() int    { return s.TokenLifetime }
func (s *Settings) GetIssuer() string        { return s.Issuer }
func (s *Settings) GetAudience() []string    { return s.Audience }
func (s *Settings) GetAuthScheme() string    { return s.AuthScheme }
func (s *Settings) GetContextKey() string    { return s.ContextKey }
