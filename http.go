package auth

import (
	"net/http"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// RouteAuthenticator wires the TrustResolver into HTTP middleware. Every
// guard resolves the user through a scoped session and stores the
// detached result in the router locals and the request context; no
// database session outlives the middleware call.
type RouteAuthenticator struct {
	resolver     *TrustResolver
	cfg          Config
	Logger       Logger
	ErrorHandler router.ErrorHandler
}

func NewRouteAuthenticator(resolver *TrustResolver, cfg Config) *RouteAuthenticator {
	a := &RouteAuthenticator{
		resolver: resolver,
		cfg:      cfg,
		Logger:   defLogger{},
	}

	a.ErrorHandler = a.defaultErrHandler

	return a
}

func (a *RouteAuthenticator) WithLogger(logger Logger) *RouteAuthenticator {
	if logger != nil {
		a.Logger = logger
	}
	return a
}

// RequireActiveUser rejects requests without a valid credential for an
// active user.
func (a *RouteAuthenticator) RequireActiveUser() router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			user, err := a.resolver.CurrentUser(ctx.Context(), a.bearerToken(ctx))
			if err != nil {
				return a.ErrorHandler(ctx, err)
			}
			return a.continueWithUser(ctx, next, user)
		}
	}
}

// RequireSuperuser additionally rejects authenticated non-superusers with
// a distinct forbidden outcome.
func (a *RouteAuthenticator) RequireSuperuser() router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			user, err := a.resolver.CurrentSuperuser(ctx.Context(), a.bearerToken(ctx))
			if err != nil {
				return a.ErrorHandler(ctx, err)
			}
			return a.continueWithUser(ctx, next, user)
		}
	}
}

// OptionalUser never rejects; anonymous requests proceed without a user
// in the context.
func (a *RouteAuthenticator) OptionalUser() router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			user, _ := a.resolver.OptionalUser(ctx.Context(), a.bearerToken(ctx))
			if user == nil {
				return next(ctx)
			}
			return a.continueWithUser(ctx, next, user)
		}
	}
}

func (a *RouteAuthenticator) continueWithUser(ctx router.Context, next router.HandlerFunc, user *User) error {
	ctx.Locals(a.cfg.GetContextKey(), user)
	ctx.SetContext(WithContext(ctx.Context(), user))
	return next(ctx)
}

// bearerToken extracts the raw credential from the Authorization header.
// An empty return feeds the resolver's missing-token path.
func (a *RouteAuthenticator) bearerToken(ctx router.Context) string {
	header := ctx.Header(router.HeaderAuthorization)
	if header == "" {
		return ""
	}

	scheme := a.cfg.GetAuthScheme()
	if scheme == "" {
		scheme = "Bearer"
	}

	if len(header) <= len(scheme) || !strings.EqualFold(header[:len(scheme)], scheme) {
		return ""
	}

	rest := header[len(scheme):]
	if rest[0] != ' ' && rest[0] != '\t' {
		// no separator after the scheme, e.g. "Bearerabc"
		return ""
	}

	return strings.TrimSpace(rest)
}

func (a *RouteAuthenticator) defaultErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	a.Logger.Info(
		"auth middleware rejection",
		"error", richErr.Message,
		"category", richErr.Category,
		"details", print.MaybePrettyJSON(richErr.Metadata),
	)

	status, body := errResponse(richErr)
	return c.JSON(status, body)
}

// errResponse maps a structured error onto an HTTP status and JSON body.
// Shared by the router and fiber error handlers.
func errResponse(err error) (int, map[string]any) {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	code := richErr.Code
	if code == 0 {
		switch richErr.Category {
		case errors.CategoryNotFound:
			code = http.StatusNotFound
		case errors.CategoryConflict:
			code = http.StatusConflict
		default:
			code = http.StatusInternalServerError
		}
	}

	return code, map[string]any{
		"error": richErr.Message,
		"code":  richErr.TextCode,
	}
}
