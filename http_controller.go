package auth

import (
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

// AuthControllerRoutes are the mount points for the JSON auth API.
type AuthControllerRoutes struct {
	Login     string
	Register  string
	Me        string
	AdminUser string
}

// AuthController exposes the JSON endpoints of the package: token login,
// registration, the current-user route, and the admin user toggle.
type AuthController struct {
	Logger       Logger
	Users        Users
	Auther       Authenticator
	Register     *RegisterUserHandler
	Routes       *AuthControllerRoutes
	ErrorHandler router.ErrorHandler
}

type AuthControllerOption func(*AuthController) *AuthController

func WithControllerLogger(l Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if l != nil {
			c.Logger = l
		}
		return c
	}
}

func WithControllerUsers(users Users) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Users = users
		return c
	}
}

func WithControllerAuthenticator(a Authenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = a
		return c
	}
}

func WithControllerRegisterHandler(h *RegisterUserHandler) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Register = h
		return c
	}
}

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
		Routes: &AuthControllerRoutes{
			Login:     "/auth/jwt/login",
			Register:  "/auth/register",
			Me:        "/users/me",
			AdminUser: "/users/:id",
		},
	}

	c.ErrorHandler = c.defaultErrHandler

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Users == nil {
		panic("Missing Users repository in auth controller...")
	}

	if c.Auther == nil {
		panic("Missing Authenticator in auth controller...")
	}

	if c.Register == nil {
		panic("Missing RegisterUserHandler in auth controller...")
	}

	return c
}

// RegisterAuthRoutes mounts the JSON auth API. The guards come from the
// RouteAuthenticator so every protected route uses scoped-session
// verification.
func RegisterAuthRoutes[T any](app router.Router[T], controller *AuthController, guard *RouteAuthenticator) {
	app.Post(controller.Routes.Login, controller.LoginPost).
		SetName("auth.login")

	app.Post(controller.Routes.Register, controller.RegistrationCreate).
		SetName("auth.register")

	app.Get(controller.Routes.Me, controller.Me, guard.RequireActiveUser()).
		SetName("users.me")

	app.Patch(controller.Routes.AdminUser, controller.AdminUpdateUser, guard.RequireSuperuser()).
		SetName("users.admin-update")
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

// TokenResponse is the login response body.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (a *AuthController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]any{
			"error": err.Error(),
		})
	}

	token, err := a.Auther.Login(ctx.Context(), payload.Email, payload.Password)
	if err != nil {
		// All credential failures share one body; no oracle for which
		// check failed.
		return ctx.JSON(http.StatusUnauthorized, map[string]any{
			"error": "invalid credentials",
		})
	}

	return ctx.JSON(http.StatusOK, TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}

// RegistrationCreatePayload is the registration payload
type RegistrationCreatePayload struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will validate the payload
func (r RegistrationCreatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
	)
}

func (a *AuthController) RegistrationCreate(ctx router.Context) error {
	payload := new(RegistrationCreatePayload)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]any{
			"error": err.Error(),
		})
	}

	user, err := a.Register.Execute(ctx.Context(), RegisterUserMessage{
		Email:    payload.Email,
		Password: payload.Password,
	})
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, user)
}

func (a *AuthController) Me(ctx router.Context) error {
	user, ok := FromContext(ctx.Context())
	if !ok {
		return a.ErrorHandler(ctx, ErrUnauthenticated)
	}

	return ctx.JSON(http.StatusOK, user)
}

// AdminUserUpdatePayload toggles account flags; nil fields are untouched.
type AdminUserUpdatePayload struct {
	IsActive    *bool `json:"is_active"`
	IsSuperuser *bool `json:"is_superuser"`
}

func (a *AuthController) AdminUpdateUser(ctx router.Context) error {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return ctx.JSON(http.StatusNotFound, map[string]any{
			"error": "user not found",
		})
	}

	payload := new(AdminUserUpdatePayload)
	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if payload.IsActive != nil {
		if err := a.Users.SetActive(ctx.Context(), id, *payload.IsActive); err != nil {
			return a.ErrorHandler(ctx, err)
		}
	}

	if payload.IsSuperuser != nil && *payload.IsSuperuser {
		if err := a.Users.PromoteToSuperuser(ctx.Context(), id); err != nil {
			return a.ErrorHandler(ctx, err)
		}
	}

	user, err := a.Users.FindByID(ctx.Context(), id)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(http.StatusOK, user)
}

func (a *AuthController) defaultErrHandler(c router.Context, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		richErr = goerrors.Wrap(err, goerrors.CategoryInternal, "An unexpected server error occurred").
			WithCode(goerrors.CodeInternal)
	}

	a.Logger.Info(
		"auth controller error",
		"error", richErr.Message,
		"category", richErr.Category,
	)

	status, body := errResponse(richErr)
	return c.JSON(status, body)
}
