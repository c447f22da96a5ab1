package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/scholium-app/scholium/core/session"
	"github.com/scholium-app/scholium/core/user"
)

var (
	contextUserKey  = "user"
	contextTokenKey = "sessionToken"
)

// sessionMiddleware authenticates requests via an opaque Bearer token bound
// to a server-side session. The session user is loaded and set on the context.
func sessionMiddleware(sessSvc session.Service, usrSvc user.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			token := extractToken(ctx)
			if token == "" {
				return errUnauthorized
			}

			userID, err := sessSvc.Resolve(ctx.Request().Context(), token)
			if err != nil {
				if errors.Cause(err) == session.ErrNotFound {
					return errUnauthorized
				}
				return errors.Wrap(err, "resolving session")
			}

			usr, err := usrSvc.GetByID(ctx.Request().Context(), userID)
			if err != nil {
				if errors.Cause(err) == user.ErrNotFound {
					return errUnauthorized
				}
				return errors.Wrap(err, "finding session user")
			}

			ctx.Set(contextTokenKey, token)
			ctx.Set(contextUserKey, usr)
			return next(ctx)
		}
	}
}

func extractToken(ctx echo.Context) string {
	auth := ctx.Request().Header.Get(echo.HeaderAuthorization)
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func authenticate(ctx echo.Context, email, pwd string, svc user.Service) (user.User, error) {
	usr, err := svc.GetByEmail(ctx.Request().Context(), email)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return user.User{}, errAuthenticationFailed
		}
		return user.User{}, errors.Wrap(err, "finding user by email")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return user.User{}, errAuthenticationFailed
	}
	return usr, nil
}

func getContextUser(ctx echo.Context) (user.User, error) {
	if usr, ok := ctx.Get(contextUserKey).(user.User); ok {
		return usr, nil
	}
	return user.User{}, errUnauthorized
}

func getContextToken(ctx echo.Context) (string, error) {
	if token, ok := ctx.Get(contextTokenKey).(string); ok {
		return token, nil
	}
	return "", errUnauthorized
}
