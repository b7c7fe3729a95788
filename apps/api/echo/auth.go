package echoapi

import (
	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/hotaru-ritsuki/course-api-sub000/core"
	"github.com/hotaru-ritsuki/course-api-sub000/core/user"
)

const (
	tokenContextKey = "userToken"
	userContextKey  = "user"
)

// newJWTConfig returns the JWT auth middleware config. Claims are parsed into
// user.Claims; the token type is checked separately by accessTokenMiddleware.
func newJWTConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    conf.SecretKey,
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    tokenContextKey,
		Claims:        new(user.Claims),
	}
}

// accessTokenMiddleware rejects authenticated requests made with anything but
// an access token; a refresh token only buys a new pair, never API access.
func accessTokenMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}
			if claims.TokenType != user.TokenTypeAccess {
				return errUnauthorized
			}
			return next(ctx)
		}
	}
}

func getContextClaims(ctx echo.Context) (user.Claims, error) {
	if token, ok := ctx.Get(tokenContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*user.Claims); ok {
			return *claims, nil
		}
	}
	return user.Claims{}, errUnauthorized
}

// getContextUser resolves the authenticated principal from the request's
// claims, caching it on the echo.Context for the remainder of the request.
func getContextUser(ctx echo.Context, svc *user.Service) (user.User, error) {
	if usr, ok := ctx.Get(userContextKey).(user.User); ok {
		return usr, nil
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return user.User{}, err
	}

	usr, err := svc.GetByEmail(ctx.Request().Context(), claims.Subject)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return user.User{}, errUnauthorized
		}
		return user.User{}, errors.Wrap(err, "finding user by email")
	}
	if !usr.IsActive {
		return user.User{}, user.ErrAccountDeactivated
	}
	ctx.Set(userContextKey, usr)
	return usr, nil
}
