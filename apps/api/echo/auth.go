package echoapi

import (
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/certiko/backoffice/core"
	"github.com/certiko/backoffice/core/session"
)

var (
	// appJWTConfig is the default JWT auth middleware config.
	appJWTConfig = middleware.JWTConfig{
		SigningKey:    core.Conf.SecretKey,
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    "userToken",
		Claims:        new(Claims),
	}

	// sessionCookieName carries the gateway JWT for page navigation.
	sessionCookieName = "certiko_session"
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	Usuario       string `json:"usuario,omitempty"`
	NombreEmpresa string `json:"nombre_empresa,omitempty"`
	Rol           string `json:"rol,omitempty"`
}

func (c Claims) IsSuperAdmin() bool { return c.Rol == "superadmin" }

func GetSessionClaims(usr session.User) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    core.Conf.AppName,
			Subject:   usr.Usuario,
			ExpiresAt: now.Add(core.Conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Usuario:       usr.Usuario,
		NombreEmpresa: usr.NombreEmpresa,
		Rol:           usr.Rol,
	}
}

// GenerateToken generates a signed JWT token string representing the user Claims.
func GenerateToken(claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(appJWTConfig.SigningMethod)
	token := jwt.NewWithClaims(method, claims)
	return token.SignedString(appJWTConfig.SigningKey.([]byte))
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(appJWTConfig.ContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// setSessionCookie installs the gateway JWT for subsequent page
// navigation; the route guard reads it.
func setSessionCookie(ctx echo.Context, token string) {
	ctx.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(core.Conf.Server.JWTExpirationDelta / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

func clearSessionCookie(ctx echo.Context) {
	ctx.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// validSessionCookie reports whether the request carries a session
// cookie with a valid, unexpired gateway JWT.
func validSessionCookie(ctx echo.Context) bool {
	cookie, err := ctx.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return false
	}
	token, err := jwt.ParseWithClaims(cookie.Value, new(Claims), func(tok *jwt.Token) (interface{}, error) {
		if tok.Method.Alg() != appJWTConfig.SigningMethod {
			return nil, errUnauthorized
		}
		return appJWTConfig.SigningKey, nil
	})
	return err == nil && token.Valid
}
