package runtime

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// SessionCookie is the cookie carrying the signed session token.
const SessionCookie = "nova_session"

// Session is the identity of a logged in chat user.
type Session struct {
	UserID string
	Email  string
	Name   string
}

type sessionClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// SignSession issues a signed token for s that expires after ttl.
func SignSession(s Session, secret []byte, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("jwt secret not configured")
	}
	now := time.Now()
	claims := sessionClaims{
		Email: s.Email,
		Name:  s.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ParseSession validates a token and returns its session.
func ParseSession(token string, secret []byte) (Session, error) {
	var claims sessionClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil {
		return Session{}, err
	}
	if !parsed.Valid || claims.Subject == "" {
		return Session{}, errors.New("invalid token")
	}
	return Session{UserID: claims.Subject, Email: claims.Email, Name: claims.Name}, nil
}

// EchoAuthMiddleware validates the session from the Authorization header or cookie.
// Browser requests without a valid session, form posts included, are redirected to
// loginPath. API and JSON requests get 401.
func EchoAuthMiddleware(secret []byte, loginPath string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tok := extractToken(c)
			if tok == "" {
				return unauthorized(c, loginPath, "missing token")
			}
			s, err := ParseSession(tok, secret)
			if err != nil {
				return unauthorized(c, loginPath, "invalid token")
			}
			c.Set("user_id", s.UserID)
			c.Set("session", s)
			c.SetRequest(c.Request().WithContext(ContextWithSession(c.Request().Context(), s)))
			return next(c)
		}
	}
}

func unauthorized(c echo.Context, loginPath, msg string) error {
	if loginPath != "" && !WantsJSON(c.Request()) {
		return c.Redirect(http.StatusSeeOther, loginPath)
	}
	return echo.NewHTTPError(http.StatusUnauthorized, msg)
}

// WantsJSON reports whether r expects a JSON answer: anything under /api/, JSON
// bodies and clients that accept JSON.
func WantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	if strings.HasPrefix(r.Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		return true
	}
	return strings.Contains(r.Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON)
}

func extractToken(c echo.Context) string {
	if h := c.Request().Header.Get("Authorization"); len(h) > 7 && h[:7] == "Bearer " {
		return h[7:]
	}
	if ck, err := c.Cookie(SessionCookie); err == nil {
		return ck.Value
	}
	return ""
}

type sessionKey struct{}

// ContextWithSession stores s in ctx.
func ContextWithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFromContext returns the session stored by the middleware.
func SessionFromContext(ctx context.Context) (Session, bool) {
	if ctx == nil {
		return Session{}, false
	}
	s, ok := ctx.Value(sessionKey{}).(Session)
	return s, ok
}
