package server

import (
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/novachat/internal/conversation"
	"github.com/mohammad-safakhou/novachat/internal/runtime"
)

const minPasswordLen = 6

var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

// AuthHandler serves the login form. Any well formed email and password is accepted;
// the email doubles as the user id sent to the backend.
type AuthHandler struct {
	Secret        []byte
	Secure        bool
	RememberFor   time.Duration
	SessionFor    time.Duration
	Conversations conversation.Store
	Brand         string
}

type loginPage struct {
	Brand    string
	Email    string
	Remember bool
	Errors   map[string]string
}

func (a *AuthHandler) page(c echo.Context) error {
	if ck, err := c.Cookie(runtime.SessionCookie); err == nil {
		if _, err := runtime.ParseSession(ck.Value, a.Secret); err == nil {
			return c.Redirect(http.StatusSeeOther, "/")
		}
	}
	return c.Render(http.StatusOK, "login.html", loginPage{Brand: a.Brand})
}

func (a *AuthHandler) login(c echo.Context) error {
	email := strings.TrimSpace(c.FormValue("email"))
	password := c.FormValue("password")
	remember := c.FormValue("remember") != ""

	form := loginPage{Brand: a.Brand, Email: email, Remember: remember}
	if errs := validateLogin(email, password); len(errs) > 0 {
		form.Errors = errs
		return c.Render(http.StatusBadRequest, "login.html", form)
	}

	s := runtime.Session{UserID: email, Email: email, Name: displayName(email)}
	ttl := a.SessionFor
	if remember {
		ttl = a.RememberFor
	}
	signed, err := runtime.SignSession(s, a.Secret, ttl)
	if err != nil {
		log.Printf("sign session: %v", err)
		form.Errors = map[string]string{"general": "Giriş sırasında bir hata oluştu"}
		return c.Render(http.StatusInternalServerError, "login.html", form)
	}
	cookie := a.cookie(signed)
	if remember {
		cookie.MaxAge = int(a.RememberFor / time.Second)
	}
	c.SetCookie(cookie)
	return c.Redirect(http.StatusSeeOther, "/")
}

func (a *AuthHandler) logout(c echo.Context) error {
	if s, ok := runtime.SessionFromContext(c.Request().Context()); ok && a.Conversations != nil {
		if err := a.Conversations.Clear(c.Request().Context(), s.UserID); err != nil {
			log.Printf("clear conversation: %v", err)
		}
	}
	cookie := a.cookie("")
	cookie.MaxAge = -1
	c.SetCookie(cookie)
	return c.Redirect(http.StatusSeeOther, "/login")
}

func (a *AuthHandler) cookie(value string) *http.Cookie {
	cookie := new(http.Cookie)
	cookie.Name = runtime.SessionCookie
	cookie.Value = value
	cookie.Path = "/"
	cookie.HttpOnly = true
	cookie.SameSite = http.SameSiteLaxMode
	cookie.Secure = a.Secure
	return cookie
}

// validateLogin returns the field errors for a login attempt keyed by field name.
func validateLogin(email, password string) map[string]string {
	errs := map[string]string{}
	switch {
	case email == "":
		errs["email"] = "E-posta adresi gerekli"
	case !emailPattern.MatchString(email):
		errs["email"] = "Geçerli bir e-posta adresi girin"
	}
	switch {
	case password == "":
		errs["password"] = "Şifre gerekli"
	case utf8.RuneCountInString(password) < minPasswordLen:
		errs["password"] = "Şifre en az 6 karakter olmalı"
	}
	return errs
}

func displayName(email string) string {
	name, _, _ := strings.Cut(email, "@")
	return name
}
