package session

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/sessions"
)

const (
	CookieName = "instagram-session"
	tokenKey   = "token"
)

// CookieTransport carries the session token for browser clients. API
// clients can send the same token as a Bearer header instead.
type CookieTransport struct {
	store *sessions.CookieStore
}

func NewCookieTransport(secret []byte, ttl time.Duration, secure bool) *CookieTransport {
	store := sessions.NewCookieStore(secret)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &CookieTransport{store: store}
}

func (c *CookieTransport) Save(w http.ResponseWriter, r *http.Request, token string) error {
	// a cookie that fails to decode still yields a fresh session
	sess, _ := c.store.Get(r, CookieName)
	sess.Values[tokenKey] = token
	return sess.Save(r, w)
}

func (c *CookieTransport) Clear(w http.ResponseWriter, r *http.Request) error {
	sess, _ := c.store.Get(r, CookieName)
	delete(sess.Values, tokenKey)
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// Token returns the Bearer token if present, otherwise the token stored in
// the session cookie, otherwise "".
func (c *CookieTransport) Token(r *http.Request) string {
	if token := BearerToken(r); token != "" {
		return token
	}

	sess, err := c.store.Get(r, CookieName)
	if err != nil {
		return ""
	}
	token, _ := sess.Values[tokenKey].(string)
	return token
}

func BearerToken(r *http.Request) string {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
