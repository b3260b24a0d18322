// Package session binds opaque tokens to an authenticated identity.
//
// A token is an HS256 JWT whose jti names a server-side session. Both must
// check out: the signature and expiry, and the session still being present
// in the Store. Ending a session deletes it from the Store, which revokes the
// token even though its signature remains valid.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"instagramclone/internal/models"
)

type claims struct {
	Role models.Role `json:"role"`
	jwt.RegisteredClaims
}

type Manager struct {
	store  Store
	secret []byte
	ttl    time.Duration
	log    *logrus.Logger
	now    func() time.Time
}

func NewManager(store Store, secret []byte, ttl time.Duration, log *logrus.Logger) *Manager {
	return &Manager{
		store:  store,
		secret: secret,
		ttl:    ttl,
		log:    log,
		now:    time.Now,
	}
}

func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Begin opens a new session for account. Earlier sessions of the same
// account stay valid.
func (m *Manager) Begin(ctx context.Context, account *models.Account) (string, *models.Session, error) {
	now := m.now()
	sess := &models.Session{
		ID:        uuid.NewString(),
		Username:  account.Username,
		Role:      account.Role,
		ExpiresAt: now.Add(m.ttl),
	}

	if err := m.store.Save(ctx, sess); err != nil {
		return "", nil, fmt.Errorf("begin session: %w", err)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role: sess.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sess.ID,
			Subject:   sess.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
		},
	})

	signed, err := token.SignedString(m.secret)
	if err != nil {
		_ = m.store.Delete(ctx, sess.ID)
		return "", nil, fmt.Errorf("sign session token: %w", err)
	}

	return signed, sess, nil
}

// Current resolves token to its live session. Unknown, forged, expired and
// ended tokens all report false.
func (m *Manager) Current(ctx context.Context, token string) (*models.Session, bool) {
	if token == "" {
		return nil, false
	}

	c, err := m.parse(token, jwt.WithTimeFunc(m.now))
	if err != nil {
		return nil, false
	}

	sess, err := m.store.Get(ctx, c.ID)
	if err != nil {
		if !errors.Is(err, ErrSessionNotFound) {
			m.log.WithError(err).Warn("session lookup failed")
		}
		return nil, false
	}

	if sess.Expired(m.now()) || sess.Username != c.Subject {
		return nil, false
	}

	return sess, true
}

// End removes the session behind token. Ending an unknown or already ended
// session is not an error.
func (m *Manager) End(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	c, err := m.parse(token, jwt.WithoutClaimsValidation())
	if err != nil {
		return nil
	}

	if err := m.store.Delete(ctx, c.ID); err != nil && !errors.Is(err, ErrSessionNotFound) {
		return fmt.Errorf("end session: %w", err)
	}
	return nil
}

func (m *Manager) parse(token string, opts ...jwt.ParserOption) (*claims, error) {
	opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if c.ID == "" {
		return nil, errors.New("token carries no session id")
	}
	return &c, nil
}
