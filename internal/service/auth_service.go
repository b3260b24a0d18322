package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"instagramclone/internal/metrics"
	"instagramclone/internal/models"
	"instagramclone/internal/repository"
	"instagramclone/internal/session"
)

type AuthService interface {
	Signup(ctx context.Context, username, password string, role models.Role) (string, *models.Session, error)
	Login(ctx context.Context, username, password string) (string, *models.Session, error)
	Logout(ctx context.Context, token string) error
	Current(ctx context.Context, token string) (*models.Session, bool)
}

type authService struct {
	accounts repository.AccountRepository
	sessions *session.Manager
	metrics  *metrics.Metrics
	log      *logrus.Logger
}

func NewAuthService(accounts repository.AccountRepository, sessions *session.Manager, m *metrics.Metrics, log *logrus.Logger) AuthService {
	return &authService{
		accounts: accounts,
		sessions: sessions,
		metrics:  m,
		log:      log,
	}
}

// Signup registers the account and logs it in straight away.
func (s *authService) Signup(ctx context.Context, username, password string, role models.Role) (string, *models.Session, error) {
	account, err := s.accounts.Register(ctx, username, password, role)
	if err != nil {
		return "", nil, err
	}

	s.metrics.Signups.Inc()
	s.log.WithFields(logrus.Fields{
		"username": account.Username,
		"role":     account.Role,
	}).Info("account created")

	token, sess, err := s.sessions.Begin(ctx, account)
	if err != nil {
		return "", nil, fmt.Errorf("signup: %w", err)
	}
	return token, sess, nil
}

func (s *authService) Login(ctx context.Context, username, password string) (string, *models.Session, error) {
	account, err := s.accounts.Authenticate(ctx, username, password)
	if err != nil {
		if errors.Is(err, models.ErrInvalidCredentials) {
			s.metrics.Logins.WithLabelValues("failure").Inc()
			s.log.WithField("username", username).Warn("failed login")
		}
		return "", nil, err
	}

	token, sess, err := s.sessions.Begin(ctx, account)
	if err != nil {
		return "", nil, fmt.Errorf("login: %w", err)
	}

	s.metrics.Logins.WithLabelValues("success").Inc()
	return token, sess, nil
}

func (s *authService) Logout(ctx context.Context, token string) error {
	return s.sessions.End(ctx, token)
}

func (s *authService) Current(ctx context.Context, token string) (*models.Session, bool) {
	return s.sessions.Current(ctx, token)
}
