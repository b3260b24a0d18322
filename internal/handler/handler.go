package handlers

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"instagramclone/internal/config"
	"instagramclone/internal/service"
	"instagramclone/internal/session"
)

// HealthCheck reports whether one backing dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Handlers struct {
	AuthService  service.AuthService
	FeedService  service.FeedService
	Sessions     *session.CookieTransport
	HealthChecks map[string]HealthCheck
	Cfg          *config.Config
	Validate     *validator.Validate
	Log          *logrus.Logger
}

func NewHandlers(services *service.Service, sessions *session.CookieTransport, cfg *config.Config, log *logrus.Logger) *Handlers {
	return &Handlers{
		AuthService:  services.Auth,
		FeedService:  services.Feed,
		Sessions:     sessions,
		HealthChecks: map[string]HealthCheck{},
		Cfg:          cfg,
		Validate:     validator.New(),
		Log:          log,
	}
}
