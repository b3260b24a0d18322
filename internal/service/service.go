package service

import (
	"github.com/sirupsen/logrus"

	"instagramclone/internal/metrics"
	"instagramclone/internal/repository"
	"instagramclone/internal/session"
	"instagramclone/internal/storage"
)

type Service struct {
	Auth AuthService
	Feed FeedService
}

func NewService(rep *repository.Repository, sessions *session.Manager, media storage.MediaStore, m *metrics.Metrics, log *logrus.Logger) *Service {
	return &Service{
		Auth: NewAuthService(rep.Account, sessions, m, log),
		Feed: NewFeedService(rep.Account, rep.Post, sessions, media, m, log),
	}
}
