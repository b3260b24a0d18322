// Package storage saves uploaded media and hands back a locator (a path or a
// URL) the feed can point at. The backend is picked once at startup; callers
// only ever see MediaStore.
package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"instagramclone/internal/config"
	"instagramclone/internal/models"
)

// MediaStore persists bytes and returns a retrievable locator. Every failure
// wraps models.ErrStorageUnavailable. Delete removes what Store returned and
// treats an already missing object as success.
type MediaStore interface {
	Store(ctx context.Context, data []byte, suggestedName, mimeType string) (string, error)
	Delete(ctx context.Context, locator string) error
}

// UnavailableStore stands in for a backend whose configuration is missing.
type UnavailableStore struct {
	Reason string
}

func (u UnavailableStore) Store(ctx context.Context, data []byte, suggestedName, mimeType string) (string, error) {
	return "", fmt.Errorf("%w: %s", models.ErrStorageUnavailable, u.Reason)
}

func (u UnavailableStore) Delete(ctx context.Context, locator string) error {
	return fmt.Errorf("%w: %s", models.ErrStorageUnavailable, u.Reason)
}

// New builds the configured backend. Remote backends are wrapped in a circuit
// breaker; a remote backend that cannot be configured is logged and replaced
// by an UnavailableStore so uploads fail loudly instead of losing data.
func New(ctx context.Context, cfg config.Media, log *logrus.Logger) (MediaStore, error) {
	switch cfg.Backend {
	case config.MediaLocal:
		store, err := NewLocalStore(cfg.UploadDir, cfg.PublicPrefix)
		if err != nil {
			return unavailable(log, cfg.Backend, err.Error()), nil
		}
		log.WithField("dir", cfg.UploadDir).Info("media backend: local disk")
		return store, nil

	case config.MediaMinIO, config.MediaS3:
		if missing := cfg.MissingMediaSettings(); len(missing) > 0 {
			return unavailable(log, cfg.Backend, "missing "+strings.Join(missing, ", ")), nil
		}

		var remote MediaStore
		var err error
		if cfg.Backend == config.MediaMinIO {
			remote, err = NewMinIOClient(cfg.MinIO)
		} else {
			remote, err = NewS3Store(ctx, cfg.S3)
		}
		if err != nil {
			return unavailable(log, cfg.Backend, err.Error()), nil
		}

		log.WithField("backend", cfg.Backend).Info("media backend: remote object storage")
		return NewBreakerStore(remote, BreakerOptions{Name: cfg.Backend, Timeout: cfg.Timeout}, log), nil
	}

	return nil, fmt.Errorf("unknown media backend %q", cfg.Backend)
}

func unavailable(log *logrus.Logger, backend, reason string) MediaStore {
	log.WithFields(logrus.Fields{
		"backend": backend,
		"reason":  reason,
	}).Warn("media storage is not configured, every upload will fail")
	return UnavailableStore{Reason: backend + ": " + reason}
}

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SanitizeName reduces a client supplied file name to a safe base name.
func SanitizeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	name = unsafeNameChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if len(name) > 100 {
		ext := filepath.Ext(name)
		if len(ext) > 10 {
			ext = ""
		}
		name = name[:100-len(ext)] + ext
	}
	if name == "" {
		return "upload"
	}
	return name
}
