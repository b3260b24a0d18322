package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"instagramclone/internal/models"
)

// LocalStore writes files into one directory that is served statically under
// publicPrefix.
type LocalStore struct {
	dir          string
	publicPrefix string
	now          func() time.Time
}

func NewLocalStore(dir, publicPrefix string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", dir, err)
	}
	return &LocalStore{
		dir:          dir,
		publicPrefix: "/" + strings.Trim(publicPrefix, "/"),
		now:          time.Now,
	}, nil
}

func (s *LocalStore) Dir() string {
	return s.dir
}

// Store names the file "<unix millis>-<name>". The file is created
// exclusively; if the name is taken a random suffix is added.
func (s *LocalStore) Store(ctx context.Context, data []byte, suggestedName, mimeType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", models.ErrStorageUnavailable, err)
	}

	name := fmt.Sprintf("%d-%s", s.now().UnixMilli(), SanitizeName(suggestedName))

	for attempt := 0; attempt < 3; attempt++ {
		fileName := name
		if attempt > 0 {
			ext := filepath.Ext(name)
			fileName = strings.TrimSuffix(name, ext) + "-" + uuid.NewString()[:8] + ext
		}

		f, err := os.OpenFile(filepath.Join(s.dir, fileName), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("%w: %w", models.ErrStorageUnavailable, err)
		}

		if _, err := f.Write(data); err != nil {
			f.Close()
			os.Remove(f.Name())
			return "", fmt.Errorf("%w: write %s: %w", models.ErrStorageUnavailable, fileName, err)
		}
		if err := f.Close(); err != nil {
			os.Remove(f.Name())
			return "", fmt.Errorf("%w: close %s: %w", models.ErrStorageUnavailable, fileName, err)
		}

		return path.Join(s.publicPrefix, fileName), nil
	}

	return "", fmt.Errorf("%w: could not pick a free file name for %s", models.ErrStorageUnavailable, name)
}

// Delete only accepts locators under publicPrefix that name a file directly
// inside the upload dir.
func (s *LocalStore) Delete(ctx context.Context, locator string) error {
	fileName, ok := strings.CutPrefix(locator, s.publicPrefix+"/")
	if !ok || fileName == "" || fileName != filepath.Base(fileName) || fileName == "." || fileName == ".." {
		return fmt.Errorf("locator %q is not a local upload", locator)
	}

	err := os.Remove(filepath.Join(s.dir, fileName))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: remove %s: %w", models.ErrStorageUnavailable, fileName, err)
	}
	return nil
}
