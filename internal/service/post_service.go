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
	"instagramclone/internal/storage"
)

type Viewer struct {
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
}

// Feed is what any visitor sees. Viewer is nil for anonymous visitors.
type Feed struct {
	Viewer *Viewer       `json:"viewer"`
	Posts  []models.Post `json:"posts"`
}

type UploadRequest struct {
	Data     []byte
	FileName string
	MimeType string
	Caption  string
	Title    string
	Location string
	People   string
}

type FeedService interface {
	GetFeed(ctx context.Context, token string) (*Feed, error)
	GetPost(ctx context.Context, postID int64) (*models.Post, error)
	Upload(ctx context.Context, token string, req UploadRequest) (*models.Post, error)
	Like(ctx context.Context, token string, postID int64) (int64, error)
	Comment(ctx context.Context, token string, postID int64, text string) (*models.Comment, error)
}

type feedService struct {
	accounts repository.AccountRepository
	posts    repository.PostRepository
	sessions *session.Manager
	media    storage.MediaStore
	metrics  *metrics.Metrics
	log      *logrus.Logger
}

func NewFeedService(accounts repository.AccountRepository, posts repository.PostRepository, sessions *session.Manager,
	media storage.MediaStore, m *metrics.Metrics, log *logrus.Logger) FeedService {
	return &feedService{
		accounts: accounts,
		posts:    posts,
		sessions: sessions,
		media:    media,
		metrics:  m,
		log:      log,
	}
}

func (s *feedService) GetFeed(ctx context.Context, token string) (*Feed, error) {
	posts, err := s.posts.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load feed: %w", err)
	}

	feed := &Feed{Posts: posts}
	if sess, ok := s.sessions.Current(ctx, token); ok {
		feed.Viewer = &Viewer{Username: sess.Username, Role: sess.Role}
	}
	return feed, nil
}

func (s *feedService) GetPost(ctx context.Context, postID int64) (*models.Post, error) {
	return s.posts.GetByID(ctx, postID)
}

// accountExists rejects sessions whose account is gone, e.g. after the
// repository backend was reset.
func (s *feedService) accountExists(ctx context.Context, sess *models.Session) error {
	exists, err := s.accounts.Exists(ctx, sess.Username)
	if err != nil {
		return fmt.Errorf("check account: %w", err)
	}
	if !exists {
		return fmt.Errorf("account %s: %w", sess.Username, models.ErrUnauthenticated)
	}
	return nil
}

// Upload stores the media first and records the post only once the media is
// safely stored, so the feed never points at missing media. If the post
// cannot be recorded the stored media is removed again.
func (s *feedService) Upload(ctx context.Context, token string, req UploadRequest) (*models.Post, error) {
	sess, ok := s.sessions.Current(ctx, token)
	if !ok {
		s.metrics.Uploads.WithLabelValues("unauthenticated").Inc()
		return nil, models.ErrUnauthenticated
	}
	if !sess.Role.CanUpload() {
		s.metrics.Uploads.WithLabelValues("forbidden").Inc()
		return nil, fmt.Errorf("%s as %s: %w", sess.Username, sess.Role, models.ErrForbidden)
	}
	if len(req.Data) == 0 {
		s.metrics.Uploads.WithLabelValues("no_file").Inc()
		return nil, models.ErrNoFile
	}

	if err := s.accountExists(ctx, sess); err != nil {
		s.metrics.Uploads.WithLabelValues("unauthenticated").Inc()
		return nil, err
	}

	location, err := s.media.Store(ctx, req.Data, req.FileName, req.MimeType)
	if err != nil {
		s.metrics.Uploads.WithLabelValues("storage_unavailable").Inc()
		s.log.WithError(err).WithFields(logrus.Fields{
			"username": sess.Username,
			"file":     req.FileName,
			"size":     len(req.Data),
		}).Error("media store failed")
		if !errors.Is(err, models.ErrStorageUnavailable) {
			err = fmt.Errorf("%w: %w", models.ErrStorageUnavailable, err)
		}
		return nil, err
	}

	post := &models.Post{
		OwnerUsername: sess.Username,
		MediaLocation: location,
		Caption:       req.Caption,
		Title:         req.Title,
		Location:      req.Location,
		People:        req.People,
	}

	if _, err := s.posts.Append(ctx, post); err != nil {
		s.metrics.Uploads.WithLabelValues("error").Inc()
		s.log.WithError(err).WithField("location", location).Error("post was not recorded, removing stored media")

		// the request may already be canceled; cleanup still has to run
		if delErr := s.media.Delete(context.WithoutCancel(ctx), location); delErr != nil {
			s.log.WithError(delErr).WithField("location", location).Error("could not remove orphaned media")
		}
		return nil, fmt.Errorf("record post: %w", err)
	}

	s.metrics.Uploads.WithLabelValues("ok").Inc()
	s.log.WithFields(logrus.Fields{
		"post_id":  post.ID,
		"username": post.OwnerUsername,
		"location": post.MediaLocation,
	}).Info("post uploaded")

	return post, nil
}

// Like needs no session and is not deduplicated: every call counts.
func (s *feedService) Like(ctx context.Context, token string, postID int64) (int64, error) {
	count, err := s.posts.IncrementLike(ctx, postID)
	if err != nil {
		return 0, err
	}

	s.metrics.Likes.Inc()
	return count, nil
}

func (s *feedService) Comment(ctx context.Context, token string, postID int64, text string) (*models.Comment, error) {
	sess, ok := s.sessions.Current(ctx, token)
	if !ok {
		return nil, models.ErrUnauthenticated
	}
	if err := s.accountExists(ctx, sess); err != nil {
		return nil, err
	}

	comment, err := s.posts.AddComment(ctx, postID, models.Comment{
		AuthorUsername: sess.Username,
		Text:           text,
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Comments.Inc()
	return comment, nil
}
