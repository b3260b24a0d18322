package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"instagramclone/internal/models"
)

// AccountRepository is the credential store. Accounts are never updated or
// deleted once registered.
type AccountRepository interface {
	Register(ctx context.Context, username, password string, role models.Role) (*models.Account, error)
	Authenticate(ctx context.Context, username, password string) (*models.Account, error)
	Exists(ctx context.Context, username string) (bool, error)
}

// PostRepository owns the ordered feed. Only like counts and comments change
// after a post is appended.
type PostRepository interface {
	Append(ctx context.Context, post *models.Post) (int64, error)
	ListAll(ctx context.Context) ([]models.Post, error)
	GetByID(ctx context.Context, id int64) (*models.Post, error)
	IncrementLike(ctx context.Context, id int64) (int64, error)
	AddComment(ctx context.Context, id int64, comment models.Comment) (*models.Comment, error)
}

type Repository struct {
	Account AccountRepository
	Post    PostRepository
}

// NewRepository returns Postgres-backed repositories.
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{
		Account: NewAccountRepository(db),
		Post:    NewPostRepository(db),
	}
}

// NewMemoryRepository returns process-local repositories; nothing survives a restart.
func NewMemoryRepository() *Repository {
	return &Repository{
		Account: NewMemoryAccountRepository(),
		Post:    NewMemoryPostRepository(),
	}
}
