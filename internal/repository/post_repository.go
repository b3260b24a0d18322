package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"instagramclone/internal/models"
)

const (
	postColumns    = `id, owner_username, media_location, caption, title, location, people, like_count, created_at`
	commentColumns = `id, post_id, author_username, text, created_at`
)

type PostRepositoryImpl struct {
	DB *sqlx.DB
}

func NewPostRepository(db *sqlx.DB) *PostRepositoryImpl {
	return &PostRepositoryImpl{DB: db}
}

func (r *PostRepositoryImpl) Append(ctx context.Context, post *models.Post) (int64, error) {
	query := `
		INSERT INTO posts (owner_username, media_location, caption, title, location, people)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, like_count, created_at
	`

	err := r.DB.QueryRowxContext(ctx, query,
		post.OwnerUsername,
		post.MediaLocation,
		post.Caption,
		post.Title,
		post.Location,
		post.People,
	).Scan(&post.ID, &post.LikeCount, &post.CreatedAt)
	if err != nil {
		if hasPQCode(err, pqForeignKeyViolation) {
			return 0, fmt.Errorf("owner %s: %w", post.OwnerUsername, models.ErrUnauthenticated)
		}
		return 0, fmt.Errorf("insert post: %w", err)
	}

	post.Comments = []models.Comment{}
	return post.ID, nil
}

func (r *PostRepositoryImpl) ListAll(ctx context.Context) ([]models.Post, error) {
	var posts []models.Post
	if err := r.DB.SelectContext(ctx, &posts, `SELECT `+postColumns+` FROM posts ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	var comments []models.Comment
	if err := r.DB.SelectContext(ctx, &comments, `SELECT `+commentColumns+` FROM comments ORDER BY post_id, id`); err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}

	byPost := make(map[int64][]models.Comment, len(posts))
	for _, c := range comments {
		byPost[c.PostID] = append(byPost[c.PostID], c)
	}

	for i := range posts {
		posts[i].Comments = byPost[posts[i].ID]
		if posts[i].Comments == nil {
			posts[i].Comments = []models.Comment{}
		}
	}

	if posts == nil {
		posts = []models.Post{}
	}
	return posts, nil
}

func (r *PostRepositoryImpl) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	var post models.Post
	err := r.DB.GetContext(ctx, &post, `SELECT `+postColumns+` FROM posts WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("post %d: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("load post: %w", err)
	}

	post.Comments = []models.Comment{}
	if err := r.DB.SelectContext(ctx, &post.Comments, `SELECT `+commentColumns+` FROM comments WHERE post_id = $1 ORDER BY id`, id); err != nil {
		return nil, fmt.Errorf("load comments: %w", err)
	}

	return &post, nil
}

func (r *PostRepositoryImpl) IncrementLike(ctx context.Context, id int64) (int64, error) {
	query := `UPDATE posts SET like_count = like_count + 1 WHERE id = $1 RETURNING like_count`

	var count int64
	if err := r.DB.QueryRowxContext(ctx, query, id).Scan(&count); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("post %d: %w", id, models.ErrNotFound)
		}
		return 0, fmt.Errorf("increment like: %w", err)
	}

	return count, nil
}

func (r *PostRepositoryImpl) AddComment(ctx context.Context, id int64, comment models.Comment) (*models.Comment, error) {
	comment.Text = strings.TrimSpace(comment.Text)
	if comment.Text == "" {
		return nil, models.ErrEmptyComment
	}

	query := `
		INSERT INTO comments (post_id, author_username, text)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	comment.PostID = id
	err := r.DB.QueryRowxContext(ctx, query, id, comment.AuthorUsername, comment.Text).
		Scan(&comment.ID, &comment.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation {
			if pqErr.Constraint == "comments_author_username_fkey" {
				return nil, fmt.Errorf("author %s: %w", comment.AuthorUsername, models.ErrUnauthenticated)
			}
			return nil, fmt.Errorf("post %d: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("insert comment: %w", err)
	}

	return &comment, nil
}
