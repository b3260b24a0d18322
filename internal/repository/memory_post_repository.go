package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"instagramclone/internal/models"
)

// MemoryPostRepository keeps the feed in insertion order. Ids start at 1 and
// are never reused; readers always receive copies.
type MemoryPostRepository struct {
	mu     sync.RWMutex
	posts  []models.Post
	index  map[int64]int
	lastID int64
}

func NewMemoryPostRepository() *MemoryPostRepository {
	return &MemoryPostRepository{index: make(map[int64]int)}
}

func (r *MemoryPostRepository) Append(ctx context.Context, post *models.Post) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastID++
	post.ID = r.lastID
	post.LikeCount = 0
	post.Comments = []models.Comment{}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now().UTC()
	}

	r.index[post.ID] = len(r.posts)
	r.posts = append(r.posts, post.Clone())

	return post.ID, nil
}

func (r *MemoryPostRepository) ListAll(ctx context.Context) ([]models.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Post, 0, len(r.posts))
	for _, p := range r.posts {
		out = append(out, p.Clone())
	}
	return out, nil
}

func (r *MemoryPostRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.index[id]
	if !ok {
		return nil, fmt.Errorf("post %d: %w", id, models.ErrNotFound)
	}

	post := r.posts[i].Clone()
	return &post, nil
}

func (r *MemoryPostRepository) IncrementLike(ctx context.Context, id int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.index[id]
	if !ok {
		return 0, fmt.Errorf("post %d: %w", id, models.ErrNotFound)
	}

	r.posts[i].LikeCount++
	return r.posts[i].LikeCount, nil
}

func (r *MemoryPostRepository) AddComment(ctx context.Context, id int64, comment models.Comment) (*models.Comment, error) {
	comment.Text = strings.TrimSpace(comment.Text)
	if comment.Text == "" {
		return nil, models.ErrEmptyComment
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.index[id]
	if !ok {
		return nil, fmt.Errorf("post %d: %w", id, models.ErrNotFound)
	}

	comment.PostID = id
	comment.ID = int64(len(r.posts[i].Comments) + 1)
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC()
	}
	r.posts[i].Comments = append(r.posts[i].Comments, comment)

	return &comment, nil
}
