package repository

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"instagramclone/internal/models"
)

func TestMain(m *testing.M) {
	hashCost = bcrypt.MinCost
	os.Exit(m.Run())
}

func TestMemoryAccountRepository_Register(t *testing.T) {
	repo := NewMemoryAccountRepository()
	ctx := context.Background()

	t.Run("stores a hashed password", func(t *testing.T) {
		account, err := repo.Register(ctx, "alice", "pw1", models.RoleCreator)

		require.NoError(t, err)
		assert.Equal(t, "alice", account.Username)
		assert.Equal(t, models.RoleCreator, account.Role)
		assert.NotEqual(t, "pw1", account.PasswordHash)
		assert.False(t, account.CreatedAt.IsZero())
	})

	t.Run("rejects a duplicate username", func(t *testing.T) {
		_, err := repo.Register(ctx, "alice", "other", models.RoleConsumer)

		assert.ErrorIs(t, err, models.ErrDuplicateUsername)

		// the original credentials still work
		_, err = repo.Authenticate(ctx, "alice", "pw1")
		assert.NoError(t, err)
		_, err = repo.Authenticate(ctx, "alice", "other")
		assert.ErrorIs(t, err, models.ErrInvalidCredentials)
	})

	t.Run("normalizes the role", func(t *testing.T) {
		account, err := repo.Register(ctx, "dave", "pw1", models.Role(" Creator "))

		require.NoError(t, err)
		assert.Equal(t, models.RoleCreator, account.Role)
		assert.True(t, account.Role.CanUpload())
	})

	t.Run("rejects an unknown role", func(t *testing.T) {
		_, err := repo.Register(ctx, "carol", "pw", models.Role("admin"))

		assert.Error(t, err)
		exists, _ := repo.Exists(ctx, "carol")
		assert.False(t, exists)
	})
}

func TestMemoryAccountRepository_Authenticate(t *testing.T) {
	repo := NewMemoryAccountRepository()
	ctx := context.Background()
	_, err := repo.Register(ctx, "bob", "secret", models.RoleConsumer)
	require.NoError(t, err)

	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{"exact match", "bob", "secret", nil},
		{"wrong password", "bob", "Secret", models.ErrInvalidCredentials},
		{"unknown user", "bobby", "secret", models.ErrInvalidCredentials},
		{"username is case sensitive", "Bob", "secret", models.ErrInvalidCredentials},
		{"empty password", "bob", "", models.ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			account, err := repo.Authenticate(ctx, tt.username, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, account)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "bob", account.Username)
			assert.Equal(t, models.RoleConsumer, account.Role)
		})
	}
}

func TestMemoryAccountRepository_ConcurrentRegisterKeepsUsernamesUnique(t *testing.T) {
	repo := NewMemoryAccountRepository()
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.Register(ctx, "dave", "pw", models.RoleConsumer); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
}

func TestMemoryPostRepository_AppendAndList(t *testing.T) {
	repo := NewMemoryPostRepository()
	ctx := context.Background()

	first := &models.Post{OwnerUsername: "alice", MediaLocation: "/uploads/1-a.png", Caption: "sunset"}
	second := &models.Post{OwnerUsername: "alice", MediaLocation: "/uploads/2-b.png", LikeCount: 99}

	id1, err := repo.Append(ctx, first)
	require.NoError(t, err)
	id2, err := repo.Append(ctx, second)
	require.NoError(t, err)

	assert.Equal(t, int64(1), id1)
	assert.Greater(t, id2, id1)
	assert.Equal(t, int64(0), second.LikeCount)

	posts, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, id1, posts[0].ID)
	assert.Equal(t, "sunset", posts[0].Caption)
	assert.Equal(t, id2, posts[1].ID)
	assert.Empty(t, posts[0].Comments)
}

func TestMemoryPostRepository_ReturnsCopies(t *testing.T) {
	repo := NewMemoryPostRepository()
	ctx := context.Background()

	id, _ := repo.Append(ctx, &models.Post{OwnerUsername: "alice", MediaLocation: "x"})
	_, err := repo.AddComment(ctx, id, models.Comment{AuthorUsername: "bob", Text: "hi"})
	require.NoError(t, err)

	posts, _ := repo.ListAll(ctx)
	posts[0].LikeCount = 1000
	posts[0].Comments[0].Text = "tampered"

	post, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(0), post.LikeCount)
	assert.Equal(t, "hi", post.Comments[0].Text)
}

func TestMemoryPostRepository_IncrementLike(t *testing.T) {
	repo := NewMemoryPostRepository()
	ctx := context.Background()
	id, _ := repo.Append(ctx, &models.Post{OwnerUsername: "alice", MediaLocation: "x"})

	const n = 7
	var count int64
	for i := 0; i < n; i++ {
		var err error
		count, err = repo.IncrementLike(ctx, id)
		require.NoError(t, err)
	}

	assert.Equal(t, int64(n), count)

	_, err := repo.IncrementLike(ctx, id+1)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestMemoryPostRepository_ConcurrentLikesAreNotLost(t *testing.T) {
	repo := NewMemoryPostRepository()
	ctx := context.Background()
	id, _ := repo.Append(ctx, &models.Post{OwnerUsername: "alice", MediaLocation: "x"})

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = repo.IncrementLike(ctx, id)
		}()
	}
	wg.Wait()

	post, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(100), post.LikeCount)
}

func TestMemoryPostRepository_AddComment(t *testing.T) {
	repo := NewMemoryPostRepository()
	ctx := context.Background()
	id, _ := repo.Append(ctx, &models.Post{OwnerUsername: "alice", MediaLocation: "x"})

	tests := []struct {
		name    string
		postID  int64
		text    string
		wantErr error
	}{
		{"empty", id, "", models.ErrEmptyComment},
		{"whitespace", id, "   \t\n", models.ErrEmptyComment},
		{"unknown post", id + 10, "hello", models.ErrNotFound},
		{"trimmed", id, "  nice!  ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			comment, err := repo.AddComment(ctx, tt.postID, models.Comment{AuthorUsername: "bob", Text: tt.text})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "nice!", comment.Text)
		})
	}

	post, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	require.Len(t, post.Comments, 1)
	assert.Equal(t, "bob", post.Comments[0].AuthorUsername)
	assert.Equal(t, "nice!", post.Comments[0].Text)
}

func TestMemoryPostRepository_GetByIDNotFound(t *testing.T) {
	repo := NewMemoryPostRepository()

	_, err := repo.GetByID(context.Background(), 1)

	assert.ErrorIs(t, err, models.ErrNotFound)
}
