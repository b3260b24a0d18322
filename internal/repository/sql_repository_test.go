package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"instagramclone/internal/models"
)

func setupMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	t.Cleanup(func() { sqlxDB.Close() })

	return sqlxDB, mock
}

func TestAccountRepository_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("inserts a hashed account", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewAccountRepository(db)

		mock.ExpectExec(`INSERT INTO accounts`).
			WithArgs("alice", sqlmock.AnyArg(), models.RoleCreator, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		account, err := repo.Register(ctx, "alice", "pw1", models.RoleCreator)

		require.NoError(t, err)
		assert.Equal(t, "alice", account.Username)
		assert.NotEqual(t, "pw1", account.PasswordHash)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stores the normalized role", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewAccountRepository(db)

		mock.ExpectExec(`INSERT INTO accounts`).
			WithArgs("alice", sqlmock.AnyArg(), "creator", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		account, err := repo.Register(ctx, "alice", "pw1", models.Role("Creator"))

		require.NoError(t, err)
		assert.Equal(t, models.RoleCreator, account.Role)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps a unique violation to a duplicate username", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewAccountRepository(db)

		mock.ExpectExec(`INSERT INTO accounts`).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "accounts_pkey"})

		_, err := repo.Register(ctx, "alice", "pw1", models.RoleCreator)

		assert.ErrorIs(t, err, models.ErrDuplicateUsername)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("wraps other failures", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewAccountRepository(db)

		mock.ExpectExec(`INSERT INTO accounts`).WillReturnError(errors.New("connection reset"))

		_, err := repo.Register(ctx, "alice", "pw1", models.RoleCreator)

		require.Error(t, err)
		assert.NotErrorIs(t, err, models.ErrDuplicateUsername)
		assert.Contains(t, err.Error(), "insert account")
	})
}

func TestAccountRepository_Authenticate(t *testing.T) {
	ctx := context.Background()
	hash, err := hashPassword("secret")
	require.NoError(t, err)

	accountRows := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"username", "password_hash", "role", "created_at"}).
			AddRow("bob", hash, "consumer", time.Now())
	}

	t.Run("matching password", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewAccountRepository(db)
		mock.ExpectQuery(`SELECT username, password_hash, role, created_at FROM accounts WHERE username = \$1`).
			WithArgs("bob").
			WillReturnRows(accountRows())

		account, err := repo.Authenticate(ctx, "bob", "secret")

		require.NoError(t, err)
		assert.Equal(t, models.RoleConsumer, account.Role)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("wrong password", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewAccountRepository(db)
		mock.ExpectQuery(`SELECT .* FROM accounts`).WithArgs("bob").WillReturnRows(accountRows())

		_, err := repo.Authenticate(ctx, "bob", "nope")

		assert.ErrorIs(t, err, models.ErrInvalidCredentials)
	})

	t.Run("unknown username", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewAccountRepository(db)
		mock.ExpectQuery(`SELECT .* FROM accounts`).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

		_, err := repo.Authenticate(ctx, "ghost", "secret")

		assert.ErrorIs(t, err, models.ErrInvalidCredentials)
	})
}

func TestAccountRepository_Exists(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewAccountRepository(db)

	mock.ExpectQuery(`SELECT EXISTS`).WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.Exists(context.Background(), "alice")

	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

var postRowColumns = []string{"id", "owner_username", "media_location", "caption", "title", "location", "people", "like_count", "created_at"}
var commentRowColumns = []string{"id", "post_id", "author_username", "text", "created_at"}

func TestPostRepository_Append(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO posts`).
		WithArgs("alice", "/uploads/1-a.png", "sunset", "", "", "").
		WillReturnRows(sqlmock.NewRows([]string{"id", "like_count", "created_at"}).AddRow(int64(5), int64(0), now))

	post := &models.Post{OwnerUsername: "alice", MediaLocation: "/uploads/1-a.png", Caption: "sunset"}
	id, err := repo.Append(context.Background(), post)

	require.NoError(t, err)
	assert.Equal(t, int64(5), id)
	assert.Equal(t, int64(5), post.ID)
	assert.NotNil(t, post.Comments)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_ListAll(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)
	now := time.Now()

	mock.ExpectQuery(`SELECT .* FROM posts ORDER BY id`).
		WillReturnRows(sqlmock.NewRows(postRowColumns).
			AddRow(int64(1), "alice", "u1", "sunset", "", "", "", int64(2), now).
			AddRow(int64(2), "alice", "u2", "", "", "", "", int64(0), now))
	mock.ExpectQuery(`SELECT .* FROM comments ORDER BY post_id, id`).
		WillReturnRows(sqlmock.NewRows(commentRowColumns).
			AddRow(int64(1), int64(1), "bob", "lovely", now).
			AddRow(int64(2), int64(1), "carol", "wow", now))

	posts, err := repo.ListAll(context.Background())

	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, int64(1), posts[0].ID)
	require.Len(t, posts[0].Comments, 2)
	assert.Equal(t, "lovely", posts[0].Comments[0].Text)
	assert.Equal(t, "wow", posts[0].Comments[1].Text)
	assert.Empty(t, posts[1].Comments)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_GetByID(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewPostRepository(db)
		now := time.Now()

		mock.ExpectQuery(`SELECT .* FROM posts WHERE id = \$1`).WithArgs(int64(3)).
			WillReturnRows(sqlmock.NewRows(postRowColumns).
				AddRow(int64(3), "alice", "u3", "c", "t", "l", "p", int64(1), now))
		mock.ExpectQuery(`SELECT .* FROM comments WHERE post_id = \$1`).WithArgs(int64(3)).
			WillReturnRows(sqlmock.NewRows(commentRowColumns).AddRow(int64(9), int64(3), "bob", "hey", now))

		post, err := repo.GetByID(ctx, 3)

		require.NoError(t, err)
		assert.Equal(t, "t", post.Title)
		require.Len(t, post.Comments, 1)
		assert.Equal(t, "bob", post.Comments[0].AuthorUsername)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewPostRepository(db)
		mock.ExpectQuery(`SELECT .* FROM posts WHERE id = \$1`).WithArgs(int64(4)).WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByID(ctx, 4)

		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestPostRepository_IncrementLike(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the new count", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewPostRepository(db)
		mock.ExpectQuery(`UPDATE posts SET like_count = like_count \+ 1 WHERE id = \$1 RETURNING like_count`).
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"like_count"}).AddRow(int64(3)))

		count, err := repo.IncrementLike(ctx, 1)

		require.NoError(t, err)
		assert.Equal(t, int64(3), count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown post", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewPostRepository(db)
		mock.ExpectQuery(`UPDATE posts`).WithArgs(int64(8)).WillReturnError(sql.ErrNoRows)

		_, err := repo.IncrementLike(ctx, 8)

		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestPostRepository_AddComment(t *testing.T) {
	ctx := context.Background()

	t.Run("trims and inserts", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewPostRepository(db)
		mock.ExpectQuery(`INSERT INTO comments`).
			WithArgs(int64(1), "bob", "lovely").
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(1), time.Now()))

		comment, err := repo.AddComment(ctx, 1, models.Comment{AuthorUsername: "bob", Text: "  lovely "})

		require.NoError(t, err)
		assert.Equal(t, "lovely", comment.Text)
		assert.Equal(t, int64(1), comment.PostID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty text never reaches the database", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewPostRepository(db)

		_, err := repo.AddComment(ctx, 1, models.Comment{AuthorUsername: "bob", Text: "   "})

		assert.ErrorIs(t, err, models.ErrEmptyComment)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("foreign key on post maps to not found", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewPostRepository(db)
		mock.ExpectQuery(`INSERT INTO comments`).
			WillReturnError(&pq.Error{Code: "23503", Constraint: "comments_post_id_fkey"})

		_, err := repo.AddComment(ctx, 42, models.Comment{AuthorUsername: "bob", Text: "hi"})

		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}
