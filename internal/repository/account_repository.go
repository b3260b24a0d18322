package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"instagramclone/internal/models"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

type accountRepository struct {
	db *sqlx.DB
}

func NewAccountRepository(db *sqlx.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Register(ctx context.Context, username, password string, role models.Role) (*models.Account, error) {
	role, err := models.ParseRole(string(role))
	if err != nil {
		return nil, fmt.Errorf("register %s: %w", username, err)
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	account := &models.Account{
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}

	query := `
		INSERT INTO accounts (username, password_hash, role, created_at)
		VALUES (:username, :password_hash, :role, :created_at)
	`

	if _, err := r.db.NamedExecContext(ctx, query, account); err != nil {
		if hasPQCode(err, pqUniqueViolation) {
			return nil, fmt.Errorf("register %s: %w", username, models.ErrDuplicateUsername)
		}
		return nil, fmt.Errorf("insert account: %w", err)
	}

	return account, nil
}

func (r *accountRepository) Authenticate(ctx context.Context, username, password string) (*models.Account, error) {
	var account models.Account

	query := `SELECT username, password_hash, role, created_at FROM accounts WHERE username = $1`

	err := r.db.GetContext(ctx, &account, query, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			burnPasswordCheck(password)
			return nil, models.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load account: %w", err)
	}

	if !checkPassword(account.PasswordHash, password) {
		return nil, models.ErrInvalidCredentials
	}

	return &account, nil
}

func (r *accountRepository) Exists(ctx context.Context, username string) (bool, error) {
	var exists bool

	query := `SELECT EXISTS (SELECT 1 FROM accounts WHERE username = $1)`

	if err := r.db.GetContext(ctx, &exists, query, username); err != nil {
		return false, fmt.Errorf("check account: %w", err)
	}

	return exists, nil
}

func hasPQCode(err error, code pq.ErrorCode) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == code
}
