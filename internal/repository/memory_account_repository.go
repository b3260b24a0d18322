package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"instagramclone/internal/models"
)

type MemoryAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]models.Account
}

func NewMemoryAccountRepository() *MemoryAccountRepository {
	return &MemoryAccountRepository{accounts: make(map[string]models.Account)}
}

func (r *MemoryAccountRepository) Register(ctx context.Context, username, password string, role models.Role) (*models.Account, error) {
	role, err := models.ParseRole(string(role))
	if err != nil {
		return nil, fmt.Errorf("register %s: %w", username, err)
	}

	// hash outside the lock, bcrypt is slow
	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.accounts[username]; exists {
		return nil, fmt.Errorf("register %s: %w", username, models.ErrDuplicateUsername)
	}

	account := models.Account{
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}
	r.accounts[username] = account

	return &account, nil
}

func (r *MemoryAccountRepository) Authenticate(ctx context.Context, username, password string) (*models.Account, error) {
	r.mu.RLock()
	account, ok := r.accounts[username]
	r.mu.RUnlock()

	if !ok {
		burnPasswordCheck(password)
		return nil, models.ErrInvalidCredentials
	}

	if !checkPassword(account.PasswordHash, password) {
		return nil, models.ErrInvalidCredentials
	}

	return &account, nil
}

func (r *MemoryAccountRepository) Exists(ctx context.Context, username string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.accounts[username]
	return ok, nil
}
