package devstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/therealutkarshpriyadarshi/backoffice/pkg/models"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned when a username or password does not match
var ErrInvalidCredentials = errors.New("invalid username or password")

type account struct {
	user         models.User
	passwordHash []byte
}

// Accounts holds the users allowed to log into the development API
type Accounts struct {
	mu       sync.RWMutex
	nextID   int64
	accounts map[string]*account
}

// NewAccounts creates an empty account set
func NewAccounts() *Accounts {
	return &Accounts{nextID: 1, accounts: make(map[string]*account)}
}

// Add registers a staff account and returns its user
func (a *Accounts) Add(username, password string, superuser bool) (models.User, error) {
	if username == "" || password == "" {
		return models.User{}, errors.New("username and password are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	key := strings.ToLower(username)
	if _, exists := a.accounts[key]; exists {
		return models.User{}, fmt.Errorf("account %q already exists", username)
	}

	user := models.User{
		ID:          a.nextID,
		Username:    username,
		FullName:    username,
		IsStaff:     true,
		IsSuperuser: superuser,
		IsActive:    true,
		DateJoined:  time.Now().UTC(),
	}
	a.nextID++
	a.accounts[key] = &account{user: user, passwordHash: hash}
	return user, nil
}

// Authenticate checks the credentials and records the login time
func (a *Accounts) Authenticate(_ context.Context, username, password string) (models.User, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	acc, ok := a.accounts[strings.ToLower(username)]
	if !ok || !acc.user.IsActive {
		return models.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(acc.passwordHash, []byte(password)); err != nil {
		return models.User{}, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	acc.user.LastLogin = &now
	return acc.user, nil
}

// Lookup returns the account with username
func (a *Accounts) Lookup(_ context.Context, username string) (models.User, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	acc, ok := a.accounts[strings.ToLower(username)]
	if !ok {
		return models.User{}, fmt.Errorf("account %q: %w", username, ErrNotFound)
	}
	return acc.user, nil
}
