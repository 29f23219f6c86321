package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"portal-client/internal/domain"

	"golang.org/x/crypto/bcrypt"
)

// MemoryUsers is an in-memory account store with bcrypt password hashes.
// Implements domain.UserStore.
type MemoryUsers struct {
	mu     sync.RWMutex
	byID   map[int]*domain.Account
	nextID int
	cost   int
	now    func() time.Time
}

// NewMemoryUsers creates an empty store. A zero cost uses bcrypt.DefaultCost.
func NewMemoryUsers(cost int) *MemoryUsers {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &MemoryUsers{
		byID:   make(map[int]*domain.Account),
		nextID: 1,
		cost:   cost,
		now:    time.Now,
	}
}

// Create adds an account. Emails are unique case-insensitively.
func (s *MemoryUsers) Create(_ context.Context, email, password string) (*domain.Account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findLocked(email) != nil {
		return nil, domain.ErrEmailTaken
	}
	acc := &domain.Account{
		ID:           s.nextID,
		Email:        strings.TrimSpace(email),
		PasswordHash: hash,
		CreatedAt:    s.now(),
	}
	s.byID[acc.ID] = acc
	s.nextID++
	return clone(acc), nil
}

// Authenticate returns the account when email and password match.
func (s *MemoryUsers) Authenticate(_ context.Context, email, password string) (*domain.Account, error) {
	s.mu.RLock()
	acc := s.findLocked(email)
	s.mu.RUnlock()

	if acc == nil {
		return nil, domain.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword(acc.PasswordHash, []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return clone(acc), nil
}

// Get returns the account with id.
func (s *MemoryUsers) Get(_ context.Context, id int) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return clone(acc), nil
}

// GetByEmail returns the account registered under email.
func (s *MemoryUsers) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc := s.findLocked(email)
	if acc == nil {
		return nil, domain.ErrUserNotFound
	}
	return clone(acc), nil
}

// Update changes the non-nil name fields.
func (s *MemoryUsers) Update(_ context.Context, id int, firstName, lastName *string) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if firstName != nil {
		acc.FirstName = strings.TrimSpace(*firstName)
	}
	if lastName != nil {
		acc.LastName = strings.TrimSpace(*lastName)
	}
	return clone(acc), nil
}

// SetPassword replaces the password hash.
func (s *MemoryUsers) SetPassword(_ context.Context, id int, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	acc.PasswordHash = hash
	return nil
}

// CheckPassword reports whether password matches the stored hash.
func (s *MemoryUsers) CheckPassword(_ context.Context, id int, password string) bool {
	s.mu.RLock()
	acc, ok := s.byID[id]
	s.mu.RUnlock()

	if !ok {
		return false
	}
	return bcrypt.CompareHashAndPassword(acc.PasswordHash, []byte(password)) == nil
}

// Delete removes the account.
func (s *MemoryUsers) Delete(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(s.byID, id)
	return nil
}

// Len returns the number of accounts.
func (s *MemoryUsers) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

func (s *MemoryUsers) findLocked(email string) *domain.Account {
	email = strings.TrimSpace(email)
	for _, acc := range s.byID {
		if strings.EqualFold(acc.Email, email) {
			return acc
		}
	}
	return nil
}

func clone(a *domain.Account) *domain.Account {
	c := *a
	c.PasswordHash = append([]byte(nil), a.PasswordHash...)
	return &c
}
