package auth

import (
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// Store resolves an email address to its stored bcrypt password hash.
// Lookups run inside transition guards, so implementations must be
// deterministic and must not perform I/O.
type Store interface {
	PasswordHash(email string) ([]byte, bool)
}

// MemoryStore is an in-memory credential store safe for concurrent use.
type MemoryStore struct {
	mu         sync.RWMutex
	hashes     map[string][]byte
	bcryptCost int
}

// StoreOption configures a MemoryStore during construction.
type StoreOption func(*MemoryStore)

// WithBcryptCost sets the bcrypt cost used when hashing passwords.
func WithBcryptCost(cost int) StoreOption {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		panic(fmt.Sprintf("WithBcryptCost: cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}
	return func(s *MemoryStore) { s.bcryptCost = cost }
}

// NewMemoryStore creates an empty credential store.
func NewMemoryStore(opts ...StoreOption) *MemoryStore {
	s := &MemoryStore{
		hashes:     make(map[string][]byte),
		bcryptCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetPassword hashes the password and stores it under email, replacing any
// previous hash.
func (s *MemoryStore) SetPassword(email, password string) error {
	if email == "" {
		return ErrEmptyEmail
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.hashes[email] = hash

	return nil
}

// PasswordHash returns the stored hash for email.
func (s *MemoryStore) PasswordHash(email string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	hash, ok := s.hashes[email]
	return hash, ok
}
