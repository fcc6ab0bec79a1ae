package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/AbdulRehmanZia/rice-quality--checker-app/internal/database"
	"github.com/rs/zerolog/log"
)

const (
	// StorageKey is the key the logged-in user is persisted under.
	StorageKey = "saferice.authUser"

	// DefaultDelay simulates the latency of a real auth backend.
	DefaultDelay = 500 * time.Millisecond
)

// User is the logged-in user. The mock store knows nothing but the email.
type User struct {
	Email string `json:"email"`
}

// Store is a MOCK authentication store. It accepts any credentials after a
// fixed delay and holds at most one user for the whole process. It provides
// no security whatsoever and must not be used to protect real data.
type Store struct {
	kv    database.KeyValueStore
	delay time.Duration

	// writeMu serializes persisting a transition and applying it in memory.
	writeMu sync.Mutex

	mu        sync.RWMutex
	current   *User
	listeners []func(user User, loggedIn bool)
}

type authFunc func(ctx context.Context, email, password string) (User, error)

// Option configures a Store.
type Option func(*Store)

// WithDelay overrides DefaultDelay.
func WithDelay(d time.Duration) Option {
	return func(s *Store) { s.delay = d }
}

// NewStore restores the persisted user from kv. An unreadable or corrupt
// entry is discarded and the store starts logged out.
func NewStore(ctx context.Context, kv database.KeyValueStore, opts ...Option) *Store {
	s := &Store{kv: kv, delay: DefaultDelay}
	for _, opt := range opts {
		opt(s)
	}

	data, err := kv.Get(ctx, StorageKey)
	if errors.Is(err, database.ErrNotFound) {
		return s
	}
	if err == nil {
		var user User
		if err = json.Unmarshal(data, &user); err == nil && user.Email == "" {
			err = errors.New("persisted user has no email")
		}
		if err == nil {
			s.current = &user
			log.Info().Str("email", user.Email).Msg("Restored persisted user")
			return s
		}
	}

	log.Warn().Err(err).Msg("Failed to parse persisted user, clearing it")
	if err := kv.Delete(ctx, StorageKey); err != nil {
		log.Error().Err(err).Msg("Failed to clear persisted user")
	}
	return s
}

// CurrentUser returns the logged-in user, if any.
func (s *Store) CurrentUser() (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return User{}, false
	}
	return *s.current, true
}

// Subscribe registers fn to be called after every login, signup and logout,
// in transition order. fn must not call Login, Signup or Logout.
func (s *Store) Subscribe(fn func(user User, loggedIn bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Login logs email in. The password is ignored.
func (s *Store) Login(ctx context.Context, email, password string) (User, error) {
	return s.authenticate(ctx, "login", email)
}

// Signup behaves exactly like Login: there is no account registry.
func (s *Store) Signup(ctx context.Context, email, password string) (User, error) {
	return s.authenticate(ctx, "signup", email)
}

// Logout forgets the current user. The in-memory state is cleared even when
// the persisted entry could not be removed.
func (s *Store) Logout(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	err := s.kv.Delete(ctx, StorageKey)
	if err != nil {
		err = fmt.Errorf("clear persisted user: %w", err)
	}

	s.mu.Lock()
	previous := s.current
	s.current = nil
	s.mu.Unlock()

	if previous != nil {
		log.Info().Str("email", previous.Email).Msg("User logged out")
	}
	s.notify(User{}, false)
	return err
}

// authenticate never rejects credentials. It only fails when ctx ends during
// the simulated delay or the user cannot be persisted.
func (s *Store) authenticate(ctx context.Context, op, email string) (User, error) {
	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return User{}, ctx.Err()
		case <-timer.C:
		}
	}

	user := User{Email: email}
	data, err := json.Marshal(user)
	if err != nil {
		return User{}, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.kv.Set(ctx, StorageKey, data); err != nil {
		return User{}, fmt.Errorf("persist user: %w", err)
	}

	s.mu.Lock()
	s.current = &user
	s.mu.Unlock()

	log.Info().Str("op", op).Str("email", email).Msg("User logged in")
	s.notify(user, true)
	return user, nil
}

func (s *Store) notify(user User, loggedIn bool) {
	s.mu.RLock()
	listeners := append([]func(User, bool){}, s.listeners...)
	s.mu.RUnlock()

	for _, fn := range listeners {
		fn(user, loggedIn)
	}
}
