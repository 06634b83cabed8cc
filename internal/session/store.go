package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"storefront-bff/internal/cache"
	"storefront-bff/internal/checkout"
	"storefront-bff/internal/customizer"
	"storefront-bff/internal/models"
)

var ErrInvalidID = errors.New("invalid session id")

// KV is the subset of the cache the store needs.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// Store keeps each visitor's checkout wizard and customizer design. Writes
// to one session are serialized in-process.
type Store struct {
	kv        KV
	ttl       time.Duration
	startCart func() []models.CartItem

	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func NewStore(kv KV, ttl time.Duration, startCart func() []models.CartItem) *Store {
	if startCart == nil {
		startCart = func() []models.CartItem { return nil }
	}
	return &Store{
		kv:        kv,
		ttl:       ttl,
		startCart: startCart,
		locks:     make(map[string]*sessionLock),
	}
}

// NewID returns a fresh session id.
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id looks like an id issued by NewID.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil && len(id) == 36
}

func (s *Store) lock(id string) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sessionLock{}
		s.locks[id] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, id)
		}
		s.mu.Unlock()
	}
}

func wizardKey(id string) string { return "session:" + id + ":checkout" }
func designKey(id string) string { return "session:" + id + ":design" }

func (s *Store) load(ctx context.Context, key string, v any) (bool, error) {
	data, err := s.kv.Get(ctx, key)
	if errors.Is(err, cache.ErrMiss) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

func (s *Store) save(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := s.kv.Set(ctx, key, data, s.ttl); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

// Wizard returns the session's checkout, starting a new one with the
// starter cart when none exists.
func (s *Store) Wizard(ctx context.Context, id string) (*checkout.Wizard, error) {
	if !ValidID(id) {
		return nil, ErrInvalidID
	}
	var w checkout.Wizard
	found, err := s.load(ctx, wizardKey(id), &w)
	if err != nil {
		return nil, err
	}
	if !found {
		return checkout.NewWizard(s.startCart()), nil
	}
	return &w, nil
}

func (s *Store) SaveWizard(ctx context.Context, id string, w *checkout.Wizard) error {
	return s.save(ctx, wizardKey(id), w)
}

// UpdateWizard loads, mutates and saves the session's checkout under the
// session lock. Nothing is saved when fn fails.
func (s *Store) UpdateWizard(ctx context.Context, id string, fn func(w *checkout.Wizard) error) (*checkout.Wizard, error) {
	if !ValidID(id) {
		return nil, ErrInvalidID
	}
	unlock := s.lock(id)
	defer unlock()

	w, err := s.Wizard(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(w); err != nil {
		return w, err
	}
	if err := s.SaveWizard(ctx, id, w); err != nil {
		return nil, err
	}
	return w, nil
}

// ResetWizard drops the session's checkout so the next access starts over.
func (s *Store) ResetWizard(ctx context.Context, id string) error {
	if !ValidID(id) {
		return ErrInvalidID
	}
	unlock := s.lock(id)
	defer unlock()
	return s.kv.Del(ctx, wizardKey(id))
}

// Design returns the session's saved customizer state, or nil when the
// visitor has not customized anything yet.
func (s *Store) Design(ctx context.Context, id string) (*customizer.Design, error) {
	if !ValidID(id) {
		return nil, ErrInvalidID
	}
	var d customizer.Design
	found, err := s.load(ctx, designKey(id), &d)
	if err != nil || !found {
		return nil, err
	}
	return &d, nil
}

func (s *Store) SaveDesign(ctx context.Context, id string, d *customizer.Design) error {
	if !ValidID(id) {
		return ErrInvalidID
	}
	unlock := s.lock(id)
	defer unlock()
	return s.save(ctx, designKey(id), d)
}
