// Package favorites keeps the set of deals the user marked, persisted as one
// whole collection that is read, modified and written back on every change.
package favorites

import (
	"context"
	"errors"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"

	"sjsage522/legodealworker/internal/models"
	"sjsage522/legodealworker/logger"
	apperrors "sjsage522/legodealworker/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Store persists the full favorites collection
type Store interface {
	Load(ctx context.Context) ([]models.Deal, error)
	Save(ctx context.Context, deals []models.Deal) error
}

// RedisStore keeps the favorites as a JSON array under a single key
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore creates a store on an existing client
func NewRedisStore(client *redis.Client, key string) *RedisStore {
	return &RedisStore{client: client, key: key}
}

// Load returns the stored favorites; a missing key is an empty set
func (s *RedisStore) Load(ctx context.Context) ([]models.Deal, error) {
	raw, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return []models.Deal{}, nil
	}
	if err != nil {
		return nil, apperrors.NewStore(s.key, "failed to read favorites", err)
	}

	var deals []models.Deal
	if err := json.Unmarshal(raw, &deals); err != nil {
		return nil, apperrors.NewStore(s.key, "favorites are not a JSON array", err)
	}
	if deals == nil {
		deals = []models.Deal{}
	}
	return deals, nil
}

// Save replaces the stored favorites
func (s *RedisStore) Save(ctx context.Context, deals []models.Deal) error {
	if deals == nil {
		deals = []models.Deal{}
	}
	raw, err := json.Marshal(deals)
	if err != nil {
		return apperrors.NewStore(s.key, "failed to encode favorites", err)
	}
	if err := s.client.Set(ctx, s.key, raw, 0).Err(); err != nil {
		return apperrors.NewStore(s.key, "failed to write favorites", err)
	}
	return nil
}

// Registry is the favorites set keyed by deal uuid
type Registry struct {
	store Store
	log   *logger.Logger
}

// NewRegistry creates a registry over store
func NewRegistry(store Store) *Registry {
	return &Registry{store: store, log: logger.ForFavorites()}
}

// List returns the favorites in the order they were added
func (r *Registry) List(ctx context.Context) ([]models.Deal, error) {
	return r.store.Load(ctx)
}

// Set returns the favorites indexed by uuid
func (r *Registry) Set(ctx context.Context) (map[string]models.Deal, error) {
	deals, err := r.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	set := make(map[string]models.Deal, len(deals))
	for _, d := range deals {
		set[d.UUID] = d
	}
	return set, nil
}

// Contains reports whether a deal with uuid is a favorite
func (r *Registry) Contains(ctx context.Context, uuid string) (bool, error) {
	set, err := r.Set(ctx)
	if err != nil {
		return false, err
	}
	_, ok := set[uuid]
	return ok, nil
}

// Toggle adds deal when absent and removes it when present. It returns
// whether the deal is a favorite afterwards.
func (r *Registry) Toggle(ctx context.Context, deal models.Deal) (bool, error) {
	if deal.UUID == "" {
		return false, apperrors.NewValidation("favorites", "deal has no uuid")
	}

	current, err := r.store.Load(ctx)
	if err != nil {
		return false, err
	}

	next := make([]models.Deal, 0, len(current)+1)
	removed := false
	for _, d := range current {
		if d.UUID == deal.UUID {
			removed = true
			continue
		}
		next = append(next, d)
	}
	if !removed {
		next = append(next, deal)
	}

	if err := r.store.Save(ctx, next); err != nil {
		return false, err
	}

	r.log.Debug().Str("uuid", deal.UUID).Str("id", deal.ID).Bool("favorite", !removed).Msg("Favorite toggled")
	return !removed, nil
}
