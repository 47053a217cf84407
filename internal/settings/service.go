package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zaika-foods/zaika-backend/pkg/db"
	"github.com/zaika-foods/zaika-backend/pkg/enums"
	pkgerrors "github.com/zaika-foods/zaika-backend/pkg/errors"
	"github.com/zaika-foods/zaika-backend/pkg/logger"
	"github.com/zaika-foods/zaika-backend/pkg/outbox"
)

// settingsAggregateID is the fixed aggregate id for settings_updated events.
// There is exactly one store, so one aggregate.
var settingsAggregateID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

var knownKeys = map[string]struct{}{
	KeyTaxRatePercent:        {},
	KeyDeliveryCharge:        {},
	KeyFreeDeliveryThreshold: {},
	KeyMinOrderAmount:        {},
	KeyCODEnabled:            {},
	KeyCODCharge:             {},
	KeyCODThreshold:          {},
	KeyCurrencySymbol:        {},
}

type cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	SettingsCacheKey() string
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service reads and mutates the store configuration. Reads go through the
// Redis cache so every cart recompute does not hit Postgres.
type Service struct {
	repo     *Repository
	dbClient *db.Client
	cache    cache
	emitter  eventEmitter
	cacheTTL time.Duration
	logg     *logger.Logger
}

// NewService constructs the settings service.
func NewService(repo *Repository, dbClient *db.Client, c cache, emitter eventEmitter, cacheTTL time.Duration, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("settings repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if cacheTTL <= 0 {
		cacheTTL = 60 * time.Second
	}
	return &Service{
		repo:     repo,
		dbClient: dbClient,
		cache:    c,
		emitter:  emitter,
		cacheTTL: cacheTTL,
		logg:     logg,
	}, nil
}

// Get returns the typed settings, served from cache when fresh.
func (s *Service) Get(ctx context.Context) (Settings, error) {
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, s.cache.SettingsCacheKey()); err == nil && raw != "" {
			var cached Settings
			if jsonErr := json.Unmarshal([]byte(raw), &cached); jsonErr == nil {
				return cached, nil
			}
		}
	}

	rows, err := s.repo.LoadAll(ctx)
	if err != nil {
		return Settings{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load store settings")
	}
	parsed := Parse(rows)

	if s.cache != nil {
		if encoded, jsonErr := json.Marshal(parsed); jsonErr == nil {
			if setErr := s.cache.Set(ctx, s.cache.SettingsCacheKey(), string(encoded), s.cacheTTL); setErr != nil && s.logg != nil {
				s.logg.Warn(ctx, fmt.Sprintf("settings cache write failed: %v", setErr))
			}
		}
	}
	return parsed, nil
}

// Update writes the provided key/value pairs, invalidates the cache and
// queues a settings_updated event. Unknown keys are rejected up front.
func (s *Service) Update(ctx context.Context, actor *outbox.ActorRef, values map[string]string) (Settings, error) {
	if len(values) == 0 {
		return Settings{}, pkgerrors.New(pkgerrors.CodeValidation, "no settings provided")
	}
	for key := range values {
		if _, ok := knownKeys[key]; !ok {
			return Settings{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown setting %q", key))
		}
	}

	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		for key, value := range values {
			if err := txRepo.Upsert(ctx, key, value); err != nil {
				return err
			}
		}
		if s.emitter != nil {
			return s.emitter.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventSettingsUpdated,
				AggregateType: enums.AggregateSettings,
				AggregateID:   settingsAggregateID,
				Actor:         actor,
				Data:          values,
				Version:       1,
			})
		}
		return nil
	})
	if err != nil {
		return Settings{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to update store settings")
	}

	s.Invalidate(ctx)
	return s.Get(ctx)
}

// Invalidate drops the cached settings so the next read hits Postgres.
func (s *Service) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, s.cache.SettingsCacheKey()); err != nil && s.logg != nil {
		s.logg.Warn(ctx, fmt.Sprintf("settings cache invalidation failed: %v", err))
	}
}
