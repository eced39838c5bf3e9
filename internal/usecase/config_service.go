package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/affilifind/backend/internal/domain"
)

const configKey = "affilifind:config"

// ConfigService owns the persisted extension configuration
type ConfigService struct {
	store    domain.KeyValueStore
	defaults domain.ExtensionConfig
}

// NewConfigService creates a config service with the given defaults
func NewConfigService(store domain.KeyValueStore, defaults domain.ExtensionConfig) *ConfigService {
	return &ConfigService{store: store, defaults: defaults}
}

// EnsureDefaults writes defaults for every key that was never stored.
// Stored values win, including an explicit autoInject=false.
func (s *ConfigService) EnsureDefaults(ctx context.Context) error {
	return s.store.Update(ctx, configKey, func(old []byte) ([]byte, error) {
		return json.Marshal(s.decode(old))
	})
}

// Config returns the current configuration
func (s *ConfigService) Config(ctx context.Context) (*domain.ExtensionConfig, error) {
	data, err := s.store.Get(ctx, configKey)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	cfg := s.decode(data)
	return &cfg, nil
}

// Set applies a partial update and returns the new configuration
func (s *ConfigService) Set(ctx context.Context, update domain.ConfigUpdate) (*domain.ExtensionConfig, error) {
	var next domain.ExtensionConfig
	err := s.store.Update(ctx, configKey, func(old []byte) ([]byte, error) {
		next = update.Apply(s.decode(old))
		return json.Marshal(next)
	})
	if err != nil {
		return nil, err
	}
	slog.Info("extension config updated", "api_base", next.APIBase, "auto_inject", next.AutoInject)
	return &next, nil
}

// decode layers stored JSON over the defaults; absent keys keep their default
func (s *ConfigService) decode(data []byte) domain.ExtensionConfig {
	cfg := s.defaults
	if len(data) == 0 {
		return cfg
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		slog.Warn("discarding malformed extension config", "err", err)
		return s.defaults
	}
	return cfg
}
