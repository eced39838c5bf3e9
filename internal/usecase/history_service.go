package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/affilifind/backend/internal/domain"
)

const historyKey = "affilifind:dealHistory"

// HistoryService is the bounded ledger of applied deals, newest first
type HistoryService struct {
	store domain.KeyValueStore
	mu    sync.Mutex

	now   func() time.Time
	newID func() string
}

// NewHistoryService creates a ledger on top of store
func NewHistoryService(store domain.KeyValueStore) *HistoryService {
	return &HistoryService{
		store: store,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Append records a deal and returns the stored entry. The list is capped at
// domain.MaxHistoryEntries; the oldest entries fall off.
func (s *HistoryService) Append(ctx context.Context, record *domain.DealRecord) (*domain.DealHistoryEntry, error) {
	if record == nil {
		return nil, fmt.Errorf("%w: deal record is required", domain.ErrInvalidRequest)
	}

	entry := domain.DealHistoryEntry{
		ID:           s.newID(),
		AddedAt:      s.now().UnixMilli(),
		SavingsValue: domain.ComputeSavings(record.Product.Price, record.Deal.DiscountPercent),
		Product:      record.Product,
		Deal:         record.Deal,
		Source:       record.Source,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.store.Update(ctx, historyKey, func(old []byte) ([]byte, error) {
		current := decodeHistory(old)
		next := make([]domain.DealHistoryEntry, 0, len(current)+1)
		next = append(next, entry)
		next = append(next, current...)
		if len(next) > domain.MaxHistoryEntries {
			next = next[:domain.MaxHistoryEntries]
		}
		return json.Marshal(next)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("deal recorded", "id", entry.ID, "merchant", entry.Deal.Merchant)
	return &entry, nil
}

// List returns the ledger in stored order
func (s *HistoryService) List(ctx context.Context) ([]domain.DealHistoryEntry, error) {
	data, err := s.store.Get(ctx, historyKey)
	if errors.Is(err, domain.ErrNotFound) {
		return []domain.DealHistoryEntry{}, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeHistory(data), nil
}

// decodeHistory treats missing or malformed data as an empty ledger
func decodeHistory(data []byte) []domain.DealHistoryEntry {
	entries := []domain.DealHistoryEntry{}
	if len(data) == 0 {
		return entries
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		slog.Warn("discarding malformed deal history", "err", err)
		return []domain.DealHistoryEntry{}
	}
	return entries
}
