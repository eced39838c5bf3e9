package detect

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/andybalholm/cascadia"

	"github.com/affilifind/backend/internal/domain"
	"github.com/affilifind/backend/internal/extract"
)

// SelectorStore holds locators learned during the current navigation
type SelectorStore struct {
	mu      sync.RWMutex
	base    domain.LocatorTable
	learned map[string][]string
}

// NewSelectorStore creates a store on top of the given base table
func NewSelectorStore(base domain.LocatorTable) *SelectorStore {
	if base == nil {
		base = extract.BaseLocators()
	}
	return &SelectorStore{
		base:    base.Clone(),
		learned: make(map[string][]string),
	}
}

// Learn records locators per field. Empty, duplicate and syntactically
// invalid locators are dropped.
func (s *SelectorStore) Learn(locators domain.LocatorTable) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for field, list := range locators {
		for _, locator := range list {
			locator = strings.TrimSpace(locator)
			if locator == "" || contains(s.learned[field], locator) {
				continue
			}
			if _, err := cascadia.Compile(locator); err != nil {
				slog.Debug("dropping invalid learned locator", "field", field, "locator", locator, "err", err)
				continue
			}
			s.learned[field] = append(s.learned[field], locator)
		}
	}
}

// Learned returns a copy of the learned locators
func (s *SelectorStore) Learned() domain.LocatorTable {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.LocatorTable(s.learned).Clone()
}

// Table returns dedup(base ++ learned) for every field
func (s *SelectorStore) Table() domain.LocatorTable {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.MergeLocators(s.base, domain.LocatorTable(s.learned))
}

// Reset drops everything learned for the current navigation
func (s *SelectorStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.learned = make(map[string][]string)
}

func contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}
