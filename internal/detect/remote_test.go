package detect

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/affilifind/backend/internal/domain"
	"github.com/affilifind/backend/internal/extract"
)

func testIntel() *domain.RemoteIntel {
	return &domain.RemoteIntel{
		Product:   domain.Product{Description: "Hand built widget"},
		Selectors: domain.LocatorTable{domain.FieldDescription: {".pdp-copy"}},
	}
}

func TestRemoteFallback_SharesInFlightCalls(t *testing.T) {
	source := newMockIntelSource(testIntel())
	source.release = make(chan struct{})
	remote := NewRemoteFallback(source, NewSelectorStore(nil), 0)
	page := mustPage(t, "https://shop.example/p/widget?ref=a", insufficientHTML)

	results := make([]*domain.RemoteIntel, 5)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = remote.Fetch(context.Background(), page, []string{domain.FieldDescription})
		}(i)
	}

	<-source.started
	close(source.release)
	wg.Wait()

	assert.Equal(t, 1, source.Calls())
	for _, result := range results {
		require.NotNil(t, result)
		assert.Same(t, results[0], result)
	}
}

func TestRemoteFallback_CachesPerPageKey(t *testing.T) {
	source := newMockIntelSource(testIntel())
	remote := NewRemoteFallback(source, NewSelectorStore(nil), 0)
	ctx := context.Background()

	first := remote.Fetch(ctx, mustPage(t, "https://shop.example/p/widget?ref=a", insufficientHTML), nil)
	second := remote.Fetch(ctx, mustPage(t, "https://shop.example/p/widget/#reviews", insufficientHTML), nil)
	other := remote.Fetch(ctx, mustPage(t, "https://shop.example/p/gadget", insufficientHTML), nil)

	require.NotNil(t, first)
	assert.Same(t, first, second)
	assert.NotNil(t, other)
	assert.Equal(t, 2, source.Calls())
}

func TestRemoteFallback_ErrorsAreAbsorbedAndNotCached(t *testing.T) {
	source := newMockIntelSource(nil)
	source.err = errors.New("service unavailable")
	store := NewSelectorStore(nil)
	remote := NewRemoteFallback(source, store, 0)
	page := mustPage(t, "https://shop.example/p/widget", insufficientHTML)

	assert.Nil(t, remote.Fetch(context.Background(), page, nil))
	assert.Nil(t, remote.Fetch(context.Background(), page, nil))
	assert.Equal(t, 2, source.Calls())
	assert.Empty(t, store.Learned())
}

func TestRemoteFallback_ResetClearsCache(t *testing.T) {
	source := newMockIntelSource(testIntel())
	remote := NewRemoteFallback(source, NewSelectorStore(nil), 0)
	page := mustPage(t, "https://shop.example/p/widget", insufficientHTML)

	remote.Fetch(context.Background(), page, nil)
	remote.Reset()
	remote.Fetch(context.Background(), page, nil)

	assert.Equal(t, 2, source.Calls())
}

func TestRemoteFallback_DiscardsAnswerAfterReset(t *testing.T) {
	source := newMockIntelSource(testIntel())
	source.release = make(chan struct{})
	store := NewSelectorStore(nil)
	remote := NewRemoteFallback(source, store, 0)
	page := mustPage(t, "https://shop.example/p/widget", insufficientHTML)

	done := make(chan *domain.RemoteIntel)
	go func() {
		done <- remote.Fetch(context.Background(), page, nil)
	}()

	<-source.started
	remote.Reset()
	close(source.release)

	assert.Nil(t, <-done)
	assert.Empty(t, store.Learned())

	// the stale answer must not have been cached either
	source.release = nil
	assert.NotNil(t, remote.Fetch(context.Background(), page, nil))
	assert.Equal(t, 2, source.Calls())
}

func TestRemoteFallback_SendsSnapshot(t *testing.T) {
	source := newMockIntelSource(testIntel())
	remote := NewRemoteFallback(source, NewSelectorStore(nil), 64)
	page := mustPage(t, "https://shop.example/p/widget", `<html><body><main>`+strings.Repeat("x", 500)+`</main></body></html>`)

	remote.Fetch(context.Background(), page, []string{domain.FieldTitle, domain.FieldDescription})

	require.Len(t, source.requests, 1)
	req := source.requests[0]
	assert.Equal(t, "https://shop.example/p/widget", req.URL)
	assert.Equal(t, []string{domain.FieldTitle, domain.FieldDescription}, req.MissingFields)
	assert.Contains(t, req.DOM, extract.TruncationMarker)
}
