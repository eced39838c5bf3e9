package page

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const widgetPage = `<html><head><link rel="canonical" href="https://shop.example/p/widget"></head>
<body><h1>Acme Widget</h1></body></html>`

const widgetPageRepriced = `<html><head><link rel="canonical" href="https://shop.example/p/widget"></head>
<body><h1>Acme Widget</h1><span class="price">$9.99</span></body></html>`

const gadgetPage = `<html><head><link rel="canonical" href="https://shop.example/p/gadget"></head>
<body><h1>Acme Gadget</h1></body></html>`

// recordingObserver collects notifications
type recordingObserver struct {
	mu          sync.Mutex
	mutations   int
	navigations []string
}

func (r *recordingObserver) NotifyMutation() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mutations++
}

func (r *recordingObserver) NotifyNavigation(url string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.navigations = append(r.navigations, url)
}

func (r *recordingObserver) counts() (int, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mutations, append([]string(nil), r.navigations...)
}

func TestTracker_Observe(t *testing.T) {
	var tr tracker

	assert.Equal(t, changeNone, tr.observe("https://a.example/1", []byte("v1")))
	assert.Equal(t, changeNone, tr.observe("https://a.example/1", []byte("v1")))
	assert.Equal(t, changeMutation, tr.observe("https://a.example/1", []byte("v2")))
	assert.Equal(t, changeNavigation, tr.observe("https://a.example/2", []byte("v2")))
}

func TestFileSource_Load(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page.html")
	require.NoError(t, os.WriteFile(path, []byte(widgetPage), 0o644))

	source, err := NewFileSource(path, "")
	require.NoError(t, err)

	page, err := source.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "https://shop.example/p/widget", page.URL)
	assert.Equal(t, "Acme Widget", page.Doc.Find("h1").Text())
}

func TestFileSource_LoadWithoutCanonical(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.html")
	require.NoError(t, os.WriteFile(path, []byte(`<html><body><h1>x</h1></body></html>`), 0o644))

	withBase, err := NewFileSource(path, "https://shop.example/p/1")
	require.NoError(t, err)
	page, err := withBase.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "https://shop.example/p/1", page.URL)

	withoutBase, err := NewFileSource(path, "")
	require.NoError(t, err)
	page, err = withoutBase.Load(context.Background())
	require.NoError(t, err)
	assert.Contains(t, page.URL, "file://")
}

func TestFileSource_LoadMissingFile(t *testing.T) {
	source, err := NewFileSource(filepath.Join(t.TempDir(), "missing.html"), "")
	require.NoError(t, err)

	_, err = source.Load(context.Background())
	assert.Error(t, err)
}

func TestFileSource_Watch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.html")
	require.NoError(t, os.WriteFile(path, []byte(widgetPage), 0o644))
	source, err := NewFileSource(path, "")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	obs := &recordingObserver{}
	done := make(chan error, 1)
	go func() { done <- source.Watch(ctx, obs) }()

	// give the watcher time to register
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte(widgetPageRepriced), 0o644))
	assert.Eventually(t, func() bool {
		mutations, _ := obs.counts()
		return mutations >= 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte(gadgetPage), 0o644))
	assert.Eventually(t, func() bool {
		_, navigations := obs.counts()
		return len(navigations) == 1 && navigations[0] == "https://shop.example/p/gadget"
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}

func TestHTTPSource_LoadFollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusFound)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><h1>Moved</h1></body></html>`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	page, err := NewHTTPSource(server.URL + "/old").Load(context.Background())

	require.NoError(t, err)
	assert.Equal(t, server.URL+"/new", page.URL)
	assert.Equal(t, "Moved", page.Doc.Find("h1").Text())
}

func TestHTTPSource_LoadError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := NewHTTPSource(server.URL).Load(context.Background())
	assert.ErrorContains(t, err, "status 503")
}

func TestHTTPSource_Poll(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch hits.Add(1) {
		case 1:
			w.Write([]byte(widgetPage))
		case 2:
			w.Write([]byte(widgetPageRepriced))
		default:
			w.Write([]byte(gadgetPage))
		}
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	obs := &recordingObserver{}
	go NewHTTPSource(server.URL).Poll(ctx, 10*time.Millisecond, obs)

	assert.Eventually(t, func() bool {
		mutations, navigations := obs.counts()
		return mutations == 1 && len(navigations) == 1
	}, 2*time.Second, 10*time.Millisecond)

	_, navigations := obs.counts()
	assert.Equal(t, "https://shop.example/p/gadget", navigations[0])
}
