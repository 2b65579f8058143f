package swcache_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/bsankara/koasa/internal/app/system/swcache"
)

// fakeNetwork is a scriptable Fetcher that records every URL it is asked
// for and can fail selectively.
type fakeNetwork struct {
	responses map[string]swcache.Entry
	fail      map[string]bool
	calls     []string
}

func newFakeNetwork() *fakeNetwork {
	return &fakeNetwork{
		responses: make(map[string]swcache.Entry),
		fail:      make(map[string]bool),
	}
}

func (n *fakeNetwork) serve(url, body string) {
	n.responses[url] = swcache.Entry{Status: http.StatusOK, Header: http.Header{}, Body: []byte(body)}
}

func (n *fakeNetwork) fetch(_ context.Context, url string) (swcache.Entry, error) {
	n.calls = append(n.calls, url)
	if n.fail[url] {
		return swcache.Entry{}, errors.New("network unreachable")
	}
	e, ok := n.responses[url]
	if !ok {
		return swcache.Entry{Status: http.StatusNotFound, Header: http.Header{}}, nil
	}
	return e, nil
}

func newPolicy(net *fakeNetwork, storage *swcache.MemoryStorage) *swcache.Policy {
	return &swcache.Policy{
		StaticCache:  "koasa-v1.0.0",
		RuntimeCache: "koasa-runtime",
		RootPage:     "/",
		Precache:     []string{"/", "/static/css/style.css", "/static/js/main.js"},
		Storage:      storage,
		Fetch:        net.fetch,
	}
}

func precacheAll(t *testing.T, net *fakeNetwork) {
	t.Helper()
	net.serve("/", "<html>home</html>")
	net.serve("/static/css/style.css", "body{}")
	net.serve("/static/js/main.js", "let cart=[]")
}

func TestInstall_PopulatesStaticCache(t *testing.T) {
	net := newFakeNetwork()
	precacheAll(t, net)
	storage := swcache.NewMemoryStorage()
	p := newPolicy(net, storage)

	if err := p.Install(context.Background()); err != nil {
		t.Fatalf("Install failed: %v", err)
	}

	for _, url := range p.Precache {
		if _, ok := storage.Open("koasa-v1.0.0").Lookup(url); !ok {
			t.Errorf("precached entry missing: %s", url)
		}
	}
}

func TestInstall_OneFailureAbortsWholePopulation(t *testing.T) {
	net := newFakeNetwork()
	precacheAll(t, net)
	net.fail["/static/js/main.js"] = true
	storage := swcache.NewMemoryStorage()
	p := newPolicy(net, storage)

	if err := p.Install(context.Background()); err == nil {
		t.Fatal("Install should fail when a manifest entry cannot be fetched")
	}

	// Nothing may be committed, not even the entries that did fetch.
	for _, url := range p.Precache {
		if _, ok := storage.Open("koasa-v1.0.0").Lookup(url); ok {
			t.Errorf("partial cache committed: %s", url)
		}
	}
}

func TestInstall_Non200AbortsWholePopulation(t *testing.T) {
	net := newFakeNetwork()
	precacheAll(t, net)
	net.responses["/static/css/style.css"] = swcache.Entry{Status: http.StatusBadGateway, Header: http.Header{}}
	storage := swcache.NewMemoryStorage()
	p := newPolicy(net, storage)

	if err := p.Install(context.Background()); err == nil {
		t.Fatal("Install should fail on a non-200 manifest entry")
	}
	if _, ok := storage.Open("koasa-v1.0.0").Lookup("/"); ok {
		t.Error("partial cache committed")
	}
}

func TestInstallFailure_PreviousVersionKeepsServing(t *testing.T) {
	net := newFakeNetwork()
	precacheAll(t, net)
	storage := swcache.NewMemoryStorage()

	v1 := newPolicy(net, storage)
	if err := v1.Install(context.Background()); err != nil {
		t.Fatalf("v1 Install failed: %v", err)
	}

	// The v2 manifest has an entry the network cannot supply.
	v2 := newPolicy(net, storage)
	v2.StaticCache = "koasa-v2.0.0"
	v2.Precache = append(v2.Precache, "/static/js/new.js")
	net.fail["/static/js/new.js"] = true

	if err := v2.Install(context.Background()); err == nil {
		t.Fatal("v2 Install should fail")
	}

	// v1 assets are still served from cache even with the network down.
	net.fail["/"] = true
	e, err := v1.Serve(context.Background(), "/", true)
	if err != nil {
		t.Fatalf("Serve after failed upgrade: %v", err)
	}
	if string(e.Body) != "<html>home</html>" {
		t.Errorf("served body: got %q", e.Body)
	}
}

func TestActivate_EvictsStaleVersions(t *testing.T) {
	net := newFakeNetwork()
	precacheAll(t, net)
	storage := swcache.NewMemoryStorage()

	storage.Open("koasa-v0.9.0").Store("/", swcache.Entry{Status: 200})
	storage.Open("koasa-runtime").Store("/img.png", swcache.Entry{Status: 200})

	p := newPolicy(net, storage)
	if err := p.Install(context.Background()); err != nil {
		t.Fatalf("Install failed: %v", err)
	}
	p.Activate()

	names := storage.Names()
	want := []string{"koasa-runtime", "koasa-v1.0.0"}
	if len(names) != len(want) {
		t.Fatalf("cache names after Activate: got %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("cache names after Activate: got %v, want %v", names, want)
		}
	}
}

func TestServe_CacheFirst(t *testing.T) {
	net := newFakeNetwork()
	precacheAll(t, net)
	storage := swcache.NewMemoryStorage()
	p := newPolicy(net, storage)
	if err := p.Install(context.Background()); err != nil {
		t.Fatalf("Install failed: %v", err)
	}
	net.calls = nil

	e, err := p.Serve(context.Background(), "/static/css/style.css", false)
	if err != nil {
		t.Fatalf("Serve failed: %v", err)
	}
	if string(e.Body) != "body{}" {
		t.Errorf("body: got %q", e.Body)
	}
	if len(net.calls) != 0 {
		t.Errorf("cache hit must not touch the network, got calls %v", net.calls)
	}
}

func TestServe_MissFetchesAndStoresInRuntimeCache(t *testing.T) {
	net := newFakeNetwork()
	net.serve("/products/7.jpg", "jpegbytes")
	storage := swcache.NewMemoryStorage()
	p := newPolicy(net, storage)

	if _, err := p.Serve(context.Background(), "/products/7.jpg", false); err != nil {
		t.Fatalf("Serve failed: %v", err)
	}
	if _, ok := storage.Open("koasa-runtime").Lookup("/products/7.jpg"); !ok {
		t.Error("runtime cache should hold a copy of the fetched resource")
	}

	// Second request is served from the runtime cache.
	net.calls = nil
	if _, err := p.Serve(context.Background(), "/products/7.jpg", false); err != nil {
		t.Fatalf("Serve failed: %v", err)
	}
	if len(net.calls) != 0 {
		t.Errorf("second request should hit the runtime cache, got calls %v", net.calls)
	}
}

func TestServe_ErrorStatusNotCached(t *testing.T) {
	net := newFakeNetwork()
	storage := swcache.NewMemoryStorage()
	p := newPolicy(net, storage)

	e, err := p.Serve(context.Background(), "/missing.png", false)
	if err != nil {
		t.Fatalf("Serve failed: %v", err)
	}
	if e.Status != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", e.Status)
	}
	if _, ok := storage.Open("koasa-runtime").Lookup("/missing.png"); ok {
		t.Error("non-200 response must not be cached")
	}
}

func TestServe_NetworkFailure_NavigationFallsBackToRoot(t *testing.T) {
	net := newFakeNetwork()
	precacheAll(t, net)
	storage := swcache.NewMemoryStorage()
	p := newPolicy(net, storage)
	if err := p.Install(context.Background()); err != nil {
		t.Fatalf("Install failed: %v", err)
	}

	net.fail["/cart"] = true
	e, err := p.Serve(context.Background(), "/cart", true)
	if err != nil {
		t.Fatalf("navigation fallback failed: %v", err)
	}
	if string(e.Body) != "<html>home</html>" {
		t.Errorf("fallback body: got %q, want cached root page", e.Body)
	}
}

func TestServe_NetworkFailure_NonNavigationPropagates(t *testing.T) {
	net := newFakeNetwork()
	precacheAll(t, net)
	storage := swcache.NewMemoryStorage()
	p := newPolicy(net, storage)
	if err := p.Install(context.Background()); err != nil {
		t.Fatalf("Install failed: %v", err)
	}

	net.fail["/api/extra.json"] = true
	if _, err := p.Serve(context.Background(), "/api/extra.json", false); err == nil {
		t.Error("non-navigation network failure should propagate")
	}
}
