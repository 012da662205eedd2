package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"
	"golang.org/x/net/html"

	"github.com/bft-labs/liveagent/internal/adapters/htmlpage"
	"github.com/bft-labs/liveagent/internal/adapters/memory"
	"github.com/bft-labs/liveagent/internal/dom"
	"github.com/bft-labs/liveagent/internal/domain"
	"github.com/bft-labs/liveagent/internal/scroll"
)

const (
	liveDoc = `<html><head><link rel="stylesheet" href="/style.css"><script src="/app.js"></script></head>` +
		`<body><div id="log" data-preserve-scroll>v1</div></body></html>`
	markedDoc = `<html><head><meta name="live-server" content="reload"></head>` +
		`<body><div id="log" data-preserve-scroll>v2</div></body></html>`
	notFoundDoc = `<html><head><title>404</title></head><body>not found</body></html>`
)

func mustParse(src string) *html.Node {
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		panic(err)
	}
	return doc
}

// fakeProber answers probes through respond, called with the 1-based
// probe number.
type fakeProber struct {
	mu       sync.Mutex
	probes   int
	preloads [][]string
	urls     []string
	respond  func(n int) (*html.Node, error)
}

func (p *fakeProber) Preload(ctx context.Context, urls []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.preloads = append(p.preloads, urls)
}

func (p *fakeProber) Probe(ctx context.Context, pageURL string) (*html.Node, error) {
	p.mu.Lock()
	p.probes++
	n := p.probes
	p.urls = append(p.urls, pageURL)
	p.mu.Unlock()
	return p.respond(n)
}

func (p *fakeProber) Probes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.probes
}

type reloadRecord struct {
	mode     domain.ReloadMode
	attempts int
}

// recordingEmitter implements ReloadEventEmitter.
type recordingEmitter struct {
	mu       sync.Mutex
	reloads  []reloadRecord
	rejected []error
}

func (e *recordingEmitter) OnProbeRejected(attempt int, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rejected = append(e.rejected, err)
}

func (e *recordingEmitter) OnReload(mode domain.ReloadMode, attempts int, duration time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reloads = append(e.reloads, reloadRecord{mode, attempts})
}

func (e *recordingEmitter) Reloads() []reloadRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]reloadRecord{}, e.reloads...)
}

func (e *recordingEmitter) Rejected() []error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]error{}, e.rejected...)
}

type reloaderFixture struct {
	page     *htmlpage.Page
	prober   *fakeProber
	emitter  *recordingEmitter
	reloader *Reloader
}

func newReloaderFixture(t *testing.T, mode domain.ReloadMode, respond func(n int) (*html.Node, error)) *reloaderFixture {
	t.Helper()
	page, err := htmlpage.Parse("http://localhost:8080/docs/index.html?tab=2#top", liveDoc, nil)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	f := &reloaderFixture{
		page:    page,
		prober:  &fakeProber{respond: respond},
		emitter: &recordingEmitter{},
	}
	keeper := scroll.NewKeeper(page, memory.NewSessionStore(), mockLogger{})
	f.reloader = NewReloader(
		ReloaderConfig{Mode: mode, RetryDelay: 5 * time.Millisecond},
		page, f.prober, keeper, mockLogger{}, f.emitter,
	)
	return f
}

func (f *reloaderFixture) bodyText() string {
	el := dom.ElementByID(f.page.Document(), "log")
	if el == nil || el.FirstChild == nil {
		return ""
	}
	return el.FirstChild.Data
}

func marked(int) (*html.Node, error) { return mustParse(markedDoc), nil }

func TestReloader_SoftCommit(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newReloaderFixture(t, domain.ModeSoft, marked)
	if !f.reloader.Request(context.Background()) {
		t.Fatal("Request() on an idle reloader returned false")
	}
	f.reloader.Wait()

	if got := f.bodyText(); got != "v2" {
		t.Errorf("body = %q, want v2", got)
	}
	if f.reloader.State() != domain.CycleIdle {
		t.Errorf("state = %v, want Idle", f.reloader.State())
	}
	if got := f.emitter.Reloads(); len(got) != 1 || got[0].attempts != 1 || got[0].mode != domain.ModeSoft {
		t.Errorf("reloads = %+v, want one soft reload after 1 attempt", got)
	}

	f.prober.mu.Lock()
	defer f.prober.mu.Unlock()
	if f.prober.urls[0] != "http://localhost:8080/docs/index.html" {
		t.Errorf("probed %q, want origin and path only", f.prober.urls[0])
	}
	want := []string{"http://localhost:8080/style.css", "http://localhost:8080/app.js"}
	if len(f.prober.preloads) != 1 || strings.Join(f.prober.preloads[0], ",") != strings.Join(want, ",") {
		t.Errorf("preloads = %v, want %v", f.prober.preloads, want)
	}
}

func TestReloader_RetriesUntilMarker(t *testing.T) {
	defer goleak.VerifyNone(t)

	down := errors.New("connection refused")
	f := newReloaderFixture(t, domain.ModeSoft, func(n int) (*html.Node, error) {
		switch n {
		case 1:
			return mustParse(notFoundDoc), nil
		case 2:
			return nil, down
		default:
			return mustParse(markedDoc), nil
		}
	})

	start := time.Now()
	f.reloader.Request(context.Background())
	f.reloader.Wait()

	if elapsed := time.Since(start); elapsed < 10*time.Millisecond {
		t.Errorf("cycle took %v, want at least two retry delays", elapsed)
	}
	rejected := f.emitter.Rejected()
	if len(rejected) != 2 || !errors.Is(rejected[0], domain.ErrMissingMarker) || !errors.Is(rejected[1], down) {
		t.Errorf("rejections = %v, want [missing marker, transport error]", rejected)
	}
	if got := f.emitter.Reloads(); len(got) != 1 || got[0].attempts != 3 {
		t.Errorf("reloads = %+v, want one after 3 attempts", got)
	}
	if got := f.bodyText(); got != "v2" {
		t.Errorf("body = %q, want v2", got)
	}
}

func TestReloader_NeverCommitsWithoutMarker(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newReloaderFixture(t, domain.ModeSoft, func(int) (*html.Node, error) {
		return mustParse(notFoundDoc), nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	f.reloader.Request(ctx)
	time.Sleep(40 * time.Millisecond)
	cancel()
	f.reloader.Wait()

	if got := f.prober.Probes(); got < 2 {
		t.Errorf("probes = %d, want the cycle to keep retrying", got)
	}
	if got := f.bodyText(); got != "v1" {
		t.Errorf("body = %q, want untouched v1", got)
	}
	if len(f.emitter.Reloads()) != 0 {
		t.Error("a probe without the marker committed")
	}
	if f.reloader.State() != domain.CycleIdle {
		t.Errorf("state after cancel = %v, want Idle", f.reloader.State())
	}
}

func TestReloader_CoalescesRequests(t *testing.T) {
	defer goleak.VerifyNone(t)

	gate := make(chan struct{})
	entered := make(chan struct{}, 1)
	f := newReloaderFixture(t, domain.ModeSoft, func(n int) (*html.Node, error) {
		if n == 1 {
			entered <- struct{}{}
			<-gate
		}
		return mustParse(markedDoc), nil
	})
	ctx := context.Background()

	if !f.reloader.Request(ctx) {
		t.Fatal("first Request() returned false")
	}
	<-entered
	for i := 0; i < 5; i++ {
		if f.reloader.Request(ctx) {
			t.Fatalf("Request() %d started a second cycle", i)
		}
	}
	if f.reloader.State() != domain.CycleRunningWithPending {
		t.Errorf("state = %v, want RunningWithPending", f.reloader.State())
	}
	close(gate)
	f.reloader.Wait()

	if got := f.prober.Probes(); got != 2 {
		t.Errorf("probes = %d, want exactly one extra iteration", got)
	}
	if got := f.emitter.Reloads(); len(got) != 1 || got[0].attempts != 2 {
		t.Errorf("reloads = %+v, want one commit on attempt 2", got)
	}
}

func TestReloader_TriggerBeforeCommitBlocksIt(t *testing.T) {
	defer goleak.VerifyNone(t)

	var f *reloaderFixture
	ctx := context.Background()
	f = newReloaderFixture(t, domain.ModeSoft, func(n int) (*html.Node, error) {
		if n == 1 {
			// The probe has loaded with the marker; a trigger lands now.
			f.reloader.Request(ctx)
		}
		return mustParse(markedDoc), nil
	})

	f.reloader.Request(ctx)
	f.reloader.Wait()

	if got := f.prober.Probes(); got != 2 {
		t.Errorf("probes = %d, want 2", got)
	}
	if got := f.emitter.Reloads(); len(got) != 1 || got[0].attempts != 2 {
		t.Errorf("reloads = %+v, want the commit on attempt 2", got)
	}
	if len(f.emitter.Rejected()) != 0 {
		t.Error("a superseded iteration was reported as a rejection")
	}
}

func TestReloader_RestoresScroll(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newReloaderFixture(t, domain.ModeSoft, marked)
	f.page.ScrollWindowTo(12, 900)
	f.page.SetElementScroll(dom.ElementByID(f.page.Document(), "log"), 0, 250)

	f.reloader.Request(context.Background())
	f.reloader.Wait()

	if x, y := f.page.WindowScroll(); x != 12 || y != 900 {
		t.Errorf("WindowScroll() = (%v, %v), want (12, 900)", x, y)
	}
	log := dom.ElementByID(f.page.Document(), "log")
	if x, y := f.page.ElementScroll(log); x != 0 || y != 250 {
		t.Errorf("#log scroll = (%v, %v), want (0, 250)", x, y)
	}
}

func TestReloader_HardMode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(markedDoc))
	}))
	defer server.Close()

	page, err := htmlpage.Parse(server.URL+"/", liveDoc, server.Client())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	prober := &fakeProber{respond: marked}
	emitter := &recordingEmitter{}
	keeper := scroll.NewKeeper(page, memory.NewSessionStore(), mockLogger{})
	r := NewReloader(ReloaderConfig{Mode: domain.ModeHard, RetryDelay: time.Millisecond},
		page, prober, keeper, mockLogger{}, emitter)

	page.ScrollWindowTo(0, 300)
	r.Request(context.Background())
	r.Wait()

	if !dom.HasReloadMarker(page.Document()) {
		t.Error("hard reload did not refetch the page")
	}
	if x, y := page.WindowScroll(); x != 0 || y != 0 {
		t.Errorf("WindowScroll() after hard reload = (%v, %v), want reset", x, y)
	}
	if got := emitter.Reloads(); len(got) != 1 || got[0].mode != domain.ModeHard {
		t.Errorf("reloads = %+v, want one hard reload", got)
	}
}

func TestReloader_RequestOnDoneContext(t *testing.T) {
	f := newReloaderFixture(t, domain.ModeSoft, marked)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if f.reloader.Request(ctx) {
		t.Error("Request() on a done context started a cycle")
	}
	if f.prober.Probes() != 0 {
		t.Error("probe ran on a done context")
	}
}

func TestReloader_CloseRejectsRequests(t *testing.T) {
	defer goleak.VerifyNone(t)
	f := newReloaderFixture(t, domain.ModeSoft, marked)

	f.reloader.Close()
	if f.reloader.Request(context.Background()) {
		t.Error("Request() after Close started a cycle")
	}
	if f.prober.Probes() != 0 {
		t.Error("probe ran after Close")
	}
}

func TestReloader_RequestsRacingCancelAndClose(t *testing.T) {
	defer goleak.VerifyNone(t)

	for i := 0; i < 50; i++ {
		f := newReloaderFixture(t, domain.ModeSoft, marked)
		ctx, cancel := context.WithCancel(context.Background())

		var wg sync.WaitGroup
		for j := 0; j < 4; j++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for k := 0; k < 20; k++ {
					f.reloader.Request(ctx)
				}
			}()
		}
		cancel()
		f.reloader.Close()
		wg.Wait()

		if f.reloader.Request(context.Background()) {
			t.Fatal("Request() after Close started a cycle")
		}
		f.reloader.Wait()
	}
}

func TestPageAddress(t *testing.T) {
	page, err := htmlpage.Parse("https://user@example.test:8443/a/b.html?q=1#frag", liveDoc, nil)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got, want := pageAddress(page.URL()), "https://user@example.test:8443/a/b.html"; got != want {
		t.Errorf("pageAddress() = %q, want %q", got, want)
	}
}
