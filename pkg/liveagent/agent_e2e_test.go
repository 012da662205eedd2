package liveagent_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bft-labs/liveagent/internal/adapters/memory"
	"github.com/bft-labs/liveagent/internal/dom"
	"github.com/bft-labs/liveagent/pkg/liveagent"
)

const waitTimeout = 3 * time.Second

// devServer serves a versioned page and the live channel, like a
// development reload server.
type devServer struct {
	*httptest.Server

	mu      sync.Mutex
	version string
	conns   map[*websocket.Conn]struct{}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func newDevServer(t *testing.T) *devServer {
	t.Helper()
	s := &devServer{
		version: "v1",
		conns:   make(map[*websocket.Conn]struct{}),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

func (s *devServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/live-server-ws" {
		s.serveChannel(w, r)
		return
	}
	switch r.URL.Path {
	case "/style.css", "/app.js":
		_, _ = w.Write([]byte("/* asset */"))
		return
	case "/":
	default:
		http.NotFound(w, r)
		return
	}

	s.mu.Lock()
	version := s.version
	s.mu.Unlock()

	marker := ""
	if r.URL.RawQuery == "reload" {
		marker = `<meta name="live-server" content="reload">`
	}
	fmt.Fprintf(w, `<!DOCTYPE html><html><head>%s<link rel="stylesheet" href="/style.css"></head>`+
		`<body><main id="content" data-preserve-scroll>%s</main><script src="/app.js"></script></body></html>`,
		marker, version)
}

func (s *devServer) serveChannel(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	_ = conn.Close()
}

func (s *devServer) setVersion(v string) {
	s.mu.Lock()
	s.version = v
	s.mu.Unlock()
}

func (s *devServer) broadcast(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(msg))
	}
}

func (s *devServer) dropAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		_ = conn.Close()
	}
}

// recorder implements liveagent.EventHandler with channels.
type recorder struct {
	liveagent.BaseEventHandler

	connects chan liveagent.ConnectEvent
	reloads  chan liveagent.ReloadEvent

	mu     sync.Mutex
	states []liveagent.StateChangeEvent
}

func newRecorder() *recorder {
	return &recorder{
		connects: make(chan liveagent.ConnectEvent, 16),
		reloads:  make(chan liveagent.ReloadEvent, 16),
	}
}

func (r *recorder) OnConnect(e liveagent.ConnectEvent) { r.connects <- e }
func (r *recorder) OnReload(e liveagent.ReloadEvent)   { r.reloads <- e }

func (r *recorder) OnStateChange(e liveagent.StateChangeEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, e)
}

func (r *recorder) States() []liveagent.StateChangeEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]liveagent.StateChangeEvent{}, r.states...)
}

func await[T any](t *testing.T, ch <-chan T, what string) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(waitTimeout):
		t.Fatalf("timed out waiting for %s", what)
	}
	var zero T
	return zero
}

func testConfig(url string) liveagent.Config {
	return liveagent.Config{
		PageURL:        url + "/",
		ReconnectDelay: 20 * time.Millisecond,
		RetryDelay:     10 * time.Millisecond,
		HTTPTimeout:    time.Second,
	}
}

func contentText(t *testing.T, page liveagent.Page) string {
	t.Helper()
	el := dom.ElementByID(page.Document(), "content")
	if el == nil || el.FirstChild == nil {
		return ""
	}
	return el.FirstChild.Data
}

func TestAgent_SoftReloadOverLiveChannel(t *testing.T) {
	server := newDevServer(t)
	rec := newRecorder()

	agent, err := liveagent.New(testConfig(server.URL), liveagent.WithEventHandler(rec))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := agent.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer agent.Stop()

	if e := await(t, rec.connects, "first connect"); e.Reconnect {
		t.Error("first connect reported as reconnect")
	}
	if agent.Status() != liveagent.StateRunning {
		t.Errorf("Status() = %v, want Running", agent.Status())
	}

	page := agent.Page()
	if got := contentText(t, page); got != "v1" {
		t.Fatalf("initial content = %q, want v1", got)
	}
	page.ScrollWindowTo(0, 480)
	page.SetElementScroll(dom.ElementByID(page.Document(), "content"), 0, 75)

	server.setVersion("v2")
	server.broadcast("reload")

	e := await(t, rec.reloads, "reload")
	if e.Mode != liveagent.ModeSoft || e.Attempts != 1 {
		t.Errorf("reload event = %+v, want soft after 1 attempt", e)
	}
	if got := contentText(t, page); got != "v2" {
		t.Errorf("content after reload = %q, want v2", got)
	}
	if !dom.HasReloadMarker(page.Document()) {
		t.Error("committed document lost the probe's marker")
	}
	if _, y := page.WindowScroll(); y != 480 {
		t.Errorf("window y = %v, want 480", y)
	}
	if _, y := page.ElementScroll(dom.ElementByID(page.Document(), "content")); y != 75 {
		t.Errorf("#content y = %v, want 75", y)
	}

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(buf.String(), "v2") {
		t.Errorf("Render() = %q", buf.String())
	}
}

func TestAgent_ReloadsAfterReconnect(t *testing.T) {
	server := newDevServer(t)
	rec := newRecorder()

	agent, err := liveagent.New(testConfig(server.URL), liveagent.WithEventHandler(rec))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := agent.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer agent.Stop()

	await(t, rec.connects, "first connect")
	server.setVersion("rebuilt")
	server.dropAll()

	if e := await(t, rec.connects, "reconnect"); !e.Reconnect {
		t.Error("second connect not reported as reconnect")
	}
	await(t, rec.reloads, "reload after reconnect")
	if got := contentText(t, agent.Page()); got != "rebuilt" {
		t.Errorf("content = %q, want rebuilt", got)
	}
}

func TestAgent_ManualReloadAndStop(t *testing.T) {
	server := newDevServer(t)
	rec := newRecorder()

	agent, err := liveagent.New(testConfig(server.URL),
		liveagent.WithEventHandler(rec),
		liveagent.WithSessionStore(memory.NewSessionStore()),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if agent.Reload() {
		t.Error("Reload() before Start started a cycle")
	}
	if err := agent.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := agent.Start(context.Background()); !errors.Is(err, liveagent.ErrAlreadyRunning) {
		t.Errorf("second Start() error = %v, want ErrAlreadyRunning", err)
	}

	await(t, rec.connects, "connect")
	server.setVersion("manual")
	agent.Reload()
	await(t, rec.reloads, "manual reload")

	if err := agent.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if agent.Status() != liveagent.StateStopped {
		t.Errorf("Status() = %v, want Stopped", agent.Status())
	}
	if err := agent.Stop(); !errors.Is(err, liveagent.ErrNotRunning) {
		t.Errorf("second Stop() error = %v, want ErrNotRunning", err)
	}

	states := rec.States()
	want := []liveagent.State{liveagent.StateStarting, liveagent.StateRunning, liveagent.StateStopping, liveagent.StateStopped}
	if len(states) != len(want) {
		t.Fatalf("state changes = %+v, want %v", states, want)
	}
	for i, s := range states {
		if s.Current != want[i] {
			t.Errorf("state change %d = %v, want %v", i, s.Current, want[i])
		}
	}
}

func TestAgent_StartFailsWhenPageUnreachable(t *testing.T) {
	server := newDevServer(t)
	url := server.URL
	server.Close()

	agent, err := liveagent.New(testConfig(url))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := agent.Start(context.Background()); err == nil {
		t.Fatal("Start() succeeded with the page server down")
	}
	if agent.Status() != liveagent.StateCrashed {
		t.Errorf("Status() = %v, want Crashed", agent.Status())
	}
}

func TestAgent_FileStorage(t *testing.T) {
	server := newDevServer(t)
	rec := newRecorder()
	cfg := testConfig(server.URL)
	cfg.Storage = liveagent.StorageFile
	cfg.StateDir = t.TempDir()

	agent, err := liveagent.New(cfg, liveagent.WithEventHandler(rec))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := agent.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	agent.Page().ScrollWindowTo(0, 64)
	agent.Reload()
	await(t, rec.reloads, "reload")

	if _, y := agent.Page().WindowScroll(); y != 64 {
		t.Errorf("window y = %v, want 64", y)
	}
	if err := agent.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
}
