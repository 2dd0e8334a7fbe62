package devtools

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vango-dev/observer/pkg/observer"
)

func newTestServer(t *testing.T, opts Options) (*Server, *httptest.Server) {
	t.Helper()
	s := New(opts)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		s.Hub().Close()
		ts.Close()
	})
	return s, ts
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestHealthz(t *testing.T) {
	_, ts := newTestServer(t, Options{})

	code, body := get(t, ts.URL+"/healthz")
	if code != http.StatusOK || body != "OK" {
		t.Errorf("healthz = %d %q", code, body)
	}
}

func TestMetricsRoute(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "devtools_test_total", Help: "test"})
	reg.MustRegister(c)
	c.Inc()

	_, ts := newTestServer(t, Options{Gatherer: reg})

	code, body := get(t, ts.URL+"/metrics")
	if code != http.StatusOK {
		t.Fatalf("metrics status = %d", code)
	}
	if !strings.Contains(body, "devtools_test_total 1") {
		t.Errorf("metrics body missing counter:\n%s", body)
	}
}

func TestSnapshotRoute(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		_, ts := newTestServer(t, Options{})
		if code, _ := get(t, ts.URL+"/snapshot"); code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", code)
		}
	})

	t.Run("ok", func(t *testing.T) {
		_, ts := newTestServer(t, Options{
			Snapshot: func() ([]byte, error) { return []byte(`{"a":1}`), nil },
		})
		resp, err := http.Get(ts.URL + "/snapshot")
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusOK || string(body) != `{"a":1}` {
			t.Errorf("snapshot = %d %q", resp.StatusCode, body)
		}
		if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
	})

	t.Run("error", func(t *testing.T) {
		_, ts := newTestServer(t, Options{
			Snapshot: func() ([]byte, error) { return nil, errors.New("boom") },
		})
		if code, _ := get(t, ts.URL+"/snapshot"); code != http.StatusInternalServerError {
			t.Errorf("status = %d, want 500", code)
		}
	})
}

func dial(t *testing.T, s *Server, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	deadline := time.Now().Add(2 * time.Second)
	for s.Hub().ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		t.Fatalf("unmarshal %s: %v", data, err)
	}
	return ev
}

func TestEventsStreamHookCallbacks(t *testing.T) {
	s, ts := newTestServer(t, Options{})
	conn := dial(t, s, ts)

	observer.SetHooks(s.Hub())
	defer observer.SetHooks(nil)

	observer.Set(nil, "k", 1)
	ev := readEvent(t, conn)
	if ev.Type != EventWarning || ev.Code != "W001" || ev.Message == "" {
		t.Errorf("warning event = %+v", ev)
	}

	arr := observer.NewArray()
	observer.Observe(arr, false)
	ev = readEvent(t, conn)
	if ev.Type != EventObserver || ev.Kind != "array" {
		t.Errorf("observer event = %+v", ev)
	}

	arr.Push(1)
	ev = readEvent(t, conn)
	if ev.Type != EventNotify || ev.Dep != observer.ObserverOf(arr).Dep().ID() {
		t.Errorf("notify event = %+v", ev)
	}
	if ev.Time.IsZero() {
		t.Error("event time should be set")
	}
}

func TestHubDropsWhenFull(t *testing.T) {
	h := &Hub{
		clients: make(map[*websocket.Conn]bool),
		queue:   make(chan Event, 1),
		done:    make(chan struct{}),
	}
	h.Publish(Event{Type: EventNotify})
	h.Publish(Event{Type: EventNotify})
	if h.Dropped() != 1 {
		t.Errorf("Dropped() = %d, want 1", h.Dropped())
	}

	h.Close()
	h.Publish(Event{Type: EventNotify})
}

func TestListenAndServeShutdown(t *testing.T) {
	s := New(Options{Address: "127.0.0.1:0"})
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- s.ListenAndServe(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("ListenAndServe returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
