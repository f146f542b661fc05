package preview

import (
	"context"
	"encoding/json"
	"image"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Adc-alt/espcam/pkg/adapters/logger"
	"github.com/Adc-alt/espcam/pkg/mjpeg"
	"github.com/Adc-alt/espcam/pkg/ports"
)

var testJPEG = []byte{0xFF, 0xD8, 0x01, 0x02, 0xFF, 0xD9}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s := New(Options{Addr: "127.0.0.1:0", Title: "test"}, logger.NewNoop())
	t.Cleanup(s.stopHub)
	return s
}

func TestServer_Index(t *testing.T) {
	s := newTestServer(t)

	resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `<img src="/stream"`) {
		t.Error("expected page to embed the stream")
	}
	if !strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
		t.Errorf("expected html content type, got %q", resp.Header.Get("Content-Type"))
	}
}

func TestServer_SnapshotBeforeFirstFrame(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/snapshot.jpg", "/mask.jpg"} {
		resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		if err != nil {
			t.Fatalf("%s: request failed: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusServiceUnavailable {
			t.Errorf("%s: expected 503, got %d", path, resp.StatusCode)
		}
	}
}

func TestServer_SnapshotAndMask(t *testing.T) {
	s := newTestServer(t)
	mask := []byte{0xFF, 0xD8, 0x09, 0xFF, 0xD9}
	s.Publish(ports.PublishedFrame{Sequence: 1, JPEG: testJPEG, Mask: mask})

	tests := []struct {
		path     string
		expected []byte
	}{
		{"/snapshot.jpg", testJPEG},
		{"/mask.jpg", mask},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, tt.path, nil))
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				t.Fatalf("expected 200, got %d", resp.StatusCode)
			}
			if ct := resp.Header.Get("Content-Type"); ct != "image/jpeg" {
				t.Errorf("expected image/jpeg, got %q", ct)
			}
			body, _ := io.ReadAll(resp.Body)
			if string(body) != string(tt.expected) {
				t.Errorf("expected %x, got %x", tt.expected, body)
			}
		})
	}
}

func TestServer_Stats(t *testing.T) {
	s := newTestServer(t)
	s.Publish(ports.PublishedFrame{Sequence: 1, JPEG: testJPEG})
	s.Publish(ports.PublishedFrame{
		Sequence:    7,
		TimestampMs: 1400,
		JPEG:        testJPEG,
		Objects:     []image.Rectangle{image.Rect(10, 20, 40, 60)},
	})

	resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var stats Stats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if stats.Sequence != 7 || stats.TimestampMs != 1400 {
		t.Errorf("expected sequence 7 at 1400ms, got %d at %d", stats.Sequence, stats.TimestampMs)
	}
	if stats.Published != 2 {
		t.Errorf("expected 2 published, got %d", stats.Published)
	}
	if len(stats.Objects) != 1 {
		t.Fatalf("expected 1 object, got %d", len(stats.Objects))
	}
	if got := stats.Objects[0]; got != (Box{X: 10, Y: 20, W: 30, H: 40}) {
		t.Errorf("unexpected box: %+v", got)
	}
}

func TestServer_WebSocketRequiresUpgrade(t *testing.T) {
	s := newTestServer(t)

	resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/ws/camera", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusUpgradeRequired {
		t.Errorf("expected 426, got %d", resp.StatusCode)
	}
}

func TestServer_PublishDoesNotBlock(t *testing.T) {
	s := newTestServer(t)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			s.Publish(ports.PublishedFrame{Sequence: i, JPEG: testJPEG})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked")
	}
}

func TestServer_StreamIsReadableAsMJPEG(t *testing.T) {
	s := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer func() {
		shutdownCtx, stop := context.WithTimeout(context.Background(), 2*time.Second)
		defer stop()
		s.Shutdown(shutdownCtx)
	}()

	s.Publish(ports.PublishedFrame{Sequence: 1, JPEG: testJPEG})

	resp, err := http.Get("http://" + s.Addr() + "/stream")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "multipart/x-mixed-replace") {
		t.Errorf("unexpected content type %q", ct)
	}

	// Keep publishing in case the subscriber registered after the first frame.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		ticker := time.NewTicker(20 * time.Millisecond)
		defer ticker.Stop()
		for seq := 2; ; seq++ {
			select {
			case <-stop:
				return
			case <-ticker.C:
				s.Publish(ports.PublishedFrame{Sequence: seq, JPEG: testJPEG})
			}
		}
	}()

	r := mjpeg.NewReader(resp.Body, mjpeg.DefaultOptions())
	frame, err := r.Next()
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	if string(frame) != string(testJPEG) {
		t.Errorf("expected %x, got %x", testJPEG, frame)
	}
}

func TestServer_ViewersReceiveFramesBeforeStart(t *testing.T) {
	s := newTestServer(t)

	subscribed := make(chan *subscriber, 1)
	go func() {
		if sub, ok := s.hub.subscribe("stream", 4); ok {
			subscribed <- sub
		}
		close(subscribed)
	}()

	var sub *subscriber
	select {
	case sub = <-subscribed:
	case <-time.After(2 * time.Second):
		t.Fatal("subscribe blocked before Start")
	}
	if sub == nil {
		t.Fatal("expected subscription to succeed")
	}

	deadline := time.After(2 * time.Second)
	for {
		s.Publish(ports.PublishedFrame{Sequence: 1, JPEG: testJPEG})
		select {
		case data := <-sub.send:
			if string(data) != string(testJPEG) {
				t.Errorf("expected %x, got %x", testJPEG, data)
			}
			return
		case <-time.After(10 * time.Millisecond):
		case <-deadline:
			t.Fatal("no frame delivered")
		}
	}
}

func TestServer_StreamAfterHubStopped(t *testing.T) {
	s := newTestServer(t)
	s.stopHub()
	<-s.hub.done

	resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/stream", nil), 2000)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", resp.StatusCode)
	}
}

func TestServer_StartStopsHubWithContext(t *testing.T) {
	s := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())

	if err := s.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer func() {
		shutdownCtx, stop := context.WithTimeout(context.Background(), 2*time.Second)
		defer stop()
		s.Shutdown(shutdownCtx)
	}()

	cancel()
	select {
	case <-s.hub.done:
	case <-time.After(2 * time.Second):
		t.Fatal("hub still running after the context ended")
	}
}

func TestHub_DropsSlowSubscriber(t *testing.T) {
	h := newHub(logger.NewNoop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.run(ctx)

	sub, ok := h.subscribe("test", 1)
	if !ok {
		t.Fatal("subscribe failed")
	}

	// Nobody reads sub.send, so the second frame overflows its buffer.
	h.broadcast <- testJPEG
	h.broadcast <- testJPEG
	h.broadcast <- testJPEG

	deadline := time.Now().Add(2 * time.Second)
	for h.dropped.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("slow subscriber was not dropped")
		}
		time.Sleep(5 * time.Millisecond)
	}

	received := 0
	for range sub.send {
		received++
	}
	if received != 1 {
		t.Errorf("expected 1 buffered frame before close, got %d", received)
	}
	if h.dropped.Load() != 1 {
		t.Errorf("expected 1 dropped client, got %d", h.dropped.Load())
	}
}

func TestHub_SubscribeAfterStop(t *testing.T) {
	h := newHub(logger.NewNoop())
	ctx, cancel := context.WithCancel(context.Background())
	go h.run(ctx)
	cancel()
	<-h.done

	if _, ok := h.subscribe("test", 1); ok {
		t.Error("expected subscribe to fail after the hub stopped")
	}
}
