// Package preview serves processed frames to browsers while a session runs.
//
// Routes:
//
//	GET /              viewer page
//	GET /stream        annotated frames as multipart/x-mixed-replace
//	GET /snapshot.jpg  latest annotated frame
//	GET /mask.jpg      latest colour mask
//	GET /api/stats     latest frame metadata as JSON
//	GET /ws/camera     annotated frames as binary websocket messages
package preview

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/Adc-alt/espcam/pkg/ports"
)

const (
	// DefaultAddr is the default listen address.
	DefaultAddr = ":8080"

	boundary = "frame"

	streamBuffer = 2
	wsBuffer     = 8

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Options configures the preview server.
type Options struct {
	Addr          string // Listen address (default: ":8080")
	Title         string // Page title
	NotifySystemd bool   // Send READY=1 to systemd once listening
}

// Box is a detection in the stats response.
type Box struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Stats is the /api/stats response.
type Stats struct {
	Sequence    int   `json:"sequence"`
	TimestampMs int   `json:"timestampMs"`
	Objects     []Box `json:"objects"`
	Clients     int   `json:"clients"`
	Published   int64 `json:"published"`
	Dropped     int64 `json:"dropped"`
}

// Server implements ports.Publisher with a fiber HTTP server.
type Server struct {
	app    *fiber.App
	hub    *hub
	opts   Options
	logger ports.Logger

	mu     sync.RWMutex
	latest ports.PublishedFrame
	has    bool

	published atomic.Int64
	addr      string
	stopHub   context.CancelFunc
}

// New creates a preview server and starts its viewer hub, so routes can be
// exercised with fiber's App.Test before Start. Shutdown stops the hub.
func New(opts Options, logger ports.Logger) *Server {
	if opts.Addr == "" {
		opts.Addr = DefaultAddr
	}
	if opts.Title == "" {
		opts.Title = "espcam"
	}

	s := &Server{
		opts:   opts,
		logger: logger.WithComponent("preview"),
	}
	s.hub = newHub(s.logger)

	hubCtx, cancel := context.WithCancel(context.Background())
	s.stopHub = cancel
	go s.hub.run(hubCtx)

	app := fiber.New(fiber.Config{
		AppName:               opts.Title,
		DisableStartupMessage: true,
	})
	app.Use(cors.New())

	app.Get("/", s.handleIndex)
	app.Get("/stream", s.handleStream)
	app.Get("/snapshot.jpg", s.handleSnapshot)
	app.Get("/mask.jpg", s.handleMask)
	app.Get("/api/stats", s.handleStats)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/camera", websocket.New(s.handleCameraWS))

	s.app = app
	return s
}

// Start listens on the configured address and serves in the background.
// It returns once the listener is bound.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.opts.Addr, err)
	}
	s.addr = ln.Addr().String()

	// Viewers are disconnected when the session context ends.
	context.AfterFunc(ctx, s.stopHub)

	go func() {
		if err := s.app.Listener(ln); err != nil {
			s.logger.Error("Preview server stopped: %v", err)
		}
	}()

	s.logger.Info("Preview available at http://%s", s.addr)

	if s.opts.NotifySystemd {
		sent, err := daemon.SdNotify(false, daemon.SdNotifyReady)
		if err != nil {
			s.logger.Warn("systemd notify failed: %v", err)
		} else if sent {
			s.logger.Debug("Notified systemd")
		}
	}
	return nil
}

// Addr returns the bound address after Start.
func (s *Server) Addr() string {
	return s.addr
}

// Shutdown disconnects viewers and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.stopHub()
	return s.app.ShutdownWithContext(ctx)
}

// Publish stores the frame for snapshots and queues it for live viewers.
// It never blocks.
func (s *Server) Publish(frame ports.PublishedFrame) {
	s.mu.Lock()
	s.latest = frame
	s.has = true
	s.mu.Unlock()

	s.published.Add(1)
	if len(frame.JPEG) > 0 {
		s.hub.publish(frame.JPEG)
	}
}

// Stats returns the current stats.
func (s *Server) Stats() Stats {
	s.mu.RLock()
	frame := s.latest
	s.mu.RUnlock()

	boxes := make([]Box, 0, len(frame.Objects))
	for _, r := range frame.Objects {
		boxes = append(boxes, Box{X: r.Min.X, Y: r.Min.Y, W: r.Dx(), H: r.Dy()})
	}
	return Stats{
		Sequence:    frame.Sequence,
		TimestampMs: frame.TimestampMs,
		Objects:     boxes,
		Clients:     int(s.hub.clients.Load()),
		Published:   s.published.Load(),
		Dropped:     s.hub.dropped.Load(),
	}
}

func (s *Server) latestFrame() (ports.PublishedFrame, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, s.has
}

func (s *Server) handleIndex(c *fiber.Ctx) error {
	c.Type("html", "utf-8")
	return c.SendString(fmt.Sprintf(indexHTML, s.opts.Title, s.opts.Title))
}

func (s *Server) handleSnapshot(c *fiber.Ctx) error {
	frame, ok := s.latestFrame()
	if !ok || len(frame.JPEG) == 0 {
		return fiber.NewError(fiber.StatusServiceUnavailable, "no frame yet")
	}
	c.Set(fiber.HeaderCacheControl, "no-store")
	c.Type("jpg")
	return c.Send(frame.JPEG)
}

func (s *Server) handleMask(c *fiber.Ctx) error {
	frame, ok := s.latestFrame()
	if !ok || len(frame.Mask) == 0 {
		return fiber.NewError(fiber.StatusServiceUnavailable, "no mask yet")
	}
	c.Set(fiber.HeaderCacheControl, "no-store")
	c.Type("jpg")
	return c.Send(frame.Mask)
}

func (s *Server) handleStats(c *fiber.Ctx) error {
	return c.JSON(s.Stats())
}

// handleStream re-serves frames as an MJPEG stream, the same format the
// camera itself produces.
func (s *Server) handleStream(c *fiber.Ctx) error {
	sub, ok := s.hub.subscribe("stream", streamBuffer)
	if !ok {
		return fiber.NewError(fiber.StatusServiceUnavailable, "preview stopped")
	}
	first, _ := s.latestFrame()

	c.Set(fiber.HeaderContentType, "multipart/x-mixed-replace; boundary="+boundary)
	c.Set(fiber.HeaderCacheControl, "no-cache, private")
	c.Set("Pragma", "no-cache")

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer s.hub.unsubscribe(sub)

		if len(first.JPEG) > 0 {
			if err := writePart(w, first.JPEG); err != nil {
				return
			}
		}
		for data := range sub.send {
			if err := writePart(w, data); err != nil {
				return
			}
		}
	})
	return nil
}

func writePart(w *bufio.Writer, data []byte) error {
	if _, err := fmt.Fprintf(w, "--%s\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", boundary, len(data)); err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	if _, err := w.WriteString("\r\n"); err != nil {
		return err
	}
	return w.Flush()
}

func (s *Server) handleCameraWS(c *websocket.Conn) {
	sub, ok := s.hub.subscribe("websocket", wsBuffer)
	if !ok {
		c.Close()
		return
	}

	go s.writePump(c, sub)

	c.SetReadLimit(4096)
	c.SetReadDeadline(time.Now().Add(pongWait))
	c.SetPongHandler(func(string) error {
		c.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		// Viewers send nothing; reading detects disconnects and pongs.
		if _, _, err := c.ReadMessage(); err != nil {
			break
		}
	}
	s.hub.unsubscribe(sub)
}

// writePump is the only writer on the connection.
func (s *Server) writePump(c *websocket.Conn, sub *subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case data, ok := <-sub.send:
			c.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.WriteMessage(websocket.BinaryMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

var _ ports.Publisher = (*Server)(nil)

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { background: #111; color: #eee; font-family: sans-serif; margin: 0; padding: 16px; }
img { max-width: 100%%; border: 1px solid #333; }
#stats { font-family: monospace; margin-top: 8px; }
</style>
</head>
<body>
<h1>%s</h1>
<img src="/stream" alt="live stream">
<div id="stats"></div>
<script>
setInterval(async () => {
  try {
    const s = await (await fetch("/api/stats")).json();
    document.getElementById("stats").textContent =
      "frame " + s.sequence + " | objects " + s.objects.length + " | viewers " + s.clients;
  } catch (e) {}
}, 1000);
</script>
</body>
</html>
`
