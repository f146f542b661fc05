// Package httpstream opens the MJPEG stream served by an ESP32 camera over
// HTTP.
package httpstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/Adc-alt/espcam/pkg/ports"
)

// Default timeouts. The body is an endless stream, so there is no overall
// request timeout, only limits on connecting and on waiting for headers.
const (
	DefaultHeaderTimeout  = 15 * time.Second
	DefaultConnectTimeout = 10 * time.Second
	DefaultKeepAlive      = 30 * time.Second

	// DefaultHost is the address of an ESP32 running as an access point.
	DefaultHost = "192.168.4.1"
	// StreamPath is the stream endpoint of the ESP32 camera firmware.
	StreamPath = "/stream"
)

// ErrUnexpectedStatus is returned when the camera answers with a status
// other than 200.
var ErrUnexpectedStatus = errors.New("unexpected HTTP status")

// Options configures a Source.
type Options struct {
	HeaderTimeout  time.Duration // Wait for response headers (default: 15s)
	ConnectTimeout time.Duration // TCP connect (default: 10s)
	UserAgent      string
	Client         *http.Client // Overrides the built-in client when set
}

// DefaultOptions returns default options.
func DefaultOptions() Options {
	return Options{
		HeaderTimeout:  DefaultHeaderTimeout,
		ConnectTimeout: DefaultConnectTimeout,
		UserAgent:      "espcam",
	}
}

// Source implements ports.StreamSource over HTTP GET.
type Source struct {
	url       string
	userAgent string
	client    *http.Client
}

// New creates a source for url.
func New(url string, opts Options) *Source {
	client := opts.Client
	if client == nil {
		client = newClient(opts)
	}
	return &Source{
		url:       url,
		userAgent: opts.UserAgent,
		client:    client,
	}
}

func newClient(opts Options) *http.Client {
	headerTimeout := opts.HeaderTimeout
	if headerTimeout <= 0 {
		headerTimeout = DefaultHeaderTimeout
	}
	connectTimeout := opts.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = DefaultConnectTimeout
	}

	return &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   connectTimeout,
				KeepAlive: DefaultKeepAlive,
			}).DialContext,
			ResponseHeaderTimeout: headerTimeout,
			TLSHandshakeTimeout:   10 * time.Second,
			MaxIdleConnsPerHost:   1,
			// The camera streams JPEG; compression only adds latency.
			DisableCompression: true,
		},
	}
}

// URLForHost builds the stream URL for a camera host or host:port.
// A value that already has a scheme is returned unchanged.
func URLForHost(host string) string {
	host = strings.TrimSpace(host)
	if host == "" {
		host = DefaultHost
	}
	if strings.Contains(host, "://") {
		return host
	}
	return "http://" + strings.TrimSuffix(host, "/") + StreamPath
}

// Open issues the GET request and returns the response body. Cancelling
// ctx aborts the request and unblocks reads from the body.
func (s *Source) Open(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}
	req.Header.Set("Accept", "multipart/x-mixed-replace, image/jpeg, */*")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", s.url, err)
	}
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s from %s", ErrUnexpectedStatus, resp.Status, s.url)
	}

	return resp.Body, nil
}

// Describe returns the stream URL.
func (s *Source) Describe() string {
	return s.url
}

var _ ports.StreamSource = (*Source)(nil)
