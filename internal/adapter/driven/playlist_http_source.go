package driven

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"golang.org/x/net/html/charset"
)

const (
	defaultConnectTimeout = 5 * time.Second
	defaultReadTimeout    = 5 * time.Second
	defaultUserAgent      = "iptv-player/1.0"
)

// ErrReadTimeout is returned when the body stalls longer than the read timeout.
var ErrReadTimeout = errors.New("read timeout")

// PlaylistHTTPSource fetches playlist text over HTTP(S).
// It implements the driven.PlaylistSource port.
type PlaylistHTTPSource struct {
	client      *http.Client
	readTimeout time.Duration
	userAgent   string
}

// PlaylistHTTPSourceOptions configures a PlaylistHTTPSource. Zero values fall
// back to 5s timeouts and the default user agent.
type PlaylistHTTPSourceOptions struct {
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	UserAgent      string
	// Client overrides the HTTP client built from the timeouts.
	Client *http.Client
}

// NewPlaylistHTTPSource creates a new HTTP playlist source.
func NewPlaylistHTTPSource(opts PlaylistHTTPSourceOptions) *PlaylistHTTPSource {
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = defaultConnectTimeout
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = defaultReadTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}

	client := opts.Client
	if client == nil {
		dialer := &net.Dialer{Timeout: opts.ConnectTimeout}
		client = &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				DialContext:           dialer.DialContext,
				TLSHandshakeTimeout:   opts.ConnectTimeout,
				ResponseHeaderTimeout: opts.ReadTimeout,
				// Decompression is done by hand so br is supported too.
				DisableCompression: true,
			},
		}
	}

	return &PlaylistHTTPSource{
		client:      client,
		readTimeout: opts.ReadTimeout,
		userAgent:   opts.UserAgent,
	}
}

// Fetch retrieves the playlist text at url, decoded to UTF-8.
func (s *PlaylistHTTPSource) Fetch(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating HTTP request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept-Encoding", "gzip, br")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching playlist: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("unexpected HTTP status: %d %s", resp.StatusCode, resp.Status)
	}

	var body io.Reader = &idleTimeoutReader{r: resp.Body, timeout: s.readTimeout, cancel: cancel}

	body, err = decodeContent(body, resp.Header.Get("Content-Encoding"))
	if err != nil {
		return "", err
	}

	body, err = transcode(body, resp.Header.Get("Content-Type"))
	if err != nil {
		return "", err
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("reading response body: %w", err)
	}
	return string(data), nil
}

func decodeContent(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "identity":
		return r, nil
	case "gzip", "x-gzip":
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("opening gzip body: %w", err)
		}
		return zr, nil
	case "br":
		return brotli.NewReader(r), nil
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", encoding)
	}
}

// transcode converts the body to UTF-8 when the response declares another
// charset. Undeclared bodies are passed through untouched.
func transcode(r io.Reader, contentType string) (io.Reader, error) {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return r, nil
	}
	label := strings.ToLower(strings.TrimSpace(params["charset"]))
	if label == "" || label == "utf-8" || label == "utf8" {
		return r, nil
	}
	cr, err := charset.NewReaderLabel(label, r)
	if err != nil {
		return nil, fmt.Errorf("decoding charset %q: %w", label, err)
	}
	return cr, nil
}

// idleTimeoutReader cancels the request when a single Read blocks longer than
// timeout.
type idleTimeoutReader struct {
	r       io.Reader
	timeout time.Duration
	cancel  context.CancelFunc
}

func (t *idleTimeoutReader) Read(p []byte) (int, error) {
	timer := time.AfterFunc(t.timeout, t.cancel)
	n, err := t.r.Read(p)
	if !timer.Stop() && err != nil && err != io.EOF {
		return n, fmt.Errorf("%w: %v", ErrReadTimeout, err)
	}
	return n, err
}
