package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jlaffaye/ftp"
	"go.uber.org/zap"

	"github.com/lox/cptinterp/internal/httputil"
	"github.com/lox/cptinterp/internal/metrics"
)

// Fetcher loads source files from a local path, an http(s) URL or an ftp URL.
type Fetcher struct {
	client         *http.Client
	log            *zap.Logger
	maxElapsedTime time.Duration
	ftpTimeout     time.Duration
}

func NewFetcher(log *zap.Logger) *Fetcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Fetcher{
		client:         httputil.NewClient(),
		log:            log,
		maxElapsedTime: 2 * time.Minute,
		ftpTimeout:     30 * time.Second,
	}
}

// Kind names the transport used for a source: "file", "http" or "ftp".
func Kind(source string) string {
	u, err := url.Parse(source)
	if err != nil {
		return "file"
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return "http"
	case "ftp":
		return "ftp"
	}
	return "file"
}

// Fetch returns the full content of source.
func (f *Fetcher) Fetch(ctx context.Context, source string) ([]byte, error) {
	kind := Kind(source)
	start := time.Now()

	var (
		body []byte
		err  error
	)
	switch kind {
	case "http":
		body, err = f.fetchHTTP(ctx, source)
	case "ftp":
		body, err = f.fetchFTP(ctx, source)
	default:
		body, err = os.ReadFile(strings.TrimPrefix(source, "file://"))
	}

	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.FetchLatency.WithLabelValues(kind, status).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", source, err)
	}

	f.log.Debug("ingest: fetched source", zap.String("source", source), zap.String("kind", kind), zap.Int("bytes", len(body)))
	return body, nil
}

func (f *Fetcher) fetchHTTP(ctx context.Context, source string) ([]byte, error) {
	var body []byte
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := f.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return fmt.Errorf("get: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return fmt.Errorf("status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return backoff.Permanent(fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(b))))
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("read body: %w", err))
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = f.maxElapsedTime
	notify := func(err error, wait time.Duration) {
		f.log.Warn("ingest: retrying fetch", zap.String("source", source), zap.Duration("wait", wait), zap.Error(err))
	}
	if err := backoff.RetryNotify(operation, backoff.WithContext(bo, ctx), notify); err != nil {
		return nil, err
	}
	return body, nil
}

func (f *Fetcher) fetchFTP(ctx context.Context, source string) ([]byte, error) {
	u, err := url.Parse(source)
	if err != nil {
		return nil, err
	}
	host := u.Host
	if u.Port() == "" {
		host += ":21"
	}

	conn, err := ftp.Dial(host, ftp.DialWithTimeout(f.ftpTimeout), ftp.DialWithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("ftp dial: %w", err)
	}
	defer conn.Quit()

	user, pass := "anonymous", "anonymous"
	if u.User != nil {
		user = u.User.Username()
		if p, ok := u.User.Password(); ok {
			pass = p
		}
	}
	if err := conn.Login(user, pass); err != nil {
		return nil, fmt.Errorf("ftp login: %w", err)
	}

	resp, err := conn.Retr(u.Path)
	if err != nil {
		return nil, fmt.Errorf("ftp retr: %w", err)
	}
	defer resp.Close()

	body, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("ftp read: %w", err)
	}
	return body, nil
}
