// Package image loads pictures referenced by markdown image nodes and
// encodes them for terminals that can display inline graphics.
package image

import (
	"context"
	"errors"
	"fmt"
	goimage "image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "golang.org/x/image/webp"
)

var (
	// ErrUnsupportedScheme is returned for sources that are neither
	// http(s) URLs nor file paths.
	ErrUnsupportedScheme = errors.New("unsupported image source scheme")
	// ErrStatus wraps a non-200 HTTP response.
	ErrStatus = errors.New("unexpected HTTP status")
)

// maxImageBytes bounds a single download.
const maxImageBytes = 32 << 20

// Callback receives the result of one Load request.
type Callback func(img goimage.Image, err error)

// Options configures a Loader.
type Options struct {
	CacheSize int
	MaxWidth  int           // images wider than this are scaled down, 0 keeps size
	Timeout   time.Duration // per fetch
	BaseDir   string        // relative file sources resolve against this
	Client    *http.Client
	Logger    *slog.Logger
}

// Loader fetches and decodes images. Concurrent requests for the same
// resolved source share one fetch; successful results are cached, failures
// are not, so a later request retries.
type Loader struct {
	opts   Options
	client *http.Client
	cache  *Cache
	log    *slog.Logger

	mu       sync.Mutex
	inflight map[string][]Callback
}

// NewLoader creates a loader.
func NewLoader(opts Options) *Loader {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{}
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Loader{
		opts:     opts,
		client:   client,
		cache:    NewCache(opts.CacheSize),
		log:      log,
		inflight: make(map[string][]Callback),
	}
}

// Resolve returns the cache key for src: the URL itself for http(s)
// sources, a cleaned absolute path otherwise.
func (l *Loader) Resolve(src string) (string, error) {
	if u, err := url.Parse(src); err == nil && u.Scheme != "" && !isWindowsDrive(u.Scheme) {
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return u.String(), nil
		case "file":
			return filepath.Clean(u.Path), nil
		default:
			return "", fmt.Errorf("%w: %s", ErrUnsupportedScheme, u.Scheme)
		}
	}
	path := expandPath(src)
	if !filepath.IsAbs(path) {
		path = filepath.Join(expandPath(l.opts.BaseDir), path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", src, err)
	}
	return abs, nil
}

func isWindowsDrive(scheme string) bool {
	return len(scheme) == 1
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

// Cached returns the image for src if it is already loaded.
func (l *Loader) Cached(src string) (goimage.Image, bool) {
	key, err := l.Resolve(src)
	if err != nil {
		return nil, false
	}
	return l.cache.Get(key)
}

// Load requests src. A cache hit or an unresolvable source calls cb before
// Load returns; otherwise cb is called exactly once from another
// goroutine. The fetch is shared by all requests for the same source and
// is not cancelled when ctx is.
func (l *Loader) Load(ctx context.Context, src string, cb Callback) {
	key, err := l.Resolve(src)
	if err != nil {
		cb(nil, err)
		return
	}

	l.mu.Lock()
	if img, ok := l.cache.Get(key); ok {
		l.mu.Unlock()
		cb(img, nil)
		return
	}
	if waiters, ok := l.inflight[key]; ok {
		l.inflight[key] = append(waiters, cb)
		l.mu.Unlock()
		l.log.Debug("image: joined in-flight load", "key", key, "waiters", len(waiters)+1)
		return
	}
	l.inflight[key] = []Callback{cb}
	l.mu.Unlock()

	go l.run(context.WithoutCancel(ctx), key)
}

// Get loads src and waits for the result.
func (l *Loader) Get(ctx context.Context, src string) (goimage.Image, error) {
	type result struct {
		img goimage.Image
		err error
	}
	ch := make(chan result, 1)
	l.Load(ctx, src, func(img goimage.Image, err error) {
		ch <- result{img, err}
	})
	select {
	case r := <-ch:
		return r.img, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (l *Loader) run(ctx context.Context, key string) {
	ctx, cancel := context.WithTimeout(ctx, l.opts.Timeout)
	defer cancel()

	img, err := l.fetch(ctx, key)
	if err != nil {
		l.log.Warn("image: load failed", "key", key, "error", err)
	}

	l.mu.Lock()
	if err == nil {
		l.cache.Put(key, img)
	}
	waiters := l.inflight[key]
	delete(l.inflight, key)
	l.mu.Unlock()

	if len(waiters) > 1 {
		l.log.Debug("image: fan out", "key", key, "waiters", len(waiters))
	}
	for _, cb := range waiters {
		cb(img, err)
	}
}

func (l *Loader) fetch(ctx context.Context, key string) (goimage.Image, error) {
	var r io.ReadCloser
	if strings.HasPrefix(key, "http://") || strings.HasPrefix(key, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, key, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		resp, err := l.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("request failed: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
		}
		r = resp.Body
	} else {
		f, err := os.Open(key)
		if err != nil {
			return nil, err
		}
		r = f
	}
	defer r.Close()

	img, _, err := goimage.Decode(io.LimitReader(r, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	if l.opts.MaxWidth > 0 {
		img = scaleToWidth(img, l.opts.MaxWidth)
	}
	return img, nil
}
