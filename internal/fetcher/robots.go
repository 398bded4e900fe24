package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/temoto/robotstxt"
)

type robotsEntry struct {
	robots    *robotstxt.RobotsData
	fetchTime time.Time
}

// RobotsChecker fetches and caches robots.txt per host
type RobotsChecker struct {
	client        *http.Client
	userAgent     string
	cacheDuration time.Duration
	logger        *logrus.Entry

	mu    sync.RWMutex
	cache map[string]*robotsEntry
}

func NewRobotsChecker(userAgent string, timeout time.Duration, logger *logrus.Entry) *RobotsChecker {
	return &RobotsChecker{
		client:        &http.Client{Timeout: timeout},
		userAgent:     userAgent,
		cacheDuration: 24 * time.Hour,
		logger:        logger,
		cache:         make(map[string]*robotsEntry),
	}
}

// Allowed reports whether the configured user agent may fetch rawURL
func (rc *RobotsChecker) Allowed(ctx context.Context, rawURL string) (bool, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false, fmt.Errorf("invalid url %q: %w", rawURL, err)
	}
	if u.Host == "" {
		return false, fmt.Errorf("invalid url %q: missing host", rawURL)
	}

	robots, err := rc.robotsFor(ctx, u)
	if err != nil {
		return false, err
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return robots.TestAgent(path, rc.userAgent), nil
}

func (rc *RobotsChecker) robotsFor(ctx context.Context, u *url.URL) (*robotstxt.RobotsData, error) {
	key := u.Scheme + "://" + u.Host

	rc.mu.RLock()
	entry, exists := rc.cache[key]
	rc.mu.RUnlock()

	if exists && time.Since(entry.fetchTime) < rc.cacheDuration {
		return entry.robots, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, key+"/robots.txt", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create robots.txt request: %w", err)
	}
	req.Header.Set("User-Agent", rc.userAgent)

	resp, err := rc.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch robots.txt: %w", err)
	}
	defer resp.Body.Close()

	// 4xx allows everything, 5xx disallows everything
	robots, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to parse robots.txt: %w", err)
	}

	rc.mu.Lock()
	rc.cache[key] = &robotsEntry{
		robots:    robots,
		fetchTime: time.Now(),
	}
	rc.mu.Unlock()

	if rc.logger != nil {
		rc.logger.WithFields(logrus.Fields{
			"host":   u.Host,
			"status": resp.StatusCode,
		}).Debug("Cached robots.txt")
	}
	return robots, nil
}
