package datasource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/wincast/internal/config"
)

// Fetcher downloads daily race cards per venue and stores them under the
// configured data directory as <VENUE>.csv.
type Fetcher struct {
	cfg    *config.DataConfig
	client *RateLimitedHTTPClient
	log    *logrus.Entry
}

// NewFetcher creates a fetcher using the data configuration for timeouts,
// retries, and rate limiting.
func NewFetcher(cfg *config.DataConfig, log *logrus.Logger) *Fetcher {
	httpCfg := DefaultHTTPClientConfig()
	if cfg.FetchTimeoutSecs > 0 {
		httpCfg.Timeout = time.Duration(cfg.FetchTimeoutSecs) * time.Second
	}
	if cfg.FetchRetryAttempts > 0 {
		httpCfg.MaxRetries = cfg.FetchRetryAttempts
	}
	if cfg.RateLimitPerSec > 0 {
		httpCfg.RateLimit = cfg.RateLimitPerSec
	}
	return &Fetcher{
		cfg:    cfg,
		client: NewRateLimitedHTTPClient(httpCfg, log),
		log:    log.WithField("component", "fetcher"),
	}
}

// VenueFile returns the path the venue's race card is stored at.
func (f *Fetcher) VenueFile(venue string) string {
	return filepath.Join(f.cfg.DataDir, venue+".csv")
}

// Fetch downloads the venue's daily race card and writes it to the data
// directory, returning the file path.
func (f *Fetcher) Fetch(ctx context.Context, venue string) (string, error) {
	endpoint := fmt.Sprintf("%s?hipodrom_key=%s", f.cfg.APIURL, url.QueryEscape(venue))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("building race-card request: %w", err)
	}

	resp, err := f.client.Do(ctx, req)
	if err != nil {
		return "", fmt.Errorf("fetching race card for %s: %w", venue, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching race card for %s: unexpected status %d", venue, resp.StatusCode)
	}

	if err := os.MkdirAll(f.cfg.DataDir, 0o755); err != nil {
		return "", fmt.Errorf("creating data directory: %w", err)
	}

	path := f.VenueFile(venue)
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating race-card file: %w", err)
	}
	defer file.Close()

	written, err := io.Copy(file, resp.Body)
	if err != nil {
		return "", fmt.Errorf("writing race-card file: %w", err)
	}

	f.log.WithFields(logrus.Fields{
		"venue": venue,
		"path":  path,
		"bytes": written,
	}).Info("Race card downloaded")
	return path, nil
}
