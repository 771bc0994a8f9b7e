// Package updates checks a JSON release feed for newer software versions
// and downloads release artifacts.
package updates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	version "github.com/hashicorp/go-version"
	"go.uber.org/zap"
)

// Release is one entry of the update feed.
type Release struct {
	Product        string `json:"product"`
	Version        string `json:"version,omitempty"`
	DisplayVersion string `json:"displayVersion,omitempty"`
	FileName       string `json:"fileName,omitempty"`
	DownloadURL    string `json:"downloadUrl,omitempty"`
	ReleaseNotes   string `json:"releaseNotes,omitempty"`
}

type feed struct {
	Releases []Release `json:"releases"`
}

// UpdateInfo is the outcome of one check.
type UpdateInfo struct {
	Product          string
	InstalledVersion string
	LatestVersion    string
	UpdateAvailable  bool
	Release          Release
	strategyUsed     string
}

type Checker struct {
	feedURL    string
	httpClient *http.Client
	strategies []Strategy
	log        *zap.SugaredLogger
}

func NewChecker(feedURL string, httpClient *http.Client, log *zap.SugaredLogger) *Checker {
	return &Checker{
		feedURL:    feedURL,
		httpClient: httpClient,
		strategies: DefaultStrategies,
		log:        log,
	}
}

func (c *Checker) fetchFeed(ctx context.Context) (*feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.feedURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching release feed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("release feed returned %d", resp.StatusCode)
	}

	f := &feed{}
	if err := json.NewDecoder(resp.Body).Decode(f); err != nil {
		return nil, fmt.Errorf("decoding release feed: %w", err)
	}
	return f, nil
}

// Check compares the installed version of a product against the feed.
// An unknown product is a precondition failure.
func (c *Checker) Check(ctx context.Context, product, installed string) (*UpdateInfo, error) {
	f, err := c.fetchFeed(ctx)
	if err != nil {
		return nil, err
	}

	var release *Release
	for i := range f.Releases {
		if strings.EqualFold(f.Releases[i].Product, product) {
			release = &f.Releases[i]
			break
		}
	}
	if release == nil {
		return nil, fmt.Errorf("product %q not present in the release feed", product)
	}

	latest, strategy, err := ExtractVersion(*release, c.strategies)
	if err != nil {
		return nil, err
	}
	c.log.Debugf("feed version for %s read via %s strategy", product, strategy)

	installedVer, err := version.NewVersion(installed)
	if err != nil {
		return nil, fmt.Errorf("installed version %q: %w", installed, err)
	}

	return &UpdateInfo{
		Product:          release.Product,
		InstalledVersion: installedVer.String(),
		LatestVersion:    latest.String(),
		UpdateAvailable:  latest.GreaterThan(installedVer),
		Release:          *release,
		strategyUsed:     strategy,
	}, nil
}

// Download fetches the release artifact into destDir and returns its path.
// The downloaded file must be non-empty, mirroring the artifact-based
// success check used for the wrapped external tools.
func (c *Checker) Download(ctx context.Context, release Release, destDir string) (string, error) {
	if release.DownloadURL == "" {
		return "", fmt.Errorf("release %s has no download URL", release.Product)
	}
	name := release.FileName
	if name == "" {
		name = filepath.Base(release.DownloadURL)
	}
	dest := filepath.Join(destDir, name)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, release.DownloadURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("downloading %s: %w", release.DownloadURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download returned %d", resp.StatusCode)
	}

	out, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", dest, err)
	}
	written, err := io.Copy(out, resp.Body)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", fmt.Errorf("writing %s: %w", dest, err)
	}
	if written == 0 {
		return "", fmt.Errorf("downloaded artifact %s is empty", dest)
	}

	c.log.Infof("downloaded %s (%d bytes)", dest, written)
	return dest, nil
}
