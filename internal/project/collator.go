// SPDX-License-Identifier: Apache-2.0

package project

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/collatex-critical/critedit/internal/config"
	"github.com/collatex-critical/critedit/internal/logging"
)

// DefaultCacheDir is where the collatex-tools jar is kept between runs.
func DefaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".collatex-critical"
	}
	return filepath.Join(home, ".collatex-critical")
}

// HTTPError is returned when the jar download is answered with an error
// status.
type HTTPError struct {
	URL        string
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("downloading %s: HTTP %d", e.URL, e.StatusCode)
}

// Collator locates the collatex-tools jar, downloading it on first use.
type Collator struct {
	Tools    config.Tools
	CacheDir string
	Client   *http.Client
}

func NewCollator(tools config.Tools) *Collator {
	return &Collator{
		Tools:    tools,
		CacheDir: DefaultCacheDir(),
		Client:   &http.Client{Timeout: 5 * time.Minute},
	}
}

// Jar returns the path of the collatex-tools jar. A configured jar must
// exist; otherwise the cached copy is used or downloaded.
func (c *Collator) Jar(ctx context.Context) (string, error) {
	if c.Tools.CollateXJar != "" {
		if _, err := os.Stat(c.Tools.CollateXJar); err != nil {
			return "", fmt.Errorf("collatex jar: %w", err)
		}
		return c.Tools.CollateXJar, nil
	}

	url := c.Tools.CollateXURL
	if url == "" {
		url = config.DefaultCollateXURL
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return "", fmt.Errorf("unsupported URL scheme: %s", url)
	}
	jar := filepath.Join(c.CacheDir, path.Base(url))
	if _, err := os.Stat(jar); err == nil {
		return jar, nil
	}

	logging.LoggerFromContext(ctx).Info("downloading collator", "url", url, "path", jar)
	if err := c.download(ctx, url, jar); err != nil {
		return "", err
	}
	return jar, nil
}

// download writes url to dest through a temporary file in the same
// directory, so an interrupted download never leaves a partial jar.
func (c *Collator) download(ctx context.Context, url, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("failed to create cache dir: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", "critedit")

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return &HTTPError{URL: url, StatusCode: resp.StatusCode}
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".download-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return fmt.Errorf("reading response: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return fmt.Errorf("failed to install %s: %w", dest, err)
	}
	return nil
}
