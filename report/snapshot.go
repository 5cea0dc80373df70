package report

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/chromedp"

	"presale-tracker/utils"
)

// Snapshotter renders HTML to PNG in headless Chrome.
type Snapshotter struct {
	logger    *utils.Logger
	chromeBin string
	width     int
	timeout   time.Duration
}

// NewSnapshotter creates a Snapshotter. An empty chromeBin searches the usual
// install locations.
func NewSnapshotter(logger *utils.Logger, chromeBin string, width int) *Snapshotter {
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}
	return &Snapshotter{logger: logger, chromeBin: chromeBin, width: width, timeout: 60 * time.Second}
}

// PNG loads html into a page of the configured width and captures the full
// page as PNG.
func (s *Snapshotter) PNG(ctx context.Context, html string) ([]byte, error) {
	s.logger.Info("[snapshot] Using browser binary: %s", s.chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(s.width, 800),
	)
	if s.chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(s.chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	// Suppress chromedp log noise
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelBrowser()

	runCtx, cancelTimeout := context.WithTimeout(browserCtx, s.timeout)
	defer cancelTimeout()

	var png []byte
	err := chromedp.Run(runCtx,
		chromedp.EmulateViewport(int64(s.width), 800),
		chromedp.Navigate(dataURL(html)),
		chromedp.WaitReady("body"),
		// quality 100 selects PNG
		chromedp.FullScreenshot(&png, 100),
	)
	if err != nil {
		return nil, fmt.Errorf("snapshot: capture: %w", err)
	}

	s.logger.Info("[snapshot] Captured %d bytes at %dpx wide", len(png), s.width)
	return png, nil
}

func dataURL(html string) string {
	return "data:text/html;charset=utf-8;base64," + base64.StdEncoding.EncodeToString([]byte(html))
}

// findChromeBinary locates a Chrome/Chromium binary on the system.
func findChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
