package taipei

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"presale-tracker/config"
	"presale-tracker/models"
	"presale-tracker/services"
	"presale-tracker/utils"
)

const datasetPath = "/api/v1/dataset/"

// StatusError is a non-2xx response from the open-data API.
type StatusError struct {
	Page       int
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("page %d: unexpected HTTP status %d", e.Page, e.StatusCode)
}

// Batch is the outcome of one complete fetch.
type Batch struct {
	Records []models.RawRecord
	Pages   int
}

// Fetcher pulls the pre-sale dataset page by page from the Taipei open-data
// platform.
type Fetcher struct {
	cfg      *config.Config
	logger   *utils.Logger
	client   *http.Client
	retry    *utils.RetryConfig
	throttle *utils.Throttle
	now      func() time.Time
}

// New creates a ready-to-use Fetcher.
func New(cfg *config.Config, logger *utils.Logger) *Fetcher {
	return &Fetcher{
		cfg:    cfg,
		logger: logger,
		client: &http.Client{Timeout: cfg.HTTPTimeout},
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   cfg.RetryBaseDelay,
			Logger:      logger,
		},
		throttle: utils.NewThrottle(cfg.PageDelay),
		now:      time.Now,
	}
}

// Fetch drives pagination until a page is empty or short, or the record cap
// is reached. ctx is checked between pages. A page that is not CSV ends the
// fetch with services.ErrNotCSV.
func (f *Fetcher) Fetch(ctx context.Context) (*Batch, error) {
	limit := f.cfg.PageLimit
	f.logger.Info("[taipei] Starting fetch: resource %s, %d rows/page, cap %d",
		f.cfg.ResourceID, limit, f.cfg.MaxRecords)

	batch := &Batch{}
	for offset := 0; offset < f.cfg.MaxRecords; offset += limit {
		if err := f.throttle.Wait(ctx); err != nil {
			return nil, fmt.Errorf("taipei: fetch cancelled after %d pages: %w", batch.Pages, err)
		}

		page := batch.Pages + 1
		var body []byte
		err := f.retry.Do(ctx, fmt.Sprintf("fetch page %d", page), func() error {
			var ferr error
			body, ferr = f.fetchPage(ctx, page, offset)
			return ferr
		})
		if err != nil {
			return nil, fmt.Errorf("taipei: %w", err)
		}
		batch.Pages = page

		text := services.DecodeContent(body).Text
		if !strings.Contains(text, ",") {
			return nil, fmt.Errorf("taipei: page %d: %w", page, services.ErrNotCSV)
		}

		records := services.ParseCSV(text)
		f.logger.Info("[taipei] Page %d (offset %d): %d records", page, offset, len(records))
		if len(records) == 0 {
			break
		}
		batch.Records = append(batch.Records, records...)

		if len(records) < limit {
			break
		}
	}

	f.logger.Info("[taipei] Fetch complete: %d records over %d pages", len(batch.Records), batch.Pages)
	return batch, nil
}

func (f *Fetcher) fetchPage(ctx context.Context, page, offset int) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.PageURL(offset), nil)
	if err != nil {
		return nil, fmt.Errorf("page %d: build request: %w", page, err)
	}
	req.Header.Set("Accept", "text/csv, */*")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("page %d: %w", page, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{Page: page, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("page %d: read body: %w", page, err)
	}
	return body, nil
}

// PageURL builds the request URL for the page starting at offset, wrapped in
// the configured proxy prefix if any.
func (f *Fetcher) PageURL(offset int) string {
	q := url.Values{}
	q.Set("scope", "resourceAquire")
	q.Set("format", "csv")
	q.Set("limit", strconv.Itoa(f.cfg.PageLimit))
	q.Set("offset", strconv.Itoa(offset))
	q.Set("_t", strconv.FormatInt(f.now().UnixMilli(), 10))

	target := strings.TrimRight(f.cfg.BaseURL, "/") + datasetPath + url.PathEscape(f.cfg.ResourceID) + "?" + q.Encode()
	if f.cfg.ProxyURL == "" {
		return target
	}
	return f.cfg.ProxyURL + url.QueryEscape(target)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}
