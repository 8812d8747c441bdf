// Package sheets reads service tickets from a published spreadsheet CSV export.
package sheets

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/lorrc/atendimento-dashboard/internal/core/domain"
	"github.com/lorrc/atendimento-dashboard/internal/core/ports"
)

// maxBodyBytes bounds the size of an export download.
const maxBodyBytes = 32 << 20

// ErrNoHeader is returned when the export has no header row.
var ErrNoHeader = errors.New("sheet export has no header row")

// Client downloads the CSV export of the form responses sheet.
type Client struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ ports.RecordLister = (*Client)(nil)

// NewClient creates a sheet client for the CSV export at url.
func NewClient(url string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With("component", "sheets"),
	}
}

// ListRecords downloads and normalizes every response row.
func (c *Client) ListRecords(ctx context.Context) ([]domain.Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build sheet request: %w", err)
	}
	req.Header.Set("Accept", "text/csv")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch sheet: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch sheet: unexpected status %d", resp.StatusCode)
	}

	records, err := c.Parse(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}

	c.logger.InfoContext(ctx, "sheet loaded",
		"records", len(records),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return records, nil
}

// Parse reads a CSV export. Rows may be shorter than the header; missing cells are blank.
func (c *Client) Parse(r io.Reader) ([]domain.Record, error) {
	normalizer := NewNormalizer()
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rawHeader, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read sheet header: %w", err)
	}

	header := make([]string, len(rawHeader))
	mapped := 0
	for i, h := range rawHeader {
		header[i] = attributeFor(h)
		if header[i] != "" {
			mapped++
		}
	}
	if mapped == 0 {
		return nil, ErrNoHeader
	}

	records := make([]domain.Record, 0)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read sheet row: %w", err)
		}
		if blank(row) {
			continue
		}
		records = append(records, normalizer.Normalize(header, row))
	}
	return records, nil
}

func blank(row []string) bool {
	for _, cell := range row {
		if cell != "" {
			return false
		}
	}
	return true
}
