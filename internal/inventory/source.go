// Package inventory reads component stock from a published spreadsheet.
package inventory

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/spec-kit/inventory-console/internal/domain"
	apperrors "github.com/spec-kit/inventory-console/pkg/util/errorutil"
)

// Column headers of the stock sheet.
const (
	ColumnID          = "Component ID"
	ColumnName        = "Component Name"
	ColumnDescription = "Description"
	ColumnTotal       = "Total Quantity"
	ColumnAvailable   = "Quantity Available"
	ColumnRequestType = "Request Type"
)

const placeholder = "--"

var sheetID = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`)

// ErrInvalidLink is returned for links that are not Google Sheets URLs.
var ErrInvalidLink = errors.New("not a google sheets link")

// LinkStore persists the sheet link.
type LinkStore interface {
	Get(ctx context.Context, path string) (any, error)
	Set(ctx context.Context, path string, value any) error
	Remove(ctx context.Context, path string) error
}

// Doer performs HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Row is one raw stock table row, numbered from 1.
type Row struct {
	Index        int    `json:"index"`
	ID           string `json:"component_id"`
	Name         string `json:"component_name"`
	TotalQty     string `json:"total_quantity"`
	AvailableQty string `json:"quantity_available"`
	Description  string `json:"description"`
	RequestType  string `json:"request_type"`
}

// ExportURL derives the CSV export address of a sheet link.
func ExportURL(sheetURL string) (string, bool) {
	match := sheetID.FindStringSubmatch(sheetURL)
	if match == nil {
		return "", false
	}
	return fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/export?format=csv", match[1]), true
}

// ValidLink reports whether url looks like a Google Sheets link.
func ValidLink(url string) bool {
	return strings.Contains(url, "docs.google.com/spreadsheets")
}

// Option customizes a Source.
type Option func(*Source)

// WithExportResolver replaces the export address derivation.
func WithExportResolver(resolve func(sheetURL string) (string, bool)) Option {
	return func(s *Source) { s.resolve = resolve }
}

// WithTimeout bounds a single export fetch.
func WithTimeout(timeout time.Duration) Option {
	return func(s *Source) { s.timeout = timeout }
}

// Source fetches stock from the sheet named by the stored link.
type Source struct {
	links   LinkStore
	client  Doer
	resolve func(string) (string, bool)
	timeout time.Duration
	group   singleflight.Group
	logger  *zap.Logger
}

// NewSource builds a source.
func NewSource(links LinkStore, client Doer, logger *zap.Logger, opts ...Option) *Source {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Source{links: links, client: client, resolve: ExportURL, timeout: 10 * time.Second, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Link returns the stored sheet link, or "" when none is set.
func (s *Source) Link(ctx context.Context) (string, error) {
	raw, err := s.links.Get(ctx, domain.StockLinkPath)
	if err != nil {
		return "", apperrors.NewDataFetchFailure("stock link", err)
	}
	return strings.TrimSpace(domain.Text(raw)), nil
}

// SaveLink stores a new sheet link.
func (s *Source) SaveLink(ctx context.Context, url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return apperrors.NewValidationError("Please paste a valid Google Sheets link.", nil)
	}
	if !ValidLink(url) {
		return apperrors.NewValidationError("Please enter a valid Google Sheets link.", map[string]any{"link": url})
	}
	if err := s.links.Set(ctx, domain.StockLinkPath, url); err != nil {
		return apperrors.NewWriteFailure("could not save inventory link", err)
	}
	s.logger.Info("inventory link saved", zap.String("link", url))
	return nil
}

// DeleteLink removes the stored sheet link.
func (s *Source) DeleteLink(ctx context.Context) error {
	if err := s.links.Remove(ctx, domain.StockLinkPath); err != nil {
		return apperrors.NewWriteFailure("could not remove inventory link", err)
	}
	s.logger.Info("inventory link removed")
	return nil
}

// Fetch returns the current stock keyed by component id. Any failure is
// logged and yields an empty mapping. Concurrent calls share one fetch, which
// is not tied to any single caller's cancellation; a caller whose ctx ends
// first gets an empty mapping.
func (s *Source) Fetch(ctx context.Context) map[string]domain.InventoryItem {
	shared := context.WithoutCancel(ctx)
	ch := s.group.DoChan("fetch", func() (any, error) {
		items, err := s.fetch(shared)
		if err != nil {
			s.logger.Warn("inventory unavailable", zap.Error(err))
			return map[string]domain.InventoryItem{}, nil
		}
		return items, nil
	})
	select {
	case res := <-ch:
		return res.Val.(map[string]domain.InventoryItem)
	case <-ctx.Done():
		s.logger.Debug("inventory fetch abandoned", zap.Error(ctx.Err()))
		return map[string]domain.InventoryItem{}
	}
}

func (s *Source) fetch(ctx context.Context) (map[string]domain.InventoryItem, error) {
	records, err := s.records(ctx)
	if err != nil {
		return nil, err
	}
	items := make(map[string]domain.InventoryItem, len(records))
	for _, rec := range records {
		id := rec[ColumnID]
		if id == "" {
			continue
		}
		items[id] = domain.InventoryItem{
			ID:           id,
			Name:         orDefault(rec[ColumnName], placeholder),
			Description:  orDefault(rec[ColumnDescription], placeholder),
			TotalQty:     orDefault(rec[ColumnTotal], placeholder),
			AvailableQty: orDefault(rec[ColumnAvailable], placeholder),
			RequestType:  orDefault(rec[ColumnRequestType], "Normal"),
		}
	}
	return items, nil
}

// Table returns the raw stock rows in sheet order.
func (s *Source) Table(ctx context.Context) ([]Row, error) {
	records, err := s.records(ctx)
	if err != nil {
		return nil, apperrors.NewDataFetchFailure("inventory sheet", err)
	}
	rows := make([]Row, 0, len(records))
	for i, rec := range records {
		rows = append(rows, Row{
			Index:        i + 1,
			ID:           rec[ColumnID],
			Name:         rec[ColumnName],
			TotalQty:     rec[ColumnTotal],
			AvailableQty: rec[ColumnAvailable],
			Description:  rec[ColumnDescription],
			RequestType:  rec[ColumnRequestType],
		})
	}
	return rows, nil
}

func (s *Source) records(ctx context.Context) ([]map[string]string, error) {
	link, err := s.Link(ctx)
	if err != nil {
		return nil, err
	}
	if link == "" {
		return nil, errors.New("no inventory link configured")
	}
	exportURL, ok := s.resolve(link)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidLink, link)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, exportURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch sheet: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch sheet: unexpected status %d", resp.StatusCode)
	}
	return parseCSV(resp.Body)
}

func parseCSV(r io.Reader) ([]map[string]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	var records []map[string]string
	for {
		line, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		rec := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(line) {
				rec[name] = strings.TrimSpace(line[i])
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
