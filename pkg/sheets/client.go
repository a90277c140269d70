// Package sheets resolves sheet metadata and data for a spreadsheet id
// through an ordered chain of access strategies: authenticated backend
// proxy, public API key, then a static fallback catalog. Strategy failures
// are logged and swallowed at the chain boundary; an operation only fails
// once every applicable strategy is exhausted.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gridsync-io/gridsync-engine/pkg/apperrors"
	"github.com/gridsync-io/gridsync-engine/pkg/cache"
	"github.com/gridsync-io/gridsync-engine/pkg/config"
	"github.com/gridsync-io/gridsync-engine/pkg/logging"
	"github.com/gridsync-io/gridsync-engine/pkg/models"
)

// Method identifies which access strategy produced a result. Callers use it
// to distinguish live data from catalog placeholders.
type Method string

const (
	MethodProxy    Method = "proxy"
	MethodAPIKey   Method = "api_key"
	MethodFallback Method = "fallback"
)

// ListResult is an ordered tab-name list and its source.
type ListResult struct {
	SheetNames []string `json:"sheet_names"`
	Source     Method   `json:"source"`
}

// HeadersResult is an ordered header row and its source.
type HeadersResult struct {
	Headers []string `json:"headers"`
	Source  Method   `json:"source"`
}

// DataResult is a full sheet value range. Row 0 is the header row; the
// caller decides whether to discard it.
type DataResult struct {
	Rows   [][]string `json:"rows"`
	Source Method     `json:"source"`
}

// AccessResult reports a successful access test.
type AccessResult struct {
	SpreadsheetTitle string `json:"spreadsheet_title"`
	Source           Method `json:"source"`
}

// Client is the sheet-access surface the rest of the system depends on.
type Client interface {
	// ListSheets returns the spreadsheet's tab names. Results are cached
	// per spreadsheet id for the configured window.
	ListSheets(ctx context.Context, conn *models.Connection, spreadsheetID string) (*ListResult, error)

	// FetchHeaders returns the named tab's header row, cleaned of empty
	// cells.
	FetchHeaders(ctx context.Context, conn *models.Connection, spreadsheetID, sheetName string) (*HeadersResult, error)

	// FetchData returns the named tab's full value range. There is no
	// static fallback for data; the chain can genuinely fail here.
	FetchData(ctx context.Context, conn *models.Connection, spreadsheetID, sheetName string) (*DataResult, error)

	// TestAccess verifies the spreadsheet is readable and returns its
	// title.
	TestAccess(ctx context.Context, conn *models.Connection, spreadsheetID string) (*AccessResult, error)
}

// Strategy is one access method in the chain. Each method returns its
// result or an error; the chain driver decides whether to fall through.
type Strategy interface {
	// Name identifies the strategy in logs and aggregated errors.
	Name() Method

	// CanHandle reports whether the connection carries the credentials
	// this strategy needs. Strategies that cannot handle a connection are
	// skipped without a network call.
	CanHandle(conn *models.Connection) bool

	ListSheets(ctx context.Context, conn *models.Connection, spreadsheetID string) ([]string, error)
	FetchHeaders(ctx context.Context, conn *models.Connection, spreadsheetID, sheetName string) ([]string, error)
	FetchData(ctx context.Context, conn *models.Connection, spreadsheetID, sheetName string) ([][]string, error)
	TestAccess(ctx context.Context, conn *models.Connection, spreadsheetID string) (string, error)
}

// chainClient drives the ordered strategy list.
type chainClient struct {
	strategies []Strategy
	listCache  *cache.TTLCache
	persistent *cache.PersistentCache
	listTTL    time.Duration
	logger     *zap.Logger
}

// NewClient builds the production chain: proxy, API key, fallback catalog.
// persistent may be nil; when set, tab lists additionally survive process
// restarts through it.
func NewClient(cfg *config.SheetsConfig, persistent *cache.PersistentCache, logger *zap.Logger) Client {
	httpClient := newHTTPClient(cfg.RequestTimeout())
	c := NewClientWithStrategies(
		[]Strategy{
			newProxyStrategy(cfg.ProxyBaseURL, httpClient, cfg.HealthCacheTTL()),
			newAPIKeyStrategy(cfg.PublicAPIURL, httpClient),
			newFallbackCatalog(),
		},
		cfg.SheetListCacheTTL(),
		logger,
	)
	c.(*chainClient).persistent = persistent
	return c
}

// NewClientWithStrategies builds a client over an explicit strategy list.
// Tests use this to exercise the chain ordering strategy-by-strategy.
func NewClientWithStrategies(strategies []Strategy, listTTL time.Duration, logger *zap.Logger) Client {
	return &chainClient{
		strategies: strategies,
		listCache:  cache.NewTTLCache(),
		listTTL:    listTTL,
		logger:     logger,
	}
}

func listCacheKey(spreadsheetID string) string {
	return "sheets:" + spreadsheetID
}

// ListSheets returns the tab list, serving repeat calls from the cache.
// Fallback results are not cached: a later call should retry live methods.
func (c *chainClient) ListSheets(ctx context.Context, conn *models.Connection, spreadsheetID string) (*ListResult, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id is required")
	}

	if v, ok := c.listCache.Get(listCacheKey(spreadsheetID)); ok {
		if cached, ok := v.(*ListResult); ok {
			return cached, nil
		}
	}
	if c.persistent != nil {
		var cached ListResult
		if c.persistent.Get(ctx, listCacheKey(spreadsheetID), &cached) && cached.Source != MethodFallback {
			c.listCache.Set(listCacheKey(spreadsheetID), &cached, c.listTTL)
			return &cached, nil
		}
	}

	var errs []error
	for _, s := range c.strategies {
		if !s.CanHandle(conn) {
			continue
		}
		names, err := s.ListSheets(ctx, conn, spreadsheetID)
		if err != nil {
			c.logFallthrough(s, "listSheets", spreadsheetID, err)
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		result := &ListResult{SheetNames: names, Source: s.Name()}
		if result.Source != MethodFallback {
			c.listCache.Set(listCacheKey(spreadsheetID), result, c.listTTL)
			if c.persistent != nil {
				c.persistent.Set(ctx, listCacheKey(spreadsheetID), result, c.listTTL)
			}
		}
		return result, nil
	}
	return nil, chainError(errs)
}

// FetchHeaders returns the cleaned header row of one tab.
func (c *chainClient) FetchHeaders(ctx context.Context, conn *models.Connection, spreadsheetID, sheetName string) (*HeadersResult, error) {
	if spreadsheetID == "" || sheetName == "" {
		return nil, fmt.Errorf("spreadsheet id and sheet name are required")
	}

	var errs []error
	for _, s := range c.strategies {
		if !s.CanHandle(conn) {
			continue
		}
		headers, err := s.FetchHeaders(ctx, conn, spreadsheetID, sheetName)
		if err != nil {
			c.logFallthrough(s, "fetchHeaders", spreadsheetID, err)
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		return &HeadersResult{Headers: normalizeHeaders(headers), Source: s.Name()}, nil
	}
	return nil, chainError(errs)
}

// FetchData returns the full value range of one tab.
func (c *chainClient) FetchData(ctx context.Context, conn *models.Connection, spreadsheetID, sheetName string) (*DataResult, error) {
	if spreadsheetID == "" || sheetName == "" {
		return nil, fmt.Errorf("spreadsheet id and sheet name are required")
	}

	var errs []error
	for _, s := range c.strategies {
		if !s.CanHandle(conn) {
			continue
		}
		rows, err := s.FetchData(ctx, conn, spreadsheetID, sheetName)
		if err != nil {
			c.logFallthrough(s, "fetchData", spreadsheetID, err)
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		return &DataResult{Rows: rows, Source: s.Name()}, nil
	}
	return nil, chainError(errs)
}

// TestAccess verifies readability and returns the spreadsheet title.
func (c *chainClient) TestAccess(ctx context.Context, conn *models.Connection, spreadsheetID string) (*AccessResult, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id is required")
	}

	var errs []error
	for _, s := range c.strategies {
		if !s.CanHandle(conn) {
			continue
		}
		title, err := s.TestAccess(ctx, conn, spreadsheetID)
		if err != nil {
			c.logFallthrough(s, "testAccess", spreadsheetID, err)
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		return &AccessResult{SpreadsheetTitle: title, Source: s.Name()}, nil
	}
	return nil, chainError(errs)
}

func (c *chainClient) logFallthrough(s Strategy, op, spreadsheetID string, err error) {
	c.logger.Warn("Sheet access method failed, falling through",
		zap.String("method", string(s.Name())),
		zap.String("operation", op),
		zap.String("spreadsheet_id", spreadsheetID),
		zap.String("error", logging.SanitizeError(err)),
	)
}

func chainError(errs []error) error {
	if len(errs) == 0 {
		return fmt.Errorf("%w: no access method applicable", apperrors.ErrAllStrategiesFailed)
	}
	return fmt.Errorf("%w: %w", apperrors.ErrAllStrategiesFailed, errors.Join(errs...))
}

// normalizeHeaders truncates the row at the first empty or whitespace-only
// cell and trims the rest. Sources pad header rows with trailing blanks;
// everything past the first blank belongs to no column.
func normalizeHeaders(cells []string) []string {
	headers := make([]string, 0, len(cells))
	for _, c := range cells {
		trimmed := strings.TrimSpace(c)
		if trimmed == "" {
			break
		}
		headers = append(headers, trimmed)
	}
	return headers
}

// Ensure chainClient implements Client at compile time.
var _ Client = (*chainClient)(nil)
