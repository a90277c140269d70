package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gridsync-io/gridsync-engine/pkg/cache"
	"github.com/gridsync-io/gridsync-engine/pkg/models"
)

// headerRange is the A1 range covering the header row of a tab.
const headerRange = "1:1"

// proxyStrategy calls the authenticated backend proxy. It only applies to
// connections carrying service-account credentials, pre-checks proxy health
// (cached) so an unreachable proxy is skipped without waiting out a timeout
// per call, and verifies spreadsheet access before the real fetch.
type proxyStrategy struct {
	baseURL     string
	client      *http.Client
	healthCache *cache.TTLCache
	healthTTL   time.Duration
}

func newProxyStrategy(baseURL string, client *http.Client, healthTTL time.Duration) *proxyStrategy {
	return &proxyStrategy{
		baseURL:     baseURL,
		client:      client,
		healthCache: cache.NewTTLCache(),
		healthTTL:   healthTTL,
	}
}

func (p *proxyStrategy) Name() Method {
	return MethodProxy
}

func (p *proxyStrategy) CanHandle(conn *models.Connection) bool {
	return conn != nil && conn.HasServiceAccount()
}

// connectionPayload is the credential material forwarded to the proxy.
type connectionPayload struct {
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
	ProjectID   string `json:"project_id"`
}

type testAccessRequest struct {
	SpreadsheetID string            `json:"spreadsheetId"`
	Connection    connectionPayload `json:"connection"`
}

type testAccessResponse struct {
	HasAccess        bool   `json:"hasAccess"`
	SpreadsheetTitle string `json:"spreadsheetTitle,omitempty"`
	Error            string `json:"error,omitempty"`
}

type fetchSheetsResponse struct {
	SheetNames []string `json:"sheetNames"`
	Error      string   `json:"error,omitempty"`
}

type fetchHeadersRequest struct {
	SpreadsheetID string            `json:"spreadsheetId"`
	SheetName     string            `json:"sheetName"`
	Range         string            `json:"range"`
	Connection    connectionPayload `json:"connection"`
}

type fetchHeadersResponse struct {
	Headers []string `json:"headers"`
	Error   string   `json:"error,omitempty"`
}

type fetchDataRequest struct {
	SpreadsheetID string            `json:"spreadsheetId"`
	SheetName     string            `json:"sheetName"`
	Range         string            `json:"range,omitempty"`
	Connection    connectionPayload `json:"connection"`
}

type fetchDataResponse struct {
	Data  [][]string `json:"data"`
	Error string     `json:"error,omitempty"`
}

func credentialsOf(conn *models.Connection) connectionPayload {
	return connectionPayload{
		ClientEmail: conn.ClientEmail,
		PrivateKey:  conn.PrivateKey,
		ProjectID:   conn.ProjectID,
	}
}

// healthy reports whether the proxy answered its health check recently.
// Results (both outcomes) are cached so a down proxy costs one probe per
// cache window, not one per operation.
func (p *proxyStrategy) healthy(ctx context.Context) bool {
	const key = "proxy:health"
	if v, ok := p.healthCache.Get(key); ok {
		healthy, _ := v.(bool)
		return healthy
	}

	healthy := p.probeHealth(ctx)
	p.healthCache.Set(key, healthy, p.healthTTL)
	return healthy
}

func (p *proxyStrategy) probeHealth(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// checkAccess runs the proxy's access test. Returns the spreadsheet title.
func (p *proxyStrategy) checkAccess(ctx context.Context, conn *models.Connection, spreadsheetID string) (string, error) {
	var result testAccessResponse
	err := p.post(ctx, "/api/testAccess", testAccessRequest{
		SpreadsheetID: spreadsheetID,
		Connection:    credentialsOf(conn),
	}, &result)
	if err != nil {
		return "", err
	}
	if result.Error != "" {
		return "", fmt.Errorf("%s", result.Error)
	}
	if !result.HasAccess {
		return "", fmt.Errorf("service account has no access to spreadsheet %s", spreadsheetID)
	}
	return result.SpreadsheetTitle, nil
}

// preflight gates every real call: health check first, then access test.
func (p *proxyStrategy) preflight(ctx context.Context, conn *models.Connection, spreadsheetID string) error {
	if !p.healthy(ctx) {
		return fmt.Errorf("proxy unreachable at %s", p.baseURL)
	}
	if _, err := p.checkAccess(ctx, conn, spreadsheetID); err != nil {
		return err
	}
	return nil
}

func (p *proxyStrategy) ListSheets(ctx context.Context, conn *models.Connection, spreadsheetID string) ([]string, error) {
	if err := p.preflight(ctx, conn, spreadsheetID); err != nil {
		return nil, err
	}

	var result fetchSheetsResponse
	err := p.post(ctx, "/api/fetchSheets", testAccessRequest{
		SpreadsheetID: spreadsheetID,
		Connection:    credentialsOf(conn),
	}, &result)
	if err != nil {
		return nil, err
	}
	if result.Error != "" {
		return nil, fmt.Errorf("%s", result.Error)
	}
	if len(result.SheetNames) == 0 {
		return nil, fmt.Errorf("proxy returned no sheet names")
	}
	return result.SheetNames, nil
}

func (p *proxyStrategy) FetchHeaders(ctx context.Context, conn *models.Connection, spreadsheetID, sheetName string) ([]string, error) {
	if err := p.preflight(ctx, conn, spreadsheetID); err != nil {
		return nil, err
	}

	var result fetchHeadersResponse
	err := p.post(ctx, "/api/fetchHeaders", fetchHeadersRequest{
		SpreadsheetID: spreadsheetID,
		SheetName:     sheetName,
		Range:         headerRange,
		Connection:    credentialsOf(conn),
	}, &result)
	if err != nil {
		return nil, err
	}
	if result.Error != "" {
		return nil, fmt.Errorf("%s", result.Error)
	}
	if len(result.Headers) == 0 {
		return nil, fmt.Errorf("proxy returned no headers for sheet %q", sheetName)
	}
	return result.Headers, nil
}

func (p *proxyStrategy) FetchData(ctx context.Context, conn *models.Connection, spreadsheetID, sheetName string) ([][]string, error) {
	if err := p.preflight(ctx, conn, spreadsheetID); err != nil {
		return nil, err
	}

	var result fetchDataResponse
	err := p.post(ctx, "/api/fetchData", fetchDataRequest{
		SpreadsheetID: spreadsheetID,
		SheetName:     sheetName,
		Connection:    credentialsOf(conn),
	}, &result)
	if err != nil {
		return nil, err
	}
	if result.Error != "" {
		return nil, fmt.Errorf("%s", result.Error)
	}
	if len(result.Data) == 0 {
		return nil, fmt.Errorf("proxy returned no data for sheet %q", sheetName)
	}
	return result.Data, nil
}

func (p *proxyStrategy) TestAccess(ctx context.Context, conn *models.Connection, spreadsheetID string) (string, error) {
	if !p.healthy(ctx) {
		return "", fmt.Errorf("proxy unreachable at %s", p.baseURL)
	}
	return p.checkAccess(ctx, conn, spreadsheetID)
}

// post issues a JSON POST against the proxy and decodes the response body.
func (p *proxyStrategy) post(ctx context.Context, path string, body, dest any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("proxy request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read proxy response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("proxy returned status %d: %s", resp.StatusCode, string(raw))
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("failed to decode proxy response: %w", err)
	}
	return nil
}

// Ensure proxyStrategy implements Strategy at compile time.
var _ Strategy = (*proxyStrategy)(nil)
