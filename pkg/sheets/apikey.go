package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/gridsync-io/gridsync-engine/pkg/jsonutil"
	"github.com/gridsync-io/gridsync-engine/pkg/models"
)

// apiKeyStrategy reads through the public read-only REST endpoints using the
// connection's bare API key. Only public ("anyone with the link") sheets are
// reachable this way; the status mapping turns the usual failure modes into
// guidance an operator can act on.
type apiKeyStrategy struct {
	baseURL string
	client  *http.Client
}

func newAPIKeyStrategy(baseURL string, client *http.Client) *apiKeyStrategy {
	return &apiKeyStrategy{baseURL: baseURL, client: client}
}

func (a *apiKeyStrategy) Name() Method {
	return MethodAPIKey
}

func (a *apiKeyStrategy) CanHandle(conn *models.Connection) bool {
	return conn != nil && conn.HasAPIKey()
}

type spreadsheetMetadata struct {
	Properties struct {
		Title string `json:"title"`
	} `json:"properties"`
	Sheets []struct {
		Properties struct {
			Title string `json:"title"`
		} `json:"properties"`
	} `json:"sheets"`
}

// valueRange decodes cells as raw JSON: the public API returns numbers and
// booleans unquoted.
type valueRange struct {
	Values [][]json.RawMessage `json:"values"`
}

func (a *apiKeyStrategy) ListSheets(ctx context.Context, conn *models.Connection, spreadsheetID string) ([]string, error) {
	endpoint := fmt.Sprintf("%s/spreadsheets/%s?key=%s&fields=sheets.properties.title",
		a.baseURL, url.PathEscape(spreadsheetID), url.QueryEscape(conn.APIKey))

	var meta spreadsheetMetadata
	if err := a.get(ctx, endpoint, &meta); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(meta.Sheets))
	for _, s := range meta.Sheets {
		names = append(names, s.Properties.Title)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("spreadsheet has no visible sheets")
	}
	return names, nil
}

func (a *apiKeyStrategy) FetchHeaders(ctx context.Context, conn *models.Connection, spreadsheetID, sheetName string) ([]string, error) {
	rows, err := a.fetchRange(ctx, conn, spreadsheetID, sheetName, headerRange)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("sheet %q returned an empty header row", sheetName)
	}
	return rows[0], nil
}

func (a *apiKeyStrategy) FetchData(ctx context.Context, conn *models.Connection, spreadsheetID, sheetName string) ([][]string, error) {
	rows, err := a.fetchRange(ctx, conn, spreadsheetID, sheetName, "")
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q returned no values", sheetName)
	}
	return rows, nil
}

func (a *apiKeyStrategy) TestAccess(ctx context.Context, conn *models.Connection, spreadsheetID string) (string, error) {
	endpoint := fmt.Sprintf("%s/spreadsheets/%s?key=%s&fields=properties.title",
		a.baseURL, url.PathEscape(spreadsheetID), url.QueryEscape(conn.APIKey))

	var meta spreadsheetMetadata
	if err := a.get(ctx, endpoint, &meta); err != nil {
		return "", err
	}
	return meta.Properties.Title, nil
}

func (a *apiKeyStrategy) fetchRange(ctx context.Context, conn *models.Connection, spreadsheetID, sheetName, rangeSpec string) ([][]string, error) {
	rangeRef := sheetName
	if rangeSpec != "" {
		rangeRef = sheetName + "!" + rangeSpec
	}
	endpoint := fmt.Sprintf("%s/spreadsheets/%s/values/%s?key=%s",
		a.baseURL, url.PathEscape(spreadsheetID), url.PathEscape(rangeRef), url.QueryEscape(conn.APIKey))

	var vr valueRange
	if err := a.get(ctx, endpoint, &vr); err != nil {
		return nil, err
	}
	return jsonutil.FlexibleStringRows(vr.Values), nil
}

func (a *apiKeyStrategy) get(ctx context.Context, endpoint string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return statusError(resp.StatusCode)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// statusError maps the public API's status codes to operator guidance.
func statusError(status int) error {
	switch status {
	case http.StatusUnauthorized:
		return fmt.Errorf("API key rejected (401): verify the key is valid and has the Sheets API enabled")
	case http.StatusForbidden:
		return fmt.Errorf("access denied (403): the spreadsheet must be shared as 'anyone with the link can view' for API key access")
	case http.StatusNotFound:
		return fmt.Errorf("spreadsheet or sheet not found (404): check the spreadsheet id and tab name")
	case http.StatusTooManyRequests:
		return fmt.Errorf("rate limited (429): the Sheets API quota is exhausted, try again later")
	default:
		return fmt.Errorf("unexpected status %d from sheets API", status)
	}
}

// Ensure apiKeyStrategy implements Strategy at compile time.
var _ Strategy = (*apiKeyStrategy)(nil)
