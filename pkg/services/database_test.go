package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gridsync-io/gridsync-engine/pkg/models"
	"github.com/gridsync-io/gridsync-engine/pkg/sheets"
)

func newDatabaseFixture(client *stubSheetsClient, maxAge time.Duration, dbs ...*models.SheetDatabase) (DatabaseService, uuid.UUID, *fakeDBRepo) {
	connID := uuid.New()
	connRepo := newFakeConnRepo(&models.Connection{ID: connID, Name: "Acme", APIKey: "AIzaKey"})
	for _, d := range dbs {
		d.ConnectionID = connID
	}
	dbRepo := newFakeDBRepo(dbs...)
	svc := NewDatabaseService(connRepo, dbRepo, newFakeTableRepo(), client, maxAge, zap.NewNop())
	return svc, connID, dbRepo
}

func TestDatabaseCreate_ProbesSheetList(t *testing.T) {
	client := &stubSheetsClient{
		listResult: &sheets.ListResult{SheetNames: []string{"Bookings", "Revenue"}, Source: sheets.MethodAPIKey},
	}
	svc, connID, _ := newDatabaseFixture(client, 24*time.Hour)

	db, err := svc.Create(context.Background(), connID, &models.SheetDatabase{Name: "Sales", SpreadsheetID: "1Bxi"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if db.Status != models.StatusConnected {
		t.Errorf("expected connected, got %s", db.Status)
	}
	if len(db.SheetNames) != 2 || db.SheetNamesFetchedAt.IsZero() {
		t.Errorf("tab list not cached: %+v", db)
	}
}

func TestDatabaseCreate_FallbackSourceFlagged(t *testing.T) {
	client := &stubSheetsClient{
		listResult: &sheets.ListResult{SheetNames: []string{"Bookings"}, Source: sheets.MethodFallback},
	}
	svc, connID, _ := newDatabaseFixture(client, 24*time.Hour)

	db, err := svc.Create(context.Background(), connID, &models.SheetDatabase{Name: "Sales", SpreadsheetID: "1Bxi"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if db.Status != models.StatusFallback {
		t.Errorf("expected fallback status, got %s", db.Status)
	}
}

func TestDatabaseCreate_ProbeFailureRecorded(t *testing.T) {
	client := &stubSheetsClient{listErr: errors.New("all fetch methods failed")}
	svc, connID, _ := newDatabaseFixture(client, 24*time.Hour)

	db, err := svc.Create(context.Background(), connID, &models.SheetDatabase{Name: "Sales", SpreadsheetID: "1Bxi"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if db.Status != models.StatusError || db.ErrorMessage == "" {
		t.Errorf("probe failure not recorded: %+v", db)
	}
}

func TestDatabaseGet_OpportunisticRefresh(t *testing.T) {
	stale := &models.SheetDatabase{
		ID:                  uuid.New(),
		Name:                "Sales",
		SpreadsheetID:       "1Bxi",
		SheetNames:          []string{"Old"},
		SheetNamesFetchedAt: time.Now().Add(-48 * time.Hour),
	}
	client := &stubSheetsClient{
		listResult: &sheets.ListResult{SheetNames: []string{"New"}, Source: sheets.MethodAPIKey},
	}
	svc, connID, _ := newDatabaseFixture(client, 24*time.Hour, stale)

	db, err := svc.Get(context.Background(), connID, stale.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if client.listCalls != 1 {
		t.Errorf("expected 1 probe, got %d", client.listCalls)
	}
	if len(db.SheetNames) != 1 || db.SheetNames[0] != "New" {
		t.Errorf("tab list not refreshed: %v", db.SheetNames)
	}
}

func TestDatabaseGet_FreshListSkipsProbe(t *testing.T) {
	fresh := &models.SheetDatabase{
		ID:                  uuid.New(),
		Name:                "Sales",
		SpreadsheetID:       "1Bxi",
		SheetNames:          []string{"Bookings"},
		SheetNamesFetchedAt: time.Now().Add(-time.Hour),
	}
	client := &stubSheetsClient{}
	svc, connID, _ := newDatabaseFixture(client, 24*time.Hour, fresh)

	if _, err := svc.Get(context.Background(), connID, fresh.ID); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if client.listCalls != 0 {
		t.Errorf("probe made despite fresh cache: %d calls", client.listCalls)
	}
}

func TestDatabaseGet_FailedRefreshKeepsStaleList(t *testing.T) {
	stale := &models.SheetDatabase{
		ID:                  uuid.New(),
		Name:                "Sales",
		SpreadsheetID:       "1Bxi",
		SheetNames:          []string{"Old"},
		SheetNamesFetchedAt: time.Now().Add(-48 * time.Hour),
	}
	client := &stubSheetsClient{listErr: errors.New("quota exhausted")}
	svc, connID, _ := newDatabaseFixture(client, 24*time.Hour, stale)

	db, err := svc.Get(context.Background(), connID, stale.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(db.SheetNames) != 1 || db.SheetNames[0] != "Old" {
		t.Errorf("stale list lost: %v", db.SheetNames)
	}
}

func TestDatabaseUpdate_NewSpreadsheetInvalidatesTabs(t *testing.T) {
	existing := &models.SheetDatabase{
		ID:            uuid.New(),
		Name:          "Sales",
		SpreadsheetID: "1Bxi",
		SheetNames:    []string{"Bookings"},
		Status:        models.StatusConnected,
	}
	svc, connID, _ := newDatabaseFixture(&stubSheetsClient{}, 24*time.Hour, existing)

	db, err := svc.Update(context.Background(), connID, &models.SheetDatabase{ID: existing.ID, SpreadsheetID: "2Xyz"})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if db.SheetNames != nil || db.Status != models.StatusPending {
		t.Errorf("cached tabs not invalidated: %+v", db)
	}
}

func TestDatabaseRefreshSheets_ForcesProbe(t *testing.T) {
	fresh := &models.SheetDatabase{
		ID:                  uuid.New(),
		Name:                "Sales",
		SpreadsheetID:       "1Bxi",
		SheetNames:          []string{"Old"},
		SheetNamesFetchedAt: time.Now(),
	}
	client := &stubSheetsClient{
		listResult: &sheets.ListResult{SheetNames: []string{"New"}, Source: sheets.MethodProxy},
	}
	svc, connID, _ := newDatabaseFixture(client, 24*time.Hour, fresh)

	db, err := svc.RefreshSheets(context.Background(), connID, fresh.ID)
	if err != nil {
		t.Fatalf("RefreshSheets failed: %v", err)
	}
	if client.listCalls != 1 {
		t.Errorf("expected forced probe, got %d calls", client.listCalls)
	}
	if db.SheetNames[0] != "New" {
		t.Errorf("tab list not refreshed: %v", db.SheetNames)
	}
}
