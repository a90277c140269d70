package services

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/gridsync-io/gridsync-engine/pkg/apperrors"
	"github.com/gridsync-io/gridsync-engine/pkg/models"
	"github.com/gridsync-io/gridsync-engine/pkg/sheets"
)

// In-memory fakes for the repository interfaces. Writes go through shallow
// copies so a test's fixtures are not mutated behind its back.

type fakeConnRepo struct {
	conns map[uuid.UUID]*models.Connection
}

func newFakeConnRepo(conns ...*models.Connection) *fakeConnRepo {
	r := &fakeConnRepo{conns: make(map[uuid.UUID]*models.Connection)}
	for _, c := range conns {
		cp := *c
		r.conns[c.ID] = &cp
	}
	return r
}

func (r *fakeConnRepo) Save(ctx context.Context, conn *models.Connection) error {
	cp := *conn
	r.conns[conn.ID] = &cp
	return nil
}

func (r *fakeConnRepo) Get(ctx context.Context, id uuid.UUID) (*models.Connection, error) {
	c, ok := r.conns[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeConnRepo) List(ctx context.Context) ([]*models.Connection, error) {
	var out []*models.Connection
	for _, c := range r.conns {
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeConnRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.conns, id)
	return nil
}

type fakeDBRepo struct {
	dbs map[uuid.UUID]*models.SheetDatabase
}

func newFakeDBRepo(dbs ...*models.SheetDatabase) *fakeDBRepo {
	r := &fakeDBRepo{dbs: make(map[uuid.UUID]*models.SheetDatabase)}
	for _, d := range dbs {
		cp := *d
		r.dbs[d.ID] = &cp
	}
	return r
}

func (r *fakeDBRepo) Save(ctx context.Context, connectionID uuid.UUID, db *models.SheetDatabase) error {
	cp := *db
	r.dbs[db.ID] = &cp
	return nil
}

func (r *fakeDBRepo) Get(ctx context.Context, connectionID, id uuid.UUID) (*models.SheetDatabase, error) {
	d, ok := r.dbs[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (r *fakeDBRepo) List(ctx context.Context, connectionID uuid.UUID) ([]*models.SheetDatabase, error) {
	var out []*models.SheetDatabase
	for _, d := range r.dbs {
		if d.ConnectionID == connectionID {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeDBRepo) Delete(ctx context.Context, connectionID, id uuid.UUID) error {
	delete(r.dbs, id)
	return nil
}

type fakeTableRepo struct {
	tables map[uuid.UUID]*models.SheetTable
	saves  int
}

func newFakeTableRepo(tables ...*models.SheetTable) *fakeTableRepo {
	r := &fakeTableRepo{tables: make(map[uuid.UUID]*models.SheetTable)}
	for _, t := range tables {
		cp := *t
		r.tables[t.ID] = &cp
	}
	return r
}

func (r *fakeTableRepo) Save(ctx context.Context, connectionID, databaseID uuid.UUID, table *models.SheetTable) error {
	cp := *table
	r.tables[table.ID] = &cp
	r.saves++
	return nil
}

func (r *fakeTableRepo) Get(ctx context.Context, connectionID, databaseID, id uuid.UUID) (*models.SheetTable, error) {
	t, ok := r.tables[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTableRepo) List(ctx context.Context, connectionID, databaseID uuid.UUID) ([]*models.SheetTable, error) {
	var out []*models.SheetTable
	for _, t := range r.tables {
		if t.DatabaseID == databaseID {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeTableRepo) Delete(ctx context.Context, connectionID, databaseID, id uuid.UUID) error {
	delete(r.tables, id)
	return nil
}

type fakeHeaderRepo struct {
	mappings map[uuid.UUID]*models.HeaderMapping
	order    []uuid.UUID
}

func newFakeHeaderRepo(mappings ...*models.HeaderMapping) *fakeHeaderRepo {
	r := &fakeHeaderRepo{mappings: make(map[uuid.UUID]*models.HeaderMapping)}
	for _, m := range mappings {
		cp := *m
		r.mappings[m.ID] = &cp
		r.order = append(r.order, m.ID)
	}
	return r
}

func (r *fakeHeaderRepo) Save(ctx context.Context, connectionID, databaseID, tableID uuid.UUID, mapping *models.HeaderMapping) error {
	if _, ok := r.mappings[mapping.ID]; !ok {
		r.order = append(r.order, mapping.ID)
	}
	cp := *mapping
	r.mappings[mapping.ID] = &cp
	return nil
}

func (r *fakeHeaderRepo) SaveAll(ctx context.Context, connectionID, databaseID, tableID uuid.UUID, mappings []*models.HeaderMapping) error {
	for _, m := range mappings {
		if err := r.Save(ctx, connectionID, databaseID, tableID, m); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeHeaderRepo) List(ctx context.Context, connectionID, databaseID, tableID uuid.UUID) ([]*models.HeaderMapping, error) {
	var out []*models.HeaderMapping
	for _, id := range r.order {
		if m, ok := r.mappings[id]; ok {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeHeaderRepo) Delete(ctx context.Context, connectionID, databaseID, tableID, id uuid.UUID) error {
	delete(r.mappings, id)
	return nil
}

type fakeRowRepo struct {
	rows           []*models.SyncedRow
	deleteAllCalls int
	saveCalls      int
	saveErr        error
	listErr        error
}

func (r *fakeRowRepo) Save(ctx context.Context, connectionID, databaseID, tableID uuid.UUID, row *models.SyncedRow) error {
	r.saveCalls++
	if r.saveErr != nil {
		return r.saveErr
	}
	cp := *row
	r.rows = append(r.rows, &cp)
	return nil
}

func (r *fakeRowRepo) List(ctx context.Context, connectionID, databaseID, tableID uuid.UUID) ([]*models.SyncedRow, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.rows, nil
}

func (r *fakeRowRepo) DeleteAll(ctx context.Context, connectionID, databaseID, tableID uuid.UUID) error {
	r.deleteAllCalls++
	r.rows = nil
	return nil
}

// stubSheetsClient is a canned sheets.Client.
type stubSheetsClient struct {
	listResult    *sheets.ListResult
	listErr       error
	headersResult *sheets.HeadersResult
	headersErr    error
	dataResult    *sheets.DataResult
	dataErr       error
	accessResult  *sheets.AccessResult
	accessErr     error

	listCalls    int
	headersCalls int
	dataCalls    int
	accessCalls  int
}

var errStubUnset = errors.New("stub result not configured")

func (c *stubSheetsClient) ListSheets(ctx context.Context, conn *models.Connection, spreadsheetID string) (*sheets.ListResult, error) {
	c.listCalls++
	if c.listErr != nil {
		return nil, c.listErr
	}
	if c.listResult == nil {
		return nil, errStubUnset
	}
	return c.listResult, nil
}

func (c *stubSheetsClient) FetchHeaders(ctx context.Context, conn *models.Connection, spreadsheetID, sheetName string) (*sheets.HeadersResult, error) {
	c.headersCalls++
	if c.headersErr != nil {
		return nil, c.headersErr
	}
	if c.headersResult == nil {
		return nil, errStubUnset
	}
	return c.headersResult, nil
}

func (c *stubSheetsClient) FetchData(ctx context.Context, conn *models.Connection, spreadsheetID, sheetName string) (*sheets.DataResult, error) {
	c.dataCalls++
	if c.dataErr != nil {
		return nil, c.dataErr
	}
	if c.dataResult == nil {
		return nil, errStubUnset
	}
	return c.dataResult, nil
}

func (c *stubSheetsClient) TestAccess(ctx context.Context, conn *models.Connection, spreadsheetID string) (*sheets.AccessResult, error) {
	c.accessCalls++
	if c.accessErr != nil {
		return nil, c.accessErr
	}
	if c.accessResult == nil {
		return &sheets.AccessResult{SpreadsheetTitle: "Stub Sheet", Source: sheets.MethodProxy}, nil
	}
	return c.accessResult, nil
}
