package sheet

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/api/option"

	"baselav/internal/codec"
	"baselav/internal/domain"
	"baselav/internal/model"
	"baselav/internal/reminder"
)

const (
	testSpreadsheet = "sheet-123"
	testSheetName   = "Base Lavadoras - BD"
)

var testNow = time.Date(2024, time.March, 15, 9, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*SheetService, *fakeSheets) {
	t.Helper()
	fake, srv := newFakeSheets(t, testSpreadsheet)
	s, err := NewSheetServiceWithOptions(context.Background(), testSpreadsheet, testSheetName, 0, zaptest.NewLogger(t),
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return s, fake
}

func testCodec() *codec.Codec {
	return codec.New(reminder.ClockFunc(func() time.Time { return testNow }))
}

func record(id, client string, day int) model.ServiceRecord {
	serviceDate := time.Date(2023, time.January, day, 10, 0, 0, 0, time.UTC)
	next := reminder.NextReminder(serviceDate)
	return model.ServiceRecord{
		ID:              id,
		RegisteredAt:    serviceDate,
		ClientName:      client,
		Address:         "Jr. Lima 456",
		Phone:           "999888777",
		ApplianceType:   model.ApplianceWasher,
		Brand:           "Samsung",
		WeightKg:        9,
		AgeYears:        2,
		Kind:            model.ServiceKindRepair,
		ServiceDate:     serviceDate,
		WorkDescription: "Cambio de bomba",
		TotalCost:       120,
		ReminderEnabled: true,
		NextReminder:    &next,
	}
}

func headerCells() []interface{} {
	row := make([]interface{}, len(codec.Headers))
	for i, h := range codec.Headers {
		row[i] = h
	}
	return row
}

func TestNewSheetServiceWithOptions_Validation(t *testing.T) {
	_, err := NewSheetServiceWithOptions(context.Background(), "", testSheetName, 0, nil, option.WithoutAuthentication())
	assert.Error(t, err)

	_, err = NewSheetServiceWithOptions(context.Background(), testSpreadsheet, "", 0, nil, option.WithoutAuthentication())
	assert.Error(t, err)
}

func TestNewSheetService_BadCredentials(t *testing.T) {
	_, err := NewSheetService(context.Background(), "%%%не base64%%%", testSpreadsheet, testSheetName, 0, nil)
	assert.Error(t, err)
}

func TestEnsureSchema_CreatesSheetAndHeader(t *testing.T) {
	s, fake := newTestService(t)
	ctx := context.Background()

	require.NoError(t, s.EnsureSchema(ctx))

	sh := fake.sheet(testSheetName)
	require.NotNil(t, sh)
	require.Len(t, sh.rows, 1)
	assert.Equal(t, headerCells(), sh.rows[0])
	assert.True(t, sh.styled)

	// повторный вызов ничего не меняет
	updates := fake.calls["valuesUpdate"]
	require.NoError(t, s.EnsureSchema(ctx))
	assert.Equal(t, updates, fake.calls["valuesUpdate"])
	assert.Len(t, fake.sheet(testSheetName).rows, 1)
}

func TestEnsureSchema_KeepsExistingHeader(t *testing.T) {
	s, fake := newTestService(t)
	custom := []interface{}{"id", "fecha"}
	fake.addSheet(testSheetName, custom)

	require.NoError(t, s.EnsureSchema(context.Background()))

	sh := fake.sheet(testSheetName)
	assert.Equal(t, custom, sh.rows[0])
	assert.False(t, sh.styled)
	assert.Zero(t, fake.calls["batchUpdate"])
}

func TestEnsureSchema_WritesHeaderIntoExistingEmptySheet(t *testing.T) {
	s, fake := newTestService(t)
	fake.addSheet("Otra hoja")
	fake.addSheet(testSheetName)

	require.NoError(t, s.EnsureSchema(context.Background()))

	sh := fake.sheet(testSheetName)
	require.Len(t, sh.rows, 1)
	assert.Equal(t, headerCells(), sh.rows[0])
	assert.True(t, sh.styled)
	assert.Nil(t, fake.sheet("Otra hoja").rows)
}

func TestEnsureSchema_FailureIsBootstrapError(t *testing.T) {
	s, fake := newTestService(t)
	fake.fail["get"] = http.StatusForbidden

	err := s.EnsureSchema(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrSchemaBootstrap))
	assert.True(t, errors.Is(err, domain.ErrStore))

	var storeErr *domain.StoreError
	require.True(t, errors.As(err, &storeErr))
	assert.Equal(t, "ensure schema", storeErr.Op)
}

func TestAppendAndScanAll(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	c := testCodec()
	require.NoError(t, s.EnsureSchema(ctx))

	rows, err := s.ScanAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows)

	first := record("rec0000001", "Ana Lopez", 10)
	second := record("rec0000002", "Luis Diaz", 12)
	require.NoError(t, s.Append(ctx, c.Encode(first)))
	require.NoError(t, s.Append(ctx, c.Encode(second)))

	rows, err = s.ScanAll(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 2, rows[0].Position)
	assert.Equal(t, 3, rows[1].Position)
	assert.Equal(t, first, c.Decode(rows[0].Values))
	assert.Equal(t, second, c.Decode(rows[1].Values))
}

func TestScanAll_SkipsBlankRowsKeepingPositions(t *testing.T) {
	s, fake := newTestService(t)
	c := testCodec()
	fake.addSheet(testSheetName,
		headerCells(),
		[]interface{}(c.Encode(record("rec0000001", "Ana Lopez", 10))),
		[]interface{}{},
		[]interface{}{"", "2023-01-01"},
		[]interface{}(c.Encode(record("rec0000004", "Luis Diaz", 12))),
	)

	rows, err := s.ScanAll(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 2, rows[0].Position)
	assert.Equal(t, 5, rows[1].Position)
	assert.Equal(t, "rec0000004", c.Decode(rows[1].Values).ID)
}

func TestScanAll_MixedLayouts(t *testing.T) {
	s, fake := newTestService(t)
	c := testCodec()
	legacy := []interface{}{
		"old0000001", "2022-05-01T10:00:00.000Z", "Rosa Quispe", "Av. Peru 12", "912345678", "",
		"Lavadora", "LG", "", 8.0, 5.0, "SI", "NO",
		"2022-05-01T10:00:00.000Z", "Limpieza", 80.0, "", "", "SI", "2023-05-01T10:00:00.000Z",
	}
	fake.addSheet(testSheetName,
		headerCells(),
		legacy,
		[]interface{}(c.Encode(record("new0000001", "Ana Lopez", 10))),
	)

	rows, err := s.ScanAll(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	old := c.Decode(rows[0].Values)
	assert.Equal(t, "Rosa Quispe", old.ClientName)
	assert.Equal(t, model.ServiceKindRepair, old.Kind)
	assert.Equal(t, "Limpieza", old.WorkDescription)
	assert.Equal(t, 80.0, old.TotalCost)
	assert.True(t, old.HasRatGuard)
	assert.True(t, old.ReminderEnabled)
	require.NotNil(t, old.NextReminder)
	assert.Equal(t, time.Date(2023, time.May, 1, 10, 0, 0, 0, time.UTC), *old.NextReminder)

	current := c.Decode(rows[1].Values)
	assert.Equal(t, "new0000001", current.ID)
	assert.Equal(t, model.ServiceKindRepair, current.Kind)
}

func TestUpdateAt(t *testing.T) {
	s, fake := newTestService(t)
	ctx := context.Background()
	c := testCodec()
	fake.addSheet(testSheetName,
		headerCells(),
		[]interface{}(c.Encode(record("rec0000001", "Ana Lopez", 10))),
		[]interface{}(c.Encode(record("rec0000002", "Luis Diaz", 12))),
	)

	changed := record("rec0000002", "Luis Diaz", 12)
	changed.Contacted = true
	changed.TotalCost = 200
	require.NoError(t, s.UpdateAt(ctx, 3, c.Encode(changed)))

	rows, err := s.ScanAll(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, changed, c.Decode(rows[1].Values))
	assert.Equal(t, "rec0000001", c.Decode(rows[0].Values).ID)
}

func TestDeleteAt_ShiftsFollowingRows(t *testing.T) {
	s, fake := newTestService(t)
	ctx := context.Background()
	c := testCodec()
	rows := [][]interface{}{headerCells()}
	ids := []string{"rec0000001", "rec0000002", "rec0000003", "rec0000004", "rec0000005"}
	for i, id := range ids {
		rows = append(rows, []interface{}(c.Encode(record(id, "Cliente", i+1))))
	}
	fake.addSheet(testSheetName, rows...)

	require.NoError(t, s.DeleteAt(ctx, 2))

	got, err := s.ScanAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 4)
	for i, r := range got {
		assert.Equal(t, i+2, r.Position)
		assert.Equal(t, ids[i+1], c.Decode(r.Values).ID)
	}
}

func TestPositionalWrites_RejectHeaderPosition(t *testing.T) {
	s, fake := newTestService(t)
	ctx := context.Background()
	fake.addSheet(testSheetName, headerCells())

	for _, pos := range []int{0, 1} {
		err := s.UpdateAt(ctx, pos, domain.Row{"x"})
		assert.True(t, errors.Is(err, domain.ErrStore))

		err = s.DeleteAt(ctx, pos)
		assert.True(t, errors.Is(err, domain.ErrStore))
	}
	assert.Zero(t, fake.calls["valuesUpdate"])
	assert.Zero(t, fake.calls["batchUpdate"])
}

func TestStoreErrorsCarryOperation(t *testing.T) {
	s, fake := newTestService(t)
	ctx := context.Background()
	fake.addSheet(testSheetName, headerCells())
	fake.fail["valuesGet"] = http.StatusForbidden
	fake.fail["append"] = http.StatusForbidden
	fake.fail["valuesUpdate"] = http.StatusForbidden
	fake.fail["batchUpdate"] = http.StatusForbidden

	_, scanErr := s.ScanAll(ctx)
	cases := map[string]error{
		"scan all":  scanErr,
		"append":    s.Append(ctx, domain.Row{"x"}),
		"update at": s.UpdateAt(ctx, 2, domain.Row{"x"}),
		"delete at": s.DeleteAt(ctx, 2),
	}
	for op, err := range cases {
		require.Error(t, err, op)
		assert.True(t, errors.Is(err, domain.ErrStore), op)
		assert.False(t, errors.Is(err, domain.ErrSchemaBootstrap), op)

		var storeErr *domain.StoreError
		require.True(t, errors.As(err, &storeErr), op)
		assert.Equal(t, op, storeErr.Op)
	}
}

func TestWait_RespectsContext(t *testing.T) {
	s, _ := newTestService(t)
	s.PauseMs = 10_000
	s.lastCall = time.Now()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Wait(ctx), context.Canceled)
}

func TestColumnLetter(t *testing.T) {
	assert.Equal(t, "A", columnLetter(1))
	assert.Equal(t, "W", columnLetter(23))
	assert.Equal(t, "Z", columnLetter(26))
	assert.Equal(t, "AA", columnLetter(27))
}

func TestRangeQuotesSheetName(t *testing.T) {
	s := &SheetService{SheetName: "Hoja d'Ana"}
	assert.Equal(t, "'Hoja d''Ana'!A2:W", s.rangeOf(2, 0))
	assert.Equal(t, "'Hoja d''Ana'!A5:W5", s.rangeOf(5, 5))
	assert.Equal(t, "'Hoja d''Ana'!A:W", s.columnsRange())
}
