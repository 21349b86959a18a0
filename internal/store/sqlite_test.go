package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/vnreg-cli/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func sampleCompany(taxCode string) *model.Company {
	return &model.Company{
		TaxCode:            taxCode,
		Name:               "CÔNG TY TNHH THƯƠNG MẠI ABC",
		Representative:     "Nguyễn Văn A",
		Phone:              "0912345678",
		RegisteredAddress:  "Số 12 Trần Hưng Đạo, Hoàn Kiếm",
		Province:           "Hà Nội",
		MainBusinessLine:   "Bán buôn máy vi tính",
		OtherBusinessLines: []string{"Sản xuất linh kiện điện tử", "Dịch vụ tin học"},
		OperatingStatus:    model.StatusActive,
		Source:             model.SourceAPI,
	}
}

func TestSQLiteInsertGet(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	c := sampleCompany("0101234567")
	require.NoError(t, s.Insert(ctx, c))

	got, err := s.Get(ctx, "0101234567")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, c.Name, got.Name)
	assert.Equal(t, c.OtherBusinessLines, got.OtherBusinessLines)
	assert.Equal(t, model.SourceAPI, got.Source)
	assert.False(t, got.CreatedAt.IsZero())
	assert.False(t, got.UpdatedAt.IsZero())
}

func TestSQLiteGetMissing(t *testing.T) {
	s := newTestSQLite(t)

	got, err := s.Get(context.Background(), "9999999999")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLiteExists(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	ok, err := s.Exists(ctx, "0101234567")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Insert(ctx, sampleCompany("0101234567")))

	ok, err = s.Exists(ctx, "0101234567")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSQLiteUpdate(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	c := sampleCompany("0101234567")
	require.NoError(t, s.Insert(ctx, c))
	inserted, err := s.Get(ctx, "0101234567")
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	c.Name = "CÔNG TY TNHH THƯƠNG MẠI ABC (ĐỔI TÊN)"
	c.Phone = "0987654321"
	require.NoError(t, s.Update(ctx, c))

	got, err := s.Get(ctx, "0101234567")
	require.NoError(t, err)
	assert.Equal(t, "CÔNG TY TNHH THƯƠNG MẠI ABC (ĐỔI TÊN)", got.Name)
	assert.Equal(t, "0987654321", got.Phone)
	assert.True(t, got.UpdatedAt.After(inserted.UpdatedAt))
	assert.Equal(t, inserted.CreatedAt, got.CreatedAt)
}

func TestSQLiteUpdateMissing(t *testing.T) {
	s := newTestSQLite(t)

	err := s.Update(context.Background(), sampleCompany("9999999999"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSQLiteSourceNeverRegresses(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	c := sampleCompany("0101234567")
	c.Source = model.SourceDual
	require.NoError(t, s.Insert(ctx, c))

	// An api-only refresh of a dual record keeps the dual tag.
	refresh := sampleCompany("0101234567")
	refresh.Source = model.SourceAPI
	require.NoError(t, s.Update(ctx, refresh))

	got, err := s.Get(ctx, "0101234567")
	require.NoError(t, err)
	assert.Equal(t, model.SourceDual, got.Source)
}

func TestSQLiteQueryFilters(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	a := sampleCompany("0101234567")
	b := sampleCompany("0307654321")
	b.Province = "Hồ Chí Minh"
	b.OperatingStatus = model.StatusInactive
	b.Source = model.SourceDual
	b.MainBusinessLine = "Dịch vụ vận tải"
	require.NoError(t, s.Insert(ctx, a))
	require.NoError(t, s.Insert(ctx, b))

	all, err := s.Query(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	byStatus, err := s.Query(ctx, Filter{Status: model.StatusActive})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, "0101234567", byStatus[0].TaxCode)

	byProvince, err := s.Query(ctx, Filter{Province: "Chí Minh"})
	require.NoError(t, err)
	require.Len(t, byProvince, 1)
	assert.Equal(t, "0307654321", byProvince[0].TaxCode)

	byLine, err := s.Query(ctx, Filter{BusinessLine: "vận tải"})
	require.NoError(t, err)
	require.Len(t, byLine, 1)

	bySource, err := s.Query(ctx, Filter{Source: "dual"})
	require.NoError(t, err)
	require.Len(t, bySource, 1)

	limited, err := s.Query(ctx, Filter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSQLiteUpsert(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	c := sampleCompany("0101234567")
	created, err := Upsert(ctx, s, c)
	require.NoError(t, err)
	assert.True(t, created)

	c.Name = "tên mới"
	created, err = Upsert(ctx, s, c)
	require.NoError(t, err)
	assert.False(t, created)

	got, err := s.Get(ctx, "0101234567")
	require.NoError(t, err)
	assert.Equal(t, "tên mới", got.Name)
}

func TestSQLiteLogsAndPrune(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.LogMessage(ctx, "INFO", "collection started"))
	require.NoError(t, s.LogMessage(ctx, "INFO", "collection finished"))

	// Nothing is older than an hour yet.
	n, err := s.PruneLogs(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	n, err = s.PruneLogs(ctx, -time.Second)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestSQLiteStats(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	a := sampleCompany("0101234567")
	b := sampleCompany("0307654321")
	b.Source = model.SourceDual
	b.Province = "Hồ Chí Minh"
	c := sampleCompany("0409999999")
	c.Province = "Hà Nội"
	require.NoError(t, s.Insert(ctx, a))
	require.NoError(t, s.Insert(ctx, b))
	require.NoError(t, s.Insert(ctx, c))

	stats, err := s.Stats(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.TotalCompanies)
	assert.Equal(t, 2, stats.BySource["api"])
	assert.Equal(t, 1, stats.BySource["dual"])
	assert.Equal(t, 3, stats.ByStatus[model.StatusActive])

	require.NotEmpty(t, stats.TopProvinces)
	assert.Equal(t, "Hà Nội", stats.TopProvinces[0].Province)
	assert.Equal(t, 2, stats.TopProvinces[0].Count)
}
