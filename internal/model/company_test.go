package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegrate_FillsGapsOnly(t *testing.T) {
	c := &Company{
		TaxCode:           "0123456789",
		Name:              "CÔNG TY TNHH ABC",
		Phone:             "0241234567",
		Email:             "contact@abc.vn",
		RegisteredAddress: "Số 1 Phố Huế, Hà Nội",
		Source:            SourceAPI,
	}

	ext := &Extraction{
		TaxCode:             "0123456789",
		Name:                "CÔNG TY TNHH ABC",
		TaxAddress:          "Số 2 Lê Lợi, Quận 1, TP Hồ Chí Minh",
		LegalRepresentative: "Nguyễn Văn A",
		Phone:               "0912345678",
		Email:               "other@abc.vn",
		Status:              "Đang hoạt động",
		LastUpdate:          "01/06/2024",
	}

	c.Integrate(ext)

	// API values survive
	assert.Equal(t, "0241234567", c.Phone)
	assert.Equal(t, "contact@abc.vn", c.Email)
	assert.Equal(t, "Số 1 Phố Huế, Hà Nội", c.RegisteredAddress)

	// Scrape-owned fields always recorded
	assert.Equal(t, "Nguyễn Văn A", c.LegalRepresentative)
	assert.Equal(t, "0912345678", c.SecondaryPhone)
	assert.Equal(t, "Số 2 Lê Lợi, Quận 1, TP Hồ Chí Minh", c.TaxAddress)
	assert.Equal(t, "Đang hoạt động", c.SecondaryStatus)
	assert.Equal(t, "01/06/2024", c.SecondaryLastUpdate)

	assert.Equal(t, SourceDual, c.Source)
}

func TestIntegrate_SeedsEmptyPrimaryFields(t *testing.T) {
	c := &Company{TaxCode: "0123456789", Source: SourceAPI}

	ext := &Extraction{
		TaxCode:             "0123456789",
		TaxAddress:          "Số 2 Lê Lợi, Quận 1",
		LegalRepresentative: "Trần Thị B",
		Phone:               "0912345678",
		Email:               "info@xyz.vn",
		LicenseDate:         "15/03/2020",
		MainBusinessLine:    "Sản xuất phần mềm",
	}

	c.Integrate(ext)

	assert.Equal(t, "Trần Thị B", c.Representative)
	assert.Equal(t, "0912345678", c.Phone)
	assert.Equal(t, "Số 2 Lê Lợi, Quận 1", c.RegisteredAddress)
	assert.Equal(t, "info@xyz.vn", c.Email)
	assert.Equal(t, "15/03/2020", c.LicenseDate)
	assert.Equal(t, "Sản xuất phần mềm", c.MainBusinessLine)
}

func TestIntegrate_EmptyExtractionFieldsAreNoOps(t *testing.T) {
	c := &Company{
		TaxCode:             "0123456789",
		Phone:               "0241234567",
		LegalRepresentative: "Nguyễn Văn A",
		TaxAddress:          "Địa chỉ cũ",
		Source:              SourceAPI,
	}

	c.Integrate(&Extraction{TaxCode: "0123456789"})

	// Absent scrape fields never blank existing values
	assert.Equal(t, "0241234567", c.Phone)
	assert.Equal(t, "Nguyễn Văn A", c.LegalRepresentative)
	assert.Equal(t, "Địa chỉ cũ", c.TaxAddress)
}

func TestIntegrate_NilIsNoOp(t *testing.T) {
	c := &Company{TaxCode: "0123456789", Source: SourceAPI}
	c.Integrate(nil)
	assert.Equal(t, SourceAPI, c.Source)
}

func TestIntegrate_BumpsUpdatedAt(t *testing.T) {
	c := &Company{TaxCode: "0123456789", Source: SourceAPI}
	before := time.Now().UTC().Add(-time.Second)

	c.Integrate(&Extraction{TaxCode: "0123456789", Name: "X", TaxAddress: "Y"})

	assert.True(t, c.UpdatedAt.After(before))
}

func TestIntegrate_SourceStaysDualOnRepeat(t *testing.T) {
	c := &Company{TaxCode: "0123456789", Source: SourceDual}
	c.Integrate(&Extraction{TaxCode: "0123456789"})
	assert.Equal(t, SourceDual, c.Source)
}

func TestMeaningful(t *testing.T) {
	tests := []struct {
		name string
		ext  *Extraction
		want bool
	}{
		{"nil", nil, false},
		{"empty", &Extraction{}, false},
		{"name only", &Extraction{Name: "CÔNG TY ABC"}, false},
		{"address only", &Extraction{TaxAddress: "Số 1 Phố Huế"}, false},
		{"both", &Extraction{Name: "CÔNG TY ABC", TaxAddress: "Số 1 Phố Huế"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.ext.Meaningful())
		})
	}
}

func TestSeal(t *testing.T) {
	ext := &Extraction{TaxCode: "0123456789", Name: "CÔNG TY ABC"}
	ext.Seal()

	require.NotEmpty(t, ext.Raw)
	assert.Contains(t, ext.Raw, `"tax_code":"0123456789"`)
	assert.Contains(t, ext.Raw, "CÔNG TY ABC")
}

func TestExcelRow_Coalescing(t *testing.T) {
	c := &Company{
		TaxCode:             "0123456789",
		Name:                "CÔNG TY TNHH ABC",
		TaxAddress:          "Địa chỉ thuế",
		LegalRepresentative: "Nguyễn Văn A",
		SecondaryPhone:      "0912345678",
		OtherBusinessLines:  []string{"Bán buôn", "Bán lẻ"},
		Source:              SourceDual,
	}

	row := c.ExcelRow()
	require.Len(t, row, len(ExcelHeaders))

	assert.Equal(t, "0123456789", row[0])
	// Display columns fall back to the scraped values
	assert.Equal(t, "Địa chỉ thuế", row[2])
	assert.Equal(t, "Nguyễn Văn A", row[3])
	assert.Equal(t, "0912345678", row[4])
	assert.Equal(t, "Bán buôn, Bán lẻ", row[17])
	assert.Equal(t, "dual", row[30])
}

func TestExcelRow_PrimaryValuesWin(t *testing.T) {
	c := &Company{
		RegisteredAddress:   "Đăng ký",
		TaxAddress:          "Thuế",
		Representative:      "A",
		LegalRepresentative: "B",
		Phone:               "0241234567",
		SecondaryPhone:      "0912345678",
	}

	row := c.ExcelRow()
	assert.Equal(t, "Đăng ký", row[2])
	assert.Equal(t, "A", row[3])
	// Representative phone prefers the scraped number
	assert.Equal(t, "0912345678", row[4])
}

func TestExcelHeaders_Count(t *testing.T) {
	assert.Len(t, ExcelHeaders, 31)
	assert.Equal(t, "Mã số thuế", ExcelHeaders[0])
	assert.Equal(t, "Nguồn dữ liệu", ExcelHeaders[30])
}

func TestRunStatsFinalize(t *testing.T) {
	s := NewRunStats()
	s.TotalProcessed = 3
	s.Finalize()

	assert.False(t, s.EndTime.IsZero())
	assert.GreaterOrEqual(t, s.DurationSeconds, 0.0)
	assert.False(t, s.EndTime.Before(s.StartTime))
}
