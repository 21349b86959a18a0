package hsct

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractPhone_Mobile(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Điện thoại: 0912345678", "0912345678"},
		{"0912 345 678", "0912345678"},
		{"0912-345-678", "0912345678"},
		{"liên hệ 0351234567 hoặc fax", "0351234567"},
		{"số 0812345678", "0812345678"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExtractPhone(tt.in), "ExtractPhone(%q)", tt.in)
	}
}

func TestExtractPhone_MobileBeatsLandline(t *testing.T) {
	got := ExtractPhone("Tel: 02438221234 - Di động: 0912345678")
	assert.Equal(t, "0912345678", got)
}

func TestExtractPhone_Landline(t *testing.T) {
	assert.Equal(t, "0243822123", ExtractPhone("Điện thoại: 0243822123"))
	assert.Equal(t, "02438221234", ExtractPhone("02438221234"))
}

func TestExtractPhone_Rejects(t *testing.T) {
	tests := []string{
		"",
		"không có số",
		"01234567890",      // retired 01x prefix
		"0912345",          // too short
		"09123456789012",   // too long, no clean boundary
		"năm 2020",         // year-like
		"mã số thuế 0101234567", // 01x, not a phone
	}
	for _, in := range tests {
		assert.Empty(t, ExtractPhone(in), "ExtractPhone(%q)", in)
	}
}

func TestExtractDate(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"15/03/2020", "15/03/2020"},
		{"Ngày cấp: 1-3-2020", "1-3-2020"},
		{"2020.03.15", "2020.03.15"},
		{"cập nhật 2024/6/1 lúc sáng", "2024/6/1"},
		// Shape-only: an impossible calendar day still passes
		{"35/13/2020", "35/13/2020"},
		{"không rõ", ""},
		{"15/03/20", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExtractDate(tt.in), "ExtractDate(%q)", tt.in)
	}
}

func TestLooksLikeAddress(t *testing.T) {
	assert.True(t, LooksLikeAddress("Số 12 đường Trần Hưng Đạo, phường Cửa Nam, quận Hoàn Kiếm"))
	assert.True(t, LooksLikeAddress("Lô A5 khu công nghiệp, xã Tân Phú, huyện Củ Chi, thành phố Hồ Chí Minh"))

	// One indicator is not enough
	assert.False(t, LooksLikeAddress("đường dây nóng hỗ trợ khách hàng toàn quốc"))
	// Field-label noise disqualifies
	assert.False(t, LooksLikeAddress("Mã số thuế: 0101234567, phường Cửa Nam, quận Hoàn Kiếm"))
	// Too short
	assert.False(t, LooksLikeAddress("số 1 quận 2"))
	assert.False(t, LooksLikeAddress(""))
}

func TestIsBusinessActivity(t *testing.T) {
	assert.True(t, IsBusinessActivity("Sản xuất linh kiện điện tử"))
	assert.True(t, IsBusinessActivity("Bán buôn máy vi tính, thiết bị ngoại vi và phần mềm"))
	assert.True(t, IsBusinessActivity("Dịch vụ vận tải hàng hóa"))

	// No business keyword
	assert.False(t, IsBusinessActivity("Trang chủ giới thiệu liên hệ"))
	// Navigation noise
	assert.False(t, IsBusinessActivity("Tìm kiếm dịch vụ doanh nghiệp"))
	// Too short
	assert.False(t, IsBusinessActivity("Bán lẻ"))
	// Too long
	long := "kinh doanh "
	for len([]rune(long)) <= 300 {
		long += "và kinh doanh thêm nữa "
	}
	assert.False(t, IsBusinessActivity(long))
}

func TestExtractEmail(t *testing.T) {
	assert.Equal(t, "lienhe@congty.vn", ExtractEmail("Email: lienhe@congty.vn"))
	assert.Equal(t, "info@abc.com.vn", ExtractEmail("gửi về info@abc.com.vn nhé"))

	// Placeholder addresses are skipped
	assert.Empty(t, ExtractEmail("user@example.com"))
	assert.Empty(t, ExtractEmail("test@congty.vn"))
	assert.Equal(t, "real@congty.vn", ExtractEmail("demo@x.vn hoặc real@congty.vn"))
	assert.Empty(t, ExtractEmail("không có email"))
}

func TestCleanCompanyName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"CÔNG TY TNHH ABC", "CÔNG TY TNHH ABC"},
		{"Thông tin công ty: CÔNG TY TNHH ABC", "CÔNG TY TNHH ABC"},
		{"Tra cứu CÔNG TY TNHH ABC", "CÔNG TY TNHH ABC"},
		{"CÔNG TY TNHH ABC - HSCTVN", "CÔNG TY TNHH ABC"},
		{"CÔNG TY TNHH ABC | Tra cứu mã số thuế", "CÔNG TY TNHH ABC"},
		{"CÔNG TY   TNHH\n ABC", "CÔNG TY TNHH ABC"},
		// Legit hyphenated names survive
		{"CÔNG TY TNHH ABC - CHI NHÁNH HÀ NỘI", "CÔNG TY TNHH ABC - CHI NHÁNH HÀ NỘI"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanCompanyName(tt.in), "CleanCompanyName(%q)", tt.in)
	}
}
