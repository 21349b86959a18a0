package hsct

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBrowser serves canned HTML without a real browser.
type fakeBrowser struct {
	searchHTML string
	searchErr  error
	pages      map[string]string
	navErr     error

	searched  []string
	navigated []string
}

func (f *fakeBrowser) Search(_ context.Context, query string) (string, error) {
	f.searched = append(f.searched, query)
	return f.searchHTML, f.searchErr
}

func (f *fakeBrowser) Navigate(_ context.Context, url string) (string, error) {
	f.navigated = append(f.navigated, url)
	if f.navErr != nil {
		return "", f.navErr
	}
	return f.pages[url], nil
}

const detailPageHTML = `<html>
<head><title>CÔNG TY TNHH THƯƠNG MẠI ABC - HSCTVN</title></head>
<body>
<h1>CÔNG TY TNHH THƯƠNG MẠI ABC</h1>
<p>Mã số thuế: 0101234567</p>
<p>Địa chỉ thuế: Số 12 đường Trần Hưng Đạo, phường Cửa Nam, quận Hoàn Kiếm, Hà Nội</p>
<p>Đại diện pháp luật: Nguyễn Văn A</p>
<p>Điện thoại: 0912 345 678</p>
<p>Ngày cấp: 15/03/2020</p>
<p>Trạng thái: Đang hoạt động</p>
<p>Cập nhật lần cuối: 01/06/2024</p>
<div>
<h3>Ngành nghề kinh doanh</h3>
<ul>
<li>Sản xuất linh kiện điện tử</li>
<li>Bán buôn máy vi tính và thiết bị ngoại vi</li>
<li>Trang chủ</li>
<li>Sản xuất linh kiện điện tử</li>
</ul>
</div>
<p>Liên hệ: lienhe@abc.vn</p>
</body></html>`

const searchPageHTML = `<html><body>
<table><tr>
<td><a href="/ho-so/0101234567-cong-ty-abc.html">CÔNG TY TNHH THƯƠNG MẠI ABC</a></td>
<td>0101234567</td>
</tr></table>
</body></html>`

func newTestExtractor(fb *fakeBrowser) *Extractor {
	return NewExtractor(fb, "https://hsctvn.com")
}

func TestExtract_FullFlow(t *testing.T) {
	fb := &fakeBrowser{
		searchHTML: searchPageHTML,
		pages: map[string]string{
			"https://hsctvn.com/ho-so/0101234567-cong-ty-abc.html": detailPageHTML,
		},
	}

	ext, err := newTestExtractor(fb).Extract(context.Background(), "0101234567")
	require.NoError(t, err)
	require.NotNil(t, ext)

	assert.Equal(t, []string{"0101234567"}, fb.searched)
	assert.Equal(t, []string{"https://hsctvn.com/ho-so/0101234567-cong-ty-abc.html"}, fb.navigated)

	assert.Equal(t, "0101234567", ext.TaxCode)
	assert.Equal(t, "CÔNG TY TNHH THƯƠNG MẠI ABC", ext.Name)
	assert.Equal(t, "Số 12 đường Trần Hưng Đạo, phường Cửa Nam, quận Hoàn Kiếm, Hà Nội", ext.TaxAddress)
	assert.Equal(t, "Nguyễn Văn A", ext.LegalRepresentative)
	assert.Equal(t, "0912345678", ext.Phone)
	assert.Equal(t, "lienhe@abc.vn", ext.Email)
	assert.Equal(t, "15/03/2020", ext.LicenseDate)
	assert.Equal(t, "Đang hoạt động", ext.Status)
	assert.Equal(t, "01/06/2024", ext.LastUpdate)

	// Activities: validated, deduplicated, nav noise dropped
	assert.Equal(t, []string{
		"Sản xuất linh kiện điện tử",
		"Bán buôn máy vi tính và thiết bị ngoại vi",
	}, ext.Activities)

	assert.True(t, ext.Meaningful())
	assert.NotEmpty(t, ext.Raw)
}

func TestExtract_SearchError(t *testing.T) {
	fb := &fakeBrowser{searchErr: errors.New("browser crashed")}

	_, err := newTestExtractor(fb).Extract(context.Background(), "0101234567")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "search 0101234567")
}

func TestExtract_EmptyPageMeansNoResult(t *testing.T) {
	fb := &fakeBrowser{searchHTML: "   "}

	ext, err := newTestExtractor(fb).Extract(context.Background(), "0101234567")
	require.NoError(t, err)
	assert.Nil(t, ext)
}

func TestExtract_NavFailureFallsBackToSearchPage(t *testing.T) {
	fb := &fakeBrowser{
		searchHTML: searchPageHTML,
		navErr:     errors.New("timeout"),
	}

	ext, err := newTestExtractor(fb).Extract(context.Background(), "0101234567")
	require.NoError(t, err)
	require.NotNil(t, ext)
	// Search page has no labeled fields, so the extraction is sparse
	assert.False(t, ext.Meaningful())
}

func TestExtract_EmptyTaxCode(t *testing.T) {
	_, err := newTestExtractor(&fakeBrowser{}).Extract(context.Background(), "")
	assert.Error(t, err)
}

func TestExtractFields_TableFallback(t *testing.T) {
	page := mustParse(t, `<html><body>
	<h1>CÔNG TY CP XYZ</h1>
	<table>
	<tr><td>Địa chỉ</td><td>Số 2 Lê Lợi, phường Bến Nghé, Quận 1</td></tr>
	<tr><td>Giám đốc</td><td>Trần Thị B</td></tr>
	<tr><td>Điện thoại</td><td>028 3822 1234</td></tr>
	<tr><td>Email</td><td>info@xyz.vn</td></tr>
	<tr><td>Tình trạng</td><td>Đang hoạt động</td></tr>
	</table>
	</body></html>`)

	ext := extractFields(page, "0307654321")

	assert.Equal(t, "CÔNG TY CP XYZ", ext.Name)
	assert.Equal(t, "Số 2 Lê Lợi, phường Bến Nghé, Quận 1", ext.TaxAddress)
	assert.Equal(t, "Trần Thị B", ext.LegalRepresentative)
	assert.Equal(t, "02838221234", ext.Phone)
	assert.Equal(t, "info@xyz.vn", ext.Email)
	assert.Equal(t, "Đang hoạt động", ext.Status)
}

func TestExtractFields_LabeledLinesBeatTableRows(t *testing.T) {
	page := mustParse(t, `<html><body>
	<p>Địa chỉ thuế: Số 1 Phố Huế, Hà Nội</p>
	<table><tr><td>Địa chỉ</td><td>một địa chỉ khác hoàn toàn dài hơn</td></tr></table>
	</body></html>`)

	ext := extractFields(page, "0101234567")
	assert.Equal(t, "Số 1 Phố Huế, Hà Nội", ext.TaxAddress)
}

func TestExtractFields_TableRowBeatsAddressShape(t *testing.T) {
	// The table's address row renders as one text line with the label glued
	// onto the value; the shape heuristic must not capture it before the
	// table stage extracts the value cleanly.
	page := mustParse(t, `<html><body>
	<table>
	<tr><td>Địa chỉ</td><td>Số 2 Lê Lợi, phường Bến Nghé, Quận 1</td></tr>
	</table>
	<p>Văn phòng cũ: số 9 đường Nguyễn Huệ, phường Bến Nghé, quận 1</p>
	</body></html>`)

	ext := extractFields(page, "0307654321")
	assert.Equal(t, "Số 2 Lê Lợi, phường Bến Nghé, Quận 1", ext.TaxAddress)
}

func TestExtractFields_AddressShapeFallback(t *testing.T) {
	page := mustParse(t, `<html><body>
	<p>CÔNG TY TNHH ABC</p>
	<p>Số 12 đường Trần Hưng Đạo, phường Cửa Nam, quận Hoàn Kiếm</p>
	</body></html>`)

	ext := extractFields(page, "0101234567")
	assert.Equal(t, "Số 12 đường Trần Hưng Đạo, phường Cửa Nam, quận Hoàn Kiếm", ext.TaxAddress)
}

func TestExtractFields_PhoneEqualToTaxCodeCleared(t *testing.T) {
	page := mustParse(t, `<html><body>
	<p>Điện thoại: 0351234567</p>
	</body></html>`)

	ext := extractFields(page, "0351234567")
	assert.Empty(t, ext.Phone)
}

func TestExtractFields_NameFromTitleWhenNoHeading(t *testing.T) {
	page := mustParse(t, `<html><head>
	<title>CÔNG TY TNHH DỊCH VỤ GHI | Tra cứu mã số thuế</title>
	</head><body><p>nội dung</p></body></html>`)

	ext := extractFields(page, "0101234567")
	assert.Equal(t, "CÔNG TY TNHH DỊCH VỤ GHI", ext.Name)
}

func TestExtractFields_ShortHeadingSkipped(t *testing.T) {
	page := mustParse(t, `<html><head><title>CÔNG TY TNHH ABC</title></head>
	<body><h1>Hồ sơ</h1></body></html>`)

	ext := extractFields(page, "0101234567")
	// "Hồ sơ" cleans to empty, the title is the next candidate
	assert.Equal(t, "CÔNG TY TNHH ABC", ext.Name)
}

func TestResolve(t *testing.T) {
	e := NewExtractor(&fakeBrowser{}, "https://hsctvn.com/")

	assert.Equal(t, "https://hsctvn.com/ho-so/abc.html", e.resolve("/ho-so/abc.html"))
	assert.Equal(t, "https://hsctvn.com/ho-so/abc.html", e.resolve("ho-so/abc.html"))
	assert.Equal(t, "https://other.vn/x", e.resolve("https://other.vn/x"))
}
