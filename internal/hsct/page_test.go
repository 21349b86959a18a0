package hsct

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, html string) *Page {
	t.Helper()
	p, err := ParsePage(html)
	require.NoError(t, err)
	return p
}

func TestHTMLToLines(t *testing.T) {
	html := `<html><head><title>Trang</title><script>var x = 1;</script></head>
	<body>
	<h1>CÔNG TY TNHH ABC</h1>
	<p>Địa chỉ thuế: Số 1 Phố Huế</p>
	<div>Điện thoại:&nbsp;0912345678</div>
	<table><tr><td>Ngày cấp:</td><td>15/03/2020</td></tr></table>
	<footer>bản quyền</footer>
	</body></html>`

	lines := htmlToLines(html)

	assert.Contains(t, lines, "CÔNG TY TNHH ABC")
	assert.Contains(t, lines, "Địa chỉ thuế: Số 1 Phố Huế")
	assert.Contains(t, lines, "Điện thoại: 0912345678")
	// Table cells of one row stay on one line
	assert.Contains(t, lines, "Ngày cấp: 15/03/2020")
	// Script and footer content are dropped
	for _, l := range lines {
		assert.NotContains(t, l, "var x")
		assert.NotContains(t, l, "bản quyền")
	}
}

func TestPageTitleAndNameCandidates(t *testing.T) {
	p := mustParse(t, `<html><head><title>CÔNG TY CP XYZ - HSCTVN</title></head>
	<body><h1>CÔNG TY CP XYZ</h1><h2>Hồ sơ</h2><div class="company-name">XYZ JSC</div></body></html>`)

	assert.Equal(t, "CÔNG TY CP XYZ - HSCTVN", p.Title())

	cands := p.NameCandidates()
	require.NotEmpty(t, cands)
	assert.Equal(t, "CÔNG TY CP XYZ", cands[0])
	assert.Contains(t, cands, "CÔNG TY CP XYZ - HSCTVN")
	assert.Contains(t, cands, "XYZ JSC")
}

func TestEachTableRow(t *testing.T) {
	p := mustParse(t, `<table>
	<tr><th>Địa chỉ</th><td>Số 2 Lê Lợi, Quận 1</td></tr>
	<tr><td>Điện thoại</td><td>0912345678</td><td>nội bộ</td></tr>
	<tr><td>chỉ một ô</td></tr>
	</table>`)

	rows := map[string]string{}
	p.EachTableRow(func(label, value string) { rows[label] = value })

	assert.Equal(t, "Số 2 Lê Lợi, Quận 1", rows["Địa chỉ"])
	assert.Equal(t, "0912345678 nội bộ", rows["Điện thoại"])
	assert.NotContains(t, rows, "chỉ một ô")
}

func TestListItems(t *testing.T) {
	p := mustParse(t, `<ul><li>Sản xuất phần mềm</li><li> </li><li>Bán buôn máy tính</li></ul>`)
	assert.Equal(t, []string{"Sản xuất phần mềm", "Bán buôn máy tính"}, p.ListItems())
}

func TestSectionListItems(t *testing.T) {
	p := mustParse(t, `
	<div><h3>Menu</h3><ul><li>Trang chủ</li></ul></div>
	<div><h3>Ngành nghề kinh doanh</h3><ul><li>Sản xuất phần mềm</li><li>Dịch vụ tư vấn</li></ul></div>`)

	items := p.SectionListItems("ngành nghề")
	assert.Equal(t, []string{"Sản xuất phần mềm", "Dịch vụ tư vấn"}, items)

	assert.Empty(t, p.SectionListItems("không tồn tại"))
}

func TestResultLink_HrefMatch(t *testing.T) {
	p := mustParse(t, `<a href="/cong-ty/0101234567-abc.html">CÔNG TY TNHH ABC</a>`)
	assert.Equal(t, "/cong-ty/0101234567-abc.html", p.ResultLink("0101234567"))
}

func TestResultLink_TextMatch(t *testing.T) {
	p := mustParse(t, `<a href="/ho-so/abc.html">MST 0101234567 - CÔNG TY TNHH ABC</a>`)
	assert.Equal(t, "/ho-so/abc.html", p.ResultLink("0101234567"))
}

func TestResultLink_RowMatch(t *testing.T) {
	p := mustParse(t, `<table><tr>
	<td><a href="/ho-so/abc.html">CÔNG TY TNHH ABC</a></td>
	<td>0101234567</td>
	</tr></table>`)
	assert.Equal(t, "/ho-so/abc.html", p.ResultLink("0101234567"))
}

func TestResultLink_NoMatch(t *testing.T) {
	p := mustParse(t, `<a href="/khac.html">CÔNG TY KHÁC</a>`)
	assert.Empty(t, p.ResultLink("0101234567"))
}
