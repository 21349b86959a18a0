package model

// ExcelHeaders is the fixed 31-column header row of the export sheet. Order
// and wording are a contract with downstream spreadsheet consumers.
var ExcelHeaders = []string{
	"Mã số thuế",
	"Tên công ty",
	"Địa chỉ đăng ký",
	"Người đại diện",
	"Điện thoại đại diện",
	"Số giấy phép kinh doanh",
	"Ngày cấp giấy phép",
	"Tỉnh thành phố",
	"Tên giao dịch",
	"Tên tiếng Anh",
	"Chức vụ đại diện",
	"Fax",
	"Email",
	"Website",
	"Quận/Huyện",
	"Phường/Xã",
	"Ngành nghề kinh doanh chính",
	"Ngành nghề khác",
	"Loại hình doanh nghiệp",
	"Tình trạng hoạt động",
	"Ngày hoạt động",
	"Ngày thay đổi gần nhất",
	"Cơ quan cấp phép",
	"Số quyết định",
	"Vốn điều lệ",
	"Vốn đăng ký",
	"Đại diện pháp luật",
	"Địa chỉ thuế",
	"Cập nhật lần cuối",
	"Trạng thái HSCTVN",
	"Nguồn dữ liệu",
}

// ExcelRow renders the record as the 31 ordered export columns. Display
// columns coalesce: registered address falls back to the tax address, the
// representative to the legal representative, and the representative phone
// prefers the scraped number over the API one.
func (c *Company) ExcelRow() []string {
	return []string{
		c.TaxCode,
		c.Name,
		coalesce(c.RegisteredAddress, c.TaxAddress),
		coalesce(c.Representative, c.LegalRepresentative),
		coalesce(c.SecondaryPhone, c.Phone),
		c.LicenseNumber,
		c.LicenseDate,
		c.Province,
		c.TradeName,
		c.EnglishName,
		c.RepresentativeTitle,
		c.Fax,
		c.Email,
		c.Website,
		c.District,
		c.Ward,
		c.MainBusinessLine,
		c.OtherBusinessLinesJoined(),
		c.EntityType,
		c.OperatingStatus,
		c.OperationDate,
		c.LastChangeDate,
		c.IssuingAuthority,
		c.DecisionNumber,
		c.CharterCapital,
		c.RegisteredCapital,
		c.LegalRepresentative,
		c.TaxAddress,
		c.SecondaryLastUpdate,
		c.SecondaryStatus,
		string(c.Source),
	}
}

func coalesce(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
