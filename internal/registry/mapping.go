package registry

import (
	"strconv"
	"strings"

	"github.com/sells-group/vnreg-cli/internal/model"
)

// CompanyFromPayload maps a detail response onto a Company. The API is
// inconsistent about key casing across endpoints, so every field is looked
// up under its PascalCase name first and its snake_case alias second. The
// untouched response body is retained for audit.
func CompanyFromPayload(payload map[string]any, raw []byte) *model.Company {
	c := &model.Company{
		TaxCode:             stringField(payload, "MaSoThue", "ma_so_thue"),
		Name:                stringField(payload, "Title", "ten_cong_ty"),
		TradeName:           stringField(payload, "TitleVi", "ten_giao_dich"),
		EnglishName:         stringField(payload, "TitleEn", "ten_tieng_anh"),
		Representative:      stringField(payload, "ChuSoHuu", "nguoi_dai_dien"),
		RepresentativeTitle: stringField(payload, "ChucVuChuSoHuu", "chuc_vu_dai_dien"),
		Phone:               stringField(payload, "DienThoai", "dien_thoai"),
		Fax:                 stringField(payload, "Fax", "fax"),
		Email:               stringField(payload, "Email", "email"),
		Website:             stringField(payload, "Website", "website"),
		RegisteredAddress:   stringField(payload, "DiaChiCongTy", "dia_chi_dang_ky"),
		Province:            stringField(payload, "TinhThanhTitle", "tinh_thanh_pho"),
		District:            stringField(payload, "QuanHuyenTitle", "quan_huyen"),
		Ward:                stringField(payload, "PhuongXaTitle", "phuong_xa"),
		MainBusinessLine:    stringField(payload, "NganhNgheTitle", "nganh_nghe_kinh_doanh_chinh"),
		OtherBusinessLines:  listField(payload, "DSNganhNgheKinhDoanh", "nganh_nghe_khac"),
		EntityType:          stringField(payload, "LoaiHinhTitle", "loai_hinh_doanh_nghiep"),
		LicenseNumber:       stringField(payload, "GiayPhepKinhDoanh", "so_giay_phep_kinh_doanh"),
		LicenseDate:         stringField(payload, "NgayCap", "ngay_cap_giay_phep"),
		OperationDate:       stringField(payload, "NgayBatDauHopDong", "ngay_hoat_dong"),
		LastChangeDate:      stringField(payload, "Updated", "ngay_thay_doi_gan_nhat"),
		IssuingAuthority:    stringField(payload, "GiayPhepKinhDoanh_CoQuanCapTitle", "co_quan_cap_phep"),
		DecisionNumber:      stringField(payload, "SoQuyetDinh", "so_quyet_dinh"),
		CharterCapital:      stringField(payload, "VonDieuLe", "von_dieu_le"),
		RegisteredCapital:   stringField(payload, "VonDangKy", "von_dang_ky"),
		Source:              model.SourceAPI,
		RawPrimary:          string(raw),
	}

	c.OperatingStatus = operatingStatus(payload)
	return c
}

// operatingStatus derives the status string. Detail responses carry a
// boolean IsDelete; search rows carry the display string directly.
func operatingStatus(payload map[string]any) string {
	if v, ok := payload["IsDelete"]; ok {
		if deleted, ok := v.(bool); ok {
			if deleted {
				return model.StatusInactive
			}
			return model.StatusActive
		}
	}
	return stringField(payload, "TrangThaiHoatDong", "tinh_trang_hoat_dong")
}

func candidateFromItem(item map[string]any) Candidate {
	return Candidate{
		TaxCode:      stringField(item, "MaSoThue", "ma_so_thue"),
		Name:         stringField(item, "Title", "ten_cong_ty"),
		Address:      stringField(item, "DiaChiCongTy", "dia_chi"),
		Status:       stringField(item, "TrangThaiHoatDong", "tinh_trang_hoat_dong"),
		Slug:         strings.TrimPrefix(stringField(item, "SolrID"), "/"),
		IssuedDate:   stringField(item, "NgayCap", "ngay_cap"),
		BusinessLine: stringField(item, "NganhNgheTitle", "nganh_nghe"),
	}
}

// stringField returns the first non-empty value among keys, rendered as a
// trimmed string. Numbers are formatted without a trailing fraction.
func stringField(m map[string]any, keys ...string) string {
	for _, k := range keys {
		v, ok := m[k]
		if !ok || v == nil {
			continue
		}
		var s string
		switch t := v.(type) {
		case string:
			s = strings.TrimSpace(t)
		case float64:
			s = strconv.FormatFloat(t, 'f', -1, 64)
		case bool:
			s = strconv.FormatBool(t)
		}
		if s != "" {
			return s
		}
	}
	return ""
}

// listField returns the first non-empty list among keys as trimmed strings.
func listField(m map[string]any, keys ...string) []string {
	for _, k := range keys {
		raw, ok := m[k].([]any)
		if !ok || len(raw) == 0 {
			continue
		}
		var out []string
		for _, item := range raw {
			switch t := item.(type) {
			case string:
				if s := strings.TrimSpace(t); s != "" {
					out = append(out, s)
				}
			case map[string]any:
				if s := stringField(t, "Title", "ten"); s != "" {
					out = append(out, s)
				}
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

// int64Field returns the first numeric value among keys.
func int64Field(m map[string]any, keys ...string) int64 {
	for _, k := range keys {
		switch t := m[k].(type) {
		case float64:
			return int64(t)
		case string:
			if n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64); err == nil {
				return n
			}
		}
	}
	return 0
}
