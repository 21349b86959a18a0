package model

import "encoding/json"

// Extraction holds the fields mined from a single hsctvn.com company page.
// Empty fields mean the page did not yield a value, never "clear this".
type Extraction struct {
	TaxCode             string   `json:"tax_code"`
	Name                string   `json:"name,omitempty"`
	TaxAddress          string   `json:"tax_address,omitempty"`
	LegalRepresentative string   `json:"legal_representative,omitempty"`
	Phone               string   `json:"phone,omitempty"`
	Email               string   `json:"email,omitempty"`
	LicenseDate         string   `json:"license_date,omitempty"`
	MainBusinessLine    string   `json:"main_business_line,omitempty"`
	Status              string   `json:"status,omitempty"`
	LastUpdate          string   `json:"last_update,omitempty"`
	Activities          []string `json:"activities,omitempty"`

	// Raw is the JSON form of the extraction, kept for audit.
	Raw string `json:"-"`
}

// Meaningful reports whether the extraction carries enough signal to merge:
// both a company name and a tax address must be present.
func (e *Extraction) Meaningful() bool {
	return e != nil && e.Name != "" && e.TaxAddress != ""
}

// Seal snapshots the extraction into its Raw audit form.
func (e *Extraction) Seal() {
	b, err := json.Marshal(e)
	if err != nil {
		return
	}
	e.Raw = string(b)
}
