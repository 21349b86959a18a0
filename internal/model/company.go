package model

import (
	"strings"
	"time"
)

// Source identifies which upstream(s) contributed a company record.
type Source string

const (
	// SourceAPI marks records built from the registry API alone.
	SourceAPI Source = "api"
	// SourceHSCTVN marks records built from the hsctvn.com scrape alone.
	// The collection pipeline never produces this value (the API fetch
	// always precedes enrichment); it exists so externally written rows
	// round-trip through the store and export unchanged.
	SourceHSCTVN Source = "hsctvn"
	// SourceDual marks records enriched from both sources.
	SourceDual Source = "dual"
)

// Operating status values used by the registry API.
const (
	StatusActive   = "Hoạt động"
	StatusInactive = "Ngừng hoạt động"
)

// Company is an enterprise record keyed by tax code, assembled from the
// registry API and optionally enriched from hsctvn.com.
type Company struct {
	TaxCode             string `json:"tax_code"`
	Name                string `json:"name"`
	TradeName           string `json:"trade_name,omitempty"`
	EnglishName         string `json:"english_name,omitempty"`
	Representative      string `json:"representative,omitempty"`
	RepresentativeTitle string `json:"representative_title,omitempty"`
	Phone               string `json:"phone,omitempty"`
	Fax                 string `json:"fax,omitempty"`
	Email               string `json:"email,omitempty"`
	Website             string `json:"website,omitempty"`

	RegisteredAddress string `json:"registered_address,omitempty"`
	Province          string `json:"province,omitempty"`
	District          string `json:"district,omitempty"`
	Ward              string `json:"ward,omitempty"`

	MainBusinessLine   string   `json:"main_business_line,omitempty"`
	OtherBusinessLines []string `json:"other_business_lines,omitempty"`
	EntityType         string   `json:"entity_type,omitempty"`
	OperatingStatus    string   `json:"operating_status,omitempty"`

	LicenseNumber     string `json:"license_number,omitempty"`
	LicenseDate       string `json:"license_date,omitempty"`
	OperationDate     string `json:"operation_date,omitempty"`
	LastChangeDate    string `json:"last_change_date,omitempty"`
	IssuingAuthority  string `json:"issuing_authority,omitempty"`
	DecisionNumber    string `json:"decision_number,omitempty"`
	CharterCapital    string `json:"charter_capital,omitempty"`
	RegisteredCapital string `json:"registered_capital,omitempty"`

	// Fields owned by the hsctvn.com scrape. Always overwritten on
	// integration; never sourced from the API.
	LegalRepresentative string `json:"legal_representative,omitempty"`
	SecondaryPhone      string `json:"secondary_phone,omitempty"`
	TaxAddress          string `json:"tax_address,omitempty"`
	SecondaryStatus     string `json:"secondary_status,omitempty"`
	SecondaryLastUpdate string `json:"secondary_last_update,omitempty"`

	Source       Source `json:"source"`
	RawPrimary   string `json:"raw_primary,omitempty"`
	RawSecondary string `json:"raw_secondary,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Integrate merges an hsctvn.com extraction into the record. Scrape values
// only fill gaps in API-owned fields, never overwrite them; scrape-owned
// fields are always recorded. Promotes the source tag to dual.
func (c *Company) Integrate(ext *Extraction) {
	if ext == nil {
		return
	}

	// Scrape-owned fields: always overwrite.
	if ext.LegalRepresentative != "" {
		c.LegalRepresentative = ext.LegalRepresentative
		if c.Representative == "" {
			c.Representative = ext.LegalRepresentative
		}
	}
	if ext.Phone != "" {
		c.SecondaryPhone = ext.Phone
		if c.Phone == "" {
			c.Phone = ext.Phone
		}
	}
	if ext.TaxAddress != "" {
		c.TaxAddress = ext.TaxAddress
		if c.RegisteredAddress == "" {
			c.RegisteredAddress = ext.TaxAddress
		}
	}
	c.SecondaryStatus = ext.Status
	c.SecondaryLastUpdate = ext.LastUpdate

	// API-owned fields: fill only if empty.
	if c.Email == "" && ext.Email != "" {
		c.Email = ext.Email
	}
	if c.LicenseDate == "" && ext.LicenseDate != "" {
		c.LicenseDate = ext.LicenseDate
	}
	if c.MainBusinessLine == "" && ext.MainBusinessLine != "" {
		c.MainBusinessLine = ext.MainBusinessLine
	}

	c.RawSecondary = ext.Raw
	c.Source = SourceDual
	c.UpdatedAt = time.Now().UTC()
}

// OtherBusinessLinesJoined renders the secondary business lines as a single
// display string.
func (c *Company) OtherBusinessLinesJoined() string {
	return strings.Join(c.OtherBusinessLines, ", ")
}
