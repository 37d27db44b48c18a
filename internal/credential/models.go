package credential

import (
	"errors"
	"fmt"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/yourorg/roadauthority/internal/qr"
)

type DocumentType string

const (
	License     DocumentType = "license"
	VehicleCard DocumentType = "vehicle_card"
	TaxToken    DocumentType = "tax_token"
)

var ErrUnknownDocumentType = errors.New("unknown document type")

func ParseDocumentType(s string) (DocumentType, error) {
	switch t := DocumentType(s); t {
	case License, VehicleCard, TaxToken:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDocumentType, s)
}

// NewRecord returns a pointer to an empty source record of the given type,
// ready to be decoded into and passed to Build.
func NewRecord(t DocumentType) (any, error) {
	switch t {
	case License:
		return &LicenseRecord{}, nil
	case VehicleCard:
		return &VehicleRecord{}, nil
	case TaxToken:
		return &TaxTokenRecord{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDocumentType, t)
}

// LicenseRecord is a driving license as held by the dashboard.
type LicenseRecord struct {
	LicenseNo        string             `json:"licenseNo"`
	Name             string             `json:"name"`
	DateOfBirth      openapi_types.Date `json:"dateOfBirth"`
	BloodGroup       string             `json:"bloodGroup"`
	LicenseType      string             `json:"licenseType"`
	IssueDate        openapi_types.Date `json:"issueDate"`
	ExpiryDate       openapi_types.Date `json:"expiryDate"`
	Address          string             `json:"address"`
	EmergencyContact string             `json:"emergencyContact"`
	Restrictions     string             `json:"restrictions,omitempty"`
}

// VehicleRecord is a registered vehicle. ID drives card, chassis and engine
// numbering.
type VehicleRecord struct {
	ID       int    `json:"id"`
	Model    string `json:"model"`
	Plate    string `json:"plate"`
	Year     int    `json:"year"`
	Owner    string `json:"owner"`
	Status   string `json:"status"`
	FuelType string `json:"fuelType"`
}

// TaxTokenRecord is a paid vehicle tax token. Amount is whole taka.
type TaxTokenRecord struct {
	ID               int                `json:"id"`
	Year             int                `json:"year"`
	VehicleModel     string             `json:"vehicleModel"`
	Plate            string             `json:"plate"`
	OwnerName        string             `json:"ownerName"`
	DrivingLicenseNo string             `json:"drivingLicenseNo"`
	Amount           int64              `json:"amount"`
	IssueDate        openapi_types.Date `json:"issueDate"`
	ValidUntil       openapi_types.Date `json:"validUntil"`
	Status           string             `json:"status"`
}

type Field struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Theme holds CSS gradient stops for each face.
type Theme struct {
	FrontGradient string `json:"frontGradient"`
	BackGradient  string `json:"backGradient"`
}

// Document is a built credential. It is never mutated after Build; exports
// build a fresh one.
type Document struct {
	Type        DocumentType `json:"type"`
	Number      string       `json:"number"`
	Title       string       `json:"title"`
	Subtitle    string       `json:"subtitle,omitempty"`
	BackTitle   string       `json:"backTitle"`
	FileName    string       `json:"fileName"`
	FrontFields []Field      `json:"frontFields"`
	BackFields  []Field      `json:"backFields"`
	QRFields    []string     `json:"qrFields"`
	Theme       Theme        `json:"theme"`
	Footer      []string     `json:"footer,omitempty"`
}

// Target identifies the export target; at most one export runs per target.
func (d Document) Target() string {
	return string(d.Type) + ":" + d.Number
}

func (d Document) Payload() (qr.Payload, error) {
	return qr.Encode(d.QRFields)
}

// Matches reports whether a scanned payload carries exactly this document's
// QR fields.
func (d Document) Matches(p qr.Payload) bool {
	want, err := d.Payload()
	if err != nil {
		return false
	}
	return want == p
}

var themes = map[DocumentType]Theme{
	License:     {FrontGradient: "#006A4E, #28A745, #006A4E", BackGradient: "#004A35, #1D7A3A, #004A35"},
	VehicleCard: {FrontGradient: "#3B82F6, #2563EB, #1D4ED8", BackGradient: "#1D4ED8, #1E40AF, #1E3A8A"},
	TaxToken:    {FrontGradient: "#22C55E, #16A34A, #15803D", BackGradient: "#15803D, #166534, #14532D"},
}

// qrLabels names the QR fields of each document type, in payload order.
var qrLabels = map[DocumentType][]string{
	License:     {"License No", "Name", "License Type", "Expiry Date"},
	VehicleCard: {"Card No", "Registration Plate", "Vehicle Model", "Year"},
	TaxToken:    {"Token No", "Registration Plate", "Amount", "Valid Until"},
}
