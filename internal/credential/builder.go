package credential

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/yourorg/roadauthority/internal/fee"
	"github.com/yourorg/roadauthority/internal/qr"
)

var ErrInvalidRecord = errors.New("invalid source record")

const (
	displayDateLayout = "02/01/2006"

	officialNotice   = "This is an official document of Bangladesh Road Transport Authority"
	verificationNote = "For verification, visit: www.brta.gov.bd"
)

// LicensePrefix starts every driving license number; ReadClaim relies on it.
const LicensePrefix = "DL-"

// VehicleCardNumber formats "VC-" + id zero-padded to six digits.
func VehicleCardNumber(id int) string {
	return fmt.Sprintf("VC-%06d", id)
}

// TaxTokenNumber formats "TT-<year>-" + id zero-padded to six digits.
func TaxTokenNumber(year, id int) string {
	return fmt.Sprintf("TT-%d-%06d", year, id)
}

func ChassisNumber(year, id int) string {
	return fmt.Sprintf("CH%d%08d", year, id)
}

func EngineNumber(year, id int) string {
	return fmt.Sprintf("EN%d%08d", year, id)
}

// Build dispatches on the document type. The record must be the matching
// *Record type (value or pointer).
func Build(t DocumentType, record any) (Document, error) {
	switch t {
	case License:
		switch r := record.(type) {
		case LicenseRecord:
			return BuildLicense(r)
		case *LicenseRecord:
			if r != nil {
				return BuildLicense(*r)
			}
		}
	case VehicleCard:
		switch r := record.(type) {
		case VehicleRecord:
			return BuildVehicleCard(r)
		case *VehicleRecord:
			if r != nil {
				return BuildVehicleCard(*r)
			}
		}
	case TaxToken:
		switch r := record.(type) {
		case TaxTokenRecord:
			return BuildTaxToken(r)
		case *TaxTokenRecord:
			if r != nil {
				return BuildTaxToken(*r)
			}
		}
	default:
		return Document{}, fmt.Errorf("%w: %q", ErrUnknownDocumentType, t)
	}
	return Document{}, fmt.Errorf("%w: %T is not a %s record", ErrInvalidRecord, record, t)
}

func BuildLicense(r LicenseRecord) (Document, error) {
	if err := requireFields(
		"licenseNo", r.LicenseNo,
		"name", r.Name,
		"licenseType", r.LicenseType,
	); err != nil {
		return Document{}, err
	}
	if !strings.HasPrefix(r.LicenseNo, LicensePrefix) || len(r.LicenseNo) == len(LicensePrefix) {
		return Document{}, fmt.Errorf("%w: licenseNo %q must start with %q", ErrInvalidRecord, r.LicenseNo, LicensePrefix)
	}
	if r.ExpiryDate.IsZero() {
		return Document{}, fmt.Errorf("%w: expiryDate is required", ErrInvalidRecord)
	}
	restrictions := r.Restrictions
	if strings.TrimSpace(restrictions) == "" {
		restrictions = "None"
	}
	expiry := displayDate(r.ExpiryDate)

	doc := Document{
		Type:      License,
		Number:    r.LicenseNo,
		Title:     "Driving License",
		BackTitle: "License Details",
		FileName:  fileName("Driving_License_" + r.LicenseNo),
		FrontFields: []Field{
			{"License No", r.LicenseNo},
			{"Name", r.Name},
			{"Date of Birth", displayDate(r.DateOfBirth)},
			{"Blood Group", r.BloodGroup},
			{"License Type", r.LicenseType},
			{"Issue Date", displayDate(r.IssueDate)},
			{"Expiry Date", expiry},
		},
		BackFields: []Field{
			{"Address", r.Address},
			{"Emergency Contact", r.EmergencyContact},
			{"Restrictions", restrictions},
		},
		QRFields: []string{r.LicenseNo, r.Name, r.LicenseType, expiry},
		Theme:    themes[License],
		Footer:   []string{officialNotice, verificationNote},
	}
	return checked(doc)
}

// BuildVehicleCard carries the padded card number (VC-000001) in the QR
// payload, the same string printed on the card face. Cards printed by the
// older dashboard encoded the bare id (VC-1) and do not match.
func BuildVehicleCard(r VehicleRecord) (Document, error) {
	if r.ID <= 0 || r.Year <= 0 {
		return Document{}, fmt.Errorf("%w: vehicle id and year must be positive", ErrInvalidRecord)
	}
	if err := requireFields("model", r.Model, "plate", r.Plate); err != nil {
		return Document{}, err
	}
	cardNo := VehicleCardNumber(r.ID)
	year := strconv.Itoa(r.Year)

	doc := Document{
		Type:      VehicleCard,
		Number:    cardNo,
		Title:     "Vehicle Smart Card",
		BackTitle: "Vehicle Details",
		FileName:  fileName("Vehicle_Smart_Card_" + cardNo),
		FrontFields: []Field{
			{"Vehicle Model", r.Model},
			{"Registration Plate", r.Plate},
			{"Year", year},
			{"Owner", r.Owner},
			{"Card No", cardNo},
			{"Status", r.Status},
		},
		BackFields: []Field{
			{"Chassis No", ChassisNumber(r.Year, r.ID)},
			{"Engine No", EngineNumber(r.Year, r.ID)},
			{"Owner", r.Owner},
			{"Fuel Type", r.FuelType},
		},
		QRFields: []string{cardNo, r.Plate, r.Model, year},
		Theme:    themes[VehicleCard],
		Footer:   []string{verificationNote},
	}
	return checked(doc)
}

func BuildTaxToken(r TaxTokenRecord) (Document, error) {
	if r.ID <= 0 || r.Year <= 0 {
		return Document{}, fmt.Errorf("%w: token id and year must be positive", ErrInvalidRecord)
	}
	if r.Amount <= 0 {
		return Document{}, fmt.Errorf("%w: amount must be positive", ErrInvalidRecord)
	}
	if err := requireFields("plate", r.Plate); err != nil {
		return Document{}, err
	}
	if r.ValidUntil.IsZero() {
		return Document{}, fmt.Errorf("%w: validUntil is required", ErrInvalidRecord)
	}
	tokenNo := TaxTokenNumber(r.Year, r.ID)
	validUntil := displayDate(r.ValidUntil)

	doc := Document{
		Type:      TaxToken,
		Number:    tokenNo,
		Title:     "Tax Token",
		Subtitle:  "Vehicle Tax Payment Receipt",
		BackTitle: "Tax Token Details",
		FileName:  fileName("Tax_Token_" + tokenNo),
		FrontFields: []Field{
			{"Token No", tokenNo},
			{"Vehicle", r.VehicleModel},
			{"Registration Plate", r.Plate},
			{"Amount", fee.FormatTaka(r.Amount)},
			{"Issue Date", displayDate(r.IssueDate)},
			{"Valid Until", validUntil},
			{"Status", r.Status},
		},
		BackFields: []Field{
			{"Owner Name", r.OwnerName},
			{"Driving License No", r.DrivingLicenseNo},
		},
		QRFields: []string{tokenNo, r.Plate, "৳" + strconv.FormatInt(r.Amount, 10), validUntil},
		Theme:    themes[TaxToken],
		Footer:   []string{verificationNote},
	}
	return checked(doc)
}

// checked refuses documents whose QR payload would be ambiguous.
func checked(doc Document) (Document, error) {
	if _, err := qr.Encode(doc.QRFields); err != nil {
		return Document{}, fmt.Errorf("build %s %s: %w", doc.Type, doc.Number, err)
	}
	return doc, nil
}

// fileName keeps letters, digits, '.', '_' and '-'; anything else becomes
// '_' so the name is safe as a path segment and in URLs.
func fileName(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '_', r == '-':
			return r
		}
		return '_'
	}, s)
}

func requireFields(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidRecord, pairs[i])
		}
	}
	return nil
}

func displayDate(d openapi_types.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.Format(displayDateLayout)
}
