package credential

import (
	"errors"
	"testing"
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/roadauthority/internal/qr"
)

func date(y int, m time.Month, d int) openapi_types.Date {
	return openapi_types.Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func sampleLicense() LicenseRecord {
	return LicenseRecord{
		LicenseNo:        "DL-123456789",
		Name:             "John Doe",
		DateOfBirth:      date(1990, time.January, 1),
		BloodGroup:       "A+",
		LicenseType:      "Professional",
		IssueDate:        date(2023, time.June, 15),
		ExpiryDate:       date(2028, time.June, 14),
		Address:          "123 Main Street, Dhaka-1000",
		EmergencyContact: "+880 1711-123456",
	}
}

func sampleVehicle() VehicleRecord {
	return VehicleRecord{
		ID:       1,
		Model:    "Toyota Corolla",
		Plate:    "ঢাকা মেট্রো-গ-১২৩৪৫৬",
		Year:     2022,
		Owner:    "John Doe",
		Status:   "Active",
		FuelType: "Petrol",
	}
}

func sampleTaxToken() TaxTokenRecord {
	return TaxTokenRecord{
		ID:               1,
		Year:             2025,
		VehicleModel:     "Toyota Corolla",
		Plate:            "ঢাকা মেট্রো-গ-১২৩৪৫৬",
		OwnerName:        "John Doe",
		DrivingLicenseNo: "DL-123456789",
		Amount:           5000,
		IssueDate:        date(2025, time.January, 1),
		ValidUntil:       date(2025, time.December, 31),
		Status:           "Paid",
	}
}

func labels(fields []Field) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Label
	}
	return out
}

func TestNumbering(t *testing.T) {
	assert.Equal(t, "VC-000001", VehicleCardNumber(1))
	assert.Equal(t, "VC-123456", VehicleCardNumber(123456))
	assert.Equal(t, "TT-2025-000001", TaxTokenNumber(2025, 1))
	assert.Equal(t, "CH202200000001", ChassisNumber(2022, 1))
	assert.Equal(t, "EN202100000002", EngineNumber(2021, 2))
}

func TestBuildLicense(t *testing.T) {
	doc, err := BuildLicense(sampleLicense())
	require.NoError(t, err)

	assert.Equal(t, License, doc.Type)
	assert.Equal(t, "DL-123456789", doc.Number)
	assert.Equal(t, []string{"License No", "Name", "Date of Birth", "Blood Group", "License Type", "Issue Date", "Expiry Date"}, labels(doc.FrontFields))
	assert.Equal(t, []string{"Address", "Emergency Contact", "Restrictions"}, labels(doc.BackFields))
	assert.Equal(t, "01/01/1990", doc.FrontFields[2].Value)
	assert.Equal(t, "15/06/2023", doc.FrontFields[5].Value)
	assert.Equal(t, "None", doc.BackFields[2].Value)
	assert.Equal(t, "#006A4E, #28A745, #006A4E", doc.Theme.FrontGradient)

	p, err := doc.Payload()
	require.NoError(t, err)
	assert.Equal(t, qr.Payload("DL-123456789|John Doe|Professional|14/06/2028"), p)
}

func TestBuildVehicleCard(t *testing.T) {
	doc, err := BuildVehicleCard(sampleVehicle())
	require.NoError(t, err)

	assert.Equal(t, "VC-000001", doc.Number)
	assert.Equal(t, []string{"Vehicle Model", "Registration Plate", "Year", "Owner", "Card No", "Status"}, labels(doc.FrontFields))
	assert.Equal(t, []Field{
		{"Chassis No", "CH202200000001"},
		{"Engine No", "EN202200000001"},
		{"Owner", "John Doe"},
		{"Fuel Type", "Petrol"},
	}, doc.BackFields)
	assert.Equal(t, "VC-000001", doc.FrontFields[4].Value)

	p, err := doc.Payload()
	require.NoError(t, err)
	assert.Equal(t, qr.Payload("VC-000001|ঢাকা মেট্রো-গ-১২৩৪৫৬|Toyota Corolla|2022"), p)
}

func TestBuildTaxToken(t *testing.T) {
	doc, err := BuildTaxToken(sampleTaxToken())
	require.NoError(t, err)

	assert.Equal(t, "TT-2025-000001", doc.Number)
	assert.Equal(t, []string{"Token No", "Vehicle", "Registration Plate", "Amount", "Issue Date", "Valid Until", "Status"}, labels(doc.FrontFields))
	assert.Equal(t, "৳5,000", doc.FrontFields[3].Value)
	assert.Equal(t, []string{"Owner Name", "Driving License No"}, labels(doc.BackFields))

	p, err := doc.Payload()
	require.NoError(t, err)
	assert.Equal(t, qr.Payload("TT-2025-000001|ঢাকা মেট্রো-গ-১২৩৪৫৬|৳5000|31/12/2025"), p)
}

func TestBuild_IsDeterministic(t *testing.T) {
	a, err := Build(VehicleCard, sampleVehicle())
	require.NoError(t, err)
	v := sampleVehicle()
	b, err := Build(VehicleCard, &v)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestBuild_RejectsMismatchedRecord(t *testing.T) {
	_, err := Build(License, sampleVehicle())
	assert.ErrorIs(t, err, ErrInvalidRecord)

	_, err = Build(TaxToken, (*TaxTokenRecord)(nil))
	assert.ErrorIs(t, err, ErrInvalidRecord)

	_, err = Build(DocumentType("passport"), sampleLicense())
	assert.ErrorIs(t, err, ErrUnknownDocumentType)
}

func TestBuild_RejectsIncompleteRecords(t *testing.T) {
	lic := sampleLicense()
	lic.Name = "  "
	_, err := BuildLicense(lic)
	assert.ErrorIs(t, err, ErrInvalidRecord)

	lic = sampleLicense()
	lic.ExpiryDate = openapi_types.Date{}
	_, err = BuildLicense(lic)
	assert.ErrorIs(t, err, ErrInvalidRecord)

	veh := sampleVehicle()
	veh.ID = 0
	_, err = BuildVehicleCard(veh)
	assert.ErrorIs(t, err, ErrInvalidRecord)

	tok := sampleTaxToken()
	tok.Amount = 0
	_, err = BuildTaxToken(tok)
	assert.ErrorIs(t, err, ErrInvalidRecord)
}

func TestBuild_RejectsSeparatorInQRField(t *testing.T) {
	veh := sampleVehicle()
	veh.Model = "Corolla | Hybrid"
	doc, err := BuildVehicleCard(veh)
	require.Error(t, err)
	assert.True(t, errors.Is(err, qr.ErrEncodingHazard))
	assert.Zero(t, doc)

	// Separators in fields outside the payload are harmless.
	veh = sampleVehicle()
	veh.FuelType = "Petrol|CNG"
	_, err = BuildVehicleCard(veh)
	require.NoError(t, err)
}

func TestParseDocumentType(t *testing.T) {
	got, err := ParseDocumentType("tax_token")
	require.NoError(t, err)
	assert.Equal(t, TaxToken, got)

	_, err = ParseDocumentType("boat")
	assert.ErrorIs(t, err, ErrUnknownDocumentType)
}

func TestNewRecord_FeedsBuild(t *testing.T) {
	rec, err := NewRecord(VehicleCard)
	require.NoError(t, err)
	v, ok := rec.(*VehicleRecord)
	require.True(t, ok)
	*v = sampleVehicle()

	doc, err := Build(VehicleCard, rec)
	require.NoError(t, err)
	assert.Equal(t, "VC-000001", doc.Number)

	_, err = NewRecord("boat")
	assert.ErrorIs(t, err, ErrUnknownDocumentType)
}

func TestBuildLicense_RequiresLicensePrefix(t *testing.T) {
	for _, no := range []string{"DL2025001", "dl-123", "DL-", "123-DL-4"} {
		lic := sampleLicense()
		lic.LicenseNo = no
		_, err := BuildLicense(lic)
		assert.ErrorIs(t, err, ErrInvalidRecord, no)
	}
}

func TestBuild_FileNameIsPathSafe(t *testing.T) {
	cases := map[string]string{
		"DL-100#2":     "Driving_License_DL-100_2",
		"DL-100?x":     "Driving_License_DL-100_x",
		"DL-../../etc": "Driving_License_DL-.._.._etc",
		"DL-A/B\\C":    "Driving_License_DL-A_B_C",
		"DL-ঢাকা":      "Driving_License_DL-____",
	}
	for no, want := range cases {
		lic := sampleLicense()
		lic.LicenseNo = no
		doc, err := BuildLicense(lic)
		require.NoError(t, err, no)
		assert.Equal(t, want, doc.FileName, no)
		assert.Equal(t, no, doc.Number)
	}

	tok, err := BuildTaxToken(sampleTaxToken())
	require.NoError(t, err)
	assert.Equal(t, "Tax_Token_TT-2025-000001", tok.FileName)
}
