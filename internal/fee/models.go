package fee

// Category identifies one fee schedule in the calculator.
type Category string

const (
	DrivingLicense   Category = "driving_license"
	BikeRegistration Category = "bike_registration"
	CarRegistration  Category = "car_registration"
	BikeTax          Category = "bike_tax"
)

// Selection maps an option axis name to the chosen value, e.g.
// {"licenseType": "professional", "service": "new"}.
type Selection map[string]string

type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Axis is one dimension of a category's price table. Options are listed in
// display order.
type Axis struct {
	Name    string   `json:"name"`
	Label   string   `json:"label"`
	Options []Option `json:"options"`
}

// SubFee is a named component of a price. Amounts are integer currency units.
type SubFee struct {
	Label  string `json:"label"`
	Amount int64  `json:"amount"`
}

type Price struct {
	Fees     []SubFee `json:"fees"`
	Validity string   `json:"validity,omitempty"`
}

// Total is the exact integer sum of the sub-fees.
func (p Price) Total() int64 {
	var total int64
	for _, f := range p.Fees {
		total += f.Amount
	}
	return total
}

// CategoryDef declares a category's axes and one price per combination of axis
// values. Prices are keyed by PriceKey over the axis values in axis order.
type CategoryDef struct {
	Category Category
	Name     string
	Axes     []Axis
	Prices   map[string]Price
	// ShowValidity appends a "Validity" line to the breakdown.
	ShowValidity bool
}

// CategoryInfo is the catalogue entry a UI needs to present option pickers.
type CategoryInfo struct {
	Category Category `json:"category"`
	Name     string   `json:"name"`
	Axes     []Axis   `json:"axes"`
}

type BreakdownItem struct {
	Label  string `json:"label"`
	Value  string `json:"value"`
	Amount int64  `json:"amount,omitempty"`
}

type Result struct {
	Category  Category        `json:"category"`
	Amount    int64           `json:"amount"`
	Validity  string          `json:"validity,omitempty"`
	Breakdown []BreakdownItem `json:"breakdown"`
}
