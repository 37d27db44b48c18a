package fee

// Fee amounts are whole taka. The schedule is static and unversioned.

func defaultDefinitions() []CategoryDef {
	return []CategoryDef{
		{
			Category: DrivingLicense,
			Name:     "Driving License",
			Axes: []Axis{
				{Name: "licenseType", Label: "License Type", Options: []Option{
					{Value: "non_professional", Label: "Non-Professional"},
					{Value: "professional", Label: "Professional"},
				}},
				{Name: "service", Label: "Service", Options: []Option{
					{Value: "new", Label: "New License"},
					{Value: "renewal", Label: "Renewal"},
				}},
			},
			Prices: map[string]Price{
				PriceKey("non_professional", "new"):     single(4557, "10 years"),
				PriceKey("non_professional", "renewal"): single(4212, "10 years"),
				PriceKey("professional", "new"):         single(2832, "5 years"),
				PriceKey("professional", "renewal"):     single(2387, "5 years"),
			},
			ShowValidity: true,
		},
		{
			Category: BikeRegistration,
			Name:     "Bike Registration",
			Axes: []Axis{
				{Name: "engine", Label: "Engine Capacity", Options: []Option{
					{Value: "up_to_100", Label: "Up to 100cc"},
					{Value: "over_100", Label: "Over 100cc"},
				}},
				{Name: "period", Label: "Registration Period", Options: []Option{
					{Value: "2_years", Label: "2 years"},
					{Value: "10_years", Label: "10 years"},
				}},
			},
			Prices: map[string]Price{
				PriceKey("up_to_100", "2_years"):  single(10664, "2 years"),
				PriceKey("up_to_100", "10_years"): single(11764, "10 years"),
				PriceKey("over_100", "2_years"):   single(11764, "2 years"),
				PriceKey("over_100", "10_years"):  single(20964, "10 years"),
			},
		},
		{
			Category: CarRegistration,
			Name:     "Car Registration & Tax",
			Axes: []Axis{
				{Name: "engine", Label: "Engine Capacity", Options: []Option{
					{Value: "up_to_1500", Label: "Up to 1500cc"},
					{Value: "1501_2000", Label: "1501-2000cc"},
					{Value: "2001_2500", Label: "2001-2500cc"},
					{Value: "2501_3000", Label: "2501-3000cc"},
					{Value: "3001_3500", Label: "3001-3500cc"},
					{Value: "above_3500", Label: "Above 3500cc"},
				}},
			},
			Prices: map[string]Price{
				PriceKey("up_to_1500"): registration(25000, 15000),
				PriceKey("1501_2000"):  registration(50000, 30000),
				PriceKey("2001_2500"):  registration(75000, 60000),
				PriceKey("2501_3000"):  registration(125000, 100000),
				PriceKey("3001_3500"):  registration(150000, 200000),
				PriceKey("above_3500"): registration(200000, 300000),
			},
		},
		{
			Category: BikeTax,
			Name:     "Bike Tax Token",
			Axes: []Axis{
				{Name: "engine", Label: "Engine Capacity", Options: []Option{
					{Value: "below_100", Label: "Below 100cc"},
					{Value: "above_100", Label: "Above 100cc"},
				}},
				{Name: "type", Label: "Payment Type", Options: []Option{
					{Value: "annual", Label: "Annual"},
					{Value: "permanent", Label: "Permanent"},
				}},
			},
			Prices: map[string]Price{
				PriceKey("below_100", "annual"):    bikeTax(1150, 1150),
				PriceKey("below_100", "permanent"): bikeTax(5750, 1150),
				PriceKey("above_100", "annual"):    bikeTax(2300, 1150),
				PriceKey("above_100", "permanent"): bikeTax(11500, 1150),
			},
		},
	}
}

func single(amount int64, validity string) Price {
	return Price{Fees: []SubFee{{Label: "Fee", Amount: amount}}, Validity: validity}
}

func registration(reg, tax int64) Price {
	return Price{Fees: []SubFee{
		{Label: "Registration Fee", Amount: reg},
		{Label: "Annual Tax Token", Amount: tax},
	}}
}

func bikeTax(tax, faf int64) Price {
	return Price{Fees: []SubFee{
		{Label: "Tax Fee", Amount: tax},
		{Label: "FAF Fee", Amount: faf},
	}}
}
