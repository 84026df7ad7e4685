// Package schema describes the Electric Vehicle Population dataset: the
// canonical column names the rest of the pipeline refers to, their types,
// the mapping from the published CSV headers, and the boundary checks that
// turn a raw string table into a typed one.
//
// Validation happens once, here. Later stages assume the columns exist and
// hold values of the declared type.
package schema

import "evstar/internal/table"

// Canonical column names.
const (
	VIN                 = "vin"
	County              = "county"
	City                = "city"
	State               = "state"
	PostalCode          = "postal_code"
	ModelYear           = "model_year"
	Make                = "make"
	Model               = "model"
	EVType              = "ev_type"
	CAFVEligibility     = "cafv_eligibility"
	ElectricRange       = "electric_range"
	BaseMSRP            = "base_msrp"
	LegislativeDistrict = "legislative_district"
	DOLVehicleID        = "dol_vehicle_id"
	VehicleLocation     = "vehicle_location"
	ElectricUtility     = "electric_utility"
	CensusTract2020     = "census_tract_2020"
)

// Columns is the expected input schema in publication order.
var Columns = []table.Column{
	{Name: VIN, Type: table.TypeString},
	{Name: County, Type: table.TypeString},
	{Name: City, Type: table.TypeString},
	{Name: State, Type: table.TypeString},
	{Name: PostalCode, Type: table.TypeInt},
	{Name: ModelYear, Type: table.TypeInt},
	{Name: Make, Type: table.TypeString},
	{Name: Model, Type: table.TypeString},
	{Name: EVType, Type: table.TypeString},
	{Name: CAFVEligibility, Type: table.TypeString},
	{Name: ElectricRange, Type: table.TypeFloat},
	{Name: BaseMSRP, Type: table.TypeFloat},
	{Name: LegislativeDistrict, Type: table.TypeInt},
	{Name: DOLVehicleID, Type: table.TypeInt},
	{Name: VehicleLocation, Type: table.TypeString},
	{Name: ElectricUtility, Type: table.TypeString},
	{Name: CensusTract2020, Type: table.TypeInt},
}

// HeaderMap maps the headers published by data.wa.gov to canonical names.
// Headers not listed here are normalized by the CSV parser.
var HeaderMap = map[string]string{
	"VIN (1-10)":            VIN,
	"County":                County,
	"City":                  City,
	"State":                 State,
	"Postal Code":           PostalCode,
	"Model Year":            ModelYear,
	"Make":                  Make,
	"Model":                 Model,
	"Electric Vehicle Type": EVType,
	"Clean Alternative Fuel Vehicle (CAFV) Eligibility": CAFVEligibility,
	"Electric Range":       ElectricRange,
	"Base MSRP":            BaseMSRP,
	"Legislative District": LegislativeDistrict,
	"DOL Vehicle ID":       DOLVehicleID,
	"Vehicle Location":     VehicleLocation,
	"Electric Utility":     ElectricUtility,
	"2020 Census Tract":    CensusTract2020,
}

// SentinelColumns lists the numeric columns where 0 means "unknown". Other
// numeric columns keep legitimate zeros.
var SentinelColumns = []string{BaseMSRP, ElectricRange}

// IsSentinelColumn reports whether 0 is a missing-value marker for name.
func IsSentinelColumn(name string) bool {
	for _, c := range SentinelColumns {
		if c == name {
			return true
		}
	}
	return false
}

// TypeOf returns the declared type of a canonical column. Unknown columns are
// carried as strings.
func TypeOf(name string) table.Type {
	for _, c := range Columns {
		if c.Name == name {
			return c.Type
		}
	}
	return table.TypeString
}
