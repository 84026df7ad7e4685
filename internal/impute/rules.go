package impute

import "evstar/internal/schema"

// DefaultRules returns the fallback chains for the EV population dataset.
// Order matters: district and census tract are grouped by the city as
// published, city is then filled by county, and postal code by the repaired
// (county, city) pair. County itself is filled last.
func DefaultRules() []Rule {
	vehicleGroup := []string{schema.Make, schema.Model, schema.ModelYear}
	return []Rule{
		{Column: schema.BaseMSRP, Sentinel: true, Chain: []Step{GroupMean(vehicleGroup...), GlobalMean()}},
		{Column: schema.ElectricRange, Sentinel: true, Chain: []Step{GroupMean(vehicleGroup...), GlobalMean()}},
		{Column: schema.LegislativeDistrict, Chain: []Step{GroupMode(schema.City), GlobalMode()}},
		{Column: schema.CensusTract2020, Chain: []Step{GroupMode(schema.City), GlobalMode()}},
		{Column: schema.City, Chain: []Step{GroupMode(schema.County), GlobalMode()}},
		{Column: schema.PostalCode, Chain: []Step{GroupMode(schema.County, schema.City), GlobalMode()}},
		{Column: schema.County, Chain: []Step{GlobalMode()}},
		{Column: schema.VehicleLocation, Chain: []Step{GlobalMode()}},
		{Column: schema.ElectricUtility, Chain: []Step{GlobalMode()}},
	}
}
