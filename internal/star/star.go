// Package star turns the cleaned EV population table into a star schema:
// two reference dimensions (ev type, CAFV eligibility), two composite
// dimensions (vehicle, location) and the vehicle fact table.
//
// Dimensions are built in dependency order. The vehicle dimension's natural
// key includes the reference dimensions' surrogate keys, so those are
// attached to the working table first.
package star

import (
	"fmt"
	"log/slog"

	"evstar/internal/dimension"
	"evstar/internal/fact"
	"evstar/internal/schema"
	"evstar/internal/table"
)

// Output table and key column names.
const (
	EVTypeTable   = "dim_ev_type"
	CAFVTable     = "dim_cafv_eligibility"
	VehicleTable  = "dim_vehicle"
	LocationTable = "dim_location"
	FactTable     = "fact_vehicle"

	EVTypeID   = "ev_type_id"
	CAFVID     = "cafv_id"
	VehicleID  = "vehicle_id"
	LocationID = "location_id"
	FactID     = "fact_id"
)

var (
	EVTypeSpec = dimension.Spec{
		Name:      EVTypeTable,
		Columns:   []string{schema.EVType},
		KeyColumn: EVTypeID,
		SkipNull:  true,
	}
	CAFVSpec = dimension.Spec{
		Name:      CAFVTable,
		Columns:   []string{schema.CAFVEligibility},
		KeyColumn: CAFVID,
		SkipNull:  true,
	}
	VehicleSpec = dimension.Spec{
		Name:      VehicleTable,
		Columns:   []string{schema.Make, schema.Model, schema.ModelYear, EVTypeID, CAFVID},
		KeyColumn: VehicleID,
	}
	LocationSpec = dimension.Spec{
		Name: LocationTable,
		Columns: []string{
			schema.City, schema.County, schema.State, schema.PostalCode,
			schema.ElectricUtility, schema.LegislativeDistrict,
			schema.VehicleLocation, schema.CensusTract2020,
		},
		KeyColumn: LocationID,
	}
	FactSpec = fact.Spec{
		Name:     FactTable,
		Measures: []string{schema.VIN, schema.DOLVehicleID, schema.BaseMSRP, schema.ElectricRange},
		IDColumn: FactID,
	}
)

// Schema is the built star schema.
type Schema struct {
	EVType   *dimension.Dimension
	CAFV     *dimension.Dimension
	Vehicle  *dimension.Dimension
	Location *dimension.Dimension
	Fact     *table.Table
}

// Named pairs an output table with its name.
type Named struct {
	Name  string
	Table *table.Table
}

// Tables returns the five output tables, dimensions first.
func (s *Schema) Tables() []Named {
	return []Named{
		{EVTypeTable, s.EVType.Table()},
		{CAFVTable, s.CAFV.Table()},
		{VehicleTable, s.Vehicle.Table()},
		{LocationTable, s.Location.Table()},
		{FactTable, s.Fact},
	}
}

// Build models cleaned into a star schema. cleaned is not modified.
func Build(cleaned *table.Table, log *slog.Logger) (*Schema, error) {
	if log == nil {
		log = slog.Default()
	}
	s := &Schema{}
	work := cleaned

	var err error
	// Reference dimensions first; their keys feed the vehicle natural key.
	for _, ref := range []struct {
		spec dimension.Spec
		dst  **dimension.Dimension
	}{
		{EVTypeSpec, &s.EVType},
		{CAFVSpec, &s.CAFV},
	} {
		d, err := dimension.Build(work, ref.spec)
		if err != nil {
			return nil, err
		}
		if work, err = d.Attach(work); err != nil {
			return nil, err
		}
		*ref.dst = d
		log.Debug("star: dimension built", slog.String("dimension", d.Name()), slog.Int("rows", d.Len()))
	}

	if s.Vehicle, err = dimension.Build(work, VehicleSpec); err != nil {
		return nil, err
	}
	log.Debug("star: dimension built", slog.String("dimension", VehicleTable), slog.Int("rows", s.Vehicle.Len()))

	if s.Location, err = dimension.Build(work, LocationSpec); err != nil {
		return nil, err
	}
	log.Debug("star: dimension built", slog.String("dimension", LocationTable), slog.Int("rows", s.Location.Len()))

	if s.Fact, err = fact.Assemble(work, FactSpec, s.Vehicle, s.Location); err != nil {
		return nil, err
	}
	if s.Fact.Len() != cleaned.Len() {
		return nil, fmt.Errorf("star: %w: %d != %d", fact.ErrRowCount, s.Fact.Len(), cleaned.Len())
	}
	return s, nil
}
