package models

import "strings"

type SpecType string

const (
	SpecTorque        SpecType = "Torque"
	SpecFluidCapacity SpecType = "FluidCapacity"
	SpecPressure      SpecType = "Pressure"
	SpecClearance     SpecType = "Clearance"
	SpecGap           SpecType = "Gap"
	SpecPartNumber    SpecType = "PartNumber"
	SpecTemperature   SpecType = "Temperature"
	SpecVoltage       SpecType = "Voltage"
)

// SpecTypes lists every accepted spec_type in declaration order.
var SpecTypes = []SpecType{
	SpecTorque, SpecFluidCapacity, SpecPressure, SpecClearance,
	SpecGap, SpecPartNumber, SpecTemperature, SpecVoltage,
}

// ParseSpecType maps loose spellings ("fluid capacity", "fluid_capacity", "TORQUE") to the canonical value.
func ParseSpecType(s string) (SpecType, bool) {
	key := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_', '-':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(s)))
	for _, t := range SpecTypes {
		if strings.ToLower(string(t)) == key {
			return t, true
		}
	}
	switch key {
	case "capacity", "fluid", "volume":
		return SpecFluidCapacity, true
	case "partno", "part":
		return SpecPartNumber, true
	case "temp":
		return SpecTemperature, true
	}
	return "", false
}

// SpecRecord is one extracted specification.
type SpecRecord struct {
	Component     string   `json:"component"`
	SpecType      SpecType `json:"spec_type"`
	Value         string   `json:"value"`
	Unit          string   `json:"unit"`
	PartNumber    string   `json:"part_number,omitempty"`
	Condition     string   `json:"condition,omitempty"`
	SourcePage    *int     `json:"source_page,omitempty"`
	Confidence    float64  `json:"confidence"`
	SourceContext string   `json:"source_context,omitempty"`
}
