// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Unit is a unit of measure for numeric question constraints.
type Unit string

const (
	UnitSeconds Unit = "seconds"
	UnitMinutes Unit = "minutes"
	UnitHours   Unit = "hours"
	UnitDays    Unit = "days"
	UnitWeeks   Unit = "weeks"
	UnitMonths  Unit = "months"
	UnitYears   Unit = "years"

	UnitInches Unit = "inches"
	UnitFeet   Unit = "feet"
	UnitYards  Unit = "yards"
	UnitMiles  Unit = "miles"

	UnitOunces Unit = "ounces"
	UnitPounds Unit = "pounds"

	UnitPints   Unit = "pints"
	UnitQuarts  Unit = "quarts"
	UnitGallons Unit = "gallons"

	UnitCentimeters Unit = "centimeters"
	UnitMeters      Unit = "meters"
	UnitKilometers  Unit = "kilometers"

	UnitGrams     Unit = "grams"
	UnitKilograms Unit = "kilograms"

	UnitMilliliters      Unit = "milliliters"
	UnitCubicCentimeters Unit = "cubic_centimeters"
	UnitLiters           Unit = "liters"
	UnitCubicMeters      Unit = "cubic_meters"

	UnitMillimetersMercury Unit = "millimeters_mercury"
)

// Units lists every known unit in declaration order.
var Units = []Unit{
	UnitSeconds, UnitMinutes, UnitHours, UnitDays, UnitWeeks, UnitMonths, UnitYears,
	UnitInches, UnitFeet, UnitYards, UnitMiles,
	UnitOunces, UnitPounds,
	UnitPints, UnitQuarts, UnitGallons,
	UnitCentimeters, UnitMeters, UnitKilometers,
	UnitGrams, UnitKilograms,
	UnitMilliliters, UnitCubicCentimeters, UnitLiters, UnitCubicMeters,
	UnitMillimetersMercury,
}

var unitSet = func() map[Unit]struct{} {
	m := make(map[Unit]struct{}, len(Units))
	for _, u := range Units {
		m[u] = struct{}{}
	}
	return m
}()

// Valid reports whether u is a known unit.
func (u Unit) Valid() bool {
	_, ok := unitSet[u]
	return ok
}

// ParseUnit accepts either the canonical lower-case name or the upper-case
// enum spelling ("CUBIC_CENTIMETERS").
func ParseUnit(s string) (Unit, error) {
	u := Unit(strings.ToLower(strings.TrimSpace(s)))
	if !u.Valid() {
		return "", fmt.Errorf("unknown unit %q", s)
	}
	return u, nil
}

// UnmarshalJSON accepts any spelling ParseUnit does. Unknown names are kept
// as sent so validation can report them against the question.
func (u *Unit) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*u = ""
		return nil
	}
	if parsed, err := ParseUnit(s); err == nil {
		*u = parsed
		return nil
	}
	*u = Unit(s)
	return nil
}
