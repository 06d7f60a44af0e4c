package main

import "fmt"

// Sound effects are primarily keyed by id. They support a number of
// optional variations: an arbitrary variant string, a season, indoors or
// outdoors, and nighttime or daytime. Unspecified variations take a
// per-dimension default, and lookups fall back to that default when the
// requested value has no bucket. A variation never falls back to an
// opposing value: a nighttime request cannot be satisfied by a daytime
// entry.

type sfxSeason uint8

const (
	seasonNone sfxSeason = iota
	seasonSpring
	seasonSummer
	seasonAutumn
	seasonWinter
)

func seasonFromString(s string) (sfxSeason, error) {
	switch s {
	case "":
		return seasonNone, nil
	case "spring":
		return seasonSpring, nil
	case "summer":
		return seasonSummer, nil
	case "autumn":
		return seasonAutumn, nil
	case "winter":
		return seasonWinter, nil
	}
	return seasonNone, fmt.Errorf("sfx specified unknown season %q", s)
}

type sfxInOrOut uint8

const (
	placeEither sfxInOrOut = iota
	placeOutdoors
	placeIndoors
	placeCount
)

// Indoors arrives as an optional bool in the data; -1 means "not set".
func inOrOutFromInt(value int) (sfxInOrOut, error) {
	adjusted := value + 1
	if adjusted < 0 || adjusted >= int(placeCount) {
		return placeEither, fmt.Errorf("sfx specified unknown inside/outside value %d", value)
	}
	return sfxInOrOut(adjusted), nil
}

type sfxTimeOfDay uint8

const (
	todAny sfxTimeOfDay = iota
	todDaytime
	todNighttime
	todCount
)

// Night arrives as an optional bool in the data; -1 means "not set".
func todFromInt(value int) (sfxTimeOfDay, error) {
	adjusted := value + 1
	if adjusted < 0 || adjusted >= int(todCount) {
		return todAny, fmt.Errorf("sfx specified unknown day/night value %d", value)
	}
	return sfxTimeOfDay(adjusted), nil
}

// boolOr flattens a tri-state optional bool to the -1/0/1 encoding used by
// the validators above.
func boolOr(opt *bool, defl int) int {
	if opt == nil {
		return defl
	}
	if *opt {
		return 1
	}
	return 0
}

// sfxKey is the full five-dimension lookup tuple. Identity is the whole
// tuple; keys differing only in an optional dimension are distinct entries.
type sfxKey struct {
	id      string
	variant string
	season  sfxSeason
	place   sfxInOrOut
	tod     sfxTimeOfDay
}

// newSfxKey validates the textual/tri-state inputs and builds a key.
// Unrecognized tokens are a data-integrity fault reported to the caller.
func newSfxKey(id, variant, season string, indoors, night *bool) (sfxKey, error) {
	se, err := seasonFromString(season)
	if err != nil {
		return sfxKey{}, err
	}
	pl, err := inOrOutFromInt(boolOr(indoors, -1))
	if err != nil {
		return sfxKey{}, err
	}
	td, err := todFromInt(boolOr(night, -1))
	if err != nil {
		return sfxKey{}, err
	}
	return sfxKey{id: id, variant: variant, season: se, place: pl, tod: td}, nil
}
