package satchip

import (
	"fmt"
	"math"
)

const (
	epsgUTMNorth = 32600
	epsgUTMSouth = 32700
)

// A UTMZoneRule overrides the regular UTM zone for coordinates with MinLat <=
// lat < MaxLat and MinLon <= lon < MaxLon.
type UTMZoneRule struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
	Zone           int
}

// UTMZoneRules are the irregular UTM zones of southwest Norway and Svalbard.
// They are checked in order before the regular formula.
var UTMZoneRules = []UTMZoneRule{
	{MinLat: 56, MaxLat: 64, MinLon: 3, MaxLon: 12, Zone: 32},
	{MinLat: 72, MaxLat: 84, MinLon: 0, MaxLon: 9, Zone: 31},
	{MinLat: 72, MaxLat: 84, MinLon: 9, MaxLon: 21, Zone: 33},
	{MinLat: 72, MaxLat: 84, MinLon: 21, MaxLon: 33, Zone: 35},
	{MinLat: 72, MaxLat: 84, MinLon: 33, MaxLon: 42, Zone: 37},
}

func (r UTMZoneRule) contains(lat, lon float64) bool {
	return r.MinLat <= lat && lat < r.MaxLat && r.MinLon <= lon && lon < r.MaxLon
}

// UTMZone returns the UTM zone number of (lat, lon).
func UTMZone(lat, lon float64) (int, error) {
	switch {
	case math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0):
		return 0, fmt.Errorf("%w: latlng [%v, %v] is not finite", ErrUTMResolution, lat, lon)
	case lat < -90 || 90 < lat:
		return 0, fmt.Errorf("%w: latlng [%v, %v] latitude out of range", ErrUTMResolution, lat, lon)
	}
	for _, rule := range UTMZoneRules {
		if rule.contains(lat, lon) {
			return rule.Zone, nil
		}
	}
	// Longitudes outside [-180, 180) wrap onto the regular zones.
	zone := int(floorMod(math.Floor((lon+180)/6), 60)) + 1
	return zone, nil
}

// EPSGFromLatLon returns the EPSG code of the UTM zone containing (lat, lon).
// Northern hemisphere zones (lat >= 0) are 326zz, southern zones are 327zz.
func EPSGFromLatLon(lat, lon float64) (int, error) {
	zone, err := UTMZone(lat, lon)
	if err != nil {
		return 0, err
	}
	epsg := epsgUTMNorth + zone
	if lat < 0 {
		epsg = epsgUTMSouth + zone
	}
	if !IsUTMEPSG(epsg) {
		return 0, fmt.Errorf("%w: latlng [%v, %v] resulted in EPSG code %d", ErrUTMResolution, lat, lon, epsg)
	}
	return epsg, nil
}

// IsUTMEPSG returns whether epsg is a WGS84 UTM EPSG code.
func IsUTMEPSG(epsg int) bool {
	zone := epsg % 100
	hemisphere := epsg - zone
	return (hemisphere == epsgUTMNorth || hemisphere == epsgUTMSouth) && 1 <= zone && zone <= 60
}

// floorMod returns a modulo b in [0, b) for positive b.
func floorMod(a, b float64) float64 {
	m := math.Mod(a, b)
	if m < 0 {
		m += b
	}
	// Adding b to a tiny negative remainder can round up to b.
	if m >= b {
		m = 0
	}
	return m
}
