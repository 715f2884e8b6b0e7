// Package geo provides great-circle distance and coordinate validation.
package geo

import (
	"math"

	"github.com/golang/geo/s2"
)

// EarthRadiusKm is the mean Earth radius used for distance calculations
const EarthRadiusKm = 6371.0

// Distance returns the haversine great-circle distance in kilometres between
// two points given in degrees.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	phi1 := radians(lat1)
	phi2 := radians(lat2)
	dPhi := radians(lat2 - lat1)
	dLambda := radians(lng2 - lng1)

	sinPhi := math.Sin(dPhi / 2)
	sinLambda := math.Sin(dLambda / 2)
	a := sinPhi*sinPhi + math.Cos(phi1)*math.Cos(phi2)*sinLambda*sinLambda

	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(a))
}

const degToRad = math.Pi / 180

// radians multiplies by a precomputed pi/180. Dividing deg*pi by 180 instead
// can land one ulp away, which shows up in scores that sit on a rounding tie.
func radians(deg float64) float64 {
	return deg * degToRad
}

// Valid reports whether lat/lng are finite and within [-90, 90] and [-180, 180].
func Valid(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return false
	}
	return s2.LatLngFromDegrees(lat, lng).IsValid()
}
