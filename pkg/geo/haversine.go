package geo

import "math"

const earthRadiusMeters = 6_371_000.0

// Haversine returns the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	lat1r := lat1 * math.Pi / 180
	lat2r := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1r)*math.Cos(lat2r)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// EquirectangularDist returns an approximate distance in meters.
// ~3x faster than Haversine; accurate to <0.1% near the equator.
// Use for candidate ordering, not for final edge weights.
func EquirectangularDist(lat1, lon1, lat2, lon2 float64) float64 {
	x := (lon2 - lon1) * math.Cos((lat1+lat2)/2*math.Pi/180) * math.Pi / 180
	y := (lat2 - lat1) * math.Pi / 180
	return math.Sqrt(x*x+y*y) * earthRadiusMeters
}

// PointToBoxDist returns the equirectangular distance in meters from a point
// to the nearest point of a lat/lon box, or 0 when the point is inside it.
// Boxes are given as [lon, lat] corner pairs, the axis order used by the
// spatial index.
func PointToBoxDist(lat, lon float64, lo, hi [2]float64) float64 {
	cLon := math.Max(lo[0], math.Min(lon, hi[0]))
	cLat := math.Max(lo[1], math.Min(lat, hi[1]))
	if cLat == lat && cLon == lon {
		return 0
	}
	return EquirectangularDist(lat, lon, cLat, cLon)
}
