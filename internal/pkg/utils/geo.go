package utils

import "math"

const earthRadius = 6371000 // meters

// Point is a WGS84 coordinate in degrees.
type Point struct {
	Lat float64
	Lng float64
}

// Box is the smallest lat/lng rectangle holding a set of points.
type Box struct {
	South, West, North, East float64
}

// CalculateHaversineDistance returns the great-circle distance between two
// coordinates in meters.
func CalculateHaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * (math.Pi / 180.0)
	dLon := (lon2 - lon1) * (math.Pi / 180.0)

	lat1Rad := lat1 * (math.Pi / 180.0)
	lat2Rad := lat2 * (math.Pi / 180.0)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(lat1Rad)*math.Cos(lat2Rad)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadius * c
}

// Bounds returns the bounding box of points. ok is false for an empty slice.
func Bounds(points []Point) (box Box, ok bool) {
	if len(points) == 0 {
		return Box{}, false
	}
	box = Box{South: points[0].Lat, North: points[0].Lat, West: points[0].Lng, East: points[0].Lng}
	for _, p := range points[1:] {
		box.South = math.Min(box.South, p.Lat)
		box.North = math.Max(box.North, p.Lat)
		box.West = math.Min(box.West, p.Lng)
		box.East = math.Max(box.East, p.Lng)
	}
	return box, true
}

// Center is the midpoint of the box.
func (b Box) Center() Point {
	return Point{Lat: (b.South + b.North) / 2, Lng: (b.West + b.East) / 2}
}

// Diagonal is the south-west to north-east distance in meters.
func (b Box) Diagonal() float64 {
	return CalculateHaversineDistance(b.South, b.West, b.North, b.East)
}
