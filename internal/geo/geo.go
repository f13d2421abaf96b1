// Package geo projects vessel positions onto a ground track.
package geo

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"
)

// Ground track points are always stored as EPSG:3857 WKT, the same projection
// whatever body the vessel orbits. Latitude is clamped to the web mercator limit.

// ErrDegenerate is returned when a position coincides with the body center.
var ErrDegenerate = errors.New("position coincides with body center")

// MaxLatitude is the web mercator latitude limit in degrees.
const MaxLatitude = 85.05112878

// LatLon returns the spherical latitude and longitude in degrees of position
// relative to bodyCenter. The body's rotation axis is +Y.
func LatLon(position, bodyCenter mgl64.Vec3) (lat, lon float64, err error) {
	d := position.Sub(bodyCenter)
	r := d.Len()
	if r == 0 || math.IsNaN(r) {
		return 0, 0, ErrDegenerate
	}
	lat = mgl64.RadToDeg(math.Asin(mgl64.Clamp(d.Y()/r, -1, 1)))
	lon = mgl64.RadToDeg(math.Atan2(d.Z(), d.X()))
	return lat, lon, nil
}

// Coords3857From4326 creates a web mercator point from a longitude and latitude
func Coords3857From4326(longitude, latitude, altitude float64) (geom.Point, error) {
	latitude = mgl64.Clamp(latitude, -MaxLatitude, MaxLatitude)
	f := wgs84.EPSG().Transform(4326, 3857)
	x, y, _ := f(longitude, latitude, 0)
	p, err := geom.NewPoint(geom.Coordinates{
		XY:   geom.XY{X: x, Y: y},
		Z:    altitude,
		Type: geom.DimXYZ,
	})
	if err != nil {
		return geom.Point{}, fmt.Errorf("invalid track point: %w", err)
	}
	return p, nil
}

// TrackPoint projects a vessel position to a 3857 point with altitude as Z.
func TrackPoint(position, bodyCenter mgl64.Vec3, altitude float64) (geom.Point, error) {
	lat, lon, err := LatLon(position, bodyCenter)
	if err != nil {
		return geom.Point{}, err
	}
	return Coords3857From4326(lon, lat, altitude)
}

// TrackWKT is TrackPoint rendered as WKT.
func TrackWKT(position, bodyCenter mgl64.Vec3, altitude float64) (string, error) {
	p, err := TrackPoint(position, bodyCenter, altitude)
	if err != nil {
		return "", err
	}
	return p.AsText(), nil
}
