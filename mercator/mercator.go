// Package mercator implements the Web Mercator projection math shared by
// every other package: longitude/latitude to fractional tile coordinates
// and back, plus the longitude-wrap and latitude-clamp rules from spec.md §3.
package mercator

import "math"

// MaxLatitude is the Mercator domain limit, |lat| ≤ 85.0511°.
const MaxLatitude = 85.0511

// WrapLongitude normalizes lon to [-180, 180).
func WrapLongitude(lon float64) float64 {
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}

// ClampLatitude restricts lat to the Mercator-representable range.
func ClampLatitude(lat float64) float64 {
	if lat > MaxLatitude {
		return MaxLatitude
	}
	if lat < -MaxLatitude {
		return -MaxLatitude
	}
	return lat
}

// LonLatToTile projects (lon, lat) in WGS84 degrees to fractional tile
// coordinates (tx, ty) at zoom z.
func LonLatToTile(lon, lat float64, z float64) (tx, ty float64) {
	lon = WrapLongitude(lon)
	lat = ClampLatitude(lat)

	n := math.Pow(2, z)
	latRad := lat * math.Pi / 180

	tx = (lon + 180) / 360 * n
	ty = (1 - math.Log(math.Tan(latRad)+1/math.Cos(latRad))/math.Pi) / 2 * n
	return tx, ty
}

// TileToLonLat is the inverse of LonLatToTile.
func TileToLonLat(tx, ty float64, z float64) (lon, lat float64) {
	n := math.Pow(2, z)

	lon = tx/n*360 - 180
	latRad := math.Atan(math.Sinh(math.Pi * (1 - 2*ty/n)))
	lat = latRad * 180 / math.Pi
	return lon, lat
}

// TileSizeAtZoom returns the canvas-pixel size of one tile at the current
// fractional zoom: projectSize scaled by 2^(z - floor(z)).
func TileSizeAtZoom(zoom float64, projectSize int) float64 {
	frac := zoom - math.Floor(zoom)
	return float64(projectSize) * math.Pow(2, frac)
}
