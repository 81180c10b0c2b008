package geo

import "math"

// LatLonToVec3 places a latitude/longitude (degrees) on a sphere of the given radius.
//
// Uses the equirectangular-to-spherical convention of the globe texture:
//   - polar angle φ = 90° − lat
//   - azimuth θ = lon + 180°
//   - x = −r·sinφ·cosθ, y = r·cosφ, z = r·sinφ·sinθ
func LatLonToVec3(latDeg, lonDeg, radius float64) Vec3 {
	phi := degToRad(90 - latDeg)
	theta := degToRad(lonDeg + 180)
	return Vec3{
		X: -radius * math.Sin(phi) * math.Cos(theta),
		Y: radius * math.Cos(phi),
		Z: radius * math.Sin(phi) * math.Sin(theta),
	}
}

// Vec3ToLatLon is the inverse of LatLonToVec3. The radius is taken from the vector.
// Longitude is normalized to [-180, 180). The zero vector maps to (0, 0).
func Vec3ToLatLon(v Vec3) (latDeg, lonDeg float64) {
	r := v.Norm()
	if r == 0 {
		return 0, 0
	}

	cosPhi := v.Y / r
	// Clamp for floating point drift near the poles
	if cosPhi > 1 {
		cosPhi = 1
	} else if cosPhi < -1 {
		cosPhi = -1
	}
	phi := math.Acos(cosPhi)
	theta := math.Atan2(v.Z, -v.X)

	latDeg = 90 - radToDeg(phi)
	lonDeg = NormalizeLon(radToDeg(theta) - 180)
	return latDeg, lonDeg
}

// NormalizeLon wraps a longitude to the [-180, 180) range.
func NormalizeLon(lon float64) float64 {
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}

// degToRad converts degrees to radians.
func degToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// radToDeg converts radians to degrees.
func radToDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}
