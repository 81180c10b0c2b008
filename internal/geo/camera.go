package geo

import "math"

// ZoomLevels are the discrete magnifications offered by the camera.
var ZoomLevels = []float64{1.0, 1.5, 2.0, 3.0, 4.0, 6.0, 8.0}

const (
	// DefaultZoomLevel frames a country-sized region on an 80x24 terminal.
	DefaultZoomLevel = 4

	// maxCameraLat keeps the camera basis away from the poles.
	maxCameraLat = 85.0
)

// Camera is an orthographic view of the globe centred on a lat/lon.
// Screen coordinates are in globe radii scaled by the zoom: X right (east), Y up (north).
type Camera struct {
	LatDeg    float64
	LonDeg    float64
	ZoomLevel int
}

// NewCamera returns a camera looking at the given point with the default zoom.
func NewCamera(latDeg, lonDeg float64) Camera {
	return Camera{
		LatDeg:    clampLat(latDeg),
		LonDeg:    NormalizeLon(lonDeg),
		ZoomLevel: DefaultZoomLevel,
	}
}

// Zoom returns the current magnification.
func (c Camera) Zoom() float64 {
	if c.ZoomLevel < 0 || c.ZoomLevel >= len(ZoomLevels) {
		return 1.0
	}
	return ZoomLevels[c.ZoomLevel]
}

// basis returns the camera's right, up and forward unit vectors in globe space.
// Forward points from the globe centre toward the viewer.
func (c Camera) basis() (right, up, forward Vec3) {
	forward = LatLonToVec3(c.LatDeg, c.LonDeg, 1)
	north := Vec3{Y: 1}
	up = north.Sub(forward.Scale(north.Dot(forward))).Normalized()
	right = up.Cross(forward)
	return right, up, forward
}

// Project maps a globe-space point to screen coordinates.
// visible is false when the point is hidden behind the globe.
func (c Camera) Project(p Vec3) (x, y float64, visible bool) {
	right, up, forward := c.basis()
	px := p.Dot(right)
	py := p.Dot(up)
	depth := p.Dot(forward)

	// Points behind the limb are still visible if they stick out past the disc
	visible = depth >= 0 || px*px+py*py > 1

	zoom := c.Zoom()
	return px * zoom, py * zoom, visible
}

// Unproject maps screen coordinates back onto the front face of the unit sphere.
// ok is false when the screen point misses the globe disc.
func (c Camera) Unproject(x, y float64) (p Vec3, depth float64, ok bool) {
	zoom := c.Zoom()
	x /= zoom
	y /= zoom

	r2 := x*x + y*y
	if r2 > 1 {
		return Vec3{}, 0, false
	}

	depth = math.Sqrt(1 - r2)
	right, up, forward := c.basis()
	p = right.Scale(x).Add(up.Scale(y)).Add(forward.Scale(depth))
	return p, depth, true
}

// Pan rotates the view by the given offsets in degrees.
func (c Camera) Pan(dLat, dLon float64) Camera {
	c.LatDeg = clampLat(c.LatDeg + dLat)
	c.LonDeg = NormalizeLon(c.LonDeg + dLon)
	return c
}

// ZoomIn steps to the next magnification, if any.
func (c Camera) ZoomIn() Camera {
	if c.ZoomLevel < len(ZoomLevels)-1 {
		c.ZoomLevel++
	}
	return c
}

// ZoomOut steps to the previous magnification, if any.
func (c Camera) ZoomOut() Camera {
	if c.ZoomLevel > 0 {
		c.ZoomLevel--
	}
	return c
}

func clampLat(lat float64) float64 {
	if lat > maxCameraLat {
		return maxCameraLat
	}
	if lat < -maxCameraLat {
		return -maxCameraLat
	}
	return lat
}
