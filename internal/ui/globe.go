package ui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/litescript/ls-awaydays/internal/geo"
	"github.com/litescript/ls-awaydays/internal/scene"
)

const (
	// Terminal cells are roughly twice as tall as they are wide
	cellAspect = 2.0

	// How much the limb darkens relative to the centre of the disc
	limbShade = 0.65

	glyphPin     = '●'
	glyphHomePin = '◉'
	glyphArc     = '·'
	glyphFront   = '•'
)

var (
	spaceColor = colorful.Color{R: 0.02, G: 0.02, B: 0.06}
	shadeColor = colorful.Color{}
)

// cell is one terminal character of the canvas.
type cell struct {
	glyph rune
	fg    string
	bg    string
}

// canvas maps between globe screen coordinates and terminal cells.
type canvas struct {
	width, height int
	unit          float64 // rows per globe radius at zoom 1
	cells         [][]cell
}

func newCanvas(width, height int) *canvas {
	c := &canvas{width: width, height: height, unit: float64(height) / 2}
	c.cells = make([][]cell, height)
	bg := spaceColor.Hex()
	for y := range c.cells {
		c.cells[y] = make([]cell, width)
		for x := range c.cells[y] {
			c.cells[y][x] = cell{glyph: ' ', bg: bg}
		}
	}
	return c
}

// screen returns the camera-plane coordinates at the centre of a cell.
func (c *canvas) screen(col, row int) (float64, float64) {
	sx := (float64(col) + 0.5 - float64(c.width)/2) / (c.unit * cellAspect)
	sy := (float64(c.height)/2 - float64(row) - 0.5) / c.unit
	return sx, sy
}

// cellAt returns the cell under camera-plane coordinates.
func (c *canvas) cellAt(x, y float64) (col, row int, ok bool) {
	col = int(math.Floor(x*c.unit*cellAspect + float64(c.width)/2))
	row = int(math.Floor(float64(c.height)/2 - y*c.unit))
	ok = col >= 0 && col < c.width && row >= 0 && row < c.height
	return col, row, ok
}

func (c *canvas) plot(cam geo.Camera, p geo.Vec3, glyph rune, fg string) {
	x, y, visible := cam.Project(p)
	if !visible {
		return
	}
	col, row, ok := c.cellAt(x, y)
	if !ok {
		return
	}
	c.cells[row][col].glyph = glyph
	c.cells[row][col].fg = fg
}

// paintGlobe samples the texture for every cell on the disc, darkening toward the limb.
func (c *canvas) paintGlobe(cam geo.Camera, tex scene.Texture) {
	for row := 0; row < c.height; row++ {
		for col := 0; col < c.width; col++ {
			sx, sy := c.screen(col, row)
			p, depth, ok := cam.Unproject(sx, sy)
			if !ok {
				continue
			}
			lat, lon := geo.Vec3ToLatLon(p)
			shaded := tex.Sample(lat, lon).BlendRgb(shadeColor, (1-depth)*limbShade)
			c.cells[row][col].bg = shaded.Clamped().Hex()
		}
	}
}

// render writes the canvas, merging runs of cells with the same colours into one style.
func (c *canvas) render() string {
	var b strings.Builder
	for y, line := range c.cells {
		if y > 0 {
			b.WriteByte('\n')
		}
		start := 0
		for x := 1; x <= len(line); x++ {
			if x < len(line) && line[x].fg == line[start].fg && line[x].bg == line[start].bg {
				continue
			}
			var run strings.Builder
			for _, cl := range line[start:x] {
				run.WriteRune(cl.glyph)
			}
			style := lipgloss.NewStyle().Background(lipgloss.Color(line[start].bg))
			if fg := line[start].fg; fg != "" {
				style = style.Foreground(lipgloss.Color(fg))
			}
			b.WriteString(style.Render(run.String()))
			start = x
		}
	}
	return b.String()
}

// renderGlobe draws the textured globe with pins, arcs and the vehicle token.
func renderGlobe(sc *scene.Scene, width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	c := newCanvas(width, height)
	cam := sc.Camera
	c.paintGlobe(cam, sc.Texture)

	for _, pin := range sc.Pins {
		if pin.Home {
			continue
		}
		c.plot(cam, pin.Pos, glyphPin, pin.Color)
	}

	for _, a := range sc.Arcs() {
		drawn := a.Drawn()
		for i, p := range drawn {
			glyph := glyphArc
			if !a.Complete() && i == len(drawn)-1 {
				glyph = glyphFront
			}
			c.plot(cam, p, glyph, a.Color)
		}
	}

	// Home pin last so it stays visible under its arcs
	for _, pin := range sc.Pins {
		if pin.Home {
			c.plot(cam, pin.Pos, glyphHomePin, pin.Color)
		}
	}

	if v := sc.Vehicle(); v != nil {
		c.plot(cam, v.Pos, []rune(v.Glyph())[0], v.Color)
	}

	return c.render()
}
