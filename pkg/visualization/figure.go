// Package visualization renders the eight-panel diagnostic figure for one
// generated training sample: both images, the two displacement components,
// the three strain components, and a sketch of the coordinate convention.
package visualization

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"straingen/pkg/field"
)

// Figure owns the raster canvas for one diagnostic image. All drawing state
// is scoped to the Figure: create it, draw the panels, write the file.
// Separate Figures share nothing, so repeated or interleaved rendering is
// safe.
type Figure struct {
	canvas *vgimg.Canvas
}

// New creates a Figure with a blank canvas of the given size.
func New(width, height vg.Length) *Figure {
	return &Figure{canvas: vgimg.New(width, height)}
}

// Draw renders the eight panels onto the canvas in a 2x4 grid. The top row
// shows the reference image, the deformed image, and the two normal strain
// components; the bottom row shows the two displacement components, the
// shear strain component, and the coordinate-convention sketch.
func (f *Figure) Draw(ref, deformed *mat.Dense, disp *field.Displacement, strain *field.Strain) error {
	rows, cols := ref.Dims()
	fieldPal := fieldPalette()

	coord, err := coordinatePanel(rows, cols)
	if err != nil {
		return fmt.Errorf("failed to build coordinate panel: %v", err)
	}

	panels := [][]*plot.Plot{
		{
			heatmapPanel("First image, I1", ref, grayPalette{256}),
			heatmapPanel("Second image, I2", deformed, grayPalette{256}),
			heatmapPanel("Strain exx", strain.XX, fieldPal),
			heatmapPanel("Strain eyy", strain.YY, fieldPal),
		},
		{
			heatmapPanel("Displacement ux", disp.U, fieldPal),
			heatmapPanel("Displacement uy", disp.V, fieldPal),
			heatmapPanel("Strain exy", strain.XY, fieldPal),
			coord,
		},
	}

	dc := draw.New(f.canvas)
	tiles := draw.Tiles{
		Rows: 2,
		Cols: 4,
		PadX: vg.Millimeter * 3,
		PadY: vg.Millimeter * 3,
	}

	canvases := plot.Align(panels, tiles, dc)
	for i := range panels {
		for j := range panels[i] {
			panels[i][j].Draw(canvases[i][j])
		}
	}

	return nil
}

// WritePNG writes the rendered canvas as a PNG file at path.
func (f *Figure) WritePNG(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create figure file: %v", err)
	}
	defer file.Close()

	png := vgimg.PngCanvas{Canvas: f.canvas}
	if _, err := png.WriteTo(file); err != nil {
		return fmt.Errorf("failed to write figure: %v", err)
	}

	return nil
}

// SaveSample renders one sample's diagnostic figure into dir, named by the
// shared zero-padded index. The directory is created if needed.
func SaveSample(dir string, index int, ref, deformed *mat.Dense, disp *field.Displacement, strain *field.Strain) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create visualization directory: %v", err)
	}

	fig := New(16*vg.Inch, 8*vg.Inch)
	if err := fig.Draw(ref, deformed, disp, strain); err != nil {
		return err
	}

	path := filepath.Join(dir, fmt.Sprintf("%04d_visualization.png", index))
	return fig.WritePNG(path)
}

// heatmapPanel builds one heat-map panel for a matrix. The rendered value
// range is carried in the title, standing in for a colorbar. Matrix row 0
// is drawn at the top so the panel matches the y-down image convention.
func heatmapPanel(title string, m *mat.Dense, pal palette.Palette) *plot.Plot {
	lo := mat.Min(m)
	hi := mat.Max(m)

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s  [%.3g, %.3g]", title, lo, hi)
	p.HideAxes()

	h := plotter.NewHeatMap(matGrid{m}, pal)
	if lo == hi {
		// A flat matrix would make the color scale degenerate.
		h.Max = lo + 1
	}
	p.Add(h)

	return p
}

// coordinatePanel sketches the coordinate convention: x to the right in
// red, y downward in green, the origin marked in blue. The vertical axis is
// inverted so y visually points down, matching image coordinates.
func coordinatePanel(rows, cols int) (*plot.Plot, error) {
	w := float64(cols)
	h := float64(rows)

	red := color.RGBA{R: 200, A: 255}
	green := color.RGBA{G: 160, A: 255}
	blue := color.RGBA{B: 200, A: 255}

	p := plot.New()
	p.Title.Text = "Coordinate system"
	p.HideAxes()
	p.Y.Scale = plot.InvertedScale{Normalizer: plot.LinearScale{}}
	p.X.Min, p.X.Max = -0.15*w, 1.15*w
	p.Y.Min, p.Y.Max = -0.15*h, 1.15*h

	xAxis, err := plotter.NewLine(plotter.XYs{{X: 0, Y: 0}, {X: w, Y: 0}})
	if err != nil {
		return nil, err
	}
	xAxis.Color = red
	xAxis.Width = vg.Points(2)

	yAxis, err := plotter.NewLine(plotter.XYs{{X: 0, Y: 0}, {X: 0, Y: h}})
	if err != nil {
		return nil, err
	}
	yAxis.Color = green
	yAxis.Width = vg.Points(2)

	origin, err := plotter.NewScatter(plotter.XYs{{X: 0, Y: 0}})
	if err != nil {
		return nil, err
	}
	origin.GlyphStyle.Color = blue
	origin.GlyphStyle.Radius = vg.Points(4)
	origin.GlyphStyle.Shape = draw.CircleGlyph{}

	labels, err := plotter.NewLabels(plotter.XYLabels{
		XYs:    plotter.XYs{{X: w, Y: 0.1 * h}, {X: 0.1 * w, Y: h}},
		Labels: []string{"x", "y"},
	})
	if err != nil {
		return nil, err
	}
	labels.TextStyle[0].Color = red
	labels.TextStyle[1].Color = green

	p.Add(xAxis, yAxis, origin, labels)

	return p, nil
}

// fieldPalette returns the perceptual palette used for displacement and
// strain panels.
func fieldPalette() palette.Palette {
	cm := moreland.Kindlmann()
	cm.SetMin(0)
	cm.SetMax(1)
	return cm.Palette(255)
}

// grayPalette is a linear grayscale palette for image panels.
type grayPalette struct {
	n int
}

func (p grayPalette) Colors() []color.Color {
	colors := make([]color.Color, p.n)
	for i := range colors {
		colors[i] = color.Gray{Y: uint8(i * 255 / (p.n - 1))}
	}
	return colors
}

// matGrid adapts a matrix to the plotter grid interface, flipping rows so
// matrix row 0 renders at the top of the panel.
type matGrid struct {
	m *mat.Dense
}

func (g matGrid) Dims() (c, r int) {
	rows, cols := g.m.Dims()
	return cols, rows
}

func (g matGrid) Z(c, r int) float64 {
	rows, _ := g.m.Dims()
	return g.m.At(rows-1-r, c)
}

func (g matGrid) X(c int) float64 { return float64(c) }

func (g matGrid) Y(r int) float64 { return float64(r) }
