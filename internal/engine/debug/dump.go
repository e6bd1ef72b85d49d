package debug

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"github.com/Faultbox/midgard-terrain/internal/engine/terrain"
	"github.com/Faultbox/midgard-terrain/internal/engine/tilemodel"
)

// LandCoverPalette colors land cover classes in dumps. Unknown classes are magenta.
var LandCoverPalette = map[uint8]color.RGBA{
	0: {A: 0},
	1: {R: 0x2a, G: 0x5d, B: 0xb0, A: 0xff},
	2: {R: 0x4c, G: 0x9a, B: 0x2a, A: 0xff},
	3: {R: 0x8a, G: 0x7f, B: 0x70, A: 0xff},
	4: {R: 0xf4, G: 0xf4, B: 0xf8, A: 0xff},
}

// ModelDumper writes the rasters of built tile models as PNG files.
type ModelDumper struct {
	outputDir string
}

// NewModelDumper creates a dumper writing into outputDir.
func NewModelDumper(outputDir string) *ModelDumper {
	return &ModelDumper{outputDir: outputDir}
}

// Dump writes every raster in the model and returns the file names written.
// Files are named lod_x_y_<channel>.png.
func (d *ModelDumper) Dump(m *tilemodel.Model) ([]string, error) {
	if d.outputDir != "" {
		if err := os.MkdirAll(d.outputDir, 0755); err != nil {
			return nil, fmt.Errorf("creating output dir: %w", err)
		}
	}

	var written []string
	save := func(channel string, img image.Image) error {
		name := d.filename(m, channel)
		if err := writePNG(name, img); err != nil {
			return err
		}
		written = append(written, name)
		return nil
	}

	for _, c := range m.Color {
		if err := save("color_"+c.Name, c.Image); err != nil {
			return written, err
		}
	}
	if m.Elevation != nil {
		if err := save("elevation", heightImage(m.Elevation)); err != nil {
			return written, err
		}
	}
	if m.Normals != nil {
		if err := save("normals", m.Normals.EncodeRGBA()); err != nil {
			return written, err
		}
	}
	for _, lc := range m.LandCover {
		if err := save("landcover_"+lc.Name, coverageImage(lc.Coverage)); err != nil {
			return written, err
		}
	}
	return written, nil
}

func (d *ModelDumper) filename(m *tilemodel.Model, channel string) string {
	name := fmt.Sprintf("%d_%d_%d_%s.png", m.Key.LOD, m.Key.X, m.Key.Y, channel)
	if d.outputDir != "" {
		name = filepath.Join(d.outputDir, name)
	}
	return name
}

// heightImage maps the interior samples to grayscale, lowest black.
func heightImage(hf *terrain.HeightField) *image.Gray {
	w, h := hf.InteriorSize()
	lo, hi := hf.MinMax()
	span := hi - lo
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			var v float32
			if span > 0 {
				v = (hf.At(x, y) - lo) / span
			}
			img.SetGray(x, y, color.Gray{Y: uint8(v*255 + 0.5)})
		}
	}
	return img
}

func coverageImage(c *terrain.Coverage) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, c.Width, c.Height))
	for y := range c.Height {
		for x := range c.Width {
			col, ok := LandCoverPalette[c.At(x, y)]
			if !ok {
				col = color.RGBA{R: 0xff, B: 0xff, A: 0xff}
			}
			img.SetRGBA(x, y, col)
		}
	}
	return img
}

func writePNG(filename string, img image.Image) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return fmt.Errorf("encoding PNG: %w", err)
	}
	return nil
}
