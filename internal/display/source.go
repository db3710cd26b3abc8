package display

import (
	"fmt"
	"image"
	"image/color"
	"os"

	"github.com/fcurrie/hub75-golang/internal/types"
	"github.com/fcurrie/hub75-golang/pkg/framegen"
	"github.com/fcurrie/hub75-golang/pkg/hub75"
)

// checkerboardSteps is one full cycle of the animated checkerboard.
const checkerboardSteps = 16

// LoadFrames builds the frames described by src for the panel. Raw files
// must match the panel geometry exactly; images are converted with the
// panel's depth.
func LoadFrames(src types.SourceConfig, panel types.PanelConfig) ([]*hub75.Frame, error) {
	switch {
	case src.File != "":
		return loadRaw(src.File, panel)

	case src.SVG != "":
		f, err := os.Open(src.SVG)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		img, err := framegen.RasterizeSVG(f, panel.Width, panel.Height)
		if err != nil {
			return nil, err
		}
		return convert(panel.Depth, img)

	case src.Text != "":
		steps := framegen.ScrollSteps(panel.Width, src.Text)
		imgs := make([]image.Image, steps)
		for i := range imgs {
			imgs[i] = framegen.Text(panel.Width, panel.Height, src.Text, i, color.White)
		}
		return convert(panel.Depth, imgs...)

	case src.Pattern != "":
		steps := 1
		if src.Pattern == "checkerboard" {
			steps = checkerboardSteps
		}
		imgs := make([]image.Image, steps)
		for i := range imgs {
			img, ok := framegen.Pattern(src.Pattern, panel.Width, panel.Height, i)
			if !ok {
				return nil, fmt.Errorf("unknown pattern %q", src.Pattern)
			}
			imgs[i] = img
		}
		return convert(panel.Depth, imgs...)
	}
	return nil, fmt.Errorf("no frame source configured")
}

func loadRaw(path string, panel types.PanelConfig) ([]*hub75.Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	frames, err := hub75.ReadFrames(f, panel.Depth, panel.Rows(), panel.Width)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("%s holds no frames", path)
	}
	return frames, nil
}

func convert(depth int, imgs ...image.Image) ([]*hub75.Frame, error) {
	frames := make([]*hub75.Frame, len(imgs))
	for i, img := range imgs {
		f, err := framegen.FromImage(img, depth)
		if err != nil {
			return nil, err
		}
		frames[i] = f
	}
	return frames, nil
}
