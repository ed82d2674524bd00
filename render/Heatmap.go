// Package render draws diagnostic images of grid environments
package render

import (
	"fmt"

	"github.com/fogleman/gg"
)

// Heatmap renders per-cell visit counts as a PNG image, one shaded square
// per grid cell. The visits parameter is indexed [row][col] with row 0
// drawn at the bottom, matching the environment's coordinate convention.
func Heatmap(visits [][]int, cellSize int, filename string) error {
	if len(visits) == 0 || len(visits[0]) == 0 {
		return fmt.Errorf("heatmap: empty visit grid")
	}
	if cellSize < 1 {
		return fmt.Errorf("heatmap: cell size must be > 0, have %v",
			cellSize)
	}

	rows := len(visits)
	cols := len(visits[0])
	max := 0
	for _, row := range visits {
		if len(row) != cols {
			return fmt.Errorf("heatmap: ragged visit grid")
		}
		for _, count := range row {
			if count > max {
				max = count
			}
		}
	}

	dc := gg.NewContext(cols*cellSize, rows*cellSize)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	for y, row := range visits {
		for x, count := range row {
			heat := 0.0
			if max > 0 {
				heat = float64(count) / float64(max)
			}

			// Cold cells white, hot cells red
			dc.SetRGB(1, 1-heat, 1-heat)
			dc.DrawRectangle(
				float64(x*cellSize),
				float64((rows-1-y)*cellSize),
				float64(cellSize),
				float64(cellSize),
			)
			dc.Fill()
		}
	}

	if err := dc.SavePNG(filename); err != nil {
		return fmt.Errorf("heatmap: could not save image: %v", err)
	}
	return nil
}
