package trackers

import (
	"fmt"

	ts "github.com/driveq/driveq/timestep"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Curve renders the cumulative reward-collision count over the course of
// an experiment as a line plot, one point per tick.
type Curve struct {
	points   plotter.XYs
	rewards  int
	filename string
}

// NewCurve creates and returns a new *Curve tracker that renders to the
// given image file. The file extension selects the format (.png, .svg,
// .pdf).
func NewCurve(filename string) Tracker {
	return &Curve{filename: filename}
}

// Track records one tick
func (c *Curve) Track(step ts.TimeStep) {
	if step.RewardCollision {
		c.rewards++
	}
	c.points = append(c.points, plotter.XY{
		X: float64(len(c.points)),
		Y: float64(c.rewards),
	})
}

// Save renders the curve to disk
func (c *Curve) Save() error {
	p := plot.New()
	p.Title.Text = "Rewards collected"
	p.X.Label.Text = "Tick"
	p.Y.Label.Text = "Cumulative reward collisions"

	line, err := plotter.NewLine(c.points)
	if err != nil {
		return fmt.Errorf("save: could not build line plot: %v", err)
	}
	p.Add(line)

	if err := p.Save(6*vg.Inch, 4*vg.Inch, c.filename); err != nil {
		return fmt.Errorf("save: could not render curve: %v", err)
	}
	return nil
}
