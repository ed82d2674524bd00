// Package trackers implements recording of data generated while an
// experiment runs
package trackers

import ts "github.com/driveq/driveq/timestep"

// Tracker caches data about each simulation tick of an experiment and
// saves the accumulated data to disk once when the experiment finishes
type Tracker interface {
	// Track caches the data of one tick
	Track(t ts.TimeStep)

	// Save persists the cached data
	Save() error
}
