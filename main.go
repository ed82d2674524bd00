package main

import (
	"fmt"
	"log"

	"github.com/driveq/driveq/agent/qlearning"
	"github.com/driveq/driveq/checkpoint"
	"github.com/driveq/driveq/environment/gridtrack"
	"github.com/driveq/driveq/experiment"
	"github.com/driveq/driveq/experiment/trackers"
	"github.com/driveq/driveq/network"
	"github.com/driveq/driveq/render"
)

func main() {
	var seed uint64 = 192382

	// Create the environment
	const rows, cols = 10, 10
	track, err := gridtrack.New(rows, cols, 0, 0, seed)
	if err != nil {
		log.Fatalf("could not create track: %v", err)
	}

	// Create the learning agent
	config := qlearning.DefaultConfig(rows, cols, track.NumActions())
	config.TrainEachStep = true

	mlp, err := network.NewMLP(rows*cols, track.NumActions(),
		[]int{64, 64}, config.Alpha, config.AlphaDecay, "./models")
	if err != nil {
		log.Fatalf("could not create approximator: %v", err)
	}

	q, err := qlearning.New(mlp, config, seed)
	if err != nil {
		log.Fatalf("could not create agent: %v", err)
	}

	// Experiment
	var collisions trackers.Tracker = trackers.NewCollisions("./data.bin")
	curve := trackers.NewCurve("./rewards.png")
	e := experiment.NewOnline(track, q, 100_000, collisions, curve)

	if err := e.Run(); err != nil {
		log.Fatalf("experiment failed: %v", err)
	}
	if err := e.Save(); err != nil {
		log.Fatalf("could not save trackers: %v", err)
	}
	if err := mlp.SaveWeights(checkpoint.Latest); err != nil {
		log.Fatalf("could not save final weights: %v", err)
	}

	data, err := trackers.LoadCollisions("./data.bin")
	if err != nil {
		log.Fatalf("could not load collision data: %v", err)
	}
	last := len(data.Rewards) - 1
	fmt.Printf("rewards collected: %v  wall strikes: %v  collisions "+
		"scheduled: %v\n", data.Rewards[last], data.Walls[last],
		q.CollisionCount())

	// Greedy evaluation pass: drive with exploration and training off and
	// render where the actor spent its time
	evalConfig := config
	evalConfig.Training = false
	evalConfig.TrainEachStep = false
	eval, err := qlearning.New(mlp, evalConfig, seed+1)
	if err != nil {
		log.Fatalf("could not create evaluation agent: %v", err)
	}
	eval.AttachSimulator(track)

	visits := make([][]int, rows)
	for i := range visits {
		visits[i] = make([]int, cols)
	}

	step := track.Start()
	for i := 0; i < 5_000; i++ {
		action, err := eval.Step(step)
		if err != nil {
			log.Fatalf("evaluation failed: %v", err)
		}
		step = track.Step(action)
		x, y := track.Position()
		visits[y][x]++
	}

	if err := render.Heatmap(visits, 16, "./visits.png"); err != nil {
		log.Fatalf("could not render visit heatmap: %v", err)
	}
}
