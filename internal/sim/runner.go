package sim

import (
	"math"
	"math/rand"
)

const (
	accelerationRate   = 2.0
	baseAnimationSpeed = 5000.0 / 600.0
	cooldownFactor     = 0.5
	driftLeftSpeed     = 0.15
	minLane            = 0.75
	maxLane            = 2.0 // reserved for outward drift
	minAnimationScale  = 0.3
)

// SplitTimes holds the cumulative pacing checkpoints for a 5K race,
// one per kilometre. The final checkpoint always equals FinalTime so a
// runner's recorded pacing target matches its generated finish time.
type SplitTimes struct {
	Splits    [5]float32 `json:"splits"`
	FinalTime float32    `json:"finalTime"`
}

// newSplitTimes derives checkpoints from a target finish time with a
// small per-checkpoint variation. Only the first four checkpoints are
// jittered; the last one is forced to the exact finish time.
func newSplitTimes(finishTime float32, rng *rand.Rand) SplitTimes {
	kmTime := finishTime / 5.0
	jitter := func() float32 {
		return 0.98 + randFloat(rng)*0.04
	}
	return SplitTimes{
		Splits: [5]float32{
			kmTime * jitter(),
			kmTime * 2.0 * jitter(),
			kmTime * 3.0 * jitter(),
			kmTime * 4.0 * jitter(),
			finishTime,
		},
		FinalTime: finishTime,
	}
}

// targetSpeed converts the split schedule into a simulation-space speed
// for the segment containing the given distance.
func (s SplitTimes) targetSpeed(distance, timeScale float32) float32 {
	segment := int(distance / 1000.0)
	if segment < 0 {
		segment = 0
	}
	if segment > 4 {
		segment = 4
	}

	var timeAtStart float32
	if segment > 0 {
		timeAtStart = s.Splits[segment-1]
	}
	segmentTime := s.Splits[segment] - timeAtStart

	return (1000.0 / segmentTime) / timeScale
}

// RunnerFlags carries runner status bits. Squished is reserved for a
// collision mechanic the update loop does not apply yet.
type RunnerFlags struct {
	Finished bool `json:"finished"`
	Squished bool `json:"squished"`
}

// RunnerState is the complete mutable state for a single runner.
type RunnerState struct {
	ID               uint32      `json:"id"`
	Name             string      `json:"name"`
	Distance         float32     `json:"distance"`
	LanePosition     float32     `json:"lanePosition"`
	CurrentSpeed     float32     `json:"currentSpeed"`
	TargetSpeed      float32     `json:"targetSpeed"`
	AnimationPhase   float32     `json:"animationPhase"`
	StrideMultiplier float32     `json:"strideMultiplier"`
	SplitTimes       SplitTimes  `json:"splitTimes"`
	Flags            RunnerFlags `json:"flags"`
}

func newRunnerState(id uint32, name string, finishTime float32, rng *rand.Rand) *RunnerState {
	return &RunnerState{
		ID:               id,
		Name:             name,
		LanePosition:     1.0,
		AnimationPhase:   randFloat(rng),
		StrideMultiplier: 0.85 + randFloat(rng)*0.3,
		SplitTimes:       newSplitTimes(finishTime, rng),
	}
}

// reset places the runner back on the starting grid and clears any
// per-race state.
func (r *RunnerState) reset(startDistance, startLane float32, rng *rand.Rand) {
	r.Distance = startDistance
	r.LanePosition = startLane
	r.CurrentSpeed = 0
	r.TargetSpeed = 0
	r.AnimationPhase = randFloat(rng)
	r.Flags = RunnerFlags{}
}

// advanceRunner applies one simulation step to a runner: finish
// detection, pacing-driven target speed, smoothed acceleration,
// movement, animation phase, and lane drift toward the inside.
func advanceRunner(state *RunnerState, delta, timeScale, raceDistance float32) {
	if !state.Flags.Finished && state.Distance >= raceDistance {
		state.Flags.Finished = true
	}

	// Finished runners glide down instead of stopping on the line.
	if state.Flags.Finished {
		base := state.SplitTimes.targetSpeed(raceDistance-1.0, timeScale)
		state.TargetSpeed = base * cooldownFactor
	} else {
		state.TargetSpeed = state.SplitTimes.targetSpeed(state.Distance, timeScale)
	}

	accel := accelerationRate * delta
	if state.CurrentSpeed < state.TargetSpeed {
		state.CurrentSpeed = min(state.CurrentSpeed+accel, state.TargetSpeed)
	} else if state.CurrentSpeed > state.TargetSpeed {
		state.CurrentSpeed = max(state.CurrentSpeed-accel, state.TargetSpeed)
	}

	state.Distance += state.CurrentSpeed * delta

	// The floor keeps the animation visibly alive at near-zero speed.
	animScale := state.CurrentSpeed / baseAnimationSpeed
	if animScale < minAnimationScale {
		animScale = minAnimationScale
	}
	state.AnimationPhase += delta * animScale * state.StrideMultiplier
	state.AnimationPhase = float32(math.Mod(float64(state.AnimationPhase), 1.0))

	if state.LanePosition > minLane {
		drift := driftLeftSpeed * delta * state.LanePosition
		state.LanePosition = max(state.LanePosition-drift, minLane)
	}
}
