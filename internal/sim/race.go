package sim

import (
	"fmt"
	"math/rand"
	"sort"
)

const (
	countdownSeconds = 3.0
	gridRowSize      = 10
)

// RaceConfig is fixed for the lifetime of a race.
type RaceConfig struct {
	// Total race distance in meters.
	Distance float32 `json:"distance"`
	// Number of runners on the roster.
	RunnerCount uint32 `json:"runnerCount"`
	// Simulated seconds per real second.
	TimeScale float32 `json:"timeScale"`
	// Starting formation row spacing in meters.
	FormationSpread float32 `json:"formationSpread"`
}

// DefaultRaceConfig returns the stock 5K setup.
func DefaultRaceConfig() RaceConfig {
	return RaceConfig{
		Distance:        5000.0,
		RunnerCount:     100,
		TimeScale:       10.0,
		FormationSpread: 3.0,
	}
}

// RaceStatus enumerates the race state machine. There is no transition
// out of Finished within a session.
type RaceStatus string

const (
	RaceStatusNotStarted RaceStatus = "NotStarted"
	RaceStatusCountdown  RaceStatus = "Countdown"
	RaceStatusRacing     RaceStatus = "Racing"
	RaceStatusFinished   RaceStatus = "Finished"
)

// RaceResult is one entry in the append-only finish ledger.
type RaceResult struct {
	RunnerID   uint32  `json:"runnerId"`
	RunnerName string  `json:"runnerName"`
	FinishTime float32 `json:"finishTime"`
	Position   uint32  `json:"position"`
}

// Race owns the roster and race-level state machine. Runner updates run
// in roster (creation) order, which also breaks ties when several
// runners cross the line in the same tick.
type Race struct {
	Config      RaceConfig
	Status      RaceStatus
	Runners     []*RunnerState
	ElapsedTime float32
	Countdown   float32
	FinishOrder []RaceResult

	rng *rand.Rand
}

// NewRace creates an empty race. A nil rng falls back to the global
// random source; tests inject a seeded one.
func NewRace(config RaceConfig, rng *rand.Rand) *Race {
	return &Race{
		Config:    config,
		Status:    RaceStatusNotStarted,
		Countdown: countdownSeconds,
		rng:       rng,
	}
}

// GenerateRunners fills the roster with sequentially numbered runners
// whose target finish times follow a realistic 5K distribution.
func (r *Race) GenerateRunners() {
	r.Runners = r.Runners[:0]

	finishTimes := r.generateFinishTimes(int(r.Config.RunnerCount))
	for i, finishTime := range finishTimes {
		name := fmt.Sprintf("Runner %d", i+1)
		r.Runners = append(r.Runners, newRunnerState(uint32(i), name, finishTime, r.rng))
	}
}

// generateFinishTimes produces count targets by decile: 10% elite,
// 20% good, 40% average, 30% slow. Sorted ascending so roster index 0
// holds the fastest target; this seeds the grid, not the finish order.
func (r *Race) generateFinishTimes(count int) []float32 {
	times := make([]float32, 0, count)

	for i := 0; i < count; i++ {
		var base float32
		switch decile := i % 10; {
		case decile == 0:
			base = randRange(r.rng, 780.0, 840.0) // 13:00-14:00 elite
		case decile <= 2:
			base = randRange(r.rng, 900.0, 1080.0) // 15:00-18:00 good
		case decile <= 6:
			base = randRange(r.rng, 1140.0, 1500.0) // 19:00-25:00 average
		default:
			base = randRange(r.rng, 1560.0, 2100.0) // 26:00-35:00 slow
		}
		times = append(times, base)
	}

	sort.Slice(times, func(a, b int) bool { return times[a] < times[b] })
	return times
}

// SetupStartingPositions lays the roster out in staggered rows of ten
// so the field has depth instead of overlapping on one line.
func (r *Race) SetupStartingPositions() {
	spread := r.Config.FormationSpread

	for i, runner := range r.Runners {
		row := i / gridRowSize
		col := i % gridRowSize

		startDistance := -float32(row) * spread
		lane := 0.8 + float32(col)*0.15 + randFloat(r.rng)*0.05

		runner.reset(startDistance, lane, r.rng)
	}
}

// StartCountdown arms the pre-race countdown.
func (r *Race) StartCountdown() {
	r.Status = RaceStatusCountdown
	r.Countdown = countdownSeconds
}

// Update advances the race by one tick. The countdown runs on real
// time; racing time is scaled by the configured time scale.
func (r *Race) Update(delta float32) {
	switch r.Status {
	case RaceStatusNotStarted:

	case RaceStatusCountdown:
		r.Countdown -= delta
		if r.Countdown <= 0 {
			r.Status = RaceStatusRacing
			r.Countdown = 0
		}

	case RaceStatusRacing:
		r.ElapsedTime += delta * r.Config.TimeScale

		for _, runner := range r.Runners {
			if runner.Flags.Finished {
				continue
			}
			advanceRunner(runner, delta, r.Config.TimeScale, r.Config.Distance)

			if runner.Flags.Finished && !r.recorded(runner.ID) {
				r.FinishOrder = append(r.FinishOrder, RaceResult{
					RunnerID:   runner.ID,
					RunnerName: runner.Name,
					FinishTime: r.ElapsedTime,
					Position:   uint32(len(r.FinishOrder) + 1),
				})
			}
		}

		if len(r.FinishOrder) == len(r.Runners) {
			r.Status = RaceStatusFinished
		}

	case RaceStatusFinished:
		// Keep updating so finished runners glide through cooldown.
		for _, runner := range r.Runners {
			advanceRunner(runner, delta, r.Config.TimeScale, r.Config.Distance)
		}
	}
}

func (r *Race) recorded(runnerID uint32) bool {
	for _, result := range r.FinishOrder {
		if result.RunnerID == runnerID {
			return true
		}
	}
	return false
}

// Leader returns the runner with the greatest distance. Ties fall to
// roster order.
func (r *Race) Leader() *RunnerState {
	var leader *RunnerState
	for _, runner := range r.Runners {
		if leader == nil || runner.Distance > leader.Distance {
			leader = runner
		}
	}
	return leader
}

// RunnerByID looks a runner up by its roster id.
func (r *Race) RunnerByID(id uint32) *RunnerState {
	for _, runner := range r.Runners {
		if runner.ID == id {
			return runner
		}
	}
	return nil
}
