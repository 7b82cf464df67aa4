package sim

// RunnerSnapshot is the compact per-runner shape sent to the
// presentation layer every tick.
type RunnerSnapshot struct {
	ID             uint32  `json:"id"`
	Distance       float32 `json:"distance"`
	LanePosition   float32 `json:"lanePosition"`
	Speed          float32 `json:"speed"`
	AnimationPhase float32 `json:"animationPhase"`
	Finished       bool    `json:"finished"`
}

// RaceSnapshot is the transfer-sized copy of race state.
type RaceSnapshot struct {
	Status        RaceStatus       `json:"status"`
	ElapsedTime   float32          `json:"elapsedTime"`
	Countdown     float32          `json:"countdown"`
	Runners       []RunnerSnapshot `json:"runners"`
	FinisherCount uint32           `json:"finisherCount"`
}

// Snapshot copies the current race state into its transfer shape.
func (r *Race) Snapshot() RaceSnapshot {
	runners := make([]RunnerSnapshot, 0, len(r.Runners))
	for _, runner := range r.Runners {
		runners = append(runners, RunnerSnapshot{
			ID:             runner.ID,
			Distance:       runner.Distance,
			LanePosition:   runner.LanePosition,
			Speed:          runner.CurrentSpeed,
			AnimationPhase: runner.AnimationPhase,
			Finished:       runner.Flags.Finished,
		})
	}

	return RaceSnapshot{
		Status:        r.Status,
		ElapsedTime:   r.ElapsedTime,
		Countdown:     r.Countdown,
		Runners:       runners,
		FinisherCount: uint32(len(r.FinishOrder)),
	}
}
