package sim

import (
	"math/rand"
	"testing"
)

func newTestRace(t *testing.T, config RaceConfig, seed int64) *Race {
	t.Helper()
	race := NewRace(config, rand.New(rand.NewSource(seed)))
	race.GenerateRunners()
	race.SetupStartingPositions()
	return race
}

func TestGenerateRunnersRoster(t *testing.T) {
	race := newTestRace(t, DefaultRaceConfig(), 1)

	if len(race.Runners) != 100 {
		t.Fatalf("expected 100 runners, got %d", len(race.Runners))
	}

	prev := float32(0)
	for i, runner := range race.Runners {
		if runner.ID != uint32(i) {
			t.Fatalf("expected sequential id %d, got %d", i, runner.ID)
		}
		if runner.Name == "" {
			t.Fatalf("runner %d has no name", i)
		}

		target := runner.SplitTimes.FinalTime
		if target < prev {
			t.Fatalf("roster not sorted by target time at %d: %v after %v", i, target, prev)
		}
		if target < 780.0 || target > 2100.0 {
			t.Fatalf("target time %v outside the generated distribution", target)
		}
		prev = target

		if runner.StrideMultiplier < 0.85 || runner.StrideMultiplier > 1.15 {
			t.Fatalf("stride multiplier out of range: %v", runner.StrideMultiplier)
		}
	}
}

func TestGenerateRunnersReplacesRoster(t *testing.T) {
	race := newTestRace(t, DefaultRaceConfig(), 1)
	race.GenerateRunners()
	if len(race.Runners) != 100 {
		t.Fatalf("regeneration should replace, not append: %d", len(race.Runners))
	}
}

func TestSetupStartingPositions(t *testing.T) {
	config := DefaultRaceConfig()
	config.RunnerCount = 25
	race := newTestRace(t, config, 2)

	for i, runner := range race.Runners {
		row := i / gridRowSize
		col := i % gridRowSize

		wantDistance := -float32(row) * config.FormationSpread
		if runner.Distance != wantDistance {
			t.Fatalf("runner %d row offset %v, want %v", i, runner.Distance, wantDistance)
		}

		laneBase := 0.8 + float32(col)*0.15
		if runner.LanePosition < laneBase-1e-4 || runner.LanePosition > laneBase+0.05+1e-4 {
			t.Fatalf("runner %d lane %v outside [%v, %v]", i, runner.LanePosition, laneBase, laneBase+0.05)
		}

		if runner.CurrentSpeed != 0 || runner.Flags.Finished {
			t.Fatalf("runner %d not reset for the grid: %+v", i, runner)
		}
	}
}

func TestCountdownTransition(t *testing.T) {
	race := newTestRace(t, DefaultRaceConfig(), 3)

	if race.Status != RaceStatusNotStarted {
		t.Fatalf("expected NotStarted before countdown, got %v", race.Status)
	}

	// NotStarted updates are no-ops.
	race.Update(1.0)
	if race.Status != RaceStatusNotStarted || race.ElapsedTime != 0 {
		t.Fatalf("NotStarted update mutated race: %v elapsed %v", race.Status, race.ElapsedTime)
	}

	race.StartCountdown()
	if race.Status != RaceStatusCountdown || race.Countdown != 3.0 {
		t.Fatalf("countdown not armed: %v %v", race.Status, race.Countdown)
	}

	// The countdown runs on real time, not scaled time.
	race.Update(2.9)
	if race.Status != RaceStatusCountdown {
		t.Fatalf("countdown finished early: %v", race.Status)
	}
	if race.ElapsedTime != 0 {
		t.Fatalf("elapsed time advanced during countdown: %v", race.ElapsedTime)
	}

	race.Update(0.2)
	if race.Status != RaceStatusRacing {
		t.Fatalf("expected Racing after countdown, got %v", race.Status)
	}
	if race.Countdown != 0 {
		t.Fatalf("countdown not clamped to zero: %v", race.Countdown)
	}
}

func TestElapsedTimeUsesTimeScale(t *testing.T) {
	config := DefaultRaceConfig()
	config.RunnerCount = 5
	race := newTestRace(t, config, 4)
	race.StartCountdown()
	race.Update(3.0)

	race.Update(0.5)
	want := float32(0.5) * config.TimeScale
	if !almostEqual(race.ElapsedTime, want, 1e-4) {
		t.Fatalf("elapsed %v, want %v", race.ElapsedTime, want)
	}
}

func TestRaceRunsToCompletion(t *testing.T) {
	config := DefaultRaceConfig()
	config.RunnerCount = 10
	race := newTestRace(t, config, 5)
	race.StartCountdown()

	const delta = 1.0 / 60.0
	for tick := 0; race.Status != RaceStatusFinished; tick++ {
		if tick > 200000 {
			t.Fatalf("race did not finish; status %v after %d finishers", race.Status, len(race.FinishOrder))
		}
		race.Update(delta)

		if len(race.FinishOrder) > len(race.Runners) {
			t.Fatalf("finish order grew past roster size: %d", len(race.FinishOrder))
		}
	}

	if len(race.FinishOrder) != 10 {
		t.Fatalf("expected 10 finishers, got %d", len(race.FinishOrder))
	}

	seen := make(map[uint32]bool)
	prevTime := float32(0)
	for i, result := range race.FinishOrder {
		if seen[result.RunnerID] {
			t.Fatalf("runner %d recorded twice", result.RunnerID)
		}
		seen[result.RunnerID] = true

		if result.Position != uint32(i+1) {
			t.Fatalf("position %d at index %d", result.Position, i)
		}
		if result.FinishTime <= prevTime {
			t.Fatalf("finish times not increasing: %v after %v", result.FinishTime, prevTime)
		}
		prevTime = result.FinishTime

		if result.RunnerName == "" {
			t.Fatalf("finish record %d missing runner name", i)
		}
	}
}

func TestFinishedRaceKeepsCooldownUpdates(t *testing.T) {
	config := DefaultRaceConfig()
	config.RunnerCount = 3
	race := newTestRace(t, config, 6)
	race.StartCountdown()

	const delta = 1.0 / 60.0
	for tick := 0; race.Status != RaceStatusFinished; tick++ {
		if tick > 200000 {
			t.Fatalf("race did not finish")
		}
		race.Update(delta)
	}

	elapsed := race.ElapsedTime
	finishers := len(race.FinishOrder)
	distances := make([]float32, len(race.Runners))
	for i, runner := range race.Runners {
		distances[i] = runner.Distance
	}

	for i := 0; i < 120; i++ {
		race.Update(delta)
	}

	if race.ElapsedTime != elapsed {
		t.Fatalf("elapsed time advanced after finish: %v -> %v", elapsed, race.ElapsedTime)
	}
	if len(race.FinishOrder) != finishers {
		t.Fatalf("finish order mutated after finish")
	}
	for i, runner := range race.Runners {
		if runner.Distance <= distances[i] {
			t.Fatalf("runner %d stopped dead instead of gliding: %v", i, runner.Distance)
		}
	}
}

func TestLeader(t *testing.T) {
	config := DefaultRaceConfig()
	config.RunnerCount = 4
	race := newTestRace(t, config, 7)

	race.Runners[0].Distance = 100
	race.Runners[1].Distance = 300
	race.Runners[2].Distance = 250
	race.Runners[3].Distance = 300

	leader := race.Leader()
	if leader == nil || leader.ID != 1 {
		t.Fatalf("expected roster-order tie break on runner 1, got %+v", leader)
	}
}

func TestRunnerByID(t *testing.T) {
	config := DefaultRaceConfig()
	config.RunnerCount = 4
	race := newTestRace(t, config, 8)

	if runner := race.RunnerByID(2); runner == nil || runner.ID != 2 {
		t.Fatalf("lookup failed: %+v", runner)
	}
	if runner := race.RunnerByID(99); runner != nil {
		t.Fatalf("expected nil for unknown id, got %+v", runner)
	}
}

func TestSnapshotShape(t *testing.T) {
	config := DefaultRaceConfig()
	config.RunnerCount = 6
	race := newTestRace(t, config, 9)

	snapshot := race.Snapshot()
	if snapshot.Status != RaceStatusNotStarted {
		t.Fatalf("unexpected status %v", snapshot.Status)
	}
	if len(snapshot.Runners) != 6 {
		t.Fatalf("expected 6 runner snapshots, got %d", len(snapshot.Runners))
	}
	if snapshot.FinisherCount != 0 {
		t.Fatalf("expected no finishers, got %d", snapshot.FinisherCount)
	}

	for i, rs := range snapshot.Runners {
		runner := race.Runners[i]
		if rs.ID != runner.ID || rs.Distance != runner.Distance || rs.Speed != runner.CurrentSpeed {
			t.Fatalf("snapshot %d diverges from roster state", i)
		}
	}
}
