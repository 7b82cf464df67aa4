package sim

import (
	"math/rand"
	"sync"
	"time"

	"track-runner/server/internal/telemetry"
)

const (
	defaultTickRate = 60.0
	tickWindow      = 60
)

// Clock abstracts wall-clock reads so tests can drive deterministic
// tick deltas.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real wall clock.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time { return time.Now() }

// GameState is the coarse server lifecycle. It tracks the race status
// loosely but also represents "no race instantiated" (Idle) and
// post-init, pre-start (Ready), which the race alone cannot.
type GameState string

const (
	GameStateIdle    GameState = "Idle"
	GameStateLoading GameState = "Loading"
	GameStateReady   GameState = "Ready"
	GameStateRacing  GameState = "Racing"
	GameStateResults GameState = "Results"
)

// Stats reports tick-timing diagnostics alongside the coarse state.
type Stats struct {
	TickRate      float32   `json:"tickRate"`
	AvgTickTimeMs float32   `json:"avgTickTimeMs"`
	RunnerCount   uint32    `json:"runnerCount"`
	GameState     GameState `json:"gameState"`
}

// ServerConfig carries the injectable seams for a Server. Zero values
// select production defaults.
type ServerConfig struct {
	TickRate float32
	Clock    Clock
	RNG      *rand.Rand
	Logger   telemetry.Logger
	Metrics  telemetry.Metrics
}

// Server owns at most one race and serializes every external operation
// behind a single mutex. No operation blocks or performs I/O while
// holding it; ticks are O(roster size).
type Server struct {
	mu        sync.Mutex
	state     GameState
	race      *Race
	tickRate  float32
	lastTick  time.Time
	tickTimes []float32
	running   bool

	clock   Clock
	rng     *rand.Rand
	logger  telemetry.Logger
	metrics telemetry.Metrics
}

// NewServer creates an idle server with no race.
func NewServer(cfg ServerConfig) *Server {
	clock := cfg.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	tickRate := cfg.TickRate
	if tickRate <= 0 {
		tickRate = defaultTickRate
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = telemetry.NopMetrics()
	}

	return &Server{
		state:     GameStateIdle,
		tickRate:  tickRate,
		lastTick:  clock.Now(),
		tickTimes: make([]float32, 0, tickWindow),
		clock:     clock,
		rng:       cfg.RNG,
		logger:    cfg.Logger,
		metrics:   metrics,
	}
}

// InitRace builds a fresh race from the config, discarding any
// previous one.
func (s *Server) InitRace(config RaceConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = GameStateLoading

	race := NewRace(config, s.rng)
	race.GenerateRunners()
	race.SetupStartingPositions()

	s.race = race
	s.state = GameStateReady
	s.metrics.Add("sim_races_initialized_total", 1)
	s.logf("race initialized with %d runners", config.RunnerCount)
}

// StartRace arms the countdown. No-op when no race exists.
func (s *Server) StartRace() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.race == nil {
		return
	}
	s.race.StartCountdown()
	s.state = GameStateRacing
	s.running = true
	// Reset the delta origin so the first tick is not inflated by the
	// time spent in Ready.
	s.lastTick = s.clock.Now()
	s.metrics.Add("sim_races_started_total", 1)
	s.logf("race started")
}

// Tick advances the simulation by the wall-clock delta since the last
// tick and returns the resulting snapshot. While paused it returns the
// current snapshot without advancing anything.
func (s *Server) Tick() *RaceSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return s.snapshotLocked()
	}

	now := s.clock.Now()
	delta := float32(now.Sub(s.lastTick).Seconds())
	s.lastTick = now

	tickStart := s.clock.Now()

	if s.race != nil {
		s.race.Update(delta)

		if s.race.Status == RaceStatusFinished {
			s.state = GameStateResults
			s.running = false
		}
	}

	tickMs := float32(s.clock.Now().Sub(tickStart).Seconds() * 1000.0)
	s.tickTimes = append(s.tickTimes, tickMs)
	if len(s.tickTimes) > tickWindow {
		s.tickTimes = s.tickTimes[1:]
	}
	s.metrics.Add("sim_ticks_total", 1)

	return s.snapshotLocked()
}

// Snapshot returns the current race snapshot without advancing the
// simulation, or nil when no race exists.
func (s *Server) Snapshot() *RaceSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Server) snapshotLocked() *RaceSnapshot {
	if s.race == nil {
		return nil
	}
	snapshot := s.race.Snapshot()
	return &snapshot
}

// Results returns a copy of the finish ledger, or nil when no race
// exists.
func (s *Server) Results() []RaceResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.race == nil {
		return nil
	}
	results := make([]RaceResult, len(s.race.FinishOrder))
	copy(results, s.race.FinishOrder)
	return results
}

// Stats reports the rolling tick-time average and the coarse state.
func (s *Server) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	var avg float32
	if len(s.tickTimes) > 0 {
		var sum float32
		for _, sample := range s.tickTimes {
			sum += sample
		}
		avg = sum / float32(len(s.tickTimes))
	}

	var runnerCount uint32
	if s.race != nil {
		runnerCount = uint32(len(s.race.Runners))
	}

	return Stats{
		TickRate:      s.tickRate,
		AvgTickTimeMs: avg,
		RunnerCount:   runnerCount,
		GameState:     s.state,
	}
}

// State returns the coarse lifecycle state.
func (s *Server) State() GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Pause stops ticking unconditionally.
func (s *Server) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.logf("race paused")
}

// Resume re-arms ticking, but only while a race is in progress. The
// delta origin resets so the pause gap is not replayed as one giant
// tick.
func (s *Server) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != GameStateRacing {
		return
	}
	s.running = true
	s.lastTick = s.clock.Now()
	s.logf("race resumed")
}

// Reset discards the race and diagnostics and returns to Idle.
func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = GameStateIdle
	s.race = nil
	s.running = false
	s.tickTimes = s.tickTimes[:0]
	s.logf("race reset")
}

// Running reports whether ticks currently advance the simulation.
func (s *Server) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// TickRate returns the target tick rate advertised to clients.
func (s *Server) TickRate() float32 {
	return s.tickRate
}

func (s *Server) logf(format string, args ...any) {
	if s.logger == nil {
		return
	}
	s.logger.Printf(format, args...)
}
