package proto

import (
	"encoding/json"
	"fmt"

	"track-runner/server/internal/sim"
)

// Version tracks the wire-protocol revision expected by clients.
const Version = 1

// Client command type identifiers. These mirror the operation set the
// UI process invokes.
const (
	TypeInitRace     = "init_race"
	TypeStartRace    = "start_race"
	TypeTick         = "tick"
	TypeGetSnapshot  = "get_snapshot"
	TypeGetResults   = "get_results"
	TypeGetStats     = "get_stats"
	TypeGetGameState = "get_game_state"
	TypePauseRace    = "pause_race"
	TypeResumeRace   = "resume_race"
	TypeResetRace    = "reset_race"
)

// Server message type identifiers.
const (
	TypeSnapshot = "snapshot"
	TypeResults  = "results"
	TypeStats    = "stats"
	TypeState    = "state"
	TypeAck      = "ack"
	TypeError    = "error"
)

// Command captures an inbound command envelope from the client.
// RunnerCount and TimeScale are optional overrides honored only by
// init_race.
type Command struct {
	Ver         int      `json:"ver,omitempty"`
	Type        string   `json:"type" jsonschema:"description=Command identifier,example=init_race"`
	RunnerCount *uint32  `json:"runnerCount,omitempty" jsonschema:"description=Roster size override for init_race"`
	TimeScale   *float32 `json:"timeScale,omitempty" jsonschema:"description=Simulated seconds per real second override for init_race"`
}

// DecodeCommand parses a command envelope and rejects unsupported
// protocol versions.
func DecodeCommand(payload []byte) (Command, error) {
	var cmd Command
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return Command{}, fmt.Errorf("decode command: %w", err)
	}
	if cmd.Ver != 0 && cmd.Ver != Version {
		return Command{}, fmt.Errorf("unsupported protocol version %d", cmd.Ver)
	}
	if cmd.Type == "" {
		return Command{}, fmt.Errorf("missing command type")
	}
	return cmd, nil
}

// SnapshotMessage carries the per-tick race snapshot. Race is omitted
// when no race is instantiated.
type SnapshotMessage struct {
	Ver  int               `json:"ver"`
	Type string            `json:"type"`
	Race *sim.RaceSnapshot `json:"race,omitempty"`
}

// NewSnapshotMessage wraps a snapshot in its envelope.
func NewSnapshotMessage(race *sim.RaceSnapshot) SnapshotMessage {
	return SnapshotMessage{Ver: Version, Type: TypeSnapshot, Race: race}
}

// ResultsMessage carries the ordered finish ledger.
type ResultsMessage struct {
	Ver     int              `json:"ver"`
	Type    string           `json:"type"`
	Results []sim.RaceResult `json:"results,omitempty"`
}

// NewResultsMessage wraps race results in their envelope.
func NewResultsMessage(results []sim.RaceResult) ResultsMessage {
	return ResultsMessage{Ver: Version, Type: TypeResults, Results: results}
}

// StatsMessage carries tick-timing diagnostics.
type StatsMessage struct {
	Ver   int       `json:"ver"`
	Type  string    `json:"type"`
	Stats sim.Stats `json:"stats"`
}

// NewStatsMessage wraps server stats in their envelope.
func NewStatsMessage(stats sim.Stats) StatsMessage {
	return StatsMessage{Ver: Version, Type: TypeStats, Stats: stats}
}

// StateMessage carries the coarse lifecycle state.
type StateMessage struct {
	Ver   int           `json:"ver"`
	Type  string        `json:"type"`
	State sim.GameState `json:"state"`
}

// NewStateMessage wraps the game state in its envelope.
func NewStateMessage(state sim.GameState) StateMessage {
	return StateMessage{Ver: Version, Type: TypeState, State: state}
}

// AckMessage confirms a state-changing command that has no payload.
type AckMessage struct {
	Ver  int    `json:"ver"`
	Type string `json:"type"`
	Cmd  string `json:"cmd"`
}

// NewAckMessage acknowledges the named command.
func NewAckMessage(cmd string) AckMessage {
	return AckMessage{Ver: Version, Type: TypeAck, Cmd: cmd}
}

// ErrorMessage reports a rejected command.
type ErrorMessage struct {
	Ver    int    `json:"ver"`
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

// NewErrorMessage wraps a rejection reason in its envelope.
func NewErrorMessage(reason string) ErrorMessage {
	return ErrorMessage{Ver: Version, Type: TypeError, Reason: reason}
}
