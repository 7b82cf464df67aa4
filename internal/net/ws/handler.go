package ws

import (
	"encoding/json"
	nethttp "net/http"

	"github.com/gorilla/websocket"

	"track-runner/server/internal/net/proto"
	"track-runner/server/internal/sim"
	"track-runner/server/internal/telemetry"
)

// HandlerConfig carries the session collaborators and the race config
// defaults applied when init_race omits overrides.
type HandlerConfig struct {
	Logger   telemetry.Logger
	Defaults sim.RaceConfig
}

// Handler upgrades connections and runs a command session per client.
// The simulation server's own mutex serializes commands across
// sessions, so each session dispatches inline from its read loop.
type Handler struct {
	server   *sim.Server
	logger   telemetry.Logger
	defaults sim.RaceConfig
	upgrader websocket.Upgrader
}

// NewHandler constructs a websocket command handler.
func NewHandler(server *sim.Server, cfg HandlerConfig) *Handler {
	defaults := cfg.Defaults
	if defaults.Distance <= 0 {
		defaults = sim.DefaultRaceConfig()
	}
	return &Handler{
		server:   server,
		logger:   cfg.Logger,
		defaults: defaults,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *nethttp.Request) bool {
				return true
			},
		},
	}
}

// ServeHTTP upgrades the connection and runs the session loop until
// the client disconnects.
func (h *Handler) ServeHTTP(w nethttp.ResponseWriter, r *nethttp.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logf("upgrade failed: %v", err)
		return
	}
	h.serve(conn)
}

func (h *Handler) serve(conn *websocket.Conn) {
	sess := newSession(conn)
	defer sess.close()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}

		cmd, err := proto.DecodeCommand(payload)
		if err != nil {
			h.logf("discarding malformed command: %v", err)
			if !h.send(sess, proto.NewErrorMessage(err.Error())) {
				return
			}
			continue
		}

		if !h.dispatch(sess, cmd) {
			return
		}
	}
}

// dispatch executes one command and writes its response. It returns
// false when the connection is no longer writable.
func (h *Handler) dispatch(sess *session, cmd proto.Command) bool {
	switch cmd.Type {
	case proto.TypeInitRace:
		config := h.defaults
		if cmd.RunnerCount != nil {
			config.RunnerCount = *cmd.RunnerCount
		}
		if cmd.TimeScale != nil {
			config.TimeScale = *cmd.TimeScale
		}
		h.server.InitRace(config)
		return h.send(sess, proto.NewAckMessage(cmd.Type))

	case proto.TypeStartRace:
		h.server.StartRace()
		return h.send(sess, proto.NewAckMessage(cmd.Type))

	case proto.TypePauseRace:
		h.server.Pause()
		return h.send(sess, proto.NewAckMessage(cmd.Type))

	case proto.TypeResumeRace:
		h.server.Resume()
		return h.send(sess, proto.NewAckMessage(cmd.Type))

	case proto.TypeResetRace:
		h.server.Reset()
		return h.send(sess, proto.NewAckMessage(cmd.Type))

	case proto.TypeTick:
		return h.send(sess, proto.NewSnapshotMessage(h.server.Tick()))

	case proto.TypeGetSnapshot:
		return h.send(sess, proto.NewSnapshotMessage(h.server.Snapshot()))

	case proto.TypeGetResults:
		return h.send(sess, proto.NewResultsMessage(h.server.Results()))

	case proto.TypeGetStats:
		return h.send(sess, proto.NewStatsMessage(h.server.Stats()))

	case proto.TypeGetGameState:
		return h.send(sess, proto.NewStateMessage(h.server.State()))

	default:
		h.logf("unknown command type %q", cmd.Type)
		return h.send(sess, proto.NewErrorMessage("unknown command type "+cmd.Type))
	}
}

func (h *Handler) send(sess *session, payload any) bool {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logf("failed to marshal response: %v", err)
		return true
	}
	if err := sess.writeMessage(data); err != nil {
		return false
	}
	return true
}

func (h *Handler) logf(format string, args ...any) {
	if h.logger == nil {
		return
	}
	h.logger.Printf(format, args...)
}
