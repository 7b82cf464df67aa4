package net

import (
	"encoding/json"
	"io"
	nethttp "net/http"
	"time"

	"track-runner/server/internal/net/proto"
	"track-runner/server/internal/net/ws"
	"track-runner/server/internal/sim"
	"track-runner/server/internal/telemetry"
)

// HTTPHandlerConfig wires the handler's collaborators and the defaults
// applied when init requests omit overrides.
type HTTPHandlerConfig struct {
	Logger   telemetry.Logger
	Counters *telemetry.Counters
	Defaults sim.RaceConfig
}

// NewHTTPHandler builds the REST command surface plus the websocket
// endpoint used by streaming clients.
func NewHTTPHandler(server *sim.Server, cfg HTTPHandlerConfig) nethttp.Handler {
	logger := cfg.Logger
	defaults := cfg.Defaults
	if defaults.Distance <= 0 {
		defaults = sim.DefaultRaceConfig()
	}

	mux := nethttp.NewServeMux()

	mux.HandleFunc("/health", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/diagnostics", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		payload := struct {
			Status     string            `json:"status"`
			ServerTime int64             `json:"serverTime"`
			TickRate   float32           `json:"tickRate"`
			Stats      sim.Stats         `json:"stats"`
			Telemetry  map[string]uint64 `json:"telemetry,omitempty"`
		}{
			Status:     "ok",
			ServerTime: time.Now().UnixMilli(),
			TickRate:   server.TickRate(),
			Stats:      server.Stats(),
			Telemetry:  cfg.Counters.Snapshot(),
		}
		writeJSON(w, payload)
	})

	mux.HandleFunc("/race/init", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodPost {
			httpError(w, "method not allowed", nethttp.StatusMethodNotAllowed)
			return
		}

		config := defaults

		if r.Body != nil {
			defer r.Body.Close()
			var req struct {
				RunnerCount *uint32  `json:"runnerCount"`
				TimeScale   *float32 `json:"timeScale"`
			}
			decoder := json.NewDecoder(r.Body)
			if err := decoder.Decode(&req); err != nil && err != io.EOF {
				httpError(w, "invalid payload", nethttp.StatusBadRequest)
				return
			}
			if req.RunnerCount != nil {
				config.RunnerCount = *req.RunnerCount
			}
			if req.TimeScale != nil {
				config.TimeScale = *req.TimeScale
			}
		}

		server.InitRace(config)
		writeJSON(w, struct {
			Status string         `json:"status"`
			Config sim.RaceConfig `json:"config"`
		}{Status: "ok", Config: config})
	})

	command := func(name string, op func()) nethttp.HandlerFunc {
		return func(w nethttp.ResponseWriter, r *nethttp.Request) {
			if r.Method != nethttp.MethodPost {
				httpError(w, "method not allowed", nethttp.StatusMethodNotAllowed)
				return
			}
			op()
			writeJSON(w, proto.NewAckMessage(name))
		}
	}

	mux.HandleFunc("/race/start", command(proto.TypeStartRace, server.StartRace))
	mux.HandleFunc("/race/pause", command(proto.TypePauseRace, server.Pause))
	mux.HandleFunc("/race/resume", command(proto.TypeResumeRace, server.Resume))
	mux.HandleFunc("/race/reset", command(proto.TypeResetRace, server.Reset))

	mux.HandleFunc("/race/tick", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodPost {
			httpError(w, "method not allowed", nethttp.StatusMethodNotAllowed)
			return
		}
		snapshot := server.Tick()
		if snapshot == nil {
			w.WriteHeader(nethttp.StatusNoContent)
			return
		}
		writeJSON(w, proto.NewSnapshotMessage(snapshot))
	})

	mux.HandleFunc("/race/snapshot", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		snapshot := server.Snapshot()
		if snapshot == nil {
			w.WriteHeader(nethttp.StatusNoContent)
			return
		}
		writeJSON(w, proto.NewSnapshotMessage(snapshot))
	})

	mux.HandleFunc("/race/results", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		results := server.Results()
		if results == nil {
			w.WriteHeader(nethttp.StatusNoContent)
			return
		}
		writeJSON(w, proto.NewResultsMessage(results))
	})

	mux.HandleFunc("/race/stats", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		writeJSON(w, proto.NewStatsMessage(server.Stats()))
	})

	mux.HandleFunc("/race/state", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		writeJSON(w, proto.NewStateMessage(server.State()))
	})

	wsHandler := ws.NewHandler(server, ws.HandlerConfig{Logger: logger, Defaults: defaults})
	mux.Handle("/ws", wsHandler)

	return mux
}

func writeJSON(w nethttp.ResponseWriter, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		httpError(w, "failed to encode", nethttp.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func httpError(w nethttp.ResponseWriter, message string, code int) {
	nethttp.Error(w, message, code)
}
