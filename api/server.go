// Package api is the HTTP front door for the analysis broker: request-body
// parsing, status mapping, and nothing else.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/domino14/katabroker/broker"
	"github.com/domino14/katabroker/katago"
)

// Analyzer is what the handlers need from the broker.
type Analyzer interface {
	AnalyzeRequest(ctx context.Context, req broker.Request) (katago.Response, error)
	Running() bool
}

// AnalyzeBody is the request body for POST /analyze. Komi is a pointer so an
// explicit 0 is distinguishable from an absent field.
type AnalyzeBody struct {
	Moves         []string    `json:"moves"`
	Visits        int         `json:"visits"`
	InitialPlayer string      `json:"initialPlayer,omitempty"`
	InitialStones [][2]string `json:"initialStones,omitempty"`
	Komi          *float64    `json:"komi,omitempty"`
	Rules         string      `json:"rules,omitempty"`
	BoardSize     int         `json:"boardSize,omitempty"`
}

// Handler builds the HTTP handler. Requests that omit visits get
// defaultVisits; every request runs under the given timeout.
func Handler(an Analyzer, defaultVisits int, timeout time.Duration) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/analyze", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "POST only")
			return
		}
		var body AnalyzeBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "could not parse request body: "+err.Error())
			return
		}
		if body.Visits == 0 {
			body.Visits = defaultVisits
		}
		if body.Visits < 0 {
			writeError(w, http.StatusBadRequest, "visits must be positive")
			return
		}
		log.Info().Int("moves", len(body.Moves)).Int("visits", body.Visits).
			Str("remote", r.RemoteAddr).Msg("analyze-request")

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()
		resp, err := an.AnalyzeRequest(ctx, broker.Request{
			Moves:         body.Moves,
			Visits:        body.Visits,
			InitialPlayer: body.InitialPlayer,
			InitialStones: body.InitialStones,
			Komi:          body.Komi,
			Rules:         body.Rules,
			BoardSize:     body.BoardSize,
		})
		if err != nil {
			log.Err(err).Msg("analyze-failed")
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", "application/json")
		// The engine's payload goes back verbatim.
		w.Write(resp.Raw)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"status":         "online",
			"engine_running": an.Running(),
		})
	})
	return mux
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
