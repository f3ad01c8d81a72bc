// Package katago implements the wire protocol spoken by the KataGo analysis
// engine: JSON queries written one per line to its stdin, and a heterogeneous
// stream of response and diagnostic lines read back from its stdout.
package katago

import (
	"bytes"
	"encoding/json"
	"strings"
)

const (
	BoardSize   = 19
	Rules       = "tromp-taylor"
	DefaultKomi = 7.5
	Black       = "B"
	White       = "W"
)

// A Query is one analysis request. It marshals directly to the line format
// the engine expects.
type Query struct {
	ID            string      `json:"id"`
	InitialStones [][2]string `json:"initialStones"`
	Moves         [][2]string `json:"moves"`
	Rules         string      `json:"rules"`
	Komi          float64     `json:"komi"`
	BoardXSize    int         `json:"boardXSize"`
	BoardYSize    int         `json:"boardYSize"`
	AnalyzeTurns  []int       `json:"analyzeTurns"`
	MaxVisits     int         `json:"maxVisits"`
}

// NewQuery builds a query for the position reached after playing moves in
// order, starting with initialPlayer ("B" or "W"; empty means black). Colors
// alternate by ply parity from the initial player. The final position is the
// one analyzed.
func NewQuery(id string, moves []string, initialPlayer string, visits int) Query {
	return Query{
		ID:            id,
		InitialStones: [][2]string{},
		Moves:         ColoredMoves(moves, initialPlayer),
		Rules:         Rules,
		Komi:          DefaultKomi,
		BoardXSize:    BoardSize,
		BoardYSize:    BoardSize,
		AnalyzeTurns:  []int{len(moves)},
		MaxVisits:     visits,
	}
}

// ColoredMoves pairs each bare coordinate with a color, alternating from
// initialPlayer.
func ColoredMoves(moves []string, initialPlayer string) [][2]string {
	player := NormalizeColor(initialPlayer)
	out := make([][2]string, len(moves))
	for i, coord := range moves {
		out[i] = [2]string{player, coord}
		player = Opponent(player)
	}
	return out
}

// NormalizeColor maps any spelling of a color to "B" or "W", defaulting to
// black.
func NormalizeColor(c string) string {
	if strings.EqualFold(c, White) || strings.EqualFold(c, "white") {
		return White
	}
	return Black
}

// Opponent returns the other color.
func Opponent(c string) string {
	if c == Black {
		return White
	}
	return Black
}

// Encode renders the query as a single wire line, without a terminator.
func Encode(q Query) (string, error) {
	bts, err := json.Marshal(q)
	if err != nil {
		return "", err
	}
	return string(bts), nil
}

// MoveInfo is the engine's evaluation of one candidate move.
type MoveInfo struct {
	Move               string   `json:"move"`
	Visits             int      `json:"visits"`
	Winrate            float64  `json:"winrate"`
	ScoreLead          float64  `json:"scoreLead"`
	PlaySelectionValue float64  `json:"playSelectionValue"`
	Order              int      `json:"order"`
	PV                 []string `json:"pv"`
}

// RootInfo describes the position being analyzed as a whole.
type RootInfo struct {
	CurrentPlayer string  `json:"currentPlayer"`
	Visits        int     `json:"visits"`
	Winrate       float64 `json:"winrate"`
	ScoreLead     float64 `json:"scoreLead"`
}

// A Response is one decoded engine output line. Raw holds the original line
// verbatim so callers can pass the payload through untouched.
type Response struct {
	ID             string     `json:"id"`
	Error          string     `json:"error"`
	IsDuringSearch bool       `json:"isDuringSearch"`
	TurnNumber     int        `json:"turnNumber"`
	MoveInfos      []MoveInfo `json:"moveInfos"`
	RootInfo       RootInfo   `json:"rootInfo"`

	Raw json.RawMessage `json:"-"`
}

// Decode classifies a raw output line. It returns ok=false for anything that
// is not a protocol response: startup banners, diagnostics, or malformed
// JSON. It never fails; the engine is allowed to print whatever it wants
// between responses.
func Decode(line []byte) (Response, bool) {
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Response{}, false
	}
	var resp Response
	if err := json.Unmarshal(trimmed, &resp); err != nil {
		return Response{}, false
	}
	if resp.ID == "" {
		return Response{}, false
	}
	resp.Raw = json.RawMessage(bytes.Clone(trimmed))
	return resp, true
}
