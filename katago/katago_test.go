package katago

import (
	"encoding/json"
	"testing"

	"github.com/matryer/is"
)

func TestColoredMoves(t *testing.T) {
	is := is.New(t)
	type tc struct {
		moves         []string
		initialPlayer string
		expected      [][2]string
	}
	cases := []tc{
		{[]string{}, "", [][2]string{}},
		{[]string{"Q16"}, "", [][2]string{{"B", "Q16"}}},
		{[]string{"D4", "Q16", "pass"}, "", [][2]string{{"B", "D4"}, {"W", "Q16"}, {"B", "pass"}}},
		{[]string{"D4", "Q16"}, "W", [][2]string{{"W", "D4"}, {"B", "Q16"}}},
		{[]string{"D4"}, "white", [][2]string{{"W", "D4"}}},
		{[]string{"D4"}, "b", [][2]string{{"B", "D4"}}},
	}
	for _, c := range cases {
		is.Equal(ColoredMoves(c.moves, c.initialPlayer), c.expected)
	}
}

func TestEncode(t *testing.T) {
	is := is.New(t)
	q := NewQuery("12345-1", []string{"D4", "Q16"}, "", 50)
	line, err := Encode(q)
	is.NoErr(err)

	var decoded map[string]any
	err = json.Unmarshal([]byte(line), &decoded)
	is.NoErr(err)
	is.Equal(decoded["id"], "12345-1")
	is.Equal(decoded["boardXSize"], float64(19))
	is.Equal(decoded["boardYSize"], float64(19))
	is.Equal(decoded["rules"], "tromp-taylor")
	is.Equal(decoded["maxVisits"], float64(50))
	is.Equal(decoded["analyzeTurns"], []any{float64(2)})
	is.Equal(decoded["moves"], []any{
		[]any{"B", "D4"},
		[]any{"W", "Q16"},
	})
	is.Equal(decoded["initialStones"], []any{})
}

func TestEncodeEmptyBoard(t *testing.T) {
	is := is.New(t)
	q := NewQuery("id1", nil, "", 100)
	line, err := Encode(q)
	is.NoErr(err)

	var decoded map[string]any
	is.NoErr(json.Unmarshal([]byte(line), &decoded))
	is.Equal(decoded["moves"], []any{})
	is.Equal(decoded["analyzeTurns"], []any{float64(0)})
	is.Equal(decoded["maxVisits"], float64(100))
}

func TestDecodeIgnorable(t *testing.T) {
	is := is.New(t)
	lines := []string{
		"",
		"   ",
		"KataGo v1.13.0 starting...",
		"Started, ready to begin handling requests",
		"{not json at all",
		`{"noId": true}`,
		`[1, 2, 3]`,
	}
	for _, line := range lines {
		_, ok := Decode([]byte(line))
		is.True(!ok) // line should be classified ignorable
	}
}

func TestDecodeResponse(t *testing.T) {
	is := is.New(t)
	line := `{"id":"abc-1","turnNumber":2,"moveInfos":[{"move":"Q16","visits":40,"winrate":0.55,"scoreLead":1.2,"playSelectionValue":0.9,"order":0,"pv":["Q16","D4"]}],"rootInfo":{"currentPlayer":"B","visits":100,"winrate":0.52,"scoreLead":0.8}}`
	resp, ok := Decode([]byte(line))
	is.True(ok)
	is.Equal(resp.ID, "abc-1")
	is.Equal(resp.Error, "")
	is.Equal(resp.TurnNumber, 2)
	is.Equal(len(resp.MoveInfos), 1)
	is.Equal(resp.MoveInfos[0].Move, "Q16")
	is.Equal(resp.MoveInfos[0].PV, []string{"Q16", "D4"})
	is.Equal(resp.RootInfo.CurrentPlayer, "B")
	is.Equal(string(resp.Raw), line)
}

func TestDecodeEngineError(t *testing.T) {
	is := is.New(t)
	resp, ok := Decode([]byte(`{"id":"abc-2","error":"could not parse query"}`))
	is.True(ok)
	is.Equal(resp.ID, "abc-2")
	is.Equal(resp.Error, "could not parse query")
}

func TestRoundTripID(t *testing.T) {
	is := is.New(t)
	q := NewQuery("987-42", []string{"D4"}, "", 10)
	line, err := Encode(q)
	is.NoErr(err)

	// A synthetic engine response echoing the query's id.
	synthetic := `{"id":` + mustField(t, line, "id") + `,"moveInfos":[]}`
	resp, ok := Decode([]byte(synthetic))
	is.True(ok)
	is.Equal(resp.ID, q.ID)
}

func mustField(t *testing.T, line, field string) string {
	t.Helper()
	var m map[string]json.RawMessage
	if err := json.Unmarshal([]byte(line), &m); err != nil {
		t.Fatal(err)
	}
	return string(m[field])
}
