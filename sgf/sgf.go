// Package sgf implements a small SGF reader: enough to pull the board size,
// rules, komi, setup stones, and the main line of moves out of a game record
// and convert them to the coordinates the analysis engine expects.
package sgf

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// GTP-style column letters skip I.
const columns = "ABCDEFGHJKLMNOPQRSTUVWXYZ"

// A Game is the parsed record, with coordinates already converted to GTP
// style (column letter, row number counted from the bottom edge).
type Game struct {
	BoardSize     int
	Rules         string
	Komi          float64
	InitialPlayer string
	InitialStones [][2]string
	Moves         [][2]string
}

type property struct {
	ident  string
	values []string
}

type node []property

// ParseFile reads and parses the SGF file at path.
func ParseFile(path string) (*Game, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse parses an SGF record. Only the main line is followed; variations are
// skipped.
func Parse(data []byte) (*Game, error) {
	nodes, err := mainLine(string(data))
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, errors.New("sgf: no nodes in game tree")
	}

	g := &Game{
		BoardSize: 19,
		Rules:     "japanese",
		Komi:      6.5,
	}
	root := nodes[0]
	for _, prop := range root {
		switch prop.ident {
		case "SZ":
			size, err := strconv.Atoi(prop.values[0])
			if err != nil || size < 2 || size > 25 {
				return nil, fmt.Errorf("sgf: bad board size %q", prop.values[0])
			}
			g.BoardSize = size
		case "RU":
			g.Rules = strings.ToLower(prop.values[0])
		case "KM":
			if komi, err := strconv.ParseFloat(prop.values[0], 64); err == nil {
				g.Komi = komi
			}
		case "PL":
			if strings.EqualFold(prop.values[0], "W") {
				g.InitialPlayer = "W"
			} else {
				g.InitialPlayer = "B"
			}
		}
	}
	for _, prop := range root {
		if prop.ident != "AB" && prop.ident != "AW" {
			continue
		}
		color := "B"
		if prop.ident == "AW" {
			color = "W"
		}
		for _, v := range prop.values {
			for _, pt := range expandPoint(v) {
				coord, ok := gtpCoord(pt, g.BoardSize)
				if !ok {
					return nil, fmt.Errorf("sgf: bad setup point %q", pt)
				}
				g.InitialStones = append(g.InitialStones, [2]string{color, coord})
			}
		}
	}
	// Handicap games start with white to move unless PL says otherwise.
	if g.InitialPlayer == "" {
		if len(g.InitialStones) > 0 {
			g.InitialPlayer = "W"
		} else {
			g.InitialPlayer = "B"
		}
	}

	for _, nd := range nodes {
		for _, prop := range nd {
			if prop.ident != "B" && prop.ident != "W" {
				continue
			}
			v := ""
			if len(prop.values) > 0 {
				v = prop.values[0]
			}
			if v == "" || (v == "tt" && g.BoardSize <= 19) {
				g.Moves = append(g.Moves, [2]string{prop.ident, "pass"})
				continue
			}
			coord, ok := gtpCoord(v, g.BoardSize)
			if !ok {
				return nil, fmt.Errorf("sgf: bad move %q", v)
			}
			g.Moves = append(g.Moves, [2]string{prop.ident, coord})
		}
	}
	return g, nil
}

// MovesBefore returns the first n moves, for analyzing the position as it
// stood at move n.
func (g *Game) MovesBefore(n int) [][2]string {
	if n > len(g.Moves) {
		n = len(g.Moves)
	}
	return g.Moves[:n]
}

// gtpCoord converts an SGF point ("pd") to GTP style ("Q16"). SGF rows count
// from the top edge, GTP row numbers from the bottom.
func gtpCoord(pt string, size int) (string, bool) {
	if len(pt) != 2 {
		return "", false
	}
	col := int(pt[0] - 'a')
	row := int(pt[1] - 'a')
	if col < 0 || col >= size || row < 0 || row >= size {
		return "", false
	}
	return fmt.Sprintf("%c%d", columns[col], size-row), true
}

// expandPoint expands a compressed point list ("aa:ac") into its individual
// points; a plain point comes back as itself.
func expandPoint(v string) []string {
	corner1, corner2, found := strings.Cut(v, ":")
	if !found {
		return []string{v}
	}
	if len(corner1) != 2 || len(corner2) != 2 {
		return []string{v}
	}
	var pts []string
	for c := corner1[0]; c <= corner2[0]; c++ {
		for r := corner1[1]; r <= corner2[1]; r++ {
			pts = append(pts, string([]byte{c, r}))
		}
	}
	return pts
}

// mainLine tokenizes the record and collects the nodes of the first
// variation at every branch. In the serialized tree the main line is exactly
// the run of nodes before the first close-paren; everything after it is a
// sibling variation or a closing bracket.
func mainLine(s string) ([]node, error) {
	var nodes []node
	opened := false
	i := 0
	n := len(s)
	for i < n {
		switch s[i] {
		case '(':
			opened = true
			i++
		case ')':
			return nodes, nil
		case ';':
			nd, next, err := readNode(s, i+1)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, nd)
			i = next
		default:
			i++
		}
	}
	if opened {
		return nil, errors.New("sgf: unbalanced parentheses")
	}
	return nodes, nil
}

// readNode reads properties until the next structural character.
func readNode(s string, i int) (node, int, error) {
	var nd node
	n := len(s)
	for i < n {
		c := s[i]
		if c == ';' || c == '(' || c == ')' {
			return nd, i, nil
		}
		if c >= 'A' && c <= 'Z' {
			start := i
			for i < n && s[i] >= 'A' && s[i] <= 'Z' {
				i++
			}
			ident := s[start:i]
			var values []string
			for i < n {
				for i < n && (s[i] == ' ' || s[i] == '\n' || s[i] == '\r' || s[i] == '\t') {
					i++
				}
				if i >= n || s[i] != '[' {
					break
				}
				val, next, err := readValue(s, i)
				if err != nil {
					return nil, 0, err
				}
				values = append(values, val)
				i = next
			}
			if len(values) == 0 {
				return nil, 0, fmt.Errorf("sgf: property %s has no value", ident)
			}
			nd = append(nd, property{ident: ident, values: values})
			continue
		}
		i++
	}
	return nd, i, nil
}

// readValue reads a bracketed property value starting at the '[' at s[i],
// honoring backslash escapes.
func readValue(s string, i int) (string, int, error) {
	i++ // consume '['
	var sb strings.Builder
	n := len(s)
	for i < n {
		switch s[i] {
		case '\\':
			if i+1 < n {
				sb.WriteByte(s[i+1])
				i += 2
				continue
			}
			i++
		case ']':
			return sb.String(), i + 1, nil
		default:
			sb.WriteByte(s[i])
			i++
		}
	}
	return "", 0, errors.New("sgf: unterminated property value")
}
