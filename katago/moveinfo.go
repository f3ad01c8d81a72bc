package katago

import (
	"fmt"
	"sort"
	"strings"
)

// RankedMoves returns the response's candidate moves sorted best-first, by
// play selection value and then by visits.
func RankedMoves(r Response) []MoveInfo {
	moves := make([]MoveInfo, len(r.MoveInfos))
	copy(moves, r.MoveInfos)
	sort.SliceStable(moves, func(i, j int) bool {
		if moves[i].PlaySelectionValue != moves[j].PlaySelectionValue {
			return moves[i].PlaySelectionValue > moves[j].PlaySelectionValue
		}
		return moves[i].Visits > moves[j].Visits
	})
	return moves
}

// MoveTable renders a markdown table of the top n ranked moves.
func MoveTable(r Response, n int) string {
	ranked := RankedMoves(r)
	if len(ranked) == 0 {
		return "No moves to display."
	}
	if n < len(ranked) {
		ranked = ranked[:n]
	}
	var sb strings.Builder
	sb.WriteString("| Rank | Move | Winrate | ScoreLead | Visits |\n")
	sb.WriteString("|:----:|:----:|:-------:|:---------:|:------:|\n")
	for i, m := range ranked {
		fmt.Fprintf(&sb, "| %d | **%s** | %.1f%% | %+.1f | %d |\n",
			i+1, m.Move, m.Winrate*100, m.ScoreLead, m.Visits)
	}
	return sb.String()
}
