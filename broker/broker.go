// Package broker correlates concurrent analysis calls with the single KataGo
// subprocess behind them. Each call gets a fresh correlation id; one matching
// loop drains the engine's output and settles whichever call the response
// belongs to. Process exit is terminal: every pending and future call fails
// with the exit code.
package broker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/domino14/katabroker/katago"
)

// Process is the subset of the engine handle the broker needs. Lines must
// close when the process's stdout does, and Exit must then deliver the exit
// code exactly once.
type Process interface {
	Write(line string) error
	Lines() <-chan string
	Exit() <-chan int
}

// A Request describes one position to analyze.
type Request struct {
	// Moves are bare coordinates ("Q16", "pass"); colors alternate by ply
	// parity from InitialPlayer.
	Moves  []string
	Visits int
	// InitialPlayer is "B" or "W"; empty means black.
	InitialPlayer string
	// InitialStones are pre-set (color, coordinate) pairs, for handicap
	// positions.
	InitialStones [][2]string
	// Komi of nil means the tromp-taylor default; an explicit 0 (common in
	// handicap games) passes through.
	Komi *float64
	// ColoredMoves carries moves with explicit colors (the SGF path has
	// them); when set it takes precedence over Moves and InitialPlayer.
	ColoredMoves [][2]string
	// Rules of "" means tromp-taylor; BoardSize of 0 means 19.
	Rules     string
	BoardSize int
}

type settled struct {
	resp katago.Response
	err  error
}

type pendingEntry struct {
	id      string
	ch      chan settled
	created time.Time
}

// Broker owns the pending table and the matching loop. Create one with New;
// it is safe for any number of goroutines to call Analyze concurrently.
type Broker struct {
	proc Process
	seq  atomic.Uint64
	done chan struct{}

	mu       sync.Mutex
	pending  map[string]*pendingEntry
	terminal error
}

func New(proc Process) *Broker {
	b := &Broker{
		proc:    proc,
		pending: make(map[string]*pendingEntry),
		done:    make(chan struct{}),
	}
	go b.matchLoop()
	return b
}

// Analyze requests an analysis of the position reached after moves, spending
// the given visit budget.
func (b *Broker) Analyze(ctx context.Context, moves []string, visits int) (katago.Response, error) {
	return b.AnalyzeRequest(ctx, Request{Moves: moves, Visits: visits})
}

// AnalyzeRequest is Analyze with the full set of query options. It blocks
// until the engine answers, the context is done, or the process dies.
func (b *Broker) AnalyzeRequest(ctx context.Context, req Request) (katago.Response, error) {
	if req.Visits <= 0 {
		return katago.Response{}, ErrInvalidVisits
	}
	id := b.nextID()
	q := katago.NewQuery(id, req.Moves, req.InitialPlayer, req.Visits)
	if len(req.ColoredMoves) > 0 {
		q.Moves = req.ColoredMoves
		q.AnalyzeTurns = []int{len(req.ColoredMoves)}
	}
	if len(req.InitialStones) > 0 {
		q.InitialStones = req.InitialStones
	}
	if req.Komi != nil {
		q.Komi = *req.Komi
	}
	if req.Rules != "" {
		q.Rules = req.Rules
	}
	if req.BoardSize != 0 {
		q.BoardXSize = req.BoardSize
		q.BoardYSize = req.BoardSize
	}
	line, err := katago.Encode(q)
	if err != nil {
		return katago.Response{}, err
	}

	entry := &pendingEntry{id: id, ch: make(chan settled, 1), created: time.Now()}
	b.mu.Lock()
	if b.terminal != nil {
		b.mu.Unlock()
		return katago.Response{}, b.terminal
	}
	b.pending[id] = entry
	b.mu.Unlock()

	if err := b.proc.Write(line); err != nil {
		b.remove(id)
		return katago.Response{}, err
	}
	log.Debug().Str("id", id).Int("moves", len(req.Moves)).Int("visits", req.Visits).
		Msg("query-sent")

	select {
	case s := <-entry.ch:
		return s.resp, s.err
	case <-ctx.Done():
		// A late response for this id may still arrive; the matching loop
		// discards it as unmatched.
		b.remove(id)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return katago.Response{}, ErrTimeout
		}
		return katago.Response{}, ctx.Err()
	}
}

// Running reports whether the engine process is still alive.
func (b *Broker) Running() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.terminal == nil
}

// Done closes after the process has exited and every pending request has been
// rejected.
func (b *Broker) Done() <-chan struct{} { return b.done }

// Correlation ids combine a wall-clock timestamp with a process-lifetime
// sequence number, so they are unique among pending requests and still
// readable in engine-side logs.
func (b *Broker) nextID() string {
	return fmt.Sprintf("%d-%d", time.Now().UnixNano(), b.seq.Add(1))
}

func (b *Broker) remove(id string) {
	b.mu.Lock()
	delete(b.pending, id)
	b.mu.Unlock()
}

// matchLoop drains the engine's output until stdout closes, then broadcasts
// the exit to everything still pending. A malformed or unmatched line never
// affects any request.
func (b *Broker) matchLoop() {
	for line := range b.proc.Lines() {
		resp, ok := katago.Decode([]byte(line))
		if !ok {
			log.Debug().Str("line", truncate(line, 200)).Msg("ignored-engine-line")
			continue
		}
		if resp.IsDuringSearch {
			// Interim report; the final one settles the request.
			log.Debug().Str("id", resp.ID).Msg("interim-report")
			continue
		}
		b.settle(resp)
	}

	code := <-b.proc.Exit()
	termErr := &TerminatedError{ExitCode: code}
	b.mu.Lock()
	b.terminal = termErr
	n := len(b.pending)
	for id, entry := range b.pending {
		entry.ch <- settled{err: termErr}
		delete(b.pending, id)
	}
	b.mu.Unlock()
	log.Error().Int("code", code).Int("rejected", n).Msg("engine-terminated")
	close(b.done)
}

func (b *Broker) settle(resp katago.Response) {
	b.mu.Lock()
	entry, ok := b.pending[resp.ID]
	if ok {
		delete(b.pending, resp.ID)
	}
	b.mu.Unlock()
	if !ok {
		// Stale (timed out) or duplicate response.
		log.Debug().Str("id", resp.ID).Msg("unmatched-response-discarded")
		return
	}
	if resp.Error != "" {
		entry.ch <- settled{err: &EngineError{ID: resp.ID, Message: resp.Error}}
		return
	}
	log.Debug().Str("id", resp.ID).Dur("elapsed", time.Since(entry.created)).
		Msg("query-settled")
	entry.ch <- settled{resp: resp}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
