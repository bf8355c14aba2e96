package main

import (
	"errors"
	"log"
	"sync"

	"gomoku-engine/engine"
)

var (
	errGameOver    = errors.New("game is already over")
	errIllegalMove = errors.New("illegal move")
)

// GameStatus is the JSON view of the current game.
type GameStatus struct {
	Grid       [][]int       `json:"grid"` // 0 empty, 1 black, 2 white
	SideToMove string        `json:"sideToMove"`
	MoveCount  int           `json:"moveCount"`
	Winner     string        `json:"winner,omitempty"`
	Draw       bool          `json:"draw"`
	Moves      []engine.Move `json:"moves"`
}

// GameSession owns one board and its engine. All access goes through the
// mutex; searches run inline under it, so concurrent move submissions queue
// up behind the engine.
type GameSession struct {
	mu       sync.Mutex
	cfg      Config
	board    *engine.Board
	eng      *engine.SearchEngine
	moves    []engine.Move
	progress func(engine.SearchResult)
}

func NewGameSession(cfg Config, progress func(engine.SearchResult)) *GameSession {
	g := &GameSession{cfg: cfg, progress: progress}
	g.board = engine.NewBoard()
	g.eng = g.newEngine()
	return g
}

// newEngine builds an engine around the current board with the session's
// configured weights and table size.
func (g *GameSession) newEngine() *engine.SearchEngine {
	eval := engine.NewPatternEvaluator(g.cfg.EvalWeights, 0)
	eng := engine.NewSearchEngine(g.board, eval, nil, nil, g.cfg.TTSize)
	eng.OnDepthComplete = func(r engine.SearchResult) {
		if g.progress != nil {
			g.progress(r)
		}
	}
	return eng
}

// carryTable moves the old engine's table into eng. Entries are tagged with
// the side they were searched for so the new engine keeps the root-side
// guard intact; an untagged table is carried as-is.
func carryTable(eng, old *engine.SearchEngine) {
	entries := old.TranspositionTable().SnapshotEntries()
	if side, seeded := old.TableSeed(); seeded {
		eng.SeedTable(side, entries)
	} else {
		eng.TranspositionTable().LoadEntries(entries)
	}
}

// ApplyConfig swaps in a new engine with the updated weights and table
// size, keeping the game in progress and the transposition table warm.
func (g *GameSession) ApplyConfig(cfg Config) {
	g.mu.Lock()
	defer g.mu.Unlock()
	old := g.eng
	g.cfg = cfg
	g.eng = g.newEngine()
	carryTable(g.eng, old)
}

// Reset starts a fresh game, keeping the transposition table warm.
func (g *GameSession) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	old := g.eng
	g.board = engine.NewBoard()
	g.eng = g.newEngine()
	carryTable(g.eng, old)
	g.moves = nil
	log.Printf("[game] reset, table entries carried over: %d", g.eng.TranspositionTable().Count())
}

func (g *GameSession) over() bool {
	return g.board.CheckWin(engine.Black) || g.board.CheckWin(engine.White) || g.board.IsFull()
}

// ApplyMove plays a stone for the side to move.
func (g *GameSession) ApplyMove(m engine.Move) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.over() {
		return errGameOver
	}
	if !g.board.MakeMove(m.X, m.Y) {
		return errIllegalMove
	}
	g.moves = append(g.moves, m)
	return nil
}

// SearchAndPlay asks the engine for a move and plays it.
func (g *GameSession) SearchAndPlay(limits engine.SearchLimits) (engine.SearchResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.over() {
		return engine.SearchResult{}, errGameOver
	}
	res := g.eng.SearchBestMove(limits)
	if !res.BestMove.Valid() {
		return res, errGameOver
	}
	if !g.board.MakeMove(res.BestMove.X, res.BestMove.Y) {
		return res, errIllegalMove
	}
	g.moves = append(g.moves, res.BestMove)
	return res, nil
}

// Search runs the engine without committing the move.
func (g *GameSession) Search(limits engine.SearchLimits) engine.SearchResult {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.eng.SearchBestMove(limits)
}

func (g *GameSession) Engine() *engine.SearchEngine {
	return g.eng
}

func (g *GameSession) Status() GameStatus {
	g.mu.Lock()
	defer g.mu.Unlock()
	grid := make([][]int, engine.BoardSize)
	for y := range grid {
		grid[y] = make([]int, engine.BoardSize)
		for x := range grid[y] {
			if p, ok := g.board.StoneAt(x, y); ok {
				grid[y][x] = int(p) + 1
			}
		}
	}
	st := GameStatus{
		Grid:       grid,
		SideToMove: g.board.SideToMove().String(),
		MoveCount:  len(g.moves),
		Moves:      append([]engine.Move(nil), g.moves...),
	}
	switch {
	case g.board.CheckWin(engine.Black):
		st.Winner = engine.Black.String()
	case g.board.CheckWin(engine.White):
		st.Winner = engine.White.String()
	case g.board.IsFull():
		st.Draw = true
	}
	return st
}
