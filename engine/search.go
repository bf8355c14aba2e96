package engine

import (
	"log"
	"sort"
	"sync/atomic"
)

const (
	stopPollMask        = 1023 // poll the clock every 1024 nodes
	nullMoveMinDepth    = 3
	nullMoveReduction   = 2
	threatProbeMinDepth = 2
	maxQuiescenceDepth  = 6
)

// Move ordering tiers, lower runs first.
const (
	prioWin        = 0
	prioBlockWin   = 1
	prioFour       = 2
	prioBlockFour  = 3
	prioThree      = 4
	prioBlockThree = 5
	prioDefault    = 50
)

// SearchEngine runs iterative-deepening alpha-beta over a Board, consulting
// a ThreatAnalyzer for forced lines and an Evaluator at the leaves. Scores
// are root-relative throughout: positive is good for the side that owned
// the root, at every node and in every table entry.
type SearchEngine struct {
	board   *Board
	eval    Evaluator
	threats ThreatAnalyzer
	history HistoryHeuristic
	tt      *TranspositionTable
	timeMgr TimeManager

	limits   SearchLimits
	rootSide Player
	abort    atomic.Bool
	inPanic  bool

	nodes    uint64
	qnodes   uint64
	hashHits uint64

	// Table scores are root-relative, so entries written while searching
	// for one side read sign-inverted for the other.
	ttRootSide Player
	ttSeeded   bool

	last SearchResult

	// OnDepthComplete, when set, receives a snapshot after every finished
	// depth iteration.
	OnDepthComplete func(SearchResult)
}

// NewSearchEngine wires an engine around b. Nil evaluator, analyzer or
// history fall back to the package defaults. ttSize 0 uses DefaultTTSize.
func NewSearchEngine(b *Board, eval Evaluator, threats ThreatAnalyzer, history HistoryHeuristic, ttSize uint64) *SearchEngine {
	if eval == nil {
		eval = NewPatternEvaluator(DefaultEvalWeights(), 0)
	}
	if threats == nil {
		threats = NewThreatSolver(b)
	}
	if history == nil {
		history = NewHistoryTable()
	}
	return &SearchEngine{
		board:   b,
		eval:    eval,
		threats: threats,
		history: history,
		tt:      NewTranspositionTable(ttSize),
	}
}

func (e *SearchEngine) Board() *Board {
	return e.board
}

func (e *SearchEngine) TranspositionTable() *TranspositionTable {
	return e.tt
}

func (e *SearchEngine) LastSearchResult() SearchResult {
	return e.last
}

func (e *SearchEngine) ClearCaches() {
	e.tt.Clear()
	e.history.Clear()
	e.ttSeeded = false
}

// TableSeed reports which side's root-relative scores the table holds.
// ok is false while the table is empty of any search's entries.
func (e *SearchEngine) TableSeed() (side Player, ok bool) {
	return e.ttRootSide, e.ttSeeded
}

// SeedTable loads entries recorded during searches rooted at side, so the
// root-side guard in SearchBestMove can drop them when it searches for the
// other side.
func (e *SearchEngine) SeedTable(side Player, entries []TTEntry) {
	if e.ttSeeded && e.ttRootSide != side {
		e.tt.Clear()
	}
	e.tt.LoadEntries(entries)
	e.ttRootSide = side
	e.ttSeeded = true
}

// AbortSearch stops an in-flight search from another goroutine.
func (e *SearchEngine) AbortSearch() {
	e.timeMgr.ForceStop()
	e.abort.Store(true)
}

func (e *SearchEngine) nodeThreatLimits() ThreatSearchLimits {
	return ThreatSearchLimits{MaxNodes: 1500, MaxDepth: 4, AbortFlag: &e.abort}
}

// winScore converts "winner made five at ply" into a root-relative mate
// score; closer wins score higher.
func (e *SearchEngine) winScore(winner Player, ply int) EvalScore {
	if winner == e.rootSide {
		return MateScore - ply
	}
	return -(MateScore - ply)
}

// SearchBestMove runs one full search: threat analysis at the root, then
// iterative deepening until a limit trips. Depth one never consults the
// clock, so even a zero time budget yields a playable move.
func (e *SearchEngine) SearchBestMove(limits SearchLimits) SearchResult {
	if limits.MaxDepth <= 0 {
		limits.MaxDepth = DefaultSearchLimits().MaxDepth
	}
	e.limits = limits
	e.timeMgr.Start(limits)
	e.abort.Store(false)
	e.inPanic = false
	e.nodes, e.qnodes, e.hashHits = 0, 0, 0
	e.rootSide = e.board.SideToMove()
	if e.ttSeeded && e.ttRootSide != e.rootSide {
		e.tt.Clear()
	}
	e.ttRootSide = e.rootSide
	e.ttSeeded = true
	e.history.Clear()
	e.threats.SyncFromBoard(e.board)

	result := SearchResult{BestMove: InvalidMove(), BestScore: DrawScore}

	if e.board.IsFull() {
		return e.finish(result)
	}

	analysis := e.threats.AnalyzeThreats(e.board, e.rootSide)
	if analysis.HasForcedWin {
		result.IsForcedWin = true
		result.IsMate = true
		result.BestScore = MateScore
		if analysis.HasWinningMove {
			result.BestMove = analysis.WinningMove
			result.BestScore = MateScore - 1
			result.PrincipalVariation = analysis.WinningLine
		}
		return e.finish(result)
	}

	rootMoves := e.board.CandidateMoves()
	if len(analysis.DefensiveMoves) > 0 {
		rootMoves = append([]Move(nil), analysis.DefensiveMoves...)
	}
	if len(rootMoves) == 0 {
		rootMoves = e.board.LegalMoves()
	}

	bestMove := InvalidMove()
	bestScore := -Infinity
	pvMove := InvalidMove()
	for depth := 1; depth <= limits.MaxDepth; depth++ {
		e.inPanic = false
		e.orderRootMoves(rootMoves, pvMove)
		move, score, complete := e.searchRoot(depth, rootMoves)
		if !complete {
			if !bestMove.Valid() && move.Valid() {
				bestMove, bestScore = move, score
				result.DepthReached = depth
			}
			result.IsTimeout = true
			break
		}
		bestMove, bestScore = move, score
		pvMove = move
		result.DepthReached = depth
		e.tt.Store(e.board.HashKey(), ToTTScore(score, 0), score, depth, TTExact, move)
		if e.OnDepthComplete != nil {
			snap := result
			snap.BestMove = bestMove
			snap.BestScore = bestScore
			snap.Nodes = e.nodes
			snap.QNodes = e.qnodes
			snap.HashHits = e.hashHits
			snap.ElapsedMs = e.timeMgr.ElapsedMs()
			e.OnDepthComplete(snap)
		}
		if bestScore >= mateThreshold || bestScore <= -mateThreshold {
			break
		}
		if e.timeMgr.CheckStopCondition(e.nodes, false) {
			result.IsTimeout = true
			break
		}
	}
	result.BestMove = bestMove
	result.BestScore = bestScore
	result.IsMate = bestScore >= mateThreshold || bestScore <= -mateThreshold
	if pv := e.extractPrincipalVariation(result.DepthReached); len(pv) > 0 {
		result.PrincipalVariation = pv
	}
	return e.finish(result)
}

func (e *SearchEngine) finish(result SearchResult) SearchResult {
	result.Nodes = e.nodes
	result.QNodes = e.qnodes
	result.HashHits = e.hashHits
	result.ElapsedMs = e.timeMgr.ElapsedMs()
	log.Printf("[ai:search] side=%s depth=%d score=%d move=%s nodes=%d qnodes=%d hashHits=%d elapsed=%dms timeout=%v",
		e.rootSide, result.DepthReached, result.BestScore, result.BestMove,
		result.Nodes, result.QNodes, result.HashHits, result.ElapsedMs, result.IsTimeout)
	e.last = result
	return result
}

// searchRoot runs one depth iteration. Depth one is a clock-free static
// scan; deeper iterations report complete=false when the clock cut them
// short.
func (e *SearchEngine) searchRoot(depth int, moves []Move) (Move, EvalScore, bool) {
	if depth == 1 {
		bestMove := InvalidMove()
		best := -Infinity
		for _, m := range moves {
			value := e.staticMoveScore(m)
			if value > best {
				best, bestMove = value, m
			}
		}
		return bestMove, best, bestMove.Valid()
	}

	alpha, beta := -Infinity, Infinity
	best := -Infinity
	bestMove := InvalidMove()
	for i, m := range moves {
		value := e.searchMove(m, depth-1, alpha, beta, 1, i == 0)
		if e.timeMgr.Stopped() {
			return bestMove, best, false
		}
		if value > best {
			best, bestMove = value, m
		}
		if best > alpha {
			alpha = best
		}
		e.inPanic = true
	}
	return bestMove, best, bestMove.Valid()
}

func (e *SearchEngine) staticMoveScore(m Move) EvalScore {
	if !e.board.MakeMove(m.X, m.Y) {
		return -Infinity
	}
	defer e.board.UnmakeMove(m.X, m.Y)
	if e.board.CheckWin(e.rootSide) {
		return MateScore - 1
	}
	return e.eval.Evaluate(e.board, e.rootSide)
}

// searchMove plays m, keeps board and analyzer in lockstep, and recurses.
// The deferred unwind runs on every exit path.
func (e *SearchEngine) searchMove(m Move, depth int, alpha, beta EvalScore, ply int, inPV bool) EvalScore {
	if !e.board.MakeMove(m.X, m.Y) {
		return alpha
	}
	e.threats.NotifyMove(m)
	defer func() {
		e.threats.NotifyUndo(m)
		e.board.UnmakeMove(m.X, m.Y)
	}()
	return e.search(depth, alpha, beta, ply, true, inPV)
}

func (e *SearchEngine) search(depth int, alpha, beta EvalScore, ply int, allowNull, inPV bool) EvalScore {
	e.nodes++
	if e.nodes&stopPollMask == 0 && e.timeMgr.CheckStopCondition(e.nodes, e.inPanic) {
		e.abort.Store(true)
	}
	if e.timeMgr.Stopped() {
		return 0
	}

	stm := e.board.SideToMove()
	if e.board.CheckWin(stm.Other()) {
		return e.winScore(stm.Other(), ply)
	}
	if e.board.IsFull() {
		return DrawScore
	}
	if depth <= 0 {
		return e.quiescence(alpha, beta, ply, maxQuiescenceDepth)
	}

	key := e.board.HashKey()
	alphaOrig, betaOrig := alpha, beta
	ttMove := InvalidMove()
	if entry, ok := e.tt.Probe(key); ok {
		e.hashHits++
		if entry.BestMove.Valid() {
			ttMove = entry.BestMove
		}
		if entry.Depth >= depth {
			value := FromTTScore(entry.Value, ply)
			switch entry.Flag {
			case TTExact:
				return value
			case TTLower:
				if value > alpha {
					alpha = value
				}
			case TTUpper:
				if value < beta {
					beta = value
				}
			}
			if alpha >= beta {
				return value
			}
		}
	}

	maximizing := stm == e.rootSide

	var candidates []Move
	if depth >= threatProbeMinDepth {
		ds := e.threats.ComputeDefensiveSet(stm, e.nodeThreatLimits())
		if e.timeMgr.Stopped() {
			return 0
		}
		if ds.IsLost {
			return e.winScore(stm.Other(), ply)
		}
		if len(ds.DefensiveMoves) > 0 {
			candidates = append([]Move(nil), ds.DefensiveMoves...)
		}
	}
	if candidates == nil {
		if allowNull && e.limits.EnableNullMove && depth >= nullMoveMinDepth && !inPV &&
			!e.threats.HasImmediateWinningThreat(stm.Other()) {
			value := e.nullMoveSearch(depth, alpha, beta, ply, maximizing)
			if e.timeMgr.Stopped() {
				return 0
			}
			if maximizing && value >= beta {
				return value
			}
			if !maximizing && value <= alpha {
				return value
			}
		}
		candidates = e.board.CandidateMoves()
	}
	if len(candidates) == 0 {
		return DrawScore
	}
	e.orderMoves(candidates, stm, ttMove)

	best := -Infinity
	if !maximizing {
		best = Infinity
	}
	bestMove := InvalidMove()
	for i, m := range candidates {
		value := e.searchMove(m, depth-1, alpha, beta, ply+1, inPV && i == 0)
		if e.timeMgr.Stopped() {
			return best
		}
		if maximizing {
			if value > best {
				best, bestMove = value, m
			}
			if best > alpha {
				alpha = best
			}
		} else {
			if value < best {
				best, bestMove = value, m
			}
			if best < beta {
				beta = best
			}
		}
		if alpha >= beta {
			e.history.RecordBetaCutoff(stm, m, depth)
			break
		}
	}

	flag := TTExact
	if best <= alphaOrig {
		flag = TTUpper
	} else if best >= betaOrig {
		flag = TTLower
	}
	if flag == TTExact && bestMove.Valid() {
		e.history.RecordPVMove(stm, bestMove, depth)
	}
	e.tt.Store(key, ToTTScore(best, ply), e.eval.Evaluate(e.board, e.rootSide), depth, flag, bestMove)
	return best
}

// nullMoveSearch gives the opponent a free move and verifies the position
// still holds with a reduced, zero-width search.
func (e *SearchEngine) nullMoveSearch(depth int, alpha, beta EvalScore, ply int, maximizing bool) EvalScore {
	e.board.MakeNullMove()
	defer e.board.UnmakeNullMove()
	r := depth - 1 - nullMoveReduction
	if r < 0 {
		r = 0
	}
	if maximizing {
		return e.search(r, beta-1, beta, ply+1, false, false)
	}
	return e.search(r, alpha, alpha+1, ply+1, false, false)
}

// quiescence extends the search through forcing moves only, so the static
// evaluation is never taken in the middle of a four-exchange.
func (e *SearchEngine) quiescence(alpha, beta EvalScore, ply, qdepth int) EvalScore {
	e.qnodes++
	if e.qnodes&stopPollMask == 0 && e.timeMgr.CheckStopCondition(e.nodes+e.qnodes, e.inPanic) {
		e.abort.Store(true)
	}

	stm := e.board.SideToMove()
	if e.board.CheckWin(stm.Other()) {
		return e.winScore(stm.Other(), ply)
	}
	stand := e.eval.Evaluate(e.board, e.rootSide)
	maximizing := stm == e.rootSide
	if maximizing {
		if stand >= beta {
			return stand
		}
		if stand > alpha {
			alpha = stand
		}
	} else {
		if stand <= alpha {
			return stand
		}
		if stand < beta {
			beta = stand
		}
	}
	if qdepth <= 0 || e.timeMgr.Stopped() {
		return stand
	}

	best := stand
	for _, m := range e.threats.ForcingMoves(stm) {
		value := e.qsearchMove(m, alpha, beta, ply+1, qdepth-1)
		if e.timeMgr.Stopped() {
			return best
		}
		if maximizing {
			if value > best {
				best = value
			}
			if best > alpha {
				alpha = best
			}
		} else {
			if value < best {
				best = value
			}
			if best < beta {
				beta = best
			}
		}
		if alpha >= beta {
			break
		}
	}
	return best
}

func (e *SearchEngine) qsearchMove(m Move, alpha, beta EvalScore, ply, qdepth int) EvalScore {
	if !e.board.MakeMove(m.X, m.Y) {
		return alpha
	}
	e.threats.NotifyMove(m)
	defer func() {
		e.threats.NotifyUndo(m)
		e.board.UnmakeMove(m.X, m.Y)
	}()
	return e.quiescence(alpha, beta, ply, qdepth)
}

func bestRunAfter(b *Board, p Player, m Move) int {
	best := 1
	for _, d := range lineDirs {
		run := 1 + countContiguous(b, p, m.X, m.Y, d[0], d[1]) +
			countContiguous(b, p, m.X, m.Y, -d[0], -d[1])
		if run > best {
			best = run
		}
	}
	return best
}

func (e *SearchEngine) movePriority(stm Player, m Move) int {
	own := bestRunAfter(e.board, stm, m)
	opp := bestRunAfter(e.board, stm.Other(), m)
	switch {
	case own >= winLength:
		return prioWin
	case opp >= winLength:
		return prioBlockWin
	case own == 4:
		return prioFour
	case opp == 4:
		return prioBlockFour
	case own == 3:
		return prioThree
	case opp == 3:
		return prioBlockThree
	default:
		return prioDefault
	}
}

func (e *SearchEngine) orderMoves(moves []Move, stm Player, front Move) {
	sort.SliceStable(moves, func(i, j int) bool {
		a, b := moves[i], moves[j]
		if front.Valid() {
			if a.Equals(front) {
				return true
			}
			if b.Equals(front) {
				return false
			}
		}
		pa, pb := e.movePriority(stm, a), e.movePriority(stm, b)
		if pa != pb {
			return pa < pb
		}
		ha, hb := e.history.HistoryScore(stm, a), e.history.HistoryScore(stm, b)
		if ha != hb {
			return ha > hb
		}
		return a.Less(b)
	})
}

func (e *SearchEngine) orderRootMoves(moves []Move, pvMove Move) {
	e.orderMoves(moves, e.rootSide, pvMove)
}

// extractPrincipalVariation walks the table from the root along stored best
// moves. The seen set stops repetition cycles dead.
func (e *SearchEngine) extractPrincipalVariation(maxLen int) []Move {
	if maxLen <= 0 {
		return nil
	}
	b := e.board.Clone()
	seen := make(map[uint64]bool, maxLen)
	var pv []Move
	for len(pv) < maxLen {
		key := b.HashKey()
		if seen[key] {
			break
		}
		seen[key] = true
		entry, ok := e.tt.Probe(key)
		if !ok || !entry.BestMove.Valid() {
			break
		}
		if !b.MakeMove(entry.BestMove.X, entry.BestMove.Y) {
			break
		}
		pv = append(pv, entry.BestMove)
	}
	return pv
}
