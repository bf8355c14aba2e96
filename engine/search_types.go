package engine

// EvalScore is the common currency for static evaluation and search scores.
type EvalScore = int

const (
	// Infinity bounds the alpha-beta window. Kept well below the int range
	// so window arithmetic (beta-1, alpha+1) can never overflow.
	Infinity EvalScore = 1 << 28

	// MateScore is the value of a proven win at the root. A win found at
	// ply p scores MateScore-p, so shorter wins rank higher.
	MateScore EvalScore = Infinity - 1000

	// DrawScore is returned for full-board draws and stalemated searches.
	DrawScore EvalScore = 0

	// mateThreshold separates mate scores from heuristic scores. Plies can
	// never reach 512 on a 144-cell board, quiescence included.
	mateThreshold EvalScore = MateScore - 512
)

// Player identifies a side. Black moves first on an empty board.
type Player uint8

const (
	Black Player = 0
	White Player = 1
)

func (p Player) Other() Player {
	return p ^ 1
}

func (p Player) String() string {
	if p == Black {
		return "black"
	}
	return "white"
}

// SearchLimits configures a single SearchBestMove call.
type SearchLimits struct {
	MaxDepth         int    `json:"maxDepth"`
	MaxNodes         uint64 `json:"maxNodes"`    // 0 = unbounded
	TimeLimitMs      uint64 `json:"timeLimitMs"` // 0 stops after the clock-free first depth
	PanicExtraTimeMs uint64 `json:"panicExtraTimeMs"`
	EnableNullMove   bool   `json:"enableNullMove"`
	EnablePanicMode  bool   `json:"enablePanicMode"`
}

func DefaultSearchLimits() SearchLimits {
	return SearchLimits{
		MaxDepth:         32,
		MaxNodes:         0,
		TimeLimitMs:      1000,
		PanicExtraTimeMs: 300,
		EnableNullMove:   true,
		EnablePanicMode:  true,
	}
}

// SearchResult reports the outcome of one SearchBestMove call.
type SearchResult struct {
	BestMove           Move      `json:"bestMove"`
	BestScore          EvalScore `json:"bestScore"`
	DepthReached       int       `json:"depthReached"`
	IsMate             bool      `json:"isMate"`
	IsForcedWin        bool      `json:"isForcedWin"`
	IsTimeout          bool      `json:"isTimeout"`
	PrincipalVariation []Move    `json:"principalVariation,omitempty"`
	Nodes              uint64    `json:"nodes"`
	QNodes             uint64    `json:"qnodes"`
	HashHits           uint64    `json:"hashHits"`
	ElapsedMs          uint64    `json:"elapsedMs"`
}

// Evaluator scores a position from maxPlayer's point of view. Implementations
// must stay strictly inside (-mateThreshold, mateThreshold) so heuristic
// scores can never be mistaken for proven mates.
type Evaluator interface {
	Evaluate(b *Board, maxPlayer Player) EvalScore
}

// HistoryHeuristic accumulates move-ordering statistics across a search.
type HistoryHeuristic interface {
	HistoryScore(side Player, m Move) int
	RecordBetaCutoff(side Player, m Move, depth int)
	RecordPVMove(side Player, m Move, depth int)
	Clear()
}
