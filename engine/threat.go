package engine

import "sync/atomic"

// Direction labels the four line orientations on the board.
type Direction uint8

const (
	Horizontal Direction = iota
	Vertical
	DiagDown // top-left to bottom-right
	DiagUp   // bottom-left to top-right
)

func (d Direction) String() string {
	switch d {
	case Horizontal:
		return "horizontal"
	case Vertical:
		return "vertical"
	case DiagDown:
		return "diag-down"
	default:
		return "diag-up"
	}
}

// ThreatType classifies a pattern by how hard it forces the defender.
// Winning threats end the game within one move, forcing threats demand an
// immediate answer, the rest only matter for evaluation and ordering.
type ThreatType uint8

const (
	ThreatNone ThreatType = iota
	BrokenTwo
	OpenTwo
	SimpleThree
	BrokenThree // gapped three that converts to an open four
	OpenThree   // straight three with room for an open four
	SimpleFour  // one completion square
	OpenFour    // two completion squares, unstoppable by a single reply
	Five
)

// IsWinning reports whether the threat wins outright or within one move
// regardless of the defender's reply.
func (t ThreatType) IsWinning() bool {
	return t == Five || t == OpenFour
}

// IsForcing reports whether the defender must answer the threat immediately
// to avoid a forced loss.
func (t ThreatType) IsForcing() bool {
	return t >= BrokenThree
}

func (t ThreatType) String() string {
	switch t {
	case Five:
		return "five"
	case OpenFour:
		return "open-four"
	case SimpleFour:
		return "simple-four"
	case OpenThree:
		return "open-three"
	case BrokenThree:
		return "broken-three"
	case SimpleThree:
		return "simple-three"
	case OpenTwo:
		return "open-two"
	case BrokenTwo:
		return "broken-two"
	default:
		return "none"
	}
}

// ThreatInstance is one concrete pattern on the board.
type ThreatInstance struct {
	Type     ThreatType
	Attacker Player
	Dir      Direction
	// Stones are the attacker stones forming the pattern.
	Stones []Move
	// RequiredEmpty are the cells that must stay empty for the pattern to
	// keep its classification.
	RequiredEmpty []Move
	// DefensePoints are the cells a defender can occupy to break the
	// threat.
	DefensePoints []Move
	// FinishingMoves are the cells that escalate the threat (a four's
	// completion square, a three's extension to a four).
	FinishingMoves []Move
}

// ThreatSequence is a proven forcing line: attacker moves interleaved with
// the defender replies that were examined.
type ThreatSequence struct {
	Attacker      Player
	AttackerMoves []Move
	DefenderMoves []Move
	Threats       []ThreatInstance
}

// DefensiveSet is the answer to "is the defender already lost, and if not,
// which moves keep them alive". Moves in DefensiveMoves are verified: after
// each one the attacker's winning sequence search comes up empty.
type DefensiveSet struct {
	IsLost         bool
	DefensiveMoves []Move
}

// ThreatSearchLimits bounds a threat-space search independently of the main
// search clock. AbortFlag may be flipped from another goroutine.
type ThreatSearchLimits struct {
	MaxNodes  int
	MaxDepth  int
	AbortFlag *atomic.Bool
}

func DefaultThreatSearchLimits() ThreatSearchLimits {
	return ThreatSearchLimits{MaxNodes: 200000, MaxDepth: 20}
}

// ThreatAnalysis is the combined verdict for one side.
type ThreatAnalysis struct {
	// HasForcedWin: attacker has a verified winning threat sequence.
	HasForcedWin   bool
	HasWinningMove bool
	WinningMove    Move
	WinningLine    []Move
	// IsLost: attacker themselves are on the losing end of an opponent
	// sequence that no single move refutes.
	IsLost bool
	// DefensiveMoves are the verified refutations when IsLost is false but
	// the opponent does have a winning sequence otherwise.
	DefensiveMoves []Move
}

// ThreatAnalyzer is the tactical oracle the search engine consults. The
// analyzer mirrors the engine's make/unmake stream through NotifyMove and
// NotifyUndo so both always describe the same position.
type ThreatAnalyzer interface {
	SyncFromBoard(b *Board)
	NotifyMove(m Move)
	NotifyUndo(m Move)
	AnalyzeThreats(b *Board, attacker Player) ThreatAnalysis
	ComputeDefensiveSet(defender Player, limits ThreatSearchLimits) DefensiveSet
	HasImmediateWinningThreat(p Player) bool
	ForcingMoves(p Player) []Move
}
