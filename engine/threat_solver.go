package engine

import (
	"sort"
	"sync"
)

// ThreatSolver classifies patterns and searches forcing sequences. It keeps
// a private board kept in sync with the engine through SyncFromBoard and the
// Notify pair, so queries never mutate the engine's board.
type ThreatSolver struct {
	state *solverState
}

type solverState struct {
	board    *Board
	tokenBuf []byte
}

func NewThreatSolver(b *Board) *ThreatSolver {
	getLineTable()
	s := &ThreatSolver{state: &solverState{
		tokenBuf: make([]byte, 0, BoardSize+2),
	}}
	s.SyncFromBoard(b)
	return s
}

func (s *ThreatSolver) Clone() *ThreatSolver {
	return NewThreatSolver(s.state.board)
}

func (s *ThreatSolver) SyncFromBoard(b *Board) {
	s.state.board = b.Clone()
}

func (s *ThreatSolver) NotifyMove(m Move) {
	s.state.board.MakeMove(m.X, m.Y)
}

func (s *ThreatSolver) NotifyUndo(m Move) {
	s.state.board.UnmakeMove(m.X, m.Y)
}

// boardLine is one maximal scan line (row, column or diagonal of length 5+).
type boardLine struct {
	dir   Direction
	cells []int
}

type lineRef struct {
	line   int
	offset int
}

var (
	lineTableOnce sync.Once
	lineTable     []boardLine
	linesThrough  [4][boardCells]lineRef
)

func getLineTable() []boardLine {
	lineTableOnce.Do(buildLineTable)
	return lineTable
}

func buildLineTable() {
	for d := range linesThrough {
		for i := range linesThrough[d] {
			linesThrough[d][i] = lineRef{line: -1}
		}
	}
	addLine := func(dir Direction, x0, y0, dx, dy int) {
		var cells []int
		x, y := x0, y0
		for x >= 0 && x < BoardSize && y >= 0 && y < BoardSize {
			cells = append(cells, y*BoardSize+x)
			x += dx
			y += dy
		}
		if len(cells) < winLength {
			return
		}
		id := len(lineTable)
		lineTable = append(lineTable, boardLine{dir: dir, cells: cells})
		for off, idx := range cells {
			linesThrough[dir][idx] = lineRef{line: id, offset: off}
		}
	}
	for y := 0; y < BoardSize; y++ {
		addLine(Horizontal, 0, y, 1, 0)
	}
	for x := 0; x < BoardSize; x++ {
		addLine(Vertical, x, 0, 0, 1)
	}
	for x := 0; x < BoardSize; x++ {
		addLine(DiagDown, x, 0, 1, 1)
	}
	for y := 1; y < BoardSize; y++ {
		addLine(DiagDown, 0, y, 1, 1)
	}
	for x := 0; x < BoardSize; x++ {
		addLine(DiagUp, x, BoardSize-1, 1, -1)
	}
	for y := BoardSize - 2; y >= 0; y-- {
		addLine(DiagUp, 0, y, 1, -1)
	}
}

// threatPattern is a token template. Offsets index into the pattern string;
// the matching cells are resolved against the line at scan time.
type threatPattern struct {
	pattern   string
	ttype     ThreatType
	defense   []int
	finishing []int
}

// Patterns are tried strongest first. Tokens carry an 'O' sentinel at both
// ends, so a board edge matches the same way as an opponent stone.
var threatPatterns = []threatPattern{
	{"MMMMM", Five, nil, nil},
	{".MMMM.", OpenFour, []int{0, 5}, []int{0, 5}},
	{"OMMMM.", SimpleFour, []int{5}, []int{5}},
	{".MMMMO", SimpleFour, []int{0}, []int{0}},
	{"MMM.M", SimpleFour, []int{3}, []int{3}},
	{"M.MMM", SimpleFour, []int{1}, []int{1}},
	{"MM.MM", SimpleFour, []int{2}, []int{2}},
	{"..MMM..", OpenThree, []int{1, 5}, []int{1, 5}},
	{"..MMM.", OpenThree, []int{1, 5}, []int{1}},
	{".MMM..", OpenThree, []int{0, 4}, []int{4}},
	{".MM.M.", BrokenThree, []int{0, 3, 5}, []int{3}},
	{".M.MM.", BrokenThree, []int{0, 2, 5}, []int{2}},
	{"OMMM..", SimpleThree, []int{4}, []int{4}},
	{"..MMMO", SimpleThree, []int{1}, []int{1}},
	{".MM.", OpenTwo, nil, []int{0, 3}},
	{".M.M.", BrokenTwo, nil, []int{2}},
}

func matchAt(token []byte, i int, pat string) bool {
	if i+len(pat) > len(token) {
		return false
	}
	for j := 0; j < len(pat); j++ {
		if token[i+j] != pat[j] {
			return false
		}
	}
	return true
}

// buildTokens renders a line as attacker-relative tokens with sentinels.
// virtual, when valid, is treated as an attacker stone.
func (s *solverState) buildTokens(line boardLine, attacker Player, virtual int) []byte {
	buf := s.tokenBuf[:0]
	buf = append(buf, 'O')
	for _, idx := range line.cells {
		switch {
		case idx == virtual:
			buf = append(buf, 'M')
		case s.board.hasBit(attacker, idx):
			buf = append(buf, 'M')
		case s.board.hasBit(attacker.Other(), idx):
			buf = append(buf, 'O')
		default:
			buf = append(buf, '.')
		}
	}
	buf = append(buf, 'O')
	s.tokenBuf = buf
	return buf
}

// instancesOnLine scans pattern-major, strongest first. Stones consumed by a
// stronger match are marked claimed so a weaker overlapping pattern (an open
// two inside a gap four, say) is not reported again.
func (s *solverState) instancesOnLine(lineID int, attacker Player, virtual int, out []ThreatInstance) []ThreatInstance {
	line := getLineTable()[lineID]
	token := s.buildTokens(line, attacker, virtual)
	var claimed [BoardSize]bool
	for _, p := range threatPatterns {
		for i := 1; i+len(p.pattern) <= len(token); i++ {
			if !matchAt(token, i, p.pattern) {
				continue
			}
			fresh := false
			for j := 0; j < len(p.pattern); j++ {
				if p.pattern[j] == 'M' && !claimed[i-1+j] {
					fresh = true
					break
				}
			}
			if !fresh {
				continue
			}
			inst := ThreatInstance{
				Type:     p.ttype,
				Attacker: attacker,
				Dir:      line.dir,
			}
			for j := 0; j < len(p.pattern); j++ {
				switch p.pattern[j] {
				case 'M':
					claimed[i-1+j] = true
					inst.Stones = append(inst.Stones, moveFromIndex(line.cells[i-1+j]))
				case '.':
					inst.RequiredEmpty = append(inst.RequiredEmpty, moveFromIndex(line.cells[i-1+j]))
				}
			}
			for _, off := range p.defense {
				inst.DefensePoints = append(inst.DefensePoints, moveFromIndex(line.cells[i-1+off]))
			}
			for _, off := range p.finishing {
				inst.FinishingMoves = append(inst.FinishingMoves, moveFromIndex(line.cells[i-1+off]))
			}
			out = append(out, inst)
			i += len(p.pattern) - 2
		}
	}
	return out
}

// CollectThreats lists every pattern instance the attacker currently has.
func (s *ThreatSolver) CollectThreats(attacker Player) []ThreatInstance {
	var out []ThreatInstance
	for id := range getLineTable() {
		out = s.state.instancesOnLine(id, attacker, -1, out)
	}
	return out
}

// CollectForcingThreats keeps only threats the defender must answer.
func (s *ThreatSolver) CollectForcingThreats(attacker Player) []ThreatInstance {
	all := s.CollectThreats(attacker)
	out := all[:0]
	for _, t := range all {
		if t.Type.IsForcing() {
			out = append(out, t)
		}
	}
	return out
}

// ThreatAt reports the strongest threat the attacker would hold along dir
// after playing the (currently empty) cell m. Returns ThreatNone when m is
// occupied, off the line grid, or creates nothing.
func (s *ThreatSolver) ThreatAt(attacker Player, m Move, dir Direction) ThreatType {
	if !m.Valid() || s.state.board.IsOccupied(m.X, m.Y) {
		return ThreatNone
	}
	ref := linesThrough[dir][m.index()]
	if ref.line < 0 {
		return ThreatNone
	}
	best := ThreatNone
	var insts []ThreatInstance
	insts = s.state.instancesOnLine(ref.line, attacker, m.index(), insts)
	for _, t := range insts {
		if t.Type <= best {
			continue
		}
		for _, st := range t.Stones {
			if st.index() == m.index() {
				best = t.Type
				break
			}
		}
	}
	return best
}

// CreatedThreat is ThreatAt maximized over the four directions.
func (s *ThreatSolver) CreatedThreat(attacker Player, m Move) ThreatType {
	best := ThreatNone
	for d := Direction(0); d < 4; d++ {
		if t := s.ThreatAt(attacker, m, d); t > best {
			best = t
		}
	}
	return best
}

func countContiguous(b *Board, p Player, x, y, dx, dy int) int {
	n := 0
	nx, ny := x+dx, y+dy
	for b.InBounds(nx, ny) && b.hasBit(p, ny*BoardSize+nx) {
		n++
		nx += dx
		ny += dy
	}
	return n
}

func immediateWinningMoves(b *Board, p Player) []Move {
	var out []Move
	for y := 0; y < BoardSize; y++ {
		for x := 0; x < BoardSize; x++ {
			if b.IsOccupied(x, y) {
				continue
			}
			for _, d := range lineDirs {
				run := 1 + countContiguous(b, p, x, y, d[0], d[1]) + countContiguous(b, p, x, y, -d[0], -d[1])
				if run >= winLength {
					out = append(out, Move{X: x, Y: y})
					break
				}
			}
		}
	}
	return out
}

// HasImmediateWinningThreat reports whether p has already won or can
// complete five with a single stone.
func (s *ThreatSolver) HasImmediateWinningThreat(p Player) bool {
	b := s.state.board
	if b.CheckWin(p) {
		return true
	}
	return len(immediateWinningMoves(b, p)) > 0
}

// ForcingMoves lists quiescence candidates for p: moves that create a
// forcing threat, plus moves that land on the opponent's forcing squares.
// Strongest creations come first.
func (s *ThreatSolver) ForcingMoves(p Player) []Move {
	type scored struct {
		m Move
		t ThreatType
	}
	var picks []scored
	for _, m := range s.state.board.CandidateMoves() {
		own := s.CreatedThreat(p, m)
		opp := s.CreatedThreat(p.Other(), m)
		best := own
		if opp > best {
			best = opp
		}
		if best >= BrokenThree {
			picks = append(picks, scored{m: m, t: best})
		}
	}
	sort.SliceStable(picks, func(i, j int) bool {
		if picks[i].t != picks[j].t {
			return picks[i].t > picks[j].t
		}
		return picks[i].m.Less(picks[j].m)
	})
	out := make([]Move, len(picks))
	for i, sc := range picks {
		out[i] = sc.m
	}
	return out
}
