package engine

import "math/bits"

const (
	// BoardSize is the side length of the square board.
	BoardSize  = 12
	boardCells = BoardSize * BoardSize

	// candidateRadius is the Chebyshev distance around existing stones
	// inside which empty cells are considered as candidate moves.
	candidateRadius = 2

	winLength = 5
)

// Board holds the position as one bitboard per color plus the side to move
// and an incrementally maintained Zobrist hash. The struct is cheap to copy
// but all mutation goes through methods so the hash stays consistent.
type Board struct {
	bb   [2][3]uint64
	side Player
	hash uint64
}

// NewBoard returns an empty board with Black to move.
func NewBoard() *Board {
	getZobrist()
	return &Board{}
}

func (b *Board) Clone() *Board {
	c := *b
	return &c
}

func (b *Board) SideToMove() Player {
	return b.side
}

// SetSideToMove forces the side to move, fixing up the hash. Intended for
// position setup alongside PlaceStone.
func (b *Board) SetSideToMove(p Player) {
	if b.side == p {
		return
	}
	b.side = p
	b.hash ^= getZobrist().side
}

// HashKey returns the Zobrist hash of the position, including side to move.
func (b *Board) HashKey() uint64 {
	return b.hash
}

func (b *Board) InBounds(x, y int) bool {
	return x >= 0 && x < BoardSize && y >= 0 && y < BoardSize
}

func (b *Board) hasBit(p Player, idx int) bool {
	return b.bb[p][idx>>6]&(1<<(uint(idx)&63)) != 0
}

func (b *Board) setBit(p Player, idx int) {
	b.bb[p][idx>>6] |= 1 << (uint(idx) & 63)
}

func (b *Board) clearBit(p Player, idx int) {
	b.bb[p][idx>>6] &^= 1 << (uint(idx) & 63)
}

func (b *Board) IsOccupied(x, y int) bool {
	idx := y*BoardSize + x
	return b.hasBit(Black, idx) || b.hasBit(White, idx)
}

// StoneAt reports which player occupies (x,y). ok is false for empty cells.
func (b *Board) StoneAt(x, y int) (p Player, ok bool) {
	idx := y*BoardSize + x
	if b.hasBit(Black, idx) {
		return Black, true
	}
	if b.hasBit(White, idx) {
		return White, true
	}
	return Black, false
}

func (b *Board) StoneCount(p Player) int {
	n := 0
	for i := 0; i < 3; i++ {
		n += bits.OnesCount64(b.bb[p][i])
	}
	return n
}

func (b *Board) TotalStones() int {
	return b.StoneCount(Black) + b.StoneCount(White)
}

func (b *Board) IsFull() bool {
	return b.TotalStones() == boardCells
}

// PlaceStone puts a stone of the given color without touching the side to
// move. Setup helper; the hash is still maintained so positions built this
// way remain probeable.
func (b *Board) PlaceStone(x, y int, p Player) bool {
	if !b.InBounds(x, y) || b.IsOccupied(x, y) {
		return false
	}
	idx := y*BoardSize + x
	b.setBit(p, idx)
	b.hash ^= getZobrist().stone(idx, p)
	return true
}

// RemoveStone is the setup counterpart of PlaceStone.
func (b *Board) RemoveStone(x, y int, p Player) bool {
	if !b.InBounds(x, y) {
		return false
	}
	idx := y*BoardSize + x
	if !b.hasBit(p, idx) {
		return false
	}
	b.clearBit(p, idx)
	b.hash ^= getZobrist().stone(idx, p)
	return true
}

// MakeMove plays a stone for the side to move and flips the turn.
func (b *Board) MakeMove(x, y int) bool {
	if !b.InBounds(x, y) || b.IsOccupied(x, y) {
		return false
	}
	idx := y*BoardSize + x
	z := getZobrist()
	b.setBit(b.side, idx)
	b.hash ^= z.stone(idx, b.side)
	b.hash ^= z.side
	b.side = b.side.Other()
	return true
}

// UnmakeMove reverts the most recent MakeMove at (x,y). The stone must
// belong to the player who was on move before the flip.
func (b *Board) UnmakeMove(x, y int) bool {
	if !b.InBounds(x, y) {
		return false
	}
	mover := b.side.Other()
	idx := y*BoardSize + x
	if !b.hasBit(mover, idx) {
		return false
	}
	z := getZobrist()
	b.clearBit(mover, idx)
	b.hash ^= z.stone(idx, mover)
	b.hash ^= z.side
	b.side = mover
	return true
}

// MakeNullMove passes the turn. Used by null-move pruning only.
func (b *Board) MakeNullMove() {
	b.side = b.side.Other()
	b.hash ^= getZobrist().side
}

func (b *Board) UnmakeNullMove() {
	b.side = b.side.Other()
	b.hash ^= getZobrist().side
}

// lineDirs are the four scan directions: horizontal, vertical and the two
// diagonals. Winning lines are only ever counted left-to-right / top-down,
// so each direction appears once.
var lineDirs = [4][2]int{
	{1, 0},
	{0, 1},
	{1, 1},
	{1, -1},
}

// CheckWin reports whether p has five or more in a row anywhere.
func (b *Board) CheckWin(p Player) bool {
	for y := 0; y < BoardSize; y++ {
		for x := 0; x < BoardSize; x++ {
			if !b.hasBit(p, y*BoardSize+x) {
				continue
			}
			for _, d := range lineDirs {
				px, py := x-d[0], y-d[1]
				if b.InBounds(px, py) && b.hasBit(p, py*BoardSize+px) {
					continue // not the start of the run
				}
				run := 1
				nx, ny := x+d[0], y+d[1]
				for b.InBounds(nx, ny) && b.hasBit(p, ny*BoardSize+nx) {
					run++
					nx += d[0]
					ny += d[1]
				}
				if run >= winLength {
					return true
				}
			}
		}
	}
	return false
}

// LegalMoves lists every empty cell in row-major order.
func (b *Board) LegalMoves() []Move {
	moves := make([]Move, 0, boardCells-b.TotalStones())
	for y := 0; y < BoardSize; y++ {
		for x := 0; x < BoardSize; x++ {
			if !b.IsOccupied(x, y) {
				moves = append(moves, Move{X: x, Y: y})
			}
		}
	}
	return moves
}

// CandidateMoves lists empty cells within candidateRadius of some stone, in
// row-major order. On an empty board it returns the center cell.
func (b *Board) CandidateMoves() []Move {
	if b.TotalStones() == 0 {
		c := BoardSize / 2
		return []Move{{X: c, Y: c}}
	}
	var near [boardCells]bool
	for y := 0; y < BoardSize; y++ {
		for x := 0; x < BoardSize; x++ {
			if !b.IsOccupied(x, y) {
				continue
			}
			for dy := -candidateRadius; dy <= candidateRadius; dy++ {
				for dx := -candidateRadius; dx <= candidateRadius; dx++ {
					nx, ny := x+dx, y+dy
					if b.InBounds(nx, ny) {
						near[ny*BoardSize+nx] = true
					}
				}
			}
		}
	}
	moves := make([]Move, 0, 64)
	for idx := 0; idx < boardCells; idx++ {
		if near[idx] && !b.hasBit(Black, idx) && !b.hasBit(White, idx) {
			moves = append(moves, moveFromIndex(idx))
		}
	}
	return moves
}
