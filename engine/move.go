package engine

import "fmt"

// Move is a board coordinate. The zero value is a legal cell, so code that
// needs a "no move" sentinel must use InvalidMove.
type Move struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func InvalidMove() Move {
	return Move{X: -1, Y: -1}
}

func (m Move) Valid() bool {
	return m.X >= 0 && m.X < BoardSize && m.Y >= 0 && m.Y < BoardSize
}

func (m Move) Equals(o Move) bool {
	return m.X == o.X && m.Y == o.Y
}

// Less orders moves row-major, rows first.
func (m Move) Less(o Move) bool {
	if m.Y != o.Y {
		return m.Y < o.Y
	}
	return m.X < o.X
}

func (m Move) String() string {
	if !m.Valid() {
		return "(-)"
	}
	return fmt.Sprintf("(%d,%d)", m.X, m.Y)
}

func (m Move) index() int {
	return m.Y*BoardSize + m.X
}

func moveFromIndex(idx int) Move {
	return Move{X: idx % BoardSize, Y: idx / BoardSize}
}
