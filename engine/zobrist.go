package engine

import "sync"

// Zobrist keys for every cell/color pair plus a side-to-move key. The table
// is built lazily on first board construction and shared by all boards.
type zobristTable struct {
	stones [2][boardCells]uint64
	side   uint64
}

var (
	zobristOnce sync.Once
	zobrist     *zobristTable
)

func getZobrist() *zobristTable {
	zobristOnce.Do(func() {
		rng := splitmix64{state: 0x9e3779b97f4a7c15 ^ uint64(BoardSize)}
		t := &zobristTable{}
		for c := 0; c < 2; c++ {
			for i := 0; i < boardCells; i++ {
				t.stones[c][i] = rng.next()
			}
		}
		t.side = rng.next()
		zobrist = t
	})
	return zobrist
}

func (t *zobristTable) stone(idx int, p Player) uint64 {
	return t.stones[p][idx]
}

// splitmix64 gives a deterministic, well-mixed key stream without pulling in
// math/rand state.
type splitmix64 struct {
	state uint64
}

func (s *splitmix64) next() uint64 {
	s.state += 0x9e3779b97f4a7c15
	z := s.state
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// mixKey finalizes a hash for cache bucketing.
func mixKey(v uint64) uint64 {
	v = (v ^ (v >> 30)) * 0xbf58476d1ce4e5b9
	v = (v ^ (v >> 27)) * 0x94d049bb133111eb
	return v ^ (v >> 31)
}
