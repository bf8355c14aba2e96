package engine

import "testing"

func TestMakeUnmakeRoundTrip(t *testing.T) {
	b := NewBoard()
	initialHash := b.HashKey()

	moves := []Move{{5, 5}, {6, 6}, {5, 6}, {7, 7}, {5, 7}}
	for _, m := range moves {
		if !b.MakeMove(m.X, m.Y) {
			t.Fatalf("MakeMove(%v) failed", m)
		}
	}
	for i := len(moves) - 1; i >= 0; i-- {
		if !b.UnmakeMove(moves[i].X, moves[i].Y) {
			t.Fatalf("UnmakeMove(%v) failed", moves[i])
		}
	}
	if b.HashKey() != initialHash {
		t.Fatalf("hash not restored: got %x want %x", b.HashKey(), initialHash)
	}
	if b.SideToMove() != Black {
		t.Fatalf("side not restored: got %v", b.SideToMove())
	}
	if b.TotalStones() != 0 {
		t.Fatalf("stones left on board: %d", b.TotalStones())
	}
}

func TestMakeMoveRejectsOccupiedAndOutOfBounds(t *testing.T) {
	b := NewBoard()
	if !b.MakeMove(3, 3) {
		t.Fatal("legal move rejected")
	}
	if b.MakeMove(3, 3) {
		t.Fatal("occupied cell accepted")
	}
	if b.MakeMove(-1, 0) || b.MakeMove(0, BoardSize) {
		t.Fatal("out-of-bounds move accepted")
	}
	if b.SideToMove() != White {
		t.Fatalf("rejected moves must not flip the turn, side=%v", b.SideToMove())
	}
}

func TestNullMoveTogglesSideAndHash(t *testing.T) {
	b := NewBoard()
	h := b.HashKey()
	b.MakeNullMove()
	if b.SideToMove() != White {
		t.Fatal("null move did not pass the turn")
	}
	if b.HashKey() == h {
		t.Fatal("null move did not change the hash")
	}
	b.UnmakeNullMove()
	if b.SideToMove() != Black || b.HashKey() != h {
		t.Fatal("null move not reverted")
	}
}

func TestCheckWinAllDirections(t *testing.T) {
	cases := []struct {
		name string
		dx   int
		dy   int
	}{
		{"horizontal", 1, 0},
		{"vertical", 0, 1},
		{"diag-down", 1, 1},
		{"diag-up", 1, -1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := NewBoard()
			x, y := 4, 6
			for i := 0; i < 4; i++ {
				b.PlaceStone(x+i*tc.dx, y+i*tc.dy, Black)
			}
			if b.CheckWin(Black) {
				t.Fatal("four in a row reported as win")
			}
			b.PlaceStone(x+4*tc.dx, y+4*tc.dy, Black)
			if !b.CheckWin(Black) {
				t.Fatal("five in a row not detected")
			}
			if b.CheckWin(White) {
				t.Fatal("win reported for the wrong color")
			}
		})
	}
}

func TestCheckWinAtBoardEdge(t *testing.T) {
	b := NewBoard()
	for i := 0; i < 5; i++ {
		b.PlaceStone(BoardSize-1, i, White)
	}
	if !b.CheckWin(White) {
		t.Fatal("edge column win not detected")
	}
}

func TestCheckWinOverline(t *testing.T) {
	b := NewBoard()
	for i := 0; i < 6; i++ {
		b.PlaceStone(2+i, 2, Black)
	}
	if !b.CheckWin(Black) {
		t.Fatal("six in a row must count as a win")
	}
}

func TestPlaceRemoveStoneKeepsHashConsistent(t *testing.T) {
	b := NewBoard()
	h := b.HashKey()
	b.PlaceStone(4, 4, White)
	if b.HashKey() == h {
		t.Fatal("PlaceStone did not update the hash")
	}
	if b.SideToMove() != Black {
		t.Fatal("PlaceStone must not touch the side to move")
	}
	b.RemoveStone(4, 4, White)
	if b.HashKey() != h {
		t.Fatal("RemoveStone did not restore the hash")
	}
}

func TestCandidateMovesEmptyBoardCenter(t *testing.T) {
	b := NewBoard()
	moves := b.CandidateMoves()
	if len(moves) != 1 || moves[0].X != BoardSize/2 || moves[0].Y != BoardSize/2 {
		t.Fatalf("expected single center candidate, got %v", moves)
	}
}

func TestCandidateMovesRadiusAndOrder(t *testing.T) {
	b := NewBoard()
	b.PlaceStone(5, 5, Black)
	moves := b.CandidateMoves()
	for i, m := range moves {
		if m.X < 3 || m.X > 7 || m.Y < 3 || m.Y > 7 {
			t.Fatalf("candidate %v outside radius %d", m, candidateRadius)
		}
		if m.X == 5 && m.Y == 5 {
			t.Fatal("occupied cell listed as candidate")
		}
		if i > 0 && !moves[i-1].Less(m) {
			t.Fatalf("candidates out of row-major order at %d: %v then %v", i, moves[i-1], m)
		}
	}
	if len(moves) != 24 {
		t.Fatalf("expected 24 candidates around a lone stone, got %d", len(moves))
	}
}

func TestCloneIsIndependent(t *testing.T) {
	b := NewBoard()
	b.MakeMove(5, 5)
	c := b.Clone()
	c.MakeMove(6, 6)
	if b.IsOccupied(6, 6) {
		t.Fatal("clone mutation leaked into the original")
	}
	if b.HashKey() == c.HashKey() {
		t.Fatal("diverged boards share a hash")
	}
}
