package engine

import "testing"

func findThreat(ts []ThreatInstance, want ThreatType) (ThreatInstance, bool) {
	for _, t := range ts {
		if t.Type == want {
			return t, true
		}
	}
	return ThreatInstance{}, false
}

func containsMove(moves []Move, m Move) bool {
	for _, c := range moves {
		if c.Equals(m) {
			return true
		}
	}
	return false
}

func TestClassifyOpenFour(t *testing.T) {
	b := NewBoard()
	for x := 4; x <= 7; x++ {
		b.PlaceStone(x, 5, Black)
	}
	s := NewThreatSolver(b)

	inst, ok := findThreat(s.CollectThreats(Black), OpenFour)
	if !ok {
		t.Fatal("open four not classified")
	}
	for _, m := range []Move{{3, 5}, {8, 5}} {
		if !containsMove(inst.DefensePoints, m) {
			t.Fatalf("open four missing defense point %v", m)
		}
	}
}

func TestClassifySimpleFourBlockedEnd(t *testing.T) {
	b := NewBoard()
	for x := 4; x <= 7; x++ {
		b.PlaceStone(x, 5, Black)
	}
	b.PlaceStone(3, 5, White)
	s := NewThreatSolver(b)

	threats := s.CollectThreats(Black)
	if _, ok := findThreat(threats, OpenFour); ok {
		t.Fatal("blocked four classified as open")
	}
	inst, ok := findThreat(threats, SimpleFour)
	if !ok {
		t.Fatal("simple four not classified")
	}
	if !containsMove(inst.DefensePoints, Move{8, 5}) {
		t.Fatalf("simple four defense points wrong: %v", inst.DefensePoints)
	}
}

func TestClassifyGapFour(t *testing.T) {
	b := NewBoard()
	for _, x := range []int{4, 5, 7, 8} {
		b.PlaceStone(x, 5, Black)
	}
	s := NewThreatSolver(b)

	inst, ok := findThreat(s.CollectThreats(Black), SimpleFour)
	if !ok {
		t.Fatal("gap four not classified as simple four")
	}
	if !containsMove(inst.DefensePoints, Move{6, 5}) {
		t.Fatalf("gap square missing from defense points: %v", inst.DefensePoints)
	}
}

func TestClassifyOpenThree(t *testing.T) {
	b := NewBoard()
	for x := 5; x <= 7; x++ {
		b.PlaceStone(x, 5, Black)
	}
	s := NewThreatSolver(b)

	inst, ok := findThreat(s.CollectThreats(Black), OpenThree)
	if !ok {
		t.Fatal("open three not classified")
	}
	for _, m := range []Move{{4, 5}, {8, 5}} {
		if !containsMove(inst.DefensePoints, m) {
			t.Fatalf("open three missing defense point %v", m)
		}
	}
}

func TestClassifyOpenThreeShortenedSide(t *testing.T) {
	cases := []struct {
		name  string
		block Move
	}{
		{"blocked far right", Move{9, 5}},
		{"blocked far left", Move{3, 5}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := NewBoard()
			for x := 5; x <= 7; x++ {
				b.PlaceStone(x, 5, Black)
			}
			b.PlaceStone(tc.block.X, tc.block.Y, White)
			s := NewThreatSolver(b)

			inst, ok := findThreat(s.CollectThreats(Black), OpenThree)
			if !ok {
				t.Fatal("three with one shortened side still converts to an open four")
			}
			// Both adjacent extension squares stop the open four.
			for _, m := range []Move{{4, 5}, {8, 5}} {
				if !containsMove(inst.DefensePoints, m) {
					t.Fatalf("end block %v missing from defense points %v", m, inst.DefensePoints)
				}
			}
			for _, m := range inst.DefensePoints {
				if b.IsOccupied(m.X, m.Y) {
					t.Fatalf("defense point %v sits on a stone", m)
				}
			}
		})
	}
}

func TestClassifyBrokenThree(t *testing.T) {
	b := NewBoard()
	for _, x := range []int{4, 5, 7} {
		b.PlaceStone(x, 5, Black)
	}
	s := NewThreatSolver(b)

	inst, ok := findThreat(s.CollectThreats(Black), BrokenThree)
	if !ok {
		t.Fatal("broken three not classified")
	}
	if !containsMove(inst.FinishingMoves, Move{6, 5}) {
		t.Fatalf("gap square not a finishing move: %v", inst.FinishingMoves)
	}
}

func TestCreatedThreatCompletion(t *testing.T) {
	b := NewBoard()
	for x := 4; x <= 7; x++ {
		b.PlaceStone(x, 5, Black)
	}
	s := NewThreatSolver(b)

	if got := s.CreatedThreat(Black, Move{8, 5}); got != Five {
		t.Fatalf("completing move classified as %v, want five", got)
	}
	if got := s.CreatedThreat(Black, Move{0, 0}); got != ThreatNone {
		t.Fatalf("remote cell classified as %v", got)
	}
	if got := s.CreatedThreat(Black, Move{4, 5}); got != ThreatNone {
		t.Fatal("occupied cell must classify as none")
	}
}

func TestHasImmediateWinningThreat(t *testing.T) {
	b := NewBoard()
	for x := 4; x <= 7; x++ {
		b.PlaceStone(x, 5, Black)
	}
	s := NewThreatSolver(b)
	if !s.HasImmediateWinningThreat(Black) {
		t.Fatal("open four is an immediate winning threat")
	}
	if s.HasImmediateWinningThreat(White) {
		t.Fatal("white has no winning threat")
	}

	b.PlaceStone(3, 5, White)
	b.PlaceStone(8, 5, White)
	s = NewThreatSolver(b)
	if s.HasImmediateWinningThreat(Black) {
		t.Fatal("fully blocked four still reported as winning threat")
	}
}

func TestForcingMovesIncludeExtensions(t *testing.T) {
	b := NewBoard()
	for x := 5; x <= 7; x++ {
		b.PlaceStone(x, 5, Black)
	}
	s := NewThreatSolver(b)

	moves := s.ForcingMoves(Black)
	for _, m := range []Move{{4, 5}, {8, 5}} {
		if !containsMove(moves, m) {
			t.Fatalf("forcing moves missing extension %v: %v", m, moves)
		}
	}
	// The defender's forcing squares count too.
	if dm := s.ForcingMoves(White); !containsMove(dm, Move{4, 5}) {
		t.Fatalf("blocking square missing from white forcing moves: %v", dm)
	}
}

func TestNotifyMoveUndoKeepsSolverInSync(t *testing.T) {
	b := NewBoard()
	s := NewThreatSolver(b)

	seq := []Move{{5, 5}, {0, 0}, {5, 6}, {0, 1}, {5, 7}, {0, 2}, {5, 8}}
	for _, m := range seq {
		b.MakeMove(m.X, m.Y)
		s.NotifyMove(m)
	}
	if !s.HasImmediateWinningThreat(Black) {
		t.Fatal("solver out of sync after notifications")
	}
	for i := len(seq) - 1; i >= 0; i-- {
		b.UnmakeMove(seq[i].X, seq[i].Y)
		s.NotifyUndo(seq[i])
	}
	if s.HasImmediateWinningThreat(Black) {
		t.Fatal("solver out of sync after undo notifications")
	}
}
