package engine

import "testing"

func TestTTProbeMissOnEmptyTable(t *testing.T) {
	tt := NewTranspositionTable(1024)
	if _, ok := tt.Probe(0xdeadbeef); ok {
		t.Fatal("probe hit on an empty table")
	}
}

func TestTTStoreProbe(t *testing.T) {
	tt := NewTranspositionTable(1024)
	move := Move{X: 3, Y: 4}
	tt.Store(0x1234, 500, 120, 6, TTLower, move)

	e, ok := tt.Probe(0x1234)
	if !ok {
		t.Fatal("stored entry not found")
	}
	if e.Value != 500 || e.Eval != 120 || e.Depth != 6 || e.Flag != TTLower || !e.BestMove.Equals(move) {
		t.Fatalf("entry fields corrupted: %+v", e)
	}
}

func TestTTCollisionOverwrites(t *testing.T) {
	tt := NewTranspositionTable(16)
	cap64 := uint64(tt.Capacity())
	// Same slot, different full keys.
	tt.Store(5, 100, 0, 10, TTExact, Move{1, 1})
	tt.Store(5+cap64, 200, 0, 2, TTExact, Move{2, 2})

	if _, ok := tt.Probe(5); ok {
		t.Fatal("colliding key should have evicted the old entry")
	}
	e, ok := tt.Probe(5 + cap64)
	if !ok || e.Value != 200 {
		t.Fatal("colliding store did not take the slot")
	}
}

func TestTTSameKeyDepthPreferred(t *testing.T) {
	tt := NewTranspositionTable(16)
	tt.Store(9, 100, 0, 8, TTExact, Move{1, 1})
	tt.Store(9, 200, 0, 3, TTExact, Move{2, 2})
	if e, _ := tt.Probe(9); e.Value != 100 {
		t.Fatal("shallower search overwrote a deeper entry")
	}
	tt.Store(9, 300, 0, 8, TTExact, Move{3, 3})
	if e, _ := tt.Probe(9); e.Value != 300 {
		t.Fatal("equal-depth store must overwrite")
	}
}

func TestTTScoreRoundTrip(t *testing.T) {
	scores := []EvalScore{0, 1234, -1234, MateScore - 3, -(MateScore - 3), MateScore - 40}
	for _, s := range scores {
		for _, ply := range []int{0, 1, 7, 30} {
			if got := FromTTScore(ToTTScore(s, ply), ply); got != s {
				t.Fatalf("round trip broke: score=%d ply=%d got=%d", s, ply, got)
			}
		}
	}
}

func TestTTMateScoreRebasing(t *testing.T) {
	// A mate found 5 plies below a node at ply 2 must look one ply more
	// distant when probed from ply 1.
	atPly2 := MateScore - 7
	stored := ToTTScore(atPly2, 2)
	if got := FromTTScore(stored, 1); got != MateScore-6 {
		t.Fatalf("rebased mate score wrong: got %d want %d", got, MateScore-6)
	}
}

func TestTTClearAndCount(t *testing.T) {
	tt := NewTranspositionTable(64)
	tt.Store(1, 10, 0, 1, TTExact, InvalidMove())
	tt.Store(2, 20, 0, 1, TTExact, InvalidMove())
	if tt.Count() != 2 {
		t.Fatalf("count=%d want 2", tt.Count())
	}
	tt.Clear()
	if tt.Count() != 0 {
		t.Fatal("clear left entries behind")
	}
}

func TestTTSnapshotLoad(t *testing.T) {
	src := NewTranspositionTable(64)
	src.Store(11, 100, 5, 4, TTExact, Move{1, 2})
	src.Store(22, -50, 0, 2, TTUpper, Move{3, 4})

	snap := src.SnapshotEntries()
	if len(snap) != 2 {
		t.Fatalf("snapshot size %d want 2", len(snap))
	}

	dst := NewTranspositionTable(32)
	dst.LoadEntries(snap)
	for _, key := range []uint64{11, 22} {
		if _, ok := dst.Probe(key); !ok {
			t.Fatalf("entry %d lost across snapshot/load", key)
		}
	}
}

func TestNextPowerOfTwo(t *testing.T) {
	cases := map[uint64]uint64{1: 1, 2: 2, 3: 4, 1000: 1024, 1024: 1024}
	for in, want := range cases {
		if got := nextPowerOfTwo(in); got != want {
			t.Fatalf("nextPowerOfTwo(%d)=%d want %d", in, got, want)
		}
	}
}
