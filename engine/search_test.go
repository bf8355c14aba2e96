package engine

import "testing"

func testLimits(depth int) SearchLimits {
	return SearchLimits{
		MaxDepth:         depth,
		TimeLimitMs:      10000,
		PanicExtraTimeMs: 300,
		EnableNullMove:   true,
		EnablePanicMode:  true,
	}
}

func newTestEngine(b *Board) *SearchEngine {
	return NewSearchEngine(b, nil, nil, nil, 1<<14)
}

func TestSearchFindsForcedWin(t *testing.T) {
	b := NewBoard()
	for y := 5; y <= 8; y++ {
		b.PlaceStone(5, y, Black)
	}
	e := newTestEngine(b)

	res := e.SearchBestMove(testLimits(4))
	if !res.IsForcedWin {
		t.Fatalf("open four should be reported as forced win: %+v", res)
	}
	if !res.BestMove.Equals(Move{5, 4}) && !res.BestMove.Equals(Move{5, 9}) {
		t.Fatalf("best move %v does not complete the five", res.BestMove)
	}
	if !res.IsMate {
		t.Fatal("forced win should carry a mate score")
	}
}

func TestSearchBlocksSimpleFour(t *testing.T) {
	b := NewBoard()
	for x := 5; x <= 8; x++ {
		b.PlaceStone(x, 5, Black)
	}
	b.PlaceStone(4, 5, White)
	b.SetSideToMove(White)
	e := newTestEngine(b)

	res := e.SearchBestMove(testLimits(4))
	if !res.BestMove.Equals(Move{9, 5}) {
		t.Fatalf("white must block at (9,5), played %v", res.BestMove)
	}
}

func TestSearchDefendsOpenThree(t *testing.T) {
	b := NewBoard()
	for x := 5; x <= 7; x++ {
		b.PlaceStone(x, 5, Black)
	}
	b.SetSideToMove(White)
	e := newTestEngine(b)

	res := e.SearchBestMove(testLimits(2))
	if !res.BestMove.Equals(Move{4, 5}) && !res.BestMove.Equals(Move{8, 5}) {
		t.Fatalf("white must shoulder-block the open three, played %v", res.BestMove)
	}
}

// A full board with no five anywhere: color by ((x+2y) mod 4), which caps
// every straight run at two stones.
func fillDrawnBoard(b *Board) {
	for y := 0; y < BoardSize; y++ {
		for x := 0; x < BoardSize; x++ {
			p := White
			if (x+2*y)%4 < 2 {
				p = Black
			}
			b.PlaceStone(x, y, p)
		}
	}
}

func TestSearchFullBoardDraw(t *testing.T) {
	b := NewBoard()
	fillDrawnBoard(b)
	if b.CheckWin(Black) || b.CheckWin(White) {
		t.Fatal("draw fixture contains a five")
	}
	e := newTestEngine(b)

	res := e.SearchBestMove(testLimits(4))
	if res.BestScore != DrawScore {
		t.Fatalf("full board must score as draw, got %d", res.BestScore)
	}
	if res.BestMove.Valid() {
		t.Fatalf("no move exists on a full board, got %v", res.BestMove)
	}
}

func TestSearchZeroBudgetStillMoves(t *testing.T) {
	b := NewBoard()
	b.MakeMove(5, 5)
	b.MakeMove(6, 6)
	e := newTestEngine(b)

	res := e.SearchBestMove(SearchLimits{MaxDepth: 4})
	if !res.BestMove.Valid() {
		t.Fatal("zero budget must still produce a playable move")
	}
	if res.DepthReached < 1 {
		t.Fatalf("first depth is clock-free, reached %d", res.DepthReached)
	}
	if !b.IsOccupied(5, 5) || b.IsOccupied(res.BestMove.X, res.BestMove.Y) {
		t.Fatal("search mutated the board")
	}
}

func TestSearchPVStartsWithBestMove(t *testing.T) {
	b := NewBoard()
	b.MakeMove(5, 5)
	b.MakeMove(6, 6)
	b.MakeMove(6, 5)
	b.MakeMove(7, 7)
	e := newTestEngine(b)

	res := e.SearchBestMove(testLimits(2))
	if res.IsForcedWin {
		t.Skip("position unexpectedly forced")
	}
	if len(res.PrincipalVariation) == 0 {
		t.Fatal("no principal variation extracted")
	}
	if !res.PrincipalVariation[0].Equals(res.BestMove) {
		t.Fatalf("pv head %v != best move %v", res.PrincipalVariation[0], res.BestMove)
	}
}

func TestSearchLeavesBoardUntouched(t *testing.T) {
	b := NewBoard()
	b.MakeMove(5, 5)
	b.MakeMove(6, 6)
	before := b.HashKey()
	side := b.SideToMove()
	stones := b.TotalStones()

	e := newTestEngine(b)
	e.SearchBestMove(testLimits(3))

	if b.HashKey() != before || b.SideToMove() != side || b.TotalStones() != stones {
		t.Fatal("search must restore the board exactly")
	}
}

func TestSearchNodeBudget(t *testing.T) {
	b := NewBoard()
	b.MakeMove(5, 5)
	b.MakeMove(6, 6)
	e := newTestEngine(b)

	res := e.SearchBestMove(SearchLimits{
		MaxDepth:    10,
		MaxNodes:    2000,
		TimeLimitMs: 60000,
	})
	if !res.BestMove.Valid() {
		t.Fatal("node-limited search returned no move")
	}
	// Budget is polled every stopPollMask+1 nodes, so allow one stride.
	if res.Nodes > 2000+stopPollMask+1 {
		t.Fatalf("node budget overrun: %d", res.Nodes)
	}
}

func TestSearchReusesTranspositionTable(t *testing.T) {
	b := NewBoard()
	b.MakeMove(5, 5)
	b.MakeMove(6, 6)
	e := newTestEngine(b)

	e.SearchBestMove(testLimits(3))
	if e.TranspositionTable().Count() == 0 {
		t.Fatal("search stored nothing in the table")
	}
	second := e.SearchBestMove(testLimits(3))
	if second.HashHits == 0 {
		t.Fatal("repeat search produced no hash hits")
	}
}

func TestSearchDropsTableSeededForOtherSide(t *testing.T) {
	b := NewBoard()
	b.MakeMove(5, 5)
	b.MakeMove(6, 6)

	// The marker occupies a different slot than the root entry, so only
	// the root-side guard can remove it.
	marker := TTEntry{Key: b.HashKey() ^ 1, Value: 123, Depth: 1, Flag: TTExact, Valid: true}

	e := newTestEngine(b)
	e.SeedTable(White, []TTEntry{marker})
	e.SearchBestMove(SearchLimits{MaxDepth: 1})
	if _, ok := e.TranspositionTable().Probe(marker.Key); ok {
		t.Fatal("entries seeded for the other side survived a search")
	}
	if side, ok := e.TableSeed(); !ok || side != Black {
		t.Fatalf("table seed not retagged to the searching side: %v %v", side, ok)
	}

	e = newTestEngine(b)
	e.SeedTable(Black, []TTEntry{marker})
	e.SearchBestMove(SearchLimits{MaxDepth: 1})
	if _, ok := e.TranspositionTable().Probe(marker.Key); !ok {
		t.Fatal("entries seeded for the searching side were dropped")
	}
}

func TestSearchResultStats(t *testing.T) {
	b := NewBoard()
	b.MakeMove(5, 5)
	e := newTestEngine(b)

	res := e.SearchBestMove(testLimits(3))
	if res.Nodes == 0 {
		t.Fatal("node counter never moved")
	}
	if last := e.LastSearchResult(); last.BestMove != res.BestMove || last.Nodes != res.Nodes {
		t.Fatal("LastSearchResult does not match the returned result")
	}
}

func TestSearchDepthProgression(t *testing.T) {
	b := NewBoard()
	b.MakeMove(5, 5)
	b.MakeMove(6, 6)
	e := newTestEngine(b)

	var depths []int
	e.OnDepthComplete = func(r SearchResult) {
		depths = append(depths, r.DepthReached)
	}
	res := e.SearchBestMove(testLimits(3))
	if res.DepthReached < 2 {
		t.Fatalf("generous budget should clear depth 2, reached %d", res.DepthReached)
	}
	for i := 1; i < len(depths); i++ {
		if depths[i] != depths[i-1]+1 {
			t.Fatalf("depths must increase one at a time: %v", depths)
		}
	}
}
