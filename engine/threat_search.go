package engine

import "sort"

// maxThreatBranch caps how many forcing candidates a sequence node expands.
const maxThreatBranch = 10

type threatSearch struct {
	solver *ThreatSolver // scratch solver, owns its own board
	attack Player
	limits ThreatSearchLimits
	nodes  int
}

func (ts *threatSearch) exhausted() bool {
	if ts.nodes >= ts.limits.MaxNodes {
		return true
	}
	return ts.limits.AbortFlag != nil && ts.limits.AbortFlag.Load()
}

// FindWinningThreatSequence searches attacker-forcing lines only: every
// attacker move must create a forcing threat, and a line succeeds only when
// it wins against every defense considered at each step. A position where
// the attacker has already made five returns an empty sequence and true.
func (s *ThreatSolver) FindWinningThreatSequence(attacker Player, limits ThreatSearchLimits) (ThreatSequence, bool) {
	seq, ok, _ := s.findWinningSequence(attacker, limits)
	return seq, ok
}

// findWinningSequence additionally reports whether a failed search only
// failed because the node budget ran out or the abort flag tripped. Such a
// failure carries no information about the position.
func (s *ThreatSolver) findWinningSequence(attacker Player, limits ThreatSearchLimits) (ThreatSequence, bool, bool) {
	def := DefaultThreatSearchLimits()
	if limits.MaxNodes <= 0 {
		limits.MaxNodes = def.MaxNodes
	}
	if limits.MaxDepth <= 0 {
		limits.MaxDepth = def.MaxDepth
	}
	scratch := NewThreatSolver(s.state.board)
	if scratch.state.board.CheckWin(attacker) {
		return ThreatSequence{Attacker: attacker}, true, false
	}
	ts := &threatSearch{solver: scratch, attack: attacker, limits: limits}
	seq := ThreatSequence{Attacker: attacker}
	if ts.proveWin(&seq, limits.MaxDepth) {
		return seq, true, false
	}
	return ThreatSequence{}, false, ts.exhausted()
}

type forcingCandidate struct {
	m Move
	t ThreatType
}

func (ts *threatSearch) forcingCandidates() []forcingCandidate {
	var out []forcingCandidate
	for _, m := range ts.solver.state.board.CandidateMoves() {
		if t := ts.solver.CreatedThreat(ts.attack, m); t >= BrokenThree {
			out = append(out, forcingCandidate{m: m, t: t})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].t != out[j].t {
			return out[i].t > out[j].t
		}
		return out[i].m.Less(out[j].m)
	})
	if len(out) > maxThreatBranch {
		out = out[:maxThreatBranch]
	}
	return out
}

// instanceAt returns the strongest pattern containing the occupied cell m.
func (ts *threatSearch) instanceAt(m Move) ThreatInstance {
	best := ThreatInstance{Type: ThreatNone, Attacker: ts.attack}
	var insts []ThreatInstance
	for d := Direction(0); d < 4; d++ {
		ref := linesThrough[d][m.index()]
		if ref.line < 0 {
			continue
		}
		insts = ts.solver.state.instancesOnLine(ref.line, ts.attack, -1, insts[:0])
		for _, t := range insts {
			if t.Type <= best.Type {
				continue
			}
			for _, st := range t.Stones {
				if st.Equals(m) {
					best = t
					break
				}
			}
		}
	}
	return best
}

// defensesFor lists the replies the defender gets to try against inst:
// the pattern's own defense points plus any counter-four the defender can
// build, since a counter-four steals the tempo the sequence relies on.
func (ts *threatSearch) defensesFor(inst ThreatInstance) []Move {
	b := ts.solver.state.board
	defender := ts.attack.Other()
	seen := make(map[int]bool, 8)
	var out []Move
	add := func(m Move) {
		if m.Valid() && !b.IsOccupied(m.X, m.Y) && !seen[m.index()] {
			seen[m.index()] = true
			out = append(out, m)
		}
	}
	for _, m := range inst.DefensePoints {
		add(m)
	}
	for _, m := range b.CandidateMoves() {
		if ts.solver.CreatedThreat(defender, m) >= SimpleFour {
			add(m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

func (ts *threatSearch) proveWin(seq *ThreatSequence, depth int) bool {
	if ts.exhausted() {
		return false
	}
	ts.nodes++
	b := ts.solver.state.board
	defender := ts.attack.Other()

	if wins := immediateWinningMoves(b, ts.attack); len(wins) > 0 {
		m := wins[0]
		seq.AttackerMoves = append(seq.AttackerMoves, m)
		seq.Threats = append(seq.Threats, ThreatInstance{
			Type:           Five,
			Attacker:       ts.attack,
			FinishingMoves: []Move{m},
		})
		return true
	}
	if depth <= 0 {
		return false
	}

	// If the defender can complete five right now the attacker must land on
	// that square while still forcing; two defender wins are unstoppable.
	defWins := immediateWinningMoves(b, defender)
	if len(defWins) > 1 {
		return false
	}

	for _, c := range ts.forcingCandidates() {
		if ts.exhausted() {
			return false
		}
		if len(defWins) == 1 && !c.m.Equals(defWins[0]) {
			continue
		}
		b.PlaceStone(c.m.X, c.m.Y, ts.attack)
		if ts.proveAfter(seq, c.m, depth) {
			b.RemoveStone(c.m.X, c.m.Y, ts.attack)
			return true
		}
		b.RemoveStone(c.m.X, c.m.Y, ts.attack)
	}
	return false
}

// proveAfter assumes the attacker stone at m is already placed and checks
// the move wins against every defense. On success it prepends the move and
// one illustrative defense line to seq.
func (ts *threatSearch) proveAfter(seq *ThreatSequence, m Move, depth int) bool {
	if ts.exhausted() {
		return false
	}
	ts.nodes++
	b := ts.solver.state.board
	defender := ts.attack.Other()
	inst := ts.instanceAt(m)
	if !inst.Type.IsForcing() {
		return false
	}

	// A defender with an immediate five ignores anything short of our own
	// five (which proveWin already handled).
	if len(immediateWinningMoves(b, defender)) > 0 {
		return false
	}

	if inst.Type == OpenFour && len(inst.FinishingMoves) >= 2 {
		// Whichever end the defender covers, the other completes five.
		seq.AttackerMoves = append(seq.AttackerMoves, m, inst.FinishingMoves[1])
		seq.DefenderMoves = append(seq.DefenderMoves, inst.FinishingMoves[0])
		seq.Threats = append(seq.Threats, inst)
		return true
	}

	defenses := ts.defensesFor(inst)
	if len(defenses) == 0 {
		return false
	}
	var firstReply Move
	var firstLine ThreatSequence
	for i, d := range defenses {
		b.PlaceStone(d.X, d.Y, defender)
		var sub ThreatSequence
		ok := ts.proveWin(&sub, depth-1)
		b.RemoveStone(d.X, d.Y, defender)
		if !ok {
			return false
		}
		if i == 0 {
			firstReply = d
			firstLine = sub
		}
	}
	seq.AttackerMoves = append(append(seq.AttackerMoves, m), firstLine.AttackerMoves...)
	seq.DefenderMoves = append(append(seq.DefenderMoves, firstReply), firstLine.DefenderMoves...)
	seq.Threats = append(append(seq.Threats, inst), firstLine.Threats...)
	return true
}

// ComputeDefensiveSet checks whether the defender's opponent has a winning
// sequence and, if so, which defender moves verifiably refute it. IsLost is
// set only when every candidate conclusively fails re-verification; a
// verification that ran its budget out proves nothing, and an abort returns
// an empty set rather than a partial one.
func (s *ThreatSolver) ComputeDefensiveSet(defender Player, limits ThreatSearchLimits) DefensiveSet {
	attacker := defender.Other()
	seq, found := s.FindWinningThreatSequence(attacker, limits)
	if !found {
		return DefensiveSet{}
	}

	b := s.state.board
	seen := make(map[int]bool, 16)
	var candidates []Move
	add := func(m Move) {
		if m.Valid() && !b.IsOccupied(m.X, m.Y) && !seen[m.index()] {
			seen[m.index()] = true
			candidates = append(candidates, m)
		}
	}
	for _, m := range seq.AttackerMoves {
		add(m)
	}
	for _, t := range seq.Threats {
		for _, m := range t.DefensePoints {
			add(m)
		}
		for _, m := range t.RequiredEmpty {
			add(m)
		}
	}
	for _, m := range immediateWinningMoves(b, defender) {
		add(m)
	}
	for _, m := range b.CandidateMoves() {
		if s.CreatedThreat(defender, m) >= SimpleFour {
			add(m)
		}
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Less(candidates[j]) })

	scratch := NewThreatSolver(b)
	var good []Move
	inconclusive := false
	for _, m := range candidates {
		if limits.AbortFlag != nil && limits.AbortFlag.Load() {
			return DefensiveSet{}
		}
		sb := scratch.state.board
		sb.PlaceStone(m.X, m.Y, defender)
		refutes := sb.CheckWin(defender)
		if !refutes {
			_, still, starved := scratch.findWinningSequence(attacker, limits)
			switch {
			case still:
				// The attack survives this move.
			case starved:
				inconclusive = true
			default:
				refutes = true
			}
		}
		sb.RemoveStone(m.X, m.Y, defender)
		if refutes {
			good = append(good, m)
		}
	}
	if len(good) == 0 {
		if inconclusive {
			return DefensiveSet{}
		}
		return DefensiveSet{IsLost: true}
	}
	return DefensiveSet{DefensiveMoves: good}
}

// AnalyzeThreats runs the full tactical verdict for attacker on b: first a
// winning sequence for attacker, then, failing that, whether attacker is
// itself lost and which defenses remain.
func (s *ThreatSolver) AnalyzeThreats(b *Board, attacker Player) ThreatAnalysis {
	s.SyncFromBoard(b)
	limits := DefaultThreatSearchLimits()
	if seq, ok := s.FindWinningThreatSequence(attacker, limits); ok {
		res := ThreatAnalysis{HasForcedWin: true}
		if len(seq.AttackerMoves) > 0 {
			res.HasWinningMove = true
			res.WinningMove = seq.AttackerMoves[0]
			res.WinningLine = seq.AttackerMoves
		}
		return res
	}
	ds := s.ComputeDefensiveSet(attacker, limits)
	return ThreatAnalysis{IsLost: ds.IsLost, DefensiveMoves: ds.DefensiveMoves}
}
