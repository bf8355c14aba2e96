package engine

// HistoryTable is the default HistoryHeuristic: per-side, per-cell counters
// bumped on beta cutoffs and PV moves, with deeper hits weighing more.
type HistoryTable struct {
	scores [2][boardCells]int
}

func NewHistoryTable() *HistoryTable {
	return &HistoryTable{}
}

func (h *HistoryTable) HistoryScore(side Player, m Move) int {
	if !m.Valid() {
		return 0
	}
	return h.scores[side][m.index()]
}

func (h *HistoryTable) RecordBetaCutoff(side Player, m Move, depth int) {
	if !m.Valid() {
		return
	}
	h.scores[side][m.index()] += depth * depth
}

// PV moves already sort first through the table move slot, so they only get
// a small nudge here.
func (h *HistoryTable) RecordPVMove(side Player, m Move, depth int) {
	if !m.Valid() {
		return
	}
	h.scores[side][m.index()] += depth
}

func (h *HistoryTable) Clear() {
	for s := range h.scores {
		for i := range h.scores[s] {
			h.scores[s][i] = 0
		}
	}
}
