package engine

// TTFlag tells how a stored value relates to the true score of the position.
type TTFlag uint8

const (
	TTExact TTFlag = iota
	TTLower        // value is a lower bound (fail-high)
	TTUpper        // value is an upper bound (fail-low)
)

// TTEntry is one transposition table slot. Scores are stored root-relative
// with mate distances rebased to the node (see ToTTScore / FromTTScore).
type TTEntry struct {
	Key      uint64
	Value    EvalScore
	Eval     EvalScore
	Depth    int
	Flag     TTFlag
	BestMove Move
	Valid    bool
}

// DefaultTTSize is the default slot count (entries, not bytes).
const DefaultTTSize = 1 << 20

// TranspositionTable is a fixed-size, power-of-two hash table indexed by the
// low bits of the Zobrist key. Probe hands back whatever lives in the slot;
// callers must compare the full key before trusting it.
type TranspositionTable struct {
	entries []TTEntry
	mask    uint64
}

func NewTranspositionTable(size uint64) *TranspositionTable {
	if size == 0 {
		size = DefaultTTSize
	}
	size = nextPowerOfTwo(size)
	return &TranspositionTable{
		entries: make([]TTEntry, size),
		mask:    size - 1,
	}
}

func nextPowerOfTwo(v uint64) uint64 {
	if v == 0 {
		return 1
	}
	v--
	v |= v >> 1
	v |= v >> 2
	v |= v >> 4
	v |= v >> 8
	v |= v >> 16
	v |= v >> 32
	return v + 1
}

func (tt *TranspositionTable) Capacity() int {
	return len(tt.entries)
}

// Count returns the number of occupied slots.
func (tt *TranspositionTable) Count() int {
	n := 0
	for i := range tt.entries {
		if tt.entries[i].Valid {
			n++
		}
	}
	return n
}

func (tt *TranspositionTable) Clear() {
	for i := range tt.entries {
		tt.entries[i] = TTEntry{}
	}
}

// Probe returns the slot for key. ok is true only when the slot is occupied
// and its full key matches.
func (tt *TranspositionTable) Probe(key uint64) (TTEntry, bool) {
	e := tt.entries[key&tt.mask]
	if !e.Valid || e.Key != key {
		return TTEntry{}, false
	}
	return e, true
}

// Store writes an entry. A different key always overwrites the slot; the
// same key is only overwritten by an equal or deeper search.
func (tt *TranspositionTable) Store(key uint64, value, eval EvalScore, depth int, flag TTFlag, best Move) {
	slot := &tt.entries[key&tt.mask]
	if slot.Valid && slot.Key == key && slot.Depth > depth {
		return
	}
	*slot = TTEntry{
		Key:      key,
		Value:    value,
		Eval:     eval,
		Depth:    depth,
		Flag:     flag,
		BestMove: best,
		Valid:    true,
	}
}

// SnapshotEntries copies out every occupied slot, for persistence.
func (tt *TranspositionTable) SnapshotEntries() []TTEntry {
	out := make([]TTEntry, 0, 1024)
	for i := range tt.entries {
		if tt.entries[i].Valid {
			out = append(out, tt.entries[i])
		}
	}
	return out
}

// LoadEntries replays a snapshot through Store, so the usual replacement
// rules apply and a snapshot from a different table size still loads.
func (tt *TranspositionTable) LoadEntries(entries []TTEntry) {
	for _, e := range entries {
		if !e.Valid {
			continue
		}
		tt.Store(e.Key, e.Value, e.Eval, e.Depth, e.Flag, e.BestMove)
	}
}

// ToTTScore rebases a root-relative score for storage at the given ply.
// Mate scores become distance-to-mate from the node, everything else is
// stored as-is.
func ToTTScore(score EvalScore, ply int) EvalScore {
	if score >= mateThreshold {
		return score + ply
	}
	if score <= -mateThreshold {
		return score - ply
	}
	return score
}

// FromTTScore is the inverse of ToTTScore at the probing node's ply.
func FromTTScore(score EvalScore, ply int) EvalScore {
	if score >= mateThreshold {
		return score - ply
	}
	if score <= -mateThreshold {
		return score + ply
	}
	return score
}
