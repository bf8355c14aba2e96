package engine

// EvalWeights are the pattern weights of the default evaluator.
type EvalWeights struct {
	Open4        EvalScore `json:"open4"`
	Closed4      EvalScore `json:"closed4"`
	Broken4      EvalScore `json:"broken4"`
	Open3        EvalScore `json:"open3"`
	Broken3      EvalScore `json:"broken3"`
	Closed3      EvalScore `json:"closed3"`
	Open2        EvalScore `json:"open2"`
	Broken2      EvalScore `json:"broken2"`
	ForkOpen3    EvalScore `json:"forkOpen3"`
	ForkFourPlus EvalScore `json:"forkFourPlus"`
}

func DefaultEvalWeights() EvalWeights {
	return EvalWeights{
		Open4:        100000, // one move from an unstoppable five
		Closed4:      15000,
		Broken4:      12000,
		Open3:        2500,
		Broken3:      1200,
		Closed3:      400,
		Open2:        200,
		Broken2:      120,
		ForkOpen3:    6000,  // double open three
		ForkFourPlus: 20000, // four plus open three
	}
}

// evalWinScore is returned for a completed five. Large enough to dominate
// every pattern sum, still far below the mate range.
const evalWinScore EvalScore = 1 << 20

type patternCounts struct {
	five    int
	open4   int
	closed4 int
	broken4 int
	open3   int
	broken3 int
	closed3 int
	open2   int
	broken2 int
}

type evalPattern struct {
	pattern string
	tally   func(*patternCounts)
}

var evalPatterns = []evalPattern{
	{"MMMMM", func(c *patternCounts) { c.five++ }},
	{".MMMM.", func(c *patternCounts) { c.open4++ }},
	{"OMMMM.", func(c *patternCounts) { c.closed4++ }},
	{".MMMMO", func(c *patternCounts) { c.closed4++ }},
	{"MM.MM", func(c *patternCounts) { c.broken4++ }},
	{"MMM.M", func(c *patternCounts) { c.broken4++ }},
	{"M.MMM", func(c *patternCounts) { c.broken4++ }},
	{".MMM.", func(c *patternCounts) { c.open3++ }},
	{".MM.M.", func(c *patternCounts) { c.broken3++ }},
	{".M.MM.", func(c *patternCounts) { c.broken3++ }},
	{"OMMM.", func(c *patternCounts) { c.closed3++ }},
	{".MMMO", func(c *patternCounts) { c.closed3++ }},
	{".MM.", func(c *patternCounts) { c.open2++ }},
	{".M.M.", func(c *patternCounts) { c.broken2++ }},
}

func countPatterns(b *Board, p Player, buf []byte) (patternCounts, []byte) {
	var c patternCounts
	for _, line := range getLineTable() {
		buf = buf[:0]
		buf = append(buf, 'O')
		for _, idx := range line.cells {
			switch {
			case b.hasBit(p, idx):
				buf = append(buf, 'M')
			case b.hasBit(p.Other(), idx):
				buf = append(buf, 'O')
			default:
				buf = append(buf, '.')
			}
		}
		buf = append(buf, 'O')
		var claimed [BoardSize]bool
		for _, ep := range evalPatterns {
			for i := 1; i+len(ep.pattern) <= len(buf); i++ {
				if !matchAt(buf, i, ep.pattern) {
					continue
				}
				fresh := false
				for j := 0; j < len(ep.pattern); j++ {
					if ep.pattern[j] == 'M' && !claimed[i-1+j] {
						fresh = true
						break
					}
				}
				if !fresh {
					continue
				}
				for j := 0; j < len(ep.pattern); j++ {
					if ep.pattern[j] == 'M' {
						claimed[i-1+j] = true
					}
				}
				ep.tally(&c)
				i += len(ep.pattern) - 2
			}
		}
	}
	return c, buf
}

func (c patternCounts) weighted(w EvalWeights) EvalScore {
	s := EvalScore(c.open4)*w.Open4 +
		EvalScore(c.closed4)*w.Closed4 +
		EvalScore(c.broken4)*w.Broken4 +
		EvalScore(c.open3)*w.Open3 +
		EvalScore(c.broken3)*w.Broken3 +
		EvalScore(c.closed3)*w.Closed3 +
		EvalScore(c.open2)*w.Open2 +
		EvalScore(c.broken2)*w.Broken2
	if c.open3 >= 2 {
		s += w.ForkOpen3
	}
	if c.open4+c.closed4+c.broken4 >= 1 && c.open3 >= 1 {
		s += w.ForkFourPlus
	}
	return s
}

type evalCacheEntry struct {
	key   uint64
	score EvalScore
	ok    bool
}

type evalCache struct {
	entries []evalCacheEntry
	mask    uint64
}

func newEvalCache(size uint64) *evalCache {
	size = nextPowerOfTwo(size)
	return &evalCache{entries: make([]evalCacheEntry, size), mask: size - 1}
}

func (ec *evalCache) get(key uint64) (EvalScore, bool) {
	e := ec.entries[key&ec.mask]
	if e.ok && e.key == key {
		return e.score, true
	}
	return 0, false
}

func (ec *evalCache) put(key uint64, score EvalScore) {
	ec.entries[key&ec.mask] = evalCacheEntry{key: key, score: score, ok: true}
}

// PatternEvaluator is the default Evaluator: a line scan against a fixed
// pattern table, cached by position hash.
type PatternEvaluator struct {
	weights EvalWeights
	cache   *evalCache
	buf     []byte
}

func NewPatternEvaluator(weights EvalWeights, cacheSize uint64) *PatternEvaluator {
	if cacheSize == 0 {
		cacheSize = 1 << 16
	}
	return &PatternEvaluator{
		weights: weights,
		cache:   newEvalCache(cacheSize),
		buf:     make([]byte, 0, BoardSize+2),
	}
}

func (ev *PatternEvaluator) Evaluate(b *Board, maxPlayer Player) EvalScore {
	key := mixKey(b.HashKey() ^ (uint64(maxPlayer) * 0x9e3779b97f4a7c15))
	if score, ok := ev.cache.get(key); ok {
		return score
	}
	var me, op patternCounts
	me, ev.buf = countPatterns(b, maxPlayer, ev.buf)
	op, ev.buf = countPatterns(b, maxPlayer.Other(), ev.buf)
	var score EvalScore
	switch {
	case me.five > 0:
		score = evalWinScore
	case op.five > 0:
		score = -evalWinScore
	default:
		score = me.weighted(ev.weights) - op.weighted(ev.weights)
	}
	ev.cache.put(key, score)
	return score
}
