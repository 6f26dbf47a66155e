// Package similarity provides text similarity and clustering utilities.
package similarity

import "sort"

// Match is a contiguous block where a[A:A+Size] == b[B:B+Size].
type Match struct {
	A    int
	B    int
	Size int
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithAutoJunk enables the popular-element heuristic: when b has at least 200
// elements, any element occurring in more than 1% of b (plus one) is not used to
// seed matches. Faster on long inputs, but can under-report similarity, so it is
// off by default.
func WithAutoJunk(enabled bool) Option {
	return func(m *Matcher) {
		m.autoJunk = enabled
	}
}

// Matcher finds matching blocks between two rune sequences using the
// longest-matching-block recursion.
type Matcher struct {
	a, b     []rune
	b2j      map[rune][]int
	autoJunk bool

	// row buffers for FindLongestMatch, indexed by j+1
	prev, cur []int

	matchingBlocks []Match
}

// NewMatcher prepares a matcher over a and b.
func NewMatcher(a, b string, opts ...Option) *Matcher {
	m := &Matcher{
		a: []rune(a),
		b: []rune(b),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.indexB()
	m.prev = make([]int, len(m.b)+1)
	m.cur = make([]int, len(m.b)+1)
	return m
}

// indexB builds the element -> positions index for b.
func (m *Matcher) indexB() {
	m.b2j = make(map[rune][]int)
	for j, r := range m.b {
		m.b2j[r] = append(m.b2j[r], j)
	}

	n := len(m.b)
	if m.autoJunk && n >= 200 {
		ntest := n/100 + 1
		for r, idxs := range m.b2j {
			if len(idxs) > ntest {
				delete(m.b2j, r)
			}
		}
	}
}

// FindLongestMatch returns the longest matching block in a[alo:ahi] and b[blo:bhi].
// Ties resolve to the block starting earliest in a, then earliest in b.
// Size is 0 when nothing matches.
func (m *Matcher) FindLongestMatch(alo, ahi, blo, bhi int) Match {
	besti, bestj, bestsize := alo, blo, 0

	prev, cur := m.prev, m.cur
	var touched, curTouched []int
	for i := alo; i < ahi; i++ {
		curTouched = curTouched[:0]
		for _, j := range m.b2j[m.a[i]] {
			if j < blo {
				continue
			}
			if j >= bhi {
				break
			}
			k := prev[j] + 1
			cur[j+1] = k
			curTouched = append(curTouched, j+1)
			if k > bestsize {
				besti, bestj, bestsize = i-k+1, j-k+1, k
			}
		}
		for _, idx := range touched {
			prev[idx] = 0
		}
		prev, cur = cur, prev
		touched, curTouched = curTouched, touched
	}
	for _, idx := range touched {
		prev[idx] = 0
	}

	// Popular elements never seed a match, but they may extend one.
	for besti > alo && bestj > blo && m.a[besti-1] == m.b[bestj-1] {
		besti, bestj, bestsize = besti-1, bestj-1, bestsize+1
	}
	for besti+bestsize < ahi && bestj+bestsize < bhi && m.a[besti+bestsize] == m.b[bestj+bestsize] {
		bestsize++
	}

	return Match{A: besti, B: bestj, Size: bestsize}
}

// MatchingBlocks returns the non-overlapping matching blocks in ascending order,
// terminated by the sentinel {len(a), len(b), 0}. Adjacent blocks are collapsed.
func (m *Matcher) MatchingBlocks() []Match {
	if m.matchingBlocks != nil {
		return m.matchingBlocks
	}

	la, lb := len(m.a), len(m.b)
	type span struct{ alo, ahi, blo, bhi int }
	queue := []span{{0, la, 0, lb}}
	var blocks []Match
	for len(queue) > 0 {
		s := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		x := m.FindLongestMatch(s.alo, s.ahi, s.blo, s.bhi)
		if x.Size == 0 {
			continue
		}
		blocks = append(blocks, x)
		if s.alo < x.A && s.blo < x.B {
			queue = append(queue, span{s.alo, x.A, s.blo, x.B})
		}
		if x.A+x.Size < s.ahi && x.B+x.Size < s.bhi {
			queue = append(queue, span{x.A + x.Size, s.ahi, x.B + x.Size, s.bhi})
		}
	}
	sort.Slice(blocks, func(i, j int) bool {
		if blocks[i].A != blocks[j].A {
			return blocks[i].A < blocks[j].A
		}
		return blocks[i].B < blocks[j].B
	})

	collapsed := make([]Match, 0, len(blocks)+1)
	var cur Match
	for _, blk := range blocks {
		if cur.Size > 0 && cur.A+cur.Size == blk.A && cur.B+cur.Size == blk.B {
			cur.Size += blk.Size
			continue
		}
		if cur.Size > 0 {
			collapsed = append(collapsed, cur)
		}
		cur = blk
	}
	if cur.Size > 0 {
		collapsed = append(collapsed, cur)
	}
	collapsed = append(collapsed, Match{A: la, B: lb, Size: 0})

	m.matchingBlocks = collapsed
	return collapsed
}

// Matches returns the total number of matched elements.
func (m *Matcher) Matches() int {
	total := 0
	for _, blk := range m.MatchingBlocks() {
		total += blk.Size
	}
	return total
}

// Ratio returns 2*M/T where M is the matched element count and T the combined length.
// Two empty sequences are identical (1.0).
func (m *Matcher) Ratio() float64 {
	total := len(m.a) + len(m.b)
	if total == 0 {
		return 1.0
	}
	return 2.0 * float64(m.Matches()) / float64(total)
}
