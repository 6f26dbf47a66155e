// Package similarity provides text similarity and clustering utilities.
package similarity

import (
	"context"
	"sort"

	"github.com/thebtf/simgroup/pkg/models"
)

// ClusterRepresentative groups artifacts around representatives in a single pass.
//
// Artifacts are processed in input order. Each one is compared with the
// representative of every existing group, in group creation order, and joins the
// first group scoring at least threshold. Otherwise it opens a new group and
// becomes its representative. Assignments are never revisited, so the result
// depends on input order.
//
// A threshold <= 0 puts everything in the first artifact's group; a threshold > 1
// leaves every artifact alone. Groups are returned in creation order, singletons
// included, together with the number of comparisons made. The context is checked
// between artifacts.
func ClusterRepresentative(ctx context.Context, artifacts []models.Artifact, threshold float64, score ScoreFunc) ([]*models.Group, int, error) {
	groups := make([]*models.Group, 0)
	comparisons := 0

	for _, art := range artifacts {
		if err := ctx.Err(); err != nil {
			return nil, comparisons, err
		}

		var target *models.Group
		var targetScore float64
		for _, g := range groups {
			s := score(art.Content, g.Representative.Content)
			comparisons++
			if s >= threshold {
				target, targetScore = g, s
				break
			}
		}

		if target == nil {
			groups = append(groups, models.NewGroup(art))
			continue
		}
		target.Add(art, targetScore)
	}

	return groups, comparisons, nil
}

// Triangle stores one score per unordered pair of n items.
// Distinct pairs occupy distinct slots, so concurrent writers on different
// pairs need no locking.
type Triangle struct {
	n      int
	scores []float64
}

// NewTriangle allocates storage for n*(n-1)/2 scores.
func NewTriangle(n int) *Triangle {
	size := 0
	if n > 1 {
		size = n * (n - 1) / 2
	}
	return &Triangle{n: n, scores: make([]float64, size)}
}

// Len returns the number of pair slots.
func (t *Triangle) Len() int {
	return len(t.scores)
}

func (t *Triangle) index(i, j int) int {
	if i > j {
		i, j = j, i
	}
	return i*t.n - i*(i+1)/2 + (j - i - 1)
}

// Set records the score of the pair (i, j), i != j.
func (t *Triangle) Set(i, j int, score float64) {
	t.scores[t.index(i, j)] = score
}

// Get returns the score of the pair (i, j), i != j.
func (t *Triangle) Get(i, j int) float64 {
	return t.scores[t.index(i, j)]
}

// UnionFind is a disjoint-set forest over 0..n-1 with path halving and union by rank.
type UnionFind struct {
	parent []int
	rank   []int
}

// NewUnionFind creates n singleton sets.
func NewUnionFind(n int) *UnionFind {
	uf := &UnionFind{parent: make([]int, n), rank: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

// Find returns the root of x's set.
func (uf *UnionFind) Find(x int) int {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

// Union merges the sets of x and y. Returns false if they were already joined.
func (uf *UnionFind) Union(x, y int) bool {
	rx, ry := uf.Find(x), uf.Find(y)
	if rx == ry {
		return false
	}
	switch {
	case uf.rank[rx] < uf.rank[ry]:
		uf.parent[rx] = ry
	case uf.rank[rx] > uf.rank[ry]:
		uf.parent[ry] = rx
	default:
		uf.parent[ry] = rx
		uf.rank[rx]++
	}
	return true
}

type indexedPair struct {
	i, j  int
	score float64
}

func sortPairs(pairs []indexedPair) {
	sort.SliceStable(pairs, func(x, y int) bool {
		if pairs[x].score != pairs[y].score {
			return pairs[x].score > pairs[y].score
		}
		if pairs[x].i != pairs[y].i {
			return pairs[x].i < pairs[y].i
		}
		return pairs[x].j < pairs[y].j
	})
}

func toPairs(artifacts []models.Artifact, pairs []indexedPair) []models.Pair {
	out := make([]models.Pair, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, models.Pair{A: artifacts[p.i].ID, B: artifacts[p.j].ID, Score: p.score})
	}
	return out
}

// ClusterPairs merges every pair scoring at least threshold transitively.
//
// scores must hold the score of every pair of artifacts. The representative of
// each group is its earliest artifact; member scores are against that
// representative and may fall below threshold when membership came through a
// third artifact. Each group keeps the pairs that merged it. Groups are sorted by
// descending top score, then by representative position; the returned flat pair
// list is sorted by descending score, then by position.
func ClusterPairs(artifacts []models.Artifact, scores *Triangle, threshold float64) ([]*models.Group, []models.Pair) {
	n := len(artifacts)
	uf := NewUnionFind(n)

	var kept []indexedPair
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			s := scores.Get(i, j)
			if s >= threshold {
				kept = append(kept, indexedPair{i: i, j: j, score: s})
				uf.Union(i, j)
			}
		}
	}

	components := make(map[int][]int)
	var roots []int
	for i := 0; i < n; i++ {
		root := uf.Find(i)
		if _, ok := components[root]; !ok {
			roots = append(roots, root)
		}
		components[root] = append(components[root], i)
	}

	pairsByRoot := make(map[int][]indexedPair)
	for _, p := range kept {
		root := uf.Find(p.i)
		pairsByRoot[root] = append(pairsByRoot[root], p)
	}

	type ranked struct {
		group *models.Group
		rep   int
	}
	out := make([]ranked, 0, len(roots))
	for _, root := range roots {
		idxs := components[root]
		rep := idxs[0]
		g := models.NewGroup(artifacts[rep])
		for _, m := range idxs[1:] {
			g.Add(artifacts[m], scores.Get(rep, m))
		}
		if ps := pairsByRoot[root]; len(ps) > 0 {
			sortPairs(ps)
			g.Pairs = toPairs(artifacts, ps)
		}
		out = append(out, ranked{group: g, rep: rep})
	}

	sort.SliceStable(out, func(x, y int) bool {
		tx, ty := out[x].group.TopScore(), out[y].group.TopScore()
		if tx != ty {
			return tx > ty
		}
		return out[x].rep < out[y].rep
	})

	groups := make([]*models.Group, 0, len(out))
	for _, r := range out {
		groups = append(groups, r.group)
	}

	sortPairs(kept)
	return groups, toPairs(artifacts, kept)
}
