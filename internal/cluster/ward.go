package cluster

import (
	"math"

	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/mat"

	"github.com/retaillab/markdown-cli/internal/model"
)

// Merge is one agglomeration step. A and B are cluster ids: leaves are
// 0..n-1, the cluster created by merge i is n+i (the scipy linkage
// convention). Size is the merged cluster's member count.
type Merge struct {
	A        int     `json:"a"`
	B        int     `json:"b"`
	Distance float64 `json:"distance"`
	Size     int     `json:"size"`
}

// Dendrogram is the full merge history for n leaves.
type Dendrogram struct {
	N      int     `json:"n"`
	Merges []Merge `json:"merges"`
}

// Ward builds an agglomerative dendrogram with Ward's minimum-variance
// linkage via the Lance-Williams update on squared Euclidean distances.
func Ward(x *mat.Dense) (*Dendrogram, error) {
	n, _ := x.Dims()
	if n < 2 {
		return nil, eris.Wrapf(model.ErrData, "cluster: need at least 2 rows, got %d", n)
	}

	// Squared pairwise distances between active clusters.
	d2 := make([][]float64, n)
	for i := range d2 {
		d2[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := sqDist(x.RawRowView(i), x.RawRowView(j))
			d2[i][j], d2[j][i] = d, d
		}
	}

	size := make([]int, n)    // member count per slot
	id := make([]int, n)      // current cluster id occupying each slot
	active := make([]bool, n) // slot still in play
	for i := 0; i < n; i++ {
		size[i] = 1
		id[i] = i
		active[i] = true
	}

	dg := &Dendrogram{N: n, Merges: make([]Merge, 0, n-1)}
	for step := 0; step < n-1; step++ {
		// Closest active pair.
		bi, bj, best := -1, -1, math.Inf(1)
		for i := 0; i < n; i++ {
			if !active[i] {
				continue
			}
			for j := i + 1; j < n; j++ {
				if active[j] && d2[i][j] < best {
					bi, bj, best = i, j, d2[i][j]
				}
			}
		}

		dg.Merges = append(dg.Merges, Merge{
			A:        id[bi],
			B:        id[bj],
			Distance: math.Sqrt(best),
			Size:     size[bi] + size[bj],
		})

		// Lance-Williams Ward update: the merged cluster lives in slot bi.
		ni, nj := float64(size[bi]), float64(size[bj])
		for k := 0; k < n; k++ {
			if !active[k] || k == bi || k == bj {
				continue
			}
			nk := float64(size[k])
			upd := ((ni+nk)*d2[bi][k] + (nj+nk)*d2[bj][k] - nk*best) / (ni + nj + nk)
			d2[bi][k], d2[k][bi] = upd, upd
		}

		size[bi] += size[bj]
		id[bi] = n + step
		active[bj] = false
	}

	return dg, nil
}

// Cut assigns each leaf to one of k clusters by replaying the first
// n-k merges. Labels are 0..k-1 in order of first appearance.
func (d *Dendrogram) Cut(k int) []int {
	if k < 1 {
		k = 1
	}
	if k > d.N {
		k = d.N
	}

	parent := make([]int, d.N+len(d.Merges))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(v int) int {
		if parent[v] != v {
			parent[v] = find(parent[v])
		}
		return parent[v]
	}

	for step := 0; step < d.N-k; step++ {
		m := d.Merges[step]
		merged := d.N + step
		parent[find(m.A)] = merged
		parent[find(m.B)] = merged
	}

	labels := make([]int, d.N)
	next := 0
	name := map[int]int{}
	for i := 0; i < d.N; i++ {
		root := find(i)
		if _, ok := name[root]; !ok {
			name[root] = next
			next++
		}
		labels[i] = name[root]
	}
	return labels
}

func sqDist(a, b []float64) float64 {
	var s float64
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return s
}
