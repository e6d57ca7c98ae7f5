package optimize

// projectMonotoneBand returns the Euclidean projection of x onto the
// feasible polytope {lb <= d[0] <= d[1] <= ... <= d[n-1] <= ub}: isotonic
// regression by pool-adjacent-violators, then a clamp to the box. The
// clamp of the unconstrained isotonic solution is the exact projection
// because clamping a non-decreasing vector keeps it non-decreasing.
func projectMonotoneBand(x []float64, lb, ub float64) []float64 {
	n := len(x)
	out := make([]float64, n)
	if n == 0 {
		return out
	}

	// Blocks of pooled values: value, weight.
	vals := make([]float64, 0, n)
	wts := make([]float64, 0, n)
	for _, v := range x {
		vals = append(vals, v)
		wts = append(wts, 1)
		for len(vals) >= 2 && vals[len(vals)-1] < vals[len(vals)-2] {
			v2, w2 := vals[len(vals)-1], wts[len(wts)-1]
			v1, w1 := vals[len(vals)-2], wts[len(wts)-2]
			vals = vals[:len(vals)-1]
			wts = wts[:len(wts)-1]
			vals[len(vals)-1] = (v1*w1 + v2*w2) / (w1 + w2)
			wts[len(wts)-1] = w1 + w2
		}
	}

	i := 0
	for b, v := range vals {
		if v < lb {
			v = lb
		}
		if v > ub {
			v = ub
		}
		for k := 0; k < int(wts[b]); k++ {
			out[i] = v
			i++
		}
	}
	return out
}

// feasible reports whether d satisfies the bounds and the non-decreasing
// constraint within tol.
func feasible(d []float64, lb, ub, tol float64) bool {
	for i, v := range d {
		if v < lb-tol || v > ub+tol {
			return false
		}
		if i > 0 && v < d[i-1]-tol {
			return false
		}
	}
	return true
}
