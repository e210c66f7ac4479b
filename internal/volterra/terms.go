package volterra

// NumTerms returns the number of distinct order-k products over m taps,
// C(m+k-1, k), which is the length of the symmetric order-k kernel.
func NumTerms(m, k int) int {
	if k == 0 {
		return 1
	}
	n := 1
	for i := 1; i <= k; i++ {
		n = n * (m + i - 1) / i
	}
	return n
}

// terms enumerates index tuples i1 <= i2 <= ... <= ik over [0, m) in
// lexicographic order. Each tuple names one kernel coefficient.
func terms(m, k int) [][]int {
	out := make([][]int, 0, NumTerms(m, k))
	cur := make([]int, k)
	var rec func(pos, from int)
	rec = func(pos, from int) {
		if pos == k {
			tuple := make([]int, k)
			copy(tuple, cur)
			out = append(out, tuple)
			return
		}
		for i := from; i < m; i++ {
			cur[pos] = i
			rec(pos+1, i)
		}
	}
	rec(0, 0)
	return out
}
