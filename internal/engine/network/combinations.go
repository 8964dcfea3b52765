package network

// Combinations returns every k-subset of [0, n) in lexicographic order, the
// same order Python's itertools.combinations produces.
func Combinations(n, k int) [][]int {
	if k <= 0 || k > n {
		return nil
	}
	out := make([][]int, 0)
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	for {
		out = append(out, append([]int(nil), idx...))

		i := k - 1
		for i >= 0 && idx[i] == i+n-k {
			i--
		}
		if i < 0 {
			return out
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}

// AnchorCombinations keeps only the k-subsets that contain anchor. A negative
// anchor disables filtering.
func AnchorCombinations(n, k, anchor int) [][]int {
	all := Combinations(n, k)
	if anchor < 0 {
		return all
	}
	out := make([][]int, 0, len(all))
	for _, c := range all {
		for _, i := range c {
			if i == anchor {
				out = append(out, c)
				break
			}
		}
	}
	return out
}
