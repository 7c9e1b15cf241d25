package search

// withinEditDistance reports whether the Levenshtein distance between a and
// b is at most max. It bails out as soon as the running minimum for a row
// exceeds max, so typical calls touch only a band of the matrix.
func withinEditDistance(a, b string, max int) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	if len(b)-len(a) > max {
		return false
	}

	prev := make([]int, len(a)+1)
	curr := make([]int, len(a)+1)
	for i := range prev {
		prev[i] = i
	}

	for j := 1; j <= len(b); j++ {
		curr[0] = j
		rowMin := curr[0]
		for i := 1; i <= len(a); i++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[i] = min(prev[i]+1, curr[i-1]+1, prev[i-1]+cost)
			if curr[i] < rowMin {
				rowMin = curr[i]
			}
		}
		if rowMin > max {
			return false
		}
		prev, curr = curr, prev
	}

	return prev[len(a)] <= max
}
