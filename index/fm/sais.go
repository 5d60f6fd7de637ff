package fm

// Suffix array construction by induced sorting (SA-IS). This is the
// sequential algorithm: linear time, and a smaller transient footprint than
// the parallel prefix-doubling builder.
//
// The text must end with its unique smallest value.

// buildSuffixArraySequential returns the suffix array of text, whose values
// lie in [0, k).
func buildSuffixArraySequential(text []int, k int) []int {
	n := len(text)
	return sais(text, k, make([]int, n), make([]int, n))
}

func sais(s []int, k int, sa, lmsNames []int) []int {
	n := len(s)
	sa = sa[:n]
	for i := range sa {
		sa[i] = -1
	}
	if n == 0 {
		return sa
	}
	if n == 1 {
		sa[0] = 0
		return sa
	}

	// S/L type classification, right to left.
	sType := make([]bool, n)
	sType[n-1] = true
	for i := n - 2; i >= 0; i-- {
		switch {
		case s[i] < s[i+1]:
			sType[i] = true
		case s[i] > s[i+1]:
			sType[i] = false
		default:
			sType[i] = sType[i+1]
		}
	}

	var lmsPositions []int
	for i := 1; i < n; i++ {
		if sType[i] && !sType[i-1] {
			lmsPositions = append(lmsPositions, i)
		}
	}

	sa = induceSort(s, sa, sType, k, lmsPositions)

	// Name LMS substrings in their induced order.
	var sortedLMS []int
	for _, pos := range sa {
		if pos > 0 && sType[pos] && !sType[pos-1] {
			sortedLMS = append(sortedLMS, pos)
		}
	}
	lmsNames = lmsNames[:n]
	for i := range lmsNames {
		lmsNames[i] = -1
	}
	name := 0
	prev := -1
	for _, pos := range sortedLMS {
		if prev != -1 && !lmsSubstringsEqual(s, sType, prev, pos) {
			name++
		}
		lmsNames[pos] = name
		prev = pos
	}
	numNames := name + 1

	reduced := make([]int, 0, len(lmsPositions))
	for _, pos := range lmsPositions {
		reduced = append(reduced, lmsNames[pos])
	}

	var reducedSA []int
	if numNames < len(reduced) {
		reducedSA = sais(reduced, numNames, sa, lmsNames)
	} else {
		// All names unique: the reduced suffix array is a permutation.
		reducedSA = make([]int, len(reduced))
		for i, nm := range reduced {
			reducedSA[nm] = i
		}
	}

	orderedLMS := make([]int, len(reducedSA))
	for i, idx := range reducedSA {
		orderedLMS[i] = lmsPositions[idx]
	}
	for i := range sa {
		sa[i] = -1
	}
	return induceSort(s, sa, sType, k, orderedLMS)
}

func induceSort(s, sa []int, sType []bool, k int, lms []int) []int {
	sizes := bucketSizes(s, k)

	tails := bucketTails(sizes)
	for i := len(lms) - 1; i >= 0; i-- {
		c := s[lms[i]]
		sa[tails[c]] = lms[i]
		tails[c]--
	}

	heads := bucketHeads(sizes)
	for i := range sa {
		pos := sa[i]
		if pos > 0 && !sType[pos-1] {
			c := s[pos-1]
			sa[heads[c]] = pos - 1
			heads[c]++
		}
	}

	tails = bucketTails(sizes)
	for i := len(sa) - 1; i >= 0; i-- {
		pos := sa[i]
		if pos > 0 && sType[pos-1] {
			c := s[pos-1]
			sa[tails[c]] = pos - 1
			tails[c]--
		}
	}
	return sa
}

func bucketSizes(s []int, k int) []int {
	sizes := make([]int, k)
	for _, c := range s {
		sizes[c]++
	}
	return sizes
}

func bucketHeads(sizes []int) []int {
	heads := make([]int, len(sizes))
	sum := 0
	for i, v := range sizes {
		heads[i] = sum
		sum += v
	}
	return heads
}

func bucketTails(sizes []int) []int {
	tails := make([]int, len(sizes))
	sum := 0
	for i, v := range sizes {
		sum += v
		tails[i] = sum - 1
	}
	return tails
}

// lmsSubstringsEqual compares the LMS substrings starting at i and j.
// The terminating LMS character belongs to both substrings, so equality is
// only decided after at least one step.
func lmsSubstringsEqual(s []int, sType []bool, i, j int) bool {
	n := len(s)
	for step := 0; ; step++ {
		iLMS := i > 0 && sType[i] && !sType[i-1]
		jLMS := j > 0 && sType[j] && !sType[j-1]
		if step > 0 {
			if iLMS && jLMS {
				return true
			}
			if iLMS != jLMS {
				return false
			}
		}
		if s[i] != s[j] {
			return false
		}
		i++
		j++
		if i >= n || j >= n {
			return false
		}
	}
}
