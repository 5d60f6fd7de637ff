package fm

import (
	"context"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
)

// Parallel suffix array construction by prefix doubling. Each round sorts
// suffixes by their (rank, rank+k) pair and re-ranks; the sort and the
// group-boundary detection fan out across workers, the rank prefix pass is
// a cheap sequential scan. Rounds are O(log n); this trades more transient
// memory and comparisons for wall-clock speed on large inputs.

func buildSuffixArrayParallel(ctx context.Context, text []int, workers int) ([]int, error) {
	n := len(text)
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	sa := make([]int, n)
	rank := make([]int, n)
	newRank := make([]int, n)
	flags := make([]int, n)
	for i := range sa {
		sa[i] = i
		rank[i] = text[i]
	}
	if n <= 1 {
		return sa, nil
	}

	for k := 1; ; k <<= 1 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		pair := func(i int) (int, int) {
			second := -1
			if i+k < n {
				second = rank[i+k]
			}
			return rank[i], second
		}
		less := func(a, b int) bool {
			a1, a2 := pair(a)
			b1, b2 := pair(b)
			if a1 != b1 {
				return a1 < b1
			}
			return a2 < b2
		}

		if err := parallelSortInts(ctx, sa, less, workers); err != nil {
			return nil, err
		}

		// Mark group starts in parallel, then assign ranks sequentially.
		if err := parallelRange(ctx, 1, n, workers, func(lo, hi int) {
			for i := lo; i < hi; i++ {
				a1, a2 := pair(sa[i-1])
				b1, b2 := pair(sa[i])
				if a1 != b1 || a2 != b2 {
					flags[i] = 1
				} else {
					flags[i] = 0
				}
			}
		}); err != nil {
			return nil, err
		}

		r := 0
		newRank[sa[0]] = 0
		for i := 1; i < n; i++ {
			r += flags[i]
			newRank[sa[i]] = r
		}
		rank, newRank = newRank, rank

		if r == n-1 {
			break
		}
	}

	return sa, nil
}

// parallelRange splits [lo, hi) into worker chunks and runs fn on each.
func parallelRange(ctx context.Context, lo, hi, workers int, fn func(lo, hi int)) error {
	n := hi - lo
	if n <= 0 {
		return nil
	}
	chunk := (n + workers - 1) / workers
	g, ctx := errgroup.WithContext(ctx)
	for start := lo; start < hi; start += chunk {
		end := start + chunk
		if end > hi {
			end = hi
		}
		start, end := start, end
		g.Go(func() error {
			fn(start, end)
			return ctx.Err()
		})
	}
	return g.Wait()
}

// parallelSortInts sorts v with less using chunked sorts and pairwise merges.
func parallelSortInts(ctx context.Context, v []int, less func(a, b int) bool, workers int) error {
	n := len(v)
	if workers < 2 || n < 1<<14 {
		sort.Slice(v, func(i, j int) bool { return less(v[i], v[j]) })
		return nil
	}

	chunk := (n + workers - 1) / workers
	g, gctx := errgroup.WithContext(ctx)
	for lo := 0; lo < n; lo += chunk {
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		part := v[lo:hi]
		g.Go(func() error {
			sort.Slice(part, func(i, j int) bool { return less(part[i], part[j]) })
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	buf := make([]int, n)
	src, dst := v, buf
	for width := chunk; width < n; width *= 2 {
		mg, mctx := errgroup.WithContext(ctx)
		for lo := 0; lo < n; lo += 2 * width {
			mid := lo + width
			hi := lo + 2*width
			if mid > n {
				mid = n
			}
			if hi > n {
				hi = n
			}
			lo, mid, hi := lo, mid, hi
			mg.Go(func() error {
				mergeInts(dst[lo:hi], src[lo:mid], src[mid:hi], less)
				return mctx.Err()
			})
		}
		if err := mg.Wait(); err != nil {
			return err
		}
		src, dst = dst, src
	}

	if &src[0] != &v[0] {
		copy(v, src)
	}
	return nil
}

func mergeInts(dst, a, b []int, less func(x, y int) bool) {
	i, j := 0, 0
	for k := range dst {
		switch {
		case i >= len(a):
			dst[k] = b[j]
			j++
		case j >= len(b):
			dst[k] = a[i]
			i++
		case less(b[j], a[i]):
			dst[k] = b[j]
			j++
		default:
			dst[k] = a[i]
			i++
		}
	}
}
