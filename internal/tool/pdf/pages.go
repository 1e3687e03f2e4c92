package pdf

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ParsePageRange turns "all", "3", "1-5" or "1,3,5-7" into sorted, unique,
// 1-based page numbers within [1, total].
func ParsePageRange(expr string, total int) ([]int, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" || strings.EqualFold(expr, "all") {
		pages := make([]int, total)
		for i := range pages {
			pages[i] = i + 1
		}
		return pages, nil
	}

	seen := make(map[int]bool)
	for _, part := range strings.Split(expr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		start, end := part, part
		if a, b, ok := strings.Cut(part, "-"); ok {
			start, end = a, b
		}
		lo, err := strconv.Atoi(strings.TrimSpace(start))
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrBadPageRange, part)
		}
		hi, err := strconv.Atoi(strings.TrimSpace(end))
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrBadPageRange, part)
		}
		if lo < 1 || hi < lo {
			return nil, fmt.Errorf("%w: %q", ErrBadPageRange, part)
		}
		for p := lo; p <= min(hi, total); p++ {
			seen[p] = true
		}
	}

	pages := make([]int, 0, len(seen))
	for p := range seen {
		pages = append(pages, p)
	}
	sort.Ints(pages)
	return pages, nil
}
