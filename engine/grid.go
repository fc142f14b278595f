package engine

// Grid is a rectangular board indexed [y][x].
type Grid[T comparable] [][]T

// NewGrid builds a w×h grid filled with fill.
func NewGrid[T comparable](w, h int, fill T) Grid[T] {
	g := make(Grid[T], h)
	for y := range g {
		g[y] = make([]T, w)
		for x := range g[y] {
			g[y][x] = fill
		}
	}
	return g
}

// InBounds reports whether (x, y) is on the grid.
func (g Grid[T]) InBounds(x, y int) bool {
	return y >= 0 && y < len(g) && x >= 0 && x < len(g[y])
}

// Full reports whether no cell holds empty.
func (g Grid[T]) Full(empty T) bool {
	for _, row := range g {
		for _, c := range row {
			if c == empty {
				return false
			}
		}
	}
	return true
}

// Rect reports whether the grid is exactly w×h.
func (g Grid[T]) Rect(w, h int) bool {
	if len(g) != h {
		return false
	}
	for _, row := range g {
		if len(row) != w {
			return false
		}
	}
	return true
}

// LongestRun returns the longest contiguous run of the value at (x, y),
// measured through (x, y) across the four axes: from the placed cell it
// walks outward in both signed directions while the value matches, stopping
// at a board edge or mismatch, and counts the origin once.
func LongestRun[T comparable](g Grid[T], x, y int) int {
	v := g[y][x]
	best := 0
	dirs := [4][2]int{{1, 0}, {0, 1}, {1, 1}, {1, -1}}
	for _, d := range dirs {
		run := 1
		for step := 1; ; step++ {
			cx, cy := x+d[0]*step, y+d[1]*step
			if !g.InBounds(cx, cy) || g[cy][cx] != v {
				break
			}
			run++
		}
		for step := 1; ; step++ {
			cx, cy := x-d[0]*step, y-d[1]*step
			if !g.InBounds(cx, cy) || g[cy][cx] != v {
				break
			}
			run++
		}
		if run > best {
			best = run
		}
	}
	return best
}
