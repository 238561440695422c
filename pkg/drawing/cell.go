package drawing

import (
	"cmp"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// CellKey returns the canonical "row,col" key for a grid cell.
func CellKey(row, col int) string {
	return strconv.Itoa(row) + "," + strconv.Itoa(col)
}

// ParseCellKey splits a canonical "row,col" key. It reports false for any
// other shape, including negative or non-decimal coordinates.
func ParseCellKey(key string) (row, col int, ok bool) {
	r, c, found := strings.Cut(key, ",")
	if !found {
		return 0, 0, false
	}
	row, ok = parseCoord(r)
	if !ok {
		return 0, 0, false
	}
	col, ok = parseCoord(c)
	if !ok {
		return 0, 0, false
	}
	return row, col, true
}

func parseCoord(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for _, ch := range s {
		if ch < '0' || ch > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// SortedKeys returns the grid keys in row-major order. Canonical keys come
// first, sorted by (row, col); any other keys follow in lexical order.
func SortedKeys(grid map[string]string) []string {
	keys := slices.Collect(maps.Keys(grid))
	slices.SortFunc(keys, func(a, b string) int {
		ar, ac, aok := ParseCellKey(a)
		br, bc, bok := ParseCellKey(b)
		switch {
		case aok && bok:
			if c := cmp.Compare(ar, br); c != 0 {
				return c
			}
			return cmp.Compare(ac, bc)
		case aok:
			return -1
		case bok:
			return 1
		default:
			return strings.Compare(a, b)
		}
	})
	return keys
}
