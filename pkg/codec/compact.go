package codec

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/matzehuels/pixelshare/pkg/drawing"
	"github.com/matzehuels/pixelshare/pkg/errors"
)

// Delimiters of the compact form.
const (
	fieldSep = "|"
	colorSep = ","
	entrySep = ";"
	cellSep  = ":"
)

// fieldCount is the number of pipe-delimited fields in a compact form.
const fieldCount = 6

// ErrInvalidFormat is the cause of every structural decode failure.
var ErrInvalidFormat = errors.New(errors.ErrCodeInvalidFormat, "compact form must have %d fields", fieldCount)

// Marshal encodes d into its compact form:
//
//	<pattern>|<pixelSize>|<canvasWidth>|<canvasHeight>|<colors>|<grid>
//
// Empty and white grid entries are omitted. An empty palette or grid yields
// an empty field, so the result always has exactly six fields. Marshal does
// not validate d.
func Marshal(d *drawing.Document) string {
	var b strings.Builder

	b.WriteString(d.Pattern.Tag())
	b.WriteString(fieldSep)
	b.WriteString(strconv.Itoa(d.PixelSize))
	b.WriteString(fieldSep)
	b.WriteString(strconv.Itoa(d.CanvasWidth))
	b.WriteString(fieldSep)
	b.WriteString(strconv.Itoa(d.CanvasHeight))
	b.WriteString(fieldSep)
	b.WriteString(strings.Join(d.Colors, colorSep))
	b.WriteString(fieldSep)

	first := true
	for _, key := range drawing.SortedKeys(d.Grid) {
		color := d.Grid[key]
		if color == "" || drawing.IsWhite(color) {
			continue
		}
		if !first {
			b.WriteString(entrySep)
		}
		first = false
		b.WriteString(key)
		b.WriteString(cellSep)
		b.WriteString(color)
	}

	return b.String()
}

// Unmarshal decodes a compact form produced by [Marshal].
//
// The input is untrusted. Only a structural failure (fewer than six fields)
// is reported, as an error wrapping [ErrInvalidFormat]. Everything else
// degrades: unparsable or zero dimensions become defaults, unknown pattern
// tags become bricksVertical, empty palette entries and grid entries missing
// a key or color are dropped. Fields beyond the sixth are ignored.
func Unmarshal(s string) (*drawing.Document, error) {
	parts := strings.Split(s, fieldSep)
	if len(parts) < fieldCount {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, ErrInvalidFormat, "got %d fields", len(parts))
	}

	d := &drawing.Document{
		Pattern:      drawing.PatternFromTag(parts[0]),
		PixelSize:    intOr(parts[1], drawing.DefaultPixelSize),
		CanvasWidth:  intOr(parts[2], drawing.DefaultCanvasWidth),
		CanvasHeight: intOr(parts[3], drawing.DefaultCanvasHeight),
		Colors:       []string{},
		Grid:         map[string]string{},
	}

	if parts[4] != "" {
		for _, c := range strings.Split(parts[4], colorSep) {
			if c != "" {
				d.Colors = append(d.Colors, c)
			}
		}
	}

	if parts[5] != "" {
		for _, entry := range strings.Split(parts[5], entrySep) {
			key, rest, _ := strings.Cut(entry, cellSep)
			// A second ':' terminates the color.
			color, _, _ := strings.Cut(rest, cellSep)
			if key == "" || color == "" {
				continue
			}
			d.Grid[key] = color
		}
	}

	return d, nil
}

// intOr parses the leading integer of s the way browsers parse numeric
// query values: leading whitespace and a sign are allowed, trailing garbage
// is ignored, and a "0x" prefix selects hex. A failed parse, a zero result or
// an overflow yields def.
func intOr(s string, def int) int {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)

	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}

	base := 10
	if len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		base = 16
		s = s[2:]
	}

	end := 0
	for end < len(s) && isDigit(s[end], base) {
		end++
	}
	if end == 0 {
		return def
	}

	n, err := strconv.ParseInt(s[:end], base, strconv.IntSize)
	if err != nil || n == 0 {
		return def
	}
	if neg {
		n = -n
	}
	return int(n)
}

func isDigit(c byte, base int) bool {
	switch {
	case c >= '0' && c <= '9':
		return true
	case base == 16 && c >= 'a' && c <= 'f', base == 16 && c >= 'A' && c <= 'F':
		return true
	default:
		return false
	}
}
