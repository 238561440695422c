package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/pixelshare/pkg/drawing"
)

func bigDrawing() *drawing.Document {
	d := drawing.New()
	d.CanvasWidth, d.CanvasHeight = 100, 60
	return d
}

func TestViewerPanning(t *testing.T) {
	var m tea.Model = NewViewerModel(bigDrawing(), "test")
	m, _ = m.Update(tea.WindowSizeMsg{Width: 41, Height: 24})

	press := func(key tea.KeyType) {
		m, _ = m.Update(tea.KeyMsg{Type: key})
	}

	press(tea.KeyUp)
	press(tea.KeyLeft)
	if v := m.(ViewerModel); v.RowOff != 0 || v.ColOff != 0 {
		t.Fatalf("offset = (%d,%d), want clamped to (0,0)", v.RowOff, v.ColOff)
	}

	press(tea.KeyDown)
	press(tea.KeyRight)
	if v := m.(ViewerModel); v.RowOff != 1 || v.ColOff != 1 {
		t.Errorf("offset = (%d,%d), want (1,1)", v.RowOff, v.ColOff)
	}

	for range 200 {
		press(tea.KeyPgDown)
		press(tea.KeyRight)
	}
	v := m.(ViewerModel)
	// 20 rows and 20 columns fit the window.
	if v.RowOff != 60-20 || v.ColOff != 100-20 {
		t.Errorf("offset = (%d,%d), want clamped to (40,80)", v.RowOff, v.ColOff)
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Error("q should quit")
	}
}

func TestViewerView(t *testing.T) {
	m := NewViewerModel(sampleDrawing(), "pixelshare")
	view := m.View()
	for _, want := range []string{"pixelshare", "bricks 4x3", "rows 1-3/3", "cols 1-4/4"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q:\n%s", want, view)
		}
	}
}

func TestRenderDrawingBrickOffset(t *testing.T) {
	lines := strings.Split(renderDrawing(sampleDrawing()), "\n")
	if len(lines) != 3 {
		t.Fatalf("rendered %d lines, want 3", len(lines))
	}
	if len(lines[1]) <= len(lines[0]) {
		t.Errorf("odd brick row should be indented: %q vs %q", lines[1], lines[0])
	}
}

func TestCellPaletteInvalidColor(t *testing.T) {
	p := newCellPalette()
	if p.style("not-a-color").GetBackground() != p.style("#ffffff").GetBackground() {
		t.Error("invalid colors should render white")
	}
}
