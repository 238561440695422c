package store

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/pixelshare/pkg/drawing"
	"github.com/matzehuels/pixelshare/pkg/errors"
)

func sampleDoc() *drawing.Document {
	d := drawing.New()
	d.Pattern = drawing.PatternBricks
	d.Colors = []string{"#ff0000"}
	d.Set(1, 2, "#ff0000")
	return d
}

// fakeClock makes every call to now return a strictly later time.
func fakeClock(t *testing.T) {
	t.Helper()
	orig := now
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	n := 0
	now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
	t.Cleanup(func() { now = orig })
}

// testStore runs the behaviour every Store must share.
func testStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	owner := "owner-" + uuid.NewString()

	rec, err := s.Create(ctx, owner, sampleDoc())
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if _, err := uuid.Parse(rec.ID); err != nil {
		t.Errorf("ID %q is not a UUID: %v", rec.ID, err)
	}
	if rec.Drawing != "b|15|20|20|#ff0000|1,2:#ff0000" {
		t.Errorf("stored form = %q", rec.Drawing)
	}

	got, err := s.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	doc, err := got.Document()
	if err != nil {
		t.Fatalf("Document() error: %v", err)
	}
	if !doc.Equal(sampleDoc()) {
		t.Errorf("Document() = %+v", doc)
	}

	second, err := s.Create(ctx, owner, drawing.New())
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if _, err := s.Create(ctx, owner+"-other", drawing.New()); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	updatedDoc := sampleDoc()
	updatedDoc.Set(0, 0, "#00ff00")
	updated, err := s.Update(ctx, rec.ID, updatedDoc)
	if err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	if !updated.UpdatedAt.After(rec.UpdatedAt) {
		t.Errorf("UpdatedAt not advanced: %v -> %v", rec.UpdatedAt, updated.UpdatedAt)
	}
	if !updated.CreatedAt.Equal(rec.CreatedAt) {
		t.Errorf("CreatedAt changed: %v -> %v", rec.CreatedAt, updated.CreatedAt)
	}

	list, err := s.List(ctx, owner)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("List() returned %d records, want 2", len(list))
	}
	if list[0].ID != rec.ID || list[1].ID != second.ID {
		t.Errorf("List() order = [%s %s], want most recently updated first", list[0].ID, list[1].ID)
	}

	if err := s.Delete(ctx, rec.ID); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	for name, err := range map[string]error{
		"Get":    func() error { _, err := s.Get(ctx, rec.ID); return err }(),
		"Update": func() error { _, err := s.Update(ctx, rec.ID, sampleDoc()); return err }(),
		"Delete": s.Delete(ctx, rec.ID),
	} {
		if !stderrors.Is(err, ErrNotFound) || !errors.Is(err, errors.ErrCodeDrawingNotFound) {
			t.Errorf("%s after delete error = %v, want ErrNotFound", name, err)
		}
	}
}

func TestMemoryStore(t *testing.T) {
	fakeClock(t)
	s := NewMemoryStore()
	defer s.Close()
	testStore(t, s)
}

func TestMemoryStoreListEmpty(t *testing.T) {
	list, err := NewMemoryStore().List(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if list == nil || len(list) != 0 {
		t.Errorf("List() = %v, want empty non-nil slice", list)
	}
}

func TestCreateValidates(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	bad := sampleDoc()
	bad.Set(50, 50, "#000000")

	tests := []struct {
		name string
		doc  *drawing.Document
	}{
		{"nil", nil},
		{"cell outside canvas", bad},
		{"unknown pattern", &drawing.Document{Pattern: "hex", PixelSize: 10, CanvasWidth: 5, CanvasHeight: 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Create(ctx, "u", tt.doc); !errors.Is(err, errors.ErrCodeInvalidDrawing) {
				t.Errorf("Create() error = %v, want INVALID_DRAWING", err)
			}
		})
	}
}

func TestRecordDocumentCorrupt(t *testing.T) {
	rec := &Record{ID: "x", Drawing: "not compact"}
	if _, err := rec.Document(); !errors.Is(err, errors.ErrCodeInternal) {
		t.Errorf("Document() error = %v, want INTERNAL_ERROR", err)
	}
}
