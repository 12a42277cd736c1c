package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/dgallion1/docusum/internal/doctree"
)

func TestCache_PutGet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "cache.db")
	c, err := OpenCache(path)
	if err != nil {
		t.Fatalf("OpenCache: %v", err)
	}
	defer c.Close()

	if res, err := c.Get("missing"); err != nil || res != nil {
		t.Fatalf("expected miss, got %+v, %v", res, err)
	}

	want := &doctree.Result{
		DocumentID:  "doc-1",
		Filename:    "skripsi.pdf",
		ContentHash: "abc",
		Sections: []doctree.Section{
			{Title: "BAB I PENDAHULUAN", Summary: "Ringkasan.", State: doctree.StateSucceeded},
			{Title: "BAB II", Summary: "", State: doctree.StateSkipped},
		},
		Artifacts: doctree.Artifacts{DOCX: "doc-1.docx", PDF: "doc-1.summary.pdf"},
	}
	if err := c.Put("abc", want); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := c.Get("abc")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil || got.DocumentID != "doc-1" || len(got.Sections) != 2 || got.Sections[1].State != doctree.StateSkipped {
		t.Errorf("unexpected cached result: %+v", got)
	}
	if got.Artifacts.PDF != "doc-1.summary.pdf" {
		t.Errorf("expected artifacts preserved, got %+v", got.Artifacts)
	}

	// A reprocessed document replaces its stale entry.
	if err := c.Put("abc", &doctree.Result{DocumentID: "doc-2"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if got, _ := c.Get("abc"); got == nil || got.DocumentID != "doc-2" {
		t.Errorf("expected entry replaced, got %+v", got)
	}
}

func TestCache_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	c, err := OpenCache(path)
	if err != nil {
		t.Fatalf("OpenCache: %v", err)
	}
	c.Put("h", &doctree.Result{DocumentID: "persisted"})
	c.Close()

	c, err = OpenCache(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer c.Close()
	res, err := c.Get("h")
	if err != nil || res == nil || res.DocumentID != "persisted" {
		t.Errorf("expected persisted result, got %+v, %v", res, err)
	}
}

func TestComments_AddList(t *testing.T) {
	c, err := OpenComments(":memory:")
	if err != nil {
		t.Fatalf("OpenComments: %v", err)
	}
	defer c.Close()
	ctx := context.Background()

	list, err := c.List(ctx, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if list == nil || len(list) != 0 {
		t.Fatalf("expected empty non-nil list, got %v", list)
	}

	first, err := c.Add(ctx, "Ani", "Ringkasannya membantu.")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if first.ID == "" || first.CreatedAt.IsZero() {
		t.Errorf("expected id and timestamp set, got %+v", first)
	}
	if _, err := c.Add(ctx, "Budi", "Bab 4 terlalu singkat."); err != nil {
		t.Fatalf("Add: %v", err)
	}

	list, err = c.List(ctx, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 comments, got %d", len(list))
	}
	if list[0].Name != "Budi" || list[1].Name != "Ani" {
		t.Errorf("expected newest first, got %q then %q", list[0].Name, list[1].Name)
	}

	limited, _ := c.List(ctx, 1)
	if len(limited) != 1 {
		t.Errorf("expected limit to apply, got %d", len(limited))
	}
}

func TestComments_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db", "comments.db")
	c, err := OpenComments(path)
	if err != nil {
		t.Fatalf("OpenComments: %v", err)
	}
	if _, err := c.Add(context.Background(), "Citra", "Terima kasih."); err != nil {
		t.Fatalf("Add: %v", err)
	}
	c.Close()

	c, err = OpenComments(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer c.Close()
	list, _ := c.List(context.Background(), 0)
	if len(list) != 1 || list[0].Text != "Terima kasih." {
		t.Errorf("expected persisted comment, got %+v", list)
	}
}
