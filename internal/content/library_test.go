package content

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const validDoc = `
title: Configuring DI in tests
sections:
  - id: setup
    title: Setting up the test bed
    blocks:
      - kind: paragraph
        text: Register the service under test.
      - kind: code
        language: go
        source: |
          svc := NewService(repo)
      - kind: hint
        hint:
          id: hint-setup
          title: Stuck registering the stub?
          answer:
            - kind: paragraph
              text: Pass the stub where the interface is accepted.
  - id: spies
    title: Creating spies
    blocks:
      - kind: list
        ordered: true
        items:
          - wrap the dependency
          - record calls
`

func writeDoc(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
}

func TestLibrary_LoadAndGet(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "testing-di.yaml", validDoc)

	lib, err := NewLibrary(dir)
	if err != nil {
		t.Fatalf("Expected library to load, got %v", err)
	}
	if lib.Len() != 1 {
		t.Fatalf("Expected 1 document, got %d", lib.Len())
	}

	// Slug falls back to the file name when the field is omitted.
	doc := lib.Get("testing-di")
	if doc == nil {
		t.Fatal("Expected testing-di document, got nil")
	}
	if doc.Title != "Configuring DI in tests" {
		t.Errorf("Expected title from yaml, got %q", doc.Title)
	}
	if len(doc.Sections) != 2 {
		t.Errorf("Expected 2 sections, got %d", len(doc.Sections))
	}

	if got := lib.Get("missing"); got != nil {
		t.Errorf("Expected nil for unknown slug, got %+v", got)
	}
}

func TestLibrary_ListOrderedBySlug(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "zz-last.yaml", strings.Replace(validDoc, "Configuring DI in tests", "Last", 1))
	writeDoc(t, dir, "aa-first.yml", strings.Replace(validDoc, "Configuring DI in tests", "First", 1))
	writeDoc(t, dir, "notes.txt", "not yaml, ignored")

	lib, err := NewLibrary(dir)
	if err != nil {
		t.Fatalf("Expected library to load, got %v", err)
	}

	docs := lib.List()
	if len(docs) != 2 {
		t.Fatalf("Expected 2 documents, got %d", len(docs))
	}
	if docs[0].Slug != "aa-first" || docs[1].Slug != "zz-last" {
		t.Errorf("Expected slug order [aa-first zz-last], got [%s %s]", docs[0].Slug, docs[1].Slug)
	}
}

func TestLibrary_RejectsMalformedDocument(t *testing.T) {
	dir := t.TempDir()
	broken := strings.Replace(validDoc, "kind: paragraph", "kind: video", 1)
	writeDoc(t, dir, "broken.yaml", broken)

	_, err := NewLibrary(dir)
	if err == nil {
		t.Fatal("Expected load error for unknown block kind, got nil")
	}
	if !strings.Contains(err.Error(), "broken.yaml") {
		t.Errorf("Expected error to name the file, got %q", err.Error())
	}
}

func TestLibrary_RejectsDuplicateSlug(t *testing.T) {
	dir := t.TempDir()
	withSlug := "slug: same\n" + validDoc
	writeDoc(t, dir, "one.yaml", withSlug)
	writeDoc(t, dir, "two.yaml", withSlug)

	_, err := NewLibrary(dir)
	if err == nil {
		t.Fatal("Expected duplicate slug error, got nil")
	}
	if !strings.Contains(err.Error(), "duplicate slug") {
		t.Errorf("Expected duplicate slug error, got %q", err.Error())
	}
}

func TestLibrary_Reload(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "testing-di.yaml", validDoc)

	lib, err := NewLibrary(dir)
	if err != nil {
		t.Fatalf("Expected library to load, got %v", err)
	}

	writeDoc(t, dir, "second.yaml", validDoc)
	if err := lib.Reload(); err != nil {
		t.Fatalf("Expected reload to succeed, got %v", err)
	}
	if lib.Len() != 2 {
		t.Errorf("Expected 2 documents after reload, got %d", lib.Len())
	}
}
