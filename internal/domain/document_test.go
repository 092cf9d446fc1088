package domain

import (
	"strings"
	"testing"
)

func sampleDoc() *Document {
	return &Document{
		Slug:  "testing-di",
		Title: "Configuring DI in tests",
		Sections: []Section{
			{
				ID:    "setup",
				Title: "Setting up the test bed",
				Blocks: []Block{
					{Kind: KindParagraph, Text: "Register the service under test."},
					{Kind: KindCode, Language: "go", Source: "svc := NewService(repo)"},
					{Kind: KindHint, Hint: &HintBox{
						ID:    "hint-setup",
						Title: "Stuck registering the stub?",
						Answer: []Block{
							{Kind: KindParagraph, Text: "Pass the stub where the interface is accepted."},
						},
					}},
				},
			},
			{
				ID:    "spies",
				Title: "Creating spies",
				Blocks: []Block{
					{Kind: KindList, Ordered: true, Items: []string{"wrap the dependency", "record calls"}},
					{Kind: KindHint, Hint: &HintBox{
						ID:    "hint-spies",
						Title: "Show the answer",
						Answer: []Block{
							{Kind: KindCode, Language: "go", Source: "spy := &RepoSpy{inner: repo}"},
						},
					}},
				},
			},
		},
	}
}

func TestDocument_Validate(t *testing.T) {
	doc := sampleDoc()
	if err := doc.Validate(); err != nil {
		t.Fatalf("Expected valid document, got %v", err)
	}
}

func TestDocument_ValidateRejectsBadInput(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Document)
		wantErr string
	}{
		{
			name:    "missing slug",
			mutate:  func(d *Document) { d.Slug = "" },
			wantErr: "no slug",
		},
		{
			name:    "unknown block kind",
			mutate:  func(d *Document) { d.Sections[0].Blocks[0].Kind = "video" },
			wantErr: "unknown block kind",
		},
		{
			name: "duplicate hint id",
			mutate: func(d *Document) {
				d.Sections[1].Blocks[1].Hint.ID = "hint-setup"
			},
			wantErr: "duplicate hint id",
		},
		{
			name: "nested hint",
			mutate: func(d *Document) {
				d.Sections[0].Blocks[2].Hint.Answer = append(d.Sections[0].Blocks[2].Hint.Answer,
					Block{Kind: KindHint, Hint: &HintBox{
						ID: "inner", Title: "nope",
						Answer: []Block{{Kind: KindParagraph, Text: "x"}},
					}})
			},
			wantErr: "nested inside a hint answer",
		},
		{
			name: "hint without title",
			mutate: func(d *Document) {
				d.Sections[0].Blocks[2].Hint.Title = ""
			},
			wantErr: "no title",
		},
		{
			name: "empty hint answer",
			mutate: func(d *Document) {
				d.Sections[0].Blocks[2].Hint.Answer = nil
			},
			wantErr: "empty answer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := sampleDoc()
			tt.mutate(doc)
			err := doc.Validate()
			if err == nil {
				t.Fatal("Expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %q", tt.wantErr, err.Error())
			}
		})
	}
}

func TestDocument_HintIDsInDocumentOrder(t *testing.T) {
	doc := sampleDoc()
	ids := doc.HintIDs()
	want := []string{"hint-setup", "hint-spies"}
	if len(ids) != len(want) {
		t.Fatalf("Expected %d hint ids, got %d", len(want), len(ids))
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("Hint id %d: expected %q, got %q", i, want[i], ids[i])
		}
	}
}

func TestDocument_Lookups(t *testing.T) {
	doc := sampleDoc()

	if h := doc.Hint("hint-spies"); h == nil || h.Title != "Show the answer" {
		t.Errorf("Expected hint-spies lookup to succeed, got %+v", h)
	}
	if h := doc.Hint("missing"); h != nil {
		t.Errorf("Expected nil for unknown hint, got %+v", h)
	}
	if s := doc.Section("setup"); s == nil || s.Title != "Setting up the test bed" {
		t.Errorf("Expected setup section lookup to succeed, got %+v", s)
	}
	if s := doc.Section("missing"); s != nil {
		t.Errorf("Expected nil for unknown section, got %+v", s)
	}
}
