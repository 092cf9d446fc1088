package render

import (
	"bytes"
	"strings"
	"testing"

	"stepwise/internal/domain"
)

func testDoc() *domain.Document {
	return &domain.Document{
		Slug:  "testing-di",
		Title: "Configuring DI in tests",
		Sections: []domain.Section{
			{
				ID:    "setup",
				Title: "Setting up the test bed",
				Blocks: []domain.Block{
					{Kind: domain.KindParagraph, Text: "Register the service under test."},
					{Kind: domain.KindCode, Language: "go", Source: "if a < b { swap(&a, &b) }"},
					{Kind: domain.KindHint, Hint: &domain.HintBox{
						ID:    "hint-setup",
						Title: "Stuck registering the stub?",
						Answer: []domain.Block{
							{Kind: domain.KindParagraph, Text: "Pass the stub where the interface is accepted."},
						},
					}},
					{Kind: domain.KindList, Items: []string{"alpha", "beta"}},
				},
			},
			{
				ID:    "spies",
				Title: "Creating spies",
				Blocks: []domain.Block{
					{Kind: domain.KindHint, Hint: &domain.HintBox{
						ID:    "hint-spies",
						Title: "Show the answer",
						Answer: []domain.Block{
							{Kind: domain.KindCode, Language: "go", Source: "spy := &RepoSpy{}"},
						},
					}},
				},
			},
		},
	}
}

func renderPage(t *testing.T, state *domain.HintState) string {
	t.Helper()
	var buf bytes.Buffer
	if err := New().Page(&buf, testDoc(), state); err != nil {
		t.Fatalf("Expected render to succeed, got %v", err)
	}
	return buf.String()
}

func TestPage_HintsCollapsedByDefault(t *testing.T) {
	html := renderPage(t, nil)

	if !strings.Contains(html, `data-hint-id="hint-setup"`) {
		t.Fatal("Expected hint-setup to be rendered")
	}
	if strings.Contains(html, " open") {
		t.Error("Expected no hint to carry the open attribute with empty state")
	}
}

func TestPage_ExpandedStateOpensHint(t *testing.T) {
	state := domain.NewHintState([]string{"hint-spies"})
	html := renderPage(t, state)

	if !strings.Contains(html, `data-hint-id="hint-spies" open`) {
		t.Error("Expected hint-spies to render open")
	}
	if strings.Contains(html, `data-hint-id="hint-setup" open`) {
		t.Error("Expected hint-setup to stay collapsed")
	}
}

func TestPage_PreservesDocumentOrder(t *testing.T) {
	html := renderPage(t, nil)

	markers := []string{
		"Setting up the test bed",
		"Register the service under test.",
		"swap(",
		"Stuck registering the stub?",
		"<li>alpha</li>",
		"Creating spies",
		"Show the answer",
	}
	pos := -1
	for _, m := range markers {
		idx := strings.Index(html, m)
		if idx < 0 {
			t.Fatalf("Expected output to contain %q", m)
		}
		if idx < pos {
			t.Errorf("Marker %q appeared out of document order", m)
		}
		pos = idx
	}
}

func TestPage_RenderIsIdempotent(t *testing.T) {
	state := domain.NewHintState([]string{"hint-setup"})
	first := renderPage(t, state)
	second := renderPage(t, state)
	if first != second {
		t.Error("Expected identical output for identical input")
	}
}

func TestPage_EscapesCode(t *testing.T) {
	html := renderPage(t, nil)

	if !strings.Contains(html, "if a &lt; b") {
		t.Error("Expected code sample to be HTML-escaped")
	}
	if strings.Contains(html, "if a < b") {
		t.Error("Expected raw code not to appear unescaped")
	}
}

func TestIndex(t *testing.T) {
	var buf bytes.Buffer
	docs := []*domain.Document{testDoc()}
	if err := New().Index(&buf, docs); err != nil {
		t.Fatalf("Expected index render to succeed, got %v", err)
	}

	html := buf.String()
	if !strings.Contains(html, `href="/docs/testing-di"`) {
		t.Error("Expected index to link to the document")
	}
	if !strings.Contains(html, "Configuring DI in tests") {
		t.Error("Expected index to show the document title")
	}
}

func TestFragment(t *testing.T) {
	hint := &domain.HintBox{
		ID:    "hint-setup",
		Title: "Stuck registering the stub?",
		Answer: []domain.Block{
			{Kind: domain.KindParagraph, Text: "Pass the stub."},
		},
	}

	var collapsed, expanded bytes.Buffer
	r := New()
	if err := r.Fragment(&collapsed, hint, false); err != nil {
		t.Fatalf("Expected fragment render to succeed, got %v", err)
	}
	if err := r.Fragment(&expanded, hint, true); err != nil {
		t.Fatalf("Expected fragment render to succeed, got %v", err)
	}

	if strings.Contains(collapsed.String(), " open") {
		t.Error("Expected collapsed fragment without open attribute")
	}
	if !strings.Contains(expanded.String(), " open") {
		t.Error("Expected expanded fragment with open attribute")
	}
	if !strings.Contains(expanded.String(), "Pass the stub.") {
		t.Error("Expected answer content in fragment")
	}
}
