// Package render turns workshop documents into HTML pages.
package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"stepwise/internal/domain"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Renderer renders documents and hint fragments from the embedded templates.
// Rendering is read-only: the same document and state always produce the same
// output, and nothing is mutated.
type Renderer struct {
	tmpl *template.Template
}

// New parses the embedded templates. Template errors are a build-time
// mistake, so this panics rather than returning an error.
func New() *Renderer {
	return &Renderer{
		tmpl: template.Must(template.ParseFS(templateFS, "templates/*.tmpl")),
	}
}

// Page writes the full HTML page for a document. Hint boxes render collapsed
// unless the reader's state marks them expanded.
func (r *Renderer) Page(w io.Writer, doc *domain.Document, state *domain.HintState) error {
	if err := r.tmpl.ExecuteTemplate(w, "page.tmpl", newPageView(doc, state)); err != nil {
		return fmt.Errorf("render page %q: %w", doc.Slug, err)
	}
	return nil
}

// Index writes the document index page.
func (r *Renderer) Index(w io.Writer, docs []*domain.Document) error {
	if err := r.tmpl.ExecuteTemplate(w, "index.tmpl", docs); err != nil {
		return fmt.Errorf("render index: %w", err)
	}
	return nil
}

// Fragment writes a single hint box, used by the live feed to update one
// hint in place after a toggle.
func (r *Renderer) Fragment(w io.Writer, hint *domain.HintBox, expanded bool) error {
	if err := r.tmpl.ExecuteTemplate(w, "hint", newHintView(hint, expanded)); err != nil {
		return fmt.Errorf("render hint %q: %w", hint.ID, err)
	}
	return nil
}

// View models keep state lookups out of the templates.

type pageView struct {
	Slug     string
	Title    string
	Sections []sectionView
}

type sectionView struct {
	ID     string
	Title  string
	Blocks []blockView
}

type blockView struct {
	Kind     string
	Text     string
	Ordered  bool
	Items    []string
	Language string
	Source   string
	Hint     *hintView
}

type hintView struct {
	ID       string
	Title    string
	Expanded bool
	Answer   []blockView
}

func newPageView(doc *domain.Document, state *domain.HintState) pageView {
	pv := pageView{Slug: doc.Slug, Title: doc.Title}
	for _, sec := range doc.Sections {
		sv := sectionView{ID: sec.ID, Title: sec.Title}
		for _, b := range sec.Blocks {
			sv.Blocks = append(sv.Blocks, newBlockView(b, state))
		}
		pv.Sections = append(pv.Sections, sv)
	}
	return pv
}

func newBlockView(b domain.Block, state *domain.HintState) blockView {
	bv := blockView{
		Kind:     string(b.Kind),
		Text:     b.Text,
		Ordered:  b.Ordered,
		Items:    b.Items,
		Language: b.Language,
		Source:   b.Source,
	}
	if b.Kind == domain.KindHint && b.Hint != nil {
		hv := newHintView(b.Hint, state.Expanded(b.Hint.ID))
		bv.Hint = &hv
	}
	return bv
}

func newHintView(hint *domain.HintBox, expanded bool) hintView {
	hv := hintView{ID: hint.ID, Title: hint.Title, Expanded: expanded}
	for _, b := range hint.Answer {
		// Answers cannot nest hints, so state is irrelevant here.
		hv.Answer = append(hv.Answer, newBlockView(b, nil))
	}
	return hv
}
