// Package domain contains core domain types for the stepwise application.
package domain

import (
	"fmt"
)

// BlockKind identifies the type of a content block.
type BlockKind string

const (
	KindParagraph BlockKind = "paragraph"
	KindList      BlockKind = "list"
	KindCode      BlockKind = "code"
	KindHint      BlockKind = "hint"
)

// Block is a single content block inside a section. Exactly one of the
// kind-specific fields is populated, selected by Kind.
type Block struct {
	Kind BlockKind `json:"kind" yaml:"kind"`

	// paragraph
	Text string `json:"text,omitempty" yaml:"text,omitempty"`

	// list
	Ordered bool     `json:"ordered,omitempty" yaml:"ordered,omitempty"`
	Items   []string `json:"items,omitempty" yaml:"items,omitempty"`

	// code
	Language string `json:"language,omitempty" yaml:"language,omitempty"`
	Source   string `json:"source,omitempty" yaml:"source,omitempty"`

	// hint
	Hint *HintBox `json:"hint,omitempty" yaml:"hint,omitempty"`
}

// HintBox pairs a prompt title with an answer that stays hidden until the
// reader toggles it open.
type HintBox struct {
	ID     string  `json:"id" yaml:"id"`
	Title  string  `json:"title" yaml:"title"`
	Answer []Block `json:"answer" yaml:"answer"`
}

// Section is an ordered run of content blocks under one heading.
type Section struct {
	ID     string  `json:"id" yaml:"id"`
	Title  string  `json:"title" yaml:"title"`
	Blocks []Block `json:"blocks" yaml:"blocks"`
}

// Document is a complete workshop page.
type Document struct {
	Slug     string    `json:"slug" yaml:"slug"`
	Title    string    `json:"title" yaml:"title"`
	Sections []Section `json:"sections" yaml:"sections"`
}

// HintIDs returns the IDs of all hint boxes in document order.
func (d *Document) HintIDs() []string {
	var ids []string
	for _, sec := range d.Sections {
		for _, b := range sec.Blocks {
			if b.Kind == KindHint && b.Hint != nil {
				ids = append(ids, b.Hint.ID)
			}
		}
	}
	return ids
}

// Hint looks up a hint box by ID. Returns nil if the document has no such hint.
func (d *Document) Hint(hintID string) *HintBox {
	for _, sec := range d.Sections {
		for _, b := range sec.Blocks {
			if b.Kind == KindHint && b.Hint != nil && b.Hint.ID == hintID {
				return b.Hint
			}
		}
	}
	return nil
}

// Section looks up a section by ID. Returns nil if absent.
func (d *Document) Section(sectionID string) *Section {
	for i := range d.Sections {
		if d.Sections[i].ID == sectionID {
			return &d.Sections[i]
		}
	}
	return nil
}

// Validate checks structural well-formedness: non-empty identifiers, known
// block kinds, unique hint IDs, and no hint box nested inside another hint's
// answer. Content quality is an authoring concern, not checked here.
func (d *Document) Validate() error {
	if d.Slug == "" {
		return fmt.Errorf("document has no slug")
	}
	if d.Title == "" {
		return fmt.Errorf("document %q has no title", d.Slug)
	}
	seenSections := make(map[string]bool)
	seenHints := make(map[string]bool)
	for i, sec := range d.Sections {
		if sec.ID == "" {
			return fmt.Errorf("document %q: section %d has no id", d.Slug, i)
		}
		if seenSections[sec.ID] {
			return fmt.Errorf("document %q: duplicate section id %q", d.Slug, sec.ID)
		}
		seenSections[sec.ID] = true
		for j, b := range sec.Blocks {
			if err := validateBlock(b, seenHints, false); err != nil {
				return fmt.Errorf("document %q: section %q block %d: %w", d.Slug, sec.ID, j, err)
			}
		}
	}
	return nil
}

func validateBlock(b Block, seenHints map[string]bool, insideHint bool) error {
	switch b.Kind {
	case KindParagraph:
		if b.Text == "" {
			return fmt.Errorf("paragraph block has no text")
		}
	case KindList:
		if len(b.Items) == 0 {
			return fmt.Errorf("list block has no items")
		}
	case KindCode:
		if b.Source == "" {
			return fmt.Errorf("code block has no source")
		}
	case KindHint:
		if insideHint {
			return fmt.Errorf("hint box nested inside a hint answer")
		}
		if b.Hint == nil {
			return fmt.Errorf("hint block has no hint box")
		}
		if b.Hint.ID == "" {
			return fmt.Errorf("hint box has no id")
		}
		if b.Hint.Title == "" {
			return fmt.Errorf("hint box %q has no title", b.Hint.ID)
		}
		if seenHints[b.Hint.ID] {
			return fmt.Errorf("duplicate hint id %q", b.Hint.ID)
		}
		seenHints[b.Hint.ID] = true
		if len(b.Hint.Answer) == 0 {
			return fmt.Errorf("hint box %q has an empty answer", b.Hint.ID)
		}
		for k, ab := range b.Hint.Answer {
			if err := validateBlock(ab, seenHints, true); err != nil {
				return fmt.Errorf("hint %q answer block %d: %w", b.Hint.ID, k, err)
			}
		}
	default:
		return fmt.Errorf("unknown block kind %q", b.Kind)
	}
	return nil
}
