package domain

import "time"

// HintState is the set of hint boxes a reader has expanded for one document.
// The zero value means everything is collapsed, which is also the initial
// state for a reader who has never toggled anything.
type HintState struct {
	expanded map[string]bool
}

// NewHintState builds a state from the IDs currently expanded.
func NewHintState(expandedIDs []string) *HintState {
	s := &HintState{expanded: make(map[string]bool, len(expandedIDs))}
	for _, id := range expandedIDs {
		s.expanded[id] = true
	}
	return s
}

// Expanded reports whether the given hint box is open. A nil state means
// collapsed.
func (s *HintState) Expanded(hintID string) bool {
	if s == nil || s.expanded == nil {
		return false
	}
	return s.expanded[hintID]
}

// Toggle flips visibility of a hint box and returns the new expanded flag.
func (s *HintState) Toggle(hintID string) bool {
	if s.expanded == nil {
		s.expanded = make(map[string]bool)
	}
	if s.expanded[hintID] {
		delete(s.expanded, hintID)
		return false
	}
	s.expanded[hintID] = true
	return true
}

// ExpandedIDs returns the currently expanded hint IDs, order unspecified.
func (s *HintState) ExpandedIDs() []string {
	if s == nil {
		return nil
	}
	ids := make([]string, 0, len(s.expanded))
	for id := range s.expanded {
		ids = append(ids, id)
	}
	return ids
}

// Reader represents an anonymous reader identified by a device cookie.
type Reader struct {
	ReaderID   string    `json:"reader_id"`
	Nickname   string    `json:"nickname"`
	LastSeenAt time.Time `json:"last_seen_at"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// SectionProgress records that a reader finished one section of a document.
type SectionProgress struct {
	DocSlug     string    `json:"doc_slug"`
	SectionID   string    `json:"section_id"`
	CompletedAt time.Time `json:"completed_at"`
}
