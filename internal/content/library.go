// Package content loads and serves the workshop document library.
package content

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"stepwise/internal/domain"
)

// Library holds the loaded workshop documents, keyed by slug.
// Reload swaps the whole set atomically; readers never observe a half-loaded
// library.
type Library struct {
	dir string

	mu   sync.RWMutex
	docs map[string]*domain.Document
}

// NewLibrary loads every *.yaml document under dir. A single malformed file
// fails the load so broken content never reaches readers.
func NewLibrary(dir string) (*Library, error) {
	lib := &Library{dir: dir}
	if err := lib.Reload(); err != nil {
		return nil, err
	}
	return lib, nil
}

// Reload re-reads the content directory and replaces the document set.
func (l *Library) Reload() error {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return fmt.Errorf("read content dir: %w", err)
	}

	docs := make(map[string]*domain.Document)
	for _, entry := range entries {
		if entry.IsDir() || !isYAML(entry.Name()) {
			continue
		}
		path := filepath.Join(l.dir, entry.Name())
		doc, err := loadDocument(path)
		if err != nil {
			return fmt.Errorf("load %s: %w", entry.Name(), err)
		}
		if _, exists := docs[doc.Slug]; exists {
			return fmt.Errorf("load %s: duplicate slug %q", entry.Name(), doc.Slug)
		}
		docs[doc.Slug] = doc
	}

	l.mu.Lock()
	l.docs = docs
	l.mu.Unlock()
	return nil
}

// Get returns the document for a slug, or nil if unknown.
func (l *Library) Get(slug string) *domain.Document {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.docs[slug]
}

// List returns all documents ordered by slug.
func (l *Library) List() []*domain.Document {
	l.mu.RLock()
	defer l.mu.RUnlock()

	docs := make([]*domain.Document, 0, len(l.docs))
	for _, doc := range l.docs {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Slug < docs[j].Slug })
	return docs
}

// Len returns the number of loaded documents.
func (l *Library) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.docs)
}

func loadDocument(path string) (*domain.Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc domain.Document
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	if doc.Slug == "" {
		// Fall back to the file name so authors can skip the field.
		doc.Slug = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

func isYAML(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}
