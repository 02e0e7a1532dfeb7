package core

import "strings"

// CategoryOther is the fallback label for unset or unknown categories.
const CategoryOther = "Other"

// DefaultCategories is the built-in registry, in display order.
var DefaultCategories = []string{
	"Food",
	"Transportation",
	"Housing",
	"Utilities",
	"Entertainment",
	"Healthcare",
	"Shopping",
	"Education",
	"Salary",
	"Investments",
	CategoryOther,
}

// Registry is the fixed, ordered set of valid category labels. It is
// immutable after construction and safe for concurrent use.
type Registry struct {
	labels []string
	index  map[string]int
}

// NewRegistry builds a registry from labels, dropping blanks and duplicates
// while preserving order. CategoryOther is appended when missing so the
// default category is always valid.
func NewRegistry(labels []string) *Registry {
	r := &Registry{index: make(map[string]int, len(labels)+1)}
	for _, l := range labels {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		if _, ok := r.index[l]; ok {
			continue
		}
		r.index[l] = len(r.labels)
		r.labels = append(r.labels, l)
	}
	if _, ok := r.index[CategoryOther]; !ok {
		r.index[CategoryOther] = len(r.labels)
		r.labels = append(r.labels, CategoryOther)
	}
	return r
}

// DefaultRegistry returns a registry over DefaultCategories.
func DefaultRegistry() *Registry {
	return NewRegistry(DefaultCategories)
}

func (r *Registry) Contains(label string) bool {
	_, ok := r.index[label]
	return ok
}

// Index returns the registry position of label.
func (r *Registry) Index(label string) (int, bool) {
	i, ok := r.index[label]
	return i, ok
}

// Labels returns a copy of the labels in registry order.
func (r *Registry) Labels() []string {
	return append([]string(nil), r.labels...)
}

func (r *Registry) Len() int {
	return len(r.labels)
}

// Normalize maps unset or unknown labels to CategoryOther.
func (r *Registry) Normalize(label string) string {
	if r.Contains(label) {
		return label
	}
	return CategoryOther
}
