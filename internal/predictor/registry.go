// Package predictor assembles the configured predictor set and holds it in
// a registry the activator iterates.
package predictor

import (
	"github.com/wordwisp/wordwisp/internal/predictor/entity"
)

// Registry holds the active predictor instances in registration order.
type Registry struct {
	predictors []entity.Predictor
	categories map[string]entity.Category
}

func NewRegistry() *Registry {
	return &Registry{categories: make(map[string]entity.Category)}
}

func (r *Registry) Add(p entity.Predictor) {
	r.predictors = append(r.predictors, p)
	r.categories[p.Name()] = p.Category()
}

// Predictors returns the registered predictors in order.
func (r *Registry) Predictors() []entity.Predictor {
	return r.predictors
}

// CategoryOf resolves a predictor name to its category, defaulting to the
// word category for unknown names.
func (r *Registry) CategoryOf(name string) entity.Category {
	if c, ok := r.categories[name]; ok {
		return c
	}
	return entity.CategoryWord
}
