// Package sportsbook implements the sports mode: a match catalog, the odds
// selection registry and the bet slip that prices and confirms tickets.
package sportsbook

import (
	"github.com/attaboy/faketoto/internal/domain"
)

// Registry holds at most one selected outcome per match. The selected keys and
// the bet lines are two views of one map, so they always agree.
// Registry is not safe for concurrent use.
type Registry struct {
	lines map[domain.SelectionKey]domain.BetLine
	order []domain.SelectionKey
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{lines: make(map[domain.SelectionKey]domain.BetLine)}
}

// Select toggles an outcome. Selecting the current key clears it; selecting a
// different outcome of the same match replaces the previous one. It reports
// whether the key is selected afterwards.
func (r *Registry) Select(m domain.Match, outcome domain.OutcomeType) (bool, error) {
	line, err := domain.NewBetLine(m, outcome)
	if err != nil {
		return false, err
	}
	if r.IsSelected(line.Key) {
		r.Remove(line.Key)
		return false, nil
	}
	r.AddOrReplaceLine(line)
	return true, nil
}

// AddOrReplaceLine inserts a line, dropping any other line for the same match.
func (r *Registry) AddOrReplaceLine(line domain.BetLine) {
	for _, k := range r.order {
		if k.MatchID == line.Key.MatchID && k != line.Key {
			r.Remove(k)
			break
		}
	}
	if _, exists := r.lines[line.Key]; !exists {
		r.order = append(r.order, line.Key)
	}
	r.lines[line.Key] = line
}

// Remove deletes one key. It reports whether the key was present.
func (r *Registry) Remove(key domain.SelectionKey) bool {
	if _, ok := r.lines[key]; !ok {
		return false
	}
	delete(r.lines, key)
	for i, k := range r.order {
		if k == key {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Clear empties the registry.
func (r *Registry) Clear() {
	clear(r.lines)
	r.order = r.order[:0]
}

func (r *Registry) IsSelected(key domain.SelectionKey) bool {
	_, ok := r.lines[key]
	return ok
}

// Selected returns the selected keys in selection order.
func (r *Registry) Selected() []domain.SelectionKey {
	return append([]domain.SelectionKey(nil), r.order...)
}

// Lines returns the bet lines in selection order.
func (r *Registry) Lines() []domain.BetLine {
	out := make([]domain.BetLine, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.lines[k])
	}
	return out
}

func (r *Registry) Len() int { return len(r.lines) }
