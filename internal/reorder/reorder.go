// Package reorder turns a drag gesture into sibling order assignments and
// persists them in the background.
package reorder

import (
	"errors"
	"fmt"

	"github.com/balkashynov/tock/internal/models"
)

var ErrIndex = errors.New("reorder index out of range")

// Move moves the sibling at from to position to and assigns contiguous
// order values starting at 0. The returned tasks are clones; the input is
// not modified.
func Move(siblings []*models.TimerTask, from, to int) ([]*models.TimerTask, []models.OrderUpdate, error) {
	n := len(siblings)
	if from < 0 || from >= n || to < 0 || to >= n {
		return nil, nil, fmt.Errorf("%w: move %d -> %d among %d tasks", ErrIndex, from, to, n)
	}

	moved := make([]*models.TimerTask, 0, n)
	for i, t := range siblings {
		if i != from {
			moved = append(moved, t)
		}
	}
	moved = append(moved[:to], append([]*models.TimerTask{siblings[from]}, moved[to:]...)...)

	out := make([]*models.TimerTask, n)
	ids := make([]string, n)
	for i, t := range moved {
		c := t.Clone()
		c.Order = i
		out[i] = c
		ids[i] = c.ID
	}
	return out, Assign(ids), nil
}

// Assign gives ids contiguous order values in the given sequence
func Assign(ids []string) []models.OrderUpdate {
	updates := make([]models.OrderUpdate, len(ids))
	for i, id := range ids {
		updates[i] = models.OrderUpdate{ID: id, Order: i}
	}
	return updates
}

// Contiguous reports whether the siblings already carry 0..n-1 in order
func Contiguous(siblings []*models.TimerTask) bool {
	for i, t := range siblings {
		if t.Order != i {
			return false
		}
	}
	return true
}

func equal(a, b []models.OrderUpdate) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
