package timer

import (
	"errors"
	"sort"

	"github.com/balkashynov/tock/internal/models"
)

var (
	ErrNotFound = errors.New("task not found")
	ErrCycle    = errors.New("task cannot be moved under its own subtree")
)

// Tree is an immutable arena of flat task records keyed by id, with the
// parent/child relation kept as id lists. Mutating methods return a new Tree.
//
// Records stored in a Tree must not be modified; callers get clones when
// they need to change a task.
type Tree struct {
	nodes    map[string]*models.TimerTask
	children map[string][]string // "" holds the roots
}

// Build indexes tasks in one pass. Tasks whose parent is missing, or whose
// parent chain loops back on itself, are treated as top-level.
func Build(tasks []*models.TimerTask) *Tree {
	t := &Tree{
		nodes:    make(map[string]*models.TimerTask, len(tasks)),
		children: make(map[string][]string),
	}
	for _, task := range tasks {
		if task == nil || task.ID == "" {
			continue
		}
		c := task.Clone()
		t.nodes[c.ID] = c
	}
	for id, task := range t.nodes {
		parent := task.Parent()
		if parent != "" {
			if _, ok := t.nodes[parent]; !ok || t.loops(id) {
				parent = ""
			}
		}
		t.children[parent] = append(t.children[parent], id)
	}
	for parent := range t.children {
		t.sortSiblings(parent)
	}
	return t
}

// BuildFrom is Build over a value slice
func BuildFrom(tasks []models.TimerTask) *Tree {
	ptrs := make([]*models.TimerTask, len(tasks))
	for i := range tasks {
		ptrs[i] = &tasks[i]
	}
	return Build(ptrs)
}

// loops reports whether following parent links from id revisits a node
func (t *Tree) loops(id string) bool {
	seen := map[string]bool{id: true}
	cur := t.nodes[id].Parent()
	for cur != "" {
		if seen[cur] {
			return true
		}
		seen[cur] = true
		n, ok := t.nodes[cur]
		if !ok {
			return false
		}
		cur = n.Parent()
	}
	return false
}

// sortSiblings orders by Order, ties broken by newest first then id
func (t *Tree) sortSiblings(parent string) {
	ids := t.children[parent]
	sort.SliceStable(ids, func(i, j int) bool {
		a, b := t.nodes[ids[i]], t.nodes[ids[j]]
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

// Len returns the number of tasks
func (t *Tree) Len() int {
	if t == nil {
		return 0
	}
	return len(t.nodes)
}

// Get returns the stored record for id
func (t *Tree) Get(id string) (*models.TimerTask, bool) {
	if t == nil {
		return nil, false
	}
	n, ok := t.nodes[id]
	return n, ok
}

// Roots returns the top-level task ids in sibling order
func (t *Tree) Roots() []string {
	return t.Children("")
}

// Children returns the ordered child ids of parent ("" for roots)
func (t *Tree) Children(parent string) []string {
	if t == nil {
		return nil
	}
	return append([]string(nil), t.children[parent]...)
}

// ParentOf returns the effective parent of id, "" for roots
func (t *Tree) ParentOf(id string) string {
	n, ok := t.Get(id)
	if !ok {
		return ""
	}
	p := n.Parent()
	if _, ok := t.nodes[p]; !ok || t.loops(id) {
		return ""
	}
	return p
}

// Siblings returns the records sharing id's parent, in order, including id
func (t *Tree) Siblings(id string) []*models.TimerTask {
	ids := t.Children(t.ParentOf(id))
	out := make([]*models.TimerTask, 0, len(ids))
	for _, sid := range ids {
		out = append(out, t.nodes[sid])
	}
	return out
}

// Subtree returns id and all of its descendants in pre-order
func (t *Tree) Subtree(id string) []string {
	if _, ok := t.Get(id); !ok {
		return nil
	}
	out := []string{id}
	for _, c := range t.children[id] {
		out = append(out, t.Subtree(c)...)
	}
	return out
}

// PostOrder returns the subtree of id with every child before its parent
func (t *Tree) PostOrder(id string) []string {
	if _, ok := t.Get(id); !ok {
		return nil
	}
	var out []string
	for _, c := range t.children[id] {
		out = append(out, t.PostOrder(c)...)
	}
	return append(out, id)
}

// IsAncestor reports whether ancestor is a strict ancestor of id
func (t *Tree) IsAncestor(ancestor, id string) bool {
	for cur := t.ParentOf(id); cur != ""; cur = t.ParentOf(cur) {
		if cur == ancestor {
			return true
		}
	}
	return false
}

// Flat returns every record in pre-order
func (t *Tree) Flat() []*models.TimerTask {
	if t == nil {
		return nil
	}
	out := make([]*models.TimerTask, 0, len(t.nodes))
	for _, r := range t.Roots() {
		for _, id := range t.Subtree(r) {
			out = append(out, t.nodes[id])
		}
	}
	return out
}

// Running returns every task flagged as running, across the whole forest
func (t *Tree) Running() []*models.TimerTask {
	var out []*models.TimerTask
	for _, n := range t.Flat() {
		if n.IsRunning {
			out = append(out, n)
		}
	}
	return out
}

// Assemble returns deep copies of the roots with Children populated
func (t *Tree) Assemble() []*models.TimerTask {
	if t == nil {
		return nil
	}
	roots := t.Roots()
	out := make([]*models.TimerTask, 0, len(roots))
	for _, id := range roots {
		out = append(out, t.assemble(id))
	}
	return out
}

func (t *Tree) assemble(id string) *models.TimerTask {
	n := t.nodes[id].Clone()
	for _, c := range t.children[id] {
		n.Children = append(n.Children, t.assemble(c))
	}
	return n
}

// Total returns the subtree display time rooted at id
func (t *Tree) Total(id string, now int64) int64 {
	var total int64
	for _, sid := range t.Subtree(id) {
		total += DisplayTime(t.nodes[sid], now)
	}
	return total
}

// Put returns a new tree with task inserted or replaced
func (t *Tree) Put(tasks ...*models.TimerTask) *Tree {
	replaced := make(map[string]*models.TimerTask, len(tasks))
	for _, task := range tasks {
		replaced[task.ID] = task
	}
	all := make([]*models.TimerTask, 0, t.Len()+len(tasks))
	for id, n := range t.nodesOrEmpty() {
		if r, ok := replaced[id]; ok {
			all = append(all, r)
			delete(replaced, id)
			continue
		}
		all = append(all, n)
	}
	for _, task := range tasks {
		if _, ok := replaced[task.ID]; ok {
			all = append(all, task)
		}
	}
	return Build(all)
}

// Remove returns a new tree without the given ids. Children of removed
// tasks become roots; callers remove whole subtrees via Subtree.
func (t *Tree) Remove(ids ...string) *Tree {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	all := make([]*models.TimerTask, 0, t.Len())
	for id, n := range t.nodesOrEmpty() {
		if !drop[id] {
			all = append(all, n)
		}
	}
	return Build(all)
}

// CanReparent checks that moving id under parent keeps the forest acyclic
func (t *Tree) CanReparent(id, parent string) error {
	if _, ok := t.Get(id); !ok {
		return ErrNotFound
	}
	if parent == "" {
		return nil
	}
	if _, ok := t.Get(parent); !ok {
		return ErrNotFound
	}
	if parent == id || t.IsAncestor(id, parent) {
		return ErrCycle
	}
	return nil
}

func (t *Tree) nodesOrEmpty() map[string]*models.TimerTask {
	if t == nil {
		return nil
	}
	return t.nodes
}
