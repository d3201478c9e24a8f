package timer

import (
	"sort"
	"strings"

	"github.com/balkashynov/tock/internal/models"
)

// MaxCategoryDepth is the deepest category level that gets its own group
const MaxCategoryDepth = 3

// Uncategorized is used for tasks with an empty category path
const Uncategorized = "Uncategorized"

// GroupByCategory groups assembled root tasks by their category path, up to
// MaxCategoryDepth levels. Tasks whose path ends at a level are filed
// directly in that level's group; deeper paths are filed at the last level.
// Groups with running tasks come first, then by total time.
func GroupByCategory(roots []*models.TimerTask, now int64) []*models.CategoryGroup {
	var top []*models.TimerTask
	for _, r := range roots {
		if r.IsTopLevel() {
			top = append(top, r)
		}
	}
	return groupLevel(top, nil, 1, now)
}

func groupLevel(tasks []*models.TimerTask, prefix []string, level int, now int64) []*models.CategoryGroup {
	buckets := map[string][]*models.TimerTask{}
	var names []string
	for _, t := range tasks {
		name := CategorySegments(t.CategoryPath)[level-1]
		if _, ok := buckets[name]; !ok {
			names = append(names, name)
		}
		buckets[name] = append(buckets[name], t)
	}

	groups := make([]*models.CategoryGroup, 0, len(names))
	for _, name := range names {
		members := buckets[name]
		path := append(append([]string(nil), prefix...), name)

		g := &models.CategoryGroup{
			ID:           "cat-" + strings.Join(path, "-"),
			CategoryPath: strings.Join(path, "/"),
			CategoryName: name,
			DisplayName:  name,
			Level:        level,
		}
		var deeper []*models.TimerTask
		for _, t := range members {
			if level < MaxCategoryDepth && len(CategorySegments(t.CategoryPath)) > level {
				deeper = append(deeper, t)
			} else {
				g.Tasks = append(g.Tasks, t)
			}
		}
		SortTasks(g.Tasks)
		if len(deeper) > 0 {
			g.SubGroups = groupLevel(deeper, path, level+1, now)
		}
		for _, t := range members {
			g.TotalTime += SubtreeTotal(t, now)
			g.RunningCount += countRunning(t)
		}
		groups = append(groups, g)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i], groups[j]
		if (a.RunningCount > 0) != (b.RunningCount > 0) {
			return a.RunningCount > 0
		}
		if a.TotalTime != b.TotalTime {
			return a.TotalTime > b.TotalTime
		}
		return a.CategoryName < b.CategoryName
	})
	return groups
}

// CategorySegments splits a category path, ignoring empty segments
func CategorySegments(path string) []string {
	var out []string
	for _, p := range strings.Split(path, "/") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{Uncategorized}
	}
	return out
}

// CategoryDisplay renders a path as "Work / Dev"
func CategoryDisplay(path string) string {
	return strings.Join(CategorySegments(path), " / ")
}

// SortTasks orders siblings by Order, then newest first
func SortTasks(tasks []*models.TimerTask) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
}

func countRunning(t *models.TimerTask) int {
	n := 0
	if t.State() == models.StateRunning {
		n++
	}
	for _, c := range t.Children {
		n += countRunning(c)
	}
	return n
}
