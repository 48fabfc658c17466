package goals

import (
	"context"
	"slices"
	"strings"
)

// maxDepth bounds every upward or downward walk of the goal tree.
const maxDepth = 64

// ValidParent reports whether a goal of scope child may sit under a goal of
// scope parent. Children are never broader than their parent.
func ValidParent(child, parent string) bool {
	switch child {
	case ScopeCompanyWide:
		return parent == ScopeCompanyWide
	case ScopeDepartmental:
		return parent == ScopeCompanyWide
	case ScopeIndividual:
		return parent == ScopeCompanyWide || parent == ScopeDepartmental
	}
	return false
}

// AllAchieved reports whether every child status is ACHIEVED. A goal without
// children is never achieved by cascade.
func AllAchieved(statuses []string) bool {
	if len(statuses) == 0 {
		return false
	}
	for _, status := range statuses {
		if status != StatusAchieved {
			return false
		}
	}
	return true
}

// ChildProgress is one child as seen by the progress rollup.
type ChildProgress struct {
	Status     string
	Percentage int
}

// RollupProgress derives a parent's percentage as the rounded mean of its
// children. Discarded and rejected children are ignored and achieved ones
// count as 100. ok is false when no child counts.
func RollupProgress(children []ChildProgress) (pct int, ok bool) {
	total, counted := 0, 0
	for _, c := range children {
		switch c.Status {
		case StatusDiscarded, StatusRejected:
			continue
		case StatusAchieved:
			total += 100
		default:
			total += c.Percentage
		}
		counted++
	}
	if counted == 0 {
		return 0, false
	}
	return (total + counted/2) / counted, true
}

type progressTree interface {
	parentOf(ctx context.Context, goalID string) (string, error)
	childProgress(ctx context.Context, goalID string) ([]ChildProgress, error)
	setDerivedProgress(ctx context.Context, goalID string, pct int) error
}

// propagateProgress recomputes every ancestor of goalID from its children,
// nearest first. The walk stops at the root or at a parent with no counted
// children.
func propagateProgress(ctx context.Context, tree progressTree, goalID string) error {
	visited := map[string]struct{}{goalID: {}}
	parent, err := tree.parentOf(ctx, goalID)
	if err != nil {
		return err
	}
	for depth := 0; parent != ""; depth++ {
		if _, seen := visited[parent]; seen || depth > maxDepth {
			return ErrHierarchyCorrupt
		}
		visited[parent] = struct{}{}

		children, err := tree.childProgress(ctx, parent)
		if err != nil {
			return err
		}
		pct, ok := RollupProgress(children)
		if !ok {
			return nil
		}
		if err := tree.setDerivedProgress(ctx, parent, pct); err != nil {
			return err
		}
		if parent, err = tree.parentOf(ctx, parent); err != nil {
			return err
		}
	}
	return nil
}

// ValidateProgress checks a manual progress update before anything is written.
func ValidateProgress(goal Goal, percentage int, report string, childCount int) error {
	if strings.TrimSpace(report) == "" {
		return ErrReportRequired
	}
	if percentage < 0 || percentage > 100 {
		return ErrInvalidPercentage
	}
	if childCount > 0 {
		return ErrHasChildren
	}
	if goal.Frozen {
		return ErrGoalFrozen
	}
	return nil
}

// Node is one goal in a hierarchy response.
type Node struct {
	ID                 string  `json:"id"`
	Title              string  `json:"title"`
	Scope              string  `json:"scope"`
	Type               string  `json:"type"`
	Status             string  `json:"status"`
	ProgressPercentage int     `json:"progress_percentage"`
	OwnerID            string  `json:"owner_id,omitempty"`
	Frozen             bool    `json:"frozen"`
	Children           []*Node `json:"children"`
}

// BuildHierarchy nests goals under rootID breadth-first. Goals that are not
// reachable from the root are ignored; a goal seen twice means the stored
// parent links loop.
func BuildHierarchy(rootID string, goals []Goal) (*Node, error) {
	arena := make(map[string]*Node, len(goals))
	children := map[string][]string{}
	for _, g := range goals {
		arena[g.ID] = &Node{
			ID:                 g.ID,
			Title:              g.Title,
			Scope:              g.Scope,
			Type:               g.Type,
			Status:             g.Status,
			ProgressPercentage: g.ProgressPercentage,
			OwnerID:            g.OwnerID,
			Frozen:             g.Frozen,
			Children:           []*Node{},
		}
		if g.ID != rootID && g.ParentGoalID != "" {
			children[g.ParentGoalID] = append(children[g.ParentGoalID], g.ID)
		}
	}
	root, ok := arena[rootID]
	if !ok {
		return nil, ErrGoalNotFound
	}

	type item struct {
		node  *Node
		depth int
	}
	seen := map[string]struct{}{rootID: {}}
	queue := []item{{node: root}}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if current.depth > maxDepth {
			return nil, ErrHierarchyCorrupt
		}
		for _, childID := range children[current.node.ID] {
			if _, dup := seen[childID]; dup {
				return nil, ErrHierarchyCorrupt
			}
			seen[childID] = struct{}{}
			child := arena[childID]
			current.node.Children = append(current.node.Children, child)
			queue = append(queue, item{node: child, depth: current.depth + 1})
		}
	}
	return root, nil
}

// ComputeStats summarizes goals. overdue decides which active goals count as late.
func ComputeStats(goals []Goal, overdue func(Goal) bool) Stats {
	stats := Stats{
		ByScope:  map[string]int{},
		ByType:   map[string]int{},
		ByStatus: map[string]int{},
	}
	for _, s := range Scopes {
		stats.ByScope[s] = 0
	}
	for _, t := range Types {
		stats.ByType[t] = 0
	}
	for _, s := range Statuses {
		stats.ByStatus[s] = 0
	}
	total := 0
	for _, g := range goals {
		stats.TotalGoals++
		stats.ByScope[g.Scope]++
		stats.ByType[g.Type]++
		stats.ByStatus[g.Status]++
		total += g.ProgressPercentage
		if g.Status == StatusActive && overdue(g) {
			stats.OverdueGoals++
		}
	}
	if stats.TotalGoals > 0 {
		stats.AverageProgress = float64(total) / float64(stats.TotalGoals)
	}
	return stats
}

func validScope(scope string) bool {
	return slices.Contains(Scopes, scope)
}

func validType(goalType string) bool {
	return slices.Contains(Types, goalType)
}

func validQuarter(quarter string) bool {
	return slices.Contains(Quarters, quarter)
}
