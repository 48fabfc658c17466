package access

import (
	"errors"
	"sort"
)

const (
	LevelGlobal      = "global"
	LevelDirectorate = "directorate"
	LevelDepartment  = "department"
	LevelDivision    = "division"
	LevelUnit        = "unit"
)

// ErrOrgCycle reports a parent chain that loops back on itself.
var ErrOrgCycle = errors.New("organization hierarchy contains a cycle")

type Org struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Level    string `json:"level"`
	ParentID string `json:"parent_id,omitempty"`
}

type orgNode struct {
	org      Org
	children []string
}

// OrgTree is an arena of organizations keyed by id. All walks are iterative and
// bounded by the number of nodes, so a corrupted parent chain cannot spin forever.
type OrgTree struct {
	nodes map[string]*orgNode
}

func NewOrgTree(orgs []Org) *OrgTree {
	tree := &OrgTree{nodes: make(map[string]*orgNode, len(orgs))}
	for _, org := range orgs {
		tree.nodes[org.ID] = &orgNode{org: org}
	}
	ids := make([]string, 0, len(orgs))
	for id := range tree.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		node := tree.nodes[id]
		if parent, ok := tree.nodes[node.org.ParentID]; ok && node.org.ParentID != id {
			parent.children = append(parent.children, id)
		}
	}
	return tree
}

func (t *OrgTree) Get(id string) (Org, bool) {
	node, ok := t.nodes[id]
	if !ok {
		return Org{}, false
	}
	return node.org, true
}

func (t *OrgTree) Len() int {
	return len(t.nodes)
}

func (t *OrgTree) IDs() []string {
	ids := make([]string, 0, len(t.nodes))
	for id := range t.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Ancestors returns the chain from id (inclusive) up to the root.
func (t *OrgTree) Ancestors(id string) ([]string, error) {
	var chain []string
	visited := map[string]struct{}{}
	current := id
	for steps := 0; current != ""; steps++ {
		node, ok := t.nodes[current]
		if !ok {
			break
		}
		if _, seen := visited[current]; seen || steps > len(t.nodes) {
			return chain, ErrOrgCycle
		}
		visited[current] = struct{}{}
		chain = append(chain, current)
		current = node.org.ParentID
	}
	return chain, nil
}

// AncestorAtLevel finds the nearest org at level on the chain from id to the root.
func (t *OrgTree) AncestorAtLevel(id, level string) (string, bool) {
	chain, err := t.Ancestors(id)
	if err != nil {
		return "", false
	}
	for _, ancestor := range chain {
		if t.nodes[ancestor].org.Level == level {
			return ancestor, true
		}
	}
	return "", false
}

func (t *OrgTree) Directorate(id string) (string, bool) {
	return t.AncestorAtLevel(id, LevelDirectorate)
}

func (t *OrgTree) Department(id string) (string, bool) {
	return t.AncestorAtLevel(id, LevelDepartment)
}

// Subtree returns id and all of its descendants, breadth first.
func (t *OrgTree) Subtree(id string) []string {
	if _, ok := t.nodes[id]; !ok {
		return nil
	}
	out := []string{}
	visited := map[string]struct{}{}
	queue := []string{id}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if _, seen := visited[current]; seen {
			continue
		}
		visited[current] = struct{}{}
		out = append(out, current)
		queue = append(queue, t.nodes[current].children...)
	}
	return out
}

// Children returns the direct children of id.
func (t *OrgTree) Children(id string) []Org {
	node, ok := t.nodes[id]
	if !ok {
		return nil
	}
	out := make([]Org, 0, len(node.children))
	for _, child := range node.children {
		out = append(out, t.nodes[child].org)
	}
	return out
}

// IsWithin reports whether target is root or one of its descendants.
func (t *OrgTree) IsWithin(root, target string) bool {
	if root == "" || target == "" {
		return false
	}
	chain, err := t.Ancestors(target)
	if err != nil {
		return false
	}
	for _, ancestor := range chain {
		if ancestor == root {
			return true
		}
	}
	return false
}

// Node is one org with its nested children, as rendered by the tree endpoint.
type Node struct {
	Org
	Children []*Node `json:"children"`
}

// Forest builds nested nodes for every root, breadth first over the arena.
func (t *OrgTree) Forest() []*Node {
	built := make(map[string]*Node, len(t.nodes))
	var roots []*Node
	var queue []string
	for _, id := range t.IDs() {
		org := t.nodes[id].org
		if _, ok := t.nodes[org.ParentID]; !ok || org.ParentID == "" {
			node := &Node{Org: org, Children: []*Node{}}
			built[id] = node
			roots = append(roots, node)
			queue = append(queue, id)
		}
	}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, child := range t.nodes[current].children {
			if _, seen := built[child]; seen {
				continue
			}
			node := &Node{Org: t.nodes[child].org, Children: []*Node{}}
			built[child] = node
			built[current].Children = append(built[current].Children, node)
			queue = append(queue, child)
		}
	}
	return roots
}

// ValidParentLevel reports whether an org at level may hang under a parent at parentLevel.
func ValidParentLevel(level, parentLevel string) bool {
	switch level {
	case LevelGlobal:
		return parentLevel == ""
	case LevelDirectorate:
		return parentLevel == LevelGlobal
	case LevelDepartment:
		return parentLevel == LevelDirectorate
	case LevelDivision:
		return parentLevel == LevelDepartment
	case LevelUnit:
		return parentLevel == LevelDepartment || parentLevel == LevelDivision
	default:
		return false
	}
}

func ValidLevel(level string) bool {
	switch level {
	case LevelGlobal, LevelDirectorate, LevelDepartment, LevelDivision, LevelUnit:
		return true
	}
	return false
}
