package domain

import (
	"path/filepath"
	"sort"
	"strings"
)

type NodeType int

const (
	NodeFile NodeType = iota
	NodeDir
)

const RootID = "."

type Node struct {
	ID          string
	Name        string
	Path        string
	Type        NodeType
	SizeBytes   int64
	AccumBytes  int64
	ParentID    string
	ChildrenIDs []string
	ChildCount  int
	FileCount   int
	DirCount    int
	Matched     bool
}

type TreeIndex struct {
	Nodes  map[string]*Node
	RootID string
}

// BuildTree reconstructs the directory hierarchy above a flat set of scan
// results. Intermediate directories are synthesised and carry the totals of
// the matched entries beneath them.
func BuildTree(root string, records []SearchResultRecord) TreeIndex {
	name := filepath.Base(root)
	if name == "." || name == string(filepath.Separator) {
		name = root
	}
	nodes := map[string]*Node{
		RootID: {ID: RootID, Name: name, Path: root, Type: NodeDir},
	}

	for _, record := range records {
		id := filepath.ToSlash(record.RelativePath)
		parts := strings.Split(id, "/")
		parent := RootID
		for index := 0; index < len(parts)-1; index++ {
			dirID := strings.Join(parts[:index+1], "/")
			if _, ok := nodes[dirID]; !ok {
				nodes[dirID] = &Node{
					ID:       dirID,
					Name:     parts[index],
					Path:     filepath.Join(root, filepath.FromSlash(dirID)),
					Type:     NodeDir,
					ParentID: parent,
				}
			}
			parent = dirID
		}

		nodeType := NodeFile
		if record.IsDir {
			nodeType = NodeDir
		}
		if existing, ok := nodes[id]; ok {
			existing.Matched = true
			existing.SizeBytes = record.SizeBytes
			continue
		}
		nodes[id] = &Node{
			ID:        id,
			Name:      parts[len(parts)-1],
			Path:      record.AbsolutePath,
			Type:      nodeType,
			SizeBytes: record.SizeBytes,
			ParentID:  parent,
			Matched:   true,
		}
	}

	applyHierarchy(nodes)
	applyTotals(nodes)
	return TreeIndex{Nodes: nodes, RootID: RootID}
}

// Walk visits nodes depth first, directories before files, each group by name.
func (index TreeIndex) Walk(visit func(node *Node, depth int)) {
	root, ok := index.Nodes[index.RootID]
	if !ok {
		return
	}
	index.walk(root, 0, visit)
}

func (index TreeIndex) walk(node *Node, depth int, visit func(node *Node, depth int)) {
	visit(node, depth)
	children := make([]*Node, 0, len(node.ChildrenIDs))
	for _, id := range node.ChildrenIDs {
		if child, ok := index.Nodes[id]; ok {
			children = append(children, child)
		}
	}
	sort.Slice(children, func(i, j int) bool {
		if children[i].Type != children[j].Type {
			return children[i].Type == NodeDir
		}
		return children[i].Name < children[j].Name
	})
	for _, child := range children {
		index.walk(child, depth+1, visit)
	}
}

func applyHierarchy(nodes map[string]*Node) {
	for _, node := range nodes {
		if node.ID == RootID {
			continue
		}
		parent, ok := nodes[node.ParentID]
		if !ok {
			continue
		}
		parent.ChildrenIDs = append(parent.ChildrenIDs, node.ID)
		if node.Type == NodeDir {
			parent.ChildCount++
		}
	}
}

func applyTotals(nodes map[string]*Node) {
	ids := make([]string, 0, len(nodes))
	for id := range nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return depth(ids[i]) > depth(ids[j])
	})

	for _, id := range ids {
		node := nodes[id]
		if node.Type == NodeFile {
			node.AccumBytes = node.SizeBytes
			node.FileCount = 1
			continue
		}
		if node.Matched {
			node.AccumBytes = node.SizeBytes
			continue
		}
		var total int64
		var files, dirs int
		for _, childID := range node.ChildrenIDs {
			child, ok := nodes[childID]
			if !ok {
				continue
			}
			total += child.AccumBytes
			files += child.FileCount
			if child.Type == NodeDir {
				dirs++
			}
			dirs += child.DirCount
		}
		node.AccumBytes = total
		node.FileCount = files
		node.DirCount = dirs
	}
}

func depth(id string) int {
	if id == RootID {
		return -1
	}
	return strings.Count(id, "/")
}
