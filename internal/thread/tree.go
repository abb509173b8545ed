// Package thread rebuilds nested comment threads from the flat comment list
// returned by the data service.
package thread

import "circles/internal/models"

// Node is one comment in a thread together with its direct replies, in the
// order the replies appeared in the source list.
type Node struct {
	Comment models.Comment `json:"comment"`
	Replies []*Node        `json:"replies"`
}

// Build converts the flat comments of one post into a forest of root nodes.
//
// A comment whose ParentID is nil, or points at a comment not present in the
// list (deleted or not yet loaded), is placed among the roots instead of being
// dropped. No ordering is applied beyond the input order. Parent chains are
// assumed acyclic; this is not verified.
func Build(comments []models.Comment) []*Node {
	byID := make(map[string]*Node, len(comments))
	nodes := make([]*Node, len(comments))
	for i := range comments {
		n := &Node{Comment: comments[i], Replies: []*Node{}}
		nodes[i] = n
		byID[comments[i].ID] = n
	}

	roots := make([]*Node, 0, len(comments))
	for _, n := range nodes {
		if n.Comment.IsReply() {
			if parent, ok := byID[*n.Comment.ParentID]; ok {
				parent.Replies = append(parent.Replies, n)
				continue
			}
		}
		roots = append(roots, n)
	}
	return roots
}

// Walk visits every node depth-first, parents before replies. depth is 0 for roots.
func Walk(forest []*Node, fn func(n *Node, depth int)) {
	var visit func(nodes []*Node, depth int)
	visit = func(nodes []*Node, depth int) {
		for _, n := range nodes {
			fn(n, depth)
			visit(n.Replies, depth+1)
		}
	}
	visit(forest, 0)
}

// Count returns the number of nodes in the forest.
func Count(forest []*Node) int {
	total := 0
	Walk(forest, func(*Node, int) { total++ })
	return total
}
