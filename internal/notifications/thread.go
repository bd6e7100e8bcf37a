package notifications

import "github.com/anonto42/nano-midea/notifier/internal/models"

// ReplyNode is a reply with the replies that answer it.
type ReplyNode struct {
	Reply models.Reply `json:"reply"`
	// Index is the reply's position in its comment's reply list.
	Index int `json:"index"`
	// Orphaned is set on replies that name a parent but were placed at the
	// root because the parent is missing or the reference loops.
	Orphaned bool         `json:"orphaned,omitempty"`
	Children []*ReplyNode `json:"children,omitempty"`
}

// BuildThread turns the flat reply list of one comment into a forest.
//
// Replies without a parent are roots. A reply whose parent id names another
// reply of the list becomes that reply's child, wherever the parent sits in
// the list. A reply whose parent cannot be found is placed at the root. A
// loop of parent references is cut at its earliest listed reply, which
// becomes a root; the rest of the loop nests under it. Every reply appears
// exactly once and siblings keep their input order. When several replies
// share an id, the first one receives the children.
func BuildThread(replies []models.Reply) []*ReplyNode {
	nodes := make([]*ReplyNode, len(replies))
	index := make(map[string]int, len(replies))
	for i, r := range replies {
		nodes[i] = &ReplyNode{Reply: r, Index: i}
		if r.ID == "" {
			continue
		}
		if _, dup := index[r.ID]; !dup {
			index[r.ID] = i
		}
	}

	parentOf := func(i int) (int, bool) {
		r := replies[i]
		if !r.HasParent() {
			return -1, false
		}
		p, ok := index[*r.ParentID]
		return p, ok
	}

	// cycleHead reports whether following parents from i leads back to i and,
	// if so, the earliest listed reply of that loop.
	cycleHead := func(i int) (int, bool) {
		head, j := i, i
		for steps := 0; steps < len(replies); steps++ {
			p, ok := parentOf(j)
			if !ok {
				return 0, false
			}
			if p == i {
				return head, true
			}
			if p < head {
				head = p
			}
			j = p
		}
		return 0, false
	}

	roots := make([]*ReplyNode, 0, len(replies))
	for i := range replies {
		p, ok := parentOf(i)
		if ok {
			if head, loops := cycleHead(i); loops && head == i {
				ok = false
			}
		}
		if !ok {
			nodes[i].Orphaned = replies[i].HasParent()
			roots = append(roots, nodes[i])
			continue
		}
		nodes[p].Children = append(nodes[p].Children, nodes[i])
	}
	return roots
}

// Walk visits the forest depth first, parents before children. parent is nil
// for roots.
func Walk(forest []*ReplyNode, fn func(node, parent *ReplyNode)) {
	var visit func(nodes []*ReplyNode, parent *ReplyNode)
	visit = func(nodes []*ReplyNode, parent *ReplyNode) {
		for _, n := range nodes {
			fn(n, parent)
			visit(n.Children, n)
		}
	}
	visit(forest, nil)
}

// Count returns the number of replies in the forest.
func Count(forest []*ReplyNode) int {
	n := 0
	Walk(forest, func(*ReplyNode, *ReplyNode) { n++ })
	return n
}

// ThreadedComment is a comment with its replies arranged as a forest.
type ThreadedComment struct {
	Comment models.Comment `json:"comment"`
	Index   int            `json:"index"`
	Thread  []*ReplyNode   `json:"thread"`
}

// ThreadComments builds the reply forest of every comment of the post.
func ThreadComments(post models.Post) []ThreadedComment {
	out := make([]ThreadedComment, len(post.Comments))
	for i, c := range post.Comments {
		out[i] = ThreadedComment{Comment: c, Index: i, Thread: BuildThread(c.Replies)}
	}
	return out
}
