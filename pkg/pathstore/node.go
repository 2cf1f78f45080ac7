package pathstore

// Form records how a node appeared in its file so a lens can write it back
// the same way.
type Form uint8

const (
	// FormAuto leaves the rendering to the lens's own rules.
	FormAuto Form = iota
	// FormBare is a value written without quotes.
	FormBare
	// FormQuoted is a value written as one quoted string.
	FormQuoted
	// FormBranch is a container (a section) even when it has no children.
	FormBranch
)

// Node is one labelled entry in the tree. Interior nodes carry children;
// leaves usually carry a value, but a node may have both.
type Node struct {
	Label    string
	Value    string
	Form     Form
	Children []*Node

	parent *Node
}

// NewNode returns a detached node.
func NewNode(label, value string, children ...*Node) *Node {
	n := &Node{Label: label, Value: value}
	for _, c := range children {
		n.Append(c)
	}
	return n
}

// Append adds c as the last child of n.
func (n *Node) Append(c *Node) {
	c.parent = n
	n.Children = append(n.Children, c)
}

// Parent returns the node's parent, or nil for the root and detached nodes.
func (n *Node) Parent() *Node {
	return n.parent
}

// insertAfterLast adds c directly after the last child sharing its label,
// or at the end when there is none.
func (n *Node) insertAfterLast(c *Node) {
	c.parent = n
	at := -1
	for i, sib := range n.Children {
		if sib.Label == c.Label {
			at = i
		}
	}
	if at < 0 || at == len(n.Children)-1 {
		n.Children = append(n.Children, c)
		return
	}
	n.Children = append(n.Children, nil)
	copy(n.Children[at+2:], n.Children[at+1:])
	n.Children[at+1] = c
}

func (n *Node) child(label string) *Node {
	for _, c := range n.Children {
		if c.Label == label {
			return c
		}
	}
	return nil
}

// siblingIndex is the 1-based position of n among same-label siblings and
// the number of such siblings.
func (n *Node) siblingIndex() (pos, count int) {
	if n.parent == nil {
		return 1, 1
	}
	for _, sib := range n.parent.Children {
		if sib.Label != n.Label {
			continue
		}
		count++
		if sib == n {
			pos = count
		}
	}
	return pos, count
}

// Walk visits n and its descendants in document order. Returning false from
// fn skips the node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}
