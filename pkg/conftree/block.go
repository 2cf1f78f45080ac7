package conftree

// IdentifierAttr is the attribute written first in every block.
const IdentifierAttr = "Identifier"

// Block is a handle to one concrete node created by AppendBlock or
// AppendChild. Writes through it address that node, never whatever sibling
// happens to be last.
type Block struct {
	tree *Tree
	path Path
}

// Path returns the block's concrete path.
func (b *Block) Path() Path {
	return b.path
}

// AppendBlock creates a new sibling of ref by writing the quoted
// ref[last()+1]/Identifier[last()] and returns a handle to it.
func (t *Tree) AppendBlock(ref Path, identifier string) (*Block, error) {
	return t.appendNode(ref, IdentifierAttr, identifier, Quoted)
}

// Set writes <block>/attr[last()].
func (b *Block) Set(attr, value string, form Form) error {
	_, err := b.tree.Write(b.path.Child(attr).Last(), value, form)
	return err
}

// AppendChild creates <block>/label[last()+1]/attr[last()] and returns a
// handle to the new child.
func (b *Block) AppendChild(label, attr, value string, form Form) (*Block, error) {
	return b.tree.appendNode(b.path.Child(label), attr, value, form)
}

// appendNode takes the handle from the node the append created, so a
// later sibling with the same label cannot be mistaken for it.
func (t *Tree) appendNode(ref Path, attr, value string, form Form) (*Block, error) {
	written, err := t.Write(ref.Append().Child(attr).Last(), value, form)
	if err != nil {
		return nil, err
	}
	return &Block{tree: t, path: written.Parent()}, nil
}
