package doc

// Registry is an arena of SectionNodes indexed by their stable ids.
// Atoms reference sections by id only; nodes never hold pointers to
// atoms or to each other. A registry is built once per atomization
// call and is immutable afterwards.
type Registry struct {
	nodes []SectionNode
}

// NewBuilder starts a registry containing only the root section.
// Ids are assigned monotonically within this builder; nothing is
// shared between calls.
func NewBuilder() *Builder {
	b := &Builder{
		reg: &Registry{
			nodes: []SectionNode{{
				ID:       RootID,
				ParentID: -1,
				Depth:    0,
			}},
		},
	}
	b.open = []int{RootID}
	return b
}

// Node returns the section with the given id, or nil if out of range.
func (r *Registry) Node(id int) *SectionNode {
	if id < 0 || id >= len(r.nodes) {
		return nil
	}
	return &r.nodes[id]
}

// Len reports the number of sections, root included.
func (r *Registry) Len() int { return len(r.nodes) }

// Nodes returns all sections in id order.
func (r *Registry) Nodes() []SectionNode { return r.nodes }

// Root returns the root section.
func (r *Registry) Root() *SectionNode { return &r.nodes[RootID] }

// Builder incrementally constructs a Registry while the atomizer
// scans the document. It keeps a stack of open sections ordered by
// strictly increasing depth; the root is always at the bottom.
type Builder struct {
	reg  *Registry
	open []int // ids of open sections, root first
}

// Open starts a new section of the given depth at atomStart. Any open
// section at the same or greater depth is closed first; the new node
// becomes a child of the section left on top.
func (b *Builder) Open(title string, depth, atomStart int) int {
	for len(b.open) > 1 {
		top := b.reg.Node(b.open[len(b.open)-1])
		if top.Depth < depth {
			break
		}
		top.AtomEnd = atomStart
		b.open = b.open[:len(b.open)-1]
	}

	parentID := b.open[len(b.open)-1]
	id := len(b.reg.nodes)
	b.reg.nodes = append(b.reg.nodes, SectionNode{
		ID:        id,
		ParentID:  parentID,
		Title:     title,
		Depth:     depth,
		AtomStart: atomStart,
		AtomEnd:   -1,
	})
	parent := b.reg.Node(parentID)
	parent.Children = append(parent.Children, id)
	b.open = append(b.open, id)
	return id
}

// CurrentID returns the id of the tightest open section.
func (b *Builder) CurrentID() int {
	return b.open[len(b.open)-1]
}

// PathIDs returns the root→current chain of open section ids. The
// slice is a copy; callers may keep it.
func (b *Builder) PathIDs() []int {
	out := make([]int, len(b.open))
	copy(out, b.open)
	return out
}

// PathTitles returns the titles along the open chain, root excluded
// (the root has no title).
func (b *Builder) PathTitles() []string {
	if len(b.open) == 1 {
		return nil
	}
	out := make([]string, 0, len(b.open)-1)
	for _, id := range b.open[1:] {
		out = append(out, b.reg.Node(id).Title)
	}
	return out
}

// CurrentDepth returns the depth of the tightest open section.
func (b *Builder) CurrentDepth() int {
	return b.reg.Node(b.CurrentID()).Depth
}

// Finish closes every open section at atomCount and returns the
// completed registry. The builder must not be used afterwards.
func (b *Builder) Finish(atomCount int) *Registry {
	for _, id := range b.open {
		b.reg.Node(id).AtomEnd = atomCount
	}
	b.open = nil
	return b.reg
}
