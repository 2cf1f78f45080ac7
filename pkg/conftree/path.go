package conftree

import (
	"strings"
)

// Path addresses nodes in the tree. See pathstore for the expression syntax.
type Path string

// Child returns p/label.
func (p Path) Child(label string) Path {
	return Path(strings.TrimSuffix(string(p), "/") + "/" + label)
}

// Append returns p[last()+1], which creates a new sibling when set.
func (p Path) Append() Path {
	return p + "[last()+1]"
}

// Last returns p[last()], the last sibling with p's label.
func (p Path) Last() Path {
	return p + "[last()]"
}

// Segments splits p at the slashes that separate steps.
func (p Path) Segments() []string {
	var (
		segs  []string
		depth int
		start int
	)
	s := strings.TrimPrefix(string(p), "/")
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[':
			depth++
		case ']':
			depth--
		case '/':
			if depth == 0 {
				segs = append(segs, s[start:i])
				start = i + 1
			}
		}
	}
	if start < len(s) {
		segs = append(segs, s[start:])
	}
	return segs
}

// Label returns the label of the final step, without its predicate.
func (p Path) Label() string {
	segs := p.Segments()
	if len(segs) == 0 {
		return ""
	}
	return stripPredicate(segs[len(segs)-1])
}

// TruncateAt cuts p after the first step labelled label and drops that
// step's predicate, so ".../a.conf/Monitor[2]/Identifier" truncated at
// "Monitor" is ".../a.conf/Monitor". It reports false when no step matches.
func (p Path) TruncateAt(label string) (Path, bool) {
	segs := p.Segments()
	for i, seg := range segs {
		if stripPredicate(seg) == label {
			kept := append(segs[:i:i], label)
			return Path("/" + strings.Join(kept, "/")), true
		}
	}
	return p, false
}

// Parent returns p without its final step, or "/" for a single step.
func (p Path) Parent() Path {
	segs := p.Segments()
	if len(segs) <= 1 {
		return "/"
	}
	return Path("/" + strings.Join(segs[:len(segs)-1], "/"))
}

func stripPredicate(seg string) string {
	if i := strings.IndexByte(seg, '['); i > 0 && strings.HasSuffix(seg, "]") {
		return seg[:i]
	}
	return seg
}

func (p Path) String() string {
	return string(p)
}
