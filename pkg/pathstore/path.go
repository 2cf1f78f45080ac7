package pathstore

import (
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"
)

// ErrInvalidPath is returned for expressions that cannot be parsed.
var ErrInvalidPath = errors.New("invalid path expression")

type predicateKind int

const (
	predNone predicateKind = iota
	predIndex
	predLast
	predAppend
)

// segment is one step of a path expression: a label pattern plus an
// optional positional predicate.
type segment struct {
	label string
	kind  predicateKind
	index int
}

func (s segment) String() string {
	switch s.kind {
	case predIndex:
		return fmt.Sprintf("%s[%d]", s.label, s.index)
	case predLast:
		return s.label + "[last()]"
	case predAppend:
		return s.label + "[last()+1]"
	default:
		return s.label
	}
}

func (s segment) isGlob() bool {
	return strings.ContainsAny(s.label, "*?[")
}

func (s segment) matchLabel(label string) bool {
	if !s.isGlob() {
		return s.label == label
	}
	ok, err := path.Match(s.label, label)
	return err == nil && ok
}

// parsePath splits an absolute expression into segments. Slashes inside a
// predicate do not separate segments.
func parsePath(expr string) ([]segment, error) {
	if !strings.HasPrefix(expr, "/") {
		return nil, fmt.Errorf("%w: %q is not absolute", ErrInvalidPath, expr)
	}
	var (
		segs  []segment
		depth int
		start = 1
	)
	for i := 1; i <= len(expr); i++ {
		if i < len(expr) {
			switch expr[i] {
			case '[':
				depth++
				continue
			case ']':
				depth--
				if depth < 0 {
					return nil, fmt.Errorf("%w: unbalanced brackets in %q", ErrInvalidPath, expr)
				}
				continue
			case '/':
				if depth > 0 {
					continue
				}
			default:
				continue
			}
		}
		if depth != 0 {
			return nil, fmt.Errorf("%w: unbalanced brackets in %q", ErrInvalidPath, expr)
		}
		seg, err := parseSegment(expr[start:i])
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidPath, expr, err)
		}
		segs = append(segs, seg)
		start = i + 1
	}
	return segs, nil
}

func parseSegment(raw string) (segment, error) {
	if raw == "" {
		return segment{}, errors.New("empty segment")
	}
	open := strings.LastIndexByte(raw, '[')
	if open < 0 || !strings.HasSuffix(raw, "]") {
		return segment{label: raw}, nil
	}
	label, pred := raw[:open], strings.TrimSpace(raw[open+1:len(raw)-1])
	if label == "" {
		return segment{}, fmt.Errorf("predicate %q without a label", raw)
	}
	switch pred {
	case "last()":
		return segment{label: label, kind: predLast}, nil
	case "last()+1", "last() + 1":
		return segment{label: label, kind: predAppend}, nil
	}
	n, err := strconv.Atoi(pred)
	if err != nil || n < 1 {
		// Treat as a character class such as "[0-9]" in a glob.
		if strings.ContainsAny(label, "*?") || strings.Contains(pred, "-") {
			return segment{label: raw}, nil
		}
		return segment{}, fmt.Errorf("unsupported predicate %q", pred)
	}
	return segment{label: label, kind: predIndex, index: n}, nil
}

// selectFrom returns the children of parent matching seg, after applying the
// predicate. An append predicate never selects existing nodes.
func (s segment) selectFrom(parent *Node) []*Node {
	var hits []*Node
	for _, c := range parent.Children {
		if s.matchLabel(c.Label) {
			hits = append(hits, c)
		}
	}
	switch s.kind {
	case predIndex:
		if s.index > len(hits) {
			return nil
		}
		return hits[s.index-1 : s.index]
	case predLast:
		if len(hits) == 0 {
			return nil
		}
		return hits[len(hits)-1:]
	case predAppend:
		return nil
	default:
		return hits
	}
}

// PathOf returns the canonical expression addressing n: each label, with a
// positional predicate whenever the label is shared by several siblings.
func PathOf(n *Node) string {
	var parts []string
	for cur := n; cur != nil && cur.parent != nil; cur = cur.parent {
		part := cur.Label
		if pos, count := cur.siblingIndex(); count > 1 {
			part = fmt.Sprintf("%s[%d]", cur.Label, pos)
		}
		parts = append(parts, part)
	}
	var b strings.Builder
	for i := len(parts) - 1; i >= 0; i-- {
		b.WriteByte('/')
		b.WriteString(parts[i])
	}
	if b.Len() == 0 {
		return "/"
	}
	return b.String()
}
