// Package xorgconf maps xorg.conf(5) text onto pathstore nodes.
//
// A Section becomes a node labelled with the section name; a SubSection
// becomes a nested node labelled the same way. Every entry becomes a leaf
// labelled with its keyword. A value consisting of one quoted string is
// stored unquoted with pathstore.FormQuoted; anything else (numbers, Option
// pairs, modelines) is stored as written with pathstore.FormBare, so a
// parsed file renders back unchanged. Comments are kept as "#comment"
// nodes.
package xorgconf

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dkoosis/sax/pkg/pathstore"
)

// CommentLabel labels comment nodes.
const CommentLabel = "#comment"

// Lens implements pathstore.Lens for xorg.conf fragments.
type Lens struct{}

var _ pathstore.Lens = Lens{}

// Parse reads one file.
func (Lens) Parse(r io.Reader) ([]*pathstore.Node, error) {
	var (
		top   []*pathstore.Node
		stack []*pathstore.Node
		lineN int
	)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lineN++
		body, comment, hasComment := splitComment(scanner.Text())
		body = strings.TrimSpace(body)

		if body != "" {
			keyword, rest := cutToken(body)
			switch strings.ToLower(keyword) {
			case "section", "subsection":
				isSub := strings.EqualFold(keyword, "subsection")
				if isSub && len(stack) == 0 {
					return nil, fmt.Errorf("line %d: SubSection outside a Section", lineN)
				}
				if !isSub && len(stack) > 0 {
					return nil, fmt.Errorf("line %d: Section inside %q", lineN, stack[len(stack)-1].Label)
				}
				name, ok := singleQuoted(rest)
				if !ok {
					name = strings.TrimSpace(rest)
				}
				if name == "" {
					return nil, fmt.Errorf("line %d: %s without a name", lineN, keyword)
				}
				n := pathstore.NewNode(name, "")
				n.Form = pathstore.FormBranch
				if isSub {
					stack[len(stack)-1].Append(n)
				} else {
					top = append(top, n)
				}
				stack = append(stack, n)
			case "endsection", "endsubsection":
				wantSub := strings.EqualFold(keyword, "endsubsection")
				if len(stack) == 0 || (len(stack) > 1) != wantSub {
					return nil, fmt.Errorf("line %d: unexpected %s", lineN, keyword)
				}
				stack = stack[:len(stack)-1]
			default:
				if len(stack) == 0 {
					return nil, fmt.Errorf("line %d: entry %q outside a Section", lineN, keyword)
				}
				n := pathstore.NewNode(keyword, "")
				if value, ok := singleQuoted(rest); ok {
					n.Value, n.Form = value, pathstore.FormQuoted
				} else {
					n.Value, n.Form = strings.TrimSpace(rest), pathstore.FormBare
				}
				stack[len(stack)-1].Append(n)
			}
		}

		if hasComment {
			c := pathstore.NewNode(CommentLabel, comment)
			if len(stack) > 0 {
				stack[len(stack)-1].Append(c)
			} else {
				top = append(top, c)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(stack) > 0 {
		return nil, fmt.Errorf("line %d: Section %q is not closed", lineN, stack[0].Label)
	}
	return top, nil
}

// Render writes nodes back as xorg.conf text.
func (Lens) Render(w io.Writer, nodes []*pathstore.Node) error {
	bw := bufio.NewWriter(w)
	for i, n := range nodes {
		if n.Label == CommentLabel {
			fmt.Fprintf(bw, "#%s\n", n.Value)
			continue
		}
		if i > 0 && nodes[i-1].Label != CommentLabel {
			bw.WriteString("\n")
		}
		fmt.Fprintf(bw, "Section %s\n", quote(n.Label))
		if err := renderBody(bw, n.Children, 1); err != nil {
			return err
		}
		bw.WriteString("EndSection\n")
	}
	return bw.Flush()
}

func renderBody(w *bufio.Writer, nodes []*pathstore.Node, depth int) error {
	indent := strings.Repeat("\t", depth)
	for _, n := range nodes {
		switch {
		case n.Label == CommentLabel:
			fmt.Fprintf(w, "%s#%s\n", indent, n.Value)
		case n.Form == pathstore.FormBranch || len(n.Children) > 0:
			if strings.ContainsAny(n.Label, " \t\"") {
				return fmt.Errorf("invalid subsection name %q", n.Label)
			}
			fmt.Fprintf(w, "%sSubSection %s\n", indent, quote(n.Label))
			if err := renderBody(w, n.Children, depth+1); err != nil {
				return err
			}
			fmt.Fprintf(w, "%sEndSubSection\n", indent)
		default:
			if strings.ContainsAny(n.Label, " \t\"#") {
				return fmt.Errorf("invalid keyword %q", n.Label)
			}
			if v := renderValue(n); v != "" {
				fmt.Fprintf(w, "%s%s %s\n", indent, n.Label, v)
			} else {
				fmt.Fprintf(w, "%s%s\n", indent, n.Label)
			}
		}
	}
	return nil
}

// renderValue writes an entry value in its recorded form. Values written
// without one go through FormatValue.
func renderValue(n *pathstore.Node) string {
	switch n.Form {
	case pathstore.FormQuoted:
		return quote(n.Value)
	case pathstore.FormBare:
		return n.Value
	default:
		return FormatValue(n.Value)
	}
}

// FormatValue renders an entry value: numbers, ranges and values already
// carrying quotes are written as-is, anything else is quoted.
func FormatValue(v string) string {
	if strings.Contains(v, `"`) || isNumeric(v) {
		return v
	}
	return quote(v)
}

func quote(s string) string {
	return `"` + s + `"`
}

// isNumeric accepts numbers, ranges ("30-60", "50.0-75.0") and comma
// separated lists of those.
func isNumeric(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return false
	}
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		lo, hi, isRange := strings.Cut(part, "-")
		if !isNumber(lo) || (isRange && !isNumber(hi)) {
			return false
		}
	}
	return true
}

func isNumber(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || (s[0] < '0' || s[0] > '9') && s[0] != '.' {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// splitComment separates a line at the first '#' outside quotes.
func splitComment(line string) (body, comment string, ok bool) {
	inQuote := false
	for i, r := range line {
		switch r {
		case '"':
			inQuote = !inQuote
		case '#':
			if !inQuote {
				return line[:i], line[i+1:], true
			}
		}
	}
	return line, "", false
}

// cutToken returns the first whitespace-delimited token and the remainder.
func cutToken(s string) (token, rest string) {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		return s[:i], s[i+1:]
	}
	return s, ""
}

// singleQuoted reports whether s is exactly one quoted string and returns
// its content.
func singleQuoted(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return "", false
	}
	inner := s[1 : len(s)-1]
	if strings.Contains(inner, `"`) {
		return "", false
	}
	return inner, true
}
