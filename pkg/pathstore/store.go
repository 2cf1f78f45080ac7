// Package pathstore is an in-memory tree of configuration files addressed
// by path expressions.
//
// Files matching the include patterns are parsed through a Lens and
// mounted at /files/<path on disk>. Nodes are addressed with slash-delimited
// expressions; each step may use label globs ("*", "?") and one positional
// predicate: [N], [last()] or [last()+1]. Mutations stay in memory until
// Save renders and writes the files whose content changed.
package pathstore

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
)

const filesLabel = "files"

var (
	// ErrNotFound is returned when an expression matches no node.
	ErrNotFound = errors.New("no node matches")

	// ErrAmbiguous is returned when a single-node operation matches several.
	ErrAmbiguous = errors.New("expression matches more than one node")
)

// Lens converts between a file's text and its nodes.
type Lens interface {
	Parse(r io.Reader) ([]*Node, error)
	Render(w io.Writer, nodes []*Node) error
}

// Options configure Open.
type Options struct {
	// Root is prepended to every file path on disk. Default "/".
	Root string
	// Include lists absolute glob patterns (relative to Root) of the files
	// to load. New files may only be created where a pattern matches.
	Include []string
	Lens    Lens
	Logger  *slog.Logger
}

// Store holds the loaded tree.
type Store struct {
	root    string
	include []string
	lens    Lens
	logger  *slog.Logger

	tree   *Node
	loaded map[string]loadedFile
	dirty  []*Node
	closed bool
}

type loadedFile struct {
	content []byte
	mode    fs.FileMode
}

// Open loads every file matching opts.Include. A file that cannot be read
// or parsed fails the whole open.
func Open(opts Options) (*Store, error) {
	if opts.Lens == nil {
		return nil, errors.New("pathstore: no lens configured")
	}
	if len(opts.Include) == 0 {
		return nil, errors.New("pathstore: no include patterns")
	}
	root := opts.Root
	if root == "" {
		root = "/"
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Store{
		root:    root,
		include: make([]string, 0, len(opts.Include)),
		lens:    opts.Lens,
		logger:  logger,
		tree:    NewNode("", "", NewNode(filesLabel, "")),
		loaded:  make(map[string]loadedFile),
	}
	for _, pattern := range opts.Include {
		if !strings.HasPrefix(pattern, "/") {
			return nil, fmt.Errorf("pathstore: include pattern %q is not absolute", pattern)
		}
		if _, err := path.Match(pattern, ""); err != nil {
			return nil, fmt.Errorf("pathstore: include pattern %q: %w", pattern, err)
		}
		s.include = append(s.include, path.Clean(pattern))
	}

	for _, pattern := range s.include {
		matches, err := filepath.Glob(s.diskPath(pattern))
		if err != nil {
			return nil, fmt.Errorf("pathstore: glob %q: %w", pattern, err)
		}
		for _, disk := range matches {
			if err := s.load(disk); err != nil {
				return nil, err
			}
		}
	}
	s.logger.Debug("store opened", "root", root, "include", s.include, "files", len(s.loaded))
	return s, nil
}

func (s *Store) diskPath(p string) string {
	return filepath.Join(s.root, filepath.FromSlash(p))
}

func (s *Store) load(disk string) error {
	info, err := os.Stat(disk)
	if err != nil {
		return fmt.Errorf("pathstore: %w", err)
	}
	if info.IsDir() {
		return nil
	}
	rel, err := filepath.Rel(s.root, disk)
	if err != nil {
		return fmt.Errorf("pathstore: %w", err)
	}
	p := "/" + filepath.ToSlash(rel)
	if _, seen := s.loaded[p]; seen {
		return nil
	}

	content, err := os.ReadFile(disk)
	if err != nil {
		return fmt.Errorf("pathstore: %w", err)
	}
	nodes, err := s.lens.Parse(bytes.NewReader(content))
	if err != nil {
		return fmt.Errorf("pathstore: parse %s: %w", disk, err)
	}

	file := s.mkdirs(p)
	for _, n := range nodes {
		file.Append(n)
	}
	s.loaded[p] = loadedFile{content: content, mode: info.Mode().Perm()}
	s.logger.Debug("loaded file", "path", p, "nodes", len(nodes))
	return nil
}

// mkdirs returns the node for file path p under /files, creating the
// intermediate directory nodes.
func (s *Store) mkdirs(p string) *Node {
	cur := s.tree.child(filesLabel)
	for _, part := range strings.Split(strings.Trim(p, "/"), "/") {
		next := cur.child(part)
		if next == nil {
			next = NewNode(part, "")
			cur.Append(next)
		}
		cur = next
	}
	return cur
}

// Root returns the tree's root node. Callers must not retain it past Close.
func (s *Store) Root() *Node {
	return s.tree
}

// Match returns the canonical paths of every node matching expr, in
// document order.
func (s *Store) Match(expr string) ([]string, error) {
	nodes, err := s.resolve(expr)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = PathOf(n)
	}
	return out, nil
}

// Get returns the value of the single node matching expr.
func (s *Store) Get(expr string) (string, error) {
	nodes, err := s.resolve(expr)
	if err != nil {
		return "", err
	}
	switch len(nodes) {
	case 0:
		return "", fmt.Errorf("%w: %s", ErrNotFound, expr)
	case 1:
		return nodes[0].Value, nil
	default:
		return "", fmt.Errorf("%w: %s (%d nodes)", ErrAmbiguous, expr, len(nodes))
	}
}

// Set assigns value to the single node matching expr, creating it and any
// missing ancestors. A [last()+1] step always creates a new sibling.
func (s *Store) Set(expr, value string) error {
	_, err := s.Write(expr, value, FormAuto)
	return err
}

// Write is Set with an explicit form for the written node. It returns the
// canonical path of that node. FormAuto keeps the form of an existing node.
func (s *Store) Write(expr, value string, form Form) (string, error) {
	if s.closed {
		return "", errors.New("pathstore: store is closed")
	}
	segs, err := parsePath(expr)
	if err != nil {
		return "", err
	}

	current := []*Node{s.tree}
	for i, seg := range segs {
		var next []*Node
		for _, n := range current {
			next = append(next, seg.selectFrom(n)...)
		}
		if len(next) > 0 {
			current = next
			continue
		}
		if len(current) > 1 {
			return "", fmt.Errorf("%w: %s (parent of %s)", ErrAmbiguous, expr, seg)
		}
		leaf, err := create(current[0], segs[i:])
		if err != nil {
			return "", fmt.Errorf("pathstore: set %s: %w", expr, err)
		}
		leaf.Value, leaf.Form = value, form
		s.dirty = append(s.dirty, leaf)
		p := PathOf(leaf)
		s.logger.Debug("created node", "path", p, "value", value)
		return p, nil
	}
	if len(current) > 1 {
		return "", fmt.Errorf("%w: %s (%d nodes)", ErrAmbiguous, expr, len(current))
	}
	n := current[0]
	n.Value = value
	if form != FormAuto {
		n.Form = form
	}
	s.dirty = append(s.dirty, n)
	p := PathOf(n)
	s.logger.Debug("set node", "path", p, "value", value)
	return p, nil
}

// create builds the remaining steps below parent. Every step must name a
// concrete label. Nodes created above the leaf are branches.
func create(parent *Node, segs []segment) (*Node, error) {
	cur := parent
	for i, seg := range segs {
		if seg.isGlob() {
			return nil, fmt.Errorf("cannot create a node from pattern %q", seg.label)
		}
		if seg.kind == predIndex {
			count := 0
			for _, c := range cur.Children {
				if c.Label == seg.label {
					count++
				}
			}
			if seg.index != count+1 {
				return nil, fmt.Errorf("%w: %s", ErrNotFound, seg)
			}
		}
		n := NewNode(seg.label, "")
		if i < len(segs)-1 {
			n.Form = FormBranch
		}
		cur.insertAfterLast(n)
		cur = n
	}
	return cur, nil
}

func (s *Store) resolve(expr string) ([]*Node, error) {
	if s.closed {
		return nil, errors.New("pathstore: store is closed")
	}
	segs, err := parsePath(expr)
	if err != nil {
		return nil, err
	}
	current := []*Node{s.tree}
	for _, seg := range segs {
		var next []*Node
		for _, n := range current {
			next = append(next, seg.selectFrom(n)...)
		}
		if len(next) == 0 {
			return nil, nil
		}
		current = next
	}
	return current, nil
}

// Close releases the tree. Unsaved changes are discarded.
func (s *Store) Close() error {
	s.closed = true
	s.tree = nil
	s.loaded = nil
	s.dirty = nil
	return nil
}
