package pathstore

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

type pendingWrite struct {
	path    string
	content []byte
}

// Save writes every new file and every loaded file containing a node
// changed since the last save, unless its rendering equals the disk
// content. All files are rendered before any is written; a render failure
// writes nothing. Each file is replaced atomically through a temporary
// file in the same directory.
func (s *Store) Save() error {
	if s.closed {
		return errors.New("pathstore: store is closed")
	}
	files, err := s.fileNodes()
	if err != nil {
		return err
	}

	var pending []pendingWrite
	for _, f := range files {
		prev, loaded := s.loaded[f.path]
		if loaded && !s.touched(f.Node) {
			continue
		}
		var buf bytes.Buffer
		if err := s.lens.Render(&buf, f.Children); err != nil {
			return fmt.Errorf("pathstore: render %s: %w", f.path, err)
		}
		if loaded && bytes.Equal(prev.content, buf.Bytes()) {
			continue
		}
		pending = append(pending, pendingWrite{path: f.path, content: buf.Bytes()})
	}

	var errs []error
	for _, w := range pending {
		mode := os.FileMode(0o644)
		if prev, ok := s.loaded[w.path]; ok {
			mode = prev.mode
		}
		if err := writeAtomic(s.diskPath(w.path), w.content, mode); err != nil {
			errs = append(errs, fmt.Errorf("pathstore: write %s: %w", w.path, err))
			continue
		}
		s.loaded[w.path] = loadedFile{content: w.content, mode: mode}
		s.logger.Debug("saved file", "path", w.path, "bytes", len(w.content))
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	s.dirty = nil
	return nil
}

// touched reports whether any node changed since the last save lies
// inside file.
func (s *Store) touched(file *Node) bool {
	for _, n := range s.dirty {
		for cur := n; cur != nil; cur = cur.parent {
			if cur == file {
				return true
			}
		}
	}
	return false
}

type fileNode struct {
	*Node
	path string
}

// fileNodes finds the nodes under /files that correspond to files, either
// loaded or newly created. A subtree that no include pattern covers is an
// error, as it could never be written.
func (s *Store) fileNodes() ([]fileNode, error) {
	var (
		out  []fileNode
		errs []error
	)
	var visit func(n *Node, p string)
	visit = func(n *Node, p string) {
		if s.included(p) {
			out = append(out, fileNode{Node: n, path: p})
			return
		}
		if len(n.Children) == 0 {
			return
		}
		if !s.couldInclude(p) {
			errs = append(errs, fmt.Errorf("pathstore: %s is not covered by any include pattern", "/"+filesLabel+p))
			return
		}
		for _, c := range n.Children {
			visit(c, p+"/"+c.Label)
		}
	}
	for _, c := range s.tree.child(filesLabel).Children {
		visit(c, "/"+c.Label)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

func (s *Store) included(p string) bool {
	for _, pattern := range s.include {
		if ok, _ := path.Match(pattern, p); ok {
			return true
		}
	}
	return false
}

// couldInclude reports whether some pattern may match a descendant of
// directory p.
func (s *Store) couldInclude(p string) bool {
	depth := strings.Count(p, "/")
	for _, pattern := range s.include {
		parts := strings.Split(pattern, "/")
		if len(parts)-1 <= depth {
			continue
		}
		prefix := strings.Join(parts[:depth+1], "/")
		if ok, _ := path.Match(prefix, p); ok {
			return true
		}
	}
	return false
}

func writeAtomic(dest string, content []byte, mode os.FileMode) (err error) {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dest)+".*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			os.Remove(tmp.Name())
		}
	}()
	if _, err = tmp.Write(content); err != nil {
		tmp.Close()
		return err
	}
	if err = tmp.Chmod(mode); err != nil {
		tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dest)
}
