// Package conftree is the configuration tree used by the synthesizer: a
// thin, error-classifying facade over a path-addressed store of
// xorg.conf.d fragments.
package conftree

import (
	"errors"
	"fmt"
	"log/slog"
	"path"

	"github.com/dkoosis/sax/internal/logging"
	"github.com/dkoosis/sax/pkg/fault"
	"github.com/dkoosis/sax/pkg/pathstore"
	"github.com/dkoosis/sax/pkg/xorgconf"
)

const (
	// DefaultFilter selects the fragments loaded into the tree.
	DefaultFilter = "/etc/X11/xorg.conf.d/*.conf"

	// FilesPrefix is where files are mounted in the tree.
	FilesPrefix Path = "/files"
)

var (
	// ErrNotFound is returned by Get when no node matches.
	ErrNotFound = pathstore.ErrNotFound

	// ErrAmbiguous is returned when a path names more than one node.
	ErrAmbiguous = pathstore.ErrAmbiguous
)

// Form controls how a written value appears in its fragment.
type Form = pathstore.Form

// Forms for Set and Write.
const (
	Auto   = pathstore.FormAuto
	Quoted = pathstore.FormQuoted
	Bare   = pathstore.FormBare
)

// Store is the backend a Tree drives. *pathstore.Store implements it.
type Store interface {
	Match(expr string) ([]string, error)
	Get(expr string) (string, error)
	// Write sets the node at expr, creating it when missing, and returns
	// the node's canonical path.
	Write(expr, value string, form Form) (string, error)
	Save() error
	Close() error
}

// Options configure Open.
type Options struct {
	Root   string         // filesystem root, default "/"
	Filter string         // file glob, default DefaultFilter
	Lens   pathstore.Lens // default xorgconf.Lens
	Logger *slog.Logger
}

func (o Options) filter() string {
	if o.Filter == "" {
		return DefaultFilter
	}
	return o.Filter
}

// Tree is an open configuration tree.
type Tree struct {
	store  Store
	base   Path
	logger *slog.Logger
}

// Open loads the files selected by opts. Failures are fault.KindStoreOpen.
func Open(opts Options) (*Tree, error) {
	lens := opts.Lens
	if lens == nil {
		lens = xorgconf.Lens{}
	}
	filter := opts.filter()
	store, err := pathstore.Open(pathstore.Options{
		Root:    opts.Root,
		Include: []string{filter},
		Lens:    lens,
		Logger:  opts.Logger,
	})
	if err != nil {
		return nil, fault.New(fault.KindStoreOpen, "open", filter, err)
	}
	return New(store, FilesPrefix.Child(trimSlash(path.Dir(filter))), opts.Logger), nil
}

// New wraps an already open store. base is the tree path of the directory
// holding the fragments, e.g. /files/etc/X11/xorg.conf.d.
func New(store Store, base Path, logger *slog.Logger) *Tree {
	return &Tree{store: store, base: base, logger: logging.OrDiscard(logger)}
}

// With opens a tree, runs fn and closes the tree on every exit path.
func With(opts Options, fn func(*Tree) error) (err error) {
	t, err := Open(opts)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, t.Close())
	}()
	return fn(t)
}

func trimSlash(s string) string {
	for len(s) > 0 && s[0] == '/' {
		s = s[1:]
	}
	return s
}

// Base returns the tree path of the fragment directory.
func (t *Tree) Base() Path {
	return t.base
}

// Match returns every path matching pattern in document order.
func (t *Tree) Match(pattern Path) ([]Path, error) {
	raw, err := t.store.Match(string(pattern))
	if err != nil {
		return nil, fault.New(fault.KindStoreAccess, "match", string(pattern), err)
	}
	out := make([]Path, len(raw))
	for i, p := range raw {
		out[i] = Path(p)
	}
	return out, nil
}

// Get returns the value at p. A missing node is ErrNotFound.
func (t *Tree) Get(p Path) (string, error) {
	v, err := t.store.Get(string(p))
	if err != nil {
		return "", fault.New(fault.KindStoreAccess, "get", string(p), err)
	}
	return v, nil
}

// Set writes value at p, creating missing nodes. The value is quoted or
// not by the lens's rules, keeping the form of an existing node.
func (t *Tree) Set(p Path, value string) error {
	_, err := t.Write(p, value, Auto)
	return err
}

// Write is Set with an explicit form. It returns the concrete path of the
// node written.
func (t *Tree) Write(p Path, value string, form Form) (Path, error) {
	written, err := t.store.Write(string(p), value, form)
	if err != nil {
		t.logger.Warn("set failed", "path", string(p), "value", value, "error", err)
		return "", fault.New(fault.KindStoreAccess, "set", string(p), err)
	}
	t.logger.Debug("set", "path", written, "value", value)
	return Path(written), nil
}

// Save persists every staged change. Failures are fault.KindPersist.
func (t *Tree) Save() error {
	if err := t.store.Save(); err != nil {
		t.logger.Error("save failed", "error", err)
		return fault.New(fault.KindPersist, "save", string(t.base), err)
	}
	t.logger.Debug("saved", "base", string(t.base))
	return nil
}

// Close releases the store. Unsaved changes are lost.
func (t *Tree) Close() error {
	if err := t.store.Close(); err != nil {
		return fault.New(fault.KindStoreAccess, "close", string(t.base), err)
	}
	return nil
}

// Entry is one node reported by Entries.
type Entry struct {
	Path  Path   `json:"path"`
	Value string `json:"value,omitempty"`
	Depth int    `json:"depth"`
}

// Entries lists every node matching pattern followed by its descendants,
// depth first.
func (t *Tree) Entries(pattern Path) ([]Entry, error) {
	tops, err := t.Match(pattern)
	if err != nil {
		return nil, err
	}
	var out []Entry
	var visit func(p Path, depth int) error
	visit = func(p Path, depth int) error {
		v, err := t.Get(p)
		if err != nil {
			return err
		}
		out = append(out, Entry{Path: p, Value: v, Depth: depth})
		children, err := t.Match(p.Child("*"))
		if err != nil {
			return err
		}
		for _, c := range children {
			if err := visit(c, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	for _, p := range tops {
		if err := visit(p, 0); err != nil {
			return nil, fmt.Errorf("list %s: %w", p, err)
		}
	}
	return out, nil
}
