package synth

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dkoosis/sax/pkg/conftree"
	"github.com/dkoosis/sax/pkg/fault"
)

// Report describes what a run wrote.
type Report struct {
	Selection Selection      `json:"selection"`
	Blocks    []*BlockResult `json:"blocks"`
	Failures  []Failure      `json:"failures,omitempty"`
	Saved     bool           `json:"saved"`
}

// BlockResult is one appended block.
type BlockResult struct {
	Section    string        `json:"section"`
	Identifier string        `json:"identifier"`
	Reference  conftree.Path `json:"reference"`
	Fallback   bool          `json:"fallback,omitempty"`
	Path       conftree.Path `json:"path"`
	Writes     []Write       `json:"writes"`
}

// Write is one successful attribute write.
type Write struct {
	Attribute string        `json:"attribute"`
	Path      conftree.Path `json:"path"`
	Value     string        `json:"value"`
}

// Failure is one write that did not happen.
type Failure struct {
	Section   string
	Attribute string
	Path      conftree.Path
	Err       error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s %s (%s): %v", f.Section, f.Attribute, f.Path, f.Err)
}

func (f Failure) Unwrap() error {
	return f.Err
}

// MarshalJSON renders the cause as a message and its fault kind.
func (f Failure) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Section   string        `json:"section"`
		Attribute string        `json:"attribute,omitempty"`
		Path      conftree.Path `json:"path"`
		Kind      fault.Kind    `json:"kind,omitempty"`
		Error     string        `json:"error"`
	}{f.Section, f.Attribute, f.Path, fault.KindOf(f.Err), f.Err.Error()})
}

// OK reports whether the run saved with no failed writes.
func (r *Report) OK() bool {
	return r.Saved && len(r.Failures) == 0
}

// Err joins the failures, or returns nil.
func (r *Report) Err() error {
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// Block returns the result for section, or nil when it was not appended.
func (r *Report) Block(section string) *BlockResult {
	for _, b := range r.Blocks {
		if b.Section == section {
			return b
		}
	}
	return nil
}

func (r *Report) writeCount() int {
	n := 0
	for _, b := range r.Blocks {
		n += len(b.Writes)
	}
	return n
}
