// Package synth merges a display selection into the configuration tree as
// new Monitor, Device and Screen blocks.
//
// Each run appends one block per section next to a reference block chosen
// from the existing ones, writes its attributes through the handle of the
// new block, and saves once. Attribute writes are best effort: failures
// are collected in the Report and later writes still happen.
package synth

import (
	"context"
	"log/slog"

	"github.com/dkoosis/sax/internal/logging"
	"github.com/dkoosis/sax/pkg/conftree"
	"github.com/dkoosis/sax/pkg/fault"
	"github.com/dkoosis/sax/pkg/modeline"
)

// Identifiers of the blocks a run creates.
const (
	MonitorIdentifier = "SaX3-monitor"
	DeviceIdentifier  = "SaX3-device"
	ScreenIdentifier  = "SaX3-screen"
)

// Section describes one block kind.
type Section struct {
	Name       string // section label, e.g. "Monitor"
	Fallback   string // fragment used when no block of this kind exists
	Identifier string
}

// Sections lists the block kinds in the order they are written.
var Sections = []Section{
	{Name: "Monitor", Fallback: "99-saxmonitors.conf", Identifier: MonitorIdentifier},
	{Name: "Device", Fallback: "99-saxdevice.conf", Identifier: DeviceIdentifier},
	{Name: "Screen", Fallback: "99-saxscreen.conf", Identifier: ScreenIdentifier},
}

// ModelineSource computes modelines. *modeline.Calculator implements it.
type ModelineSource interface {
	Compute(ctx context.Context, p modeline.Params) (modeline.Spec, error)
}

// Synthesizer writes selections into a tree.
type Synthesizer struct {
	Tree       *conftree.Tree
	Modelines  ModelineSource
	RefreshTag string // default DefaultRefreshTag
	Logger     *slog.Logger
}

// New returns a Synthesizer.
func New(tree *conftree.Tree, modelines ModelineSource, logger *slog.Logger) *Synthesizer {
	return &Synthesizer{Tree: tree, Modelines: modelines, Logger: logger}
}

// SelectReference picks the index of the reference among matches: the last
// i for which matches[i] sorts before matches[i+1], or 0 when there is none.
func SelectReference(matches []conftree.Path) int {
	j := 0
	for i := 0; i+1 < len(matches); i++ {
		if matches[i] < matches[i+1] {
			j = i
		}
	}
	return j
}

// Reference returns the path next to which a new block of section sec is
// appended, and whether the fallback fragment was used.
func (s *Synthesizer) Reference(sec Section) (conftree.Path, bool, error) {
	base := s.Tree.Base()
	fallback := base.Child(sec.Fallback).Child(sec.Name)

	matches, err := s.Tree.Match(base.Child("*").Child(sec.Name).Child("*"))
	if err != nil {
		return fallback, true, err
	}
	if len(matches) == 0 {
		return fallback, true, nil
	}
	ref, ok := matches[SelectReference(matches)].TruncateAt(sec.Name)
	if !ok {
		return fallback, true, nil
	}
	return ref, false, nil
}

// Run appends the Monitor, Device and Screen blocks for sel and saves.
// The error is non-nil only when the context was cancelled before saving
// (fault.KindAborted) or the save failed (fault.KindPersist); individual
// write failures are in the Report.
func (s *Synthesizer) Run(ctx context.Context, sel Selection) (*Report, error) {
	r := &run{
		s:      s,
		ctx:    ctx,
		sel:    sel,
		logger: logging.OrDiscard(s.Logger),
		report: &Report{Selection: sel},
	}

	for _, sec := range Sections {
		if err := ctx.Err(); err != nil {
			return r.report, fault.New(fault.KindAborted, "synthesize", sec.Name, err)
		}
		r.section(sec)
	}

	if err := ctx.Err(); err != nil {
		return r.report, fault.New(fault.KindAborted, "save", string(s.Tree.Base()), err)
	}
	if err := s.Tree.Save(); err != nil {
		return r.report, err
	}
	r.report.Saved = true
	r.logger.Info("configuration saved",
		"blocks", len(r.report.Blocks), "writes", r.report.writeCount(), "failures", len(r.report.Failures))
	return r.report, nil
}

type run struct {
	s      *Synthesizer
	ctx    context.Context
	sel    Selection
	logger *slog.Logger
	report *Report
}

func (r *run) section(sec Section) {
	ref, fallback, err := r.s.Reference(sec)
	if err != nil {
		r.fail(sec.Name, "", ref, err)
	}
	r.logger.Debug("reference selected", "section", sec.Name, "ref", string(ref), "fallback", fallback)

	block, err := r.s.Tree.AppendBlock(ref, sec.Identifier)
	if err != nil {
		r.fail(sec.Name, conftree.IdentifierAttr, ref.Append().Child(conftree.IdentifierAttr).Last(), err)
		return
	}
	result := &BlockResult{
		Section:    sec.Name,
		Identifier: sec.Identifier,
		Reference:  ref,
		Fallback:   fallback,
		Path:       block.Path(),
	}
	r.report.Blocks = append(r.report.Blocks, result)
	result.Writes = append(result.Writes, Write{Attribute: conftree.IdentifierAttr, Path: block.Path().Child(conftree.IdentifierAttr), Value: sec.Identifier})
	r.logger.Info("block appended", "section", sec.Name, "path", string(block.Path()))

	switch sec.Name {
	case "Monitor":
		r.monitor(result, block)
	case "Device":
		r.set(result, block, "Driver", r.sel.Driver, conftree.Quoted)
	case "Screen":
		r.screen(result, block)
	}
}

func (r *run) monitor(result *BlockResult, block *conftree.Block) {
	if r.sel.Advanced {
		r.set(result, block, "HorizSync", r.sel.HorizSync.String(), conftree.Bare)
		r.set(result, block, "VertRefresh", r.sel.VertRefresh.String(), conftree.Bare)
	}
	if r.s.Modelines == nil {
		r.fail("Monitor", "Modeline", block.Path().Child("Modeline"),
			fault.Newf(fault.KindToolInvocation, "compute", "", "no timing tool configured"))
		return
	}
	spec, err := r.s.Modelines.Compute(r.ctx, r.sel.ModelineParams())
	if err != nil {
		r.fail("Monitor", "Modeline", block.Path().Child("Modeline"), err)
		return
	}
	r.set(result, block, "Modeline", spec.String(), conftree.Bare)
}

func (r *run) screen(result *BlockResult, block *conftree.Block) {
	r.set(result, block, "Device", DeviceIdentifier, conftree.Quoted)
	r.set(result, block, "Monitor", MonitorIdentifier, conftree.Quoted)
	r.set(result, block, "DefaultDepth", r.sel.Depth, conftree.Bare)

	display, err := block.AppendChild("Display", "Depth", r.sel.Depth, conftree.Bare)
	if err != nil {
		r.fail("Screen", "Display/Depth", block.Path().Child("Display").Append().Child("Depth"), err)
		return
	}
	result.Writes = append(result.Writes, Write{Attribute: "Display/Depth", Path: display.Path().Child("Depth"), Value: r.sel.Depth})

	tag := r.s.RefreshTag
	if tag == "" {
		tag = DefaultRefreshTag
	}
	r.set(result, display, "Modes", r.sel.Modes(tag), conftree.Quoted)
}

func (r *run) set(result *BlockResult, block *conftree.Block, attr, value string, form conftree.Form) {
	p := block.Path().Child(attr)
	if err := block.Set(attr, value, form); err != nil {
		r.fail(result.Section, attr, p, err)
		return
	}
	result.Writes = append(result.Writes, Write{Attribute: attr, Path: p, Value: value})
}

func (r *run) fail(section, attr string, p conftree.Path, err error) {
	r.logger.Warn("write failed", "section", section, "attribute", attr, "path", string(p), "error", err)
	r.report.Failures = append(r.report.Failures, Failure{Section: section, Attribute: attr, Path: p, Err: err})
}
