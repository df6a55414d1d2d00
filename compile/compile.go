// Package compile orchestrates the fixed pass order that turns a verified
// Function into machine code: legalize, coalesce, liveness, spill, reload,
// then coalesce and liveness again (reload rewrote the layout, so both are
// stale), then color, then emit. Each stage is its own package so it can be
// tested and reasoned about in isolation; this file only sequences them.
package compile

import (
	"crank/cfg"
	"crank/emit"
	"crank/internal/cerr"
	"crank/ir"
	"crank/isa"
	"crank/legalize"
	"crank/regalloc/coalesce"
	"crank/regalloc/color"
	"crank/regalloc/liveness"
	"crank/regalloc/reload"
	"crank/regalloc/spill"
	"crank/verify"

	"github.com/sirupsen/logrus"
)

// Result is one function's compiled output: its machine code and the side
// tables emit produced alongside it.
type Result = emit.Artifact

// Options controls diagnostics only (the target is Function's own argument);
// the zero value compiles with a nil logger (silent).
type Options struct {
	Log *logrus.Logger
}

// Function compiles fn for target, running every pass in order and returning
// the first error any of them reports. verify and legalize errors are
// returned for the caller to report; every later stage is this pipeline's
// own responsibility and panics via cerr.Internal instead, since by then fn
// is expected to satisfy every precondition the earlier stages established.
func Function(fn *ir.Function, target *isa.Config, opts Options) (*Result, error) {
	log := opts.Log
	if log == nil {
		log = logrus.New()
		log.SetOutput(discard{})
	}
	fields := func(stage string, count int) logrus.Fields {
		return logrus.Fields{"func": fn.Name, "stage": stage, "count": count}
	}

	if err := verify.Run(fn); err != nil {
		return nil, cerr.Wrap(err, "verify")
	}

	if err := legalize.Run(fn, target); err != nil {
		return nil, cerr.Wrap(err, "legalize")
	}
	log.WithFields(fields("legalize", len(fn.Encodings))).Debug("legalized")

	mach := target.Machine()
	g := cfg.Build(fn)

	coalesce.Run(fn, g)
	log.WithFields(fields("coalesce", len(fn.VRegOf))).Debug("coalesced")

	info := liveness.Compute(fn, g)
	log.WithFields(fields("liveness", len(info.Ranges))).Debug("computed live ranges")

	spilled := spill.Decide(fn, info, mach.RegInfo())
	log.WithFields(fields("spill", len(spilled))).Debug("spill decision")

	reload.Run(fn, spilled)

	// reload inserted Spill/Fill instructions and new stack-slot entities,
	// invalidating both the VReg grouping and the live ranges computed
	// above; both must be recomputed against the rewritten layout before
	// color can trust them.
	g = cfg.Build(fn)
	coalesce.Run(fn, g)
	info = liveness.Compute(fn, g)

	color.Run(fn, g, info, mach)
	log.WithFields(fields("color", len(fn.Locations))).Debug("colored")

	result := emit.Function(fn, mach)
	log.WithFields(fields("emit", result.Size)).Debug("emitted")
	return result, nil
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
