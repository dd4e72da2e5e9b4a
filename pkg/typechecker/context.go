package typechecker

import "apyc/checker-go/pkg/ast"

type frameKind int

const (
	frameModule frameKind = iota
	frameClass
	frameFunction
)

// checkFrame is the per-body state of the checker. Function bodies may be
// inferred on demand from inside another body, so nothing here may leak
// between frames.
type checkFrame struct {
	kind           frameKind
	def            *ast.FunctionDefinition
	declaredReturn Type
	returns        []Type
	narrowed       []map[*Symbol]Type
}

func (c *Checker) pushFrame(frame *checkFrame) {
	c.frames = append(c.frames, frame)
}

func (c *Checker) popFrame() *checkFrame {
	if len(c.frames) == 0 {
		return nil
	}
	last := c.frames[len(c.frames)-1]
	c.frames = c.frames[:len(c.frames)-1]
	return last
}

// currentFrame returns the innermost frame, if any.
func (c *Checker) currentFrame() *checkFrame {
	if len(c.frames) == 0 {
		return nil
	}
	return c.frames[len(c.frames)-1]
}

// inFunction reports whether a return statement is legal at this point.
func (c *Checker) inFunction() bool {
	frame := c.currentFrame()
	return frame != nil && frame.kind == frameFunction
}

func (c *Checker) recordReturn(typ Type) {
	if frame := c.currentFrame(); frame != nil {
		frame.returns = append(frame.returns, typ)
	}
}

func (c *Checker) pushNarrowing(facts map[*Symbol]Type) {
	frame := c.currentFrame()
	if frame == nil {
		return
	}
	frame.narrowed = append(frame.narrowed, facts)
}

func (c *Checker) popNarrowing() {
	frame := c.currentFrame()
	if frame == nil || len(frame.narrowed) == 0 {
		return
	}
	frame.narrowed = frame.narrowed[:len(frame.narrowed)-1]
}

// narrowedType returns the innermost narrowing recorded for sym in the
// current frame.
func (c *Checker) narrowedType(sym *Symbol) (Type, bool) {
	frame := c.currentFrame()
	if frame == nil || sym == nil {
		return nil, false
	}
	for i := len(frame.narrowed) - 1; i >= 0; i-- {
		if typ, ok := frame.narrowed[i][sym]; ok {
			return typ, true
		}
	}
	return nil, false
}
