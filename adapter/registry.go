package adapter

import (
	"encoding/json"

	"github.com/gomartian/adapter/martianerrors"
	"github.com/gomartian/adapter/resource"
	"github.com/gomartian/adapter/rover"
)

// MainOnlyStage is implemented by a stage with only a main phase: given the
// per-invocation Rover and decoded stage inputs, it produces stage outputs
// or an error.
type MainOnlyStage[In, Out any] interface {
	Main(r *rover.Rover, args In) (Out, error)
}

// WithSplitStage is implemented by a stage with all three phases. Split
// shapes the dynamic fan-out; Main runs once per chunk; Join combines
// chunk outputs (in chunk-def order) into the stage's final outputs.
type WithSplitStage[In, ChunkIn, ChunkOut, Out any] interface {
	Split(r *rover.Rover, args In) (resource.StageDef[ChunkIn], error)
	Main(r *rover.Rover, args In, chunkArgs ChunkIn) (ChunkOut, error)
	Join(r *rover.Rover, args In, chunkDefs []ChunkIn, chunkOuts []ChunkOut) (Out, error)
}

// RawStage is the type-erased form every registered stage is reduced to, so
// a Registry can hold stages with unrelated input/output types side by
// side. Split and Join on a MainOnly stage are never dispatched in normal
// operation; they panic if called, mirroring the source's unimplemented
// blanket-impl methods.
type RawStage interface {
	Split(ctx *Context) error
	Main(ctx *Context) error
	Join(ctx *Context) error
}

// Registry maps a stage key (as given by the CLI stage_name argument) to
// its implementation.
type Registry map[string]RawStage

// NewRegistry returns an empty Registry.
func NewRegistry() Registry { return Registry{} }

type mainOnlyAdapter[In, Out any] struct {
	impl MainOnlyStage[In, Out]
}

// RegisterMainOnly adds a MainOnly stage to reg under key.
func RegisterMainOnly[In, Out any](reg Registry, key string, impl MainOnlyStage[In, Out]) {
	reg[key] = mainOnlyAdapter[In, Out]{impl: impl}
}

func (a mainOnlyAdapter[In, Out]) Split(*Context) error {
	panic("MainOnly stage has no split phase")
}

func (a mainOnlyAdapter[In, Out]) Join(*Context) error {
	panic("MainOnly stage has no join phase")
}

func (a mainOnlyAdapter[In, Out]) Main(ctx *Context) error {
	var args In
	if err := ctx.decodeArgs(&args); err != nil {
		return err
	}
	out, err := a.impl.Main(ctx.Rover, args)
	if err != nil {
		return martianerrors.New(martianerrors.UserStage, "stage main failed", err)
	}
	return ctx.complete("outs", out)
}

type withSplitAdapter[In, ChunkIn, ChunkOut, Out any] struct {
	impl WithSplitStage[In, ChunkIn, ChunkOut, Out]
}

// RegisterWithSplit adds a WithSplit stage to reg under key.
func RegisterWithSplit[In, ChunkIn, ChunkOut, Out any](reg Registry, key string, impl WithSplitStage[In, ChunkIn, ChunkOut, Out]) {
	reg[key] = withSplitAdapter[In, ChunkIn, ChunkOut, Out]{impl: impl}
}

func (a withSplitAdapter[In, ChunkIn, ChunkOut, Out]) Split(ctx *Context) error {
	var args In
	if err := ctx.decodeArgs(&args); err != nil {
		return err
	}
	stageDef, err := a.impl.Split(ctx.Rover, args)
	if err != nil {
		return martianerrors.New(martianerrors.UserStage, "stage split failed", err)
	}
	return ctx.complete("stage_defs", stageDef)
}

func (a withSplitAdapter[In, ChunkIn, ChunkOut, Out]) Main(ctx *Context) error {
	raw, err := ctx.Store.ReadRaw("args")
	if err != nil {
		return martianerrors.New(martianerrors.Initialization, "read _args", err)
	}

	var args In
	if err := json.Unmarshal(raw, &args); err != nil {
		return martianerrors.New(martianerrors.Serialization, "decode stage args", err)
	}
	var chunkArgs ChunkIn
	if err := json.Unmarshal(raw, &chunkArgs); err != nil {
		return martianerrors.New(martianerrors.Serialization, "decode chunk args", err)
	}

	out, err := a.impl.Main(ctx.Rover, args, chunkArgs)
	if err != nil {
		return martianerrors.New(martianerrors.UserStage, "stage main failed", err)
	}
	return ctx.complete("outs", out)
}

func (a withSplitAdapter[In, ChunkIn, ChunkOut, Out]) Join(ctx *Context) error {
	var args In
	if err := ctx.decodeArgs(&args); err != nil {
		return err
	}

	var chunkDefs []ChunkIn
	if err := ctx.Store.ReadJSONArray("chunk_defs", &chunkDefs); err != nil {
		return martianerrors.New(martianerrors.Initialization, "read _chunk_defs", err)
	}
	var chunkOuts []ChunkOut
	if err := ctx.Store.ReadJSONArray("chunk_outs", &chunkOuts); err != nil {
		return martianerrors.New(martianerrors.Initialization, "read _chunk_outs", err)
	}

	out, err := a.impl.Join(ctx.Rover, args, chunkDefs, chunkOuts)
	if err != nil {
		return martianerrors.New(martianerrors.UserStage, "stage join failed", err)
	}
	return ctx.complete("outs", out)
}
