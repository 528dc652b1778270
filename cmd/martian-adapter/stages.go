package main

import (
	"github.com/gomartian/adapter/adapter"
	"github.com/gomartian/adapter/resource"
	"github.com/gomartian/adapter/rover"
)

// echoArgs/echoOuts/echoStage is a minimal MainOnly stage, registered by
// default so this binary is runnable and testable against a real Host (or
// martiantest) out of the box. A project embedding this module replaces
// newRegistry with its own stage registrations.
type echoArgs struct {
	Message string `json:"message"`
}

type echoOuts struct {
	Message string `json:"message"`
}

type echoStage struct{}

func (echoStage) Main(_ *rover.Rover, args echoArgs) (echoOuts, error) {
	return echoOuts{Message: args.Message}, nil
}

type splitLinesArgs struct {
	Lines []string `json:"lines"`
}

type splitLinesChunkArgs struct {
	Line string `json:"line"`
}

type splitLinesChunkOuts struct {
	Length int `json:"length"`
}

type splitLinesOuts struct {
	TotalLength int `json:"total_length"`
}

type splitLinesStage struct{}

func (splitLinesStage) Split(_ *rover.Rover, args splitLinesArgs) (resource.StageDef[splitLinesChunkArgs], error) {
	stageDef := resource.NewStageDef[splitLinesChunkArgs]()
	for _, line := range args.Lines {
		stageDef = stageDef.AddChunk(splitLinesChunkArgs{Line: line})
	}
	return stageDef, nil
}

func (splitLinesStage) Main(_ *rover.Rover, _ splitLinesArgs, chunkArgs splitLinesChunkArgs) (splitLinesChunkOuts, error) {
	return splitLinesChunkOuts{Length: len(chunkArgs.Line)}, nil
}

func (splitLinesStage) Join(_ *rover.Rover, _ splitLinesArgs, _ []splitLinesChunkArgs, chunkOuts []splitLinesChunkOuts) (splitLinesOuts, error) {
	total := 0
	for _, o := range chunkOuts {
		total += o.Length
	}
	return splitLinesOuts{TotalLength: total}, nil
}

func newRegistry() adapter.Registry {
	reg := adapter.NewRegistry()
	adapter.RegisterMainOnly[echoArgs, echoOuts](reg, "echo", echoStage{})
	adapter.RegisterWithSplit[splitLinesArgs, splitLinesChunkArgs, splitLinesChunkOuts, splitLinesOuts](reg, "split_lines", splitLinesStage{})
	return reg
}
