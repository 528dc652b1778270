// Package martiantest is an in-process harness for exercising a stage's
// split/main/join implementation directly, without a Host process, fd 3/4
// plumbing, or a metadata directory on disk.
package martiantest

import (
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/gomartian/adapter/resource"
	"github.com/gomartian/adapter/rover"
)

// Default resource grant handed to a harness-built Rover when the caller
// doesn't supply its own.
const (
	DefaultMemGB   = 1
	DefaultVMemGB  = 2
	DefaultThreads = 1
)

// NewRover builds a Rover rooted at filesPath with the harness's default
// resource grant and no alarm sink; Rover.Alarm logs at warning level
// instead of writing to a store.
func NewRover(filesPath string) *rover.Rover {
	return rover.New(filesPath, DefaultMemGB, DefaultVMemGB, DefaultThreads, rover.Version{}, nil)
}

// MainOnlyStage mirrors adapter.MainOnlyStage, so a stage implementation
// written against this package doesn't need to import adapter.
type MainOnlyStage[In, Out any] interface {
	Main(r *rover.Rover, args In) (Out, error)
}

// WithSplitStage mirrors adapter.WithSplitStage.
type WithSplitStage[In, ChunkIn, ChunkOut, Out any] interface {
	Split(r *rover.Rover, args In) (resource.StageDef[ChunkIn], error)
	Main(r *rover.Rover, args In, chunkArgs ChunkIn) (ChunkOut, error)
	Join(r *rover.Rover, args In, chunkDefs []ChunkIn, chunkOuts []ChunkOut) (Out, error)
}

// Options configures a WithSplit run.
type Options struct {
	// Parallel runs each chunk's Main call in its own goroutine. Either
	// way, every chunk runs to completion and every failure is reported:
	// Parallel only changes wall-clock time, never which chunks execute.
	Parallel bool
}

// RunMainOnly drives a MainOnly stage. MainOnly has no split or join phase
// to exercise, so this is exactly one call to Main -- the harness exists so
// that tests calling RunMainOnly and RunWithSplit share one calling
// convention.
func RunMainOnly[In, Out any](stage MainOnlyStage[In, Out], rv *rover.Rover, args In) (Out, error) {
	out, err := stage.Main(rv, args)
	if err != nil {
		return out, fmt.Errorf("main: %w", err)
	}
	return out, nil
}

// RunWithSplit drives a WithSplit stage through split, every chunk's main
// (per opts.Parallel), and join, in that order. Join receives chunkOuts in
// the same order as the StageDef's chunks, matching the Host's contract
// that join sees chunk outputs ordered by chunk definition, not by
// completion order.
func RunWithSplit[In, ChunkIn, ChunkOut, Out any](stage WithSplitStage[In, ChunkIn, ChunkOut, Out], rv *rover.Rover, args In, opts Options) (Out, error) {
	var zero Out

	stageDef, err := stage.Split(rv, args)
	if err != nil {
		return zero, fmt.Errorf("split: %w", err)
	}

	n := len(stageDef.Chunks)
	chunkDefs := make([]ChunkIn, n)
	chunkOuts := make([]ChunkOut, n)
	for i, c := range stageDef.Chunks {
		chunkDefs[i] = c.Inputs
	}

	runChunk := func(i int) error {
		out, err := stage.Main(rv, args, chunkDefs[i])
		if err != nil {
			return fmt.Errorf("chunk %d: %w", i, err)
		}
		chunkOuts[i] = out
		return nil
	}

	if err := runChunks(n, opts.Parallel, runChunk); err != nil {
		return zero, err
	}

	out, err := stage.Join(rv, args, chunkDefs, chunkOuts)
	if err != nil {
		return zero, fmt.Errorf("join: %w", err)
	}
	return out, nil
}

// runChunks invokes run(i) for every i in [0,n), either sequentially or
// concurrently, and aggregates every failure (not just the first) into a
// single *multierror.Error so a test failure enumerates every failing
// chunk.
func runChunks(n int, parallel bool, run func(i int) error) error {
	var (
		mu     sync.Mutex
		result error
	)
	record := func(err error) {
		if err == nil {
			return
		}
		mu.Lock()
		result = multierror.Append(result, err)
		mu.Unlock()
	}

	if parallel {
		var g errgroup.Group
		for i := 0; i < n; i++ {
			i := i
			g.Go(func() error {
				record(run(i))
				return nil
			})
		}
		_ = g.Wait() // errors are collected via record, not g's own return
	} else {
		for i := 0; i < n; i++ {
			record(run(i))
		}
	}
	return result
}
