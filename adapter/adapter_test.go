package adapter_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gomartian/adapter/adapter"
	"github.com/gomartian/adapter/martianerrors"
	"github.com/gomartian/adapter/resource"
	"github.com/gomartian/adapter/rover"
)

type sumSquaresArgs struct {
	Values []float64 `json:"values"`
}

type sumSquaresOuts struct {
	SumSq float64 `json:"sum_sq"`
}

type sumSquaresMainOnly struct{}

func (sumSquaresMainOnly) Main(_ *rover.Rover, args sumSquaresArgs) (sumSquaresOuts, error) {
	var sum float64
	for _, v := range args.Values {
		sum += v * v
	}
	return sumSquaresOuts{SumSq: sum}, nil
}

func setupInvocation(t *testing.T, jobInfoJSON string) (adapter.Args, *os.File, *os.File) {
	t.Helper()
	metadataDir := t.TempDir()
	filesDir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(metadataDir, "_jobinfo"), []byte(jobInfoJSON), 0o644))

	logFile, err := os.CreateTemp(metadataDir, "log")
	require.NoError(t, err)
	errFile, err := os.CreateTemp(metadataDir, "err")
	require.NoError(t, err)

	return adapter.Args{
		MetadataPath: metadataDir,
		FilesPath:    filesDir,
		RunFile:      filepath.Join(metadataDir, "run"),
	}, logFile, errFile
}

const defaultJobInfo = `{"threads":1,"memGB":1,"vmemGB":2,"version":{"martian":"4.0","pipelines":"1.0"}}`

func TestRunMainOnlySumSquares(t *testing.T) {
	args, logFile, errFile := setupInvocation(t, defaultJobInfo)
	args.StageName = "sum_squares"
	args.Phase = "main"
	require.NoError(t, os.WriteFile(filepath.Join(args.MetadataPath, "_args"), []byte(`{"values":[1.0,2.0,3.0,4.0]}`), 0o644))

	registry := adapter.NewRegistry()
	adapter.RegisterMainOnly[sumSquaresArgs, sumSquaresOuts](registry, "sum_squares", sumSquaresMainOnly{})

	code := adapter.Run(args, registry, adapter.Options{LogFile: logFile, ErrFile: errFile})
	require.Equal(t, 0, code)

	outs, err := os.ReadFile(filepath.Join(args.MetadataPath, "_outs"))
	require.NoError(t, err)
	require.JSONEq(t, `{"sum_sq":30}`, string(outs))

	errContent, err := os.ReadFile(errFile.Name())
	require.NoError(t, err)
	require.Empty(t, errContent)
}

type squareChunkArgs struct {
	Value float64 `json:"value"`
}

type squareChunkOuts struct {
	Square float64 `json:"square"`
}

type sumSquaresWithSplit struct{}

func (sumSquaresWithSplit) Split(_ *rover.Rover, args sumSquaresArgs) (resource.StageDef[squareChunkArgs], error) {
	stageDef := resource.NewStageDef[squareChunkArgs]()
	for _, v := range args.Values {
		stageDef = stageDef.AddChunkWithResource(squareChunkArgs{Value: v}, resource.New().WithMemGB(1).WithThreads(1))
	}
	return stageDef, nil
}

func (sumSquaresWithSplit) Main(_ *rover.Rover, _ sumSquaresArgs, chunkArgs squareChunkArgs) (squareChunkOuts, error) {
	return squareChunkOuts{Square: chunkArgs.Value * chunkArgs.Value}, nil
}

func (sumSquaresWithSplit) Join(_ *rover.Rover, _ sumSquaresArgs, _ []squareChunkArgs, chunkOuts []squareChunkOuts) (sumSquaresOuts, error) {
	var sum float64
	for _, o := range chunkOuts {
		sum += o.Square
	}
	return sumSquaresOuts{SumSq: sum}, nil
}

func TestRunWithSplitSumSquaresSplitPhase(t *testing.T) {
	args, logFile, errFile := setupInvocation(t, defaultJobInfo)
	args.StageName = "sum_squares_split"
	args.Phase = "split"
	require.NoError(t, os.WriteFile(filepath.Join(args.MetadataPath, "_args"), []byte(`{"values":[1.0,2.0,3.0,4.0]}`), 0o644))

	registry := adapter.NewRegistry()
	adapter.RegisterWithSplit[sumSquaresArgs, squareChunkArgs, squareChunkOuts, sumSquaresOuts](registry, "sum_squares_split", sumSquaresWithSplit{})

	code := adapter.Run(args, registry, adapter.Options{LogFile: logFile, ErrFile: errFile})
	require.Equal(t, 0, code)

	stageDefs, err := os.ReadFile(filepath.Join(args.MetadataPath, "_stage_defs"))
	require.NoError(t, err)
	require.JSONEq(t, `{"chunks":[
		{"value":1,"__mem_gb":1,"__threads":1},
		{"value":2,"__mem_gb":1,"__threads":1},
		{"value":3,"__mem_gb":1,"__threads":1},
		{"value":4,"__mem_gb":1,"__threads":1}
	],"join":{}}`, string(stageDefs))
}

func TestRunWithSplitSumSquaresMainPhase(t *testing.T) {
	args, logFile, errFile := setupInvocation(t, defaultJobInfo)
	args.StageName = "sum_squares_split"
	args.Phase = "main"
	require.NoError(t, os.WriteFile(filepath.Join(args.MetadataPath, "_args"), []byte(`{"values":[1.0,2.0,3.0,4.0],"value":3.0,"__mem_gb":1,"__threads":1}`), 0o644))

	registry := adapter.NewRegistry()
	adapter.RegisterWithSplit[sumSquaresArgs, squareChunkArgs, squareChunkOuts, sumSquaresOuts](registry, "sum_squares_split", sumSquaresWithSplit{})

	code := adapter.Run(args, registry, adapter.Options{LogFile: logFile, ErrFile: errFile})
	require.Equal(t, 0, code)

	outs, err := os.ReadFile(filepath.Join(args.MetadataPath, "_outs"))
	require.NoError(t, err)
	require.JSONEq(t, `{"square":9}`, string(outs))
}

func TestRunWithSplitSumSquaresJoinPhase(t *testing.T) {
	args, logFile, errFile := setupInvocation(t, defaultJobInfo)
	args.StageName = "sum_squares_split"
	args.Phase = "join"
	require.NoError(t, os.WriteFile(filepath.Join(args.MetadataPath, "_args"), []byte(`{"values":[1.0,2.0,3.0,4.0]}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(args.MetadataPath, "_chunk_defs"), []byte(`[{"value":1.0},{"value":2.0},{"value":3.0},{"value":4.0}]`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(args.MetadataPath, "_chunk_outs"), []byte(`[{"square":1.0},{"square":4.0},{"square":9.0},{"square":16.0}]`), 0o644))

	registry := adapter.NewRegistry()
	adapter.RegisterWithSplit[sumSquaresArgs, squareChunkArgs, squareChunkOuts, sumSquaresOuts](registry, "sum_squares_split", sumSquaresWithSplit{})

	code := adapter.Run(args, registry, adapter.Options{LogFile: logFile, ErrFile: errFile})
	require.Equal(t, 0, code)

	outs, err := os.ReadFile(filepath.Join(args.MetadataPath, "_outs"))
	require.NoError(t, err)
	require.JSONEq(t, `{"sum_sq":30}`, string(outs))
}

type assertingStage struct{}

var errConfigBroken = errors.New("configuration is broken")

func (assertingStage) Main(_ *rover.Rover, _ sumSquaresArgs) (sumSquaresOuts, error) {
	return sumSquaresOuts{}, errConfigBroken
}

func TestRunClassifiedAssert(t *testing.T) {
	args, logFile, errFile := setupInvocation(t, defaultJobInfo)
	args.StageName = "asserting"
	args.Phase = "main"
	require.NoError(t, os.WriteFile(filepath.Join(args.MetadataPath, "_args"), []byte(`{"values":[]}`), 0o644))

	registry := adapter.NewRegistry()
	adapter.RegisterMainOnly[sumSquaresArgs, sumSquaresOuts](registry, "asserting", assertingStage{})

	isAssert := func(err error) bool {
		return martianerrors.KindOf(err) == martianerrors.UserStage
	}

	code := adapter.Run(args, registry, adapter.Options{LogFile: logFile, ErrFile: errFile, IsAssert: isAssert})
	require.Equal(t, 1, code)

	errContent, err := os.ReadFile(errFile.Name())
	require.NoError(t, err)
	require.Contains(t, string(errContent), "ASSERT:")

	stackvars, err := os.ReadFile(filepath.Join(args.MetadataPath, "_stackvars"))
	require.NoError(t, err)
	require.NotEmpty(t, stackvars)
}

func TestRunMissingStage(t *testing.T) {
	args, logFile, errFile := setupInvocation(t, defaultJobInfo)
	args.StageName = "nonexistent"
	args.Phase = "main"

	registry := adapter.NewRegistry()

	code := adapter.Run(args, registry, adapter.Options{LogFile: logFile, ErrFile: errFile})
	require.Equal(t, 1, code)

	errContent, err := os.ReadFile(errFile.Name())
	require.NoError(t, err)
	require.Contains(t, string(errContent), "nonexistent")

	_, err = os.Stat(filepath.Join(args.MetadataPath, "_outs"))
	require.True(t, os.IsNotExist(err))
}

type panickingStage struct{}

func (panickingStage) Main(_ *rover.Rover, _ sumSquaresArgs) (sumSquaresOuts, error) {
	panic("boom")
}

func TestRunRecoversPanic(t *testing.T) {
	args, logFile, errFile := setupInvocation(t, defaultJobInfo)
	args.StageName = "panicker"
	args.Phase = "main"
	require.NoError(t, os.WriteFile(filepath.Join(args.MetadataPath, "_args"), []byte(`{"values":[]}`), 0o644))

	registry := adapter.NewRegistry()
	adapter.RegisterMainOnly[sumSquaresArgs, sumSquaresOuts](registry, "panicker", panickingStage{})

	code := adapter.Run(args, registry, adapter.Options{LogFile: logFile, ErrFile: errFile})
	require.Equal(t, 1, code)

	errContent, err := os.ReadFile(errFile.Name())
	require.NoError(t, err)
	require.Contains(t, string(errContent), "boom")
}
