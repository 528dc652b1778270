// Package adapter implements the stage lifecycle runner: the top-level
// entry point that a Host-spawned process calls after parsing its CLI
// arguments. It dispatches split/main/join, wires the metadata store, the
// logging and heartbeat subsystems, and the panic/error reporting
// substrate described by the failure taxonomy.
package adapter

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/gofrs/uuid"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/sirupsen/logrus"

	"github.com/gomartian/adapter/internal/filesystem"
	"github.com/gomartian/adapter/logger"
	"github.com/gomartian/adapter/martianerrors"
	"github.com/gomartian/adapter/metadata"
	"github.com/gomartian/adapter/rover"
)

// Args are the five positional arguments the Host invokes an adapter
// process with.
type Args struct {
	StageName    string
	Phase        string // "split", "main", or "join"
	MetadataPath string
	FilesPath    string
	RunFile      string
}

// Options configures one Run invocation. The zero value is usable: it logs
// at Warn level to fd 3/fd 4, never classifies an error as an assert, and
// uses the default heartbeat cadence.
type Options struct {
	LogLevel          logrus.Level
	IsAssert          martianerrors.IsAssertFunc
	HeartbeatInterval time.Duration
	// Version is stamped into _jobinfo's adapter identifier block.
	Version string

	// Filesystem overrides the metadata store's file-system seam; nil
	// means the real disk.
	Filesystem filesystem.FileSystem
	// LogFile and ErrFile override fd 3 / fd 4, for testing; nil means
	// the Host-preopened descriptors.
	LogFile *os.File
	ErrFile *os.File
}

// Run is the adapter's top-level entry point. It returns the process exit
// code the caller should pass to os.Exit: 0 on success, 1 on any failure
// (missing stage, deserialization failure, user error, or panic).
func Run(args Args, registry Registry, opts Options) int {
	logFile := opts.LogFile
	if logFile == nil {
		logFile = os.NewFile(3, "martian_log")
	}
	errFile := opts.ErrFile
	if errFile == nil {
		errFile = os.NewFile(4, "martian_errors")
	}

	logLevel := opts.LogLevel
	if logLevel == 0 {
		logLevel = logrus.WarnLevel
	}
	logrusLogger := logger.Init(logFile, logLevel, logger.LegacyTimestampFormat)
	entry := logrus.NewEntry(logrusLogger)

	fs := opts.Filesystem
	if fs == nil {
		fs = filesystem.New()
	}

	store := metadata.New(fs, args.Phase, args.MetadataPath, args.FilesPath, args.RunFile, logFile, errFile, entry)

	invocationID, err := uuid.NewV4()
	if err != nil {
		// extremely unlikely; fall back to the zero UUID rather than
		// failing the whole invocation over an identifier.
		invocationID = uuid.Nil
	}
	binPath, _ := os.Executable()

	jobInfo, err := store.UpdateJobInfo(metadata.AdapterInfo{
		BinPath:      binPath,
		Version:      opts.Version,
		InvocationID: invocationID.String(),
	})
	if err != nil {
		store.Errors(fmt.Sprintf("IO Error initializing stage: %v", err), false)
		return 1
	}

	stage, ok := registry[args.StageName]
	if !ok {
		store.Errors(fmt.Sprintf("Couldn't find requested Martian stage: %s", args.StageName), false)
		return 1
	}

	rv := rover.New(args.FilesPath, jobInfo.MemGB, jobInfo.VMemGB, jobInfo.Threads,
		rover.Version{Martian: jobInfo.Version.Martian, Pipelines: jobInfo.Version.Pipelines}, store)

	heartbeatCtx, cancelHeartbeat := context.WithCancel(context.Background())
	heartbeat := metadata.NewHeartbeat(store, opts.HeartbeatInterval)
	heartbeat.Start(heartbeatCtx)
	defer func() {
		cancelHeartbeat()
		heartbeat.Stop()
	}()

	phaseErr := dispatch(stage, &Context{Store: store, Rover: rv}, args.Phase, entry)
	if phaseErr == nil {
		return 0
	}

	isAssert := opts.IsAssert
	if isAssert == nil {
		isAssert = martianerrors.Never
	}
	stack := martianerrors.StackOf(phaseErr)
	if line := memoryPressureLine(); line != "" {
		stack = stack + "\n" + line
	}
	store.StackVars([]byte(stack))
	store.Errors(phaseErr.Error(), isAssert(phaseErr))
	return 1
}

// memoryPressureLine best-effort reports system memory pressure at the
// moment of failure, to help a human reading _stackvars distinguish an
// OOM-adjacent failure from a pure logic error. Its own errors are
// swallowed; this is purely additive diagnostic text.
func memoryPressureLine() string {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return ""
	}
	return fmt.Sprintf("memory at failure: used=%.1f%% available=%dMB total=%dMB",
		vm.UsedPercent, vm.Available/1024/1024, vm.Total/1024/1024)
}

// dispatch calls the phase method for phase on stage, recovering a panic
// into the same reporting path a returned error takes: a backtrace written
// to _stackvars, a formatted message logged and written to fd 4.
func dispatch(stage RawStage, ctx *Context, phase string, log *logrus.Entry) (phaseErr error) {
	defer func() {
		if r := recover(); r != nil {
			stack := debug.Stack()
			msg := fmt.Sprintf("stage failed unexpectedly: '%v'", r)
			log.WithField("stack", string(stack)).Error(msg)
			phaseErr = &martianerrors.Error{Kind: martianerrors.Panic, Message: msg, Stack: string(stack)}
		}
	}()

	switch phase {
	case "split":
		return stage.Split(ctx)
	case "main":
		return stage.Main(ctx)
	case "join":
		return stage.Join(ctx)
	default:
		panic("unrecognized stage phase: " + phase)
	}
}
