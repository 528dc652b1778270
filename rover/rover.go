// Package rover provides the per-invocation context handed to user stage
// code: the files directory, granted resources, Host versions, and an alarm
// sink.
package rover

import (
	"context"
	"path/filepath"

	"github.com/gomartian/adapter/filetype"
	"github.com/gomartian/adapter/logger"
)

// Version describes the Host's own version strings, as read from
// _jobinfo.version.
type Version struct {
	Martian   string `json:"martian"`
	Pipelines string `json:"pipelines"`
}

// AlarmSink receives alarm messages raised by user code via Rover.Alarm.
// The metadata Store implements this by appending to _alarm; a Rover built
// directly for unit testing (outside a Store) has none and falls back to a
// warning-level log.
type AlarmSink interface {
	Alarm(msg string) error
}

// Rover is immutable context for the duration of one phase invocation.
type Rover struct {
	filesPath string
	memGB     int
	vmemGB    int
	threads   int
	version   Version
	alarmSink AlarmSink
}

// New builds a Rover. alarmSink may be nil, in which case Alarm logs at
// warning level instead of writing to a sink -- the mode used by the
// in-process test harness and by hand-built test Rovers.
func New(filesPath string, memGB, vmemGB, threads int, version Version, alarmSink AlarmSink) *Rover {
	return &Rover{
		filesPath: filesPath,
		memGB:     memGB,
		vmemGB:    vmemGB,
		threads:   threads,
		version:   version,
		alarmSink: alarmSink,
	}
}

// FilesPath returns the directory user code should write output files into.
func (r *Rover) FilesPath() string { return r.filesPath }

// MemGB returns the granted memory allocation, in gigabytes.
func (r *Rover) MemGB() int { return r.memGB }

// VMemGB returns the granted virtual memory allocation, in gigabytes.
func (r *Rover) VMemGB() int { return r.vmemGB }

// Threads returns the granted thread allocation.
func (r *Rover) Threads() int { return r.threads }

// Version returns the Host's reported version strings.
func (r *Rover) Version() Version { return r.version }

// MakePath joins name onto the files directory. If typ is non-nil and name
// does not already carry typ's extension, the extension is appended.
func (r *Rover) MakePath(name string, typ filetype.MartianFileType) string {
	if typ != nil {
		name = filetype.AppendExtension(name, typ)
	}
	return filepath.Join(r.filesPath, name)
}

// MakePlainPath joins name onto the files directory verbatim, with no
// extension handling -- the path for a plain string/path-typed output.
func (r *Rover) MakePlainPath(name string) string {
	return filepath.Join(r.filesPath, name)
}

// Alarm forwards msg to the alarm sink, or logs it at warning level if this
// Rover has none.
func (r *Rover) Alarm(msg string) error {
	if r.alarmSink == nil {
		logger.FromContext(context.Background()).Warnln(msg)
		return nil
	}
	return r.alarmSink.Alarm(msg)
}
