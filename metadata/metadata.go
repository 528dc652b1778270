// Package metadata implements the on-disk metadata protocol a stage
// invocation speaks to its Host: typed reads and writes of the
// metadata-directory files, atomic journal publication, and the fd-3/fd-4
// log and error sinks.
package metadata

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/gomartian/adapter/internal/atomicfile"
	"github.com/gomartian/adapter/internal/filesystem"
	"github.com/gomartian/adapter/logger"
)

// Version describes the Host's own version strings, as read from
// _jobinfo.version.
type Version struct {
	Martian   string `json:"martian"`
	Pipelines string `json:"pipelines"`
}

// JobInfo is the subset of _jobinfo the core contract defines. Unknown
// fields (Host-specific extensions) are not decoded into it;
// UpdateJobInfo keeps them when it rewrites _jobinfo.
type JobInfo struct {
	Threads int     `json:"threads"`
	MemGB   int     `json:"memGB"`
	VMemGB  int     `json:"vmemGB"`
	Version Version `json:"version"`
}

// AdapterInfo is the identifier block this module stamps into _jobinfo
// under the "go" key, the language-specific sibling of the "rust" key the
// source adapter wrote.
type AdapterInfo struct {
	BinPath      string `json:"binpath"`
	Version      string `json:"version"`
	InvocationID string `json:"invocation_id"`
}

// Store is typed access to one stage invocation's metadata directory. It
// owns the inherited fd-3 (log) and fd-4 (error) file descriptors for the
// lifetime of the phase.
type Store struct {
	fs filesystem.FileSystem

	stageType    string // "split", "main", or "join"
	metadataPath string
	filesPath    string
	runFile      string

	logFile *os.File
	errFile *os.File
	log     *logrus.Entry

	mu     sync.Mutex
	cache  map[string]bool
	closed bool
}

// New builds a Store rooted at metadataPath. logFile and errFile are the
// Host-preopened fd 3 and fd 4 descriptors; log is the entry the Store
// writes formatted log lines through (its output must already be logFile).
func New(fs filesystem.FileSystem, stageType, metadataPath, filesPath, runFile string, logFile, errFile *os.File, log *logrus.Entry) *Store {
	return &Store{
		fs:           fs,
		stageType:    stageType,
		metadataPath: metadataPath,
		filesPath:    filesPath,
		runFile:      runFile,
		logFile:      logFile,
		errFile:      errFile,
		log:          log,
		cache:        map[string]bool{},
	}
}

// FilesPath returns the files directory this invocation should write
// output files into.
func (s *Store) FilesPath() string { return s.filesPath }

// Path returns the path of the metadata file for key, e.g. Path("args")
// is "<metadataPath>/_args".
func (s *Store) Path(key string) string {
	return filepath.Join(s.metadataPath, "_"+key)
}

// ReadJSON decodes the JSON object stored under key into v.
func (s *Store) ReadJSON(key string, v interface{}) error {
	return s.fs.ReadFile(s.Path(key), func(r io.Reader) error {
		return json.NewDecoder(r).Decode(v)
	})
}

// ReadJSONArray decodes the JSON array stored under key into v (v must be a
// pointer to a slice). It is a thin alias over ReadJSON kept distinct to
// mirror the read/readArray split of the on-disk contract.
func (s *Store) ReadJSONArray(key string, v interface{}) error {
	return s.ReadJSON(key, v)
}

// ReadRaw returns the raw bytes stored under key, for callers that need to
// decode the same document into more than one Go type (the _args file
// during main, which carries both stage inputs and chunk inputs flattened
// into one object).
func (s *Store) ReadRaw(key string) ([]byte, error) {
	var data []byte
	err := s.fs.ReadFile(s.Path(key), func(r io.Reader) error {
		b, err := io.ReadAll(r)
		if err != nil {
			return err
		}
		data = b
		return nil
	})
	return data, err
}

// Write truncate-creates the file for key with data, then journals it.
func (s *Store) Write(key string, data []byte) error {
	f, err := s.fs.Create(s.Path(key))
	if err != nil {
		return errors.Wrapf(err, "create metadata file %s", key)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return errors.Wrapf(err, "write metadata file %s", key)
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, "close metadata file %s", key)
	}
	return s.Journal(key, false)
}

// WriteJSON marshals v and writes it under key.
func (s *Store) WriteJSON(key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "marshal %s", key)
	}
	return s.Write(key, data)
}

// Append opens key for append (creating it if necessary), writes msg+"\n",
// and journals once.
func (s *Store) Append(key, msg string) error {
	if err := atomicfile.Append(s.Path(key), []byte(msg+"\n")); err != nil {
		return errors.Wrapf(err, "append to metadata file %s", key)
	}
	return s.Journal(key, false)
}

// journalName is the marker's key component: "<phase>_<key>" unless the
// phase is main, in which case the prefix is omitted.
func (s *Store) journalName(key string) string {
	if s.stageType == "main" {
		return key
	}
	return s.stageType + "_" + key
}

// Journal publishes a marker signalling that key is visible to the Host, by
// writing a timestamp to "<runFile>.<journalName>" via temp-then-rename.
// Repeated calls for the same key are deduplicated unless force is set.
func (s *Store) Journal(key string, force bool) error {
	name := s.journalName(key)

	s.mu.Lock()
	if !force && s.cache[name] {
		s.mu.Unlock()
		return nil
	}
	s.cache[name] = true
	s.mu.Unlock()

	marker := s.runFile + "." + name
	return atomicfile.Write(marker, []byte(makeTimestamp()))
}

// Log formats msg at level and writes it to fd 3 through the configured
// logger entry.
func (s *Store) Log(level logrus.Level, msg string) {
	entry := s.log
	if entry == nil {
		entry = logger.L
	}
	entry.Log(level, msg)
}

// Alarm appends a timestamped message to _alarm.
func (s *Store) Alarm(msg string) error {
	return s.Append("alarm", fmt.Sprintf("%s %s", makeTimestamp(), msg))
}

// Errors writes msg to fd 4, prefixed with "ASSERT:" if isAssert. This is
// the Host's failure signal: any non-empty fd 4 content means the
// invocation failed. The write is best-effort and never itself returns an
// error to the caller -- failures are logged and swallowed, matching the
// failure substrate's "never raise while reporting a failure" rule.
func (s *Store) Errors(msg string, isAssert bool) {
	if isAssert {
		msg = "ASSERT:" + msg
	}
	if _, err := s.errFile.WriteString(msg); err != nil {
		s.Log(logrus.WarnLevel, fmt.Sprintf("failed to write _errors: %v", err))
	}
}

// StackVars best-effort writes data to _stackvars.
func (s *Store) StackVars(data []byte) {
	if err := s.Write("stackvars", data); err != nil {
		s.Log(logrus.WarnLevel, fmt.Sprintf("failed to write _stackvars: %v", err))
	}
}

// CompleteWith writes v under key, then closes fd 4 to signal success to
// the Host. Closing without having written to fd 4 is itself the success
// signal; callers must not write to fd 4 afterward.
func (s *Store) CompleteWith(key string, v interface{}) error {
	if err := s.WriteJSON(key, v); err != nil {
		return err
	}
	return s.Close()
}

// Close closes fd 4, signalling success. It is idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.errFile.Close()
}

// ReadJobInfo reads and decodes _jobinfo.
func (s *Store) ReadJobInfo() (JobInfo, error) {
	var info JobInfo
	if err := s.ReadJSON("jobinfo", &info); err != nil {
		return JobInfo{}, errors.Wrap(err, "read _jobinfo")
	}
	return info, nil
}

// UpdateJobInfo reads _jobinfo, stamps in the adapter's identifier block
// under the "go" key, and writes it back. The original document's other
// keys (including Host extensions this module doesn't model) are preserved.
func (s *Store) UpdateJobInfo(info AdapterInfo) (JobInfo, error) {
	raw := map[string]json.RawMessage{}
	if err := s.ReadJSON("jobinfo", &raw); err != nil {
		return JobInfo{}, errors.Wrap(err, "read _jobinfo")
	}

	var parsed JobInfo
	if err := json.Unmarshal(mustMarshal(raw), &parsed); err != nil {
		return JobInfo{}, errors.Wrap(err, "decode _jobinfo")
	}

	infoJSON, err := json.Marshal(info)
	if err != nil {
		return JobInfo{}, errors.Wrap(err, "marshal adapter info")
	}
	raw["go"] = infoJSON

	if err := s.WriteJSON("jobinfo", raw); err != nil {
		return JobInfo{}, errors.Wrap(err, "write _jobinfo")
	}

	return parsed, nil
}

func mustMarshal(v interface{}) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		// v is always a map[string]json.RawMessage built from a prior
		// successful Unmarshal; re-marshaling it cannot fail.
		panic(err)
	}
	return data
}

// makeTimestamp formats now in the legacy, timezone-less layout shared by
// journal markers and the _alarm sink.
func makeTimestamp() string {
	return time.Now().Format(logger.LegacyTimestampFormat)
}
