// Command martian-adapter is the process a Host spawns for one stage
// invocation: it parses the five positional arguments the Host passes,
// loads environment configuration, and runs the requested stage/phase
// against the built-in registry.
package main

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/gomartian/adapter/adapter"
	"github.com/gomartian/adapter/config"
)

var version = "dev"

func main() {
	app := kingpin.New("martian-adapter", "Runs a registered stage's split/main/join phase for a Martian-style Host")
	app.HelpFlag.Short('h')
	app.Version(version)
	app.VersionFlag.Short('v')

	var (
		stageName    string
		phase        string
		metadataPath string
		filesPath    string
		runFile      string
		logLevel     string
		heartbeat    time.Duration
	)

	app.Arg("stage_name", "registered stage name").Required().StringVar(&stageName)
	app.Arg("phase", "split, main, or join").Required().EnumVar(&phase, "split", "main", "join")
	app.Arg("metadata_path", "metadata directory").Required().StringVar(&metadataPath)
	app.Arg("files_path", "output files directory").Required().StringVar(&filesPath)
	app.Arg("run_file", "journal marker path prefix").Required().StringVar(&runFile)
	app.Flag("log-level", "log level floor (overrides MARTIAN_LOG_LEVEL)").StringVar(&logLevel)
	app.Flag("heartbeat", "heartbeat journal cadence (overrides MARTIAN_HEARTBEAT_INTERVAL)").DurationVar(&heartbeat)

	kingpin.MustParse(app.Parse(os.Args[1:]))

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Errorln("cannot load adapter configuration")
		os.Exit(1)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if heartbeat != 0 {
		cfg.HeartbeatInterval = heartbeat
	}
	if cfg.Version == "" {
		cfg.Version = version
	}

	code := adapter.Run(
		adapter.Args{
			StageName:    stageName,
			Phase:        phase,
			MetadataPath: metadataPath,
			FilesPath:    filesPath,
			RunFile:      runFile,
		},
		newRegistry(),
		adapter.Options{
			LogLevel:          cfg.ParsedLogLevel(),
			HeartbeatInterval: cfg.HeartbeatInterval,
			Version:           cfg.Version,
		},
	)
	os.Exit(code)
}
