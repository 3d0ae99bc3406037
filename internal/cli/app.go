package cli

import (
	"fmt"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rehearse-dev/rehearse/internal/capture"
	"github.com/rehearse-dev/rehearse/internal/completion"
	"github.com/rehearse-dev/rehearse/internal/config"
	"github.com/rehearse-dev/rehearse/internal/credential"
	"github.com/rehearse-dev/rehearse/internal/history"
	"github.com/rehearse-dev/rehearse/internal/interview"
	"github.com/rehearse-dev/rehearse/internal/kv"
	"github.com/rehearse-dev/rehearse/internal/log"
	"github.com/rehearse-dev/rehearse/internal/report"
)

// app holds everything a command needs, built from the project config.
type app struct {
	root     string
	cfg      *config.Config
	logger   *zap.Logger
	store    kv.Store
	events   *log.Logger
	registry *prometheus.Registry
	resolver *credential.Resolver
	client   *completion.Client
	history  *history.Store
	session  *interview.Orchestrator
}

// openApp loads the config for the --project directory and wires the
// storage, completion client and orchestrator.
func openApp(cmd *cobra.Command) (*app, error) {
	root, err := projectRoot(cmd)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(root)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logger, err := log.NewZap(debug || cfg.Log.Debug)
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}

	store, err := kv.Open(cfg.Storage, root)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}

	events, err := log.NewLogger(root)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("opening event log: %w", err)
	}

	reg := prometheus.NewRegistry()
	resolver := credential.NewResolver(store, cfg.Completion.DefaultAPIKey, logger)
	client := completion.NewClient(cfg.Completion, resolver, logger, completion.NewMetrics(reg))
	hist := history.NewStore(store)
	synth := report.NewSynthesizer(client, hist, events, logger)
	session := interview.New(client, synth, interview.Options{Events: events, Logger: logger})

	return &app{
		root:     root,
		cfg:      cfg,
		logger:   logger,
		store:    store,
		events:   events,
		registry: reg,
		resolver: resolver,
		client:   client,
		history:  hist,
		session:  session,
	}, nil
}

// Close ends any running session and releases the store.
func (a *app) Close() {
	if err := a.session.Close(); err != nil {
		a.logger.Warn("closing session", zap.Error(err))
	}
	if err := a.store.Close(); err != nil {
		a.logger.Warn("closing store", zap.Error(err))
	}
	_ = a.logger.Sync()
}

// reportsDir is where generated reports are written.
func (a *app) reportsDir() string {
	return report.Dir(a.root)
}

// speaker returns the configured speech command, or nil.
func (a *app) speaker() capture.Speaker {
	if len(a.cfg.Capture.SpeakerCommand) == 0 {
		return nil
	}
	s, err := capture.NewCommandSpeaker(a.cfg.Capture.SpeakerCommand)
	if err != nil {
		a.logger.Warn("speaker disabled", zap.Error(err))
		return nil
	}
	return s
}

// dictation returns a dictation controller feeding the session, or nil
// when no transcriber is configured.
func (a *app) dictation() *capture.Dictation {
	if len(a.cfg.Capture.TranscriberCommand) == 0 {
		return nil
	}
	tr, err := capture.NewCommandTranscriber(a.cfg.Capture.TranscriberCommand)
	if err != nil {
		a.logger.Warn("dictation disabled", zap.Error(err))
		return nil
	}
	return capture.NewDictation(tr, a.session, a.cfg.Capture.SettleDelay(), a.logger)
}

func projectRoot(cmd *cobra.Command) (string, error) {
	dir, err := cmd.Flags().GetString("project")
	if err != nil || dir == "" {
		dir = "."
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("getting project directory: %w", err)
	}
	return abs, nil
}
