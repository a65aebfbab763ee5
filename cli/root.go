// Package cli wires configuration, logging and storage into the
// vocal-indicators command line.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	cfg "github.com/maastricht-university/vocal-indicators/config"
	"github.com/maastricht-university/vocal-indicators/history"
	"github.com/maastricht-university/vocal-indicators/orchestrator"
)

type app struct {
	cfgPath string
	conf    *cfg.Root
	log     *logrus.Logger
	store   history.Store
}

// NewRootCmd builds a fresh command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "vocal-indicators",
		Short:         "Voice biomarker scoring and probe scheduling",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			conf, err := cfg.Load(a.cfgPath)
			if err != nil {
				return err
			}
			a.conf = conf
			a.log = newLogger(conf, cmd.ErrOrStderr())
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.cfgPath, "config", "", "config file (default config/$CONFIG_ENV/config.yaml)")

	root.AddCommand(
		newServeCmd(a),
		newAnalyzeCmd(a),
		newScheduleCmd(a),
		newCompleteCmd(a),
		newRiskCmd(a),
		newFluencyCmd(a),
		newCatalogCmd(a),
	)
	return root
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newLogger(conf *cfg.Root, out io.Writer) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(out)
	if conf.Pipeline.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	lvl, err := logrus.ParseLevel(conf.Pipeline.LogLvl)
	if err != nil {
		log.WithField("log_level", conf.Pipeline.LogLvl).Warn("unknown log level, using info")
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	return log
}

// openStore uses SQLite when paths.history_db is set and memory otherwise.
func (a *app) openStore() (history.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	if path := a.conf.Paths.HistoryDB; path != "" {
		s, err := history.NewSQLiteStore(path)
		if err != nil {
			return nil, err
		}
		a.store = s
	} else {
		a.log.Debug("no history_db configured, history is kept in memory")
		a.store = history.NewMemoryStore()
	}
	return a.store, nil
}

// withPipeline runs fn against a pipeline over the configured store and
// closes the store afterwards, whether fn failed or not.
func (a *app) withPipeline(fn func(*orchestrator.Pipeline) error) (err error) {
	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, a.closeStore())
	}()
	return fn(orchestrator.NewPipeline(a.conf, store, a.log))
}

func (a *app) closeStore() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	return err
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
