package cli

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/maastricht-university/vocal-indicators/fluency"
	"github.com/maastricht-university/vocal-indicators/httpapi"
	"github.com/maastricht-university/vocal-indicators/indicators"
	"github.com/maastricht-university/vocal-indicators/microtask"
	"github.com/maastricht-university/vocal-indicators/orchestrator"
)

func newServeCmd(a *app) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if port == 0 {
				port = a.conf.Server.Port
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.withPipeline(func(pipe *orchestrator.Pipeline) error {
				return httpapi.Run(ctx, port, httpapi.New(pipe, a.log).Handler(), a.log)
			})
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "listen port (default server.port)")
	return cmd
}

func newAnalyzeCmd(a *app) *cobra.Command {
	var req orchestrator.ProbeRequest
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze one recorded probe and persist the outcome",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if req.AudioPath != "" {
				if _, err := os.Stat(req.AudioPath); err != nil {
					return fmt.Errorf("audio: %w", err)
				}
			}
			return a.withPipeline(func(pipe *orchestrator.Pipeline) error {
				out, err := pipe.RunProbe(cmd.Context(), req)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), out)
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.TaskID, "task", "", "probe id")
	f.StringVar(&req.AudioPath, "audio", "", "path to the recording")
	f.StringVar(&req.PatientID, "patient", "", "patient id")
	f.StringVar(&req.Gender, "gender", "", "male or female (default engine.default_gender)")
	f.StringVar(&req.Language, "lang", "", "language tag (default engine.default_language)")
	f.StringVar(&req.Transcript, "transcript", "", "transcript overriding ASR")
	f.StringVar(&req.SessionID, "session", "", "session id (default: new uuid)")
	_ = cmd.MarkFlagRequired("task")
	return cmd
}

type scheduledTask struct {
	ID          string `json:"id"`
	DurationSec int    `json:"duration_sec"`
	Description string `json:"description"`
	Prompt      string `json:"prompt"`
}

func newScheduleCmd(a *app) *cobra.Command {
	var (
		patient   string
		period    int
		completed []string
		lang      string
		turn      int
	)
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Pick the probes for a patient's next session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if period < 1 {
				return fmt.Errorf("--period must be >= 1")
			}
			return a.withPipeline(func(pipe *orchestrator.Pipeline) error {
				tasks, err := pipe.Schedule(cmd.Context(), patient, period, completed)
				if err != nil {
					return err
				}
				out := make([]scheduledTask, 0, len(tasks))
				for i, d := range tasks {
					out = append(out, scheduledTask{
						ID:          d.ID,
						DurationSec: d.DurationSec,
						Description: d.Description,
						Prompt:      microtask.EmbedPrompt(d.ID, lang, turn+i),
					})
				}
				return printJSON(cmd.OutOrStdout(), out)
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&patient, "patient", "", "patient id")
	f.IntVar(&period, "period", 0, "current period (week number)")
	f.StringSliceVar(&completed, "completed", nil, "probes already run this session")
	f.StringVar(&lang, "lang", "en", "prompt language")
	f.IntVar(&turn, "turn", 0, "conversation turn the first probe lands on")
	_ = cmd.MarkFlagRequired("patient")
	_ = cmd.MarkFlagRequired("period")
	return cmd
}

func newCompleteCmd(a *app) *cobra.Command {
	var (
		patient, task string
		period        int
	)
	cmd := &cobra.Command{
		Use:   "complete",
		Short: "Record that a probe was administered",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withPipeline(func(pipe *orchestrator.Pipeline) error {
				if err := pipe.Complete(cmd.Context(), patient, task, period); err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), microtask.Completion{TaskID: task, Period: period})
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&patient, "patient", "", "patient id")
	f.StringVar(&task, "task", "", "probe id")
	f.IntVar(&period, "period", 0, "period the probe ran in")
	for _, n := range []string{"patient", "task", "period"} {
		_ = cmd.MarkFlagRequired(n)
	}
	return cmd
}

func newRiskCmd(a *app) *cobra.Command {
	var (
		patient string
		set     map[string]string
	)
	cmd := &cobra.Command{
		Use:     "risk",
		Short:   "Set a patient's monitored conditions",
		Example: "  vocal-indicators risk --patient p1 --set parkinson=true,alzheimer=false",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := make(map[indicators.Condition]bool, len(set))
			for k, v := range set {
				b, err := strconv.ParseBool(v)
				if err != nil {
					return fmt.Errorf("--set %s: %w", k, err)
				}
				flags[indicators.Condition(strings.ToLower(k))] = b
			}
			return a.withPipeline(func(pipe *orchestrator.Pipeline) error {
				if err := pipe.SetRiskFlags(cmd.Context(), patient, flags); err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), flags)
			})
		},
	}
	cmd.Flags().StringVar(&patient, "patient", "", "patient id")
	cmd.Flags().StringToStringVar(&set, "set", nil, "condition=bool pairs")
	_ = cmd.MarkFlagRequired("patient")
	_ = cmd.MarkFlagRequired("set")
	return cmd
}

func newFluencyCmd(a *app) *cobra.Command {
	var lang string
	cmd := &cobra.Command{
		Use:   "fluency [transcript...]",
		Short: "Score a category fluency transcript (reads stdin without arguments)",
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if len(args) == 0 {
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				text = string(b)
			}
			if lang == "" {
				lang = a.conf.Engine.DefaultLanguage
			}
			return printJSON(cmd.OutOrStdout(), fluency.Analyze(text, lang).Rounded())
		},
	}
	cmd.Flags().StringVar(&lang, "lang", "", "language tag (default engine.default_language)")
	return cmd
}

func newCatalogCmd(*app) *cobra.Command {
	var (
		source string
		tasks  bool
	)
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the indicator catalog, or the probes with --tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if tasks {
				return printJSON(cmd.OutOrStdout(), microtask.All())
			}
			defs := indicators.Default().All()
			if source != "" {
				filtered := defs[:0]
				for _, d := range defs {
					if d.Source == indicators.Source(source) {
						filtered = append(filtered, d)
					}
				}
				defs = filtered
			}
			return printJSON(cmd.OutOrStdout(), defs)
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "only indicators from this source")
	cmd.Flags().BoolVar(&tasks, "tasks", false, "list probes instead of indicators")
	return cmd
}
