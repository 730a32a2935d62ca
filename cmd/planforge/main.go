// planforge generates a paid-media plan from a client intake and business
// research document, using a multi-phase LLM pipeline with deterministic
// validation between phases.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"planforge/internal/config"
	"planforge/internal/generation"
	"planforge/internal/logging"
	"planforge/internal/pipeline"
	"planforge/internal/plan"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "planforge",
		Short:   "LLM-driven media plan generation with deterministic validation",
		Version: version,
	}
	root.AddCommand(newGenerateCmd())
	return root
}

func newGenerateCmd() *cobra.Command {
	var (
		intakePath   string
		researchPath string
		configPath   string
		outputPath   string
		debug        bool
		quiet        bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a media plan from intake and research documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if debug {
				cfg.Logging.Debug = true
			}
			if err := logging.Initialize(cfg.Logging.Debug); err != nil {
				return err
			}

			var intake plan.Intake
			if err := loadYAML(intakePath, &intake); err != nil {
				return fmt.Errorf("failed to load intake: %w", err)
			}
			var research plan.ResearchDocument
			if researchPath != "" {
				if err := loadYAML(researchPath, &research); err != nil {
					return fmt.Errorf("failed to load research: %w", err)
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			client, err := generation.NewClient(ctx, cfg.LLM)
			if err != nil {
				return err
			}

			events := make(chan pipeline.Event, 64)
			done := make(chan struct{})
			go func() {
				defer close(done)
				for ev := range events {
					if !quiet {
						printEvent(cmd, ev)
					}
				}
			}()

			opts := []pipeline.Option{pipeline.WithEvents(events)}
			if !quiet {
				opts = append(opts, pipeline.WithProgress(func(percent int, message string) {
					fmt.Fprintf(cmd.ErrOrStderr(), "[%3d%%] %s\n", percent, message)
				}))
			}

			orch := pipeline.New(cfg, client, opts...)
			out, runErr := orch.Run(ctx, intake, &research)
			close(events)
			<-done
			if runErr != nil {
				return runErr
			}

			data, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return err
			}
			if outputPath == "" || outputPath == "-" {
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}
			if err := os.WriteFile(outputPath, data, 0644); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "media plan written to %s ($%.4f, %d adjustments)\n",
				outputPath, out.Meta.TotalCostUSD, len(out.Adjustments))
			return nil
		},
	}

	cmd.Flags().StringVarP(&intakePath, "intake", "i", "", "client intake YAML (required)")
	cmd.Flags().StringVarP(&researchPath, "research", "r", "", "business research YAML")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "config YAML")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "-", "output path, - for stdout")
	cmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress progress output")
	cobra.CheckErr(cmd.MarkFlagRequired("intake"))
	return cmd
}

func loadYAML(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, v)
}

func printEvent(cmd *cobra.Command, ev pipeline.Event) {
	w := cmd.ErrOrStderr()
	switch {
	case ev.Status == pipeline.StatusData:
		// Section payloads land in the assembled output; nothing to print.
	case ev.Status == pipeline.StatusFailed && ev.Err != nil:
		fmt.Fprintf(w, "  ✗ %s %s: %v\n", ev.Phase, ev.Section, ev.Err)
	case ev.Section != "":
		mark := "→"
		if ev.Status == pipeline.StatusCompleted {
			mark = "✓"
		}
		fmt.Fprintf(w, "  %s %s\n", mark, ev.Section)
	case ev.Status == pipeline.StatusStarted:
		fmt.Fprintf(w, "%s...\n", ev.Phase)
	}
}
