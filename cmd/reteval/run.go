package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/reteval/internal/config"
	"github.com/kailas-cloud/reteval/internal/domain/report"
	logpkg "github.com/kailas-cloud/reteval/internal/logger"
	analysisuc "github.com/kailas-cloud/reteval/internal/usecase/analysis"
)

type runOptions struct {
	dataset          string
	instructionModel string
	inputModel       string
	outputDir        string
	topK             []int
	workers          int
}

func newRunCmd(global *globalOptions) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a retrieval analysis over a dataset of instruction/input pairs",
		Example: `  reteval run --dataset data/personas.jsonl
  reteval run --dataset data/pairs.parquet --instruction-model e5-large-v2 -k 1 -k 5 -k 10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := global.bootstrap(ctx, func(cfg *config.Config) {
				if opts.outputDir != "" {
					cfg.Evaluation.OutputDir = opts.outputDir
				}
				if cmd.Flags().Changed("k") {
					cfg.Evaluation.TopK = opts.topK
				}
				if opts.workers > 0 {
					cfg.Evaluation.Workers = opts.workers
				}
			})
			if err != nil {
				return err
			}
			defer a.close()

			ctx = logpkg.ContextWithLogger(ctx, a.logger)
			rep, err := a.analysis(a.evaluator(nil)).Run(ctx, analysisuc.Request{
				Dataset:          opts.dataset,
				InstructionModel: opts.instructionModel,
				InputModel:       opts.inputModel,
			})
			if err != nil {
				return fmt.Errorf("retrieval analysis: %w", err)
			}

			printReport(cmd.OutOrStdout(), rep, a.files.SummaryPath())
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.dataset, "dataset", "", "dataset file (.jsonl, .json or .parquet)")
	f.StringVar(&opts.instructionModel, "instruction-model", "", "model alias or ID for instructions (default from config)")
	f.StringVar(&opts.inputModel, "input-model", "", "model alias or ID for inputs (default from config)")
	f.StringVar(&opts.outputDir, "output-dir", "", "directory for report files (default from config)")
	f.IntSliceVarP(&opts.topK, "k", "k", nil, "Top-K cutoffs to report (repeatable)")
	f.IntVar(&opts.workers, "workers", 0, "goroutines used for scoring (default from config)")
	_ = cmd.MarkFlagRequired("dataset")

	return cmd
}

func printReport(w io.Writer, rep report.Report, summaryPath string) {
	meta := rep.Metadata()
	fmt.Fprintf(w, "Report %s (%d queries)\n", rep.ID(), rep.Queries())
	fmt.Fprintf(w, "Instruction model: %s\n", meta.InstructionModel)
	fmt.Fprintf(w, "Input model:       %s\n", meta.InputModel)
	for _, tk := range rep.TopK() {
		fmt.Fprintf(w, "Top-%d Accuracy: %.4f\n", tk.K, tk.Accuracy)
	}
	fmt.Fprintf(w, "MRR: %.4f\n", rep.MRR())
	fmt.Fprintf(w, "Summary written to %s\n", summaryPath)
}
