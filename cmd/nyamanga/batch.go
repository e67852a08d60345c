package main

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/oukeidos/nyamanga/internal/apperrors"
	"github.com/oukeidos/nyamanga/internal/display"
	"github.com/oukeidos/nyamanga/internal/logger"
	"github.com/oukeidos/nyamanga/internal/panels"
	"github.com/oukeidos/nyamanga/internal/pipeline"
	"github.com/spf13/cobra"
)

const progressNameWidth = 40

type batchOptions struct {
	panelFlags
	concurrency int
	qps         float64
}

func newBatchCmd(g *globalOptions) *cobra.Command {
	opts := &batchOptions{}
	cmd := &cobra.Command{
		Use:   "batch <folder>",
		Short: "Auto-localize every panel image in a folder",
		Long: "Auto-localize every panel image in a folder.\n" +
			"Results are written next to each image as {name}_localized{ext}; " +
			"existing results are kept unless -y is given.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, args[0], g, opts)
		},
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	cmd.Flags().StringVar(&opts.targetLanguage, "target-language", "zh", "Target language")
	addPlacementFlags(cmd, &opts.panelFlags)
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", pipeline.DefaultConcurrency,
		fmt.Sprintf("Number of panels processed at once (%d-%d)", pipeline.MinConcurrency, pipeline.MaxConcurrency))
	cmd.Flags().Float64Var(&opts.qps, "qps", pipeline.DefaultQPS, "Maximum requests started per second (0 disables the limit)")
	return cmd
}

func runBatch(cmd *cobra.Command, folder string, g *globalOptions, opts *batchOptions) error {
	images, err := panels.ListImages(folder)
	if err != nil {
		return err
	}
	if opts.maskPath != "" {
		return apperrors.New(apperrors.KindValidation, "A mask applies to one panel and cannot be used with batch.", nil)
	}

	p, err := openPipeline(cmd, g)
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()

	out := cmd.OutOrStdout()
	var mu sync.Mutex
	batchOpts := pipeline.BatchOptions{
		Concurrency: opts.concurrency,
		QPS:         opts.qps,
		OnProgress: func(pr pipeline.BatchProgress) {
			mu.Lock()
			defer mu.Unlock()
			name := display.TruncateMiddle(filepath.Base(pr.ImagePath), progressNameWidth)
			if pr.Err != nil {
				fmt.Fprintf(out, "[%d/%d] %s: %s (%s)\n", pr.Index+1, pr.Total, name, pr.State, apperrors.PublicMessage(pr.Err))
				return
			}
			fmt.Fprintf(out, "[%d/%d] %s: %s\n", pr.Index+1, pr.Total, name, pr.State)
		},
	}
	if g.yes {
		batchOpts.OutputFor = func(img string) (string, error) { return panels.OutputPath(img), nil }
	}

	summary := p.LocalizeBatch(ctx, images, opts.request("", ""), batchOpts)
	hints := map[string]bool{}
	for _, it := range summary.Items {
		if it.State == pipeline.BatchCompleted {
			fmt.Fprintf(out, "Edited image saved to %s\n", it.OutputPath)
		}
		if hint := errorHint(it.Err); hint != "" && !hints[hint] {
			hints[hint] = true
			logger.Warn(hint)
		}
	}
	fmt.Fprintf(out, "Done: %d succeeded, %d failed, %d canceled (of %d)\n",
		summary.Succeeded, summary.Failed, summary.Canceled, summary.Total())

	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d panels failed", summary.Failed, summary.Total())
	}
	return nil
}
