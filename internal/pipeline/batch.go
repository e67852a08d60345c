package pipeline

import (
	"context"

	"github.com/oukeidos/nyamanga/internal/apperrors"
	"github.com/oukeidos/nyamanga/internal/logger"
	"github.com/oukeidos/nyamanga/internal/panels"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// LocalizeBatch localizes each image with the shared settings in tmpl and
// saves every result. A failing panel does not stop the others; canceling
// ctx stops panels that have not started yet.
func (p *TypesettingPipeline) LocalizeBatch(ctx context.Context, images []string, tmpl PanelRequest, opts BatchOptions) BatchSummary {
	opts, notes := opts.Normalize()
	for _, note := range notes {
		logger.Warn("Batch options normalized", "detail", note)
	}
	outputFor := opts.OutputFor
	if outputFor == nil {
		outputFor = panels.SafeOutputPath
	}

	var limiter *rate.Limiter
	if opts.QPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.QPS), 1)
	}
	report := func(i int, state BatchState, err error) {
		if opts.OnProgress != nil {
			opts.OnProgress(BatchProgress{Index: i, Total: len(images), ImagePath: images[i], State: state, Err: err})
		}
	}

	items := make([]BatchItem, len(images))
	var g errgroup.Group
	g.SetLimit(opts.Concurrency)

	for i, img := range images {
		items[i] = BatchItem{ImagePath: img}
		if ctx.Err() != nil {
			items[i].State, items[i].Err = BatchCanceled, apperrors.FromContext(ctx.Err())
			report(i, BatchCanceled, items[i].Err)
			continue
		}
		g.Go(func() error {
			item := &items[i]
			if limiter != nil {
				if err := limiter.Wait(ctx); err != nil {
					item.State, item.Err = BatchCanceled, apperrors.New(apperrors.KindCanceled, "", err)
					report(i, BatchCanceled, item.Err)
					return nil
				}
			}
			report(i, BatchStarted, nil)

			req := tmpl
			req.ImagePath = img
			res, err := p.localizeAndSave(ctx, req, outputFor, item)
			item.Result = res
			switch {
			case err == nil:
				item.State = BatchCompleted
			case apperrors.IsCanceled(err):
				item.State = BatchCanceled
			default:
				item.State = BatchFailed
				logger.Warn("Panel failed", "image", img, "error", apperrors.PublicMessage(err))
			}
			item.Err = err
			report(i, item.State, err)
			return nil
		})
	}
	_ = g.Wait()

	summary := BatchSummary{Items: items}
	for _, it := range items {
		switch it.State {
		case BatchCompleted:
			summary.Succeeded++
		case BatchCanceled:
			summary.Canceled++
		default:
			summary.Failed++
		}
	}
	logger.Info("Batch finished", "total", len(items), "succeeded", summary.Succeeded, "failed", summary.Failed, "canceled", summary.Canceled)
	return summary
}

func (p *TypesettingPipeline) localizeAndSave(ctx context.Context, req PanelRequest, outputFor func(string) (string, error), item *BatchItem) (*PanelResult, error) {
	res, err := p.LocalizePanel(ctx, req)
	if err != nil {
		return nil, err
	}
	out, err := outputFor(req.ImagePath)
	if err != nil {
		return res, apperrors.New(apperrors.KindIO, "Could not choose an output path.", err)
	}
	if err := res.Save(out); err != nil {
		return res, err
	}
	item.OutputPath = out
	return res, nil
}
