// Package pipeline sequences one media upload end to end: classify,
// compress, upload. Image compression failures degrade to storing the
// original; video compression failures stop the item. Batches run
// sequentially with per-item isolation.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"racenotes/internal/logging"
	"racenotes/internal/media"
	"racenotes/internal/media/imaging"
	"racenotes/internal/media/videoenc"
	"racenotes/internal/services"
)

// Progress checkpoints reported per item.
const (
	ProgressAccepted   = 0
	ProgressClassified = 25
	ProgressCompressed = 75
	ProgressStored     = 100
)

// ProgressFunc receives per-item checkpoint percentages.
type ProgressFunc func(percent int)

// ImageCompressor is the image stage as the pipeline sees it.
type ImageCompressor interface {
	Compress(ctx context.Context, data []byte, filename string) imaging.Result
}

// Uploader stores a payload and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, data []byte, filename string) (string, error)
}

// Item is one file handed to the pipeline.
type Item struct {
	Filename string
	Data     []byte
}

// Outcome describes how one item fared. Err is nil on success; a failed
// item never has a URL.
type Outcome struct {
	Filename       string
	StoredFilename string
	URL            string
	Kind           media.Kind
	// CompressionSkipped is set when the image stage fell back to the
	// original payload. Videos never skip; their failures are terminal.
	CompressionSkipped bool
	SkipReason         string
	OriginalBytes      int
	StoredBytes        int
	Err                error
}

// Failed reports whether the item was rejected or errored.
func (o Outcome) Failed() bool { return o.Err != nil }

// Pipeline wires the stages together. All collaborators are injected.
type Pipeline struct {
	images  ImageCompressor
	videos  videoenc.Transcoder
	uploads Uploader
	logger  *slog.Logger
}

// New builds a pipeline over the given stages.
func New(images ImageCompressor, videos videoenc.Transcoder, uploads Uploader, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		images:  images,
		videos:  videos,
		uploads: uploads,
		logger:  logging.NewComponentLogger(logger, "pipeline"),
	}
}

// Process runs one item through classify, compress, and upload. progress may
// be nil.
func (p *Pipeline) Process(ctx context.Context, item Item, progress ProgressFunc) Outcome {
	ctx = services.WithFilename(ctx, item.Filename)
	report(progress, ProgressAccepted)

	outcome := Outcome{
		Filename:      item.Filename,
		OriginalBytes: len(item.Data),
	}

	// The extension allowlist is enforced at upload construction; the
	// pipeline classifies a wider set (HEIC, M4V) but never lets an
	// oversize payload past this point.
	if len(item.Data) > media.MaxUploadBytes {
		outcome.Err = services.Wrap(services.ErrValidation, "pipeline", "accept",
			fmt.Sprintf("file too large: %.1fMB > %.0fMB",
				media.SizeMB(int64(len(item.Data))), media.SizeMB(media.MaxUploadBytes)), nil)
		return outcome
	}
	kind, err := media.Classify(item.Filename)
	if err != nil {
		outcome.Err = err
		return outcome
	}
	outcome.Kind = kind
	report(progress, ProgressClassified)

	data := item.Data
	name := item.Filename
	switch kind {
	case media.KindImage:
		result := p.images.Compress(ctx, data, name)
		data = result.Data
		name = result.Filename
		outcome.CompressionSkipped = result.Skipped
		outcome.SkipReason = result.Reason
	case media.KindVideo:
		result, err := p.videos.Compress(ctx, data, name)
		if err != nil {
			outcome.Err = err
			return outcome
		}
		data = result.Data
		name = result.Filename
	}
	outcome.StoredFilename = name
	outcome.StoredBytes = len(data)
	report(progress, ProgressCompressed)

	url, err := p.uploads.Upload(ctx, data, name)
	if err != nil {
		outcome.Err = err
		return outcome
	}
	outcome.URL = url
	report(progress, ProgressStored)

	p.logger.Info("media stored",
		logging.String(logging.FieldFilename, item.Filename),
		logging.String("kind", string(kind)),
		logging.Int("original_bytes", outcome.OriginalBytes),
		logging.Int("stored_bytes", outcome.StoredBytes),
		logging.Bool("compression_skipped", outcome.CompressionSkipped),
	)
	return outcome
}

// BatchProgressFunc receives the item index alongside its checkpoint.
type BatchProgressFunc func(index, percent int)

// ProcessBatch runs the items in order, one at a time. A failed item is
// recorded in its outcome and never stops the rest of the batch. Outcomes
// are returned in input order, one per item.
func (p *Pipeline) ProcessBatch(ctx context.Context, items []Item, progress BatchProgressFunc) []Outcome {
	outcomes := make([]Outcome, 0, len(items))
	for index, item := range items {
		itemCtx := services.WithBatchIndex(ctx, index)
		var itemProgress ProgressFunc
		if progress != nil {
			i := index
			itemProgress = func(percent int) { progress(i, percent) }
		}
		outcome := p.Process(itemCtx, item, itemProgress)
		if outcome.Failed() {
			logging.ErrorWithContext(p.logger, "batch item failed", "batch_item_failed",
				logging.String(logging.FieldFilename, item.Filename),
				logging.Int(logging.FieldBatchIndex, index),
				logging.Error(outcome.Err),
			)
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

func report(progress ProgressFunc, percent int) {
	if progress != nil {
		progress(percent)
	}
}
