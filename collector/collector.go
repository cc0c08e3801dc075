package collector

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/previewkit/errors"
	"github.com/kbukum/previewkit/logger"
	"github.com/kbukum/previewkit/manifest"
	"github.com/kbukum/previewkit/observability"
	"github.com/kbukum/previewkit/pipeline"
	"github.com/kbukum/previewkit/storage"
	"github.com/kbukum/previewkit/thumbnail"
	"github.com/kbukum/previewkit/workqueue"
)

// Run states reported by Status.
const (
	StateIdle     = "idle"
	StateRunning  = "running"
	StateFinished = "finished"
)

// Collector turns a list of image URLs into stored thumbnails.
type Collector struct {
	fetch       Fetcher
	store       storage.ByteClient
	size        thumbnail.Size
	thumbOpts   thumbnail.Options
	pool        pipeline.Config
	pattern     string
	manifestKey string

	log       *logger.Logger
	observers []pipeline.Observer
	now       func() time.Time

	echoMu sync.Mutex
	echo   io.Writer

	mu      sync.Mutex
	current *runState
}

type runState struct {
	id       string
	inputs   int
	counters *pipeline.Counters
	started  time.Time
	elapsed  time.Duration
	finished bool
}

// Option configures a Collector.
type Option func(*Collector)

// WithLogger sets the logger. It is also handed to the pipeline.
func WithLogger(l *logger.Logger) Option {
	return func(c *Collector) { c.log = l }
}

// WithObserver adds a pipeline observer such as progress bars or metrics.
func WithObserver(obs pipeline.Observer) Option {
	return func(c *Collector) {
		if obs != nil {
			c.observers = append(c.observers, obs)
		}
	}
}

// WithEcho prints "Created <key>" to w for every stored thumbnail.
func WithEcho(w io.Writer) Option {
	return func(c *Collector) { c.echo = w }
}

// WithClock overrides the clock used for manifest timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Collector) { c.now = now }
}

// New creates a Collector for a validated cfg. Thumbnails are fetched
// with fetch and stored in store.
func New(cfg *Config, fetch Fetcher, store storage.ByteClient, opts ...Option) (*Collector, error) {
	if fetch == nil || store == nil {
		return nil, errors.SetupFailed("collector dependencies", fmt.Errorf("fetcher and store are required"))
	}
	size, err := thumbnail.ParseSize(cfg.Size)
	if err != nil {
		return nil, err
	}
	if err := checkNamePattern(cfg.NamePattern); err != nil {
		return nil, err
	}

	consumers := cfg.Consumers
	if consumers == 0 {
		consumers = cfg.Producers
	}
	c := &Collector{
		fetch:     fetch,
		store:     store,
		size:      size,
		thumbOpts: thumbnail.Options{Quality: cfg.Quality, MaxPixels: cfg.MaxPixels},
		pool:      pipeline.Config{Producers: cfg.Producers, Consumers: consumers},
		pattern:   cfg.NamePattern,
		now:       time.Now,
	}
	if !cfg.NoManifest {
		c.manifestKey = manifest.DefaultKey
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.Get("collector")
	}
	return c, nil
}

// Key returns the storage key of the thumbnail for the URL on line.
func (c *Collector) Key(line int) string {
	return fmt.Sprintf(c.pattern, line)
}

// Run processes urls, numbering them by position. See RunSources.
func (c *Collector) Run(ctx context.Context, urls []string) (*Result, error) {
	return c.RunSources(ctx, Sources(urls))
}

// RunSources processes srcs and returns the outcome. Thumbnails, manifest
// entries and the report's index lists use each source's line number.
// Per-URL failures are counted and recorded in the manifest; they never
// fail the run. The error is non-nil when the run could not start, was
// canceled, or the manifest could not be written. A canceled run still
// returns its partial Result.
func (c *Collector) RunSources(ctx context.Context, srcs []Source) (*Result, error) {
	state, err := c.begin(len(srcs))
	if err != nil {
		return nil, err
	}

	ctx, span := observability.StartSpan(ctx, "collector.run")
	defer span.End()
	observability.SetSpanAttribute(ctx, "run_id", state.id)
	observability.SetSpanAttribute(ctx, "inputs", len(srcs))
	observability.SetSpanAttribute(ctx, "size", c.size.String())

	entries := manifest.NewBuilder()

	produce := func(ctx context.Context, _ int, src Source) (*Download, error) {
		return c.download(ctx, entries, src)
	}
	consume := func(ctx context.Context, item workqueue.Item[*Download]) error {
		return c.persist(ctx, entries, item)
	}

	opts := []pipeline.Option{
		pipeline.WithLogger(c.log),
		pipeline.WithRunID(state.id),
		pipeline.WithCounters(state.counters),
	}
	for _, obs := range c.observers {
		opts = append(opts, pipeline.WithObserver(obs))
	}

	report, runErr := pipeline.Run(ctx, srcs, c.pool, produce, consume, opts...)
	c.end(state)
	if report == nil {
		observability.SetSpanError(ctx, runErr)
		return nil, runErr
	}
	report.Dropped = toLines(srcs, report.Dropped)
	report.Failed = toLines(srcs, report.Failed)

	res := &Result{
		Report:   report,
		Manifest: entries.Build(state.id, c.size.String(), c.now()),
	}
	if c.manifestKey != "" {
		if err := manifest.Write(context.WithoutCancel(ctx), c.store, c.manifestKey, res.Manifest); err != nil {
			c.log.Error("manifest not written", logger.Fields(logger.FieldError, err.Error()))
			if runErr == nil {
				runErr = err
			}
		} else {
			res.ManifestKey = c.manifestKey
		}
	}

	observability.SetSpanAttribute(ctx, "created", report.Created)
	observability.SetSpanAttribute(ctx, "errors", report.Errors)
	if runErr != nil {
		observability.SetSpanError(ctx, runErr)
	}
	return res, runErr
}

func (c *Collector) download(ctx context.Context, entries *manifest.Builder, src Source) (*Download, error) {
	c.log.Debug("working on file", logger.ItemFields(src.Line, src.URL))

	resp, err := c.fetch.Get(ctx, src.URL)
	if err != nil {
		ferr := errors.FetchFailed(src.Line, src.URL, err)
		entries.Add(failedEntry(src.Line, src.URL, manifest.StatusFetchFailed, 0, ferr))
		return nil, ferr
	}

	d := newDownload(src, resp)
	c.log.Debug("downloaded", logger.Extend(logger.ItemFields(src.Line, src.URL),
		"content_type", d.ContentType, logger.FieldBytes, d.Size))
	return d, nil
}

func (c *Collector) persist(ctx context.Context, entries *manifest.Builder, item workqueue.Item[*Download]) error {
	d := item.Payload
	line := d.Line

	thumb, err := thumbnail.Make(d.Body, c.size, c.thumbOpts)
	if err != nil {
		terr := errors.TransformFailed(line, err)
		entries.Add(failedEntry(line, d.URL, manifest.StatusTransformFailed, d.Size, terr))
		return terr
	}

	key := c.Key(line)
	if err := c.store.Upload(ctx, key, thumb.Data); err != nil {
		perr := errors.PersistFailed(line, key, err)
		entries.Add(failedEntry(line, d.URL, manifest.StatusPersistFailed, d.Size, perr))
		return perr
	}

	sum := manifest.Digest(thumb.Data)
	entries.Add(manifest.Entry{
		Index:        line,
		URL:          d.URL,
		Status:       manifest.StatusCreated,
		Key:          key,
		Bytes:        d.Size,
		Format:       thumb.Source.Format,
		SourceWidth:  thumb.Source.Width,
		SourceHeight: thumb.Source.Height,
		Width:        thumb.Width,
		Height:       thumb.Height,
		Fingerprint:  manifest.Fingerprint(d.Body),
		Checksum:     &sum,
	})

	c.log.Debug("thumbnail stored", logger.Extend(logger.ItemFields(line, d.URL),
		logger.FieldKey, key,
		"source", fmt.Sprintf("%dx%d", thumb.Source.Width, thumb.Source.Height),
		"thumbnail", fmt.Sprintf("%dx%d", thumb.Width, thumb.Height)))
	c.printCreated(key)
	return nil
}

func (c *Collector) printCreated(key string) {
	if c.echo == nil {
		return
	}
	c.echoMu.Lock()
	fmt.Fprintf(c.echo, "Created %s\n", key)
	c.echoMu.Unlock()
}

// toLines maps pipeline input positions onto source line numbers.
func toLines(srcs []Source, positions []int) []int {
	if positions == nil {
		return nil
	}
	out := make([]int, len(positions))
	for i, p := range positions {
		out[i] = srcs[p].Line
	}
	return out
}

func failedEntry(index int, rawURL string, status manifest.Status, size int64, err *errors.AppError) manifest.Entry {
	return manifest.Entry{
		Index:  index,
		URL:    rawURL,
		Status: status,
		Bytes:  size,
		Code:   string(err.Code),
		Error:  err.Error(),
	}
}

func (c *Collector) begin(inputs int) (*runState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != nil && !c.current.finished {
		return nil, errors.Coordination("a run is already in progress", nil)
	}
	c.current = &runState{
		id:       uuid.NewString(),
		inputs:   inputs,
		counters: &pipeline.Counters{},
		started:  time.Now(),
	}
	return c.current, nil
}

func (c *Collector) end(state *runState) {
	c.mu.Lock()
	state.finished = true
	state.elapsed = time.Since(state.started)
	c.mu.Unlock()
}
