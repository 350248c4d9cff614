package etl

import (
	"context"
	"fmt"
	"time"

	"github.com/BartekS5/metrics-etl/internal/config"
	"github.com/BartekS5/metrics-etl/internal/publish"
	"github.com/BartekS5/metrics-etl/internal/storage"
	"github.com/BartekS5/metrics-etl/pkg/logger"
	"github.com/BartekS5/metrics-etl/pkg/models"
	"github.com/BartekS5/metrics-etl/pkg/telemetry"
	"github.com/sirupsen/logrus"
)

// ConfigLocation points at the pipeline JSON configuration blob.
type ConfigLocation struct {
	Container string
	Path      string
	File      string
}

// Pipeline runs one metric end to end: resolve config, locate the latest
// partitions, extract, transform, validate, load and optionally publish.
type Pipeline struct {
	Recipe    Recipe
	Store     storage.Store
	Extractor Extractor
	Loader    Loader
	Config    ConfigLocation
	DryRun    bool

	// Publisher and Telemetry are optional.
	Publisher publish.Publisher
	Telemetry telemetry.Recorder
}

// RunResult summarizes a finished run.
type RunResult struct {
	Folder    string
	InputRows map[string]int
	Output    *models.Table
	Load      LoadResult
	Published int64
}

// NewPipeline wires the blob extractor and loader to store. An empty config
// file name falls back to the recipe's own.
func NewPipeline(store storage.Store, recipe Recipe, loc ConfigLocation, dryRun bool) *Pipeline {
	if loc.File == "" {
		loc.File = recipe.ConfigFile()
	}
	return &Pipeline{
		Recipe:    recipe,
		Store:     store,
		Extractor: NewBlobExtractor(store),
		Loader:    NewBlobLoader(store),
		Config:    loc,
		DryRun:    dryRun,
		Telemetry: telemetry.Nop{},
	}
}

func (p *Pipeline) step(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	p.Telemetry.RecordStep(name, err, time.Since(start))
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func (p *Pipeline) Run(ctx context.Context) (*RunResult, error) {
	if p.Telemetry == nil {
		p.Telemetry = telemetry.Nop{}
	}
	log := logger.WithFields(logrus.Fields{"metric": p.Recipe.Name()})
	log.Infof("Starting pipeline. Config: %s/%s, DryRun: %v", p.Config.Path, p.Config.File, p.DryRun)
	started := time.Now()

	res := &RunResult{InputRows: make(map[string]int)}

	var binding *config.Binding
	err := p.step("config", func() error {
		cfg, err := config.Resolve(ctx, p.Store, p.Config.Container, p.Config.Path, p.Config.File)
		if err != nil {
			return err
		}
		binding, err = cfg.Bind(p.Recipe.Keys())
		return err
	})
	if err != nil {
		return nil, err
	}

	sources := []*models.Source{&binding.Source}
	if binding.Reference != nil {
		sources = append(sources, binding.Reference)
	}

	err = p.step("locate", func() error {
		for _, src := range sources {
			folder, err := storage.LatestFolder(ctx, p.Store, src.Container, src.Path)
			if err != nil {
				return fmt.Errorf("%s source: %w", src.Role, err)
			}
			src.Folder = folder
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	res.Folder = binding.Source.Folder
	binding.Sink.Folder = binding.Source.Folder
	log.Infof("Latest folder: %s", res.Folder)

	inputs := make(Inputs, len(sources))
	err = p.step("extract", func() error {
		for _, src := range sources {
			t, err := p.Extractor.Extract(ctx, *src)
			if err != nil {
				return err
			}
			inputs[src.Role] = t
			res.InputRows[src.Role] = t.Len()
			p.Telemetry.RecordRows(src.Role, t.Len())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var out *models.Table
	err = p.step("transform", func() error {
		var err error
		out, err = p.Recipe.Transform(inputs)
		if err != nil {
			return err
		}
		return NewValidator(p.Recipe.Checks()).Validate(out, res.InputRows[binding.Source.Role])
	})
	if err != nil {
		return nil, err
	}
	res.Output = out
	p.Telemetry.RecordRows("output", out.Len())

	if p.DryRun {
		content, err := EncodeCSV(out)
		if err != nil {
			return nil, err
		}
		res.Load = LoadResult{
			Path:   models.JoinFolder(binding.Sink.Dir(), binding.Sink.File),
			Rows:   out.Len(),
			Bytes:  len(content),
			Digest: Digest(content),
		}
		log.Infof("[DRY RUN] Would write %d rows (%d bytes, xxh3 %s) to %s", res.Load.Rows, res.Load.Bytes, res.Load.Digest, res.Load.Path)
		return res, nil
	}

	err = p.step("load", func() error {
		var err error
		res.Load, err = p.Loader.Load(ctx, out, binding.Sink)
		return err
	})
	if err != nil {
		return nil, err
	}
	log.Infof("Wrote %d rows (%d bytes, xxh3 %s) to %s", res.Load.Rows, res.Load.Bytes, res.Load.Digest, res.Load.Path)

	if p.Publisher != nil {
		err = p.step("publish", func() error {
			var err error
			res.Published, err = p.Publisher.Publish(ctx, p.Recipe.Name(), p.Recipe.Checks().PeriodColumn, out)
			return err
		})
		if err != nil {
			return nil, err
		}
		log.Infof("Published %d measurements", res.Published)
	}

	p.Telemetry.MarkSuccess(time.Now())
	log.Infof("Pipeline finished successfully in %s.", time.Since(started).Round(time.Millisecond))
	return res, nil
}
