package config

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/BartekS5/metrics-etl/pkg/models"
)

// ErrMissingKey is returned by Bind when the configuration lacks keys a
// metric depends on.
var ErrMissingKey = errors.New("missing configuration key")

// PipelineConfig is the JSON document describing source and sink locations:
//
//	{"pipeline": {"name": "...", "adl_file_system": "...",
//	  "project": {"source_path": "...", "source_file": "...",
//	    "databricks": [{"sink_path": "...", "sink_file": "..."}]}}}
type PipelineConfig struct {
	Pipeline Pipeline `json:"pipeline"`
}

type Pipeline struct {
	Name       string  `json:"name"`
	FileSystem string  `json:"adl_file_system"`
	Project    Project `json:"project"`
}

// Project keeps the string-valued project keys by name together with the
// ordered sink list.
type Project struct {
	Values map[string]string
	Sinks  []SinkConfig
}

type SinkConfig struct {
	Path string `json:"sink_path"`
	File string `json:"sink_file"`
}

// sinkListKey is the project key holding the ordered sink descriptors.
const sinkListKey = "databricks"

func (p *Project) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	p.Values = make(map[string]string, len(raw))
	for key, msg := range raw {
		if key == sinkListKey {
			if err := json.Unmarshal(msg, &p.Sinks); err != nil {
				return fmt.Errorf("project.%s: %w", sinkListKey, err)
			}
			continue
		}
		var s string
		if err := json.Unmarshal(msg, &s); err == nil {
			p.Values[key] = s
		}
	}
	return nil
}

// Get returns a non-empty project value.
func (p Project) Get(key string) (string, bool) {
	v, ok := p.Values[key]
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

// Downloader fetches one blob; the storage clients satisfy it.
type Downloader interface {
	Download(ctx context.Context, container, dir, name string) ([]byte, error)
}

// Resolve downloads and parses the pipeline configuration blob.
func Resolve(ctx context.Context, store Downloader, container, dir, name string) (*PipelineConfig, error) {
	data, err := store.Download(ctx, container, dir, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read pipeline config '%s/%s': %w", dir, name, err)
	}
	cfg, err := ParsePipeline(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pipeline config '%s/%s': %w", dir, name, err)
	}
	return cfg, nil
}

func ParsePipeline(data []byte) (*PipelineConfig, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	var cfg PipelineConfig
	if err := dec.Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SourceKeys names the project keys locating one input dataset.
type SourceKeys struct {
	Role     string
	PathKey  string
	FileKey  string
	Format   models.Format
	Required []string
}

// Keys is the typed mapping a metric declares against the configuration.
type Keys struct {
	Source    SourceKeys
	Reference *SourceKeys
	SinkIndex int
}

// Binding is the validated view of the configuration for one metric run.
type Binding struct {
	Container string
	Source    models.Source
	Reference *models.Source
	Sink      models.Sink
}

// Bind checks every key the metric needs and reports all that are missing at once.
func (c *PipelineConfig) Bind(keys Keys) (*Binding, error) {
	var missing []string
	need := func(key string) string {
		v, ok := c.Pipeline.Project.Get(key)
		if !ok {
			missing = append(missing, "pipeline.project."+key)
		}
		return v
	}

	container := c.Pipeline.FileSystem
	if strings.TrimSpace(container) == "" {
		missing = append(missing, "pipeline.adl_file_system")
	}

	source := func(k SourceKeys) models.Source {
		file := need(k.FileKey)
		format := k.Format
		if format == "" {
			format = models.FormatFromFilename(file)
		}
		return models.Source{
			Role:      k.Role,
			Container: container,
			Path:      need(k.PathKey),
			File:      file,
			Format:    format,
			Required:  k.Required,
		}
	}

	b := &Binding{Container: container, Source: source(keys.Source)}
	if keys.Reference != nil {
		ref := source(*keys.Reference)
		b.Reference = &ref
	}

	sinks := c.Pipeline.Project.Sinks
	switch {
	case keys.SinkIndex < 0 || keys.SinkIndex >= len(sinks):
		missing = append(missing, fmt.Sprintf("pipeline.project.%s[%d]", sinkListKey, keys.SinkIndex))
	default:
		s := sinks[keys.SinkIndex]
		if s.Path == "" {
			missing = append(missing, fmt.Sprintf("pipeline.project.%s[%d].sink_path", sinkListKey, keys.SinkIndex))
		}
		if s.File == "" {
			missing = append(missing, fmt.Sprintf("pipeline.project.%s[%d].sink_file", sinkListKey, keys.SinkIndex))
		}
		b.Sink = models.Sink{Container: container, Path: s.Path, File: s.File}
	}

	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("%w: %s", ErrMissingKey, strings.Join(missing, ", "))
	}
	return b, nil
}
