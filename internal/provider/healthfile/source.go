// Package healthfile serves samples from a health-data export file, for
// offline import and for replaying a capture.
package healthfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/saadjs/kcal-sync/internal/model"
	"gopkg.in/yaml.v3"
)

// Export is the file layout:
//
//	exercise: [{kind, value, timestamp}]
//	weight:   [{kg, timestamp}]
type Export struct {
	Exercise []model.RawExerciseSample `json:"exercise" yaml:"exercise"`
	Weight   []model.RawWeightSample   `json:"weight" yaml:"weight"`
}

type Source struct {
	export Export
}

// Load reads a .json, .yaml or .yml export.
func Load(path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read health export: %w", err)
	}
	exp, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return New(exp), nil
}

func Parse(data []byte, ext string) (Export, error) {
	var exp Export
	switch strings.ToLower(ext) {
	case ".json":
		if err := sonic.Unmarshal(data, &exp); err != nil {
			return Export{}, fmt.Errorf("decode JSON export: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &exp); err != nil {
			return Export{}, fmt.Errorf("decode YAML export: %w", err)
		}
	default:
		return Export{}, fmt.Errorf("unsupported export format %q (use .json or .yaml)", ext)
	}
	return exp, nil
}

func New(exp Export) *Source {
	return &Source{export: exp}
}

func (s *Source) FetchExerciseSamples(ctx context.Context, start, end time.Time) ([]model.RawExerciseSample, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]model.RawExerciseSample, 0)
	for _, e := range s.export.Exercise {
		if within(e.At, start, end) {
			e.At = e.At.Local()
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	return out, nil
}

func (s *Source) FetchWeightSamples(ctx context.Context, start, end time.Time) ([]model.RawWeightSample, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]model.RawWeightSample, 0)
	for _, w := range s.export.Weight {
		if within(w.At, start, end) {
			w.At = w.At.Local()
			out = append(out, w)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	return out, nil
}

// within is half-open: [start, end).
func within(t, start, end time.Time) bool {
	return !t.Before(start) && t.Before(end)
}
