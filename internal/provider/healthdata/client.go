// Package healthdata reads energy and body-weight samples from a health-data
// HTTP gateway.
package healthdata

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/saadjs/kcal-sync/internal/model"
	"github.com/saadjs/kcal-sync/internal/service"
	"go.uber.org/zap"
)

const (
	DefaultTimeout = 15 * time.Second
	DefaultRetries = 2
)

var ErrUnauthorized = errors.New("health data access not authorized")

type Options struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	Retries int
	Logger  *zap.Logger
}

type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

func NewClient(opts Options) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("missing health data base URL")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.Retries).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Accept", "application/json").
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= 500
		})
	if opts.Token != "" {
		client.SetAuthToken(opts.Token)
	}
	return &Client{http: client, logger: opts.Logger}, nil
}

type energySample struct {
	Kind      string    `json:"kind"`
	Value     float64   `json:"value"`
	Unit      string    `json:"unit"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
}

type weightSample struct {
	Value     float64   `json:"value"`
	Unit      string    `json:"unit"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
}

type energyResponse struct {
	Samples []energySample `json:"samples"`
}

type weightResponse struct {
	Samples []weightSample `json:"samples"`
}

type errorResponse struct {
	Message string `json:"message"`
}

const kilojoulesPerKcal = 4.184

func (c *Client) FetchExerciseSamples(ctx context.Context, start, end time.Time) ([]model.RawExerciseSample, error) {
	var parsed energyResponse
	if err := c.get(ctx, "/v1/samples/energy", start, end, &parsed); err != nil {
		return nil, err
	}

	type key struct {
		kind string
		at   int64
	}
	seen := make(map[key]struct{}, len(parsed.Samples))
	out := make([]model.RawExerciseSample, 0, len(parsed.Samples))
	for _, s := range parsed.Samples {
		kind := model.SampleKind(strings.ToLower(strings.TrimSpace(s.Kind)))
		if kind != model.SampleActive && kind != model.SampleBasal {
			c.logger.Debug("skipping energy sample of unknown kind", zap.String("kind", s.Kind), zap.String("source", s.Source))
			continue
		}
		// several sources often report the same reading
		k := key{kind: string(kind), at: s.Timestamp.UnixNano()}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}

		value := s.Value
		switch strings.ToLower(strings.TrimSpace(s.Unit)) {
		case "", "kcal", "cal":
		case "kj":
			value = value / kilojoulesPerKcal
		default:
			return nil, fmt.Errorf("unsupported energy unit %q", s.Unit)
		}
		out = append(out, model.RawExerciseSample{Kind: kind, Value: value, At: s.Timestamp.Local()})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	return out, nil
}

func (c *Client) FetchWeightSamples(ctx context.Context, start, end time.Time) ([]model.RawWeightSample, error) {
	var parsed weightResponse
	if err := c.get(ctx, "/v1/samples/weight", start, end, &parsed); err != nil {
		return nil, err
	}

	seen := make(map[int64]struct{}, len(parsed.Samples))
	out := make([]model.RawWeightSample, 0, len(parsed.Samples))
	for _, s := range parsed.Samples {
		at := s.Timestamp.UnixNano()
		if _, dup := seen[at]; dup {
			continue
		}
		kg, err := service.WeightToKg(s.Value, s.Unit)
		if err != nil {
			c.logger.Debug("skipping weight sample", zap.Float64("value", s.Value), zap.String("unit", s.Unit), zap.Error(err))
			continue
		}
		seen[at] = struct{}{}
		out = append(out, model.RawWeightSample{WeightKg: kg, At: s.Timestamp.Local()})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	return out, nil
}

func (c *Client) get(ctx context.Context, path string, start, end time.Time, result any) error {
	var apiErr errorResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"start": start.Format(time.RFC3339),
			"end":   end.Format(time.RFC3339),
		}).
		SetResult(result).
		SetError(&apiErr).
		Get(path)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}

	switch {
	case resp.StatusCode() == 401 || resp.StatusCode() == 403:
		return fmt.Errorf("%w: %s returned status %d", ErrUnauthorized, path, resp.StatusCode())
	case resp.IsError():
		msg := strings.TrimSpace(apiErr.Message)
		if msg == "" {
			msg = strings.TrimSpace(string(resp.Body()))
		}
		c.logger.Warn("health data request failed",
			zap.String("path", path),
			zap.Int("status_code", resp.StatusCode()),
			zap.String("message", msg),
		)
		return fmt.Errorf("%s failed with status %d: %s", path, resp.StatusCode(), msg)
	}

	c.logger.Debug("health data request complete",
		zap.String("path", path),
		zap.Int("status_code", resp.StatusCode()),
		zap.Duration("elapsed", resp.Time()),
	)
	return nil
}
