// Package adapters implements the oracle ports over HTTP.
package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"givecycle/internal/matching/models"
	dErrors "givecycle/pkg/domain-errors"
	"givecycle/pkg/requestcontext"
)

const maxResponseBytes = 64 << 10

// client is the shared JSON-over-HTTP plumbing of both oracles.
type client struct {
	name    string
	baseURL string
	token   string
	http    *http.Client
}

// Option configures an oracle client.
type Option func(*client)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *client) {
		if c != nil {
			cl.http = c
		}
	}
}

// WithBearerToken sets a service token sent on every call.
func WithBearerToken(token string) Option {
	return func(cl *client) {
		cl.token = token
	}
}

func newClient(name, baseURL string, timeout time.Duration, opts ...Option) (*client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("%s base URL is required", name)
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid %s base URL: %w", name, err)
	}
	c := &client{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", c.name, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", c.name, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if id := requestcontext.RequestID(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return dErrors.Wrap(err, dErrors.CodeTimeout, c.name+" timed out")
		}
		return dErrors.Wrap(err, dErrors.CodeUnavailable, c.name+" unreachable")
	}
	defer resp.Body.Close()

	limited := io.LimitReader(resp.Body, maxResponseBytes)
	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(limited)
		err := fmt.Errorf("%s returned status %d: %s", c.name, resp.StatusCode, strings.TrimSpace(string(detail)))
		switch {
		case resp.StatusCode == http.StatusNotFound:
			return dErrors.Wrap(err, dErrors.CodeNotFound, c.name+" has no record")
		case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
			return dErrors.Wrap(err, dErrors.CodeUnavailable, c.name+" unavailable")
		default:
			return dErrors.Wrap(err, dErrors.CodeInternal, c.name+" rejected the request")
		}
	}

	if err := json.NewDecoder(limited).Decode(out); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, c.name+" returned malformed data")
	}
	return nil
}

// QualificationClient calls GET {base}/v1/qualifications/{id}.
type QualificationClient struct {
	c *client
}

// NewQualificationClient builds the qualification oracle client.
func NewQualificationClient(baseURL string, timeout time.Duration, opts ...Option) (*QualificationClient, error) {
	c, err := newClient("qualification oracle", baseURL, timeout, opts...)
	if err != nil {
		return nil, err
	}
	return &QualificationClient{c: c}, nil
}

type qualificationResponse struct {
	Qualifies       bool   `json:"qualifies"`
	Reason          string `json:"reason"`
	CompletedCycles int    `json:"completed_cycles"`
}

func (q *QualificationClient) CheckQualification(ctx context.Context, userID string) (*models.Qualification, error) {
	var resp qualificationResponse
	if err := q.c.do(ctx, http.MethodGet, "/v1/qualifications/"+url.PathEscape(userID), nil, &resp); err != nil {
		return nil, err
	}
	if resp.CompletedCycles < 0 {
		return nil, dErrors.New(dErrors.CodeInternal, "qualification oracle returned negative completed cycles")
	}
	return &models.Qualification{
		Qualifies:       resp.Qualifies,
		Reason:          resp.Reason,
		CompletedCycles: resp.CompletedCycles,
	}, nil
}

// PredictionClient calls POST {base}/v1/predictions.
type PredictionClient struct {
	c *client
}

// NewPredictionClient builds the prediction oracle client.
func NewPredictionClient(baseURL string, timeout time.Duration, opts ...Option) (*PredictionClient, error) {
	c, err := newClient("prediction oracle", baseURL, timeout, opts...)
	if err != nil {
		return nil, err
	}
	return &PredictionClient{c: c}, nil
}

type predictionRequest struct {
	Features map[string]float64 `json:"features"`
	Amount   int64              `json:"amount"`
}

type predictionResponse struct {
	Score *float64 `json:"score"`
}

func (p *PredictionClient) PredictScore(ctx context.Context, f models.Features, amount int64) (float64, error) {
	vec := f.Vector()
	body := predictionRequest{Features: make(map[string]float64, len(vec)), Amount: amount}
	for i, name := range models.FeatureNames {
		body.Features[name] = vec[i]
	}

	var resp predictionResponse
	if err := p.c.do(ctx, http.MethodPost, "/v1/predictions", body, &resp); err != nil {
		return 0, err
	}
	if resp.Score == nil || math.IsNaN(*resp.Score) || math.IsInf(*resp.Score, 0) {
		return 0, dErrors.New(dErrors.CodeInternal, "prediction oracle returned no usable score")
	}
	return *resp.Score, nil
}
