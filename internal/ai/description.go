package ai

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/chetan13062004/agromate/pkg/metrics"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"google.golang.org/genai"
)

// DescriptionRequest names the product to describe
type DescriptionRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Category string `json:"category" validate:"required,max=64"`
	Unit     string `json:"unit" validate:"omitempty,max=16"`
}

// DescriptionResult is the generated marketing copy
type DescriptionResult struct {
	Description string `json:"description"`
	Source      string `json:"source"` // model, cache or template
}

// TextModel generates text from a prompt
type TextModel interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GenAIModel calls Gemini through the genai SDK
type GenAIModel struct {
	client *genai.Client
	model  string
}

func NewGenAIModel(ctx context.Context, apiKey, model string) (*GenAIModel, error) {
	if apiKey == "" {
		return nil, errors.New("genai api key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create genai client")
	}
	return &GenAIModel{client: client, model: model}, nil
}

func (m *GenAIModel) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := m.client.Models.GenerateContent(ctx, m.model, genai.Text(prompt), nil)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// Describer writes product descriptions, preferring the cache, then the
// model, then a fixed template
type Describer struct {
	model      TextModel
	cache      Cache
	timeout    time.Duration
	maxRetries uint64
	interval   time.Duration
}

// NewDescriber builds a Describer; model and cache may be nil
func NewDescriber(model TextModel, cache Cache, timeout time.Duration, maxRetries int) *Describer {
	if cache == nil {
		cache = nopCache{}
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Describer{
		model:      model,
		cache:      cache,
		timeout:    timeout,
		maxRetries: uint64(maxRetries),
		interval:   time.Second,
	}
}

// WithRetryInterval sets the initial backoff interval
func (d *Describer) WithRetryInterval(interval time.Duration) *Describer {
	d.interval = interval
	return d
}

func (d *Describer) Describe(ctx context.Context, req DescriptionRequest) (*DescriptionResult, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Category = strings.TrimSpace(req.Category)
	if req.Name == "" || req.Category == "" {
		return nil, errors.New("name and category are required")
	}
	key := cacheKey(req)
	if text, ok := d.cache.Get(ctx, key); ok {
		metrics.AIRequests.WithLabelValues("description", "cache").Inc()
		return &DescriptionResult{Description: text, Source: "cache"}, nil
	}
	if d.model == nil {
		metrics.AIRequests.WithLabelValues("description", "disabled").Inc()
		return &DescriptionResult{Description: templateDescription(req), Source: "template"}, nil
	}

	var text string
	op := func() error {
		callCtx, cancel := context.WithTimeout(ctx, d.timeout)
		defer cancel()
		out, err := d.model.Generate(callCtx, descriptionPrompt(req))
		if err != nil {
			return err
		}
		out = strings.TrimSpace(out)
		if out == "" {
			return errors.New("model returned empty text")
		}
		text = out
		return nil
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = d.interval
	b.MaxElapsedTime = 0
	if err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, d.maxRetries), ctx)); err != nil {
		metrics.AIRequests.WithLabelValues("description", "fallback").Inc()
		zap.L().Warn("description generation failed, using template",
			zap.String("product", req.Name), zap.Error(err))
		return &DescriptionResult{Description: templateDescription(req), Source: "template"}, nil
	}

	metrics.AIRequests.WithLabelValues("description", "ok").Inc()
	if err := d.cache.Set(ctx, key, text); err != nil {
		zap.L().Warn("description cache write failed", zap.Error(err))
	}
	return &DescriptionResult{Description: text, Source: "model"}, nil
}

func descriptionPrompt(req DescriptionRequest) string {
	unit := ""
	if req.Unit != "" {
		unit = fmt.Sprintf(" It is sold per %s.", req.Unit)
	}
	return fmt.Sprintf("Write a short, appealing product description (2 to 3 sentences, under 80 words) "+
		"for a farm-fresh product listed on an online farmers' marketplace. "+
		"Product: %s. Category: %s.%s Mention freshness and the farm origin. "+
		"Return plain text without markdown.", req.Name, req.Category, unit)
}

func templateDescription(req DescriptionRequest) string {
	unit := ""
	if req.Unit != "" {
		unit = fmt.Sprintf(" Sold per %s.", req.Unit)
	}
	return fmt.Sprintf("Fresh %s from local farms, part of our %s selection. "+
		"Harvested with care and delivered straight from the farmer to your door.%s",
		req.Name, cases.Title(language.English).String(strings.ToLower(req.Category)), unit)
}

func cacheKey(req DescriptionRequest) string {
	h := sha1.Sum([]byte(strings.ToLower(req.Name + "|" + req.Category + "|" + req.Unit)))
	return "desc:" + hex.EncodeToString(h[:])
}
