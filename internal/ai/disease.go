package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/chetan13062004/agromate/pkg/metrics"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Prediction is one label returned by the classifier
type Prediction struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// DiagnosisResult is returned to the client for an uploaded leaf image
type DiagnosisResult struct {
	Plant           string       `json:"plant"`
	Disease         string       `json:"disease"`
	Healthy         bool         `json:"healthy"`
	Confidence      float64      `json:"confidence"`
	Predictions     []Prediction `json:"predictions"`
	Recommendations []string     `json:"recommendations"`
	// Fallback is set when the classifier could not be reached
	Fallback bool   `json:"fallback"`
	Message  string `json:"message,omitempty"`
}

// DiseaseDetector proxies images to a hosted image classifier
type DiseaseDetector struct {
	url        string
	token      string
	httpClient *http.Client
	maxRetries uint64
	interval   time.Duration
}

func NewDiseaseDetector(url, token string, timeout time.Duration, maxRetries int) *DiseaseDetector {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &DiseaseDetector{
		url:        url,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: uint64(maxRetries),
		interval:   500 * time.Millisecond,
	}
}

// WithRetryInterval sets the initial backoff interval
func (d *DiseaseDetector) WithRetryInterval(interval time.Duration) *DiseaseDetector {
	d.interval = interval
	return d
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("classifier returned %d: %s", e.code, e.body)
}

// Detect classifies image. Failures of the remote service degrade to a
// fallback result instead of an error; only an empty image is rejected.
func (d *DiseaseDetector) Detect(ctx context.Context, image []byte, contentType string) (*DiagnosisResult, error) {
	if len(image) == 0 {
		return nil, errors.New("empty image")
	}
	if d.url == "" {
		metrics.AIRequests.WithLabelValues("disease", "disabled").Inc()
		return fallbackDiagnosis("Disease detection is not configured"), nil
	}

	var predictions []Prediction
	op := func() error {
		p, err := d.classify(ctx, image, contentType)
		if err != nil {
			var se *statusError
			if errors.As(err, &se) && se.code < 500 && se.code != http.StatusTooManyRequests {
				return backoff.Permanent(err)
			}
			return err
		}
		predictions = p
		return nil
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = d.interval
	b.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(b, d.maxRetries), ctx)

	notify := func(err error, wait time.Duration) {
		zap.L().Warn("disease detection retry", zap.Duration("wait", wait), zap.Error(err))
	}
	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		metrics.AIRequests.WithLabelValues("disease", "fallback").Inc()
		zap.L().Error("disease detection failed", zap.Error(err))
		return fallbackDiagnosis("Analysis service is temporarily unavailable, please try again later"), nil
	}
	metrics.AIRequests.WithLabelValues("disease", "ok").Inc()
	return diagnose(predictions), nil
}

func (d *DiseaseDetector) classify(ctx context.Context, image []byte, contentType string) ([]Prediction, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(image))
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)
	if d.token != "" {
		req.Header.Set("Authorization", "Bearer "+d.token)
	}
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(body))}
	}
	var predictions []Prediction
	if err := json.Unmarshal(body, &predictions); err != nil {
		return nil, backoff.Permanent(errors.Wrap(err, "decode classifier response"))
	}
	if len(predictions) == 0 {
		return nil, backoff.Permanent(errors.New("classifier returned no predictions"))
	}
	return predictions, nil
}

// diagnose picks the top label. Labels look like "Tomato with Early Blight"
// or "Tomato___Early_blight"; a label mentioning "healthy" means no disease.
func diagnose(predictions []Prediction) *DiagnosisResult {
	sorted := append([]Prediction(nil), predictions...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Score > sorted[j].Score })
	if len(sorted) > 5 {
		sorted = sorted[:5]
	}
	top := sorted[0]
	plant, disease := splitLabel(top.Label)
	healthy := strings.Contains(strings.ToLower(top.Label), "healthy")
	if healthy {
		disease = "None"
	}
	return &DiagnosisResult{
		Plant:           plant,
		Disease:         disease,
		Healthy:         healthy,
		Confidence:      top.Score,
		Predictions:     sorted,
		Recommendations: recommendations(healthy, top.Score),
	}
}

func splitLabel(label string) (plant, disease string) {
	clean := strings.ReplaceAll(label, "_", " ")
	clean = strings.Join(strings.Fields(clean), " ")
	if i := strings.Index(strings.ToLower(clean), " with "); i > 0 {
		return clean[:i], clean[i+len(" with "):]
	}
	parts := strings.SplitN(clean, " ", 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return "Unknown", clean
}

func recommendations(healthy bool, confidence float64) []string {
	if healthy {
		return []string{
			"The plant looks healthy. Keep up regular watering and inspection.",
		}
	}
	recs := []string{
		"Isolate affected plants to limit spread.",
		"Remove and destroy infected leaves.",
		"Avoid overhead watering and improve air circulation.",
		"Consult a local agricultural extension officer for a treatment plan.",
	}
	if confidence < 0.5 {
		recs = append([]string{"Confidence is low. Retake the photo in good light with the affected leaf in focus."}, recs...)
	}
	return recs
}

func fallbackDiagnosis(message string) *DiagnosisResult {
	return &DiagnosisResult{
		Plant:       "Unknown",
		Disease:     "Unknown",
		Predictions: []Prediction{},
		Recommendations: []string{
			"Inspect leaves for spots, discoloration or wilting.",
			"Consult a local agricultural extension officer.",
		},
		Fallback: true,
		Message:  message,
	}
}
