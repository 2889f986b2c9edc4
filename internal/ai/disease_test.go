package ai

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectParsesTopPrediction(t *testing.T) {
	var gotAuth, gotType string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte(`[{"label":"Tomato with Early Blight","score":0.12},{"label":"Tomato___Late_blight","score":0.81}]`))
	}))
	defer srv.Close()

	d := NewDiseaseDetector(srv.URL, "tok", time.Second, 2)
	res, err := d.Detect(context.Background(), []byte("jpegbytes"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "image/jpeg", gotType)
	assert.Equal(t, []byte("jpegbytes"), gotBody)

	assert.False(t, res.Fallback)
	assert.Equal(t, "Tomato", res.Plant)
	assert.Equal(t, "Late blight", res.Disease)
	assert.InDelta(t, 0.81, res.Confidence, 1e-9)
	assert.False(t, res.Healthy)
	require.Len(t, res.Predictions, 2)
	assert.NotEmpty(t, res.Recommendations)
}

func TestDetectHealthyLabel(t *testing.T) {
	res := diagnose([]Prediction{{Label: "Potato healthy", Score: 0.93}})
	assert.True(t, res.Healthy)
	assert.Equal(t, "None", res.Disease)
	assert.Equal(t, "Potato", res.Plant)
}

func TestDetectRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			http.Error(w, `{"error":"model loading"}`, http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`[{"label":"Corn with Common Rust","score":0.7}]`))
	}))
	defer srv.Close()

	d := NewDiseaseDetector(srv.URL, "", time.Second, 3).WithRetryInterval(time.Millisecond)
	res, err := d.Detect(context.Background(), []byte("img"), "")
	require.NoError(t, err)
	assert.False(t, res.Fallback)
	assert.Equal(t, "Common Rust", res.Disease)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestDetectFallsBackWithoutRetryingClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "bad token", http.StatusUnauthorized)
	}))
	defer srv.Close()

	d := NewDiseaseDetector(srv.URL, "bad", time.Second, 3).WithRetryInterval(time.Millisecond)
	res, err := d.Detect(context.Background(), []byte("img"), "image/png")
	require.NoError(t, err)
	assert.True(t, res.Fallback)
	assert.Equal(t, "Unknown", res.Disease)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestDetectGivesUpAfterMaxRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	d := NewDiseaseDetector(srv.URL, "", time.Second, 2).WithRetryInterval(time.Millisecond)
	res, err := d.Detect(context.Background(), []byte("img"), "")
	require.NoError(t, err)
	assert.True(t, res.Fallback)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestDetectRejectsEmptyImage(t *testing.T) {
	d := NewDiseaseDetector("http://127.0.0.1:1", "", time.Second, 0)
	_, err := d.Detect(context.Background(), nil, "")
	assert.Error(t, err)
}

func TestDetectUnconfigured(t *testing.T) {
	res, err := NewDiseaseDetector("", "", time.Second, 0).Detect(context.Background(), []byte("x"), "")
	require.NoError(t, err)
	assert.True(t, res.Fallback)
}

func TestSplitLabel(t *testing.T) {
	tests := []struct {
		label, plant, disease string
	}{
		{"Apple with Black Rot", "Apple", "Black Rot"},
		{"Grape___Esca_(Black_Measles)", "Grape", "Esca (Black Measles)"},
		{"Blight", "Unknown", "Blight"},
	}
	for _, tt := range tests {
		plant, disease := splitLabel(tt.label)
		assert.Equal(t, tt.plant, plant, tt.label)
		assert.Equal(t, tt.disease, disease, tt.label)
	}
}
