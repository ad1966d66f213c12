package notifier

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specwatch/specwatch/internal/classifier"
	"github.com/specwatch/specwatch/internal/compare"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)
	return logger
}

func sampleResult() *compare.Result {
	report := classifier.NewReport()
	report.Added.Add("paths", "/products")
	return &compare.Result{
		Changes: report,
		Summary: "No breaking changes | 1 total changes",
	}
}

func TestDeliverSignsPayload(t *testing.T) {
	const secret = "test-secret"

	var (
		gotBody      []byte
		gotTimestamp string
		gotSignature string
		gotDelivery  string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotTimestamp = r.Header.Get("X-Webhook-Timestamp")
		gotSignature = r.Header.Get("X-Webhook-Signature")
		gotDelivery = r.Header.Get("X-Delivery-ID")
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := New(newTestLogger(), server.URL, secret, "https://example.com/openapi.json")
	ok := n.Deliver(sampleResult())
	require.True(t, ok)

	require.NotEmpty(t, gotTimestamp)
	require.NotEmpty(t, gotDelivery)

	// The signature covers the exact bytes that were sent.
	assert.Equal(t, Sign(secret, gotTimestamp, gotBody), gotSignature)

	var payload Payload
	require.NoError(t, json.Unmarshal(gotBody, &payload))
	assert.Equal(t, "api_spec_change", payload.EventType)
	assert.Equal(t, "specwatch", payload.Source)
	assert.Equal(t, "https://example.com/openapi.json", payload.Metadata.SpecSource)
	assert.Equal(t, []string{"/products"}, payload.Changes.Changes.Added.Entries("paths"))
}

func TestDeliverWithoutSecretOmitsSignature(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("X-Webhook-Signature"))
		assert.Empty(t, r.Header.Get("X-Webhook-Timestamp"))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	n := New(newTestLogger(), server.URL, "", "src")
	assert.True(t, n.Deliver(sampleResult()))
}

func TestDeliverFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rejected", http.StatusBadGateway)
	}))
	defer server.Close()

	n := New(newTestLogger(), server.URL, "secret", "src")
	assert.False(t, n.Deliver(sampleResult()))
}

func TestDeliverNilResult(t *testing.T) {
	n := New(newTestLogger(), "http://localhost:0/webhook", "secret", "src")
	assert.False(t, n.Deliver(nil))
}

func TestDeliverUnreachableEndpoint(t *testing.T) {
	n := New(newTestLogger(), "http://127.0.0.1:1/webhook", "secret", "src")
	assert.False(t, n.Deliver(sampleResult()))
}
