// Package notifier delivers change reports over a signed webhook.
package notifier

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/specwatch/specwatch/internal/compare"
)

const (
	monitorVersion  = "1.0.0"
	deliveryTimeout = 10 * time.Second
)

// Payload is the webhook body sent on every detected change.
type Payload struct {
	EventType string          `json:"event_type"`
	Timestamp string          `json:"timestamp"`
	Source    string          `json:"source"`
	Summary   string          `json:"summary"`
	Changes   *compare.Result `json:"changes"`
	Metadata  Metadata        `json:"metadata"`
}

// Metadata describes where the compared specification came from.
type Metadata struct {
	SpecSource     string `json:"spec_source"`
	MonitorVersion string `json:"monitor_version"`
}

// Notifier posts signed change notifications to a webhook endpoint.
type Notifier struct {
	logger     *logrus.Logger
	client     *http.Client
	url        string
	secret     string
	specSource string
	now        func() time.Time
}

// New creates a new Notifier instance. secret may be empty, in which case
// deliveries are unsigned. specSource is recorded in the payload metadata.
func New(logger *logrus.Logger, url, secret, specSource string) *Notifier {
	return &Notifier{
		logger:     logger,
		client:     &http.Client{Timeout: deliveryTimeout},
		url:        url,
		secret:     secret,
		specSource: specSource,
		now:        time.Now,
	}
}

// Deliver serializes the result, signs the exact byte string being sent and
// posts it. It reports whether the endpoint accepted the notification.
func (n *Notifier) Deliver(result *compare.Result) bool {
	if result == nil {
		n.logger.Warn("No changes to notify about")
		return false
	}

	n.logger.Infof("Preparing to send webhook notification to %s", n.url)

	payload := Payload{
		EventType: "api_spec_change",
		Timestamp: n.now().Format(time.RFC3339),
		Source:    "specwatch",
		Summary:   result.Summary,
		Changes:   result,
		Metadata: Metadata{
			SpecSource:     n.specSource,
			MonitorVersion: monitorVersion,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		n.logger.Errorf("Failed to serialize webhook payload: %v", err)
		return false
	}

	req, err := http.NewRequest(http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		n.logger.Errorf("Failed to build webhook request: %v", err)
		return false
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "specwatch/"+monitorVersion)
	req.Header.Set("X-Delivery-ID", uuid.NewString())

	if n.secret != "" {
		timestamp := strconv.FormatInt(n.now().Unix(), 10)
		req.Header.Set("X-Webhook-Timestamp", timestamp)
		req.Header.Set("X-Webhook-Signature", Sign(n.secret, timestamp, body))
	}

	resp, err := n.client.Do(req)
	if err != nil {
		n.logger.Errorf("Error sending webhook notification: %v", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		n.logger.Infof("Webhook notification sent successfully: %d", resp.StatusCode)
		return true
	}

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	n.logger.Errorf("Failed to send webhook notification: %d, %s", resp.StatusCode, respBody)
	return false
}

// Sign computes the hex HMAC-SHA256 signature over "{timestamp}.{body}".
// The receiver recomputes it over the same fixed byte string.
func Sign(secret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%s.", timestamp)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
