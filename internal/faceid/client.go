// Package faceid is the client for the remote face detection and
// comparison service. The core consumes it through a narrow contract:
// compare two opaque templates, get back a confidence score in [0,100].
// Service failures are surfaced as errors, never downgraded to a pass.
package faceid

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/dmitrijs2005/faceguard/internal/logging"
)

var (
	// ErrServiceUnavailable covers transport failures and error replies
	// from the comparison service.
	ErrServiceUnavailable = errors.New("face service unavailable")

	// ErrNoFace is returned by Detect when the probe contains no usable face.
	ErrNoFace = errors.New("no face detected in probe")
)

// Client calls the remote face service over HTTP. Templates are opaque
// image payloads; their encoding is this package's concern and does not
// leak into the data model.
type Client struct {
	compareURL string
	detectURL  string
	apiKey     string
	apiSecret  string
	http       *http.Client
	log        logging.Logger
}

// New returns a Client for the given endpoints and credentials.
func New(compareURL, detectURL, apiKey, apiSecret string, timeout time.Duration, log logging.Logger) *Client {
	return &Client{
		compareURL: compareURL,
		detectURL:  detectURL,
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		http:       &http.Client{Timeout: timeout},
		log:        log.With("component", "faceid"),
	}
}

type compareResponse struct {
	Confidence   float64 `json:"confidence"`
	ErrorMessage string  `json:"error_message"`
}

type detectResponse struct {
	Faces        []json.RawMessage `json:"faces"`
	ErrorMessage string            `json:"error_message"`
}

// Compare submits two templates and returns the service's confidence
// score in [0,100]. Higher confidence means more similar.
func (c *Client) Compare(ctx context.Context, templateA, templateB []byte) (float64, error) {
	form := url.Values{}
	form.Set("api_key", c.apiKey)
	form.Set("api_secret", c.apiSecret)
	form.Set("image_base64_1", base64.StdEncoding.EncodeToString(templateA))
	form.Set("image_base64_2", base64.StdEncoding.EncodeToString(templateB))

	var resp compareResponse
	if err := c.post(ctx, c.compareURL, form, &resp); err != nil {
		return 0, err
	}
	if resp.ErrorMessage != "" {
		return 0, fmt.Errorf("%w: %s", ErrServiceUnavailable, resp.ErrorMessage)
	}
	if resp.Confidence < 0 || resp.Confidence > 100 {
		return 0, fmt.Errorf("%w: confidence %v out of range", ErrServiceUnavailable, resp.Confidence)
	}
	return resp.Confidence, nil
}

// CompareDistance converts the service confidence into a distance in
// [0,1]; lower distance means more similar.
func (c *Client) CompareDistance(ctx context.Context, templateA, templateB []byte) (float64, error) {
	confidence, err := c.Compare(ctx, templateA, templateB)
	if err != nil {
		return 0, err
	}
	distance := (100 - confidence) / 100
	c.log.Debug(ctx, "face comparison complete", "confidence", confidence, "distance", distance)
	return distance, nil
}

// Detect validates that the template contains exactly one face. Used
// during enrolment so a bad probe is rejected before it is stored.
func (c *Client) Detect(ctx context.Context, template []byte) error {
	form := url.Values{}
	form.Set("api_key", c.apiKey)
	form.Set("api_secret", c.apiSecret)
	form.Set("image_base64", base64.StdEncoding.EncodeToString(template))

	var resp detectResponse
	if err := c.post(ctx, c.detectURL, form, &resp); err != nil {
		return err
	}
	if resp.ErrorMessage != "" {
		return fmt.Errorf("%w: %s", ErrServiceUnavailable, resp.ErrorMessage)
	}
	switch len(resp.Faces) {
	case 1:
		return nil
	case 0:
		return ErrNoFace
	default:
		return fmt.Errorf("%w: %d faces in probe, expected one", ErrNoFace, len(resp.Faces))
	}
}

// post sends a form request with a bounded exponential-backoff retry on
// transport failures. Context cancellation aborts immediately and is
// returned as-is so callers can distinguish a user abort from an outage.
func (c *Client) post(ctx context.Context, endpoint string, form url.Values, out any) error {
	requestID := uuid.NewString()

	backoff := retry.WithMaxRetries(3, retry.NewExponential(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("X-Request-Id", requestID)

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.Warn(ctx, "face service request failed, retrying", "request_id", requestID, "error", err)
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return retry.RetryableError(err)
		}
		if resp.StatusCode >= 500 {
			c.log.Warn(ctx, "face service returned server error, retrying",
				"request_id", requestID, "status", resp.StatusCode)
			return retry.RetryableError(fmt.Errorf("status %d", resp.StatusCode))
		}
		return json.Unmarshal(body, out)
	})

	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	return nil
}
