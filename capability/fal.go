package capability

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/kbukum/canvasflow/errors"
	"github.com/kbukum/canvasflow/httpclient"
	"github.com/kbukum/canvasflow/resilience"
)

// fal queue states.
const (
	falInQueue    = "IN_QUEUE"
	falInProgress = "IN_PROGRESS"
	falCompleted  = "COMPLETED"
	falFailed     = "FAILED"
	falError      = "ERROR"
)

// FalClient runs fal.ai endpoints through the queue API: submit, poll the
// status URL until the request completes, then fetch the response.
// Submissions are sent once; only the status and response fetches are
// retried.
type FalClient struct {
	client       *httpclient.Client
	key          string
	pollInterval time.Duration
	retry        resilience.RetryConfig
}

type falSubmission struct {
	RequestID   string `json:"request_id"`
	StatusURL   string `json:"status_url"`
	ResponseURL string `json:"response_url"`
}

type falStatus struct {
	Status string `json:"status"`
	Error  any    `json:"error,omitempty"`
}

// NewFalClient creates a fal queue client.
func NewFalClient(cfg Config) (*FalClient, error) {
	cfg.ApplyDefaults()
	client, err := httpclient.New(httpclient.Config{
		Name:    "fal",
		BaseURL: cfg.FalBaseURL,
		Timeout: cfg.RequestTimeout,
		Auth:    httpclient.SchemeAuth("Key", cfg.FalKey),
	})
	if err != nil {
		return nil, err
	}
	return &FalClient{client: client, key: cfg.FalKey, pollInterval: cfg.PollInterval, retry: cfg.pollRetry()}, nil
}

func (f *FalClient) Name() string { return "fal" }

// IsAvailable reports whether an API key is configured.
func (f *FalClient) IsAvailable(_ context.Context) bool { return f.key != "" }

// Execute submits req.Input to the endpoint named by req.ID and waits for
// the result.
func (f *FalClient) Execute(ctx context.Context, req Request) (*Output, error) {
	if f.key == "" {
		return nil, apperrors.New(apperrors.ErrCodeServiceUnavailable, "FAL_KEY is not configured", http.StatusServiceUnavailable)
	}

	var sub falSubmission
	err := f.client.DoJSON(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   req.ID,
		Body:   inputOrEmpty(req.Input),
	}, &sub)
	if err != nil {
		if appErr, ok := apperrors.AsAppError(err); ok {
			return nil, appErr.NotRetryable()
		}
		return nil, err
	}
	if sub.RequestID == "" && sub.StatusURL == "" {
		return nil, apperrors.ExternalServiceError("fal", fmt.Errorf("submission for %s returned no request id", req.ID))
	}
	if sub.StatusURL == "" {
		sub.StatusURL = f.requestURL(req.ID, sub.RequestID) + "/status"
	}
	if sub.ResponseURL == "" {
		sub.ResponseURL = f.requestURL(req.ID, sub.RequestID)
	}

	if err := f.wait(ctx, sub.StatusURL); err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := f.get(ctx, sub.ResponseURL, &raw); err != nil {
		return nil, err
	}
	return &Output{PrimaryResultURL: PrimaryURL(raw), Raw: raw}, nil
}

func (f *FalClient) wait(ctx context.Context, statusURL string) error {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}

		var st falStatus
		if err := f.get(ctx, statusURL, &st); err != nil {
			return err
		}
		switch strings.ToUpper(st.Status) {
		case falCompleted:
			return nil
		case falFailed, falError:
			msg := statusMessage(st.Error)
			if msg == "" {
				msg = "fal request " + strings.ToLower(st.Status)
			}
			return apperrors.New(apperrors.ErrCodeExternalService, msg, http.StatusBadGateway).
				WithDetail("service", "fal").
				NotRetryable()
		case falInQueue, falInProgress:
		default:
			// unrecognized states keep polling
		}
		timer.Reset(f.pollInterval)
	}
}

// get fetches a queue URL. Reads are idempotent, so transient failures are
// retried here rather than resubmitting the job.
func (f *FalClient) get(ctx context.Context, url string, out any) error {
	return resilience.RetryFunc(ctx, f.retry, func() error {
		return f.client.DoJSON(ctx, httpclient.Request{Method: http.MethodGet, Path: url}, out)
	})
}

// requestURL rebuilds the queue URL of a request. fal addresses requests by
// the app id, the first two segments of the endpoint.
func (f *FalClient) requestURL(endpoint, requestID string) string {
	parts := strings.SplitN(endpoint, "/", 3)
	app := endpoint
	if len(parts) >= 2 {
		app = parts[0] + "/" + parts[1]
	}
	return strings.TrimRight(f.client.BaseURL(), "/") + "/" + app + "/requests/" + requestID
}

func statusMessage(v any) string {
	switch e := v.(type) {
	case string:
		return e
	case map[string]any:
		if msg, ok := e["message"].(string); ok {
			return msg
		}
	}
	return ""
}

func inputOrEmpty(in map[string]any) map[string]any {
	if in == nil {
		return map[string]any{}
	}
	return in
}
