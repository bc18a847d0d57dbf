package wizard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-account-api/internal/domain"
)

// StepError is a non-2xx reply from a step endpoint.
type StepError struct {
	Status   int
	Message  string
	Category string // "error" field of 5xx bodies
}

func (e *StepError) Error() string {
	if e.Category != "" {
		return fmt.Sprintf("%d %s (%s)", e.Status, e.Message, e.Category)
	}
	return fmt.Sprintf("%d %s", e.Status, e.Message)
}

// HTTPClient calls the /v1/auth step endpoints of an account API server.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

// NewHTTPClient returns a client for the server at baseURL, e.g. http://localhost:4000.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/") + "/v1/auth",
		http:    &http.Client{Timeout: timeout},
	}
}

type envelope struct {
	Message string           `json:"message"`
	Error   string           `json:"error"`
	User    *domain.Identity `json:"user"`
	Token   string           `json:"token"`
}

func (c *HTTPClient) CheckEmail(ctx context.Context, email string) (string, error) {
	env, err := c.post(ctx, "/check-email", map[string]string{"email": email})
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

func (c *HTTPClient) SubmitPhone(ctx context.Context, phone string) (string, error) {
	env, err := c.post(ctx, "/submit-phone", map[string]string{"phoneNumber": phone})
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

func (c *HTTPClient) SendOTP(ctx context.Context, phone string) (string, error) {
	env, err := c.post(ctx, "/send-otp", map[string]string{"phoneNumber": phone})
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

func (c *HTTPClient) VerifyOTP(ctx context.Context, phone, otp, email string) (*Result, error) {
	env, err := c.post(ctx, "/verify-otp", map[string]string{
		"phoneNumber": phone,
		"otp":         otp,
		"email":       email,
	})
	if err != nil {
		return nil, err
	}
	return &Result{Message: env.Message, Identity: env.User, Token: env.Token}, nil
}

func (c *HTTPClient) post(ctx context.Context, path string, body interface{}) (*envelope, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()

	var env envelope
	decodeErr := json.NewDecoder(resp.Body).Decode(&env)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := env.Message
		if decodeErr != nil || msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, &StepError{Status: resp.StatusCode, Message: msg, Category: env.Error}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode %s: %w", path, decodeErr)
	}
	return &env, nil
}
