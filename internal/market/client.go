// Package market talks to the marketplace REST API that owns products,
// vendors and credentials.
package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sony/gobreaker/v2"

	"thriftbazaar/internal/domain"
)

// APIError is a non-2xx answer from the API. It unwraps to the matching
// domain sentinel so callers can use errors.Is.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("market api: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("market api: %d %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	switch {
	case e.Status == http.StatusBadRequest:
		return domain.ErrInvalidInput
	case e.Status == http.StatusUnauthorized:
		return domain.ErrNotLoggedIn
	case e.Status == http.StatusForbidden:
		return domain.ErrForbidden
	case e.Status == http.StatusNotFound:
		return domain.ErrNotFound
	case e.Status >= 500:
		return domain.ErrUnavailable
	}
	return nil
}

type Client struct {
	base    string
	timeout time.Duration
	cb      *gobreaker.CircuitBreaker[[]byte]
}

// New returns a client for the API rooted at base, e.g.
// "http://localhost:8090/api".
func New(base string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "market-api",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool { return c.ConsecutiveFailures >= 5 },
		// a 4xx is the API working as intended
		IsSuccessful: func(err error) bool {
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return apiErr.Status < 500
			}
			return err == nil
		},
	})
	return &Client{base: strings.TrimRight(base, "/"), timeout: timeout, cb: cb}
}

func (c *Client) url(path string) string { return c.base + path }

// send executes a prepared agent through the breaker. The agent is always
// released.
func (c *Client) send(ctx context.Context, a *fiber.Agent, token string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		fiber.ReleaseAgent(a)
		return nil, err
	}
	timeout := c.timeout
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d < timeout {
			timeout = d
		}
	}
	a.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	if token != "" {
		a.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	a.Timeout(timeout)
	if err := a.Parse(); err != nil {
		fiber.ReleaseAgent(a)
		return nil, err
	}

	ran := false
	body, err := c.cb.Execute(func() ([]byte, error) {
		ran = true
		code, body, errs := a.Bytes()
		if len(errs) > 0 {
			return nil, fmt.Errorf("%w: %v", domain.ErrUnavailable, errors.Join(errs...))
		}
		if code < 200 || code > 299 {
			return nil, &APIError{Status: code, Message: errorMessage(body)}
		}
		return body, nil
	})
	if !ran {
		fiber.ReleaseAgent(a)
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	return body, err
}

func errorMessage(body []byte) string {
	var m struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &m) == nil {
		if m.Message != "" {
			return m.Message
		}
		return m.Error
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}

func (c *Client) getJSON(ctx context.Context, path, query, token string, out any) error {
	a := fiber.Get(c.url(path))
	if query != "" {
		a.QueryString(query)
	}
	body, err := c.send(ctx, a, token)
	if err != nil {
		return err
	}
	return decode(body, out)
}

func (c *Client) sendJSON(ctx context.Context, a *fiber.Agent, token string, in, out any) error {
	if in != nil {
		a.JSON(in)
	}
	body, err := c.send(ctx, a, token)
	if err != nil {
		return err
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	return decode(body, out)
}

func decode(body []byte, out any) error {
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("market api: decode: %w", err)
	}
	return nil
}
