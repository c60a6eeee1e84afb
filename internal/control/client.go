// Package control talks to the per-activity remote control service.
//
// Each activity may expose a small HTTP control surface (endpoint declared
// in its bundle manifest). The home registry uses it to tell an activity it
// became active or inactive. Calls are best-effort: no retries, and the
// caller fires them from a goroutine without awaiting the result.
package control

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Service is the per-activity control capability. A record without one
// simply has no control surface; callers check for nil before invoking.
type Service interface {
	// SetActive informs the activity of its new active state.
	SetActive(ctx context.Context, active bool) error
}

// Factory builds Service handles from bundle control endpoints.
type Factory interface {
	// ForEndpoint returns a Service bound to the given base URL.
	ForEndpoint(endpoint string) Service
}

// HTTPFactory builds resty-backed control services sharing one client.
type HTTPFactory struct {
	client *resty.Client
}

// NewHTTPFactory creates a factory with the given call timeout.
// Retries stay disabled: a control call that fails is logged by the
// caller and never reissued.
func NewHTTPFactory(timeout time.Duration) *HTTPFactory {
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json")

	return &HTTPFactory{client: client}
}

// ForEndpoint implements Factory.
func (f *HTTPFactory) ForEndpoint(endpoint string) Service {
	return &httpService{client: f.client, endpoint: endpoint}
}

type httpService struct {
	client   *resty.Client
	endpoint string
}

func (s *httpService) SetActive(ctx context.Context, active bool) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(map[string]bool{"active": active}).
		Post(s.endpoint + "/active")
	if err != nil {
		return fmt.Errorf("control call to %s failed: %w", s.endpoint, err)
	}
	if resp.IsError() {
		return fmt.Errorf("control call to %s returned %s", s.endpoint, resp.Status())
	}
	return nil
}
