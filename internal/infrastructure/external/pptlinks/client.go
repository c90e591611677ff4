// Package pptlinks implements the PPTLinks catalog API client.
// This package handles all communication with the catalog: fetching
// course snapshots, throttling against a conservative rate budget, and
// translating transport failures into the domain's error taxonomy.
package pptlinks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/course-watch/course-watch-bot/internal/domain/course"
	"github.com/course-watch/course-watch-bot/internal/domain/shared"
	"github.com/course-watch/course-watch-bot/pkg/circuitbreaker"
	"github.com/course-watch/course-watch-bot/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// ClientConfig contains configuration for the catalog API client.
type ClientConfig struct {
	// BaseURL is the catalog API base URL, e.g. "https://api.pptlinks.com/api/v1".
	BaseURL string

	// AuthToken is the bearer token for authenticated endpoints (optional).
	AuthToken string

	// CDNBaseURL is the base URL for resolving relative file references.
	CDNBaseURL string

	// QuizBaseURL is the base URL for building quiz links.
	QuizBaseURL string

	// TimeZone is passed to the catalog so it renders schedule fields in
	// the deployment timezone.
	TimeZone string

	// Timeout is the HTTP request timeout.
	Timeout time.Duration

	// RateLimiterConfig for API rate limiting.
	RateLimiterConfig RateLimiterConfig

	// Logger for structured logging.
	Logger *slog.Logger
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(baseURL string) ClientConfig {
	return ClientConfig{
		BaseURL:           baseURL,
		TimeZone:          "Africa/Lagos",
		Timeout:           30 * time.Second,
		RateLimiterConfig: DefaultRateLimiterConfig(),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client is the PPTLinks catalog API client. One fetch call retries
// transient failures internally; a failure that survives the retry
// budget is reported once and the orchestrator waits for the next cycle.
type Client struct {
	config      ClientConfig
	httpClient  *http.Client
	logger      *slog.Logger
	rateLimiter *RateLimiter
	breaker     *circuitbreaker.CircuitBreaker
	retrier     *retry.Retrier
	mapper      *Mapper
}

// NewClient creates a new catalog API client.
func NewClient(config ClientConfig) *Client {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	breaker := circuitbreaker.CatalogBreaker(func(name string, from, to circuitbreaker.State) {
		logger.Warn("circuit breaker state change",
			"breaker", name,
			"from", from.String(),
			"to", to.String(),
		)
	})

	return &Client{
		config:      config,
		httpClient:  &http.Client{Timeout: config.Timeout},
		logger:      logger,
		rateLimiter: NewRateLimiter(config.RateLimiterConfig),
		breaker:     breaker,
		retrier:     retry.CatalogRetrier(),
		mapper:      NewMapper(config.CDNBaseURL, config.QuizBaseURL),
	}
}

// Mapper exposes the client's URL resolution for message rendering.
func (c *Client) Mapper() *Mapper {
	return c.mapper
}

// ══════════════════════════════════════════════════════════════════════════════
// FETCH OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// FetchCourse retrieves the current snapshot of one course.
// Failure modes follow the shared taxonomy: ErrCourseNotFound when the
// course is gone upstream, ErrUnavailable for transport and server
// failures, ErrMalformed when the payload cannot be interpreted.
func (c *Client) FetchCourse(ctx context.Context, courseID course.ID) (course.Snapshot, error) {
	if !courseID.IsValid() {
		return course.Snapshot{}, shared.ErrInvalidCourseID
	}

	var snap course.Snapshot
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.retrier.Do(ctx, func(ctx context.Context) error {
			var err error
			snap, err = c.fetchOnce(ctx, courseID)
			return err
		})
	})
	if err != nil {
		return course.Snapshot{}, fmt.Errorf("fetch course %s: %w", courseID, err)
	}

	return snap, nil
}

// fetchOnce performs a single fetch attempt. Errors are wrapped as
// retryable or permanent for the retrier.
func (c *Client) fetchOnce(ctx context.Context, courseID course.ID) (course.Snapshot, error) {
	if err := c.rateLimiter.Allow(ctx); err != nil {
		return course.Snapshot{}, retry.Permanent(fmt.Errorf("%w: rate budget exhausted: %v", shared.ErrRateLimited, err))
	}

	endpoint := fmt.Sprintf("%s/course/user-courses/%s?brief=false&timeZone=%s",
		c.config.BaseURL,
		url.PathEscape(courseID.String()),
		url.QueryEscape(c.config.TimeZone),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return course.Snapshot{}, retry.Permanent(err)
	}
	req.Header.Set("Accept", "application/json")
	if c.config.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.AuthToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return course.Snapshot{}, retry.Retryable(fmt.Errorf("%w: %v", shared.ErrUnavailable, err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return course.Snapshot{}, retry.Retryable(fmt.Errorf("%w: read body: %v", shared.ErrUnavailable, err))
	}

	c.logger.Debug("catalog api response",
		"course_id", courseID.String(),
		"status", resp.StatusCode,
	)

	switch {
	case resp.StatusCode == http.StatusOK:
		// Fall through to decoding below.
	case resp.StatusCode == http.StatusNotFound:
		return course.Snapshot{}, retry.Permanent(shared.ErrCourseNotFound)
	case resp.StatusCode == http.StatusTooManyRequests:
		return course.Snapshot{}, retry.Retryable(fmt.Errorf("%w: status %d", shared.ErrRateLimited, resp.StatusCode))
	case resp.StatusCode >= 500:
		return course.Snapshot{}, retry.Retryable(fmt.Errorf("%w: status %d", shared.ErrUnavailable, resp.StatusCode))
	default:
		var apiErr APIErrorDTO
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
			return course.Snapshot{}, retry.Permanent(fmt.Errorf("%w: %v", shared.ErrPermanent, &apiErr))
		}
		return course.Snapshot{}, retry.Permanent(fmt.Errorf("%w: unexpected status %d", shared.ErrPermanent, resp.StatusCode))
	}

	var dto CourseDTO
	if err := json.Unmarshal(body, &dto); err != nil {
		return course.Snapshot{}, retry.Permanent(fmt.Errorf("%w: %v", shared.ErrMalformed, err))
	}

	snap, err := c.mapper.ToSnapshot(courseID, dto, time.Now().UTC())
	if err != nil {
		return course.Snapshot{}, retry.Permanent(err)
	}

	return snap, nil
}

// IsHealthy reports whether the catalog API is reachable.
func (c *Client) IsHealthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode < 500
}

// BreakerState returns the current circuit breaker state for status
// reporting.
func (c *Client) BreakerState() circuitbreaker.State {
	return c.breaker.State()
}
