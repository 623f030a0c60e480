package usda

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"grocery-planner/internal/config"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	dataTypes            = "Foundation,SR Legacy"
	ingredientSearchSize = 15
)

var (
	// ErrRateLimited is returned when FoodData Central answers 429.
	ErrRateLimited = errors.New("usda api rate limit exceeded")
	// ErrNotFound is returned when a lookup yields no food.
	ErrNotFound = errors.New("usda food not found")
	// ErrEmptyQuery is returned for blank search queries.
	ErrEmptyQuery = errors.New("search query cannot be empty")
)

// StatusError carries a non-200 response that is neither 404 nor 429.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("usda api error: status=%d body=%s", e.Code, e.Body)
}

// Client talks to the USDA FoodData Central REST API.
type Client struct {
	apiKey       string
	baseURL      string
	httpClient   *http.Client
	limiter      *rate.Limiter
	maxRetries   uint64
	retryInitial time.Duration
	logger       *zap.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetry sets how many times a 5xx search is retried and the first backoff interval.
func WithRetry(maxRetries int, initial time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = uint64(maxRetries)
		c.retryInitial = initial
	}
}

// WithLimiter replaces the client-side request limiter.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// NewClient creates a FoodData Central client from configuration.
func NewClient(cfg *config.Config, logger *zap.Logger, opts ...Option) *Client {
	perSecond := rate.Limit(float64(cfg.USDARatePerHour) / 3600)
	c := &Client{
		apiKey:  cfg.USDAAPIKey,
		baseURL: strings.TrimRight(cfg.USDABaseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter:      rate.NewLimiter(perSecond, 10),
		maxRetries:   3,
		retryInitial: 3 * time.Second,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SearchFoods runs a single search and returns the ranked foods.
func (c *Client) SearchFoods(ctx context.Context, query string, pageSize int) ([]Food, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("dataType", dataTypes)
	params.Set("pageSize", strconv.Itoa(pageSize))

	var resp searchResponse
	err := c.get(ctx, "/foods/search", params, &resp)
	observe("search", err)
	if err != nil {
		return nil, err
	}
	return resp.Foods, nil
}

// SearchIngredients looks up candidate ingredients for a free-text query, retrying
// server errors with exponential backoff. Prepared dishes and duplicate descriptions are removed.
func (c *Client) SearchIngredients(ctx context.Context, query string) ([]Food, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryInitial
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(b, c.maxRetries), ctx)

	var foods []Food
	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		var err error
		foods, err = c.SearchFoods(ctx, query, ingredientSearchSize)
		if err == nil {
			return nil
		}
		var se *StatusError
		if errors.As(err, &se) && se.Code >= http.StatusInternalServerError {
			c.logger.Warn("usda search failed, retrying",
				zap.String("query", query),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			return err
		}
		return backoff.Permanent(err)
	}, policy)
	if err != nil {
		return nil, fmt.Errorf("failed to search ingredients: %w", err)
	}

	return FilterIngredients(foods), nil
}

// GetFood fetches full nutrient details for a food.
func (c *Client) GetFood(ctx context.Context, fdcID int) (*FoodDetail, error) {
	var detail FoodDetail
	err := c.get(ctx, fmt.Sprintf("/food/%d", fdcID), url.Values{}, &detail)
	observe("food", err)
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("failed to wait for rate limiter: %w", err)
	}

	params.Set("api_key", c.apiKey)
	reqURL := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusNotFound:
		return ErrNotFound
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &StatusError{Code: resp.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// FilterIngredients drops prepared dishes and repeated descriptions, keeping the first occurrence.
func FilterIngredients(foods []Food) []Food {
	excluded := []string{"recipe", "dish", "quesadilla", "chick-fil-a"}
	seen := make(map[string]struct{})

	var out []Food
	for _, f := range foods {
		if f.Description == "" {
			continue
		}
		desc := strings.ToLower(f.Description)

		skip := false
		for _, word := range excluded {
			if strings.Contains(desc, word) {
				skip = true
				break
			}
		}
		if skip {
			continue
		}
		if _, dup := seen[desc]; dup {
			continue
		}
		seen[desc] = struct{}{}
		out = append(out, f)
	}
	return out
}

func isRateLimited(err error) bool { return errors.Is(err, ErrRateLimited) }
func isNotFound(err error) bool    { return errors.Is(err, ErrNotFound) }
