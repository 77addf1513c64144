package prediction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/avelasquez/freshbasket-backend/pkg/config"
	pkgerrors "github.com/avelasquez/freshbasket-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
)

const (
	predictPath                 = "predict/from-database"
	responseBodyReadLimit int64 = 4096
	defaultTimeout              = 10 * time.Second
	defaultMaxRetries           = 3
	defaultRetryDelay           = 2 * time.Second
	defaultMaxProducts          = 25
)

var errBaseURLRequired = errors.New("prediction base url is required")

// Client calls the external next-basket prediction service. The model
// itself is a black box; the client only sees ranked product ids and
// confidence scores.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	maxRetries  int
	retryDelay  time.Duration
	maxProducts int
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient builds a prediction client from config.
func NewClient(cfg config.PredictionConfig, opts ...Option) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		return nil, errBaseURLRequired
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = defaultRetryDelay
	}
	maxProducts := cfg.MaxProducts
	if maxProducts <= 0 {
		maxProducts = defaultMaxProducts
	}

	client := &Client{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     baseURL,
		apiKey:      strings.TrimSpace(cfg.APIKey),
		maxRetries:  maxRetries,
		retryDelay:  retryDelay,
		maxProducts: maxProducts,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client, nil
}

// Basket is the normalized prediction for one user.
type Basket struct {
	ProductIDs      []uuid.UUID
	ConfidenceScore float64
	ProductScores   map[uuid.UUID]float64
}

type predictRequest struct {
	UserID string `json:"user_id"`
}

type predictResponse struct {
	PredictedProducts []string  `json:"predicted_products"`
	ConfidenceScore   *float64  `json:"confidence_score,omitempty"`
	ProductScores     []float64 `json:"product_scores,omitempty"`
}

// PredictBasket fetches the next-basket prediction for the user,
// retrying transient failures a bounded number of times with a fixed
// backoff. Exhausted retries surface as a dependency error.
func (c *Client) PredictBasket(ctx context.Context, userID uuid.UUID) (*Basket, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "prediction client not configured")
	}
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	var basket *Basket
	backoff := retry.WithMaxRetries(uint64(c.maxRetries), retry.NewConstant(c.retryDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		result, attemptErr := c.predictOnce(ctx, userID)
		if attemptErr != nil {
			return retry.RetryableError(attemptErr)
		}
		basket = result
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "prediction service unavailable")
	}
	return basket, nil
}

func (c *Client) predictOnce(ctx context.Context, userID uuid.UUID) (*Basket, error) {
	payload, err := json.Marshal(predictRequest{UserID: userID.String()})
	if err != nil {
		return nil, fmt.Errorf("marshal predict request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.buildURL(predictPath), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build predict request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute predict request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var apiResp predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decode predict response: %w", err)
	}

	basket, err := normalizeResponse(apiResp)
	if err != nil {
		return nil, err
	}
	c.capProducts(basket)
	return basket, nil
}

// capProducts keeps only the top-ranked products. The service returns
// products in rank order, so the cap drops the tail.
func (c *Client) capProducts(basket *Basket) {
	if c.maxProducts <= 0 || len(basket.ProductIDs) <= c.maxProducts {
		return
	}
	for _, id := range basket.ProductIDs[c.maxProducts:] {
		delete(basket.ProductScores, id)
	}
	basket.ProductIDs = basket.ProductIDs[:c.maxProducts]
}

func normalizeResponse(apiResp predictResponse) (*Basket, error) {
	basket := &Basket{
		ProductIDs:    make([]uuid.UUID, 0, len(apiResp.PredictedProducts)),
		ProductScores: make(map[uuid.UUID]float64, len(apiResp.PredictedProducts)),
	}
	if apiResp.ConfidenceScore != nil {
		basket.ConfidenceScore = *apiResp.ConfidenceScore
	}

	for i, raw := range apiResp.PredictedProducts {
		id, err := uuid.Parse(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("invalid product id %q in prediction: %w", raw, err)
		}
		basket.ProductIDs = append(basket.ProductIDs, id)
		if i < len(apiResp.ProductScores) {
			basket.ProductScores[id] = apiResp.ProductScores[i]
		} else {
			basket.ProductScores[id] = basket.ConfidenceScore
		}
	}
	return basket, nil
}

func (c *Client) buildURL(path string) string {
	trimmed := strings.TrimRight(c.baseURL, "/")
	path = strings.TrimLeft(path, "/")
	return fmt.Sprintf("%s/%s", trimmed, path)
}
