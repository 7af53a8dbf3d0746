package httpclient

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"defi_tracker/internal/config"
	"defi_tracker/internal/domain/entity"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	balancerBalancesPath = "/api/1/blockchains/ETH/modules/balancer/balances"
	balancerEventsPath   = "/api/1/blockchains/ETH/modules/balancer/history/events"
	supportedAssetsPath  = "/api/1/assets/all"
	latestPricesPath     = "/api/1/assets/prices/latest"
	historicalPricesPath = "/api/1/assets/prices/historical"
	ignoredActionsPath   = "/api/1/actions/ignored"
	tasksPath            = "/api/1/tasks/"

	taskStatusCompleted = "completed"
	taskStatusPending   = "pending"
)

// envelope is the wrapper every backend response comes in.
type envelope struct {
	Result  jsoniter.RawMessage `json:"result"`
	Message string              `json:"message"`
}

type taskRef struct {
	TaskID int64 `json:"task_id"`
}

type taskState struct {
	Status  string    `json:"status"`
	Outcome *envelope `json:"outcome"`
}

type latestPricesRequest struct {
	Assets      []entity.AssetID `json:"assets"`
	TargetAsset entity.AssetID   `json:"target_asset"`
	IgnoreCache bool             `json:"ignore_cache"`
}

// PortfolioClient talks to the portfolio backend REST API.
// It implements port.BalancerAPI, port.AssetAPI and port.HistoryAPI.
type PortfolioClient struct {
	client      *fasthttp.Client
	baseURL     string
	timeout     time.Duration
	taskTimeout time.Duration
	poll        *rate.Limiter
	logger      *zap.Logger
}

// NewPortfolioClient creates a PortfolioClient from its config section.
func NewPortfolioClient(cfg config.PortfolioAPIConfig, logger *zap.Logger) *PortfolioClient {
	return &PortfolioClient{
		client: &fasthttp.Client{
			MaxConnsPerHost: cfg.MaxConnsPerHost,
		},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		timeout:     cfg.RequestTimeout(),
		taskTimeout: cfg.TaskTimeout(),
		poll:        rate.NewLimiter(rate.Limit(cfg.TaskPollPerSecond), 1),
		logger:      logger.Named("PortfolioClient"),
	}
}

// FetchBalancerBalances returns the raw balancer balances keyed by owner.
func (c *PortfolioClient) FetchBalancerBalances(ctx context.Context) ([]byte, error) {
	return c.asyncQuery(ctx, "balancer balances", balancerBalancesPath)
}

// FetchBalancerEvents returns the raw balancer events keyed by owner.
func (c *PortfolioClient) FetchBalancerEvents(ctx context.Context) ([]byte, error) {
	return c.asyncQuery(ctx, "balancer events", balancerEventsPath)
}

// FetchSupportedAssets returns the raw list of supported assets.
func (c *PortfolioClient) FetchSupportedAssets(ctx context.Context) ([]byte, error) {
	return c.call(ctx, "supported assets", fasthttp.MethodGet, supportedAssetsPath, nil)
}

// FetchLatestPrices returns the raw latest prices of assets in targetAsset.
func (c *PortfolioClient) FetchLatestPrices(ctx context.Context, assets []entity.AssetID, targetAsset entity.AssetID) ([]byte, error) {
	if len(assets) == 0 {
		return nil, fmt.Errorf("assets cannot be empty")
	}
	body, err := json.Marshal(latestPricesRequest{Assets: assets, TargetAsset: targetAsset})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal latest prices request: %w", err)
	}
	return c.call(ctx, "latest prices", fasthttp.MethodPost, latestPricesPath, body)
}

// FetchHistoricalPrices returns the raw manually entered historical prices
// matching filter.
func (c *PortfolioClient) FetchHistoricalPrices(ctx context.Context, filter entity.HistoricalPriceFilter) ([]byte, error) {
	args := fasthttp.AcquireArgs()
	defer fasthttp.ReleaseArgs(args)
	if filter.FromAsset != "" {
		args.Set("from_asset", filter.FromAsset)
	}
	if filter.ToAsset != "" {
		args.Set("to_asset", filter.ToAsset)
	}
	path := historicalPricesPath
	if args.Len() > 0 {
		path += "?" + args.String()
	}
	return c.call(ctx, "historical prices", fasthttp.MethodGet, path, nil)
}

// AddHistoricalPrice stores a new historical price override.
func (c *PortfolioClient) AddHistoricalPrice(ctx context.Context, price entity.HistoricalPrice) error {
	return c.changeHistoricalPrice(ctx, "add historical price", fasthttp.MethodPut, price)
}

// EditHistoricalPrice replaces the price of an existing override.
func (c *PortfolioClient) EditHistoricalPrice(ctx context.Context, price entity.HistoricalPrice) error {
	return c.changeHistoricalPrice(ctx, "edit historical price", fasthttp.MethodPatch, price)
}

// DeleteHistoricalPrice removes the override identified by key.
func (c *PortfolioClient) DeleteHistoricalPrice(ctx context.Context, key entity.HistoricalPriceKey) error {
	return c.changeHistoricalPrice(ctx, "delete historical price", fasthttp.MethodDelete, key)
}

// changeHistoricalPrice sends payload and requires the backend to confirm
// the change with a true result.
func (c *PortfolioClient) changeHistoricalPrice(ctx context.Context, op, method string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s request: %w", op, err)
	}
	raw, err := c.call(ctx, op, method, historicalPricesPath, body)
	if err != nil {
		return err
	}
	var ok bool
	if err := json.Unmarshal(raw, &ok); err != nil || !ok {
		return &entity.TransportError{Op: op, Err: fmt.Errorf("backend did not confirm the change: %s", raw)}
	}
	return nil
}

// IgnoreInAccounting marks (ignore=true) or unmarks the payload's actions
// as ignored in accounting.
func (c *PortfolioClient) IgnoreInAccounting(ctx context.Context, payload entity.IgnoreActionPayload, ignore bool) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal ignore payload: %w", err)
	}
	method := fasthttp.MethodDelete
	if ignore {
		method = fasthttp.MethodPut
	}
	_, err = c.call(ctx, "ignore actions", method, ignoredActionsPath, body)
	return err
}

// asyncQuery starts a backend task and waits for its outcome.
func (c *PortfolioClient) asyncQuery(ctx context.Context, op, path string) ([]byte, error) {
	raw, err := c.call(ctx, op, fasthttp.MethodGet, path+"?async_query=true", nil)
	if err != nil {
		return nil, err
	}
	var ref taskRef
	if err := json.Unmarshal(raw, &ref); err != nil {
		return nil, &entity.TransportError{Op: op, Err: fmt.Errorf("invalid task reference: %w", err)}
	}
	c.logger.Debug("Async task started", zap.String("op", op), zap.Int64("taskID", ref.TaskID))
	return c.awaitTask(ctx, op, ref.TaskID)
}

func (c *PortfolioClient) awaitTask(ctx context.Context, op string, taskID int64) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.taskTimeout)
	defer cancel()

	path := fmt.Sprintf("%s%d", tasksPath, taskID)
	for {
		if err := c.poll.Wait(ctx); err != nil {
			c.logger.Warn("Stopped waiting for task", zap.String("op", op), zap.Int64("taskID", taskID), zap.Error(err))
			return nil, &entity.TransportError{Op: op, Err: fmt.Errorf("task %d: %w", taskID, errors.Join(err, ctx.Err()))}
		}

		raw, err := c.call(ctx, op, fasthttp.MethodGet, path, nil)
		if err != nil {
			return nil, err
		}
		var state taskState
		if err := json.Unmarshal(raw, &state); err != nil {
			return nil, &entity.TransportError{Op: op, Err: fmt.Errorf("invalid task %d state: %w", taskID, err)}
		}

		switch state.Status {
		case taskStatusPending:
			continue
		case taskStatusCompleted:
			if state.Outcome == nil || isNull(state.Outcome.Result) {
				msg := "task returned no result"
				if state.Outcome != nil && state.Outcome.Message != "" {
					msg = state.Outcome.Message
				}
				return nil, &entity.TransportError{Op: op, Err: errors.New(msg)}
			}
			c.logger.Debug("Async task completed", zap.String("op", op), zap.Int64("taskID", taskID))
			return state.Outcome.Result, nil
		default:
			return nil, &entity.TransportError{Op: op, Err: fmt.Errorf("task %d has unexpected status %q", taskID, state.Status)}
		}
	}
}

// call executes one request and unwraps the response envelope.
func (c *PortfolioClient) call(ctx context.Context, op, method, path string, body []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &entity.TransportError{Op: op, Err: err}
	}
	requestURL := c.baseURL + path

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(method)
	req.Header.SetContentTypeBytes([]byte("application/json"))
	if body != nil {
		req.SetBodyRaw(body)
	}

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	c.logger.Debug("Requesting portfolio API", zap.String("method", method), zap.String("url", requestURL))

	var err error
	if deadline, ok := ctx.Deadline(); ok {
		err = c.client.DoDeadline(req, resp, deadline)
	} else {
		err = c.client.DoTimeout(req, resp, c.timeout)
	}
	if err != nil {
		c.logger.Error("Failed to execute request to portfolio API", zap.String("url", requestURL), zap.Error(err))
		return nil, &entity.TransportError{Op: op, Err: fmt.Errorf("failed to execute request to %s: %w", requestURL, err)}
	}

	status := resp.StatusCode()
	var env envelope
	decodeErr := json.Unmarshal(resp.Body(), &env)

	if status < 200 || status >= 300 {
		msg := string(resp.Body())
		if decodeErr == nil && env.Message != "" {
			msg = env.Message
		}
		c.logger.Error("Portfolio API request failed",
			zap.String("url", requestURL),
			zap.Int("statusCode", status),
			zap.String("message", msg),
		)
		return nil, &entity.TransportError{Op: op, StatusCode: status, Err: errors.New(msg)}
	}
	if decodeErr != nil {
		return nil, &entity.TransportError{Op: op, StatusCode: status, Err: fmt.Errorf("invalid response envelope: %w", decodeErr)}
	}
	if isNull(env.Result) {
		msg := env.Message
		if msg == "" {
			msg = "response has no result"
		}
		return nil, &entity.TransportError{Op: op, StatusCode: status, Err: errors.New(msg)}
	}
	// The response buffer is released on return.
	return append([]byte(nil), env.Result...), nil
}

func isNull(raw jsoniter.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return trimmed == "" || trimmed == "null"
}
