package restapi

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"defi_tracker/internal/app/port"
	"defi_tracker/internal/domain/entity"
	"defi_tracker/internal/infrastructure/notify"
	"defi_tracker/internal/infrastructure/session"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ErrorResponse is returned with every non-2xx status.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse lists the fetch status of every section.
type StatusResponse struct {
	Sections map[entity.Section]entity.FetchStatus `json:"sections"`
}

// RefreshResponse lists the outcome of every refreshed section.
type RefreshResponse struct {
	Outcomes map[entity.Section]entity.Outcome `json:"outcomes"`
}

// SessionRequest replaces the session entitlements.
type SessionRequest struct {
	Premium       *bool           `json:"premium" binding:"required"`
	ActiveModules []entity.Module `json:"active_modules"`
}

// IgnoreRequest (un)ignores history entries in accounting.
type IgnoreRequest struct {
	ActionType entity.IgnoreActionType `json:"action_type" binding:"required,oneof=trade asset_movement ethereum_transaction ledger_action"`
	Entries    []entity.HistoryEntry   `json:"entries" binding:"required"`
	Ignore     *bool                   `json:"ignore" binding:"required"`
}

// AssetResponse is the metadata of a supported asset with its latest price, if known.
type AssetResponse struct {
	Asset entity.SupportedAsset    `json:"asset"`
	Price *entity.PriceInformation `json:"price,omitempty"`
}

// HistoricalPriceRequest adds or edits a historical price override.
type HistoricalPriceRequest struct {
	FromAsset entity.AssetID `json:"from_asset" binding:"required"`
	ToAsset   entity.AssetID `json:"to_asset" binding:"required"`
	Timestamp int64          `json:"timestamp" binding:"required,gt=0"`
	Price     string         `json:"price" binding:"required,numeric"`
}

// HistoricalPriceDeleteRequest removes a historical price override.
type HistoricalPriceDeleteRequest struct {
	FromAsset entity.AssetID `json:"from_asset" binding:"required"`
	ToAsset   entity.AssetID `json:"to_asset" binding:"required"`
	Timestamp int64          `json:"timestamp" binding:"required,gt=0"`
}

// Handler serves the tracker REST API.
type Handler struct {
	balancer       port.BalancerService
	assets         port.AssetInfoService
	ignore         port.IgnoreService
	messages       *notify.Queue
	session        *session.State
	refreshTimeout time.Duration
	logger         port.Logger
}

// NewHandler creates a Handler. Refreshes started by a request run for at
// most refreshTimeout, even after the client goes away.
func NewHandler(
	balancer port.BalancerService,
	assets port.AssetInfoService,
	ignore port.IgnoreService,
	messages *notify.Queue,
	sessionState *session.State,
	refreshTimeout time.Duration,
	logger port.Logger,
) *Handler {
	return &Handler{
		balancer:       balancer,
		assets:         assets,
		ignore:         ignore,
		messages:       messages,
		session:        sessionState,
		refreshTimeout: refreshTimeout,
		logger:         logger,
	}
}

// GetAddressesHandler returns the addresses that hold balancer positions.
func (h *Handler) GetAddressesHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"addresses": h.balancer.Addresses()})
}

// GetBalancesHandler returns every balancer position with its owner.
func (h *Handler) GetBalancesHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"balances": h.balancer.BalanceList()})
}

// GetPoolsHandler returns the known pools.
func (h *Handler) GetPoolsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"pools": h.balancer.Pools()})
}

// GetEventsHandler returns pool events, optionally filtered by ?address=.
func (h *Handler) GetEventsHandler(c *gin.Context) {
	addresses, ok := queryAddresses(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": h.balancer.EventList(addresses...)})
}

// GetProfitLossHandler returns profit/loss per pool, optionally filtered by ?address=.
func (h *Handler) GetProfitLossHandler(c *gin.Context) {
	addresses, ok := queryAddresses(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"profit_loss": h.balancer.ProfitLoss(addresses...)})
}

// RefreshHandler refreshes one or both balancer sections.
// Query params: section=balances|events|all (default all), force=bool.
// The refresh outlives a client disconnect and is bounded by refreshTimeout.
func (h *Handler) RefreshHandler(c *gin.Context) {
	force := false
	if raw := c.Query("force"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "force must be a boolean"})
			return
		}
		force = v
	}

	section := c.DefaultQuery("section", "all")
	if section != "balances" && section != "events" && section != "all" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "section must be one of balances, events, all"})
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), h.refreshTimeout)
	defer cancel()
	var outcomes map[entity.Section]entity.Outcome
	switch section {
	case "balances":
		outcomes = map[entity.Section]entity.Outcome{
			entity.SectionDefiBalancerBalances: h.balancer.FetchBalances(ctx, force),
		}
	case "events":
		outcomes = map[entity.Section]entity.Outcome{
			entity.SectionDefiBalancerEvents: h.balancer.FetchEvents(ctx, force),
		}
	default:
		outcomes = h.balancer.RefreshAll(ctx, force)
	}
	c.JSON(http.StatusOK, RefreshResponse{Outcomes: outcomes})
}

// ResetHandler clears the balancer data and statuses.
func (h *Handler) ResetHandler(c *gin.Context) {
	h.balancer.Reset()
	c.Status(http.StatusNoContent)
}

// GetStatusHandler returns the fetch status of every balancer section.
func (h *Handler) GetStatusHandler(c *gin.Context) {
	c.JSON(http.StatusOK, StatusResponse{Sections: map[entity.Section]entity.FetchStatus{
		entity.SectionDefiBalancerBalances: h.balancer.Status(entity.SectionDefiBalancerBalances),
		entity.SectionDefiBalancerEvents:   h.balancer.Status(entity.SectionDefiBalancerEvents),
	}})
}

// GetMessagesHandler drains the queued user messages.
func (h *Handler) GetMessagesHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"messages": h.messages.Drain()})
}

// GetSessionHandler returns the session entitlements.
func (h *Handler) GetSessionHandler(c *gin.Context) {
	c.JSON(http.StatusOK, h.session.Snapshot())
}

// PutSessionHandler replaces the session entitlements.
func (h *Handler) PutSessionHandler(c *gin.Context) {
	var req SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	h.session.Set(*req.Premium, req.ActiveModules)
	h.logger.Info("Session updated", "premium", *req.Premium, "modules", req.ActiveModules)
	c.JSON(http.StatusOK, h.session.Snapshot())
}

// IgnoreHandler (un)ignores history entries in accounting. On success the
// balancer events are refetched in the background, as their profit/loss
// depends on which transactions are accounted.
func (h *Handler) IgnoreHandler(c *gin.Context) {
	var req IgnoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	refreshCtx := context.WithoutCancel(c.Request.Context())
	updated, err := h.ignore.Ignore(c.Request.Context(), req.ActionType, req.Entries, *req.Ignore, func() {
		go h.balancer.FetchEvents(refreshCtx, true)
	})
	if err != nil {
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

// GetAssetHandler returns the metadata and latest price of an asset.
func (h *Handler) GetAssetHandler(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("identifier")

	if err := h.assets.FetchSupportedAssets(ctx, false); err != nil {
		h.logger.Warn("Supported assets unavailable", "error", err)
	}
	info, ok := h.assets.AssetInfo(id)
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "unknown asset " + id})
		return
	}

	resp := AssetResponse{Asset: info}
	price, err := h.assets.AssetPrice(ctx, info.Identifier)
	if err != nil {
		h.logger.Warn("Asset price unavailable", "asset", info.Identifier, "error", err)
	} else {
		resp.Price = &price
	}
	c.JSON(http.StatusOK, resp)
}

// GetHistoricalPricesHandler lists the historical price overrides,
// optionally filtered by ?from_asset= and ?to_asset=.
func (h *Handler) GetHistoricalPricesHandler(c *gin.Context) {
	prices, err := h.assets.HistoricalPrices(c.Request.Context(), entity.HistoricalPriceFilter{
		FromAsset: c.Query("from_asset"),
		ToAsset:   c.Query("to_asset"),
	})
	if err != nil {
		h.logger.Error("Failed to list historical prices", "error", err)
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"prices": prices})
}

// AddHistoricalPriceHandler stores a historical price override.
func (h *Handler) AddHistoricalPriceHandler(c *gin.Context) {
	price, ok := bindHistoricalPrice(c)
	if !ok {
		return
	}
	h.respondChange(c, h.assets.AddHistoricalPrice(c.Request.Context(), price))
}

// EditHistoricalPriceHandler changes the price of a historical price override.
func (h *Handler) EditHistoricalPriceHandler(c *gin.Context) {
	price, ok := bindHistoricalPrice(c)
	if !ok {
		return
	}
	h.respondChange(c, h.assets.EditHistoricalPrice(c.Request.Context(), price))
}

// DeleteHistoricalPriceHandler removes a historical price override.
func (h *Handler) DeleteHistoricalPriceHandler(c *gin.Context) {
	var req HistoricalPriceDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	key := entity.HistoricalPriceKey{FromAsset: req.FromAsset, ToAsset: req.ToAsset, Timestamp: req.Timestamp}
	h.respondChange(c, h.assets.DeleteHistoricalPrice(c.Request.Context(), key))
}

func (h *Handler) respondChange(c *gin.Context, err error) {
	if err != nil {
		h.logger.Error("Historical price change failed", "error", err)
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func bindHistoricalPrice(c *gin.Context) (entity.HistoricalPrice, bool) {
	var req HistoricalPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return entity.HistoricalPrice{}, false
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid price " + req.Price})
		return entity.HistoricalPrice{}, false
	}
	return entity.HistoricalPrice{
		FromAsset: req.FromAsset,
		ToAsset:   req.ToAsset,
		Timestamp: req.Timestamp,
		Price:     price,
	}, true
}

// queryAddresses reads the repeated ?address= filter in checksum form.
// It writes a 400 response and reports false on a malformed address.
func queryAddresses(c *gin.Context) ([]entity.Address, bool) {
	raw := c.QueryArray("address")
	out := make([]entity.Address, 0, len(raw))
	for _, a := range raw {
		if !common.IsHexAddress(a) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid address " + a})
			return nil, false
		}
		out = append(out, common.HexToAddress(a).Hex())
	}
	return out, true
}
