package deskhttp

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"stockdesk/internal/service"
	"stockdesk/internal/types"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type handlers struct {
	desk *service.Desk
}

func (h *handlers) register(g *gin.RouterGroup) {
	g.GET("/agents", h.listAgents)
	g.POST("/agents", h.createAgent)
	g.POST("/agents/:id/decisions", h.submitDecision)
	g.GET("/agents/:id/portfolio", h.portfolio)
	g.GET("/agents/:id/transactions", h.transactions)
	g.GET("/agents/:id/violations", h.violations)
	g.PUT("/agents/:id/market-view", h.setMarketView)
}

type createAgentRequest struct {
	AgentID string `json:"agent_id"`
}

func (h *handlers) createAgent(c *gin.Context) {
	var req createAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	req.AgentID = strings.TrimSpace(req.AgentID)
	if req.AgentID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "agent_id is required"})
		return
	}
	if err := h.desk.CreateAgent(c.Request.Context(), req.AgentID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"agent_id": req.AgentID})
}

func (h *handlers) listAgents(c *gin.Context) {
	ids, err := h.desk.AgentIDs(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"agents": ids})
}

type decisionRequest struct {
	Symbol        string         `json:"symbol"`
	Action        string         `json:"action"`
	Quantity      int64          `json:"quantity"`
	PositionType  string         `json:"position_type"`
	DecisionID    string         `json:"decision_id"`
	PriceHint     *float64       `json:"price_hint"`
	Reasoning     string         `json:"reasoning"`
	MarketContext map[string]any `json:"market_context"`
}

func (h *handlers) submitDecision(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable request body"})
		return
	}
	req, err := decodeDecision(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dec := types.Decision{
		AgentID:       c.Param("id"),
		Symbol:        req.Symbol,
		Action:        types.Action(req.Action),
		Quantity:      req.Quantity,
		PositionType:  types.PositionType(req.PositionType),
		DecisionID:    req.DecisionID,
		Reasoning:     req.Reasoning,
		MarketContext: req.MarketContext,
	}
	if req.PriceHint != nil {
		hint := decimal.NewFromFloat(*req.PriceHint)
		dec.PriceHint = &hint
	}
	execCtx := types.ExecContext{DryRun: parseBoolQuery(c, "dry_run")}

	receipt, err := h.desk.Submit(c.Request.Context(), execCtx, dec)
	if err != nil {
		writeSubmitError(c, err)
		return
	}
	c.JSON(http.StatusOK, receipt)
}

func writeSubmitError(c *gin.Context, err error) {
	if rej, ok := types.AsRejection(err); ok {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":     "decision rejected",
			"rule":      rej.Rule,
			"violation": rej.Violation,
			"reason":    rej.Reason,
		})
		return
	}
	switch {
	case errors.Is(err, types.ErrAgentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, types.ErrVersionConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "state changed concurrently, retry the decision"})
	case errors.Is(err, types.ErrMarketClosed):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}

func (h *handlers) portfolio(c *gin.Context) {
	view, err := h.desk.Portfolio(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeReadError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *handlers) transactions(c *gin.Context) {
	limit := parseIntQuery(c, "limit", 0)
	txs, err := h.desk.Transactions(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		writeReadError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txs})
}

func (h *handlers) violations(c *gin.Context) {
	days := parseIntQuery(c, "days", 7)
	rows, err := h.desk.Violations(c.Request.Context(), c.Param("id"), days)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"violations": rows})
}

type marketViewRequest struct {
	View    string         `json:"view"`
	Summary map[string]any `json:"summary"`
}

func (h *handlers) setMarketView(c *gin.Context) {
	var req marketViewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.desk.SetMarketView(c.Request.Context(), c.Param("id"), req.View, req.Summary); err != nil {
		writeReadError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func writeReadError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, types.ErrAgentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, types.ErrVersionConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func parseIntQuery(c *gin.Context, key string, def int) int {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func parseBoolQuery(c *gin.Context, key string) bool {
	raw := strings.TrimSpace(strings.ToLower(c.Query(key)))
	return raw == "1" || raw == "true" || raw == "yes"
}
