package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rustyeddy/backtester/config"
	"github.com/rustyeddy/backtester/internal/app"
	"github.com/rustyeddy/backtester/journal"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/strategies"
)

// BacktestRequest is the body of POST /api/backtests. Dates are YYYY-MM-DD or
// RFC3339 and both inclusive.
type BacktestRequest struct {
	Exchange  string `json:"exchange"`
	Symbol    string `json:"symbol" binding:"required"`
	Timeframe string `json:"timeframe" binding:"required"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Strategy  string `json:"strategy"`
	EMAFast   int    `json:"ema_fast"`
	EMASlow   int    `json:"ema_slow"`
	UseClean  *bool  `json:"use_clean"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleBacktest(c *gin.Context) {
	var req BacktestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	d := s.defaults
	data := config.DataConfig{
		Exchange:  req.Exchange,
		Symbol:    req.Symbol,
		Timeframe: req.Timeframe,
		Start:     req.StartDate,
		End:       req.EndDate,
		UseClean:  d.Data.UseClean,
	}
	if data.Exchange == "" {
		data.Exchange = d.Data.Exchange
	}
	if req.UseClean != nil {
		data.UseClean = *req.UseClean
	}
	start, end, err := data.Range()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	strat := d.Strategy
	if req.Strategy != "" {
		strat.Name = req.Strategy
	}
	if req.EMAFast > 0 {
		strat.EMAFast = req.EMAFast
	}
	if req.EMASlow > 0 {
		strat.EMASlow = req.EMASlow
	}

	out, err := s.svc.RunBacktest(c.Request.Context(), app.BacktestRequest{
		Series:   data.Series(),
		Start:    start,
		End:      end,
		UseClean: data.UseClean,
		Strategy: strat.Name,
		Params:   strat.Params(),
		Config:   d.Backtest,
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"run_id":       out.Run.ID,
		"stats":        out.Run.Stats,
		"chart":        out.Run.ChartPath,
		"csv_path":     out.Run.CSVPath,
		"trades":       out.Run.TradeCount,
		"final_equity": out.Run.FinalEquity,
	})
}

func (s *Server) handleRunList(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}
	runs, err := s.svc.Store().ListRuns(c.Request.Context(), limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func (s *Server) handleRunDetail(c *gin.Context) {
	run, err := s.svc.Store().GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"run": run})
}

func (s *Server) handleRunTrades(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	if _, err := s.svc.Store().GetRun(ctx, id); err != nil {
		s.fail(c, err)
		return
	}
	trades, err := s.svc.Store().ListTrades(ctx, id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"run_id": id, "trades": trades})
}

// fail maps service errors to status codes.
func (s *Server) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, journal.ErrRunNotFound), errors.Is(err, app.ErrNoData):
		status = http.StatusNotFound
	case errors.Is(err, market.ErrUnsupportedTimeframe),
		errors.Is(err, strategies.ErrUnknownStrategy),
		errors.Is(err, strategies.ErrInvalidParams):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		s.log.Error("api: request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
