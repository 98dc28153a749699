package main

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"market-movers-api/internal/charts"
	"market-movers-api/internal/dto"
	"market-movers-api/internal/movers"
)

func (s *Server) setupRoutes() {
	s.router.Use(gin.Recovery())
	s.router.Use(corsMiddleware(s.config.Server.CORSOrigins))

	s.router.GET("/health", s.handleHealth)
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))
	s.router.GET("/ws", func(c *gin.Context) { s.hub.Handle(c.Writer, c.Request) })

	api := s.router.Group("/api")
	{
		api.GET("/crypto", s.handleCrypto)
		api.GET("/banner-top", s.handleBannerTop)
		api.GET("/banner-bottom", s.handleBannerBottom)
		api.GET("/chart/:symbol", s.handleChart)
		api.GET("/config", s.handleGetConfig)
		api.POST("/config", s.handleUpdateConfig)
		api.POST("/clear-cache", s.handleClearCache)

		component := api.Group("/component")
		{
			component.GET("/gainers-table", s.handleGainersTable)
			component.GET("/losers-table", s.handleLosersTable)
			component.GET("/gainers-table-1min", s.handleGainersTable1min)
			component.GET("/top-movers-bar", s.handleTopMoversBar)
		}
	}
}

// noData distinguishes "the engine has nothing yet" (retryable, 503) from
// genuine handler errors.
func noData(c *gin.Context) {
	c.JSON(http.StatusServiceUnavailable, gin.H{
		"error": "no data available",
		"retry": true,
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	exchangeStatus := "up"
	overall := "healthy"
	if err := s.exchange.Ping(ctx); err != nil {
		exchangeStatus = "down"
		overall = "unhealthy"
	}

	status := s.service.Status()

	code := http.StatusOK
	if overall != "healthy" {
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":    overall,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "market-movers-api",
		"external_apis": gin.H{
			"exchange": exchangeStatus,
		},
		"cache_status": gin.H{
			"data_cached":       status.HasData,
			"cache_age_seconds": status.CacheAge.Seconds(),
			"ttl_seconds":       status.CacheTTL.Seconds(),
		},
		"data_tracking": gin.H{
			"symbols_tracked":        status.SymbolsTracked,
			"max_history_per_symbol": status.MaxHistory,
		},
		"ws_clients": s.hub.Clients(),
	})
}

func (s *Server) handleCrypto(c *gin.Context) {
	result, err := s.service.Snapshot(c.Request.Context())
	if err != nil {
		if errors.Is(err, movers.ErrNoData) {
			noData(c)
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"gainers":      dto.TableRows(result.Gainers),
		"losers":       dto.TableRows(result.Losers),
		"top_movers":   dto.MoverBar(result.TopMovers),
		"banner":       dto.Banner(result.Banner),
		"last_updated": result.ComputedAt.UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleGainersTable(c *gin.Context) {
	result, err := s.service.Snapshot(c.Request.Context())
	if err != nil {
		noData(c)
		return
	}

	rows := dto.TableRows(result.Gainers)
	c.JSON(http.StatusOK, gin.H{
		"component":    "gainers_table",
		"data":         rows,
		"count":        len(rows),
		"table_type":   "gainers",
		"time_frame":   "3_minutes",
		"last_updated": result.ComputedAt.UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleLosersTable(c *gin.Context) {
	result, err := s.service.Snapshot(c.Request.Context())
	if err != nil {
		noData(c)
		return
	}

	rows := dto.TableRows(result.Losers)
	c.JSON(http.StatusOK, gin.H{
		"component":    "losers_table",
		"data":         rows,
		"count":        len(rows),
		"table_type":   "losers",
		"time_frame":   "3_minutes",
		"last_updated": result.ComputedAt.UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleGainersTable1min(c *gin.Context) {
	gainers, _, err := s.service.MinuteMovers(c.Request.Context())
	if err != nil {
		noData(c)
		return
	}

	rows := dto.TableRows(gainers)
	c.JSON(http.StatusOK, gin.H{
		"component":    "gainers_table_1min",
		"data":         rows,
		"count":        len(rows),
		"table_type":   "gainers",
		"time_frame":   "1_minute",
		"last_updated": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleTopMoversBar(c *gin.Context) {
	result, err := s.service.Snapshot(c.Request.Context())
	if err != nil {
		noData(c)
		return
	}

	items := dto.MoverBar(result.TopMovers)
	c.JSON(http.StatusOK, gin.H{
		"component":    "top_movers_bar",
		"data":         items,
		"count":        len(items),
		"animation":    "horizontal_scroll",
		"time_frame":   "3_minutes",
		"last_updated": result.ComputedAt.UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleBannerTop(c *gin.Context) {
	result, err := s.service.Snapshot(c.Request.Context())
	if err != nil || len(result.Banner) == 0 {
		noData(c)
		return
	}

	items := dto.Banner(result.Banner)
	c.JSON(http.StatusOK, gin.H{
		"banner_data":  items,
		"type":         "top_banner",
		"count":        len(items),
		"last_updated": result.ComputedAt.UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleBannerBottom(c *gin.Context) {
	result, err := s.service.Snapshot(c.Request.Context())
	if err != nil || len(result.Banner) == 0 {
		noData(c)
		return
	}

	// Bottom banner ranks by traded volume instead of price change.
	byVolume := make([]int, len(result.Banner))
	for i := range byVolume {
		byVolume[i] = i
	}
	sort.Slice(byVolume, func(a, b int) bool {
		return result.Banner[byVolume[a]].Volume24h.GreaterThan(result.Banner[byVolume[b]].Volume24h)
	})

	items := dto.Banner(result.Banner)
	ordered := make([]dto.BannerItem, 0, len(items))
	for _, i := range byVolume {
		ordered = append(ordered, items[i])
	}

	c.JSON(http.StatusOK, gin.H{
		"banner_data":  ordered,
		"type":         "bottom_banner",
		"count":        len(ordered),
		"last_updated": result.ComputedAt.UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleChart(c *gin.Context) {
	symbol := strings.ToUpper(c.Param("symbol"))

	days, err := strconv.Atoi(c.DefaultQuery("days", "7"))
	if err != nil || days < 1 {
		days = 7
	}
	if days > 30 {
		days = 30
	}

	points, err := s.charts.GetChartData(c.Request.Context(), symbol, days)
	if err != nil || len(points) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no chart data available for " + symbol})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"symbol":      symbol,
		"days":        days,
		"data_points": len(points),
		"chart_data":  points,
		"analysis":    charts.Analyze(points),
	})
}

func (s *Server) handleGetConfig(c *gin.Context) {
	settings := s.service.Settings()
	status := s.service.Status()

	c.JSON(http.StatusOK, gin.H{
		"config": gin.H{
			"cache_ttl_seconds":       int(settings.CacheTTL.Seconds()),
			"max_history_length":      settings.MaxHistoryLength,
			"fetch_fanout_width":      settings.FetchFanoutWidth,
			"update_interval_seconds": int(settings.UpdateInterval.Seconds()),
			"interval_minutes":        settings.IntervalMinutes,
			"max_coins_per_category":  settings.MaxCoinsPerGroup,
			"min_volume_threshold":    settings.MinVolumeThreshold,
			"min_change_threshold":    settings.MinChangeThreshold,
		},
		"cache_status": gin.H{
			"has_data":    status.HasData,
			"age_seconds": status.CacheAge.Seconds(),
			"ttl_seconds": status.CacheTTL.Seconds(),
		},
		"price_history_status": gin.H{
			"symbols_tracked":        status.SymbolsTracked,
			"max_history_per_symbol": status.MaxHistory,
		},
	})
}

func (s *Server) handleUpdateConfig(c *gin.Context) {
	var req dto.ConfigUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no configuration provided"})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	settings := s.service.Reconfigure(req.Options())

	c.JSON(http.StatusOK, gin.H{
		"message": "configuration updated successfully",
		"new_config": gin.H{
			"cache_ttl_seconds":       int(settings.CacheTTL.Seconds()),
			"max_history_length":      settings.MaxHistoryLength,
			"fetch_fanout_width":      settings.FetchFanoutWidth,
			"update_interval_seconds": int(settings.UpdateInterval.Seconds()),
			"max_coins_per_category":  settings.MaxCoinsPerGroup,
			"min_volume_threshold":    settings.MinVolumeThreshold,
			"min_change_threshold":    settings.MinChangeThreshold,
		},
	})
}

func (s *Server) handleClearCache(c *gin.Context) {
	s.service.ClearState()
	c.JSON(http.StatusOK, gin.H{"message": "cache cleared successfully"})
}

// Helper functions

func corsMiddleware(origins []string) gin.HandlerFunc {
	allowAll := len(origins) == 1 && origins[0] == "*"
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if allowAll {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		} else if allowed[origin] {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
