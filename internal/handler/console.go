package handler

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/seedplatform/control-interface/internal/series"
	"github.com/seedplatform/control-interface/internal/service"
	"github.com/seedplatform/control-interface/pkg/response"
)

type ConsoleHandler struct {
	svc service.ConsoleService
}

func NewConsoleHandler(svc service.ConsoleService) *ConsoleHandler {
	return &ConsoleHandler{svc: svc}
}

func (h *ConsoleHandler) Register(r *gin.RouterGroup) {
	identities := r.Group("/identities")
	{
		identities.GET("", h.identities)
		identities.GET("/:identity_id", h.identityDetail)
		identities.POST("/:identity_id/optout", h.optOut)
	}
	r.GET("/registrations", h.registrations)
	r.GET("/changes", h.changes)
	r.GET("/subscriptions", h.subscriptions)
	r.POST("/subscriptions/:subscription_id", h.changeSubscription)
	r.GET("/messagesets", h.messageSets)
	r.GET("/metric", h.metric)
	r.GET("/metric-last", h.metricLast)
	r.GET("/series", h.series)
}

func (h *ConsoleHandler) identities(c *gin.Context) {
	page, err := h.svc.Identities(c.Request.Context(), c.Query("address"), c.Query("page"))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, page)
}

func (h *ConsoleHandler) identityDetail(c *gin.Context) {
	detail, err := h.svc.IdentityDetail(c.Request.Context(), c.Param("identity_id"),
		c.Query("outbound_page"), c.Query("inbound_page"))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, detail)
}

func (h *ConsoleHandler) optOut(c *gin.Context) {
	if err := h.svc.OptOutIdentity(c.Request.Context(), c.Param("identity_id")); err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, gin.H{"status": "opted out"})
}

// listFilters are the query parameters forwarded to the backing service;
// the paging parameter is the console's own.
func listFilters(c *gin.Context) url.Values {
	filters := url.Values{}
	for key, vals := range c.Request.URL.Query() {
		if key == "page" {
			continue
		}
		filters[key] = vals
	}
	return filters
}

func (h *ConsoleHandler) registrations(c *gin.Context) {
	page, err := h.svc.Registrations(c.Request.Context(), listFilters(c), c.Query("page"))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, page)
}

func (h *ConsoleHandler) changes(c *gin.Context) {
	page, err := h.svc.Changes(c.Request.Context(), listFilters(c), c.Query("page"))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, page)
}

func (h *ConsoleHandler) subscriptions(c *gin.Context) {
	page, err := h.svc.Subscriptions(c.Request.Context(), listFilters(c), c.Query("page"))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, page)
}

type changeSubscriptionRequest struct {
	MessageSet int    `json:"messageset"`
	Language   string `json:"language"`
}

func (h *ConsoleHandler) changeSubscription(c *gin.Context) {
	var req changeSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.WriteError(c, service.ErrInvalidInput)
		return
	}
	err := h.svc.ChangeSubscription(c.Request.Context(), c.Param("subscription_id"),
		req.MessageSet, req.Language)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, gin.H{"status": "change requested"})
}

func (h *ConsoleHandler) messageSets(c *gin.Context) {
	sets, err := h.svc.MessageSets(c.Request.Context())
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, gin.H{"messagesets": sets})
}

// metric proxies a raw multi-metric query. The m parameter repeats per
// metric; everything else passes through to the metrics service.
func (h *ConsoleHandler) metric(c *gin.Context) {
	names := c.QueryArray("m")
	params := url.Values{}
	for key, vals := range c.Request.URL.Query() {
		if key == "m" {
			continue
		}
		params[key] = vals
	}
	objects, err := h.svc.Metrics(c.Request.Context(), names, params)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, gin.H{"objects": objects})
}

func (h *ConsoleHandler) metricLast(c *gin.Context) {
	metric := c.Query("metric")
	value, err := h.svc.LastValue(c.Request.Context(), metric)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, gin.H{"metric": metric, "value": value})
}

func (h *ConsoleHandler) series(c *gin.Context) {
	kind := series.Kind(c.DefaultQuery("kind", string(series.Month)))

	at := time.Now()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.WriteError(c, service.ErrInvalidInput)
			return
		}
		at = parsed
	}
	shift, _ := strconv.Atoi(c.Query("shift"))

	data, err := h.svc.Series(c.Request.Context(), c.Query("metric"), kind, at, shift)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, data)
}
