package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kube-rca/graylog-relay/internal/db"
	"github.com/kube-rca/graylog-relay/internal/model"
)

// alertService - 서비스 인터페이스
type alertService interface {
	ProcessWebhook(ctx context.Context, webhook model.GraylogWebhook) model.WebhookResponse
	WebhookInfo() model.WebhookInfoResponse
	GetAlert(ctx context.Context, id uuid.UUID) (model.StoredAlert, error)
	ListAlerts(ctx context.Context, minPriority *int) ([]model.StoredAlert, error)
}

type investigator interface {
	Investigate(ctx context.Context, alert model.Alert) string
}

// GraylogHandler - Graylog 웹훅 관련 핸들러
type GraylogHandler struct {
	svc          alertService
	investigator investigator
	logger       *zap.Logger
	now          func() time.Time
}

// investigator는 nil 허용 (analyze 엔드포인트가 503 반환)
func NewGraylogHandler(svc alertService, inv investigator, logger *zap.Logger) *GraylogHandler {
	return &GraylogHandler{
		svc:          svc,
		investigator: inv,
		logger:       logger,
		now:          time.Now,
	}
}

// ReceiveWebhook godoc
// @Summary Receive a Graylog webhook alert
// @Description High priority alerts (>= 2) are investigated by the AI model and sent to Teams before being stored.
// @Tags graylog
// @Accept json
// @Produce json
// @Param request body model.GraylogWebhook true "Graylog HTTP notification payload"
// @Success 200 {object} model.WebhookResponse
// @Failure 400,500 {object} model.WebhookResponse
// @Router /api/graylog/webhook [post]
func (h *GraylogHandler) ReceiveWebhook(c *gin.Context) {
	webhook, err := bindWebhook(c)
	if err != nil {
		h.logger.Warn("Failed to parse Graylog webhook", zap.Error(err))
		c.JSON(http.StatusBadRequest, model.WebhookResponse{
			Success:    false,
			Message:    "invalid payload: " + err.Error(),
			ReceivedAt: h.now().UTC(),
		})
		return
	}

	resp := h.svc.ProcessWebhook(c.Request.Context(), webhook)
	if !resp.Success {
		c.JSON(http.StatusInternalServerError, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// WebhookInfo godoc
// @Summary Describe the webhook contract
// @Tags graylog
// @Produce json
// @Success 200 {object} model.WebhookInfoResponse
// @Router /api/graylog/webhook/info [get]
func (h *GraylogHandler) WebhookInfo(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.WebhookInfo())
}

// AnalyzeWebhook godoc
// @Summary Run only the AI investigation for a webhook payload
// @Tags graylog
// @Accept json
// @Produce json
// @Param request body model.GraylogWebhook true "Graylog HTTP notification payload"
// @Success 200 {object} model.AnalysisResponse
// @Failure 400,503 {object} model.ProblemResponse
// @Router /api/graylog/webhook/analyze [post]
func (h *GraylogHandler) AnalyzeWebhook(c *gin.Context) {
	webhook, err := bindWebhook(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ProblemResponse{
			Status: http.StatusBadRequest,
			Title:  "Invalid request payload",
			Detail: err.Error(),
		})
		return
	}

	if h.investigator == nil {
		h.logger.Warn("AI analysis requested but no chat model is configured")
		c.JSON(http.StatusServiceUnavailable, model.ProblemResponse{
			Status: http.StatusServiceUnavailable,
			Title:  "AI service is not configured",
			Detail: "Set AI_API_KEY to enable AI analysis",
		})
		return
	}

	analysis := h.investigator.Investigate(c.Request.Context(), webhook.ToAlert())
	c.JSON(http.StatusOK, model.AnalysisResponse{
		Success:    true,
		Analysis:   analysis,
		AnalyzedAt: h.now().UTC(),
		EventTitle: webhook.EventDefinitionTitle,
	})
}

// ListAlerts godoc
// @Summary List stored alerts
// @Tags graylog
// @Produce json
// @Param minPriority query int false "Only alerts with priority >= minPriority"
// @Success 200 {object} model.AlertListResponse
// @Failure 400,500 {object} model.ErrorResponse
// @Router /api/graylog/alerts [get]
func (h *GraylogHandler) ListAlerts(c *gin.Context) {
	var minPriority *int
	if raw := c.Query("minPriority"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "invalid minPriority"})
			return
		}
		minPriority = &v
	}

	alerts, err := h.svc.ListAlerts(c.Request.Context(), minPriority)
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, model.AlertListResponse{Status: "success", Data: alerts})
}

// GetAlert godoc
// @Summary Get a stored alert by ID
// @Tags graylog
// @Produce json
// @Param id path string true "Alert ID (uuid)"
// @Success 200 {object} model.AlertDetailEnvelope
// @Failure 400,404,500 {object} model.ErrorResponse
// @Router /api/graylog/alerts/{id} [get]
func (h *GraylogHandler) GetAlert(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "invalid id"})
		return
	}

	alert, err := h.svc.GetAlert(c.Request.Context(), id)
	if errors.Is(err, db.ErrAlertNotFound) {
		c.JSON(http.StatusNotFound, model.ErrorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, model.AlertDetailEnvelope{Status: "success", Data: &alert})
}

// 빈 본문이나 null도 잘못된 요청으로 처리
func bindWebhook(c *gin.Context) (model.GraylogWebhook, error) {
	var webhook model.GraylogWebhook

	body, err := c.GetRawData()
	if err != nil {
		return webhook, err
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return webhook, errors.New("request body must not be empty")
	}
	if err := json.Unmarshal(body, &webhook); err != nil {
		return webhook, err
	}
	return webhook, nil
}
