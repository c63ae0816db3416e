// Alert 수신 처리 비즈니스 로직 정의
// handler에서 받은 Graylog 웹훅을 조사/알림/저장 순서로 처리
//
// 처리 흐름:
//  1. event가 없으면 조사/저장 없이 성공 응답
//  2. priority >= 2 이면 AI 조사 (실패/패닉은 로그만 남기고 계속)
//  3. 조사가 끝났고 Notifier가 있으면 Teams 전송 (실패는 로그만)
//  4. 메모리 저장소에 저장 (새 ID 부여)
//  5. 처리 중 예기치 못한 패닉/저장 실패는 success=false 응답으로 변환

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/kube-rca/graylog-relay/internal/metrics"
	"github.com/kube-rca/graylog-relay/internal/model"
	"github.com/kube-rca/graylog-relay/internal/tracing"
)

// InvestigationThreshold - 이 priority 이상이면 AI 조사 수행
const InvestigationThreshold = 2

const (
	WebhookPath      = "/api/graylog/webhook"
	unknownAlertName = "Unknown alert"
)

// Investigator - Alert 한 건에 대한 조사 보고서 생성
type Investigator interface {
	Investigate(ctx context.Context, alert model.Alert) string
}

// Notifier - 조사 결과 전송, 성공 여부만 반환
type Notifier interface {
	Notify(ctx context.Context, title, analysis string, eventID *string, priority *int) bool
}

// AlertRepository - 추가 전용 알림 저장소
type AlertRepository interface {
	Add(ctx context.Context, alert model.StoredAlert) (model.StoredAlert, error)
	Get(ctx context.Context, id uuid.UUID) (model.StoredAlert, error)
	List(ctx context.Context) ([]model.StoredAlert, error)
	ListByMinPriority(ctx context.Context, minPriority int) ([]model.StoredAlert, error)
}

// AlertService 구조체 정의
type AlertService struct {
	repo         AlertRepository
	investigator Investigator
	notifier     Notifier
	logger       *zap.Logger
	metrics      *metrics.Metrics
	now          func() time.Time
}

// AlertService 객체 생성
// investigator, notifier는 nil 허용 (해당 단계 생략)
func NewAlertService(repo AlertRepository, investigator Investigator, notifier Notifier, logger *zap.Logger, m *metrics.Metrics) (*AlertService, error) {
	if repo == nil {
		return nil, fmt.Errorf("%w: alert repository is required", ErrMisconfigured)
	}
	if logger == nil {
		return nil, fmt.Errorf("%w: logger is required", ErrMisconfigured)
	}
	return &AlertService{
		repo:         repo,
		investigator: investigator,
		notifier:     notifier,
		logger:       logger,
		metrics:      m,
		now:          time.Now,
	}, nil
}

// ProcessWebhook - 웹훅 한 건 처리, 에러 대신 응답의 Success로 결과 표현
func (s *AlertService) ProcessWebhook(ctx context.Context, webhook model.GraylogWebhook) (resp model.WebhookResponse) {
	var eventID *string
	if webhook.Event != nil {
		id := webhook.Event.ID
		eventID = &id
	}

	ctx, span := tracing.Start(ctx, "webhook.process", trace.SpanKindInternal,
		attribute.String("alert.title", webhook.EventDefinitionTitle),
	)
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Panic while processing Graylog webhook",
				zap.String("title", webhook.EventDefinitionTitle),
				zap.Any("panic", r),
			)
			resp = model.WebhookResponse{
				Success:    false,
				Message:    fmt.Sprintf("failed to process alert: %v", r),
				ReceivedAt: s.now().UTC(),
				EventID:    eventID,
			}
		}
		var err error
		if !resp.Success {
			err = errors.New(resp.Message)
		}
		tracing.End(span, err)
		s.metrics.RecordWebhook(webhookOutcome(resp, webhook.Event != nil))
	}()

	s.logger.Info("Received Graylog alert", zap.String("title", webhook.EventDefinitionTitle))

	// event 없는 웹훅도 성공으로 처리 (업스트림 설정 오류를 가릴 수 있어 검토 대상)
	if webhook.Event == nil {
		s.logger.Warn("Graylog webhook has no event data; skipping investigation and storage",
			zap.String("title", webhook.EventDefinitionTitle),
		)
		return model.WebhookResponse{
			Success:    true,
			Message:    "Alert received, but it carries no event data",
			ReceivedAt: s.now().UTC(),
		}
	}

	alert := webhook.ToAlert()
	s.logger.Info("Graylog event",
		zap.String("event_id", alert.EventID),
		zap.String("message", alert.Message),
		zap.Int("priority", alert.PriorityValue()),
	)

	if alert.PriorityValue() >= InvestigationThreshold {
		s.logger.Warn("High priority alert", zap.String("event_id", alert.EventID), zap.String("message", alert.Message))
		s.investigateAndNotify(ctx, alert)
	}

	record, err := s.toStoredAlert(webhook, alert)
	if err != nil {
		return s.failure(err, eventID)
	}
	// 조사 중 요청이 끊겨도 저장은 수행
	saved, err := s.repo.Add(context.WithoutCancel(ctx), record)
	if err != nil {
		s.logger.Error("Failed to store alert", zap.String("event_id", alert.EventID), zap.Error(err))
		return s.failure(err, eventID)
	}

	alertID := saved.ID
	return model.WebhookResponse{
		Success:    true,
		Message:    "Alert received and processed",
		ReceivedAt: s.now().UTC(),
		EventID:    eventID,
		AlertID:    &alertID,
	}
}

// 조사 단계의 패닉은 여기서 흡수하고 저장 단계로 진행
func (s *AlertService) investigateAndNotify(ctx context.Context, alert model.Alert) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("AI investigation failed; continuing with storage",
				zap.String("event_id", alert.EventID),
				zap.Any("panic", r),
			)
		}
	}()

	if s.investigator == nil {
		s.logger.Info("AI investigation is not configured", zap.String("event_id", alert.EventID))
		return
	}

	s.logger.Info("Starting AI investigation", zap.String("event_id", alert.EventID))
	analysis := s.investigator.Investigate(ctx, alert)
	s.logger.Info("AI investigation finished", zap.String("event_id", alert.EventID))

	if s.notifier == nil {
		s.logger.Info("Teams notification is not configured",
			zap.String("event_id", alert.EventID),
			zap.String("analysis", analysis),
		)
		return
	}

	title := alert.Title
	if title == "" {
		title = unknownAlertName
	}
	eventID := alert.EventID
	if s.notifier.Notify(ctx, title, analysis, &eventID, alert.Priority) {
		s.logger.Info("Sent AI analysis to Teams", zap.String("event_id", alert.EventID))
	} else {
		s.logger.Warn("Failed to send AI analysis to Teams", zap.String("event_id", alert.EventID))
	}
}

func (s *AlertService) toStoredAlert(webhook model.GraylogWebhook, alert model.Alert) (model.StoredAlert, error) {
	raw, err := json.Marshal(webhook)
	if err != nil {
		return model.StoredAlert{}, fmt.Errorf("failed to serialize payload: %w", err)
	}

	timestamp := s.now().UTC()
	if alert.OccurredAt != nil {
		timestamp = *alert.OccurredAt
	}

	return model.StoredAlert{
		EventID:                    alert.EventID,
		EventDefinitionID:          alert.EventDefinitionID,
		EventDefinitionTitle:       alert.Title,
		EventDefinitionDescription: alert.Description,
		Message:                    alert.Message,
		Source:                     alert.Source,
		Priority:                   alert.PriorityValue(),
		IsAlert:                    alert.IsAlert,
		Timestamp:                  timestamp,
		RawPayload:                 raw,
	}, nil
}

func (s *AlertService) failure(err error, eventID *string) model.WebhookResponse {
	return model.WebhookResponse{
		Success:    false,
		Message:    fmt.Sprintf("failed to process alert: %v", err),
		ReceivedAt: s.now().UTC(),
		EventID:    eventID,
	}
}

// GetAlert - 저장된 알림 단건 조회
func (s *AlertService) GetAlert(ctx context.Context, id uuid.UUID) (model.StoredAlert, error) {
	return s.repo.Get(ctx, id)
}

// ListAlerts - minPriority가 nil이면 전체, 아니면 priority >= minPriority
func (s *AlertService) ListAlerts(ctx context.Context, minPriority *int) ([]model.StoredAlert, error) {
	if minPriority == nil {
		return s.repo.List(ctx)
	}
	return s.repo.ListByMinPriority(ctx, *minPriority)
}

// WebhookInfo - 웹훅 수신 규격 안내
func (s *AlertService) WebhookInfo() model.WebhookInfoResponse {
	priority := 2
	isAlert := true
	ts := s.now().UTC()
	return model.WebhookInfoResponse{
		Endpoint:    WebhookPath,
		Method:      "POST",
		Description: "Receives Graylog HTTP notification alerts",
		ContentType: "application/json",
		ExamplePayload: model.GraylogWebhook{
			EventDefinitionID:          "example-id",
			EventDefinitionTitle:       "Test alert",
			EventDefinitionDescription: "This is a test alert",
			Event: &model.GraylogEvent{
				ID:        "event-123",
				Message:   "Anomalous activity detected",
				Priority:  &priority,
				Timestamp: &ts,
				Alert:     &isAlert,
				Fields:    map[string]any{"RequestId": "0HNI1U3PLH2D9:00000004"},
			},
		},
	}
}

func webhookOutcome(resp model.WebhookResponse, hasEvent bool) string {
	switch {
	case !resp.Success:
		return "failed"
	case !hasEvent:
		return "no_event"
	default:
		return "stored"
	}
}
