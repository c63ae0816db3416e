// 프로세스 메모리에 알림을 보관하는 저장소
//
// 추가만 가능하며 수정/삭제 없음 (프로세스 종료 시 소멸)
// 동시 요청에서 Add 와 조회가 경합하지 않도록 RWMutex로 보호

package db

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kube-rca/graylog-relay/internal/metrics"
	"github.com/kube-rca/graylog-relay/internal/model"
)

var ErrAlertNotFound = errors.New("alert not found")

// AlertStore 구조체 정의
type AlertStore struct {
	mu      sync.RWMutex
	alerts  []model.StoredAlert
	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewAlertStore(logger *zap.Logger, m *metrics.Metrics) *AlertStore {
	return &AlertStore{
		logger:  logger,
		metrics: m,
		now:     time.Now,
	}
}

// Add - 새 ID와 수신 시각을 부여해 저장
// 입력의 ID/ReceivedAt 값은 무시
func (s *AlertStore) Add(ctx context.Context, alert model.StoredAlert) (model.StoredAlert, error) {
	alert.ID = uuid.New()
	alert.ReceivedAt = s.now().UTC()

	s.mu.Lock()
	s.alerts = append(s.alerts, alert)
	s.metrics.SetStoredAlerts(len(s.alerts))
	s.mu.Unlock()

	s.logger.Info("Stored alert in memory",
		zap.String("alert_id", alert.ID.String()),
		zap.String("event_id", alert.EventID),
	)
	return alert, nil
}

// Get - ID로 단건 조회
func (s *AlertStore) Get(ctx context.Context, id uuid.UUID) (model.StoredAlert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.alerts {
		if a.ID == id {
			return a, nil
		}
	}
	return model.StoredAlert{}, ErrAlertNotFound
}

// List - 저장 순서대로 전체 조회 (복사본 반환)
func (s *AlertStore) List(ctx context.Context) ([]model.StoredAlert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.StoredAlert, len(s.alerts))
	copy(out, s.alerts)
	return out, nil
}

// ListByMinPriority - priority >= minPriority 인 알림만 조회
func (s *AlertStore) ListByMinPriority(ctx context.Context, minPriority int) ([]model.StoredAlert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.StoredAlert, 0, len(s.alerts))
	for _, a := range s.alerts {
		if a.Priority >= minPriority {
			out = append(out, a)
		}
	}
	return out, nil
}
