// Graylog 웹훅 페이로드 및 도메인 Alert 구조체를 정의
// handler, service, client, template 레이어에서 공통으로 사용하기 때문에 model 레이어에 별도로 정의

package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// GraylogWebhook - Graylog HTTP Notification 페이로드
type GraylogWebhook struct {
	EventDefinitionID          string `json:"event_definition_id"`
	EventDefinitionType        string `json:"event_definition_type"`
	EventDefinitionTitle       string `json:"event_definition_title"`
	EventDefinitionDescription string `json:"event_definition_description"`
	JobDefinitionID            string `json:"job_definition_id"`
	JobTriggerID               string `json:"job_trigger_id"`

	// Event가 없으면 조사/저장 없이 수신만 확인
	Event *GraylogEvent `json:"event"`

	// 알림을 발생시킨 원본 로그 메시지 (구조가 일정하지 않아 any로 받음)
	Backlog []any `json:"backlog"`
}

// GraylogEvent - 웹훅에 포함된 개별 이벤트
type GraylogEvent struct {
	ID                  string     `json:"id"`
	EventDefinitionID   string     `json:"event_definition_id"`
	EventDefinitionType string     `json:"event_definition_type"`
	OriginContext       string     `json:"origin_context"`
	Timestamp           *time.Time `json:"timestamp"`
	TimerangeStart      *time.Time `json:"timerange_start"`
	TimerangeEnd        *time.Time `json:"timerange_end"`
	Streams             []string   `json:"streams"`
	SourceStreams       []string   `json:"source_streams"`
	Message             string     `json:"message"`
	Source              string     `json:"source"`
	KeyTuple            []string   `json:"key_tuple"`

	// 0: information, 1: low, 2: normal, 3: high
	Priority *int           `json:"priority"`
	Alert    *bool          `json:"alert"`
	Fields   map[string]any `json:"fields"`
}

// Alert - 조사 대상 알림 (수신 후 변경하지 않음)
type Alert struct {
	EventID           string
	EventDefinitionID string
	Title             string
	Description       string
	Message           string
	Source            string
	Priority          *int
	OccurredAt        *time.Time
	IsAlert           bool
	Fields            map[string]any
	Backlog           []any
}

// ToAlert - 웹훅 페이로드를 도메인 Alert로 변환
// Event가 없어도 제목/설명/backlog는 채워서 반환 (analyze 엔드포인트용)
func (w GraylogWebhook) ToAlert() Alert {
	alert := Alert{
		EventDefinitionID: w.EventDefinitionID,
		Title:             w.EventDefinitionTitle,
		Description:       w.EventDefinitionDescription,
		Backlog:           w.Backlog,
	}
	if w.Event == nil {
		return alert
	}

	alert.EventID = w.Event.ID
	alert.Message = w.Event.Message
	alert.Source = w.Event.Source
	alert.Priority = w.Event.Priority
	alert.OccurredAt = w.Event.Timestamp
	alert.Fields = w.Event.Fields
	if w.Event.Alert != nil {
		alert.IsAlert = *w.Event.Alert
	}
	if alert.EventDefinitionID == "" {
		alert.EventDefinitionID = w.Event.EventDefinitionID
	}
	return alert
}

// PriorityValue - priority가 없으면 0
func (a Alert) PriorityValue() int {
	if a.Priority == nil {
		return 0
	}
	return *a.Priority
}

// StoredAlert - 메모리 저장소에 보관되는 알림 레코드
type StoredAlert struct {
	ID                         uuid.UUID `json:"id"`
	EventID                    string    `json:"event_id"`
	EventDefinitionID          string    `json:"event_definition_id"`
	EventDefinitionTitle       string    `json:"event_definition_title"`
	EventDefinitionDescription string    `json:"event_definition_description,omitempty"`
	Message                    string    `json:"message"`
	Source                     string    `json:"source,omitempty"`
	Priority                   int       `json:"priority"`
	IsAlert                    bool      `json:"is_alert"`
	Timestamp                  time.Time `json:"timestamp"`
	ReceivedAt                 time.Time `json:"received_at"`

	// 감사용 원본 페이로드
	RawPayload json.RawMessage `json:"raw_payload,omitempty" swaggertype:"object"`
}

// LogRecord - Graylog 검색 결과 한 건 (필드명 -> 값)
type LogRecord map[string]any
