package model

import (
	"time"

	"github.com/google/uuid"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// ProblemResponse - 503 등 상태 설명이 필요한 오류 응답
type ProblemResponse struct {
	Status int    `json:"status"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

type PingResponse struct {
	Message string `json:"message"`
}

type RootResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// WebhookResponse - POST /api/graylog/webhook 응답
type WebhookResponse struct {
	Success    bool       `json:"success"`
	Message    string     `json:"message"`
	ReceivedAt time.Time  `json:"receivedAt"`
	EventID    *string    `json:"eventId,omitempty"`
	AlertID    *uuid.UUID `json:"alertId,omitempty"`
}

// WebhookInfoResponse - GET /api/graylog/webhook/info 응답
type WebhookInfoResponse struct {
	Endpoint       string         `json:"endpoint"`
	Method         string         `json:"method"`
	Description    string         `json:"description"`
	ContentType    string         `json:"contentType"`
	ExamplePayload GraylogWebhook `json:"examplePayload"`
}

// AlertListResponse - GET /api/graylog/alerts 응답
type AlertListResponse struct {
	Status string        `json:"status"`
	Data   []StoredAlert `json:"data"`
}

type AlertDetailEnvelope struct {
	Status string       `json:"status"`
	Data   *StoredAlert `json:"data"`
}
