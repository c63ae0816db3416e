package model

import "time"

// InvestigationOutcome - AI 조사 결과 (관측용, 저장하지 않음)
type InvestigationOutcome struct {
	AnalysisText  string
	ToolCallCount int
}

// AnalysisResponse - POST /api/graylog/webhook/analyze 응답
type AnalysisResponse struct {
	Success    bool      `json:"success"`
	Analysis   string    `json:"analysis"`
	AnalyzedAt time.Time `json:"analyzedAt"`
	EventTitle string    `json:"eventTitle,omitempty"`
}
