package model

import "context"

// TurnKind - 대화 턴 종류
type TurnKind string

const (
	TurnSystem     TurnKind = "system"
	TurnUser       TurnKind = "user"
	TurnToolCall   TurnKind = "tool_call"
	TurnToolResult TurnKind = "tool_result"
	TurnText       TurnKind = "text"
)

// Turn - 조사 한 번 동안 누적되는 대화 단위
type Turn struct {
	Kind TurnKind
	Text string

	// TurnToolCall, TurnToolResult 일 때만 설정
	ToolCall *ToolCall
}

// ToolCall - 모델이 요청한 도구 호출 (결과 턴에서는 Result가 채워짐)
type ToolCall struct {
	ID     string
	Name   string
	Args   map[string]any
	Result string
}

func SystemTurn(text string) Turn { return Turn{Kind: TurnSystem, Text: text} }

func UserTurn(text string) Turn { return Turn{Kind: TurnUser, Text: text} }

func TextTurn(text string) Turn { return Turn{Kind: TurnText, Text: text} }

// ParamType - 도구 파라미터 타입
type ParamType string

const (
	ParamString  ParamType = "string"
	ParamInteger ParamType = "integer"
)

type ToolParam struct {
	Name        string
	Type        ParamType
	Description string
	Required    bool
}

// Tool - 모델이 호출할 수 있는 함수
// Invoke는 채팅 런타임이 스트림 도중 동기적으로 호출
type Tool struct {
	Name        string
	Description string
	Params      []ToolParam
	Invoke      func(ctx context.Context, args map[string]any) (string, error)
}
