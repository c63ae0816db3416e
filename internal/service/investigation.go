// AI 조사 비즈니스 로직 정의
// Alert 한 건을 채팅 모델에 전달하고, 모델이 search_graylog_logs 도구로
// Graylog 로그를 직접 조회하면서 조사 보고서를 작성하도록 함
//
// 처리 흐름:
//  1. 시스템 지시문 + Alert 기반 사용자 프롬프트로 대화 시작
//  2. LogSearcher가 있으면 search_graylog_logs 도구 등록 (없으면 도구 없이 진행)
//  3. 스트리밍 응답의 텍스트 조각을 순서대로 이어붙임
//  4. 도구 호출 횟수 집계 (도구가 있는데 한 번도 호출하지 않으면 경고 로그)
//  5. 보고서 / 빈 응답 안내문 / 실패 문자열 중 하나를 반환

package service

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/kube-rca/graylog-relay/internal/client"
	"github.com/kube-rca/graylog-relay/internal/metrics"
	"github.com/kube-rca/graylog-relay/internal/model"
	"github.com/kube-rca/graylog-relay/internal/template"
	"github.com/kube-rca/graylog-relay/internal/tracing"
)

// ErrMisconfigured - 필수 의존성 없이 서비스를 생성하려 한 경우
var ErrMisconfigured = errors.New("service misconfigured")

const (
	// EmptyAnalysisText - 모델이 공백만 반환했을 때의 안내문
	EmptyAnalysisText = "AI analysis returned no result. Please check the chat model configuration."

	failurePrefix = "analysis failed: "

	// 도구로 노출되는 검색의 기본 건수는 클라이언트 기본값(20)보다 작음
	toolDefaultLimit = 10
)

// ChatModel - 도구 호출을 지원하는 스트리밍 채팅 런타임
type ChatModel interface {
	Send(ctx context.Context, turns []model.Turn, tools []model.Tool) iter.Seq2[model.Turn, error]
}

// LogSearcher - Graylog 검색 (실패 시 빈 결과)
type LogSearcher interface {
	Search(ctx context.Context, queryString string, timeRangeSeconds, limit int) []model.LogRecord
}

// InvestigationService 구조체 정의
type InvestigationService struct {
	chat    ChatModel
	search  LogSearcher
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// InvestigationService 객체 생성
// search는 nil 허용 (도구 없이 프롬프트만으로 분석)
func NewInvestigationService(chat ChatModel, search LogSearcher, logger *zap.Logger, m *metrics.Metrics) (*InvestigationService, error) {
	if chat == nil {
		return nil, fmt.Errorf("%w: chat model is required", ErrMisconfigured)
	}
	if logger == nil {
		return nil, fmt.Errorf("%w: logger is required", ErrMisconfigured)
	}
	return &InvestigationService{
		chat:    chat,
		search:  search,
		logger:  logger,
		metrics: m,
	}, nil
}

// Investigate - 조사 보고서 반환, 어떤 실패도 에러로 올리지 않음
func (s *InvestigationService) Investigate(ctx context.Context, alert model.Alert) (analysis string) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("AI investigation panicked", zap.String("title", alert.Title), zap.Any("panic", r))
			s.metrics.RecordInvestigation("failed", time.Since(start))
			analysis = fmt.Sprintf("%s%v", failurePrefix, r)
		}
	}()

	outcome, err := s.Run(ctx, alert)
	if err != nil {
		s.logger.Error("AI investigation failed", zap.String("title", alert.Title), zap.Error(err))
		s.metrics.RecordInvestigation("failed", time.Since(start))
		return failurePrefix + err.Error()
	}

	if strings.TrimSpace(outcome.AnalysisText) == "" {
		s.logger.Warn("AI investigation returned no text", zap.String("title", alert.Title))
		s.metrics.RecordInvestigation("empty", time.Since(start))
		return EmptyAnalysisText
	}

	s.metrics.RecordInvestigation("ok", time.Since(start))
	return outcome.AnalysisText
}

// Run - 한 번의 스트리밍 교환을 끝까지 수행하고 결과를 집계
func (s *InvestigationService) Run(ctx context.Context, alert model.Alert) (outcome model.InvestigationOutcome, err error) {
	ctx, span := tracing.Start(ctx, "investigation", trace.SpanKindInternal,
		attribute.String("alert.title", alert.Title),
		attribute.String("alert.event_id", alert.EventID),
	)
	defer func() {
		span.SetAttributes(attribute.Int("investigation.tool_calls", outcome.ToolCallCount))
		tracing.End(span, err)
	}()

	userPrompt := template.BuildUserPrompt(alert)
	turns := []model.Turn{
		model.SystemTurn(template.SystemPrompt),
		model.UserTurn(userPrompt),
	}

	var tools []model.Tool
	if s.search != nil {
		tools = append(tools, s.searchTool())
	} else {
		s.logger.Warn("Log search is not configured; investigating without tools")
	}

	s.logger.Info("Starting AI investigation",
		zap.String("title", alert.Title),
		zap.String("event_id", alert.EventID),
		zap.Int("system_prompt_len", len(template.SystemPrompt)),
		zap.Int("user_prompt_len", len(userPrompt)),
		zap.Int("tools", len(tools)),
	)

	var text strings.Builder
	seed := turns[:len(turns):len(turns)]
	for turn, sendErr := range s.chat.Send(ctx, seed, tools) {
		if sendErr != nil {
			return outcome, sendErr
		}
		turns = append(turns, turn)

		switch turn.Kind {
		case model.TurnText:
			text.WriteString(turn.Text)
		case model.TurnToolCall:
			outcome.ToolCallCount++
			s.logger.Info("Model called tool",
				zap.Int("count", outcome.ToolCallCount),
				zap.String("tool", toolName(turn)),
			)
		case model.TurnToolResult:
			if turn.ToolCall != nil {
				s.logger.Info("Tool result", zap.String("tool", turn.ToolCall.Name), zap.Int("length", len(turn.ToolCall.Result)))
			}
		}
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return outcome, ctxErr
	}

	outcome.AnalysisText = text.String()
	if outcome.ToolCallCount == 0 && len(tools) > 0 {
		s.logger.Warn("Model finished without calling any tool", zap.String("title", alert.Title))
	}

	s.logger.Info("AI investigation completed",
		zap.String("title", alert.Title),
		zap.Int("tool_calls", outcome.ToolCallCount),
		zap.Int("turns", len(turns)),
		zap.Int("length", len(outcome.AnalysisText)),
	)
	return outcome, nil
}

// search_graylog_logs 도구 정의
func (s *InvestigationService) searchTool() model.Tool {
	return model.Tool{
		Name: template.SearchToolName,
		Description: "Search the Graylog log system. Use it to trace the full request chain of a RequestId or MsgId, " +
			"or to list every record of an error Code.",
		Params: []model.ToolParam{
			{Name: "queryString", Type: model.ParamString, Required: true,
				Description: `Elasticsearch query syntax, e.g. RequestId:"xxx" or MsgId:"xxx" or Code:"904002"`},
			{Name: "timeRangeSeconds", Type: model.ParamInteger,
				Description: "Relative time range in seconds. Default 60, use 900 (15 minutes) for trend analysis"},
			{Name: "limit", Type: model.ParamInteger,
				Description: "Number of records to return. Default 10"},
		},
		Invoke: s.invokeSearch,
	}
}

func (s *InvestigationService) invokeSearch(ctx context.Context, args map[string]any) (output string, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Log search tool panicked", zap.Any("panic", r))
			output, err = fmt.Sprintf("search failed: %v", r), nil
		}
	}()

	query := strings.TrimSpace(stringArg(args, "queryString"))
	if query == "" {
		return "", errors.New("queryString is required")
	}
	rangeSeconds := intArg(args, "timeRangeSeconds", client.DefaultSearchRange)
	limit := intArg(args, "limit", toolDefaultLimit)

	s.logger.Info("Model requested Graylog search",
		zap.String("query", query),
		zap.Int("range_seconds", rangeSeconds),
		zap.Int("limit", limit),
	)
	records := s.search.Search(ctx, query, rangeSeconds, limit)
	return template.FormatSearchResults(query, records), nil
}

func toolName(turn model.Turn) string {
	if turn.ToolCall == nil {
		return ""
	}
	return turn.ToolCall.Name
}

func stringArg(args map[string]any, key string) string {
	switch v := args[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

// JSON 숫자는 float64로 들어오므로 여러 형태를 허용, 1 미만은 기본값
func intArg(args map[string]any, key string, fallback int) int {
	var n int
	switch v := args[key].(type) {
	case int:
		n = v
	case int32:
		n = int(v)
	case int64:
		n = int(v)
	case float64:
		n = int(v)
	case float32:
		n = int(v)
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fallback
		}
		n = parsed
	default:
		return fallback
	}
	if n < 1 {
		return fallback
	}
	return n
}
