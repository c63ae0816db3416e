// genai SDK 기반 채팅 런타임 (함수 호출 지원)
//
// 환경변수:
//   - AI_API_KEY: Gemini API 키
//   - AI_ENDPOINT: 비어 있으면 SDK 기본 엔드포인트
//   - AI_MODEL: 모델 이름
//   - AI_MAX_TOOL_ROUNDS: 한 번의 대화에서 허용하는 도구 호출 라운드 수
//
// Send는 모델 응답을 스트리밍으로 내보내며, 모델이 도구 호출을 요청하면
// 해당 Tool.Invoke를 동기 호출한 뒤 결과를 붙여 다음 라운드를 시작

package client

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/kube-rca/graylog-relay/internal/config"
	"github.com/kube-rca/graylog-relay/internal/metrics"
	"github.com/kube-rca/graylog-relay/internal/model"
	"github.com/kube-rca/graylog-relay/internal/tracing"
)

var (
	// ErrNotConfigured - 필수 설정 없이 클라이언트를 생성하려 한 경우
	ErrNotConfigured = errors.New("client not configured")

	// ErrToolRoundLimit - 모델이 허용 라운드 수를 넘겨 도구 호출을 계속 요청한 경우
	ErrToolRoundLimit = errors.New("tool round limit exceeded")
)

const defaultMaxToolRounds = 8

var (
	roleUser  = string(genai.RoleUser)
	roleModel = string(genai.RoleModel)
)

// ChatClient 구조체 정의
type ChatClient struct {
	client        *genai.Client
	model         string
	maxToolRounds int
	logger        *zap.Logger
	metrics       *metrics.Metrics
}

// ChatClient 객체 생성
func NewChatClient(ctx context.Context, cfg config.ChatConfig, logger *zap.Logger, m *metrics.Metrics) (*ChatClient, error) {
	if !cfg.IsConfigured() {
		return nil, fmt.Errorf("%w: AI_API_KEY is required", ErrNotConfigured)
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.Endpoint != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.Endpoint}
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	rounds := cfg.MaxToolRounds
	if rounds < 1 {
		rounds = defaultMaxToolRounds
	}
	return &ChatClient{
		client:        client,
		model:         cfg.Model,
		maxToolRounds: rounds,
		logger:        logger,
		metrics:       m,
	}, nil
}

// Send - 대화 턴과 사용 가능한 도구로 스트리밍 교환을 시작
// 반환된 시퀀스는 텍스트/도구 호출/도구 결과 턴을 발생 순서대로 내보냄
func (c *ChatClient) Send(ctx context.Context, turns []model.Turn, tools []model.Tool) iter.Seq2[model.Turn, error] {
	return func(yield func(model.Turn, error) bool) {
		system, contents := toContents(turns)
		genCfg := &genai.GenerateContentConfig{SystemInstruction: system}
		if len(tools) > 0 {
			genCfg.Tools = []*genai.Tool{{FunctionDeclarations: toolDeclarations(tools)}}
		}

		byName := make(map[string]model.Tool, len(tools))
		for _, t := range tools {
			byName[t.Name] = t
		}

		for round := 0; ; round++ {
			var (
				calls      []*genai.FunctionCall
				modelParts []*genai.Part
			)

			for resp, err := range c.client.Models.GenerateContentStream(ctx, c.model, contents, genCfg) {
				if err != nil {
					yield(model.Turn{}, fmt.Errorf("chat stream failed: %w", err))
					return
				}
				for _, part := range responseParts(resp) {
					if part.Thought {
						continue
					}
					modelParts = append(modelParts, part)
					if part.FunctionCall != nil {
						calls = append(calls, part.FunctionCall)
						continue
					}
					if part.Text != "" && !yield(model.TextTurn(part.Text), nil) {
						return
					}
				}
			}

			// SDK는 본문 읽기 중단을 에러로 넘기지 않으므로 직접 확인
			if err := ctx.Err(); err != nil {
				yield(model.Turn{}, err)
				return
			}
			if len(calls) == 0 {
				return
			}
			if round >= c.maxToolRounds {
				yield(model.Turn{}, fmt.Errorf("%w: %d rounds", ErrToolRoundLimit, c.maxToolRounds))
				return
			}

			contents = append(contents, &genai.Content{Role: roleModel, Parts: modelParts})
			results := make([]*genai.Part, 0, len(calls))
			for _, call := range calls {
				request := &model.ToolCall{ID: call.ID, Name: call.Name, Args: call.Args}
				if !yield(model.Turn{Kind: model.TurnToolCall, ToolCall: request}, nil) {
					return
				}

				output := c.invoke(ctx, byName, call)
				result := &model.ToolCall{ID: call.ID, Name: call.Name, Args: call.Args, Result: output}
				if !yield(model.Turn{Kind: model.TurnToolResult, ToolCall: result}, nil) {
					return
				}

				results = append(results, &genai.Part{FunctionResponse: &genai.FunctionResponse{
					ID:       call.ID,
					Name:     call.Name,
					Response: map[string]any{"output": output},
				}})
			}
			contents = append(contents, &genai.Content{Role: roleUser, Parts: results})
		}
	}
}

// 도구 실행 실패도 모델에게 결과 문자열로 전달
func (c *ChatClient) invoke(ctx context.Context, tools map[string]model.Tool, call *genai.FunctionCall) string {
	ctx, span := tracing.Start(ctx, "chat.tool_call", trace.SpanKindInternal,
		attribute.String("tool.name", call.Name),
	)

	tool, ok := tools[call.Name]
	if !ok || tool.Invoke == nil {
		err := fmt.Errorf("unknown tool %q", call.Name)
		tracing.End(span, err)
		c.logger.Warn("Model requested unknown tool", zap.String("tool", call.Name))
		return "error: " + err.Error()
	}

	c.metrics.RecordToolCall(call.Name)
	output, err := tool.Invoke(ctx, call.Args)
	tracing.End(span, err)
	if err != nil {
		c.logger.Warn("Tool invocation failed", zap.String("tool", call.Name), zap.Error(err))
		return "error: " + err.Error()
	}
	return output
}

// 누적된 대화 턴을 genai Content로 변환
// system 턴은 SystemInstruction으로 분리하고, 같은 role이 이어지면 한 Content로 합침
func toContents(turns []model.Turn) (*genai.Content, []*genai.Content) {
	var (
		systemTexts []string
		contents    []*genai.Content
	)

	appendPart := func(role string, part *genai.Part) {
		if n := len(contents); n > 0 && contents[n-1].Role == role {
			contents[n-1].Parts = append(contents[n-1].Parts, part)
			return
		}
		contents = append(contents, &genai.Content{Role: role, Parts: []*genai.Part{part}})
	}

	for _, turn := range turns {
		switch turn.Kind {
		case model.TurnSystem:
			systemTexts = append(systemTexts, turn.Text)
		case model.TurnUser:
			appendPart(roleUser, &genai.Part{Text: turn.Text})
		case model.TurnText:
			appendPart(roleModel, &genai.Part{Text: turn.Text})
		case model.TurnToolCall:
			if turn.ToolCall == nil {
				continue
			}
			appendPart(roleModel, &genai.Part{FunctionCall: &genai.FunctionCall{
				ID:   turn.ToolCall.ID,
				Name: turn.ToolCall.Name,
				Args: turn.ToolCall.Args,
			}})
		case model.TurnToolResult:
			if turn.ToolCall == nil {
				continue
			}
			appendPart(roleUser, &genai.Part{FunctionResponse: &genai.FunctionResponse{
				ID:       turn.ToolCall.ID,
				Name:     turn.ToolCall.Name,
				Response: map[string]any{"output": turn.ToolCall.Result},
			}})
		}
	}

	if len(systemTexts) == 0 {
		return nil, contents
	}
	system := &genai.Content{Parts: []*genai.Part{{Text: strings.Join(systemTexts, "\n\n")}}}
	return system, contents
}

// Tool 정의를 genai FunctionDeclaration으로 변환
func toolDeclarations(tools []model.Tool) []*genai.FunctionDeclaration {
	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		schema := &genai.Schema{
			Type:       genai.TypeObject,
			Properties: make(map[string]*genai.Schema, len(t.Params)),
		}
		for _, p := range t.Params {
			schema.Properties[p.Name] = &genai.Schema{
				Type:        schemaType(p.Type),
				Description: p.Description,
			}
			if p.Required {
				schema.Required = append(schema.Required, p.Name)
			}
		}
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  schema,
		})
	}
	return decls
}

func schemaType(t model.ParamType) genai.Type {
	switch t {
	case model.ParamInteger:
		return genai.TypeInteger
	default:
		return genai.TypeString
	}
}

func responseParts(resp *genai.GenerateContentResponse) []*genai.Part {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil
	}
	candidate := resp.Candidates[0]
	if candidate == nil || candidate.Content == nil {
		return nil
	}
	return candidate.Content.Parts
}
