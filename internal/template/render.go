// Package template renders the investigation prompts sent to the chat model.
//
// 구성:
//
//	SystemPrompt          - 조사관 역할, 도구 사용 규칙, 보고서 형식
//	BuildUserPrompt       - Alert 한 건을 조사 지시문으로 변환
//	FormatSearchResults   - search_graylog_logs 도구 결과를 모델용 텍스트로 변환
package template

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/kube-rca/graylog-relay/internal/model"
)

// SearchToolName - 모델에 노출하는 유일한 도구 이름
const SearchToolName = "search_graylog_logs"

const (
	messageExcerptLimit = 200
	eventMessageLimit   = 100
	rawEntryLimit       = 500
	fallbackFieldLimit  = 10

	traceRangeSeconds = 60
	traceLimit        = 20
	codeRangeSeconds  = 900
	codeLimit         = 50
)

// 조사 추적에 우선 사용하는 필드 (순서 유지)
var priorityFields = []string{"RequestId", "MsgId", "Code", "Account", "Layer", "Class", "Method"}

const SystemPrompt = `# Role: Senior Log Investigator
You are not a generic AI analyst. Your job is to solve the incident. When an alert arrives your first reaction must be to collect evidence, not to state a conclusion.

## The only tool: search_graylog_logs
Use search_graylog_logs(queryString, timeRangeSeconds, limit) to obtain the facts.
- queryString: Elasticsearch query syntax, e.g. RequestId:"0HNI1U3PLH2D9:00000004" or MsgId:"f49c2..." or Code:"904002".
- timeRangeSeconds: relative window in seconds. Default 60; use 900 to look at a 15 minute trend.
- limit: number of records to return. Default 10.

## Investigator rules (strict priority)
1. Never guess. Do not say "the cause may be ..." before you have called the tool and read the returned logs.
2. Tool first. Whenever you see a RequestId, MsgId, Code or Account, query it immediately.
3. No partial evidence. Even when the alert already carries some log lines, query the full request chain.
4. Follow through. When an anomaly spans the frontend (FrontendLayer) and the backend (BackendApi), join them with MsgId.

## Query strategy
- Single request: query RequestId to see every step of one request inside one layer.
- Cross-layer: query MsgId to connect the frontend request with the backend API handling.
- Same-kind analysis: query Code over the last 15 minutes to measure how often the error occurs.
- FrontendLayer: focus on the logic between "=== Login Request START ===" and "END".
- BackendApi: focus on responses whose Code is not 000000.

## Report format (mandatory)
Your final answer must follow this structure exactly.

### Investigation Summary
- Anomalies investigated: X
- Tool calls made: Y
- Key finding: (one sentence)

### Investigation Steps (per anomaly)
#### Anomaly #[N]: [description]
- Step 1: ran ` + "`[query]`" + ` -> found [key log line]
- Step 2: (if needed) ran ` + "`[query]`" + ` -> traced to [break point / cause]
- Break point: [Layer] > [Class] > [Method] @ [exact timestamp]
- Cause: according to ` + "`[quoted log]`" + `, the anomaly was caused by [cause].

### Conclusion
- [systemic or isolated problem]
- [impact assessment]

### Recommended Actions
- Immediate fix: [steps]
- Long-term improvement: [monitoring / code changes]

### Completeness Check
- [ ] Tool was called
- [ ] Full request chain was traced
- [ ] Conclusion is based on evidence, not speculation
`

// BuildUserPrompt - Alert를 조사 지시문으로 변환
func BuildUserPrompt(alert model.Alert) string {
	var b strings.Builder

	b.WriteString("# Urgent Investigation\n\n")
	b.WriteString("## Example: correct tool usage\n\n")
	b.WriteString("```\n")
	b.WriteString("Correct:\n")
	b.WriteString("1. You see RequestId: \"0HNI1U3PLH2D9:00000004\"\n")
	b.WriteString("2. Immediately run: " + SuggestedCall("RequestId", "0HNI1U3PLH2D9:00000004", traceRangeSeconds, traceLimit) + "\n")
	b.WriteString("3. Analyze the result\n")
	b.WriteString("4. If a MsgId shows up, run: " + SuggestedCall("MsgId", "xxx", traceRangeSeconds, traceLimit) + "\n\n")
	b.WriteString("Wrong:\n")
	b.WriteString("1. You read the message\n")
	b.WriteString("2. You answer \"this is a wrong password problem...\" <- forbidden\n")
	b.WriteString("```\n\n")
	b.WriteString("Your first step is not analysis. Start by calling " + SearchToolName + ". ")
	b.WriteString("Everything below is only a lead; query Graylog for the full evidence.\n\n---\n\n")

	fmt.Fprintf(&b, "## Alert Title\n**%s**\n\n", alert.Title)
	if alert.Description != "" {
		fmt.Fprintf(&b, "## Alert Description\n%s\n\n", alert.Description)
	}

	if alert.EventID != "" || alert.Message != "" || alert.OccurredAt != nil || alert.Priority != nil || len(alert.Fields) > 0 {
		writeKeyFields(&b, alert.Fields)
		writeEventInfo(&b, alert)
	}

	if len(alert.Backlog) > 0 {
		writeBacklog(&b, alert.Backlog)
	}

	b.WriteString("---\n\n")
	b.WriteString("## Your Tasks (in order)\n\n")
	b.WriteString("1. Run the first query right away with the RequestId or MsgId above.\n")
	b.WriteString("2. Find the break point of the anomaly in the first result.\n")
	b.WriteString("3. Verify with a second query on MsgId or Code.\n")
	b.WriteString("4. Repeat steps 1-3 for every anomaly.\n")
	b.WriteString("5. Write the report in the required format.\n\n")
	b.WriteString("---\n\n")
	b.WriteString("Do not reply with \"understood\" or \"ok\". Start calling " + SearchToolName + " now.\n")

	return b.String()
}

func writeKeyFields(b *strings.Builder, fields map[string]any) {
	if len(fields) == 0 {
		return
	}

	b.WriteString("## Key Trace Fields (query these first)\n\n")
	found := false
	for _, name := range priorityFields {
		if v, ok := fields[name]; ok {
			fmt.Fprintf(b, "- **%s**: `%s` <- query this\n", name, formatValue(v))
			found = true
		}
	}

	// 우선 필드가 하나도 없으면 임의 필드 최대 10개 (키 정렬)
	if !found {
		for i, key := range sortedKeys(fields) {
			if i == fallbackFieldLimit {
				break
			}
			fmt.Fprintf(b, "- %s: `%s`\n", key, formatValue(fields[key]))
		}
	}
	b.WriteString("\n")
}

func writeEventInfo(b *strings.Builder, alert model.Alert) {
	b.WriteString("## Event Info\n")
	fmt.Fprintf(b, "- Event ID: %s\n", alert.EventID)
	fmt.Fprintf(b, "- Source: %s\n", alert.Source)
	fmt.Fprintf(b, "- Priority: %d\n", alert.PriorityValue())
	if alert.OccurredAt != nil {
		fmt.Fprintf(b, "- Time: %s\n", alert.OccurredAt.UTC().Format("2006-01-02 15:04:05"))
	} else {
		b.WriteString("- Time: \n")
	}
	fmt.Fprintf(b, "- Message excerpt: %s\n\n", Truncate(alert.Message, eventMessageLimit))
}

func writeBacklog(b *strings.Builder, backlog []any) {
	fmt.Fprintf(b, "## Messages That Triggered The Alert (%d)\n\n", len(backlog))
	fmt.Fprintf(b, "Investigate **every** entry below individually with %s.\n\n", SearchToolName)

	for i, raw := range backlog {
		fmt.Fprintf(b, "### Anomaly #%d\n", i+1)

		entry, ok := NormalizeEntry(raw)
		if !ok {
			b.WriteString("```json\n")
			b.WriteString(rawBlock(raw))
			b.WriteString("\n```\n\n")
			continue
		}

		writeEntryFields(b, entry)
		if calls := SuggestedCalls(entry); len(calls) > 0 {
			quoted := make([]string, len(calls))
			for j, c := range calls {
				quoted[j] = "`" + c + "`"
			}
			fmt.Fprintf(b, "\n-> **Run**: %s\n", strings.Join(quoted, " or "))
		}
		b.WriteString("\n")
	}

	b.WriteString("---\n\n")
	b.WriteString("**Reminder**:\n")
	fmt.Fprintf(b, "- Investigate each of the **%d anomalies** above with the tool.\n", len(backlog))
	b.WriteString("- Do not conclude from these summaries alone; query the surrounding logs.\n")
	b.WriteString("- Trace the full request chain of every anomaly with RequestId or MsgId.\n\n")
}

func writeEntryFields(b *strings.Builder, entry map[string]any) {
	if v, ok := entry["timestamp"]; ok {
		fmt.Fprintf(b, "- Time: `%s`\n", formatValue(v))
	}
	if v, ok := entry["RequestId"]; ok {
		fmt.Fprintf(b, "- RequestId: `%s` <- query the full chain with this\n", formatValue(v))
	}
	if v, ok := entry["MsgId"]; ok {
		fmt.Fprintf(b, "- MsgId: `%s` <- trace frontend and backend with this\n", formatValue(v))
	}
	for _, name := range []string{"Code", "Msg", "Layer", "Class", "Method", "Account"} {
		if v, ok := entry[name]; ok {
			fmt.Fprintf(b, "- %s: `%s`\n", name, formatValue(v))
		}
	}
	if v, ok := entry["message"]; ok {
		fmt.Fprintf(b, "- Message: `%s`\n", Truncate(formatValue(v), messageExcerptLimit))
	}
}

// SuggestedCalls - backlog 항목에 대해 모델이 그대로 실행할 도구 호출 문자열
// RequestId/MsgId 우선, 둘 다 없으면 Code
func SuggestedCalls(entry map[string]any) []string {
	requestID := stringField(entry, "RequestId")
	msgID := stringField(entry, "MsgId")

	var calls []string
	if requestID != "" {
		calls = append(calls, SuggestedCall("RequestId", requestID, traceRangeSeconds, traceLimit))
	}
	if msgID != "" {
		calls = append(calls, SuggestedCall("MsgId", msgID, traceRangeSeconds, traceLimit))
	}
	if len(calls) > 0 {
		return calls
	}
	if code := stringField(entry, "Code"); code != "" {
		calls = append(calls, SuggestedCall("Code", code, codeRangeSeconds, codeLimit))
	}
	return calls
}

// SuggestedCall - search_graylog_logs(queryString='Field:"value"', timeRangeSeconds=N, limit=M)
func SuggestedCall(field, value string, rangeSeconds, limit int) string {
	return fmt.Sprintf("%s(queryString='%s:%q', timeRangeSeconds=%d, limit=%d)",
		SearchToolName, field, value, rangeSeconds, limit)
}

// NormalizeEntry - backlog 항목을 평탄한 map으로 변환
// 중첩된 "fields" 객체는 최상위로 병합 (최상위 키 우선)
// 변환할 수 없으면 false
func NormalizeEntry(raw any) (map[string]any, bool) {
	var entry map[string]any
	switch v := raw.(type) {
	case map[string]any:
		entry = v
	case model.LogRecord:
		entry = v
	case string:
		if err := json.Unmarshal([]byte(v), &entry); err != nil || entry == nil {
			return nil, false
		}
	case json.RawMessage:
		if err := json.Unmarshal(v, &entry); err != nil || entry == nil {
			return nil, false
		}
	default:
		return nil, false
	}

	nested, ok := entry["fields"].(map[string]any)
	if !ok {
		return entry, true
	}

	flat := make(map[string]any, len(entry)+len(nested))
	for k, v := range nested {
		flat[k] = v
	}
	for k, v := range entry {
		if k == "fields" {
			continue
		}
		flat[k] = v
	}
	return flat, true
}

// FormatSearchResults - 검색 결과를 번호가 붙은 블록으로 변환
func FormatSearchResults(query string, records []model.LogRecord) string {
	if len(records) == 0 {
		return fmt.Sprintf("No log records found for query '%s'.", query)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d log records:\n\n", len(records))
	for i, r := range records {
		fmt.Fprintf(&b, "### Log %d\n", i+1)
		for _, f := range []struct{ key, label string }{
			{"timestamp", "Time"},
			{"message", "Message"},
			{"Code", "Code"},
			{"Layer", "Layer"},
			{"Class", "Class"},
			{"Method", "Method"},
			{"Account", "Account"},
			{"Msg", "Description"},
		} {
			if v, ok := r[f.key]; ok {
				fmt.Fprintf(&b, "- %s: %s\n", f.label, formatValue(v))
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Truncate - n 글자(rune)를 넘으면 자르고 "..." 추가
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

func rawBlock(raw any) string {
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return Truncate(fmt.Sprintf("%v", raw), rawEntryLimit)
	}
	return Truncate(string(data), rawEntryLimit)
}

func stringField(entry map[string]any, key string) string {
	v, ok := entry[key]
	if !ok || v == nil {
		return ""
	}
	return formatValue(v)
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case map[string]any, []any:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(data)
	default:
		return fmt.Sprintf("%v", val)
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
