package middleware

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-campus/pkg/logging"
)

// Outcomes reported on the "Catalog tool call finished" log line.
const (
	outcomeOK        = "ok"
	outcomeToolError = "tool_error"
	outcomeRPCError  = "rpc_error"
	outcomeUnparsed  = "unparsed"
)

const maxLoggedArgument = 200

// MCPRequestLogger returns middleware that logs catalog tool calls made over
// MCP. The university, query and program a call targets are lifted into their
// own fields; everything else lands in "arguments" after redaction. A nil
// logger disables logging.
func MCPRequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if logger == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(r.Body)
			if err != nil {
				logger.Error("Failed to read MCP request body", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			call := parseCatalogCall(body)
			logger.Debug("Catalog tool call", call.fields()...)

			recorder := &mcpResponseRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(recorder, r)

			outcome, errFields := classifyResponse(recorder.body.Bytes())
			fields := append([]zap.Field{
				zap.String("tool", call.Tool),
				zap.String("outcome", outcome),
				zap.Int("status", recorder.status),
				zap.Duration("duration", time.Since(start)),
			}, errFields...)
			logger.Debug("Catalog tool call finished", fields...)
		})
	}
}

// catalogCall is what the log lines need from a JSON-RPC request.
type catalogCall struct {
	Method     string
	Tool       string
	University string
	Query      string
	Program    string
	Arguments  map[string]any
}

type jsonRPCRequest struct {
	Method string `json:"method"`
	Params struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	} `json:"params"`
}

// parseCatalogCall never fails: an unreadable body yields an empty call so
// the request is still forwarded and logged.
func parseCatalogCall(body []byte) catalogCall {
	var req jsonRPCRequest
	if len(body) > 0 {
		_ = json.Unmarshal(body, &req)
	}

	call := catalogCall{Method: req.Method, Tool: req.Params.Name}
	if call.Tool == "" && req.Method != "tools/call" {
		call.Tool = req.Method
	}

	rest := make(map[string]any, len(req.Params.Arguments))
	for k, v := range req.Params.Arguments {
		s, isString := v.(string)
		switch {
		case isString && (k == "university" || k == "name"):
			call.University = logging.TruncateString(s, maxLoggedArgument)
		case isString && k == "query":
			call.Query = logging.SanitizePrompt(s)
		case isString && k == "program":
			call.Program = logging.SanitizePrompt(s)
		default:
			rest[k] = v
		}
	}
	call.Arguments = redactArguments(rest)
	return call
}

func (c catalogCall) fields() []zap.Field {
	fields := []zap.Field{
		zap.String("method", c.Method),
		zap.String("tool", c.Tool),
	}
	if c.University != "" {
		fields = append(fields, zap.String("university", c.University))
	}
	if c.Query != "" {
		fields = append(fields, zap.String("query", c.Query))
	}
	if c.Program != "" {
		fields = append(fields, zap.String("program", c.Program))
	}
	if len(c.Arguments) > 0 {
		fields = append(fields, zap.Any("arguments", c.Arguments))
	}
	return fields
}

type jsonRPCResponse struct {
	Result *struct {
		IsError bool `json:"isError"`
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	} `json:"result"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// classifyResponse reads the outcome of a call from its response body.
// Tool errors carry a structured payload whose "code" names the failure,
// e.g. university_not_found or store_not_configured.
func classifyResponse(body []byte) (string, []zap.Field) {
	var resp jsonRPCResponse
	if err := json.Unmarshal(responsePayload(body), &resp); err != nil {
		return outcomeUnparsed, nil
	}

	if resp.Error != nil {
		return outcomeRPCError, []zap.Field{
			zap.Int("rpc_code", resp.Error.Code),
			zap.String("error_message", resp.Error.Message),
		}
	}
	if resp.Result == nil || !resp.Result.IsError {
		return outcomeOK, nil
	}

	var fields []zap.Field
	if len(resp.Result.Content) > 0 {
		var payload struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if json.Unmarshal([]byte(resp.Result.Content[0].Text), &payload) == nil && payload.Code != "" {
			fields = append(fields,
				zap.String("error_code", payload.Code),
				zap.String("error_message", payload.Message))
		}
	}
	return outcomeToolError, fields
}

// responsePayload returns the JSON body of a response. Streamed responses
// arrive as server-sent events; the last data line holds the JSON-RPC reply.
func responsePayload(body []byte) []byte {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] == '{' {
		return trimmed
	}

	var last []byte
	sc := bufio.NewScanner(bytes.NewReader(trimmed))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		if data, ok := bytes.CutPrefix(sc.Bytes(), []byte("data:")); ok {
			last = append(last[:0], bytes.TrimSpace(data)...)
		}
	}
	return last
}

// mcpResponseRecorder tees the response body and status for logging.
type mcpResponseRecorder struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (r *mcpResponseRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *mcpResponseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

// Flush keeps streamed responses streaming through the recorder.
func (r *mcpResponseRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

var sensitiveKeywords = []string{"password", "secret", "token", "key", "credential"}

// redactArguments hides credential-looking fields and truncates long strings.
func redactArguments(args map[string]any) map[string]any {
	if args == nil {
		return nil
	}

	result := make(map[string]any, len(args))
	for k, v := range args {
		if isSensitiveArgument(k) {
			result[k] = "[REDACTED]"
			continue
		}
		if s, ok := v.(string); ok {
			result[k] = logging.TruncateString(s, maxLoggedArgument)
			continue
		}
		result[k] = v
	}
	return result
}

func isSensitiveArgument(name string) bool {
	lower := strings.ToLower(name)
	for _, keyword := range sensitiveKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}
