package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func serveMCP(t *testing.T, reqBody string, handler http.HandlerFunc) (*httptest.ResponseRecorder, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	wrapped := MCPRequestLogger(zap.New(core))(handler)

	req := httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewBufferString(reqBody))
	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)
	return rec, logs
}

func respondWith(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func TestMCPRequestLogger(t *testing.T) {
	t.Run("logs a search with its query", func(t *testing.T) {
		_, logs := serveMCP(t,
			`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"search_universities","arguments":{"query":"Ivy  League\n"}}}`,
			respondWith(http.StatusOK, `{"jsonrpc":"2.0","id":1,"result":{"content":[{"type":"text","text":"{\"count\":2}"}]}}`))

		require.Equal(t, 2, logs.Len())

		call := logs.All()[0]
		assert.Equal(t, "Catalog tool call", call.Message)
		assert.Equal(t, "tools/call", call.ContextMap()["method"])
		assert.Equal(t, "search_universities", call.ContextMap()["tool"])
		assert.Equal(t, "Ivy League", call.ContextMap()["query"])
		assert.NotContains(t, call.ContextMap(), "arguments")

		done := logs.All()[1]
		assert.Equal(t, "Catalog tool call finished", done.Message)
		assert.Equal(t, "search_universities", done.ContextMap()["tool"])
		assert.Equal(t, outcomeOK, done.ContextMap()["outcome"])
		assert.Equal(t, int64(http.StatusOK), done.ContextMap()["status"])
		assert.NotNil(t, done.ContextMap()["duration"])
	})

	t.Run("lifts university and program", func(t *testing.T) {
		_, logs := serveMCP(t,
			`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"get_program_details","arguments":{"university":"Harvard University","program":"Law"}}}`,
			respondWith(http.StatusOK, `{"jsonrpc":"2.0","id":1,"result":{"content":[]}}`))

		call := logs.All()[0].ContextMap()
		assert.Equal(t, "Harvard University", call["university"])
		assert.Equal(t, "Law", call["program"])
	})

	t.Run("reports the structured code of a tool error", func(t *testing.T) {
		_, logs := serveMCP(t,
			`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"save_university","arguments":{"name":"Yale University"}}}`,
			respondWith(http.StatusOK, `{"jsonrpc":"2.0","id":1,"result":{"isError":true,"content":[{"type":"text","text":"{\"error\":true,\"code\":\"store_not_configured\",\"message\":\"repository store is not configured\"}"}]}}`))

		assert.Equal(t, "Yale University", logs.All()[0].ContextMap()["university"])

		done := logs.All()[1].ContextMap()
		assert.Equal(t, outcomeToolError, done["outcome"])
		assert.Equal(t, "store_not_configured", done["error_code"])
		assert.Equal(t, "repository store is not configured", done["error_message"])
	})

	t.Run("reports JSON-RPC errors", func(t *testing.T) {
		_, logs := serveMCP(t,
			`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"search_universities","arguments":{"query":"Top Engineering"}}}`,
			respondWith(http.StatusOK, `{"jsonrpc":"2.0","id":1,"error":{"code":-32603,"message":"content service is not configured"}}`))

		done := logs.All()[1].ContextMap()
		assert.Equal(t, outcomeRPCError, done["outcome"])
		assert.Equal(t, int64(-32603), done["rpc_code"])
		assert.Equal(t, "content service is not configured", done["error_message"])
	})

	t.Run("reads streamed responses", func(t *testing.T) {
		_, logs := serveMCP(t,
			`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"get_university_details","arguments":{"university":"Oxford"}}}`,
			func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/event-stream")
				_, _ = w.Write([]byte("event: message\ndata: {\"jsonrpc\":\"2.0\",\"id\":1,\"result\":{\"isError\":true,\"content\":[{\"type\":\"text\",\"text\":\"{\\\"code\\\":\\\"university_not_found\\\"}\"}]}}\n\n"))
			})

		done := logs.All()[1].ContextMap()
		assert.Equal(t, outcomeToolError, done["outcome"])
		assert.Equal(t, "university_not_found", done["error_code"])
	})

	t.Run("redacts and truncates remaining arguments", func(t *testing.T) {
		long := strings.Repeat("a", 250)
		_, logs := serveMCP(t,
			`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"get_university_location","arguments":{"api_key":"abc123","note":"`+long+`","lat":51.75}}}`,
			respondWith(http.StatusOK, `{"jsonrpc":"2.0","id":1,"result":{}}`))

		args := logs.All()[0].ContextMap()["arguments"].(map[string]any)
		assert.Equal(t, "[REDACTED]", args["api_key"])
		assert.Equal(t, strings.Repeat("a", 200)+"...", args["note"])
		assert.Equal(t, 51.75, args["lat"])
	})

	t.Run("uses the JSON-RPC method when no tool is named", func(t *testing.T) {
		_, logs := serveMCP(t, `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`,
			respondWith(http.StatusOK, `{"jsonrpc":"2.0","id":1,"result":{"tools":[]}}`))

		assert.Equal(t, "tools/list", logs.All()[0].ContextMap()["tool"])
		assert.Equal(t, outcomeOK, logs.All()[1].ContextMap()["outcome"])
	})

	t.Run("passes through with nil logger", func(t *testing.T) {
		called := false
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			w.WriteHeader(http.StatusOK)
		})

		rec := httptest.NewRecorder()
		MCPRequestLogger(nil)(handler).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewBufferString(`{}`)))

		assert.True(t, called)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("forwards malformed requests", func(t *testing.T) {
		rec, logs := serveMCP(t, `{invalid json`, respondWith(http.StatusBadRequest, `{"error":"bad request"}`))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, 2, logs.Len())
		assert.Equal(t, int64(http.StatusBadRequest), logs.All()[1].ContextMap()["status"])
	})

	t.Run("handles empty bodies", func(t *testing.T) {
		rec, logs := serveMCP(t, "", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusAccepted)
		})

		assert.Equal(t, http.StatusAccepted, rec.Code)
		assert.Equal(t, outcomeUnparsed, logs.All()[1].ContextMap()["outcome"])
	})
}

func TestRedactArguments(t *testing.T) {
	t.Run("redacts sensitive keywords case-insensitively", func(t *testing.T) {
		result := redactArguments(map[string]any{
			"PASSWORD":      "secret",
			"Api_Key":       "abc123",
			"AccessToken":   "xyz789",
			"client_secret": "hidden",
			"credential":    "cred123",
			"country":       "UK",
		})

		for _, k := range []string{"PASSWORD", "Api_Key", "AccessToken", "client_secret", "credential"} {
			assert.Equal(t, "[REDACTED]", result[k], k)
		}
		assert.Equal(t, "UK", result["country"])
	})

	t.Run("preserves non-string values", func(t *testing.T) {
		args := map[string]any{
			"lat":    51.75,
			"nearby": true,
			"null":   nil,
			"tags":   []string{"a", "b"},
		}

		assert.Equal(t, args, redactArguments(args))
	})

	t.Run("nil stays nil", func(t *testing.T) {
		assert.Nil(t, redactArguments(nil))
		assert.Empty(t, redactArguments(map[string]any{}))
	})
}

func TestResponsePayload(t *testing.T) {
	assert.Equal(t, `{"id":1}`, string(responsePayload([]byte("  {\"id\":1}\n"))))
	assert.Equal(t, `{"id":2}`, string(responsePayload([]byte("data: {\"id\":1}\n\ndata: {\"id\":2}\n"))))
	assert.Empty(t, responsePayload([]byte("event: ping\n")))
}
