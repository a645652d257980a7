package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/assistant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComplete_ToolCallRoundTrip(t *testing.T) {
	var got completionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":null,
			"tool_calls":[{"id":"call_1","type":"function","function":{"name":"get_leave_balance","arguments":"{\"x\":1}"}}]}}]}`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL+"/v1/", "secret", "gpt-test", time.Second)
	require.NoError(t, err)

	msg, err := c.Complete(context.Background(),
		[]assistant.Message{
			{Role: assistant.RoleSystem, Content: "be brief"},
			{Role: assistant.RoleAssistant, ToolCalls: []assistant.ToolCall{{ID: "old", Name: "get_my_wallet"}}},
			{Role: assistant.RoleTool, ToolCallID: "old", Content: `{"points":5}`},
		},
		[]assistant.ToolDefinition{{Name: "get_leave_balance", Description: "balance", Parameters: map[string]interface{}{"type": "object"}}},
	)
	require.NoError(t, err)

	assert.Equal(t, "gpt-test", got.Model)
	require.Len(t, got.Messages, 3)
	assert.Nil(t, got.Messages[1].Content, "tool-call turns carry no content")
	assert.Equal(t, "{}", *got.Messages[1].ToolCalls[0].Function.Arguments)
	assert.Equal(t, "old", got.Messages[2].ToolCallID)
	require.Len(t, got.Tools, 1)
	assert.Equal(t, "function", got.Tools[0].Type)

	require.Len(t, msg.ToolCalls, 1)
	assert.Equal(t, "get_leave_balance", msg.ToolCalls[0].Name)
	assert.JSONEq(t, `{"x":1}`, string(msg.ToolCalls[0].Arguments))
}

func TestComplete_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, "", "m", 0)
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), []assistant.Message{{Role: assistant.RoleUser, Content: "hi"}}, nil)
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusTooManyRequests, httpErr.StatusCode)
}

func TestNewClient_Validates(t *testing.T) {
	_, err := NewClient(" ", "k", "m", 0)
	assert.Error(t, err)
	_, err = NewClient("http://localhost", "k", "", 0)
	assert.Error(t, err)
}
