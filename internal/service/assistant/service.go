package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/assistant"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/user"
)

// MaxToolRounds bounds how many times the model may ask for tools in one chat.
const MaxToolRounds = 5

const systemPrompt = `You are the HR assistant for this company. Answer using the tools provided.
Today is %s. The user is employee %s with role %s.
Never invent numbers; if a tool fails, say so.`

type AssistantServiceImpl struct {
	model     assistant.ModelClient
	tools     map[string]Tool
	order     []string
	maxRounds int
	now       func() time.Time
}

func NewAssistantService(model assistant.ModelClient, tools []Tool) assistant.AssistantService {
	s := &AssistantServiceImpl{
		model:     model,
		tools:     make(map[string]Tool, len(tools)),
		maxRounds: MaxToolRounds,
		now:       time.Now,
	}
	for _, t := range tools {
		s.tools[t.Definition.Name] = t
		s.order = append(s.order, t.Definition.Name)
	}
	return s
}

// authorize is the only place tool access is decided.
func (s *AssistantServiceImpl) authorize(caller user.Caller, name string) (Tool, error) {
	t, ok := s.tools[name]
	if !ok {
		return Tool{}, fmt.Errorf("%w: %s", assistant.ErrUnknownTool, name)
	}
	if err := t.Access.Authorize(caller); err != nil {
		return Tool{}, err
	}
	return t, nil
}

// definitions returns the tools the caller could actually run.
func (s *AssistantServiceImpl) definitions(caller user.Caller) []assistant.ToolDefinition {
	defs := make([]assistant.ToolDefinition, 0, len(s.order))
	for _, name := range s.order {
		if _, err := s.authorize(caller, name); err == nil {
			defs = append(defs, s.tools[name].Definition)
		}
	}
	return defs
}

// Chat implements assistant.AssistantService.
func (s *AssistantServiceImpl) Chat(ctx context.Context, caller user.Caller, req assistant.ChatRequest) (assistant.ChatResponse, error) {
	if err := req.Validate(); err != nil {
		return assistant.ChatResponse{}, err
	}

	messages := make([]assistant.Message, 0, len(req.History)+2)
	messages = append(messages, assistant.Message{
		Role:    assistant.RoleSystem,
		Content: fmt.Sprintf(systemPrompt, s.now().Format("2006-01-02"), caller.EmployeeID, caller.Role),
	})
	messages = append(messages, req.History...)
	messages = append(messages, assistant.Message{Role: assistant.RoleUser, Content: req.Message})

	defs := s.definitions(caller)
	resp := assistant.ChatResponse{ToolCalls: []assistant.ToolInvocation{}}

	for round := 0; round <= s.maxRounds; round++ {
		reply, err := s.model.Complete(ctx, messages, defs)
		if err != nil {
			slog.ErrorContext(ctx, "assistant model call failed", "error", err, "round", round)
			return assistant.ChatResponse{}, fmt.Errorf("%w: %v", assistant.ErrModelUnavailable, err)
		}
		if len(reply.ToolCalls) == 0 {
			resp.Reply = reply.Content
			return resp, nil
		}
		if round == s.maxRounds {
			break
		}

		messages = append(messages, reply)
		for _, call := range reply.ToolCalls {
			content, inv := s.invoke(ctx, caller, call)
			resp.ToolCalls = append(resp.ToolCalls, inv)
			messages = append(messages, assistant.Message{
				Role:       assistant.RoleTool,
				Content:    content,
				ToolCallID: call.ID,
			})
		}
	}
	return assistant.ChatResponse{}, assistant.ErrTooManyToolRounds
}

// invoke runs one tool call. Failures are reported back to the model as the
// tool result rather than ending the chat.
func (s *AssistantServiceImpl) invoke(ctx context.Context, caller user.Caller, call assistant.ToolCall) (string, assistant.ToolInvocation) {
	inv := assistant.ToolInvocation{Name: call.Name}

	t, err := s.authorize(caller, call.Name)
	if err != nil {
		inv.Error = err.Error()
		return errorResult(err), inv
	}
	inv.Allowed = true

	out, err := t.Run(ctx, caller, call.Arguments)
	if err != nil {
		slog.WarnContext(ctx, "assistant tool failed", "tool", call.Name, "error", err)
		inv.Error = err.Error()
		return errorResult(err), inv
	}

	body, err := json.Marshal(out)
	if err != nil {
		inv.Error = err.Error()
		return errorResult(err), inv
	}
	return string(body), inv
}

func errorResult(err error) string {
	body, _ := json.Marshal(map[string]string{"error": err.Error()})
	return string(body)
}
