package assistant

import "github.com/cmlabs-hris/hris-policy-engine/internal/pkg/validator"

type ChatRequest struct {
	Message string    `json:"message"`
	History []Message `json:"history,omitempty"`
}

func (r *ChatRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.Message) {
		errs.Add("message", "message is required")
	}
	for _, m := range r.History {
		if m.Role != RoleUser && m.Role != RoleAssistant {
			errs.Add("history", "history may only contain user and assistant turns")
			break
		}
	}
	return errs.OrNil()
}

type ToolInvocation struct {
	Name    string `json:"name"`
	Allowed bool   `json:"allowed"`
	Error   string `json:"error,omitempty"`
}

type ChatResponse struct {
	Reply     string           `json:"reply"`
	ToolCalls []ToolInvocation `json:"tool_calls"`
}
