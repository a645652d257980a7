package assistant

import (
	"context"

	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/user"
)

// ModelClient is the external model gateway. Complete returns the next
// assistant message, which may carry tool calls instead of content.
type ModelClient interface {
	Complete(ctx context.Context, messages []Message, tools []ToolDefinition) (Message, error)
}

type AssistantService interface {
	Chat(ctx context.Context, caller user.Caller, req ChatRequest) (ChatResponse, error)
}
