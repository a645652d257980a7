package http

import (
	"net/http"

	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/assistant"
	"github.com/cmlabs-hris/hris-policy-engine/internal/handler/http/response"
)

type AssistantHandler interface {
	Chat(w http.ResponseWriter, r *http.Request)
}

type assistantHandlerImpl struct {
	assistantService assistant.AssistantService
}

func NewAssistantHandler(assistantService assistant.AssistantService) AssistantHandler {
	return &assistantHandlerImpl{assistantService: assistantService}
}

// Chat runs one assistant turn with the caller's permissions.
func (h *assistantHandlerImpl) Chat(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrUnauthorized(w, r)
	if !ok {
		return
	}

	var req assistant.ChatRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.assistantService.Chat(r.Context(), caller, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, resp)
}
