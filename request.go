package llmprovider

// Message roles accepted by chat-completion endpoints.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// ChatRequest is the JSON body POSTed to a chat-completions endpoint.
type ChatRequest struct {
	// Model is the endpoint identifier (e.g., a Volcengine Ark "ep-..." id)
	Model string `json:"model"`

	// Messages is exactly one system message followed by exactly one user message.
	Messages []Message `json:"messages"`

	// Stream requests a text/event-stream response when true.
	// Always serialized so the endpoint never falls back to its own default.
	Stream bool `json:"stream"`

	MaxTokens   *int     `json:"max_tokens,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	TopP        *float64 `json:"top_p,omitempty"`
}

// Message represents a single message in the conversation.
type Message struct {
	// Role is either "system" or "user"
	Role string `json:"role"`

	// Content is UTF-8 text. User content may embed newline-separated
	// structured fields built by the caller.
	Content string `json:"content"`
}

// NewChatRequest builds the canonical system+user request shape.
func NewChatRequest(model, systemPrompt, userMessage string, stream bool) *ChatRequest {
	return &ChatRequest{
		Model: model,
		Messages: []Message{
			{Role: RoleSystem, Content: systemPrompt},
			{Role: RoleUser, Content: userMessage},
		},
		Stream: stream,
	}
}

// ApplyParams copies the optional sampling parameters onto the request.
func (r *ChatRequest) ApplyParams(params *RequestParams) {
	if params == nil {
		return
	}
	r.MaxTokens = params.MaxTokens
	r.Temperature = params.Temperature
	r.TopP = params.TopP
}

// Validate checks the message shape. The user message itself is the caller's
// responsibility and is not re-validated here.
func (r *ChatRequest) Validate() error {
	if len(r.Messages) != 2 {
		return &ValidationError{
			Field:  "messages",
			Value:  len(r.Messages),
			Reason: "expected exactly one system message followed by one user message",
			Err:    ErrInvalidRequest,
		}
	}
	if r.Messages[0].Role != RoleSystem || r.Messages[1].Role != RoleUser {
		return &ValidationError{
			Field:  "messages.role",
			Value:  r.Messages[0].Role + "," + r.Messages[1].Role,
			Reason: "expected roles system,user",
			Err:    ErrInvalidRequest,
		}
	}
	if r.Messages[0].Content == "" {
		return &ValidationError{
			Field:  "system_prompt",
			Value:  "",
			Reason: "system prompt must not be empty",
			Err:    ErrInvalidRequest,
		}
	}
	return nil
}

// SystemPrompt returns the system message content.
func (r *ChatRequest) SystemPrompt() string {
	if len(r.Messages) == 0 {
		return ""
	}
	return r.Messages[0].Content
}

// UserMessage returns the user message content.
func (r *ChatRequest) UserMessage() string {
	if len(r.Messages) < 2 {
		return ""
	}
	return r.Messages[1].Content
}
