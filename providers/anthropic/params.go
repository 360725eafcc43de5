package anthropic

import (
	"github.com/anthropics/anthropic-sdk-go"

	"github.com/haowjy/thesis-llm-go"
)

// defaultMaxTokens applies when neither the caller nor the capability table
// sets one; the Messages API requires it.
const defaultMaxTokens = 4096

// buildMessageParams constructs Anthropic API parameters for one
// system+user exchange. Shared by Complete and StreamComplete.
func buildMessageParams(model, systemPrompt, userMessage string, params *llmprovider.RequestParams) (anthropic.MessageNewParams, error) {
	req := llmprovider.NewChatRequest(model, systemPrompt, userMessage, false)
	if err := req.Validate(); err != nil {
		return anthropic.MessageNewParams{}, err
	}

	registry := llmprovider.GetCapabilityRegistry()
	params = registry.Constraints(llmprovider.ProviderAnthropic).Clamp(params)
	maxTokens := registry.DefaultMaxTokens(llmprovider.ProviderAnthropic, defaultMaxTokens)

	apiParams := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(params.GetMaxTokens(maxTokens)),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userMessage)),
		},
		System: []anthropic.TextBlockParam{
			{
				Type: "text",
				Text: systemPrompt,
			},
		},
	}

	if params != nil {
		if params.Temperature != nil {
			apiParams.Temperature = anthropic.Float(*params.Temperature)
		}
		if params.TopP != nil {
			apiParams.TopP = anthropic.Float(*params.TopP)
		}
	}

	return apiParams, nil
}
