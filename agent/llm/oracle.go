package llm

import (
	"context"
	"errors"
	"fmt"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/shared"
	contractx "github.com/tanpawarit/chative-support/agent/contract"
)

type CompletionRequest struct {
	Messages    []*schema.Message
	Temperature float32
	// JSONMode asks the backend to constrain the reply to a JSON object.
	JSONMode bool
}

// Oracle returns the text of one chat completion.
type Oracle interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

var (
	_ Oracle = (*SDKOracle)(nil)
	_ Oracle = (*ChatModelOracle)(nil)
)

var errNoChoices = errors.New("completion has no choices")

// SDKOracle talks to an OpenAI-compatible endpoint through openai-go.
type SDKOracle struct {
	client    *openai.Client
	model     string
	maxTokens int64
}

func NewSDKOracle(client *openai.Client, model string, maxTokens int64) *SDKOracle {
	return &SDKOracle{client: client, model: model, maxTokens: maxTokens}
}

func (o *SDKOracle) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(o.model),
		Messages:    toSDKMessages(req.Messages),
		Temperature: openai.Float(float64(req.Temperature)),
	}
	if o.maxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(o.maxTokens)
	}
	if req.JSONMode {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: %v", contractx.ErrModelInvoke, errNoChoices)
	}
	return resp.Choices[0].Message.Content, nil
}

func toSDKMessages(msgs []*schema.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		if m == nil {
			continue
		}
		switch m.Role {
		case schema.System:
			out = append(out, openai.SystemMessage(m.Content))
		case schema.Assistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

// ChatModelOracle adapts an eino chat model. JSON mode is left to the prompt.
type ChatModelOracle struct {
	model einomodel.BaseChatModel
}

func NewChatModelOracle(m einomodel.BaseChatModel) *ChatModelOracle {
	return &ChatModelOracle{model: m}
}

func (o *ChatModelOracle) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	msg, err := o.model.Generate(ctx, req.Messages, einomodel.WithTemperature(req.Temperature))
	if err != nil {
		return "", fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
	}
	if msg == nil {
		return "", fmt.Errorf("%w: empty model message", contractx.ErrModelInvoke)
	}
	return msg.Content, nil
}
