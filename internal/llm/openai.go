package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	openai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"
)

const assistantInstructions = "You are a helpful AI ShopBot assistant. " +
	"You will give me adequate prompts for giving a good service in a shopping context. " +
	"Use the provided functions to answer questions. " +
	"Generate function outputs (in tools) depending on the received messages"

// OpenAIClient implements Client on top of the OpenAI chat completions
// API with function tools.
type OpenAIClient struct {
	client  openai.Client
	model   shared.ChatModel
	timeout time.Duration
	logger  *slog.Logger
}

// OpenAIConfig holds configuration for the OpenAI client.
type OpenAIConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// NewOpenAIClient creates a provider client. Timeout bounds each call
// unless the caller's context carries an earlier deadline.
func NewOpenAIClient(cfg OpenAIConfig, logger *slog.Logger) *OpenAIClient {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &OpenAIClient{
		client:  openai.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:   shared.ChatModel(cfg.Model),
		timeout: cfg.Timeout,
		logger:  logger,
	}
}

type openAIConversation struct {
	messages []openai.ChatCompletionMessageParamUnion
}

func (c *openAIConversation) Append(text string) {
	c.messages = append(c.messages, openai.UserMessage(text))
}

// NewConversation returns a conversation seeded with the assistant
// instructions.
func (o *OpenAIClient) NewConversation() Conversation {
	return &openAIConversation{
		messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(assistantInstructions),
		},
	}
}

// toolSchemas declares the three extraction tools. The natural-language
// descriptions are part of the prompt contract: they instruct the model
// to emit the literal string "null" when nothing in the catalog matches.
func toolSchemas() []openai.ChatCompletionToolUnionParam {
	return []openai.ChatCompletionToolUnionParam{
		openai.ChatCompletionFunctionTool(shared.FunctionDefinitionParam{
			Name:        ToolGetProductInfo,
			Description: openai.String("Give the product_name value described in the JSON input catalog that contains any string in the text after 'user: '"),
			Parameters: shared.FunctionParameters{
				"type": "object",
				"properties": map[string]any{
					ArgProductName: map[string]any{
						"type":        "string",
						"description": "The complete product_name value given in the JSON input catalog that contains any string given after 'user: '. If any string after 'user: ' is NOT contained in any product_name this value MUST BE 'null'! The query should be returned in plain text, not in JSON.",
					},
				},
				"required": []string{ArgProductName},
			},
		}),
		openai.ChatCompletionFunctionTool(shared.FunctionDefinitionParam{
			Name:        ToolCheckStock,
			Description: openai.String("Give the single stock_avail value associated with the user input. This is NOT the product_name! Only the stock_avail value."),
			Parameters: shared.FunctionParameters{
				"type": "object",
				"properties": map[string]any{
					ArgCheckValue: map[string]any{
						"type":        "string",
						"description": "The value of stock_avail associated with the product given in the text after 'user: '. This is NOT the product_name! Only the stock_avail value.",
					},
				},
				"required": []string{ArgCheckValue},
			},
		}),
		openai.ChatCompletionFunctionTool(shared.FunctionDefinitionParam{
			Name:        ToolGetInformation,
			Description: openai.String("Give the description and prices values associated with the user input. This is NOT the product_name! Only the information required."),
			Parameters: shared.FunctionParameters{
				"type": "object",
				"properties": map[string]any{
					ArgPrice: map[string]any{
						"type":        "string",
						"description": "The value of price associated with the product given in the text after 'user: '. This is NOT the product_name! Only give the associated price value! The query should be returned in plain text.",
					},
					ArgDescription: map[string]any{
						"type":        "string",
						"description": "The value of description associated with the product given in the text after 'user: '. This is NOT the product_name! Only give the associated description value! The query should be returned in plain text.",
					},
				},
				"required": []string{ArgPrice, ArgDescription},
			},
		}),
	}
}

// Invoke submits prompt on conv. With a pinned tool name the provider
// must invoke exactly that tool; its call is acknowledged with one
// empty tool output so the conversation reaches a terminal state.
func (o *OpenAIClient) Invoke(ctx context.Context, conv Conversation, prompt string, pinned string) (*Result, error) {
	c, ok := conv.(*openAIConversation)
	if !ok {
		return nil, fmt.Errorf("%w: foreign conversation type %T", ErrProviderFailed, conv)
	}

	ctx, cancel := o.boundWait(ctx)
	defer cancel()

	c.messages = append(c.messages, openai.UserMessage(prompt))

	params := openai.ChatCompletionNewParams{
		Messages: c.messages,
		Model:    o.model,
		Tools:    toolSchemas(),
	}
	if pinned != "" {
		params.ToolChoice = openai.ChatCompletionToolChoiceOptionUnionParam{
			OfFunctionToolChoice: &openai.ChatCompletionNamedToolChoiceParam{
				Function: openai.ChatCompletionNamedToolChoiceFunctionParam{Name: pinned},
			},
		}
	}

	completion, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, o.mapError(ctx, err, pinned)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty choices", ErrProviderFailed)
	}

	msg := completion.Choices[0].Message
	c.messages = append(c.messages, msg.ToParam())

	if len(msg.ToolCalls) == 0 {
		return &Result{Text: msg.Content}, nil
	}

	call := msg.ToolCalls[0]
	args, err := parseArguments(call.Function.Arguments)
	if err != nil {
		return nil, fmt.Errorf("%w: decode tool arguments: %v", ErrProviderFailed, err)
	}

	// One acknowledgement per invocation, exactly as the provider
	// requires before the run can complete.
	c.messages = append(c.messages, openai.ToolMessage("", call.ID))

	return &Result{
		Invocation: &ToolInvocation{
			Name:      call.Function.Name,
			Arguments: args,
		},
	}, nil
}

// Complete performs a one-shot completion with a throwaway context.
func (o *OpenAIClient) Complete(ctx context.Context, system, user string) (string, error) {
	ctx, cancel := o.boundWait(ctx)
	defer cancel()

	completion, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Model: o.model,
	})
	if err != nil {
		return "", o.mapError(ctx, err, "")
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("%w: empty choices", ErrProviderFailed)
	}
	return completion.Choices[0].Message.Content, nil
}

func (o *OpenAIClient) boundWait(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, o.timeout)
}

func (o *OpenAIClient) mapError(ctx context.Context, err error, pinned string) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		o.logger.Error("provider call timed out", "pinned", pinned)
		return fmt.Errorf("%w: %v", ErrProviderTimedOut, err)
	}
	o.logger.Error("provider call failed", "pinned", pinned, "error", err)
	return fmt.Errorf("%w: %v", ErrProviderFailed, err)
}

// parseArguments decodes a tool-call argument payload into a flat
// string map. Non-string values are stringified rather than rejected;
// the caller validates semantics.
func parseArguments(raw string) (map[string]string, error) {
	if raw == "" {
		return map[string]string{}, nil
	}
	var generic map[string]any
	if err := json.Unmarshal([]byte(raw), &generic); err != nil {
		return nil, err
	}
	args := make(map[string]string, len(generic))
	for k, v := range generic {
		switch val := v.(type) {
		case string:
			args[k] = val
		default:
			args[k] = fmt.Sprint(val)
		}
	}
	return args, nil
}

var _ Client = (*OpenAIClient)(nil)
