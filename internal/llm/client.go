// Package llm wraps the reasoning provider behind a small contract:
// submit a prompt plus the declared tool set, optionally pin which tool
// must be invoked, and read back either free text or a structured tool
// invocation.
package llm

import (
	"context"
	"errors"
)

// Tool names declared to the provider.
const (
	ToolGetProductInfo = "getProductInfo"
	ToolCheckStock     = "checkStock"
	ToolGetInformation = "getInformation"
)

// Argument keys the declared tools carry.
const (
	ArgProductName = "productName"
	ArgCheckValue  = "checkValue"
	ArgPrice       = "price"
	ArgDescription = "description_val"
)

var (
	// ErrProviderFailed signals an upstream execution failure. Fatal to
	// the current request.
	ErrProviderFailed = errors.New("provider call failed")
	// ErrProviderTimedOut signals the bounded wait expired before the
	// provider reached a terminal state. Fatal; never retried silently.
	ErrProviderTimedOut = errors.New("provider call timed out")
	// ErrMissingToolInvocation signals that a pinned call produced no
	// structured tool invocation where one was required.
	ErrMissingToolInvocation = errors.New("provider returned no tool invocation")
)

// ToolInvocation is the structured output of a pinned call.
type ToolInvocation struct {
	Name      string
	Arguments map[string]string
}

// Result is what one provider call produced: free text, or a tool
// invocation when the provider chose (or was pinned to) a tool.
type Result struct {
	Text       string
	Invocation *ToolInvocation
}

// Conversation accumulates multi-turn context within one chat session.
// Implementations are owned by their Client and are not safe for
// concurrent use across requests; the session layer serializes turns.
type Conversation interface {
	// Append records a user message without invoking the provider.
	Append(text string)
}

// Client is the reasoning-provider contract consumed by the chat core.
type Client interface {
	// NewConversation returns an empty conversation seeded with the
	// assistant instructions.
	NewConversation() Conversation

	// Invoke submits prompt on conv and waits for a terminal result.
	// A non-empty pinned forces that tool to be invoked. When a pinned
	// call yields a tool invocation, the implementation must satisfy
	// the provider's follow-up obligation (one acknowledgement output
	// per invocation) before returning.
	Invoke(ctx context.Context, conv Conversation, prompt string, pinned string) (*Result, error)

	// Complete performs a one-shot completion outside any conversation.
	// Used for catalog generation, which must not pollute session
	// context.
	Complete(ctx context.Context, system, user string) (string, error)
}
