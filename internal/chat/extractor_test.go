package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/shopbot-labs/shopbot/internal/domain"
	"github.com/shopbot-labs/shopbot/internal/llm"
)

func TestExtractorPullsAttributes(t *testing.T) {
	t.Parallel()

	client := &fakeClient{script: []scriptStep{
		{Result: toolResult(llm.ToolGetInformation, map[string]string{
			llm.ArgPrice:       "199.99",
			llm.ArgDescription: "A watch that is smart",
		})},
		{Result: toolResult(llm.ToolCheckStock, map[string]string{
			llm.ArgCheckValue: "true",
		})},
	}}
	e := extractor{client: client, logger: slog.Default()}

	attrs, err := e.extract(context.Background(), &fakeConversation{}, testCatalog(), "Smart Watch")
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}

	if attrs.Price != "199.99" {
		t.Errorf("expected price 199.99, got %q", attrs.Price)
	}
	if attrs.Description != "A watch that is smart" {
		t.Errorf("unexpected description: %q", attrs.Description)
	}
	if attrs.Stock != "true" {
		t.Errorf("expected stock true, got %q", attrs.Stock)
	}

	if len(client.calls) != 2 {
		t.Fatalf("expected two pinned calls, got %d", len(client.calls))
	}
	if client.calls[0].Pinned != llm.ToolGetInformation {
		t.Errorf("first call pinned to %q, want %q", client.calls[0].Pinned, llm.ToolGetInformation)
	}
	if client.calls[1].Pinned != llm.ToolCheckStock {
		t.Errorf("second call pinned to %q, want %q", client.calls[1].Pinned, llm.ToolCheckStock)
	}
}

func TestExtractorMissingInvocationFails(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		script []scriptStep
	}{
		{
			name: "information call returns free text",
			script: []scriptStep{
				{Result: textResult("no tool call here")},
			},
		},
		{
			name: "stock call returns free text",
			script: []scriptStep{
				{Result: toolResult(llm.ToolGetInformation, map[string]string{llm.ArgPrice: "10"})},
				{Result: textResult("no tool call here")},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client := &fakeClient{script: tt.script}
			e := extractor{client: client, logger: slog.Default()}

			_, err := e.extract(context.Background(), &fakeConversation{}, testCatalog(), "Smart Watch")
			if !errors.Is(err, llm.ErrMissingToolInvocation) {
				t.Fatalf("expected ErrMissingToolInvocation, got %v", err)
			}
		})
	}
}

func TestReconcileStock(t *testing.T) {
	t.Parallel()

	cat := testCatalog()

	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"clean true passes through", "true", "true"},
		{"clean false passes through", "false", "false"},
		{"mixed-case boolean passes through", "True", "True"},
		{"product name resolves to catalog flag", "Smart Watch", "true"},
		{"out-of-stock product name", "Wireless Earbuds", "false"},
		{"unknown value stands as-is", "maybe", "maybe"},
		{"empty value stands as-is", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := reconcileStock(tt.value, cat); got != tt.want {
				t.Errorf("reconcileStock(%q) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestComposeProductResponse(t *testing.T) {
	t.Parallel()

	attrs := domain.Attributes{Price: "199.99", Description: "A smart watch", Stock: "true"}
	got := composeProductResponse("Smart Watch", attrs)

	for _, want := range []string{
		"<b>Smart Watch</b><br>",
		"<b>Price:</b> 199.99 USD <br>",
		"<b>Description:</b> A smart watch<br>",
		inStockPhrase,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("response missing %q:\n%s", want, got)
		}
	}

	attrs.Stock = "maybe"
	got = composeProductResponse("Smart Watch", attrs)
	if !strings.Contains(got, outOfStockPhrase) {
		t.Errorf("non-boolean stock should render out of stock:\n%s", got)
	}

	attrs.Stock = "TRUE"
	got = composeProductResponse("Smart Watch", attrs)
	if !strings.Contains(got, inStockPhrase) {
		t.Errorf("case-insensitive true should render in stock:\n%s", got)
	}
}
