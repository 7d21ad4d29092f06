package chat

import (
	"context"
	"sync"

	"github.com/shopbot-labs/shopbot/internal/domain"
	"github.com/shopbot-labs/shopbot/internal/images"
	"github.com/shopbot-labs/shopbot/internal/llm"
)

// scriptedCall records one Invoke for later inspection.
type scriptedCall struct {
	Prompt string
	Pinned string
}

// scriptStep is the canned outcome of one Invoke.
type scriptStep struct {
	Result *llm.Result
	Err    error
}

// fakeClient returns scripted results in order and records every call.
type fakeClient struct {
	mu         sync.Mutex
	script     []scriptStep
	calls      []scriptedCall
	completion string
	compErr    error
}

type fakeConversation struct {
	appended []string
}

func (c *fakeConversation) Append(text string) {
	c.appended = append(c.appended, text)
}

func (f *fakeClient) NewConversation() llm.Conversation {
	return &fakeConversation{}
}

func (f *fakeClient) Invoke(_ context.Context, _ llm.Conversation, prompt, pinned string) (*llm.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, scriptedCall{Prompt: prompt, Pinned: pinned})
	if len(f.script) == 0 {
		return &llm.Result{Text: "out of script"}, nil
	}
	step := f.script[0]
	f.script = f.script[1:]
	return step.Result, step.Err
}

func (f *fakeClient) Complete(context.Context, string, string) (string, error) {
	return f.completion, f.compErr
}

func toolResult(name string, args map[string]string) *llm.Result {
	return &llm.Result{Invocation: &llm.ToolInvocation{Name: name, Arguments: args}}
}

func textResult(text string) *llm.Result {
	return &llm.Result{Text: text}
}

// fakeRepo captures persisted rows in memory.
type fakeRepo struct {
	mu                  sync.Mutex
	users               []*domain.User
	interactions        []*domain.Interaction
	productInteractions []*domain.ProductInteraction
	saveErr             error
}

func (r *fakeRepo) CreateUser(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = append(r.users, u)
	return nil
}

func (r *fakeRepo) GetUser(context.Context, string) (*domain.User, error) { return nil, nil }

func (r *fakeRepo) SaveInteraction(_ context.Context, in *domain.Interaction) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return 0, r.saveErr
	}
	r.interactions = append(r.interactions, in)
	return int64(len(r.interactions)), nil
}

func (r *fakeRepo) SaveProductInteraction(_ context.Context, in *domain.ProductInteraction) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return 0, r.saveErr
	}
	r.productInteractions = append(r.productInteractions, in)
	return int64(len(r.productInteractions)), nil
}

func (r *fakeRepo) ListInteractions(context.Context, int) ([]*domain.Interaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.interactions, nil
}

func (r *fakeRepo) Ping(context.Context) error { return nil }
func (r *fakeRepo) Close() error               { return nil }

// fakeFetcher returns a fixed path or error.
type fakeFetcher struct {
	path string
	err  error
}

func (f *fakeFetcher) Lookup(context.Context, string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if f.path == "" {
		return images.Placeholder, nil
	}
	return f.path, nil
}
