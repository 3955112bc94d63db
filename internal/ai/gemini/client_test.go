package gemini

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

type fakeChatCreator struct {
	mu    sync.Mutex
	calls []chatCallRecord
	queue []fakeChatResponse
}

type chatCallRecord struct {
	model  string
	config *genai.GenerateContentConfig
	chat   *fakeChat
}

type fakeChatResponse struct {
	resp *genai.GenerateContentResponse
	err  error
}

type fakeChat struct {
	mu       sync.Mutex
	response fakeChatResponse
	messages []string
}

func (f *fakeChat) SendMessage(_ context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, part := range parts {
		f.messages = append(f.messages, part.Text)
	}
	return f.response.resp, f.response.err
}

func (f *fakeChatCreator) enqueue(resp *genai.GenerateContentResponse, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue = append(f.queue, fakeChatResponse{resp: resp, err: err})
}

func (f *fakeChatCreator) Create(_ context.Context, model string, config *genai.GenerateContentConfig, _ []*genai.Content) (chatSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queue) == 0 {
		return nil, errors.New("unexpected call")
	}
	res := f.queue[0]
	f.queue = f.queue[1:]
	chat := &fakeChat{response: res}
	f.calls = append(f.calls, chatCallRecord{model: model, config: config, chat: chat})
	return chat, nil
}

func textResponse(parts ...string) *genai.GenerateContentResponse {
	content := &genai.Content{}
	for _, p := range parts {
		content.Parts = append(content.Parts, &genai.Part{Text: p})
	}
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{Content: content}}}
}

func stubSleep(t *testing.T) *[]time.Duration {
	t.Helper()
	var delays []time.Duration
	original := sleep
	sleep = func(d time.Duration) { delays = append(delays, d) }
	t.Cleanup(func() { sleep = original })
	return &delays
}

func newTestGenerator(chats chatCreator, maxRetries int) *Generator {
	return &Generator{chats: chats, model: "gemini-test", maxRetries: maxRetries, logger: zap.NewNop()}
}

func TestGeneratorSendsSystemInstructionAsJSONRequest(t *testing.T) {
	chats := &fakeChatCreator{}
	chats.enqueue(textResponse(`{"title":`, `"x"}`), nil)

	output, err := newTestGenerator(chats, 1).GenerateContent(context.Background(), "extract skills", "Senior Go Engineer")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output != "{\"title\":\n\"x\"}" {
		t.Fatalf("unexpected output: %q", output)
	}

	call := chats.calls[0]
	if call.model != "gemini-test" {
		t.Fatalf("unexpected model: %s", call.model)
	}
	if call.config.ResponseMIMEType != "application/json" {
		t.Fatalf("expected JSON response type, got %q", call.config.ResponseMIMEType)
	}
	if call.config.Temperature == nil || *call.config.Temperature != 0 {
		t.Fatalf("expected zero temperature")
	}
	if got := call.config.SystemInstruction.Parts[0].Text; got != "extract skills" {
		t.Fatalf("unexpected system instruction: %q", got)
	}
	if len(call.chat.messages) != 1 || call.chat.messages[0] != "Senior Go Engineer" {
		t.Fatalf("unexpected chat messages: %+v", call.chat.messages)
	}
}

func TestGeneratorRetriesOnServerError(t *testing.T) {
	delays := stubSleep(t)

	chats := &fakeChatCreator{}
	chats.enqueue(nil, genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"})
	chats.enqueue(nil, genai.APIError{Code: http.StatusServiceUnavailable, Status: "UNAVAILABLE"})
	chats.enqueue(textResponse("retry ok"), nil)

	output, err := newTestGenerator(chats, 3).GenerateContent(context.Background(), "system", "message")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if output != "retry ok" {
		t.Fatalf("unexpected output: %q", output)
	}
	if len(chats.calls) != 3 {
		t.Fatalf("expected 3 calls, got %d", len(chats.calls))
	}
	if len(*delays) != 2 || (*delays)[0] != 2*time.Second || (*delays)[1] != 4*time.Second {
		t.Fatalf("unexpected backoff delays: %v", *delays)
	}
}

func TestGeneratorStopsAfterRetriesExhausted(t *testing.T) {
	stubSleep(t)

	chats := &fakeChatCreator{}
	tempErr := genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"}
	chats.enqueue(nil, tempErr)
	chats.enqueue(nil, tempErr)

	_, err := newTestGenerator(chats, 2).GenerateContent(context.Background(), "sys", "msg")
	if err == nil {
		t.Fatal("expected error after retries exhausted")
	}

	var apiErr genai.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != http.StatusInternalServerError {
		t.Fatalf("expected wrapped api error, got %v", err)
	}
	if len(chats.calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(chats.calls))
	}
}

func TestGeneratorQuotaHandling(t *testing.T) {
	cases := []struct {
		name      string
		err       genai.APIError
		wantCalls int
		wantDelay time.Duration
	}{
		{
			name: "long delay is not retried",
			err: genai.APIError{
				Code:    http.StatusTooManyRequests,
				Status:  "RESOURCE_EXHAUSTED",
				Message: "quota exhausted, retry after 60 seconds",
			},
			wantCalls: 1,
		},
		{
			name: "short delay from message",
			err: genai.APIError{
				Code:    http.StatusTooManyRequests,
				Message: "Please retry in 1.5s.",
			},
			wantCalls: 2,
			wantDelay: 1500 * time.Millisecond,
		},
		{
			name: "short delay from details",
			err: genai.APIError{
				Code:    http.StatusTooManyRequests,
				Details: []map[string]any{{"@type": "type.googleapis.com/google.rpc.RetryInfo", "retryDelay": "7s"}},
			},
			wantCalls: 2,
			wantDelay: 7 * time.Second,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			delays := stubSleep(t)

			chats := &fakeChatCreator{}
			chats.enqueue(nil, tc.err)
			chats.enqueue(textResponse("{}"), nil)

			_, _ = newTestGenerator(chats, 3).GenerateContent(context.Background(), "sys", "msg")

			if len(chats.calls) != tc.wantCalls {
				t.Fatalf("expected %d calls, got %d", tc.wantCalls, len(chats.calls))
			}
			if tc.wantDelay > 0 && (len(*delays) != 1 || (*delays)[0] != tc.wantDelay) {
				t.Fatalf("expected delay %s, got %v", tc.wantDelay, *delays)
			}
		})
	}
}

func TestGeneratorDoesNotRetryClientErrors(t *testing.T) {
	chats := &fakeChatCreator{}
	chats.enqueue(nil, genai.APIError{Code: http.StatusUnauthorized, Status: "UNAUTHENTICATED"})

	if _, err := newTestGenerator(chats, 3).GenerateContent(context.Background(), "sys", "msg"); err == nil {
		t.Fatal("expected error")
	}
	if len(chats.calls) != 1 {
		t.Fatalf("expected single call, got %d", len(chats.calls))
	}
}

func TestGeneratorRejectsEmptyInput(t *testing.T) {
	if _, err := newTestGenerator(&fakeChatCreator{}, 1).GenerateContent(context.Background(), "sys", "  "); err == nil {
		t.Fatal("expected error for empty message")
	}

	var g *Generator
	if _, err := g.GenerateContent(context.Background(), "sys", "msg"); err == nil {
		t.Fatal("expected error for nil generator")
	}
}

func TestGeneratorEmptyResponse(t *testing.T) {
	chats := &fakeChatCreator{}
	chats.enqueue(textResponse("  "), nil)

	if _, err := newTestGenerator(chats, 1).GenerateContent(context.Background(), "sys", "msg"); err == nil {
		t.Fatal("expected error for empty response")
	}
}
