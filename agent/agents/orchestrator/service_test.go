package orchestrator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"go.uber.org/goleak"

	contractx "github.com/tanpawarit/storage-chat-agent/agent/contract"
	"github.com/tanpawarit/storage-chat-agent/agent/kv"
	llmx "github.com/tanpawarit/storage-chat-agent/agent/llm"
	schemax "github.com/tanpawarit/storage-chat-agent/agent/schema"
	statex "github.com/tanpawarit/storage-chat-agent/agent/state"
	toolx "github.com/tanpawarit/storage-chat-agent/agent/tool"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// scriptedGateway replays completions in order and records every request.
type scriptedGateway struct {
	mu       sync.Mutex
	script   []contractx.Completion
	err      error
	requests []contractx.CompletionRequest

	// repeat returns the last scripted completion forever.
	repeat bool

	// entered and release let a test hold a request in flight.
	entered chan struct{}
	release chan struct{}
}

func (g *scriptedGateway) Complete(ctx context.Context, req contractx.CompletionRequest) (contractx.Completion, error) {
	g.mu.Lock()
	g.requests = append(g.requests, req)
	n := len(g.requests)
	g.mu.Unlock()

	if g.entered != nil {
		g.entered <- struct{}{}
	}
	if g.release != nil {
		select {
		case <-g.release:
		case <-ctx.Done():
			return contractx.Completion{}, ctx.Err()
		}
	}

	if g.err != nil {
		return contractx.Completion{}, g.err
	}
	if n > len(g.script) {
		if g.repeat && len(g.script) > 0 {
			return g.script[len(g.script)-1], nil
		}
		return contractx.Completion{}, errors.New("script exhausted")
	}
	return g.script[n-1], nil
}

func (g *scriptedGateway) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.requests)
}

func (g *scriptedGateway) request(i int) contractx.CompletionRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.requests[i]
}

// recordingStore remembers the order of storage access.
type recordingStore struct {
	*kv.MemoryStore
	mu  sync.Mutex
	ops []string
}

func newRecordingStore() *recordingStore {
	return &recordingStore{MemoryStore: kv.NewMemoryStore()}
}

func (s *recordingStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.record("get:" + key)
	return s.MemoryStore.Get(ctx, key)
}

func (s *recordingStore) Set(ctx context.Context, key, value string) error {
	s.record("set:" + key + "=" + value)
	return s.MemoryStore.Set(ctx, key, value)
}

func (s *recordingStore) record(op string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = append(s.ops, op)
}

func (s *recordingStore) history() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.ops...)
}

type fixture struct {
	orch    *Orchestrator
	gateway *scriptedGateway
	store   *recordingStore
	creds   *llmx.Settings
}

func newFixture(t *testing.T, gateway *scriptedGateway, cfg Config) *fixture {
	t.Helper()

	store := newRecordingStore()
	executor, err := toolx.NewExecutor(schemax.Default, store, toolx.WithLogger(zerolog.Nop()))
	if err != nil {
		t.Fatalf("NewExecutor() error = %v", err)
	}
	creds := llmx.NewSettings("test-key", llmx.DefaultModel)
	session := statex.NewSession("system prompt", time.Now())

	orch, err := New(session, gateway, executor, creds, schemax.Default, cfg, WithLogger(zerolog.Nop()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return &fixture{orch: orch, gateway: gateway, store: store, creds: creds}
}

func call(id, name, args string) contractx.ToolCall {
	return contractx.ToolCall{ID: id, Name: name, Arguments: args}
}

func roles(msgs []contractx.Message) []contractx.Role {
	out := make([]contractx.Role, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Role)
	}
	return out
}

func TestSubmitPlainAnswer(t *testing.T) {
	f := newFixture(t, &scriptedGateway{script: []contractx.Completion{{Text: "Hello!"}}}, Config{})

	turn, err := f.orch.Submit(context.Background(), "  hi  ")
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if turn.Kind != contractx.ReplyAnswer || turn.Reply != "Hello!" {
		t.Fatalf("Submit() turn = %+v", turn)
	}

	want := []contractx.Message{
		{Role: contractx.RoleSystem, Content: "system prompt"},
		{Role: contractx.RoleUser, Content: "hi"},
		{Role: contractx.RoleAssistant, Content: "Hello!"},
	}
	if diff := cmp.Diff(want, f.orch.Transcript()); diff != "" {
		t.Fatalf("Transcript() mismatch (-want +got):\n%s", diff)
	}

	req := f.gateway.request(0)
	if req.Credentials.APIKey != "test-key" || req.Credentials.Model != llmx.DefaultModel {
		t.Fatalf("request credentials = %+v", req.Credentials)
	}
	if len(req.Tools) != 3 {
		t.Fatalf("request tools = %d, want 3", len(req.Tools))
	}
	if f.orch.Status() != contractx.StatusIdle {
		t.Fatalf("Status() = %s, want idle", f.orch.Status())
	}
}

func TestSubmitReadsThenContinuesOnce(t *testing.T) {
	gw := &scriptedGateway{script: []contractx.Completion{
		{ToolCalls: []contractx.ToolCall{
			call("c1", toolx.ToolGetLocalStorage, `{"key":"flag"}`),
			call("c2", toolx.ToolGetLocalStorage, `{"key":"note"}`),
			call("c3", toolx.ToolContinueConversation, `{}`),
		}},
		{Text: "flag is false and note is empty"},
	}}
	f := newFixture(t, gw, Config{})

	turn, err := f.orch.Submit(context.Background(), "what are flag and note?")
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if gw.calls() != 2 {
		t.Fatalf("gateway calls = %d, want 2", gw.calls())
	}
	if turn.Kind != contractx.ReplyAnswer || turn.Completions != 2 {
		t.Fatalf("turn = %+v", turn)
	}

	if diff := cmp.Diff([]string{"get:flag", "get:note"}, f.store.history()); diff != "" {
		t.Fatalf("storage ops mismatch (-want +got):\n%s", diff)
	}

	// The follow-up request already carries both reads.
	followUp := gw.request(1).Messages
	wantRoles := []contractx.Role{
		contractx.RoleSystem, contractx.RoleUser, contractx.RoleAssistant,
		contractx.RoleTool, contractx.RoleTool, contractx.RoleTool,
	}
	if diff := cmp.Diff(wantRoles, roles(followUp)); diff != "" {
		t.Fatalf("follow-up roles mismatch (-want +got):\n%s", diff)
	}
	var ids []string
	for _, m := range followUp[3:] {
		ids = append(ids, m.ToolCallID)
	}
	if diff := cmp.Diff([]string{"c1", "c2", "c3"}, ids); diff != "" {
		t.Fatalf("tool entry order mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(followUp[3].Content, "flag: false") {
		t.Fatalf("flag read = %q, want default false", followUp[3].Content)
	}
}

func TestSubmitContinueIsExecutedLast(t *testing.T) {
	gw := &scriptedGateway{script: []contractx.Completion{
		{ToolCalls: []contractx.ToolCall{
			call("c1", toolx.ToolContinueConversation, `{}`),
			call("c2", toolx.ToolSetLocalStorage, `{"key":"note","value":"milk"}`),
		}},
		{Text: "saved"},
	}}
	f := newFixture(t, gw, Config{})

	if _, err := f.orch.Submit(context.Background(), "remember milk"); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	followUp := gw.request(1).Messages
	if followUp[3].ToolCallID != "c2" || followUp[4].ToolCallID != "c1" {
		t.Fatalf("tool entries = %q, %q; want c2 then c1", followUp[3].ToolCallID, followUp[4].ToolCallID)
	}
}

func TestSubmitWriteWithoutContinueAcknowledges(t *testing.T) {
	gw := &scriptedGateway{script: []contractx.Completion{
		{ToolCalls: []contractx.ToolCall{call("c1", toolx.ToolSetLocalStorage, `{"key":"theme","value":"dark"}`)}},
	}}
	f := newFixture(t, gw, Config{})

	turn, err := f.orch.Submit(context.Background(), "dark mode please")
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if gw.calls() != 1 {
		t.Fatalf("gateway calls = %d, want 1", gw.calls())
	}
	if turn.Kind != contractx.ReplyAcknowledgment || turn.Reply == "" {
		t.Fatalf("turn = %+v", turn)
	}
	if f.orch.Status() != contractx.StatusIdle {
		t.Fatalf("Status() = %s, want idle", f.orch.Status())
	}

	got, ok, _ := f.store.MemoryStore.Get(context.Background(), schemax.KeyTheme)
	if !ok || got != "dark" {
		t.Fatalf("theme = %q (found %v), want dark", got, ok)
	}

	var sawWrite, sawCalling bool
	for _, m := range turn.Messages {
		if m.Write {
			sawWrite = true
		}
		if m.Role == contractx.RoleAssistant && m.ToolActivity {
			sawCalling = true
		}
	}
	if !sawWrite || !sawCalling {
		t.Fatalf("turn messages = %+v, want write and calling-tools entries", turn.Messages)
	}
}

func TestSubmitReadAfterWriteReturnsNormalizedValue(t *testing.T) {
	gw := &scriptedGateway{script: []contractx.Completion{
		{ToolCalls: []contractx.ToolCall{call("c1", toolx.ToolSetLocalStorage, `{"key":"flag","value":"yes"}`)}},
		{ToolCalls: []contractx.ToolCall{
			call("c2", toolx.ToolGetLocalStorage, `{"key":"flag"}`),
			call("c3", toolx.ToolContinueConversation, `{}`),
		}},
		{Text: "flag is true"},
	}}
	f := newFixture(t, gw, Config{})

	if _, err := f.orch.Submit(context.Background(), "set flag yes"); err != nil {
		t.Fatalf("Submit(1) error = %v", err)
	}
	if _, err := f.orch.Submit(context.Background(), "what's the flag?"); err != nil {
		t.Fatalf("Submit(2) error = %v", err)
	}

	transcript := f.orch.Transcript()
	var read string
	for _, m := range transcript {
		if m.Role == contractx.RoleTool && m.ToolCallID == "c2" {
			read = m.Content
		}
	}
	if !strings.HasSuffix(read, "flag: true") {
		t.Fatalf("read = %q, want normalized true", read)
	}
}

func TestSubmitGatewayFailure(t *testing.T) {
	gwErr := &contractx.GatewayError{StatusCode: 500, Message: "upstream exploded"}
	f := newFixture(t, &scriptedGateway{err: gwErr}, Config{})

	turn, err := f.orch.Submit(context.Background(), "hello")
	if !errors.Is(err, contractx.ErrGateway) {
		t.Fatalf("Submit() error = %v, want ErrGateway", err)
	}
	if turn.Kind != contractx.ReplyError || !strings.Contains(turn.Reply, "upstream exploded") {
		t.Fatalf("turn = %+v", turn)
	}

	want := []contractx.Role{contractx.RoleSystem, contractx.RoleUser}
	if diff := cmp.Diff(want, roles(f.orch.Transcript())); diff != "" {
		t.Fatalf("transcript roles mismatch (-want +got):\n%s", diff)
	}
	if f.orch.Status() != contractx.StatusIdle {
		t.Fatalf("Status() = %s, want idle", f.orch.Status())
	}

	msgs := f.orch.Messages()
	if last := msgs[len(msgs)-1]; !last.Error {
		t.Fatalf("last display message = %+v, want error", last)
	}
}

func TestSubmitUnknownToolRecordedWithoutMutation(t *testing.T) {
	gw := &scriptedGateway{script: []contractx.Completion{
		{ToolCalls: []contractx.ToolCall{call("c1", "deleteEverything", `{}`)}},
	}}
	f := newFixture(t, gw, Config{})

	if _, err := f.orch.Submit(context.Background(), "wipe it"); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	var toolEntries []contractx.Message
	for _, m := range f.orch.Transcript() {
		if m.Role == contractx.RoleTool {
			toolEntries = append(toolEntries, m)
		}
	}
	if len(toolEntries) != 1 || !strings.Contains(toolEntries[0].Content, "Error") {
		t.Fatalf("tool entries = %+v, want one error entry", toolEntries)
	}
	if len(f.store.history()) != 0 {
		t.Fatalf("storage ops = %v, want none", f.store.history())
	}
}

func TestSubmitRejectsEmptyMessage(t *testing.T) {
	gw := &scriptedGateway{}
	f := newFixture(t, gw, Config{})

	_, err := f.orch.Submit(context.Background(), "   ")
	if !errors.Is(err, contractx.ErrInvalidMessage) {
		t.Fatalf("Submit() error = %v, want ErrInvalidMessage", err)
	}
	if f.orch.Session().Len() != 0 || gw.calls() != 0 {
		t.Fatalf("len=%d calls=%d, want nothing appended or sent", f.orch.Session().Len(), gw.calls())
	}
}

func TestSubmitMissingCredentialsAppendsNothing(t *testing.T) {
	gw := &scriptedGateway{}
	f := newFixture(t, gw, Config{})
	f.creds.RemoveAPIKey()

	turn, err := f.orch.Submit(context.Background(), "hi")
	if !errors.Is(err, contractx.ErrMissingCredential) {
		t.Fatalf("Submit() error = %v, want ErrMissingCredential", err)
	}
	if turn.Reply == "" {
		t.Fatal("Submit() reply is empty, want configuration prompt")
	}
	if f.orch.Session().Len() != 0 || len(f.orch.Messages()) != 0 || gw.calls() != 0 {
		t.Fatal("missing credentials must not touch the conversation")
	}
}

func TestSubmitChainLimit(t *testing.T) {
	gw := &scriptedGateway{
		script: []contractx.Completion{
			{ToolCalls: []contractx.ToolCall{call("loop", toolx.ToolContinueConversation, `{}`)}},
		},
		repeat: true,
	}
	f := newFixture(t, gw, Config{MaxChainLength: 3})

	turn, err := f.orch.Submit(context.Background(), "loop forever")
	if !errors.Is(err, contractx.ErrChainLimit) {
		t.Fatalf("Submit() error = %v, want ErrChainLimit", err)
	}
	if gw.calls() != 3 {
		t.Fatalf("gateway calls = %d, want 3", gw.calls())
	}
	if turn.Kind != contractx.ReplyTruncated {
		t.Fatalf("turn kind = %s, want truncated", turn.Kind)
	}

	// Every call was answered, so the conversation can go on.
	gw.mu.Lock()
	gw.repeat = false
	gw.script = make([]contractx.Completion, len(gw.requests)+1)
	gw.script[len(gw.script)-1] = contractx.Completion{Text: "done"}
	gw.mu.Unlock()
	turn, err = f.orch.Submit(context.Background(), "stop")
	if err != nil || turn.Reply != "done" {
		t.Fatalf("Submit() after truncation = %+v, %v", turn, err)
	}
}

func TestSubmitWhileBusy(t *testing.T) {
	gw := &scriptedGateway{
		script:  []contractx.Completion{{Text: "slow"}},
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	f := newFixture(t, gw, Config{})

	done := make(chan error, 1)
	go func() {
		_, err := f.orch.Submit(context.Background(), "first")
		done <- err
	}()

	<-gw.entered
	if f.orch.Status() != contractx.StatusAwaitingCompletion {
		t.Fatalf("Status() = %s, want awaiting_completion", f.orch.Status())
	}
	if _, err := f.orch.Submit(context.Background(), "second"); !errors.Is(err, contractx.ErrBusy) {
		t.Fatalf("Submit() error = %v, want ErrBusy", err)
	}

	close(gw.release)
	if err := <-done; err != nil {
		t.Fatalf("first Submit() error = %v", err)
	}
}

func TestClearDiscardsInFlightResults(t *testing.T) {
	gw := &scriptedGateway{
		script: []contractx.Completion{
			{ToolCalls: []contractx.ToolCall{call("c1", toolx.ToolSetLocalStorage, `{"key":"flag","value":"on"}`)}},
		},
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	f := newFixture(t, gw, Config{})

	done := make(chan error, 1)
	go func() {
		_, err := f.orch.Submit(context.Background(), "flag on")
		done <- err
	}()

	<-gw.entered
	f.orch.Clear()
	close(gw.release)

	if err := <-done; !errors.Is(err, contractx.ErrConversationCleared) {
		t.Fatalf("Submit() error = %v, want ErrConversationCleared", err)
	}
	want := []contractx.Message{{Role: contractx.RoleSystem, Content: "system prompt"}}
	if diff := cmp.Diff(want, f.orch.Transcript()); diff != "" {
		t.Fatalf("Transcript() mismatch (-want +got):\n%s", diff)
	}
	if len(f.orch.Messages()) != 0 {
		t.Fatalf("Messages() = %+v, want empty", f.orch.Messages())
	}
	if len(f.store.history()) != 0 {
		t.Fatalf("storage ops = %v, want none after clear", f.store.history())
	}
}

func TestNewRequiresDependencies(t *testing.T) {
	session := statex.NewSession("sys", time.Now())
	creds := llmx.NewSettings("k", llmx.DefaultModel)
	executor, err := toolx.NewExecutor(schemax.Default, kv.NewMemoryStore())
	if err != nil {
		t.Fatalf("NewExecutor() error = %v", err)
	}

	if _, err := New(nil, &scriptedGateway{}, executor, creds, nil, Config{}); err == nil {
		t.Fatal("New(nil session) error = nil")
	}
	if _, err := New(session, nil, executor, creds, nil, Config{}); err == nil {
		t.Fatal("New(nil gateway) error = nil")
	}
	if _, err := New(session, &scriptedGateway{}, nil, creds, nil, Config{}); err == nil {
		t.Fatal("New(nil executor) error = nil")
	}
	if _, err := New(session, &scriptedGateway{}, executor, nil, nil, Config{}); err == nil {
		t.Fatal("New(nil credentials) error = nil")
	}

	o, err := New(session, &scriptedGateway{}, executor, creds, nil, Config{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if o.maxChainLength != DefaultMaxChainLength {
		t.Fatalf("maxChainLength = %d, want %d", o.maxChainLength, DefaultMaxChainLength)
	}
}
