package chat

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/chatterbox-app/chatterbox/internal/ai"
)

type fakeProvider struct {
	reply string
	err   error

	started chan struct{}
	release chan struct{}
}

func (p *fakeProvider) Complete(ctx context.Context, prompt string) (string, error) {
	if p.started != nil {
		p.started <- struct{}{}
		<-p.release
	}
	if p.err != nil {
		return "", p.err
	}
	return p.reply, nil
}

func newTestService(t *testing.T, prov ai.Provider) *Service {
	t.Helper()
	repo := NewRepo(openTestDB(t))
	reg := ai.NewRegistry()
	reg.Register("fake", prov)
	return NewService(repo, reg, nil, nil)
}

func TestNewChat_DistinctIDsAndSidebarGrowth(t *testing.T) {
	svc := newTestService(t, &fakeProvider{reply: "ok"})

	seen := make(map[string]bool)
	for i := 1; i <= 5; i++ {
		c, err := svc.NewChat(context.Background())
		if err != nil {
			t.Fatalf("new chat %d: %v", i, err)
		}
		if seen[c.ID] {
			t.Fatalf("duplicate chat id %q", c.ID)
		}
		seen[c.ID] = true
		if c.Title != DefaultTitle {
			t.Fatalf("expected title %q, got %q", DefaultTitle, c.Title)
		}

		entries, err := svc.Sidebar(context.Background())
		if err != nil {
			t.Fatalf("sidebar: %v", err)
		}
		if len(entries) != i {
			t.Fatalf("expected %d sidebar entries, got %d", i, len(entries))
		}
		if !entries[0].Active || entries[0].ID != c.ID {
			t.Fatalf("expected newest chat %s to be first and active", c.ID)
		}
	}
}

func TestEnsureChat_SeedsWhenEmpty(t *testing.T) {
	svc := newTestService(t, &fakeProvider{reply: "ok"})

	c, err := svc.EnsureChat(context.Background())
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if c == nil || c.Title != DefaultTitle {
		t.Fatalf("expected a seeded default chat, got %+v", c)
	}

	again, err := svc.EnsureChat(context.Background())
	if err != nil {
		t.Fatalf("ensure again: %v", err)
	}
	if again.ID != c.ID {
		t.Fatalf("expected existing chat to be reused, got %s then %s", c.ID, again.ID)
	}
}

func TestSanitize(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"  <b>hi</b>  ", "bhi/b"},
		{"plain text", "plain text"},
		{"  padded  ", "padded"},
		{"<<<>>>", ""},
		{"a < b > c", "a  b  c"},
	}
	for _, tc := range cases {
		if got := Sanitize(tc.in); got != tc.want {
			t.Errorf("Sanitize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSend_PersistsTurnAndDerivesTitle(t *testing.T) {
	svc := newTestService(t, &fakeProvider{reply: "Hi there"})
	if _, err := svc.NewChat(context.Background()); err != nil {
		t.Fatalf("new chat: %v", err)
	}

	res, err := svc.Send(context.Background(), "Hello", "fake")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if res.Reply.Content != "Hi there" {
		t.Fatalf("unexpected reply: %q", res.Reply.Content)
	}
	if !res.TitleChanged || res.Chat.Title != "Hello" {
		t.Fatalf("expected title %q, got %q (changed=%v)", "Hello", res.Chat.Title, res.TitleChanged)
	}

	c, err := svc.CurrentChat(context.Background())
	if err != nil {
		t.Fatalf("current chat: %v", err)
	}
	if c.LastMessage != "Hi there" {
		t.Fatalf("expected preview %q, got %q", "Hi there", c.LastMessage)
	}

	msgs, err := svc.Messages(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("messages: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Sender != SenderUser || msgs[0].Content != "Hello" {
		t.Fatalf("unexpected user message: %+v", msgs[0])
	}
	if msgs[1].Sender != SenderAssistant || msgs[1].Content != "Hi there" {
		t.Fatalf("unexpected assistant message: %+v", msgs[1])
	}
}

func TestSend_TitleTruncation(t *testing.T) {
	cases := []struct {
		name    string
		message string
		want    string
	}{
		{"short stays", strings.Repeat("a", 25), strings.Repeat("a", 25)},
		{"exactly thirty", strings.Repeat("b", 30), strings.Repeat("b", 30)},
		{"long truncates", strings.Repeat("c", 40), strings.Repeat("c", 30) + "..."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newTestService(t, &fakeProvider{reply: "ok"})
			if _, err := svc.NewChat(context.Background()); err != nil {
				t.Fatalf("new chat: %v", err)
			}

			res, err := svc.Send(context.Background(), tc.message, "fake")
			if err != nil {
				t.Fatalf("send: %v", err)
			}
			if res.Chat.Title != tc.want {
				t.Fatalf("expected title %q (%d chars), got %q (%d chars)",
					tc.want, len(tc.want), res.Chat.Title, len(res.Chat.Title))
			}
		})
	}
}

func TestSend_TitleRewrittenOnlyOnce(t *testing.T) {
	svc := newTestService(t, &fakeProvider{reply: "ok"})
	if _, err := svc.NewChat(context.Background()); err != nil {
		t.Fatalf("new chat: %v", err)
	}

	if _, err := svc.Send(context.Background(), "first message", "fake"); err != nil {
		t.Fatalf("first send: %v", err)
	}
	res, err := svc.Send(context.Background(), "second message", "fake")
	if err != nil {
		t.Fatalf("second send: %v", err)
	}
	if res.TitleChanged {
		t.Fatal("title must not change on the second send")
	}
	if res.Chat.Title != "first message" {
		t.Fatalf("expected title %q, got %q", "first message", res.Chat.Title)
	}
}

func TestSend_BusyGuard(t *testing.T) {
	prov := &fakeProvider{
		reply:   "slow",
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	svc := newTestService(t, prov)
	if _, err := svc.NewChat(context.Background()); err != nil {
		t.Fatalf("new chat: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := svc.Send(context.Background(), "long running", "fake")
		done <- err
	}()
	<-prov.started

	if _, err := svc.Send(context.Background(), "rejected", "fake"); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}

	close(prov.release)
	if err := <-done; err != nil {
		t.Fatalf("first send: %v", err)
	}

	c, err := svc.CurrentChat(context.Background())
	if err != nil {
		t.Fatalf("current chat: %v", err)
	}
	msgs, err := svc.Messages(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("messages: %v", err)
	}
	// only the first send's turn; the rejected one persisted nothing
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
}

func TestSend_EmptyInputIsNoOp(t *testing.T) {
	svc := newTestService(t, &fakeProvider{reply: "ok"})
	if _, err := svc.NewChat(context.Background()); err != nil {
		t.Fatalf("new chat: %v", err)
	}

	for _, input := range []string{"", "   ", " <> "} {
		if _, err := svc.Send(context.Background(), input, "fake"); !errors.Is(err, ErrEmptyMessage) {
			t.Fatalf("input %q: expected ErrEmptyMessage, got %v", input, err)
		}
	}

	c, err := svc.CurrentChat(context.Background())
	if err != nil {
		t.Fatalf("current chat: %v", err)
	}
	msgs, err := svc.Messages(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("messages: %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("expected no messages, got %d", len(msgs))
	}
}

func TestSend_ProviderErrorPersistsNoAssistant(t *testing.T) {
	svc := newTestService(t, &fakeProvider{err: errors.New("boom")})
	if _, err := svc.NewChat(context.Background()); err != nil {
		t.Fatalf("new chat: %v", err)
	}

	_, err := svc.Send(context.Background(), "Hello", "fake")
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected provider error, got %v", err)
	}

	c, err := svc.CurrentChat(context.Background())
	if err != nil {
		t.Fatalf("current chat: %v", err)
	}
	msgs, err := svc.Messages(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("messages: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Sender != SenderUser {
		t.Fatalf("expected only the user message persisted, got %+v", msgs)
	}
	if c.Title != DefaultTitle {
		t.Fatalf("title must not change on failure, got %q", c.Title)
	}

	// guard must be released after a failure
	if svc.inFlight.Load() {
		t.Fatal("in-flight guard still set after failed send")
	}
}

func TestSend_UnknownModel(t *testing.T) {
	svc := newTestService(t, &fakeProvider{reply: "ok"})
	if _, err := svc.NewChat(context.Background()); err != nil {
		t.Fatalf("new chat: %v", err)
	}

	if _, err := svc.Send(context.Background(), "Hello", "nope"); err == nil {
		t.Fatal("expected unknown model error")
	}
}

func TestSend_SelectedChatReplaysAfterSwitch(t *testing.T) {
	svc := newTestService(t, &fakeProvider{reply: "reply one"})

	first, err := svc.NewChat(context.Background())
	if err != nil {
		t.Fatalf("new chat: %v", err)
	}
	if _, err := svc.Send(context.Background(), "to the first chat", "fake"); err != nil {
		t.Fatalf("send: %v", err)
	}

	if _, err := svc.NewChat(context.Background()); err != nil {
		t.Fatalf("second chat: %v", err)
	}

	selected, msgs, err := svc.SelectChat(context.Background(), first.ID)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if selected.ID != first.ID || svc.CurrentChatID() != first.ID {
		t.Fatalf("expected %s to become current", first.ID)
	}
	if len(msgs) != 2 || msgs[0].Content != "to the first chat" {
		t.Fatalf("unexpected replayed history: %+v", msgs)
	}
}

// Full pipeline against a mock chat-completions endpoint.
func TestSend_EndToEndChatCompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/openai" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"Hi there"}}]}`))
	}))
	defer srv.Close()

	repo := NewRepo(openTestDB(t))
	reg := ai.NewRegistry()
	reg.Register("gpt4", ai.NewChatProvider(srv.URL, "gpt-4", srv.Client()))
	svc := NewService(repo, reg, nil, nil)

	if _, err := svc.NewChat(context.Background()); err != nil {
		t.Fatalf("new chat: %v", err)
	}

	res, err := svc.Send(context.Background(), "Hello", "gpt4")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if res.Reply.Content != "Hi there" {
		t.Fatalf("unexpected reply %q", res.Reply.Content)
	}

	c, err := svc.CurrentChat(context.Background())
	if err != nil {
		t.Fatalf("current chat: %v", err)
	}
	if c.LastMessage != "Hi there" {
		t.Fatalf("expected preview %q, got %q", "Hi there", c.LastMessage)
	}
	if c.Title != "Hello" {
		t.Fatalf("expected title %q, got %q", "Hello", c.Title)
	}
}
