package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"gorm.io/gorm"

	"github.com/chatterbox-app/chatterbox/internal/ai"
	"github.com/chatterbox-app/chatterbox/internal/audit"
)

// Greeting is the bubble shown whenever a conversation view is (re)opened.
const Greeting = "Hello! I'm your assistant. Feel free to ask me anything!"

const titleLimit = 30

var (
	// ErrBusy rejects a send while another one is still in flight.
	ErrBusy = errors.New("a send is already in progress")
	// ErrEmptyMessage rejects input that is empty after sanitization.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrStore wraps store failures so handlers can surface a
	// storage-unavailable state.
	ErrStore = errors.New("storage unavailable")
)

// ListingCache caches the sidebar listing between store writes. Implementations
// must tolerate a cold cache; the service falls back to the repo.
type ListingCache interface {
	GetListing(ctx context.Context) ([]Chat, bool)
	SetListing(ctx context.Context, chats []Chat)
	Invalidate(ctx context.Context)
}

// Service owns the session state (current chat, in-flight guard) and runs the
// message pipeline. Auditor and cache may be nil.
type Service struct {
	repo     *Repo
	registry *ai.Registry
	auditor  *audit.Auditor
	cache    ListingCache

	mu        sync.Mutex
	currentID string

	inFlight atomic.Bool
}

func NewService(repo *Repo, registry *ai.Registry, auditor *audit.Auditor, cache ListingCache) *Service {
	return &Service{repo: repo, registry: registry, auditor: auditor, cache: cache}
}

func (s *Service) CurrentChatID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentID
}

func (s *Service) setCurrent(id string) {
	s.mu.Lock()
	s.currentID = id
	s.mu.Unlock()
}

// Models lists the selectable model identifiers.
func (s *Service) Models() []string {
	return s.registry.Models()
}

// NewChat creates a chat with the default title, persists it and makes it
// current.
func (s *Service) NewChat(ctx context.Context) (*Chat, error) {
	id, err := NewChatID()
	if err != nil {
		return nil, err
	}
	c := &Chat{
		ID:          id,
		Title:       DefaultTitle,
		LastMessage: "",
		CreatedAt:   time.Now(),
	}
	if err := s.repo.CreateChat(ctx, c); err != nil {
		return nil, storeErr(err)
	}
	s.setCurrent(id)
	s.invalidateListing(ctx)
	return c, nil
}

// SelectChat makes the chat current and returns its full ordered history.
func (s *Service) SelectChat(ctx context.Context, id string) (*Chat, []Message, error) {
	c, err := s.repo.GetChat(ctx, id)
	if err != nil {
		return nil, nil, storeErr(err)
	}
	msgs, err := s.repo.ListMessages(ctx, id)
	if err != nil {
		return nil, nil, storeErr(err)
	}
	s.setCurrent(id)
	return c, msgs, nil
}

// Messages returns a chat's history without changing the current selection.
func (s *Service) Messages(ctx context.Context, id string) ([]Message, error) {
	if _, err := s.repo.GetChat(ctx, id); err != nil {
		return nil, storeErr(err)
	}
	msgs, err := s.repo.ListMessages(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}
	return msgs, nil
}

// CurrentChat returns the active chat record.
func (s *Service) CurrentChat(ctx context.Context) (*Chat, error) {
	c, err := s.repo.GetChat(ctx, s.CurrentChatID())
	if err != nil {
		return nil, storeErr(err)
	}
	return c, nil
}

type SidebarEntry struct {
	Chat
	Active bool `json:"active"`
}

// Sidebar returns the recency listing with the current chat marked active.
func (s *Service) Sidebar(ctx context.Context) ([]SidebarEntry, error) {
	var chats []Chat
	var ok bool
	if s.cache != nil {
		chats, ok = s.cache.GetListing(ctx)
	}
	if !ok {
		var err error
		chats, err = s.repo.ListChatsByRecency(ctx)
		if err != nil {
			return nil, storeErr(err)
		}
		if s.cache != nil {
			s.cache.SetListing(ctx, chats)
		}
	}

	current := s.CurrentChatID()
	entries := make([]SidebarEntry, 0, len(chats))
	for _, c := range chats {
		entries = append(entries, SidebarEntry{Chat: c, Active: c.ID == current})
	}
	return entries, nil
}

// EnsureChat guarantees at least one chat exists and a current chat is set.
// Called once on startup: seeds a chat when the store is empty, otherwise
// selects the most recent one.
func (s *Service) EnsureChat(ctx context.Context) (*Chat, error) {
	n, err := s.repo.CountChats(ctx)
	if err != nil {
		return nil, storeErr(err)
	}
	if n == 0 {
		return s.NewChat(ctx)
	}
	chats, err := s.repo.ListChatsByRecency(ctx)
	if err != nil {
		return nil, storeErr(err)
	}
	s.setCurrent(chats[0].ID)
	return &chats[0], nil
}

// Sanitize trims the input and strips literal angle brackets. This is the only
// sanitization applied before storage or display.
func Sanitize(input string) string {
	input = strings.TrimSpace(input)
	return strings.Map(func(r rune) rune {
		if r == '<' || r == '>' {
			return -1
		}
		return r
	}, input)
}

// deriveTitle truncates the first user message to the title limit, appending
// an ellipsis only when something was cut.
func deriveTitle(message string) string {
	if len(message) > titleLimit {
		return message[:titleLimit] + "..."
	}
	return message
}

type SendResult struct {
	Chat         *Chat    `json:"chat"`
	UserMessage  *Message `json:"user_message"`
	Reply        *Message `json:"reply"`
	TitleChanged bool     `json:"title_changed"`
}

// Send runs one pipeline turn against the current chat: persist the sanitized
// user message, call the selected model, persist the reply and derive the
// title on the chat's first exchange. At most one send is in flight at a time;
// the guard is released on every path.
func (s *Service) Send(ctx context.Context, raw, model string) (*SendResult, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer s.inFlight.Store(false)

	content := Sanitize(raw)
	if content == "" {
		return nil, ErrEmptyMessage
	}

	c, err := s.repo.GetChat(ctx, s.CurrentChatID())
	if err != nil {
		return nil, storeErr(err)
	}
	firstExchange := c.Title == DefaultTitle

	userMsg := &Message{
		ChatID:    c.ID,
		Content:   content,
		Sender:    SenderUser,
		CreatedAt: time.Now(),
	}
	if err := s.repo.AppendMessage(ctx, userMsg); err != nil {
		return nil, storeErr(err)
	}

	provider, err := s.registry.Get(model)
	if err != nil {
		return nil, err
	}
	reply, err := provider.Complete(ctx, content)
	if err != nil {
		return nil, err
	}

	assistantMsg := &Message{
		ChatID:    c.ID,
		Content:   reply,
		Sender:    SenderAssistant,
		CreatedAt: time.Now(),
	}
	if err := s.repo.AppendMessage(ctx, assistantMsg); err != nil {
		return nil, storeErr(err)
	}
	c.LastMessage = reply

	titleChanged := false
	if firstExchange {
		c.Title = deriveTitle(content)
		if err := s.repo.SaveChat(ctx, c); err != nil {
			return nil, storeErr(err)
		}
		titleChanged = true
	}
	s.invalidateListing(ctx)

	if s.auditor != nil {
		// Best effort; never tied to the request's lifetime or outcome.
		go s.auditor.Emit(context.Background(), model, content, reply)
	}

	return &SendResult{
		Chat:         c,
		UserMessage:  userMsg,
		Reply:        assistantMsg,
		TitleChanged: titleChanged,
	}, nil
}

func (s *Service) invalidateListing(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
}

func storeErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrStore, err)
}
