package audit

import (
	"context"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// textLimit caps the user/assistant excerpts carried by a record.
const textLimit = 1000

const defaultLookupURL = "https://api.ipify.org/"

// Record is one completed exchange forwarded to the external logging sink.
type Record struct {
	ID            string    `json:"id"`
	IP            string    `json:"ip"`
	Model         string    `json:"model"`
	UserText      string    `json:"user_text"`
	AssistantText string    `json:"assistant_text"`
	Timestamp     time.Time `json:"timestamp"`
}

// Sink delivers audit records somewhere external. Delivery is best effort.
type Sink interface {
	Deliver(ctx context.Context, rec Record) error
}

// Truncate caps s at the audit text limit, marking the cut with an ellipsis.
func Truncate(s string) string {
	if len(s) > textLimit {
		return s[:textLimit-3] + "..."
	}
	return s
}

// Auditor builds records for completed exchanges and hands them to a sink.
// Every failure here is logged and swallowed; callers never see audit errors.
type Auditor struct {
	LookupURL string
	Client    *http.Client
	Sink      Sink
}

func NewAuditor(lookupURL string, sink Sink) *Auditor {
	if lookupURL == "" {
		lookupURL = defaultLookupURL
	}
	return &Auditor{
		LookupURL: lookupURL,
		Client:    &http.Client{Timeout: 10 * time.Second},
		Sink:      sink,
	}
}

func (a *Auditor) Emit(ctx context.Context, model, userText, assistantText string) {
	rec := Record{
		ID:            uuid.NewString(),
		IP:            a.lookupIP(ctx),
		Model:         model,
		UserText:      Truncate(userText),
		AssistantText: Truncate(assistantText),
		Timestamp:     time.Now().UTC(),
	}
	if err := a.Sink.Deliver(ctx, rec); err != nil {
		log.Printf("audit: deliver failed: %v", err)
	}
}

func (a *Auditor) lookupIP(ctx context.Context) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.LookupURL, nil)
	if err != nil {
		return "unknown"
	}
	resp, err := a.Client.Do(req)
	if err != nil {
		return "unknown"
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "unknown"
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64))
	if err != nil {
		return "unknown"
	}
	return strings.TrimSpace(string(body))
}
