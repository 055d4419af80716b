package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/nhle/dropterm/internal/model"
)

// TestToken is the client token the fake server expects in its path.
const TestToken = "test-token"

// Mail is a message served by the fake upstream, in wire field names.
type Mail struct {
	ID            string `json:"id"`
	FromAddr      string `json:"fromAddr"`
	HeaderSubject string `json:"headerSubject"`
	Text          string `json:"text"`
	HTML          string `json:"html"`
	DownloadURL   string `json:"downloadUrl"`
	ReceivedAt    string `json:"receivedAt"`
}

// Request is one GraphQL call received by the fake upstream.
type Request struct {
	Query     string
	Variables map[string]any
	RequestID string
}

// FakeDropmail is an in-process stand-in for the dropmail GraphQL API.
type FakeDropmail struct {
	*httptest.Server

	mu              sync.Mutex
	sessionID       string
	presetAddress   string
	assignedAddress string
	mails           []Mail
	failStatus      int
	failCount       int
	requests        []Request
	raw             map[string][]byte
}

// NewFakeDropmail starts a fake upstream. It is closed when the test
// completes. By default the session carries a preset address.
func NewFakeDropmail(t *testing.T) *FakeDropmail {
	t.Helper()

	f := &FakeDropmail{
		sessionID:       "U2Vzc2lvbjox",
		presetAddress:   "preset@dropmail.test",
		assignedAddress: "assigned@dropmail.test",
		mails:           []Mail{},
		raw:             make(map[string][]byte),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/graphql/"+TestToken, f.handleGraphQL)
	mux.HandleFunc("/download/", f.handleDownload)
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)

	return f
}

// APIConfig returns a configuration pointing at the fake, with no relay
// and no domain pin.
func (f *FakeDropmail) APIConfig() model.APIConfig {
	return model.APIConfig{
		BaseURL:     f.URL + "/api/graphql",
		ClientToken: TestToken,
	}
}

// SetPresetAddress changes the address returned with new sessions.
// Empty forces clients to call introduceAddress.
func (f *FakeDropmail) SetPresetAddress(addr string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.presetAddress = addr
}

// SetMails replaces the served inbox.
func (f *FakeDropmail) SetMails(mails ...Mail) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mails = append([]Mail{}, mails...)
}

// SetRaw registers a downloadable raw message under /download/<id>.
func (f *FakeDropmail) SetRaw(id string, raw []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.raw[id] = raw
}

// FailNext makes the next n GraphQL calls answer with status.
func (f *FakeDropmail) FailNext(n, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failCount = n
	f.failStatus = status
}

// Requests returns a copy of every GraphQL call received so far.
func (f *FakeDropmail) Requests() []Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Request{}, f.requests...)
}

// CountOp returns how many received queries mention op.
func (f *FakeDropmail) CountOp(op string) int {
	n := 0
	for _, r := range f.Requests() {
		if strings.Contains(r.Query, op) {
			n++
		}
	}
	return n
}

func (f *FakeDropmail) handleGraphQL(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Query     string         `json:"query"`
		Variables map[string]any `json:"variables"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.requests = append(f.requests, Request{
		Query:     req.Query,
		Variables: req.Variables,
		RequestID: r.Header.Get("X-Request-ID"),
	})
	if f.failCount > 0 {
		f.failCount--
		status := f.failStatus
		f.mu.Unlock()
		http.Error(w, "upstream unavailable", status)
		return
	}
	sessionID := f.sessionID
	preset := f.presetAddress
	assigned := f.assignedAddress
	mails := append([]Mail{}, f.mails...)
	f.mu.Unlock()

	var data any
	switch {
	case strings.Contains(req.Query, "introduceSession"):
		addresses := []map[string]string{}
		if preset != "" {
			addresses = append(addresses, map[string]string{"address": preset})
		}
		data = map[string]any{
			"introduceSession": map[string]any{
				"id":        sessionID,
				"addresses": addresses,
			},
		}
	case strings.Contains(req.Query, "introduceAddress"):
		data = map[string]any{
			"introduceAddress": map[string]string{"address": assigned},
		}
	case strings.Contains(req.Query, "session("):
		if req.Variables["sessId"] != sessionID {
			data = map[string]any{"session": nil}
			break
		}
		data = map[string]any{
			"session": map[string]any{"mails": mails},
		}
	default:
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data":   nil,
			"errors": []map[string]string{{"message": "unknown operation"}},
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
}

func (f *FakeDropmail) handleDownload(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/download/")

	f.mu.Lock()
	raw, ok := f.raw[id]
	f.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "message/rfc822")
	_, _ = w.Write(raw)
}
