package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	chatstransport "helpdesk_backend/internal/chats/transport"
	"helpdesk_backend/internal/clientview"
	ticketstransport "helpdesk_backend/internal/tickets/transport"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeServer struct {
	chatID    uuid.UUID
	mu        sync.Mutex
	confirmed []string
	cancelled []string
}

func (f *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer tok" {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
		return
	}
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/api/v1/chats":
		_ = json.NewEncoder(w).Encode([]chatstransport.ChatResponse{{ID: f.chatID, Title: "Cargando...", LastActivityAt: time.Now()}})
	case r.Method == http.MethodPost && r.URL.Path == "/api/v1/chats/"+f.chatID.String()+"/messages":
		var req chatstransport.AddMessageRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		_ = json.NewEncoder(w).Encode(chatstransport.AddMessageResponse{
			UserMessage:    chatstransport.MessageResponse{ID: uuid.New(), Content: req.Content, Sender: "user"},
			AIMessage:      chatstransport.MessageResponse{ID: uuid.New(), Content: "Voy a abrir un ticket.", Sender: "ai"},
			RequiresTicket: true,
			TicketSuggestion: &chatstransport.TicketSuggestion{
				TicketNumber: "TKT-77", Subject: req.Content, Detail: req.Content, ChatID: f.chatID,
			},
		})
	case r.URL.Path == "/api/v1/tickets/suggest":
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(ticketstransport.TicketResponse{TicketNumber: "TKT-77", Status: "pending"})
	case r.URL.Path == "/api/v1/tickets/confirm":
		f.mu.Lock()
		f.confirmed = append(f.confirmed, "TKT-77")
		f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(ticketstransport.ConfirmResponse{
			Success: true,
			Ticket:  ticketstransport.TicketResponse{TicketNumber: "TKT-77", Status: "confirmed"},
		})
	case r.URL.Path == "/api/v1/tickets/cancel":
		f.mu.Lock()
		f.cancelled = append(f.cancelled, "TKT-77")
		f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(ticketstransport.SuccessResponse{Success: true})
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"not found"}`))
	}
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSendAcceptsSuggestedTicketOnYes(t *testing.T) {
	fake := &fakeServer{chatID: uuid.New()}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	out, err := run(t, "y\n", "--server", srv.URL, "--token", "tok", "send", fake.chatID.String(), "no puedo entrar")

	require.NoError(t, err)
	assert.Contains(t, out, "[assistant] Voy a abrir un ticket.")
	assert.Contains(t, out, "Suggested ticket TKT-77")
	assert.Contains(t, out, "Ticket TKT-77 is confirmed")
	assert.Equal(t, []string{"TKT-77"}, fake.confirmed)
	assert.Empty(t, fake.cancelled)
}

func TestSendRejectsTicketByDefault(t *testing.T) {
	fake := &fakeServer{chatID: uuid.New()}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	out, err := run(t, "", "--server", srv.URL, "--token", "tok", "send", fake.chatID.String(), "hola")

	require.NoError(t, err)
	assert.Contains(t, out, "Ticket TKT-77 discarded")
	assert.Equal(t, []string{"TKT-77"}, fake.cancelled)
}

func TestSendTicketFlagSkipsPrompt(t *testing.T) {
	fake := &fakeServer{chatID: uuid.New()}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	out, err := run(t, "", "--server", srv.URL, "--token", "tok", "send", "--ticket", "accept", fake.chatID.String(), "hola")

	require.NoError(t, err)
	assert.NotContains(t, out, "[y/N]")
	assert.Equal(t, []string{"TKT-77"}, fake.confirmed)
}

func TestChatsListPrintsChats(t *testing.T) {
	fake := &fakeServer{chatID: uuid.New()}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	out, err := run(t, "", "--server", srv.URL, "--token", "tok", "chats", "list")

	require.NoError(t, err)
	assert.Contains(t, out, fake.chatID.String())
	assert.Contains(t, out, "Cargando...")
}

func TestRequiresToken(t *testing.T) {
	t.Setenv(envToken, "")

	_, err := run(t, "", "--server", "http://127.0.0.1:1", "--token", "", "chats", "list")

	assert.ErrorContains(t, err, "access token is required")
}

func TestUnknownChatIsReported(t *testing.T) {
	fake := &fakeServer{chatID: uuid.New()}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	_, err := run(t, "", "--server", srv.URL, "--token", "tok", "send", uuid.NewString(), "hola")

	assert.ErrorIs(t, err, clientview.ErrUnknownChat)
}
