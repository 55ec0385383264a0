package clientview

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	chatstransport "helpdesk_backend/internal/chats/transport"
	ticketstransport "helpdesk_backend/internal/tickets/transport"

	"github.com/google/uuid"
)

const (
	// SendFailedNotice is shown after any failed send.
	SendFailedNotice = "could not send message"
	// TicketFailedNotice is shown when a ticket action fails.
	TicketFailedNotice = "could not update the ticket"
)

const tempIDPrefix = "temp-"

var placeholderTitles = []string{"Cargando...", "Loading..."}

var (
	ErrUnknownChat   = errors.New("unknown chat")
	ErrEmptyDraft    = errors.New("nothing to send")
	ErrSendInFlight  = errors.New("a message is already being sent in this chat")
	ErrNoTicketToAct = errors.New("no ticket awaiting a decision")
)

// SendState is the lifecycle of one send.
type SendState int

const (
	StateIdle SendState = iota
	StateSending
	StateSettled
	StateRolledBack
)

func (s SendState) String() string {
	switch s {
	case StateSending:
		return "sending"
	case StateSettled:
		return "settled"
	case StateRolledBack:
		return "rolled_back"
	default:
		return "idle"
	}
}

// Message is a message as the client shows it. Pending messages carry a
// temp ID and, for images, the local preview path.
type Message struct {
	ID           string
	Content      string
	Sender       string
	ImageURL     *string
	LocalPreview string
	Pending      bool
	CreatedAt    time.Time
}

// Chat is the cached view of one conversation.
type Chat struct {
	ID             uuid.UUID
	Title          string
	LastMessage    string
	LastActivityAt time.Time
	Messages       []Message
}

// LocalImage is an image chosen in the composer but not yet uploaded.
type LocalImage struct {
	Path string
	Data []byte
}

// Draft is the composer content of a chat.
type Draft struct {
	Content string
	Image   *LocalImage
}

// SendStatus is the latest send of a chat.
type SendStatus struct {
	State  SendState
	TempID string
}

// PendingTicket is a suggestion awaiting the user's accept or reject.
type PendingTicket struct {
	ChatID     uuid.UUID
	Suggestion chatstransport.TicketSuggestion
}

// ViewModel is safe for concurrent use.
type ViewModel struct {
	api     API
	tempSeq atomic.Uint64

	mu      sync.Mutex
	chats   map[uuid.UUID]*Chat
	order   []uuid.UUID
	drafts  map[uuid.UUID]Draft
	sends   map[uuid.UUID]SendStatus
	pending *PendingTicket
	acting  bool
	notice  string
}

// NewViewModel creates an empty view-model.
func NewViewModel(api API) *ViewModel {
	return &ViewModel{
		api:    api,
		chats:  make(map[uuid.UUID]*Chat),
		drafts: make(map[uuid.UUID]Draft),
		sends:  make(map[uuid.UUID]SendStatus),
	}
}

// Load replaces the cache with the server's chat list.
func (vm *ViewModel) Load(ctx context.Context) error {
	chats, err := vm.api.ListChats(ctx)
	if err != nil {
		return err
	}

	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.chats = make(map[uuid.UUID]*Chat, len(chats))
	vm.order = vm.order[:0]
	for _, c := range chats {
		vm.chats[c.ID] = fromChatResponse(c)
		vm.order = append(vm.order, c.ID)
	}
	return nil
}

// NewChat creates a chat on the server and puts it first.
func (vm *ViewModel) NewChat(ctx context.Context, title string) (Chat, error) {
	created, err := vm.api.CreateChat(ctx, title)
	if err != nil {
		return Chat{}, err
	}

	vm.mu.Lock()
	defer vm.mu.Unlock()
	chat := fromChatResponse(created)
	vm.chats[chat.ID] = chat
	vm.order = append([]uuid.UUID{chat.ID}, vm.order...)
	return copyChat(chat), nil
}

// Chats returns a snapshot of the cache in display order.
func (vm *ViewModel) Chats() []Chat {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	out := make([]Chat, 0, len(vm.order))
	for _, id := range vm.order {
		out = append(out, copyChat(vm.chats[id]))
	}
	return out
}

// Chat returns a snapshot of one chat.
func (vm *ViewModel) Chat(chatID uuid.UUID) (Chat, bool) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	c, ok := vm.chats[chatID]
	if !ok {
		return Chat{}, false
	}
	return copyChat(c), true
}

// SetDraft replaces the composer text.
func (vm *ViewModel) SetDraft(chatID uuid.UUID, content string) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	d := vm.drafts[chatID]
	d.Content = content
	vm.drafts[chatID] = d
}

// AttachImage sets the composer image.
func (vm *ViewModel) AttachImage(chatID uuid.UUID, path string, data []byte) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	d := vm.drafts[chatID]
	d.Image = &LocalImage{Path: path, Data: data}
	vm.drafts[chatID] = d
}

// Draft returns the composer state.
func (vm *ViewModel) Draft(chatID uuid.UUID) Draft {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.drafts[chatID]
}

// SendStatus returns the latest send state of a chat.
func (vm *ViewModel) SendStatus(chatID uuid.UUID) SendStatus {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.sends[chatID]
}

// Notice returns the current failure notice, empty when none.
func (vm *ViewModel) Notice() string {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.notice
}

// PendingTicket returns the suggestion awaiting a decision, if any.
func (vm *ViewModel) PendingTicket() (PendingTicket, bool) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if vm.pending == nil {
		return PendingTicket{}, false
	}
	return *vm.pending, true
}

func (vm *ViewModel) nextTempID() string {
	return fmt.Sprintf("%s%d", tempIDPrefix, vm.tempSeq.Add(1))
}

// Send sends the chat's draft. The message appears immediately under a temp
// ID; on success it is replaced by the server's two messages, on failure it
// is removed and the draft is restored.
func (vm *ViewModel) Send(ctx context.Context, chatID uuid.UUID) (chatstransport.AddMessageResponse, error) {
	vm.mu.Lock()
	chat, ok := vm.chats[chatID]
	if !ok {
		vm.mu.Unlock()
		return chatstransport.AddMessageResponse{}, ErrUnknownChat
	}
	if vm.sends[chatID].State == StateSending {
		vm.mu.Unlock()
		return chatstransport.AddMessageResponse{}, ErrSendInFlight
	}
	draft := vm.drafts[chatID]
	content := strings.TrimSpace(draft.Content)
	if content == "" && draft.Image == nil {
		vm.mu.Unlock()
		return chatstransport.AddMessageResponse{}, ErrEmptyDraft
	}

	tempID := vm.nextTempID()
	optimistic := Message{ID: tempID, Content: content, Sender: "user", Pending: true, CreatedAt: time.Now()}
	if draft.Image != nil {
		optimistic.LocalPreview = draft.Image.Path
	}
	chat.Messages = append(chat.Messages, optimistic)
	delete(vm.drafts, chatID)
	vm.sends[chatID] = SendStatus{State: StateSending, TempID: tempID}
	vm.notice = ""
	vm.mu.Unlock()

	result, err := vm.deliver(ctx, chatID, content, draft.Image)
	if err != nil {
		vm.rollback(chatID, tempID, draft)
		return chatstransport.AddMessageResponse{}, err
	}

	vm.settle(chatID, tempID, content, result)

	if result.RequiresTicket && result.TicketSuggestion != nil {
		vm.offerTicket(ctx, chatID, *result.TicketSuggestion)
	}
	return result, nil
}

func (vm *ViewModel) deliver(ctx context.Context, chatID uuid.UUID, content string, image *LocalImage) (chatstransport.AddMessageResponse, error) {
	var imageURL string
	if image != nil {
		url, err := vm.api.UploadImage(ctx, filepath.Base(image.Path), image.Data)
		if err != nil {
			return chatstransport.AddMessageResponse{}, fmt.Errorf("upload image: %w", err)
		}
		imageURL = url
	}
	return vm.api.SendMessage(ctx, chatID, content, imageURL)
}

func (vm *ViewModel) rollback(chatID uuid.UUID, tempID string, draft Draft) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if chat, ok := vm.chats[chatID]; ok {
		chat.Messages = removeMessage(chat.Messages, tempID)
	}
	// keep anything typed while the send was in flight
	if current, ok := vm.drafts[chatID]; !ok || (current.Content == "" && current.Image == nil) {
		vm.drafts[chatID] = draft
	}
	vm.sends[chatID] = SendStatus{State: StateRolledBack, TempID: tempID}
	vm.notice = SendFailedNotice
}

func (vm *ViewModel) settle(chatID uuid.UUID, tempID, content string, result chatstransport.AddMessageResponse) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	chat, ok := vm.chats[chatID]
	if !ok {
		return
	}
	chat.Messages = append(removeMessage(chat.Messages, tempID),
		fromMessageResponse(result.UserMessage),
		fromMessageResponse(result.AIMessage),
	)
	chat.LastMessage = result.AIMessage.Content
	chat.LastActivityAt = result.AIMessage.CreatedAt
	switch {
	case result.Chat != nil:
		chat.Title = result.Chat.Title
	case slices.Contains(placeholderTitles, chat.Title) && content != "":
		chat.Title = content
	}
	vm.sends[chatID] = SendStatus{State: StateSettled, TempID: tempID}
}

// offerTicket records the suggestion on the server and opens the prompt. A
// failed suggest leaves no prompt.
func (vm *ViewModel) offerTicket(ctx context.Context, chatID uuid.UUID, s chatstransport.TicketSuggestion) {
	_, err := vm.api.SuggestTicket(ctx, ticketstransport.SuggestRequest{
		TicketNumber: s.TicketNumber,
		ClientName:   s.ClientName,
		Subject:      s.Subject,
		Detail:       s.Detail,
		ImageURL:     s.ImageURL,
		ChatID:       &s.ChatID,
	})

	vm.mu.Lock()
	defer vm.mu.Unlock()
	if err != nil {
		vm.notice = TicketFailedNotice
		return
	}
	vm.pending = &PendingTicket{ChatID: chatID, Suggestion: s}
}

// AcceptTicket confirms the pending suggestion.
func (vm *ViewModel) AcceptTicket(ctx context.Context) (ticketstransport.TicketResponse, error) {
	p, ok := vm.takePending()
	if !ok {
		return ticketstransport.TicketResponse{}, ErrNoTicketToAct
	}
	ticket, err := vm.api.ConfirmTicket(ctx, p.Suggestion.TicketNumber)
	vm.finishTicket(p, err)
	return ticket, err
}

// RejectTicket cancels the pending suggestion.
func (vm *ViewModel) RejectTicket(ctx context.Context) error {
	p, ok := vm.takePending()
	if !ok {
		return ErrNoTicketToAct
	}
	err := vm.api.CancelTicket(ctx, p.Suggestion.TicketNumber)
	vm.finishTicket(p, err)
	return err
}

// takePending claims the prompt so a second tap finds nothing to act on.
func (vm *ViewModel) takePending() (PendingTicket, bool) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if vm.pending == nil || vm.acting {
		return PendingTicket{}, false
	}
	vm.acting = true
	return *vm.pending, true
}

func (vm *ViewModel) finishTicket(p PendingTicket, err error) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.acting = false
	if vm.pending != nil && vm.pending.Suggestion.TicketNumber == p.Suggestion.TicketNumber {
		vm.pending = nil
	}
	if err != nil {
		vm.notice = TicketFailedNotice
	}
}

// IsTempID reports whether id was minted locally.
func IsTempID(id string) bool {
	return strings.HasPrefix(id, tempIDPrefix)
}

func removeMessage(messages []Message, id string) []Message {
	return slices.DeleteFunc(messages, func(m Message) bool { return m.ID == id })
}

func fromMessageResponse(m chatstransport.MessageResponse) Message {
	return Message{
		ID:        m.ID.String(),
		Content:   m.Content,
		Sender:    m.Sender,
		ImageURL:  m.ImageURL,
		CreatedAt: m.CreatedAt,
	}
}

func fromChatResponse(c chatstransport.ChatResponse) *Chat {
	chat := &Chat{
		ID:             c.ID,
		Title:          c.Title,
		LastMessage:    c.LastMessage,
		LastActivityAt: c.LastActivityAt,
		Messages:       make([]Message, 0, len(c.Messages)),
	}
	for _, m := range c.Messages {
		chat.Messages = append(chat.Messages, fromMessageResponse(m))
	}
	return chat
}

func copyChat(c *Chat) Chat {
	out := *c
	out.Messages = slices.Clone(c.Messages)
	return out
}
