package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"helpdesk_backend/internal/attachments"
	"helpdesk_backend/internal/chats/repository"
	"helpdesk_backend/internal/chats/transport"
	"helpdesk_backend/internal/gateway"
	usersrepo "helpdesk_backend/internal/users/repository"
	"helpdesk_backend/platform/apperr"
	"helpdesk_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc   *Service
	repo  *memoryRepo
	gw    *stubGateway
	att   *stubAttachments
	user  usersrepo.User
	chat  repository.Chat
	other usersrepo.User
}

func newFixture(t *testing.T, title string) *fixture {
	t.Helper()
	repo := newMemoryRepo()
	user := usersrepo.User{ID: uuid.New(), DisplayName: "Ana", Email: "ana@example.com", Role: "user"}
	other := usersrepo.User{ID: uuid.New(), DisplayName: "Bo", Email: "bo@example.com", Role: "user"}
	gw := &stubGateway{}
	att := &stubAttachments{data: []byte("jpeg"), contentType: "image/jpeg"}

	svc := New(repo, memoryUsers{user.ID: user, other.ID: other}, gw, att, logger.Discard())
	svc.now = func() time.Time { return time.UnixMilli(1700000000000) }

	chat, err := repo.CreateChat(context.Background(), user.ID, title)
	require.NoError(t, err)

	return &fixture{svc: svc, repo: repo, gw: gw, att: att, user: user, chat: chat, other: other}
}

func (f *fixture) count(sender repository.Sender) int {
	return len(f.repo.messagesOf(f.chat.ID, sender))
}

func TestAddMessagePlainTextReply(t *testing.T) {
	f := newFixture(t, "Soporte")
	f.gw.reply = gateway.PlainReply{Text: "Ve a Configuración > Seguridad."}

	result, err := f.svc.AddMessage(context.Background(), AddMessageInput{
		ChatID: f.chat.ID, UserID: f.user.ID, Content: "¿Cómo cambio mi contraseña?",
	})

	require.NoError(t, err)
	assert.False(t, result.RequiresTicket)
	assert.Nil(t, result.TicketSuggestion)
	assert.Equal(t, "Ve a Configuración > Seguridad.", result.AIMessage.Content)
	assert.Equal(t, "ai", result.AIMessage.Sender)
	assert.Equal(t, "user", result.UserMessage.Sender)
	assert.Equal(t, 1, f.count(repository.SenderUser))
	assert.Equal(t, 1, f.count(repository.SenderAI))

	require.Len(t, f.gw.calls, 1)
	text, ok := f.gw.calls[0].(gateway.TextRequest)
	require.True(t, ok)
	assert.Equal(t, gateway.TextRequest{
		Message: "¿Cómo cambio mi contraseña?", UserID: f.user.ID.String(), ChatID: f.chat.ID.String(), DisplayName: "Ana",
	}, text)

	chat, _ := f.repo.GetChat(context.Background(), f.chat.ID, f.user.ID)
	assert.Equal(t, "Ve a Configuración > Seguridad.", chat.LastMessage)
	assert.Equal(t, "Soporte", chat.Title)
}

func TestAddMessageRoundTripsReplyText(t *testing.T) {
	f := newFixture(t, "t")
	f.gw.reply = gateway.Normalize([]byte(`{"respuesta":"hello"}`))

	result, err := f.svc.AddMessage(context.Background(), AddMessageInput{ChatID: f.chat.ID, UserID: f.user.ID, Content: "hi"})

	require.NoError(t, err)
	assert.Equal(t, "hello", result.AIMessage.Content)
}

func TestAddMessageImageWithTicketSuggestion(t *testing.T) {
	f := newFixture(t, "Cargando...")
	f.gw.reply = gateway.Normalize([]byte(`{"respuesta":"Necesito escalar esto.","ticket":{"ticketId":"TKT-123","clienteNombre":"Ana"}}`))
	f.att.data = make([]byte, 2<<20)
	imageURL := "https://files.example.com/attachments/chat-attachments/user-1/image_abcd1234.jpg"

	result, err := f.svc.AddMessage(context.Background(), AddMessageInput{
		ChatID: f.chat.ID, UserID: f.user.ID, Content: "revisa este error", ImageURL: imageURL,
	})

	require.NoError(t, err)
	assert.True(t, result.RequiresTicket)
	require.NotNil(t, result.TicketSuggestion)
	assert.Equal(t, "TKT-123", result.TicketSuggestion.TicketNumber)
	assert.Equal(t, "revisa este error", result.TicketSuggestion.Detail)
	assert.Equal(t, "revisa este error", result.TicketSuggestion.Subject)
	assert.Equal(t, "Ana", result.TicketSuggestion.ClientName)
	assert.Equal(t, "ana@example.com", result.TicketSuggestion.ClientEmail)
	assert.Equal(t, f.chat.ID, result.TicketSuggestion.ChatID)
	require.NotNil(t, result.TicketSuggestion.ImageURL)
	assert.Equal(t, imageURL, *result.TicketSuggestion.ImageURL)

	require.Len(t, f.gw.calls, 1)
	img, ok := f.gw.calls[0].(gateway.ImageRequest)
	require.True(t, ok)
	assert.Len(t, img.Image, 2<<20)
	assert.Equal(t, "image/jpeg", img.ImageContentType)
	assert.Equal(t, []string{imageURL}, f.att.fetched)

	require.NotNil(t, result.UserMessage.ImageURL)
	assert.Equal(t, imageURL, *result.UserMessage.ImageURL)
	require.NotNil(t, result.Chat)
	assert.Equal(t, "revisa este error", result.Chat.Title)
}

func TestAddMessageTicketWithoutNumberGetsGeneratedOne(t *testing.T) {
	f := newFixture(t, "t")
	long := strings.Repeat("é", 150)
	f.gw.reply = gateway.TicketReply{Text: "escalating"}

	result, err := f.svc.AddMessage(context.Background(), AddMessageInput{ChatID: f.chat.ID, UserID: f.user.ID, Content: long})

	require.NoError(t, err)
	require.NotNil(t, result.TicketSuggestion)
	assert.Equal(t, "TKT-1700000000000", result.TicketSuggestion.TicketNumber)
	assert.Equal(t, "Ana", result.TicketSuggestion.ClientName)
	assert.Equal(t, 100, len([]rune(result.TicketSuggestion.Subject)))
	assert.Equal(t, long, result.TicketSuggestion.Detail)
	assert.Nil(t, result.TicketSuggestion.ImageURL)
}

func TestAddMessageOversizedTicketNumberIsReplaced(t *testing.T) {
	f := newFixture(t, "t")
	f.gw.reply = gateway.TicketReply{Text: "escalating", TicketID: strings.Repeat("9", 65)}

	result, err := f.svc.AddMessage(context.Background(), AddMessageInput{ChatID: f.chat.ID, UserID: f.user.ID, Content: "no puedo entrar"})

	require.NoError(t, err)
	require.NotNil(t, result.TicketSuggestion)
	assert.Equal(t, "TKT-1700000000000", result.TicketSuggestion.TicketNumber)
}

func TestAddMessageKeepsTicketNumberAtLimit(t *testing.T) {
	f := newFixture(t, "t")
	number := " " + strings.Repeat("9", 64) + " "
	f.gw.reply = gateway.TicketReply{Text: "escalating", TicketID: number}

	result, err := f.svc.AddMessage(context.Background(), AddMessageInput{ChatID: f.chat.ID, UserID: f.user.ID, Content: "no puedo entrar"})

	require.NoError(t, err)
	require.NotNil(t, result.TicketSuggestion)
	assert.Equal(t, strings.TrimSpace(number), result.TicketSuggestion.TicketNumber)
}

func TestAddMessageRenamesPlaceholderWithCollapsedContent(t *testing.T) {
	f := newFixture(t, "Cargando...")
	f.gw.reply = gateway.TicketReply{Text: "ok"}

	result, err := f.svc.AddMessage(context.Background(), AddMessageInput{
		ChatID: f.chat.ID, UserID: f.user.ID, Content: "no puedo\n\n  entrar al   portal",
	})

	require.NoError(t, err)
	require.NotNil(t, result.Chat)
	assert.Equal(t, "no puedo entrar al portal", result.Chat.Title)
}

func TestAddMessageImageTimeoutKeepsUserMessage(t *testing.T) {
	f := newFixture(t, "t")
	f.gw.err = apperr.Wrap(apperr.KindGatewayTimeout, gateway.MsgImageTimeout,
		fmt.Errorf("%w: context deadline exceeded", gateway.ErrImageTimeout))

	_, err := f.svc.AddMessage(context.Background(), AddMessageInput{
		ChatID: f.chat.ID, UserID: f.user.ID, Content: "mira", ImageURL: "https://files.example.com/a/b.png",
	})

	require.Error(t, err)
	assert.Equal(t, apperr.KindGatewayTimeout, apperr.GetKind(err))
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "image analysis took too long, try again with a smaller image", appErr.Message)
	assert.ErrorIs(t, err, gateway.ErrImageTimeout)

	assert.Equal(t, 1, f.count(repository.SenderUser))
	assert.Equal(t, 0, f.count(repository.SenderAI))
}

func TestAddMessageGatewayFailureIsGeneric(t *testing.T) {
	f := newFixture(t, "t")
	f.gw.err = apperr.Wrap(apperr.KindGateway, gateway.MsgFailure, errors.New("dial tcp 10.0.0.1: refused"))

	_, err := f.svc.AddMessage(context.Background(), AddMessageInput{ChatID: f.chat.ID, UserID: f.user.ID, Content: "hola"})

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, gateway.MsgFailure, appErr.Message)
	assert.NotContains(t, appErr.Error(), "refused")
	assert.Equal(t, 1, f.count(repository.SenderUser))
	assert.Equal(t, 0, f.count(repository.SenderAI))
}

func TestAddMessageFetchFailureSkipsGateway(t *testing.T) {
	f := newFixture(t, "t")
	f.att.fetchErr = apperr.Wrap(apperr.KindStorage, "could not retrieve the image", attachments.ErrFetch)

	_, err := f.svc.AddMessage(context.Background(), AddMessageInput{
		ChatID: f.chat.ID, UserID: f.user.ID, Content: "x", ImageURL: "https://files.example.com/a/b.png",
	})

	assert.Equal(t, apperr.KindStorage, apperr.GetKind(err))
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, gateway.MsgFailure, appErr.Message)
	assert.Empty(t, f.gw.calls)
	assert.Equal(t, 1, f.count(repository.SenderUser))
	assert.Equal(t, 0, f.count(repository.SenderAI))
}

func TestAddMessageEmptyContentWithoutImage(t *testing.T) {
	f := newFixture(t, "t")

	_, err := f.svc.AddMessage(context.Background(), AddMessageInput{ChatID: f.chat.ID, UserID: f.user.ID, Content: "   "})

	assert.Equal(t, apperr.KindValidation, apperr.GetKind(err))
	assert.Empty(t, f.gw.calls)
	assert.Equal(t, 0, f.count(""))
}

func TestAddMessageEmptyContentWithImageUsesDefaultPrompt(t *testing.T) {
	f := newFixture(t, "t")
	f.gw.reply = gateway.PlainReply{Text: "a screenshot"}

	result, err := f.svc.AddMessage(context.Background(), AddMessageInput{
		ChatID: f.chat.ID, UserID: f.user.ID, ImageURL: "https://files.example.com/a/b.png",
	})

	require.NoError(t, err)
	assert.Equal(t, DefaultImagePrompt, result.UserMessage.Content)
	assert.Equal(t, DefaultImagePrompt, f.gw.calls[0].(gateway.ImageRequest).Message)
}

func TestAddMessageRejectsNonHTTPImageURL(t *testing.T) {
	f := newFixture(t, "t")

	_, err := f.svc.AddMessage(context.Background(), AddMessageInput{
		ChatID: f.chat.ID, UserID: f.user.ID, Content: "x", ImageURL: "file:///etc/passwd",
	})

	assert.Equal(t, apperr.KindValidation, apperr.GetKind(err))
	assert.Empty(t, f.att.fetched)
}

func TestAddMessageForeignChatIsNotFound(t *testing.T) {
	f := newFixture(t, "t")

	_, err := f.svc.AddMessage(context.Background(), AddMessageInput{ChatID: f.chat.ID, UserID: f.other.ID, Content: "x"})

	assert.Equal(t, apperr.KindNotFound, apperr.GetKind(err))
	assert.Equal(t, 0, f.count(""))
}

func TestAddMessageUnknownUserIsNotFound(t *testing.T) {
	f := newFixture(t, "t")
	ghost := uuid.New()
	chat, _ := f.repo.CreateChat(context.Background(), ghost, "t")

	_, err := f.svc.AddMessage(context.Background(), AddMessageInput{ChatID: chat.ID, UserID: ghost, Content: "x"})

	assert.Equal(t, apperr.KindNotFound, apperr.GetKind(err))
	assert.Empty(t, f.repo.messagesOf(chat.ID, ""))
}

func TestAddMessageSurvivesClientCancellation(t *testing.T) {
	f := newFixture(t, "t")
	f.gw.reply = gateway.PlainReply{Text: "late answer"}
	ctx, cancel := context.WithCancel(context.Background())

	// the memory repo ignores ctx; only the gateway observes it
	cancel()
	result, err := f.svc.AddMessage(ctx, AddMessageInput{ChatID: f.chat.ID, UserID: f.user.ID, Content: "x"})

	require.NoError(t, err)
	assert.Equal(t, "late answer", result.AIMessage.Content)
	require.Len(t, f.gw.ctxErrs, 1)
	assert.NoError(t, f.gw.ctxErrs[0])
}

func TestMessageCountInvariantAcrossMixedOutcomes(t *testing.T) {
	f := newFixture(t, "t")
	outcomes := []error{nil, apperr.New(apperr.KindGateway, gateway.MsgFailure), nil, nil,
		apperr.New(apperr.KindGatewayTimeout, gateway.MsgImageTimeout)}

	succeeded := 0
	for i, outcome := range outcomes {
		f.gw.reply, f.gw.err = gateway.PlainReply{Text: fmt.Sprintf("r%d", i)}, outcome
		_, err := f.svc.AddMessage(context.Background(), AddMessageInput{ChatID: f.chat.ID, UserID: f.user.ID, Content: "q"})
		if err == nil {
			succeeded++
		}
	}

	assert.Equal(t, len(outcomes), f.count(repository.SenderUser))
	assert.Equal(t, succeeded, f.count(repository.SenderAI))
}

func TestCreateChatDefaultsToPlaceholder(t *testing.T) {
	f := newFixture(t, "t")

	chat, err := f.svc.CreateChat(context.Background(), f.user.ID, transport.CreateChatRequest{})

	require.NoError(t, err)
	assert.Equal(t, "Cargando...", chat.Title)
}

func TestListChatsIncludesLeadingMessages(t *testing.T) {
	f := newFixture(t, "t")
	f.gw.reply = gateway.PlainReply{Text: "r"}
	for i := 0; i < 6; i++ {
		_, err := f.svc.AddMessage(context.Background(), AddMessageInput{ChatID: f.chat.ID, UserID: f.user.ID, Content: "q"})
		require.NoError(t, err)
	}

	chats, err := f.svc.ListChats(context.Background(), f.user.ID)

	require.NoError(t, err)
	require.Len(t, chats, 1)
	assert.Len(t, chats[0].Messages, previewMessages)
	assert.Equal(t, "user", chats[0].Messages[0].Sender)
}

func TestListMessagesRequiresOwnership(t *testing.T) {
	f := newFixture(t, "t")

	_, err := f.svc.ListMessages(context.Background(), f.chat.ID, f.other.ID)

	assert.Equal(t, apperr.KindNotFound, apperr.GetKind(err))
}

func TestDeleteChatRemovesImagesBestEffort(t *testing.T) {
	f := newFixture(t, "t")
	f.gw.reply = gateway.PlainReply{Text: "r"}
	imageURL := "https://files.example.com/attachments/a.png"
	_, err := f.svc.AddMessage(context.Background(), AddMessageInput{ChatID: f.chat.ID, UserID: f.user.ID, Content: "x", ImageURL: imageURL})
	require.NoError(t, err)
	f.att.deleteErr = errors.New("bucket offline")

	require.NoError(t, f.svc.DeleteChat(context.Background(), f.chat.ID, f.user.ID))

	assert.Equal(t, []string{imageURL}, f.att.deleted)
	_, err = f.svc.GetChat(context.Background(), f.chat.ID, f.user.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.GetKind(err))
}

func TestUpdateTitleForeignChat(t *testing.T) {
	f := newFixture(t, "t")

	_, err := f.svc.UpdateTitle(context.Background(), f.chat.ID, f.other.ID, transport.UpdateTitleRequest{Title: "mine"})

	assert.Equal(t, apperr.KindNotFound, apperr.GetKind(err))
}
