package ws

import (
	"context"
	"encoding/json"
	"testing"

	"fly-messenger/apperr"
	"fly-messenger/database"
	"fly-messenger/model"
	"fly-messenger/service"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeUploader struct{}

func (fakeUploader) StoreBase64(data, name, folder string) (string, error) {
	return "http://files/" + folder + "/" + name, nil
}

type fixture struct {
	db        *gorm.DB
	registry  *Registry
	router    *Router
	users     *service.UserService
	sessions  *service.SessionService
	blacklist *service.BlacklistService
	dialogs   *service.DialogService
	messages  *service.MessageService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	database.Migrate(db)

	users := service.NewUserService(db, nil)
	sessions := service.NewSessionService(db)
	blacklist := service.NewBlacklistService(db)
	messages := service.NewMessageService(db)
	dialogs := service.NewDialogService(db, users, messages, blacklist)
	presence := service.NewPresenceService(users)

	registry := NewRegistry(zap.NewNop())
	router := NewRouter(registry, users, sessions, blacklist, dialogs, messages, presence, fakeUploader{}, zap.NewNop())

	return &fixture{
		db:        db,
		registry:  registry,
		router:    router,
		users:     users,
		sessions:  sessions,
		blacklist: blacklist,
		dialogs:   dialogs,
		messages:  messages,
	}
}

func (f *fixture) createUser(t *testing.T, username string) *model.User {
	t.Helper()

	user := &model.User{
		Username:    username,
		Email:       username + "@example.com",
		Password:    "hash",
		FirstName:   username,
		Role:        "user",
		IsActivated: true,
	}
	require.NoError(t, f.db.Create(user).Error)
	return user
}

func (f *fixture) connect(userID string) *fakeConn {
	conn := &fakeConn{}
	f.registry.Register("token-"+userID+"-"+uuid.NewString(), userID, conn)
	return conn
}

func frame(t *testing.T, event InboundEvent) []byte {
	t.Helper()

	raw, err := json.Marshal(event)
	require.NoError(t, err)
	return raw
}

func TestSendMessageCreatesDialogOnFirstMessage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice := f.createUser(t, "alice")
	bob := f.createUser(t, "bob")
	aliceConn := f.connect(alice.ID)
	bobConn := f.connect(bob.ID)

	f.router.Handle(ctx, frame(t, InboundEvent{
		Type:        EventSendMessage,
		RecipientID: bob.ID,
		Text:        "hi",
	}), alice.ID, "")

	dialog, err := f.dialogs.GetByPair(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.NotNil(t, dialog)

	stored, err := f.messages.ListForDialog(ctx, dialog.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "hi", stored[0].Text)

	for _, conn := range []*fakeConn{aliceConn, bobConn} {
		sent := conn.sent()
		require.Len(t, sent, 1)

		received, ok := sent[0].(ReceiveMessageEvent)
		require.True(t, ok)
		assert.Equal(t, EventReceiveMessage, received.Type)
		assert.Equal(t, alice.ID, received.UserID)
		assert.Equal(t, "hi", received.Message.Text)
		// Echoed dialogs carry no message list.
		assert.Empty(t, received.Dialog.Messages)
	}
}

func TestSendMessageExistingDialog(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice := f.createUser(t, "alice")
	bob := f.createUser(t, "bob")
	dialog, err := f.dialogs.Create(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	bobConn := f.connect(bob.ID)

	f.router.Handle(ctx, frame(t, InboundEvent{
		Type:     EventSendMessage,
		DialogID: dialog.ID,
		Text:     "again",
	}), alice.ID, "")

	stored, err := f.messages.ListForDialog(ctx, dialog.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, dialog.ID, stored[0].DialogID)
	assert.Len(t, bobConn.sent(), 1)
}

func TestSendMessageBlockedSilentlyDropped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice := f.createUser(t, "alice")
	bob := f.createUser(t, "bob")
	dialog, err := f.dialogs.Create(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	_, err = f.blacklist.Toggle(ctx, bob.ID, alice.ID)
	require.NoError(t, err)

	aliceConn := f.connect(alice.ID)
	bobConn := f.connect(bob.ID)

	f.router.Handle(ctx, frame(t, InboundEvent{
		Type:     EventSendMessage,
		DialogID: dialog.ID,
		Text:     "hi",
	}), alice.ID, "")

	stored, err := f.messages.ListForDialog(ctx, dialog.ID, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, stored)
	assert.Empty(t, aliceConn.sent())
	assert.Empty(t, bobConn.sent())
}

func TestSendMessageForeignDialogDropped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice := f.createUser(t, "alice")
	bob := f.createUser(t, "bob")
	carol := f.createUser(t, "carol")
	dialog, err := f.dialogs.Create(ctx, bob.ID, carol.ID)
	require.NoError(t, err)

	bobConn := f.connect(bob.ID)

	f.router.Handle(ctx, frame(t, InboundEvent{
		Type:     EventSendMessage,
		DialogID: dialog.ID,
		Text:     "intrusion",
	}), alice.ID, "")

	stored, err := f.messages.ListForDialog(ctx, dialog.ID, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, stored)
	assert.Empty(t, bobConn.sent())
}

func TestSendMessageWithFile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice := f.createUser(t, "alice")
	bob := f.createUser(t, "bob")
	dialog, err := f.dialogs.Create(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	f.router.Handle(ctx, frame(t, InboundEvent{
		Type:     EventSendMessage,
		DialogID: dialog.ID,
		File: &FilePayload{
			Name: "photo.png",
			Type: "image/png",
			Data: "aGVsbG8=",
		},
	}), alice.ID, "")

	stored, err := f.messages.ListForDialog(ctx, dialog.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "http://files/uploads/photo.png", stored[0].FileURL)
}

func TestReadMessageEchoesBothSides(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice := f.createUser(t, "alice")
	bob := f.createUser(t, "bob")
	dialog, err := f.dialogs.Create(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	message, err := f.messages.Create(ctx, dialog.ID, bob.ID, "unread", "")
	require.NoError(t, err)

	aliceConn := f.connect(alice.ID)
	bobConn := f.connect(bob.ID)

	read := frame(t, InboundEvent{
		Type:      EventReadMessage,
		MessageID: message.ID,
		DialogID:  dialog.ID,
	})
	f.router.Handle(ctx, read, alice.ID, "")

	stored, err := f.messages.GetByID(ctx, message.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsRead)

	for _, conn := range []*fakeConn{aliceConn, bobConn} {
		sent := conn.sent()
		require.Len(t, sent, 1)
		echoed, ok := sent[0].(ReadMessageEvent)
		require.True(t, ok)
		assert.Equal(t, message.ID, echoed.MessageID)
		assert.Equal(t, dialog.ID, echoed.DialogID)
	}

	// Reading again is a harmless no-op that still echoes.
	f.router.Handle(ctx, read, alice.ID, "")
	assert.Len(t, aliceConn.sent(), 2)
	assert.Len(t, bobConn.sent(), 2)
}

func TestReadMessageUnknownIgnored(t *testing.T) {
	f := newFixture(t)

	alice := f.createUser(t, "alice")
	aliceConn := f.connect(alice.ID)

	f.router.Handle(context.Background(), frame(t, InboundEvent{
		Type:      EventReadMessage,
		MessageID: "missing",
		DialogID:  "missing",
	}), alice.ID, "")

	assert.Empty(t, aliceConn.sent())
}

func TestToggleOnlineStatusBroadcast(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice := f.createUser(t, "alice")
	bob := f.createUser(t, "bob")
	f.connect(alice.ID)
	bobConn := f.connect(bob.ID)

	f.router.Handle(ctx, frame(t, InboundEvent{
		Type:   EventToggleOnlineStatus,
		Status: true,
	}), alice.ID, "")

	sent := bobConn.sent()
	require.Len(t, sent, 1)
	status, ok := sent[0].(OnlineStatusEvent)
	require.True(t, ok)
	assert.Equal(t, alice.ID, status.UserID)
	require.NotNil(t, status.Status)
	assert.True(t, *status.Status)
}

func TestToggleOnlineStatusHiddenBroadcastsNull(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice := f.createUser(t, "alice")
	alice.Settings.LastActivityMode = false
	require.NoError(t, f.db.Save(alice).Error)

	bob := f.createUser(t, "bob")
	bobConn := f.connect(bob.ID)

	f.router.Handle(ctx, frame(t, InboundEvent{
		Type:   EventToggleOnlineStatus,
		Status: true,
	}), alice.ID, "")

	sent := bobConn.sent()
	require.Len(t, sent, 1)
	status, ok := sent[0].(OnlineStatusEvent)
	require.True(t, ok)
	assert.Nil(t, status.Status)
	assert.Nil(t, status.LastActivity)
}

func TestTypingRelayedToCounterpart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice := f.createUser(t, "alice")
	bob := f.createUser(t, "bob")
	dialog, err := f.dialogs.Create(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	aliceConn := f.connect(alice.ID)
	bobConn := f.connect(bob.ID)

	f.router.Handle(ctx, frame(t, InboundEvent{
		Type:     EventTyping,
		DialogID: dialog.ID,
	}), alice.ID, "")
	f.router.Handle(ctx, frame(t, InboundEvent{
		Type:     EventUntyping,
		DialogID: dialog.ID,
	}), alice.ID, "")

	assert.Empty(t, aliceConn.sent())

	sent := bobConn.sent()
	require.Len(t, sent, 2)
	typing, ok := sent[0].(TypingEvent)
	require.True(t, ok)
	assert.Equal(t, EventTyping, typing.Type)
	untyping, ok := sent[1].(TypingEvent)
	require.True(t, ok)
	assert.Equal(t, EventUntyping, untyping.Type)
}

func TestDestroySession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice := f.createUser(t, "alice")

	caller, err := f.sessions.Create(ctx, alice.ID, "token-a", "127.0.0.1", model.ClientTypeWeb, "3.1.0", "Unknown")
	require.NoError(t, err)
	target, err := f.sessions.Create(ctx, alice.ID, "token-b", "127.0.0.1", model.ClientTypeDesktop, "1.0.0", "Unknown")
	require.NoError(t, err)

	callerConn := &fakeConn{}
	targetConn := &fakeConn{}
	f.registry.Register("token-a", alice.ID, callerConn)
	f.registry.Register("token-b", alice.ID, targetConn)

	f.router.Handle(ctx, frame(t, InboundEvent{
		Type:      EventDestroySession,
		SessionID: target.ID,
	}), alice.ID, "token-a")

	_, err = f.sessions.GetByID(ctx, target.ID)
	assert.ErrorIs(t, err, apperr.ErrSessionNotFound)

	// The destroyed device is told to log out and its socket is closed.
	targetSent := targetConn.sent()
	require.NotEmpty(t, targetSent)
	forced, ok := targetSent[0].(ForcedLogoutEvent)
	require.True(t, ok)
	assert.Equal(t, EventUserLogout, forced.Type)
	assert.Equal(t, "token-b", forced.SessionID)
	assert.True(t, targetConn.isClosed())

	var ack *LogoutAckEvent
	for _, payload := range callerConn.sent() {
		if a, ok := payload.(LogoutAckEvent); ok {
			ack = &a
			break
		}
	}
	require.NotNil(t, ack)
	assert.True(t, ack.Success)
	require.Len(t, ack.Sessions, 1)
	assert.Equal(t, caller.ID, ack.Sessions[0].ID)
}

func TestDestroySessionForeignTarget(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice := f.createUser(t, "alice")
	bob := f.createUser(t, "bob")

	_, err := f.sessions.Create(ctx, alice.ID, "token-a", "127.0.0.1", model.ClientTypeWeb, "3.1.0", "Unknown")
	require.NoError(t, err)
	target, err := f.sessions.Create(ctx, bob.ID, "token-b", "127.0.0.1", model.ClientTypeWeb, "3.1.0", "Unknown")
	require.NoError(t, err)

	callerConn := &fakeConn{}
	f.registry.Register("token-a", alice.ID, callerConn)

	f.router.Handle(ctx, frame(t, InboundEvent{
		Type:      EventDestroySession,
		SessionID: target.ID,
	}), alice.ID, "token-a")

	// Bob's session survives and no ack is sent.
	_, err = f.sessions.GetByID(ctx, target.ID)
	require.NoError(t, err)
	assert.Empty(t, callerConn.sent())
}

func TestMalformedFrameDropped(t *testing.T) {
	f := newFixture(t)

	alice := f.createUser(t, "alice")
	aliceConn := f.connect(alice.ID)

	f.router.Handle(context.Background(), []byte("{not json"), alice.ID, "")
	f.router.Handle(context.Background(), frame(t, InboundEvent{Type: "NO_SUCH_EVENT"}), alice.ID, "")

	assert.Empty(t, aliceConn.sent())
}

func TestNotifyBlocked(t *testing.T) {
	f := newFixture(t)

	alice := f.createUser(t, "alice")
	bob := f.createUser(t, "bob")
	bobConn := f.connect(bob.ID)

	f.router.NotifyBlocked(alice.ID, bob.ID, true)

	sent := bobConn.sent()
	require.Len(t, sent, 1)
	blocked, ok := sent[0].(UserBlockedEvent)
	require.True(t, ok)
	assert.Equal(t, alice.ID, blocked.UserID)
	assert.True(t, blocked.IsBlocked)
}
