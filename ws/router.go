package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"fly-messenger/apperr"
	"fly-messenger/model"
	"fly-messenger/service"

	"go.uber.org/zap"
)

// ImageUploader stores an inline file payload and returns its URL.
type ImageUploader interface {
	StoreBase64(data, name, folder string) (string, error)
}

// Router is the single entry point for inbound socket frames. It keeps no
// per-event state; everything lives in the stores and the registry.
type Router struct {
	registry  *Registry
	users     *service.UserService
	sessions  *service.SessionService
	blacklist *service.BlacklistService
	dialogs   *service.DialogService
	messages  *service.MessageService
	presence  *service.PresenceService
	images    ImageUploader
	log       *zap.Logger
}

func NewRouter(
	registry *Registry,
	users *service.UserService,
	sessions *service.SessionService,
	blacklist *service.BlacklistService,
	dialogs *service.DialogService,
	messages *service.MessageService,
	presence *service.PresenceService,
	images ImageUploader,
	log *zap.Logger,
) *Router {
	return &Router{
		registry:  registry,
		users:     users,
		sessions:  sessions,
		blacklist: blacklist,
		dialogs:   dialogs,
		messages:  messages,
		presence:  presence,
		images:    images,
		log:       log,
	}
}

// Handle processes one inbound frame. Malformed frames and unknown types
// are dropped without a response; nothing here may take down the
// connection's read loop.
func (r *Router) Handle(ctx context.Context, raw []byte, senderID, token string) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("event handler panic", zap.Any("panic", rec), zap.String("userId", senderID))
		}
	}()

	event := new(InboundEvent)
	if err := json.Unmarshal(raw, event); err != nil {
		r.log.Debug("dropping malformed frame", zap.String("userId", senderID), zap.Error(err))
		return
	}

	var err error
	switch event.Type {
	case EventSendMessage:
		err = r.handleSendMessage(ctx, event, senderID)
	case EventReadMessage:
		err = r.handleReadMessage(ctx, event, senderID)
	case EventToggleOnlineStatus:
		err = r.handleToggleOnlineStatus(ctx, event, senderID)
	case EventTyping, EventUntyping:
		err = r.handleTyping(ctx, event, senderID)
	case EventDestroySession:
		err = r.handleDestroySession(ctx, event, senderID, token)
	default:
		r.log.Debug("dropping unknown event type", zap.String("type", event.Type), zap.String("userId", senderID))
		return
	}

	if err != nil {
		r.log.Warn("event handling failed", zap.String("type", event.Type), zap.String("userId", senderID), zap.Error(err))
	}
}

func (r *Router) handleSendMessage(ctx context.Context, event *InboundEvent, senderID string) error {
	if event.Text == "" && event.File == nil {
		return nil
	}

	dialog, err := r.resolveDialog(ctx, event, senderID)
	if err != nil || dialog == nil {
		return err
	}
	recipientID := dialog.OtherUserID(senderID)

	ok, err := r.blacklist.CanMessage(ctx, senderID, recipientID)
	if err != nil {
		return err
	}
	if !ok {
		r.log.Debug("dropping message between blocked users",
			zap.String("senderId", senderID), zap.String("recipientId", recipientID))
		return nil
	}

	fileURL := ""
	if event.File != nil {
		fileURL, err = r.images.StoreBase64(event.File.Data, event.File.Name, "uploads")
		if err != nil {
			return err
		}
	}

	// The message must be persisted before any RECEIVE_MESSAGE goes out,
	// so a client re-fetching history right after never misses it.
	message, err := r.messages.Create(ctx, dialog.ID, senderID, event.Text, fileURL)
	if err != nil {
		if errors.Is(err, apperr.ErrEmptyMessage) {
			return nil
		}
		return err
	}

	senderView, err := r.dialogs.BuildSnapshot(ctx, dialog, senderID)
	if err != nil {
		return err
	}
	recipientView, err := r.dialogs.BuildSnapshot(ctx, dialog, recipientID)
	if err != nil {
		return err
	}

	// Echoed dialogs carry no message list to keep the payload small.
	senderView.Messages = []model.Message{}
	recipientView.Messages = []model.Message{}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		r.registry.SendToUser(senderID, ReceiveMessageEvent{
			Type:    EventReceiveMessage,
			Message: message,
			Dialog:  senderView,
			DialogData: DialogData{
				IsNotificationsEnabled: senderView.IsNotificationsEnabled,
				IsSoundEnabled:         senderView.IsSoundEnabled,
			},
			UserID: senderID,
		})
	}()
	go func() {
		defer wg.Done()
		r.registry.SendToUser(recipientID, ReceiveMessageEvent{
			Type:    EventReceiveMessage,
			Message: message,
			Dialog:  recipientView,
			DialogData: DialogData{
				IsNotificationsEnabled: recipientView.IsNotificationsEnabled,
				IsSoundEnabled:         recipientView.IsSoundEnabled,
			},
			UserID: senderID,
		})
	}()
	wg.Wait()

	return nil
}

// resolveDialog finds the dialog the event addresses, creating one on the
// first message to a recipient. Returns nil when the event cannot be
// routed; that is a silent drop, not an error.
func (r *Router) resolveDialog(ctx context.Context, event *InboundEvent, senderID string) (*model.Dialog, error) {
	var dialog *model.Dialog

	if event.DialogID != "" {
		found, err := r.dialogs.GetByID(ctx, event.DialogID)
		if err != nil && !errors.Is(err, apperr.ErrDialogNotFound) {
			return nil, err
		}
		dialog = found
	}

	if dialog == nil {
		if event.RecipientID == "" {
			return nil, nil
		}

		found, err := r.dialogs.GetByPair(ctx, senderID, event.RecipientID)
		if err != nil {
			return nil, err
		}
		dialog = found

		if dialog == nil {
			created, err := r.dialogs.Create(ctx, senderID, event.RecipientID)
			if err != nil {
				var appErr *apperr.Error
				if errors.As(err, &appErr) {
					r.log.Debug("dropping send, dialog create rejected", zap.String("userId", senderID), zap.Error(err))
					return nil, nil
				}
				return nil, err
			}
			dialog = created
		}
	}

	if !dialog.HasParticipant(senderID) {
		r.log.Debug("dropping event for foreign dialog", zap.String("userId", senderID), zap.String("dialogId", dialog.ID))
		return nil, nil
	}

	return dialog, nil
}

func (r *Router) handleReadMessage(ctx context.Context, event *InboundEvent, senderID string) error {
	if event.MessageID == "" || event.DialogID == "" {
		return nil
	}

	message, err := r.messages.MarkRead(ctx, event.MessageID, event.DialogID)
	if err != nil {
		if errors.Is(err, apperr.ErrMessageNotFound) {
			return nil
		}
		return err
	}

	recipientID := event.RecipientID
	if recipientID == "" {
		dialog, err := r.dialogs.GetByID(ctx, event.DialogID)
		if err != nil {
			if errors.Is(err, apperr.ErrDialogNotFound) {
				return nil
			}
			return err
		}
		recipientID = dialog.OtherUserID(senderID)
	}

	payload := ReadMessageEvent{
		Type:      EventReadMessage,
		MessageID: message.ID,
		DialogID:  event.DialogID,
	}
	r.registry.SendToUser(senderID, payload)
	r.registry.SendToUser(recipientID, payload)

	return nil
}

func (r *Router) handleToggleOnlineStatus(ctx context.Context, event *InboundEvent, senderID string) error {
	user, err := r.presence.Toggle(ctx, senderID, event.Status)
	if err != nil {
		if errors.Is(err, apperr.ErrUserNotFound) {
			return nil
		}
		return err
	}

	// IsOnline is already nil for users hiding their activity, so the
	// broadcast never leaks the real status.
	r.registry.Broadcast(OnlineStatusEvent{
		Type:         EventToggleOnlineStatus,
		UserID:       senderID,
		Status:       user.IsOnline,
		LastActivity: user.LastActivity,
	})

	return nil
}

func (r *Router) handleTyping(ctx context.Context, event *InboundEvent, senderID string) error {
	recipientID := event.RecipientID
	if recipientID == "" {
		if event.DialogID == "" {
			return nil
		}
		dialog, err := r.dialogs.GetByID(ctx, event.DialogID)
		if err != nil {
			if errors.Is(err, apperr.ErrDialogNotFound) {
				return nil
			}
			return err
		}
		if !dialog.HasParticipant(senderID) {
			return nil
		}
		recipientID = dialog.OtherUserID(senderID)
	}

	r.registry.SendToUser(recipientID, TypingEvent{
		Type:     event.Type,
		DialogID: event.DialogID,
	})

	return nil
}

func (r *Router) handleDestroySession(ctx context.Context, event *InboundEvent, senderID, token string) error {
	if _, err := r.sessions.GetByToken(ctx, token); err != nil {
		if errors.Is(err, apperr.ErrSessionNotFound) {
			return nil
		}
		return err
	}

	target, err := r.sessions.GetByID(ctx, event.SessionID)
	if err != nil {
		if errors.Is(err, apperr.ErrSessionNotFound) {
			return nil
		}
		return err
	}
	if target.UserID != senderID {
		r.log.Debug("dropping destroy for foreign session", zap.String("userId", senderID), zap.String("sessionId", event.SessionID))
		return nil
	}

	// The session record goes away even when no socket is attached to it.
	if err := r.sessions.Delete(ctx, target.ID); err != nil {
		return err
	}

	if conn := r.registry.FindByToken(target.Token); conn != nil {
		r.registry.Send(conn, ForcedLogoutEvent{
			Type:             EventUserLogout,
			CurrentSessionID: conn.Token,
			SessionID:        target.Token,
		})
		conn.Conn.Close()
	}

	sessions, err := r.sessions.ListForUser(ctx, senderID)
	if err != nil {
		return err
	}

	r.registry.SendToUser(senderID, LogoutAckEvent{
		Type:     EventUserLogout,
		Success:  true,
		Sessions: sessions,
	})

	return nil
}

// NotifyBlocked pushes the USER_BLOCKED event to the affected user's live
// connections. Called from the HTTP blacklist toggle.
func (r *Router) NotifyBlocked(blockerID, blockedID string, isBlocked bool) {
	r.registry.SendToUser(blockedID, UserBlockedEvent{
		Type:      EventUserBlocked,
		UserID:    blockerID,
		IsBlocked: isBlocked,
	})
}
