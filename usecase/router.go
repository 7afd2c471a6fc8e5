package usecase

import (
	"context"
	"strings"

	"github.com/modsentry/modsentry/domains/moderation"
	"github.com/sirupsen/logrus"
)

// Router classifies normalized inbound messages and forwards them to the
// moderation backend. It is stateless per message: one message's backend
// failure never affects the next.
type Router struct {
	api      moderation.IModerationAPI
	executor *Executor
	groupJID string
	keywords []string
	menu     map[string]struct{}
}

func NewRouter(api moderation.IModerationAPI, executor *Executor, groupJID string, keywords, menuOptions []string) *Router {
	menu := make(map[string]struct{}, len(menuOptions))
	for _, opt := range menuOptions {
		menu[opt] = struct{}{}
	}
	return &Router{
		api:      api,
		executor: executor,
		groupJID: groupJID,
		keywords: keywords,
		menu:     menu,
	}
}

// Handle routes one message. Group messages outside the monitored group and
// monitored-group messages without an image or sales keyword are no-ops.
func (r *Router) Handle(ctx context.Context, msg *moderation.InboundMessage) {
	if msg == nil {
		return
	}
	if msg.IsGroup {
		r.handleGroup(ctx, msg)
		return
	}
	r.handleDirect(ctx, msg)
}

func (r *Router) handleGroup(ctx context.Context, msg *moderation.InboundMessage) {
	if r.groupJID == "" || msg.ChatID != r.groupJID {
		return
	}
	if msg.Type != moderation.TypeImage && !r.matchesKeyword(msg.Content) {
		return
	}

	resp, err := r.api.IngestMessage(ctx, moderation.IngestRequest{
		Phone:          msg.SenderID,
		RealPhone:      msg.RealSenderID,
		Name:           msg.PushName,
		ChatID:         msg.ChatID,
		IsGroup:        true,
		MessageType:    msg.Type,
		Content:        msg.Content,
		MessageKey:     msg.Key,
		ParticipantJID: msg.Key.Participant,
	})
	if err != nil {
		logrus.WithError(err).Error("[ROUTER] ingest failed, message dropped")
		return
	}
	r.dispatch(ctx, resp, msg)
}

func (r *Router) handleDirect(ctx context.Context, msg *moderation.InboundMessage) {
	trimmed := strings.TrimSpace(msg.Content)
	if _, ok := r.menu[trimmed]; ok && msg.Type == moderation.TypeText {
		resp, err := r.api.SubmitResponse(ctx, moderation.ModeratorReplyRequest{
			Phone:    msg.SenderID,
			Response: trimmed,
		})
		if err != nil {
			logrus.WithError(err).Error("[ROUTER] moderation response failed")
			return
		}
		r.dispatch(ctx, resp, msg)
		return
	}

	resp, err := r.api.Conversation(ctx, moderation.ConversationRequest{
		Phone:     msg.SenderID,
		RealPhone: msg.RealSenderID,
		Message:   msg.Content,
		Name:      msg.PushName,
		ReplyJID:  msg.ReplyJID,
	})
	if err != nil {
		logrus.WithError(err).Error("[ROUTER] conversation forward failed")
		return
	}
	r.dispatch(ctx, resp, msg)
}

func (r *Router) dispatch(ctx context.Context, resp *moderation.APIResponse, origin *moderation.InboundMessage) {
	if resp == nil || len(resp.Instructions) == 0 {
		return
	}
	r.executor.Execute(ctx, resp.Instructions, origin)
}

func (r *Router) matchesKeyword(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range r.keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
