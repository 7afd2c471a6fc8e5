package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/modsentry/modsentry/domains/moderation"
	"github.com/modsentry/modsentry/pkg/imagestore"
	"github.com/modsentry/modsentry/pkg/jidutil"
	"github.com/modsentry/modsentry/validations"
	"github.com/sirupsen/logrus"
)

// Executor applies backend instruction batches against the chat session.
// Instructions run strictly in order with per-instruction isolation: a failed
// instruction is logged and its siblings still run.
type Executor struct {
	messenger moderation.IMessenger
	images    *imagestore.Store
	state     *moderation.ConnectionState
}

func NewExecutor(messenger moderation.IMessenger, images *imagestore.Store, state *moderation.ConnectionState) *Executor {
	return &Executor{
		messenger: messenger,
		images:    images,
		state:     state,
	}
}

// Execute runs one raw instructions payload. The batch is discarded outright
// when the session is not ready; there is no queueing or deferred retry.
// origin is the triggering message, used to route direct replies back through
// the chat the moderator actually wrote from.
func (e *Executor) Execute(ctx context.Context, raw json.RawMessage, origin *moderation.InboundMessage) {
	if !e.state.Ready() {
		logrus.Warn("[EXECUTOR] connection not ready, discarding instruction batch")
		return
	}

	batch, err := moderation.ParseInstructionBatch(raw)
	if err != nil {
		logrus.WithError(err).Warn("[EXECUTOR] malformed instruction batch ignored")
		return
	}
	if len(batch) == 0 {
		return
	}

	batchID := uuid.NewString()
	logrus.Debugf("[EXECUTOR] batch %s: %d instruction(s)", batchID, len(batch))

	// The moderator reply target is wherever the last successful send_message
	// in this batch went; add_user failure diagnostics are delivered there.
	replyTarget := ""

	for i, ins := range batch {
		if err := validations.ValidateInstruction(ctx, ins); err != nil {
			logrus.WithError(err).Warnf("[EXECUTOR] batch %s: instruction %d skipped", batchID, i)
			continue
		}

		kind, _ := ins.Kind()
		switch kind {
		case moderation.KindSendMessage:
			to := e.resolveTarget(ins.To, origin)
			if err := e.messenger.SendText(ctx, to, ins.Text); err != nil {
				logrus.WithError(err).Errorf("[EXECUTOR] batch %s: send_message to %s failed", batchID, to)
				continue
			}
			replyTarget = to
		case moderation.KindSendImage:
			e.sendImage(ctx, ins, origin, batchID)
		case moderation.KindDeleteMessage:
			if err := e.messenger.RevokeMessage(ctx, *ins.MessageKey); err != nil {
				logrus.WithError(err).Errorf("[EXECUTOR] batch %s: delete_message %s failed", batchID, ins.MessageKey.ID)
			}
		case moderation.KindRemoveUser:
			if !e.removeUser(ctx, ins.ChatID, ins.ParticipantJID) {
				logrus.Warnf("[EXECUTOR] batch %s: remove_user %s from %s failed", batchID, ins.ParticipantJID, ins.ChatID)
			}
		case moderation.KindAddUser:
			e.addUser(ctx, ins, replyTarget, batchID)
		}
	}
}

// resolveTarget prefers the originating direct-chat identifier over the
// backend-supplied `to` for non-group targets, so replies go back through
// the identifier form the sender is actually reachable on.
func (e *Executor) resolveTarget(to string, origin *moderation.InboundMessage) string {
	if origin != nil && origin.ReplyJID != "" && !jidutil.IsGroup(to) {
		return origin.ReplyJID
	}
	return jidutil.CanonicalTarget(to)
}

func (e *Executor) sendImage(ctx context.Context, ins moderation.Instruction, origin *moderation.InboundMessage, batchID string) {
	data, err := e.images.Read(ins.ImagePath)
	if err != nil {
		logrus.WithError(err).Warnf("[EXECUTOR] batch %s: send_image skipped", batchID)
		return
	}
	to := e.resolveTarget(ins.To, origin)
	if err := e.messenger.SendImage(ctx, to, data, ins.Caption); err != nil {
		logrus.WithError(err).Errorf("[EXECUTOR] batch %s: send_image to %s failed", batchID, to)
	}
}

// removeUser attempts removal with the given identifier; when that form is
// rejected and uses the privacy-relay suffix, it retries exactly once with
// the reconstructed direct-routing form.
func (e *Executor) removeUser(ctx context.Context, chatID, participant string) bool {
	if e.tryParticipant(ctx, chatID, participant, moderation.ParticipantRemove) {
		return true
	}
	if jidutil.IsAlternate(participant) {
		direct := jidutil.ToDirect(participant)
		logrus.Debugf("[EXECUTOR] retrying removal of %s as %s", participant, direct)
		return e.tryParticipant(ctx, chatID, direct, moderation.ParticipantRemove)
	}
	return false
}

func (e *Executor) tryParticipant(ctx context.Context, chatID, participant string, action moderation.ParticipantAction) bool {
	results, err := e.messenger.UpdateParticipants(ctx, chatID, []string{participant}, action)
	if err != nil {
		logrus.WithError(err).Warnf("[EXECUTOR] %s %s on %s rejected", action, participant, chatID)
		return false
	}
	for _, res := range results {
		if res.Status != "200" {
			logrus.Warnf("[EXECUTOR] %s %s on %s returned status %s", action, res.JID, chatID, res.Status)
			return false
		}
	}
	return true
}

func (e *Executor) addUser(ctx context.Context, ins moderation.Instruction, replyTarget, batchID string) {
	status := "500"
	results, err := e.messenger.UpdateParticipants(ctx, ins.ChatID, []string{ins.ParticipantJID}, moderation.ParticipantAdd)
	if err != nil {
		logrus.WithError(err).Warnf("[EXECUTOR] batch %s: add_user %s rejected", batchID, ins.ParticipantJID)
	} else if len(results) > 0 {
		status = results[0].Status
	}

	if status == "200" {
		logrus.Infof("[EXECUTOR] batch %s: added %s to %s", batchID, ins.ParticipantJID, ins.ChatID)
		return
	}

	if replyTarget == "" {
		logrus.Warnf("[EXECUTOR] batch %s: add_user failed with status %s and no moderator target to notify", batchID, status)
		return
	}

	notice := fmt.Sprintf("⚠️ No se pudo agregar a %s: %s", jidutil.ShortID(ins.ParticipantJID), addFailureCause(status))
	if err := e.messenger.SendText(ctx, replyTarget, notice); err != nil {
		logrus.WithError(err).Errorf("[EXECUTOR] batch %s: failed to notify moderator", batchID)
	}
}

func addFailureCause(status string) string {
	switch status {
	case "401":
		return "el bot no es administrador del grupo"
	case "403":
		return "la configuración de privacidad del usuario no lo permite"
	case "404", "408":
		return "el número no está registrado en WhatsApp"
	default:
		return fmt.Sprintf("error %s del servidor", status)
	}
}
