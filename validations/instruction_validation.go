package validations

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/modsentry/modsentry/domains/moderation"
	pkgError "github.com/modsentry/modsentry/pkg/error"
)

// ValidateInstruction checks that an instruction carries the arguments its
// kind requires. Instructions without a recognized kind marker are rejected.
func ValidateInstruction(ctx context.Context, instruction moderation.Instruction) error {
	kind, ok := instruction.Kind()
	if !ok {
		return pkgError.ValidationError("instruction matches no recognized field set")
	}

	var err error
	switch kind {
	case moderation.KindSendMessage:
		err = validation.ValidateStructWithContext(ctx, &instruction,
			validation.Field(&instruction.To, validation.Required),
			validation.Field(&instruction.Text, validation.Required),
		)
	case moderation.KindSendImage:
		err = validation.ValidateStructWithContext(ctx, &instruction,
			validation.Field(&instruction.To, validation.Required),
			validation.Field(&instruction.ImagePath, validation.Required),
		)
	case moderation.KindDeleteMessage:
		err = validation.ValidateStructWithContext(ctx, &instruction,
			validation.Field(&instruction.MessageKey, validation.Required),
		)
		if err == nil && instruction.MessageKey.ID == "" {
			return pkgError.ValidationError("message_key: id cannot be blank.")
		}
	case moderation.KindRemoveUser, moderation.KindAddUser:
		err = validation.ValidateStructWithContext(ctx, &instruction,
			validation.Field(&instruction.ChatID, validation.Required),
			validation.Field(&instruction.ParticipantJID, validation.Required),
		)
	}

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}
