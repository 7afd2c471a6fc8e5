package moderation

import (
	"encoding/json"

	pkgError "github.com/modsentry/modsentry/pkg/error"
)

// InstructionKind names the recognized instruction field sets.
type InstructionKind string

const (
	KindSendMessage   InstructionKind = "send_message"
	KindSendImage     InstructionKind = "send_image"
	KindDeleteMessage InstructionKind = "delete_message"
	KindRemoveUser    InstructionKind = "remove_user"
	KindAddUser       InstructionKind = "add_user"
)

// Instruction is one administrative action returned by the backend. The kind
// is flagged by which boolean marker is set; the remaining fields carry the
// arguments for that kind.
type Instruction struct {
	SendMessage   bool `json:"send_message,omitempty"`
	SendImage     bool `json:"send_image,omitempty"`
	DeleteMessage bool `json:"delete_message,omitempty"`
	RemoveUser    bool `json:"remove_user,omitempty"`
	AddUser       bool `json:"add_user,omitempty"`

	To             string      `json:"to,omitempty"`
	Text           string      `json:"text,omitempty"`
	ImagePath      string      `json:"image_path,omitempty"`
	Caption        string      `json:"caption,omitempty"`
	MessageKey     *MessageKey `json:"message_key,omitempty"`
	ChatID         string      `json:"chat_id,omitempty"`
	ParticipantJID string      `json:"participant_jid,omitempty"`
}

// Kind returns the instruction kind, or false when no marker is set.
func (i Instruction) Kind() (InstructionKind, bool) {
	switch {
	case i.SendMessage:
		return KindSendMessage, true
	case i.SendImage:
		return KindSendImage, true
	case i.DeleteMessage:
		return KindDeleteMessage, true
	case i.RemoveUser:
		return KindRemoveUser, true
	case i.AddUser:
		return KindAddUser, true
	}
	return "", false
}

// ParseInstructionBatch decodes the instructions payload of an API response.
// The backend may send a single instruction object or an ordered array; a
// single object is wrapped into a one-element batch. A payload that decodes
// to no recognized instruction at all is rejected as malformed.
func ParseInstructionBatch(raw json.RawMessage) ([]Instruction, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var batch []Instruction
	if err := json.Unmarshal(raw, &batch); err == nil {
		return batch, nil
	}

	var single Instruction
	if err := json.Unmarshal(raw, &single); err != nil {
		return nil, pkgError.ValidationError("instructions payload is neither an object nor an array: " + err.Error())
	}
	if _, ok := single.Kind(); !ok {
		return nil, pkgError.ValidationError("instruction matches no recognized field set")
	}
	return []Instruction{single}, nil
}
