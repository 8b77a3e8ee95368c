package wire

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

const (
	KindChat    = `chat`    // client: chat aimed at one NPC
	KindCommand = `command` // client: a command line

	KindWelcome = `welcome` // server: sent once after connecting
	KindText    = `text`    // server: plain text for the player
	KindReply   = `reply`   // server: an NPC's reply
)

const MaxTextLength = 1000

// ClientFrame is anything a client sends
type ClientFrame struct {
	Kind    string `json:"kind" validate:"required,oneof=chat command"`
	Subject string `json:"subject,omitempty" validate:"required_if=Kind chat,omitempty,uuid"`
	Text    string `json:"text" validate:"required,max=1000"`
}

// ServerFrame is anything the server sends
type ServerFrame struct {
	Kind    string `json:"kind"`
	UserId  string `json:"userid,omitempty"`
	Subject string `json:"subject,omitempty"`
	Name    string `json:"name,omitempty"`
	Text    string `json:"text,omitempty"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// DecodeClientFrame parses and validates one client frame
func DecodeClientFrame(data []byte) (ClientFrame, error) {
	f := ClientFrame{}
	if err := json.Unmarshal(data, &f); err != nil {
		return f, errors.Wrap(err, `decode frame`)
	}
	if err := validate.Struct(f); err != nil {
		return f, errors.Wrap(err, `invalid frame`)
	}
	return f, nil
}

// ValidateName checks a player name given when connecting. Empty is allowed.
func ValidateName(name string) error {
	if err := validate.Var(name, `omitempty,max=32,alphanum`); err != nil {
		return errors.Wrap(err, `invalid name`)
	}
	return nil
}
