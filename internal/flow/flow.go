// Package flow implements the conversation state machine and flow-routing
// engine. Each flow is a self-contained state machine over (flow, step)
// pairs; the router dispatches inbound messages to the module registered for
// the user's current flow.
package flow

import (
	"context"
	"strings"

	"github.com/basgomcesar/ChatBotCore-sub000/internal/models"
)

// Input is one normalized inbound message. Normalized is trimmed and
// lowercased for comparison purposes only; Text preserves the original
// casing for flows that need it (e.g., name capture).
type Input struct {
	Text       string
	Normalized string
	Attachment *models.Attachment
}

// NewInput builds an Input from raw message text and an optional attachment.
func NewInput(text string, attachment *models.Attachment) Input {
	return Input{
		Text:       text,
		Normalized: strings.ToLower(strings.TrimSpace(text)),
		Attachment: attachment,
	}
}

// Result is the outcome of handling one inbound message: zero or more
// ordered replies, an optional generated document, and the next state.
type Result struct {
	Replies  []string
	Document *models.Document
	NewState models.UserState
}

// Module handles all steps of one flow. A handler may return a NewState
// whose flow differs from its own; that is the only mechanism for
// cross-flow transitions.
type Module interface {
	// Flow returns the identifier this module is registered under.
	Flow() models.Flow

	// Handle processes one inbound message for a user currently in this
	// flow. Handlers receive the state by value and return a modified copy;
	// fields they do not touch are carried forward untouched.
	Handle(ctx context.Context, userID string, in Input, state models.UserState) (Result, error)
}

// reply is a small helper for the common single-message Result.
func reply(state models.UserState, messages ...string) Result {
	return Result{Replies: messages, NewState: state}
}

// at returns state with flow and step replaced.
func at(state models.UserState, f models.Flow, s models.Step) models.UserState {
	state.Flow = f
	state.Step = s
	return state
}
