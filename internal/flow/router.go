package flow

import (
	"context"
	"log/slog"

	"github.com/basgomcesar/ChatBotCore-sub000/internal/models"
	"github.com/basgomcesar/ChatBotCore-sub000/internal/templates"
)

// globalCommands always reset the conversation to the Welcome menu,
// regardless of the current flow or step. Matching is exact after
// normalization. This is the deliberate "always escape" guarantee: it works
// mid-upload and mid-loop.
var globalCommands = map[string]struct{}{
	"menu":     {},
	"menú":     {},
	"cancelar": {},
	"cancel":   {},
}

// IsGlobalCommand reports whether normalized text is a recognized global
// command.
func IsGlobalCommand(normalized string) bool {
	_, ok := globalCommands[normalized]
	return ok
}

// Router is the top-level dispatcher. It intercepts global commands,
// otherwise delegates to the module registered for the user's current flow,
// and normalizes the output so the caller always receives a well-formed
// result with a valid (flow, step) pair.
type Router struct {
	modules map[models.Flow]Module
}

// NewRouter creates a Router with the given flow modules. A Welcome module
// must be among them; it doubles as the defensive fallback for unknown flows.
func NewRouter(modules ...Module) *Router {
	r := &Router{modules: make(map[models.Flow]Module, len(modules))}
	for _, m := range modules {
		r.modules[m.Flow()] = m
	}
	slog.Debug("Router created", "modules", len(r.modules))
	return r
}

// Route processes one inbound message. It never returns an error: module
// failures and malformed states degrade to safe replies and a valid state.
func (r *Router) Route(ctx context.Context, userID, rawText string, attachment *models.Attachment, state models.UserState) Result {
	in := NewInput(rawText, attachment)
	slog.Debug("Router Route", "userID", userID, "flow", state.Flow, "step", state.Step, "has_attachment", attachment != nil)

	// Global commands override whatever flow/step the user was in.
	if IsGlobalCommand(in.Normalized) {
		slog.Info("Router global command", "userID", userID, "command", in.Normalized, "from_flow", state.Flow, "from_step", state.Step)
		next := models.MenuState(models.ClearTransient(state))
		return reply(next, templates.GlobalCommandAck, templates.Menu(next.Name))
	}

	module, ok := r.modules[state.Flow]
	if !ok {
		// Unknown flow: fail safe to the Welcome module rather than crash.
		slog.Warn("Router unknown flow, falling back to welcome", "userID", userID, "flow", state.Flow)
		module = r.modules[models.FlowWelcome]
		state = at(state, models.FlowWelcome, models.StepMenu)
	}

	result, err := module.Handle(ctx, userID, in, state)
	if err != nil {
		slog.Error("Router module error", "error", err, "userID", userID, "flow", state.Flow, "step", state.Step)
		next := models.MenuState(state)
		return reply(next, templates.FlowFallback(templates.Menu(next.Name)))
	}

	// The returned step must be valid for the returned flow; otherwise fail
	// safe to the Welcome menu.
	if !models.ValidStep(result.NewState.Flow, result.NewState.Step) {
		slog.Warn("Router module returned invalid state, resetting to menu",
			"userID", userID, "flow", result.NewState.Flow, "step", result.NewState.Step)
		result.NewState = models.MenuState(result.NewState)
	}

	slog.Debug("Router Route done", "userID", userID, "to_flow", result.NewState.Flow, "to_step", result.NewState.Step, "replies", len(result.Replies))
	return result
}
