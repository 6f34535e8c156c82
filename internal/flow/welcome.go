package flow

import (
	"context"
	"log/slog"
	"strings"

	"github.com/basgomcesar/ChatBotCore-sub000/internal/models"
	"github.com/basgomcesar/ChatBotCore-sub000/internal/templates"
	"github.com/basgomcesar/ChatBotCore-sub000/internal/validate"
)

// WelcomeModule handles onboarding (name and user-type capture) and the main
// menu. It also serves as the router's fallback flow.
type WelcomeModule struct{}

func NewWelcomeModule() *WelcomeModule {
	return &WelcomeModule{}
}

func (m *WelcomeModule) Flow() models.Flow {
	return models.FlowWelcome
}

// menuTargets is the fixed lookup table from menu choice to target
// (flow, step) pair. Option 6 (exit) is handled separately because it
// replies with a farewell instead of an entry prompt.
var menuTargets = map[string]struct {
	flow   models.Flow
	step   models.Step
	prompt func(state models.UserState) string
}{
	"1": {models.FlowRequirements, models.StepRequirementsLoanType, func(models.UserState) string { return templates.AskLoanType }},
	"2": {models.FlowSimulation, models.StepSimulationLoanType, func(models.UserState) string { return templates.AskLoanType }},
	"3": {models.FlowApplication, models.StepApplicationLoanType, func(models.UserState) string { return templates.AskLoanType }},
	"4": {models.FlowAdvisor, models.StepAdvisorEntry, func(models.UserState) string { return templates.AdvisorIntro }},
	"5": {models.FlowFAQ, models.StepFAQMenu, func(models.UserState) string { return templates.FAQMenu() }},
}

func (m *WelcomeModule) Handle(ctx context.Context, userID string, in Input, state models.UserState) (Result, error) {
	switch state.Step {
	case models.StepGreeting:
		return reply(at(state, models.FlowWelcome, models.StepAwaitingName), templates.Greeting), nil

	case models.StepAwaitingName:
		return m.handleName(userID, in, state), nil

	case models.StepAwaitingUserType:
		return m.handleUserType(userID, in, state), nil

	case models.StepMenu, models.StepAwaitingMenuChoice:
		return m.handleMenuChoice(userID, in, state), nil

	default:
		// Unknown step inside a recognized flow: flow-specific fallback,
		// reset to the initial step.
		slog.Warn("WelcomeModule unknown step", "userID", userID, "step", state.Step)
		next := at(state, models.FlowWelcome, models.StepAwaitingName)
		return reply(next, templates.FlowFallback(templates.Greeting)), nil
	}
}

// handleName validates the captured display name using the original casing.
// Invalid names self-loop on the same step; there is no retry limit.
func (m *WelcomeModule) handleName(userID string, in Input, state models.UserState) Result {
	if !validate.IsValidName(in.Text) {
		slog.Debug("WelcomeModule invalid name", "userID", userID)
		return reply(state, templates.InvalidName)
	}
	next := state
	next.Name = strings.TrimSpace(in.Text)
	next = at(next, models.FlowWelcome, models.StepAwaitingUserType)
	slog.Info("WelcomeModule name captured", "userID", userID)
	return reply(next, templates.AskUserType)
}

func (m *WelcomeModule) handleUserType(userID string, in Input, state models.UserState) Result {
	userType, ok := validate.DetectUserType(in.Normalized)
	if !ok {
		slog.Debug("WelcomeModule user type not detected", "userID", userID, "input", in.Normalized)
		return reply(state, templates.InvalidUserType)
	}
	next := state
	next.UserType = userType
	next = at(next, models.FlowWelcome, models.StepAwaitingMenuChoice)
	slog.Info("WelcomeModule user type captured", "userID", userID, "userType", userType)
	return reply(next, templates.Menu(next.Name))
}

// handleMenuChoice maps numeric choices to their target flows. Any other
// input silently redisplays the menu; this is intentional graceful
// degradation, not an error path.
func (m *WelcomeModule) handleMenuChoice(userID string, in Input, state models.UserState) Result {
	if target, ok := menuTargets[in.Normalized]; ok {
		next := at(models.ClearTransient(state), target.flow, target.step)
		slog.Info("WelcomeModule menu choice", "userID", userID, "choice", in.Normalized, "to_flow", target.flow)
		return reply(next, target.prompt(next))
	}
	if in.Normalized == "6" {
		slog.Info("WelcomeModule farewell", "userID", userID)
		return reply(at(models.ClearTransient(state), models.FlowWelcome, models.StepMenu), templates.Farewell)
	}
	return reply(at(state, models.FlowWelcome, models.StepAwaitingMenuChoice), templates.Menu(state.Name))
}
