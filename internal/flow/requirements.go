package flow

import (
	"context"
	"log/slog"

	"github.com/basgomcesar/ChatBotCore-sub000/internal/models"
	"github.com/basgomcesar/ChatBotCore-sub000/internal/templates"
)

// RequirementsModule shows the requirement checklist for the user's type and
// the chosen loan type, then returns to the Welcome menu.
type RequirementsModule struct{}

func NewRequirementsModule() *RequirementsModule {
	return &RequirementsModule{}
}

func (m *RequirementsModule) Flow() models.Flow {
	return models.FlowRequirements
}

func (m *RequirementsModule) Handle(ctx context.Context, userID string, in Input, state models.UserState) (Result, error) {
	switch state.Step {
	case models.StepRequirementsLoanType:
		loanType, ok := parseLoanType(in.Normalized)
		if !ok {
			return reply(state, templates.InvalidLoanType), nil
		}
		slog.Info("RequirementsModule showing requirements", "userID", userID, "userType", state.UserType, "loanType", loanType)
		next := at(state, models.FlowWelcome, models.StepMenu)
		return reply(next, templates.Requirements(state.UserType, loanType)), nil

	default:
		slog.Warn("RequirementsModule unknown step", "userID", userID, "step", state.Step)
		next := at(state, models.FlowRequirements, models.StepRequirementsLoanType)
		return reply(next, templates.FlowFallback(templates.AskLoanType)), nil
	}
}

// parseLoanType maps the numeric menu reply to a loan type.
func parseLoanType(normalized string) (models.LoanType, bool) {
	switch normalized {
	case "1":
		return models.LoanTypeShortTerm, true
	case "2":
		return models.LoanTypeMediumTerm, true
	default:
		return "", false
	}
}
