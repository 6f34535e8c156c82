package flow

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/basgomcesar/ChatBotCore-sub000/internal/models"
	"github.com/basgomcesar/ChatBotCore-sub000/internal/templates"
)

// FAQModule answers the numbered frequently-asked questions. The user stays
// in the FAQ menu until choosing "0" to return to the main menu.
type FAQModule struct{}

func NewFAQModule() *FAQModule {
	return &FAQModule{}
}

func (m *FAQModule) Flow() models.Flow {
	return models.FlowFAQ
}

func (m *FAQModule) Handle(ctx context.Context, userID string, in Input, state models.UserState) (Result, error) {
	switch state.Step {
	case models.StepFAQMenu:
		if in.Normalized == "0" {
			next := at(state, models.FlowWelcome, models.StepMenu)
			return reply(next, templates.Menu(state.Name)), nil
		}
		if n, err := strconv.Atoi(in.Normalized); err == nil && n >= 1 && n <= len(templates.FAQEntries) {
			slog.Debug("FAQModule answering", "userID", userID, "question", n)
			return reply(state, templates.FAQEntries[n-1].Answer, templates.FAQMenu()), nil
		}
		return reply(state, templates.FAQMenu()), nil

	default:
		slog.Warn("FAQModule unknown step", "userID", userID, "step", state.Step)
		next := at(state, models.FlowFAQ, models.StepFAQMenu)
		return reply(next, templates.FlowFallback(templates.FAQMenu())), nil
	}
}
