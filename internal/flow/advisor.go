package flow

import (
	"context"
	"log/slog"
	"time"

	"github.com/basgomcesar/ChatBotCore-sub000/internal/models"
	"github.com/basgomcesar/ChatBotCore-sub000/internal/templates"
	"github.com/basgomcesar/ChatBotCore-sub000/internal/validate"
)

// AdvisorModule hands the user off to a human advisor when inside business
// hours, or tells them when advisors are available.
type AdvisorModule struct {
	// now is injectable for tests; defaults to time.Now.
	now func() time.Time
}

func NewAdvisorModule() *AdvisorModule {
	return &AdvisorModule{now: time.Now}
}

func (m *AdvisorModule) Flow() models.Flow {
	return models.FlowAdvisor
}

func (m *AdvisorModule) Handle(ctx context.Context, userID string, in Input, state models.UserState) (Result, error) {
	switch state.Step {
	case models.StepAdvisorEntry:
		if in.Normalized != "si" && in.Normalized != "sí" {
			next := at(state, models.FlowWelcome, models.StepMenu)
			return reply(next, templates.Menu(state.Name)), nil
		}
		msg := templates.AdvisorOutOfHours
		if validate.IsBusinessHours(m.now()) {
			msg = templates.AdvisorInHours
		}
		slog.Info("AdvisorModule handoff", "userID", userID, "in_hours", msg == templates.AdvisorInHours)
		return reply(at(state, models.FlowWelcome, models.StepMenu), msg), nil

	default:
		slog.Warn("AdvisorModule unknown step", "userID", userID, "step", state.Step)
		next := at(state, models.FlowAdvisor, models.StepAdvisorEntry)
		return reply(next, templates.FlowFallback(templates.AdvisorIntro)), nil
	}
}
