package flow

import (
	"testing"

	"github.com/basgomcesar/ChatBotCore-sub000/internal/models"
	"github.com/basgomcesar/ChatBotCore-sub000/internal/templates"
)

func TestFAQAnswerKeepsUserInMenu(t *testing.T) {
	m := NewFAQModule()
	state := stateAt(models.FlowFAQ, models.StepFAQMenu)

	result := handle(t, m, "3", state)

	assertState(t, result, models.FlowFAQ, models.StepFAQMenu)
	assertReply(t, result, templates.FAQEntries[2].Answer, templates.FAQMenu())
}

func TestFAQZeroReturnsToMenu(t *testing.T) {
	m := NewFAQModule()
	state := stateAt(models.FlowFAQ, models.StepFAQMenu)

	result := handle(t, m, "0", state)

	assertState(t, result, models.FlowWelcome, models.StepMenu)
	assertReply(t, result, templates.Menu("Ana"))
}

func TestFAQInvalidChoiceRedisplays(t *testing.T) {
	m := NewFAQModule()

	for _, input := range []string{"9", "-1", "pregunta", ""} {
		state := stateAt(models.FlowFAQ, models.StepFAQMenu)

		result := handle(t, m, input, state)

		assertState(t, result, models.FlowFAQ, models.StepFAQMenu)
		assertReply(t, result, templates.FAQMenu())
	}
}
