// Package templates holds the outbound message text used by the conversation
// flows. Text lives here, not in the flow logic, so wording changes never
// touch the state machine.
package templates

import (
	"fmt"
	"strings"

	"github.com/basgomcesar/ChatBotCore-sub000/internal/models"
)

// Welcome flow.
const (
	Greeting = "¡Hola! 👋 Soy tu asistente de créditos. Para comenzar, ¿cuál es tu nombre?"

	InvalidName = "Ese nombre no parece válido. Escribe tu nombre usando solo letras y espacios (mínimo 2 caracteres)."

	AskUserType = "¿Eres trabajador activo o pensionado?\n1. Trabajador activo\n2. Pensionado\n(Responde con '1' o '2')"

	InvalidUserType = "No pude identificar tu tipo de usuario. Responde '1' si eres trabajador activo o '2' si eres pensionado."

	GlobalCommandAck = "De acuerdo, regresamos al menú principal. ✅"

	Farewell = "¡Gracias por usar el asistente de créditos! Escribe cualquier mensaje cuando quieras volver. 👋"
)

// Menu returns the main menu, greeting the user by name when known.
func Menu(name string) string {
	var b strings.Builder
	if name != "" {
		fmt.Fprintf(&b, "%s, ¿en qué puedo ayudarte?\n", name)
	} else {
		b.WriteString("¿En qué puedo ayudarte?\n")
	}
	b.WriteString("1. Requisitos de crédito\n")
	b.WriteString("2. Simulación de crédito\n")
	b.WriteString("3. Llenado de solicitud\n")
	b.WriteString("4. Hablar con un asesor\n")
	b.WriteString("5. Preguntas frecuentes\n")
	b.WriteString("6. Salir\n")
	b.WriteString("(Responde con el número de la opción)")
	return b.String()
}

// Shared prompts.
const (
	AskLoanType = "¿Qué tipo de crédito te interesa?\n1. Corto plazo\n2. Mediano plazo\n(Responde con '1' o '2')"

	InvalidLoanType = "Opción no válida. Responde '1' para corto plazo o '2' para mediano plazo."

	ImageRequired = "Necesito una *fotografía* de tu credencial para continuar. Envíala como imagen, por favor. 📷"

	ImageInvalid = "No pude leer esa imagen. Asegúrate de enviar una fotografía clara en formato JPG o PNG."

	RecognitionFailed = "No pude reconocer los datos de tu credencial. 😔\nEscribe tus datos manualmente con el formato:\n*afiliacion: <número>, folio: <número>*"

	ManualEntryInvalid = "El formato no es correcto. Escribe tus datos así:\n*afiliacion: 1234567, folio: 8901234*"

	LookupFailed = "No fue posible consultar tus datos en este momento. Envíalos de nuevo o escribe 'menu' para regresar."

	UnknownScenario = "No pude determinar tu tipo de derechohabiente para este trámite. Escribe tus datos manualmente con el formato:\n*afiliacion: <número>, folio: <número>*"
)

// Requirements flow.
const (
	RequirementsActiveShortTerm = "📋 *Requisitos — crédito a corto plazo (trabajador activo):*\n• Credencial de derechohabiente vigente\n• Identificación oficial\n• Último talón de pago\n• Antigüedad mínima de 6 meses\nEscribe 'menu' para ver otras opciones."

	RequirementsActiveMediumTerm = "📋 *Requisitos — crédito a mediano plazo (trabajador activo):*\n• Credencial de derechohabiente vigente\n• Identificación oficial\n• Dos últimos talones de pago\n• Antigüedad mínima de 1 año\nEscribe 'menu' para ver otras opciones."

	RequirementsPensionerShortTerm = "📋 *Requisitos — crédito a corto plazo (pensionado):*\n• Credencial de pensionado vigente\n• Identificación oficial\n• Último comprobante de pensión\nEscribe 'menu' para ver otras opciones."

	RequirementsPensionerMediumTerm = "📋 *Requisitos — crédito a mediano plazo (pensionado):*\n• Credencial de pensionado vigente\n• Identificación oficial\n• Último comprobante de pensión\n• De 1 a 3 avales con credencial vigente\nEscribe 'menu' para ver otras opciones."
)

// Requirements returns the requirement text for a user type and loan type.
func Requirements(ut models.UserType, lt models.LoanType) string {
	switch {
	case ut == models.UserTypeActive && lt == models.LoanTypeShortTerm:
		return RequirementsActiveShortTerm
	case ut == models.UserTypeActive && lt == models.LoanTypeMediumTerm:
		return RequirementsActiveMediumTerm
	case ut == models.UserTypePensioner && lt == models.LoanTypeShortTerm:
		return RequirementsPensionerShortTerm
	default:
		return RequirementsPensionerMediumTerm
	}
}

// Simulation flow.
const (
	SimulationAskCredential = "Para simular tu crédito envía una *fotografía* de tu credencial 📷, o escribe tus datos con el formato:\n*afiliacion: <número>, folio: <número>*"

	SimulationFailed = "No fue posible consultar tus datos en este momento. Intenta de nuevo más tarde o escribe 'menu' para regresar."
)

// SimulationSummary formats the resolved financial figures for a loan type.
func SimulationSummary(lt models.LoanType, salary, balance float64, adjustedDate string) string {
	product := "corto plazo"
	if lt == models.LoanTypeMediumTerm {
		product = "mediano plazo"
	}
	return fmt.Sprintf("📊 *Simulación de crédito a %s:*\n• Sueldo/pensión registrado: $%.2f\n• Saldo disponible: $%.2f\n• Fecha de ajuste: %s\nUn asesor puede confirmar montos y plazos exactos. Escribe 'menu' para regresar.",
		product, salary, balance, adjustedDate)
}

// Advisor flow.
const (
	AdvisorIntro = "Te pondré en contacto con un asesor. Escribe *si* para confirmar o 'menu' para regresar."

	AdvisorInHours = "✅ Un asesor te contactará en breve por este mismo chat. Horario de atención: lunes a viernes de 8:00 a 15:00."

	AdvisorOutOfHours = "🕒 Nuestros asesores atienden de lunes a viernes de 8:00 a 15:00. Deja tu mensaje y te contactaremos en el siguiente horario hábil."
)

// FAQ flow.

// FAQEntry is one question/answer pair shown in the FAQ menu.
type FAQEntry struct {
	Question string
	Answer   string
}

// FAQEntries lists the FAQ menu in display order.
var FAQEntries = []FAQEntry{
	{"¿Cuánto tarda la aprobación de un crédito?", "La aprobación tarda de 5 a 10 días hábiles una vez entregada la solicitud completa."},
	{"¿Puedo tener más de un crédito a la vez?", "No. Debes liquidar tu crédito vigente antes de solicitar uno nuevo."},
	{"¿Qué es un aval?", "Un aval es un derechohabiente que respalda tu solicitud con su credencial vigente."},
	{"¿Dónde entrego mi solicitud?", "En cualquier módulo de atención, de lunes a viernes de 8:00 a 15:00."},
}

// FAQMenu returns the numbered FAQ menu.
func FAQMenu() string {
	var b strings.Builder
	b.WriteString("❓ *Preguntas frecuentes:*\n")
	for i, e := range FAQEntries {
		fmt.Fprintf(&b, "%d. %s\n", i+1, e.Question)
	}
	b.WriteString("0. Regresar al menú principal\n(Responde con el número de la pregunta)")
	return b.String()
}

// Application flow.
const (
	ApplicationAskCredential = "Envía una *fotografía* de tu credencial de derechohabiente para llenar tu solicitud. 📷"

	ApplicationCancelled = "Solicitud cancelada. Regresamos al menú principal."

	ApplicationConfirmRetry = "Responde *si* para continuar con tu solicitud o *no* para cancelar."

	AskCoSignerCount = "¿Con cuántos avales cuentas? (de 1 a 3)"

	InvalidCoSignerCount = "Indica un número de avales entre 1 y 3."

	CoSignerRecognitionFailed = "No pude reconocer la credencial de tu aval. Envía de nuevo una fotografía clara de su credencial. 📷"

	ApplicationComplete = "🎉 ¡Tu solicitud está lista! Te la envío en PDF. Imprímela, fírmala y entrégala en tu módulo de atención."

	ApplicationFailed = "No fue posible generar tu solicitud en este momento. Intenta de nuevo más tarde o escribe 'menu' para regresar."

	DocumentCaption = "Solicitud de crédito"
)

// ConfirmInformation formats the resolved identity data for user confirmation.
func ConfirmInformation(name, affiliation, folio string, dt models.DerechohabienteType) string {
	kind := "Trabajador activo"
	if dt == models.DerechohabientePensioner {
		kind = "Pensionado"
	}
	var b strings.Builder
	b.WriteString("Confirma tus datos:\n")
	if name != "" {
		fmt.Fprintf(&b, "• Nombre: %s\n", name)
	}
	fmt.Fprintf(&b, "• Afiliación: %s\n• Folio: %s\n• Tipo: %s\n", affiliation, folio, kind)
	b.WriteString("¿Son correctos? Responde *si* o *no*.")
	return b.String()
}

// AskCoSignerImage prompts for the credential photo of the n-th co-signer
// (1-based ordinal).
func AskCoSignerImage(ordinal int) string {
	return fmt.Sprintf("Envía una *fotografía* de la credencial de tu aval %d. 📷", ordinal)
}

// FlowFallback is sent when a stored step is no longer recognized and the
// flow restarts from its initial step.
func FlowFallback(menu string) string {
	return "Parece que perdimos el hilo de la conversación. Empecemos de nuevo:\n" + menu
}
