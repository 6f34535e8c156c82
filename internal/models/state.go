package models

import "time"

// Flow identifies one of the self-contained conversational state machines.
type Flow string

const (
	FlowWelcome      Flow = "welcome"
	FlowRequirements Flow = "requirements"
	FlowSimulation   Flow = "simulation"
	FlowAdvisor      Flow = "advisor"
	FlowFAQ          Flow = "faq"
	FlowApplication  Flow = "application"
)

// Step identifies a state within a flow. Step identifiers are unique across
// all flows so a stored (flow, step) pair can always be validated.
type Step string

// Welcome flow steps.
const (
	StepGreeting           Step = "GREETING"
	StepAwaitingName       Step = "AWAITING_NAME"
	StepAwaitingUserType   Step = "AWAITING_USER_TYPE"
	StepMenu               Step = "MENU"
	StepAwaitingMenuChoice Step = "AWAITING_MENU_CHOICE"
)

// Requirements flow steps.
const (
	StepRequirementsLoanType Step = "REQUIREMENTS_LOAN_TYPE"
)

// Simulation flow steps.
const (
	StepSimulationLoanType    Step = "SIMULATION_LOAN_TYPE"
	StepSimulationCredential  Step = "SIMULATION_CREDENTIAL"
	StepSimulationManualEntry Step = "SIMULATION_MANUAL_ENTRY"
)

// Advisor flow steps.
const (
	StepAdvisorEntry Step = "ADVISOR_ENTRY"
)

// FAQ flow steps.
const (
	StepFAQMenu Step = "FAQ_MENU"
)

// Application flow steps.
const (
	StepApplicationInitial       Step = "APPLICATION_INITIAL"
	StepApplicationLoanType      Step = "APPLICATION_LOAN_TYPE"
	StepApplicationCredential    Step = "APPLICATION_CREDENTIAL"
	StepApplicationManualEntry   Step = "APPLICATION_MANUAL_ENTRY"
	StepApplicationConfirm       Step = "APPLICATION_CONFIRM"
	StepApplicationCoSignerCount Step = "APPLICATION_COSIGNER_COUNT"
	StepApplicationCoSignerImage Step = "APPLICATION_COSIGNER_IMAGE"
	StepApplicationGeneratePDF   Step = "APPLICATION_GENERATE_PDF"
)

// flowSteps maps each flow to its valid steps. The first entry is the flow's
// initial step, used by fallback handling when a stored step is unknown.
var flowSteps = map[Flow][]Step{
	FlowWelcome:      {StepGreeting, StepAwaitingName, StepAwaitingUserType, StepMenu, StepAwaitingMenuChoice},
	FlowRequirements: {StepRequirementsLoanType},
	FlowSimulation:   {StepSimulationLoanType, StepSimulationCredential, StepSimulationManualEntry},
	FlowAdvisor:      {StepAdvisorEntry},
	FlowFAQ:          {StepFAQMenu},
	FlowApplication: {StepApplicationInitial, StepApplicationLoanType, StepApplicationCredential,
		StepApplicationManualEntry, StepApplicationConfirm, StepApplicationCoSignerCount,
		StepApplicationCoSignerImage, StepApplicationGeneratePDF},
}

// ValidFlow reports whether f is a recognized flow identifier.
func ValidFlow(f Flow) bool {
	_, ok := flowSteps[f]
	return ok
}

// ValidStep reports whether s is a valid step identifier of flow f.
func ValidStep(f Flow, s Step) bool {
	for _, step := range flowSteps[f] {
		if step == s {
			return true
		}
	}
	return false
}

// InitialStep returns the first step of flow f, or StepGreeting when f is
// not a recognized flow.
func InitialStep(f Flow) Step {
	steps, ok := flowSteps[f]
	if !ok || len(steps) == 0 {
		return StepGreeting
	}
	return steps[0]
}

// UserType classifies the end user during onboarding.
type UserType string

const (
	// UserTypeActive is an active employee.
	UserTypeActive UserType = "active"
	// UserTypePensioner is a pensioner.
	UserTypePensioner UserType = "pensioner"
)

// LoanType selects the loan product under discussion.
type LoanType string

const (
	LoanTypeShortTerm  LoanType = "short_term"
	LoanTypeMediumTerm LoanType = "medium_term"
)

// DerechohabienteType is the classification returned by the credential
// recognition service: A for active employees, P for pensioners.
type DerechohabienteType string

const (
	DerechohabienteActive    DerechohabienteType = "A"
	DerechohabientePensioner DerechohabienteType = "P"
)

// CoSigner records one validated co-signer (aval) credential. Records are
// immutable once appended and never removed.
type CoSigner struct {
	AffiliationNumber   string              `json:"affiliation_number"`
	Folio               string              `json:"folio"`
	DerechohabienteType DerechohabienteType `json:"derechohabiente_type"`
}

// UserState is the sole unit of persisted conversation state, one per user
// identifier. It is a flat bag shared across flows by convention: a flow must
// never trust a field it did not itself set in the current pass, and fields
// belonging to another flow are carried forward untouched.
type UserState struct {
	UserID string `json:"user_id"`
	Flow   Flow   `json:"flow"`
	Step   Step   `json:"step"`

	// Captured once during onboarding and carried across flows.
	Name     string   `json:"name,omitempty"`
	UserType UserType `json:"user_type,omitempty"`

	// Flow-scoped transient fields.
	LoanType           LoanType   `json:"loan_type,omitempty"`
	AffiliationNumber  string     `json:"affiliation_number,omitempty"`
	Folio              string     `json:"folio,omitempty"`
	CoSigners          []CoSigner `json:"co_signers,omitempty"`
	CoSignersRequired  int        `json:"co_signers_required,omitempty"`
	CoSignersProcessed int        `json:"co_signers_processed,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultState returns the state created on first contact.
func DefaultState(userID string) UserState {
	now := time.Now()
	return UserState{
		UserID:    userID,
		Flow:      FlowWelcome,
		Step:      StepGreeting,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// MenuState returns prior with flow and step reset to the Welcome menu,
// keeping name and user type. Transient application fields are not cleared;
// callers that want them removed use ClearTransient.
func MenuState(prior UserState) UserState {
	next := prior
	next.Flow = FlowWelcome
	next.Step = StepMenu
	return next
}

// ClearTransient returns prior with all flow-scoped transient fields removed.
// Name and user type survive; they are set once and carried across flows.
func ClearTransient(prior UserState) UserState {
	next := prior
	next.LoanType = ""
	next.AffiliationNumber = ""
	next.Folio = ""
	next.CoSigners = nil
	next.CoSignersRequired = 0
	next.CoSignersProcessed = 0
	return next
}
