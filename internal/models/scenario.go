package models

// Scenario is the four-way (or unknown) classification of
// (derechohabienteType, loanType, tenure) for a loan application.
type Scenario string

const (
	ScenarioPensionerShortTerm      Scenario = "PENSIONER_SHORT_TERM"
	ScenarioPensionerMediumTerm     Scenario = "PENSIONER_MEDIUM_TERM"
	ScenarioActiveShortTermNoAval   Scenario = "ACTIVE_SHORT_TERM_NO_AVAL"
	ScenarioActiveShortTermWithAval Scenario = "ACTIVE_SHORT_TERM_WITH_AVAL"
	ScenarioUnknown                 Scenario = "UNKNOWN"
)

// MinTenureHalfMonthsNoAval is the tenure threshold (in half-month units,
// 240 = 10 years) above which an active employee needs no co-signer for a
// short-term loan.
const MinTenureHalfMonthsNoAval = 240

// ClassifyScenario is a pure function of the resolved derechohabiente type,
// the selected loan type and the tenure in half-month units.
//
// (ActiveEmployee, MediumTerm) has no defined scenario and classifies as
// ScenarioUnknown; callers route it to the manual-entry fallback.
func ClassifyScenario(dt DerechohabienteType, lt LoanType, tenureHalfMonths int) Scenario {
	switch {
	case dt == DerechohabientePensioner && lt == LoanTypeShortTerm:
		return ScenarioPensionerShortTerm
	case dt == DerechohabientePensioner && lt == LoanTypeMediumTerm:
		return ScenarioPensionerMediumTerm
	case dt == DerechohabienteActive && lt == LoanTypeShortTerm:
		if tenureHalfMonths >= MinTenureHalfMonthsNoAval {
			return ScenarioActiveShortTermNoAval
		}
		return ScenarioActiveShortTermWithAval
	default:
		return ScenarioUnknown
	}
}

// CoSignersForScenario returns the number of co-signers a scenario requires.
// For ScenarioPensionerMediumTerm the count is user-supplied (1-3); this
// returns the minimum. ScenarioUnknown requires none.
func CoSignersForScenario(s Scenario) int {
	switch s {
	case ScenarioActiveShortTermWithAval:
		return 1
	case ScenarioPensionerMediumTerm:
		return 1
	default:
		return 0
	}
}
