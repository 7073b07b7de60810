package scoring

const (
	ApproveThreshold = 700
	ReviewThreshold  = 400

	highPaymentRate   = 0.4
	lowExternalRating = 0.3
	solidProfileScore = 500
)

var flagMessages = map[RiskFlag]string{
	FlagHighDebtToIncome:  "High Debt-to-Income: Installment exceeds 40% of income.",
	FlagLowExternalRating: "Low External Rating: Third-party bureaus report high risk.",
	FlagSolidProfile:      "Solid Applicant Profile: Financial indicators are stable.",
}

// DecisionFor maps a score onto its band. Lower bounds are inclusive.
func DecisionFor(score int) Decision {
	switch {
	case score >= ApproveThreshold:
		return DecisionApproved
	case score >= ReviewThreshold:
		return DecisionManualReview
	default:
		return DecisionRejected
	}
}

// Label is the human wording of the decision band.
func (d Decision) Label() string {
	switch d {
	case DecisionApproved:
		return "APPROVED (Low Risk)"
	case DecisionManualReview:
		return "MANUAL REVIEW REQUIRED (Medium Risk)"
	default:
		return "REJECTED (High Risk)"
	}
}

// RiskFlagsFor evaluates the advisory flags. They never feed the decision.
// The returned slice is always non-nil and in a fixed order.
func RiskFlagsFor(paymentRate, extScore3 float64, score int) []FlagNote {
	notes := make([]FlagNote, 0, 3)
	if paymentRate > highPaymentRate {
		notes = append(notes, note(FlagHighDebtToIncome))
	}
	if extScore3 < lowExternalRating {
		notes = append(notes, note(FlagLowExternalRating))
	}
	if score > solidProfileScore {
		notes = append(notes, note(FlagSolidProfile))
	}
	return notes
}

func (f RiskFlag) Message() string { return flagMessages[f] }

func note(f RiskFlag) FlagNote {
	return FlagNote{Flag: f, Message: f.Message()}
}
