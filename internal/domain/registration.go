package domain

// RegistrationFields are the visitor-submitted fields stashed while an
// external verification transaction is in flight. The verifier does not echo
// them back on completion, so they are kept under the transaction id and
// consumed exactly once when the transaction completes.
type RegistrationFields struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Company string `json:"company"`
	Phone   string `json:"phone"`
}
