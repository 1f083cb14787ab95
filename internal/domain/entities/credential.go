package entities

// AccessCredential is a derived daily access code. It is never stored;
// verification recomputes it from the same inputs.
type AccessCredential struct {
	Code     string   `json:"code"` // BaseCode followed by Suffix
	BaseCode string   `json:"base_code"`
	Suffix   string   `json:"suffix"`
	Email    string   `json:"email"` // normalized
	Date     string   `json:"date"`  // YYYY-MM-DD
	ExamType ExamType `json:"exam_type"`
}
