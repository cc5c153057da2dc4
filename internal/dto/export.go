package dto

// ExportRequest selects the schedule to render and the output format.
// Exactly one of ProposalID or Date picks the source: a pending proposal
// or the applied schedule of a date.
type ExportRequest struct {
	Format     string  `json:"format" validate:"required,oneof=csv pdf"`
	ProposalID *string `json:"proposalId,omitempty" validate:"omitempty,uuid4"`
	Date       *string `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// ExportResponse carries the signed download URL of a rendered file.
type ExportResponse struct {
	URL       string `json:"url"`
	Format    string `json:"format"`
	Filename  string `json:"filename"`
	ExpiresAt string `json:"expiresAt"`
}
