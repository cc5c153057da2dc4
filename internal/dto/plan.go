package dto

// PlanJobRequest is one order row of a daily plan submission.
type PlanJobRequest struct {
	JobCode      string  `json:"jobCode" validate:"required"`
	Line         string  `json:"line" validate:"required"`
	ProductName  string  `json:"productName" validate:"required"`
	ProductType  string  `json:"productType"`
	Flavor       string  `json:"flavor"`
	Brand        string  `json:"brand"`
	Volume       string  `json:"volume"`
	Quantity     float64 `json:"quantity" validate:"required,gt=0"`
	FactQuantity float64 `json:"factQuantity" validate:"omitempty,gte=0"`
	Speed        float64 `json:"speed" validate:"omitempty,gt=0"`
	Priority     *int    `json:"priority" validate:"omitempty,min=0"`
	Status       string  `json:"status"`
}

// ReplacePlanRequest replaces the whole plan of one date.
type ReplacePlanRequest struct {
	Date string           `json:"date" validate:"required,datetime=2006-01-02"`
	Jobs []PlanJobRequest `json:"jobs" validate:"required,min=1,dive"`
}

// PlanJobResponse mirrors a stored plan row.
type PlanJobResponse struct {
	ID           string  `json:"id"`
	JobCode      string  `json:"jobCode"`
	Line         string  `json:"line"`
	ProductName  string  `json:"productName"`
	ProductType  string  `json:"productType,omitempty"`
	Flavor       string  `json:"flavor,omitempty"`
	Brand        string  `json:"brand,omitempty"`
	Volume       string  `json:"volume,omitempty"`
	Quantity     float64 `json:"quantity"`
	FactQuantity float64 `json:"factQuantity"`
	Speed        float64 `json:"speed,omitempty"`
	Priority     *int    `json:"priority,omitempty"`
	Status       string  `json:"status,omitempty"`
}

// PlanResponse returns the plan of one date.
type PlanResponse struct {
	Date    string            `json:"date"`
	Jobs    []PlanJobResponse `json:"jobs"`
	Total   int               `json:"total"`
	Skipped int               `json:"skipped,omitempty"`
}
