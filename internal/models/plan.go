package models

import "time"

// PlanJob is one production order of a daily plan as submitted by the
// planning system. FactQuantity tracks what has already been produced.
// Position preserves submission order.
type PlanJob struct {
	ID           string    `db:"id" json:"id"`
	JobCode      string    `db:"job_code" json:"job_code"`
	PlannedDate  time.Time `db:"planned_date" json:"planned_date"`
	Line         string    `db:"line" json:"line"`
	ProductName  string    `db:"product_name" json:"product_name"`
	ProductType  string    `db:"product_type" json:"product_type"`
	Flavor       string    `db:"product_flavor" json:"product_flavor"`
	Brand        string    `db:"brand" json:"brand"`
	VolumeLabel  string    `db:"volume_label" json:"volume_label"`
	Quantity     float64   `db:"quantity" json:"quantity"`
	FactQuantity float64   `db:"fact_quantity" json:"fact_quantity"`
	Speed        float64   `db:"speed" json:"speed"`
	Priority     *int      `db:"priority" json:"priority,omitempty"`
	Status       string    `db:"status" json:"status"`
	Position     int       `db:"position" json:"position"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// PlanFilter narrows plan listings.
type PlanFilter struct {
	Date     time.Time
	Line     string
	Page     int
	PageSize int
}
