package model

// PhysicalMeasurements uniform sizes, all optional (table physical_measurements)
type PhysicalMeasurements struct {
	MeasurementID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"measurement_id"`
	CandidateID   string `gorm:"type:uuid;not null;uniqueIndex"                 json:"candidate_id"`
	Height        *int   `json:"height,omitempty"`
	Weight        *int   `json:"weight,omitempty"`
	HeadSize      *int   `json:"head_size,omitempty"`
	NeckSize      *int   `json:"neck_size,omitempty"`
	ChestSize     *int   `json:"chest_size,omitempty"`
	WaistSize     *int   `json:"waist_size,omitempty"`
	BustHeight    *int   `json:"bust_height,omitempty"`
	Inseam        *int   `json:"inseam,omitempty"`
	ShoeSize      *int   `json:"shoe_size,omitempty"`
	BaseModel
}

// TableName table name
func (PhysicalMeasurements) TableName() string { return "physical_measurements" }
