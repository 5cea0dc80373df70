package models

import "time"

// RoomType classifies a unit by its bedroom count.
type RoomType string

const (
	RoomOpenPlan RoomType = "開放式格局"
	RoomOne      RoomType = "1房"
	RoomTwo      RoomType = "2房"
	RoomThree    RoomType = "3房"
	RoomFourPlus RoomType = "4房"
)

// RoomTypeOrder is the display order of room types.
var RoomTypeOrder = []RoomType{RoomOpenPlan, RoomOne, RoomTwo, RoomThree, RoomFourPlus}

// Transaction is one accepted pre-sale record after normalization.
// Prices are in 萬 (ten-thousand NTD) after unit correction; UnitPrice is per 坪.
type Transaction struct {
	District   string     `json:"district"`
	Project    string     `json:"name"`
	Address    string     `json:"address,omitempty"`
	DateRaw    string     `json:"date"`
	Date       *time.Time `json:"dateObj,omitempty"`
	UnitPrice  float64    `json:"price"`
	TotalPrice float64    `json:"total"`
	NetArea    float64    `json:"area"`
	Floor      string     `json:"floor"`
	RoomType   RoomType   `json:"roomType"`
	Special    bool       `json:"isSpecial"`
	Notes      string     `json:"notes,omitempty"`
	CaseObject string     `json:"caseObject"`
}

// HasDate reports whether the transaction date parsed.
func (t *Transaction) HasDate() bool { return t.Date != nil }

// NormalizedRow is what the normalizer emits for every raw record that
// passed the case-type and project-name checks. Transaction is nil when the
// row carried neither a unit price nor a total price; ParkingPrice is still
// delivered so it can attach to an existing project bucket.
type NormalizedRow struct {
	Project      string
	Transaction  *Transaction
	ParkingPrice float64
}

// DatasetStats counts what one normalization pass saw.
type DatasetStats struct {
	TotalRaw int `json:"totalRaw"`
	Presale  int `json:"presale"`
	Filtered int `json:"filtered"`
}
