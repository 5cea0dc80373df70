package models

import "time"

const (
	UnknownDistrict = "未知區域"
	UnknownAddress  = "位置未詳"
)

// RoomStats accumulates the transactions of one room type within a project.
type RoomStats struct {
	Count      int
	Areas      []float64
	UnitPrices []float64
	Totals     []float64
}

// ParkingStats accumulates parking-space prices within a project.
type ParkingStats struct {
	Count  int
	Prices []float64
}

// ProjectAccumulator is the running state of one project while folding.
// District and Address are taken from the first transaction seen.
type ProjectAccumulator struct {
	Name          string
	District      string
	Address       string
	Transactions  int
	UnitPrices    []float64
	TotalPrices   []float64
	Areas         []float64
	Dates         []string
	ParsedDates   []time.Time
	Rooms         map[RoomType]*RoomStats
	Parking       ParkingStats
	SpecialCount  int
	TotalPriceSum float64
}

// ParkingSummary is the display form of a project's parking stats.
type ParkingSummary struct {
	Count int    `json:"count"`
	Avg   string `json:"avg"`
	Range string `json:"range"`
}

// SpecialSummary is the display form of a project's special-unit count.
type SpecialSummary struct {
	Count int    `json:"count"`
	Desc  string `json:"desc"`
}

// RoomSummary is the display form of one room type within a project.
type RoomSummary struct {
	RoomType       RoomType `json:"roomType"`
	Count          int      `json:"count"`
	AreaRange      string   `json:"areaRange"`
	TotalRange     string   `json:"totalRange"`
	UnitPriceRange string   `json:"unitPriceRange"`
}

// ProjectSummary is the finalized, display-ready view of one project.
type ProjectSummary struct {
	Name            string         `json:"name"`
	District        string         `json:"district"`
	Address         string         `json:"address"`
	Transactions    int            `json:"transactions"`
	PriceRange      string         `json:"priceRange"`
	AvgPriceNum     float64        `json:"avgPriceNum"`
	TotalAmount     string         `json:"totalAmount"`
	RawTotalAmount  float64        `json:"rawTotalAmount"`
	AreaRange       string         `json:"areaRange"`
	TotalPriceRange string         `json:"totalPriceRange"`
	RoomTypes       []RoomSummary  `json:"roomTypes"`
	Parking         ParkingSummary `json:"parking"`
	Special         SpecialSummary `json:"special"`
	DateRange       string         `json:"dateRange"`
	LastDate        string         `json:"lastDate"`
}

// Room returns the summary for roomType, if the project has one.
func (p *ProjectSummary) Room(roomType RoomType) (RoomSummary, bool) {
	for _, r := range p.RoomTypes {
		if r.RoomType == roomType {
			return r, true
		}
	}
	return RoomSummary{}, false
}

// AggregationResult is the complete output of one pipeline run.
type AggregationResult struct {
	RunID        string           `json:"runId"`
	Source       string           `json:"source"`
	GeneratedAt  time.Time        `json:"generatedAt"`
	Stats        DatasetStats     `json:"stats"`
	Projects     []ProjectSummary `json:"grouped"`
	Transactions []Transaction    `json:"latest"`
}
