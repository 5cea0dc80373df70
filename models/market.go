package models

// DistrictStat aggregates the project summaries of one district.
type DistrictStat struct {
	District     string  `json:"district"`
	AvgPrice     float64 `json:"avgPrice"`
	Transactions int     `json:"transactions"`
	Projects     int     `json:"projects"`
}

// DistrictDetail lists a district's projects, busiest first.
type DistrictDetail struct {
	District     string           `json:"district"`
	Transactions int              `json:"transactions"`
	Projects     []ProjectSummary `json:"projects"`
}

// MarketOverview holds the market-wide derivations over ranked summaries.
type MarketOverview struct {
	ProjectCount      int              `json:"projectCount"`
	TotalTransactions int              `json:"totalTransactions"`
	AvgPriceOverall   float64          `json:"avgPriceOverall"`
	Districts         []DistrictStat   `json:"districts"`
	DistrictVolume    []DistrictStat   `json:"districtVolume"`
	TopExpensive      []ProjectSummary `json:"topExpensive"`
	TopVolume         []ProjectSummary `json:"topVolume"`
	DistrictDetails   []DistrictDetail `json:"districtDetails"`
}
