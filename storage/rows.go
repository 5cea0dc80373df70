package storage

import (
	"strconv"
	"strings"

	"presale-tracker/models"
	"presale-tracker/services"
)

var projectHeader = []string{
	"排名", "建案名稱", "行政區", "地址", "成交筆數", "單價區間(萬/坪)", "均價(萬/坪)",
	"總價區間(萬)", "總銷金額", "坪數區間", "房型", "車位數", "車位均價(萬)", "車位價格區間(萬)",
	"特殊戶", "成交期間",
}

var transactionHeader = []string{
	"交易日期", "建案名稱", "行政區", "地址", "單價(萬/坪)", "總價(萬)", "坪數", "樓層", "房型", "特殊戶", "交易標的", "備註",
}

// projectCells returns one summary row; numeric columns stay numeric.
func projectCells(rank int, p models.ProjectSummary) []any {
	return []any{
		rank, p.Name, p.District, p.Address, p.Transactions, p.PriceRange, p.AvgPriceNum,
		p.TotalPriceRange, p.TotalAmount, p.AreaRange, roomTypes(p), p.Parking.Count, p.Parking.Avg, p.Parking.Range,
		p.Special.Desc, p.DateRange,
	}
}

func transactionCells(t models.Transaction) []any {
	date := t.DateRaw
	if t.Date != nil {
		date = services.FormatROCDate(*t.Date)
	}
	special := ""
	if t.Special {
		special = "是"
	}
	return []any{
		date, t.Project, t.District, t.Address, t.UnitPrice, t.TotalPrice, t.NetArea, t.Floor,
		string(t.RoomType), special, t.CaseObject, t.Notes,
	}
}

func roomTypes(p models.ProjectSummary) string {
	parts := make([]string, len(p.RoomTypes))
	for i, r := range p.RoomTypes {
		parts[i] = string(r.RoomType) + "×" + strconv.Itoa(r.Count)
	}
	return strings.Join(parts, " ")
}

// stringify renders cells for text sinks.
func stringify(cells []any) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		switch v := c.(type) {
		case string:
			out[i] = v
		case int:
			out[i] = strconv.Itoa(v)
		case float64:
			out[i] = strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return out
}
