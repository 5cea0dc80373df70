package services

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"presale-tracker/models"
)

const noValue = "-"

// Summarize finalizes one accumulator into its display-ready summary.
func Summarize(acc *models.ProjectAccumulator) models.ProjectSummary {
	s := models.ProjectSummary{
		Name:           acc.Name,
		District:       acc.District,
		Address:        acc.Address,
		Transactions:   acc.Transactions,
		RawTotalAmount: acc.TotalPriceSum,
		TotalAmount:    FormatTotalAmount(acc.TotalPriceSum),
	}

	s.PriceRange = formatSpan(acc.UnitPrices, 1, " - ", "0")
	if len(acc.UnitPrices) > 0 {
		s.AvgPriceNum = round1(mean(acc.UnitPrices))
	}
	s.AreaRange = formatSpan(acc.Areas, 2, " - ", "0")
	s.TotalPriceRange = formatSpan(acc.TotalPrices, 0, " - ", "0")

	for _, rt := range models.RoomTypeOrder {
		rs, ok := acc.Rooms[rt]
		if !ok {
			continue
		}
		s.RoomTypes = append(s.RoomTypes, summarizeRoom(rt, rs))
	}

	s.Parking = summarizeParking(acc.Parking)

	s.Special = models.SpecialSummary{Count: acc.SpecialCount, Desc: noValue}
	if acc.SpecialCount > 0 {
		s.Special.Desc = fmt.Sprintf("%d戶", acc.SpecialCount)
	}

	s.DateRange, s.LastDate = dateRange(acc.ParsedDates, acc.Dates)
	return s
}

// SummarizeAll finalizes every accumulator and returns them ranked.
func SummarizeAll(accs []*models.ProjectAccumulator) []models.ProjectSummary {
	out := make([]models.ProjectSummary, 0, len(accs))
	for _, acc := range accs {
		out = append(out, Summarize(acc))
	}
	RankProjects(out)
	return out
}

// RankProjects orders summaries by transaction count, then raw total amount,
// both descending. Equal projects keep their relative order.
func RankProjects(s []models.ProjectSummary) {
	sort.SliceStable(s, func(i, j int) bool {
		if s[i].Transactions != s[j].Transactions {
			return s[i].Transactions > s[j].Transactions
		}
		return s[i].RawTotalAmount > s[j].RawTotalAmount
	})
}

// SortTransactions orders the feed newest first; undated transactions go last.
func SortTransactions(txs []models.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		a, b := txs[i].Date, txs[j].Date
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
}

// FormatTotalAmount splits a sum in 萬 into 億 and the remaining 萬,
// e.g. 25000 -> "2億5000萬".
func FormatTotalAmount(sum float64) string {
	yi := math.Floor(sum / 10000)
	wan := math.Round(sum - yi*10000)
	if wan >= 10000 {
		yi++
		wan -= 10000
	}
	return fmt.Sprintf("%.0f億%.0f萬", yi, wan)
}

func summarizeRoom(rt models.RoomType, rs *models.RoomStats) models.RoomSummary {
	return models.RoomSummary{
		RoomType:       rt,
		Count:          rs.Count,
		AreaRange:      formatSpan(rs.Areas, 1, "-", "0.0") + "坪",
		TotalRange:     formatSpan(rs.Totals, 0, "-", "0") + "萬",
		UnitPriceRange: formatSpan(rs.UnitPrices, 1, "-", "0.0") + "萬",
	}
}

func summarizeParking(p models.ParkingStats) models.ParkingSummary {
	out := models.ParkingSummary{Count: p.Count, Avg: noValue, Range: noValue}
	if len(p.Prices) == 0 {
		return out
	}
	if avg := math.Round(mean(p.Prices)); avg != 0 {
		out.Avg = strconv.FormatFloat(avg, 'f', 0, 64)
	}
	lo, hi := minMax(p.Prices)
	if lo != 0 {
		out.Range = collapse(formatNumber(lo), formatNumber(hi), "-")
	}
	return out
}

// dateRange prefers the parsed dates; with none it falls back to sorting the
// raw strings lexically. The second value is the latest parsed date.
func dateRange(parsed []time.Time, raw []string) (string, string) {
	if len(parsed) > 0 {
		dates := make([]time.Time, len(parsed))
		copy(dates, parsed)
		sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

		start := FormatROCDate(dates[0])
		end := FormatROCDate(dates[len(dates)-1])
		return collapse(start, end, " - "), end
	}

	if len(raw) == 0 {
		return noValue, noValue
	}
	strs := make([]string, len(raw))
	copy(strs, raw)
	sort.Strings(strs)
	return collapse(strs[0], strs[len(strs)-1], " - "), noValue
}

// formatSpan renders min and max of vals with prec decimals, collapsing to a
// single value when they format the same. Empty input renders as empty.
func formatSpan(vals []float64, prec int, sep, empty string) string {
	if len(vals) == 0 {
		return empty
	}
	lo, hi := minMax(vals)
	return collapse(toFixed(lo, prec), toFixed(hi, prec), sep)
}

func collapse(lo, hi, sep string) string {
	if lo == hi {
		return lo
	}
	return lo + sep + hi
}

func minMax(vals []float64) (float64, float64) {
	lo, hi := vals[0], vals[0]
	for _, v := range vals[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

func mean(vals []float64) float64 {
	var total float64
	for _, v := range vals {
		total += v
	}
	return total / float64(len(vals))
}

func toFixed(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}
