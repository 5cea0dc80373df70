package services

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"presale-tracker/models"
	"presale-tracker/utils"
)

const (
	// presaleMarker must appear in the case-type column for a row to be kept
	presaleMarker = "預售"

	unitPriceScaleThreshold  = 10000
	totalPriceScaleThreshold = 1000000
	parkingScaleThreshold    = 10000
	scaleDivisor             = 10000
)

var (
	// leadingFloatRegexp captures the numeric prefix of a cell, "12.5坪" -> "12.5"
	leadingFloatRegexp = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?`)
	// leadingIntRegexp captures the integer prefix of a cell, "3房" -> "3"
	leadingIntRegexp = regexp.MustCompile(`^[+-]?\d+`)

	groundFloorMarkers = []string{"一"}
	specialNoteMarkers = []string{"露台", "特殊"}
)

// Normalizer turns raw feed records into normalized rows and counts what it
// accepted and dropped.
type Normalizer struct {
	logger *utils.Logger
}

// NewNormalizer creates a Normalizer with the given logger.
func NewNormalizer(logger *utils.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// Normalize processes raw records in order. Rows with a non-pre-sale case type
// or no project name are dropped. Rows without any price are counted as
// filtered but still returned (with a nil Transaction) so their parking price
// can attach to a project that already exists.
func (n *Normalizer) Normalize(raw []models.RawRecord) ([]models.NormalizedRow, models.DatasetStats) {
	stats := models.DatasetStats{TotalRaw: len(raw)}
	rows := make([]models.NormalizedRow, 0, len(raw))

	for i, r := range raw {
		row, ok := n.normalizeRecord(r)
		if !ok {
			stats.Filtered++
			continue
		}
		if row.Transaction == nil {
			stats.Filtered++
			n.logger.Debug("[normalizer] Row %d of %q has no price, kept for parking only", i+1, row.Project)
		} else {
			stats.Presale++
		}
		rows = append(rows, row)
	}

	n.logger.Info("[normalizer] Normalized %d → %d pre-sale transactions (filtered %d)",
		stats.TotalRaw, stats.Presale, stats.Filtered)
	return rows, stats
}

func (n *Normalizer) normalizeRecord(r models.RawRecord) (models.NormalizedRow, bool) {
	caseType := strings.TrimSpace(ResolveString(r, FieldCaseType))
	if caseType != "" && !strings.Contains(caseType, presaleMarker) {
		return models.NormalizedRow{}, false
	}

	name := ResolveString(r, FieldProjectName)
	if name == "" {
		return models.NormalizedRow{}, false
	}

	unitPrice := parseLeadingFloat(ResolveString(r, FieldUnitPrice))
	totalPrice := parseLeadingFloat(ResolveString(r, FieldTotalPrice))
	transferArea := parseLeadingFloat(ResolveString(r, FieldTransferArea))
	parkingArea := parseLeadingFloat(ResolveString(r, FieldParkingArea))
	parkingPrice := parseLeadingFloat(ResolveString(r, FieldParkingPrice))

	unitPrice = rescale(unitPrice, unitPriceScaleThreshold)
	totalPrice = rescale(totalPrice, totalPriceScaleThreshold)
	parkingPrice = rescale(parkingPrice, parkingScaleThreshold)

	row := models.NormalizedRow{Project: name, ParkingPrice: parkingPrice}
	if totalPrice <= 0 && unitPrice <= 0 {
		return row, true
	}

	floor := ResolveString(r, FieldFloor)
	notes := ResolveString(r, FieldNotes)
	dateRaw := ResolveString(r, FieldDate)

	tx := &models.Transaction{
		District:   ResolveString(r, FieldDistrict),
		Project:    name,
		Address:    ResolveString(r, FieldAddress),
		DateRaw:    dateRaw,
		UnitPrice:  unitPrice,
		TotalPrice: totalPrice,
		NetArea:    math.Max(0, transferArea-parkingArea),
		Floor:      floor,
		RoomType:   ClassifyRoomType(ResolveString(r, FieldRoomCount)),
		Special:    IsSpecialUnit(floor, notes),
		Notes:      notes,
		CaseObject: ResolveString(r, FieldCaseObject),
	}
	if dateRaw != "" {
		if d, ok := ParseROCDate(dateRaw); ok {
			tx.Date = &d
		} else {
			n.logger.Debug("[normalizer] Unparseable date %q for %q", dateRaw, name)
		}
	}

	row.Transaction = tx
	return row, true
}

// ClassifyRoomType maps a bedroom-count cell to a RoomType. Anything that is
// not a positive integer is an open-plan unit.
func ClassifyRoomType(roomCount string) models.RoomType {
	match := leadingIntRegexp.FindString(strings.TrimSpace(roomCount))
	count, err := strconv.Atoi(match)
	if err != nil || count <= 0 {
		return models.RoomOpenPlan
	}
	switch count {
	case 1:
		return models.RoomOne
	case 2:
		return models.RoomTwo
	case 3:
		return models.RoomThree
	default:
		return models.RoomFourPlus
	}
}

// IsSpecialUnit reports whether a unit is on the ground floor or carries a
// terrace/special note.
func IsSpecialUnit(floor, notes string) bool {
	if floor == "1" {
		return true
	}
	for _, m := range groundFloorMarkers {
		if strings.Contains(floor, m) {
			return true
		}
	}
	for _, m := range specialNoteMarkers {
		if strings.Contains(notes, m) {
			return true
		}
	}
	return false
}

// rescale converts a value reported in NTD to 萬 when it exceeds threshold.
// Values at or below the threshold are left alone, plausible or not.
func rescale(v, threshold float64) float64 {
	if v > threshold {
		return v / scaleDivisor
	}
	return v
}

// parseLeadingFloat reads the numeric prefix of s; anything unparseable is 0.
func parseLeadingFloat(s string) float64 {
	match := leadingFloatRegexp.FindString(strings.TrimSpace(s))
	if match == "" {
		return 0
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
