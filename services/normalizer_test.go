package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"presale-tracker/models"
)

func TestNormalizeUnitScaleCorrection(t *testing.T) {
	n := NewNormalizer(newTestLogger())

	tests := []struct {
		name      string
		unit      string
		total     string
		wantUnit  float64
		wantTotal float64
	}{
		{"both in NTD", "120000", "5000000", 12, 500},
		{"unit below threshold kept", "8000", "5000000", 8000, 500},
		{"already in 萬", "95.5", "3000", 95.5, 3000},
		{"total at threshold kept", "100", "1000000", 100, 1000000},
		{"unit just above threshold", "10001", "2000", 1.0001, 2000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, _ := n.Normalize([]models.RawRecord{presaleRow("A", "大安區", tt.unit, tt.total, "1121015")})
			require.Len(t, rows, 1)
			require.NotNil(t, rows[0].Transaction)
			assert.InDelta(t, tt.wantUnit, rows[0].Transaction.UnitPrice, 1e-9)
			assert.InDelta(t, tt.wantTotal, rows[0].Transaction.TotalPrice, 1e-9)
		})
	}
}

func TestNormalizeCaseTypeFilter(t *testing.T) {
	n := NewNormalizer(newTestLogger())

	sold := presaleRow("成屋案", "大安區", "800000", "20000000", "1121015")
	sold.Fields[0].Value = "成屋"
	blank := presaleRow("空白案", "大安區", "800000", "20000000", "1121015")
	blank.Fields[0].Value = "  "
	noColumn := rec("建案名稱", "無欄位案", "總價元", "20000000")

	rows, stats := n.Normalize([]models.RawRecord{sold, blank, noColumn})

	require.Len(t, rows, 2)
	assert.Equal(t, "空白案", rows[0].Project)
	assert.Equal(t, "無欄位案", rows[1].Project)
	assert.Equal(t, models.DatasetStats{TotalRaw: 3, Presale: 2, Filtered: 1}, stats)
}

func TestNormalizeEmptyNameFiltered(t *testing.T) {
	n := NewNormalizer(newTestLogger())
	rows, stats := n.Normalize([]models.RawRecord{presaleRow("", "大安區", "800000", "20000000", "1121015")})
	assert.Empty(t, rows)
	assert.Equal(t, 1, stats.Filtered)
}

func TestNormalizeNameNotTrimmed(t *testing.T) {
	n := NewNormalizer(newTestLogger())
	rows, _ := n.Normalize([]models.RawRecord{presaleRow(" 測試建案", "大安區", "800000", "20000000", "")})
	require.Len(t, rows, 1)
	assert.Equal(t, " 測試建案", rows[0].Project)
}

func TestNormalizeZeroPriceKeepsParking(t *testing.T) {
	n := NewNormalizer(newTestLogger())
	r := rec("CASE_T", "預售屋", "建案名稱", "A", "總價元", "0", "單價元坪", "", "車位總價元", "2500000")

	rows, stats := n.Normalize([]models.RawRecord{r})

	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].Transaction)
	assert.InDelta(t, 250, rows[0].ParkingPrice, 1e-9)
	assert.Equal(t, models.DatasetStats{TotalRaw: 1, Presale: 0, Filtered: 1}, stats)
}

func TestNormalizeTransactionFields(t *testing.T) {
	n := NewNormalizer(newTestLogger())
	r := rec(
		"case_t", "預售屋",
		"BUILD_NAME", "信義之星",
		"DISTRICT", "信義區",
		"LOCATION", "臺北市信義區松仁路1號",
		"UPRICE", "1200000",
		"TPRICE", "36000000",
		"FAREA", "40.5坪",
		"PAREA", "10.5",
		"TBUILD", "十二層",
		"BUILD_R", "3",
		"SDATE", "1121015",
		"RMNOTE", "含露台",
		"CASE_F", "房地(土地+建物)+車位",
	)

	rows, _ := n.Normalize([]models.RawRecord{r})
	require.Len(t, rows, 1)
	tx := rows[0].Transaction
	require.NotNil(t, tx)

	assert.Equal(t, "信義區", tx.District)
	assert.Equal(t, "臺北市信義區松仁路1號", tx.Address)
	assert.InDelta(t, 120, tx.UnitPrice, 1e-9)
	assert.InDelta(t, 3600, tx.TotalPrice, 1e-9)
	assert.InDelta(t, 30, tx.NetArea, 1e-9)
	assert.Equal(t, models.RoomThree, tx.RoomType)
	assert.True(t, tx.Special)
	require.True(t, tx.HasDate())
	assert.Equal(t, "112/10/15", FormatROCDate(*tx.Date))
	assert.Equal(t, "房地(土地+建物)+車位", tx.CaseObject)
}

func TestNormalizeNetAreaNeverNegative(t *testing.T) {
	n := NewNormalizer(newTestLogger())
	r := rec("建案名稱", "A", "總價元", "2000", "建物移轉總面積坪", "5", "車位移轉總面積坪", "8")
	rows, _ := n.Normalize([]models.RawRecord{r})
	require.Len(t, rows, 1)
	assert.Zero(t, rows[0].Transaction.NetArea)
}

func TestNormalizeBadDateDegrades(t *testing.T) {
	n := NewNormalizer(newTestLogger())
	rows, stats := n.Normalize([]models.RawRecord{presaleRow("A", "大安區", "800000", "20000000", "1121399")})
	require.Len(t, rows, 1)
	assert.False(t, rows[0].Transaction.HasDate())
	assert.Equal(t, "1121399", rows[0].Transaction.DateRaw)
	assert.Equal(t, 1, stats.Presale)
}

func TestNormalizeStatsBalance(t *testing.T) {
	n := NewNormalizer(newTestLogger())
	sold := presaleRow("B", "大安區", "800000", "20000000", "")
	sold.Fields[0].Value = "成屋"
	raw := []models.RawRecord{
		presaleRow("A", "大安區", "800000", "20000000", ""),
		sold,
		presaleRow("", "大安區", "800000", "20000000", ""),
		rec("建案名稱", "C"),
	}
	_, stats := n.Normalize(raw)
	assert.Equal(t, len(raw), stats.TotalRaw)
	assert.Equal(t, stats.TotalRaw, stats.Presale+stats.Filtered)
	assert.Equal(t, 1, stats.Presale)
}

func TestClassifyRoomType(t *testing.T) {
	tests := []struct {
		in   string
		want models.RoomType
	}{
		{"", models.RoomOpenPlan},
		{"0", models.RoomOpenPlan},
		{"-1", models.RoomOpenPlan},
		{"abc", models.RoomOpenPlan},
		{"1", models.RoomOne},
		{" 2 ", models.RoomTwo},
		{"3房", models.RoomThree},
		{"4", models.RoomFourPlus},
		{"7", models.RoomFourPlus},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyRoomType(tt.in), "ClassifyRoomType(%q)", tt.in)
	}
}

func TestIsSpecialUnit(t *testing.T) {
	tests := []struct {
		floor, notes string
		want         bool
	}{
		{"1", "", true},
		{"一層", "", true},
		{"五層", "", false},
		{"五層", "含露台", true},
		{"五層", "特殊交易", true},
		{"10", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsSpecialUnit(tt.floor, tt.notes), "IsSpecialUnit(%q, %q)", tt.floor, tt.notes)
	}
}

func TestParseLeadingFloat(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"12.5坪", 12.5},
		{" 42 ", 42},
		{"", 0},
		{"abc", 0},
		{".5", 0.5},
		{"1e3", 1000},
		{"-3", -3},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, parseLeadingFloat(tt.in), 1e-9, "parseLeadingFloat(%q)", tt.in)
	}
}
