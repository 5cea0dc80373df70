package report

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"presale-tracker/models"
	"presale-tracker/utils"
)

func sampleData() Data {
	projects := []models.ProjectSummary{
		{Name: "信義之星", District: "信義區", Transactions: 12, PriceRange: "140.0 - 160.0", AvgPriceNum: 150,
			RoomTypes: []models.RoomSummary{{RoomType: models.RoomTwo, Count: 12, AreaRange: "20.0-30.0坪"}}},
		{Name: "<script>x</script>", District: "大安區", Transactions: 3, PriceRange: "120.0"},
	}
	return Data{
		GeneratedAt: time.Date(2024, time.March, 6, 12, 0, 0, 0, time.UTC),
		Stats:       models.DatasetStats{TotalRaw: 20, Presale: 15, Filtered: 5},
		Overview: &models.MarketOverview{
			ProjectCount: 2, TotalTransactions: 15, AvgPriceOverall: 135,
			Districts:      []models.DistrictStat{{District: "信義區", AvgPrice: 150, Transactions: 12}},
			DistrictVolume: []models.DistrictStat{{District: "信義區", Transactions: 12}, {District: "大安區", Transactions: 3}},
			DistrictDetails: []models.DistrictDetail{
				{District: "信義區", Transactions: 12, Projects: projects[:1]},
			},
		},
		Projects: projects,
	}
}

func TestRenderIncludesSections(t *testing.T) {
	html, err := RenderString(sampleData())
	require.NoError(t, err)

	assert.Contains(t, html, "台北市預售屋實價登錄 市場概況")
	assert.Contains(t, html, "2024-03-06 12:00")
	assert.Contains(t, html, "信義之星")
	assert.Contains(t, html, "135.0")
	assert.Contains(t, html, "2房 12戶 20.0-30.0坪")
	assert.Contains(t, html, "width:100%")
	assert.Contains(t, html, "width:25%")
	assert.Contains(t, html, "信義區 · 12 筆")
}

func TestRenderEscapesNames(t *testing.T) {
	html, err := RenderString(sampleData())
	require.NoError(t, err)
	assert.NotContains(t, html, "<script>x</script>")
	assert.Contains(t, html, "&lt;script&gt;")
}

func TestRenderNilOverview(t *testing.T) {
	html, err := RenderString(Data{Title: "空白"})
	require.NoError(t, err)
	assert.Contains(t, html, "<title>空白</title>")
}

func TestDataURL(t *testing.T) {
	u := dataURL("<p>台北</p>")
	require.True(t, strings.HasPrefix(u, "data:text/html;charset=utf-8;base64,"))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(u, "data:text/html;charset=utf-8;base64,"))
	require.NoError(t, err)
	assert.Equal(t, "<p>台北</p>", string(raw))
}

func TestNewSnapshotterKeepsExplicitBinary(t *testing.T) {
	s := NewSnapshotter(utils.NopLogger(), "/opt/chrome", 1200)
	assert.Equal(t, "/opt/chrome", s.chromeBin)
	assert.Equal(t, 1200, s.width)
}
