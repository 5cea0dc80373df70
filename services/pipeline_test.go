package services

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/transform"

	"presale-tracker/models"
)

const sampleFeed = `CASE_T,建案名稱,行政區,土地區段位置建物區段門牌,單價元坪,總價元,建物移轉總面積坪,車位移轉總面積坪,車位總價元,交易樓層,建物現況格局-房,交易年月日,備註
預售屋,信義之星,信義區,臺北市信義區松仁路1號,1500000,45000000,40,10,3000000,十二層,3,1121015,
預售屋,信義之星,信義區,臺北市信義區松仁路1號,1400000,"42,000,000",40,10,,五層,3,1120601,
預售屋,大安首府,大安區,臺北市大安區敦化南路2號,1300000,26000000,20,0,,一層,1,1121101,含露台
成屋,老公寓,中山區,臺北市中山區南京東路3號,800000,16000000,20,0,,三層,2,1121001,
預售屋,,大安區,,1000000,20000000,20,0,,三層,2,1121001,
`

func TestPipelineRunText(t *testing.T) {
	p := NewPipeline(newTestLogger())
	res, err := p.RunText(sampleFeed, "test")
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, "test", res.Source)
	assert.Equal(t, models.DatasetStats{TotalRaw: 5, Presale: 3, Filtered: 2}, res.Stats)

	require.Len(t, res.Projects, 2)
	first := res.Projects[0]
	assert.Equal(t, "信義之星", first.Name)
	assert.Equal(t, 2, first.Transactions)
	assert.Equal(t, "140.0 - 150.0", first.PriceRange)
	assert.Equal(t, "0億4542萬", first.TotalAmount, "quoted 42,000,000 parses only its leading 42")
	assert.Equal(t, "42 - 4500", first.TotalPriceRange)
	assert.Equal(t, "112/06/01 - 112/10/15", first.DateRange)
	assert.Equal(t, models.ParkingSummary{Count: 1, Avg: "300", Range: "300"}, first.Parking)

	second := res.Projects[1]
	assert.Equal(t, "大安首府", second.Name)
	assert.Equal(t, "1戶", second.Special.Desc)

	require.Len(t, res.Transactions, 3)
	assert.Equal(t, "大安首府", res.Transactions[0].Project)
	assert.Equal(t, "1120601", res.Transactions[2].DateRaw)
}

func TestPipelineRunBytesBig5(t *testing.T) {
	big5, _, err := transform.Bytes(traditionalchinese.Big5.NewEncoder(), []byte(sampleFeed))
	require.NoError(t, err)

	res, err := NewPipeline(newTestLogger()).RunBytes(big5, "upload")
	require.NoError(t, err)
	require.Len(t, res.Projects, 2)
	assert.Equal(t, "信義之星", res.Projects[0].Name)
}

func TestPipelineNotCSV(t *testing.T) {
	res, err := NewPipeline(newTestLogger()).RunText("<html>maintenance</html>", "api")
	assert.ErrorIs(t, err, ErrNotCSV)
	require.NotNil(t, res)
	assert.Empty(t, res.Projects)
}

func TestPipelineNoRecordsIsNotAnError(t *testing.T) {
	res, err := NewPipeline(newTestLogger()).RunText("a,b", "api")
	require.NoError(t, err)
	assert.Empty(t, res.Projects)
	assert.Empty(t, res.Transactions)
}

func TestPipelineEmptyResultCarriesFirstRecord(t *testing.T) {
	text := "CASE_T,建案名稱\n成屋,老公寓\n成屋,新公寓\n"
	res, err := NewPipeline(newTestLogger()).RunText(text, "upload")

	var empty *EmptyResultError
	require.True(t, errors.As(err, &empty))
	assert.Equal(t, 2, empty.Total)
	assert.Contains(t, err.Error(), `"建案名稱": "老公寓"`)

	require.NotNil(t, res)
	assert.Equal(t, models.DatasetStats{TotalRaw: 2, Filtered: 2}, res.Stats)
}

func TestPipelineIdempotent(t *testing.T) {
	p := NewPipeline(newTestLogger())
	records := ParseCSV(sampleFeed)

	a, err := p.RunRecords(records, "x")
	require.NoError(t, err)
	b, err := p.RunRecords(records, "x")
	require.NoError(t, err)

	assert.Equal(t, a.Stats, b.Stats)
	assert.Equal(t, a.Projects, b.Projects)
	assert.Equal(t, a.Transactions, b.Transactions)
}

func TestPipelineErrorDump(t *testing.T) {
	first := rec("建案名稱", "A")
	err := &PipelineError{Cause: errors.New("boom"), First: &first}

	assert.True(t, strings.HasPrefix(err.Error(), "pipeline failed: boom"))
	assert.Contains(t, err.Error(), `"建案名稱": "A"`)
	assert.EqualError(t, errors.Unwrap(err), "boom")

	noErr := &PipelineError{Cause: "string panic"}
	assert.Nil(t, noErr.Unwrap())
}
