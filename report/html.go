package report

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"time"

	"presale-tracker/models"
)

// Data is everything the market report renders.
type Data struct {
	Title       string
	GeneratedAt time.Time
	Stats       models.DatasetStats
	Overview    *models.MarketOverview
	Projects    []models.ProjectSummary
}

var funcs = template.FuncMap{
	"inc":   func(i int) int { return i + 1 },
	"price": func(f float64) string { return fmt.Sprintf("%.1f", f) },
	"date":  func(t time.Time) string { return t.Format("2006-01-02 15:04") },
	"bar": func(n, max int) int {
		if max <= 0 {
			return 0
		}
		return n * 100 / max
	},
	"maxVolume": func(ds []models.DistrictStat) int {
		m := 1
		for _, d := range ds {
			if d.Transactions > m {
				m = d.Transactions
			}
		}
		return m
	},
}

var reportTmpl = template.Must(template.New("report").Funcs(funcs).Parse(`<!DOCTYPE html>
<html lang="zh-Hant">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body{font-family:"Noto Sans TC","PingFang TC","Microsoft JhengHei",sans-serif;margin:24px;color:#1f2937;background:#fff}
h1{font-size:26px;margin:0 0 4px}h2{font-size:18px;margin:28px 0 10px;border-left:4px solid #2563eb;padding-left:8px}
.meta{color:#6b7280;font-size:13px}
.cards{display:flex;gap:12px;margin-top:16px}.card{flex:1;border:1px solid #e5e7eb;border-radius:10px;padding:12px}
.card b{display:block;font-size:22px}
table{border-collapse:collapse;width:100%;font-size:13px}th,td{border-bottom:1px solid #e5e7eb;padding:6px 8px;text-align:left}
th{background:#f3f4f6}.num{text-align:right}
.bar{background:#2563eb;height:10px;border-radius:4px}
.tag{display:inline-block;background:#eef2ff;border-radius:4px;padding:1px 6px;margin:1px;font-size:12px}
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<div class="meta">資料產生時間 {{date .GeneratedAt}}</div>

<div class="cards">
  <div class="card">建案數<b>{{.Overview.ProjectCount}}</b></div>
  <div class="card">成交筆數<b>{{.Overview.TotalTransactions}}</b></div>
  <div class="card">全市均價 (萬/坪)<b>{{price .Overview.AvgPriceOverall}}</b></div>
  <div class="card">原始資料 / 過濾<b>{{.Stats.TotalRaw}} / {{.Stats.Filtered}}</b></div>
</div>

<h2>各區成交量</h2>
<table>
<tr><th>行政區</th><th class="num">成交</th><th class="num">建案</th><th>分佈</th></tr>
{{- $max := maxVolume .Overview.DistrictVolume}}
{{- range .Overview.DistrictVolume}}
<tr><td>{{.District}}</td><td class="num">{{.Transactions}}</td><td class="num">{{.Projects}}</td><td><div class="bar" style="width:{{bar .Transactions $max}}%"></div></td></tr>
{{- end}}
</table>

<h2>區域行情</h2>
<table>
<tr><th>行政區</th><th class="num">均價 (萬/坪)</th><th class="num">成交</th></tr>
{{- range .Overview.Districts}}
<tr><td>{{.District}}</td><td class="num">{{price .AvgPrice}}</td><td class="num">{{.Transactions}}</td></tr>
{{- end}}
</table>

<h2>建案排行</h2>
<table>
<tr><th>#</th><th>建案</th><th>行政區</th><th class="num">成交</th><th>單價 (萬/坪)</th><th>總價 (萬)</th><th>總銷</th><th>房型</th><th>車位</th><th>特殊戶</th><th>成交期間</th></tr>
{{- range $i, $p := .Projects}}
<tr>
<td>{{inc $i}}</td><td>{{$p.Name}}<div class="meta">{{$p.Address}}</div></td><td>{{$p.District}}</td>
<td class="num">{{$p.Transactions}}</td><td>{{$p.PriceRange}}</td><td>{{$p.TotalPriceRange}}</td><td>{{$p.TotalAmount}}</td>
<td>{{range $p.RoomTypes}}<span class="tag">{{.RoomType}} {{.Count}}戶 {{.AreaRange}}</span>{{end}}</td>
<td>{{$p.Parking.Count}} / {{$p.Parking.Avg}}</td><td>{{$p.Special.Desc}}</td><td>{{$p.DateRange}}</td>
</tr>
{{- end}}
</table>

{{- range .Overview.DistrictDetails}}
<h2>{{.District}} · {{.Transactions}} 筆</h2>
<table>
<tr><th>建案</th><th class="num">成交</th><th>單價 (萬/坪)</th><th>坪數</th><th>最近成交</th></tr>
{{- range .Projects}}
<tr><td>{{.Name}}</td><td class="num">{{.Transactions}}</td><td>{{.PriceRange}}</td><td>{{.AreaRange}}</td><td>{{.LastDate}}</td></tr>
{{- end}}
</table>
{{- end}}
</body>
</html>
`))

// Render writes the HTML market report to w.
func Render(w io.Writer, d Data) error {
	if d.Overview == nil {
		d.Overview = &models.MarketOverview{}
	}
	if d.Title == "" {
		d.Title = "台北市預售屋實價登錄 市場概況"
	}
	if err := reportTmpl.Execute(w, d); err != nil {
		return fmt.Errorf("report: render html: %w", err)
	}
	return nil
}

// RenderString is Render into a string.
func RenderString(d Data) (string, error) {
	var buf bytes.Buffer
	if err := Render(&buf, d); err != nil {
		return "", err
	}
	return buf.String(), nil
}
