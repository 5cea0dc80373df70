package services

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"presale-tracker/models"
	"presale-tracker/utils"
)

// topN is the length of the price and volume leaderboards.
const topN = 3

// MarketService derives market-wide views from ranked project summaries.
type MarketService struct {
	logger *utils.Logger
}

// NewMarketService creates a MarketService.
func NewMarketService(logger *utils.Logger) *MarketService {
	return &MarketService{logger: logger}
}

// Overview computes the overview of projects. The input is not modified.
func (s *MarketService) Overview(projects []models.ProjectSummary) *models.MarketOverview {
	o := &models.MarketOverview{ProjectCount: len(projects)}
	if len(projects) == 0 {
		s.logger.Warn("[market] No projects to summarize")
		return o
	}

	type districtAcc struct {
		priceSum     float64
		transactions int
		projects     []models.ProjectSummary
	}
	byDistrict := make(map[string]*districtAcc)
	var order []string

	var priceSum float64
	for _, p := range projects {
		o.TotalTransactions += p.Transactions
		priceSum += p.AvgPriceNum

		d, ok := byDistrict[p.District]
		if !ok {
			d = &districtAcc{}
			byDistrict[p.District] = d
			order = append(order, p.District)
		}
		d.priceSum += p.AvgPriceNum
		d.transactions += p.Transactions
		d.projects = append(d.projects, p)
	}
	o.AvgPriceOverall = round1(priceSum / float64(len(projects)))

	for _, name := range order {
		d := byDistrict[name]
		stat := models.DistrictStat{
			District:     name,
			AvgPrice:     round1(d.priceSum / float64(len(d.projects))),
			Transactions: d.transactions,
			Projects:     len(d.projects),
		}
		o.Districts = append(o.Districts, stat)

		detail := models.DistrictDetail{
			District:     name,
			Transactions: d.transactions,
			Projects:     d.projects,
		}
		sortByVolume(detail.Projects)
		o.DistrictDetails = append(o.DistrictDetails, detail)
	}

	o.DistrictVolume = append([]models.DistrictStat(nil), o.Districts...)
	sort.SliceStable(o.Districts, func(i, j int) bool {
		return o.Districts[i].AvgPrice > o.Districts[j].AvgPrice
	})
	sort.SliceStable(o.DistrictVolume, func(i, j int) bool {
		return o.DistrictVolume[i].Transactions > o.DistrictVolume[j].Transactions
	})
	sort.SliceStable(o.DistrictDetails, func(i, j int) bool {
		return o.DistrictDetails[i].Transactions > o.DistrictDetails[j].Transactions
	})

	o.TopExpensive = TopByPrice(projects, topN)
	o.TopVolume = TopByVolume(projects, topN)

	s.logger.Info("[market] Overview: %d projects, %d transactions, %d districts, avg %.1f萬/坪",
		o.ProjectCount, o.TotalTransactions, len(o.Districts), o.AvgPriceOverall)
	return o
}

// TopByPrice returns up to n projects with the highest average unit price.
func TopByPrice(projects []models.ProjectSummary, n int) []models.ProjectSummary {
	out := append([]models.ProjectSummary(nil), projects...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].AvgPriceNum > out[j].AvgPriceNum })
	return head(out, n)
}

// TopByVolume returns up to n projects with the most transactions.
func TopByVolume(projects []models.ProjectSummary, n int) []models.ProjectSummary {
	out := append([]models.ProjectSummary(nil), projects...)
	sortByVolume(out)
	return head(out, n)
}

func sortByVolume(p []models.ProjectSummary) {
	sort.SliceStable(p, func(i, j int) bool { return p[i].Transactions > p[j].Transactions })
}

func head[T any](s []T, n int) []T {
	if n >= 0 && len(s) > n {
		return s[:n]
	}
	return s
}

// SearchProjects keeps the projects whose name, district or address contains
// term. An empty term keeps everything.
func SearchProjects(projects []models.ProjectSummary, term string) []models.ProjectSummary {
	if term == "" {
		return append([]models.ProjectSummary(nil), projects...)
	}
	var out []models.ProjectSummary
	for _, p := range projects {
		if strings.Contains(p.Name, term) || strings.Contains(p.District, term) || strings.Contains(p.Address, term) {
			out = append(out, p)
		}
	}
	return out
}

// SearchTransactions keeps the transactions whose project name or district
// contains term. An empty term keeps everything.
func SearchTransactions(txs []models.Transaction, term string) []models.Transaction {
	if term == "" {
		return append([]models.Transaction(nil), txs...)
	}
	var out []models.Transaction
	for _, t := range txs {
		if strings.Contains(t.Project, term) || strings.Contains(t.District, term) {
			out = append(out, t)
		}
	}
	return out
}

// BuildAnalysisPrompt renders the analyst prompt handed to the narrative
// model. It is plain text in Traditional Chinese.
func BuildAnalysisPrompt(o *models.MarketOverview) string {
	var b strings.Builder

	b.WriteString("請扮演專業房產數據分析師，根據以下【台北市預售屋實價登錄數據】，提供一份**精簡、客觀、條列式**的重點分析。\n\n")
	b.WriteString("**原則：精簡扼要、事實導向、不說廢話、只講重點。**\n\n")

	b.WriteString("【數據摘要】\n")
	fmt.Fprintf(&b, "- 總樣本：%d 案 (共 %d 筆成交)\n", o.ProjectCount, o.TotalTransactions)
	fmt.Fprintf(&b, "- 全市均價：%.1f 萬/坪\n\n", o.AvgPriceOverall)

	b.WriteString("- 區域行情 (均價 | 成交量)：\n")
	for _, d := range o.Districts {
		fmt.Fprintf(&b, "  * %s: %.1f萬 | %d戶\n", d.District, d.AvgPrice, d.Transactions)
	}

	b.WriteString("\n- 單價 Top 3：\n")
	for _, p := range o.TopExpensive {
		fmt.Fprintf(&b, "  * %s (%s): %s萬\n", p.Name, p.District, p.PriceRange)
	}

	b.WriteString("\n- 銷量 Top 3：\n")
	for _, p := range o.TopVolume {
		fmt.Fprintf(&b, "  * %s (%s): %d戶\n", p.Name, p.District, p.Transactions)
	}

	b.WriteString("\n【各行政區成交詳情】\n")
	for _, d := range o.DistrictDetails {
		fmt.Fprintf(&b, "### %s\n", d.District)
		for _, p := range d.Projects {
			fmt.Fprintf(&b, "* %s 單價 %s萬 房型 %s 成交 %d筆\n", p.Name, p.PriceRange, roomList(p), p.Transactions)
		}
	}

	b.WriteString("\n【輸出要求 (請使用 Markdown)】\n")
	b.WriteString("1. **價格事實**：簡述價格區間與天花板，點出最高價區域。\n")
	b.WriteString("2. **量能觀察**：指出交易最熱絡的區域或建案。\n")
	b.WriteString("3. **市場快評**：基於數據，用一句話總結目前市場狀態 (例如：價漲量縮、特定區域獨強等)。\n\n")
	b.WriteString("4. **各區成交詳情列表**：\n")
	b.WriteString("請直接將上方提供的【各行政區成交詳情】整理輸出，格式如下：\n")
	b.WriteString("### 行政區\n")
	b.WriteString("* **案名** 單價(區間) 房型(區間) 成交筆數\n")

	return b.String()
}

func roomList(p models.ProjectSummary) string {
	if len(p.RoomTypes) == 0 {
		return noValue
	}
	parts := make([]string, len(p.RoomTypes))
	for i, r := range p.RoomTypes {
		parts[i] = fmt.Sprintf("%s(%s)", r.RoomType, r.AreaRange)
	}
	return strings.Join(parts, "、")
}

// Print writes a terminal report of the overview to w.
func (s *MarketService) Print(w io.Writer, o *models.MarketOverview, stats models.DatasetStats) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  🏗  台北市預售屋實價登錄 市場概況\033[0m\n")
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	fmt.Fprintf(w, "\033[1;33m  Overview\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Raw rows        : \033[1m%d\033[0m\n", stats.TotalRaw)
	fmt.Fprintf(w, "  Pre-sale rows   : \033[1m%d\033[0m\n", stats.Presale)
	fmt.Fprintf(w, "  Filtered rows   : \033[1m%d\033[0m\n", stats.Filtered)
	fmt.Fprintf(w, "  Projects        : \033[1m%d\033[0m\n", o.ProjectCount)
	if o.ProjectCount > 0 {
		fmt.Fprintf(w, "  Avg unit price  : \033[1;32m%.1f 萬/坪\033[0m\n", o.AvgPriceOverall)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Top %d by Unit Price\033[0m\n", topN)
	fmt.Fprintf(w, "  %s\n", thin)
	if len(o.TopExpensive) == 0 {
		fmt.Fprintf(w, "  No projects\n")
	}
	for i, p := range o.TopExpensive {
		fmt.Fprintf(w, "  \033[1m%d.\033[0m %-24s %s  \033[1;32m%s萬\033[0m\n",
			i+1, truncate(p.Name, 20), p.District, p.PriceRange)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Top %d by Volume\033[0m\n", topN)
	fmt.Fprintf(w, "  %s\n", thin)
	if len(o.TopVolume) == 0 {
		fmt.Fprintf(w, "  No projects\n")
	}
	for i, p := range o.TopVolume {
		fmt.Fprintf(w, "  \033[1m%d.\033[0m %-24s %s  \033[1;32m%d戶\033[0m\n",
			i+1, truncate(p.Name, 20), p.District, p.Transactions)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Transactions by District\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	for _, d := range o.DistrictVolume {
		bar := strings.Repeat("█", barLength(d.Transactions, o.TotalTransactions))
		fmt.Fprintf(w, "  %-8s %s (%d)\n", d.District, bar, d.Transactions)
	}

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
}

// barLength scales a count to at most 30 cells.
func barLength(count, total int) int {
	if total <= 0 || count <= 0 {
		return 0
	}
	n := count * 30 / total
	if n == 0 {
		n = 1
	}
	return n
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
