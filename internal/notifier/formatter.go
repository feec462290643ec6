package notifier

import (
	"fmt"
	"html"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"FundSentinel/internal/model"
)

const (
	// ReportChunkSize is the number of funds per report message.
	ReportChunkSize = 60
	holdTopN        = 12
	highDrawdown    = 0.2
	disclaimer      = "提示：仅供个人学习参考，不构成投资建议。"
)

type reportCategory int

const (
	categoryBuy reportCategory = iota
	categorySell
	categoryHold
	categorySkip
)

type reportItem struct {
	category    reportCategory
	text        string
	risk        *float64
	expensive   bool
	consistency string
	estimated   bool
}

// FormatBatchReport renders a run as one or more Telegram HTML messages of at
// most size funds each. A non-positive size uses ReportChunkSize.
func FormatBatchReport(run *model.BatchRun, loc *time.Location, size int) []string {
	if size <= 0 {
		size = ReportChunkSize
	}
	if loc == nil {
		loc = time.UTC
	}

	items := make([]reportItem, 0, len(run.Outcomes))
	traded := false
	for _, o := range run.Outcomes {
		it := toReportItem(o)
		if it.category == categoryBuy || it.category == categorySell {
			traded = true
		}
		items = append(items, it)
	}

	day := run.StartedAt.In(loc).Format("2006-01-02")
	mood := "观望"
	if traded {
		mood = "有操作"
	}
	subject := fmt.Sprintf("%s 14:30 基金盘中策略（%s）", day, mood)

	chunks := chunk(items, size)
	if len(chunks) == 0 {
		chunks = [][]reportItem{nil}
	}
	out := make([]string, 0, len(chunks))
	for i, c := range chunks {
		title := subject
		if len(chunks) > 1 {
			title = fmt.Sprintf("%s（%d/%d）", subject, i+1, len(chunks))
		}
		out = append(out, formatChunk(title, day, run.Version, c, i+1, len(chunks)))
	}
	return out
}

func formatChunk(title, day, version string, items []reportItem, idx, total int) string {
	groups := make(map[reportCategory][]reportItem)
	var estimated, risky, expensive, poor int
	for _, it := range items {
		groups[it.category] = append(groups[it.category], it)
		if it.estimated {
			estimated++
		}
		if it.risk != nil && *it.risk >= highDrawdown {
			risky++
		}
		if it.expensive {
			expensive++
		}
		if it.consistency == "差" {
			poor++
		}
	}

	hasAction := len(groups[categoryBuy])+len(groups[categorySell]) > 0
	holds := groups[categoryHold]
	holdTitle := "观望"
	if hasAction {
		holds = append([]reportItem(nil), holds...)
		sort.SliceStable(holds, func(i, j int) bool { return riskOf(holds[i]) > riskOf(holds[j]) })
		if len(holds) > holdTopN {
			holds = holds[:holdTopN]
		}
		holdTitle = fmt.Sprintf("观望（仅展示高风险Top%d）", holdTopN)
	}

	share := 0
	if len(items) > 0 {
		share = int(math.Round(float64(estimated) / float64(len(items)) * 100))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b>\n\n", html.EscapeString(title))
	fmt.Fprintf(&b, "日期：%s\n", day)
	b.WriteString("窗口：14:30 盘中估值\n")
	fmt.Fprintf(&b, "批次：%d/%d\n", idx, total)
	fmt.Fprintf(&b, "统计：加仓 %d｜减仓/防守 %d｜观望 %d｜异常 %d\n",
		len(groups[categoryBuy]), len(groups[categorySell]), len(groups[categoryHold]), len(groups[categorySkip]))
	fmt.Fprintf(&b, "风险聚焦：高回撤 %d｜估值偏高 %d｜一致性差 %d\n", risky, expensive, poor)
	fmt.Fprintf(&b, "估算比例：%d/%d（%d%%）\n", estimated, len(items), share)
	fmt.Fprintf(&b, "策略版本：%s\n", html.EscapeString(version))

	writeSection(&b, "加仓/做多", groups[categoryBuy])
	writeSection(&b, "减仓/防守", groups[categorySell])
	writeSection(&b, holdTitle, holds)
	writeSection(&b, "异常/缺失", groups[categorySkip])

	b.WriteString("\n" + disclaimer)
	return b.String()
}

func writeSection(b *strings.Builder, title string, items []reportItem) {
	fmt.Fprintf(b, "\n<b>%s</b>\n", html.EscapeString(title))
	if len(items) == 0 {
		b.WriteString("无\n")
		return
	}
	for _, it := range items {
		b.WriteString(html.EscapeString(it.text) + "\n")
	}
}

func toReportItem(o model.Outcome) reportItem {
	if o.Status != model.OutcomeOK || o.Result == nil {
		text := fmt.Sprintf("%s (#%s) | %s", o.Name, o.Code, o.Reason)
		if o.Name == "" || o.Name == o.Code {
			text = fmt.Sprintf("%s | %s", o.Code, o.Reason)
		}
		return reportItem{category: categorySkip, text: text}
	}

	res := o.Result
	action := res.FinalAction()
	it := reportItem{
		category:    categoryHold,
		text:        fundLine(o),
		risk:        res.Perf.MaxDrawdown,
		expensive:   res.Valuation.Level == model.ValuationExpensive,
		consistency: consistency(res.Premium),
		estimated:   !res.Estimate.Live,
	}
	if it.risk == nil {
		it.risk = model.Float64(res.Metrics.MaxDrawdown)
	}
	switch action {
	case model.ActionAccumulate:
		it.category = categoryBuy
	case model.ActionReduce:
		it.category = categorySell
	}
	return it
}

// fundLine is the one-line summary used in batch reports.
func fundLine(o model.Outcome) string {
	res := o.Result
	est := res.Estimate
	reasons := res.Plan.Reasons
	if len(reasons) > 2 {
		reasons = reasons[:2]
	}
	joined := strings.Join(reasons, "；")
	if joined == "" {
		joined = "—"
	}
	line := fmt.Sprintf("%s (#%s) | 估值: %s | 昨日净值: %s | 涨跌: %s | 策略: %s（%s）",
		o.Name, o.Code, nav(est.Estimated), nav(est.PreviousClose),
		signedPct(est.ChangePct()), res.FinalAction().Label(), joined)
	if !est.Live {
		line += " | 估值未更新，使用昨日净值估算"
	}
	return line
}

// consistency grades how far the estimate strays from the last NAV.
func consistency(premium float64) string {
	switch p := math.Abs(premium); {
	case p > 0.03:
		return "差"
	case p > 0.015:
		return "中"
	default:
		return "好"
	}
}

func riskOf(it reportItem) float64 {
	if it.risk == nil {
		return 0
	}
	return *it.risk
}

func nav(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func signedPct(v float64) string {
	return fmt.Sprintf("%+.2f%%", v)
}

func pct(v *float64) string {
	if v == nil {
		return "—"
	}
	return fmt.Sprintf("%.2f%%", *v*100)
}

func chunk[T any](items []T, size int) [][]T {
	var out [][]T
	for start := 0; start < len(items); start += size {
		out = append(out, items[start:min(start+size, len(items))])
	}
	return out
}

// FormatFundDetail renders a single evaluation for the /fund command.
func FormatFundDetail(o model.Outcome) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 <b>%s</b> (#%s)\n\n", html.EscapeString(o.Name), html.EscapeString(o.Code))

	if o.Status != model.OutcomeOK || o.Result == nil {
		fmt.Fprintf(&b, "状态: %s\n", html.EscapeString(o.Reason))
		return b.String()
	}

	res := o.Result
	est := res.Estimate
	fmt.Fprintf(&b, "估值: %s | 昨日净值: %s | 涨跌: %s\n", nav(est.Estimated), nav(est.PreviousClose), signedPct(est.ChangePct()))
	fmt.Fprintf(&b, "类型: %s | 市场: %s\n\n", html.EscapeString(res.FundType.Name), res.MarketType)

	fmt.Fprintf(&b, "💰 <b>策略: %s</b>", res.FinalAction().Label())
	if res.ChanlunMerge.Action != "" && res.ChanlunMerge.Action != res.Plan.Action {
		fmt.Fprintf(&b, "（原计划 %s，结构修正）", res.Plan.Action.Label())
	}
	b.WriteString("\n")
	for _, r := range res.Plan.Reasons {
		fmt.Fprintf(&b, "  • %s\n", html.EscapeString(r))
	}

	b.WriteString("\n📈 <b>因子评分:</b>\n")
	for _, f := range res.Metrics.Factors {
		fmt.Fprintf(&b, "  %s: %.0f (×%.2f)\n", f.Label, f.Value, res.Metrics.Weights[f.Key])
	}
	fmt.Fprintf(&b, "  综合评分: %.1f\n\n", res.Metrics.Total)

	fmt.Fprintf(&b, "判断: %s\n", html.EscapeString(res.Decision.Explain))
	fmt.Fprintf(&b, "估值水位: %s\n", html.EscapeString(res.Valuation.Label))
	fmt.Fprintf(&b, "最大回撤: %s | 年化波动: %s | 夏普: %s\n",
		pct(res.Perf.MaxDrawdown), pct(res.Perf.AnnVol), ratio(res.Perf.Sharpe))
	if s := res.BestSignal; s != nil && s.WinRate != nil {
		fmt.Fprintf(&b, "回测最优: %s（胜率 %.1f%% / 样本 %d）\n", html.EscapeString(s.Name), *s.WinRate*100, s.Sample)
	}
	if t := res.Chanlun.Trend; t.Direction != "" {
		fmt.Fprintf(&b, "结构: %s（强度 %d，完成度 %d%%）\n", directionLabels[t.Direction], t.Strength, t.Completion)
	}

	for _, n := range o.Notes {
		fmt.Fprintf(&b, "\n⚠️ %s", html.EscapeString(n))
	}
	return b.String()
}

var directionLabels = map[model.Direction]string{
	model.DirectionUp:   "上涨",
	model.DirectionDown: "下跌",
	model.DirectionFlat: "盘整",
}

func ratio(v *float64) string {
	if v == nil {
		return "—"
	}
	return fmt.Sprintf("%.2f", *v)
}

// FormatWatchlist lists the watched codes for /list.
func FormatWatchlist(codes []string) string {
	if len(codes) == 0 {
		return "📋 观察列表为空，使用 /add <code> 添加。"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📋 <b>观察列表</b> (%d)\n\n", len(codes))
	for i, c := range codes {
		fmt.Fprintf(&b, "%d. %s\n", i+1, c)
	}
	return b.String()
}
