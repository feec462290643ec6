package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"FundSentinel/internal/model"
)

// EastmoneyOptions configures endpoints and pacing. Empty URLs use the public hosts.
type EastmoneyOptions struct {
	EstimateURL string
	HistoryURL  string
	ProfileURL  string
	KlineURL    string
	Proxy       string
	// RequestsPerMinute caps outgoing requests; 0 disables pacing.
	RequestsPerMinute int
}

// EastmoneyFetcher implements Fetcher against the fundgz and eastmoney public pages.
type EastmoneyFetcher struct {
	Client  *http.Client
	opts    EastmoneyOptions
	limiter *rate.Limiter
}

// NewEastmoneyFetcher creates a fetcher with optional proxy support.
func NewEastmoneyFetcher(opts EastmoneyOptions) *EastmoneyFetcher {
	if opts.EstimateURL == "" {
		opts.EstimateURL = "https://fundgz.1234567.com.cn/js"
	}
	if opts.HistoryURL == "" {
		opts.HistoryURL = "https://fundf10.eastmoney.com/F10DataApi.aspx"
	}
	if opts.ProfileURL == "" {
		opts.ProfileURL = "https://fundf10.eastmoney.com"
	}
	if opts.KlineURL == "" {
		opts.KlineURL = "https://push2his.eastmoney.com/api/qt/stock/kline/get"
	}

	transport := &http.Transport{}
	if opts.Proxy != "" {
		if u, err := url.Parse(opts.Proxy); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	f := &EastmoneyFetcher{
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		opts: opts,
	}
	if rpm := opts.RequestsPerMinute; rpm > 0 {
		f.limiter = rate.NewLimiter(rate.Limit(float64(rpm)/60), max(1, rpm/10))
	}
	return f
}

func (f *EastmoneyFetcher) Name() string { return "eastmoney" }

func (f *EastmoneyFetcher) get(ctx context.Context, u string) (string, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limit wait: %w", err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")
	req.Header.Set("Referer", "https://fund.eastmoney.com/")

	resp, err := f.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("eastmoney fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("eastmoney read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("eastmoney: status %d", resp.StatusCode)
	}
	return string(body), nil
}

// gzQuote is the payload of the fundgz JSONP callback.
type gzQuote struct {
	Code   string `json:"fundcode"`
	Name   string `json:"name"`
	NavDay string `json:"jzrq"`
	Dwjz   string `json:"dwjz"`
	Gsz    string `json:"gsz"`
	Gszzl  string `json:"gszzl"`
	Time   string `json:"gztime"`
}

func (f *EastmoneyFetcher) FetchEstimate(ctx context.Context, code string) (*Estimate, error) {
	u := fmt.Sprintf("%s/%s.js?rt=%d", f.opts.EstimateURL, url.PathEscape(code), time.Now().UnixMilli())
	body, err := f.get(ctx, u)
	if err != nil {
		return nil, err
	}
	payload, err := unwrapJSONP(body)
	if err != nil {
		return nil, err
	}
	var q gzQuote
	if err := json.Unmarshal(payload, &q); err != nil {
		return nil, fmt.Errorf("decode estimate: %w", err)
	}
	est := &Estimate{
		Code:      q.Code,
		Name:      q.Name,
		Gsz:       parseNAV(q.Gsz),
		Dwjz:      parseNAV(q.Dwjz),
		ChangePct: parseNumber(q.Gszzl),
		NavDate:   q.NavDay,
		Time:      q.Time,
	}
	if est.ChangePct == nil {
		gsz, okGsz := navDecimal(q.Gsz)
		dwjz, okDwjz := navDecimal(q.Dwjz)
		if okGsz && okDwjz {
			est.ChangePct = pctChange(gsz, dwjz)
		}
	}
	return est, nil
}

func (f *EastmoneyFetcher) FetchHistory(ctx context.Context, code string, page, per int) ([]model.PricePoint, error) {
	q := url.Values{}
	q.Set("type", "lsjz")
	q.Set("code", code)
	q.Set("page", strconv.Itoa(page))
	q.Set("per", strconv.Itoa(per))
	q.Set("sdate", "")
	q.Set("edate", "")
	body, err := f.get(ctx, f.opts.HistoryURL+"?"+q.Encode())
	if err != nil {
		return nil, err
	}
	return parseHistoryTable(body), nil
}

func (f *EastmoneyFetcher) FetchProfile(ctx context.Context, code string) (*Profile, error) {
	body, err := f.get(ctx, fmt.Sprintf("%s/jbgk_%s.html", f.opts.ProfileURL, url.PathEscape(code)))
	if err != nil {
		return nil, err
	}
	p := &Profile{
		Type:        firstNonEmpty(pickField(body, "基金类型"), pickField(body, "基金类型/运作方式")),
		Benchmark:   pickField(body, "业绩比较基准"),
		Established: firstNonEmpty(pickField(body, "成立日期"), pickField(body, "成立时间")),
	}
	if p.Type == "" && p.Benchmark == "" {
		return nil, fmt.Errorf("profile %s: %w", code, ErrNoData)
	}
	return p, nil
}

type klineResponse struct {
	Data *struct {
		Code   string   `json:"code"`
		Klines []string `json:"klines"`
	} `json:"data"`
}

func (f *EastmoneyFetcher) FetchIndexHistory(ctx context.Context, secid string, days int) ([]model.IndexPoint, error) {
	q := url.Values{}
	q.Set("secid", secid)
	q.Set("fields1", "f1,f2,f3,f4,f5")
	q.Set("fields2", "f51,f52")
	q.Set("klt", "101")
	q.Set("fqt", "1")
	q.Set("lmt", strconv.Itoa(days))
	q.Set("end", "20500101")
	body, err := f.get(ctx, f.opts.KlineURL+"?"+q.Encode())
	if err != nil {
		return nil, err
	}
	payload := []byte(strings.TrimSpace(body))
	if !strings.HasPrefix(string(payload), "{") {
		if payload, err = unwrapJSONP(body); err != nil {
			return nil, err
		}
	}
	var resp klineResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, fmt.Errorf("decode kline: %w", err)
	}
	if resp.Data == nil || len(resp.Data.Klines) == 0 {
		return nil, fmt.Errorf("kline %s: %w", secid, ErrNoData)
	}

	out := make([]model.IndexPoint, 0, len(resp.Data.Klines))
	for _, line := range resp.Data.Klines {
		parts := strings.Split(line, ",")
		if len(parts) < 2 {
			continue
		}
		if c := parseNAV(parts[1]); c != nil {
			out = append(out, model.IndexPoint{Date: parts[0], Close: *c})
		}
	}
	return out, nil
}

func unwrapJSONP(body string) ([]byte, error) {
	start := strings.Index(body, "(")
	end := strings.LastIndex(body, ")")
	if start < 0 || end <= start+1 {
		return nil, fmt.Errorf("parse jsonp: %w", ErrNoData)
	}
	return []byte(body[start+1 : end]), nil
}

var (
	rowPattern  = regexp.MustCompile(`(?is)<tr[^>]*>.*?</tr>`)
	cellPattern = regexp.MustCompile(`(?is)<td[^>]*>(.*?)</td>`)
	tagPattern  = regexp.MustCompile(`<[^>]+>`)
	datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// parseHistoryTable extracts (date, NAV) rows. The page lists newest first;
// the result is oldest first.
func parseHistoryTable(body string) []model.PricePoint {
	rows := rowPattern.FindAllString(body, -1)
	out := make([]model.PricePoint, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		cells := cellPattern.FindAllStringSubmatch(rows[i], -1)
		if len(cells) < 2 {
			continue
		}
		date := stripTags(cells[0][1])
		v := parseNAV(stripTags(cells[1][1]))
		if !datePattern.MatchString(date) || v == nil {
			continue
		}
		out = append(out, model.PricePoint{Date: date, Value: *v})
	}
	return out
}

func stripTags(s string) string {
	return strings.TrimSpace(html.UnescapeString(tagPattern.ReplaceAllString(s, "")))
}

// pickField reads a labelled value from the profile page, either from a
// th/td pair or from inline "label：value" text.
func pickField(body, label string) string {
	quoted := regexp.QuoteMeta(label)
	cell := regexp.MustCompile(quoted + `\s*</th>\s*<td[^>]*>(.*?)</td>`)
	if m := cell.FindStringSubmatch(body); m != nil {
		return stripTags(m[1])
	}
	inline := regexp.MustCompile(quoted + `[:：]?\s*([^<\n]+)`)
	if m := inline.FindStringSubmatch(body); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

func navDecimal(s string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || !d.IsPositive() {
		return decimal.Zero, false
	}
	return d, true
}

// parseNAV parses a positive NAV string, nil when absent or malformed.
func parseNAV(s string) *float64 {
	d, ok := navDecimal(s)
	if !ok {
		return nil
	}
	return model.Float64(d.InexactFloat64())
}

func parseNumber(s string) *float64 {
	d, err := decimal.NewFromString(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if err != nil {
		return nil
	}
	return model.Float64(d.InexactFloat64())
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
