package fundtype

import (
	"regexp"
	"strings"
)

type indexRule struct {
	pattern *regexp.Regexp
	secid   string
}

var (
	noIndex = regexp.MustCompile(`债|货币|理财|现金|固收`)

	domesticRules = []indexRule{
		{regexp.MustCompile(`沪深300`), "1.000300"},
		{regexp.MustCompile(`中证500`), "1.000905"},
		{regexp.MustCompile(`中证1000`), "1.000852"},
		{regexp.MustCompile(`创业板`), "0.399006"},
		{regexp.MustCompile(`科创`), "1.000688"},
		{regexp.MustCompile(`上证50`), "1.000016"},
		{regexp.MustCompile(`红利`), "1.000922"},
	}
	overseasRules = []indexRule{
		{regexp.MustCompile(`(?i)纳斯达克100|纳指|NDX`), "100.NDX"},
		{regexp.MustCompile(`(?i)标普500|S&P500|SPX`), "100.SPX"},
		{regexp.MustCompile(`(?i)恒生科技|HSTECH`), "100.HSTECH"},
		{regexp.MustCompile(`(?i)恒生|HSI`), "100.HSI"},
	}
	qdiiPattern = regexp.MustCompile(`(?i)QDII`)
)

// IndexSecid picks the eastmoney security id of the benchmark a fund most
// likely tracks. Bond and money funds have none.
func IndexSecid(name, typeName, benchmark string) (string, bool) {
	text := strip(typeName + name + benchmark)
	if noIndex.MatchString(text) {
		return "", false
	}
	for _, r := range domesticRules {
		if r.pattern.MatchString(text) {
			return r.secid, true
		}
	}
	for _, r := range overseasRules {
		if r.pattern.MatchString(text) {
			return r.secid, true
		}
	}
	if strings.Contains(typeName, "指数") || strings.Contains(name, "指数") {
		return "1.000300", true
	}
	return FallbackQDIIIndex(name, typeName, benchmark)
}

// FallbackQDIIIndex maps a QDII fund to an overseas index when nothing else matched.
func FallbackQDIIIndex(name, typeName, benchmark string) (string, bool) {
	text := strip(typeName + name + benchmark)
	if !qdiiPattern.MatchString(text) {
		return "", false
	}
	for _, r := range overseasRules {
		if r.pattern.MatchString(text) {
			return r.secid, true
		}
	}
	return "", false
}

func strip(s string) string {
	return strings.Join(strings.Fields(s), "")
}
