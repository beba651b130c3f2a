package scrape

import (
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// certPatterns maps substrings found in page text to canonical
// certification names. Order matters for stable output.
var certPatterns = []struct {
	pattern string
	label   string
}{
	{"ce mark", "CE Mark"},
	{"ce-mark", "CE Mark"},
	{"ce certified", "CE Mark"},
	{"fda approved", "FDA"},
	{"fda cleared", "FDA"},
	{"fda registered", "FDA"},
	{"510(k)", "FDA"},
	{"iso 13485", "ISO 13485"},
	{"iso13485", "ISO 13485"},
	{"iso 9001", "ISO 9001"},
	{"iso 14001", "ISO 14001"},
	{"eu mdr", "EU MDR"},
	{"mdr 2017/745", "EU MDR"},
	{"gmp", "GMP"},
	{"mdsap", "MDSAP"},
	{"tga", "TGA (Australia)"},
	{"health canada", "Health Canada"},
}

// gulfCountries are the markets checked for regional presence mentions.
var gulfCountries = []string{
	"UAE", "United Arab Emirates", "Saudi Arabia", "Kuwait",
	"Qatar", "Bahrain", "Oman",
}

// keyPageKeywords maps a page category to link-text and href keywords.
var keyPageKeywords = map[string][]string{
	"about":        {"about", "company", "who we are", "our story"},
	"products":     {"product", "solution", "device", "portfolio"},
	"contact":      {"contact", "get in touch", "reach us"},
	"distributors": {"distributor", "distribution", "where to buy", "find a dealer"},
	"partners":     {"partner", "reseller", "become a"},
}

var (
	emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	phoneRe = regexp.MustCompile(`\+?\d[\d\s().-]{7,}\d`)
	hqRe    = regexp.MustCompile(`(?i)(?:headquartered in|based in|offices in|located in)\s+([A-Z][A-Za-z ,-]{2,60})`)
	fdaRe   = regexp.MustCompile(`(?i)(FDA|510\(k\)|PMA|Class\s*I{1,3}|cleared|approved)`)
)

const maxFDAMentions = 5

// findFDAMentions pulls regulatory-status phrases out of raw page text.
// They keep more nuance than the certification labels (cleared vs
// approved vs 510(k)) for downstream status inference.
func findFDAMentions(raw string) []string {
	seen := make(map[string]bool)
	mentions := []string{}
	for _, m := range fdaRe.FindAllString(raw, -1) {
		key := strings.ToLower(m)
		if seen[key] {
			continue
		}
		seen[key] = true
		mentions = append(mentions, m)
		if len(mentions) == maxFDAMentions {
			break
		}
	}
	return mentions
}

// findCertifications scans raw page text for regulatory certification
// mentions and returns the canonical labels, deduplicated.
func findCertifications(raw string) []string {
	lower := strings.ToLower(raw)
	seen := make(map[string]bool)
	var certs []string
	for _, c := range certPatterns {
		if seen[c.label] {
			continue
		}
		if strings.Contains(lower, c.pattern) {
			seen[c.label] = true
			certs = append(certs, c.label)
		}
	}
	if certs == nil {
		certs = []string{}
	}
	return certs
}

// findGulfPresence returns the gulf-region countries mentioned on the page.
func findGulfPresence(raw string) []string {
	lower := strings.ToLower(raw)
	seen := make(map[string]bool)
	var countries []string
	for _, c := range gulfCountries {
		name := c
		if name == "United Arab Emirates" {
			name = "UAE"
		}
		if seen[name] {
			continue
		}
		if containsWord(lower, strings.ToLower(c)) {
			seen[name] = true
			countries = append(countries, name)
		}
	}
	if countries == nil {
		countries = []string{}
	}
	return countries
}

// containsWord matches needle in haystack on word boundaries; a plain
// Contains would match "UAE" inside unrelated words.
func containsWord(haystack, needle string) bool {
	idx := 0
	for {
		i := strings.Index(haystack[idx:], needle)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(needle)
		leftOK := start == 0 || !isAlnum(haystack[start-1])
		rightOK := end == len(haystack) || !isAlnum(haystack[end])
		if leftOK && rightOK {
			return true
		}
		idx = start + 1
		if idx >= len(haystack) {
			return false
		}
	}
}

func isAlnum(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}

// classifyDistribution categorizes the sales model from distributor page text.
func classifyDistribution(text string) string {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "become a distributor") ||
		strings.Contains(lower, "seeking distributor") ||
		strings.Contains(lower, "distributor inquiry") ||
		strings.Contains(lower, "partner with us"):
		return "Seeking Partners"
	case strings.Contains(lower, "distributor") || strings.Contains(lower, "reseller"):
		return "Uses Distributors"
	default:
		return "Direct Sales"
	}
}

// findEmails extracts up to maxContacts email addresses, skipping the
// asset filenames that email regexes love to match.
func findEmails(raw string) []string {
	matches := emailRe.FindAllString(raw, -1)
	seen := make(map[string]bool)
	emails := []string{}
	for _, m := range matches {
		m = strings.ToLower(m)
		if strings.HasSuffix(m, ".png") || strings.HasSuffix(m, ".jpg") ||
			strings.HasSuffix(m, ".jpeg") || strings.HasSuffix(m, ".gif") ||
			strings.HasSuffix(m, ".svg") || strings.HasSuffix(m, ".webp") {
			continue
		}
		if seen[m] {
			continue
		}
		seen[m] = true
		emails = append(emails, m)
		if len(emails) >= maxContacts {
			break
		}
	}
	return emails
}

// findPhones extracts up to maxContacts phone numbers.
func findPhones(raw string) []string {
	matches := phoneRe.FindAllString(raw, -1)
	seen := make(map[string]bool)
	phones := []string{}
	for _, m := range matches {
		m = strings.TrimSpace(m)
		digits := 0
		for _, r := range m {
			if r >= '0' && r <= '9' {
				digits++
			}
		}
		if digits < 8 || digits > 15 {
			continue
		}
		if seen[m] {
			continue
		}
		seen[m] = true
		phones = append(phones, m)
		if len(phones) >= maxContacts {
			break
		}
	}
	return phones
}

// findLocations pulls headquarters and office mentions from about-page text.
func findLocations(text string) []string {
	matches := hqRe.FindAllStringSubmatch(text, -1)
	seen := make(map[string]bool)
	locs := []string{}
	for _, m := range matches {
		loc := strings.TrimRight(strings.TrimSpace(m[1]), ".,")
		if loc == "" || seen[loc] {
			continue
		}
		seen[loc] = true
		locs = append(locs, loc)
	}
	return locs
}

// extractCompanyName prefers og:site_name, then the page title, then a
// name derived from the domain.
func extractCompanyName(doc *html.Node, siteURL string) string {
	if name := metaContent(doc, "property", "og:site_name"); name != "" {
		return strings.TrimSpace(name)
	}
	if title := pageTitle(doc); title != "" {
		// Titles tend to carry taglines after a separator.
		for _, sep := range []string{" | ", " - ", " – ", " :: "} {
			if idx := strings.Index(title, sep); idx > 0 {
				title = title[:idx]
				break
			}
		}
		return strings.TrimSpace(title)
	}
	return domainName(siteURL)
}

// extractDescription prefers the meta description, then og:description.
func extractDescription(doc *html.Node) string {
	if d := metaContent(doc, "name", "description"); d != "" {
		return strings.TrimSpace(d)
	}
	if d := metaContent(doc, "property", "og:description"); d != "" {
		return strings.TrimSpace(d)
	}
	return ""
}

// extractProductHeadings collects short h2/h3 headings, which on product
// pages are almost always product or category names.
func extractProductHeadings(doc *html.Node) []string {
	seen := make(map[string]bool)
	products := []string{}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if len(products) >= maxProducts {
			return
		}
		if n.Type == html.ElementNode && (n.Data == "h2" || n.Data == "h3") {
			text := strings.TrimSpace(textContent(n))
			if text != "" && len(text) < 100 && !seen[text] {
				seen[text] = true
				products = append(products, text)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return products
}

// findKeyPages scans anchors for the standard secondary pages and returns
// absolute same-host URLs keyed by category.
func findKeyPages(doc *html.Node, baseURL string) map[string]string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return map[string]string{}
	}

	found := make(map[string]string)
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			href := attrValue(n, "href")
			text := strings.ToLower(strings.TrimSpace(textContent(n)))
			hrefLower := strings.ToLower(href)
			for category, keywords := range keyPageKeywords {
				if _, ok := found[category]; ok {
					continue
				}
				for _, kw := range keywords {
					if strings.Contains(text, kw) || strings.Contains(hrefLower, strings.ReplaceAll(kw, " ", "-")) {
						if abs := resolveSameHost(base, href); abs != "" {
							found[category] = abs
						}
						break
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return found
}

// resolveSameHost resolves href against base, dropping cross-host links,
// anchors and non-http schemes.
func resolveSameHost(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") ||
		strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "javascript:") {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	abs := base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return ""
	}
	if abs.Host != base.Host {
		return ""
	}
	abs.Fragment = ""
	return abs.String()
}

func pageTitle(doc *html.Node) string {
	var title string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if title != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "title" {
			title = textContent(n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return title
}

// metaContent returns the content attribute of the first meta tag whose
// attrName attribute equals attrVal.
func metaContent(doc *html.Node, attrName, attrVal string) string {
	var content string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if content != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "meta" {
			if strings.EqualFold(attrValue(n, attrName), attrVal) {
				content = attrValue(n, "content")
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return content
}

// pageText collects the visible text of a page, skipping script, style
// and navigation elements.
func pageText(doc *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "nav", "header", "footer":
				return
			}
		}
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				sb.WriteString(text)
				sb.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return strings.TrimSpace(sb.String())
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}
