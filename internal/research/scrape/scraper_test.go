package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

const homePage = `<!DOCTYPE html>
<html>
<head>
<title>Medora Devices | Patient Monitoring Solutions</title>
<meta property="og:site_name" content="Medora Devices">
<meta name="description" content="Medora builds vital signs monitors for hospitals worldwide.">
</head>
<body>
<nav><a href="/about-us">About Us</a> <a href="/products">Products</a> <a href="/contact">Contact</a> <a href="/distributors">Distributors</a></nav>
<h2>Multi-Parameter Monitors</h2>
<h3>Central Stations</h3>
<p>Our quality system is ISO 13485 certified and all devices carry the CE Mark.</p>
<p>Write to sales@medora.example or call +1 (555) 010-4477.</p>
</body>
</html>`

const distributorPage = `<html><body>
<h1>Become a Distributor</h1>
<p>We have partners in Saudi Arabia and the UAE. Submit a distributor inquiry today.</p>
</body></html>`

const aboutPage = `<html><body>
<p>Medora Devices is headquartered in Austin, Texas. We also maintain offices in Dublin, Ireland.</p>
</body></html>`

func parseDoc(t *testing.T, raw string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(raw))
	require.NoError(t, err)
	return doc
}

func TestFindCertifications(t *testing.T) {
	certs := findCertifications(homePage)
	assert.Equal(t, []string{"CE Mark", "ISO 13485"}, certs)
}

func TestFindCertificationsDedup(t *testing.T) {
	certs := findCertifications("ce mark ce-mark iso 13485 iso13485")
	assert.Equal(t, []string{"CE Mark", "ISO 13485"}, certs)
}

func TestFindCertificationsCollapsesFDAVariants(t *testing.T) {
	certs := findCertifications("FDA cleared, FDA approved, 510(k) exempt, FDA registered facility")
	assert.Equal(t, []string{"FDA"}, certs)
}

func TestFindFDAMentions(t *testing.T) {
	mentions := findFDAMentions("Our device is FDA cleared under 510(k) and approved in the EU.")
	assert.Equal(t, []string{"FDA", "cleared", "510(k)", "approved"}, mentions)
}

func TestFindFDAMentionsEmpty(t *testing.T) {
	assert.Empty(t, findFDAMentions("no regulatory language here"))
}

func TestFindCertificationsEmpty(t *testing.T) {
	certs := findCertifications("<html><body>no regulatory claims here</body></html>")
	assert.Empty(t, certs)
	assert.NotNil(t, certs)
}

func TestExtractCompanyNamePriority(t *testing.T) {
	doc := parseDoc(t, homePage)
	assert.Equal(t, "Medora Devices", extractCompanyName(doc, "https://medora.example"))

	noOG := parseDoc(t, `<html><head><title>Acme Corp | Home</title></head><body></body></html>`)
	assert.Equal(t, "Acme Corp", extractCompanyName(noOG, "https://acme.example"))

	bare := parseDoc(t, `<html><body></body></html>`)
	assert.Equal(t, "Acme", extractCompanyName(bare, "https://www.acme.example"))
}

func TestExtractDescription(t *testing.T) {
	doc := parseDoc(t, homePage)
	assert.Equal(t, "Medora builds vital signs monitors for hospitals worldwide.", extractDescription(doc))
}

func TestExtractProductHeadings(t *testing.T) {
	doc := parseDoc(t, homePage)
	products := extractProductHeadings(doc)
	assert.Equal(t, []string{"Multi-Parameter Monitors", "Central Stations"}, products)
}

func TestExtractProductHeadingsSkipsLongHeadings(t *testing.T) {
	long := strings.Repeat("x", 120)
	doc := parseDoc(t, "<html><body><h2>"+long+"</h2><h2>Pumps</h2></body></html>")
	assert.Equal(t, []string{"Pumps"}, extractProductHeadings(doc))
}

func TestFindEmailsFiltersAssets(t *testing.T) {
	raw := `contact sales@medora.example and logo@2x.png and info@medora.example`
	emails := findEmails(raw)
	assert.Equal(t, []string{"sales@medora.example", "info@medora.example"}, emails)
}

func TestFindPhones(t *testing.T) {
	phones := findPhones("Call +1 (555) 010-4477 or 123 too short 12")
	assert.Equal(t, []string{"+1 (555) 010-4477"}, phones)
}

func TestFindGulfPresence(t *testing.T) {
	countries := findGulfPresence(distributorPage)
	assert.ElementsMatch(t, []string{"Saudi Arabia", "UAE"}, countries)
}

func TestFindGulfPresenceWordBoundary(t *testing.T) {
	countries := findGulfPresence("the quaternary era")
	assert.Empty(t, countries)
}

func TestClassifyDistribution(t *testing.T) {
	assert.Equal(t, "Seeking Partners", classifyDistribution("Become a distributor today"))
	assert.Equal(t, "Uses Distributors", classifyDistribution("Our distributor network spans Europe"))
	assert.Equal(t, "Direct Sales", classifyDistribution("Buy from our online store"))
}

func TestFindLocations(t *testing.T) {
	locs := findLocations("Medora is headquartered in Austin, Texas. We maintain offices in Dublin, Ireland.")
	assert.Equal(t, []string{"Austin, Texas", "Dublin, Ireland"}, locs)
}

func TestFindKeyPages(t *testing.T) {
	doc := parseDoc(t, homePage)
	links := findKeyPages(doc, "https://medora.example")
	assert.Equal(t, "https://medora.example/about-us", links["about"])
	assert.Equal(t, "https://medora.example/products", links["products"])
	assert.Equal(t, "https://medora.example/contact", links["contact"])
	assert.Equal(t, "https://medora.example/distributors", links["distributors"])
}

func TestResolveSameHostRejectsCrossHost(t *testing.T) {
	doc := parseDoc(t, `<html><body><a href="https://other.example/about">About</a></body></html>`)
	links := findKeyPages(doc, "https://medora.example")
	assert.Empty(t, links["about"])
}

func TestScrapeCompany(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/", "":
			_, _ = w.Write([]byte(homePage))
		case "/about-us":
			_, _ = w.Write([]byte(aboutPage))
		case "/distributors":
			_, _ = w.Write([]byte(distributorPage))
		case "/products":
			_, _ = w.Write([]byte(`<html><body><h2>Infusion Pumps</h2></body></html>`))
		case "/contact":
			_, _ = w.Write([]byte(`<html><body>Email support@medora.example</body></html>`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	s := New(nil)
	info := s.ScrapeCompany(context.Background(), server.URL)

	assert.True(t, info.Success)
	assert.Equal(t, "Medora Devices", info.CompanyName)
	assert.Equal(t, []string{"CE Mark", "ISO 13485"}, info.Certifications)
	assert.Equal(t, []string{"Infusion Pumps"}, info.Products)
	assert.Equal(t, []string{"support@medora.example"}, info.Emails)
	assert.Equal(t, "Seeking Partners", info.DistributionModel)
	assert.ElementsMatch(t, []string{"Saudi Arabia", "UAE"}, info.InternationalPresence)
	assert.Equal(t, "Austin, Texas", info.Headquarters)
}

func TestScrapeCompanyFetchFailure(t *testing.T) {
	s := New(nil)
	info := s.ScrapeCompany(context.Background(), "http://127.0.0.1:1/nope")

	assert.False(t, info.Success)
	assert.Contains(t, info.Error, "homepage fetch failed")
	assert.NotNil(t, info.Certifications)
}
