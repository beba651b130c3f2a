// Package competitors maps the competitive landscape for a medical device
// specialty from a static reference table of major players, and compares
// researched companies against each other.
package competitors

import (
	"sort"
	"strings"
	"time"
)

// majorPlayers lists the established vendors per specialty. Matching is a
// bidirectional substring check so "ICU patient monitoring" still hits
// "patient monitoring".
var majorPlayers = map[string][]string{
	"patient monitoring":       {"Philips", "GE Healthcare", "Medtronic", "Nihon Kohden", "Mindray", "Dräger"},
	"ventilators":              {"Medtronic", "Philips", "GE Healthcare", "Dräger", "Hamilton Medical", "Getinge"},
	"infusion pumps":           {"BD", "Baxter", "B. Braun", "ICU Medical", "Fresenius Kabi", "Smiths Medical"},
	"defibrillators":           {"Philips", "Stryker", "Physio-Control", "ZOLL", "Nihon Kohden", "Cardiac Science"},
	"imaging":                  {"Siemens Healthineers", "GE Healthcare", "Philips", "Canon Medical", "Fujifilm", "Hologic"},
	"ultrasound":               {"GE Healthcare", "Philips", "Siemens", "Canon Medical", "Fujifilm", "Mindray"},
	"surgical equipment":       {"Stryker", "Medtronic", "Johnson & Johnson", "Zimmer Biomet", "Smith & Nephew"},
	"interventional radiology": {"Siemens", "Philips", "GE Healthcare", "Boston Scientific", "Cook Medical"},
	"picu":                     {"Philips", "GE Healthcare", "Dräger", "Nihon Kohden", "Mindray"},
	"nicu":                     {"Dräger", "GE Healthcare", "Philips", "Atom Medical", "Fanem"},
	"anesthesia":               {"Dräger", "GE Healthcare", "Mindray", "Penlon", "Spacelabs"},
	"laboratory":               {"Roche", "Abbott", "Siemens Healthineers", "Beckman Coulter", "Sysmex"},
}

var marketSegments = map[string][]string{
	"patient monitoring": {"Bedside monitors", "Central stations", "Wearables", "Telemetry"},
	"ventilators":        {"ICU ventilators", "Transport ventilators", "Home care", "Neonatal"},
	"imaging":            {"CT", "MRI", "X-ray", "Mobile imaging"},
	"ultrasound":         {"General imaging", "Cardiac", "Point-of-care", "OB/GYN"},
	"surgical":           {"Instruments", "Electrosurgery", "Navigation", "Robotics"},
}

var positioningOpportunities = []string{
	"Price-competitive alternative to major brands",
	"Specialized features for emerging markets",
	"Bundled service and support packages",
	"Local regulatory expertise and support",
	"Training and education programs",
	"Flexible financing options",
}

var gulfMarketNotes = []string{
	"Saudi Vision 2030 driving healthcare investment",
	"UAE positioning as regional medical tourism hub",
	"MOH and DOH tender requirements vary by emirate/country",
	"Arabic language support often required for public sector",
	"Local partner registration typically required for tender participation",
	"Growing demand for connected/smart medical devices",
}

// Landscape is the competitive analysis for one company and specialty.
type Landscape struct {
	Company           string   `json:"company"`
	Specialty         string   `json:"specialty"`
	AnalyzedAt        string   `json:"analyzed_at"`
	MarketLeaders     []string `json:"market_leaders"`
	TotalIdentified   int      `json:"total_identified"`
	Intensity         string   `json:"competitive_intensity"`
	MarketSegments    []string `json:"market_segments"`
	Opportunities     []string `json:"positioning_opportunities"`
	GulfMarketNotes   []string `json:"gulf_market_notes"`
}

// CompanySnapshot carries the comparable facts about one researched company.
type CompanySnapshot struct {
	Name           string   `json:"name"`
	Certifications []string `json:"certifications"`
	GulfPresence   string   `json:"gulf_presence"`
	Products       []string `json:"products"`
}

// Comparison contrasts two researched companies.
type Comparison struct {
	Companies          [2]string `json:"companies"`
	ComparedAt         string    `json:"compared_at"`
	SharedCerts        []string  `json:"shared_certifications"`
	CertAdvantage      string    `json:"certification_advantage"`
	GulfPresence       [2]string `json:"gulf_presence"`
	UniqueProductsA    []string  `json:"unique_products_a"`
	UniqueProductsB    []string  `json:"unique_products_b"`
	ProductOverlapRate float64   `json:"product_overlap_rate"`
}

// Analyzer maps competitive landscapes. Its reference table is static,
// so the zero value is usable, but New keeps call sites uniform.
type Analyzer struct {
	now func() time.Time
}

// New creates a competitor analyzer.
func New() *Analyzer {
	return &Analyzer{now: time.Now}
}

// Identify builds the competitive landscape for a company in a specialty.
// The company itself is excluded from the results.
func (a *Analyzer) Identify(company, specialty string) *Landscape {
	specialtyLower := strings.ToLower(strings.TrimSpace(specialty))
	companyLower := strings.ToLower(strings.TrimSpace(company))

	seen := make(map[string]bool)
	var competitors []string
	for key, players := range majorPlayers {
		if !strings.Contains(specialtyLower, key) && !strings.Contains(key, specialtyLower) {
			continue
		}
		for _, player := range players {
			if strings.ToLower(player) == companyLower || seen[player] {
				continue
			}
			seen[player] = true
			competitors = append(competitors, player)
		}
	}
	sort.Strings(competitors)

	leaders := competitors
	if len(leaders) > 5 {
		leaders = leaders[:5]
	}
	if leaders == nil {
		leaders = []string{}
	}

	return &Landscape{
		Company:         company,
		Specialty:       specialty,
		AnalyzedAt:      a.now().Format(time.RFC3339),
		MarketLeaders:   leaders,
		TotalIdentified: len(competitors),
		Intensity:       assessIntensity(len(competitors)),
		MarketSegments:  identifySegments(specialtyLower),
		Opportunities:   positioningOpportunities,
		GulfMarketNotes: gulfMarketNotes,
	}
}

// Compare contrasts two researched companies on certifications, gulf
// presence and product overlap.
func (a *Analyzer) Compare(x, y CompanySnapshot) *Comparison {
	xCerts := stringSet(x.Certifications)
	yCerts := stringSet(y.Certifications)

	var shared []string
	for cert := range xCerts {
		if yCerts[cert] {
			shared = append(shared, cert)
		}
	}
	sort.Strings(shared)
	if shared == nil {
		shared = []string{}
	}

	advantage := y.Name
	if len(xCerts) > len(yCerts) {
		advantage = x.Name
	}

	xProducts := stringSet(x.Products)
	yProducts := stringSet(y.Products)
	union := len(xProducts)
	overlap := 0
	for p := range yProducts {
		if xProducts[p] {
			overlap++
		} else {
			union++
		}
	}
	rate := 0.0
	if union > 0 {
		rate = float64(overlap) / float64(union)
	}

	return &Comparison{
		Companies:          [2]string{x.Name, y.Name},
		ComparedAt:         a.now().Format(time.RFC3339),
		SharedCerts:        shared,
		CertAdvantage:      advantage,
		GulfPresence:       [2]string{x.GulfPresence, y.GulfPresence},
		UniqueProductsA:    difference(x.Products, yProducts),
		UniqueProductsB:    difference(y.Products, xProducts),
		ProductOverlapRate: rate,
	}
}

func assessIntensity(count int) string {
	switch {
	case count >= 6:
		return "High - Crowded market with many established players"
	case count >= 3:
		return "Medium - Competitive but room for differentiation"
	default:
		return "Low - Limited competition, opportunity for market entry"
	}
}

func identifySegments(specialtyLower string) []string {
	for key, segments := range marketSegments {
		if strings.Contains(specialtyLower, key) {
			return segments
		}
	}
	return []string{"Core products", "Accessories", "Software/Services"}
}

func stringSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}

// difference returns up to five items that appear in items but not other.
func difference(items []string, other map[string]bool) []string {
	unique := []string{}
	for _, item := range items {
		if !other[item] {
			unique = append(unique, item)
			if len(unique) >= 5 {
				break
			}
		}
	}
	return unique
}
