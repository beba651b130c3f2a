package competitors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentifyExcludesSelf(t *testing.T) {
	a := New()
	landscape := a.Identify("Mindray", "patient monitoring")

	assert.Equal(t, 5, landscape.TotalIdentified)
	assert.NotContains(t, landscape.MarketLeaders, "Mindray")
	assert.Contains(t, landscape.MarketLeaders, "Philips")
}

func TestIdentifyBidirectionalMatch(t *testing.T) {
	a := New()
	landscape := a.Identify("Acme", "ICU patient monitoring systems")
	assert.Equal(t, 6, landscape.TotalIdentified)
}

func TestIdentifyUnknownSpecialty(t *testing.T) {
	a := New()
	landscape := a.Identify("Acme", "dental chairs")

	assert.Equal(t, 0, landscape.TotalIdentified)
	assert.Empty(t, landscape.MarketLeaders)
	assert.Equal(t, []string{"Core products", "Accessories", "Software/Services"}, landscape.MarketSegments)
}

func TestIntensityThresholds(t *testing.T) {
	assert.Contains(t, assessIntensity(6), "High")
	assert.Contains(t, assessIntensity(3), "Medium")
	assert.Contains(t, assessIntensity(2), "Low")
	assert.Contains(t, assessIntensity(0), "Low")
}

func TestMarketLeadersCappedAtFive(t *testing.T) {
	a := New()
	landscape := a.Identify("Acme", "patient monitoring")

	assert.Equal(t, 6, landscape.TotalIdentified)
	assert.Len(t, landscape.MarketLeaders, 5)
}

func TestIdentifySegments(t *testing.T) {
	assert.Equal(t, []string{"CT", "MRI", "X-ray", "Mobile imaging"}, identifySegments("mobile imaging"))
}

func TestCompare(t *testing.T) {
	a := New()
	cmp := a.Compare(
		CompanySnapshot{
			Name:           "Medora",
			Certifications: []string{"CE Mark", "ISO 13485", "FDA"},
			GulfPresence:   "None",
			Products:       []string{"Monitor", "Telemetry"},
		},
		CompanySnapshot{
			Name:           "Vitalis",
			Certifications: []string{"CE Mark"},
			GulfPresence:   "Has Distributor",
			Products:       []string{"Monitor", "Central Station"},
		},
	)

	assert.Equal(t, [2]string{"Medora", "Vitalis"}, cmp.Companies)
	assert.Equal(t, []string{"CE Mark"}, cmp.SharedCerts)
	assert.Equal(t, "Medora", cmp.CertAdvantage)
	assert.Equal(t, []string{"Telemetry"}, cmp.UniqueProductsA)
	assert.Equal(t, []string{"Central Station"}, cmp.UniqueProductsB)
	assert.InDelta(t, 1.0/3.0, cmp.ProductOverlapRate, 1e-9)
}
