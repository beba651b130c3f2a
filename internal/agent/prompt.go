package agent

import (
	"encoding/json"
	"fmt"

	"github.com/gulfmed/scout/internal/agent/tools"
)

// ResearchSystemPrompt steers the model through a full research pass over
// one specialty.
const ResearchSystemPrompt = `You are an advanced medical equipment research agent for business development.

For each specialty, you will:
1. Search for manufacturers using search_manufacturers
2. For each promising company:
   a. Scrape their website for detailed info (scrape_company_website)
   b. Check FDA status (get_fda_profile)
   c. Find business contacts (find_contacts)
   d. Map competitors (map_competitors)
   e. Save complete data (save_company)
3. Generate a summary report

RESEARCH PRIORITIES:
- Focus on manufacturers, not distributors
- Prioritize companies with CE Mark (required for Gulf)
- Identify companies WITHOUT existing Gulf presence (opportunity)
- Look for innovative products and strong regulatory status
- Find decision-maker contacts for outreach

Be thorough but efficient. Research 5-8 companies per specialty.
Always save a company before moving to the next one.`

// SpecialtyPrompt phrases the user request for one specialty.
func SpecialtyPrompt(specialty string) string {
	return fmt.Sprintf("Research medical equipment manufacturers in the %q specialty. "+
		"Find promising companies, gather their details, and save each one. "+
		"Finish with a short markdown summary of what you found.", specialty)
}

// encodeResult serializes a tool result for the conversation. Falling
// back to the error string keeps the loop alive if marshaling fails.
func encodeResult(result *tools.Result) string {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Sprintf(`{"success":false,"error":"failed to encode result: %v"}`, err)
	}
	return string(data)
}
