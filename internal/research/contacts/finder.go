// Package contacts finds business development contacts for a company
// through Hunter.io and Apollo.io. Each backend is optional; when no
// people surface but a backend reported the domain's email pattern, the
// finder suggests generic role addresses instead.
package contacts

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/gulfmed/scout/internal/logging"
)

// Contact is a unified person record from any backend.
type Contact struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Title      string `json:"title,omitempty"`
	Department string `json:"department,omitempty"`
	Confidence string `json:"confidence,omitempty"`
	LinkedIn   string `json:"linkedin,omitempty"`
	Source     string `json:"source"`
}

// Result is the combined outcome of a contact search.
type Result struct {
	Domain          string    `json:"domain"`
	SourcesChecked  []string  `json:"sources_checked"`
	Contacts        []Contact `json:"contacts"`
	EmailPattern    string    `json:"email_pattern,omitempty"`
	GenericEmails   []string  `json:"generic_emails"`
	SuggestedEmails []Contact `json:"suggested_emails,omitempty"`
	TotalContacts   int       `json:"total_contacts"`
}

// Finder combines whichever contact backends are configured. A nil
// backend is simply skipped.
type Finder struct {
	hunter *HunterClient
	apollo *ApolloClient
	logger *logging.Logger
}

// NewFinder creates a contact finder with the given backends.
func NewFinder(hunter *HunterClient, apollo *ApolloClient) *Finder {
	return &Finder{
		hunter: hunter,
		apollo: apollo,
		logger: logging.GetLogger("research.contacts"),
	}
}

// FindContacts looks up people at a company website. Backend failures
// are logged and swallowed; the result carries whatever was found.
func (f *Finder) FindContacts(ctx context.Context, website string, targetTitles []string) *Result {
	domain := ExtractDomain(website)
	result := &Result{
		Domain:         domain,
		SourcesChecked: []string{},
		Contacts:       []Contact{},
		GenericEmails:  []string{},
	}

	seen := make(map[string]bool)

	if f.hunter != nil {
		hr, err := f.hunter.DomainSearch(ctx, domain, 15)
		result.SourcesChecked = append(result.SourcesChecked, "hunter.io")
		if err != nil {
			f.logger.WarnWithFields("hunter lookup failed",
				logging.Field("domain", domain), logging.Field("error", err.Error()))
		} else {
			result.EmailPattern = hr.Pattern
			for _, e := range hr.Emails {
				if e.Email == "" || seen[e.Email] {
					continue
				}
				seen[e.Email] = true
				if e.Type == "generic" {
					result.GenericEmails = append(result.GenericEmails, e.Email)
					continue
				}
				result.Contacts = append(result.Contacts, Contact{
					Name:       strings.TrimSpace(e.FirstName + " " + e.LastName),
					Email:      e.Email,
					Title:      e.Position,
					Department: e.Department,
					Confidence: fmt.Sprintf("%d", e.Confidence),
					LinkedIn:   e.LinkedIn,
					Source:     "hunter.io",
				})
			}
		}
	}

	if f.apollo != nil {
		people, err := f.apollo.SearchContacts(ctx, domain, targetTitles, 10)
		result.SourcesChecked = append(result.SourcesChecked, "apollo.io")
		if err != nil {
			f.logger.WarnWithFields("apollo lookup failed",
				logging.Field("domain", domain), logging.Field("error", err.Error()))
		} else {
			for _, p := range people {
				if p.Email == "" || seen[p.Email] {
					continue
				}
				seen[p.Email] = true
				result.Contacts = append(result.Contacts, Contact{
					Name:     p.Name,
					Email:    p.Email,
					Title:    p.Title,
					LinkedIn: p.LinkedIn,
					Source:   "apollo.io",
				})
			}
		}
	}

	// suggestions are only worth making when a backend confirmed the
	// domain has a known email pattern
	if len(result.Contacts) == 0 && result.EmailPattern != "" {
		result.SuggestedEmails = suggestGenericEmails(domain)
	}
	result.TotalContacts = len(result.Contacts)
	return result
}

// ExtractDomain derives a bare domain from a website URL.
func ExtractDomain(website string) string {
	site := strings.TrimSpace(website)
	if !strings.HasPrefix(site, "http://") && !strings.HasPrefix(site, "https://") {
		site = "https://" + site
	}
	parsed, err := url.Parse(site)
	if err != nil || parsed.Host == "" {
		return strings.TrimPrefix(strings.Split(website, "/")[0], "www.")
	}
	return strings.TrimPrefix(parsed.Host, "www.")
}

// suggestGenericEmails proposes the role addresses worth trying when no
// individual contacts surfaced.
func suggestGenericEmails(domain string) []Contact {
	roles := []string{"info", "sales", "contact", "export", "international", "bd", "partnerships"}
	suggestions := make([]Contact, 0, len(roles))
	for _, role := range roles {
		suggestions = append(suggestions, Contact{
			Email:      role + "@" + domain,
			Confidence: "medium",
			Source:     "pattern",
		})
	}
	return suggestions
}
