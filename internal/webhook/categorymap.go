package webhook

import (
	"strings"

	"github.com/ignite/outreach-sync/internal/domain"
)

// categoryMapping is a canonical (category, sentiment) pair.
type categoryMapping struct {
	category  domain.ReplyCategory
	sentiment domain.ReplySentiment
}

// fixedCategoryTable is the literal lead-category mapping. "Wrong Person"
// maps to (referral, neutral) while "Referral" itself maps to (referral,
// positive) — both entries are kept verbatim; the inconsistency between
// them is a known, unresolved ambiguity, not a bug; see DESIGN.md's Open
// Question #3. Do not "fix" it by merging the two entries.
var fixedCategoryTable = map[string]categoryMapping{
	"interested":       {domain.CategoryInterested, domain.SentimentPositive},
	"meeting request":  {domain.CategoryMeetingRequest, domain.SentimentPositive},
	"meeting":          {domain.CategoryMeetingRequest, domain.SentimentPositive},
	"positive":         {domain.CategoryInterested, domain.SentimentPositive},
	"not interested":   {domain.CategoryNotInterested, domain.SentimentNegative},
	"out of office":    {domain.CategoryOutOfOffice, domain.SentimentNeutral},
	"ooo":              {domain.CategoryOutOfOffice, domain.SentimentNeutral},
	"wrong person":     {domain.CategoryReferral, domain.SentimentNeutral},
	"unsubscribed":     {domain.CategoryUnsubscribe, domain.SentimentNegative},
	"do not contact":   {domain.CategoryUnsubscribe, domain.SentimentNegative},
	"neutral":          {domain.CategoryNeutral, domain.SentimentNeutral},
	"question":         {domain.CategoryNeutral, domain.SentimentNeutral},
	"not now":          {domain.CategoryNeutral, domain.SentimentNeutral},
	"bad timing":       {domain.CategoryNeutral, domain.SentimentNeutral},
	"referral":         {domain.CategoryReferral, domain.SentimentPositive},
	"auto reply":       {domain.CategoryNeutral, domain.SentimentNeutral},
}

// substringFallbacks is checked, in order, when a provider's category text
// doesn't exactly match fixedCategoryTable. First match wins.
var substringFallbacks = []struct {
	substr string
	mapping categoryMapping
}{
	{"not interested", categoryMapping{domain.CategoryNotInterested, domain.SentimentNegative}},
	{"interest", categoryMapping{domain.CategoryInterested, domain.SentimentPositive}},
	{"meeting", categoryMapping{domain.CategoryMeetingRequest, domain.SentimentPositive}},
	{"office", categoryMapping{domain.CategoryOutOfOffice, domain.SentimentNeutral}},
	{"unsubscrib", categoryMapping{domain.CategoryUnsubscribe, domain.SentimentNegative}},
	{"do not contact", categoryMapping{domain.CategoryUnsubscribe, domain.SentimentNegative}},
	{"referral", categoryMapping{domain.CategoryReferral, domain.SentimentPositive}},
	{"wrong person", categoryMapping{domain.CategoryReferral, domain.SentimentNeutral}},
}

// MapCategory resolves a provider's free-text lead category to a canonical
// (category, sentiment) pair, checking the fixed table first, then a
// case-insensitive substring fallback, defaulting to (neutral, neutral).
func MapCategory(raw string) (domain.ReplyCategory, domain.ReplySentiment) {
	key := strings.ToLower(strings.TrimSpace(raw))
	if m, ok := fixedCategoryTable[key]; ok {
		return m.category, m.sentiment
	}
	for _, f := range substringFallbacks {
		if strings.Contains(key, f.substr) {
			return f.mapping.category, f.mapping.sentiment
		}
	}
	return domain.CategoryNeutral, domain.SentimentNeutral
}
