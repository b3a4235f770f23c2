package domain

// EmailStatus is the deliverability state of a Contact's address.
type EmailStatus string

const (
	EmailStatusOK      EmailStatus = "ok"
	EmailStatusBounced EmailStatus = "bounced"
)

// personalEmailDomains are excluded from lazy Company creation — a contact
// at gmail.com doesn't imply a "company" named gmail.com.
var personalEmailDomains = map[string]bool{
	"gmail.com":   true,
	"yahoo.com":   true,
	"hotmail.com": true,
	"outlook.com": true,
	"icloud.com":  true,
	"aol.com":     true,
	"live.com":    true,
	"proton.me":   true,
	"protonmail.com": true,
}

// IsPersonalEmailDomain reports whether domain is a well-known personal
// email provider, excluded from lazy Company creation.
func IsPersonalEmailDomain(domain string) bool {
	return personalEmailDomains[domain]
}

// Company is created lazily from a Contact's email domain, excluding
// well-known personal domains. Unique by (WorkspaceID, Domain).
type Company struct {
	ID          string `json:"id" db:"id"`
	WorkspaceID string `json:"workspace_id" db:"workspace_id"`
	Domain      string `json:"domain" db:"domain"`
	Name        string `json:"name" db:"name"`
}

// Contact is unique by (WorkspaceID, Email). It may belong to a Company.
type Contact struct {
	ID          string      `json:"id" db:"id"`
	WorkspaceID string      `json:"workspace_id" db:"workspace_id"`
	Email       string      `json:"email" db:"email"`
	CompanyID   *string     `json:"company_id,omitempty" db:"company_id"`
	EmailStatus EmailStatus `json:"email_status" db:"email_status"`
	DoNotEmail  bool        `json:"do_not_email" db:"do_not_email"`
}

// MessageThread is an append-only log of reply bodies captured from
// webhooks.
type MessageThread struct {
	ID         string `json:"id" db:"id"`
	ActivityID string `json:"activity_id" db:"activity_id"`
	Body       string `json:"body" db:"body"`
	ReceivedAt string `json:"received_at" db:"received_at"`
}

// LinkClick is a single tracked click against an EmailActivity.
type LinkClick struct {
	ID         string `json:"id" db:"id"`
	ActivityID string `json:"activity_id" db:"activity_id"`
	URL        string `json:"url" db:"url"`
	ClickedAt  string `json:"clicked_at" db:"clicked_at"`
}
