package plan

import "fmt"

// Intake is the validated client-intake document: budget, offer, conversion
// assumptions, audience and compliance constraints. It is owned by an
// upstream collaborator and never mutated here.
type Intake struct {
	BusinessName  string `json:"business_name" yaml:"business_name"`
	Industry      string `json:"industry" yaml:"industry"`
	Geography     string `json:"geography,omitempty" yaml:"geography"`
	OfferName     string `json:"offer_name,omitempty" yaml:"offer_name"`
	AudienceNotes string `json:"audience_notes,omitempty" yaml:"audience_notes"`
	Compliance    string `json:"compliance_notes,omitempty" yaml:"compliance_notes"`

	// Unit-economics assumptions.
	TargetMonthlyBudget     float64 `json:"target_monthly_budget" yaml:"target_monthly_budget"`
	OfferPrice              float64 `json:"offer_price" yaml:"offer_price"`
	TargetCPL               float64 `json:"target_cpl" yaml:"target_cpl"`
	LeadToQualifiedRate     float64 `json:"lead_to_qualified_rate" yaml:"lead_to_qualified_rate"`         // percent
	QualifiedToCustomerRate float64 `json:"qualified_to_customer_rate" yaml:"qualified_to_customer_rate"` // percent
	RetentionMultiplier     float64 `json:"retention_multiplier" yaml:"retention_multiplier"`

	// HasExistingTraffic reports whether any prior paid or organic traffic
	// pool exists. Retargeting realism checks key off this.
	HasExistingTraffic bool `json:"has_existing_traffic" yaml:"has_existing_traffic"`
}

// Validate checks the intake carries the fields the arithmetic model needs.
func (in *Intake) Validate() error {
	if in.TargetMonthlyBudget <= 0 {
		return fmt.Errorf("intake: target monthly budget must be positive")
	}
	if in.TargetCPL <= 0 {
		return fmt.Errorf("intake: target CPL must be positive")
	}
	if in.OfferPrice <= 0 {
		return fmt.Errorf("intake: offer price must be positive")
	}
	if in.LeadToQualifiedRate <= 0 || in.LeadToQualifiedRate > 100 {
		return fmt.Errorf("intake: lead-to-qualified rate out of range: %v", in.LeadToQualifiedRate)
	}
	if in.QualifiedToCustomerRate <= 0 || in.QualifiedToCustomerRate > 100 {
		return fmt.Errorf("intake: qualified-to-customer rate out of range: %v", in.QualifiedToCustomerRate)
	}
	if in.RetentionMultiplier <= 0 {
		return fmt.Errorf("intake: retention multiplier must be positive")
	}
	return nil
}

// ResearchSection is one labeled block of upstream business research.
type ResearchSection struct {
	Title string `json:"title" yaml:"title"`
	Body  string `json:"body" yaml:"body"`
}

// ResearchDocument is the validated upstream business-research document.
type ResearchDocument struct {
	Sections []ResearchSection `json:"sections" yaml:"sections"`
}

// Section returns the body of the named section, or "" if absent.
func (d *ResearchDocument) Section(title string) string {
	for _, s := range d.Sections {
		if s.Title == title {
			return s.Body
		}
	}
	return ""
}
