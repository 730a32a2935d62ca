package plan

import "testing"

func validIntake() Intake {
	return Intake{
		BusinessName:            "Acme",
		TargetMonthlyBudget:     5000,
		OfferPrice:              100,
		TargetCPL:               75,
		LeadToQualifiedRate:     15,
		QualifiedToCustomerRate: 25,
		RetentionMultiplier:     12,
	}
}

func TestIntakeValidate(t *testing.T) {
	in := validIntake()
	if err := in.Validate(); err != nil {
		t.Fatalf("valid intake rejected: %v", err)
	}

	mutations := []struct {
		name string
		mut  func(*Intake)
	}{
		{"zero budget", func(i *Intake) { i.TargetMonthlyBudget = 0 }},
		{"zero CPL", func(i *Intake) { i.TargetCPL = 0 }},
		{"zero offer price", func(i *Intake) { i.OfferPrice = 0 }},
		{"rate over 100", func(i *Intake) { i.LeadToQualifiedRate = 150 }},
		{"zero conversion", func(i *Intake) { i.QualifiedToCustomerRate = 0 }},
		{"zero retention", func(i *Intake) { i.RetentionMultiplier = 0 }},
	}
	for _, tc := range mutations {
		bad := validIntake()
		tc.mut(&bad)
		if err := bad.Validate(); err == nil {
			t.Errorf("%s: expected a validation error", tc.name)
		}
	}
}

func TestSectionValidation(t *testing.T) {
	empty := &PlatformStrategySection{}
	if err := empty.Validate(); err == nil {
		t.Error("empty platform strategy accepted")
	}

	badFunnel := &AudienceSection{Segments: []AudienceSegment{{Name: "s", FunnelPosition: "lukewarm"}}}
	if err := badFunnel.Validate(); err == nil {
		t.Error("invalid funnel position accepted")
	}

	badRisk := &RiskSection{Risks: []Risk{{Category: "x", Probability: 6, Impact: 3}}}
	if err := badRisk.Validate(); err == nil {
		t.Error("probability 6 accepted")
	}

	noNaming := &CampaignStructure{Campaigns: []CampaignTemplate{{Name: "c", Platform: "Meta", DailyBudget: 10}}}
	if err := noNaming.Validate(); err == nil {
		t.Error("empty naming pattern accepted")
	}
}

func TestResearchDocumentSection(t *testing.T) {
	doc := &ResearchDocument{Sections: []ResearchSection{
		{Title: "Market", Body: "growing"},
	}}
	if got := doc.Section("Market"); got != "growing" {
		t.Errorf("Section(Market) = %q", got)
	}
	if got := doc.Section("Absent"); got != "" {
		t.Errorf("Section(Absent) = %q, want empty", got)
	}
}

func TestPlatformNames(t *testing.T) {
	s := &PlatformStrategySection{Platforms: []PlatformStrategy{
		{Platform: "Meta"}, {Platform: "Google"},
	}}
	names := s.PlatformNames()
	if len(names) != 2 || names[0] != "Meta" || names[1] != "Google" {
		t.Errorf("names = %v", names)
	}
}
