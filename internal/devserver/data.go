package devserver

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/user/sentrix/internal/types"
)

const dateLayout = "2006-01-02"

// shipment is one uploaded equipment record.
type shipment struct {
	EquipmentID          string `json:"equipment_id"`
	Description          string `json:"description,omitempty"`
	Country              string `json:"country"`
	Supplier             string `json:"supplier,omitempty"`
	OriginalDeliveryDate string `json:"original_delivery_date"`
	CurrentDeliveryDate  string `json:"current_delivery_date"`
	Status               string `json:"status,omitempty"`
}

var sampleShipments = []shipment{
	{"EQ001", "Industrial Pump System", "China", "Shanghai Manufacturing Co.", "2024-02-15", "2024-02-28", "delayed"},
	{"EQ002", "Control Valves", "Germany", "Munich Controls GmbH", "2024-01-30", "2024-01-30", "on_time"},
	{"EQ003", "Steel Pipes", "India", "Mumbai Steel Works", "2024-03-01", "2024-03-15", "delayed"},
	{"EQ004", "Electrical Components", "Japan", "Tokyo Electronics", "2024-02-20", "2024-02-20", "on_time"},
	{"EQ005", "Safety Equipment", "Brazil", "São Paulo Safety", "2024-01-15", "2024-02-05", "delayed"},
}

// politicalSamples is canned news per country. Countries without an entry
// get a generic low-likelihood trade policy risk.
var politicalSamples = map[string]types.PoliticalRisk{
	"China":   {RiskType: "Trade restrictions", LikelihoodScore: 4, Reasoning: "Export controls on industrial components are tightening.", SourceTitle: "Export control update"},
	"India":   {RiskType: "Labor unrest", LikelihoodScore: 3, Reasoning: "Port worker strikes reported in Mumbai.", SourceTitle: "Mumbai port strike"},
	"Brazil":  {RiskType: "Regulatory change", LikelihoodScore: 3, Reasoning: "New customs inspection rules slow clearance.", SourceTitle: "Customs reform"},
	"Germany": {RiskType: "Energy policy", LikelihoodScore: 2, Reasoning: "Energy price caps affect manufacturing output.", SourceTitle: "Energy market report"},
	"Japan":   {RiskType: "Currency volatility", LikelihoodScore: 1, Reasoning: "Yen movements remain within expected range.", SourceTitle: "FX outlook"},
}

var emergingMarkets = map[string]bool{"China": true, "India": true, "Brazil": true}

func (s shipment) delayDays() int {
	orig, err1 := time.Parse(dateLayout, s.OriginalDeliveryDate)
	cur, err2 := time.Parse(dateLayout, s.CurrentDeliveryDate)
	if err1 != nil || err2 != nil {
		return 0
	}
	return int(cur.Sub(orig).Hours() / 24)
}

func scheduleRiskLevel(delay int, status string) int {
	switch {
	case status == "on_time":
		return 1
	case delay <= 7:
		return 2
	case delay <= 14:
		return 3
	case delay <= 30:
		return 4
	default:
		return 5
	}
}

func scheduleRisk(s shipment) types.ScheduleRisk {
	delay := s.delayDays()
	status := s.Status
	if status == "" && delay <= 0 {
		status = "on_time"
	}

	factors := []string{}
	if delay > 0 {
		factors = append(factors, "Delivery delay")
	}
	if delay > 14 {
		factors = append(factors, "Extended delay")
	}
	if emergingMarkets[s.Country] {
		factors = append(factors, "Emerging market risks")
	}
	if delay > 30 {
		factors = append(factors, "Critical delay")
	}

	return types.ScheduleRisk{
		EquipmentID:          s.EquipmentID,
		Country:              s.Country,
		OriginalDeliveryDate: s.OriginalDeliveryDate,
		CurrentDeliveryDate:  s.CurrentDeliveryDate,
		DelayDays:            delay,
		RiskLevel:            scheduleRiskLevel(delay, status),
		RiskFactors:          factors,
	}
}

// dashboardLocked computes the dashboard from the active shipments.
// Caller must hold s.mu.
func (s *Server) dashboardLocked() types.DashboardData {
	active := s.shipments
	if active == nil {
		active = sampleShipments
	}

	data := types.DashboardData{}
	data.Normalize()

	seen := map[string]bool{}
	countries := []string{}
	for _, sh := range active {
		data.ScheduleRisks = append(data.ScheduleRisks, scheduleRisk(sh))
		if sh.Country != "" && !seen[sh.Country] {
			seen[sh.Country] = true
			countries = append(countries, sh.Country)
		}
	}
	sort.Strings(countries)

	for _, c := range countries {
		p, ok := politicalSamples[c]
		if !ok {
			p = types.PoliticalRisk{RiskType: "Trade policy", LikelihoodScore: 2, Reasoning: "No recent events reported.", SourceTitle: "General outlook"}
		}
		p.Country = c
		data.PoliticalRisks = append(data.PoliticalRisks, p)
		data.WorldRiskData[c] = types.CountryRisk{RiskLevel: p.LikelihoodScore, Type: "political", Details: p.Reasoning}
	}
	for _, r := range data.ScheduleRisks {
		cr := data.WorldRiskData[r.Country]
		if r.RiskLevel > cr.RiskLevel {
			cr.RiskLevel = r.RiskLevel
			if cr.Type == "" {
				cr.Type = "schedule"
			}
		}
		cr.RiskFactors = mergeFactors(cr.RiskFactors, r.RiskFactors)
		data.WorldRiskData[r.Country] = cr
	}
	return data
}

func mergeFactors(a, b []string) []string {
	out := append([]string(nil), a...)
	for _, f := range b {
		dup := false
		for _, g := range out {
			if f == g {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, f)
		}
	}
	return out
}

// intent picks the kind of answer for a query.
func intent(query string) string {
	q := strings.ToLower(query)
	has := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(q, w) {
				return true
			}
		}
		return false
	}
	switch {
	case has("combined") || (has("report") && has("both", "all")):
		return "combined"
	case has("political", "geopolit", "tariff", "sanction"):
		return "political"
	case has("schedule", "delivery", "delay", "logistics", "shipping"):
		return "schedule"
	case has("report"):
		return "combined"
	default:
		return "assistant"
	}
}

// buildReportLocked generates a report of kind for sessionID from the
// current dashboard. Caller must hold s.mu.
func (s *Server) buildReportLocked(kind types.ReportType, sessionID types.SessionID, id types.ReportID) types.Report {
	data := s.dashboardLocked()

	var high []string
	for _, c := range sortedCountries(data.WorldRiskData) {
		if data.WorldRiskData[c].RiskLevel >= 3 {
			high = append(high, c)
		}
	}
	delayed := 0
	for _, r := range data.ScheduleRisks {
		if r.DelayDays > 0 {
			delayed++
		}
	}

	rep := types.Report{
		ReportID:   id,
		SessionID:  sessionID,
		ReportType: kind,
		CreatedAt:  types.NewTimestamp(s.now()),
	}
	switch kind {
	case types.ReportTypePolitical:
		rep.Title = "Political Risk Assessment Report"
		rep.ExecutiveSummary = fmt.Sprintf("Analyzed %d countries; elevated political risk in %s.", len(data.PoliticalRisks), listOrNone(high))
		rep.Recommendations = []string{"Monitor trade policy announcements weekly", "Identify alternate suppliers outside high-risk countries"}
	case types.ReportTypeSchedule:
		rep.Title = "Schedule Risk Assessment Report"
		rep.ExecutiveSummary = fmt.Sprintf("%d of %d equipment items are delayed.", delayed, len(data.ScheduleRisks))
		rep.Recommendations = []string{"Expedite delayed items with suppliers", "Add schedule buffer for emerging-market shipments"}
	default:
		rep.ReportType = types.ReportTypeCombined
		rep.Title = "Comprehensive Risk Assessment Report"
		rep.ExecutiveSummary = fmt.Sprintf("Political risk elevated in %s; %d of %d equipment items delayed.", listOrNone(high), delayed, len(data.ScheduleRisks))
		rep.Recommendations = []string{"Prioritize mitigation in countries with both political and schedule risk", "Review contingency plans monthly"}
	}
	return rep
}

func sortedCountries(m map[string]types.CountryRisk) []string {
	out := make([]string, 0, len(m))
	for c := range m {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "no countries"
	}
	return strings.Join(items, ", ")
}

func assistantReply(query string) string {
	q := strings.ToLower(query)
	switch {
	case strings.Contains(q, "route") || strings.Contains(q, "from"):
		return "Please specify origin and destination. Example: 'Route from Shanghai to Los Angeles'"
	case strings.Contains(q, "risk") || strings.Contains(q, "supply"):
		return "I can generate a political, schedule, or combined risk report. Which one would you like?"
	default:
		return "I can only help with supply chain risk questions."
	}
}
