// internal/types/models.go
package types

import (
	"encoding/json"
	"time"
)

type Session struct {
	SessionID    SessionID `json:"session_id" yaml:"session_id"`
	Name         string    `json:"name" yaml:"name"`
	Description  string    `json:"description,omitempty" yaml:"description,omitempty"`
	CreatedAt    Timestamp `json:"created_at" yaml:"created_at"`
	UpdatedAt    Timestamp `json:"updated_at" yaml:"updated_at"`
	IsActive     bool      `json:"is_active" yaml:"is_active"`
	ReportCount  int       `json:"report_count" yaml:"report_count"`
	LastActivity Timestamp `json:"last_activity" yaml:"last_activity"`

	// Provisional marks the placeholder session the client uses before the
	// backend has assigned one. It never leaves the process.
	Provisional bool `json:"-" yaml:"-"`
}

// SessionPatch carries the mutable session fields. Nil fields are left unchanged.
type SessionPatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// CountryRisk is one entry of the world risk map.
type CountryRisk struct {
	RiskLevel   int      `json:"risk_level" yaml:"risk_level"`
	RiskFactors []string `json:"risk_factors,omitempty" yaml:"risk_factors,omitempty"`
	Details     string   `json:"details,omitempty" yaml:"details,omitempty"`
	Type        string   `json:"type,omitempty" yaml:"type,omitempty"`
}

type PoliticalRisk struct {
	Country         string `json:"country" yaml:"country"`
	RiskType        string `json:"risk_type" yaml:"risk_type"`
	LikelihoodScore int    `json:"likelihood_score" yaml:"likelihood_score"`
	Reasoning       string `json:"reasoning" yaml:"reasoning"`
	PublicationDate string `json:"publication_date,omitempty" yaml:"publication_date,omitempty"`
	SourceURL       string `json:"source_url,omitempty" yaml:"source_url,omitempty"`
	SourceTitle     string `json:"source_title" yaml:"source_title"`
}

type ScheduleRisk struct {
	EquipmentID          string   `json:"equipment_id" yaml:"equipment_id"`
	Country              string   `json:"country" yaml:"country"`
	OriginalDeliveryDate string   `json:"original_delivery_date,omitempty" yaml:"original_delivery_date,omitempty"`
	CurrentDeliveryDate  string   `json:"current_delivery_date,omitempty" yaml:"current_delivery_date,omitempty"`
	DelayDays            int      `json:"delay_days" yaml:"delay_days"`
	RiskLevel            int      `json:"risk_level" yaml:"risk_level"`
	RiskFactors          []string `json:"risk_factors" yaml:"risk_factors"`
}

// DashboardData is the payload of GET /api/dashboard.
type DashboardData struct {
	WorldRiskData  map[string]CountryRisk `json:"world_risk_data" yaml:"world_risk_data"`
	PoliticalRisks []PoliticalRisk        `json:"political_risks" yaml:"political_risks"`
	ScheduleRisks  []ScheduleRisk         `json:"schedule_risks" yaml:"schedule_risks"`
}

// Normalize replaces missing fields with empty values so consumers never see nil.
func (d *DashboardData) Normalize() {
	if d.WorldRiskData == nil {
		d.WorldRiskData = map[string]CountryRisk{}
	}
	if d.PoliticalRisks == nil {
		d.PoliticalRisks = []PoliticalRisk{}
	}
	if d.ScheduleRisks == nil {
		d.ScheduleRisks = []ScheduleRisk{}
	}
}

// Clone returns a deep copy.
func (d DashboardData) Clone() DashboardData {
	out := DashboardData{
		WorldRiskData:  make(map[string]CountryRisk, len(d.WorldRiskData)),
		PoliticalRisks: append([]PoliticalRisk{}, d.PoliticalRisks...),
		ScheduleRisks:  make([]ScheduleRisk, len(d.ScheduleRisks)),
	}
	for country, risk := range d.WorldRiskData {
		risk.RiskFactors = append([]string(nil), risk.RiskFactors...)
		out.WorldRiskData[country] = risk
	}
	for i, risk := range d.ScheduleRisks {
		risk.RiskFactors = append([]string(nil), risk.RiskFactors...)
		out.ScheduleRisks[i] = risk
	}
	return out
}

// Snapshot is the dashboard data together with its fetch status. An empty
// Error means the last fetch succeeded.
type Snapshot struct {
	DashboardData
	Loading bool   `json:"loading"`
	Error   string `json:"error,omitempty"`
}

type MessageType string

const (
	MessageTypeUser MessageType = "user"
	MessageTypeBot  MessageType = "bot"
)

type ChatMessage struct {
	ID        MessageID       `json:"id"`
	Type      MessageType     `json:"type"`
	Content   string          `json:"content"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

type ReportType string

const (
	ReportTypePolitical ReportType = "political"
	ReportTypeSchedule  ReportType = "schedule"
	ReportTypeCombined  ReportType = "combined"
	ReportTypeRoute     ReportType = "route"
)

type Report struct {
	ReportID         ReportID   `json:"report_id" yaml:"report_id"`
	SessionID        SessionID  `json:"session_id" yaml:"session_id"`
	ReportType       ReportType `json:"report_type" yaml:"report_type"`
	Title            string     `json:"title" yaml:"title"`
	ExecutiveSummary string     `json:"executive_summary" yaml:"executive_summary"`
	CreatedAt        Timestamp  `json:"created_at" yaml:"created_at"`
	Recommendations  []string   `json:"recommendations,omitempty" yaml:"recommendations,omitempty"`
	RouteAnalysis    string     `json:"route_analysis,omitempty" yaml:"route_analysis,omitempty"`
}

// Response type values returned by POST /api/query.
const (
	ResponseTypeReport    = "report"
	ResponseTypeAssistant = "assistant"
)

// QueryResponse is the payload of POST /api/query.
type QueryResponse struct {
	SessionID SessionID       `json:"session_id,omitempty"`
	Type      string          `json:"type"`
	Response  json.RawMessage `json:"response,omitempty"`
	Report    *Report         `json:"report,omitempty"`

	// Raw holds the undecoded body so it can be attached to the bot message.
	Raw json.RawMessage `json:"-"`
}

// Message returns response.message, or "" when the response carries none.
func (q *QueryResponse) Message() string {
	if len(q.Response) == 0 {
		return ""
	}
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(q.Response, &body); err != nil {
		return ""
	}
	return body.Message
}

// Ack is the loosely-typed acknowledgement returned by write endpoints.
type Ack struct {
	Status    string    `json:"status,omitempty"`
	Message   string    `json:"message,omitempty"`
	Items     int       `json:"items,omitempty"`
	Type      string    `json:"type,omitempty"`
	SessionID SessionID `json:"session_id,omitempty"`
	Report    *Report   `json:"report,omitempty"`
}
