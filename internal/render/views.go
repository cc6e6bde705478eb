package render

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/user/sentrix/internal/types"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	dateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	botStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	currentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")).
			Bold(true)
)

// riskColors maps risk levels 1..5 to increasingly alarming colors.
var riskColors = map[int]lipgloss.Color{
	1: lipgloss.Color("42"),
	2: lipgloss.Color("148"),
	3: lipgloss.Color("220"),
	4: lipgloss.Color("208"),
	5: lipgloss.Color("196"),
}

func riskBadge(level int) string {
	color, ok := riskColors[level]
	if !ok {
		color = lipgloss.Color("243")
	}
	return lipgloss.NewStyle().Foreground(color).Bold(true).Render(strconv.Itoa(level))
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func truncate(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-3]) + "..."
}

func (r *Renderer) table() *tabwriter.Writer {
	return tabwriter.NewWriter(r.w, 0, 0, 3, ' ', 0)
}

// Sessions writes the roster, marking current.
func (r *Renderer) Sessions(list []types.Session, current types.SessionID) {
	if len(list) == 0 {
		r.println(headerStyle.Render("No sessions found"))
		return
	}
	r.println(headerStyle.Render(fmt.Sprintf("%d session(s)", len(list))))

	w := r.table()
	_, _ = fmt.Fprintln(w, " \t"+titleStyle.Render("ID")+"\t"+titleStyle.Render("Name")+"\t"+titleStyle.Render("Reports")+"\t"+titleStyle.Render("Last activity"))
	for _, s := range list {
		marker := " "
		name := truncate(s.Name, 40)
		if s.SessionID == current {
			marker = currentStyle.Render("*")
			name = currentStyle.Render(name)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			marker, idStyle.Render(string(s.SessionID)), name, s.ReportCount, dateStyle.Render(formatTime(s.LastActivity.Time)))
	}
	_ = w.Flush()
}

// Session writes one session's details.
func (r *Renderer) Session(s types.Session) {
	r.println(titleStyle.Render(s.Name))
	w := r.table()
	_, _ = fmt.Fprintf(w, "ID\t%s\n", s.SessionID)
	if s.Description != "" {
		_, _ = fmt.Fprintf(w, "Description\t%s\n", s.Description)
	}
	_, _ = fmt.Fprintf(w, "Created\t%s\n", formatTime(s.CreatedAt.Time))
	_, _ = fmt.Fprintf(w, "Updated\t%s\n", formatTime(s.UpdatedAt.Time))
	_, _ = fmt.Fprintf(w, "Reports\t%d\n", s.ReportCount)
	if s.Provisional {
		_, _ = fmt.Fprintf(w, "Status\tprovisional (not yet known to the backend)\n")
	}
	_ = w.Flush()
}

// Reports writes a report list.
func (r *Renderer) Reports(list []types.Report) {
	if len(list) == 0 {
		r.println(headerStyle.Render("No reports found"))
		return
	}
	r.println(headerStyle.Render(fmt.Sprintf("%d report(s)", len(list))))

	w := r.table()
	_, _ = fmt.Fprintln(w, titleStyle.Render("ID")+"\t"+titleStyle.Render("Type")+"\t"+titleStyle.Render("Title")+"\t"+titleStyle.Render("Created"))
	for _, rep := range list {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			idStyle.Render(string(rep.ReportID)), rep.ReportType, truncate(rep.Title, 50), dateStyle.Render(formatTime(rep.CreatedAt.Time)))
	}
	_ = w.Flush()
}

// Report writes one report with its summary rendered as markdown.
func (r *Renderer) Report(rep types.Report) {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", rep.Title)
	fmt.Fprintf(&b, "*%s report %s, %s*\n\n", rep.ReportType, rep.ReportID, formatTime(rep.CreatedAt.Time))
	if rep.ExecutiveSummary != "" {
		fmt.Fprintf(&b, "## Executive summary\n\n%s\n\n", ToMarkdown(rep.ExecutiveSummary))
	}
	if rep.RouteAnalysis != "" {
		fmt.Fprintf(&b, "## Route analysis\n\n%s\n\n", ToMarkdown(rep.RouteAnalysis))
	}
	if len(rep.Recommendations) > 0 {
		b.WriteString("## Recommendations\n\n")
		for _, rec := range rep.Recommendations {
			fmt.Fprintf(&b, "- %s\n", rec)
		}
	}
	_, _ = fmt.Fprint(r.w, r.Markdown(b.String()))
}

// Dashboard writes a dashboard snapshot.
func (r *Renderer) Dashboard(snap types.Snapshot) {
	if snap.Loading {
		r.println(dateStyle.Render("Loading dashboard..."))
	}
	if snap.Error != "" {
		r.println(errorStyle.Render(snap.Error))
	}

	r.println(headerStyle.Render(fmt.Sprintf("World risk (%d countries)", len(snap.WorldRiskData))))
	countries := make([]string, 0, len(snap.WorldRiskData))
	for c := range snap.WorldRiskData {
		countries = append(countries, c)
	}
	sort.Slice(countries, func(i, j int) bool {
		a, b := snap.WorldRiskData[countries[i]], snap.WorldRiskData[countries[j]]
		if a.RiskLevel != b.RiskLevel {
			return a.RiskLevel > b.RiskLevel
		}
		return countries[i] < countries[j]
	})
	w := r.table()
	for _, c := range countries {
		risk := snap.WorldRiskData[c]
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", c, riskBadge(risk.RiskLevel), truncate(strings.Join(risk.RiskFactors, ", "), 60))
	}
	_ = w.Flush()
	r.println("")

	r.println(headerStyle.Render(fmt.Sprintf("Political risks (%d)", len(snap.PoliticalRisks))))
	w = r.table()
	for _, p := range snap.PoliticalRisks {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.Country, p.RiskType, riskBadge(p.LikelihoodScore), truncate(p.SourceTitle, 50))
	}
	_ = w.Flush()
	r.println("")

	r.println(headerStyle.Render(fmt.Sprintf("Schedule risks (%d)", len(snap.ScheduleRisks))))
	w = r.table()
	for _, s := range snap.ScheduleRisks {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d days\n", s.EquipmentID, s.Country, riskBadge(s.RiskLevel), s.DelayDays)
	}
	_ = w.Flush()
}

// Message writes one chat message. Bot content is converted from HTML if
// needed and rendered as markdown.
func (r *Renderer) Message(msg types.ChatMessage) {
	stamp := dateStyle.Render(msg.Timestamp.Local().Format("15:04:05"))
	if msg.Type == types.MessageTypeUser {
		r.printf("%s %s\n%s\n", userStyle.Render("You"), stamp, msg.Content)
		return
	}
	r.printf("%s %s\n%s", botStyle.Render("SentriX"), stamp, r.Markdown(ToMarkdown(msg.Content)))
	if r.md == nil {
		r.println("")
	}
}
