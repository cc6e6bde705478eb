package devserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/user/sentrix/internal/types"
)

// registerRoutes sets up the API routes on the gin router.
func registerRoutes(router *gin.Engine, s *Server) {
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "SentriX API is running"})
	})

	api := router.Group("/api")
	api.GET("/dashboard", s.handleDashboard)
	api.POST("/query", s.handleQuery)

	api.GET("/reports", s.handleReports)
	api.GET("/reports/:report_id", s.handleReport)
	api.GET("/reports/:report_id/download", s.handleDownload)
	api.POST("/report/combined", s.handleCombined)

	api.POST("/shipment/upload", s.handleUpload)
	api.POST("/shipment/reset", s.handleReset)

	api.GET("/sessions", s.handleListSessions)
	api.POST("/sessions", s.handleCreateSession)
	api.GET("/sessions/:session_id", s.handleGetSession)
	api.PUT("/sessions/:session_id", s.handleUpdateSession)
	api.DELETE("/sessions/:session_id", s.handleDeleteSession)
	api.GET("/sessions/:session_id/reports", s.handleSessionReports)
}

func notFound(c *gin.Context, what string) {
	c.JSON(http.StatusNotFound, gin.H{"detail": what + " not found"})
}

func (s *Server) handleDashboard(c *gin.Context) {
	s.mu.Lock()
	data := s.dashboardLocked()
	s.mu.Unlock()
	c.JSON(http.StatusOK, data)
}

type queryRequest struct {
	Query     string          `json:"query"`
	SessionID types.SessionID `json:"session_id"`
}

func (s *Server) handleQuery(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Query) == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "query is required"})
		return
	}
	if req.SessionID == "" {
		req.SessionID = types.SessionID(uuid.NewString())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked(req.SessionID)

	kind := intent(req.Query)
	if kind == "assistant" {
		c.JSON(http.StatusOK, gin.H{
			"session_id": req.SessionID,
			"type":       types.ResponseTypeAssistant,
			"response": gin.H{
				"message":   assistantReply(req.Query),
				"timestamp": s.now().Format("2006-01-02T15:04:05"),
				"agent":     "assistant",
			},
		})
		return
	}

	rep := s.buildReportLocked(types.ReportType(kind), req.SessionID, types.ReportID(uuid.NewString()))
	s.reports = append(s.reports, rep)
	c.JSON(http.StatusOK, gin.H{"session_id": req.SessionID, "report": rep, "type": types.ResponseTypeReport})
}

func (s *Server) handleReports(c *gin.Context) {
	s.mu.Lock()
	reports := append([]types.Report{}, s.reports...)
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

func (s *Server) findReportLocked(id types.ReportID) (types.Report, bool) {
	for _, r := range s.reports {
		if r.ReportID == id {
			return r, true
		}
	}
	return types.Report{}, false
}

func (s *Server) handleReport(c *gin.Context) {
	s.mu.Lock()
	rep, ok := s.findReportLocked(types.ReportID(c.Param("report_id")))
	s.mu.Unlock()
	if !ok {
		notFound(c, "Report")
		return
	}
	c.JSON(http.StatusOK, rep)
}

func (s *Server) handleDownload(c *gin.Context) {
	id := c.Param("report_id")
	s.mu.Lock()
	rep, ok := s.findReportLocked(types.ReportID(id))
	s.mu.Unlock()
	if !ok {
		notFound(c, "Report")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="sentrix_report_%s.pdf"`, id))
	c.Data(http.StatusOK, "application/pdf", reportDocument(rep))
}

// reportDocument is a minimal stand-in for the rendered report file.
func reportDocument(rep types.Report) []byte {
	var b strings.Builder
	b.WriteString("%PDF-1.4\n")
	fmt.Fprintf(&b, "%% %s\n%% %s\n", rep.Title, rep.ExecutiveSummary)
	for _, rec := range rep.Recommendations {
		fmt.Fprintf(&b, "%% - %s\n", rec)
	}
	b.WriteString("%%EOF\n")
	return []byte(b.String())
}

func (s *Server) handleCombined(c *gin.Context) {
	sessionID := types.SessionID(uuid.NewString())

	s.mu.Lock()
	rep := s.buildReportLocked(types.ReportTypeCombined, sessionID, types.ReportID(uuid.NewString()))
	s.reports = append(s.reports, rep)
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{"session_id": sessionID, "report": rep, "type": types.ResponseTypeReport})
}

func (s *Server) handleUpload(c *gin.Context) {
	var body any
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid JSON"})
		return
	}

	var items []any
	switch v := body.(type) {
	case []any:
		items = v
	case map[string]any:
		items, _ = v["data"].([]any)
	}
	if items == nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Body must contain a 'data' array or be an array itself"})
		return
	}

	records := make([]shipment, 0, len(items))
	for i, item := range items {
		raw, _ := json.Marshal(item)
		var sh shipment
		if err := json.Unmarshal(raw, &sh); err != nil || sh.EquipmentID == "" || sh.Country == "" {
			c.JSON(http.StatusBadRequest, gin.H{"detail": fmt.Sprintf("item %d: equipment_id and country are required", i)})
			return
		}
		records = append(records, sh)
	}

	s.mu.Lock()
	s.shipments = records
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"status": "ok", "items": len(records)})
}

func (s *Server) handleReset(c *gin.Context) {
	s.mu.Lock()
	s.shipments = nil
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// touchLocked bumps a known session's activity time. Caller must hold s.mu.
func (s *Server) touchLocked(id types.SessionID) {
	if sess, ok := s.sessions[id]; ok {
		sess.LastActivity = types.NewTimestamp(s.now())
	}
}

// sessionViewLocked returns a copy of sess with its report count filled in.
// Caller must hold s.mu.
func (s *Server) sessionViewLocked(sess *types.Session) types.Session {
	out := *sess
	out.ReportCount = 0
	for _, r := range s.reports {
		if r.SessionID == sess.SessionID {
			out.ReportCount++
		}
	}
	return out
}

func (s *Server) handleListSessions(c *gin.Context) {
	s.mu.Lock()
	list := make([]types.Session, 0, len(s.order))
	for _, id := range s.order {
		list = append(list, s.sessionViewLocked(s.sessions[id]))
	}
	s.mu.Unlock()

	// Most recently created first.
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt.Time)
	})
	c.JSON(http.StatusOK, gin.H{"sessions": list})
}

type createSessionRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Server) handleCreateSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "invalid session body"})
		return
	}

	now := s.now()
	if strings.TrimSpace(req.Name) == "" {
		req.Name = "Session " + now.Format("15:04:05")
	}
	sess := &types.Session{
		SessionID:    types.SessionID(uuid.NewString()),
		Name:         req.Name,
		Description:  req.Description,
		CreatedAt:    types.NewTimestamp(now),
		UpdatedAt:    types.NewTimestamp(now),
		IsActive:     true,
		LastActivity: types.NewTimestamp(now),
	}

	s.mu.Lock()
	s.sessions[sess.SessionID] = sess
	s.order = append(s.order, sess.SessionID)
	view := s.sessionViewLocked(sess)
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{"session": view, "message": "Session created successfully"})
}

func (s *Server) handleGetSession(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[types.SessionID(c.Param("session_id"))]
	if !ok {
		notFound(c, "Session")
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": s.sessionViewLocked(sess)})
}

type updateSessionRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

func (s *Server) handleUpdateSession(c *gin.Context) {
	var req updateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "invalid session body"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[types.SessionID(c.Param("session_id"))]
	if !ok {
		notFound(c, "Session")
		return
	}
	if req.Name != nil {
		sess.Name = *req.Name
	}
	if req.Description != nil {
		sess.Description = *req.Description
	}
	if req.IsActive != nil {
		sess.IsActive = *req.IsActive
	}
	sess.UpdatedAt = types.NewTimestamp(s.now())
	c.JSON(http.StatusOK, gin.H{"session": s.sessionViewLocked(sess), "message": "Session updated successfully"})
}

func (s *Server) handleDeleteSession(c *gin.Context) {
	id := types.SessionID(c.Param("session_id"))

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		notFound(c, "Session")
		return
	}
	delete(s.sessions, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "Session deleted successfully"})
}

func (s *Server) handleSessionReports(c *gin.Context) {
	id := types.SessionID(c.Param("session_id"))

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		notFound(c, "Session")
		return
	}
	reports := []types.Report{}
	for _, r := range s.reports {
		if r.SessionID == id {
			reports = append(reports, r)
		}
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports, "session": s.sessionViewLocked(sess)})
}
