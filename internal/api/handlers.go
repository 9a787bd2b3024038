// Package api exposes HTTP handlers for the tracker service.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"example.com/fittrack/internal/domain"
	"example.com/fittrack/internal/export"
	"example.com/fittrack/internal/session"
)

// Handler coordinates HTTP requests with the domain service and the live
// session manager.
type Handler struct {
	service  *domain.Service
	sessions *session.Manager
}

// NewHandler builds a Handler.
func NewHandler(service *domain.Service, sessions *session.Manager) *Handler {
	return &Handler{service: service, sessions: sessions}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/activities", h.activities)
	mux.HandleFunc("/v1/activities/", h.activityByID)
	mux.HandleFunc("/v1/sessions/", h.sessionAction)
	mux.HandleFunc("/v1/users/", h.userResource)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) activities(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.saveActivity(w, r)
	case http.MethodGet:
		h.listActivities(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) activityByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/activities/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing activity id")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.getActivity(w, r, id)
	case http.MethodPut:
		h.updateActivity(w, r, id)
	case http.MethodDelete:
		h.deleteActivity(w, r, id)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) saveActivity(w http.ResponseWriter, r *http.Request) {
	var req SaveActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	activity := req.toActivity()
	profile, err := h.service.SaveActivity(r.Context(), activity)
	if err != nil && !errors.Is(err, domain.ErrStatsRecompute) {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, saveResponse(activity, profile, err))
}

// saveResponse assembles the body for a completed save. The activity record
// is always present: a recompute failure after the save stood leaves the
// assigned id in the response so a retry overwrites instead of duplicating,
// with the stale-stats condition carried as a warning.
func saveResponse(activity *domain.Activity, profile *domain.UserProfile, err error) SaveActivityResponse {
	resp := SaveActivityResponse{Activity: toActivityView(*activity)}
	if profile != nil {
		view := toProfileView(*profile)
		resp.Profile = &view
	}
	if err != nil {
		resp.Warning = err.Error()
	}
	return resp
}

func (h *Handler) getActivity(w http.ResponseWriter, r *http.Request, id string) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "missing user_id parameter")
		return
	}

	activity, err := h.service.GetActivity(r.Context(), userID, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toActivityView(*activity))
}

func (h *Handler) updateActivity(w http.ResponseWriter, r *http.Request, id string) {
	var req SaveActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	activity := req.toActivity()
	activity.ID = id
	if err := h.service.UpdateActivity(r.Context(), activity); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toActivityView(*activity))
}

func (h *Handler) deleteActivity(w http.ResponseWriter, r *http.Request, id string) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "missing user_id parameter")
		return
	}

	if err := h.service.DeleteActivity(r.Context(), userID, id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listActivities(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "missing user_id parameter")
		return
	}

	var (
		activities []domain.Activity
		err        error
	)
	startRaw := r.URL.Query().Get("start_millis")
	endRaw := r.URL.Query().Get("end_millis")
	if startRaw != "" || endRaw != "" {
		start, perr := parseMillis(startRaw, 0)
		if perr != nil {
			writeError(w, http.StatusBadRequest, "validation_failed", "invalid start_millis")
			return
		}
		end, perr := parseMillis(endRaw, int64(1)<<62)
		if perr != nil {
			writeError(w, http.StatusBadRequest, "validation_failed", "invalid end_millis")
			return
		}
		activities, err = h.service.ListActivitiesByDateRange(r.Context(), userID, start, end)
	} else {
		activities, err = h.service.ListActivities(r.Context(), userID)
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}

	items := make([]ActivityView, 0, len(activities))
	for _, activity := range activities {
		items = append(items, toActivityView(activity))
	}
	writeJSON(w, http.StatusOK, ListActivitiesResponse{Items: items})
}

func (h *Handler) sessionAction(w http.ResponseWriter, r *http.Request) {
	action := strings.TrimPrefix(r.URL.Path, "/v1/sessions/")

	if action == "status" {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
			return
		}
		h.sessionStatus(w, r)
		return
	}

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	switch action {
	case "start":
		h.startSession(w, r)
	case "step":
		h.recordStep(w, r)
	case "route":
		h.recordRoutePoint(w, r)
	case "stop":
		h.stopSession(w, r)
	case "abandon":
		h.abandonSession(w, r)
	default:
		writeError(w, http.StatusNotFound, "not_found", "unknown session action")
	}
}

func (h *Handler) startSession(w http.ResponseWriter, r *http.Request) {
	var req StartSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "user_id is required")
		return
	}
	activityType, err := domain.ParseActivityType(req.ActivityType)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	startedAt, err := h.sessions.Start(req.UserID, activityType)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, StartSessionResponse{UserID: req.UserID, ActivityType: string(activityType), StartedAtMillis: startedAt})
}

func (h *Handler) recordStep(w http.ResponseWriter, r *http.Request) {
	var req SessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	status, err := h.sessions.RecordStep(req.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionView(status))
}

func (h *Handler) recordRoutePoint(w http.ResponseWriter, r *http.Request) {
	var req RoutePointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	if err := h.sessions.RecordRoutePoint(req.UserID, req.Latitude, req.Longitude); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) sessionStatus(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "missing user_id parameter")
		return
	}

	status, err := h.sessions.Status(userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionView(status))
}

func (h *Handler) stopSession(w http.ResponseWriter, r *http.Request) {
	var req SessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	activity, err := h.sessions.Stop(req.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	// The session is already gone from the registry; from here on the
	// finalized activity must reach the client even when persistence or
	// recomputation fails, or the recording is lost.
	profile, err := h.service.SaveActivity(r.Context(), activity)
	if err != nil && !errors.Is(err, domain.ErrStatsRecompute) {
		writeJSON(w, statusForError(err), saveResponse(activity, nil, err))
		return
	}

	writeJSON(w, http.StatusOK, saveResponse(activity, profile, err))
}

func (h *Handler) abandonSession(w http.ResponseWriter, r *http.Request) {
	var req SessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	h.sessions.Abandon(req.UserID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) userResource(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/users/")
	parts := strings.Split(rest, "/")
	if len(parts) < 2 || parts[0] == "" {
		writeError(w, http.StatusNotFound, "not_found", "unknown user resource")
		return
	}
	uid := parts[0]
	resource := strings.Join(parts[1:], "/")

	switch {
	case resource == "profile" && r.Method == http.MethodGet:
		h.getProfile(w, r, uid)
	case resource == "profile" && r.Method == http.MethodPost:
		h.createProfile(w, r, uid)
	case resource == "stats/rebuild" && r.Method == http.MethodPost:
		h.rebuildStats(w, r, uid)
	case resource == "steps-by-date" && r.Method == http.MethodGet:
		h.stepsByDate(w, r, uid)
	case resource == "export" && r.Method == http.MethodGet:
		h.exportActivities(w, r, uid)
	default:
		writeError(w, http.StatusNotFound, "not_found", "unknown user resource")
	}
}

func (h *Handler) getProfile(w http.ResponseWriter, r *http.Request, uid string) {
	profile, err := h.service.GetProfile(r.Context(), uid)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileView(*profile))
}

func (h *Handler) createProfile(w http.ResponseWriter, r *http.Request, uid string) {
	var req CreateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	profile, err := h.service.CreateProfile(r.Context(), uid, req.Email)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProfileView(*profile))
}

func (h *Handler) rebuildStats(w http.ResponseWriter, r *http.Request, uid string) {
	profile, err := h.service.RebuildStats(r.Context(), uid)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileView(*profile))
}

func (h *Handler) stepsByDate(w http.ResponseWriter, r *http.Request, uid string) {
	days := 7
	if raw := r.URL.Query().Get("days"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			days = parsed
		}
	}

	steps, err := h.service.StepsByDate(r.Context(), uid, days)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StepsByDateResponse{Days: days, Steps: steps})
}

func (h *Handler) exportActivities(w http.ResponseWriter, r *http.Request, uid string) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "json" {
		writeError(w, http.StatusBadRequest, "validation_failed", "format must be csv or json")
		return
	}

	// Calorie estimates use the stored body weight; users without a profile
	// get the default.
	weightKg := 70.0
	if profile, err := h.service.GetProfile(r.Context(), uid); err == nil {
		weightKg = profile.WeightKg
	} else if !errors.Is(err, domain.ErrProfileNotFound) {
		writeDomainError(w, err)
		return
	}

	activities, err := h.service.ListActivities(r.Context(), uid)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	filename := "activities_" + domain.CalendarDate(time.Now().UnixMilli())
	if format == "json" {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`.json"`)
		_ = export.JSON(w, activities, weightKg)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`.csv"`)
	_ = export.CSV(w, activities, weightKg)
}

func parseMillis(raw string, fallback int64) (int64, error) {
	if raw == "" {
		return fallback, nil
	}
	return strconv.ParseInt(raw, 10, 64)
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrActivityNotFound), errors.Is(err, domain.ErrProfileNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, domain.ErrStoreTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, domain.ErrStoreWrite):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeDomainError(w http.ResponseWriter, err error) {
	status := statusForError(err)
	codes := map[int]string{
		http.StatusNotFound:            "not_found",
		http.StatusConflict:            "invalid_state",
		http.StatusGatewayTimeout:      "store_timeout",
		http.StatusBadGateway:          "store_write_failed",
		http.StatusInternalServerError: "server_error",
	}
	writeError(w, status, codes[status], err.Error())
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SaveActivityRequest is the payload for POST /v1/activities.
type SaveActivityRequest struct {
	UserID          string              `json:"user_id"`
	ActivityType    string              `json:"activity_type"`
	StartedAtMillis int64               `json:"started_at_millis"`
	DurationSeconds int                 `json:"duration_seconds"`
	Steps           int                 `json:"steps"`
	DistanceKm      float64             `json:"distance_km"`
	Route           []domain.RoutePoint `json:"route,omitempty"`
	Notes           string              `json:"notes,omitempty"`
}

// Validate ensures request correctness.
func (r SaveActivityRequest) Validate() error {
	if strings.TrimSpace(r.UserID) == "" {
		return errors.New("user_id is required")
	}
	if _, err := domain.ParseActivityType(r.ActivityType); err != nil {
		return err
	}
	if r.StartedAtMillis <= 0 {
		return errors.New("started_at_millis is required")
	}
	if r.DurationSeconds < 0 {
		return errors.New("duration_seconds must be >= 0")
	}
	if r.Steps < 0 {
		return errors.New("steps must be >= 0")
	}
	return nil
}

func (r SaveActivityRequest) toActivity() *domain.Activity {
	activityType, _ := domain.ParseActivityType(r.ActivityType)
	distance := r.DistanceKm
	if distance == 0 {
		distance = domain.DistanceFromSteps(r.Steps, activityType)
	}
	return &domain.Activity{
		UserID:          r.UserID,
		StartedAtMillis: r.StartedAtMillis,
		Type:            activityType,
		DurationSeconds: r.DurationSeconds,
		Steps:           r.Steps,
		DistanceKm:      distance,
		Route:           r.Route,
		Notes:           r.Notes,
	}
}

// ActivityView exposes full details about an activity.
type ActivityView struct {
	ActivityID      string              `json:"activity_id"`
	UserID          string              `json:"user_id"`
	ActivityType    string              `json:"activity_type"`
	StartedAtMillis int64               `json:"started_at_millis"`
	Date            string              `json:"date"`
	DurationSeconds int                 `json:"duration_seconds"`
	Duration        string              `json:"duration"`
	Steps           int                 `json:"steps"`
	DistanceKm      float64             `json:"distance_km"`
	Pace            string              `json:"pace"`
	Route           []domain.RoutePoint `json:"route,omitempty"`
	Notes           string              `json:"notes,omitempty"`
}

func toActivityView(activity domain.Activity) ActivityView {
	return ActivityView{
		ActivityID:      activity.ID,
		UserID:          activity.UserID,
		ActivityType:    string(activity.Type),
		StartedAtMillis: activity.StartedAtMillis,
		Date:            activity.Date,
		DurationSeconds: activity.DurationSeconds,
		Duration:        domain.FormatDuration(activity.DurationSeconds),
		Steps:           activity.Steps,
		DistanceKm:      activity.DistanceKm,
		Pace:            domain.Pace(activity.DistanceKm, activity.DurationSeconds, true),
		Route:           activity.Route,
		Notes:           activity.Notes,
	}
}

// SaveActivityResponse carries the stored record plus the recomputed profile
// for first-time saves. Warning is set when the record was saved but its
// derived statistics could not be brought up to date.
type SaveActivityResponse struct {
	Activity ActivityView `json:"activity"`
	Profile  *ProfileView `json:"profile,omitempty"`
	Warning  string       `json:"warning,omitempty"`
}

// ListActivitiesResponse packages list results.
type ListActivitiesResponse struct {
	Items []ActivityView `json:"items"`
}

// StartSessionRequest is the payload for POST /v1/sessions/start.
type StartSessionRequest struct {
	UserID       string `json:"user_id"`
	ActivityType string `json:"activity_type"`
}

// StartSessionResponse echoes the started session.
type StartSessionResponse struct {
	UserID          string `json:"user_id"`
	ActivityType    string `json:"activity_type"`
	StartedAtMillis int64  `json:"started_at_millis"`
}

// SessionRequest addresses an existing live session.
type SessionRequest struct {
	UserID string `json:"user_id"`
}

// RoutePointRequest is the payload for POST /v1/sessions/route.
type RoutePointRequest struct {
	UserID    string  `json:"user_id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// SessionView is the live status of a recording session.
type SessionView struct {
	UserID          string  `json:"user_id"`
	ActivityType    string  `json:"activity_type"`
	StartedAtMillis int64   `json:"started_at_millis"`
	ElapsedSeconds  int     `json:"elapsed_seconds"`
	Elapsed         string  `json:"elapsed"`
	Steps           int     `json:"steps"`
	DistanceKm      float64 `json:"distance_km"`
	Pace            string  `json:"pace"`
	RoutePoints     int     `json:"route_points"`
}

func toSessionView(status session.Status) SessionView {
	return SessionView{
		UserID:          status.UserID,
		ActivityType:    string(status.Type),
		StartedAtMillis: status.StartedAtMillis,
		ElapsedSeconds:  status.ElapsedSeconds,
		Elapsed:         domain.FormatDuration(status.ElapsedSeconds),
		Steps:           status.Steps,
		DistanceKm:      status.DistanceKm,
		Pace:            status.Pace,
		RoutePoints:     status.RoutePoints,
	}
}

// CreateProfileRequest is the payload for POST /v1/users/{uid}/profile.
type CreateProfileRequest struct {
	Email string `json:"email"`
}

// ProfileView exposes the materialized statistics for a user.
type ProfileView struct {
	UID             string             `json:"uid"`
	Email           string             `json:"email"`
	TotalSteps      int                `json:"total_steps"`
	TotalDistanceKm float64            `json:"total_distance_km"`
	TotalActivities int                `json:"total_activities"`
	CurrentStreak   int                `json:"current_streak"`
	LongestStreak   int                `json:"longest_streak"`
	Achievements    map[string]int64   `json:"achievements"`
	Preferences     domain.Preferences `json:"preferences"`
}

func toProfileView(profile domain.UserProfile) ProfileView {
	return ProfileView{
		UID:             profile.UID,
		Email:           profile.Email,
		TotalSteps:      profile.TotalSteps,
		TotalDistanceKm: profile.TotalDistanceKm,
		TotalActivities: profile.TotalActivities,
		CurrentStreak:   profile.CurrentStreak,
		LongestStreak:   profile.LongestStreak,
		Achievements:    profile.Achievements,
		Preferences:     profile.Preferences,
	}
}

// StepsByDateResponse rolls up step counts per calendar date.
type StepsByDateResponse struct {
	Days  int            `json:"days"`
	Steps map[string]int `json:"steps"`
}
