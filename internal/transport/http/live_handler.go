package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"live-question-service/internal/app"
	"live-question-service/internal/auth"
	"live-question-service/internal/domain"
)

// LiveHandler serves the REST surface of the live question service.
type LiveHandler struct {
	service *app.LiveQuestionService
}

func NewLiveHandler(service *app.LiveQuestionService) *LiveHandler {
	return &LiveHandler{service: service}
}

// Trigger handles POST /api/live-questions/trigger
func (h *LiveHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	var req app.TriggerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	result, err := h.service.Trigger(r.Context(), auth.FromContext(r.Context()), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

type individualResponse struct {
	Count       int              `json:"count"`
	Assignments []app.Assignment `json:"assignments"`
}

// TriggerIndividual handles POST /api/live-questions/trigger/individual
func (h *LiveHandler) TriggerIndividual(w http.ResponseWriter, r *http.Request) {
	var req app.IndividualRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	assignments, err := h.service.TriggerIndividual(r.Context(), auth.FromContext(r.Context()), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, individualResponse{Count: len(assignments), Assignments: assignments})
}

// GetSession handles GET /api/live-questions/session/{token}
func (h *LiveHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.GetByToken(r.Context(), mux.Vars(r)["token"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type submitBody struct {
	StudentID           string  `json:"studentId"`
	StudentEmail        string  `json:"studentEmail"`
	StudentName         string  `json:"studentName"`
	SelectedAnswer      *int    `json:"selectedAnswer"`
	ResponseTimeSeconds float64 `json:"responseTime"`
}

// Submit handles POST /api/live-questions/submit/{token}
func (h *LiveHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var body submitBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	if body.SelectedAnswer == nil {
		writeError(w, domain.Validationf("selectedAnswer is required"))
		return
	}

	// Authenticated students answer under their own id.
	caller := auth.FromContext(r.Context())
	if caller.ID != "" && !caller.IsInstructor() {
		body.StudentID = caller.ID
		if body.StudentEmail == "" {
			body.StudentEmail = caller.Email
		}
		if body.StudentName == "" {
			body.StudentName = caller.Name
		}
	}

	result, err := h.service.Submit(r.Context(), mux.Vars(r)["token"], app.SubmitRequest{
		StudentID:           body.StudentID,
		StudentEmail:        body.StudentEmail,
		StudentName:         body.StudentName,
		SelectedOptionIndex: *body.SelectedAnswer,
		ResponseTimeSeconds: body.ResponseTimeSeconds,
		Origin:              clientOrigin(r),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Responses handles GET /api/live-questions/session/{id}/responses
func (h *LiveHandler) Responses(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.SessionStatistics(r.Context(), auth.FromContext(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Complete handles POST /api/live-questions/session/{id}/complete
func (h *LiveHandler) Complete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Complete(r.Context(), auth.FromContext(r.Context()), mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type sessionList struct {
	Count    int              `json:"count"`
	Sessions []domain.Session `json:"sessions"`
}

// Active handles GET /api/live-questions/dashboard/active
func (h *LiveHandler) Active(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.service.ActiveSessions(r.Context(), auth.FromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionList{Count: len(sessions), Sessions: sessions})
}

// Assignment handles GET /api/live-questions/meeting/{meetingId}/assignment/{studentId}
func (h *LiveHandler) Assignment(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	view, err := h.service.Assignment(r.Context(), auth.FromContext(r.Context()), vars["meetingId"], vars["studentId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// MeetingSessions handles GET /api/live-questions/meeting/{meetingId}/sessions
func (h *LiveHandler) MeetingSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.service.MeetingSessions(r.Context(), auth.FromContext(r.Context()), mux.Vars(r)["meetingId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionList{Count: len(sessions), Sessions: sessions})
}

// MeetingStats handles GET /api/live-questions/meeting/{meetingId}/stats
func (h *LiveHandler) MeetingStats(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.MeetingStatistics(r.Context(), auth.FromContext(r.Context()), mux.Vars(r)["meetingId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Join handles POST /api/live-questions/meeting/{meetingId}/participants
func (h *LiveHandler) Join(w http.ResponseWriter, r *http.Request) {
	var p domain.Participant
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, err)
		return
	}
	p.MeetingID = mux.Vars(r)["meetingId"]
	joined, err := h.service.JoinMeeting(r.Context(), p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, joined)
}

// Leave handles DELETE /api/live-questions/meeting/{meetingId}/participants/{studentId}
func (h *LiveHandler) Leave(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.service.LeaveMeeting(r.Context(), vars["meetingId"], vars["studentId"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
