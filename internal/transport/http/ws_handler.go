package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"live-question-service/internal/app"
	"live-question-service/internal/auth"
	"live-question-service/internal/domain"
)

type WSHandler struct {
	service  *app.LiveQuestionService
	feed     *app.Feed
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.LiveQuestionService, feed *app.Feed) *WSHandler {
	return &WSHandler{
		service: service,
		feed:    feed,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	Token               string  `json:"token"`
	SelectedOptionIndex *int    `json:"selectedOptionIndex"`
	ResponseTimeSeconds float64 `json:"responseTimeSeconds"`
}

type answerResult struct {
	Token string `json:"sessionToken"`
	app.SubmitResult
}

type instructorJoined struct {
	MeetingID    string               `json:"meetingId"`
	Participants []domain.Participant `json:"participants"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

// conn is one websocket client of a meeting.
type conn struct {
	meetingID string
	caller    domain.Identity
	student   domain.Participant
	origin    string
	send      chan outboundMessage[any]
	done      <-chan struct{}
}

func (c *conn) push(typ string, payload any) bool {
	select {
	case c.send <- outboundMessage[any]{Type: typ, Payload: payload}:
		return true
	case <-c.done:
		return false
	}
}

func (c *conn) fail(err error) bool {
	return c.push("error", publicError(err))
}

// ServeWS upgrades a request into a meeting feed. Students pass meetingId,
// studentId and name; instructors pass meetingId and role=instructor and must
// be authenticated as instructors.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	c := &conn{
		meetingID: strings.TrimSpace(q.Get("meetingId")),
		caller:    auth.FromContext(r.Context()),
		origin:    clientOrigin(r),
	}
	if c.meetingID == "" {
		http.Error(w, "missing meetingId", http.StatusBadRequest)
		return
	}

	instructor := q.Get("role") == string(domain.RoleInstructor)
	if instructor {
		if !c.caller.IsInstructor() {
			http.Error(w, "instructor identity required", http.StatusForbidden)
			return
		}
	} else {
		c.student = domain.Participant{
			MeetingID:  c.meetingID,
			StudentID:  strings.TrimSpace(q.Get("studentId")),
			Name:       strings.TrimSpace(q.Get("name")),
			Email:      strings.TrimSpace(q.Get("email")),
			ZoomUserID: strings.TrimSpace(q.Get("zoomUserId")),
		}
		if c.caller.ID != "" && !c.caller.IsInstructor() {
			c.student.StudentID = c.caller.ID
			if c.student.Email == "" {
				c.student.Email = c.caller.Email
			}
		}
		if c.student.StudentID == "" || c.student.Name == "" {
			http.Error(w, "missing studentId or name", http.StatusBadRequest)
			return
		}
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer ws.Close()

	ctx := r.Context()
	var joined any
	if instructor {
		participants, err := h.service.Participants(ctx, c.meetingID)
		if err != nil {
			_ = ws.WriteJSON(outboundMessage[errorBody]{Type: "error", Payload: publicError(err)})
			return
		}
		joined = instructorJoined{MeetingID: c.meetingID, Participants: participants}
	} else {
		p, err := h.service.JoinMeeting(ctx, c.student)
		if err != nil {
			_ = ws.WriteJSON(outboundMessage[errorBody]{Type: "error", Payload: publicError(err)})
			return
		}
		c.student = p
		joined = p
		defer func() {
			if err := h.service.LeaveMeeting(context.WithoutCancel(ctx), c.meetingID, p.StudentID); err != nil {
				log.Warn().Err(err).Str("meetingId", c.meetingID).Msg("leave meeting")
			}
		}()
	}

	updates, cancel := h.feed.Subscribe(c.meetingID, app.Subscriber{StudentID: c.student.StudentID, Instructor: instructor})
	defer cancel()

	c.send = make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})
	c.done = writerDone

	go func() {
		defer close(writerDone)
		for {
			select {
			case msg := <-c.send:
				if err := ws.WriteJSON(msg); err != nil {
					log.Debug().Err(err).Msg("ws write")
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case ev, ok := <-updates:
				if !ok {
					return
				}
				if !c.push(string(ev.Type), ev.Payload) {
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	c.push("joined", joined)
	log.Info().
		Str("meetingId", c.meetingID).
		Bool("instructor", instructor).
		Str("studentId", c.student.StudentID).
		Msg("ws connected")

	for {
		var inbound inboundMessage
		if err := ws.ReadJSON(&inbound); err != nil {
			break
		}
		var ok bool
		if instructor {
			ok = h.handleInstructor(ctx, c, inbound)
		} else {
			ok = h.handleStudent(ctx, c, inbound)
		}
		if !ok {
			break
		}
	}

	close(closeSignals)
	<-updatesDone
	<-writerDone
}

func (h *WSHandler) handleStudent(ctx context.Context, c *conn, in inboundMessage) bool {
	if in.Type != "answer" {
		return c.fail(domain.Validationf("unsupported message type %q", in.Type))
	}
	var payload answerPayload
	if err := json.Unmarshal(in.Payload, &payload); err != nil || payload.SelectedOptionIndex == nil {
		return c.fail(domain.Validationf("invalid answer payload"))
	}
	result, err := h.service.Submit(ctx, payload.Token, app.SubmitRequest{
		StudentID:           c.student.StudentID,
		StudentEmail:        c.student.Email,
		StudentName:         c.student.Name,
		SelectedOptionIndex: *payload.SelectedOptionIndex,
		ResponseTimeSeconds: payload.ResponseTimeSeconds,
		Origin:              c.origin,
	})
	if err != nil {
		return c.fail(err)
	}
	return c.push("answerResult", answerResult{Token: payload.Token, SubmitResult: result})
}

func (h *WSHandler) handleInstructor(ctx context.Context, c *conn, in inboundMessage) bool {
	switch in.Type {
	case "trigger":
		var req app.TriggerRequest
		if err := json.Unmarshal(in.Payload, &req); err != nil {
			return c.fail(domain.Validationf("invalid trigger payload"))
		}
		req.MeetingID = c.meetingID
		result, err := h.service.Trigger(ctx, c.caller, req)
		if err != nil {
			return c.fail(err)
		}
		return c.push("trigger", result)
	case "triggerIndividual":
		var req app.IndividualRequest
		if err := json.Unmarshal(in.Payload, &req); err != nil {
			return c.fail(domain.Validationf("invalid triggerIndividual payload"))
		}
		req.MeetingID = c.meetingID
		assignments, err := h.service.TriggerIndividual(ctx, c.caller, req)
		if err != nil {
			return c.fail(err)
		}
		return c.push("triggerIndividual", individualResponse{Count: len(assignments), Assignments: assignments})
	default:
		return c.fail(domain.Validationf("unsupported message type %q", in.Type))
	}
}
