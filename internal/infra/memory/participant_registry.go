package memory

import (
	"context"
	"sort"
	"sync"

	"live-question-service/internal/domain"
)

// ParticipantRegistry tracks meeting participants in process memory.
type ParticipantRegistry struct {
	mu       sync.RWMutex
	meetings map[string]map[string]domain.Participant
}

func NewParticipantRegistry() *ParticipantRegistry {
	return &ParticipantRegistry{meetings: make(map[string]map[string]domain.Participant)}
}

func (r *ParticipantRegistry) Join(_ context.Context, p domain.Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	members, ok := r.meetings[p.MeetingID]
	if !ok {
		members = make(map[string]domain.Participant)
		r.meetings[p.MeetingID] = members
	}
	if existing, ok := members[p.StudentID]; ok {
		// keep the original join time so ordering stays stable across reconnects
		p.JoinedAt = existing.JoinedAt
	}
	members[p.StudentID] = p
	return nil
}

func (r *ParticipantRegistry) Leave(_ context.Context, meetingID, studentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	members, ok := r.meetings[meetingID]
	if !ok {
		return nil
	}
	delete(members, studentID)
	if len(members) == 0 {
		delete(r.meetings, meetingID)
	}
	return nil
}

func (r *ParticipantRegistry) List(_ context.Context, meetingID string) ([]domain.Participant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Participant, 0, len(r.meetings[meetingID]))
	for _, p := range r.meetings[meetingID] {
		out = append(out, p)
	}
	SortParticipants(out)
	return out, nil
}

// SortParticipants orders by join time, then student ID.
func SortParticipants(list []domain.Participant) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].JoinedAt.Equal(list[j].JoinedAt) {
			return list[i].JoinedAt.Before(list[j].JoinedAt)
		}
		return list[i].StudentID < list[j].StudentID
	})
}
