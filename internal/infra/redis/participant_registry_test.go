package redis

import (
	"context"
	"testing"
	"time"

	"live-question-service/internal/domain"
)

func TestParticipantRegistry(t *testing.T) {
	ctx := context.Background()
	mr, client := newMiniredis(t)
	reg := NewParticipantRegistry(client, time.Hour)
	base := time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)

	_ = reg.Join(ctx, domain.Participant{MeetingID: "m1", StudentID: "s2", Name: "Bob", JoinedAt: base.Add(time.Minute)})
	_ = reg.Join(ctx, domain.Participant{MeetingID: "m1", StudentID: "s1", Name: "Alice", ZoomUserID: "z1", JoinedAt: base})
	_ = reg.Join(ctx, domain.Participant{MeetingID: "m1", StudentID: "s1", Name: "Alice B.", ZoomUserID: "z1", JoinedAt: base.Add(time.Hour)})

	if !mr.Exists(participantsKey("m1")) {
		t.Fatalf("expected participants hash")
	}

	list, err := reg.List(ctx, "m1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].StudentID != "s1" || list[0].Name != "Alice B." || !list[0].JoinedAt.Equal(base) {
		t.Fatalf("unexpected participants %+v", list)
	}

	_ = reg.Leave(ctx, "m1", "s1")
	list, _ = reg.List(ctx, "m1")
	if len(list) != 1 || list[0].StudentID != "s2" {
		t.Fatalf("expected only s2 left, got %+v", list)
	}
}
