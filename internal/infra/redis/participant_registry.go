package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"live-question-service/internal/domain"
)

// ParticipantRegistry stores meeting membership in Redis so every instance sees it.
//
//	live:meeting:{id}:participants  hash: studentId -> json
//	live:meeting:{id}:joined        zset: studentId scored by first join (ms)
type ParticipantRegistry struct {
	client *redis.Client
	ttl    time.Duration
}

func NewParticipantRegistry(client *redis.Client, ttl time.Duration) *ParticipantRegistry {
	return &ParticipantRegistry{client: client, ttl: ttl}
}

func (r *ParticipantRegistry) Join(ctx context.Context, p domain.Participant) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode participant: %w", err)
	}
	members, joined := participantsKey(p.MeetingID), joinedKey(p.MeetingID)
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, members, p.StudentID, raw)
		pipe.ZAddNX(ctx, joined, redis.Z{Score: float64(p.JoinedAt.UnixMilli()), Member: p.StudentID})
		if r.ttl > 0 {
			pipe.Expire(ctx, members, r.ttl)
			pipe.Expire(ctx, joined, r.ttl)
		}
		return nil
	})
	return err
}

func (r *ParticipantRegistry) Leave(ctx context.Context, meetingID, studentID string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HDel(ctx, participantsKey(meetingID), studentID)
		pipe.ZRem(ctx, joinedKey(meetingID), studentID)
		return nil
	})
	return err
}

// List orders participants by their first join.
func (r *ParticipantRegistry) List(ctx context.Context, meetingID string) ([]domain.Participant, error) {
	order, err := r.client.ZRangeWithScores(ctx, joinedKey(meetingID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(order) == 0 {
		return []domain.Participant{}, nil
	}
	ids := make([]string, len(order))
	for i, z := range order {
		ids[i] = z.Member.(string)
	}
	values, err := r.client.HMGet(ctx, participantsKey(meetingID), ids...).Result()
	if err != nil {
		return nil, err
	}

	out := make([]domain.Participant, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var p domain.Participant
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return nil, fmt.Errorf("decode participant: %w", err)
		}
		p.JoinedAt = time.UnixMilli(int64(order[i].Score)).UTC()
		out = append(out, p)
	}
	return out, nil
}

func participantsKey(meetingID string) string {
	return "live:meeting:" + meetingID + ":participants"
}

func joinedKey(meetingID string) string {
	return "live:meeting:" + meetingID + ":joined"
}
