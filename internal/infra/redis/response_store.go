package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/redis/go-redis/v9"

	"live-question-service/internal/domain"
)

const responseSeqKey = "live:response:seq"

// recordResponse inserts the answer keyed by identity and bumps the session
// counters in the same script. It returns the session status next to the
// outcome so a closed session can be reported as gone.
var recordResponse = redis.NewScript(`
local status = redis.call('HGET', KEYS[1], 'status')
if not status then
  return {-1, ''}
end
if status ~= 'active' then
  return {2, status}
end
if redis.call('HSETNX', KEYS[2], ARGV[1], ARGV[2]) == 0 then
  return {0, status}
end
redis.call('HINCRBY', KEYS[1], 'responseCount', 1)
if ARGV[3] == '1' then
  redis.call('HINCRBY', KEYS[1], 'correctCount', 1)
end
local ttl = redis.call('PTTL', KEYS[1])
if ttl > 0 then
  redis.call('PEXPIRE', KEYS[2], ttl)
end
return {1, status}
`)

// ResponseStore keeps answers in one hash per session:
// HSET live:session:{id}:responses {studentIdentity} {json}
type ResponseStore struct {
	client *redis.Client
}

func NewResponseStore(client *redis.Client) *ResponseStore {
	return &ResponseStore{client: client}
}

type responseRecord struct {
	domain.Response
	Origin string `json:"origin,omitempty"`
}

func (r *ResponseStore) Record(ctx context.Context, response *domain.Response) error {
	seq, err := r.client.Incr(ctx, responseSeqKey).Result()
	if err != nil {
		return fmt.Errorf("allocate response id: %w", err)
	}
	stored := *response
	stored.ID = strconv.FormatInt(seq, 10)
	raw, err := json.Marshal(responseRecord{Response: stored, Origin: stored.Origin})
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}

	correct := "0"
	if stored.IsCorrect {
		correct = "1"
	}
	keys := []string{sessionKey(stored.SessionID), responsesKey(stored.SessionID)}
	res, err := recordResponse.Run(ctx, r.client, keys, stored.StudentIdentity, raw, correct).Slice()
	if err != nil {
		return fmt.Errorf("record response: %w", err)
	}
	if len(res) != 2 {
		return fmt.Errorf("record response: unexpected reply %v", res)
	}
	code, _ := res[0].(int64)
	switch code {
	case -1:
		return domain.ErrSessionNotFound
	case 0:
		return domain.ErrConflict
	case 2:
		status, _ := res[1].(string)
		return &domain.GoneError{Status: domain.SessionStatus(status)}
	}
	response.ID = stored.ID
	return nil
}

// ListBySession returns responses oldest first.
func (r *ResponseStore) ListBySession(ctx context.Context, sessionID string) ([]domain.Response, error) {
	values, err := r.client.HVals(ctx, responsesKey(sessionID)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]domain.Response, 0, len(values))
	for _, raw := range values {
		var rec responseRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		rec.Response.Origin = rec.Origin
		out = append(out, rec.Response)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].SubmittedAt.Before(out[j].SubmittedAt)
		}
		a, _ := strconv.ParseInt(out[i].ID, 10, 64)
		b, _ := strconv.ParseInt(out[j].ID, 10, 64)
		return a < b
	})
	return out, nil
}

func responsesKey(sessionID string) string {
	return "live:session:" + sessionID + ":responses"
}

