package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"live-question-service/internal/domain"
)

// SessionStore keeps sessions in Redis.
//
//	live:session:{id}                  hash: data, status, responseCount, correctCount
//	live:token:{token}                 string: session id
//	live:meeting:{id}:sessions         zset: session ids scored by trigger time
//	live:instructor:{id}:sessions      zset: session ids scored by trigger time
//
// Creation and status changes run as Lua scripts so they are atomic per call.
type SessionStore struct {
	client    *redis.Client
	retention time.Duration
}

func NewSessionStore(client *redis.Client, retention time.Duration) *SessionStore {
	return &SessionStore{client: client, retention: retention}
}

const sessionSeqKey = "live:session:seq"

var createSessions = redis.NewScript(`
local n = tonumber(ARGV[1])
local ttl = tonumber(ARGV[2])
for i = 0, n - 1 do
  if redis.call('EXISTS', KEYS[i*4 + 1]) == 1 then
    return 0
  end
end
for i = 0, n - 1 do
  local id = ARGV[i*4 + 3]
  redis.call('SET', KEYS[i*4 + 1], id)
  redis.call('HSET', KEYS[i*4 + 2], 'data', ARGV[i*4 + 4], 'status', ARGV[i*4 + 5], 'responseCount', 0, 'correctCount', 0)
  redis.call('ZADD', KEYS[i*4 + 3], ARGV[i*4 + 6], id)
  redis.call('ZADD', KEYS[i*4 + 4], ARGV[i*4 + 6], id)
  if ttl > 0 then
    for k = 1, 4 do
      redis.call('PEXPIRE', KEYS[i*4 + k], ttl)
    end
  end
end
return 1
`)

var transitionStatus = redis.NewScript(`
local current = redis.call('HGET', KEYS[1], 'status')
if not current then
  return -1
end
if current == ARGV[1] then
  redis.call('HSET', KEYS[1], 'status', ARGV[2])
  return 1
end
return 0
`)

func (s *SessionStore) Create(ctx context.Context, session *domain.Session) error {
	return s.CreateBatch(ctx, []*domain.Session{session})
}

func (s *SessionStore) CreateBatch(ctx context.Context, sessions []*domain.Session) error {
	if len(sessions) == 0 {
		return nil
	}
	tokens := make(map[string]struct{}, len(sessions))
	for _, session := range sessions {
		if _, dup := tokens[session.Token]; dup {
			return fmt.Errorf("token collision")
		}
		tokens[session.Token] = struct{}{}
	}

	last, err := s.client.IncrBy(ctx, sessionSeqKey, int64(len(sessions))).Result()
	if err != nil {
		return fmt.Errorf("allocate session ids: %w", err)
	}
	first := last - int64(len(sessions)) + 1

	keys := make([]string, 0, len(sessions)*4)
	args := []interface{}{len(sessions), s.retention.Milliseconds()}
	ids := make([]string, len(sessions))
	for i, session := range sessions {
		ids[i] = strconv.FormatInt(first+int64(i), 10)
		data, err := json.Marshal(sessionData(*session, ids[i]))
		if err != nil {
			return fmt.Errorf("encode session: %w", err)
		}
		keys = append(keys,
			tokenKey(session.Token),
			sessionKey(ids[i]),
			meetingSessionsKey(session.MeetingID),
			instructorSessionsKey(session.InstructorID),
		)
		args = append(args, ids[i], data, string(session.Status), session.TriggeredAt.UnixMilli())
	}

	created, err := createSessions.Run(ctx, s.client, keys, args...).Int()
	if err != nil {
		return fmt.Errorf("create sessions: %w", err)
	}
	if created == 0 {
		return fmt.Errorf("token collision")
	}
	for i, session := range sessions {
		session.ID = ids[i]
	}
	return nil
}

func (s *SessionStore) GetByToken(ctx context.Context, token string) (domain.Session, error) {
	id, err := s.client.Get(ctx, tokenKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.Session{}, err
	}
	return s.GetByID(ctx, id)
}

func (s *SessionStore) GetByID(ctx context.Context, id string) (domain.Session, error) {
	fields, err := s.client.HGetAll(ctx, sessionKey(id)).Result()
	if err != nil {
		return domain.Session{}, err
	}
	if len(fields) == 0 {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return decodeSession(fields)
}

func (s *SessionStore) Transition(ctx context.Context, id string, from, to domain.SessionStatus) (bool, error) {
	res, err := transitionStatus.Run(ctx, s.client, []string{sessionKey(id)}, string(from), string(to)).Int()
	if err != nil {
		return false, err
	}
	switch res {
	case -1:
		return false, domain.ErrSessionNotFound
	case 1:
		return true, nil
	default:
		return false, nil
	}
}

func (s *SessionStore) ListByMeeting(ctx context.Context, meetingID string) ([]domain.Session, error) {
	return s.list(ctx, meetingSessionsKey(meetingID), "")
}

func (s *SessionStore) ListByInstructor(ctx context.Context, instructorID string, status domain.SessionStatus) ([]domain.Session, error) {
	return s.list(ctx, instructorSessionsKey(instructorID), status)
}

func (s *SessionStore) list(ctx context.Context, indexKey string, status domain.SessionStatus) ([]domain.Session, error) {
	ids, err := s.client.ZRange(ctx, indexKey, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []domain.Session{}, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, sessionKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}

	out := make([]domain.Session, 0, len(ids))
	for _, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			continue
		}
		session, err := decodeSession(fields)
		if err != nil {
			return nil, err
		}
		if status != "" && session.Status != status {
			continue
		}
		out = append(out, session)
	}
	return out, nil
}

// sessionData is the immutable part of a session; status and counters live
// in their own hash fields so scripts can change them in place.
func sessionData(session domain.Session, id string) domain.Session {
	session.ID = id
	session.Status = ""
	session.ResponseCount = 0
	session.CorrectCount = 0
	return session
}

func decodeSession(fields map[string]string) (domain.Session, error) {
	var session domain.Session
	if err := json.Unmarshal([]byte(fields["data"]), &session); err != nil {
		return domain.Session{}, fmt.Errorf("decode session: %w", err)
	}
	session.Status = domain.SessionStatus(fields["status"])
	session.ResponseCount, _ = strconv.Atoi(fields["responseCount"])
	session.CorrectCount, _ = strconv.Atoi(fields["correctCount"])
	return session, nil
}

func sessionKey(id string) string {
	return "live:session:" + id
}

func tokenKey(token string) string {
	return "live:token:" + token
}

func meetingSessionsKey(meetingID string) string {
	return "live:meeting:" + meetingID + ":sessions"
}

func instructorSessionsKey(instructorID string) string {
	return "live:instructor:" + instructorID + ":sessions"
}
