package integration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"live-question-service/internal/app"
	"live-question-service/internal/domain"
	"live-question-service/internal/infra/memory"
	mongostore "live-question-service/internal/infra/mongo"
	pgstore "live-question-service/internal/infra/postgres"
	infraredis "live-question-service/internal/infra/redis"
)

var instructor = domain.Identity{ID: "inst-1", Role: domain.RoleInstructor}

func TestPostgresAndRedisEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	db := pgstore.Open(pgURL)
	defer db.Close()
	if _, err := pgstore.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := pgstore.SeedQuestions(ctx, db, sampleQuestions()); err != nil {
		t.Fatalf("seed: %v", err)
	}

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	runScenario(t, app.Dependencies{
		Questions:    infraredis.NewQuestionBank(redisClient, pgstore.NewQuestionLoader(pool), 5*time.Minute),
		Sessions:     pgstore.NewSessionStore(db),
		Responses:    pgstore.NewResponseStore(db),
		Participants: infraredis.NewParticipantRegistry(redisClient, time.Hour),
	})
}

func TestRedisStoresEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	redisURL, cleanup := startRedis(t, ctx)
	defer cleanup()
	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	runScenario(t, app.Dependencies{
		Questions:    infraredis.NewQuestionBank(redisClient, memory.NewStaticQuestionLoader(sampleQuestions()), 5*time.Minute),
		Sessions:     infraredis.NewSessionStore(redisClient, time.Hour),
		Responses:    infraredis.NewResponseStore(redisClient),
		Participants: infraredis.NewParticipantRegistry(redisClient, time.Hour),
	})
}

func TestMongoEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	uri, cleanup := startMongo(t, ctx)
	defer cleanup()

	client, err := mongostore.Connect(ctx, uri)
	if err != nil {
		t.Fatalf("connect mongo: %v", err)
	}
	defer client.Disconnect(context.Background())
	db := client.Database("live_learning_test")
	if err := mongostore.EnsureIndexes(ctx, db); err != nil {
		t.Fatalf("indexes: %v", err)
	}
	if err := mongostore.SeedQuestions(ctx, db, sampleQuestions()); err != nil {
		t.Fatalf("seed: %v", err)
	}

	runScenario(t, app.Dependencies{
		Questions:    memory.NewQuestionBank(mongostore.NewQuestionLoader(db), 5*time.Minute),
		Sessions:     mongostore.NewSessionStore(db),
		Responses:    mongostore.NewResponseStore(db),
		Participants: memory.NewParticipantRegistry(),
	})
}

// runScenario drives one meeting through trigger, concurrent answers, expiry,
// completion and individual assignment against the given stores.
func runScenario(t *testing.T, deps app.Dependencies) {
	t.Helper()
	ctx := context.Background()
	clk := &clock{now: time.Now().UTC()}
	deps.Publisher = app.NewFeed()
	service := app.NewLiveQuestionService(deps, app.Settings{BaseURL: "https://quiz.example.com", GracePeriod: 0}, app.WithClock(clk.Now))

	triggered, err := service.Trigger(ctx, instructor, app.TriggerRequest{QuestionID: "q1", MeetingID: "m1", TimeLimitSeconds: 60})
	if err != nil {
		t.Fatalf("trigger: %v", err)
	}
	token := triggered.Session.Token

	view, err := service.GetByToken(ctx, token)
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if view.Prompt != "What is 2 + 2?" {
		t.Fatalf("unexpected view %+v", view)
	}

	const students = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		accepted  int
		conflicts int
	)
	for i := 0; i < students; i++ {
		i := i
		for attempt := 0; attempt < 2; attempt++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				answer := 0
				if i%2 == 0 {
					answer = 1
				}
				_, err := service.Submit(ctx, token, app.SubmitRequest{StudentID: fmt.Sprintf("s%d", i), SelectedOptionIndex: answer})
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					accepted++
				case errors.Is(err, domain.ErrConflict):
					conflicts++
				default:
					t.Errorf("submit s%d: %v", i, err)
				}
			}()
		}
	}
	wg.Wait()
	if accepted != students || conflicts != students {
		t.Fatalf("expected %d accepted and %d conflicts, got %d and %d", students, students, accepted, conflicts)
	}

	report, err := service.SessionStatistics(ctx, instructor, triggered.Session.ID)
	if err != nil {
		t.Fatalf("statistics: %v", err)
	}
	if report.Statistics != domain.NewStatistics(students, students/2) || len(report.Responses) != students {
		t.Fatalf("unexpected statistics %+v with %d responses", report.Statistics, len(report.Responses))
	}

	clk.Advance(61 * time.Second)
	if _, err := service.GetByToken(ctx, token); !errors.Is(err, domain.ErrGone) {
		t.Fatalf("expected expired session, got %v", err)
	}
	if err := service.Complete(ctx, instructor, triggered.Session.ID); err != nil {
		t.Fatalf("complete after expiry: %v", err)
	}
	var gone *domain.GoneError
	if _, err := service.GetByToken(ctx, token); !errors.As(err, &gone) || gone.Status != domain.StatusExpired {
		t.Fatalf("expected session to stay expired, got %v", err)
	}
	// The store itself refuses answers once the session is closed.
	err = deps.Responses.Record(ctx, &domain.Response{SessionID: triggered.Session.ID, StudentIdentity: "late", StudentName: "Late", SubmittedAt: clk.Now()})
	if !errors.As(err, &gone) || gone.Status != domain.StatusExpired {
		t.Fatalf("expected store to reject the closed session, got %v", err)
	}
	if responses, err := deps.Responses.ListBySession(ctx, triggered.Session.ID); err != nil || len(responses) != students {
		t.Fatalf("expected %d responses after rejection, got %d %v", students, len(responses), err)
	}

	for _, id := range []string{"a", "b"} {
		if _, err := service.JoinMeeting(ctx, domain.Participant{MeetingID: "m2", StudentID: id}); err != nil {
			t.Fatalf("join %s: %v", id, err)
		}
	}
	assignments, err := service.TriggerIndividual(ctx, instructor, app.IndividualRequest{MeetingID: "m2"})
	if err != nil {
		t.Fatalf("trigger individual: %v", err)
	}
	if len(assignments) != 2 || assignments[0].Session.QuestionID == assignments[1].Session.QuestionID {
		t.Fatalf("expected two distinct assignments, got %+v", assignments)
	}
	first := assignments[0]
	if _, err := service.Submit(ctx, first.Session.Token, app.SubmitRequest{StudentID: assignments[1].StudentID}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden for another student, got %v", err)
	}
	if _, err := service.Submit(ctx, first.Session.Token, app.SubmitRequest{StudentID: first.StudentID}); err != nil {
		t.Fatalf("assigned student submit: %v", err)
	}

	active, err := service.ActiveSessions(ctx, instructor)
	if err != nil {
		t.Fatalf("active sessions: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("expected the two individual sessions to be active, got %d", len(active))
	}
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{ID: "q1", Prompt: "What is 2 + 2?", Options: []string{"3", "4", "5"}, CorrectOptionIndex: 1},
		{ID: "q2", Prompt: "Capital of France?", Options: []string{"Paris", "Rome"}, CorrectOptionIndex: 0},
		{ID: "q3", Prompt: "Largest planet?", Options: []string{"Mars", "Jupiter"}, CorrectOptionIndex: 1},
	}
}

func startContainer(t *testing.T, ctx context.Context, req tc.ContainerRequest) (tc.Container, func()) {
	t.Helper()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start %s: %v", req.Image, err)
	}
	return container, func() {
		_ = container.Terminate(ctx)
	}
}

func endpoint(t *testing.T, ctx context.Context, container tc.Container, port string) (string, string) {
	t.Helper()
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	mapped, err := container.MappedPort(ctx, nat.Port(port))
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	return host, mapped.Port()
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	container, cleanup := startContainer(t, ctx, tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "live", "POSTGRES_PASSWORD": "livepass", "POSTGRES_DB": "livedb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	})
	host, port := endpoint(t, ctx, container, "5432/tcp")
	return fmt.Sprintf("postgres://live:livepass@%s:%s/livedb?sslmode=disable", host, port), cleanup
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	container, cleanup := startContainer(t, ctx, tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	})
	host, port := endpoint(t, ctx, container, "6379/tcp")
	return fmt.Sprintf("redis://%s:%s", host, port), cleanup
}

func startMongo(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	container, cleanup := startContainer(t, ctx, tc.ContainerRequest{
		Image:        "mongo:7",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForListeningPort("27017/tcp").WithStartupTimeout(60 * time.Second),
	})
	host, port := endpoint(t, ctx, container, "27017/tcp")
	return fmt.Sprintf("mongodb://%s:%s", host, port), cleanup
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(opts), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
