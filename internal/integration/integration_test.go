package integration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
	"veggie-trivia-service/internal/app"
	"veggie-trivia-service/internal/domain"
	pgstore "veggie-trivia-service/internal/infra/postgres"
	pgmigrations "veggie-trivia-service/internal/infra/postgres/migrations"
	infraredis "veggie-trivia-service/internal/infra/redis"
	"veggie-trivia-service/internal/questionbank"
)

func TestGameEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	migrateSchema(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	n, err := pgstore.ImportQuestions(ctx, pool, sampleRecords(domain.MinPoolSize))
	if err != nil || n != domain.MinPoolSize {
		t.Fatalf("import: n=%d err=%v", n, err)
	}

	questions, err := app.LoadQuestionPool(ctx, pgstore.NewQuestionLoader(pool), domain.MinPoolSize)
	if err != nil {
		t.Fatalf("load pool: %v", err)
	}

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	sessions := infraredis.NewSessionStore(redisClient, 5*time.Minute)
	leaderboard := pgstore.NewLeaderboardStore(pool)
	service := app.NewGameService(sessions, leaderboard, questions)
	// A second instance sharing the same stores stands in for another replica.
	replica := app.NewGameService(sessions, leaderboard, questions)

	game, err := service.StartGame(ctx, "Ana")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := replica.Current(ctx, game.SessionID); err != nil {
		t.Fatalf("replica cannot see session: %v", err)
	}

	// One right answer and one wrong one; the third question is pending.
	res, err := service.SubmitAnswer(ctx, game.SessionID, "Leek")
	if err != nil || !res.Correct {
		t.Fatalf("first answer: %+v %v", res, err)
	}
	res, err = replica.SubmitAnswer(ctx, game.SessionID, "Carrot")
	if err != nil || res.Correct || res.Game.Question == nil {
		t.Fatalf("second answer: %+v %v", res, err)
	}

	// Both replicas race to report the timer; exactly one row must land.
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, svc := range []*app.GameService{service, replica} {
		wg.Add(1)
		go func(i int, svc *app.GameService) {
			defer wg.Done()
			_, errs[i] = svc.TimeUp(ctx, game.SessionID)
		}(i, svc)
	}
	wg.Wait()
	okCount := 0
	for _, err := range errs {
		switch {
		case err == nil:
			okCount++
		case errors.Is(err, domain.ErrSessionAlreadyFinalized):
		default:
			t.Fatalf("unexpected time-up error: %v", err)
		}
	}
	if okCount != 1 {
		t.Fatalf("expected exactly one successful time-up, got %d (%v)", okCount, errs)
	}

	entries, err := leaderboard.ReadAll(ctx)
	if err != nil {
		t.Fatalf("read leaderboard: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one leaderboard row, got %+v", entries)
	}
	if got := entries[0]; got.PlayerName != "Ana" || got.Score != 1 || got.LevelReached != 1 || got.GameID == "" {
		t.Fatalf("unexpected row: %+v", got)
	}

	page, err := replica.Ranking(ctx, 1)
	if err != nil {
		t.Fatalf("ranking: %v", err)
	}
	if page.Total != 1 || page.Entries[0].Rank != 1 {
		t.Fatalf("unexpected ranking: %+v", page)
	}
}

func TestRedisLeaderboardAcrossRestarts(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()
	client, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer client.Close()

	records := sampleRecords(domain.MinPoolSize)
	rnd := rand.New(rand.NewSource(1))
	questions := make([]domain.Question, 0, len(records))
	for _, rec := range records {
		questions = append(questions, rec.ToQuestion(rnd))
	}
	pool, err := app.NewQuestionPool(questions, domain.MinPoolSize)
	if err != nil {
		t.Fatalf("pool: %v", err)
	}

	first := app.NewGameService(infraredis.NewSessionStore(client, time.Minute), infraredis.NewLeaderboardStore(client), pool)
	game, err := first.StartGame(ctx, "Bo")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := first.TimeUp(ctx, game.SessionID); err != nil {
		t.Fatalf("time up: %v", err)
	}

	restarted := app.NewGameService(infraredis.NewSessionStore(client, time.Minute), infraredis.NewLeaderboardStore(client), pool)
	page, err := restarted.Ranking(ctx, 1)
	if err != nil {
		t.Fatalf("ranking: %v", err)
	}
	if page.Total != 1 || page.Entries[0].PlayerName != "Bo" {
		t.Fatalf("leaderboard not persisted: %+v", page)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "trivia", "POSTGRES_PASSWORD": "triviapass", "POSTGRES_DB": "triviadb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://trivia:triviapass@%s:%s/triviadb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func migrateSchema(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func sampleRecords(n int) []questionbank.Record {
	records := make([]questionbank.Record, n)
	for i := range records {
		records[i] = questionbank.Record{
			Number:      i + 1,
			Text:        fmt.Sprintf("Which vegetable is number %d?", i+1),
			Correct:     "Leek",
			Wrong:       [2]string{"Carrot", "Kale"},
			Attribution: "grower",
		}
	}
	return records
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
