package postgres

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/pribylovaa/orange-copywriter/internal/models"
	"github.com/pribylovaa/orange-copywriter/internal/storage"
)

// Интеграционные тесты хранилища диалогов на PostgreSQL:
// - поднимают postgres:16-alpine через testcontainers-go;
// - применяют ./migrations/1_init_conversations.up.sql;
// - проверяют порядок выдачи, разрешение равных created_at и CHECK-ограничения схемы.
//
// Запуск локально:
//   GO_TEST_INTEGRATION=1 go test ./internal/storage/postgres -v -race -count=1

const testTimeout = 10 * time.Second

// repoRootFromThisFile — корень репозитория относительно файла тестов.
func repoRootFromThisFile() string {
	_, thisFile, _, _ := runtime.Caller(0)
	return filepath.Clean(filepath.Join(filepath.Dir(thisFile), "..", "..", ".."))
}

func readMigration(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(repoRootFromThisFile(), "migrations", name)
	b, err := os.ReadFile(path)
	require.NoError(t, err, "read migration %s", path)
	return string(b)
}

// startPostgres поднимает временный PostgreSQL с применённой схемой.
// Без GO_TEST_INTEGRATION тест пропускается.
func startPostgres(t *testing.T) *Storage {
	t.Helper()
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		t.Skip("integration tests are disabled (set GO_TEST_INTEGRATION=1)")
	}

	ctx := context.Background()
	req := tc.ContainerRequest{
		Image:        "postgres:16-alpine",
		Env:          map[string]string{"POSTGRES_USER": "user", "POSTGRES_PASSWORD": "pass", "POSTGRES_DB": "db"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)
	dsn := fmt.Sprintf("postgres://user:pass@%s:%s/db?sslmode=disable", host, port.Port())

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, readMigration(t, "1_init_conversations.up.sql"))
	pool.Close()
	require.NoError(t, err)

	s, err := New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(s.Close)

	return s
}

func TestNew_BadURL(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), "postgres://%zz")
	require.Error(t, err)
}

var key = models.ConversationKey{Industry: "real estate", Client: "Luxofy", Purpose: "launch"}

func turn(q string, ts time.Time) models.Conversation {
	return models.Conversation{
		Key: key,
		Messages: []models.Message{
			{Role: models.RoleUser, Content: q},
			{Role: models.RoleAssistant, Content: "answer to " + q},
		},
		Timestamp: ts,
	}
}

func TestPostgres_Integration(t *testing.T) {
	s := startPostgres(t)

	t.Run("newest_first", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
		defer cancel()

		base := time.Now().UTC().Add(-time.Hour).Truncate(time.Microsecond)
		for i := 0; i < 7; i++ {
			require.NoError(t, s.AppendConversation(ctx, turn(fmt.Sprintf("q%d", i), base.Add(time.Duration(i)*time.Minute))))
		}

		got, err := s.RecentConversations(ctx, key, 5)
		require.NoError(t, err)
		require.Len(t, got, 5)

		for i, c := range got {
			require.Equal(t, fmt.Sprintf("q%d", 6-i), c.Messages[0].Content)
			require.Equal(t, models.RoleAssistant, c.Messages[1].Role)
			require.NotEmpty(t, c.ID)
			require.Equal(t, key, c.Key)
			require.Equal(t, time.UTC, c.Timestamp.Location())
		}
	})

	t.Run("tie_break_and_isolation", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
		defer cancel()

		k := models.ConversationKey{Industry: "saas", Client: "Acme", Purpose: "tie"}
		ts := time.Now().UTC().Truncate(time.Microsecond)

		first := turn("first", ts)
		first.Key = k
		second := turn("second", ts)
		second.Key = k
		other := turn("elsewhere", ts)
		other.Key = models.ConversationKey{Industry: "saas", Client: "1acre", Purpose: "tie"}

		require.NoError(t, s.AppendConversation(ctx, first))
		require.NoError(t, s.AppendConversation(ctx, second))
		require.NoError(t, s.AppendConversation(ctx, other))

		got, err := s.RecentConversations(ctx, k, 0)
		require.NoError(t, err)
		require.Len(t, got, 2)
		require.Equal(t, "second", got[0].Messages[0].Content)
		require.Equal(t, "first", got[1].Messages[0].Content)
	})

	t.Run("zero_timestamp_filled", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
		defer cancel()

		k := models.ConversationKey{Industry: "retail", Client: "Acme", Purpose: "now"}
		c := turn("now", time.Time{})
		c.Key = k
		require.NoError(t, s.AppendConversation(ctx, c))

		got, err := s.RecentConversations(ctx, k, 1)
		require.NoError(t, err)
		require.Len(t, got, 1)
		require.WithinDuration(t, time.Now(), got[0].Timestamp, time.Minute)
	})

	t.Run("invalid_rejected", func(t *testing.T) {
		err := s.AppendConversation(context.Background(), models.Conversation{Key: key})
		require.ErrorIs(t, err, storage.ErrInvalidConversation)
	})

	t.Run("schema_rejects_empty_messages", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
		defer cancel()

		// Обход storage.Validate: пустой массив сообщений ловит CHECK схемы.
		_, err := s.db.Exec(ctx, `INSERT INTO conversations (id, industry, client, purpose, messages, created_at)
			VALUES (gen_random_uuid(), 'a', 'b', 'c', '[]'::jsonb, now())`)
		require.Error(t, err)
	})

	t.Run("canceled_context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := s.RecentConversations(ctx, key, 5)
		require.ErrorIs(t, err, context.Canceled)
	})
}
