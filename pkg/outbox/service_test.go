package outbox

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/zaika-foods/zaika-backend/pkg/enums"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	require.NoError(t, conn.Exec(`
		CREATE TABLE outbox_events (
			id TEXT PRIMARY KEY,
			event_type TEXT NOT NULL,
			aggregate_type TEXT NOT NULL,
			aggregate_id TEXT NOT NULL,
			payload TEXT NOT NULL,
			created_at DATETIME,
			published_at DATETIME,
			attempt_count INTEGER NOT NULL DEFAULT 0,
			last_error TEXT
		)
	`).Error)

	t.Cleanup(func() {
		_ = conn.Exec("DROP TABLE outbox_events").Error
	})
	return conn
}

func TestEmitWritesEnvelopeInTransaction(t *testing.T) {
	conn := newTestDB(t)
	svc := NewService(NewRepository(conn), nil)

	orderID := uuid.New()
	tx := conn.Begin()
	require.NoError(t, tx.Error)

	err := svc.Emit(context.Background(), tx, DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   orderID,
		Actor:         &ActorRef{CustomerRef: "cust-1", Role: "customer"},
		Data:          map[string]any{"order_number": "ZK-1042"},
		Version:       1,
		OccurredAt:    time.Now(),
	})
	require.NoError(t, err)
	require.NoError(t, tx.Commit().Error)

	var row struct {
		EventType     string
		AggregateType string
		Payload       string
	}
	require.NoError(t, conn.Raw(
		"SELECT event_type, aggregate_type, payload FROM outbox_events WHERE aggregate_id = ?",
		orderID.String(),
	).Scan(&row).Error)

	require.Equal(t, string(enums.EventOrderCreated), row.EventType)
	require.Equal(t, string(enums.AggregateOrder), row.AggregateType)

	var envelope PayloadEnvelope
	require.NoError(t, json.Unmarshal([]byte(row.Payload), &envelope))
	require.Equal(t, 1, envelope.Version)
	require.NotEmpty(t, envelope.EventID)
	require.NotNil(t, envelope.Actor)
	require.Equal(t, "cust-1", envelope.Actor.CustomerRef)

	var data map[string]any
	require.NoError(t, json.Unmarshal(envelope.Data, &data))
	require.Equal(t, "ZK-1042", data["order_number"])
}

func TestEmitRequiresTransaction(t *testing.T) {
	conn := newTestDB(t)
	svc := NewService(NewRepository(conn), nil)

	err := svc.Emit(context.Background(), nil, DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
	})
	require.Error(t, err)
}

func TestFetchUnpublishedAndMark(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)
	svc := NewService(repo, nil)

	tx := conn.Begin()
	require.NoError(t, tx.Error)
	require.NoError(t, svc.Emit(context.Background(), tx, DomainEvent{
		EventType:     enums.EventOrderStatusChanged,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Data:          map[string]any{"status": "confirmed"},
		Version:       1,
	}))
	require.NoError(t, tx.Commit().Error)

	rows, err := repo.FetchUnpublished(10)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	require.NoError(t, repo.MarkPublished(rows[0].ID))

	rows, err = repo.FetchUnpublished(10)
	require.NoError(t, err)
	require.Empty(t, rows)
}
