package distlock

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedisLock_AcquireThenBlocksSecondHolder(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()

	first := NewRedisLock(client, "workspace1:providerA", time.Minute)
	ok, err := first.Acquire(ctx)
	if err != nil || !ok {
		t.Fatalf("first acquire: ok=%v err=%v", ok, err)
	}

	second := NewRedisLock(client, "workspace1:providerA", time.Minute)
	ok, err = second.Acquire(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("second holder should not acquire an already-held lock")
	}
}

func TestRedisLock_ReleaseOnlyByOwner(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()

	first := NewRedisLock(client, "workspace1:providerA", time.Minute)
	if _, err := first.Acquire(ctx); err != nil {
		t.Fatalf("acquire: %v", err)
	}

	impostor := NewRedisLock(client, "workspace1:providerA", time.Minute)
	if err := impostor.Release(ctx); err != nil {
		t.Fatalf("unexpected error releasing as non-owner: %v", err)
	}

	// A non-owner's release attempt is a no-op, so the key must still be
	// held and a further contender must fail to acquire it.
	other := NewRedisLock(client, "workspace1:providerA", time.Minute)
	ok, err := other.Acquire(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("lock should still be held after a non-owner's release attempt")
	}

	if err := first.Release(ctx); err != nil {
		t.Fatalf("owner release: %v", err)
	}
	ok, err = other.Acquire(ctx)
	if err != nil || !ok {
		t.Fatalf("expected acquire to succeed after owner released: ok=%v err=%v", ok, err)
	}
}

func TestNewLock_PrefersRedisWhenClientNonNil(t *testing.T) {
	client := setupTestRedis(t)
	l := NewLock(client, nil, "k", time.Minute)
	if _, ok := l.(*RedisLock); !ok {
		t.Fatalf("expected *RedisLock, got %T", l)
	}
}

func TestNewLock_FallsBackToPGAdvisoryLock(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	l := NewLock(nil, db, "k", time.Minute)
	if _, ok := l.(*PGAdvisoryLock); !ok {
		t.Fatalf("expected *PGAdvisoryLock, got %T", l)
	}
}

func TestPGAdvisoryLock_AcquireAndRelease(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	l := NewPGAdvisoryLock(db, "workspace1:providerA")

	mock.ExpectQuery("SELECT pg_try_advisory_lock").
		WithArgs(l.lockID).
		WillReturnRows(sqlmock.NewRows([]string{"pg_try_advisory_lock"}).AddRow(true))
	ok, err := l.Acquire(context.Background())
	if err != nil || !ok {
		t.Fatalf("acquire: ok=%v err=%v", ok, err)
	}

	mock.ExpectExec("SELECT pg_advisory_unlock").
		WithArgs(l.lockID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	if err := l.Release(context.Background()); err != nil {
		t.Fatalf("release: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPGAdvisoryLock_SameKeyProducesSameLockID(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	a := NewPGAdvisoryLock(db, "workspace1:providerA")
	b := NewPGAdvisoryLock(db, "workspace1:providerA")
	c := NewPGAdvisoryLock(db, "workspace1:providerB")

	if a.lockID != b.lockID {
		t.Error("same key should hash to same lock ID")
	}
	if a.lockID == c.lockID {
		t.Error("different keys should hash to different lock IDs (barring a hash collision)")
	}
}
