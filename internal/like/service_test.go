package like

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jalal1808/Postify-backend/internal/shared/apperr"
	"github.com/jalal1808/Postify-backend/internal/stream"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
)

func expectPostExists(mock pgxmock.PgxPoolIface, postID string) {
	mock.ExpectQuery(`SELECT 1 FROM posts`).
		WithArgs(postID).
		WillReturnRows(pgxmock.NewRows([]string{"?column?"}).AddRow(1))
}

func TestAddLike(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	expectPostExists(mock, "post-1")
	mock.ExpectQuery(`INSERT INTO likes`).
		WithArgs(pgxmock.AnyArg(), "user-1", "post-1").
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	svc := NewService(mock, nil)
	l, err := svc.Add(context.Background(), "user-1", "post-1")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if l.UserID != "user-1" || l.PostID != "post-1" {
		t.Fatalf("unexpected like: %+v", l)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

// When the unique (user_id, post_id) constraint swallows the insert, no
// row comes back and the duplicate is reported as a conflict.
func TestAddLikeTwiceIsConflict(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	expectPostExists(mock, "post-1")
	mock.ExpectQuery(`INSERT INTO likes`).
		WithArgs(pgxmock.AnyArg(), "user-1", "post-1").
		WillReturnError(pgx.ErrNoRows)

	svc := NewService(mock, nil)
	_, err = svc.Add(context.Background(), "user-1", "post-1")
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

// no-rows can surface wrapped by a scan error and must still read as a
// duplicate
func TestAddLikeWrappedNoRowsIsConflict(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	expectPostExists(mock, "post-1")
	mock.ExpectQuery(`INSERT INTO likes`).
		WithArgs(pgxmock.AnyArg(), "user-1", "post-1").
		WillReturnError(fmt.Errorf("scan: %w", pgx.ErrNoRows))

	svc := NewService(mock, nil)
	_, err = svc.Add(context.Background(), "user-1", "post-1")
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestAddLikeMissingPost(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT 1 FROM posts`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	svc := NewService(mock, nil)
	_, err = svc.Add(context.Background(), "user-1", "missing")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAddLikeAnonymous(t *testing.T) {
	svc := NewService(nil, nil)
	_, err := svc.Add(context.Background(), "", "post-1")
	if !errors.Is(err, apperr.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
}

func TestRemoveLike(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec(`DELETE FROM likes`).
		WithArgs("user-1", "post-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	svc := NewService(mock, nil)
	if err := svc.Remove(context.Background(), "user-1", "post-1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
}

func TestRemoveLikeNeverLiked(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec(`DELETE FROM likes`).
		WithArgs("user-1", "post-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	svc := NewService(mock, nil)
	err = svc.Remove(context.Background(), "user-1", "post-1")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAddLikeBroadcasts(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	expectPostExists(mock, "post-1")
	mock.ExpectQuery(`INSERT INTO likes`).
		WithArgs(pgxmock.AnyArg(), "user-1", "post-1").
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	hub := stream.NewHub(nil)
	client := hub.Register("post-1")

	svc := NewService(mock, hub)
	if _, err := svc.Add(context.Background(), "user-1", "post-1"); err != nil {
		t.Fatalf("add: %v", err)
	}

	select {
	case msg := <-client.Send:
		if len(msg) == 0 {
			t.Fatal("empty broadcast payload")
		}
	case <-time.After(time.Second):
		t.Fatal("no activity event broadcast")
	}
}
