package comment

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jalal1808/Postify-backend/internal/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/pashagolub/pgxmock/v3"
)

func asUser(userID string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("user_id", userID)
		return c.Next()
	}
}

func newCommentApp(svc *Service, authMiddleware fiber.Handler) *fiber.App {
	app := fiber.New()
	RegisterRoutes(app.Group("/posts/:postID/comments"), svc, authMiddleware)
	return app
}

func TestCommentHandlersCreate(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	expectPostExists(mock, "post-1")
	mock.ExpectQuery(`INSERT INTO comments`).
		WithArgs(pgxmock.AnyArg(), "post-1", "user-1", "great").
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(time.Now(), time.Now()))
	mock.ExpectQuery(`SELECT username FROM users`).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows([]string{"username"}).AddRow("alice"))

	app := newCommentApp(NewService(mock, nil), asUser("user-1"))

	req := httptest.NewRequest(http.MethodPost, "/posts/post-1/comments/", bytes.NewReader([]byte(`{"content":"great"}`)))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status: %v", err)
	}
}

func TestCommentHandlersCreateUnauthenticated(t *testing.T) {
	app := newCommentApp(NewService(nil, nil), auth.JWTMiddleware("secret"))

	req := httptest.NewRequest(http.MethodPost, "/posts/post-1/comments/", bytes.NewReader([]byte(`{"content":"great"}`)))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected unauthorized, got %d", resp.StatusCode)
	}
}

func TestCommentHandlersCreateEmptyContent(t *testing.T) {
	app := newCommentApp(NewService(nil, nil), asUser("user-1"))

	req := httptest.NewRequest(http.MethodPost, "/posts/post-1/comments/", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request, got %d", resp.StatusCode)
	}
}

func TestCommentHandlersListAnonymous(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	expectPostExists(mock, "post-1")
	mock.ExpectQuery(`SELECT c.id, c.post_id, c.user_id, u.username, c.content, c.created_at, c.updated_at`).
		WithArgs("post-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "post_id", "user_id", "username", "content", "created_at", "updated_at"}))

	app := newCommentApp(NewService(mock, nil), auth.JWTMiddleware("secret"))

	req := httptest.NewRequest(http.MethodGet, "/posts/post-1/comments/", nil)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("list status: %v", err)
	}
}

func TestCommentHandlersDeleteNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec(`DELETE FROM comments`).
		WithArgs("c-1", "post-2", "user-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	app := newCommentApp(NewService(mock, nil), asUser("user-1"))

	req := httptest.NewRequest(http.MethodDelete, "/posts/post-2/comments/c-1", nil)
	resp, _ := app.Test(req)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected not found, got %d", resp.StatusCode)
	}
}

func TestCommentHandlersDelete(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec(`DELETE FROM comments`).
		WithArgs("c-1", "post-1", "user-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	app := newCommentApp(NewService(mock, nil), asUser("user-1"))

	req := httptest.NewRequest(http.MethodDelete, "/posts/post-1/comments/c-1", nil)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status: %v", err)
	}
}
