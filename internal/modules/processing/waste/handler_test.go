package waste

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/ecosphere/core/internal/middleware"
	"github.com/ecosphere/core/internal/pkg/taskqueue"
)

type fakeTaskStore struct {
	task *taskqueue.Task
}

func (f *fakeTaskStore) Enqueue(_ context.Context, _ string, _ interface{}, _, _ string) (*taskqueue.Task, error) {
	return f.task, nil
}

func (f *fakeTaskStore) GetByID(_ context.Context, id string) (*taskqueue.Task, error) {
	if f.task != nil && f.task.ID == id {
		return f.task, nil
	}
	return nil, nil
}

func (f *fakeTaskStore) UpdateStatus(_ context.Context, _ string, _ taskqueue.TaskStatus, _ interface{}, _ string) error {
	return nil
}

func pollTask(t *testing.T, h *Handler, taskID, userID string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/waste/tasks/"+taskID, nil)
	c.Params = gin.Params{{Key: "id", Value: taskID}}
	c.Set(middleware.ContextKeyUserID, userID)
	h.task(c)
	return w
}

func TestTaskPollOnlyReturnsOwnTasks(t *testing.T) {
	h := &Handler{tasks: &fakeTaskStore{task: &taskqueue.Task{
		ID:       "t-1",
		Type:     "waste_classify",
		Status:   taskqueue.TaskCompleted,
		GroupKey: "owner-1",
	}}}

	if w := pollTask(t, h, "t-1", "owner-1"); w.Code != http.StatusOK {
		t.Errorf("owner poll status = %d, want 200", w.Code)
	}
	if w := pollTask(t, h, "t-1", "intruder"); w.Code != http.StatusNotFound {
		t.Errorf("foreign poll status = %d, want 404", w.Code)
	}
	if w := pollTask(t, h, "missing", "owner-1"); w.Code != http.StatusNotFound {
		t.Errorf("unknown task status = %d, want 404", w.Code)
	}
}
