package tasks

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/goshop/internal/notify"
)

type fakeQueue struct {
	mu    sync.Mutex
	fail  map[string]error
	tasks []string
}

func (q *fakeQueue) Enqueue(_ context.Context, task string, p Payload) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.fail[task]; err != nil {
		return "", err
	}
	q.tasks = append(q.tasks, task)
	return task + "-id", nil
}

func TestDispatcher_Dispatch(t *testing.T) {
	q := &fakeQueue{}
	h, err := NewDispatcher(q).Dispatch(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, []string{TaskCustomerSMS, TaskAdminEmail}, q.tasks)
	assert.Equal(t, TaskCustomerSMS+"-id", h.SMSTaskID)
	assert.Equal(t, TaskAdminEmail+"-id", h.EmailTaskID)
}

func TestDispatcher_OneEnqueueFails(t *testing.T) {
	q := &fakeQueue{fail: map[string]error{TaskCustomerSMS: errors.New("broker down")}}
	h, err := NewDispatcher(q).Dispatch(context.Background(), 7)
	assert.EqualError(t, err, "broker down")
	assert.Empty(t, h.SMSTaskID)
	assert.Equal(t, TaskAdminEmail+"-id", h.EmailTaskID)
	assert.Equal(t, []string{TaskAdminEmail}, q.tasks)
}

func TestRun_UnknownTask(t *testing.T) {
	_, err := Run(context.Background(), map[string]Handler{}, "orders.nope", Payload{OrderID: 1})
	assert.ErrorIs(t, err, ErrUnknownTask)
}

func TestLocalQueue(t *testing.T) {
	var (
		mu  sync.Mutex
		got []int64
	)
	record := func(_ context.Context, p Payload) (*notify.Result, error) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, p.OrderID)
		return &notify.Result{OrderID: p.OrderID, Success: true}, nil
	}
	q, err := NewLocalQueue(2, map[string]Handler{TaskCustomerSMS: record, TaskAdminEmail: record})
	require.NoError(t, err)
	defer q.Release()

	h, err := NewDispatcher(q).Dispatch(context.Background(), 11)
	require.NoError(t, err)
	assert.NotEmpty(t, h.SMSTaskID)
	assert.NotEqual(t, h.SMSTaskID, h.EmailTaskID)

	q.Wait()
	assert.Equal(t, []int64{11, 11}, got)

	_, err = q.Enqueue(context.Background(), "orders.nope", Payload{OrderID: 1})
	assert.ErrorIs(t, err, ErrUnknownTask)
}

func TestLocalQueue_BusyPoolQueuesTasks(t *testing.T) {
	var (
		mu  sync.Mutex
		got []int64
	)
	release := make(chan struct{})
	slow := func(_ context.Context, p Payload) (*notify.Result, error) {
		<-release
		mu.Lock()
		defer mu.Unlock()
		got = append(got, p.OrderID)
		return &notify.Result{OrderID: p.OrderID, Success: true}, nil
	}
	q, err := NewLocalQueue(1, map[string]Handler{TaskCustomerSMS: slow, TaskAdminEmail: slow})
	require.NoError(t, err)
	defer q.Release()

	d := NewDispatcher(q)
	for _, id := range []int64{1, 2} {
		h, err := d.Dispatch(context.Background(), id)
		require.NoError(t, err)
		assert.NotEmpty(t, h.SMSTaskID)
		assert.NotEmpty(t, h.EmailTaskID)
	}

	close(release)
	q.Wait()
	assert.ElementsMatch(t, []int64{1, 1, 2, 2}, got)
}
