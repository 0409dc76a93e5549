package form

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAvailability struct {
	mu     sync.Mutex
	calls  []string
	delays map[string]time.Duration
	taken  map[string]bool
}

func (f *fakeAvailability) CheckDatasetName(ctx context.Context, uid, name string) (bool, string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	delay := f.delays[name]
	taken := f.taken[name]
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if taken {
		return false, "Dataset name already exists", nil
	}
	return true, "Dataset name is available", nil
}

func (f *fakeAvailability) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func TestNameChecker_DebounceOnlyChecksLatest(t *testing.T) {
	api := &fakeAvailability{}
	results := make(chan CheckResult, 4)
	nc := NewNameChecker(api, "uid-1", 20*time.Millisecond, func(r CheckResult) { results <- r })
	defer nc.Close()

	nc.Schedule("m")
	nc.Schedule("my")
	nc.Schedule("my_data")

	select {
	case r := <-results:
		assert.Equal(t, "my_data", r.Name)
		assert.True(t, r.Available)
	case <-time.After(time.Second):
		t.Fatal("no result published")
	}
	assert.Equal(t, []string{"my_data"}, api.Calls())
}

func TestNameChecker_StaleResultDoesNotOverwrite(t *testing.T) {
	api := &fakeAvailability{
		delays: map[string]time.Duration{"slow": 150 * time.Millisecond},
		taken:  map[string]bool{"slow": true},
	}
	results := make(chan CheckResult, 4)
	nc := NewNameChecker(api, "uid-1", 5*time.Millisecond, func(r CheckResult) { results <- r })
	defer nc.Close()

	nc.Schedule("slow")
	require.Eventually(t, func() bool { return len(api.Calls()) == 1 }, time.Second, time.Millisecond)
	nc.Schedule("fast")

	select {
	case r := <-results:
		assert.Equal(t, "fast", r.Name)
	case <-time.After(time.Second):
		t.Fatal("no result published")
	}

	time.Sleep(250 * time.Millisecond)
	got, ok := nc.Result()
	require.True(t, ok)
	assert.Equal(t, "fast", got.Name)
	assert.True(t, got.Available)
	assert.Len(t, results, 0)
}

func TestNameChecker_CheckNowIgnoresDebounce(t *testing.T) {
	api := &fakeAvailability{taken: map[string]bool{"dup": true}}
	nc := NewNameChecker(api, "uid-1", time.Hour, nil)
	defer nc.Close()

	nc.Schedule("dup")
	res := nc.CheckNow(context.Background(), "dup")
	assert.False(t, res.Available)
	assert.Equal(t, []string{"dup"}, api.Calls())

	got, ok := nc.Result()
	require.True(t, ok)
	assert.Equal(t, "dup", got.Name)
}

func TestNameChecker_EmptyNameClears(t *testing.T) {
	api := &fakeAvailability{}
	nc := NewNameChecker(api, "uid-1", time.Millisecond, nil)
	defer nc.Close()

	nc.CheckNow(context.Background(), "x")
	_, ok := nc.Result()
	require.True(t, ok)

	nc.Schedule("")
	_, ok = nc.Result()
	assert.False(t, ok)
}

func TestNameChecker_CloseDropsPending(t *testing.T) {
	api := &fakeAvailability{}
	nc := NewNameChecker(api, "uid-1", 10*time.Millisecond, func(CheckResult) {
		t.Error("callback after close")
	})
	nc.Schedule("late")
	nc.Close()
	nc.Close()
	time.Sleep(40 * time.Millisecond)
	assert.Empty(t, api.Calls())
}
