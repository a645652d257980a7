package calendar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHolidays_FetchesAndCaches(t *testing.T) {
	var hits int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		assert.Equal(t, "/api/v3/PublicHolidays/2024/ID", r.URL.Path)
		<-release
		_, _ = w.Write([]byte(`[
			{"date":"2024-08-17","localName":"Hari Proklamasi Kemerdekaan","name":"Independence Day","countryCode":"ID"},
			{"date":"not-a-date","localName":"broken","name":"broken","countryCode":"ID"}
		]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)

	var wg sync.WaitGroup
	results := make([]int, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = len(c.Holidays(context.Background(), "id", 2024))
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, n := range results {
		assert.Equal(t, 1, n)
	}

	got := c.Holidays(context.Background(), "ID", 2024)
	require.Len(t, got, 1)
	assert.Equal(t, "Hari Proklamasi Kemerdekaan", got[0].Name)
	assert.Equal(t, time.Date(2024, 8, 17, 0, 0, 0, 0, time.UTC), got[0].Date)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestHolidays_DegradesToNone(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	assert.Empty(t, c.Holidays(context.Background(), "ID", 2024))
	assert.Empty(t, c.Holidays(context.Background(), "ID", 2024))
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits), "failures are not cached")

	assert.Empty(t, c.Holidays(context.Background(), "", 2024))
	assert.Empty(t, NewClient("", 0).Holidays(context.Background(), "ID", 2024))
}
