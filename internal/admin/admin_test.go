package admin

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abuelmaaref/portfolio/internal/contact"
	"github.com/abuelmaaref/portfolio/internal/storage"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func countVisits(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM visits`).Scan(&n))
	return n
}

func TestHashIPIsStableAndSalted(t *testing.T) {
	a := NewTracker(nil, "salt-a", nil)
	b := NewTracker(nil, "salt-b", nil)

	assert.Len(t, a.HashIP("10.0.0.1"), 16)
	assert.Equal(t, a.HashIP("10.0.0.1"), a.HashIP("10.0.0.1"))
	assert.NotEqual(t, a.HashIP("10.0.0.1"), a.HashIP("10.0.0.2"))
	assert.NotEqual(t, a.HashIP("10.0.0.1"), b.HashIP("10.0.0.1"))

	random := NewTracker(nil, "", nil)
	assert.NotEmpty(t, random.salt)
}

func TestTrackable(t *testing.T) {
	assert.True(t, Trackable("/"))
	assert.True(t, Trackable("/projects"))
	for _, p := range []string{"/static/app.css", "/images/me.jpg", "/admin/api/stats", "/favicon.ico", "/healthz"} {
		assert.False(t, Trackable(p), p)
	}
}

func TestMiddlewareRecordsPageViews(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := setupDB(t)
	tracker := NewTracker(db, "salt", nil)

	r := gin.New()
	r.Use(tracker.Middleware())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "home") })
	r.GET("/static/app.css", func(c *gin.Context) { c.String(http.StatusOK, "css") })

	send := func(path string, dnt bool) {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("User-Agent", "test-agent")
		if dnt {
			req.Header.Set("DNT", "1")
		}
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)
	}

	send("/", false)
	send("/", true)
	send("/static/app.css", false)
	assert.Equal(t, 1, countVisits(t, db))

	visits, err := tracker.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, visits, 1)
	assert.Equal(t, "/", visits[0].Path)
	assert.Equal(t, "test-agent", visits[0].UserAgent)
	assert.Len(t, visits[0].HashedIP, 16)
}

func TestStatsAndCleanup(t *testing.T) {
	db := setupDB(t)
	tracker := NewTracker(db, "salt", nil)
	ctx := context.Background()

	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	at := func(d time.Duration) { tracker.now = func() time.Time { return now.Add(-d) } }

	at(400 * 24 * time.Hour)
	require.NoError(t, tracker.Record(ctx, "1.1.1.1", "ua", "/"))
	at(3 * 24 * time.Hour)
	require.NoError(t, tracker.Record(ctx, "1.1.1.1", "ua", "/"))
	at(time.Hour)
	require.NoError(t, tracker.Record(ctx, "2.2.2.2", "ua", "/"))
	at(0)

	repo := contact.NewRepository(db)
	_, err := repo.Create(ctx, contact.Submission{Name: "a", Email: "a@b.co", Message: "hi"})
	require.NoError(t, err)

	st, err := tracker.Stats(ctx, repo, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), st.TotalVisits)
	assert.Equal(t, int64(2), st.UniqueVisitors)
	assert.Equal(t, int64(1), st.VisitsToday)
	assert.Equal(t, int64(2), st.VisitsThisWeek)
	assert.Equal(t, int64(1), st.Messages)
	assert.Equal(t, int64(1), st.UndeliveredMessages)
	assert.Len(t, st.RecentVisits, 2)

	n, err := tracker.Cleanup(ctx, 365*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, 2, countVisits(t, db))
}

func newAdminRouter(t *testing.T) (*gin.Engine, *Tracker) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := setupDB(t)
	tracker := NewTracker(db, "salt", nil)
	h := NewHandler("secret", tracker, contact.NewRepository(db), time.Hour, nil)

	r := gin.New()
	h.Register(r.Group("/admin/api"))
	return r, tracker
}

func TestAdminRequiresToken(t *testing.T) {
	r, _ := newAdminRouter(t)

	cases := []struct {
		name   string
		header string
		cookie string
		want   int
	}{
		{"missing", "", "", http.StatusUnauthorized},
		{"wrong bearer", "Bearer nope", "", http.StatusUnauthorized},
		{"bearer", "Bearer secret", "", http.StatusOK},
		{"cookie", "", "secret", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin/api/stats", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: tokenCookie, Value: tc.cookie})
			}
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)
			assert.Equal(t, tc.want, rr.Code)
		})
	}
}

func TestAdminEndpoints(t *testing.T) {
	r, tracker := newAdminRouter(t)
	require.NoError(t, tracker.Record(context.Background(), "1.1.1.1", "ua", "/"))

	do := func(method, path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		req.Header.Set("Authorization", "Bearer secret")
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		return rr
	}

	rr := do(http.MethodGet, "/admin/api/stats")
	require.Equal(t, http.StatusOK, rr.Code)
	var st Stats
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &st))
	assert.Equal(t, int64(1), st.TotalVisits)

	rr = do(http.MethodGet, "/admin/api/messages?limit=5")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"messages":[]}`, rr.Body.String())

	rr = do(http.MethodGet, "/admin/api/messages?limit=0")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(http.MethodPost, "/admin/api/cleanup")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"deleted":0}`, rr.Body.String())
}

func TestSchedulerRejectsBadSpec(t *testing.T) {
	s := NewScheduler(nil)
	require.NoError(t, s.AddCleanup("@daily", NewTracker(nil, "salt", nil), time.Hour))
	assert.Equal(t, 1, s.Len())

	err := s.Add("not a spec", "broken", func(context.Context) error { return nil })
	assert.Error(t, err)
	assert.Equal(t, 1, s.Len())

	s.Start()
	s.Stop(context.Background())
}
