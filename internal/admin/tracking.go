// Package admin records privacy-conscious visit metrics and exposes them,
// together with the contact inbox, behind a token-protected API.
package admin

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Paths that are never counted as visits.
var untrackedPrefixes = []string{
	"/static/",
	"/images/",
	"/admin/",
	"/favicon",
	"/health",
	"/privacy",
}

type Visit struct {
	ID        int64     `json:"id"`
	HashedIP  string    `json:"hashed_ip"` // never the raw address
	UserAgent string    `json:"user_agent"`
	Path      string    `json:"path"`
	VisitedAt time.Time `json:"visited_at"`
}

// Tracker stores one row per page view with a salted, truncated IP hash.
type Tracker struct {
	db   *sql.DB
	salt string
	log  *zap.Logger
	now  func() time.Time
}

// NewTracker returns a tracker. An empty salt is replaced by a random one,
// which makes hashes stable only for the life of the process.
func NewTracker(db *sql.DB, salt string, log *zap.Logger) *Tracker {
	if salt == "" {
		salt = randomHex(32)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Tracker{db: db, salt: salt, log: log, now: time.Now}
}

func (t *Tracker) HashIP(ip string) string {
	sum := sha256.Sum256([]byte(ip + t.salt))
	return hex.EncodeToString(sum[:])[:16]
}

// Middleware records the request after it is served. Requests carrying
// "DNT: 1" and asset, admin and health paths are skipped.
func (t *Tracker) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		path := c.Request.URL.Path
		if !Trackable(path) || c.GetHeader("DNT") == "1" {
			return
		}
		ctx := context.WithoutCancel(c.Request.Context())
		if err := t.Record(ctx, c.ClientIP(), c.GetHeader("User-Agent"), path); err != nil {
			t.log.Warn("record visit", zap.String("path", path), zap.Error(err))
		}
	}
}

func Trackable(path string) bool {
	for _, p := range untrackedPrefixes {
		if strings.HasPrefix(path, p) {
			return false
		}
	}
	return true
}

func (t *Tracker) Record(ctx context.Context, ip, userAgent, path string) error {
	_, err := t.db.ExecContext(ctx, `
		INSERT INTO visits (hashed_ip, user_agent, path, visited_at)
		VALUES (?, ?, ?, ?)
	`, t.HashIP(ip), userAgent, path, t.now().UTC())
	if err != nil {
		return fmt.Errorf("insert visit: %w", err)
	}
	return nil
}

// Cleanup deletes visits older than retention and returns how many went.
func (t *Tracker) Cleanup(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := t.now().UTC().Add(-retention)
	res, err := t.db.ExecContext(ctx, `DELETE FROM visits WHERE visited_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old visits: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		t.log.Info("privacy cleanup removed old visits", zap.Int64("rows", n), zap.Duration("retention", retention))
	}
	return n, nil
}

func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand does not fail on supported platforms.
		panic(fmt.Sprintf("admin: generate random salt: %v", err))
	}
	return hex.EncodeToString(b)
}
