package cache

import (
	"net/http"
	"testing"
	"time"
)

func TestEntryExpiry(t *testing.T) {
	fresh := &Entry{Expires: time.Now().Add(time.Minute)}
	if fresh.IsExpired() {
		t.Error("entry expiring in a minute must not be expired")
	}
	if fresh.TTL() <= 0 {
		t.Error("fresh entry must have positive TTL")
	}

	stale := &Entry{Expires: time.Now().Add(-time.Minute)}
	if !stale.IsExpired() {
		t.Error("entry expired a minute ago must be expired")
	}
	if stale.TTL() != 0 {
		t.Errorf("stale TTL = %v, want 0", stale.TTL())
	}
}

func TestResponseEntry(t *testing.T) {
	expires := time.Now().Add(10 * time.Minute).UTC()

	resp := &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{},
	}
	resp.Header.Set("ETag", `"abc123"`)
	resp.Header.Set("Expires", expires.Format(http.TimeFormat))
	resp.Header.Set("Last-Modified", expires.Add(-time.Hour).Format(http.TimeFormat))

	body := []byte(`{"items": [], "total": 0}`)
	entry := ResponseEntry(resp, body)

	if string(entry.Data) != string(body) {
		t.Error("entry must carry the response body")
	}
	if entry.ETag != `"abc123"` {
		t.Errorf("ETag = %q, want %q", entry.ETag, `"abc123"`)
	}
	if entry.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", entry.StatusCode)
	}
	if entry.TTL() < 9*time.Minute {
		t.Errorf("TTL = %v, want close to 10m", entry.TTL())
	}
	if entry.LastModified.IsZero() {
		t.Error("LastModified must be parsed")
	}
}

func TestResponseEntry_DefaultTTL(t *testing.T) {
	resp := &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{},
	}

	entry := ResponseEntry(resp, nil)

	ttl := entry.TTL()
	if ttl <= 0 || ttl > DefaultTTL {
		t.Errorf("TTL = %v, want (0, %v] without Expires header", ttl, DefaultTTL)
	}
}
