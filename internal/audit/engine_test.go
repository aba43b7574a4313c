package audit

import (
	"bytes"
	"compress/gzip"
	"io"
	"strings"
	"testing"
	"time"
)

func TestLog_AppendChainsHashes(t *testing.T) {
	l := NewLog("tenant-a")

	r1, _, err := l.Append(EntityTypeUser, "1", ChangeCreateUser, "alice", nil)
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if r1.PrevHash != "" {
		t.Errorf("expected first record PrevHash empty, got %q", r1.PrevHash)
	}

	r2, _, err := l.Append(EntityTypeUser, "2", ChangeCreateUser, "alice", nil)
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if r2.PrevHash != r1.Hash {
		t.Errorf("r2.PrevHash = %q, want %q", r2.PrevHash, r1.Hash)
	}
	if r2.ID <= r1.ID {
		t.Errorf("r2.ID = %d, want > %d", r2.ID, r1.ID)
	}
}

func TestLog_AppendRedactsSensitiveFields(t *testing.T) {
	l := NewLog("tenant-a")
	r, _, err := l.Append(EntityTypeUser, "1", ChangeCreateUser, "alice", map[string]string{
		"password": "hunter2",
		"note":     "initial provisioning",
	})
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if r.ChangeDetails["password"] != redactedPlaceholder {
		t.Errorf("password = %q, want redacted", r.ChangeDetails["password"])
	}
	if r.ChangeDetails["note"] != "initial provisioning" {
		t.Errorf("note was redacted unexpectedly: %q", r.ChangeDetails["note"])
	}
}

func TestLog_Validate_DetectsTamperedHash(t *testing.T) {
	l := NewLog("tenant-a")
	_, _, _ = l.Append(EntityTypeUser, "1", ChangeCreateUser, "alice", nil)
	r2, _, _ := l.Append(EntityTypeUser, "2", ChangeCreateUser, "alice", nil)
	_, _, _ = l.Append(EntityTypeUser, "3", ChangeCreateUser, "alice", nil)

	r2.ChangedBy = "mallory" // mutate a past record without recomputing its hash

	violations := l.Validate()
	if len(violations) == 0 {
		t.Fatal("expected tampering to be detected")
	}
	found := false
	for _, v := range violations {
		if v.RecordID == r2.ID && v.Err == ErrHashChainBroken {
			found = true
		}
	}
	if !found {
		t.Errorf("expected ErrHashChainBroken at record %d, got %+v", r2.ID, violations)
	}
}

func TestLog_Validate_DetectsTamperedChangeDetails(t *testing.T) {
	l := NewLog("tenant-a")
	_, _, _ = l.Append(EntityTypeUser, "1", ChangeCreateUser, "alice", nil)
	r2, _, _ := l.Append(EntityTypeUser, "2", ChangeCreateUser, "alice", map[string]string{"email": "bob@example.com"})
	_, _, _ = l.Append(EntityTypeUser, "3", ChangeCreateUser, "alice", nil)

	r2.ChangeDetails["email"] = "mallory@example.com" // mutate details without recomputing the hash

	violations := l.Validate()
	found := false
	for _, v := range violations {
		if v.RecordID == r2.ID && v.Err == ErrHashChainBroken {
			found = true
		}
	}
	if !found {
		t.Errorf("expected ErrHashChainBroken at record %d for tampered ChangeDetails, got %+v", r2.ID, violations)
	}
}

func TestLog_Validate_CleanChainHasNoViolations(t *testing.T) {
	l := NewLog("tenant-a")
	for i := 0; i < 5; i++ {
		_, _, err := l.Append(EntityTypeUser, "1", ChangeUpdateUser, "alice", nil)
		if err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}
	if violations := l.Validate(); len(violations) != 0 {
		t.Errorf("expected no violations, got %+v", violations)
	}
}

func TestLog_Purge_PreservesSecurityPrefixAndAnchorsChain(t *testing.T) {
	l := NewLog("tenant-a", WithPreservedChangeTypes("SECURITY:"))

	old, _, _ := l.Append(EntityTypeUser, "1", "SECURITY:ACCESS_DENIED", "alice", nil)
	stale, _, _ := l.Append(EntityTypeUser, "2", ChangeCreateUser, "alice", nil)
	stale.ChangeDate = time.Now().UTC().Add(-100 * 24 * time.Hour)
	old.ChangeDate = time.Now().UTC().Add(-100 * 24 * time.Hour)
	recent, _, _ := l.Append(EntityTypeUser, "3", ChangeCreateUser, "bob", nil)

	preTailHash := l.TailHash()
	purgeRecord, removed, err := l.Purge(30*24*time.Hour, "system")
	if err != nil {
		t.Fatalf("Purge() error = %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1 (only the non-preserved stale record)", removed)
	}
	if purgeRecord.PrevHash != preTailHash {
		t.Errorf("purge record PrevHash = %q, want %q", purgeRecord.PrevHash, preTailHash)
	}
	if purgeRecord.ChangeType != ChangeSystemPurge {
		t.Errorf("purge record ChangeType = %q, want %q", purgeRecord.ChangeType, ChangeSystemPurge)
	}

	if violations := l.Validate(); len(violations) != 0 {
		t.Errorf("expected chain to remain valid after purge, got %+v", violations)
	}

	ids := map[int64]bool{}
	for _, r := range l.records {
		ids[r.ID] = true
	}
	if !ids[old.ID] {
		t.Error("expected SECURITY: record to survive purge")
	}
	if !ids[recent.ID] {
		t.Error("expected recent record to survive purge")
	}
}

func TestLog_HasSuspiciousActivity(t *testing.T) {
	l := NewLog("tenant-a")
	for i := 0; i < 3; i++ {
		_, _, err := l.Append(EntityTypeResource, "doc-1", ChangeAccessDenied, "u1", nil)
		if err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}
	for i := 0; i < 2; i++ {
		_, _, err := l.Append(EntityTypeResource, "doc-1", ChangeAccessGranted, "u2", nil)
		if err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}
	if !l.HasSuspiciousActivity("u1", 30*time.Minute, 3) {
		t.Error("expected u1 to be flagged after 3 ACCESS_DENIED events")
	}
	if l.HasSuspiciousActivity("u2", 30*time.Minute, 3) {
		t.Error("did not expect u2 to be flagged for ACCESS_GRANTED events")
	}
}

func TestLog_HasSuspiciousActivity_MatchesNamespacedChangeType(t *testing.T) {
	l := NewLog("tenant-a")
	for i := 0; i < 3; i++ {
		_, _, err := l.Append(EntityTypeUser, "1", "SECURITY:ACCESS_DENIED", "mallory", nil)
		if err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}
	if !l.HasSuspiciousActivity("mallory", time.Hour, 3) {
		t.Error("expected SECURITY:ACCESS_DENIED events to count toward the threshold")
	}
}

func TestLog_AlertDetector_TripsOnThreshold(t *testing.T) {
	l := NewLog("tenant-a", WithAlertRules([]ThresholdRule{
		{Name: "deny_burst", ChangeType: ChangeDenyPermission, Threshold: 2, Window: time.Minute,
			GroupBy: func(r *Record) string { return r.ChangedBy }},
	}))

	_, alerts1, _ := l.Append(EntityTypeResource, "doc-1", ChangeDenyPermission, "mallory", nil)
	if len(alerts1) != 0 {
		t.Errorf("did not expect alert on first append, got %+v", alerts1)
	}
	_, alerts2, _ := l.Append(EntityTypeResource, "doc-2", ChangeDenyPermission, "mallory", nil)
	if len(alerts2) != 1 {
		t.Fatalf("expected one alert on second append, got %+v", alerts2)
	}
	if alerts2[0].RuleName != "deny_burst" {
		t.Errorf("RuleName = %q, want deny_burst", alerts2[0].RuleName)
	}
}

func TestLog_Query_FiltersAreANDed(t *testing.T) {
	l := NewLog("tenant-a")
	_, _, _ = l.Append(EntityTypeUser, "1", ChangeCreateUser, "alice", nil)
	_, _, _ = l.Append(EntityTypeGroup, "1", ChangeCreateGroup, "alice", nil)
	_, _, _ = l.Append(EntityTypeUser, "2", ChangeCreateUser, "bob", nil)

	results := l.Query(Filter{EntityType: EntityTypeUser, ChangedBy: "alice"}, 0, 0)
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].EntityID != "1" || results[0].ChangedBy != "alice" {
		t.Errorf("unexpected result: %+v", results[0])
	}
}

func TestLog_Query_NewestFirst(t *testing.T) {
	l := NewLog("tenant-a")
	first, _, _ := l.Append(EntityTypeUser, "1", ChangeCreateUser, "alice", nil)
	second, _, _ := l.Append(EntityTypeUser, "2", ChangeCreateUser, "alice", nil)

	results := l.Query(Filter{}, 0, 0)
	if len(results) != 2 || results[0].ID != second.ID || results[1].ID != first.ID {
		t.Errorf("expected newest-first order, got %+v", results)
	}
}

func TestLog_Statistics(t *testing.T) {
	l := NewLog("tenant-a")
	_, _, _ = l.Append(EntityTypeUser, "1", "SECURITY:ACCESS_DENIED", "alice", nil)
	_, _, _ = l.Append(EntityTypeUser, "2", ChangeCreateUser, "bob", nil)

	stats := l.Statistics()
	if stats.TotalRecords != 2 {
		t.Errorf("TotalRecords = %d, want 2", stats.TotalRecords)
	}
	if stats.UniqueUsers != 2 {
		t.Errorf("UniqueUsers = %d, want 2", stats.UniqueUsers)
	}
	if stats.SecurityCount != 1 {
		t.Errorf("SecurityCount = %d, want 1", stats.SecurityCount)
	}
}

func TestLog_Export_CSVHeaderExact(t *testing.T) {
	l := NewLog("tenant-a")
	_, _, _ = l.Append(EntityTypeUser, "1", ChangeCreateUser, "alice", map[string]string{"name": "alice"})

	var buf bytes.Buffer
	if err := l.Export(&buf, ExportCSV, CompressionNone, Filter{}); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	firstLine := strings.SplitN(buf.String(), "\n", 2)[0]
	want := "Id,EntityType,EntityId,ChangeType,ChangedBy,ChangeDate,ChangeDetails,Hash,PrevHash"
	if firstLine != want {
		t.Errorf("CSV header = %q, want %q", firstLine, want)
	}
}

func TestLog_Export_Gzip(t *testing.T) {
	l := NewLog("tenant-a")
	_, _, _ = l.Append(EntityTypeUser, "1", ChangeCreateUser, "alice", nil)

	var buf bytes.Buffer
	if err := l.Export(&buf, ExportCSV, CompressionGzip, Filter{}); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	zr, err := gzip.NewReader(&buf)
	if err != nil {
		t.Fatalf("gzip.NewReader() error = %v", err)
	}
	defer zr.Close()
	raw, err := io.ReadAll(zr)
	if err != nil {
		t.Fatalf("reading decompressed export: %v", err)
	}
	if !strings.HasPrefix(string(raw), "Id,EntityType") {
		t.Errorf("decompressed export did not start with CSV header: %q", string(raw)[:40])
	}
}

func TestLog_IngestRateLimit(t *testing.T) {
	l := NewLog("tenant-a", WithIngestLimit(1, time.Minute))

	if _, _, err := l.Append(EntityTypeUser, "1", ChangeCreateUser, "alice", nil); err != nil {
		t.Fatalf("first Append() error = %v", err)
	}
	if _, _, err := l.Append(EntityTypeUser, "2", ChangeCreateUser, "alice", nil); err != ErrIngestRateLimited {
		t.Errorf("expected ErrIngestRateLimited, got %v", err)
	}
	if _, _, err := l.Append(EntityTypeUser, "3", ChangeCreateUser, "bob", nil); err != nil {
		t.Errorf("expected bob unaffected by alice's limit, got %v", err)
	}
}
