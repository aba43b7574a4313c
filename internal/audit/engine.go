package audit

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"acs/internal/apierr"
)

func init() {
	apierr.RegisterMapping(ErrHashChainBroken, apierr.KindIntegrityViolation, "audit hash chain broken")
	apierr.RegisterMapping(ErrMissingID, apierr.KindIntegrityViolation, "audit record id gap")
	apierr.RegisterMapping(ErrDuplicateHash, apierr.KindIntegrityViolation, "audit duplicate hash")
	apierr.RegisterMapping(ErrMalformedDetails, apierr.KindIntegrityViolation, "audit record details malformed")
	apierr.RegisterMapping(ErrIngestRateLimited, apierr.KindBackpressure, "audit ingestion rate limited")
}

var (
	// ErrHashChainBroken means a record's stored Hash does not match a
	// recomputed hash of its own fields plus PrevHash (I4).
	ErrHashChainBroken = fmt.Errorf("audit: hash chain broken")
	// ErrMissingID means two consecutive records in id order do not satisfy
	// id(n+1) > id(n) (I4).
	ErrMissingID = fmt.Errorf("audit: record id gap")
	// ErrDuplicateHash means two records share a Hash, which should be
	// impossible under I4 unless the chain has been tampered with.
	ErrDuplicateHash = fmt.Errorf("audit: duplicate hash")
	// ErrMalformedDetails means a record's ChangeDetails could not be
	// interpreted.
	ErrMalformedDetails = fmt.Errorf("audit: malformed change details")
	// ErrIngestRateLimited means a changedBy principal exceeded the
	// configured ingestion rate.
	ErrIngestRateLimited = fmt.Errorf("audit: ingestion rate limited")
)

// Violation is one integrity problem found by Validate, identified by the
// record id where it was detected.
type Violation struct {
	RecordID int64
	Err      error
}

// Filter selects a subset of the chain for Query/Export. Zero-value fields
// are unconstrained; every set field composes with every other via AND,
// per the open-question decision recorded in DESIGN.md.
type Filter struct {
	From             time.Time
	To               time.Time
	EntityType       EntityType
	EntityID         string
	ChangedBy        string
	ChangeTypePrefix string
}

func (f Filter) matches(r *Record) bool {
	if !f.From.IsZero() && r.ChangeDate.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && r.ChangeDate.After(f.To) {
		return false
	}
	if f.EntityType != "" && f.EntityType != r.EntityType {
		return false
	}
	if f.EntityID != "" && f.EntityID != r.EntityID {
		return false
	}
	if f.ChangedBy != "" && f.ChangedBy != r.ChangedBy {
		return false
	}
	if f.ChangeTypePrefix != "" && !strings.HasPrefix(string(r.ChangeType), f.ChangeTypePrefix) {
		return false
	}
	return true
}

// Statistics is the §4.6 derived summary over the full chain.
type Statistics struct {
	TotalRecords   int
	UniqueUsers    int
	UniqueEntities int
	SecurityCount  int
	DataCount      int
}

// Log is the tamper-evident, append-only audit chain (C6). One Log
// instance owns the tail hash and is the single point of serialization
// for appends, holding its own write lock around the chain it wraps.
type Log struct {
	mu       sync.RWMutex
	tenantID string
	records  []*Record
	tailHash string
	nextID   int64

	redactor *Redactor
	limiter  *ingestLimiter
	alerts   *AlertDetector

	preserve []string // ChangeType prefixes exempt from Purge
}

// Option configures a Log at construction.
type Option func(*Log)

// WithRedactor overrides the default Redactor.
func WithRedactor(r *Redactor) Option { return func(l *Log) { l.redactor = r } }

// WithIngestLimit caps Append calls per changedBy within window. threshold
// <= 0 disables limiting, which is the default.
func WithIngestLimit(threshold int, window time.Duration) Option {
	return func(l *Log) { l.limiter = newIngestLimiter(threshold, window) }
}

// WithAlertRules overrides the default suspicious-activity rule set.
func WithAlertRules(rules []ThresholdRule) Option {
	return func(l *Log) { l.alerts = NewAlertDetector(rules) }
}

// WithPreservedChangeTypes sets the ChangeType prefixes exempt from Purge
// (configuration key preserveChangeTypes, default SECURITY:).
func WithPreservedChangeTypes(prefixes ...string) Option {
	return func(l *Log) { l.preserve = prefixes }
}

// NewLog returns an empty Log for tenantID.
func NewLog(tenantID string, opts ...Option) *Log {
	l := &Log{
		tenantID: tenantID,
		nextID:   1,
		redactor: NewRedactor(),
		limiter:  newIngestLimiter(0, 0),
		alerts:   NewAlertDetector(DefaultThresholdRules()),
		preserve: []string{"SECURITY:"},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Append redacts details, assigns the next id, chains the hash onto the
// current tail, and stores the record. Apart from Restore, UndoAppend and
// Purge it is the only mutator of tailHash and nextID, and all four hold
// l.mu, so callers serialize through it the same way C4 serializes every
// mutation through one drain goroutine.
func (l *Log) Append(entityType EntityType, entityID string, changeType ChangeType, changedBy string, details map[string]string) (*Record, []Alert, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.limiter.Allow(changedBy) {
		return nil, nil, ErrIngestRateLimited
	}

	record := NewRecord(entityType, entityID, changeType, changedBy, l.redactor.Redact(details))
	record.ID = l.nextID
	record.setHashChain(l.tailHash)

	l.records = append(l.records, record)
	l.tailHash = record.Hash
	l.nextID++

	alerts := l.alerts.Check(record)
	return record, alerts, nil
}

// Restore replaces the in-memory chain with records loaded from durable
// storage (§4.7's load path) so the hash chain continues across a
// restart instead of silently starting a new genesis. records must
// already be in ascending id/hash-chain order, exactly as persisted; this
// does not redact or recompute hashes, it trusts the durable store the
// same way Load trusts it for the entity graph. Call it once at startup
// before the command buffer starts accepting new commands: it replaces the
// whole chain, so any record appended before the call is discarded.
func (l *Log) Restore(records []*Record) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.records = records
	l.nextID = 1
	l.tailHash = ""
	if n := len(records); n > 0 {
		l.nextID = records[n-1].ID + 1
		l.tailHash = records[n-1].Hash
	}
}

// UndoAppend removes the most recently appended record if its id matches
// id, restoring tailHash and nextID to what they were before that Append.
// It exists so a command handler can undo an audit append whose matching
// repository write then failed (§4.7): the in-memory chain and the durable
// store must never disagree about what was recorded. It is a no-op if id
// is not the current tail, which can only happen if a later Append already
// raced ahead of the caller — impossible under the single-writer command
// buffer, but checked anyway rather than assumed.
func (l *Log) UndoAppend(id int64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := len(l.records)
	if n == 0 || l.records[n-1].ID != id {
		return
	}
	l.records = l.records[:n-1]
	l.nextID = id
	if n-1 == 0 {
		l.tailHash = ""
	} else {
		l.tailHash = l.records[n-2].Hash
	}
}

// Query returns every record matching filter, newest first, per §4.6's
// stable descending-by-timestamp pagination.
func (l *Log) Query(filter Filter, limit, offset int) []*Record {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var matched []*Record
	for _, r := range l.records {
		if filter.matches(r) {
			matched = append(matched, r)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].ChangeDate.After(matched[j].ChangeDate)
	})

	if offset >= len(matched) {
		return nil
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched
}

// Validate walks the chain in id order and reports every violation found,
// rather than stopping at the first (an operator wants the full picture of
// what tampering occurred).
func (l *Log) Validate() []Violation {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var violations []Violation
	seenHashes := make(map[string]struct{}, len(l.records))
	var prevID int64
	var prevHash string
	for i, r := range l.records {
		if i > 0 && r.ID <= prevID {
			violations = append(violations, Violation{RecordID: r.ID, Err: ErrMissingID})
		}
		if r.PrevHash != prevHash {
			violations = append(violations, Violation{RecordID: r.ID, Err: ErrHashChainBroken})
		}
		if recomputed := r.computeHash(); recomputed != r.Hash {
			violations = append(violations, Violation{RecordID: r.ID, Err: ErrHashChainBroken})
		}
		if _, dup := seenHashes[r.Hash]; dup {
			violations = append(violations, Violation{RecordID: r.ID, Err: ErrDuplicateHash})
		}
		seenHashes[r.Hash] = struct{}{}
		prevID = r.ID
		prevHash = r.Hash
	}
	return violations
}

// Purge removes every record older than now-retention except those whose
// ChangeType matches a preserved prefix, then appends exactly one
// SYSTEM:PURGE record documenting the count removed. The purge record
// chains onto the pre-purge tail, so the chain as a whole stays
// verifiable even though individual purged records are gone.
func (l *Log) Purge(retention time.Duration, changedBy string) (*Record, int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := time.Now().UTC().Add(-retention)
	var survivors []*Record
	removed := 0
	for _, r := range l.records {
		if r.ChangeDate.Before(cutoff) && !l.isPreserved(r.ChangeType) {
			removed++
			continue
		}
		survivors = append(survivors, r)
	}
	l.records = survivors

	purgeRecord := NewRecord(EntityTypeSystem, l.tenantID, ChangeSystemPurge, changedBy, map[string]string{
		"removed": fmt.Sprintf("%d", removed),
	})
	purgeRecord.ID = l.nextID
	purgeRecord.setHashChain(l.tailHash)
	l.records = append(l.records, purgeRecord)
	l.tailHash = purgeRecord.Hash
	l.nextID++

	return purgeRecord, removed, nil
}

func (l *Log) isPreserved(ct ChangeType) bool {
	for _, prefix := range l.preserve {
		if strings.HasPrefix(string(ct), prefix) {
			return true
		}
	}
	return false
}

// HasSuspiciousActivity reports whether user had at least threshold
// ACCESS_DENIED records within the trailing window (§4.6). A change type of
// exactly ChangeAccessDenied counts, as does one namespaced under it (e.g.
// "SECURITY:ACCESS_DENIED"), so callers that prefix their change types still
// trip the rule.
func (l *Log) HasSuspiciousActivity(changedBy string, window time.Duration, threshold int) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	cutoff := time.Now().UTC().Add(-window)
	count := 0
	for _, r := range l.records {
		if r.ChangedBy != changedBy || r.ChangeDate.Before(cutoff) {
			continue
		}
		if isAccessDenied(r.ChangeType) {
			count++
		}
	}
	return count >= threshold
}

func isAccessDenied(ct ChangeType) bool {
	return ct == ChangeAccessDenied || strings.HasSuffix(string(ct), ":"+string(ChangeAccessDenied))
}

// Statistics computes the §4.6 derived summary over the current chain.
func (l *Log) Statistics() Statistics {
	l.mu.RLock()
	defer l.mu.RUnlock()

	users := make(map[string]struct{})
	entities := make(map[string]struct{})
	var stats Statistics
	for _, r := range l.records {
		stats.TotalRecords++
		users[r.ChangedBy] = struct{}{}
		entities[r.EntityID] = struct{}{}
		switch {
		case strings.HasPrefix(string(r.ChangeType), "SECURITY:"):
			stats.SecurityCount++
		case strings.HasPrefix(string(r.ChangeType), "DATA_"):
			stats.DataCount++
		}
	}
	stats.UniqueUsers = len(users)
	stats.UniqueEntities = len(entities)
	return stats
}

// TailHash returns the hash of the most recently appended record, or "" if
// the chain is empty.
func (l *Log) TailHash() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.tailHash
}

// Len returns the number of records currently held.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}
