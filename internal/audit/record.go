// Package audit implements the tamper-evident audit log (C6, §4.6): every
// mutation accepted by the command buffer is appended as a hash-chained
// Record, so that altering or removing a past entry breaks every hash from
// that point forward.
package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"acs/internal/domain"
)

// ChangeType identifies what kind of mutation a Record describes.
type ChangeType string

const (
	ChangeCreateUser   ChangeType = "CREATE_USER"
	ChangeUpdateUser   ChangeType = "UPDATE_USER"
	ChangeDeleteUser   ChangeType = "DELETE_USER"
	ChangeCreateGroup  ChangeType = "CREATE_GROUP"
	ChangeUpdateGroup  ChangeType = "UPDATE_GROUP"
	ChangeDeleteGroup  ChangeType = "DELETE_GROUP"
	ChangeCreateRole   ChangeType = "CREATE_ROLE"
	ChangeUpdateRole   ChangeType = "UPDATE_ROLE"
	ChangeDeleteRole   ChangeType = "DELETE_ROLE"
	ChangeCreateResource ChangeType = "CREATE_RESOURCE"
	ChangeUpdateResource ChangeType = "UPDATE_RESOURCE"
	ChangeDeleteResource ChangeType = "DELETE_RESOURCE"

	ChangeAddUserToGroup      ChangeType = "ADD_USER_TO_GROUP"
	ChangeRemoveUserFromGroup ChangeType = "REMOVE_USER_FROM_GROUP"
	ChangeAssignUserToRole    ChangeType = "ASSIGN_USER_TO_ROLE"
	ChangeUnassignUserFromRole ChangeType = "UNASSIGN_USER_FROM_ROLE"
	ChangeAddRoleToGroup      ChangeType = "ADD_ROLE_TO_GROUP"
	ChangeRemoveRoleFromGroup ChangeType = "REMOVE_ROLE_FROM_GROUP"
	ChangeAddGroupToGroup     ChangeType = "ADD_GROUP_TO_GROUP"
	ChangeRemoveGroupFromGroup ChangeType = "REMOVE_GROUP_FROM_GROUP"

	ChangeGrantPermission  ChangeType = "GRANT_PERMISSION"
	ChangeDenyPermission   ChangeType = "DENY_PERMISSION"
	ChangeRemovePermission ChangeType = "REMOVE_PERMISSION"

	// ChangeAccessDenied and ChangeAccessGranted record the outcome of an
	// access decision (§4.2/§4.6), as opposed to a graph mutation. They are
	// the change types HasSuspiciousActivity's default rule counts.
	ChangeAccessDenied  ChangeType = "ACCESS_DENIED"
	ChangeAccessGranted ChangeType = "ACCESS_GRANTED"

	ChangeSystemPurge ChangeType = "SYSTEM:PURGE"
)

// EntityType names the kind of subject a Record describes, independent of
// domain.EntityKind since a Record can also describe a Resource or
// Permission rather than a principal.
type EntityType string

const (
	EntityTypeUser       EntityType = "user"
	EntityTypeGroup      EntityType = "group"
	EntityTypeRole       EntityType = "role"
	EntityTypeResource   EntityType = "resource"
	EntityTypePermission EntityType = "permission"
	EntityTypeSystem     EntityType = "system"
)

// Record is a single hash-chained audit log entry (§4.6, §6 export header:
// Id,EntityType,EntityId,ChangeType,ChangedBy,ChangeDate,ChangeDetails,Hash,PrevHash).
type Record struct {
	ID            int64             `json:"id"`
	EntityType    EntityType        `json:"entity_type"`
	EntityID      string            `json:"entity_id"`
	ChangeType    ChangeType        `json:"change_type"`
	ChangedBy     string            `json:"changed_by"`
	ChangeDate    time.Time         `json:"change_date"`
	ChangeDetails map[string]string `json:"change_details,omitempty"`
	OperationID   string            `json:"operation_id"`

	PrevHash string `json:"prev_hash"`
	Hash     string `json:"hash"`
}

// NewRecord builds a Record ready to be hash-chained by a Log. entityID is
// formatted as a string because a Record may describe a domain.EntityID, a
// domain.ResourceID, or a composite permission key.
func NewRecord(entityType EntityType, entityID string, changeType ChangeType, changedBy string, details map[string]string) *Record {
	return &Record{
		EntityType:    entityType,
		EntityID:      entityID,
		ChangeType:    changeType,
		ChangedBy:     changedBy,
		ChangeDate:    time.Now().UTC(),
		ChangeDetails: details,
		OperationID:   uuid.NewString(),
	}
}

// computeHash returns the SHA-256 hash of the record's content chained onto
// prevHash. Changing any field of a past record, or reordering records,
// changes this hash and therefore every hash after it (I4). ChangeDetails is
// folded in via a sorted-key serialization so the hash is order-independent
// but still sensitive to any key or value tamper.
func (r *Record) computeHash() string {
	data := fmt.Sprintf("%d|%s|%s|%s|%s|%s|%s|%s|%s",
		r.ID,
		r.EntityType,
		r.EntityID,
		r.ChangeType,
		r.ChangedBy,
		r.ChangeDate.UTC().Format(time.RFC3339Nano),
		serializeDetails(r.ChangeDetails),
		r.OperationID,
		r.PrevHash,
	)
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])
}

// serializeDetails renders ChangeDetails as a stable string, keys sorted, so
// that computeHash is deterministic across map iteration order and reacts to
// any change in keys or values.
func serializeDetails(details map[string]string) string {
	if len(details) == 0 {
		return ""
	}
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(details[k])
	}
	return b.String()
}

// setHashChain stamps PrevHash and computes this record's own Hash. Called
// exactly once per record, by Log.Append or Log.Purge, while holding the
// log's write lock, so the chain's tail is always consistent.
func (r *Record) setHashChain(prevHash string) {
	r.PrevHash = prevHash
	r.Hash = r.computeHash()
}

// EntityIDString renders a domain.EntityID for storage in Record.EntityID,
// used by command handlers building the EntityID argument to Append.
func EntityIDString(id domain.EntityID) string {
	return fmt.Sprintf("%d", id)
}

// ResourceIDString renders a domain.ResourceID for storage in
// Record.EntityID.
func ResourceIDString(id domain.ResourceID) string {
	return fmt.Sprintf("%d", id)
}
