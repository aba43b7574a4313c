// Package command implements the single-writer FIFO command buffer (C4,
// §4.4): every mutation is submitted as a Command, queued in submission
// order, and drained by one goroutine so the entity graph never sees
// concurrent writers. The query kinds can be submitted the same way, but
// internal/frontend answers queries through handlers.Service's query
// methods instead, which read the graph directly under its own RWMutex and
// never wait behind a queued mutation.
package command

import (
	"context"
	"fmt"
	"sync"
	"time"

	"acs/internal/apierr"
)

// Kind identifies what a Command does. Handlers (C5) register one Handler
// func per Kind.
type Kind string

const (
	KindCreateUser   Kind = "CREATE_USER"
	KindUpdateUser   Kind = "UPDATE_USER"
	KindDeleteUser   Kind = "DELETE_USER"
	KindCreateGroup  Kind = "CREATE_GROUP"
	KindUpdateGroup  Kind = "UPDATE_GROUP"
	KindDeleteGroup  Kind = "DELETE_GROUP"
	KindCreateRole   Kind = "CREATE_ROLE"
	KindUpdateRole   Kind = "UPDATE_ROLE"
	KindDeleteRole   Kind = "DELETE_ROLE"
	KindCreateResource Kind = "CREATE_RESOURCE"
	KindUpdateResource Kind = "UPDATE_RESOURCE"
	KindDeleteResource Kind = "DELETE_RESOURCE"

	KindAddUserToGroup      Kind = "ADD_USER_TO_GROUP"
	KindRemoveUserFromGroup Kind = "REMOVE_USER_FROM_GROUP"
	KindAssignUserToRole    Kind = "ASSIGN_USER_TO_ROLE"
	KindUnassignUserFromRole Kind = "UNASSIGN_USER_FROM_ROLE"
	KindAddRoleToGroup      Kind = "ADD_ROLE_TO_GROUP"
	KindRemoveRoleFromGroup Kind = "REMOVE_ROLE_FROM_GROUP"
	KindAddGroupToGroup     Kind = "ADD_GROUP_TO_GROUP"
	KindRemoveGroupFromGroup Kind = "REMOVE_GROUP_FROM_GROUP"

	KindGrantPermission  Kind = "GRANT_PERMISSION"
	KindDenyPermission   Kind = "DENY_PERMISSION"
	KindRemovePermission Kind = "REMOVE_PERMISSION"

	KindGetEntity           Kind = "GET_ENTITY"
	KindListEntities        Kind = "LIST_ENTITIES"
	KindCheckPermission     Kind = "CHECK_PERMISSION"
	KindEvaluatePermission  Kind = "EVALUATE_PERMISSION"
	KindGetEntityPermissions Kind = "GET_ENTITY_PERMISSIONS"

	KindAuditQuery  Kind = "AUDIT_QUERY"
	KindAuditVerify Kind = "AUDIT_VERIFY"
	KindAuditPurge  Kind = "AUDIT_PURGE"
	KindAuditExport Kind = "AUDIT_EXPORT"
)

// Command is a single unit of work submitted to the buffer.
type Command struct {
	ID          string
	Kind        Kind
	Payload     any
	SubmittedBy string
	SubmittedAt time.Time
	Deadline    time.Time

	done chan Result
}

// Result is what a Command resolves to.
type Result struct {
	Value any
	Err   error
}

// Handler executes one Command kind against whatever state it closes over
// (typically the graph, audit log, and repository).
type Handler func(ctx context.Context, cmd *Command) (any, error)

// Buffer is the single-writer FIFO command queue.
type Buffer struct {
	softCap int
	queue   chan *Command

	mu       sync.RWMutex
	handlers map[Kind]Handler

	middleware func(Kind, Handler) Handler

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// New returns a Buffer with room for softCap queued commands before
// Submit starts returning apierr.ErrBackpressure.
func New(softCap int) *Buffer {
	if softCap <= 0 {
		softCap = 1
	}
	return &Buffer{
		softCap:  softCap,
		queue:    make(chan *Command, softCap),
		handlers: make(map[Kind]Handler),
	}
}

// Register binds a Handler to a Kind. Call before Start; registering after
// the drain loop is running is not safe for concurrent dispatch lookups.
func (b *Buffer) Register(kind Kind, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[kind] = h
}

// Use installs mw, applied to every handler's lookup at dispatch time
// regardless of registration order. The resilience layer (C8) uses this to
// wrap every Handler with a per-Kind circuit breaker and retry policy
// without the command package needing to know either exists. Call before
// Start; Buffer carries at most one middleware chain, so a second Use call
// replaces the first rather than composing with it.
func (b *Buffer) Use(mw func(Kind, Handler) Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.middleware = mw
}

// Start launches the single drain goroutine. Only one Buffer goroutine ever
// calls a Handler at a time, which is what makes every Handler's access to
// the graph race-free without its own locking.
func (b *Buffer) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	b.cancel = cancel
	b.wg.Add(1)
	go b.drain(ctx)
}

// Stop signals the drain loop to exit and waits for it to finish. Commands
// still queued when the loop sees the signal are not executed: each
// resolves with apierr.ErrTimeout (see drainRemaining).
func (b *Buffer) Stop() {
	if b.cancel != nil {
		b.cancel()
	}
	b.wg.Wait()
}

func (b *Buffer) drain(ctx context.Context) {
	defer b.wg.Done()
	for {
		select {
		case <-ctx.Done():
			b.drainRemaining()
			return
		case cmd := <-b.queue:
			b.execute(ctx, cmd)
		}
	}
}

// drainRemaining fails every command still sitting in the queue at
// shutdown rather than leaving callers blocked on done forever.
func (b *Buffer) drainRemaining() {
	for {
		select {
		case cmd := <-b.queue:
			cmd.done <- Result{Err: apierr.ErrTimeout}
		default:
			return
		}
	}
}

func (b *Buffer) execute(parent context.Context, cmd *Command) {
	ctx := parent
	var cancel context.CancelFunc
	if !cmd.Deadline.IsZero() {
		ctx, cancel = context.WithDeadline(parent, cmd.Deadline)
		defer cancel()
	}

	b.mu.RLock()
	h, ok := b.handlers[cmd.Kind]
	mw := b.middleware
	b.mu.RUnlock()

	if !ok {
		cmd.done <- Result{Err: apierr.New(apierr.KindInvalidArgument, fmt.Sprintf("no handler registered for command kind %q", cmd.Kind), nil)}
		return
	}
	if mw != nil {
		h = mw(cmd.Kind, h)
	}

	value, err := h(ctx, cmd)
	if ctx.Err() == context.DeadlineExceeded {
		cmd.done <- Result{Err: apierr.ErrTimeout}
		return
	}
	cmd.done <- Result{Value: value, Err: err}
}

// Submit enqueues cmd and blocks until it has been executed or ctx is
// canceled. It returns apierr.ErrBackpressure immediately if the queue is
// at softCap rather than blocking the caller, matching §4.4's backpressure
// requirement.
func (b *Buffer) Submit(ctx context.Context, cmd *Command) (any, error) {
	cmd.done = make(chan Result, 1)
	if cmd.SubmittedAt.IsZero() {
		cmd.SubmittedAt = time.Now().UTC()
	}

	select {
	case b.queue <- cmd:
	default:
		return nil, apierr.ErrBackpressure
	}

	select {
	case res := <-cmd.done:
		return res.Value, res.Err
	case <-ctx.Done():
		return nil, apierr.ErrTimeout
	}
}

// Depth returns the number of commands currently queued, for health
// reporting.
func (b *Buffer) Depth() int {
	return len(b.queue)
}
