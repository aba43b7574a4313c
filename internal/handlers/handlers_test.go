package handlers

import (
	"context"
	"errors"
	"testing"

	"acs/internal/audit"
	"acs/internal/cache"
	"acs/internal/command"
	"acs/internal/domain"
	"acs/internal/eval"
	"acs/internal/graph"
	"acs/internal/repository"
)

func newTestService() (*Service, *repository.Memory) {
	g := graph.New()
	gw := repository.NewMemory()
	return New(g, eval.New(g), cache.New(64), audit.NewLog("test-tenant"), gw), gw
}

func TestHandleCreateUser_PersistsAndAudits(t *testing.T) {
	s, gw := newTestService()
	ctx := context.Background()

	out, err := s.handleCreateUser(ctx, &command.Command{SubmittedBy: "admin", Payload: CreateUserPayload{Name: "alice"}})
	if err != nil {
		t.Fatalf("handleCreateUser() error = %v", err)
	}
	user := out.(*domain.User)
	if user.Name != "alice" || user.ID == 0 {
		t.Fatalf("unexpected user: %+v", user)
	}

	snap, records, _ := gw.Load(ctx)
	if len(snap.Users) != 1 || snap.Users[0].Name != "alice" {
		t.Errorf("expected alice persisted, got %+v", snap.Users)
	}
	if len(records) != 1 || records[0].ChangeType != audit.ChangeCreateUser {
		t.Errorf("expected one CREATE_USER audit record, got %+v", records)
	}
	if s.AuditLog.Len() != 1 {
		t.Errorf("AuditLog.Len() = %d, want 1", s.AuditLog.Len())
	}
}

func TestHandleCreateUser_RejectsEmptyName(t *testing.T) {
	s, _ := newTestService()
	_, err := s.handleCreateUser(context.Background(), &command.Command{SubmittedBy: "admin", Payload: CreateUserPayload{Name: ""}})
	if !errors.Is(err, domain.ErrInvalidEntityName) {
		t.Errorf("expected ErrInvalidEntityName, got %v", err)
	}
}

func TestHandleDeleteUser_SoftDeletesAndPersists(t *testing.T) {
	s, gw := newTestService()
	ctx := context.Background()

	out, _ := s.handleCreateUser(ctx, &command.Command{SubmittedBy: "admin", Payload: CreateUserPayload{Name: "bob"}})
	user := out.(*domain.User)

	if _, err := s.handleDeleteUser(ctx, &command.Command{SubmittedBy: "admin", Payload: DeleteUserPayload{ID: user.ID}}); err != nil {
		t.Fatalf("handleDeleteUser() error = %v", err)
	}

	if _, err := s.Graph.GetUser(user.ID); !errors.Is(err, domain.ErrEntityNotFound) {
		t.Errorf("expected deleted user to read as not found, got %v", err)
	}

	snap, _, _ := gw.Load(ctx)
	if len(snap.Users) != 1 || snap.Users[0].DeletedAt == nil {
		t.Errorf("expected the persisted user row to carry DeletedAt, got %+v", snap.Users)
	}
}

func TestHandleAddUserToGroup_LinksBothSidesAndPersists(t *testing.T) {
	s, gw := newTestService()
	ctx := context.Background()

	uOut, _ := s.handleCreateUser(ctx, &command.Command{SubmittedBy: "admin", Payload: CreateUserPayload{Name: "carol"}})
	user := uOut.(*domain.User)
	gOut, _ := s.handleCreateGroup(ctx, &command.Command{SubmittedBy: "admin", Payload: CreateGroupPayload{Name: "eng"}})
	grp := gOut.(*domain.Group)

	if _, err := s.handleAddUserToGroup(ctx, &command.Command{SubmittedBy: "admin", Payload: AddUserToGroupPayload{GroupID: grp.ID, UserID: user.ID}}); err != nil {
		t.Fatalf("handleAddUserToGroup() error = %v", err)
	}

	updated, _ := s.Graph.GetGroup(grp.ID)
	if _, member := updated.MemberUserIDs[user.ID]; !member {
		t.Fatal("expected user to be a member of the group in the graph")
	}

	snap, _, _ := gw.Load(ctx)
	var persisted *domain.Group
	for _, g := range snap.Groups {
		if g.ID == grp.ID {
			persisted = g
		}
	}
	if persisted == nil {
		t.Fatal("expected group to be persisted")
	}
	if _, member := persisted.MemberUserIDs[user.ID]; !member {
		t.Error("expected the persisted group to carry the new membership")
	}
}

func TestHandleAddGroupToGroup_RejectsCycle(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()

	parentOut, _ := s.handleCreateGroup(ctx, &command.Command{SubmittedBy: "admin", Payload: CreateGroupPayload{Name: "parent"}})
	parent := parentOut.(*domain.Group)
	childOut, _ := s.handleCreateGroup(ctx, &command.Command{SubmittedBy: "admin", Payload: CreateGroupPayload{Name: "child"}})
	child := childOut.(*domain.Group)

	if _, err := s.handleAddGroupToGroup(ctx, &command.Command{SubmittedBy: "admin", Payload: AddGroupToGroupPayload{ParentID: parent.ID, ChildID: child.ID}}); err != nil {
		t.Fatalf("first AddGroupToGroup() error = %v", err)
	}
	_, err := s.handleAddGroupToGroup(ctx, &command.Command{SubmittedBy: "admin", Payload: AddGroupToGroupPayload{ParentID: child.ID, ChildID: parent.ID}})
	if !errors.Is(err, domain.ErrCycleDetected) {
		t.Errorf("expected ErrCycleDetected, got %v", err)
	}
}

func TestHandleGrantPermission_RejectsDuplicateTuple(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()

	uOut, _ := s.handleCreateUser(ctx, &command.Command{SubmittedBy: "admin", Payload: CreateUserPayload{Name: "dave"}})
	user := uOut.(*domain.User)
	rOut, _ := s.handleCreateResource(ctx, &command.Command{SubmittedBy: "admin", Payload: CreateResourcePayload{URI: "/docs/1", ResourceType: "doc"}})
	res := rOut.(*domain.Resource)

	payload := GrantPermissionPayload{EntityID: user.ID, ResourceID: res.ID, Verb: domain.VerbGet, Scheme: "https"}
	if _, err := s.handleGrantPermission(ctx, &command.Command{SubmittedBy: "admin", Payload: payload}); err != nil {
		t.Fatalf("first GrantPermission() error = %v", err)
	}
	_, err := s.handleGrantPermission(ctx, &command.Command{SubmittedBy: "admin", Payload: payload})
	if !errors.Is(err, domain.ErrPermissionExists) {
		t.Errorf("expected ErrPermissionExists, got %v", err)
	}
}

func TestHandleCheckPermission_GrantThenEvaluate(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()

	uOut, _ := s.handleCreateUser(ctx, &command.Command{SubmittedBy: "admin", Payload: CreateUserPayload{Name: "erin"}})
	user := uOut.(*domain.User)
	rOut, _ := s.handleCreateResource(ctx, &command.Command{SubmittedBy: "admin", Payload: CreateResourcePayload{URI: "/docs/{id}", ResourceType: "doc"}})
	res := rOut.(*domain.Resource)

	checkPayload := CheckPermissionPayload{EntityID: user.ID, URI: "/docs/42", Verb: domain.VerbGet, Scheme: "https"}
	allowed, err := s.handleCheckPermission(ctx, &command.Command{Payload: checkPayload})
	if err != nil {
		t.Fatalf("handleCheckPermission() error = %v", err)
	}
	if allowed.(bool) {
		t.Fatal("expected no permission before granting one")
	}

	grantPayload := GrantPermissionPayload{EntityID: user.ID, ResourceID: res.ID, Verb: domain.VerbGet, Scheme: "https"}
	if _, err := s.handleGrantPermission(ctx, &command.Command{SubmittedBy: "admin", Payload: grantPayload}); err != nil {
		t.Fatalf("handleGrantPermission() error = %v", err)
	}

	allowed, err = s.handleCheckPermission(ctx, &command.Command{Payload: checkPayload})
	if err != nil {
		t.Fatalf("handleCheckPermission() error = %v", err)
	}
	if !allowed.(bool) {
		t.Fatal("expected the granted permission to be observed immediately (I5)")
	}

	out, err := s.handleEvaluatePermission(ctx, &command.Command{Payload: EvaluatePermissionPayload(checkPayload)})
	if err != nil {
		t.Fatalf("handleEvaluatePermission() error = %v", err)
	}
	decision := out.(eval.Decision)
	if !decision.Allowed || decision.Matched == nil {
		t.Errorf("expected an allowed decision with a matched permission, got %+v", decision)
	}
}

func TestExportedQueryMethods_MatchUnderlyingHandlers(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()

	uOut, _ := s.handleCreateUser(ctx, &command.Command{SubmittedBy: "admin", Payload: CreateUserPayload{Name: "frank"}})
	user := uOut.(*domain.User)
	rOut, _ := s.handleCreateResource(ctx, &command.Command{SubmittedBy: "admin", Payload: CreateResourcePayload{URI: "/files/{id}", ResourceType: "file"}})
	res := rOut.(*domain.Resource)
	if _, err := s.handleGrantPermission(ctx, &command.Command{SubmittedBy: "admin", Payload: GrantPermissionPayload{EntityID: user.ID, ResourceID: res.ID, Verb: domain.VerbGet, Scheme: "https"}}); err != nil {
		t.Fatalf("handleGrantPermission() error = %v", err)
	}

	if got, err := s.GetEntity(ctx, domain.KindUser, user.ID); err != nil || got.(*domain.User).ID != user.ID {
		t.Errorf("GetEntity() = %v, %v", got, err)
	}
	if got, err := s.ListEntities(ctx, domain.KindUser); err != nil || len(got.([]*domain.User)) != 1 {
		t.Errorf("ListEntities() = %v, %v", got, err)
	}
	if got, err := s.CheckPermission(ctx, user.ID, "/files/1", domain.VerbGet, "https"); err != nil || got.(bool) != true {
		t.Errorf("CheckPermission() = %v, %v", got, err)
	}
	if got, err := s.EvaluatePermission(ctx, user.ID, "/files/1", domain.VerbGet, "https"); err != nil || !got.(eval.Decision).Allowed {
		t.Errorf("EvaluatePermission() = %v, %v", got, err)
	}
	if got, err := s.GetEntityPermissions(ctx, user.ID); err != nil || len(got.(EntityPermissions).Direct) != 1 {
		t.Errorf("GetEntityPermissions() = %v, %v", got, err)
	}
}

// failingGateway wraps a Memory gateway and fails whichever step name is
// set, to exercise the commit helper's rollback path.
type failingGateway struct {
	inner  *repository.Memory
	failOn string
}

type failingTx struct {
	inner  repository.Tx
	failOn string
	rolled *bool
}

func (g *failingGateway) Load(ctx context.Context) (*repository.Snapshot, []*audit.Record, error) {
	return g.inner.Load(ctx)
}

func (g *failingGateway) Close() error { return g.inner.Close() }

func (g *failingGateway) Begin(ctx context.Context) (repository.Tx, error) {
	if g.failOn == "begin" {
		return nil, errors.New("begin failed")
	}
	inner, err := g.inner.Begin(ctx)
	if err != nil {
		return nil, err
	}
	rolled := false
	return &failingTx{inner: inner, failOn: g.failOn, rolled: &rolled}, nil
}

func (t *failingTx) WriteMutation(ctx context.Context, m repository.MutationWrite) error {
	if t.failOn == "mutation" {
		return errors.New("mutation write failed")
	}
	return t.inner.WriteMutation(ctx, m)
}

func (t *failingTx) WriteAudit(ctx context.Context, r *audit.Record) error {
	if t.failOn == "audit" {
		return errors.New("audit write failed")
	}
	return t.inner.WriteAudit(ctx, r)
}

func (t *failingTx) Commit(ctx context.Context) error {
	if t.failOn == "commit" {
		return errors.New("commit failed")
	}
	return t.inner.Commit(ctx)
}

func (t *failingTx) Rollback(ctx context.Context) error {
	*t.rolled = true
	return t.inner.Rollback(ctx)
}

func TestHandleCreateUser_PersistenceFailureRollsBackGraph(t *testing.T) {
	g := graph.New()
	gw := &failingGateway{inner: repository.NewMemory(), failOn: "commit"}
	s := New(g, eval.New(g), cache.New(64), audit.NewLog("test-tenant"), gw)

	_, err := s.handleCreateUser(context.Background(), &command.Command{SubmittedBy: "admin", Payload: CreateUserPayload{Name: "frank"}})
	if err == nil {
		t.Fatal("expected an error from the failing gateway")
	}
	if len(g.ListUsers()) != 0 {
		t.Errorf("expected the graph mutation to be rolled back, got %+v", g.ListUsers())
	}
	if s.AuditLog.Len() != 0 {
		t.Errorf("expected the audit append to be undone, got %d records", s.AuditLog.Len())
	}
}
