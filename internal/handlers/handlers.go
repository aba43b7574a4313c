// Package handlers implements the command handlers (C5, §4.5): one
// function per mutation kind plus the query handlers, registered into the
// command buffer (C4). Every mutation handler follows the same shape —
// validate against the graph, apply the graph change, append an audit
// record, persist both through the repository gateway (C7), and roll back
// the graph change if persistence fails — so that the graph, the audit
// chain, and the durable store never disagree about what happened.
package handlers

import (
	"acs/internal/audit"
	"acs/internal/cache"
	"acs/internal/command"
	"acs/internal/eval"
	"acs/internal/graph"
	"acs/internal/repository"
)

// Service holds every component a command handler needs. It has no
// exported mutable state of its own; everything it touches is owned by
// the components it wraps.
type Service struct {
	Graph    *graph.Graph
	Eval     *eval.Evaluator
	Cache    *cache.Cache
	AuditLog *audit.Log
	Gateway  repository.Gateway
}

// New returns a Service wiring the given components together.
func New(g *graph.Graph, ev *eval.Evaluator, c *cache.Cache, a *audit.Log, gw repository.Gateway) *Service {
	return &Service{Graph: g, Eval: ev, Cache: c, AuditLog: a, Gateway: gw}
}

// Register binds every command.Kind to its handler on buf. Call once
// before buf.Start.
func (s *Service) Register(buf *command.Buffer) {
	buf.Register(command.KindCreateUser, s.handleCreateUser)
	buf.Register(command.KindUpdateUser, s.handleUpdateUser)
	buf.Register(command.KindDeleteUser, s.handleDeleteUser)

	buf.Register(command.KindCreateGroup, s.handleCreateGroup)
	buf.Register(command.KindUpdateGroup, s.handleUpdateGroup)
	buf.Register(command.KindDeleteGroup, s.handleDeleteGroup)

	buf.Register(command.KindCreateRole, s.handleCreateRole)
	buf.Register(command.KindUpdateRole, s.handleUpdateRole)
	buf.Register(command.KindDeleteRole, s.handleDeleteRole)

	buf.Register(command.KindCreateResource, s.handleCreateResource)
	buf.Register(command.KindUpdateResource, s.handleUpdateResource)
	buf.Register(command.KindDeleteResource, s.handleDeleteResource)

	buf.Register(command.KindAddUserToGroup, s.handleAddUserToGroup)
	buf.Register(command.KindRemoveUserFromGroup, s.handleRemoveUserFromGroup)
	buf.Register(command.KindAssignUserToRole, s.handleAssignUserToRole)
	buf.Register(command.KindUnassignUserFromRole, s.handleUnassignUserFromRole)
	buf.Register(command.KindAddRoleToGroup, s.handleAddRoleToGroup)
	buf.Register(command.KindRemoveRoleFromGroup, s.handleRemoveRoleFromGroup)
	buf.Register(command.KindAddGroupToGroup, s.handleAddGroupToGroup)
	buf.Register(command.KindRemoveGroupFromGroup, s.handleRemoveGroupFromGroup)

	buf.Register(command.KindGrantPermission, s.handleGrantPermission)
	buf.Register(command.KindDenyPermission, s.handleDenyPermission)
	buf.Register(command.KindRemovePermission, s.handleRemovePermission)

	buf.Register(command.KindGetEntity, s.handleGetEntity)
	buf.Register(command.KindListEntities, s.handleListEntities)
	buf.Register(command.KindCheckPermission, s.handleCheckPermission)
	buf.Register(command.KindEvaluatePermission, s.handleEvaluatePermission)
	buf.Register(command.KindGetEntityPermissions, s.handleGetEntityPermissions)

	buf.Register(command.KindAuditQuery, s.handleAuditQuery)
	buf.Register(command.KindAuditVerify, s.handleAuditVerify)
	buf.Register(command.KindAuditPurge, s.handleAuditPurge)
	buf.Register(command.KindAuditExport, s.handleAuditExport)
}
