package frontend

import (
	"encoding/json"
	"fmt"

	"acs/internal/apierr"
	"acs/internal/command"
	"acs/internal/handlers"
)

// decodeAs unmarshals raw into a fresh T and returns it boxed as any, ready
// to become a command.Command.Payload or an argument tuple for one of
// handlers.Service's exported query methods.
func decodeAs[T any](raw json.RawMessage) (T, error) {
	var payload T
	if len(raw) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return payload, apierr.New(apierr.KindInvalidArgument, fmt.Sprintf("malformed %T payload", payload), err)
	}
	return payload, nil
}

// decodePayload turns an Envelope's raw JSON payload into the concrete
// payload type command.Buffer.Submit expects for kind. KindAuditVerify
// carries no payload. KindAuditExport is not handled here: it carries an
// io.Writer that has no JSON representation, so Gateway.ExportAudit takes
// the writer directly instead of going through Dispatch.
func decodePayload(kind command.Kind, raw json.RawMessage) (any, error) {
	switch kind {
	case command.KindCreateUser:
		return decodeAs[handlers.CreateUserPayload](raw)
	case command.KindUpdateUser:
		return decodeAs[handlers.UpdateUserPayload](raw)
	case command.KindDeleteUser:
		return decodeAs[handlers.DeleteUserPayload](raw)

	case command.KindCreateGroup:
		return decodeAs[handlers.CreateGroupPayload](raw)
	case command.KindUpdateGroup:
		return decodeAs[handlers.UpdateGroupPayload](raw)
	case command.KindDeleteGroup:
		return decodeAs[handlers.DeleteGroupPayload](raw)

	case command.KindCreateRole:
		return decodeAs[handlers.CreateRolePayload](raw)
	case command.KindUpdateRole:
		return decodeAs[handlers.UpdateRolePayload](raw)
	case command.KindDeleteRole:
		return decodeAs[handlers.DeleteRolePayload](raw)

	case command.KindCreateResource:
		return decodeAs[handlers.CreateResourcePayload](raw)
	case command.KindUpdateResource:
		return decodeAs[handlers.UpdateResourcePayload](raw)
	case command.KindDeleteResource:
		return decodeAs[handlers.DeleteResourcePayload](raw)

	case command.KindAddUserToGroup:
		return decodeAs[handlers.AddUserToGroupPayload](raw)
	case command.KindRemoveUserFromGroup:
		return decodeAs[handlers.RemoveUserFromGroupPayload](raw)
	case command.KindAssignUserToRole:
		return decodeAs[handlers.AssignUserToRolePayload](raw)
	case command.KindUnassignUserFromRole:
		return decodeAs[handlers.UnassignUserFromRolePayload](raw)
	case command.KindAddRoleToGroup:
		return decodeAs[handlers.AddRoleToGroupPayload](raw)
	case command.KindRemoveRoleFromGroup:
		return decodeAs[handlers.RemoveRoleFromGroupPayload](raw)
	case command.KindAddGroupToGroup:
		return decodeAs[handlers.AddGroupToGroupPayload](raw)
	case command.KindRemoveGroupFromGroup:
		return decodeAs[handlers.RemoveGroupFromGroupPayload](raw)

	case command.KindGrantPermission:
		return decodeAs[handlers.GrantPermissionPayload](raw)
	case command.KindDenyPermission:
		return decodeAs[handlers.DenyPermissionPayload](raw)
	case command.KindRemovePermission:
		return decodeAs[handlers.RemovePermissionPayload](raw)

	case command.KindGetEntity:
		return decodeAs[handlers.GetEntityPayload](raw)
	case command.KindListEntities:
		return decodeAs[handlers.ListEntitiesPayload](raw)
	case command.KindCheckPermission:
		return decodeAs[handlers.CheckPermissionPayload](raw)
	case command.KindEvaluatePermission:
		return decodeAs[handlers.EvaluatePermissionPayload](raw)
	case command.KindGetEntityPermissions:
		return decodeAs[handlers.GetEntityPermissionsPayload](raw)

	case command.KindAuditQuery:
		return decodeAs[handlers.AuditQueryPayload](raw)
	case command.KindAuditVerify:
		return nil, nil
	case command.KindAuditPurge:
		return decodeAs[handlers.AuditPurgePayload](raw)

	default:
		return nil, apierr.New(apierr.KindInvalidArgument, fmt.Sprintf("unsupported command kind %q", kind), nil)
	}
}
