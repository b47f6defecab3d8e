package entities

import (
	"strings"

	"github.com/google/uuid"
)

// Role is the set of relationships a user holds to a specific task.
type Role uint8

const (
	RoleReporter Role = 1 << iota
	RoleAssignee

	RoleNone Role = 0
)

// Has reports whether r shares at least one bit with other.
func (r Role) Has(other Role) bool {
	return r&other != 0
}

// IsMember reports whether the user is the reporter or an assignee.
func (r Role) IsMember() bool {
	return r.Has(RoleReporter | RoleAssignee)
}

func (r Role) String() string {
	var parts []string
	if r.Has(RoleReporter) {
		parts = append(parts, "reporter")
	}
	if r.Has(RoleAssignee) {
		parts = append(parts, "assignee")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "+")
}

// TaskField names a mutable task field.
type TaskField string

const (
	FieldTitle       TaskField = "title"
	FieldDescription TaskField = "description"
	FieldDueDate     TaskField = "dueDate"
	FieldPriority    TaskField = "priority"
	FieldStatus      TaskField = "status"
	FieldAssignees   TaskField = "assignees"
)

var fieldPermissions = map[TaskField]Role{
	FieldStatus:      RoleReporter | RoleAssignee,
	FieldTitle:       RoleReporter,
	FieldDescription: RoleReporter,
	FieldDueDate:     RoleReporter,
	FieldPriority:    RoleReporter,
	FieldAssignees:   RoleReporter,
}

// CanModify reports whether a user holding role may change field.
func CanModify(role Role, field TaskField) bool {
	required, ok := fieldPermissions[field]
	if !ok {
		return false
	}
	return role.Has(required)
}

// TaskPatch is a partial update. Nil fields were not sent by the client.
// Malformed lists fields that were sent with a value of the wrong shape; they
// count as present for permission checks and fail validation when kept.
type TaskPatch struct {
	Title       *string
	Description *string
	DueDate     *string
	Priority    *string
	Status      *string
	Assignees   *[]uuid.UUID
	Malformed   []TaskField
}

var patchOrder = []TaskField{FieldTitle, FieldDescription, FieldDueDate, FieldPriority, FieldStatus, FieldAssignees}

// Fields lists the fields present in the patch.
func (p TaskPatch) Fields() []TaskField {
	present := map[TaskField]bool{
		FieldTitle:       p.Title != nil,
		FieldDescription: p.Description != nil,
		FieldDueDate:     p.DueDate != nil,
		FieldPriority:    p.Priority != nil,
		FieldStatus:      p.Status != nil,
		FieldAssignees:   p.Assignees != nil,
	}
	for _, field := range p.Malformed {
		present[field] = true
	}

	var fields []TaskField
	for _, field := range patchOrder {
		if present[field] {
			fields = append(fields, field)
		}
	}
	return fields
}

// IsMalformed reports whether field was sent with a value of the wrong shape.
func (p TaskPatch) IsMalformed(field TaskField) bool {
	for _, f := range p.Malformed {
		if f == field {
			return true
		}
	}
	return false
}

// Permitted returns a copy of the patch with every field role may not change cleared,
// along with the names of the dropped fields.
func (p TaskPatch) Permitted(role Role) (TaskPatch, []TaskField) {
	var dropped []TaskField
	out := p
	out.Malformed = nil
	for _, field := range p.Fields() {
		if CanModify(role, field) {
			if p.IsMalformed(field) {
				out.Malformed = append(out.Malformed, field)
			}
			continue
		}
		dropped = append(dropped, field)
		switch field {
		case FieldTitle:
			out.Title = nil
		case FieldDescription:
			out.Description = nil
		case FieldDueDate:
			out.DueDate = nil
		case FieldPriority:
			out.Priority = nil
		case FieldStatus:
			out.Status = nil
		case FieldAssignees:
			out.Assignees = nil
		}
	}
	return out, dropped
}

// IsEmpty reports whether the patch carries no fields.
func (p TaskPatch) IsEmpty() bool {
	return len(p.Fields()) == 0
}
