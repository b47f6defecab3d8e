package http

import (
	"bytes"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/taskboard/core/internal/domain/entities"
	"github.com/taskboard/core/internal/ports"
)

// CreateTaskRequest is the body of POST /api/tasks
type CreateTaskRequest struct {
	Title        string                `json:"title"`
	Description  string                `json:"description"`
	DueDate      string                `json:"dueDate"`
	Priority     string                `json:"priority"`
	Status       string                `json:"status"`
	Assignees    json.RawMessage       `json:"assignees" swaggertype:"array,string"`
	Organization *uuid.UUID            `json:"organization" swaggertype:"string"`
	Tags         []string              `json:"tags"`
	SubTasks     []entities.SubTask    `json:"subTasks"`
	Attachments  []entities.Attachment `json:"attachments"`
}

// UpdateTaskRequest is the body of PUT /api/tasks/:id. Absent or null fields are left unchanged.
// Values stay raw until the service knows which fields the requester may change.
type UpdateTaskRequest struct {
	Title       json.RawMessage `json:"title" swaggertype:"string"`
	Description json.RawMessage `json:"description" swaggertype:"string"`
	DueDate     json.RawMessage `json:"dueDate" swaggertype:"string"`
	Priority    json.RawMessage `json:"priority" swaggertype:"string"`
	Status      json.RawMessage `json:"status" swaggertype:"string"`
	Assignees   json.RawMessage `json:"assignees" swaggertype:"array,string"`
}

func (r CreateTaskRequest) toPort() ports.CreateTaskRequest {
	assignees, _, err := decodeAssignees(r.Assignees)

	return ports.CreateTaskRequest{
		Title:              r.Title,
		Description:        r.Description,
		DueDate:            r.DueDate,
		Priority:           r.Priority,
		Status:             r.Status,
		Assignees:          assignees,
		Organization:       r.Organization,
		Tags:               r.Tags,
		SubTasks:           r.SubTasks,
		Attachments:        r.Attachments,
		MalformedAssignees: err != nil,
	}
}

// toPatch never fails: fields of the wrong shape are recorded as malformed and
// rejected later only if the requester is allowed to change them.
func (r UpdateTaskRequest) toPatch() entities.TaskPatch {
	var patch entities.TaskPatch

	fields := []struct {
		field entities.TaskField
		raw   json.RawMessage
		dst   **string
	}{
		{entities.FieldTitle, r.Title, &patch.Title},
		{entities.FieldDescription, r.Description, &patch.Description},
		{entities.FieldDueDate, r.DueDate, &patch.DueDate},
		{entities.FieldPriority, r.Priority, &patch.Priority},
		{entities.FieldStatus, r.Status, &patch.Status},
	}
	for _, f := range fields {
		value, ok := decodeString(f.raw)
		if !ok {
			patch.Malformed = append(patch.Malformed, f.field)
			continue
		}
		*f.dst = value
	}

	assignees, isArray, err := decodeAssignees(r.Assignees)
	switch {
	case err != nil:
		patch.Malformed = append(patch.Malformed, entities.FieldAssignees)
	case isArray:
		patch.Assignees = &assignees
	}

	return patch
}

// decodeString reads an optional string field. Absent and null yield nil; any
// other non-string value reports ok=false.
func decodeString(raw json.RawMessage) (value *string, ok bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, true
	}

	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return nil, false
	}
	return &s, true
}

// decodeAssignees reads an assignee list. Values other than a JSON array report isArray=false
// and are otherwise ignored.
func decodeAssignees(raw json.RawMessage) (ids []uuid.UUID, isArray bool, err error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, false, nil
	}

	var values []string
	if err := json.Unmarshal(trimmed, &values); err != nil {
		return nil, true, entities.NewValidationError("assignees", "Invalid assignee id")
	}

	ids = make([]uuid.UUID, 0, len(values))
	for _, v := range values {
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, true, entities.NewValidationError("assignees", "Invalid assignee id")
		}
		ids = append(ids, id)
	}

	return ids, true, nil
}
