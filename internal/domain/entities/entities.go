package entities

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Enums and types
type UserRole string

const (
	UserRoleMember UserRole = "member"
	UserRoleAdmin  UserRole = "admin"
)

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "Todo"
	TaskStatusInProgress TaskStatus = "In Progress"
	TaskStatusDone       TaskStatus = "Done"
)

type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

const (
	MaxTitleLength    = 200
	MaxUserNameLength = 100

	// DueSoonWindow is how far ahead of now a due date still counts as "due soon".
	DueSoonWindow = 3 * 24 * time.Hour
)

// User represents a registered user
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	ProfilePic   string    `json:"profilePic" db:"profile_pic"`
	Role         UserRole  `json:"role" db:"role"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// UserSummary is the display subset of a user embedded in task views.
type UserSummary struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	ProfilePic string    `json:"profilePic"`
}

// SubTask is a lightweight checklist entry of a task
type SubTask struct {
	Title  string `json:"title"`
	IsDone bool   `json:"isDone"`
}

// Attachment references an uploaded file
type Attachment struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

// Comment is a message left on a task
type Comment struct {
	Author    uuid.UUID `json:"author"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// Task is the stored task document
type Task struct {
	ID           uuid.UUID    `json:"id"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	ReporterID   uuid.UUID    `json:"reporter"`
	AssigneeIDs  []uuid.UUID  `json:"assignees"`
	Organization *uuid.UUID   `json:"organization"`
	DueDate      time.Time    `json:"dueDate"`
	Priority     Priority     `json:"priority"`
	Status       TaskStatus   `json:"status"`
	WatcherIDs   []uuid.UUID  `json:"watchers"`
	Tags         []string     `json:"tags"`
	SubTasks     []SubTask    `json:"subTasks"`
	Attachments  []Attachment `json:"attachments"`
	Comments     []Comment    `json:"comments"`
	IsArchived   bool         `json:"isArchived"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// TaskView is a task with reporter and assignees resolved to display summaries.
type TaskView struct {
	ID           uuid.UUID     `json:"id"`
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	Reporter     UserSummary   `json:"reporter"`
	Assignees    []UserSummary `json:"assignees"`
	Organization *uuid.UUID    `json:"organization"`
	DueDate      time.Time     `json:"dueDate"`
	Priority     Priority      `json:"priority"`
	Status       TaskStatus    `json:"status"`
	Watchers     []uuid.UUID   `json:"watchers"`
	Tags         []string      `json:"tags"`
	SubTasks     []SubTask     `json:"subTasks"`
	Attachments  []Attachment  `json:"attachments"`
	Comments     []Comment     `json:"comments"`
	IsArchived   bool          `json:"isArchived"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// Business logic methods for User
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, ProfilePic: u.ProfilePic}
}

// NormalizeEmail lowercases and trims an email address the way it is stored.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Business logic methods for Task
func (t *Task) IsReporter(userID uuid.UUID) bool {
	return t.ReporterID == userID
}

func (t *Task) IsAssignee(userID uuid.UUID) bool {
	return containsID(t.AssigneeIDs, userID)
}

func (t *Task) IsWatcher(userID uuid.UUID) bool {
	return containsID(t.WatcherIDs, userID)
}

// RoleOf derives the requester's role from the task's current reporter and assignees.
func (t *Task) RoleOf(userID uuid.UUID) Role {
	var role Role
	if t.IsReporter(userID) {
		role |= RoleReporter
	}
	if t.IsAssignee(userID) {
		role |= RoleAssignee
	}
	return role
}

// AddWatcher adds userID to the watcher set and reports whether the set changed.
func (t *Task) AddWatcher(userID uuid.UUID) bool {
	if t.IsWatcher(userID) {
		return false
	}
	t.WatcherIDs = append(t.WatcherIDs, userID)
	return true
}

// RemoveWatcher removes userID from the watcher set and reports whether the set changed.
func (t *Task) RemoveWatcher(userID uuid.UUID) bool {
	kept := t.WatcherIDs[:0:0]
	for _, id := range t.WatcherIDs {
		if id != userID {
			kept = append(kept, id)
		}
	}
	changed := len(kept) != len(t.WatcherIDs)
	t.WatcherIDs = kept
	return changed
}

// IsDueBy reports whether the task is due at or before the deadline. Overdue tasks qualify.
func (t *Task) IsDueBy(deadline time.Time) bool {
	return !t.DueDate.After(deadline)
}

// Clone returns a deep copy of the task
func (t *Task) Clone() *Task {
	c := *t
	c.AssigneeIDs = append([]uuid.UUID(nil), t.AssigneeIDs...)
	c.WatcherIDs = append([]uuid.UUID(nil), t.WatcherIDs...)
	c.Tags = append([]string(nil), t.Tags...)
	c.SubTasks = append([]SubTask(nil), t.SubTasks...)
	c.Attachments = append([]Attachment(nil), t.Attachments...)
	c.Comments = append([]Comment(nil), t.Comments...)
	if t.Organization != nil {
		org := *t.Organization
		c.Organization = &org
	}
	return &c
}

// View resolves reporter and assignees against the given summaries. Unknown ids keep only the id.
func (t *Task) View(summaries map[uuid.UUID]UserSummary) *TaskView {
	lookup := func(id uuid.UUID) UserSummary {
		if s, ok := summaries[id]; ok {
			return s
		}
		return UserSummary{ID: id}
	}

	assignees := make([]UserSummary, 0, len(t.AssigneeIDs))
	for _, id := range t.AssigneeIDs {
		assignees = append(assignees, lookup(id))
	}

	return &TaskView{
		ID:           t.ID,
		Title:        t.Title,
		Description:  t.Description,
		Reporter:     lookup(t.ReporterID),
		Assignees:    assignees,
		Organization: t.Organization,
		DueDate:      t.DueDate,
		Priority:     t.Priority,
		Status:       t.Status,
		Watchers:     nonNilIDs(t.WatcherIDs),
		Tags:         nonNil(t.Tags),
		SubTasks:     nonNil(t.SubTasks),
		Attachments:  nonNil(t.Attachments),
		Comments:     nonNil(t.Comments),
		IsArchived:   t.IsArchived,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

// ReferencedUsers lists the reporter and assignees without duplicates.
func (t *Task) ReferencedUsers() []uuid.UUID {
	return UniqueIDs(append([]uuid.UUID{t.ReporterID}, t.AssigneeIDs...))
}

// ParseDueDate accepts a calendar date (2006-01-02) or an RFC 3339 timestamp.
func ParseDueDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	layouts := []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

	var err error
	for _, layout := range layouts {
		var parsed time.Time
		parsed, err = time.Parse(layout, value)
		if err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, err
}

// UniqueIDs drops duplicate ids while keeping first-seen order.
func UniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func containsID(ids []uuid.UUID, target uuid.UUID) bool {
	for _, id := range ids {
		if id == target {
			return true
		}
	}
	return false
}

func nonNilIDs(ids []uuid.UUID) []uuid.UUID {
	if ids == nil {
		return []uuid.UUID{}
	}
	return ids
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// Utility methods
func (ur UserRole) IsValid() bool {
	switch ur {
	case UserRoleMember, UserRoleAdmin:
		return true
	default:
		return false
	}
}

func (ts TaskStatus) IsValid() bool {
	switch ts {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusDone:
		return true
	default:
		return false
	}
}

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}
