package task

import (
	"time"

	"github.com/google/uuid"
)

type Status string
type Priority string
type RecurrenceType string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

const (
	RecurrenceHourly  RecurrenceType = "hourly"
	RecurrenceDaily   RecurrenceType = "daily"
	RecurrenceWeekly  RecurrenceType = "weekly"
	RecurrenceMonthly RecurrenceType = "monthly"
	RecurrenceCustom  RecurrenceType = "custom"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusDone:
		return true
	}
	return false
}

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

func (r RecurrenceType) Valid() bool {
	switch r {
	case RecurrenceHourly, RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly, RecurrenceCustom:
		return true
	}
	return false
}

// Task принадлежит ровно одному пользователю, все чтения и записи
// фильтруются по UserID.
type Task struct {
	ID          uuid.UUID `json:"id" db:"id"`
	UserID      uuid.UUID `json:"user_id" db:"user_id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	Status      Status    `json:"status" db:"status"`
	Priority    Priority  `json:"priority" db:"priority"`
	ColorLabel  string    `json:"color_label,omitempty" db:"color_label"`

	// длительность в секундах
	EstimatedDuration *int64 `json:"estimated_duration,omitempty" db:"estimated_duration"`

	Deadline        *time.Time `json:"deadline" db:"deadline"`
	ReminderEnabled bool       `json:"reminder_enabled" db:"reminder_enabled"`
	ReminderTime    *time.Time `json:"reminder_time,omitempty" db:"reminder_time"`

	Tags []string `json:"tags" db:"tags"`

	// IsRecurring всегда выводится из наличия RecurringPattern,
	// отдельно его никто не выставляет
	IsRecurring      bool           `json:"is_recurring" db:"is_recurring"`
	RecurringPattern *RecurringRule `json:"recurring_pattern,omitempty"`

	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty" db:"updated_at"`
	CompletedAt *time.Time `json:"completed_at" db:"completed_at"`
}

// RecurringRule живёт один-к-одному с задачей и удаляется каскадно вместе с ней.
type RecurringRule struct {
	ID     uuid.UUID `json:"id" db:"id"`
	TaskID uuid.UUID `json:"task_id" db:"task_id"`

	RecurrenceType RecurrenceType `json:"recurrence_type" db:"recurrence_type"`

	// интервал в секундах для hourly/custom
	TimeInterval *int64 `json:"time_interval,omitempty" db:"time_interval"`

	Monday    bool `json:"monday" db:"monday"`
	Tuesday   bool `json:"tuesday" db:"tuesday"`
	Wednesday bool `json:"wednesday" db:"wednesday"`
	Thursday  bool `json:"thursday" db:"thursday"`
	Friday    bool `json:"friday" db:"friday"`
	Saturday  bool `json:"saturday" db:"saturday"`
	Sunday    bool `json:"sunday" db:"sunday"`

	// "HH:MM" для weekly/daily
	TimeOfDay *string `json:"time_of_day,omitempty" db:"time_of_day"`

	StartDate     time.Time  `json:"start_date" db:"start_date"`
	EndDate       *time.Time `json:"end_date,omitempty" db:"end_date"`
	LastGenerated *time.Time `json:"last_generated,omitempty" db:"last_generated"`

	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty" db:"updated_at"`
}

// SortBy должен входить в AllowedSortFields, иначе репозиторий
// откатывается на created_at
var AllowedSortFields = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"deadline":   true,
	"priority":   true,
	"status":     true,
	"title":      true,
}

// ListSpec — полная спецификация выборки. Она же сериализуется в
// отпечаток ключа кэша, поэтому порядок полей менять нельзя.
type ListSpec struct {
	Status         *Status    `json:"status,omitempty"`
	Priority       *Priority  `json:"priority,omitempty"`
	Search         string     `json:"search,omitempty"`
	Tags           []string   `json:"tags,omitempty"`
	DeadlineAfter  *time.Time `json:"deadline_after,omitempty"`
	DeadlineBefore *time.Time `json:"deadline_before,omitempty"`
	SortBy         string     `json:"sort_by"`
	SortOrder      string     `json:"sort_order"`
	Limit          int        `json:"limit"`
	Offset         int        `json:"offset"`
}

// Normalize приводит спецификацию к каноничному виду, чтобы
// семантически одинаковые запросы давали одинаковый ключ кэша.
func (s *ListSpec) Normalize() {
	if !AllowedSortFields[s.SortBy] {
		s.SortBy = "created_at"
	}
	if s.SortOrder != "asc" {
		s.SortOrder = "desc"
	}
	if s.Limit <= 0 || s.Limit > 100 {
		s.Limit = 100
	}
	if s.Offset < 0 {
		s.Offset = 0
	}
}
