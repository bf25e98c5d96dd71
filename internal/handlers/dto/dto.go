package dto

import (
	"time"

	"smartTask/internal/models/task"
)

// Запросы task-service. Даты приходят уже нормализованными gateway'ем
// в RFC3339 UTC.

type RecurringRuleRequest struct {
	RecurrenceType task.RecurrenceType `json:"recurrence_type"`
	TimeInterval   *int64              `json:"time_interval,omitempty"`
	Monday         bool                `json:"monday"`
	Tuesday        bool                `json:"tuesday"`
	Wednesday      bool                `json:"wednesday"`
	Thursday       bool                `json:"thursday"`
	Friday         bool                `json:"friday"`
	Saturday       bool                `json:"saturday"`
	Sunday         bool                `json:"sunday"`
	TimeOfDay      *string             `json:"time_of_day,omitempty"`
	StartDate      time.Time           `json:"start_date"`
	EndDate        *time.Time          `json:"end_date,omitempty"`
}

func (r *RecurringRuleRequest) ToRule() *task.RecurringRule {
	return &task.RecurringRule{
		RecurrenceType: r.RecurrenceType,
		TimeInterval:   r.TimeInterval,
		Monday:         r.Monday,
		Tuesday:        r.Tuesday,
		Wednesday:      r.Wednesday,
		Thursday:       r.Thursday,
		Friday:         r.Friday,
		Saturday:       r.Saturday,
		Sunday:         r.Sunday,
		TimeOfDay:      r.TimeOfDay,
		StartDate:      r.StartDate,
		EndDate:        r.EndDate,
	}
}

type CreateTaskRequest struct {
	Title             string                `json:"title"`
	Description       string                `json:"description"`
	Status            task.Status           `json:"status,omitempty"`
	Priority          task.Priority         `json:"priority,omitempty"`
	ColorLabel        string                `json:"color_label,omitempty"`
	EstimatedDuration *int64                `json:"estimated_duration,omitempty"`
	Deadline          *time.Time            `json:"deadline,omitempty"`
	ReminderEnabled   *bool                 `json:"reminder_enabled,omitempty"`
	ReminderTime      *time.Time            `json:"reminder_time,omitempty"`
	Tags              []string              `json:"tags,omitempty"`
	RecurringPattern  *RecurringRuleRequest `json:"recurring_pattern,omitempty"`
}

func (r *CreateTaskRequest) ToTask() *task.Task {
	t := &task.Task{
		Title:             r.Title,
		Description:       r.Description,
		Status:            r.Status,
		Priority:          r.Priority,
		ColorLabel:        r.ColorLabel,
		EstimatedDuration: r.EstimatedDuration,
		Deadline:          r.Deadline,
		ReminderEnabled:   true,
		ReminderTime:      r.ReminderTime,
		Tags:              r.Tags,
	}
	if r.ReminderEnabled != nil {
		t.ReminderEnabled = *r.ReminderEnabled
	}
	if r.RecurringPattern != nil {
		t.RecurringPattern = r.RecurringPattern.ToRule()
	}
	return t
}

// RecurringRulePatchRequest — частичное обновление правила,
// nil-указатель означает "не трогать".
type RecurringRulePatchRequest struct {
	RecurrenceType *task.RecurrenceType `json:"recurrence_type,omitempty"`
	TimeInterval   *int64               `json:"time_interval,omitempty"`
	Monday         *bool                `json:"monday,omitempty"`
	Tuesday        *bool                `json:"tuesday,omitempty"`
	Wednesday      *bool                `json:"wednesday,omitempty"`
	Thursday       *bool                `json:"thursday,omitempty"`
	Friday         *bool                `json:"friday,omitempty"`
	Saturday       *bool                `json:"saturday,omitempty"`
	Sunday         *bool                `json:"sunday,omitempty"`
	TimeOfDay      *string              `json:"time_of_day,omitempty"`
	StartDate      *time.Time           `json:"start_date,omitempty"`
	EndDate        *time.Time           `json:"end_date,omitempty"`
}

func (r *RecurringRulePatchRequest) ToPatch() *task.RulePatch {
	return &task.RulePatch{
		RecurrenceType: r.RecurrenceType,
		TimeInterval:   r.TimeInterval,
		Monday:         r.Monday,
		Tuesday:        r.Tuesday,
		Wednesday:      r.Wednesday,
		Thursday:       r.Thursday,
		Friday:         r.Friday,
		Saturday:       r.Saturday,
		Sunday:         r.Sunday,
		TimeOfDay:      r.TimeOfDay,
		StartDate:      r.StartDate,
		EndDate:        r.EndDate,
	}
}

type UpdateTaskRequest struct {
	Title             *string                    `json:"title,omitempty"`
	Description       *string                    `json:"description,omitempty"`
	Status            *task.Status               `json:"status,omitempty"`
	Priority          *task.Priority             `json:"priority,omitempty"`
	ColorLabel        *string                    `json:"color_label,omitempty"`
	EstimatedDuration *int64                     `json:"estimated_duration,omitempty"`
	Deadline          *time.Time                 `json:"deadline,omitempty"`
	ReminderEnabled   *bool                      `json:"reminder_enabled,omitempty"`
	ReminderTime      *time.Time                 `json:"reminder_time,omitempty"`
	Tags              []string                   `json:"tags,omitempty"`
	RecurringPattern  *RecurringRulePatchRequest `json:"recurring_pattern,omitempty"`
}

// Options собирает опции частичного обновления только из переданных полей.
func (r *UpdateTaskRequest) Options() []task.TaskOption {
	options := []task.TaskOption{}
	if r.Title != nil {
		options = append(options, task.WithTitle(*r.Title))
	}
	if r.Description != nil {
		options = append(options, task.WithDescription(*r.Description))
	}
	if r.Status != nil {
		options = append(options, task.WithStatus(*r.Status))
	}
	if r.Priority != nil {
		options = append(options, task.WithPriority(*r.Priority))
	}
	if r.ColorLabel != nil {
		options = append(options, task.WithColorLabel(*r.ColorLabel))
	}
	if r.EstimatedDuration != nil {
		options = append(options, task.WithEstimatedDuration(*r.EstimatedDuration))
	}
	if r.Deadline != nil {
		options = append(options, task.WithDeadline(*r.Deadline))
	}
	if r.ReminderEnabled != nil {
		options = append(options, task.WithReminderEnabled(*r.ReminderEnabled))
	}
	if r.ReminderTime != nil {
		options = append(options, task.WithReminderTime(*r.ReminderTime))
	}
	if r.Tags != nil {
		options = append(options, task.WithTags(r.Tags))
	}
	return options
}
