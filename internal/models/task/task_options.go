package task

import "time"

// TaskOption — функция частичного обновления: хендлер собирает опции
// только из переданных в запросе полей, сервис применяет их к задаче.
type TaskOption func(*Task)

func WithTitle(title string) TaskOption {
	return func(t *Task) {
		t.Title = title
	}
}

func WithDescription(description string) TaskOption {
	return func(t *Task) {
		t.Description = description
	}
}

func WithStatus(status Status) TaskOption {
	return func(t *Task) {
		t.Status = status
	}
}

func WithPriority(priority Priority) TaskOption {
	return func(t *Task) {
		t.Priority = priority
	}
}

func WithColorLabel(label string) TaskOption {
	return func(t *Task) {
		t.ColorLabel = label
	}
}

func WithEstimatedDuration(seconds int64) TaskOption {
	return func(t *Task) {
		t.EstimatedDuration = &seconds
	}
}

func WithDeadline(deadline time.Time) TaskOption {
	return func(t *Task) {
		t.Deadline = &deadline
	}
}

func WithReminderEnabled(enabled bool) TaskOption {
	return func(t *Task) {
		t.ReminderEnabled = enabled
	}
}

func WithReminderTime(at time.Time) TaskOption {
	return func(t *Task) {
		t.ReminderTime = &at
	}
}

func WithTags(tags []string) TaskOption {
	return func(t *Task) {
		t.Tags = tags
	}
}

// RulePatch — частичное обновление правила повторения. Нулевые указатели
// означают "поле не трогать".
type RulePatch struct {
	RecurrenceType *RecurrenceType
	TimeInterval   *int64
	Monday         *bool
	Tuesday        *bool
	Wednesday      *bool
	Thursday       *bool
	Friday         *bool
	Saturday       *bool
	Sunday         *bool
	TimeOfDay      *string
	StartDate      *time.Time
	EndDate        *time.Time
}

// Apply накладывает заполненные поля патча на правило.
func (p *RulePatch) Apply(r *RecurringRule) {
	if p.RecurrenceType != nil {
		r.RecurrenceType = *p.RecurrenceType
	}
	if p.TimeInterval != nil {
		r.TimeInterval = p.TimeInterval
	}
	if p.Monday != nil {
		r.Monday = *p.Monday
	}
	if p.Tuesday != nil {
		r.Tuesday = *p.Tuesday
	}
	if p.Wednesday != nil {
		r.Wednesday = *p.Wednesday
	}
	if p.Thursday != nil {
		r.Thursday = *p.Thursday
	}
	if p.Friday != nil {
		r.Friday = *p.Friday
	}
	if p.Saturday != nil {
		r.Saturday = *p.Saturday
	}
	if p.Sunday != nil {
		r.Sunday = *p.Sunday
	}
	if p.TimeOfDay != nil {
		r.TimeOfDay = p.TimeOfDay
	}
	if p.StartDate != nil {
		r.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		r.EndDate = p.EndDate
	}
}
