package notify

import (
	"time"

	"github.com/shopspring/decimal"

	"dryshift/internal/model"
)

// EventType 领域事件类型
type EventType string

const (
	EventDryingStarted  EventType = "drying.started"
	EventDryingFinished EventType = "drying.finished"
	EventShiftStarted   EventType = "shift.started"
	EventShiftClosed    EventType = "shift.closed"
	EventAdHocRecorded  EventType = "adhoc.recorded"
	EventUserRegistered EventType = "user.registered"
	EventUserApproval   EventType = "user.approval"
)

// Event 业务操作成功后产生的事件，由 Dispatcher 负责外发
// UserID 为操作人（烘干机为占用人，班次为主办人）
type Event struct {
	Type       EventType `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	UserID     int64     `json:"user_id"`

	UnitID int        `json:"unit_id,omitempty"`
	Start  *time.Time `json:"start,omitempty"`
	End    *time.Time `json:"end,omitempty"`

	ShiftID         int64            `json:"shift_id,omitempty"`
	Kind            model.WorkKind   `json:"kind,omitempty"`
	Partners        []int64          `json:"partners,omitempty"`
	DurationMinutes int64            `json:"duration_minutes,omitempty"`
	Results         *string          `json:"results,omitempty"`
	Packages        *int             `json:"packages,omitempty"`
	Amount          *decimal.Decimal `json:"amount,omitempty"`

	EntryID     int64  `json:"entry_id,omitempty"`
	Description string `json:"description,omitempty"`

	Username string `json:"username,omitempty"`
	Approved *bool  `json:"approved,omitempty"`
}

// Message 发往单个接收者的通知
type Message struct {
	Recipient int64 `json:"recipient"`
	Event     Event `json:"event"`
}
