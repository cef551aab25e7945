package model

import "time"

type AssignmentStatus string

const (
	AssignmentPending   AssignmentStatus = "pending"
	AssignmentCompleted AssignmentStatus = "completed"
	AssignmentSkipped   AssignmentStatus = "skipped"
)

// Assignment links one task to one member for one cycle instance.
// At most one assignment exists per (task, member, assigned day).
type Assignment struct {
	ID           int64            `json:"id"`
	TaskID       int64            `json:"task_id"`
	MemberID     int64            `json:"member_id"`
	AssignedDate time.Time        `json:"assigned_date"`
	DueDate      time.Time        `json:"due_date"`
	Status       AssignmentStatus `json:"status"`
	CreatedAt    time.Time        `json:"created_at"`
}

// Completion is the immutable record of a finished assignment. PointsEarned
// is copied from the task's effort at completion time and never recomputed.
type Completion struct {
	ID           int64     `json:"id"`
	AssignmentID int64     `json:"assignment_id"`
	MemberID     int64     `json:"member_id"`
	PointsEarned int       `json:"points_earned"`
	CompletedAt  time.Time `json:"completed_at"`
}

// Cancellation accompanies an assignment that was explicitly declined.
// While IsAvailable is true the task is open for reclaim by another member.
type Cancellation struct {
	ID           int64      `json:"id"`
	AssignmentID int64      `json:"assignment_id"`
	CancelledBy  int64      `json:"cancelled_by"`
	Reason       string     `json:"reason"`
	IsAvailable  bool       `json:"is_available"`
	TakenBy      *int64     `json:"taken_by"`
	TakenAt      *time.Time `json:"taken_at"`
	CreatedAt    time.Time  `json:"created_at"`
}
