package bot

import (
	"context"
	"fmt"
	"time"

	appErrors "github.com/noah-isme/school-diary-api/pkg/errors"
)

// State is a step of a chat conversation.
type State string

// Conversation states.
const (
	StateNone              State = ""
	StateAwaitingRole      State = "awaiting_role"
	StateAwaitingUsername  State = "awaiting_username"
	StateAwaitingPassword  State = "awaiting_password"
	StateStudentMenu       State = "student_menu"
	StateStudentSubject    State = "student_select_subject"
	StateTeacherMenu       State = "teacher_menu"
	StateSelectClass       State = "select_class"
	StateSelectSubject     State = "select_subject"
	StateManageClass       State = "manage_class"
	StateGradeStudent      State = "add_grade_student"
	StateGradeValue        State = "add_grade_value"
	StateGradeDate         State = "add_grade_date"
	StateAttendanceStudent State = "add_attendance_student"
	StateAttendanceStatus  State = "add_attendance_status"
	StateAttendanceDate    State = "add_attendance_date"
	StateHomeworkTask      State = "add_homework_task"
	StateHomeworkDue       State = "add_homework_due"
)

// Session is the per-chat state machine position plus the form collected so far.
type Session struct {
	State     State  `json:"state"`
	Role      string `json:"role,omitempty"`
	Username  string `json:"username,omitempty"`
	ClassID   int64  `json:"class_id,omitempty"`
	SubjectID int64  `json:"subject_id,omitempty"`
	StudentID int64  `json:"student_id,omitempty"`
	Grade     int    `json:"grade,omitempty"`
	Status    string `json:"status,omitempty"`
	Task      string `json:"task,omitempty"`
}

// resetForm keeps the state and the selected class and subject.
func (s *Session) resetForm() {
	s.StudentID = 0
	s.Grade = 0
	s.Status = ""
	s.Task = ""
}

// reset forgets everything.
func (s *Session) reset(state State) {
	*s = Session{State: state}
}

type stateCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// StateStore keeps chat sessions in Redis under bot:state:<chat_id>.
type StateStore struct {
	cache stateCache
	ttl   time.Duration
}

// NewStateStore constructs a StateStore.
func NewStateStore(cache stateCache, ttl time.Duration) *StateStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &StateStore{cache: cache, ttl: ttl}
}

func stateKey(chatID int64) string {
	return fmt.Sprintf("bot:state:%d", chatID)
}

// Load returns the chat session, or an empty one when none is stored.
func (s *StateStore) Load(ctx context.Context, chatID int64) (*Session, error) {
	var session Session
	if err := s.cache.Get(ctx, stateKey(chatID), &session); err != nil {
		if appErrors.Is(err, appErrors.ErrCacheMiss) {
			return &Session{}, nil
		}
		return nil, err
	}
	return &session, nil
}

// Save stores the chat session and refreshes its TTL.
func (s *StateStore) Save(ctx context.Context, chatID int64, session *Session) error {
	return s.cache.Set(ctx, stateKey(chatID), session, s.ttl)
}
