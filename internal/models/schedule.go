package models

import "strings"

// Schedule is a weekly lesson slot. Times are HH:MM strings.
type Schedule struct {
	ID        int64  `db:"schedule_id" json:"schedule_id"`
	ClassID   int64  `db:"class_id" json:"class_id"`
	SubjectID int64  `db:"subject_id" json:"subject_id"`
	TeacherID int64  `db:"teacher_id" json:"teacher_id"`
	DayOfWeek string `db:"day_of_week" json:"day_of_week"`
	StartTime string `db:"start_time" json:"start_time"`
	EndTime   string `db:"end_time" json:"end_time"`
}

// Overlaps reports whether the half-open ranges [StartTime, EndTime) intersect on the same day.
func (s Schedule) Overlaps(other Schedule) bool {
	return s.DayOfWeek == other.DayOfWeek && s.StartTime < other.EndTime && s.EndTime > other.StartTime
}

// ScheduleRecord is a schedule with the names of its class, subject and teacher.
type ScheduleRecord struct {
	Schedule
	ClassName   string `db:"class_name" json:"class_name"`
	SubjectName string `db:"subject_name" json:"subject_name"`
	TeacherName string `db:"teacher_name" json:"teacher_name"`
}

// ScheduleFilter carries case-insensitive substring filters plus exact id filters.
type ScheduleFilter struct {
	Teacher   string
	Class     string
	Subject   string
	Day       string
	Time      string
	TeacherID *int64
	ClassID   *int64
}

var weekdays = []string{"Понедельник", "Вторник", "Среда", "Четверг", "Пятница", "Суббота", "Воскресенье"}

// Weekdays returns the day names in week order.
func Weekdays() []string {
	out := make([]string, len(weekdays))
	copy(out, weekdays)
	return out
}

// DayOrder returns 1 for Monday through 7 for Sunday, and 8 for unknown names.
func DayOrder(day string) int {
	for i, d := range weekdays {
		if strings.EqualFold(d, strings.TrimSpace(day)) {
			return i + 1
		}
	}
	return len(weekdays) + 1
}

// IsWeekday reports whether day is a known day name.
func IsWeekday(day string) bool {
	return DayOrder(day) <= len(weekdays)
}
