package bot

import (
	"fmt"
	"strings"

	"github.com/noah-isme/school-diary-api/internal/dto"
	"github.com/noah-isme/school-diary-api/internal/models"
)

const unknownSubject = "Неизвестный предмет"

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func scheduleText(records []models.ScheduleRecord, withClass bool) string {
	var sb strings.Builder
	sb.WriteString("Расписание:\n")
	for _, r := range records {
		fmt.Fprintf(&sb, "%s %s-%s: %s", r.DayOfWeek, r.StartTime, r.EndTime, orDefault(r.SubjectName, unknownSubject))
		if withClass {
			fmt.Fprintf(&sb, " (%s)", orDefault(r.ClassName, "Неизвестный класс"))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func homeworkText(items []models.Homework) string {
	var sb strings.Builder
	sb.WriteString("Домашние задания:\n")
	for _, hw := range items {
		fmt.Fprintf(&sb, "%s (к %s): %s\n", orDefault(hw.SubjectName, unknownSubject), hw.DueDate, hw.Task)
	}
	return sb.String()
}

func classmatesText(students []models.StudentRecord) string {
	var sb strings.Builder
	sb.WriteString("Одноклассники:\n")
	for _, st := range students {
		email := "Нет email"
		if st.Email != nil && *st.Email != "" {
			email = *st.Email
		}
		fmt.Fprintf(&sb, "%s, %s, %s\n", st.FullName(), orDefault(st.PhoneNumber, "Нет номера"), email)
	}
	return sb.String()
}

func gradesAttendanceText(result *dto.GradesAttendance) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Оценки по предмету %s:\n", result.Subject.Name)
	if len(result.Grades) == 0 {
		sb.WriteString("Оценки отсутствуют.\n")
	}
	for _, g := range result.Grades {
		fmt.Fprintf(&sb, "%s: %d\n", g.Date, g.Grade)
	}
	if result.AverageGrade != nil {
		fmt.Fprintf(&sb, "Средний балл: %.2f\n", *result.AverageGrade)
	}
	sb.WriteString("\nПосещаемость:\n")
	if len(result.Attendance) == 0 {
		sb.WriteString("Записи о посещаемости отсутствуют.\n")
	}
	for _, a := range result.Attendance {
		fmt.Fprintf(&sb, "%s: %s\n", a.Date, a.Status)
	}
	return sb.String()
}

func classGradesText(grades []models.Grade) string {
	var sb strings.Builder
	sb.WriteString("Оценки:\n")
	for _, g := range grades {
		fmt.Fprintf(&sb, "%s - %s: %d\n", g.StudentName, g.Date, g.Grade)
	}
	return sb.String()
}

func classAttendanceText(records []models.Attendance) string {
	var sb strings.Builder
	sb.WriteString("Посещаемость:\n")
	for _, a := range records {
		fmt.Fprintf(&sb, "%s - %s: %s\n", a.StudentName, a.Date, a.Status)
	}
	return sb.String()
}

func myClassText(view *dto.MyClass) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Класс: %s\n", view.Class.Name)
	if len(view.Students) == 0 {
		sb.WriteString("Ученики не найдены.\n")
	} else {
		sb.WriteString("Оценки и посещаемость:\n")
		for _, st := range view.Students {
			fmt.Fprintf(&sb, "\n%s:\n", st.FullName())
			for _, g := range st.Grades {
				fmt.Fprintf(&sb, "  %s (%s): %d\n", orDefault(g.SubjectName, unknownSubject), g.Date, g.Grade)
			}
			for _, a := range st.Attendance {
				fmt.Fprintf(&sb, "  Посещаемость (%s): %s\n", a.Date, a.Status)
			}
		}
	}
	if len(view.Schedule) == 0 {
		sb.WriteString("\nРасписание не найдено.\n")
		return sb.String()
	}
	sb.WriteString("\n")
	sb.WriteString(scheduleText(view.Schedule, false))
	return sb.String()
}
