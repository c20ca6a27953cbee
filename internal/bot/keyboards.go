package bot

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/noah-isme/school-diary-api/internal/models"
)

// Button labels.
const (
	LabelStudent = "Ученик"
	LabelTeacher = "Учитель"
	LabelLogout  = "Выйти"

	LabelGradesAttendance = "Оценки и посещаемость"
	LabelSchedule         = "Расписание"
	LabelHomework         = "Домашние задания"
	LabelClassmates       = "Одноклассники"

	LabelClasses   = "Ведомые классы"
	LabelClassInfo = "Информация о классе"

	LabelViewGrades     = "Просмотреть оценки"
	LabelAddGrade       = "Добавить оценку"
	LabelViewAttendance = "Просмотреть посещаемость"
	LabelAddAttendance  = "Добавить посещаемость"
	LabelAddHomework    = "Добавить ДЗ"
	LabelBack           = "Назад"
	LabelPresent        = "Присутствовал"
	LabelAbsent         = "Отсутствовал"
)

// Callback payload prefixes.
const (
	callbackClass   = "class_"
	callbackSubject = "subject_"
	callbackStudent = "student_"
)

func roleKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(LabelStudent), tgbotapi.NewKeyboardButton(LabelTeacher)),
	)
}

func mainMenu(role models.Role) tgbotapi.ReplyKeyboardMarkup {
	if role == models.RoleTeacher {
		return tgbotapi.NewReplyKeyboard(
			tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(LabelClasses), tgbotapi.NewKeyboardButton(LabelClassInfo)),
			tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(LabelSchedule), tgbotapi.NewKeyboardButton(LabelLogout)),
		)
	}
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(LabelGradesAttendance), tgbotapi.NewKeyboardButton(LabelSchedule)),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(LabelHomework), tgbotapi.NewKeyboardButton(LabelClassmates)),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(LabelLogout)),
	)
}

func manageClassKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(LabelViewGrades), tgbotapi.NewKeyboardButton(LabelAddGrade)),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(LabelViewAttendance), tgbotapi.NewKeyboardButton(LabelAddAttendance)),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(LabelAddHomework), tgbotapi.NewKeyboardButton(LabelBack)),
	)
}

func attendanceKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(LabelPresent), tgbotapi.NewKeyboardButton(LabelAbsent)),
	)
}

func removeKeyboard() tgbotapi.ReplyKeyboardRemove {
	return tgbotapi.NewRemoveKeyboard(true)
}

func classPicker(classes []models.Class) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(classes))
	for _, class := range classes {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(class.Name, callbackData(callbackClass, class.ID)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func subjectPicker(subjects []models.Subject) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(subjects))
	for _, subject := range subjects {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(subject.Name, callbackData(callbackSubject, subject.ID)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func studentPicker(students []models.StudentRecord) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(students))
	for _, student := range students {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(student.FullName(), callbackData(callbackStudent, student.ID)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func callbackData(prefix string, id int64) string {
	return fmt.Sprintf("%s%d", prefix, id)
}

// parseCallback extracts the id of a prefixed callback payload.
func parseCallback(data, prefix string) (int64, bool) {
	if !strings.HasPrefix(data, prefix) {
		return 0, false
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(data, prefix), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
