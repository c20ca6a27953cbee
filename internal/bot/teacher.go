package bot

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/noah-isme/school-diary-api/internal/dto"
	"github.com/noah-isme/school-diary-api/internal/models"
	appErrors "github.com/noah-isme/school-diary-api/pkg/errors"
)

const (
	dateLayout = "2006-01-02"
	dateHint   = "Пожалуйста, введите дату в формате ГГГГ-ММ-ДД (например, 2025-05-18)."
)

func validDate(text string) bool {
	_, err := time.Parse(dateLayout, text)
	return err == nil
}

func (b *Bot) teacherMenu(ctx context.Context, c *chat) {
	menu := mainMenu(models.RoleTeacher)
	switch c.text {
	case LabelClasses, LabelClassInfo, LabelSchedule:
	default:
		b.reply(c, "Пожалуйста, выберите действие из меню:", menu)
		return
	}

	p, ok := b.principal(ctx, c, models.RoleTeacher)
	if !ok {
		return
	}

	switch c.text {
	case LabelClasses:
		classes, err := b.Classes.ListForTeacher(ctx, p)
		if err != nil {
			b.fail(c, err, StateTeacherMenu, menu)
			return
		}
		if len(classes) == 0 {
			c.session.reset(StateTeacherMenu)
			b.reply(c, "Ведомые классы не найдены.", menu)
			return
		}
		c.session.reset(StateSelectClass)
		b.reply(c, "Выберите класс:", classPicker(classes))
	case LabelClassInfo:
		view, err := b.Classes.MyClass(ctx, p)
		if err != nil {
			if appErrors.FromError(err).Status == http.StatusNotFound {
				b.reply(c, "Класс не найден.", menu)
				return
			}
			b.fail(c, err, StateTeacherMenu, menu)
			return
		}
		b.reply(c, myClassText(view), menu)
	case LabelSchedule:
		schedule, err := b.Classes.TeacherSchedule(ctx, p)
		if err != nil {
			b.fail(c, err, StateTeacherMenu, menu)
			return
		}
		if len(schedule) == 0 {
			b.reply(c, "Расписание не найдено.", menu)
			return
		}
		b.reply(c, scheduleText(schedule, true), menu)
	}
}

func (b *Bot) pickClass(ctx context.Context, c *chat) {
	menu := mainMenu(models.RoleTeacher)
	classID, ok := parseCallback(c.text, callbackClass)
	if !ok {
		c.session.reset(StateTeacherMenu)
		b.reply(c, "Ошибка обработки. Попробуйте снова.", menu)
		return
	}
	p, ok := b.principal(ctx, c, models.RoleTeacher)
	if !ok {
		return
	}
	subjects, err := b.Classes.SubjectsForClass(ctx, p, classID)
	if err != nil {
		b.fail(c, err, StateTeacherMenu, menu)
		return
	}
	if len(subjects) == 0 {
		c.session.reset(StateTeacherMenu)
		b.reply(c, "Предметы не найдены.", menu)
		return
	}
	c.session.ClassID = classID
	c.session.State = StateSelectSubject
	b.reply(c, "Выберите предмет:", subjectPicker(subjects))
}

func (b *Bot) pickSubject(c *chat) {
	subjectID, ok := parseCallback(c.text, callbackSubject)
	if !ok || c.session.ClassID == 0 {
		c.session.reset(StateTeacherMenu)
		b.reply(c, "Ошибка обработки. Попробуйте снова.", mainMenu(models.RoleTeacher))
		return
	}
	c.session.SubjectID = subjectID
	c.session.State = StateManageClass
	b.reply(c, "Выберите действие:", manageClassKeyboard())
}

func (b *Bot) manageClass(ctx context.Context, c *chat) {
	keyboard := manageClassKeyboard()
	switch c.text {
	case LabelBack:
		c.session.reset(StateTeacherMenu)
		b.reply(c, "Вернуться в меню:", mainMenu(models.RoleTeacher))
		return
	case LabelAddHomework:
		c.session.State = StateHomeworkTask
		b.reply(c, "Введите текст домашнего задания:", removeKeyboard())
		return
	case LabelViewGrades, LabelAddGrade, LabelViewAttendance, LabelAddAttendance:
	default:
		b.reply(c, "Пожалуйста, выберите действие из меню:", keyboard)
		return
	}

	p, ok := b.principal(ctx, c, models.RoleTeacher)
	if !ok {
		return
	}
	classID := c.session.ClassID

	switch c.text {
	case LabelViewGrades:
		grades, err := b.Gradebook.ClassGrades(ctx, p, classID)
		if err != nil {
			b.fail(c, err, StateManageClass, keyboard)
			return
		}
		subjectGrades := grades[:0]
		for _, g := range grades {
			if g.SubjectID == c.session.SubjectID {
				subjectGrades = append(subjectGrades, g)
			}
		}
		if len(subjectGrades) == 0 {
			b.reply(c, "Оценки не найдены.", keyboard)
			return
		}
		b.reply(c, classGradesText(subjectGrades), keyboard)
	case LabelViewAttendance:
		records, err := b.Gradebook.ClassAttendance(ctx, p, classID)
		if err != nil {
			b.fail(c, err, StateManageClass, keyboard)
			return
		}
		if len(records) == 0 {
			b.reply(c, "Записи о посещаемости не найдены.", keyboard)
			return
		}
		b.reply(c, classAttendanceText(records), keyboard)
	case LabelAddGrade, LabelAddAttendance:
		students, err := b.Gradebook.ClassStudents(ctx, p, classID)
		if err != nil {
			b.fail(c, err, StateManageClass, keyboard)
			return
		}
		if len(students) == 0 {
			b.reply(c, "Ученики не найдены.", keyboard)
			return
		}
		c.session.State = StateGradeStudent
		if c.text == LabelAddAttendance {
			c.session.State = StateAttendanceStudent
		}
		b.reply(c, "Выберите ученика:", studentPicker(students))
	}
}

func (b *Bot) pickGradeStudent(c *chat) {
	studentID, ok := parseCallback(c.text, callbackStudent)
	if !ok {
		c.session.State = StateManageClass
		b.reply(c, "Ошибка обработки. Попробуйте снова.", manageClassKeyboard())
		return
	}
	c.session.StudentID = studentID
	c.session.State = StateGradeValue
	b.reply(c, "Введите оценку (2–5):", removeKeyboard())
}

func (b *Bot) enterGrade(c *chat) {
	grade, err := strconv.Atoi(c.text)
	if err != nil {
		b.reply(c, "Пожалуйста, введите числовую оценку (2–5).", nil)
		return
	}
	if grade < models.MinGrade || grade > models.MaxGrade {
		b.reply(c, "Пожалуйста, введите оценку от 2 до 5.", nil)
		return
	}
	c.session.Grade = grade
	c.session.State = StateGradeDate
	b.reply(c, "Введите дату оценки (ГГГГ-ММ-ДД):", nil)
}

func (b *Bot) enterGradeDate(ctx context.Context, c *chat) {
	if !validDate(c.text) {
		b.reply(c, dateHint, nil)
		return
	}
	p, ok := b.principal(ctx, c, models.RoleTeacher)
	if !ok {
		return
	}
	req := dto.CreateGradeRequest{
		StudentID: c.session.StudentID,
		SubjectID: c.session.SubjectID,
		Grade:     c.session.Grade,
		Date:      c.text,
	}
	if _, err := b.Gradebook.CreateGrade(ctx, p, req); err != nil {
		b.fail(c, err, StateManageClass, manageClassKeyboard())
		return
	}
	c.session.State = StateManageClass
	c.session.resetForm()
	b.reply(c, "Оценка успешно добавлена.", manageClassKeyboard())
}

func (b *Bot) pickAttendanceStudent(c *chat) {
	studentID, ok := parseCallback(c.text, callbackStudent)
	if !ok {
		c.session.State = StateManageClass
		b.reply(c, "Ошибка обработки. Попробуйте снова.", manageClassKeyboard())
		return
	}
	c.session.StudentID = studentID
	c.session.State = StateAttendanceStatus
	b.reply(c, "Выберите статус посещаемости:", attendanceKeyboard())
}

func (b *Bot) enterAttendanceStatus(c *chat) {
	switch c.text {
	case LabelPresent:
		c.session.Status = models.AttendancePresent
	case LabelAbsent:
		c.session.Status = models.AttendanceAbsent
	default:
		b.reply(c, "Пожалуйста, выберите 'Присутствовал' или 'Отсутствовал'.", attendanceKeyboard())
		return
	}
	c.session.State = StateAttendanceDate
	b.reply(c, "Введите дату посещаемости (ГГГГ-ММ-ДД):", removeKeyboard())
}

func (b *Bot) enterAttendanceDate(ctx context.Context, c *chat) {
	if !validDate(c.text) {
		b.reply(c, dateHint, nil)
		return
	}
	p, ok := b.principal(ctx, c, models.RoleTeacher)
	if !ok {
		return
	}
	req := dto.CreateAttendanceRequest{StudentID: c.session.StudentID, Date: c.text, Status: c.session.Status}
	if _, err := b.Gradebook.CreateAttendance(ctx, p, req); err != nil {
		b.fail(c, err, StateManageClass, manageClassKeyboard())
		return
	}
	c.session.State = StateManageClass
	c.session.resetForm()
	b.reply(c, "Посещаемость успешно добавлена.", manageClassKeyboard())
}

func (b *Bot) enterHomeworkTask(c *chat) {
	if c.text == "" {
		b.reply(c, "Пожалуйста, введите непустой текст задания.", nil)
		return
	}
	c.session.Task = c.text
	c.session.State = StateHomeworkDue
	b.reply(c, "Введите дату сдачи ДЗ (ГГГГ-ММ-ДД):", nil)
}

func (b *Bot) enterHomeworkDue(ctx context.Context, c *chat) {
	if !validDate(c.text) {
		b.reply(c, dateHint, nil)
		return
	}
	p, ok := b.principal(ctx, c, models.RoleTeacher)
	if !ok {
		return
	}
	req := dto.CreateHomeworkRequest{
		ClassID:   c.session.ClassID,
		SubjectID: c.session.SubjectID,
		Task:      c.session.Task,
		DueDate:   c.text,
	}
	if _, err := b.Gradebook.CreateHomework(ctx, p, req); err != nil {
		b.fail(c, err, StateManageClass, manageClassKeyboard())
		return
	}
	c.session.State = StateManageClass
	c.session.resetForm()
	b.reply(c, "Домашнее задание успешно добавлено.", manageClassKeyboard())
}
