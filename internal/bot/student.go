package bot

import (
	"context"

	"github.com/noah-isme/school-diary-api/internal/models"
)

func (b *Bot) studentMenu(ctx context.Context, c *chat) {
	switch c.text {
	case LabelGradesAttendance, LabelSchedule, LabelHomework, LabelClassmates:
	default:
		b.reply(c, "Пожалуйста, выберите действие из меню:", mainMenu(models.RoleStudent))
		return
	}

	p, ok := b.principal(ctx, c, models.RoleStudent)
	if !ok {
		return
	}
	menu := mainMenu(models.RoleStudent)

	switch c.text {
	case LabelGradesAttendance:
		subjects, err := b.Portal.Subjects(ctx, p)
		if err != nil {
			b.fail(c, err, StateStudentMenu, menu)
			return
		}
		if len(subjects) == 0 {
			b.reply(c, "Предметы не найдены.", menu)
			return
		}
		c.session.State = StateStudentSubject
		b.reply(c, "Выберите предмет:", subjectPicker(subjects))
	case LabelSchedule:
		schedule, err := b.Portal.Schedule(ctx, p)
		if err != nil {
			b.fail(c, err, StateStudentMenu, menu)
			return
		}
		if len(schedule) == 0 {
			b.reply(c, "Расписание не найдено.", menu)
			return
		}
		b.reply(c, scheduleText(schedule, false), menu)
	case LabelHomework:
		items, err := b.Portal.Homework(ctx, p)
		if err != nil {
			b.fail(c, err, StateStudentMenu, menu)
			return
		}
		if len(items) == 0 {
			b.reply(c, "Домашние задания не найдены.", menu)
			return
		}
		b.reply(c, homeworkText(items), menu)
	case LabelClassmates:
		classmates, err := b.Portal.Classmates(ctx, p)
		if err != nil {
			b.fail(c, err, StateStudentMenu, menu)
			return
		}
		if len(classmates) == 0 {
			b.reply(c, "Одноклассники не найдены.", menu)
			return
		}
		b.reply(c, classmatesText(classmates), menu)
	}
}

func (b *Bot) pickStudentSubject(ctx context.Context, c *chat) {
	menu := mainMenu(models.RoleStudent)
	subjectID, ok := parseCallback(c.text, callbackSubject)
	if !ok {
		c.session.reset(StateStudentMenu)
		b.reply(c, "Ошибка обработки. Попробуйте снова.", menu)
		return
	}
	p, ok := b.principal(ctx, c, models.RoleStudent)
	if !ok {
		return
	}
	result, err := b.Portal.GradesAttendance(ctx, p, subjectID)
	if err != nil {
		b.fail(c, err, StateStudentMenu, menu)
		return
	}
	c.session.reset(StateStudentMenu)
	b.reply(c, gradesAttendanceText(result), menu)
}
