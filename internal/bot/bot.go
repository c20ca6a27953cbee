package bot

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/school-diary-api/internal/dto"
	"github.com/noah-isme/school-diary-api/internal/models"
	"github.com/noah-isme/school-diary-api/internal/service"
	appErrors "github.com/noah-isme/school-diary-api/pkg/errors"
	"github.com/noah-isme/school-diary-api/pkg/jobs"
)

// Client is the subset of the Telegram Bot API the bot uses. *tgbotapi.BotAPI satisfies it.
type Client interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

type authenticator interface {
	AuthenticateAs(ctx context.Context, req dto.LoginRequest, role models.Role) (*models.Principal, error)
	PrincipalForUser(ctx context.Context, userID int64, role models.Role) (*models.Principal, error)
}

type sessionRepository interface {
	Find(ctx context.Context, telegramID int64) (*models.TelegramSession, error)
	Save(ctx context.Context, session *models.TelegramSession) error
	Delete(ctx context.Context, telegramID int64) error
}

type classService interface {
	ListForTeacher(ctx context.Context, p *models.Principal) ([]models.Class, error)
	SubjectsForClass(ctx context.Context, p *models.Principal, classID int64) ([]models.Subject, error)
	MyClass(ctx context.Context, p *models.Principal) (*dto.MyClass, error)
	TeacherSchedule(ctx context.Context, p *models.Principal) ([]models.ScheduleRecord, error)
}

type gradebookService interface {
	ClassStudents(ctx context.Context, p *models.Principal, classID int64) ([]models.StudentRecord, error)
	ClassGrades(ctx context.Context, p *models.Principal, classID int64) ([]models.Grade, error)
	CreateGrade(ctx context.Context, p *models.Principal, req dto.CreateGradeRequest) (*models.Grade, error)
	ClassAttendance(ctx context.Context, p *models.Principal, classID int64) ([]models.Attendance, error)
	CreateAttendance(ctx context.Context, p *models.Principal, req dto.CreateAttendanceRequest) (*models.Attendance, error)
	CreateHomework(ctx context.Context, p *models.Principal, req dto.CreateHomeworkRequest) (*models.Homework, error)
}

type portalService interface {
	Schedule(ctx context.Context, p *models.Principal) ([]models.ScheduleRecord, error)
	Subjects(ctx context.Context, p *models.Principal) ([]models.Subject, error)
	GradesAttendance(ctx context.Context, p *models.Principal, subjectID int64) (*dto.GradesAttendance, error)
	Homework(ctx context.Context, p *models.Principal) ([]models.Homework, error)
	Classmates(ctx context.Context, p *models.Principal) ([]models.StudentRecord, error)
}

// Deps wires the bot to the Telegram client, its stores and the shared service layer.
type Deps struct {
	Client    Client
	States    *StateStore
	Sessions  sessionRepository
	Auth      authenticator
	Classes   classService
	Gradebook gradebookService
	Portal    portalService
	Metrics   *service.MetricsService
	Logger    *zap.Logger
}

// Config tunes polling and retries.
type Config struct {
	PollTimeout int
	MaxRetries  int
	RetryDelay  time.Duration
}

// Bot is the Telegram front-end. Every action resolves the linked user's principal and goes
// through the same services as the HTTP API.
type Bot struct {
	Deps
	cfg Config
}

// New constructs a Bot.
func New(deps Deps, cfg Config) *Bot {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 60
	}
	return &Bot{Deps: deps, cfg: cfg}
}

// Run long-polls for updates until ctx is cancelled. Updates are handled one at a time.
func (b *Bot) Run(ctx context.Context) error {
	queue := jobs.NewQueue("telegram-updates", b.process, jobs.QueueConfig{
		Workers:    1,
		BufferSize: 64,
		MaxRetries: b.cfg.MaxRetries,
		RetryDelay: b.cfg.RetryDelay,
		Logger:     b.Logger,
	})
	queue.Start(ctx)
	defer queue.Stop()

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = b.cfg.PollTimeout
	updates := b.Client.GetUpdatesChan(updateConfig)
	defer b.Client.StopReceivingUpdates()

	b.Logger.Info("telegram bot polling", zap.Int("timeout", b.cfg.PollTimeout))
	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			job := jobs.Job{ID: uuid.NewString(), Type: updateKind(update), Payload: update}
			if err := queue.Enqueue(job); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				b.Logger.Error("enqueue update", zap.Int("update_id", update.UpdateID), zap.Error(err))
			}
		}
	}
}

func (b *Bot) process(ctx context.Context, job jobs.Job) error {
	update, ok := job.Payload.(tgbotapi.Update)
	if !ok {
		return nil
	}
	err := b.HandleUpdate(ctx, update)
	b.Metrics.RecordBotUpdate(job.Type, err)
	return err
}

func updateKind(update tgbotapi.Update) string {
	switch {
	case update.CallbackQuery != nil:
		return "callback"
	case update.Message != nil:
		return "message"
	default:
		return "other"
	}
}

// chat is one update being handled.
type chat struct {
	id         int64
	telegramID int64
	messageID  int
	text       string
	raw        string
	session    *Session
}

// HandleUpdate processes a single update. Only session loading errors are returned, since
// nothing has been changed at that point and the update can be retried.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) error {
	switch {
	case update.CallbackQuery != nil:
		return b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		return b.handleMessage(ctx, update.Message)
	default:
		return nil
	}
}

func (b *Bot) open(ctx context.Context, chatID, telegramID int64) (*chat, error) {
	session, err := b.States.Load(ctx, chatID)
	if err != nil {
		return nil, err
	}
	return &chat{id: chatID, telegramID: telegramID, session: session}, nil
}

func (b *Bot) save(ctx context.Context, c *chat) {
	if err := b.States.Save(ctx, c.id, c.session); err != nil {
		b.Logger.Error("save chat state", zap.Int64("chat_id", c.id), zap.Error(err))
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil || msg.Chat == nil {
		return nil
	}
	c, err := b.open(ctx, msg.Chat.ID, msg.From.ID)
	if err != nil {
		return err
	}
	defer b.save(ctx, c)

	c.messageID = msg.MessageID
	c.raw = msg.Text
	c.text = strings.TrimSpace(msg.Text)
	b.Logger.Debug("bot message", zap.Int64("telegram_id", c.telegramID), zap.String("state", string(c.session.State)))

	switch {
	case msg.IsCommand() && msg.Command() == "start":
		b.start(ctx, c)
	case c.text == LabelLogout:
		b.logout(ctx, c)
	default:
		b.route(ctx, c)
	}
	return nil
}

func (b *Bot) route(ctx context.Context, c *chat) {
	switch c.session.State {
	case StateNone:
		b.start(ctx, c)
	case StateAwaitingRole:
		b.chooseRole(c)
	case StateAwaitingUsername:
		b.enterUsername(c)
	case StateAwaitingPassword:
		b.enterPassword(ctx, c)
	case StateStudentMenu:
		b.studentMenu(ctx, c)
	case StateTeacherMenu:
		b.teacherMenu(ctx, c)
	case StateManageClass:
		b.manageClass(ctx, c)
	case StateGradeValue:
		b.enterGrade(c)
	case StateGradeDate:
		b.enterGradeDate(ctx, c)
	case StateAttendanceStatus:
		b.enterAttendanceStatus(c)
	case StateAttendanceDate:
		b.enterAttendanceDate(ctx, c)
	case StateHomeworkTask:
		b.enterHomeworkTask(c)
	case StateHomeworkDue:
		b.enterHomeworkDue(ctx, c)
	default:
		b.reply(c, "Пожалуйста, используйте кнопки меню.", nil)
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb.From == nil || cb.Message == nil || cb.Message.Chat == nil {
		return nil
	}
	c, err := b.open(ctx, cb.Message.Chat.ID, cb.From.ID)
	if err != nil {
		return err
	}
	defer b.save(ctx, c)
	defer b.answer(cb.ID)

	c.text = cb.Data
	switch c.session.State {
	case StateStudentSubject:
		b.pickStudentSubject(ctx, c)
	case StateSelectClass:
		b.pickClass(ctx, c)
	case StateSelectSubject:
		b.pickSubject(c)
	case StateGradeStudent:
		b.pickGradeStudent(c)
	case StateAttendanceStudent:
		b.pickAttendanceStudent(c)
	default:
		b.reply(c, "Пожалуйста, используйте кнопки меню.", nil)
	}
	return nil
}

func (b *Bot) answer(callbackID string) {
	if _, err := b.Client.Request(tgbotapi.NewCallback(callbackID, "")); err != nil {
		b.Logger.Debug("answer callback", zap.Error(err))
	}
}

func (b *Bot) reply(c *chat, text string, markup interface{}) {
	msg := tgbotapi.NewMessage(c.id, text)
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	if _, err := b.Client.Send(msg); err != nil {
		b.Logger.Warn("send message", zap.Int64("chat_id", c.id), zap.Error(err))
	}
}

// principal resolves the linked user of the chat, requiring role. On failure the user is told
// why and false is returned.
func (b *Bot) principal(ctx context.Context, c *chat, role models.Role) (*models.Principal, bool) {
	link, err := b.Sessions.Find(ctx, c.telegramID)
	if err != nil || link.Role != role {
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			b.Logger.Error("load telegram session", zap.Int64("telegram_id", c.telegramID), zap.Error(err))
			b.reply(c, "Произошла ошибка. Попробуйте снова.", nil)
			return nil, false
		}
		b.reply(c, "Пожалуйста, войдите в аккаунт.", nil)
		b.start(ctx, c)
		return nil, false
	}
	principal, err := b.Auth.PrincipalForUser(ctx, link.UserID, link.Role)
	if err != nil {
		switch {
		case appErrors.Is(err, service.ErrNoPosition):
			c.session.reset(StateTeacherMenu)
			b.reply(c, "Роль учителя не определена.", mainMenu(models.RoleTeacher))
		case appErrors.FromError(err).Status == http.StatusInternalServerError:
			b.Logger.Error("resolve principal", zap.Int64("user_id", link.UserID), zap.Error(err))
			b.reply(c, "Произошла ошибка. Попробуйте снова.", nil)
		default:
			b.Logger.Warn("linked user lost access", zap.Int64("user_id", link.UserID), zap.Error(err))
			if delErr := b.Sessions.Delete(ctx, c.telegramID); delErr != nil {
				b.Logger.Error("delete telegram session", zap.Error(delErr))
			}
			b.reply(c, "Пожалуйста, войдите в аккаунт.", nil)
			b.start(ctx, c)
		}
		return nil, false
	}
	return principal, true
}

// fail reports a service error and leaves the chat in state with markup.
func (b *Bot) fail(c *chat, err error, state State, markup interface{}) {
	appErr := appErrors.FromError(err)
	var text string
	switch appErr.Status {
	case http.StatusForbidden:
		text = "Недостаточно прав для этого действия."
	case http.StatusNotFound:
		text = "Запись не найдена."
	case http.StatusBadRequest:
		text = "Проверьте введённые данные."
		if appErr.Message != "" {
			text = "Проверьте введённые данные: " + appErr.Message
		}
	default:
		text = "Произошла ошибка. Попробуйте снова."
	}
	b.Logger.Warn("bot action failed", zap.Int64("telegram_id", c.telegramID), zap.String("state", string(c.session.State)), zap.Error(err))
	c.session.State = state
	c.session.resetForm()
	b.reply(c, text, markup)
}

func menuState(role models.Role) State {
	if role == models.RoleTeacher {
		return StateTeacherMenu
	}
	return StateStudentMenu
}

func loggedInText(role models.Role) string {
	if role == models.RoleTeacher {
		return "Вы вошли как учитель."
	}
	return "Вы вошли как ученик."
}
