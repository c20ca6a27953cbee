package bot

import (
	"context"
	"database/sql"
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/noah-isme/school-diary-api/internal/dto"
	"github.com/noah-isme/school-diary-api/internal/models"
	"github.com/noah-isme/school-diary-api/internal/service"
	appErrors "github.com/noah-isme/school-diary-api/pkg/errors"
)

// start restores the menu of a linked account or begins the login dialogue.
func (b *Bot) start(ctx context.Context, c *chat) {
	link, err := b.Sessions.Find(ctx, c.telegramID)
	if err == nil {
		c.session.reset(menuState(link.Role))
		b.reply(c, loggedInText(link.Role), mainMenu(link.Role))
		return
	}
	if !errors.Is(err, sql.ErrNoRows) {
		b.Logger.Error("load telegram session", zap.Int64("telegram_id", c.telegramID), zap.Error(err))
	}
	c.session.reset(StateAwaitingRole)
	b.reply(c, "Выберите вашу роль:", roleKeyboard())
}

func (b *Bot) chooseRole(c *chat) {
	switch c.text {
	case LabelStudent:
		c.session.Role = string(models.RoleStudent)
	case LabelTeacher:
		c.session.Role = string(models.RoleTeacher)
	default:
		b.reply(c, "Пожалуйста, выберите 'Ученик' или 'Учитель'.", nil)
		return
	}
	c.session.State = StateAwaitingUsername
	b.reply(c, "Введите ваш логин:", removeKeyboard())
}

func (b *Bot) enterUsername(c *chat) {
	if c.text == "" {
		b.reply(c, "Введите ваш логин:", nil)
		return
	}
	c.session.Username = c.text
	c.session.State = StateAwaitingPassword
	b.reply(c, "Введите ваш пароль:", nil)
}

func (b *Bot) enterPassword(ctx context.Context, c *chat) {
	// the password should not linger in the chat history
	if _, err := b.Client.Request(tgbotapi.NewDeleteMessage(c.id, c.messageID)); err != nil {
		b.Logger.Debug("delete password message", zap.Error(err))
	}

	role := models.Role(c.session.Role)
	req := dto.LoginRequest{Username: c.session.Username, Password: c.raw}
	principal, err := b.Auth.AuthenticateAs(ctx, req, role)
	if err != nil {
		b.Logger.Warn("bot login failed", zap.Int64("telegram_id", c.telegramID), zap.String("username", req.Username), zap.Error(err))
		b.reply(c, loginFailureText(err, role), nil)
		b.start(ctx, c)
		return
	}

	link := &models.TelegramSession{TelegramID: c.telegramID, UserID: principal.UserID, Role: principal.Role}
	if err := b.Sessions.Save(ctx, link); err != nil {
		b.Logger.Error("save telegram session", zap.Int64("telegram_id", c.telegramID), zap.Error(err))
		b.reply(c, "Ошибка при сохранении сессии. Попробуйте снова.", nil)
		b.start(ctx, c)
		return
	}

	b.Logger.Info("bot login", zap.Int64("telegram_id", c.telegramID), zap.Int64("user_id", principal.UserID), zap.String("role", string(principal.Role)))
	c.session.reset(menuState(principal.Role))
	b.reply(c, loggedInText(principal.Role), mainMenu(principal.Role))
}

func loginFailureText(err error, role models.Role) string {
	switch {
	case appErrors.Is(err, appErrors.ErrInvalidCredentials), appErrors.Is(err, appErrors.ErrValidation):
		return "Неверный логин или пароль."
	case appErrors.Is(err, service.ErrNoPosition):
		return "Роль учителя не определена."
	case appErrors.Is(err, appErrors.ErrForbidden):
		if role == models.RoleTeacher {
			return "Вы не зарегистрированы как учитель."
		}
		return "Вы не зарегистрированы как ученик."
	default:
		return "Произошла ошибка. Попробуйте снова."
	}
}

func (b *Bot) logout(ctx context.Context, c *chat) {
	if err := b.Sessions.Delete(ctx, c.telegramID); err != nil {
		b.Logger.Error("delete telegram session", zap.Int64("telegram_id", c.telegramID), zap.Error(err))
		b.reply(c, "Ошибка при выходе. Попробуйте снова.", nil)
		return
	}
	b.reply(c, "Вы вышли из аккаунта.", removeKeyboard())
	b.start(ctx, c)
}
