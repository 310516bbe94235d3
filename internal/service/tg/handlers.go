package tg

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"baselav/internal/domain"
	"baselav/pkg/tgbot"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	statePasswordEnter = "password_enter"
	maxMessageLen      = 4000
)

type TGHandler struct {
	Tracker      domain.AdminService
	sessions     *gocache.Cache
	passwordHash []byte
	timeout      time.Duration
	location     *time.Location
	forceUpdate  chan struct{}
	logger       *zap.Logger
}

// Options настройки обработчиков.
type Options struct {
	PasswordHash string         // bcrypt-хеш пароля для /login, пустой: вход только по списку ADMINS
	SessionTTL   time.Duration  // время жизни сессии после /login
	Timeout      time.Duration  // ограничение на запрос к таблице
	Location     *time.Location // часовой пояс для дат в ответах
}

func NewTGHandler(tracker domain.AdminService, forceUpdate chan struct{}, logger *zap.Logger, opts Options) *TGHandler {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = time.Hour
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TGHandler{
		Tracker:      tracker,
		sessions:     gocache.New(opts.SessionTTL, 10*time.Minute),
		passwordHash: []byte(opts.PasswordHash),
		timeout:      opts.Timeout,
		location:     opts.Location,
		forceUpdate:  forceUpdate,
		logger:       logger.Named("tg"),
	}
}

func (h *TGHandler) StatesMap() map[string]tgbot.State {
	return map[string]tgbot.State{
		"start":            h.StartState(),
		statePasswordEnter: h.PasswordEnterState(),
	}
}

func (h *TGHandler) StartState() tgbot.State {
	return tgbot.State{
		Global: true,
		MessageHandlers: map[string]tgbot.Handler{
			"/start":      h.StartHandler(),
			"/login":      h.LoginHandler(),
			"/logout":     h.LogoutHandler(),
			"/alertas":    h.authorized(h.AlertsHandler()),
			"/contactado": h.authorized(h.ContactedHandler()),
			"/historial":  h.authorized(h.HistoryHandler()),
			"/resumen":    h.authorized(h.StatsHandler()),
			"/revisar":    h.authorized(h.ForceCheckHandler()),
		},
	}
}

func (h *TGHandler) PasswordEnterState() tgbot.State {
	return tgbot.State{
		Global: false,
		AtEntranceFunc: &tgbot.Handler{
			Handle: func(bot *tgbot.Bot, update tgbotapi.Update) error {
				return bot.SendText(update.Message.Chat.ID, "Ingrese la contraseña")
			},
		},
		CatchAllFunc: &tgbot.Handler{
			Handle: func(bot *tgbot.Bot, update tgbotapi.Update) error {
				if update.Message == nil {
					return nil
				}
				bot.ResetUserState(update.Message.From.ID)
				return h.checkPassword(bot, update.Message.Chat.ID, strings.TrimSpace(update.Message.Text))
			},
		},
	}
}

func (h *TGHandler) StartHandler() tgbot.Handler {
	return tgbot.Handler{
		Handle: func(bot *tgbot.Bot, update tgbotapi.Update) error {
			text := "Base Lavadoras: recordatorios de mantenimiento.\n\n" +
				"/login <contraseña> - iniciar sesión\n" +
				"/alertas - clientes por contactar\n" +
				"/contactado <id> - marcar alerta como contactada\n" +
				"/historial <cliente> - historial de artefactos\n" +
				"/resumen - resumen del mes\n" +
				"/revisar - revisar alertas ahora\n" +
				"/logout - cerrar sesión"
			return bot.SendText(update.Message.Chat.ID, text)
		},
	}
}

func (h *TGHandler) LoginHandler() tgbot.Handler {
	return tgbot.Handler{
		Handle: func(bot *tgbot.Bot, update tgbotapi.Update) error {
			chatID := update.Message.Chat.ID
			if h.isAuthorized(bot, chatID) {
				return bot.SendText(chatID, "Ya tiene una sesión activa")
			}
			password := strings.TrimSpace(update.Message.CommandArguments())
			if password == "" {
				if err := bot.SetUserState(update.Message.From.ID, statePasswordEnter); err != nil {
					return err
				}
				return h.PasswordEnterState().AtEntranceFunc.Handle(bot, update)
			}
			return h.checkPassword(bot, chatID, password)
		},
	}
}

func (h *TGHandler) checkPassword(bot *tgbot.Bot, chatID int64, password string) error {
	if len(h.passwordHash) == 0 {
		return bot.SendText(chatID, "El inicio de sesión está deshabilitado")
	}
	if err := bcrypt.CompareHashAndPassword(h.passwordHash, []byte(password)); err != nil {
		h.logger.Warn("failed login", zap.Int64("chat_id", chatID))
		return bot.SendText(chatID, "Contraseña incorrecta")
	}
	h.sessions.Set(sessionKey(chatID), true, gocache.DefaultExpiration)
	h.logger.Info("admin logged in", zap.Int64("chat_id", chatID))
	return bot.SendText(chatID, "Sesión iniciada")
}

func (h *TGHandler) LogoutHandler() tgbot.Handler {
	return tgbot.Handler{
		Handle: func(bot *tgbot.Bot, update tgbotapi.Update) error {
			h.sessions.Delete(sessionKey(update.Message.Chat.ID))
			return bot.SendText(update.Message.Chat.ID, "Sesión cerrada")
		},
	}
}

func (h *TGHandler) AlertsHandler() tgbot.Handler {
	return tgbot.Handler{
		Handle: func(bot *tgbot.Bot, update tgbotapi.Update) error {
			chatID := update.Message.Chat.ID
			ctx, cancel := h.requestContext()
			defer cancel()

			due, err := h.Tracker.ListDueAlerts(ctx)
			if err != nil {
				return h.replyError(bot, chatID, err)
			}
			return h.sendLong(bot, chatID, formatAlerts(due, h.location))
		},
	}
}

func (h *TGHandler) ContactedHandler() tgbot.Handler {
	return tgbot.Handler{
		Handle: func(bot *tgbot.Bot, update tgbotapi.Update) error {
			chatID := update.Message.Chat.ID
			id := strings.TrimSpace(update.Message.CommandArguments())
			if id == "" {
				return bot.SendText(chatID, "Uso: /contactado <id>")
			}
			ctx, cancel := h.requestContext()
			defer cancel()

			if err := h.Tracker.MarkContacted(ctx, id); err != nil {
				return h.replyError(bot, chatID, err)
			}
			return bot.SendText(chatID, fmt.Sprintf("Alerta %s marcada como contactada", id))
		},
	}
}

func (h *TGHandler) HistoryHandler() tgbot.Handler {
	return tgbot.Handler{
		Handle: func(bot *tgbot.Bot, update tgbotapi.Update) error {
			chatID := update.Message.Chat.ID
			query := strings.TrimSpace(update.Message.CommandArguments())
			if query == "" {
				return bot.SendText(chatID, "Uso: /historial <cliente>")
			}
			ctx, cancel := h.requestContext()
			defer cancel()

			histories, err := h.Tracker.SearchHistories(ctx, query)
			if err != nil {
				return h.replyError(bot, chatID, err)
			}
			return h.sendLong(bot, chatID, formatHistories(histories, h.location))
		},
	}
}

func (h *TGHandler) StatsHandler() tgbot.Handler {
	return tgbot.Handler{
		Handle: func(bot *tgbot.Bot, update tgbotapi.Update) error {
			chatID := update.Message.Chat.ID
			ctx, cancel := h.requestContext()
			defer cancel()

			stats, err := h.Tracker.Stats(ctx)
			if err != nil {
				return h.replyError(bot, chatID, err)
			}
			return bot.SendText(chatID, formatStats(stats))
		},
	}
}

func (h *TGHandler) ForceCheckHandler() tgbot.Handler {
	return tgbot.Handler{
		Handle: func(bot *tgbot.Bot, update tgbotapi.Update) error {
			// Отправляем сигнал в канал
			select {
			case h.forceUpdate <- struct{}{}:
			default:
			}
			return bot.SendText(update.Message.Chat.ID, "Revisión de alertas iniciada")
		},
	}
}

// authorized пропускает только администраторов из списка и чаты с активной сессией
func (h *TGHandler) authorized(next tgbot.Handler) tgbot.Handler {
	return tgbot.Handler{
		Handle: func(bot *tgbot.Bot, update tgbotapi.Update) error {
			if !h.isAuthorized(bot, update.Message.Chat.ID) {
				return bot.SendText(update.Message.Chat.ID, "Acceso denegado. Use /login <contraseña>")
			}
			return next.Handle(bot, update)
		},
	}
}

func (h *TGHandler) isAuthorized(bot *tgbot.Bot, chatID int64) bool {
	if bot.IsAdmin(chatID) {
		return true
	}
	_, ok := h.sessions.Get(sessionKey(chatID))
	return ok
}

func (h *TGHandler) requestContext() (context.Context, context.CancelFunc) {
	if h.timeout > 0 {
		return context.WithTimeout(context.Background(), h.timeout)
	}
	return context.WithCancel(context.Background())
}

// replyError NotFound и ошибки ввода показываются пользователю, остальное уходит в лог
func (h *TGHandler) replyError(bot *tgbot.Bot, chatID int64, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return bot.SendText(chatID, "No encontrado")
	case errors.Is(err, domain.ErrValidation):
		return bot.SendText(chatID, "Datos inválidos: "+err.Error())
	}
	h.logger.Error("tracker request failed", zap.Error(err), zap.Int64("chat_id", chatID))
	if sendErr := bot.SendText(chatID, "Error al consultar la hoja de cálculo. Intente más tarde."); sendErr != nil {
		return sendErr
	}
	return err
}

// sendLong режет текст по строкам, чтобы уложиться в лимит Telegram
func (h *TGHandler) sendLong(bot *tgbot.Bot, chatID int64, text string) error {
	for _, chunk := range splitMessage(text, maxMessageLen) {
		if err := bot.SendText(chatID, chunk); err != nil {
			return err
		}
	}
	return nil
}

func splitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}
	var chunks []string
	var b strings.Builder
	flush := func() {
		if b.Len() > 0 {
			chunks = append(chunks, b.String())
			b.Reset()
		}
	}
	for _, line := range strings.Split(text, "\n") {
		// строку длиннее лимита режем по границе руны
		for len(line) > limit {
			flush()
			cut := limit
			for cut > 0 && !utf8.RuneStart(line[cut]) {
				cut--
			}
			chunks = append(chunks, line[:cut])
			line = line[cut:]
		}
		if b.Len() > 0 && b.Len()+len(line)+1 > limit {
			flush()
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
	}
	flush()
	return chunks
}

func sessionKey(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}
