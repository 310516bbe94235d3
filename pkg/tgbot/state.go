package tgbot

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

// HandlerFunc обработчик обновления
type HandlerFunc func(bot *Bot, update tgbotapi.Update) error

// Handler обертка над обработчиком, чтобы хранить его в картах состояний
type Handler struct {
	Handle HandlerFunc
}

// State состояние диалога с пользователем
type State struct {
	// Глобальное состояние проверяется для любого пользователя до его собственного
	Global bool

	// Вызывается при входе в состояние
	AtEntranceFunc *Handler

	// Вызывается, если ни один обработчик не подошел
	CatchAllFunc *Handler

	// Ключ - команда ("/start") или текст сообщения в нижнем регистре
	MessageHandlers map[string]Handler

	// Ключ - данные callback'а
	CallbackHandlers map[string]Handler
}
