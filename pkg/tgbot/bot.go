package tgbot

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"baselav/pkg/zaplogger"
)

// Sender то, через что бот отправляет сообщения. *tgbotapi.BotAPI подходит.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Config структура для конфигурации бота
type Config struct {
	Token           string           // Токен бота
	Expiration      time.Duration    // Время хранения состояний пользователя
	CleanupInterval time.Duration    // Интервал очистки кеша
	States          map[string]State // Карта состояний
	Admins          []int64          // Чаты, которые получают уведомления
}

// Bot структура для бота
type Bot struct {
	BotAPI        *tgbotapi.BotAPI // API бота. Экспортируется для доступа к нему из вне
	sender        Sender           // Отправка сообщений, в проде это BotAPI
	expiration    time.Duration    // Время хранения состояний пользователя
	limiter       *Limiter         // Лимитер для ограничения количества запросов к API
	cache         *gocache.Cache   // Кеш для хранения состояний пользователей
	logger        *zap.Logger      // Логгер для записи событий
	states        map[string]State // Состояния пользователя
	globalStates  []*State         // Состояния, в которые может перейти пользователь из любого другого
	updateHandler HandlerFunc      // Обработчик, который будет вызываться при получении любого обновления
	admins        []int64          // Получатели уведомлений
	mu            sync.RWMutex     // Мьютекс для проверки состояния бота
	statesMu      sync.RWMutex     // Мьютекс для безопасного обновления состояний

	IgnoreList []int64 // Список ID пользователей, которые будут игнорироваться
}

// NewBot конструктор нового бота
// logger - необязательный параметр, если не передан, то будет создан новый логгер
func NewBot(config Config, ignoreList []int64, logger ...*zap.Logger) (*Bot, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	botAPI, err := tgbotapi.NewBotAPI(config.Token)
	if err != nil {
		return nil, NewValidationError(ErrTelegramInit, err)
	}
	bot, err := NewBotWithSender(config, botAPI, ignoreList, logger...)
	if err != nil {
		return nil, err
	}
	bot.BotAPI = botAPI
	return bot, nil
}

// NewBotWithSender бот без подключения к Telegram: обновления подаются через Dispatch.
func NewBotWithSender(config Config, sender Sender, ignoreList []int64, logger ...*zap.Logger) (*Bot, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	// Если карта состояний пуста, то нужно ее иницилизировать, чтобы избежать ошибок
	if config.States == nil {
		config.States = make(map[string]State)
	}

	var zapLogger *zap.Logger
	if len(logger) > 0 && logger[0] != nil {
		zapLogger = logger[0]
	} else {
		var err error
		zapLogger, err = zaplogger.New("info")
		if err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
	}

	return &Bot{
		sender:       sender,
		limiter:      NewLimiter(),
		cache:        gocache.New(config.Expiration, config.CleanupInterval),
		states:       config.States,
		globalStates: globalStatesOf(config.States),
		expiration:   config.Expiration,
		logger:       zapLogger.Named("tgbot"),
		admins:       config.Admins,
		IgnoreList:   ignoreList,
	}, nil
}

func (c Config) validate() error {
	if c.Expiration < 0 {
		return NewValidationError(ErrNegativeExpiration, c.Expiration)
	}
	if c.CleanupInterval < 0 {
		return NewValidationError(ErrNegativeCleanup, c.CleanupInterval)
	}
	if c.Token == "" {
		return ErrInvalidToken
	}
	return nil
}

func globalStatesOf(states map[string]State) []*State {
	global := make([]*State, 0)
	for _, state := range states {
		if state.Global {
			stateCopy := state
			global = append(global, &stateCopy)
		}
	}
	return global
}

// SetLogger заменяет текущий логгер
// Должен вызываться до Start()
func (b *Bot) SetLogger(logger *zap.Logger) error {
	if !b.mu.TryRLock() {
		return NewValidationError(ErrBotStarted, "logger")
	}
	defer b.mu.RUnlock()

	b.logger = logger
	return nil
}

// SetUpdateHandler устанавливает обработчик обновлений
// Должен вызываться до Start()
func (b *Bot) SetUpdateHandler(handler HandlerFunc) error {
	if !b.mu.TryRLock() {
		return NewValidationError(ErrBotStarted, "update handler")
	}
	defer b.mu.RUnlock()

	b.updateHandler = handler
	return nil
}

// Admins чаты администраторов
func (b *Bot) Admins() []int64 {
	return b.admins
}

// IsAdmin true, если чат входит в список администраторов
func (b *Bot) IsAdmin(chatID int64) bool {
	return slices.Contains(b.admins, chatID)
}

// Start запускает обработку обновлений в горутине и возвращает канал для ошибок
func (b *Bot) Start(offset, timeout int) chan error {
	errChan := make(chan error, 1)

	if !b.mu.TryLock() {
		b.logger.Warn("Бот уже запущен")
		errChan <- ErrBotStarted
		return errChan
	}

	b.logger.Info("Запуск бота")
	go func() {
		if err := b.HandleUpdates(offset, timeout); err != nil {
			errChan <- err
		}
		close(errChan)
	}()

	return errChan
}

// Stop останавливает обработку обновлений
func (b *Bot) Stop() {
	if b.BotAPI != nil {
		b.BotAPI.StopReceivingUpdates() // Останавливаем получение обновлений
	}
	b.mu.Unlock() // Разблокируем мьютекс, заблокированный в Start()
	b.logger.Info("Остановка обработки обновлений")
}

// HandleUpdates запускает обработку всех обновлений поступающих боту из телеграмма
func (b *Bot) HandleUpdates(offset, timeout int) error {
	if b.BotAPI == nil {
		return ErrNoUpdatesSource
	}
	u := tgbotapi.NewUpdate(offset)
	u.Timeout = timeout
	updates := b.BotAPI.GetUpdatesChan(u)
	b.logger.Info("Запуск обработки обновлений")

	for update := range updates {
		if err := b.Dispatch(update); err != nil {
			return err
		}
	}
	return nil
}

// Dispatch обрабатывает одно обновление: общий обработчик, глобальные состояния,
// затем состояние пользователя.
func (b *Bot) Dispatch(update tgbotapi.Update) error {
	// Обработка любого обновления
	if b.updateHandler != nil {
		if err := b.updateHandler(b, update); err != nil {
			b.logger.Error("Ошибка в обработчике обновлений", zap.Error(err))
			return fmt.Errorf("update handler error: %w", err)
		}
	}

	if update.SentFrom() == nil {
		return nil
	}
	if slices.Contains(b.IgnoreList, update.SentFrom().ID) {
		return nil
	}
	if update.FromChat() != nil && slices.Contains(b.IgnoreList, update.FromChat().ID) {
		return nil
	}

	// Обработка глобальных стейтов
	globalStateFound, err := b.HandleGlobalStates(update)
	if err != nil {
		return fmt.Errorf("global state error: %w", err)
	}
	if globalStateFound {
		return nil
	}

	// Получение названия состояния пользователя
	userStateName, err := b.GetUserState(update.SentFrom().ID)
	if err != nil {
		b.logger.Debug("user has no state", zap.Int64("user_id", update.SentFrom().ID), zap.Error(err))
		return nil
	}

	b.statesMu.RLock()
	userState, ok := b.states[userStateName]
	b.statesMu.RUnlock()
	if !ok {
		b.logger.Error("state not found in states map", zap.String("state", userStateName))
		return fmt.Errorf("state %s not found", userStateName)
	}

	if _, err := b.SelectHandler(update, &userState); err != nil {
		return fmt.Errorf("handle user state error: %w", err)
	}
	return nil
}

// GetUserState возвращает название состояния, в котором находится пользователь
func (b *Bot) GetUserState(userID int64) (string, error) {
	userStateInterface, ok := b.cache.Get(strconv.FormatInt(userID, 10))
	if !ok {
		return "", ErrStateNotFound
	}

	userState, ok := userStateInterface.(string)
	if !ok {
		return "", ErrInvalidStateType
	}

	return userState, nil
}

// SetUserState меняет состояние пользователя
func (b *Bot) SetUserState(userID int64, state string) error {
	b.statesMu.RLock()
	_, ok := b.states[state]
	b.statesMu.RUnlock()

	if !ok {
		return NewValidationError(ErrStateHandlerNotFound, state)
	}

	b.cache.Set(strconv.FormatInt(userID, 10), state, b.expiration)
	return nil
}

// ResetUserState возвращает пользователя в глобальные состояния
func (b *Bot) ResetUserState(userID int64) {
	b.cache.Delete(strconv.FormatInt(userID, 10))
}

// HandleGlobalStates проверяет подходит ли действие пользователя под
// глобальные состояния и если подходит, то выполняет его.
// Возвращает true, если обработчик нашелся и выполнился.
func (b *Bot) HandleGlobalStates(update tgbotapi.Update) (bool, error) {
	b.statesMu.RLock()
	global := b.globalStates
	b.statesMu.RUnlock()

	for _, state := range global {
		handlerIsFound, err := b.selectHandler(update, state, false)
		if err != nil {
			b.logger.Error("failed to handle global state", zap.Error(err))
			continue
		}
		if handlerIsFound {
			return true, nil
		}
	}
	return false, nil
}

// SelectHandler выбирает обработчик состояния под обновление
func (b *Bot) SelectHandler(update tgbotapi.Update, userState *State) (bool, error) {
	return b.selectHandler(update, userState, true)
}

// selectHandler для глобальных состояний catchAll не вызывается, иначе
// глобальное состояние перехватывало бы любой текст.
func (b *Bot) selectHandler(update tgbotapi.Update, userState *State, catchAll bool) (bool, error) {
	switch {
	case update.Message != nil:
		return b.handleMessage(userState, update, catchAll), nil
	case update.CallbackQuery != nil:
		return b.handleCallback(userState, update, catchAll)
	}
	return false, nil
}

// messageKey команда без аргументов и @имени бота или весь текст в нижнем регистре
func messageKey(msg *tgbotapi.Message) string {
	if msg.IsCommand() {
		return "/" + strings.ToLower(msg.Command())
	}
	return strings.ToLower(strings.TrimSpace(msg.Text))
}

// handleMessage ищет команду в map'е и выполняет ее
func (b *Bot) handleMessage(userState *State, update tgbotapi.Update, catchAll bool) bool {
	key := messageKey(update.Message)
	fields := []zap.Field{
		zap.String("command", key),
		zap.Int64("chat_id", update.Message.Chat.ID),
		zap.String("username", update.Message.Chat.UserName),
	}

	if currentAction, ok := userState.MessageHandlers[key]; ok {
		if err := currentAction.Handle(b, update); err != nil {
			b.logger.Error("failed to handle command", append(fields, zap.Error(err))...)
		} else {
			b.logger.Info("command handled successfully", fields...)
		}
		return true
	}

	if catchAll && userState.CatchAllFunc != nil {
		if err := userState.CatchAllFunc.Handle(b, update); err != nil {
			b.logger.Error("failed to handle message", append(fields, zap.Error(err))...)
		}
		return true
	}
	return false
}

// handleCallback ищет команду в map'е и выполняет ее
func (b *Bot) handleCallback(userState *State, update tgbotapi.Update, catchAll bool) (bool, error) {
	fields := []zap.Field{
		zap.String("callback", update.CallbackQuery.Data),
		zap.Int64("user_id", update.CallbackQuery.From.ID),
		zap.String("username", update.CallbackQuery.From.UserName),
	}

	if currentAction, ok := userState.CallbackHandlers[update.CallbackQuery.Data]; ok {
		if err := currentAction.Handle(b, update); err != nil {
			b.logger.Error("failed to handle callback", append(fields, zap.Error(err))...)
			return true, err
		}
		b.logger.Info("callback handled successfully", fields...)
		return true, nil
	}

	if catchAll && userState.CatchAllFunc != nil {
		if err := userState.CatchAllFunc.Handle(b, update); err != nil {
			b.logger.Error("failed to handle callback", append(fields, zap.Error(err))...)
		}
		return true, nil
	}
	return false, nil
}

// ReplaceStates безопасно заменяет все состояния бота на новые
func (b *Bot) ReplaceStates(newStates map[string]State) {
	b.statesMu.Lock()
	defer b.statesMu.Unlock()

	b.states = newStates
	b.globalStates = globalStatesOf(newStates)
	b.logger.Info("Состояния бота успешно обновлены")
}

// SendMessage отправляет сообщение с учетом лимита
func (b *Bot) SendMessage(msg tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.limiter.Wait()
	return b.sender.Send(msg)
}

// SendText отправляет простой текст в чат
func (b *Bot) SendText(chatID int64, text string) error {
	_, err := b.SendMessage(tgbotapi.NewMessage(chatID, text))
	return err
}

// NotifyAdmins рассылает текст всем администраторам.
// Ошибка возвращается, если не удалось доставить хотя бы одному.
func (b *Bot) NotifyAdmins(text string) error {
	if len(b.admins) == 0 {
		return errors.New("no admin chats configured")
	}
	var errs []error
	for _, chatID := range b.admins {
		if err := b.SendText(chatID, text); err != nil {
			b.logger.Error("failed to notify admin", zap.Int64("chat_id", chatID), zap.Error(err))
			errs = append(errs, fmt.Errorf("chat %d: %w", chatID, err))
		}
	}
	return errors.Join(errs...)
}
