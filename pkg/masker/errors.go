package masker

import "errors"

// ErrConfigNotPointer в LogConfigs передана не ссылка на структуру.
var ErrConfigNotPointer = errors.New("config must be a pointer to struct")
