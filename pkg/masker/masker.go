package masker

import (
	"fmt"
	"reflect"

	"go.uber.org/zap"
)

// LogConfigs логгирует структуры, в том числе вложенные.
// Если поле помечено тегом masked, то оно будет логгироваться замаскированным.
// Каждая структура логируется отдельной строкой. Вложенные поля не логгируются отдельно.
func LogConfigs(logger *zap.Logger, configs ...interface{}) error {
	for _, config := range configs {

		v := reflect.ValueOf(config)
		t := reflect.TypeOf(config)

		// Если config не указатель на структуру, то ошибка
		if v.Kind() != reflect.Ptr || v.IsNil() || v.Elem().Kind() != reflect.Struct {
			return ErrConfigNotPointer
		}
		v = v.Elem()
		t = t.Elem()

		// Получение мапы полей
		masked := maskStructFields(v, t)

		logger.Info("Config", zap.Any(t.Name(), masked))
	}
	return nil
}

// maskStructFields маскирует поля структуры, если они отмечены тегом masked
func maskStructFields(v reflect.Value, t reflect.Type) map[string]interface{} {
	result := make(map[string]interface{})
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)
		masked := fieldType.Tag.Get("masked")

		// Неэкспортируемые поля пропускаются: Interface() на них паникует.
		if !fieldType.IsExported() {
			continue
		}

		switch field.Kind() {

		// Если поле структура, то рекурсивная обработка и добавление вложенных полей в мапу.
		case reflect.Struct:
			result[fieldType.Name] = maskStructFields(field, field.Type())

		// Указатель на структуру разыменовывается, nil логгируется как есть.
		case reflect.Ptr:
			if !field.IsNil() && field.Elem().Kind() == reflect.Struct {
				result[fieldType.Name] = maskStructFields(field.Elem(), field.Elem().Type())
			} else if masked == "true" {
				result[fieldType.Name] = "****"
			} else {
				result[fieldType.Name] = field.Interface()
			}

		// Если поле строка и помечено тегом masked, то маскируется.
		case reflect.String:
			if masked == "true" {
				result[fieldType.Name] = maskSensitiveData(field.String())
			} else {
				result[fieldType.Name] = field.String()
			}

		// Остальные поля с тегом masked скрываются целиком, без тега добавляются как есть.
		default:
			if masked == "true" {
				result[fieldType.Name] = "****"
			} else if s, ok := field.Interface().(fmt.Stringer); ok {
				result[fieldType.Name] = s.String()
			} else {
				result[fieldType.Name] = field.Interface()
			}
		}
	}
	return result
}

// maskSensitiveData маскирует строку, оставляя только первый и последний символы.
// Если строка короче 2 символов, то возвращается "****".
func maskSensitiveData(data string) string {
	if len(data) <= 2 {
		return "****"
	}
	return string(data[0]) + "****" + string(data[len(data)-1])
}
