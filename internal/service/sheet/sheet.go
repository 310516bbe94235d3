package sheet

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"time"

	"baselav/internal/codec"
	"baselav/internal/domain"

	"go.uber.org/zap"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetService шлюз к листу Google Sheets с записями обслуживания.
// Строка 1: заголовок, данные со строки 2. Повторов при ошибках нет.
type SheetService struct {
	SpreadsheetID string
	SheetName     string
	PauseMs       int // пауза между запросами в миллисекундах
	srv           *sheets.Service
	logger        *zap.Logger

	limiterMu sync.Mutex
	lastCall  time.Time

	sheetMu    sync.Mutex
	sheetID    int64
	sheetKnown bool
}

// Конструктор SheetService: учётные данные сервисного аккаунта в base64.
func NewSheetService(ctx context.Context, base64Creds, spreadsheetID, sheetName string, pauseMs int, logger *zap.Logger) (*SheetService, error) {
	credBytes, err := base64.StdEncoding.DecodeString(base64Creds)
	if err != nil {
		return nil, fmt.Errorf("не удается декодировать credentials из base64: %w", err)
	}
	creds, err := google.CredentialsFromJSON(ctx, credBytes, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("не удается создать credentials из JSON: %w", err)
	}
	return NewSheetServiceWithOptions(ctx, spreadsheetID, sheetName, pauseMs, logger, option.WithCredentials(creds))
}

// NewSheetServiceWithOptions конструктор с произвольными опциями клиента (endpoint, http-клиент).
func NewSheetServiceWithOptions(ctx context.Context, spreadsheetID, sheetName string, pauseMs int, logger *zap.Logger, opts ...option.ClientOption) (*SheetService, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("не указан ID таблицы")
	}
	if sheetName == "" {
		return nil, fmt.Errorf("не указано имя листа")
	}
	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("не удается инициализировать сервис Google Sheets: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SheetService{
		SpreadsheetID: spreadsheetID,
		SheetName:     sheetName,
		PauseMs:       pauseMs,
		srv:           srv,
		logger:        logger.Named("sheet"),
		lastCall:      time.Now(),
	}, nil
}

// Лимитер: выдерживает паузу между запросами, прерывается по контексту
func (s *SheetService) Wait(ctx context.Context) error {
	s.limiterMu.Lock()
	defer s.limiterMu.Unlock()
	pause := time.Duration(s.PauseMs) * time.Millisecond
	if elapsed := time.Since(s.lastCall); elapsed < pause {
		timer := time.NewTimer(pause - elapsed)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	s.lastCall = time.Now()
	return nil
}

// EnsureSchema создает лист, если его нет, и пишет заголовок, если лист пустой.
func (s *SheetService) EnsureSchema(ctx context.Context) error {
	const op = "ensure schema"

	sheetID, found, err := s.lookupSheet(ctx)
	if err != nil {
		return domain.NewSchemaError(op, err)
	}

	if !found {
		if err := s.Wait(ctx); err != nil {
			return domain.NewSchemaError(op, err)
		}
		resp, err := s.srv.Spreadsheets.BatchUpdate(s.SpreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
			Requests: []*sheets.Request{{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{Title: s.SheetName},
				},
			}},
		}).Context(ctx).Do()
		if err != nil {
			return domain.NewSchemaError(op, fmt.Errorf("ошибка создания листа: %w", err))
		}
		if len(resp.Replies) > 0 && resp.Replies[0].AddSheet != nil && resp.Replies[0].AddSheet.Properties != nil {
			sheetID = resp.Replies[0].AddSheet.Properties.SheetId
		}
		s.rememberSheetID(sheetID)
		s.logger.Info("sheet created", zap.String("sheet", s.SheetName), zap.Int64("sheet_id", sheetID))
	}

	if err := s.Wait(ctx); err != nil {
		return domain.NewSchemaError(op, err)
	}
	header, err := s.srv.Spreadsheets.Values.Get(s.SpreadsheetID, s.rangeOf(1, 1)).Context(ctx).Do()
	if err != nil {
		return domain.NewSchemaError(op, fmt.Errorf("ошибка чтения заголовка: %w", err))
	}
	if len(header.Values) > 0 {
		return nil
	}

	headerRow := make([]interface{}, len(codec.Headers))
	for i, h := range codec.Headers {
		headerRow[i] = h
	}
	if err := s.Wait(ctx); err != nil {
		return domain.NewSchemaError(op, err)
	}
	_, err = s.srv.Spreadsheets.Values.Update(s.SpreadsheetID, s.rangeOf(1, 1), &sheets.ValueRange{
		Values: [][]interface{}{headerRow},
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return domain.NewSchemaError(op, fmt.Errorf("ошибка записи заголовка: %w", err))
	}

	if err := s.styleHeader(ctx, sheetID); err != nil {
		return domain.NewSchemaError(op, err)
	}
	s.logger.Info("sheet header written", zap.String("sheet", s.SheetName))
	return nil
}

// Жирный белый текст на синем фоне
func (s *SheetService) styleHeader(ctx context.Context, sheetID int64) error {
	if err := s.Wait(ctx); err != nil {
		return err
	}
	_, err := s.srv.Spreadsheets.BatchUpdate(s.SpreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:         sheetID,
					StartRowIndex:   0,
					EndRowIndex:     1,
					ForceSendFields: []string{"SheetId", "StartRowIndex"},
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						BackgroundColor: &sheets.Color{Red: 0.2, Green: 0.4, Blue: 0.8},
						TextFormat: &sheets.TextFormat{
							Bold:            true,
							ForegroundColor: &sheets.Color{Red: 1, Green: 1, Blue: 1},
						},
					},
				},
				Fields: "userEnteredFormat(backgroundColor,textFormat)",
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("ошибка оформления заголовка: %w", err)
	}
	return nil
}

// ScanAll читает все строки со второй. Строки с пустым ID пропускаются,
// но позиции остальных строк считаются честно.
func (s *SheetService) ScanAll(ctx context.Context) ([]domain.StoredRow, error) {
	const op = "scan all"

	if err := s.Wait(ctx); err != nil {
		return nil, domain.NewStoreError(op, err)
	}
	resp, err := s.srv.Spreadsheets.Values.Get(s.SpreadsheetID, s.rangeOf(2, 0)).
		ValueRenderOption("UNFORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, domain.NewStoreError(op, fmt.Errorf("ошибка чтения строк: %w", err))
	}

	rows := make([]domain.StoredRow, 0, len(resp.Values))
	for i, values := range resp.Values {
		if len(values) == 0 || strings.TrimSpace(fmt.Sprint(values[0])) == "" {
			continue
		}
		rows = append(rows, domain.StoredRow{
			Position: i + 2,
			Values:   domain.Row(values),
		})
	}
	return rows, nil
}

// Append добавляет строку в конец таблицы.
func (s *SheetService) Append(ctx context.Context, row domain.Row) error {
	const op = "append"

	if err := s.Wait(ctx); err != nil {
		return domain.NewStoreError(op, err)
	}
	_, err := s.srv.Spreadsheets.Values.Append(s.SpreadsheetID, s.columnsRange(), &sheets.ValueRange{
		Values: [][]interface{}{row},
	}).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return domain.NewStoreError(op, fmt.Errorf("ошибка вставки в таблицу: %w", err))
	}
	return nil
}

// UpdateAt полностью перезаписывает строку на позиции (данные начинаются со 2).
func (s *SheetService) UpdateAt(ctx context.Context, position int, row domain.Row) error {
	const op = "update at"

	if position < 2 {
		return domain.NewStoreError(op, fmt.Errorf("недопустимая позиция строки %d", position))
	}
	if err := s.Wait(ctx); err != nil {
		return domain.NewStoreError(op, err)
	}
	_, err := s.srv.Spreadsheets.Values.Update(s.SpreadsheetID, s.rangeOf(position, position), &sheets.ValueRange{
		Values: [][]interface{}{row},
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return domain.NewStoreError(op, fmt.Errorf("ошибка обновления строки %d: %w", position, err))
	}
	return nil
}

// DeleteAt удаляет строку на позиции, следующие строки сдвигаются вверх.
func (s *SheetService) DeleteAt(ctx context.Context, position int) error {
	const op = "delete at"

	if position < 2 {
		return domain.NewStoreError(op, fmt.Errorf("недопустимая позиция строки %d", position))
	}
	sheetID, err := s.numericSheetID(ctx)
	if err != nil {
		return domain.NewStoreError(op, err)
	}
	if err := s.Wait(ctx); err != nil {
		return domain.NewStoreError(op, err)
	}
	_, err = s.srv.Spreadsheets.BatchUpdate(s.SpreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			DeleteDimension: &sheets.DeleteDimensionRequest{
				Range: &sheets.DimensionRange{
					SheetId:         sheetID,
					Dimension:       "ROWS",
					StartIndex:      int64(position - 1),
					EndIndex:        int64(position),
					ForceSendFields: []string{"SheetId"},
				},
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return domain.NewStoreError(op, fmt.Errorf("ошибка удаления строки %d: %w", position, err))
	}
	return nil
}

// lookupSheet ищет лист по имени и запоминает его числовой ID.
func (s *SheetService) lookupSheet(ctx context.Context) (int64, bool, error) {
	if err := s.Wait(ctx); err != nil {
		return 0, false, err
	}
	resp, err := s.srv.Spreadsheets.Get(s.SpreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, false, fmt.Errorf("ошибка получения информации о таблице: %w", err)
	}
	for _, sh := range resp.Sheets {
		if sh.Properties != nil && sh.Properties.Title == s.SheetName {
			s.rememberSheetID(sh.Properties.SheetId)
			return sh.Properties.SheetId, true, nil
		}
	}
	return 0, false, nil
}

func (s *SheetService) numericSheetID(ctx context.Context) (int64, error) {
	s.sheetMu.Lock()
	id, known := s.sheetID, s.sheetKnown
	s.sheetMu.Unlock()
	if known {
		return id, nil
	}
	id, found, err := s.lookupSheet(ctx)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, fmt.Errorf("лист %q не найден", s.SheetName)
	}
	return id, nil
}

func (s *SheetService) rememberSheetID(id int64) {
	s.sheetMu.Lock()
	defer s.sheetMu.Unlock()
	s.sheetID = id
	s.sheetKnown = true
}

// rangeOf диапазон A{from}:W{to}; to == 0: до конца листа.
func (s *SheetService) rangeOf(from, to int) string {
	last := columnLetter(codec.Width)
	if to == 0 {
		return fmt.Sprintf("%s!A%d:%s", s.quotedName(), from, last)
	}
	return fmt.Sprintf("%s!A%d:%s%d", s.quotedName(), from, last, to)
}

func (s *SheetService) columnsRange() string {
	return fmt.Sprintf("%s!A:%s", s.quotedName(), columnLetter(codec.Width))
}

func (s *SheetService) quotedName() string {
	return "'" + strings.ReplaceAll(s.SheetName, "'", "''") + "'"
}

// columnLetter буква колонки по номеру (1 -> A, 23 -> W, 27 -> AA).
func columnLetter(n int) string {
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('A' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}
