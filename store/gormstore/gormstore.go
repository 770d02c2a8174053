/*
Package gormstore provides a gorm-backed implementation of the storage interfaces.

PURPOSE:
  The production store. Runs on PostgreSQL via gorm.io/driver/postgres; tests
  run the same code on gorm.io/driver/sqlite. Implements the same contracts
  as store/sqlite:

  generic.Store, generic.TxStore, generic.BalanceStore, overtime.RecordStore

APPEND-ONLY ENFORCEMENT:
  transactions and corrections are only ever inserted. Both carry an
  auto-increment Seq so rows of one day keep their insertion order.

SCHEMA:
  gorm AutoMigrate over the models in models.go, run by New().

ERRORS:
  The gorm config enables TranslateError, so unique violations surface as
  gorm.ErrDuplicatedKey on every dialect and map to
  generic.ErrDuplicateIdempotencyKey.
*/
package gormstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/overtime"
)

// Store implements all storage interfaces on a *gorm.DB.
type Store struct {
	db *gorm.DB
}

// Config is the gorm configuration every Store is opened with.
func Config() *gorm.Config {
	return &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
	}
}

// Open connects with the given dialector and migrates the schema.
func Open(dialector gorm.Dialector) (*Store, error) {
	db, err := gorm.Open(dialector, Config())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return New(db)
}

// OpenPostgres connects to PostgreSQL.
func OpenPostgres(dsn string) (*Store, error) {
	return Open(postgres.Open(dsn))
}

// New migrates the schema on an existing connection.
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(allModels...); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &Store{db: db}, nil
}

// Ping checks the underlying connection.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// =============================================================================
// TRANSACTION STORE (generic.Store interface)
// =============================================================================

func (s *Store) Append(ctx context.Context, tx generic.Transaction) error {
	m := toTransactionModel(tx)
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return generic.ErrDuplicateIdempotencyKey
		}
		return fmt.Errorf("failed to append transaction: %w", err)
	}
	return nil
}

func (s *Store) AppendBatch(ctx context.Context, txs []generic.Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(txs))
	models := make([]transactionModel, 0, len(txs))
	for _, tx := range txs {
		if tx.IdempotencyKey != "" {
			if seen[tx.IdempotencyKey] {
				return generic.ErrDuplicateIdempotencyKey
			}
			seen[tx.IdempotencyKey] = true
		}
		models = append(models, toTransactionModel(tx))
	}

	err := s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		return db.Create(&models).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return generic.ErrDuplicateIdempotencyKey
		}
		return fmt.Errorf("failed to append transactions: %w", err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context, employeeID string) ([]generic.Transaction, error) {
	var models []transactionModel
	err := s.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Order("effective_at ASC, seq ASC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	return fromTransactionModels(models)
}

func (s *Store) LoadRange(ctx context.Context, employeeID string, from, to generic.Date) ([]generic.Transaction, error) {
	var models []transactionModel
	err := s.db.WithContext(ctx).
		Where("employee_id = ? AND effective_at >= ? AND effective_at <= ?", employeeID, from.String(), to.String()).
		Order("effective_at ASC, seq ASC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	return fromTransactionModels(models)
}

func (s *Store) Exists(ctx context.Context, idempotencyKey string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&transactionModel{}).
		Where("idempotency_key = ?", idempotencyKey).
		Count(&count).Error
	return count > 0, err
}

// WithTx runs fn against a Store bound to one database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(generic.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

func toTransactionModel(tx generic.Transaction) transactionModel {
	metadata, _ := json.Marshal(tx.Metadata)
	return transactionModel{
		ID:             string(tx.ID),
		EmployeeID:     tx.EmployeeID,
		EffectiveAt:    tx.EffectiveAt.String(),
		Hours:          tx.Hours.String(),
		TxType:         string(tx.Type),
		EventKey:       tx.EventKey,
		ReferenceID:    optional(tx.ReferenceID),
		Description:    optional(tx.Description),
		IdempotencyKey: optional(tx.IdempotencyKey),
		MetadataJSON:   string(metadata),
		CreatedBy:      tx.CreatedBy,
		CreatedOn:      tx.CreatedAt.String(),
	}
}

func fromTransactionModels(models []transactionModel) ([]generic.Transaction, error) {
	txs := make([]generic.Transaction, 0, len(models))
	for _, m := range models {
		var dec generic.ColumnDecoder
		tx := generic.Transaction{
			ID:             generic.TransactionID(m.ID),
			EmployeeID:     m.EmployeeID,
			Hours:          dec.Hours("hours", m.Hours),
			Type:           generic.TransactionType(m.TxType),
			EventKey:       m.EventKey,
			ReferenceID:    deref(m.ReferenceID),
			Description:    deref(m.Description),
			IdempotencyKey: deref(m.IdempotencyKey),
			CreatedBy:      m.CreatedBy,
		}
		tx.EffectiveAt = dec.Date("effective_at", m.EffectiveAt)
		tx.CreatedAt = dec.Date("created_on", m.CreatedOn)
		if err := dec.Err(); err != nil {
			return nil, fmt.Errorf("transaction %s: %w", m.ID, err)
		}
		if m.MetadataJSON != "" && m.MetadataJSON != "null" {
			if err := json.Unmarshal([]byte(m.MetadataJSON), &tx.Metadata); err != nil {
				return nil, fmt.Errorf("transaction %s: corrupt metadata: %w", m.ID, err)
			}
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

// =============================================================================
// MONTHLY BALANCES (generic.BalanceStore interface)
// =============================================================================

func (s *Store) GetMonthlyBalance(ctx context.Context, employeeID string, month generic.MonthKey) (*generic.MonthlyBalance, error) {
	var models []monthlyBalanceModel
	err := s.db.WithContext(ctx).
		Where("employee_id = ? AND month = ?", employeeID, string(month)).
		Limit(1).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get monthly balance: %w", err)
	}
	if len(models) == 0 {
		return nil, nil
	}
	row, err := fromBalanceModel(models[0])
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *Store) ListMonthlyBalances(ctx context.Context, employeeID string, from, to generic.MonthKey) ([]generic.MonthlyBalance, error) {
	var models []monthlyBalanceModel
	err := s.db.WithContext(ctx).
		Where("employee_id = ? AND month >= ? AND month <= ?", employeeID, string(from), string(to)).
		Order("month ASC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list monthly balances: %w", err)
	}
	rows := make([]generic.MonthlyBalance, 0, len(models))
	for _, m := range models {
		row, err := fromBalanceModel(m)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// UpsertMonthlyBalance skips the write when the stored row has a newer generation.
func (s *Store) UpsertMonthlyBalance(ctx context.Context, row generic.MonthlyBalance) (bool, error) {
	m := monthlyBalanceModel{
		EmployeeID:      row.EmployeeID,
		Month:           string(row.Month),
		TargetHours:     row.TargetHours.String(),
		ActualHours:     row.ActualHours.String(),
		Overtime:        row.Overtime.String(),
		ComputedThrough: row.ComputedThrough.String(),
		Generation:      row.Generation,
	}
	if row.CarryoverFromPreviousYear != nil {
		c := row.CarryoverFromPreviousYear.String()
		m.CarryoverFromPreviousYear = &c
	}

	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "employee_id"}, {Name: "month"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"target_hours", "actual_hours", "overtime",
			"carryover_from_previous_year", "computed_through", "generation",
		}),
		Where: clause.Where{Exprs: []clause.Expression{
			gorm.Expr("excluded.generation >= monthly_balances.generation"),
		}},
	}).Create(&m)
	if result.Error != nil {
		return false, fmt.Errorf("failed to upsert monthly balance: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (s *Store) MonthGeneration(ctx context.Context, employeeID string, month generic.MonthKey) (int64, error) {
	var models []generationModel
	err := s.db.WithContext(ctx).
		Where("employee_id = ? AND month = ?", employeeID, string(month)).
		Limit(1).
		Find(&models).Error
	if err != nil {
		return 0, fmt.Errorf("failed to read generation: %w", err)
	}
	if len(models) == 0 {
		return 0, nil
	}
	return models[0].Generation, nil
}

func (s *Store) BumpGenerations(ctx context.Context, employeeID string, months []generic.MonthKey) error {
	if len(months) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		for _, month := range months {
			m := generationModel{EmployeeID: employeeID, Month: string(month), Generation: 1}
			err := db.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "employee_id"}, {Name: "month"}},
				DoUpdates: clause.Assignments(map[string]any{
					"generation": gorm.Expr("balance_generations.generation + 1"),
				}),
			}).Create(&m).Error
			if err != nil {
				return fmt.Errorf("failed to bump generation %s: %w", month, err)
			}
		}
		return nil
	})
}

func fromBalanceModel(m monthlyBalanceModel) (generic.MonthlyBalance, error) {
	var dec generic.ColumnDecoder
	row := generic.MonthlyBalance{
		EmployeeID:  m.EmployeeID,
		Month:       generic.MonthKey(m.Month),
		TargetHours: dec.Hours("target_hours", m.TargetHours),
		ActualHours: dec.Hours("actual_hours", m.ActualHours),
		Overtime:    dec.Hours("overtime", m.Overtime),
		Generation:  m.Generation,
	}
	if m.CarryoverFromPreviousYear != nil {
		c := dec.Hours("carryover_from_previous_year", *m.CarryoverFromPreviousYear)
		row.CarryoverFromPreviousYear = &c
	}
	row.ComputedThrough = dec.Date("computed_through", m.ComputedThrough)
	if err := dec.Err(); err != nil {
		return row, fmt.Errorf("monthly balance %s/%s: %w", m.EmployeeID, m.Month, err)
	}
	return row, nil
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func (s *Store) SaveEmployee(ctx context.Context, emp overtime.Employee) error {
	if err := emp.Validate(); err != nil {
		return err
	}
	m := employeeModel{
		ID:          emp.ID,
		Name:        emp.Name,
		HireDate:    emp.HireDate.String(),
		WeeklyHours: emp.WeeklyHours.String(),
	}
	if emp.TerminationDate != nil {
		t := emp.TerminationDate.String()
		m.TerminationDate = &t
	}
	if emp.Schedule != nil {
		b, err := json.Marshal(emp.Schedule)
		if err != nil {
			return fmt.Errorf("failed to encode schedule: %w", err)
		}
		schedule := string(b)
		m.ScheduleJSON = &schedule
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&m).Error
	if err != nil {
		return fmt.Errorf("failed to save employee: %w", err)
	}
	return nil
}

func (s *Store) GetEmployee(ctx context.Context, id string) (*overtime.Employee, error) {
	var m employeeModel
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &generic.NotFoundError{Kind: "employee", ID: id}
		}
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}
	emp, err := fromEmployeeModel(m)
	if err != nil {
		return nil, err
	}
	return &emp, nil
}

func (s *Store) ListEmployees(ctx context.Context) ([]overtime.Employee, error) {
	var models []employeeModel
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	employees := make([]overtime.Employee, 0, len(models))
	for _, m := range models {
		emp, err := fromEmployeeModel(m)
		if err != nil {
			return nil, err
		}
		employees = append(employees, emp)
	}
	return employees, nil
}

func fromEmployeeModel(m employeeModel) (overtime.Employee, error) {
	var dec generic.ColumnDecoder
	emp := overtime.Employee{
		ID:          m.ID,
		Name:        m.Name,
		WeeklyHours: dec.Hours("weekly_hours", m.WeeklyHours),
		HireDate:    dec.Date("hire_date", m.HireDate),
	}
	if m.TerminationDate != nil {
		t := dec.Date("termination_date", *m.TerminationDate)
		emp.TerminationDate = &t
	}
	if err := dec.Err(); err != nil {
		return emp, fmt.Errorf("employee %s: %w", m.ID, err)
	}
	if m.ScheduleJSON != nil && *m.ScheduleJSON != "" {
		var ws overtime.WorkSchedule
		if err := json.Unmarshal([]byte(*m.ScheduleJSON), &ws); err != nil {
			return emp, fmt.Errorf("failed to decode schedule of %s: %w", m.ID, err)
		}
		emp.Schedule = &ws
	}
	return emp, nil
}

// =============================================================================
// TIME ENTRIES
// =============================================================================

func (s *Store) SaveTimeEntry(ctx context.Context, t overtime.TimeEntry) error {
	if err := t.Validate(); err != nil {
		return err
	}
	m := timeEntryModel{ID: t.ID, EmployeeID: t.EmployeeID, Date: t.Date.String(), Hours: t.Hours.String()}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&m).Error; err != nil {
		return fmt.Errorf("failed to save time entry: %w", err)
	}
	return nil
}

func (s *Store) DeleteTimeEntry(ctx context.Context, id string) (*overtime.TimeEntry, error) {
	var removed *overtime.TimeEntry
	err := s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		var m timeEntryModel
		if err := db.Where("id = ?", id).Take(&m).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &generic.NotFoundError{Kind: "time entry", ID: id}
			}
			return err
		}
		if err := db.Delete(&timeEntryModel{}, "id = ?", id).Error; err != nil {
			return err
		}
		t, err := fromTimeEntryModel(m)
		if err != nil {
			return err
		}
		removed = &t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

func (s *Store) TimeEntries(ctx context.Context, employeeID string, from, to generic.Date) ([]overtime.TimeEntry, error) {
	var models []timeEntryModel
	err := s.db.WithContext(ctx).
		Where("employee_id = ? AND date >= ? AND date <= ?", employeeID, from.String(), to.String()).
		Order("date ASC, id ASC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query time entries: %w", err)
	}
	entries := make([]overtime.TimeEntry, 0, len(models))
	for _, m := range models {
		t, err := fromTimeEntryModel(m)
		if err != nil {
			return nil, err
		}
		entries = append(entries, t)
	}
	return entries, nil
}

func fromTimeEntryModel(m timeEntryModel) (overtime.TimeEntry, error) {
	var dec generic.ColumnDecoder
	t := overtime.TimeEntry{
		ID:         m.ID,
		EmployeeID: m.EmployeeID,
		Date:       dec.Date("date", m.Date),
		Hours:      dec.Hours("hours", m.Hours),
	}
	if err := dec.Err(); err != nil {
		return t, fmt.Errorf("time entry %s: %w", m.ID, err)
	}
	return t, nil
}

// =============================================================================
// ABSENCES
// =============================================================================

func (s *Store) SaveAbsence(ctx context.Context, a overtime.AbsenceRequest) error {
	if err := a.Validate(); err != nil {
		return err
	}
	m := absenceModel{
		ID:          a.ID,
		EmployeeID:  a.EmployeeID,
		AbsenceType: a.Type.String(),
		StartDate:   a.Start.String(),
		EndDate:     a.End.String(),
		Status:      string(a.Status),
	}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&m).Error; err != nil {
		return fmt.Errorf("failed to save absence: %w", err)
	}
	return nil
}

func (s *Store) GetAbsence(ctx context.Context, id string) (*overtime.AbsenceRequest, error) {
	var m absenceModel
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &generic.NotFoundError{Kind: "absence", ID: id}
		}
		return nil, fmt.Errorf("failed to get absence: %w", err)
	}
	a, err := fromAbsenceModel(m)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) Absences(ctx context.Context, employeeID string, from, to generic.Date) ([]overtime.AbsenceRequest, error) {
	var models []absenceModel
	err := s.db.WithContext(ctx).
		Where("employee_id = ? AND start_date <= ? AND end_date >= ?", employeeID, to.String(), from.String()).
		Order("start_date ASC, id ASC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query absences: %w", err)
	}
	absences := make([]overtime.AbsenceRequest, 0, len(models))
	for _, m := range models {
		a, err := fromAbsenceModel(m)
		if err != nil {
			return nil, err
		}
		absences = append(absences, a)
	}
	return absences, nil
}

func fromAbsenceModel(m absenceModel) (overtime.AbsenceRequest, error) {
	typ, err := overtime.ParseAbsenceType(m.AbsenceType)
	if err != nil {
		return overtime.AbsenceRequest{}, fmt.Errorf("absence %s: %w", m.ID, err)
	}
	a := overtime.AbsenceRequest{
		ID:         m.ID,
		EmployeeID: m.EmployeeID,
		Type:       typ,
		Status:     overtime.AbsenceStatus(m.Status),
	}
	var dec generic.ColumnDecoder
	a.Start = dec.Date("start_date", m.StartDate)
	a.End = dec.Date("end_date", m.EndDate)
	if err := dec.Err(); err != nil {
		return a, fmt.Errorf("absence %s: %w", m.ID, err)
	}
	return a, nil
}

// =============================================================================
// CORRECTIONS (insert-only)
// =============================================================================

func (s *Store) AddCorrection(ctx context.Context, c overtime.Correction) error {
	if err := c.Validate(); err != nil {
		return err
	}
	m := correctionModel{
		ID:         c.ID,
		EmployeeID: c.EmployeeID,
		Date:       c.Date.String(),
		Hours:      c.Hours.String(),
		Reason:     c.Reason,
		CreatedBy:  c.CreatedBy,
	}
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("correction %s: %w", c.ID, generic.ErrDuplicateIdempotencyKey)
		}
		return fmt.Errorf("failed to add correction: %w", err)
	}
	return nil
}

func (s *Store) Corrections(ctx context.Context, employeeID string, from, to generic.Date) ([]overtime.Correction, error) {
	var models []correctionModel
	err := s.db.WithContext(ctx).
		Where("employee_id = ? AND date >= ? AND date <= ?", employeeID, from.String(), to.String()).
		Order("date ASC, seq ASC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query corrections: %w", err)
	}
	corrections := make([]overtime.Correction, 0, len(models))
	for _, m := range models {
		var dec generic.ColumnDecoder
		c := overtime.Correction{
			ID:         m.ID,
			EmployeeID: m.EmployeeID,
			Date:       dec.Date("date", m.Date),
			Hours:      dec.Hours("hours", m.Hours),
			Reason:     m.Reason,
			CreatedBy:  m.CreatedBy,
		}
		if err := dec.Err(); err != nil {
			return nil, fmt.Errorf("correction %s: %w", m.ID, err)
		}
		corrections = append(corrections, c)
	}
	return corrections, nil
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func (s *Store) SaveHolidays(ctx context.Context, year int, holidays []generic.Holiday) error {
	models := make([]holidayModel, 0, len(holidays))
	for _, h := range holidays {
		if h.Date.Year() != year {
			return &generic.ValidationError{Field: "holidays", Message: fmt.Sprintf("%s is outside %d", h.Date, year)}
		}
		models = append(models, holidayModel{Date: h.Date.String(), Jurisdiction: h.Jurisdiction, Name: h.Name, Year: year})
	}

	return s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		if err := db.Where("year = ?", year).Delete(&holidayModel{}).Error; err != nil {
			return fmt.Errorf("failed to clear holidays: %w", err)
		}
		if len(models) > 0 {
			if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&models).Error; err != nil {
				return fmt.Errorf("failed to save holidays: %w", err)
			}
		}
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&holidayYearModel{Year: year}).Error; err != nil {
			return fmt.Errorf("failed to mark year %d loaded: %w", year, err)
		}
		return nil
	})
}

func (s *Store) Holidays(ctx context.Context, year int) ([]generic.Holiday, bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&holidayYearModel{}).Where("year = ?", year).Count(&count).Error; err != nil {
		return nil, false, err
	}
	if count == 0 {
		return nil, false, nil
	}

	var models []holidayModel
	if err := s.db.WithContext(ctx).Where("year = ?", year).Order("date ASC, name ASC").Find(&models).Error; err != nil {
		return nil, false, fmt.Errorf("failed to query holidays: %w", err)
	}
	holidays := make([]generic.Holiday, 0, len(models))
	for _, m := range models {
		var dec generic.ColumnDecoder
		h := generic.Holiday{Date: dec.Date("date", m.Date), Name: m.Name, Jurisdiction: m.Jurisdiction}
		if err := dec.Err(); err != nil {
			return nil, false, fmt.Errorf("holiday %s: %w", m.Name, err)
		}
		holidays = append(holidays, h)
	}
	return holidays, true, nil
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for demo scenarios).
func (s *Store) Reset(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		for _, m := range allModels {
			if err := db.Where("1 = 1").Delete(m).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
