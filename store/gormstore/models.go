package gormstore

// Dates are stored as YYYY-MM-DD strings and hours as decimal strings so
// that PostgreSQL and SQLite round-trip the same bytes.

type transactionModel struct {
	Seq            uint64  `gorm:"primaryKey;autoIncrement"`
	ID             string  `gorm:"type:varchar(64);uniqueIndex;not null"`
	EmployeeID     string  `gorm:"type:varchar(64);not null;index:idx_tx_employee_date,priority:1"`
	EffectiveAt    string  `gorm:"type:varchar(10);not null;index:idx_tx_employee_date,priority:2"`
	Hours          string  `gorm:"type:varchar(32);not null"`
	TxType         string  `gorm:"type:varchar(32);not null"`
	EventKey       string  `gorm:"type:varchar(200);not null;default:''"`
	ReferenceID    *string `gorm:"type:varchar(64)"`
	Description    *string `gorm:"type:text"`
	IdempotencyKey *string `gorm:"type:varchar(255);uniqueIndex"`
	MetadataJSON   string  `gorm:"type:text"`
	CreatedBy      string  `gorm:"type:varchar(64);not null;default:''"`
	CreatedOn      string  `gorm:"column:created_at;type:varchar(10);not null"`
}

func (transactionModel) TableName() string { return "transactions" }

type employeeModel struct {
	ID              string  `gorm:"type:varchar(64);primaryKey"`
	Name            string  `gorm:"type:varchar(200);not null"`
	HireDate        string  `gorm:"type:varchar(10);not null"`
	TerminationDate *string `gorm:"type:varchar(10)"`
	WeeklyHours     string  `gorm:"type:varchar(32);not null"`
	ScheduleJSON    *string `gorm:"type:text"`
}

func (employeeModel) TableName() string { return "employees" }

type timeEntryModel struct {
	ID         string `gorm:"type:varchar(64);primaryKey"`
	EmployeeID string `gorm:"type:varchar(64);not null;index:idx_entries_employee_date,priority:1"`
	Date       string `gorm:"type:varchar(10);not null;index:idx_entries_employee_date,priority:2"`
	Hours      string `gorm:"type:varchar(32);not null"`
}

func (timeEntryModel) TableName() string { return "time_entries" }

type absenceModel struct {
	ID          string `gorm:"type:varchar(64);primaryKey"`
	EmployeeID  string `gorm:"type:varchar(64);not null;index"`
	AbsenceType string `gorm:"type:varchar(32);not null"`
	StartDate   string `gorm:"type:varchar(10);not null"`
	EndDate     string `gorm:"type:varchar(10);not null"`
	Status      string `gorm:"type:varchar(16);not null;default:'pending'"`
}

func (absenceModel) TableName() string { return "absences" }

type correctionModel struct {
	Seq        uint64 `gorm:"primaryKey;autoIncrement"`
	ID         string `gorm:"type:varchar(64);uniqueIndex;not null"`
	EmployeeID string `gorm:"type:varchar(64);not null;index:idx_corrections_employee_date,priority:1"`
	Date       string `gorm:"type:varchar(10);not null;index:idx_corrections_employee_date,priority:2"`
	Hours      string `gorm:"type:varchar(32);not null"`
	Reason     string `gorm:"type:text;not null"`
	CreatedBy  string `gorm:"type:varchar(64);not null"`
}

func (correctionModel) TableName() string { return "corrections" }

type holidayModel struct {
	Date         string `gorm:"type:varchar(10);primaryKey"`
	Jurisdiction string `gorm:"type:varchar(16);primaryKey"`
	Name         string `gorm:"type:varchar(200);primaryKey"`
	Year         int    `gorm:"not null;index"`
}

func (holidayModel) TableName() string { return "holidays" }

type holidayYearModel struct {
	Year int `gorm:"primaryKey;autoIncrement:false"`
}

func (holidayYearModel) TableName() string { return "holiday_years" }

type monthlyBalanceModel struct {
	EmployeeID                string  `gorm:"type:varchar(64);primaryKey"`
	Month                     string  `gorm:"type:varchar(7);primaryKey"`
	TargetHours               string  `gorm:"type:varchar(32);not null"`
	ActualHours               string  `gorm:"type:varchar(32);not null"`
	Overtime                  string  `gorm:"type:varchar(32);not null"`
	CarryoverFromPreviousYear *string `gorm:"type:varchar(32)"`
	ComputedThrough           string  `gorm:"type:varchar(10);not null"`
	Generation                int64   `gorm:"not null"`
}

func (monthlyBalanceModel) TableName() string { return "monthly_balances" }

type generationModel struct {
	EmployeeID string `gorm:"type:varchar(64);primaryKey"`
	Month      string `gorm:"type:varchar(7);primaryKey"`
	Generation int64  `gorm:"not null"`
}

func (generationModel) TableName() string { return "balance_generations" }

var allModels = []any{
	&transactionModel{},
	&employeeModel{},
	&timeEntryModel{},
	&absenceModel{},
	&correctionModel{},
	&holidayModel{},
	&holidayYearModel{},
	&monthlyBalanceModel{},
	&generationModel{},
}
