package schema_test

import (
	"database/sql"
	"time"

	"github.com/aachurin/sqldantic"
	"github.com/aachurin/sqldantic/utils/tests"
)

type User struct {
	*sqldantic.Model
	Name      *string
	Age       *uint
	Birthday  *time.Time
	Account   *tests.Account `sqld:"rel"`
	Pets      []*tests.Pet   `sqld:"rel"`
	CompanyID *int
	Company   *tests.Company `sqld:"rel:belongsTo"`
	ManagerID *uint
	Manager   *User             `sqld:"rel"`
	Team      []*User           `sqld:"rel;foreignKey:ManagerID"`
	Languages []*tests.Language `sqld:"many2many:UserSpeak"`
	Friends   []*User           `sqld:"many2many:user_friends"`
	Active    *bool
}

type (
	mytime time.Time
	myint  int
	mybool = bool
)

type AdvancedDataTypeUser struct {
	ID           sql.NullInt64
	Name         *sql.NullString
	Birthday     sql.NullTime
	RegisteredAt mytime
	DeletedAt    *mytime
	Active       mybool
	Admin        *mybool
}

type BaseModel struct {
	ID        uint `sqld:"primaryKey"`
	CreatedAt time.Time
	CreatedBy *int
	Created   int64 `sqld:"autoCreateTime"`
	UpdatedAt time.Time
	UpdatedBy *int
	Updated   int64 `sqld:"autoUpdateTime"`
}

type VersionModel struct {
	BaseModel
	Version int
}

type VersionUser struct {
	VersionModel
	Name     string
	Age      uint
	Birthday *time.Time
}

type CustomizedNameTable struct {
	ID uint `sqld:"primaryKey"`
}

func (CustomizedNameTable) TableName() string { return "customized" }

// Color is a closed value set backed by a string column.
type Color string

func (Color) EnumValues() []string { return []string{"red", "green", "blue"} }

// Weekday is a closed value set backed by an integer column.
type Weekday int

func (Weekday) EnumValues() []string { return []string{"1", "2", "3", "4", "5", "6", "7"} }

// BadEnum has a base type an enum cannot be stored as.
type BadEnum float64

func (BadEnum) EnumValues() []string { return []string{"0.5"} }
