package tests

import (
	"database/sql"
	"time"

	"github.com/aachurin/sqldantic"
)

// User has one `Account` (has one), many `Pets` (has many), works in a
// Company (belongs to), has a Manager (belongs to - single-table) and
// manages a Team (has many - single-table).
// He speaks many languages (many to many) and has many friends
// (many to many - single-table).
// NamedPet is a reference to a named `Pet` (has one)
type User struct {
	sqldantic.Model
	Name      string
	Age       uint
	Birthday  *time.Time
	Account   Account    `sqld:"rel"`
	Pets      []*Pet     `sqld:"rel"`
	NamedPet  *Pet       `sqld:"rel"`
	CompanyID *int
	Company   Company    `sqld:"rel:belongsTo"`
	ManagerID *uint
	Manager   *User      `sqld:"rel"`
	Team      []User     `sqld:"rel;foreignKey:ManagerID"`
	Languages []Language `sqld:"many2many:UserSpeak"`
	Friends   []*User    `sqld:"many2many:user_friends"`
	Active    bool
}

type Account struct {
	sqldantic.Model
	UserID sql.NullInt64
	Number string
}

type Pet struct {
	sqldantic.Model
	UserID *uint
	Name   string
}

type Company struct {
	ID   int
	Name string
}

type Language struct {
	Code string `sqld:"primaryKey"`
	Name string
}

type Coupon struct {
	ID               int              `sqld:"primaryKey;size:255"`
	AppliesToProduct []*CouponProduct `sqld:"rel;foreignKey:CouponId"`
	AmountOff        uint32           `sqld:"column:amount_off"`
	PercentOff       float32          `sqld:"column:percent_off"`
}

type CouponProduct struct {
	CouponId  int    `sqld:"primaryKey;size:255"`
	ProductId string `sqld:"primaryKey;size:255"`
	Desc      string
}

type Parent struct {
	sqldantic.Model
	FavChildID uint
	FavChild   *Child   `sqld:"rel:belongsTo"`
	Children   []*Child `sqld:"rel"`
}

type Child struct {
	sqldantic.Model
	Name     string
	ParentID *uint
	Parent   *Parent `sqld:"rel"`
}
