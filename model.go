package sqldantic

import "time"

// Model is a basic struct which includes the fields ID, CreatedAt and
// UpdatedAt. It may be embedded into your model or you may build your
// own model without it
//
//	type User struct {
//	  sqldantic.Model
//	  Name string
//	}
type Model struct {
	ID        uint `sqld:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
