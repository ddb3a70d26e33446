package sqldantic

import (
	"errors"

	"github.com/aachurin/sqldantic/logger"
	"github.com/aachurin/sqldantic/schema"
)

var (
	// ErrRecordNotFound record not found error
	ErrRecordNotFound = logger.ErrRecordNotFound
	// ErrNotRegistered model was never registered with Model or Table
	ErrNotRegistered = errors.New("model is not registered")
	// ErrNotATable model is registered for validation only and has no table mapping
	ErrNotATable = errors.New("model has no table mapping")
	// ErrTableRedefined two different models claim the same table name
	ErrTableRedefined = errors.New("table redefined")
	// ErrUnknownForeignTable a foreign key references a table no model registered
	ErrUnknownForeignTable = errors.New("unknown foreign table")

	// Tag and type errors surface from schema parsing; aliased here so
	// callers can match them without importing the schema package.

	// ErrInvalidModelType destination is not a struct or pointer to struct
	ErrInvalidModelType = schema.ErrInvalidModelType
	// ErrUnknownTagKey sqld tag carries an unknown setting
	ErrUnknownTagKey = schema.ErrUnknownTagKey
	// ErrMixedMarkers one field declares both column and relationship settings
	ErrMixedMarkers = schema.ErrMixedMarkers
	// ErrConflictingMarkers two settings on one field contradict each other
	ErrConflictingMarkers = schema.ErrConflictingMarkers
	// ErrUnsupportedType field type cannot be mapped to storage
	ErrUnsupportedType = schema.ErrUnsupportedType
	// ErrCodecNotFound a serializer setting names an unregistered codec
	ErrCodecNotFound = schema.ErrCodecNotFound
	// ErrInvalidDefault default literal cannot be parsed for the field type
	ErrInvalidDefault = schema.ErrInvalidDefault
	// ErrInvalidBackPopulates backPopulates names a missing or non-matching inverse field
	ErrInvalidBackPopulates = schema.ErrInvalidBackPopulates
	// ErrInvalidForeignKey foreignKey on a column must name a table.column target
	ErrInvalidForeignKey = schema.ErrInvalidForeignKey
	// ErrInvalidRelation relationship cannot be resolved against the target model
	ErrInvalidRelation = schema.ErrInvalidRelation
)
