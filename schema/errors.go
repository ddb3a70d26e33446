package schema

import "errors"

var (
	// ErrInvalidModelType model destination is not a struct or pointer to struct
	ErrInvalidModelType = errors.New("invalid model type")
	// ErrUnknownTagKey sqld tag carries a setting the parser does not know
	ErrUnknownTagKey = errors.New("unknown tag setting")
	// ErrMixedMarkers one field declares both column and relationship settings
	ErrMixedMarkers = errors.New("mixed column and relationship settings")
	// ErrConflictingMarkers two settings on one field contradict each other
	ErrConflictingMarkers = errors.New("conflicting tag settings")
	// ErrUnsupportedType field type cannot be mapped to storage
	ErrUnsupportedType = errors.New("unsupported field type")
	// ErrCodecNotFound a serializer tag or Typed pairing names an unregistered codec
	ErrCodecNotFound = errors.New("codec not found")
	// ErrInvalidDefault default literal cannot be parsed for the field type
	ErrInvalidDefault = errors.New("invalid default value")
	// ErrInvalidBackPopulates backPopulates names a missing or non-matching inverse field
	ErrInvalidBackPopulates = errors.New("invalid backPopulates")
	// ErrInvalidForeignKey foreignKey on a column must name a table.column target
	ErrInvalidForeignKey = errors.New("invalid foreign key")
	// ErrInvalidRelation relationship cannot be resolved against the target model
	ErrInvalidRelation = errors.New("invalid relation")
)
