package sqltype

// Typed pairs a field's Go-side type with a storage type and the named codec
// converting between the two. The column is created as Storage; every bind
// runs the value through the codec and every scan runs it back.
//
// An empty Codec defers to the owning base's structured codec.
type Typed struct {
	Storage Type
	Codec   string
}

func (t Typed) SQL(dialect Dialect) string {
	if t.Storage == nil {
		return JSON{}.SQL(dialect)
	}
	return t.Storage.SQL(dialect)
}
