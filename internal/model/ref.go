package model

// Ref is a reference to a user record that is either a bare database id or a
// fully resolved record. A mentorship row loaded without joins carries bare
// ids; population fills in the records. Callers that need the record must go
// through an explicit resolution step instead of probing fields at runtime.
type Ref[T any] struct {
	ID       int64 `json:"id"`
	Resolved *T    `json:"resolved,omitempty"`
}

// NewRef создаёт ссылку только с идентификатором
func NewRef[T any](id int64) Ref[T] {
	return Ref[T]{ID: id}
}

// ResolvedRef создаёт ссылку с загруженной записью
func ResolvedRef[T any](id int64, record *T) Ref[T] {
	return Ref[T]{ID: id, Resolved: record}
}

// IsResolved проверяет, загружена ли запись
func (r Ref[T]) IsResolved() bool {
	return r.Resolved != nil
}
