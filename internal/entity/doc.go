// Package entity binds identity, versioned history and validation into one
// editable business object.
//
// An Entity derives two states after every history mutation:
//
//	DataState  CLEAN | NEW | CHANGED | DELETED | DELNEW | RECOVERED
//	EditState  CLEAN | DIRTY | ERROR
//
// DataState says what persistence would have to do with the entity. EditState
// says what a list view should badge it with.
//
// Field assignments publish Updates on the entity's Channel. Bulk loads go
// through Load, which never publishes.
//
// An Entity is not safe for concurrent use. A Session groups the entities of
// one edit so they can be committed or cancelled together.
package entity
