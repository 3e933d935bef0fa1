// Package catalog declares the fields of entity types.
//
// Each entity type owns a Catalog of field Descriptors. A subtype's catalog
// is derived from its supertype's, inherits its fields and continues its
// versioned slot numbering. Catalogs are built once during initialization,
// usually at package level with MustDeclare, and registered in a Registry
// that is sealed before use.
package catalog
