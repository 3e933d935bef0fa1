// Package value provides the tagged-variant field values stored in entity
// value sets.
//
// This package imports nothing internal. Every other field-model package
// builds on it, so it stays the foundational layer with no cycles.
//
// Key design constraints:
//   - Value is a sealed interface; only the variants in this package implement it
//   - No float variant - monetary and ratio quantities use Decimal
//   - A nil Value is treated as Null by every helper
//   - Strings compare and hash by their exact bytes; two spellings of one
//     character are different values
//   - Values are immutable once constructed; Bytes and Encrypted copy on the way in and out
package value
