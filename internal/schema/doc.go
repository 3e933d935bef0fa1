// Package schema compiles CUE type declarations into field catalogs.
//
// A schema declares entity types under the top-level "type" struct:
//
//	type: Account: {
//		fields: {
//			Name:   {type: "string", length: 40}
//			Opened: {type: "date"}
//			Notes:  {type: "string", length: 200, equality: false}
//		}
//	}
//	type: Deposit: {
//		extends: "Account"
//		fields: Rate: {type: "rate"}
//	}
//
// Types are compiled parents first, so a subtype's catalog is derived from
// its supertype's and continues its slot numbering. Fields keep their
// declaration order.
package schema
