// Package model holds the stored-row types of the pantry data store and the
// input contracts accepted by it.
//
// Row types carry two tags: `db` names the column for sqlx scanning and
// `dbdef` describes the column for the schema catalog, using the same
// grammar as the table-level `_ struct{}` marker:
//
//	type:uuid;primary_key;not_null;unique;default:now();foreign_key:users.id;on_delete:CASCADE
//
// Input contracts (New* and *Changes) never expose ids, timestamps, or the
// foreign keys that define ownership of an existing row. They are validated
// with go-playground/validator before reaching storage.
package model
