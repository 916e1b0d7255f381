// Package output provides the report serializers selected by the -o flag.
//
// JSON is written with a 4-space indent and struct field order preserved.
// CSV is written from any value implementing Table.
package output
