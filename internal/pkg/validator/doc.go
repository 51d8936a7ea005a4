// Package validator checks request inputs with go-playground/validator and
// reports failures as a field-keyed map that the router renders under "error".
// Keys use the lowerCamel form of the Go field name.
package validator
