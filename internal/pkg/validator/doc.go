// Package validator checks request structs with go-playground/validator and
// reports failures as a snake_case field to message map.
//
// Besides the stock tags it understands "password", "otp_algorithm" and
// "otp_encoding"; the latter two accept an empty value so handlers can fall
// back to otp defaults.
package validator
