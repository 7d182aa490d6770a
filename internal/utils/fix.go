// Package utils provides small FIX-message helpers shared across the
// gateway, builder, and fixclient packages.
package utils

import "github.com/quickfixgo/quickfix"

// GetString reads a body field as a string, returning "" if the field is
// absent rather than forcing every caller to handle the error return.
func GetString(msg *quickfix.Message, tag quickfix.Tag) string {
	value, err := msg.Body.GetString(tag)
	if err != nil {
		return ""
	}
	return value
}
