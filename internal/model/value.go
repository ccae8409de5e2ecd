package model

import "strconv"

// Value is a single nullable text cell copied from the source document
type Value struct {
	S     string
	Valid bool
}

// Null is the absent value
var Null = Value{}

// Blank is the padding value used by positional merges
var Blank = Value{S: "", Valid: true}

// Text wraps a present string
func Text(s string) Value {
	return Value{S: s, Valid: true}
}

// Int wraps a surrogate id
func Int(n int64) Value {
	return Value{S: strconv.FormatInt(n, 10), Valid: true}
}

// String returns the text, or "" when the value is null
func (v Value) String() string {
	if !v.Valid {
		return ""
	}
	return v.S
}

// SQL returns the value in the form database drivers expect (nil for NULL)
func (v Value) SQL() any {
	if !v.Valid {
		return nil
	}
	return v.S
}

// Or returns v if present, otherwise def
func (v Value) Or(def Value) Value {
	if v.Valid {
		return v
	}
	return def
}
