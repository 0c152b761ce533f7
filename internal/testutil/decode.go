package testutil

import "github.com/PraverBajaj/doobie/internal/driver"

// DecodeInt decodes a single-column row holding an integer-typed value,
// covering the widths drivers commonly return. It is a driver.Decoder[int].
func DecodeInt(row driver.Row) (int, error) {
	if len(row) != 1 {
		return 0, &driver.DecodeError{Column: -1, Want: "single int column", Got: []any(row)}
	}
	switch v := row[0].(type) {
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	default:
		return 0, &driver.DecodeError{Column: 0, Want: "int", Got: row[0]}
	}
}

// DecodeString decodes a single-column row holding a string or []byte.
// It is a driver.Decoder[string].
func DecodeString(row driver.Row) (string, error) {
	if len(row) != 1 {
		return "", &driver.DecodeError{Column: -1, Want: "single string column", Got: []any(row)}
	}
	switch v := row[0].(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", &driver.DecodeError{Column: 0, Want: "string", Got: row[0]}
	}
}
