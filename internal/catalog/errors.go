package catalog

import "errors"

var (
	// ErrInvalidFormat возвращается, когда штрихкод не соответствует формату STYLE-NNN/MAT-NNN
	ErrInvalidFormat = errors.New("invalid barcode format")

	// ErrTypeMismatch возвращается, когда тип записи не совпадает с префиксом штрихкода
	ErrTypeMismatch = errors.New("record type does not match barcode prefix")

	// ErrUnknownType is returned for record types other than style and material
	ErrUnknownType = errors.New("unknown record type")

	// ErrRecordNotFound is returned by operations that require an existing record
	ErrRecordNotFound = errors.New("record not found")
)
