package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/iudanet/matswap/internal/models"
)

// BarcodePattern определяет допустимый формат штрихкода записи каталога
// Префикс STYLE или MAT, дефис и минимум 3 цифры. Регистр учитывается, пробелы недопустимы.
var BarcodePattern = regexp.MustCompile(`^(STYLE|MAT)-\d{3,}$`)

// Префиксы штрихкодов
const (
	PrefixStyle    = "STYLE"
	PrefixMaterial = "MAT"
)

// IsValidID проверяет, что id соответствует формату штрихкода.
// Чистая функция без побочных эффектов.
func IsValidID(id string) bool {
	return BarcodePattern.MatchString(id)
}

// ValidateID то же что IsValidID, но возвращает ошибку с описанием
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("barcode cannot be empty")
	}

	if !IsValidID(id) {
		return fmt.Errorf("barcode %q must match STYLE-NNN or MAT-NNN (at least 3 digits)", id)
	}

	return nil
}

// TypeForID возвращает тип записи, соответствующий префиксу штрихкода.
// Для невалидного id возвращает пустой тип и false.
func TypeForID(id string) (models.RecordType, bool) {
	if !IsValidID(id) {
		return "", false
	}

	switch {
	case strings.HasPrefix(id, PrefixStyle+"-"):
		return models.RecordTypeStyle, true
	case strings.HasPrefix(id, PrefixMaterial+"-"):
		return models.RecordTypeMaterial, true
	}

	return "", false
}

// PrefixForType возвращает префикс штрихкода для типа записи
func PrefixForType(t models.RecordType) (string, bool) {
	switch t {
	case models.RecordTypeStyle:
		return PrefixStyle, true
	case models.RecordTypeMaterial:
		return PrefixMaterial, true
	}
	return "", false
}
