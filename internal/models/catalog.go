package models

// RecordType тип записи каталога
type RecordType string

// Типы записей каталога
const (
	RecordTypeStyle    RecordType = "style"    // модель мебели (штрихкод STYLE-NNN)
	RecordTypeMaterial RecordType = "material" // материал обивки/отделки (штрихкод MAT-NNN)
)

// IsKnown сообщает, является ли тип одним из поддерживаемых
func (t RecordType) IsKnown() bool {
	return t == RecordTypeStyle || t == RecordTypeMaterial
}

// Record представляет запись каталога, адресуемую штрихкодом.
// ID одновременно является первичным ключом и проходит проверку формата.
type Record struct {
	ID          string     `json:"id"`                    // ID штрихкод в формате STYLE-NNN или MAT-NNN
	Type        RecordType `json:"type"`                  // Type тип записи (style/material)
	Name        string     `json:"name"`                  // Name отображаемое название
	ImageURL    string     `json:"image_url"`             // ImageURL ссылка или путь к изображению
	Description string     `json:"description,omitempty"` // Description опциональное описание
}

// RecordFields поля записи без идентификатора.
// Используется при вставке: запись целиком заменяется на {id, ...fields}.
type RecordFields struct {
	Type        RecordType `json:"type"`
	Name        string     `json:"name"`
	ImageURL    string     `json:"image_url"`
	Description string     `json:"description,omitempty"`
}

// NewRecord собирает запись из идентификатора и полей
func NewRecord(id string, fields RecordFields) *Record {
	return &Record{
		ID:          id,
		Type:        fields.Type,
		Name:        fields.Name,
		ImageURL:    fields.ImageURL,
		Description: fields.Description,
	}
}

// Clone возвращает копию записи, чтобы вызывающий код не мог изменить состояние каталога
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}

// SwapPair пара записей (модель + материал), которую Application Shell
// передает во внешний сервис генерации описания
type SwapPair struct {
	Style    *Record `json:"style"`
	Material *Record `json:"material"`
}
