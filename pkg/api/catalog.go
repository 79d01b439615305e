package api

// Record представляет запись каталога
type Record struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Name        string `json:"name"`
	ImageURL    string `json:"image_url"`
	Description string `json:"description,omitempty"`
}

// RecordListResponse представляет список записей одного типа
type RecordListResponse struct {
	Type    string   `json:"type"`
	Records []Record `json:"records"`
}

// AssignRequest представляет запрос на привязку штрихкода к записи.
// Обязательность полей проверяется здесь, каталог принимает любые значения.
type AssignRequest struct {
	Type        string `json:"type" validate:"required,oneof=style material"`
	Name        string `json:"name" validate:"required,max=200"`
	ImageURL    string `json:"image_url" validate:"required,max=2048"`
	Description string `json:"description,omitempty" validate:"max=4000"`
}

// AssignResponse представляет результат привязки
type AssignResponse struct {
	Record  Record `json:"record"`
	Created bool   `json:"created"` // false если запись перезаписана
}

// NextIDResponse представляет предложенный свободный штрихкод
type NextIDResponse struct {
	ID string `json:"id"`
}

// SwapRequest представляет запрос на подмену материала
type SwapRequest struct {
	StyleID    string `json:"style_id" validate:"required"`
	MaterialID string `json:"material_id" validate:"required"`
}

// SwapResponse представляет пару записей для внешнего генератора описания
type SwapResponse struct {
	Style    Record `json:"style"`
	Material Record `json:"material"`
}
