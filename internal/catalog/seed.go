package catalog

import "github.com/iudanet/matswap/internal/models"

// builtinRecords встроенный набор записей, загружаемый при каждом старте.
// Записи считаются доверенными и не проходят проверку полей.
func builtinRecords() []*models.Record {
	return []*models.Record{
		{
			ID:          "STYLE-001",
			Type:        models.RecordTypeStyle,
			Name:        "Modern Sectional Sofa",
			ImageURL:    "images/styles/modern-sectional-sofa.jpg",
			Description: "Low-profile L-shaped sectional with deep seats and track arms.",
		},
		{
			ID:          "STYLE-002",
			Type:        models.RecordTypeStyle,
			Name:        "Mid-Century Lounge Chair",
			ImageURL:    "images/styles/mid-century-lounge-chair.jpg",
			Description: "Molded shell chair with tapered walnut legs.",
		},
		{
			ID:          "STYLE-003",
			Type:        models.RecordTypeStyle,
			Name:        "Chesterfield Loveseat",
			ImageURL:    "images/styles/chesterfield-loveseat.jpg",
			Description: "Two-seater with rolled arms and deep button tufting.",
		},
		{
			ID:          "MAT-001",
			Type:        models.RecordTypeMaterial,
			Name:        "Grey Linen Fabric",
			ImageURL:    "images/materials/grey-linen.jpg",
			Description: "Stonewashed linen blend with a soft matte texture.",
		},
		{
			ID:          "MAT-002",
			Type:        models.RecordTypeMaterial,
			Name:        "Cognac Leather",
			ImageURL:    "images/materials/cognac-leather.jpg",
			Description: "Full-grain aniline leather that develops a patina over time.",
		},
		{
			ID:          "MAT-003",
			Type:        models.RecordTypeMaterial,
			Name:        "Emerald Velvet",
			ImageURL:    "images/materials/emerald-velvet.jpg",
			Description: "Dense cotton velvet with a subtle sheen.",
		},
	}
}
