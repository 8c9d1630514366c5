package models

// Obat adalah satu entri katalog obat. Stok hanya informasi saat meresepkan;
// modul ini tidak mengurangi stok.
type Obat struct {
	ID                   int64  `json:"id"`
	GenericName          string `json:"generic_name"`
	BrandName            string `json:"brand_name,omitempty"`
	Strength             string `json:"strength"`
	DosageForm           string `json:"dosage_form"`
	Category             string `json:"category"`
	PricePerUnit         int64  `json:"price_per_unit"`
	Stock                int    `json:"stock"`
	Unit                 string `json:"unit"`
	RequiresPrescription bool   `json:"requires_prescription"`
	IsControlled         bool   `json:"is_controlled"`
	DosageInstructions   string `json:"dosage_instructions,omitempty"`
}

// DisplayName dipakai sebagai nama baris resep saat obat ditambahkan.
func (o Obat) DisplayName() string {
	name := o.GenericName
	if o.BrandName != "" {
		name += " (" + o.BrandName + ")"
	}
	if o.Strength != "" {
		name += " " + o.Strength
	}
	return name
}

type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

type SearchResult struct {
	Medications []Obat `json:"medications"`
}

const (
	DefaultSearchLimit = 20
	MaxSearchLimit     = 100
)
