package models

// Rarity is the ordered item rarity enumeration, common to rare.
type Rarity string

const (
	RarityMilSpec       Rarity = "Mil-Spec"
	RarityRestricted    Rarity = "Restricted"
	RarityClassified    Rarity = "Classified"
	RarityCovert        Rarity = "Covert"
	RarityExtraordinary Rarity = "Extraordinary"
)

// rareRarities is the fixed subset whose weights the odds event multiplies.
var rareRarities = map[Rarity]struct{}{
	RarityClassified:    {},
	RarityCovert:        {},
	RarityExtraordinary: {},
}

// IsRare reports whether the rarity belongs to the fixed rare subset.
func (r Rarity) IsRare() bool {
	_, ok := rareRarities[r]
	return ok
}

// Case is a purchasable loot container. Prices are integer minor units.
type Case struct {
	ID             int64  `json:"id"`
	Slug           string `json:"slug"`
	Name           string `json:"name"`
	ImageURL       string `json:"image_url,omitempty"`
	CasePriceCents int64  `json:"case_price_cents"`
	KeyPriceCents  int64  `json:"key_price_cents"`
	Active         bool   `json:"active"`
}

// Item is a catalog item with an indexed value used for earn calculations.
type Item struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Rarity     Rarity `json:"rarity"`
	ImageURL   string `json:"image_url,omitempty"`
	PriceCents int64  `json:"price_cents"`
}

// CaseRow is one weighted outcome of a case: the case_items join flattened
// with the item it points at. Weights are relative integers >= 1.
type CaseRow struct {
	ItemID     int64  `json:"item_id"`
	Name       string `json:"name"`
	Rarity     Rarity `json:"rarity"`
	ImageURL   string `json:"image_url,omitempty"`
	PriceCents int64  `json:"price_cents"`
	Weight     int64  `json:"weight"`
}
