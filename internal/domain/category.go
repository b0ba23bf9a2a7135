package domain

import "strings"

// Category is the closed product category vocabulary.
type Category string

const (
	CategoryProduce    Category = "produce"
	CategoryDairy      Category = "dairy"
	CategoryMeat       Category = "meat"
	CategorySeafood    Category = "seafood"
	CategoryBakery     Category = "bakery"
	CategoryFrozen     Category = "frozen"
	CategoryCanned     Category = "canned"
	CategoryDryGoods   Category = "dry_goods"
	CategoryCondiments Category = "condiments"
	CategorySpices     Category = "spices"
	CategoryBeverages  Category = "beverages"
	CategoryOther      Category = "other"
)

// AllCategories lists the closed category vocabulary.
var AllCategories = []Category{
	CategoryProduce, CategoryDairy, CategoryMeat, CategorySeafood, CategoryBakery,
	CategoryFrozen, CategoryCanned, CategoryDryGoods, CategoryCondiments,
	CategorySpices, CategoryBeverages, CategoryOther,
}

// ParseCategory maps a category name onto the vocabulary, falling back to CategoryOther.
func ParseCategory(raw string) Category {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.ReplaceAll(key, " ", "_")
	key = strings.ReplaceAll(key, "-", "_")
	for _, c := range AllCategories {
		if string(c) == key {
			return c
		}
	}
	return CategoryOther
}
