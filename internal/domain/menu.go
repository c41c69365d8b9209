package domain

import "strings"

// Category groups menu items.
type Category struct {
	ID          ID     `json:"id" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
}

// ImageRef resolves the category image against the API origin. Bare file
// names live under /uploads/.
func (c Category) ImageRef(base string) string {
	ref := c.ImageURL
	if ref != "" && !strings.Contains(ref, "://") && !strings.HasPrefix(ref, "/") {
		ref = "/uploads/" + ref
	}
	return ResolveImageURL(base, ref)
}

// MenuItem is a purchasable dish.
type MenuItem struct {
	ID           ID     `json:"id" validate:"required"`
	Name         string `json:"name" validate:"required"`
	Description  string `json:"description,omitempty"`
	Price        Amount `json:"price" validate:"gte=0"`
	CategoryID   ID     `json:"category_id,omitempty"`
	CategoryName string `json:"category_name,omitempty"`
	ImageURL     string `json:"image_url,omitempty"`
	IsAvailable  bool   `json:"is_available"`
}

// ImageRef resolves the item image against the API origin. Uploaded images
// are stored as server-relative paths.
func (m MenuItem) ImageRef(base string) string {
	return ResolveImageURL(base, m.ImageURL)
}

// ResolveImageURL prefixes server-relative upload paths with base. Absolute
// URLs and empty values are returned unchanged.
func ResolveImageURL(base, ref string) string {
	if ref == "" || strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	if !strings.HasPrefix(ref, "/") {
		ref = "/" + ref
	}
	return strings.TrimRight(base, "/") + ref
}

// FindCategory returns the category with the given id.
func FindCategory(cats []Category, id ID) (Category, bool) {
	for _, c := range cats {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}
