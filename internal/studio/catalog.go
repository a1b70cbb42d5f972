package studio

import (
	"strings"

	"golang.org/x/text/cases"
)

// Category groups related hobbies.
type Category struct {
	Name    string   `json:"name"`
	Hobbies []string `json:"hobbies"`
}

// Catalog is the closed set of choices offered on the input screen.
type Catalog struct {
	Categories []Category `json:"categories"`
	Colors     []string   `json:"colors"`
	Styles     []string   `json:"styles"`
	Moods      []string   `json:"moods"`
	Filters    []string   `json:"filters"`
}

// DefaultCatalog is the vocabulary the studio ships with.
var DefaultCatalog = Catalog{
	Categories: []Category{
		{Name: "sports", Hobbies: []string{"football", "basketball", "chess", "swimming", "yoga", "tennis", "running"}},
		{Name: "arts", Hobbies: []string{"painting", "music", "dancing", "photography", "ceramics", "embroidery"}},
		{Name: "technology", Hobbies: []string{"programming", "gaming", "robotics", "3D modeling", "artificial intelligence"}},
		{Name: "nature", Hobbies: []string{"gardening", "hiking", "camping", "mountain climbing"}},
	},
	Colors:  []string{"red", "blue", "green", "yellow", "purple", "gold", "silver", "light blue"},
	Styles:  []string{"realistic", "fantastic", "cartoon", "anime", "impressionistic"},
	Moods:   []string{"cheerful", "peaceful", "energetic", "romantic", "adventurous", "nostalgic"},
	Filters: []string{"natural", "retro", "dramatic", "bright", "high contrast"},
}

// Canonical checks every selection of req against the catalog, ignoring case
// and surrounding space, and returns req with the catalog spellings filled in.
func (c Catalog) Canonical(req Request) (Request, error) {
	cat, ok := c.category(req.Category)
	if !ok {
		return req, &FieldError{Field: "category", Msg: "unknown category"}
	}
	req.Category = cat.Name

	var err error
	if req.Hobby, err = pick("hobby", req.Hobby, cat.Hobbies); err != nil {
		return req, err
	}
	if req.Color, err = pick("color", req.Color, c.Colors); err != nil {
		return req, err
	}
	if req.Style, err = pick("style", req.Style, c.Styles); err != nil {
		return req, err
	}
	if req.Mood, err = pick("mood", req.Mood, c.Moods); err != nil {
		return req, err
	}
	if req.Filter, err = pick("filter", req.Filter, c.Filters); err != nil {
		return req, err
	}
	return req, nil
}

func (c Catalog) category(name string) (Category, bool) {
	key := fold(name)
	for _, cat := range c.Categories {
		if fold(cat.Name) == key {
			return cat, true
		}
	}
	return Category{}, false
}

func pick(field, value string, options []string) (string, error) {
	key := fold(value)
	for _, o := range options {
		if fold(o) == key {
			return o, nil
		}
	}
	return "", &FieldError{Field: field, Msg: "unknown " + field}
}

// fold builds a new Caser per call; Casers are stateful and not safe for
// concurrent use.
func fold(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}
