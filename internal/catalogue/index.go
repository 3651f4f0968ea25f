package catalogue

import (
	"fmt"
	"strings"
)

// maxDepth bounds the category walk; real catalogues nest two or three levels.
const maxDepth = 32

// Lookup is the read side the order builder depends on.
type Lookup interface {
	Lookup(id string) (Product, bool)
}

// Index is a flattened id → product view. It is read-only once built.
type Index struct {
	byID  map[string]Product
	order []string
}

func NewIndex() *Index {
	return &Index{byID: map[string]Product{}}
}

func (i *Index) Lookup(id string) (Product, bool) {
	if i == nil {
		return Product{}, false
	}
	p, ok := i.byID[strings.TrimSpace(id)]
	return p, ok
}

// Products returns every product in first-seen order.
func (i *Index) Products() []Product {
	if i == nil {
		return nil
	}
	out := make([]Product, 0, len(i.order))
	for _, id := range i.order {
		out = append(out, i.byID[id])
	}
	return out
}

func (i *Index) Len() int {
	if i == nil {
		return 0
	}
	return len(i.byID)
}

// put stores p, replacing any earlier entry with the same id.
func (i *Index) put(p Product) {
	if _, exists := i.byID[p.ID]; !exists {
		i.order = append(i.order, p.ID)
	}
	i.byID[p.ID] = p
}

// merge applies doc on top of the index. Products that cannot be used are
// reported in skipped and left out.
func (i *Index) merge(source string, doc Document) (skipped []string) {
	for _, cat := range doc.Categories {
		skipped = append(skipped, i.walk(source, cat, nil, 0)...)
	}
	return skipped
}

func (i *Index) walk(source string, cat Category, path []string, depth int) (skipped []string) {
	if depth >= maxDepth {
		return []string{fmt.Sprintf("category %q nested deeper than %d levels", cat.Name, maxDepth)}
	}
	path = append(append([]string(nil), path...), cat.Name)
	for _, raw := range cat.Products {
		id := strings.TrimSpace(string(raw.ID))
		if id == "" {
			skipped = append(skipped, fmt.Sprintf("product %q in %q has no id", raw.Name, cat.Name))
			continue
		}
		price, priced, err := parsePrice(raw.Price)
		if err != nil {
			skipped = append(skipped, fmt.Sprintf("product %q: %v", id, err))
			continue
		}
		i.put(Product{
			ID:       id,
			Name:     strings.TrimSpace(raw.Name),
			Price:    price,
			Priced:   priced,
			Images:   raw.Images,
			Options:  raw.Options,
			Category: path,
			Source:   source,
		})
	}
	for _, sub := range cat.Subcategories {
		skipped = append(skipped, i.walk(source, sub, path, depth+1)...)
	}
	return skipped
}
