package catalog

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	defaultDescription = "No description provided."
	placeholderImage   = "https://picsum.photos/400/300?random="
)

// Draft is the owner's input for a new product. Price is the raw text
// entered in the form; Quantity nil means DefaultQuantity.
type Draft struct {
	Name         string
	Category     string
	Price        string
	Company      string
	Quantity     *int
	Image        string
	Images       []string
	Description  string
	SuitableSoil string
}

// Store is the ordered product collection, most recently added first.
//
// Store is not safe for concurrent use; the shop service serializes access.
type Store struct {
	products []Product
	now      func() time.Time
}

// NewStore returns a Store seeded with products. Duplicate ids or invalid
// records are rejected.
func NewStore(products []Product) (*Store, error) {
	s := &Store{now: time.Now}
	if err := s.Replace(products); err != nil {
		return nil, err
	}
	return s, nil
}

// Len returns the number of products.
func (s *Store) Len() int {
	return len(s.products)
}

// Snapshot returns a deep copy of the product list in store order.
func (s *Store) Snapshot() []Product {
	out := make([]Product, len(s.products))
	for i, p := range s.products {
		out[i] = p.Clone()
	}
	return out
}

// Get returns a copy of the product with the given id.
func (s *Store) Get(id int64) (Product, bool) {
	i := s.index(id)
	if i < 0 {
		return Product{}, false
	}
	return s.products[i].Clone(), true
}

// Replace swaps the whole list for a rehydrated one.
func (s *Store) Replace(products []Product) error {
	seen := make(map[int64]struct{}, len(products))
	next := make([]Product, 0, len(products))
	for _, p := range products {
		if _, dup := seen[p.ID]; dup {
			return &ValidationError{Field: "id", Reason: fmt.Sprintf("duplicate id %d", p.ID)}
		}
		if err := validate(p); err != nil {
			return err
		}
		seen[p.ID] = struct{}{}
		next = append(next, p.Clone())
	}
	s.products = next
	return nil
}

// Add validates d, assigns a fresh id and prepends the product.
func (s *Store) Add(d Draft) (Product, error) {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return Product{}, &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	price, err := parsePrice(d.Price)
	if err != nil {
		return Product{}, err
	}
	qty := DefaultQuantity
	if d.Quantity != nil {
		qty = *d.Quantity
	}
	if qty < 0 {
		return Product{}, &ValidationError{Field: "quantity", Reason: "must not be negative"}
	}

	id := s.nextID()
	p := Product{
		ID:           id,
		Name:         name,
		Category:     ParseCategory(d.Category, CategorySeeds),
		Price:        price,
		Company:      strings.TrimSpace(d.Company),
		Quantity:     qty,
		Image:        d.Image,
		Images:       append([]string{}, d.Images...),
		Description:  d.Description,
		SuitableSoil: d.SuitableSoil,
		Ratings:      []int{},
	}
	if p.Image == "" {
		p.Image = placeholderImage + strconv.FormatInt(id, 10)
	}
	if strings.TrimSpace(p.Description) == "" {
		p.Description = defaultDescription
	}

	s.products = append([]Product{p}, s.products...)
	return p.Clone(), nil
}

// Patch is an owner edit of an existing product. Nil fields keep the stored
// value. Ratings are not editable.
type Patch struct {
	Name         *string
	Category     *string
	Price        *decimal.Decimal
	Company      *string
	Quantity     *int
	Image        *string
	Images       *[]string
	Description  *string
	SuitableSoil *string
}

// Patch merges edit into the stored record with the given id. An empty
// category keeps the stored one.
func (s *Store) Patch(id int64, edit Patch) (Product, error) {
	i := s.index(id)
	if i < 0 {
		return Product{}, &NotFoundError{ProductID: id}
	}
	p := s.products[i].Clone()
	if edit.Name != nil {
		p.Name = strings.TrimSpace(*edit.Name)
	}
	if edit.Category != nil {
		p.Category = ParseCategory(*edit.Category, p.Category)
	}
	if edit.Price != nil {
		p.Price = *edit.Price
	}
	if edit.Company != nil {
		p.Company = strings.TrimSpace(*edit.Company)
	}
	if edit.Quantity != nil {
		p.Quantity = *edit.Quantity
	}
	if edit.Image != nil {
		p.Image = *edit.Image
	}
	if edit.Images != nil {
		p.Images = append([]string{}, (*edit.Images)...)
	}
	if edit.Description != nil {
		p.Description = *edit.Description
	}
	if edit.SuitableSoil != nil {
		p.SuitableSoil = *edit.SuitableSoil
	}
	if err := validate(p); err != nil {
		return Product{}, err
	}
	s.products[i] = p
	return p.Clone(), nil
}

// SetQuantity is the inline stock edit. Negative values clamp to zero.
func (s *Store) SetQuantity(id int64, qty int) (Product, error) {
	i := s.index(id)
	if i < 0 {
		return Product{}, &NotFoundError{ProductID: id}
	}
	s.products[i].Quantity = max(qty, 0)
	return s.products[i].Clone(), nil
}

// Remove deletes the product with the given id.
func (s *Store) Remove(id int64) error {
	i := s.index(id)
	if i < 0 {
		return &NotFoundError{ProductID: id}
	}
	s.products = append(s.products[:i], s.products[i+1:]...)
	return nil
}

// AddRating appends value to the product's ratings.
func (s *Store) AddRating(id int64, value int) (Product, error) {
	if value < MinRating || value > MaxRating {
		return Product{}, &ValidationError{Field: "rating", Reason: fmt.Sprintf("must be between %d and %d", MinRating, MaxRating)}
	}
	i := s.index(id)
	if i < 0 {
		return Product{}, &NotFoundError{ProductID: id}
	}
	s.products[i].Ratings = append(s.products[i].Ratings, value)
	return s.products[i].Clone(), nil
}

func (s *Store) index(id int64) int {
	for i := range s.products {
		if s.products[i].ID == id {
			return i
		}
	}
	return -1
}

// nextID derives an id from the clock and bumps it past the largest id in
// use so two adds in the same millisecond stay distinct.
func (s *Store) nextID() int64 {
	id := s.now().UnixMilli()
	for _, p := range s.products {
		if p.ID >= id {
			id = p.ID + 1
		}
	}
	return id
}

func parsePrice(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, &ValidationError{Field: "price", Reason: "must not be empty"}
	}
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, &ValidationError{Field: "price", Reason: fmt.Sprintf("%q is not a number", raw)}
	}
	if price.IsNegative() {
		return decimal.Zero, &ValidationError{Field: "price", Reason: "must not be negative"}
	}
	return price, nil
}
