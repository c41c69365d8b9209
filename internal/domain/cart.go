package domain

import "strings"

// LineItem is one menu item and its selected quantity within a cart.
type LineItem struct {
	ItemID              ID     `json:"id"`
	Name                string `json:"name"`
	UnitPrice           Amount `json:"price"`
	Quantity            int    `json:"quantity"`
	ImageURL            string `json:"image_url,omitempty"`
	SpecialInstructions string `json:"special_instructions,omitempty"`
}

// Subtotal is the unit price multiplied by the quantity.
func (l LineItem) Subtotal() Amount {
	return l.UnitPrice * Amount(l.Quantity)
}

// Cart is the set of lines selected by one identity, keyed by item ID and
// kept in insertion order. Every line has a quantity of at least one.
//
// The transition methods never modify the receiver; they return a new cart.
type Cart struct {
	OwnerID ID
	Lines   []LineItem
}

// NewCart returns an empty cart owned by owner.
func NewCart(owner ID) Cart {
	return Cart{OwnerID: owner}
}

// Total is the sum of unit price times quantity over all lines.
func (c Cart) Total() Amount {
	var total Amount
	for _, l := range c.Lines {
		total += l.Subtotal()
	}
	return total
}

// Count is the sum of quantities over all lines.
func (c Cart) Count() int {
	var n int
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

// IsEmpty reports whether the cart has no lines.
func (c Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// Find returns the line for id.
func (c Cart) Find(id ID) (LineItem, bool) {
	if i := c.index(id); i >= 0 {
		return c.Lines[i], true
	}
	return LineItem{}, false
}

func (c Cart) index(id ID) int {
	for i := range c.Lines {
		if c.Lines[i].ItemID == id {
			return i
		}
	}
	return -1
}

func (c Cart) clone() Cart {
	lines := make([]LineItem, len(c.Lines))
	copy(lines, c.Lines)
	return Cart{OwnerID: c.OwnerID, Lines: lines}
}

// Add increments the quantity of item by one, inserting it with quantity one
// when absent.
func (c Cart) Add(item MenuItem) Cart {
	next := c.clone()
	if i := next.index(item.ID); i >= 0 {
		next.Lines[i].Quantity++
		return next
	}
	next.Lines = append(next.Lines, LineItem{
		ItemID:    item.ID,
		Name:      item.Name,
		UnitPrice: item.Price,
		Quantity:  1,
		ImageURL:  item.ImageURL,
	})
	return next
}

// Remove deletes the line for id. Removing an absent id is a no-op.
func (c Cart) Remove(id ID) Cart {
	next := Cart{OwnerID: c.OwnerID, Lines: make([]LineItem, 0, len(c.Lines))}
	for _, l := range c.Lines {
		if l.ItemID != id {
			next.Lines = append(next.Lines, l)
		}
	}
	return next
}

// SetQuantity overwrites the quantity of id. n <= 0 removes the line.
func (c Cart) SetQuantity(id ID, n int) Cart {
	if n <= 0 {
		return c.Remove(id)
	}
	next := c.clone()
	if i := next.index(id); i >= 0 {
		next.Lines[i].Quantity = n
	}
	return next
}

// SetInstructions attaches kitchen instructions to the line for id.
func (c Cart) SetInstructions(id ID, text string) Cart {
	next := c.clone()
	if i := next.index(id); i >= 0 {
		next.Lines[i].SpecialInstructions = strings.TrimSpace(text)
	}
	return next
}

// Sanitize drops lines that violate the quantity floor or repeat an item,
// for carts read back from storage.
func (c Cart) Sanitize() Cart {
	next := Cart{OwnerID: c.OwnerID, Lines: make([]LineItem, 0, len(c.Lines))}
	seen := make(map[ID]bool, len(c.Lines))
	for _, l := range c.Lines {
		if l.Quantity < 1 || l.ItemID == "" || seen[l.ItemID] {
			continue
		}
		seen[l.ItemID] = true
		next.Lines = append(next.Lines, l)
	}
	return next
}
