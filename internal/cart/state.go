package cart

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
)

var errMalformedState = errors.New("cart: malformed state")

// Item is one cart line: a product id and its accumulated quantity.
type Item struct {
	ProductID string
	Quantity  int
}

// State is the persisted cart. Entries keep the order in which products were first added.
// The item count is derived from the entries and never stored separately.
type State struct {
	items []Item
}

// NewState builds a state from items in order. Repeated ids accumulate and lines with a
// blank id, a non-positive quantity, or a quantity that would overflow the count are dropped.
func NewState(items ...Item) State {
	var st State
	for _, it := range items {
		if it.ProductID == "" || it.Quantity < 1 || !st.canAdd(it.Quantity) {
			continue
		}
		st = st.add(it.ProductID, it.Quantity)
	}
	return st
}

// Items returns a copy of the cart lines in insertion order.
func (s State) Items() []Item {
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

// Quantity returns the quantity held for productID, or 0.
func (s State) Quantity(productID string) int {
	if i := s.index(productID); i >= 0 {
		return s.items[i].Quantity
	}
	return 0
}

// Count is the sum of all quantities.
func (s State) Count() int {
	total := 0
	for _, it := range s.items {
		total += it.Quantity
	}
	return total
}

// IsEmpty reports whether the cart has no lines.
func (s State) IsEmpty() bool { return len(s.items) == 0 }

func (s State) index(productID string) int {
	for i, it := range s.items {
		if it.ProductID == productID {
			return i
		}
	}
	return -1
}

// canAdd reports whether quantity more units keep Count within the int range.
// A line never exceeds Count, so this bounds every line as well.
func (s State) canAdd(quantity int) bool {
	return quantity <= math.MaxInt-s.Count()
}

// add returns a copy of s with quantity added to productID's line.
func (s State) add(productID string, quantity int) State {
	items := s.Items()
	if i := s.index(productID); i >= 0 {
		items[i].Quantity += quantity
	} else {
		items = append(items, Item{ProductID: productID, Quantity: quantity})
	}
	return State{items: items}
}

// MarshalJSON writes {"items":{"<id>":<qty>,...},"count":<n>} with items in cart order.
func (s State) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"items":{`)
	for i, it := range s.items {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(it.ProductID)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(strconv.Itoa(it.Quantity))
	}
	buf.WriteString(`},"count":`)
	buf.WriteString(strconv.Itoa(s.Count()))
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads the persisted shape, keeping the key order of "items".
// The stored "count" is ignored; Count is recomputed from the items.
func (s *State) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("%w: %v", errMalformedState, err)
	}
	if tok == nil {
		*s = State{}
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("%w: expected object", errMalformedState)
	}

	var parsed State
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("%w: %v", errMalformedState, err)
		}
		key, _ := keyTok.(string)
		if key != "items" {
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return fmt.Errorf("%w: %v", errMalformedState, err)
			}
			continue
		}
		items, err := decodeItems(dec)
		if err != nil {
			return err
		}
		parsed = State{items: items}
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("%w: %v", errMalformedState, err)
	}
	*s = parsed
	return nil
}

func decodeItems(dec *json.Decoder) ([]Item, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedState, err)
	}
	if tok == nil {
		return nil, nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("%w: items must be an object", errMalformedState)
	}
	var items []Item
	total := 0
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errMalformedState, err)
		}
		id, _ := keyTok.(string)
		var n json.Number
		if err := dec.Decode(&n); err != nil {
			return nil, fmt.Errorf("%w: quantity for %q: %v", errMalformedState, id, err)
		}
		qty, err := n.Int64()
		if err != nil || qty < 1 || qty > math.MaxInt {
			return nil, fmt.Errorf("%w: quantity for %q must be a positive integer", errMalformedState, id)
		}
		q := int(qty)
		// a repeated key keeps its first position and its last value
		replaced := false
		for i := range items {
			if items[i].ProductID == id {
				total -= items[i].Quantity
				items[i].Quantity = q
				replaced = true
				break
			}
		}
		if !replaced {
			items = append(items, Item{ProductID: id, Quantity: q})
		}
		if q > math.MaxInt-total {
			return nil, fmt.Errorf("%w: count overflows", errMalformedState)
		}
		total += q
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedState, err)
	}
	return items, nil
}
