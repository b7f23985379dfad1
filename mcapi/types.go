package mcapi

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Ref is a short reference to another object as returned by Content Builder.
type Ref struct {
	ID   int64  `json:"id"`
	Name string `json:"name,omitempty"`
}

// Category is Content Builder folder.
type Category struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	ParentID     int64  `json:"parentId"`
	CategoryType string `json:"categoryType,omitempty"`
	Description  string `json:"description,omitempty"`
}

// Asset is Content Builder asset. Listing and query endpoints return only a
// subset of fields.
type Asset struct {
	ID           int64  `json:"id"`
	CustomerKey  string `json:"customerKey,omitempty"`
	Name         string `json:"name"`
	AssetType    Ref    `json:"assetType"`
	Category     Ref    `json:"category"`
	Content      string `json:"content,omitempty"`
	SuperContent string `json:"superContent,omitempty"`
	Views        Views  `json:"views"`
	Slots        Slots  `json:"slots,omitempty"`
	Blocks       Blocks `json:"blocks,omitempty"`
	CreatedDate  string `json:"createdDate,omitempty"`
	ModifiedDate string `json:"modifiedDate,omitempty"`
}

type Views struct {
	HTML        *View `json:"html,omitempty"`
	Text        *View `json:"text,omitempty"`
	Preheader   *View `json:"preheader,omitempty"`
	SubjectLine *View `json:"subjectline,omitempty"`
}

type View struct {
	Content string `json:"content,omitempty"`
	Slots   Slots  `json:"slots,omitempty"`
	Blocks  Blocks `json:"blocks,omitempty"`
}

// Block is content block either placed into a slot or attached to the asset.
type Block struct {
	Key          string `json:"key,omitempty"`
	ID           int64  `json:"id,omitempty"`
	CustomerKey  string `json:"customerKey,omitempty"`
	Name         string `json:"name,omitempty"`
	AssetType    Ref    `json:"assetType"`
	Content      string `json:"content,omitempty"`
	SuperContent string `json:"superContent,omitempty"`
}

// Slot is named insertion point of template based asset.
type Slot struct {
	Name    string `json:"name,omitempty"`
	Content string `json:"content,omitempty"`
	Blocks  Blocks `json:"blocks,omitempty"`
}

// Blocks and Slots come either as JSON arrays or as objects keyed by block
// key (slot name). Object key order is preserved.
type (
	Blocks []Block
	Slots  []Slot
)

func (b *Blocks) UnmarshalJSON(data []byte) error {
	items, err := decodeOrdered(data, func(item *Block, key string) {
		if len(item.Key) == 0 {
			item.Key = key
		}
	})
	if err != nil {
		return fmt.Errorf("blocks: %w", err)
	}
	*b = items
	return nil
}

func (s *Slots) UnmarshalJSON(data []byte) error {
	items, err := decodeOrdered(data, func(item *Slot, key string) {
		item.Name = key
	})
	if err != nil {
		return fmt.Errorf("slots: %w", err)
	}
	*s = items
	return nil
}

func decodeOrdered[T any](data []byte, setKey func(*T, string)) ([]T, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}
	if data[0] == '[' {
		var items []T
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, err
		}
		return items, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	if tok, err := dec.Token(); err != nil {
		return nil, err
	} else if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("unexpected token %v", tok)
	}

	var items []T
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := tok.(string)

		var item T
		if err := dec.Decode(&item); err != nil {
			return nil, fmt.Errorf("item %q: %w", key, err)
		}
		setKey(&item, key)
		items = append(items, item)
	}
	return items, nil
}

// HTMLContent returns primary HTML of the asset: html view content, then
// generic content field, otherwise empty string.
func (a *Asset) HTMLContent() string {
	if a.Views.HTML != nil && len(a.Views.HTML.Content) > 0 {
		return a.Views.HTML.Content
	}
	return a.Content
}

// HTMLSlots returns slots of the html view, top level slots are used by
// block assets.
func (a *Asset) HTMLSlots() Slots {
	if a.Views.HTML != nil && len(a.Views.HTML.Slots) > 0 {
		return a.Views.HTML.Slots
	}
	return a.Slots
}

// AttachedBlocks returns blocks carried in the asset payload, html view
// blocks first.
func (a *Asset) AttachedBlocks() Blocks {
	var blocks Blocks
	if a.Views.HTML != nil {
		blocks = append(blocks, a.Views.HTML.Blocks...)
	}
	return append(blocks, a.Blocks...)
}

// Query body of the asset query endpoint.
type Query struct {
	Page   Page     `json:"page"`
	Query  Filter   `json:"query"`
	Sort   []Sort   `json:"sort,omitempty"`
	Fields []string `json:"fields,omitempty"`
}

type Page struct {
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}

type Sort struct {
	Property  string `json:"property"`
	Direction string `json:"direction"`
}

// Filter is either simple (Property, SimpleOperator, Value) or complex
// (LeftOperand, LogicalOperator, RightOperand).
type Filter struct {
	Property        string  `json:"property,omitempty"`
	SimpleOperator  string  `json:"simpleOperator,omitempty"`
	Value           any     `json:"value,omitempty"`
	LeftOperand     *Filter `json:"leftOperand,omitempty"`
	LogicalOperator string  `json:"logicalOperator,omitempty"`
	RightOperand    *Filter `json:"rightOperand,omitempty"`
}

func Equal(property string, value any) Filter {
	return Filter{Property: property, SimpleOperator: "equal", Value: value}
}

func In(property string, values any) Filter {
	return Filter{Property: property, SimpleOperator: "in", Value: values}
}

func And(left, right Filter) Filter {
	return Filter{LeftOperand: &left, LogicalOperator: "AND", RightOperand: &right}
}

type QueryResult struct {
	Count    int     `json:"count"`
	Page     int     `json:"page,omitempty"`
	PageSize int     `json:"pageSize,omitempty"`
	Items    []Asset `json:"items"`
}
