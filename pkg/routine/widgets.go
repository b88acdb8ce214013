package routine

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"agendasmart/pkg/storage"
)

// MaxHomeWidgets is how many widgets the home screen shows.
const MaxHomeWidgets = 4

// Widget types with their own editors.
const (
	TypeMarket    = "market"
	TypeNotes     = "notes"
	TypeQuotes    = "quotes"
	TypePicoPlaca = "pico_placa"
	TypeSiata     = "siata"
)

// SiataURL is the page a new siata widget points to.
const SiataURL = "https://geoportal.siata.gov.co/"

var (
	ErrWidgetLimit = fmt.Errorf("at most %d widgets can be enabled", MaxHomeWidgets)
	ErrEmptyText   = errors.New("text is empty")
	ErrNoItems     = errors.New("widget type has no items")
)

// itemPrefixes are the id prefixes of the widget types holding items.
var itemPrefixes = map[string]string{
	TypeMarket: "m_",
	TypeNotes:  "n_",
	TypeQuotes: "q_",
}

// Widget is a home screen card.
// Fields other than the common ones (plateDigit, url, ...) are kept in Extra and written back as is.
type Widget struct {
	ID      string       `json:"id"`
	Type    string       `json:"type"`
	Title   string       `json:"title,omitempty"`
	Order   int          `json:"order"`
	Enabled bool         `json:"enabled"`
	Items   []WidgetItem `json:"items,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

var widgetFields = []string{"id", "type", "title", "order", "enabled", "items"}

type plainWidget Widget

func (w *Widget) UnmarshalJSON(data []byte) error {
	var p plainWidget
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	for _, f := range widgetFields {
		delete(fields, f)
	}

	*w = Widget(p)
	w.Extra = nil
	if len(fields) > 0 {
		w.Extra = fields
	}
	return nil
}

func (w Widget) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(plainWidget(w))
	if err != nil || len(w.Extra) == 0 {
		return data, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	for k, v := range w.Extra {
		if _, known := fields[k]; !known {
			fields[k] = v
		}
	}
	return json.Marshal(fields)
}

// Field decodes the extra field name into dst.
func (w Widget) Field(name string, dst any) bool {
	raw, ok := w.Extra[name]
	if !ok {
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}

// SetField stores value under the extra field name.
func (w *Widget) SetField(name string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if w.Extra == nil {
		w.Extra = map[string]json.RawMessage{}
	}
	w.Extra[name] = raw
	return nil
}

type WidgetItem struct {
	ID   string `json:"id,omitempty"`
	Text string `json:"text"`
	Done bool   `json:"done,omitempty"`
}

// Widgets returns the stored widgets.
func Widgets(store Store) []Widget {
	var widgets []Widget
	if !store.GetInto(storage.KeyWidgets, &widgets) {
		return []Widget{}
	}
	return widgets
}

// HomeWidgets returns the enabled widgets by order, at most MaxHomeWidgets.
func HomeWidgets(store Store) []Widget {
	enabled := []Widget{}
	for _, w := range Widgets(store) {
		if w.Enabled {
			enabled = append(enabled, w)
		}
	}

	sort.SliceStable(enabled, func(i, j int) bool { return enabled[i].Order < enabled[j].Order })
	if len(enabled) > MaxHomeWidgets {
		enabled = enabled[:MaxHomeWidgets]
	}
	return enabled
}

func enabledCount(widgets []Widget) int {
	n := 0
	for _, w := range widgets {
		if w.Enabled {
			n++
		}
	}
	return n
}

func saveWidgets(store Store, widgets []Widget) error {
	if !store.SetItem(storage.KeyWidgets, widgets) {
		return fmt.Errorf("couldn't store %s", storage.KeyWidgets)
	}
	return nil
}

// AddWidget appends a new widget. The order is clamped to 1..4 and the widget is added disabled
// when the home screen is already full.
func AddWidget(store Store, w Widget) (Widget, error) {
	w.ID = "w_" + shortID()
	w.Type = strings.TrimSpace(w.Type)
	w.Title = strings.TrimSpace(w.Title)
	if w.Title == "" {
		w.Title = w.Type
	}
	w.Order = min(MaxHomeWidgets, max(1, w.Order))

	widgets := Widgets(store)
	if w.Enabled && enabledCount(widgets) >= MaxHomeWidgets {
		w.Enabled = false
	}

	switch w.Type {
	case TypeMarket, TypeNotes, TypeQuotes:
		w.Items = []WidgetItem{}
	case TypePicoPlaca:
		w.SetField("plateDigit", "")
	case TypeSiata:
		w.SetField("url", SiataURL)
	}

	if err := saveWidgets(store, append(widgets, w)); err != nil {
		return Widget{}, err
	}
	return w, nil
}

// editWidget applies fn to the widget id and stores the list.
func editWidget(store Store, id string, fn func(w *Widget) error) (Widget, error) {
	widgets := Widgets(store)
	for i := range widgets {
		if widgets[i].ID != id {
			continue
		}
		if err := fn(&widgets[i]); err != nil {
			return Widget{}, err
		}
		if err := saveWidgets(store, widgets); err != nil {
			return Widget{}, err
		}
		return widgets[i], nil
	}
	return Widget{}, fmt.Errorf("widget %s: %w", id, ErrNotFound)
}

// ToggleWidget flips the enabled flag. Enabling fails with ErrWidgetLimit when the home screen is full.
func ToggleWidget(store Store, id string) (Widget, error) {
	visible := enabledCount(Widgets(store))
	return editWidget(store, id, func(w *Widget) error {
		if !w.Enabled && visible >= MaxHomeWidgets {
			return ErrWidgetLimit
		}
		w.Enabled = !w.Enabled
		return nil
	})
}

// DeleteWidget removes the widget id.
func DeleteWidget(store Store, id string) error {
	widgets := Widgets(store)
	kept := make([]Widget, 0, len(widgets))
	for _, w := range widgets {
		if w.ID != id {
			kept = append(kept, w)
		}
	}
	if len(kept) == len(widgets) {
		return fmt.Errorf("widget %s: %w", id, ErrNotFound)
	}
	return saveWidgets(store, kept)
}

// ClearWidgets removes every widget.
func ClearWidgets(store Store) error {
	return saveWidgets(store, []Widget{})
}

// SetPlateDigit stores the plate digit of a pico y placa widget, clamped to 0..9.
func SetPlateDigit(store Store, id string, digit int) (Widget, error) {
	return editWidget(store, id, func(w *Widget) error {
		return w.SetField("plateDigit", strconv.Itoa(min(9, max(0, digit))))
	})
}

// AddWidgetItem appends an item to a market, notes or quotes widget.
func AddWidgetItem(store Store, widgetID, text string) (WidgetItem, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return WidgetItem{}, ErrEmptyText
	}

	var item WidgetItem
	_, err := editWidget(store, widgetID, func(w *Widget) error {
		prefix, ok := itemPrefixes[w.Type]
		if !ok {
			return ErrNoItems
		}
		item = WidgetItem{ID: prefix + shortID(), Text: text}
		w.Items = append(w.Items, item)
		return nil
	})
	return item, err
}

// editItem applies fn to the item of the widget and stores the list.
func editItem(store Store, widgetID, itemID string, fn func(items []WidgetItem, i int) []WidgetItem) (Widget, error) {
	return editWidget(store, widgetID, func(w *Widget) error {
		for i := range w.Items {
			if w.Items[i].ID == itemID {
				w.Items = fn(w.Items, i)
				return nil
			}
		}
		return fmt.Errorf("item %s: %w", itemID, ErrNotFound)
	})
}

// ToggleWidgetItem flips the done flag of a market or notes item.
func ToggleWidgetItem(store Store, widgetID, itemID string) (Widget, error) {
	return editItem(store, widgetID, itemID, func(items []WidgetItem, i int) []WidgetItem {
		items[i].Done = !items[i].Done
		return items
	})
}

// EditWidgetItem replaces the text of an item.
func EditWidgetItem(store Store, widgetID, itemID, text string) (Widget, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Widget{}, ErrEmptyText
	}
	return editItem(store, widgetID, itemID, func(items []WidgetItem, i int) []WidgetItem {
		items[i].Text = text
		return items
	})
}

// DeleteWidgetItem removes an item.
func DeleteWidgetItem(store Store, widgetID, itemID string) (Widget, error) {
	return editItem(store, widgetID, itemID, func(items []WidgetItem, i int) []WidgetItem {
		return append(items[:i], items[i+1:]...)
	})
}
