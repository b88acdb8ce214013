package routine

import (
	"encoding/json"
	"testing"

	"agendasmart/pkg/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWidgetKeepsUnknownFields(t *testing.T) {
	store := newStore(t)
	require.True(t, store.SetItem(storage.KeyWidgets, []any{
		map[string]any{"id": "w1", "type": "pico_placa", "order": 1, "enabled": true, "plateDigit": "7", "color": "red"},
	}))

	_, err := ToggleWidget(store, "w1")
	require.NoError(t, err)

	stored := store.GetItem(storage.KeyWidgets).([]any)
	require.Len(t, stored, 1)
	w := stored[0].(map[string]any)
	assert.Equal(t, false, w["enabled"])
	assert.Equal(t, "7", w["plateDigit"])
	assert.Equal(t, "red", w["color"])
}

func TestWidgetJSON(t *testing.T) {
	var w Widget
	require.NoError(t, json.Unmarshal([]byte(`{"id":"w1","type":"siata","order":2,"enabled":true,"url":"https://x"}`), &w))

	var url string
	assert.True(t, w.Field("url", &url))
	assert.Equal(t, "https://x", url)
	assert.False(t, w.Field("plateDigit", &url))

	data, err := json.Marshal(w)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"w1","type":"siata","order":2,"enabled":true,"url":"https://x"}`, string(data))
}

func TestAddWidget(t *testing.T) {
	tests := []struct {
		name  string
		in    Widget
		check func(t *testing.T, w Widget)
	}{
		{
			name: "title defaults to type and order is clamped",
			in:   Widget{Type: "clock", Order: 9, Enabled: true},
			check: func(t *testing.T, w Widget) {
				assert.Equal(t, "clock", w.Title)
				assert.Equal(t, MaxHomeWidgets, w.Order)
			},
		},
		{
			name: "order below one",
			in:   Widget{Type: "clock", Order: -2},
			check: func(t *testing.T, w Widget) {
				assert.Equal(t, 1, w.Order)
			},
		},
		{
			name: "pico y placa gets an empty digit",
			in:   Widget{Type: TypePicoPlaca, Order: 1},
			check: func(t *testing.T, w Widget) {
				var digit string
				assert.True(t, w.Field("plateDigit", &digit))
				assert.Equal(t, "", digit)
			},
		},
		{
			name: "siata gets the geoportal url",
			in:   Widget{Type: TypeSiata, Order: 1},
			check: func(t *testing.T, w Widget) {
				var url string
				assert.True(t, w.Field("url", &url))
				assert.Equal(t, SiataURL, url)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newStore(t)

			w, err := AddWidget(store, tt.in)
			require.NoError(t, err)

			assert.NotEmpty(t, w.ID)
			require.Len(t, Widgets(store), 1)
			assert.Equal(t, w.ID, Widgets(store)[0].ID)
			tt.check(t, Widgets(store)[0])
		})
	}
}

func TestAddWidgetDisabledWhenHomeIsFull(t *testing.T) {
	store := newStore(t)
	for i := 0; i < MaxHomeWidgets; i++ {
		_, err := AddWidget(store, Widget{Type: "clock", Order: 1, Enabled: true})
		require.NoError(t, err)
	}

	w, err := AddWidget(store, Widget{Type: "clock", Order: 1, Enabled: true})
	require.NoError(t, err)

	assert.False(t, w.Enabled)
	assert.Len(t, Widgets(store), MaxHomeWidgets+1)
}

func TestToggleWidget(t *testing.T) {
	store := newStore(t)
	for i := 0; i < MaxHomeWidgets; i++ {
		_, err := AddWidget(store, Widget{Type: "clock", Order: 1, Enabled: true})
		require.NoError(t, err)
	}
	extra, err := AddWidget(store, Widget{Type: "clock", Order: 1})
	require.NoError(t, err)

	_, err = ToggleWidget(store, extra.ID)
	assert.ErrorIs(t, err, ErrWidgetLimit)

	first := Widgets(store)[0]
	toggled, err := ToggleWidget(store, first.ID)
	require.NoError(t, err)
	assert.False(t, toggled.Enabled)

	toggled, err = ToggleWidget(store, extra.ID)
	require.NoError(t, err)
	assert.True(t, toggled.Enabled)

	_, err = ToggleWidget(store, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteAndClearWidgets(t *testing.T) {
	store := newStore(t)
	a, err := AddWidget(store, Widget{Type: "clock", Order: 1})
	require.NoError(t, err)
	_, err = AddWidget(store, Widget{Type: "notes", Order: 2})
	require.NoError(t, err)

	require.NoError(t, DeleteWidget(store, a.ID))
	assert.Len(t, Widgets(store), 1)
	assert.ErrorIs(t, DeleteWidget(store, a.ID), ErrNotFound)

	require.NoError(t, ClearWidgets(store))
	assert.Empty(t, Widgets(store))
}

func TestSetPlateDigit(t *testing.T) {
	store := newStore(t)
	w, err := AddWidget(store, Widget{Type: TypePicoPlaca, Order: 1})
	require.NoError(t, err)

	for digit, want := range map[int]string{4: "4", 12: "9", -1: "0"} {
		updated, err := SetPlateDigit(store, w.ID, digit)
		require.NoError(t, err)

		var got string
		require.True(t, updated.Field("plateDigit", &got))
		assert.Equal(t, want, got)
	}
}

func TestWidgetItems(t *testing.T) {
	store := newStore(t)
	market, err := AddWidget(store, Widget{Type: TypeMarket, Order: 1})
	require.NoError(t, err)

	item, err := AddWidgetItem(store, market.ID, "  milk ")
	require.NoError(t, err)
	assert.Equal(t, "milk", item.Text)
	assert.Contains(t, item.ID, "m_")

	_, err = AddWidgetItem(store, market.ID, "   ")
	assert.ErrorIs(t, err, ErrEmptyText)

	w, err := ToggleWidgetItem(store, market.ID, item.ID)
	require.NoError(t, err)
	assert.True(t, w.Items[0].Done)

	w, err = EditWidgetItem(store, market.ID, item.ID, " oat milk ")
	require.NoError(t, err)
	assert.Equal(t, "oat milk", w.Items[0].Text)

	_, err = EditWidgetItem(store, market.ID, "missing", "x")
	assert.ErrorIs(t, err, ErrNotFound)

	w, err = DeleteWidgetItem(store, market.ID, item.ID)
	require.NoError(t, err)
	assert.Empty(t, w.Items)
}

func TestWidgetItemsNeedAnItemType(t *testing.T) {
	store := newStore(t)
	clock, err := AddWidget(store, Widget{Type: "clock", Order: 1})
	require.NoError(t, err)

	_, err = AddWidgetItem(store, clock.ID, "milk")
	assert.ErrorIs(t, err, ErrNoItems)
}
