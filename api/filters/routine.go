package filters

// Query parameters of the widget list.
type WidgetQueryParams struct {
	// Home returns only the enabled widgets of the home screen.
	Home bool `form:"home"`
}

// Query parameters of the day view.
type TodayQueryParams struct {
	// Date as YYYY-MM-DD, today when empty.
	Date string `form:"date"`
}
