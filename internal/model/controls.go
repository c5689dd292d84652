package model

import "net/url"

// FilterAll is the selector sentinel that disables a type or status filter.
const FilterAll = "all"

// Controls holds the values of the search box and the two filter selectors.
type Controls struct {
	Search string `json:"search"`
	Type   string `json:"item_type"`
	Status string `json:"status"`
}

// Normalize returns c with empty selector values replaced by FilterAll.
func (c Controls) Normalize() Controls {
	if c.Type == "" {
		c.Type = FilterAll
	}
	if c.Status == "" {
		c.Status = FilterAll
	}
	return c
}

// ControlsFromQuery reads controls from the q (or search), type and status
// query parameters.
func ControlsFromQuery(q url.Values) Controls {
	search := q.Get("q")
	if search == "" {
		search = q.Get("search")
	}
	return Controls{
		Search: search,
		Type:   q.Get("type"),
		Status: q.Get("status"),
	}.Normalize()
}
