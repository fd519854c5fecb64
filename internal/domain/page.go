package domain

// Page is one page of a scoped listing; Count is the total visible to the caller
type Page[T any] struct {
	Count   int `json:"count"`
	Results []T `json:"results"`
}
