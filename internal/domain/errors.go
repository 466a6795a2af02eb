package domain

import "errors"

// ErrNotFound is returned when an item id does not exist in the collection.
var ErrNotFound = errors.New("item not found")
