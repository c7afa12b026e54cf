package eviction

import "errors"

// ErrEvictionTimeOverflow is returned by InsertLifetime when
// reference+duration would overflow the representable instant.
var ErrEvictionTimeOverflow = errors.New("eviction: eviction time overflow")
