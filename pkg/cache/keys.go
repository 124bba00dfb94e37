package cache

import "strings"

// Key builds colon-delimited cache keys of the form
// {category}:{discriminator}:{discriminator}... so unrelated resource
// categories and regions can never collide.
//
// Example: summoner:na1:Faker
type Key struct {
	// Category is the resource category (summoner, match, league, static).
	Category string

	// Discriminators narrow the key down to one logical resource, typically
	// region then identifier.
	Discriminators []string
}

// String renders the key.
func (k Key) String() string {
	parts := make([]string, 0, len(k.Discriminators)+1)
	parts = append(parts, k.Category)
	parts = append(parts, k.Discriminators...)
	return strings.Join(parts, ":")
}

// NewKey is shorthand for building a Key.
func NewKey(category string, discriminators ...string) Key {
	return Key{Category: category, Discriminators: discriminators}
}
