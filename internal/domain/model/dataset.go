package model

// Dataset wraps a decoded upstream document. Present is false when the
// document was never requested, could not be fetched or could not be
// decoded; a present dataset may still be empty.
type Dataset[T any] struct {
	Items   T
	Present bool
}

// Loaded wraps items that were fetched and decoded.
func Loaded[T any](items T) Dataset[T] {
	return Dataset[T]{Items: items, Present: true}
}

// Missing returns an absent dataset.
func Missing[T any]() Dataset[T] {
	return Dataset[T]{}
}

// Datasets bundles everything a render pass reads.
type Datasets struct {
	Geocoding Dataset[Geocoding]
	Venues    Dataset[Venues]
	Teams     Dataset[[]Team]
	Season    Dataset[[]SeasonTeam]
}
