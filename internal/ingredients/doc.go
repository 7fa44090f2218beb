// Package ingredients implements the ingredient-resolution pipeline: a
// pure extractor that turns free-text ingredient statements into name
// lists, and a resolver that materializes those names into a deduplicated,
// cycle-safe graph of ingredient entities.
package ingredients
