// Package domain holds the contracts and value types shared across layers.
package domain

// KeyPrefix namespaces every key this service writes to the store.
const KeyPrefix = "assessrec:"

// DefaultVectorDimensions is used when the config does not set embedding dimensions.
const DefaultVectorDimensions = 768
