// Package tiering maps priority classes to disjoint, contiguous partition
// ranges of a topic.
//
// Compute is the pure layout function. Table wraps its result with
// validation, reverse lookup and an xxh3 fingerprint. Registry caches one
// Table per observed partition count so producers only recompute when the
// topic's partition count changes.
//
// Example:
//
//	reg, err := tiering.NewRegistry(18, types.DefaultWeights())
//	if err != nil {
//	    return err
//	}
//	r, _ := reg.Current().Range(types.PriorityMedium) // [9,14)
package tiering
