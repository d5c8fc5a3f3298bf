package cluster

import "github.com/paulmach/orb/geojson"

// Reducer folds point properties into cluster properties.
//
// The functions must be pure: the order in which neighbours get merged depends on
// the index layout, so Reduce has to be associative and commutative for the
// result to be well defined.
type Reducer struct {
	// Map picks the properties of an input point that take part in the reduction.
	// Defaults to the point properties as is.
	Map func(props geojson.Properties) geojson.Properties

	// Initial returns a fresh accumulator for a new cluster. Defaults to an empty map.
	Initial func() geojson.Properties

	// Reduce merges props into accumulated.
	Reduce func(accumulated, props geojson.Properties)
}

func (r *Reducer) initial() geojson.Properties {
	if r.Initial == nil {
		return geojson.Properties{}
	}
	return r.Initial()
}

func (r *Reducer) mapProperties(props geojson.Properties) geojson.Properties {
	if r.Map == nil {
		return props
	}
	return r.Map(props)
}

func (r *Reducer) enabled() bool {
	return r != nil && r.Reduce != nil
}
