// Package loader provides the feature loading system.
//
// Each feature implements the Feature interface:
//
//	type Feature interface {
//	    Name() string
//	    IsEnabled() bool
//	    Load(app fiber.Router) error
//	}
//
// The Manager keeps the registry. Register adds features, LoadAll loads the
// enabled ones in registration order. The calendar and health features are
// registered in cmd/start.go.
package loader
