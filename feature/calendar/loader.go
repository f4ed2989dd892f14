package calendar

import (
	"github.com/gofiber/fiber/v2"
)

// Feature exposes the sync API through the loader.
type Feature struct {
	service *Service
}

// NewFeature creates the sync feature.
func NewFeature(service *Service) *Feature {
	return &Feature{service: service}
}

// Name returns the feature name.
func (f *Feature) Name() string {
	return "calendar"
}

// IsEnabled reports whether a service was configured.
func (f *Feature) IsEnabled() bool {
	return f.service != nil
}

// Load registers the sync routes.
func (f *Feature) Load(app fiber.Router) error {
	NewHandler(f.service).RegisterRoutes(app)
	return nil
}
