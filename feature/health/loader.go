package health

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Feature exposes the health endpoint through the loader.
type Feature struct {
	service *Service
}

// NewFeature creates the health feature.
func NewFeature(deps Dependencies, cfg Config, logger *zap.Logger) *Feature {
	return &Feature{service: NewService(deps, cfg, logger)}
}

// Name returns the feature name.
func (f *Feature) Name() string {
	return "health"
}

// IsEnabled always returns true.
func (f *Feature) IsEnabled() bool {
	return true
}

// Load registers the health route.
func (f *Feature) Load(app fiber.Router) error {
	NewHandler(f.service).RegisterRoutes(app)
	return nil
}
