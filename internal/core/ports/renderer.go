package ports

import (
	"io"

	"go.trai.ch/brewplan/internal/core/domain"
)

// Renderer prints compiled plans and descriptor options.
//
//go:generate go run go.uber.org/mock/mockgen -source=renderer.go -destination=mocks/mock_renderer.go -package=mocks
type Renderer interface {
	// RenderPlans writes the plans in request order.
	RenderPlans(w io.Writer, format domain.OutputFormat, plans []*domain.BuildPlan) error
	// RenderOptions writes the options a descriptor declares.
	RenderOptions(w io.Writer, format domain.OutputFormat, desc *domain.PackageDescriptor) error
}
