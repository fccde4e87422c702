package commands_test

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/brewplan/cmd/brewplan/commands"
	"go.trai.ch/brewplan/internal/adapters/telemetry"
	"go.trai.ch/brewplan/internal/app"
	"go.trai.ch/brewplan/internal/core/domain"
	"go.trai.ch/brewplan/internal/core/ports/mocks"
	"go.trai.ch/brewplan/internal/engine/compiler"
	"go.trai.ch/brewplan/internal/engine/enginetest"
	"go.uber.org/mock/gomock"
)

type harness struct {
	loader   *mocks.MockDescriptorLoader
	resolver *mocks.MockDescriptorResolver
	facts    *mocks.MockFactsProvider
	executor *mocks.MockExecutor
	renderer *mocks.MockRenderer
	logger   *mocks.MockLogger
	cli      *commands.CLI
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctrl := gomock.NewController(t)

	h := &harness{
		loader:   mocks.NewMockDescriptorLoader(ctrl),
		resolver: mocks.NewMockDescriptorResolver(ctrl),
		facts:    mocks.NewMockFactsProvider(ctrl),
		executor: mocks.NewMockExecutor(ctrl),
		renderer: mocks.NewMockRenderer(ctrl),
		logger:   mocks.NewMockLogger(ctrl),
	}
	tel := telemetry.NewNoOp()
	a := app.New(h.loader, h.resolver, h.facts, compiler.New(tel, nil, nil, h.logger),
		h.executor, h.renderer, tel, h.logger).WithOutput(io.Discard)
	h.cli = commands.New(a)
	h.logger.EXPECT().Warn(gomock.Any()).AnyTimes()
	return h
}

func TestPlan_Flags(t *testing.T) {
	h := newHarness(t)

	h.resolver.EXPECT().ResolveDescriptors([]string{"boost.yaml"}).Return([]string{"boost.yaml"}, nil)
	h.loader.EXPECT().Load("boost.yaml").Return(enginetest.Boost(), nil, nil)
	h.facts.EXPECT().Snapshot(gomock.Any(), gomock.Any()).Return(enginetest.Sierra(), nil)
	h.renderer.EXPECT().RenderPlans(gomock.Any(), domain.FormatJSON, gomock.Any()).
		DoAndReturn(func(_ io.Writer, _ domain.OutputFormat, plans []*domain.BuildPlan) error {
			require.Len(t, plans, 1)
			plan := plans[0]
			assert.Contains(t, plan.Options, domain.ResolvedOption{Name: "icu4c", Value: "true", Explicit: true})
			assert.Contains(t, plan.Options, domain.ResolvedOption{Name: "mpi", Value: "true", Explicit: true})
			assert.Contains(t, plan.Options, domain.ResolvedOption{Name: "single", Value: "false", Explicit: true})

			names := make([]string, 0, len(plan.Dependencies))
			for _, d := range plan.Dependencies {
				names = append(names, d.Name)
				if d.Name == "icu4c" {
					assert.Equal(t, "/opt/icu4c", d.Prefix)
				}
			}
			assert.Equal(t, []string{"icu4c", "mpi"}, names)
			return nil
		})

	h.cli.SetArgs([]string{
		"plan", "boost.yaml",
		"--with", "icu4c", "--with", "mpi",
		"--without", "single",
		"--dep", "icu4c=/opt/icu4c",
		"--format", "json",
	})
	require.NoError(t, h.cli.Execute(context.Background()))
}

func TestPlan_HeadOption(t *testing.T) {
	h := newHarness(t)

	h.resolver.EXPECT().ResolveDescriptors(gomock.Any()).Return([]string{"boost.yaml"}, nil)
	h.loader.EXPECT().Load("boost.yaml").Return(enginetest.Boost(), nil, nil)
	h.facts.EXPECT().Snapshot(gomock.Any(), gomock.Any()).Return(enginetest.ElCapitan(), nil)
	h.renderer.EXPECT().RenderPlans(gomock.Any(), domain.FormatText, gomock.Any()).
		DoAndReturn(func(_ io.Writer, _ domain.OutputFormat, plans []*domain.BuildPlan) error {
			assert.Equal(t, domain.HeadVersion, plans[0].Version)
			assert.False(t, plans[0].Poured())
			return nil
		})

	h.cli.SetArgs([]string{"plan", "boost.yaml", "--option", "HEAD", "--no-cache"})
	require.NoError(t, h.cli.Execute(context.Background()))
}

func TestPlan_NoArgs(t *testing.T) {
	h := newHarness(t)
	h.cli.SetArgs([]string{"plan"})
	assert.NoError(t, h.cli.Execute(context.Background()))
}

func TestApply_RequiresDescriptor(t *testing.T) {
	h := newHarness(t)
	h.cli.SetArgs([]string{"apply"})
	assert.Error(t, h.cli.Execute(context.Background()))
}

func TestOptions_Command(t *testing.T) {
	h := newHarness(t)
	desc := enginetest.Boost()

	h.loader.EXPECT().Load("boost.yaml").Return(desc, nil, nil)
	h.renderer.EXPECT().RenderOptions(gomock.Any(), domain.FormatJSON, desc).Return(nil)

	h.cli.SetArgs([]string{"options", "boost.yaml", "-o", "json"})
	require.NoError(t, h.cli.Execute(context.Background()))
}
