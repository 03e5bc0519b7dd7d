package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/clipforge/internal/artifact"
	"github.com/vk/clipforge/internal/pipeline"
)

type noopStep struct{ name string }

func (s *noopStep) Name() string { return s.name }

func (s *noopStep) Process(ctx context.Context, item artifact.Artifact, run *pipeline.Context) (artifact.Artifact, error) {
	return item, nil
}

func noopFactory(name string) Factory {
	return func(cfg any) (pipeline.Step, error) {
		return &noopStep{name: name}, nil
	}
}

func TestRegisterFactory(t *testing.T) {
	t.Run("duplicate name panics", func(t *testing.T) {
		r := New()
		r.RegisterFactory("probe", noopFactory("probe"))
		assert.Panics(t, func() {
			r.RegisterFactory("probe", noopFactory("probe"))
		})
	})
}

func TestBuild(t *testing.T) {
	r := New()
	r.RegisterFactory("media_probe", noopFactory("media_probe"))
	r.RegisterFactory("transcript_normalize", noopFactory("transcript_normalize"))

	t.Run("resolves the implementation", func(t *testing.T) {
		def := pipeline.NewStep("probe").Uses("media_probe").MustBuild()
		step, err := r.Build(def)
		require.NoError(t, err)
		assert.Equal(t, "media_probe", step.Name())
	})

	t.Run("unknown implementation lists known names", func(t *testing.T) {
		def := pipeline.NewStep("probe").Uses("media_prob").MustBuild()
		_, err := r.Build(def)
		require.Error(t, err)
		assert.ErrorContains(t, err, `unknown implementation "media_prob"`)
		assert.ErrorContains(t, err, "media_probe")
		assert.ErrorContains(t, err, "transcript_normalize")
	})

	t.Run("factory error carries the step id", func(t *testing.T) {
		r := New()
		r.RegisterFactory("broken", func(cfg any) (pipeline.Step, error) {
			return nil, errors.New("bad settings")
		})
		def := pipeline.NewStep("probe").Uses("broken").MustBuild()
		_, err := r.Build(def)
		require.Error(t, err)
		assert.ErrorContains(t, err, `step "probe"`)
		assert.ErrorContains(t, err, "bad settings")
	})
}

func TestBuildAll(t *testing.T) {
	r := New()
	r.RegisterFactory("media_probe", noopFactory("media_probe"))

	defs := []pipeline.StepDefinition{
		pipeline.NewStep("a").Uses("media_probe").MustBuild(),
		pipeline.NewStep("b").Uses("media_probe").MustBuild(),
	}
	impls, err := r.BuildAll(defs)
	require.NoError(t, err)
	assert.Len(t, impls, 2)
	assert.Contains(t, impls, "a")
	assert.Contains(t, impls, "b")
}

func TestKnown(t *testing.T) {
	r := New()
	r.RegisterFactory("zeta", noopFactory("zeta"))
	r.RegisterFactory("alpha", noopFactory("alpha"))
	assert.Equal(t, []string{"alpha", "zeta"}, r.Known())
}
