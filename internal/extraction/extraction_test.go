package extraction

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spigell/skillmatrix/internal/ai"
	"github.com/spigell/skillmatrix/internal/heuristic"
	"github.com/spigell/skillmatrix/internal/matrix"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type stubExtractor struct {
	record   *matrix.SkillMatrix
	err      error
	calls    int
	deadline bool
}

func (s *stubExtractor) Extract(ctx context.Context, _ string) (*matrix.SkillMatrix, error) {
	s.calls++
	_, s.deadline = ctx.Deadline()
	return s.record, s.err
}

func remoteRecord() *matrix.SkillMatrix {
	skills := matrix.NewSkills()
	skills.Backend = []string{"django"}
	return &matrix.SkillMatrix{
		Title:      "Django Developer",
		Seniority:  matrix.SeniorityMid,
		Skills:     skills,
		MustHave:   []string{},
		NiceToHave: []string{},
		Summary:    "Detected mid role: Django Developer.",
	}
}

const posting = "Title: Django Developer\nMid-level role with Django and Docker on AWS"

func TestRunPrefersRemote(t *testing.T) {
	remote := &stubExtractor{record: remoteRecord()}
	strategies := Select(ModeAuto, NewRemote(remote, RemoteConfig{}), NewHeuristic(nil))

	result, err := Run(context.Background(), zap.NewNop(), strategies, posting)
	require.NoError(t, err)

	assert.Equal(t, StrategyRemote, result.Strategy)
	assert.False(t, result.Degraded())
	assert.Equal(t, "Django Developer", result.Matrix.Title)
	assert.Equal(t, 1, remote.calls)
}

func TestRunFallsBackToHeuristic(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	remote := &stubExtractor{err: &ai.StrategyFailure{Provider: "gemini", Message: "quota"}}
	strategies := Select(ModeAuto, NewRemote(remote, RemoteConfig{}), NewHeuristic(nil))

	result, err := Run(context.Background(), zap.New(core), strategies, posting)
	require.NoError(t, err)

	assert.Equal(t, StrategyHeuristic, result.Strategy)
	assert.True(t, result.Degraded())
	assert.Contains(t, result.FailureMessage(), "gemini extraction failed: quota")
	assert.Equal(t, matrix.SeniorityMid, result.Matrix.Seniority)
	assert.Equal(t, []string{"django"}, result.Matrix.Skills.Backend)
	assert.Equal(t, []string{"docker", "aws"}, result.Matrix.Skills.Devops)

	assert.Equal(t, 1, logs.FilterMessage("strategy failed").Len())
	assert.Equal(t, 1, logs.FilterMessage("extraction step").Len())
}

func TestRunRevalidatesRemoteOutput(t *testing.T) {
	invalid := remoteRecord()
	invalid.Seniority = "principal"
	remote := &stubExtractor{record: invalid}

	result, err := Run(context.Background(), nil, Select(ModeAuto, NewRemote(remote, RemoteConfig{}), NewHeuristic(nil)), posting)
	require.NoError(t, err)

	assert.Equal(t, StrategyHeuristic, result.Strategy)
	require.Len(t, result.Failures, 1)
	var verr *matrix.ValidationError
	assert.ErrorAs(t, result.Failures[0].Err, &verr)
}

func TestRunRemoteOnlySurfacesFailure(t *testing.T) {
	failure := &ai.StrategyFailure{Message: "unauthorized"}
	remote := &stubExtractor{err: failure}

	_, err := Run(context.Background(), nil, Select(ModeRemote, NewRemote(remote, RemoteConfig{}), NewHeuristic(nil)), posting)

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Len(t, exhausted.Failures, 1)
	assert.ErrorIs(t, err, failure)
}

func TestRunHeuristicModeSkipsRemote(t *testing.T) {
	remote := &stubExtractor{record: remoteRecord()}

	result, err := Run(context.Background(), nil, Select(ModeHeuristic, NewRemote(remote, RemoteConfig{}), NewHeuristic(heuristic.New())), posting)
	require.NoError(t, err)

	assert.Equal(t, StrategyHeuristic, result.Strategy)
	assert.Zero(t, remote.calls)
}

func TestRunWithoutEnabledStrategies(t *testing.T) {
	strategies := Select(ModeRemote, NewRemote(nil, RemoteConfig{}), NewHeuristic(nil))

	_, err := Run(context.Background(), nil, strategies, posting)
	assert.ErrorIs(t, err, ErrNoStrategy)
}

func TestRemoteStrategyAppliesTimeout(t *testing.T) {
	remote := &stubExtractor{record: remoteRecord()}
	s := NewRemote(remote, RemoteConfig{Timeout: time.Minute})

	_, err := s.Extract(context.Background(), posting)
	require.NoError(t, err)
	assert.True(t, remote.deadline)
}

func TestDescribe(t *testing.T) {
	remote := NewRemote(&stubExtractor{}, RemoteConfig{Provider: "gemini", Model: "gemini-2.5-flash", MaxAttempts: 2, Timeout: 30 * time.Second})
	pipeline := NewPipeline(nil, Select(ModeHeuristic, remote, NewHeuristic(nil))...)

	statuses := pipeline.Describe()
	require.Len(t, statuses, 2)

	assert.Equal(t, Status{
		Name:    StrategyRemote,
		Enabled: false,
		Reason:  "strategy set to heuristic",
		Details: map[string]string{"provider": "gemini", "model": "gemini-2.5-flash", "max_attempts": "2", "timeout": "30s"},
	}, statuses[0])
	assert.Equal(t, Status{Name: StrategyHeuristic, Enabled: true}, statuses[1])

	unconfigured := NewRemote(nil, RemoteConfig{}).(statusProvider).Status()
	assert.False(t, unconfigured.Enabled)
	assert.Equal(t, "remote model is not configured", unconfigured.Reason)
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"": ModeAuto, "AUTO": ModeAuto, " remote ": ModeRemote, "heuristic": ModeHeuristic} {
		got, err := ParseMode(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseMode("llm")
	assert.Error(t, err)
}

func TestPipelineExtract(t *testing.T) {
	pipeline := NewPipeline(zap.NewNop(), NewHeuristic(nil))

	result, err := pipeline.Extract(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "Detected role: Job Opportunity.", result.Matrix.Summary)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = pipeline.Extract(ctx, posting)
	assert.True(t, errors.Is(err, context.Canceled))
}
