// Package journey assembles step blocks into executable journeys and
// parses declarative journey definitions from YAML.
package journey

import (
	"context"

	"go.uber.org/zap"

	"github.com/journeylab-dev/journey-runner/pkg/core"
	"github.com/journeylab-dev/journey-runner/pkg/patterns"
	"github.com/journeylab-dev/journey-runner/pkg/runner"
)

// Step is one executable block of a journey. A step's position in the
// pipeline is its only identity; parameters live in the closure that
// built it.
type Step func(*Context) error

// Context carries everything a step needs. One Context view serves one
// step execution; the underlying data map is the journey's shared state
// and is safe to read and write from the step.
type Context struct {
	Ctx        context.Context
	Page       core.Page
	Runner     *runner.Runner
	Components *runner.Components
	Detector   *patterns.Detector
	Data       map[string]any
	Log        *zap.Logger
}
