package steps

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/journeylab-dev/journey-runner/pkg/core"
	"github.com/journeylab-dev/journey-runner/pkg/interp"
	"github.com/journeylab-dev/journey-runner/pkg/journey"
	"github.com/journeylab-dev/journey-runner/pkg/runner"
)

// Options configures compilation of a journey definition.
type Options struct {
	Log *zap.Logger
}

// blockCompiler turns one step definition into an executable step.
// Compilation validates shape; ${...} expressions in the definition are
// expanded at execution time against the journey's shared data.
type blockCompiler func(cc *compileContext, d *journey.StepDef) (journey.Step, error)

var blockRegistry = map[string]blockCompiler{
	"start":                    compileStart,
	"select-applicant-type":    compileSelectApplicantType,
	"fill-page":                compileFillPage,
	"answer-yes-no":            compileAnswerYesNo,
	"expect-validation-errors": compileExpectValidationErrors,
	"check-your-answers":       compileCheckYourAnswers,
	"verify-errors":            compileVerifyErrors,
	"verify-summary":           compileVerifySummary,
	"store-summary":            compileStoreSummary,
	"submit-application":       compileSubmitApplication,
	"verify-confirmation":      compileVerifyConfirmation,
	"go-back-and-verify":       compileGoBackAndVerify,
}

// KnownBlocks lists the block names the compiler accepts, sorted.
func KnownBlocks() []string {
	names := make([]string, 0, len(blockRegistry))
	for name := range blockRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type compileContext struct {
	def *journey.Definition
	log *zap.Logger
}

// Compile maps a parsed journey definition onto the block catalogue,
// producing a builder ready to execute against the given runner. The
// definition's data seeds the builder's shared data.
func Compile(def *journey.Definition, r *runner.Runner, opts Options) (*journey.Builder, error) {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	cc := &compileContext{def: def, log: log}

	b := journey.NewBuilder(r, log)
	for key, value := range def.Data {
		b.SetData(key, value)
	}

	for i := range def.Steps {
		d := &def.Steps[i]
		compile, ok := blockRegistry[d.Block]
		if !ok {
			return nil, &journey.ParseError{
				Path: def.SourcePath,
				Line: d.Line,
				Message: fmt.Sprintf("unknown block %q, known blocks: %s",
					d.Block, strings.Join(KnownBlocks(), ", ")),
			}
		}
		step, err := compile(cc, d)
		if err != nil {
			return nil, err
		}
		b.AddStep(step)
	}

	log.Debug("compiled journey definition",
		zap.String("journey", def.Name),
		zap.Int("steps", b.StepCount()))
	return b, nil
}

func (cc *compileContext) defErr(d *journey.StepDef, format string, args ...any) error {
	return &journey.ParseError{
		Path:    cc.def.SourcePath,
		Line:    d.Line,
		Message: fmt.Sprintf(format, args...),
	}
}

func compileStart(cc *compileContext, d *journey.StepDef) (journey.Step, error) {
	entry := cc.def.Entry
	heading := d.Heading
	return func(sc *journey.Context) error {
		expanded, err := expandString(sc, heading)
		if err != nil {
			return err
		}
		return Start(entry, expanded)(sc)
	}, nil
}

func compileSelectApplicantType(cc *compileContext, d *journey.StepDef) (journey.Step, error) {
	if d.Value == "" {
		return nil, cc.defErr(d, "select-applicant-type needs a value")
	}
	value := d.Value
	return func(sc *journey.Context) error {
		expanded, err := expandString(sc, value)
		if err != nil {
			return err
		}
		return SelectApplicantType(expanded)(sc)
	}, nil
}

func compileFillPage(cc *compileContext, d *journey.StepDef) (journey.Step, error) {
	if len(d.Fields) == 0 {
		return nil, cc.defErr(d, "fill-page needs at least one field")
	}
	heading := d.Heading
	fields := d.Fields
	return func(sc *journey.Context) error {
		eng := engineFor(sc)
		expandedHeading, err := eng.Expand(heading)
		if err != nil {
			return err
		}
		expandedFields := make(map[string]core.FieldValue, len(fields))
		for label, value := range fields {
			ev, err := expandFieldValue(eng, value)
			if err != nil {
				return err
			}
			expandedFields[label] = ev
		}
		return FillPage(expandedHeading, expandedFields)(sc)
	}, nil
}

func compileAnswerYesNo(cc *compileContext, d *journey.StepDef) (journey.Step, error) {
	if d.Question == "" {
		return nil, cc.defErr(d, "answer-yes-no needs a question")
	}
	if d.Answer == nil {
		return nil, cc.defErr(d, "answer-yes-no needs an answer")
	}
	question, yes := d.Question, *d.Answer
	return func(sc *journey.Context) error {
		expanded, err := expandString(sc, question)
		if err != nil {
			return err
		}
		return AnswerYesNo(expanded, yes)(sc)
	}, nil
}

func compileExpectValidationErrors(cc *compileContext, d *journey.StepDef) (journey.Step, error) {
	if len(d.Expect) == 0 {
		return nil, cc.defErr(d, "expect-validation-errors needs expected messages")
	}
	heading := d.Heading
	expect := d.Expect
	return func(sc *journey.Context) error {
		eng := engineFor(sc)
		expandedHeading, err := eng.Expand(heading)
		if err != nil {
			return err
		}
		expanded, err := expandStrings(eng, expect)
		if err != nil {
			return err
		}
		return ExpectValidationErrors(expandedHeading, expanded...)(sc)
	}, nil
}

func compileCheckYourAnswers(cc *compileContext, d *journey.StepDef) (journey.Step, error) {
	rows := d.Rows
	return func(sc *journey.Context) error {
		expanded, err := expandStringMap(engineFor(sc), rows)
		if err != nil {
			return err
		}
		return CheckYourAnswers(expanded)(sc)
	}, nil
}

func compileVerifyErrors(cc *compileContext, d *journey.StepDef) (journey.Step, error) {
	if len(d.Expect) == 0 {
		return nil, cc.defErr(d, "verify-errors needs expected messages")
	}
	expect := d.Expect
	return func(sc *journey.Context) error {
		expanded, err := expandStrings(engineFor(sc), expect)
		if err != nil {
			return err
		}
		return VerifyErrors(expanded...)(sc)
	}, nil
}

func compileVerifySummary(cc *compileContext, d *journey.StepDef) (journey.Step, error) {
	if len(d.Rows) == 0 {
		return nil, cc.defErr(d, "verify-summary needs rows")
	}
	rows := d.Rows
	return func(sc *journey.Context) error {
		expanded, err := expandStringMap(engineFor(sc), rows)
		if err != nil {
			return err
		}
		return VerifySummaryData(expanded)(sc)
	}, nil
}

func compileStoreSummary(cc *compileContext, d *journey.StepDef) (journey.Step, error) {
	if d.Key == "" {
		return nil, cc.defErr(d, "store-summary needs a key")
	}
	return StoreSummary(d.Key), nil
}

func compileSubmitApplication(*compileContext, *journey.StepDef) (journey.Step, error) {
	return SubmitApplication(), nil
}

func compileVerifyConfirmation(cc *compileContext, d *journey.StepDef) (journey.Step, error) {
	if d.Heading == "" {
		return nil, cc.defErr(d, "verify-confirmation needs a heading")
	}
	heading := d.Heading
	return func(sc *journey.Context) error {
		expanded, err := expandString(sc, heading)
		if err != nil {
			return err
		}
		return VerifyConfirmation(expanded)(sc)
	}, nil
}

func compileGoBackAndVerify(cc *compileContext, d *journey.StepDef) (journey.Step, error) {
	if d.Heading == "" {
		return nil, cc.defErr(d, "go-back-and-verify needs a heading")
	}
	heading := d.Heading
	return func(sc *journey.Context) error {
		expanded, err := expandString(sc, heading)
		if err != nil {
			return err
		}
		return GoBackAndVerify(expanded)(sc)
	}, nil
}

// engineFor builds an expression engine seeded with the step's current
// shared data. A fresh engine per step keeps late data writes visible.
func engineFor(sc *journey.Context) *interp.Engine {
	eng := interp.New()
	eng.SetGlobals(sc.Data)
	return eng
}

func expandString(sc *journey.Context, s string) (string, error) {
	if !strings.Contains(s, "${") {
		return s, nil
	}
	return engineFor(sc).Expand(s)
}

func expandStrings(eng *interp.Engine, in []string) ([]string, error) {
	out := make([]string, len(in))
	for i, s := range in {
		expanded, err := eng.Expand(s)
		if err != nil {
			return nil, err
		}
		out[i] = expanded
	}
	return out, nil
}

func expandStringMap(eng *interp.Engine, in map[string]string) (map[string]string, error) {
	out := make(map[string]string, len(in))
	for key, value := range in {
		expandedKey, err := eng.Expand(key)
		if err != nil {
			return nil, err
		}
		expandedValue, err := eng.Expand(value)
		if err != nil {
			return nil, err
		}
		out[expandedKey] = expandedValue
	}
	return out, nil
}

// expandFieldValue expands expressions inside a field value. Scalars
// and option lists are expanded; date parts are numeric already.
func expandFieldValue(eng *interp.Engine, v core.FieldValue) (core.FieldValue, error) {
	switch {
	case v.IsOptions():
		expanded, err := expandStrings(eng, v.Options)
		if err != nil {
			return core.FieldValue{}, err
		}
		return core.FieldValue{Options: expanded}, nil
	case v.Date != nil:
		return v, nil
	default:
		expanded, err := eng.Expand(v.Text)
		if err != nil {
			return core.FieldValue{}, err
		}
		return core.FieldValue{Text: expanded}, nil
	}
}
