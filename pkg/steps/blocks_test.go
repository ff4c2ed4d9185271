package steps

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/journeylab-dev/journey-runner/pkg/core"
	"github.com/journeylab-dev/journey-runner/pkg/journey"
	"github.com/journeylab-dev/journey-runner/pkg/mock"
	"github.com/journeylab-dev/journey-runner/pkg/runner"
)

const contactPage = `<html><body>
<h1>Your contact details</h1>
<form>
  <label for="full-name">Full name</label>
  <input id="full-name" type="text">
  <label for="email">Email address</label>
  <input id="email" type="text">
  <label for="phone">Phone number</label>
  <input id="phone" type="text">
  <button id="to-review">Continue</button>
</form>
</body></html>`

const reviewPage = `<html><body>
<a id="back" class="govuk-back-link" href="#">Back</a>
<h1>Check your answers</h1>
<dl class="govuk-summary-list">
  <div class="govuk-summary-list__row">
    <dt class="govuk-summary-list__key">Full name</dt>
    <dd class="govuk-summary-list__value">Sasha Rowan</dd>
    <dd class="govuk-summary-list__actions">
      <a id="change-name" href="#">Change<span class="govuk-visually-hidden"> full name</span></a>
    </dd>
  </div>
  <div class="govuk-summary-list__row">
    <dt class="govuk-summary-list__key">Email address</dt>
    <dd class="govuk-summary-list__value">sasha@example.com</dd>
    <dd class="govuk-summary-list__actions">
      <a id="change-email" href="#">Change<span class="govuk-visually-hidden"> email address</span></a>
    </dd>
  </div>
</dl>
<button id="send">Accept and send</button>
</body></html>`

const confirmationPage = `<html><body>
<div class="govuk-panel govuk-panel--confirmation">
  <h1 class="govuk-panel__title">Application submitted</h1>
  <div class="govuk-panel__body">Your reference number<br><strong>HDJ2123F</strong></div>
</div>
</body></html>`

func testTimeouts() runner.Timeouts {
	return runner.Timeouts{
		Submit:  500 * time.Millisecond,
		Heading: 300 * time.Millisecond,
		Find:    200 * time.Millisecond,
	}
}

func journeyPage() *mock.Page {
	page := mock.New()
	page.Route("/apply", contactPage)
	page.OnClick("#to-review", reviewPage)
	page.OnClick("#send", confirmationPage)
	page.OnClick("#back", contactPage)
	return page
}

func newStepContext(page *mock.Page) *journey.Context {
	r := runner.New(page, runner.Options{
		BaseURL:  "https://forms.example",
		Timeouts: testTimeouts(),
	})
	return &journey.Context{
		Ctx:        context.Background(),
		Page:       page,
		Runner:     r,
		Components: r.Components(),
		Detector:   r.Detector(),
		Data:       map[string]any{},
		Log:        zap.NewNop(),
	}
}

func TestFullJourneyThroughBlocks(t *testing.T) {
	page := journeyPage()
	r := runner.New(page, runner.Options{
		BaseURL:  "https://forms.example",
		Timeouts: testTimeouts(),
	})
	b := journey.NewBuilder(r, nil)
	b.AddSteps(
		Start("/apply", "Your contact details"),
		FillContactDetails("Sasha Rowan", "sasha@example.com", "0719 123456"),
		CheckYourAnswers(map[string]string{
			"Full name":     "Sasha Rowan",
			"Email address": "sasha@example.com",
		}),
		SubmitApplication(),
		VerifyConfirmation("Application submitted"),
	)

	require.NoError(t, b.Execute(context.Background()))

	assert.Equal(t, runner.PhaseSubmitted, r.Phase())
	assert.Equal(t, []string{"https://forms.example/apply"}, page.Navigations())

	// Fills run in sorted label order.
	fills := page.Fills()
	require.Len(t, fills, 3)
	assert.Equal(t, mock.Fill{Selector: "#email", Value: "sasha@example.com"}, fills[0])
	assert.Equal(t, mock.Fill{Selector: "#full-name", Value: "Sasha Rowan"}, fills[1])
	assert.Equal(t, mock.Fill{Selector: "#phone", Value: "0719 123456"}, fills[2])

	// Contact values and the captured reference end up in the builder's
	// shared data through the post-step flush.
	for key, want := range map[string]any{
		"contact.name":          "Sasha Rowan",
		"contact.email":         "sasha@example.com",
		"contact.phone":         "0719 123456",
		"application.reference": "HDJ2123F",
	} {
		got, ok := b.Data(key)
		require.True(t, ok, "missing %s", key)
		assert.Equal(t, want, got)
	}
}

func TestSelectApplicantTypeChecksRadioAndContinues(t *testing.T) {
	page := mock.New()
	page.Route("/apply", `<html><body>
<h1>Who is applying</h1>
<fieldset><legend>Applicant type</legend>
  <input id="type-tenant" type="radio" name="type"><label for="type-tenant">Tenant</label>
  <input id="type-owner" type="radio" name="type"><label for="type-owner">Property owner</label>
</fieldset>
<button id="next">Continue</button>
</body></html>`)
	page.OnClick("#next", contactPage)
	sc := newStepContext(page)

	require.NoError(t, sc.Runner.Start(sc.Ctx, "/apply"))
	require.NoError(t, SelectApplicantType("Property owner")(sc))

	assert.Contains(t, page.Clicks(), "#type-owner")
	v, ok := sc.Runner.Data("applicant.type")
	require.True(t, ok)
	assert.Equal(t, "Property owner", v)
}

func TestAnswerYesNoPicksRadioByLegend(t *testing.T) {
	page := mock.New()
	page.Route("/apply", `<html><body>
<h1>Property ownership</h1>
<fieldset><legend>Do you own the property</legend>
  <input id="own-yes" type="radio" name="own"><label for="own-yes">Yes</label>
  <input id="own-no" type="radio" name="own"><label for="own-no">No</label>
</fieldset>
<button id="next">Continue</button>
</body></html>`)
	page.OnClick("#next", contactPage)
	sc := newStepContext(page)

	require.NoError(t, sc.Runner.Start(sc.Ctx, "/apply"))
	require.NoError(t, AnswerYesNo("Do you own the property", false)(sc))

	assert.Contains(t, page.Clicks(), "#own-no")
	assert.NotContains(t, page.Clicks(), "#own-yes")
}

func TestFillAddressSkipsEmptyLine2(t *testing.T) {
	page := mock.New()
	page.Route("/apply", `<html><body>
<h1>Your address</h1>
<label for="line1">Address line 1</label><input id="line1" type="text">
<label for="line2">Address line 2 (optional)</label><input id="line2" type="text">
<label for="town">Town or city</label><input id="town" type="text">
<label for="postcode">Postcode</label><input id="postcode" type="text">
<button id="next">Continue</button>
</body></html>`)
	page.OnClick("#next", reviewPage)
	sc := newStepContext(page)

	require.NoError(t, sc.Runner.Start(sc.Ctx, "/apply"))
	require.NoError(t, FillAddress(Address{
		Line1:    "12 Harbour Lane",
		Town:     "Whitby",
		Postcode: "YO21 1QN",
	})(sc))

	selectors := make([]string, 0)
	for _, f := range page.Fills() {
		selectors = append(selectors, f.Selector)
	}
	assert.NotContains(t, selectors, "#line2")
	assert.Contains(t, selectors, "#line1")
	assert.Contains(t, selectors, "#postcode")
}

func TestExpectValidationErrorsKeepsStepCounter(t *testing.T) {
	rejected := `<html><body>
<h1>Your contact details</h1>
<div class="govuk-error-summary"><h2>There is a problem</h2>
  <ul><li><a href="#email">Enter an email address</a></li></ul>
</div>
<form>
  <label for="email">Email address</label>
  <input id="email" type="text">
  <button id="to-review">Continue</button>
</form>
</body></html>`
	page := mock.New()
	page.Route("/apply", contactPage)
	page.OnClick("#to-review", rejected)
	sc := newStepContext(page)

	require.NoError(t, sc.Runner.Start(sc.Ctx, "/apply"))
	require.Equal(t, 0, sc.Runner.Step())

	err := ExpectValidationErrors("Your contact details", "Enter an email address")(sc)
	require.NoError(t, err)
	assert.Equal(t, 0, sc.Runner.Step())
}

func TestExpectValidationErrorsFailsWhenPageAccepts(t *testing.T) {
	page := journeyPage()
	sc := newStepContext(page)

	require.NoError(t, sc.Runner.Start(sc.Ctx, "/apply"))

	// The click advances to the review page, which shows no errors.
	err := ExpectValidationErrors("", "Enter an email address")(sc)
	require.Error(t, err)

	var aerr *core.AssertionError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, "error display idiom", aerr.Subject)
}

func TestGoBackAndVerifyReturnsToPriorPage(t *testing.T) {
	page := journeyPage()
	sc := newStepContext(page)

	require.NoError(t, sc.Runner.Start(sc.Ctx, "/apply"))
	require.NoError(t, sc.Runner.Continue(sc.Ctx))
	require.Equal(t, runner.PhaseAtReview, sc.Runner.Phase())

	require.NoError(t, GoBackAndVerify("Your contact details")(sc))
	assert.Equal(t, runner.PhaseInStep, sc.Runner.Phase())
}

func TestStoreSummaryCapturesRows(t *testing.T) {
	page := mock.NewWithHTML(reviewPage)
	sc := newStepContext(page)

	require.NoError(t, StoreSummary("summary.review")(sc))

	v, ok := sc.Runner.Data("summary.review")
	require.True(t, ok)
	assert.Equal(t, map[string]string{
		"Full name":     "Sasha Rowan",
		"Email address": "sasha@example.com",
	}, v)
}

func TestSubmitApplicationWithoutPanelStoresNoReference(t *testing.T) {
	page := mock.New()
	page.Route("/apply", reviewPage)
	page.OnClick("#send", `<html><body><h1>Application submitted</h1></body></html>`)
	sc := newStepContext(page)

	require.NoError(t, sc.Runner.Start(sc.Ctx, "/apply"))
	require.NoError(t, SubmitApplication()(sc))

	_, ok := sc.Runner.Data("application.reference")
	assert.False(t, ok)
}
