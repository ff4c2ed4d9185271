package patterns

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/journeylab-dev/journey-runner/pkg/mock"
)

const summaryOnlyPage = `<html><body>
	<div class="govuk-error-summary" data-module="error-summary">
		<h2>There is a problem</h2>
		<ul>
			<li><a href="#full-name">Enter your full name</a></li>
			<li><a href="#email">Enter an email address</a></li>
		</ul>
	</div>
	<h1>Your details</h1>
</body></html>`

const inlineOnlyPage = `<html><body>
	<h1>Your details</h1>
	<div class="govuk-form-group govuk-form-group--error">
		<label for="full-name">Full name</label>
		<p id="full-name-error" class="govuk-error-message">
			<span class="govuk-visually-hidden">Error:</span> Enter your full name
		</p>
		<input id="full-name" name="fullName">
	</div>
</body></html>`

const bothIdiomsPage = `<html><body>
	<div class="govuk-error-summary">
		<h2>There is a problem</h2>
		<ul><li><a href="#email">Enter an email address</a></li></ul>
	</div>
	<h1>Your details</h1>
	<p id="email-error" class="govuk-error-message">
		<span class="govuk-visually-hidden">Error:</span> Enter an email address
	</p>
	<input id="email" name="email">
</body></html>`

const cleanPage = `<html><body><h1>Your details</h1><input id="email"></body></html>`

func TestDetectErrorDisplay(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		expected ErrorDisplay
	}{
		{"summary box only", summaryOnlyPage, ErrorsSummary},
		{"inline messages only", inlineOnlyPage, ErrorsInline},
		{"both idioms", bothIdiomsPage, ErrorsBoth},
		{"no errors", cleanPage, ErrorsNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDetector(mock.NewWithHTML(tt.html), nil)
			got, err := d.DetectErrorDisplay(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

const designSystemSummaryPage = `<html><body>
	<h1>Check your answers</h1>
	<dl class="govuk-summary-list">
		<div class="govuk-summary-list__row">
			<dt class="govuk-summary-list__key">Full name</dt>
			<dd class="govuk-summary-list__value">Sasha Rowan</dd>
			<dd class="govuk-summary-list__actions"><a href="#">Change<span class="govuk-visually-hidden"> full name</span></a></dd>
		</div>
		<div class="govuk-summary-list__row">
			<dt class="govuk-summary-list__key">Email</dt>
			<dd class="govuk-summary-list__value">sasha@example.com</dd>
			<dd class="govuk-summary-list__actions"><a href="#">Change<span class="govuk-visually-hidden"> email</span></a></dd>
		</div>
	</dl>
	<button>Accept and send</button>
</body></html>`

const definitionListSummaryPage = `<html><body>
	<h1>Check your answers</h1>
	<dl>
		<dt>Full name</dt><dd>Sasha Rowan</dd>
		<dt>Email</dt><dd>sasha@example.com</dd>
	</dl>
	<button>Continue</button>
</body></html>`

const tableSummaryPage = `<html><body>
	<h1>Check your answers</h1>
	<table>
		<tr><th>Full name</th><td>Sasha Rowan</td></tr>
		<tr><th>Email</th><td>sasha@example.com</td></tr>
	</table>
	<button>Accept and send</button>
</body></html>`

func TestDetectSummaryList(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		expected SummaryListKind
	}{
		{"design system list", designSystemSummaryPage, SummaryDesignSystemList},
		{"plain definition list", definitionListSummaryPage, SummaryDefinitionList},
		{"two column table", tableSummaryPage, SummaryTable},
		{"no summary", cleanPage, SummaryNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDetector(mock.NewWithHTML(tt.html), nil)
			got, err := d.DetectSummaryList(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestDetectChangeAnswerSupport(t *testing.T) {
	d := NewDetector(mock.NewWithHTML(designSystemSummaryPage), nil)
	supported, err := d.DetectChangeAnswerSupport(context.Background())
	require.NoError(t, err)
	assert.True(t, supported)

	// "Changed circumstances" must not count as a change affordance.
	d = NewDetector(mock.NewWithHTML(`<html><body>
		<a href="/circumstances">Changed circumstances</a>
	</body></html>`), nil)
	supported, err = d.DetectChangeAnswerSupport(context.Background())
	require.NoError(t, err)
	assert.False(t, supported)
}

func TestDetectBackNav(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		expected BackNavKind
	}{
		{"back button", `<html><body><button>Back</button></body></html>`, BackButton},
		{"back link by label", `<html><body><a href="/prev">Back</a></body></html>`, BackLink},
		{"back link by class", `<html><body><a class="govuk-back-link" href="/prev">Go back</a></body></html>`, BackLink},
		{"both forms", `<html><body><a class="govuk-back-link" href="/prev">Back</a><button>Back</button></body></html>`, BackBoth},
		{"none", cleanPage, BackNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDetector(mock.NewWithHTML(tt.html), nil)
			got, err := d.DetectBackNav(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestDetectTypographicQuotes(t *testing.T) {
	d := NewDetector(mock.NewWithHTML(`<html><body><h1>What`+"’"+`s your name?</h1></body></html>`), nil)
	curly, err := d.DetectTypographicQuotes(context.Background())
	require.NoError(t, err)
	assert.True(t, curly)

	d = NewDetector(mock.NewWithHTML(`<html><body><h1>What's your name?</h1></body></html>`), nil)
	curly, err = d.DetectTypographicQuotes(context.Background())
	require.NoError(t, err)
	assert.False(t, curly)
}

func TestDetectWholeJourney(t *testing.T) {
	d := NewDetector(mock.NewWithHTML(designSystemSummaryPage), nil)
	j, err := d.Detect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ErrorsNone, j.ErrorDisplay)
	assert.Equal(t, SummaryDesignSystemList, j.SummaryList)
	assert.True(t, j.SupportsChangeAnswer)
	assert.Equal(t, BackNone, j.BackNav)
	assert.False(t, j.TypographicQuotes)
}
