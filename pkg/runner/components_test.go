package runner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/journeylab-dev/journey-runner/pkg/core"
	"github.com/journeylab-dev/journey-runner/pkg/mock"
)

func TestComponentsInputKinds(t *testing.T) {
	page := mock.NewWithHTML(`<html><body>
		<label for="name">Full name</label><input id="name" type="text">
		<label for="agree">I agree</label><input id="agree" type="checkbox">
		<label for="county">County</label><select id="county"><option>Kent</option></select>
		<label for="notes">Notes</label><textarea id="notes"></textarea>
	</body></html>`)
	c := NewComponents(page, nil)
	ctx := context.Background()

	tests := []struct {
		label    string
		selector string
		kind     core.ControlKind
	}{
		{"Full name", "#name", core.ControlText},
		{"I agree", "#agree", core.ControlCheckbox},
		{"County", "#county", core.ControlSelect},
		{"Notes", "#notes", core.ControlText},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			control, err := c.Input(ctx, tt.label)
			require.NoError(t, err)
			assert.Equal(t, tt.selector, control.Selector)
			assert.Equal(t, tt.kind, control.Kind)
		})
	}
}

func TestComponentsInputByAriaLabel(t *testing.T) {
	page := mock.NewWithHTML(`<html><body>
		<input id="search" aria-label="Search postcode" type="text">
	</body></html>`)
	c := NewComponents(page, nil)

	control, err := c.Input(context.Background(), "Search postcode")
	require.NoError(t, err)
	assert.Equal(t, "#search", control.Selector)
}

func TestComponentsButtonFallsThroughLabels(t *testing.T) {
	page := mock.NewWithHTML(`<html><body>
		<input type="submit" id="send" value="Accept and send">
	</body></html>`)
	c := NewComponents(page, nil)

	selector, err := c.Button(context.Background(), "Continue", "Accept and send")
	require.NoError(t, err)
	assert.Equal(t, "#send", selector)
}

func TestComponentsButtonIgnoresHidden(t *testing.T) {
	page := mock.NewWithHTML(`<html><body>
		<button id="hidden-continue" style="display:none">Continue</button>
		<button id="real-continue">Continue</button>
	</body></html>`)
	c := NewComponents(page, nil)

	selector, err := c.Button(context.Background(), "Continue")
	require.NoError(t, err)
	assert.Equal(t, "#real-continue", selector)
}

func TestComponentsChangeLinkByRow(t *testing.T) {
	page := mock.NewWithHTML(`<html><body>
		<dl class="govuk-summary-list">
			<div class="govuk-summary-list__row">
				<dt class="govuk-summary-list__key">Full name</dt>
				<dd class="govuk-summary-list__value">Sasha Rowan</dd>
				<dd class="govuk-summary-list__actions">
					<a id="change-name" href="/name">Change<span class="govuk-visually-hidden"> full name</span></a>
				</dd>
			</div>
			<div class="govuk-summary-list__row">
				<dt class="govuk-summary-list__key">Email</dt>
				<dd class="govuk-summary-list__value">sasha@example.com</dd>
				<dd class="govuk-summary-list__actions">
					<a id="change-email" href="/email">Change<span class="govuk-visually-hidden"> email</span></a>
				</dd>
			</div>
		</dl>
	</body></html>`)
	c := NewComponents(page, nil)

	selector, err := c.ChangeLink(context.Background(), "Email")
	require.NoError(t, err)
	assert.Equal(t, "#change-email", selector)
}

func TestComponentsChangeLinkByText(t *testing.T) {
	page := mock.NewWithHTML(`<html><body>
		<table>
			<tr><th>Full name</th><td>Sasha Rowan</td></tr>
		</table>
		<a id="change-name" href="/name">Change full name</a>
	</body></html>`)
	c := NewComponents(page, nil)

	selector, err := c.ChangeLink(context.Background(), "Full name")
	require.NoError(t, err)
	assert.Equal(t, "#change-name", selector)

	_, err = c.ChangeLink(context.Background(), "Email")
	require.Error(t, err)
	var controlErr *core.ControlError
	assert.ErrorAs(t, err, &controlErr)
}

func TestComponentsDateGroupBySuffix(t *testing.T) {
	page := mock.NewWithHTML(`<html><body>
		<fieldset>
			<legend>When did you move in?</legend>
			<input id="moved-in-day"><input id="moved-in-month"><input id="moved-in-year">
		</fieldset>
	</body></html>`)
	c := NewComponents(page, nil)

	controls, err := c.DateGroup(context.Background(), "When did you move in?")
	require.NoError(t, err)
	require.True(t, controls.Parts())
	assert.Equal(t, "#moved-in-day", controls.Day)
	assert.Equal(t, "#moved-in-month", controls.Month)
	assert.Equal(t, "#moved-in-year", controls.Year)
}

func TestComponentsLabels(t *testing.T) {
	page := mock.NewWithHTML(`<html><body>
		<label for="a">Full name</label><input id="a">
		<fieldset><legend>Applicant type</legend></fieldset>
		<label for="b" hidden>Secret</label><input id="b">
	</body></html>`)
	c := NewComponents(page, nil)

	labels, err := c.Labels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Full name", "Applicant type"}, labels)
}
