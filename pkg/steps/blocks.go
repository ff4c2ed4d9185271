// Package steps provides the reusable step blocks that journeys are
// assembled from, the adaptive blocks that wrap pattern detection, and
// the compiler that maps declarative journey definitions onto both.
package steps

import (
	"go.uber.org/zap"

	"github.com/journeylab-dev/journey-runner/pkg/core"
	"github.com/journeylab-dev/journey-runner/pkg/dom"
	"github.com/journeylab-dev/journey-runner/pkg/journey"
)

// Address is a UK-style postal address for FillAddress.
type Address struct {
	Line1    string
	Line2    string
	Town     string
	Postcode string
}

// Start opens the journey at the given path and, when heading is
// non-empty, verifies the landing page's heading.
func Start(path, heading string) journey.Step {
	return func(sc *journey.Context) error {
		if err := sc.Runner.Start(sc.Ctx, path); err != nil {
			return err
		}
		if heading == "" {
			return nil
		}
		return sc.Runner.VerifyHeading(sc.Ctx, heading)
	}
}

// SelectApplicantType picks the applicant-type radio labelled value and
// continues. The chosen value is stored under "applicant.type".
func SelectApplicantType(value string) journey.Step {
	return func(sc *journey.Context) error {
		err := sc.Runner.FillStep(sc.Ctx, map[string]core.FieldValue{
			"Applicant type": core.Options(value),
		})
		if err != nil {
			return err
		}
		sc.Runner.StoreData("applicant.type", value)
		return sc.Runner.Continue(sc.Ctx)
	}
}

// FillContactDetails fills the contact page and continues. The values
// are stored under the synced contact.* keys so later steps and
// assertions can read them back.
func FillContactDetails(name, email, phone string) journey.Step {
	return func(sc *journey.Context) error {
		fields := map[string]core.FieldValue{
			"Full name":     core.Text(name),
			"Email address": core.Text(email),
		}
		if phone != "" {
			fields["Phone number"] = core.Text(phone)
		}
		if err := sc.Runner.FillStep(sc.Ctx, fields); err != nil {
			return err
		}
		sc.Runner.StoreData("contact.name", name)
		sc.Runner.StoreData("contact.email", email)
		if phone != "" {
			sc.Runner.StoreData("contact.phone", phone)
		}
		return sc.Runner.Continue(sc.Ctx)
	}
}

// FillAddress fills the address page and continues. Line 2 is skipped
// when empty.
func FillAddress(addr Address) journey.Step {
	return func(sc *journey.Context) error {
		fields := map[string]core.FieldValue{
			"Address line 1": core.Text(addr.Line1),
			"Town or city":   core.Text(addr.Town),
			"Postcode":       core.Text(addr.Postcode),
		}
		if addr.Line2 != "" {
			fields["Address line 2 (optional)"] = core.Text(addr.Line2)
		}
		if err := sc.Runner.FillStep(sc.Ctx, fields); err != nil {
			return err
		}
		return sc.Runner.Continue(sc.Ctx)
	}
}

// FillPage verifies the heading when given, fills the listed fields and
// continues. The general-purpose block for pages the catalogue has no
// dedicated shape for.
func FillPage(heading string, fields map[string]core.FieldValue) journey.Step {
	return func(sc *journey.Context) error {
		if heading != "" {
			if err := sc.Runner.VerifyHeading(sc.Ctx, heading); err != nil {
				return err
			}
		}
		if err := sc.Runner.FillStep(sc.Ctx, fields); err != nil {
			return err
		}
		return sc.Runner.Continue(sc.Ctx)
	}
}

// AnswerYesNo answers a yes/no question page and continues. The
// question text is the fieldset legend the Yes and No radios live in.
func AnswerYesNo(question string, yes bool) journey.Step {
	return func(sc *journey.Context) error {
		answer := "No"
		if yes {
			answer = "Yes"
		}
		err := sc.Runner.FillStep(sc.Ctx, map[string]core.FieldValue{
			question: core.Options(answer),
		})
		if err != nil {
			return err
		}
		return sc.Runner.Continue(sc.Ctx)
	}
}

// ExpectValidationErrors clicks the advance button expecting the page
// to reject it, then verifies the listed messages are displayed in
// whichever error idiom the journey uses. The step counter is not
// advanced. When heading is non-empty the block also verifies the
// journey stayed on that page.
func ExpectValidationErrors(heading string, expected ...string) journey.Step {
	return func(sc *journey.Context) error {
		if err := sc.Runner.ClickAdvance(sc.Ctx); err != nil {
			return err
		}
		if heading != "" {
			if err := sc.Runner.VerifyHeading(sc.Ctx, heading); err != nil {
				return err
			}
		}
		return VerifyErrors(expected...)(sc)
	}
}

// CheckYourAnswers verifies the journey reached the review page and
// that the summary shows the expected rows, in whichever summary idiom
// the journey uses.
func CheckYourAnswers(expected map[string]string) journey.Step {
	return func(sc *journey.Context) error {
		if err := sc.Runner.VerifyHeading(sc.Ctx, "Check your answers"); err != nil {
			return err
		}
		return VerifySummaryData(expected)(sc)
	}
}

// SubmitApplication submits from the review page. When the
// confirmation page shows a reference number it is stored under
// "application.reference".
func SubmitApplication() journey.Step {
	return func(sc *journey.Context) error {
		if err := sc.Runner.Submit(sc.Ctx); err != nil {
			return err
		}
		if ref, ok := confirmationReference(sc); ok {
			sc.Runner.StoreData("application.reference", ref)
			sc.Log.Info("captured application reference",
				zap.String("reference", ref))
		}
		return nil
	}
}

// confirmationReference pulls the reference number out of the
// confirmation panel, when one is displayed.
func confirmationReference(sc *journey.Context) (string, bool) {
	html, err := sc.Page.HTML(sc.Ctx)
	if err != nil {
		return "", false
	}
	snap, err := dom.Parse(html)
	if err != nil {
		return "", false
	}
	ref := dom.Text(snap.Find(".govuk-panel--confirmation strong").First())
	if ref == "" {
		return "", false
	}
	return ref, true
}

// VerifyConfirmation verifies the post-submission page shows the
// expected heading.
func VerifyConfirmation(heading string) journey.Step {
	return func(sc *journey.Context) error {
		return sc.Runner.VerifyHeading(sc.Ctx, heading)
	}
}

// GoBackAndVerify navigates back one page and verifies its heading.
func GoBackAndVerify(heading string) journey.Step {
	return func(sc *journey.Context) error {
		if err := sc.Runner.GoBack(sc.Ctx); err != nil {
			return err
		}
		return sc.Runner.VerifyHeading(sc.Ctx, heading)
	}
}

// StoreSummary extracts the review page's summary rows and stores the
// mapping under the given data key.
func StoreSummary(key string) journey.Step {
	return func(sc *journey.Context) error {
		data, err := sc.Detector.SummaryData(sc.Ctx)
		if err != nil {
			return err
		}
		sc.Runner.StoreData(key, data)
		sc.Log.Debug("stored summary data",
			zap.String("key", key),
			zap.Int("rows", len(data)))
		return nil
	}
}
