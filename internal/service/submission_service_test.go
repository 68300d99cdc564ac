package service_test

import (
	"context"
	"slices"
	"testing"

	"github.com/rs/zerolog"

	"github.com/kriwitj/nso-forms/internal/models"
	"github.com/kriwitj/nso-forms/internal/service"
	"github.com/kriwitj/nso-forms/internal/testutil"
)

// publishedForm creates a published form with one required short question
// and one optional checkbox question.
func publishedForm(t *testing.T, f *fixture, owner models.User) (models.Form, models.Question, models.Question) {
	t.Helper()
	ctx := context.Background()

	form, err := f.forms.CreateForm(ctx, owner, service.CreateFormInput{Title: "Feedback"})
	if err != nil {
		t.Fatalf("create form: %v", err)
	}
	required, err := f.forms.AddQuestion(ctx, owner, form.ID, service.QuestionInput{Text: strPtr("Q1"), Required: boolPtr(true)})
	if err != nil {
		t.Fatalf("add question: %v", err)
	}
	multi, err := f.forms.AddQuestion(ctx, owner, form.ID, service.QuestionInput{Text: strPtr("Colors"), Type: strPtr("checkbox")})
	if err != nil {
		t.Fatalf("add question: %v", err)
	}
	form, err = f.forms.UpdateForm(ctx, owner, form.ID, service.FormPatch{IsPublished: boolPtr(true)})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	return form, required, multi
}

func TestSubmitRequiredAnswers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "Owner", "owner@example.com")
	form, q1, colors := publishedForm(t, f, owner)

	_, err := f.submissions.Submit(ctx, form.ID, service.SubmitInput{Answers: map[string]service.AnswerInput{}})
	assertCode(t, err, "missing_required")

	_, err = f.submissions.Submit(ctx, form.ID, service.SubmitInput{Answers: map[string]service.AnswerInput{q1.ID: {Value: "   "}}})
	assertCode(t, err, "missing_required")

	sub, err := f.submissions.Submit(ctx, form.ID, service.SubmitInput{
		Answers: map[string]service.AnswerInput{
			q1.ID:     {Value: "yes"},
			colors.ID: {Selections: []string{"Red", "Blue"}},
		},
		IPAddress: "10.0.0.1",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(sub.Answers) != 2 {
		t.Fatalf("answers = %d, want one per question", len(sub.Answers))
	}
	if sub.Answers[0].Value != "yes" || sub.Answers[0].QuestionText != "Q1" {
		t.Fatalf("first answer = %+v", sub.Answers[0])
	}
	if sub.Answers[1].Value != "Red, Blue" || !slices.Equal(sub.Answers[1].Selections, []string{"Red", "Blue"}) {
		t.Fatalf("checkbox answer = %+v", sub.Answers[1])
	}

	t.Run("later questions do not apply to old submissions", func(t *testing.T) {
		if _, err := f.forms.AddQuestion(ctx, owner, form.ID, service.QuestionInput{Text: strPtr("Q3")}); err != nil {
			t.Fatalf("add question: %v", err)
		}
		list, err := f.submissions.ListSubmissions(ctx, owner, form.ID)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(list.Items) != 1 || list.Total != 1 || len(list.Items[0].Answers) != 2 {
			t.Fatalf("items = %+v", list.Items)
		}
		if len(list.Summary) != 3 || list.Summary[0].Answered != 1 || list.Summary[2].Answered != 0 {
			t.Fatalf("summary = %+v", list.Summary)
		}
	})
}

func TestSubmitFormState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "Owner", "owner@example.com")
	stranger := f.approvedUser(t, "Stranger", "stranger@example.com")

	form, err := f.forms.CreateForm(ctx, owner, service.CreateFormInput{Title: "Draft"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	empty := service.SubmitInput{Answers: map[string]service.AnswerInput{}}

	t.Run("unknown form", func(t *testing.T) {
		_, err := f.submissions.Submit(ctx, "missing", empty)
		assertCode(t, err, "not_found")
	})

	t.Run("unpublished is hidden from anonymous and strangers", func(t *testing.T) {
		_, err := f.submissions.Submit(ctx, form.ID, empty)
		assertCode(t, err, "not_found")

		_, err = f.submissions.Submit(ctx, form.ID, service.SubmitInput{Actor: &stranger})
		assertCode(t, err, "not_found")
	})

	t.Run("owner can preview unpublished", func(t *testing.T) {
		if _, err := f.submissions.Submit(ctx, form.ID, service.SubmitInput{Actor: &owner}); err != nil {
			t.Fatalf("preview submit: %v", err)
		}
	})

	t.Run("inactive form is closed", func(t *testing.T) {
		if _, err := f.forms.UpdateForm(ctx, owner, form.ID, service.FormPatch{IsPublished: boolPtr(true), IsActive: boolPtr(false)}); err != nil {
			t.Fatalf("update: %v", err)
		}
		_, err := f.submissions.Submit(ctx, form.ID, empty)
		assertCode(t, err, "form_closed")
	})

	t.Run("outside window is closed", func(t *testing.T) {
		if _, err := f.forms.UpdateForm(ctx, owner, form.ID, service.FormPatch{
			IsActive: boolPtr(true),
			EndAt:    service.TimePatch{Set: true, Value: strPtr("2000-01-01T00:00:00Z")},
		}); err != nil {
			t.Fatalf("update: %v", err)
		}
		_, err := f.submissions.Submit(ctx, form.ID, empty)
		assertCode(t, err, "form_closed")
	})

	t.Run("deleted form is not found", func(t *testing.T) {
		if err := f.forms.DeleteForm(ctx, owner, form.ID); err != nil {
			t.Fatalf("delete: %v", err)
		}
		_, err := f.submissions.Submit(ctx, form.ID, empty)
		assertCode(t, err, "not_found")
	})
}

func TestSubmitThrottle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "Owner", "owner@example.com")
	form, q1, _ := publishedForm(t, f, owner)

	throttled := service.NewSubmissionService(
		f.store.Forms(), f.store.Questions(), f.store.Submissions(),
		&testutil.Limiter{Max: 1}, zerolog.Nop(),
	)
	input := service.SubmitInput{Answers: map[string]service.AnswerInput{q1.ID: {Value: "ok"}}, IPAddress: "10.0.0.9"}

	if _, err := throttled.Submit(ctx, form.ID, input); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	_, err := throttled.Submit(ctx, form.ID, input)
	assertCode(t, err, "too_many_requests")

	input.IPAddress = "10.0.0.10"
	if _, err := throttled.Submit(ctx, form.ID, input); err != nil {
		t.Fatalf("other client: %v", err)
	}

	t.Run("limiter outage does not block", func(t *testing.T) {
		degraded := service.NewSubmissionService(
			f.store.Forms(), f.store.Questions(), f.store.Submissions(),
			&testutil.Limiter{Err: testutil.ErrUnavailable}, zerolog.Nop(),
		)
		if _, err := degraded.Submit(ctx, form.ID, input); err != nil {
			t.Fatalf("submit: %v", err)
		}
	})
}

func TestListSubmissionsAuthorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.register(t, "Admin", "admin@example.com")
	owner := f.approvedUser(t, "Owner", "owner@example.com")
	stranger := f.approvedUser(t, "Stranger", "stranger@example.com")
	form, q1, _ := publishedForm(t, f, owner)

	for _, value := range []string{"first", "second"} {
		if _, err := f.submissions.Submit(ctx, form.ID, service.SubmitInput{Answers: map[string]service.AnswerInput{q1.ID: {Value: value}}}); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}

	_, err := f.submissions.ListSubmissions(ctx, stranger, form.ID)
	assertCode(t, err, "forbidden")

	list, err := f.submissions.ListSubmissions(ctx, admin, form.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list.Items) != 2 || list.Items[0].Answers[0].Value != "second" {
		t.Fatalf("expected newest first, got %+v", list.Items)
	}
	if list.Total != 2 {
		t.Fatalf("total = %d, want 2", list.Total)
	}
}
