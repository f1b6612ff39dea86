package report_test

import (
	"errors"
	"testing"

	"github.com/m-mizutani/gt"

	"activitybox/internal/report"
)

func TestFormatDefaultRules(t *testing.T) {
	f := report.NewFormatter(report.DefaultRules)

	testCases := map[string]struct {
		raw  string
		want string
		ok   bool
	}{
		"public event": {
			raw:  `{"type":"PublicEvent","public":true,"repo":{"name":"octo/repo"}}`,
			want: "🔓 Made octo/repo public!",
			ok:   true,
		},
		"issue opened with string number": {
			raw:  `{"type":"IssuesEvent","public":true,"payload":{"action":"opened","issue":{"number":"42"}},"repo":{"name":"octo/repo"}}`,
			want: "❗️ Opened issue #42 in octo/repo",
			ok:   true,
		},
		"issue closed with numeric number": {
			raw:  `{"type":"IssuesEvent","public":true,"payload":{"action":"closed","issue":{"number":7}},"repo":{"name":"octo/repo"}}`,
			want: "❗️ Closed issue #7 in octo/repo",
			ok:   true,
		},
		"issue reopened": {
			raw:  `{"type":"IssuesEvent","public":true,"payload":{"action":"reopened","issue":{"number":7}},"repo":{"name":"octo/repo"}}`,
			want: "❗️ Reopened issue #7 in octo/repo",
			ok:   true,
		},
		"issue labeled has no rule": {
			raw: `{"type":"IssuesEvent","public":true,"payload":{"action":"labeled","issue":{"number":7}},"repo":{"name":"octo/repo"}}`,
		},
		"comment created": {
			raw:  `{"type":"IssueCommentEvent","public":true,"payload":{"action":"created","issue":{"number":3}},"repo":{"name":"octo/repo"}}`,
			want: "🗣 Commented on #3 in octo/repo",
			ok:   true,
		},
		"comment edited has no rule": {
			raw: `{"type":"IssueCommentEvent","public":true,"payload":{"action":"edited","issue":{"number":3}},"repo":{"name":"octo/repo"}}`,
		},
		"pull request opened": {
			raw:  `{"type":"PullRequestEvent","public":true,"payload":{"action":"opened","number":12},"repo":{"name":"octo/repo"}}`,
			want: "📝 Opened PR #12 in octo/repo",
			ok:   true,
		},
		"pull request reopened": {
			raw:  `{"type":"PullRequestEvent","public":true,"payload":{"action":"reopened","number":12},"repo":{"name":"octo/repo"}}`,
			want: "📝 Opened PR #12 in octo/repo",
			ok:   true,
		},
		"pull request closed uses nested number": {
			raw:  `{"type":"PullRequestEvent","public":true,"payload":{"action":"closed","pull_request":{"number":13}},"repo":{"name":"octo/repo"}}`,
			want: "🛑 Closed PR #13 in octo/repo",
			ok:   true,
		},
		"release": {
			raw:  `{"type":"ReleaseEvent","public":true,"payload":{"action":"published","release":{"tag_name":"v1.0.0"}},"repo":{"name":"octo/repo"}}`,
			want: "🚀 Shipped a new version of octo/repo",
			ok:   true,
		},
		"sponsorship": {
			raw:  `{"type":"SponsorshipEvent","public":true}`,
			want: "🤝 Started sponsoring a developer!",
			ok:   true,
		},
		"other": {
			raw: `{"type":"WatchEvent","public":true,"repo":{"name":"octo/repo"}}`,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			line, ok, err := f.Format(report.Classify([]byte(tc.raw)))
			gt.NoError(t, err)
			gt.Equal(t, ok, tc.ok)
			gt.Equal(t, line, tc.want)
		})
	}
}

func TestFormatMalformedPayload(t *testing.T) {
	f := report.NewFormatter(report.DefaultRules)

	testCases := map[string]string{
		"missing action":       `{"type":"IssuesEvent","public":true,"payload":{"issue":{"number":1}},"repo":{"name":"octo/repo"}}`,
		"missing issue number": `{"type":"IssuesEvent","public":true,"payload":{"action":"opened","issue":{}},"repo":{"name":"octo/repo"}}`,
		"missing issue":        `{"type":"IssueCommentEvent","public":true,"payload":{"action":"created"},"repo":{"name":"octo/repo"}}`,
		"non numeric number":   `{"type":"IssuesEvent","public":true,"payload":{"action":"opened","issue":{"number":"abc"}},"repo":{"name":"octo/repo"}}`,
		"missing pr number":    `{"type":"PullRequestEvent","public":true,"payload":{"action":"opened"},"repo":{"name":"octo/repo"}}`,
		"missing repo name":    `{"type":"PublicEvent","public":true}`,
		"payload not object":   `{"type":"PullRequestEvent","public":true,"payload":"oops","repo":{"name":"octo/repo"}}`,
		"action wrong type":    `{"type":"IssuesEvent","public":true,"payload":{"action":5},"repo":{"name":"octo/repo"}}`,
	}

	for name, raw := range testCases {
		t.Run(name, func(t *testing.T) {
			line, ok, err := f.Format(report.Classify([]byte(raw)))
			gt.Error(t, err)
			gt.Equal(t, errors.Is(err, report.ErrMalformedPayload), true)
			gt.Equal(t, ok, false)
			gt.Equal(t, line, "")
		})
	}
}

func TestFormatIgnoresPayloadWhenUnused(t *testing.T) {
	f := report.NewFormatter(report.DefaultRules)

	line, ok, err := f.Format(report.Activity{
		Kind:    report.KindSponsorship,
		Public:  true,
		Payload: []byte(`"not an object"`),
	})
	gt.NoError(t, err)
	gt.Equal(t, ok, true)
	gt.Equal(t, line, "🤝 Started sponsoring a developer!")
}

func TestFormatIsDeterministic(t *testing.T) {
	f := report.NewFormatter(report.DefaultRules)
	a := report.Classify([]byte(`{"type":"PullRequestEvent","public":true,"payload":{"action":"closed","number":99},"repo":{"name":"octo/repo"}}`))

	first, _, err := f.Format(a)
	gt.NoError(t, err)
	second, _, err := f.Format(a)
	gt.NoError(t, err)
	gt.Equal(t, first, second)
}

func TestFormatCustomRules(t *testing.T) {
	f := report.NewFormatter([]report.Rule{
		{Kind: report.KindRelease, Template: "🚀 Released {Version} of {RepositoryName}"},
		{Kind: report.KindIssues, Template: "{Emoji} {Action} #{IssueNumber} {Unknown}"},
	})

	t.Run("version placeholder", func(t *testing.T) {
		line, ok, err := f.Format(report.Classify([]byte(
			`{"type":"ReleaseEvent","public":true,"payload":{"release":{"tag_name":"v2.1.0"}},"repo":{"name":"octo/repo"}}`)))
		gt.NoError(t, err)
		gt.Equal(t, ok, true)
		gt.Equal(t, line, "🚀 Released v2.1.0 of octo/repo")
	})

	t.Run("missing version", func(t *testing.T) {
		_, _, err := f.Format(report.Classify([]byte(
			`{"type":"ReleaseEvent","public":true,"payload":{},"repo":{"name":"octo/repo"}}`)))
		gt.Equal(t, errors.Is(err, report.ErrMalformedPayload), true)
	})

	t.Run("generic emoji table", func(t *testing.T) {
		cases := map[string]string{
			"opened":      "📝 opened #1 {Unknown}",
			"closed":      "🗑 closed #1 {Unknown}",
			"reopened":    "🔓 reopened #1 {Unknown}",
			"transferred": "❓ transferred #1 {Unknown}",
		}
		for action, want := range cases {
			line, ok, err := f.Format(report.Activity{
				Kind:    report.KindIssues,
				Public:  true,
				Repo:    "octo/repo",
				Payload: []byte(`{"action":"` + action + `","issue":{"number":1}}`),
			})
			gt.NoError(t, err)
			gt.Equal(t, ok, true)
			gt.Equal(t, line, want)
		}
	})

	t.Run("kind without rule", func(t *testing.T) {
		_, ok, err := f.Format(report.Activity{Kind: report.KindPublic, Public: true, Repo: "octo/repo"})
		gt.NoError(t, err)
		gt.Equal(t, ok, false)
	})
}
