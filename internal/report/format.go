package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/m-mizutani/goerr/v2"
)

// ErrMalformedPayload is returned by Format when a field the matched template
// needs is missing or has the wrong type. It only concerns that one event.
var ErrMalformedPayload = errors.New("malformed event payload")

// Rule maps an event kind, and optionally a payload action, to a display
// template. An empty Action matches any action.
type Rule struct {
	Kind     Kind
	Action   string
	Template string
}

// DefaultRules is the table of events shown in the gist.
var DefaultRules = []Rule{
	{Kind: KindIssueComment, Action: "created", Template: "🗣 Commented on #{IssueNumber} in {RepositoryName}"},
	{Kind: KindIssues, Action: "opened", Template: "❗️ Opened issue #{IssueNumber} in {RepositoryName}"},
	{Kind: KindIssues, Action: "closed", Template: "❗️ Closed issue #{IssueNumber} in {RepositoryName}"},
	{Kind: KindIssues, Action: "reopened", Template: "❗️ Reopened issue #{IssueNumber} in {RepositoryName}"},
	{Kind: KindPublic, Template: "🔓 Made {RepositoryName} public!"},
	{Kind: KindPullRequest, Action: "opened", Template: "📝 Opened PR #{PRNumber} in {RepositoryName}"},
	{Kind: KindPullRequest, Action: "reopened", Template: "📝 Opened PR #{PRNumber} in {RepositoryName}"},
	{Kind: KindPullRequest, Action: "closed", Template: "🛑 Closed PR #{PRNumber} in {RepositoryName}"},
	{Kind: KindRelease, Template: "🚀 Shipped a new version of {RepositoryName}"},
	{Kind: KindSponsorship, Template: "🤝 Started sponsoring a developer!"},
}

// actionEmoji backs the {Emoji} placeholder.
var actionEmoji = map[string]string{
	"opened":   "📝",
	"closed":   "🗑",
	"reopened": "🔓",
}

const unknownActionEmoji = "❓"

var placeholderPattern = regexp.MustCompile(`\{(\w+)\}`)

type Formatter struct {
	rules map[Kind][]Rule
}

func NewFormatter(rules []Rule) *Formatter {
	f := &Formatter{rules: make(map[Kind][]Rule)}
	for _, r := range rules {
		f.rules[r.Kind] = append(f.rules[r.Kind], r)
	}
	return f
}

// number accepts both 42 and "42".
type number string

func (n *number) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		if _, err := strconv.ParseInt(s, 10, 64); err != nil {
			return fmt.Errorf("not a number: %q", s)
		}
		*n = number(s)
		return nil
	}

	var i int64
	if err := json.Unmarshal(b, &i); err != nil {
		return fmt.Errorf("not a number: %s", b)
	}
	*n = number(strconv.FormatInt(i, 10))
	return nil
}

type numbered struct {
	Number *number `json:"number"`
}

type release struct {
	TagName *string `json:"tag_name"`
}

type payload struct {
	Action      *string   `json:"action"`
	Number      *number   `json:"number"`
	Issue       *numbered `json:"issue"`
	PullRequest *numbered `json:"pull_request"`
	Release     *release  `json:"release"`
}

// Format renders a into a display line. ok is false when no rule matches,
// which includes KindOther and actions without a rule.
func (f *Formatter) Format(a Activity) (line string, ok bool, err error) {
	rules := f.rules[a.Kind]
	if len(rules) == 0 {
		return "", false, nil
	}

	src := &fieldSource{activity: a}

	var action string
	for _, r := range rules {
		if r.Action == "" {
			continue
		}
		if action, err = src.action(); err != nil {
			return "", false, err
		}
		break
	}

	var rule *Rule
	for i := range rules {
		if rules[i].Action == "" || rules[i].Action == action {
			rule = &rules[i]
			break
		}
	}
	if rule == nil {
		return "", false, nil
	}

	line, err = src.render(rule.Template)
	if err != nil {
		return "", false, err
	}
	return line, true, nil
}

// fieldSource decodes the payload at most once and only when a field needs it.
type fieldSource struct {
	activity Activity
	payload  *payload
}

func (s *fieldSource) malformed(field string) error {
	return goerr.Wrap(ErrMalformedPayload, "missing or invalid field",
		goerr.V("kind", s.activity.Kind),
		goerr.V("repo", s.activity.Repo),
		goerr.V("field", field))
}

func (s *fieldSource) load() (*payload, error) {
	if s.payload != nil {
		return s.payload, nil
	}

	var p payload
	raw := s.activity.Payload
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, goerr.Wrap(ErrMalformedPayload, "failed to decode payload",
				goerr.V("kind", s.activity.Kind),
				goerr.V("repo", s.activity.Repo),
				goerr.V("cause", err.Error()))
		}
	}
	s.payload = &p
	return s.payload, nil
}

func (s *fieldSource) action() (string, error) {
	p, err := s.load()
	if err != nil {
		return "", err
	}
	if p.Action == nil {
		return "", s.malformed("payload.action")
	}
	return *p.Action, nil
}

func (s *fieldSource) value(name string) (string, error) {
	switch name {
	case "RepositoryName":
		if s.activity.Repo == "" {
			return "", s.malformed("repo.name")
		}
		return s.activity.Repo, nil

	case "Action":
		return s.action()

	case "Emoji":
		action, err := s.action()
		if err != nil {
			return "", err
		}
		if e, ok := actionEmoji[action]; ok {
			return e, nil
		}
		return unknownActionEmoji, nil

	case "IssueNumber":
		p, err := s.load()
		if err != nil {
			return "", err
		}
		if p.Issue == nil || p.Issue.Number == nil {
			return "", s.malformed("payload.issue.number")
		}
		return string(*p.Issue.Number), nil

	case "PRNumber":
		p, err := s.load()
		if err != nil {
			return "", err
		}
		if p.Number != nil {
			return string(*p.Number), nil
		}
		if p.PullRequest != nil && p.PullRequest.Number != nil {
			return string(*p.PullRequest.Number), nil
		}
		return "", s.malformed("payload.number")

	case "Version":
		p, err := s.load()
		if err != nil {
			return "", err
		}
		if p.Release == nil || p.Release.TagName == nil {
			return "", s.malformed("payload.release.tag_name")
		}
		return *p.Release.TagName, nil
	}

	return "", nil
}

func (s *fieldSource) render(template string) (string, error) {
	var firstErr error
	out := placeholderPattern.ReplaceAllStringFunc(template, func(m string) string {
		if firstErr != nil {
			return m
		}
		name := m[1 : len(m)-1]
		if !isPlaceholder(name) {
			return m
		}
		v, err := s.value(name)
		if err != nil {
			firstErr = err
			return m
		}
		return v
	})
	if firstErr != nil {
		return "", firstErr
	}
	return out, nil
}

func isPlaceholder(name string) bool {
	switch name {
	case "RepositoryName", "Action", "Emoji", "IssueNumber", "PRNumber", "Version":
		return true
	}
	return false
}
