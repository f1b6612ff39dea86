package report

import (
	"encoding/json"
	"time"
)

// Kind is the GitHub event type an Activity was classified as.
type Kind string

const (
	KindIssueComment Kind = "IssueCommentEvent"
	KindIssues       Kind = "IssuesEvent"
	KindPullRequest  Kind = "PullRequestEvent"
	KindPublic       Kind = "PublicEvent"
	KindRelease      Kind = "ReleaseEvent"
	KindSponsorship  Kind = "SponsorshipEvent"
	KindOther        Kind = "Other"
)

var knownKinds = map[string]Kind{
	string(KindIssueComment): KindIssueComment,
	string(KindIssues):       KindIssues,
	string(KindPullRequest):  KindPullRequest,
	string(KindPublic):       KindPublic,
	string(KindRelease):      KindRelease,
	string(KindSponsorship):  KindSponsorship,
}

// ParseKind maps an event type tag to a Kind. Unknown tags are KindOther.
func ParseKind(tag string) Kind {
	if k, ok := knownKinds[tag]; ok {
		return k
	}
	return KindOther
}

// Activity is one record of a user's public events feed.
type Activity struct {
	Kind      Kind
	Public    bool
	Repo      string
	Payload   json.RawMessage
	CreatedAt time.Time
}

type envelope struct {
	Type      string          `json:"type"`
	Public    bool            `json:"public"`
	Repo      repo            `json:"repo"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

type repo struct {
	Name string `json:"name"`
}

// Classify decodes a raw feed record. It never fails: anything that cannot be
// decoded is an Activity of KindOther. Payload fields are checked by the
// Formatter, not here.
func Classify(raw []byte) Activity {
	var e envelope
	if err := json.Unmarshal(raw, &e); err != nil {
		return Activity{Kind: KindOther}
	}

	kind := ParseKind(e.Type)
	if kind == KindOther {
		return Activity{Kind: KindOther, CreatedAt: e.CreatedAt}
	}

	return Activity{
		Kind:      kind,
		Public:    e.Public,
		Repo:      e.Repo.Name,
		Payload:   e.Payload,
		CreatedAt: e.CreatedAt,
	}
}

func (a Activity) IsPublic() bool {
	return a.Kind != KindOther && a.Public
}

// IsInteresting reports whether the activity is of a recognised kind and public.
func (a Activity) IsInteresting() bool {
	_, known := knownKinds[string(a.Kind)]
	return known && a.Public
}
