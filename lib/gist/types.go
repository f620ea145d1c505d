package gist

import "github.com/mitchellh/mapstructure"

// Gist is a typed view over a gist envelope. Envelopes stay the primary
// return shape, the view is a convenience for callers that want fields
// instead of map lookups.
type Gist struct {
	ID          string              `mapstructure:"id"`
	Description string              `mapstructure:"description"`
	Public      bool                `mapstructure:"public"`
	HTMLURL     string              `mapstructure:"html_url"`
	CreatedAt   string              `mapstructure:"created_at"`
	UpdatedAt   string              `mapstructure:"updated_at"`
	Files       map[string]GistFile `mapstructure:"files"`
	Owner       Owner               `mapstructure:"owner"`
	PastedURL   string              `mapstructure:"pasted_url"`
}

// GistFile is a single file inside a gist.
type GistFile struct {
	Filename string `mapstructure:"filename"`
	Type     string `mapstructure:"type"`
	Language string `mapstructure:"language"`
	Content  string `mapstructure:"content"`
	Size     int    `mapstructure:"size"`
}

// Owner identifies the gist's owner.
type Owner struct {
	Login   string `mapstructure:"login"`
	ID      int64  `mapstructure:"id"`
	HTMLURL string `mapstructure:"html_url"`
}

// Commit is one entry of a gist's revision history.
type Commit struct {
	Version      string `mapstructure:"version"`
	CommittedAt  string `mapstructure:"committed_at"`
	User         Owner  `mapstructure:"user"`
	ChangeStatus struct {
		Total     int `mapstructure:"total"`
		Additions int `mapstructure:"additions"`
		Deletions int `mapstructure:"deletions"`
	} `mapstructure:"change_status"`
}

// AsGist decodes a gist envelope into the typed view.
func AsGist(env Envelope) (Gist, error) {
	var g Gist
	if err := decode(map[string]any(env), &g); err != nil {
		return Gist{}, errf(KindUnexpected, err, "failed to decode gist")
	}
	return g, nil
}

// AsCommits decodes a commits listing envelope. The API returns an array, so
// the payload sits under ResultKey; an envelope without it decodes to nil.
func AsCommits(env Envelope) ([]Commit, error) {
	raw, ok := env[ResultKey]
	if !ok {
		return nil, nil
	}
	var commits []Commit
	if err := decode(raw, &commits); err != nil {
		return nil, errf(KindUnexpected, err, "failed to decode commits")
	}
	return commits, nil
}

// decode runs mapstructure in weakly-typed mode, so JSON numbers (float64)
// land in integer fields.
func decode(input, target any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}
