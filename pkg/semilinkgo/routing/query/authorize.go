package query

import (
	"github.com/google/go-querystring/query"
)

type OAuthProvider string

const (
	ProviderGitHub OAuthProvider = "github"
)

type AuthorizeQuery struct {
	Provider   OAuthProvider `url:"provider"`
	RedirectTo string        `url:"redirect_to,omitempty"`
	Scopes     string        `url:"scopes,omitempty"`
}

func (p *AuthorizeQuery) Encode() ([]byte, error) {
	values, err := query.Values(p)
	if err != nil {
		return nil, err
	}
	return []byte(values.Encode()), nil
}
