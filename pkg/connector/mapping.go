package connector

import (
	"github.com/semilink/semilink/pkg/semilinkgo/types"
)

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(i *int) int {
	if i == nil {
		return 0
	}
	return *i
}

// RemoteRowFromProfile converts a profile into the row shape used by the
// remote profiles table. Empty strings become nulls.
func RemoteRowFromProfile(p *types.Profile) *types.RemoteProfile {
	connections := p.Connections
	return &types.RemoteProfile{
		ID:                 p.ID,
		Email:              strPtr(p.Email),
		Name:               strPtr(p.Name),
		Headline:           strPtr(p.Headline),
		AvatarURL:          strPtr(p.AvatarURL),
		BackgroundImageURL: strPtr(p.BackgroundImageURL),
		Location:           strPtr(p.Location),
		About:              strPtr(p.About),
		Connections:        &connections,
		Experience:         types.CloneExperience(p.Experience),
	}
}
