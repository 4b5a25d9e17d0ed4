package payload

import (
	"encoding/json"

	"github.com/semilink/semilink/pkg/semilinkgo/types"
)

// ProfileUpdate is the patch sent for an existing profile row. Experience
// is always sent so an empty list clears the column.
type ProfileUpdate struct {
	Name               string             `json:"name"`
	Headline           string             `json:"headline"`
	Location           string             `json:"location"`
	About              string             `json:"about"`
	AvatarURL          string             `json:"avatar_url"`
	BackgroundImageURL string             `json:"background_image_url"`
	Connections        int                `json:"connections"`
	Experience         []types.Experience `json:"experience"`
}

func (p ProfileUpdate) Encode() ([]byte, error) {
	return json.Marshal(p)
}

func NewProfileUpdate(p *types.Profile) ProfileUpdate {
	experience := p.Experience
	if experience == nil {
		experience = []types.Experience{}
	}
	return ProfileUpdate{
		Name:               p.Name,
		Headline:           p.Headline,
		Location:           p.Location,
		About:              p.About,
		AvatarURL:          p.AvatarURL,
		BackgroundImageURL: p.BackgroundImageURL,
		Connections:        p.Connections,
		Experience:         experience,
	}
}

// ExperienceUpdate pushes only the experience column.
type ExperienceUpdate struct {
	Experience []types.Experience `json:"experience"`
}

func (p ExperienceUpdate) Encode() ([]byte, error) {
	return json.Marshal(p)
}
