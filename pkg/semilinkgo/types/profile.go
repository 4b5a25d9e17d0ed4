package types

// Profile is the reconciled identity and career record of one user.
type Profile struct {
	ID                 string       `json:"id"`
	Email              string       `json:"email,omitempty"`
	Name               string       `json:"name" validate:"nonblank"`
	Headline           string       `json:"headline"`
	AvatarURL          string       `json:"avatarUrl"`
	BackgroundImageURL string       `json:"backgroundImageUrl,omitempty"`
	Location           string       `json:"location,omitempty"`
	About              string       `json:"about,omitempty"`
	Connections        int          `json:"connections"`
	Experience         []Experience `json:"experience" validate:"dive"`

	// view-only, never persisted
	MutualConnections int `json:"-"`
}

type Experience struct {
	ID          string `json:"id"`
	Title       string `json:"title" validate:"nonblank"`
	Company     string `json:"company" validate:"nonblank"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Description string `json:"description,omitempty"`
	LogoURL     string `json:"logoUrl,omitempty"`
}

const ExperiencePresent = "Present"

// Clone returns a deep copy so callers can mutate the experience list
// without touching the original.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	out := *p
	out.Experience = CloneExperience(p.Experience)
	return &out
}

func CloneExperience(list []Experience) []Experience {
	out := make([]Experience, len(list))
	copy(out, list)
	return out
}

// RemoteProfile is a row of the remote profiles table. Pointer fields are
// nullable columns.
type RemoteProfile struct {
	ID                 string       `json:"id"`
	Email              *string      `json:"email,omitempty"`
	Name               *string      `json:"name,omitempty"`
	Headline           *string      `json:"headline,omitempty"`
	AvatarURL          *string      `json:"avatar_url,omitempty"`
	BackgroundImageURL *string      `json:"background_image_url,omitempty"`
	Location           *string      `json:"location,omitempty"`
	About              *string      `json:"about,omitempty"`
	Connections        *int         `json:"connections,omitempty"`
	Experience         []Experience `json:"experience,omitempty"`
}

// Identity is what the authentication provider knows about a user.
type Identity struct {
	ID       string
	Email    string
	Metadata map[string]any
}

func (i Identity) MetadataString(key string) string {
	if i.Metadata == nil {
		return ""
	}
	val, _ := i.Metadata[key].(string)
	return val
}
