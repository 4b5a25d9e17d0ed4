package payload

import "encoding/json"

type PostInsert struct {
	AuthorID string   `json:"author_id"`
	Content  string   `json:"content"`
	ImageURL string   `json:"image_url,omitempty"`
	Tags     []string `json:"tags"`
}

func (p PostInsert) Encode() ([]byte, error) {
	return json.Marshal(p)
}
