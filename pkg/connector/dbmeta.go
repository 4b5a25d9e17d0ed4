package connector

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/semilink/semilink/pkg/store"
)

// LoginMetadata is what survives a restart: the serialised remote session,
// or the id of the offline user when no remote is configured.
type LoginMetadata struct {
	Session    string `json:"session,omitempty"`
	MockUserID string `json:"mock_user_id,omitempty"`
}

func (lm *LoginMetadata) IsEmpty() bool {
	return lm.Session == "" && lm.MockUserID == ""
}

func loadLoginMetadata(ctx context.Context, cols *store.Collections) *LoginMetadata {
	var meta LoginMetadata
	raw := cols.LoadSession(ctx)
	if raw == "" {
		return &meta
	}
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("Stored login metadata is corrupt, ignoring it")
		return &LoginMetadata{}
	}
	return &meta
}

func saveLoginMetadata(ctx context.Context, cols *store.Collections, meta *LoginMetadata) {
	log := zerolog.Ctx(ctx)
	if meta == nil || meta.IsEmpty() {
		if err := cols.SaveSession(ctx, ""); err != nil {
			log.Warn().Err(err).Msg("Failed to clear stored login")
		}
		return
	}
	data, err := json.Marshal(meta)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to encode login metadata")
		return
	}
	if err = cols.SaveSession(ctx, string(data)); err != nil {
		log.Warn().Err(err).Msg("Failed to store login")
	}
}
