package semilinkgo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/semilink/semilink/pkg/semilinkgo/routing"
	"github.com/semilink/semilink/pkg/semilinkgo/routing/payload"
	"github.com/semilink/semilink/pkg/semilinkgo/routing/response"
	"github.com/semilink/semilink/pkg/semilinkgo/types"
)

// GetProfile fetches the profile row for id. A missing row is reported as
// nil, nil.
func (c *Client) GetProfile(ctx context.Context, id string) (*types.RemoteProfile, error) {
	var row types.RemoteProfile
	err := c.do(ctx, func() error {
		_, err := c.sb.From(string(routing.ProfilesTable)).
			Select(routing.ProfileColumns, "", false).
			Eq(routing.ProfileIDColumn, id).
			Single().
			ExecuteTo(&row)
		return err
	})
	if response.IsNoRows(err) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to fetch profile %s: %w", id, err)
	}
	return &row, nil
}

func (c *Client) CreateProfile(ctx context.Context, row *types.RemoteProfile) error {
	info := routing.TableStoreDefinition[routing.ProfilesTable]
	err := c.do(ctx, func() error {
		_, _, err := c.sb.From(string(routing.ProfilesTable)).
			Insert(row, false, "", info.Returning, "").
			Execute()
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to create profile %s: %w", row.ID, err)
	}
	return nil
}

// UpdateProfile patches the row for id with the encoded fields.
func (c *Client) UpdateProfile(ctx context.Context, id string, fields routing.PayloadDataInterface) error {
	body, err := fields.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode profile update: %w", err)
	}
	info := routing.TableStoreDefinition[routing.ProfilesTable]
	err = c.do(ctx, func() error {
		_, _, err := c.sb.From(string(routing.ProfilesTable)).
			Update(json.RawMessage(body), info.Returning, "").
			Eq(routing.ProfileIDColumn, id).
			Execute()
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to update profile %s: %w", id, err)
	}
	return nil
}

func (c *Client) InsertPost(ctx context.Context, post payload.PostInsert) error {
	info := routing.TableStoreDefinition[routing.PostsTable]
	err := c.do(ctx, func() error {
		_, _, err := c.sb.From(string(routing.PostsTable)).
			Insert(post, false, "", info.Returning, "").
			Execute()
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to insert post: %w", err)
	}
	return nil
}
