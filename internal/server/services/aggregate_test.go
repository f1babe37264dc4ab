package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/runavault/internal/common"
	"github.com/dmitrijs2005/runavault/internal/server/models"
)

func TestListSecrets_RoundTrip(t *testing.T) {
	s, _ := newMemService(t)
	ctx := context.Background()

	req := createReq("github.com", []string{"eng", "ops"}, []string{"u3", "u2"})
	req.Tags = []string{"work", "git"}
	req.SharedWith.Roles = map[string]string{"eng": common.RoleEditor}
	_, err := s.CreateSecret(ctx, owner, req)
	require.NoError(t, err)

	list, err := s.ListSecrets(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 1)

	got := list[0]
	assert.Equal(t, "github.com", got.Site)
	assert.Equal(t, "github.com#p1", got.Key)
	assert.Equal(t, []string{"eng", "ops"}, got.SharedWith.Groups)
	assert.Equal(t, []string{"u2", "u3"}, got.SharedWith.Users)
	assert.Equal(t, map[string]string{"eng": common.RoleEditor}, got.SharedWith.Roles)
	assert.Equal(t, []string{"git", "work"}, got.Tags)
	assert.True(t, got.OwnedByMe)
}

func TestListSecrets_SharedViews(t *testing.T) {
	s, _ := newMemService(t)
	ctx := context.Background()

	_, err := s.CreateSecret(ctx, owner, createReq("github.com", []string{"eng"}, []string{"bob"}))
	require.NoError(t, err)

	bob := models.Identity{Subject: "bob", Groups: []string{"eng", "eng"}}
	list, err := s.ListSecrets(ctx, bob)
	require.NoError(t, err)
	require.Len(t, list, 1, "group and direct rows of one secret merge into one entry")

	got := list[0]
	assert.False(t, got.OwnedByMe)
	assert.Equal(t, "owner", got.OwnerID)
	assert.Equal(t, []string{"eng"}, got.SharedWith.Groups)
	assert.Equal(t, []string{"bob"}, got.SharedWith.Users)
}

func TestListSecrets_OwnGroupRowsNotDuplicated(t *testing.T) {
	s, _ := newMemService(t)
	ctx := context.Background()

	me := models.Identity{Subject: "owner", Groups: []string{"eng"}}
	_, err := s.CreateSecret(ctx, me, createReq("github.com", []string{"eng"}, nil))
	require.NoError(t, err)

	list, err := s.ListSecrets(ctx, me)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].OwnedByMe)
}

func TestListSecrets_SortedCaseInsensitive(t *testing.T) {
	s, _ := newMemService(t)
	ctx := context.Background()

	for _, site := range []string{"beta.io", "Alpha.com", "alpha.org", "Cloud.dev"} {
		_, err := s.CreateSecret(ctx, owner, createReq(site, nil, nil))
		require.NoError(t, err)
	}
	other := models.Identity{Subject: "zed"}
	_, err := s.CreateSecret(ctx, other, createReq("able.net", nil, []string{"owner"}))
	require.NoError(t, err)

	list, err := s.ListSecrets(ctx, owner)
	require.NoError(t, err)

	var sites []string
	for _, sec := range list {
		sites = append(sites, sec.Site)
	}
	assert.Equal(t, []string{"able.net", "Alpha.com", "alpha.org", "beta.io", "Cloud.dev"}, sites)
	assert.False(t, list[0].OwnedByMe)
}

func TestListSecrets_SeparateSubdirectoriesStaySeparate(t *testing.T) {
	s, _ := newMemService(t)
	ctx := context.Background()

	_, err := s.CreateSecret(ctx, owner, createReq("github.com", nil, nil))
	require.NoError(t, err)
	req := createReq("github.com", nil, nil)
	req.Subdirectory = "work"
	_, err = s.CreateSecret(ctx, owner, req)
	require.NoError(t, err)

	list, err := s.ListSecrets(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "github.com#p1", list[0].Key)
	assert.Equal(t, "github.com#work#p2", list[1].Key)
}

func TestListSecrets_Empty(t *testing.T) {
	s, _ := newMemService(t)

	list, err := s.ListSecrets(context.Background(), owner)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestAggregator_NewestVersionWins(t *testing.T) {
	agg := newAggregator("owner")
	agg.add(
		&models.Row{OwnerID: "owner", Key: "a.com#p1#group:g1", Username: "old", Version: 1, SharedWithGroups: "g1", SharedWithUsers: common.None},
		&models.Row{OwnerID: "owner", Key: "a.com#p1#group:g2", Username: "new", Version: 2, SharedWithGroups: "g2", SharedWithUsers: common.None},
	)

	out := agg.result()
	require.Len(t, out, 1)
	assert.Equal(t, "new", out[0].Username)
	assert.Equal(t, int64(2), out[0].Version)
	assert.Equal(t, []string{"g1", "g2"}, out[0].SharedWith.Groups)
	assert.Equal(t, "p1", out[0].PasswordID)
}
