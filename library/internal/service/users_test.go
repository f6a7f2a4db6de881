package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Astemirdum/library-circulation/library/internal/errs"
	"github.com/Astemirdum/library-circulation/library/internal/model"
	"github.com/Astemirdum/library-circulation/library/internal/query"
)

func TestUsers_Register(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	u := f.user(t, "ada@example.com")
	require.Equal(t, model.RoleUser, u.Role)
	require.Empty(t, u.Penalties)

	admin := f.user(t, "Admin@Library.org")
	require.Equal(t, model.RoleAdmin, admin.Role)

	_, err := f.svc.Users.Register(ctx, model.RegisterRequest{FirstName: "A", LastName: "B", Email: "ada@example.com"})
	require.ErrorIs(t, err, errs.ErrEmailExists)

	got, err := f.svc.Users.FindByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
}

func TestUsers_Delete(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "ada@example.com")

	require.NoError(t, f.svc.Users.Delete(ctx, u.ID))
	_, err := f.svc.Users.FindByID(ctx, u.ID)
	require.ErrorIs(t, err, errs.ErrUserNotFound)
	require.NoError(t, f.svc.Users.Delete(ctx, u.ID))
}

func TestUsers_ListUsers(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	names := [][2]string{{"Grace", "Hopper"}, {"Alan", "Turing"}, {"Ada", "Lovelace"}}
	for i, n := range names {
		_, err := f.svc.Users.Register(ctx, model.RegisterRequest{
			FirstName: n[0],
			LastName:  n[1],
			Email:     string(rune('a'+i)) + "@example.com",
		})
		require.NoError(t, err)
	}

	spec, err := query.NewSpec("", "title", "ASC", 0, 2)
	require.NoError(t, err)
	got, err := f.svc.Users.ListUsers(ctx, spec)
	require.NoError(t, err)
	require.Equal(t, 3, got.TotalElements)
	require.Len(t, got.Items, 2)
	require.Equal(t, "Hopper", got.Items[0].LastName)
	require.Equal(t, "Lovelace", got.Items[1].LastName)
}
