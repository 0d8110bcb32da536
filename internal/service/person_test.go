package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mzfrvt/hitolog/internal/apperr"
)

func TestPersonCreate(t *testing.T) {
	ctx := context.Background()
	persons := NewPersonService(newTestStore(t))

	t.Run("rejects empty and blank names", func(t *testing.T) {
		for _, name := range []string{"", "   "} {
			_, err := persons.Create(ctx, PersonInput{Name: name, Company: strPtr("ACME")})
			assert.True(t, apperr.IsValidation(err), "name %q must fail validation", name)
		}

		count, err := persons.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})

	t.Run("round trips the full field set", func(t *testing.T) {
		created, err := persons.Create(ctx, PersonInput{
			Name:        "山田太郎",
			Handle:      strPtr("@taro"),
			Company:     strPtr("ACME"),
			Position:    strPtr("Engineer"),
			Description: strPtr("met at a conference"),
			ProductName: strPtr("WidgetOS"),
			Memo:        strPtr("likes coffee"),
			GithubID:    strPtr("taro-yamada"),
		})
		require.NoError(t, err)

		fetched, err := persons.FindByID(ctx, created.ID)
		require.NoError(t, err)
		require.NotNil(t, fetched)

		assert.Equal(t, "山田太郎", fetched.Name)
		assert.Equal(t, "@taro", *fetched.Handle)
		assert.Equal(t, "ACME", *fetched.Company)
		assert.Equal(t, "Engineer", *fetched.Position)
		assert.Equal(t, "met at a conference", *fetched.Description)
		assert.Equal(t, "WidgetOS", *fetched.ProductName)
		assert.Equal(t, "likes coffee", *fetched.Memo)
		assert.Equal(t, "taro-yamada", *fetched.GithubID)
		assert.False(t, fetched.CreatedAt.IsZero())
		assert.False(t, fetched.UpdatedAt.Before(fetched.CreatedAt))

		assert.NotNil(t, fetched.Tags, "relationship slices are empty, not nil")
		assert.Empty(t, fetched.Tags)
		assert.NotNil(t, fetched.Events)
		assert.Empty(t, fetched.Events)
		assert.NotNil(t, fetched.Relations)
		assert.Empty(t, fetched.Relations)
	})

	t.Run("absent optional fields stay nil", func(t *testing.T) {
		created, err := persons.Create(ctx, PersonInput{Name: "Bob"})
		require.NoError(t, err)

		fetched, err := persons.FindByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Nil(t, fetched.Handle)
		assert.Nil(t, fetched.Company)
		assert.Nil(t, fetched.GithubID)
	})
}

func TestPersonCreateWithTags(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	persons := NewPersonService(st)
	tags := NewTagService(st)

	t.Run("links tags in the same transaction", func(t *testing.T) {
		ids, err := tags.FindOrCreateByNames(ctx, []string{"go", "rust"})
		require.NoError(t, err)

		created, err := persons.Create(ctx, PersonInput{Name: "Alice", TagIDs: ids})
		require.NoError(t, err)
		require.Len(t, created.Tags, 2)
		assert.Equal(t, "go", created.Tags[0].Name)
		assert.Equal(t, "rust", created.Tags[1].Name)
	})

	t.Run("a failed tag link rolls back the person insert", func(t *testing.T) {
		before, err := persons.Count(ctx)
		require.NoError(t, err)

		_, err = persons.Create(ctx, PersonInput{Name: "Ghost", TagIDs: []string{"no-such-tag"}})
		require.Error(t, err)
		assert.True(t, apperr.IsStoreError(err))

		after, err := persons.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, before, after, "no partial writes")
	})
}

func TestPersonUpdate(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	persons := NewPersonService(st)
	tags := NewTagService(st)

	t.Run("unknown id fails with not found", func(t *testing.T) {
		_, err := persons.Update(ctx, PersonUpdateInput{ID: "no-such-id", PersonInput: PersonInput{Name: "X"}})
		assert.True(t, apperr.IsNotFound(err))
	})

	t.Run("re-validates the name", func(t *testing.T) {
		created, err := persons.Create(ctx, PersonInput{Name: "Alice"})
		require.NoError(t, err)

		_, err = persons.Update(ctx, PersonUpdateInput{ID: created.ID, PersonInput: PersonInput{Name: "  "}})
		assert.True(t, apperr.IsValidation(err))
	})

	t.Run("replaces the full tag set", func(t *testing.T) {
		ids, err := tags.FindOrCreateByNames(ctx, []string{"a", "b", "c"})
		require.NoError(t, err)
		idA, idB, idC := ids[0], ids[1], ids[2]

		created, err := persons.Create(ctx, PersonInput{Name: "Bob", TagIDs: []string{idA, idB}})
		require.NoError(t, err)

		updated, err := persons.Update(ctx, PersonUpdateInput{
			ID:          created.ID,
			PersonInput: PersonInput{Name: "Bob", TagIDs: []string{idB, idC}},
		})
		require.NoError(t, err)

		require.Len(t, updated.Tags, 2)
		got := []string{updated.Tags[0].ID, updated.Tags[1].ID}
		assert.ElementsMatch(t, []string{idB, idC}, got, "old associations outside the new set are removed")
	})

	t.Run("refreshes updatedAt and rewrites optional fields", func(t *testing.T) {
		created, err := persons.Create(ctx, PersonInput{Name: "Carol", Company: strPtr("ACME")})
		require.NoError(t, err)

		time.Sleep(2 * time.Millisecond)

		updated, err := persons.Update(ctx, PersonUpdateInput{
			ID:          created.ID,
			PersonInput: PersonInput{Name: "Carol", Memo: strPtr("moved on")},
		})
		require.NoError(t, err)

		assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))
		assert.Nil(t, updated.Company, "a nil pointer stores NULL")
		assert.Equal(t, "moved on", *updated.Memo)
	})
}

func TestPersonDelete(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	persons := NewPersonService(st)
	tags := NewTagService(st)
	events := NewEventService(st)

	t.Run("unknown id fails with not found", func(t *testing.T) {
		err := persons.Delete(ctx, "no-such-id")
		assert.True(t, apperr.IsNotFound(err))
	})

	t.Run("cascades junction rows", func(t *testing.T) {
		tagIDs, err := tags.FindOrCreateByNames(ctx, []string{"go"})
		require.NoError(t, err)
		person, err := persons.Create(ctx, PersonInput{Name: "Alice", TagIDs: tagIDs})
		require.NoError(t, err)
		event, err := events.Create(ctx, EventInput{Name: "Meetup"})
		require.NoError(t, err)
		require.NoError(t, events.AddPersonToEvent(ctx, person.ID, event.ID))

		require.NoError(t, persons.Delete(ctx, person.ID))

		fetched, err := persons.FindByID(ctx, person.ID)
		require.NoError(t, err)
		assert.Nil(t, fetched)

		count, err := events.GetParticipantCount(ctx, event.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, count, "event junction rows are removed")

		tag, err := tags.FindByName(ctx, "go")
		require.NoError(t, err)
		assert.NotNil(t, tag, "tags themselves survive")
	})
}

func TestPersonFindMany(t *testing.T) {
	ctx := context.Background()
	persons := NewPersonService(newTestStore(t))

	mk := func(name string, company *string) {
		t.Helper()
		_, err := persons.Create(ctx, PersonInput{Name: name, Company: company})
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}

	mk("Alice", strPtr("ACME"))
	mk("Bob", strPtr("Initech"))
	mk("Alina", strPtr("ACME"))

	t.Run("no filter returns all, newest first", func(t *testing.T) {
		all, err := persons.FindMany(ctx, nil)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, "Alina", all[0].Name)
		assert.Equal(t, "Bob", all[1].Name)
		assert.Equal(t, "Alice", all[2].Name)
	})

	t.Run("filters by name substring", func(t *testing.T) {
		found, err := persons.FindMany(ctx, &PersonFilter{Name: "Ali"})
		require.NoError(t, err)
		require.Len(t, found, 2)
	})

	t.Run("combining filters narrows with AND", func(t *testing.T) {
		found, err := persons.FindMany(ctx, &PersonFilter{Name: "Ali", Company: "ACME"})
		require.NoError(t, err)
		require.Len(t, found, 2)

		found, err = persons.FindMany(ctx, &PersonFilter{Name: "Bob", Company: "ACME"})
		require.NoError(t, err)
		assert.Empty(t, found)
	})
}

func TestPersonFindByTagID(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	persons := NewPersonService(st)
	tags := NewTagService(st)

	ids, err := tags.FindOrCreateByNames(ctx, []string{"go"})
	require.NoError(t, err)

	_, err = persons.Create(ctx, PersonInput{Name: "Alice", TagIDs: ids})
	require.NoError(t, err)
	_, err = persons.Create(ctx, PersonInput{Name: "Bob"})
	require.NoError(t, err)

	tagged, err := persons.FindByTagID(ctx, ids[0])
	require.NoError(t, err)
	require.Len(t, tagged, 1)
	assert.Equal(t, "Alice", tagged[0].Name)
}

func TestPersonRelations(t *testing.T) {
	ctx := context.Background()
	persons := NewPersonService(newTestStore(t))

	alice, err := persons.Create(ctx, PersonInput{Name: "Alice"})
	require.NoError(t, err)
	bob, err := persons.Create(ctx, PersonInput{Name: "Bob"})
	require.NoError(t, err)

	t.Run("rejects an empty relation type", func(t *testing.T) {
		err := persons.AddRelation(ctx, alice.ID, bob.ID, "  ")
		assert.True(t, apperr.IsValidation(err))
	})

	t.Run("rejects unknown people", func(t *testing.T) {
		err := persons.AddRelation(ctx, alice.ID, "no-such-id", "colleague")
		assert.True(t, apperr.IsNotFound(err))
	})

	t.Run("adding is idempotent", func(t *testing.T) {
		require.NoError(t, persons.AddRelation(ctx, alice.ID, bob.ID, "colleague"))
		require.NoError(t, persons.AddRelation(ctx, alice.ID, bob.ID, "colleague"))

		fetched, err := persons.FindByID(ctx, alice.ID)
		require.NoError(t, err)
		require.Len(t, fetched.Relations, 1)
		assert.Equal(t, bob.ID, fetched.Relations[0].TargetPersonID)
		assert.Equal(t, "colleague", fetched.Relations[0].RelationType)
	})

	t.Run("removing is idempotent", func(t *testing.T) {
		require.NoError(t, persons.RemoveRelation(ctx, alice.ID, bob.ID, "colleague"))
		require.NoError(t, persons.RemoveRelation(ctx, alice.ID, bob.ID, "colleague"))

		fetched, err := persons.FindByID(ctx, alice.ID)
		require.NoError(t, err)
		assert.Empty(t, fetched.Relations)
	})
}
