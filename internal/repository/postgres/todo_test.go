package postgres

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icntodo/todos/internal/apperrors"
	"github.com/icntodo/todos/internal/models"
	"github.com/icntodo/todos/internal/repository"
	"github.com/icntodo/todos/internal/testutil"
)

func Test_TodoRepo(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	createUser := func(t *testing.T, tx pgx.Tx, username string) models.User {
		users := UserRepo{DB: tx}
		user, err := users.CreateUser(t.Context(), username, "hashed-password")
		require.NoError(t, err, "user should be created without errors")
		return user
	}

	t.Run("create todo ok", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			user := createUser(t, tx, "alice")
			repo := TodoRepo{DB: tx}

			got, err := repo.CreateTodo(t.Context(), user.ID, "buy milk")

			require.NoError(t, err)
			require.NotEqual(t, uuid.Nil, got.ID, "todo id should be generated")
			require.Equal(t, user.ID, got.UserID)
			require.Equal(t, "buy milk", got.Text)
			require.WithinDuration(t, time.Now(), got.CreatedAt, 50*time.Millisecond)
			require.Nil(t, got.UpdatedAt, "fresh todo should have no updated_at")
			require.Nil(t, got.DeletedAt, "fresh todo should have no deleted_at")
		})
	})

	t.Run("list todos", func(t *testing.T) {
		t.Run("only own todos", func(t *testing.T) {
			testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
				alice := createUser(t, tx, "alice")
				bob := createUser(t, tx, "bob")
				repo := TodoRepo{DB: tx}

				_, err := repo.CreateTodo(t.Context(), alice.ID, "alice todo")
				require.NoError(t, err)
				_, err = repo.CreateTodo(t.Context(), bob.ID, "bob todo")
				require.NoError(t, err)

				got, err := repo.ListTodos(t.Context(), alice.ID, repository.ListTodosParams{Limit: 20})

				require.NoError(t, err)
				require.Len(t, got, 1, "only own todos should be listed")
				require.Equal(t, "alice todo", got[0].Text)
			})
		})

		t.Run("pagination", func(t *testing.T) {
			testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
				user := createUser(t, tx, "alice")
				repo := TodoRepo{DB: tx}

				for i := range 5 {
					_, err := repo.CreateTodo(t.Context(), user.ID, fmt.Sprintf("todo %d", i))
					require.NoError(t, err)
				}

				first, err := repo.ListTodos(t.Context(), user.ID, repository.ListTodosParams{Limit: 2, Offset: 0})
				require.NoError(t, err)
				second, err := repo.ListTodos(t.Context(), user.ID, repository.ListTodosParams{Limit: 2, Offset: 2})
				require.NoError(t, err)

				require.Len(t, first, 2)
				require.Len(t, second, 2)
				require.Equal(t, "todo 0", first[0].Text, "todos should be ordered by creation")
				require.Equal(t, "todo 2", second[0].Text, "offset should skip the first page")
			})
		})

		t.Run("deleted todos are hidden by default", func(t *testing.T) {
			testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
				user := createUser(t, tx, "alice")
				repo := TodoRepo{DB: tx}

				kept, err := repo.CreateTodo(t.Context(), user.ID, "kept")
				require.NoError(t, err)
				deleted, err := repo.CreateTodo(t.Context(), user.ID, "deleted")
				require.NoError(t, err)
				_, err = repo.DeleteTodo(t.Context(), user.ID, deleted.ID)
				require.NoError(t, err)

				got, err := repo.ListTodos(t.Context(), user.ID, repository.ListTodosParams{Limit: 20})
				require.NoError(t, err)
				require.Len(t, got, 1)
				require.Equal(t, kept.ID, got[0].ID)

				all, err := repo.ListTodos(t.Context(), user.ID, repository.ListTodosParams{Limit: 20, IncludeDeleted: true})
				require.NoError(t, err)
				require.Len(t, all, 2, "IncludeDeleted should surface soft deleted rows")
			})
		})

		t.Run("search is case insensitive", func(t *testing.T) {
			testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
				user := createUser(t, tx, "alice")
				repo := TodoRepo{DB: tx}

				_, err := repo.CreateTodo(t.Context(), user.ID, "Buy Milk")
				require.NoError(t, err)
				_, err = repo.CreateTodo(t.Context(), user.ID, "walk the dog")
				require.NoError(t, err)

				got, err := repo.ListTodos(t.Context(), user.ID, repository.ListTodosParams{Limit: 20, Search: "milk"})

				require.NoError(t, err)
				require.Len(t, got, 1)
				require.Equal(t, "Buy Milk", got[0].Text)
			})
		})
	})

	t.Run("update todo", func(t *testing.T) {
		t.Run("change text", func(t *testing.T) {
			testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
				user := createUser(t, tx, "alice")
				repo := TodoRepo{DB: tx}
				created, err := repo.CreateTodo(t.Context(), user.ID, "old text")
				require.NoError(t, err)

				newText := "new text"
				got, err := repo.UpdateTodo(t.Context(), user.ID, created.ID, &newText)

				require.NoError(t, err)
				require.Equal(t, "new text", got.Text)
				require.NotNil(t, got.UpdatedAt, "updated_at should be set")
				require.WithinDuration(t, time.Now(), *got.UpdatedAt, 50*time.Millisecond)
			})
		})

		t.Run("nil text keeps current one", func(t *testing.T) {
			testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
				user := createUser(t, tx, "alice")
				repo := TodoRepo{DB: tx}
				created, err := repo.CreateTodo(t.Context(), user.ID, "stays")
				require.NoError(t, err)

				got, err := repo.UpdateTodo(t.Context(), user.ID, created.ID, nil)

				require.NoError(t, err)
				require.Equal(t, "stays", got.Text)
				require.NotNil(t, got.UpdatedAt)
			})
		})

		t.Run("foreign todo behaves like missing", func(t *testing.T) {
			testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
				alice := createUser(t, tx, "alice")
				bob := createUser(t, tx, "bob")
				repo := TodoRepo{DB: tx}
				created, err := repo.CreateTodo(t.Context(), alice.ID, "alice todo")
				require.NoError(t, err)

				text := "hijacked"
				_, err = repo.UpdateTodo(t.Context(), bob.ID, created.ID, &text)

				require.Error(t, err)
				assert.ErrorIs(t, err, apperrors.ErrTodoNotFound)
			})
		})
	})

	t.Run("delete todo", func(t *testing.T) {
		t.Run("soft delete ok", func(t *testing.T) {
			testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
				user := createUser(t, tx, "alice")
				repo := TodoRepo{DB: tx}
				created, err := repo.CreateTodo(t.Context(), user.ID, "doomed")
				require.NoError(t, err)

				got, err := repo.DeleteTodo(t.Context(), user.ID, created.ID)

				require.NoError(t, err)
				require.NotNil(t, got.DeletedAt, "deleted_at should be set")
				require.WithinDuration(t, time.Now(), *got.DeletedAt, 50*time.Millisecond)
			})
		})

		t.Run("delete twice fails", func(t *testing.T) {
			testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
				user := createUser(t, tx, "alice")
				repo := TodoRepo{DB: tx}
				created, err := repo.CreateTodo(t.Context(), user.ID, "doomed")
				require.NoError(t, err)

				_, err = repo.DeleteTodo(t.Context(), user.ID, created.ID)
				require.NoError(t, err)

				_, err = repo.DeleteTodo(t.Context(), user.ID, created.ID)
				require.Error(t, err)
				assert.ErrorIs(t, err, apperrors.ErrTodoNotFound)
			})
		})

		t.Run("delete not existed todo", func(t *testing.T) {
			testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
				user := createUser(t, tx, "alice")
				repo := TodoRepo{DB: tx}

				_, err := repo.DeleteTodo(t.Context(), user.ID, uuid.New())

				require.Error(t, err)
				assert.ErrorIs(t, err, apperrors.ErrTodoNotFound)
			})
		})
	})
}
