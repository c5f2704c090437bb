package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSignIn(t *testing.T) {
	t.Run("flat user shape", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/api/auth/sign-in/email", r.URL.Path)
			require.Equal(t, http.MethodPost, r.Method)
			w.Write([]byte(`{"user":{"id":"u-1"}}`))
		}))
		defer srv.Close()

		userID, err := New(srv.URL).SignIn(context.Background(), "a@b.c", "secret")
		require.NoError(t, err)
		require.Equal(t, "u-1", userID)
	})

	t.Run("nested data shape wins", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"user":{"id":"outer"},"data":{"user":{"id":"inner"}}}`))
		}))
		defer srv.Close()

		userID, err := New(srv.URL).SignIn(context.Background(), "a@b.c", "secret")
		require.NoError(t, err)
		require.Equal(t, "inner", userID)
	})

	t.Run("non-2xx maps to invalid credentials", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		_, err := New(srv.URL).SignIn(context.Background(), "a@b.c", "wrong")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unparseable body maps to invalid credentials", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		}))
		defer srv.Close()

		_, err := New(srv.URL).SignIn(context.Background(), "a@b.c", "secret")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("missing user id maps to invalid credentials", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"ok":true}`))
		}))
		defer srv.Close()

		_, err := New(srv.URL).SignIn(context.Background(), "a@b.c", "secret")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unreachable provider is not an auth failure", func(t *testing.T) {
		_, err := New("http://127.0.0.1:1").SignIn(context.Background(), "a@b.c", "secret")
		require.Error(t, err)
		require.NotErrorIs(t, err, ErrInvalidCredentials)
		require.Contains(t, err.Error(), "identity provider unreachable")
	})
}

func TestSignUp(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/api/auth/sign-up/email", r.URL.Path)
			w.Write([]byte(`{"user":{"id":"u-1"}}`))
		}))
		defer srv.Close()

		err := New(srv.URL).SignUp(context.Background(), "a@b.c", "longenough", "Alice", "")
		require.NoError(t, err)
	})

	t.Run("rejection surfaces provider error field", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"Email already in use"}`))
		}))
		defer srv.Close()

		err := New(srv.URL).SignUp(context.Background(), "a@b.c", "longenough", "", "")
		var upErr *SignUpError
		require.ErrorAs(t, err, &upErr)
		require.Equal(t, "Email already in use", upErr.Message)
	})

	t.Run("rejection surfaces provider message field", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			w.Write([]byte(`{"message":"Password policy violation"}`))
		}))
		defer srv.Close()

		err := New(srv.URL).SignUp(context.Background(), "a@b.c", "longenough", "", "")
		var upErr *SignUpError
		require.ErrorAs(t, err, &upErr)
		require.Equal(t, "Password policy violation", upErr.Message)
	})

	t.Run("rejection with unparseable body uses generic message", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("boom"))
		}))
		defer srv.Close()

		err := New(srv.URL).SignUp(context.Background(), "a@b.c", "longenough", "", "")
		var upErr *SignUpError
		require.ErrorAs(t, err, &upErr)
		require.Equal(t, "Sign up failed.", upErr.Message)
	})
}
