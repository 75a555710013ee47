package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/alokemajumder/rrweb-server/internal/domain"
)

func TestPlacer_Place(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	body := []byte(`{"sessionId":"s1"}`)

	t.Run("writes_then_signs_for_one_hour", func(t *testing.T) {
		store := new(MockStore)
		p := NewPlacer(store, fixedClock{now})

		put := store.On("PutObject", mock.Anything, "b1", "k1", body, "application/json").Return(nil).Once()
		store.On("PresignGetObject", mock.Anything, "b1", "k1", time.Hour).Return("https://signed", nil).Once().NotBefore(put)

		grant, err := p.Place(context.Background(), "b1", "k1", body)
		require.NoError(t, err)
		assert.Equal(t, "https://signed", grant.URL)
		assert.Equal(t, now.Add(3600*time.Second), grant.ExpiresAt)
		store.AssertExpectations(t)
	})

	t.Run("failed_write_never_signs", func(t *testing.T) {
		store := new(MockStore)
		p := NewPlacer(store, fixedClock{now})

		store.On("PutObject", mock.Anything, "b1", "k1", body, "application/json").Return(errors.New("s3: connection reset")).Once()

		grant, err := p.Place(context.Background(), "b1", "k1", body)
		assert.Empty(t, grant.URL)

		var ae *domain.AppError
		require.ErrorAs(t, err, &ae)
		assert.Equal(t, domain.CodeStorage, ae.Code)
		assert.Equal(t, domain.StageStore, ae.Stage)
		assert.Equal(t, domain.MsgStorage, ae.Message)
		assert.NotContains(t, ae.Message, "connection reset")
		store.AssertNotCalled(t, "PresignGetObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("sign_failure_is_storage_error", func(t *testing.T) {
		store := new(MockStore)
		p := NewPlacer(store, fixedClock{now})

		store.On("PutObject", mock.Anything, "b1", "k1", body, "application/json").Return(nil).Once()
		store.On("PresignGetObject", mock.Anything, "b1", "k1", time.Hour).Return("", errors.New("no credentials")).Once()

		_, err := p.Place(context.Background(), "b1", "k1", body)
		var ae *domain.AppError
		require.ErrorAs(t, err, &ae)
		assert.Equal(t, domain.CodeStorage, ae.Code)
		assert.Equal(t, domain.StageSign, ae.Stage)
	})
}
