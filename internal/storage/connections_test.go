package storage_test

import (
	"campusnet/backend/internal/models"
	"campusnet/backend/internal/storage"
	"campusnet/backend/internal/storage/storagetest"
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateConnectionRequest_Self(t *testing.T) {
	s := storagetest.New(t)

	_, err := s.CreateConnectionRequest(context.Background(), "x", "x")

	assert.ErrorIs(t, err, storage.ErrValidation)
}

func TestCreateConnectionRequest_MissingIDs(t *testing.T) {
	s := storagetest.New(t)

	_, err := s.CreateConnectionRequest(context.Background(), "", "b")

	assert.ErrorIs(t, err, storage.ErrValidation)
}

func TestCreateConnectionRequest_Pending(t *testing.T) {
	s := storagetest.New(t)
	ctx := context.Background()

	req, err := s.CreateConnectionRequest(ctx, "a", "b")

	require.NoError(t, err)
	assert.NotEmpty(t, req.ID)
	assert.Equal(t, "a", req.SenderID)
	assert.Equal(t, "b", req.ReceiverID)
	assert.Equal(t, models.ConnectionStatusPending, req.Status)
	assert.False(t, req.CreatedAt.IsZero())
}

func TestCreateConnectionRequest_DuplicateEitherDirection(t *testing.T) {
	s := storagetest.New(t)
	ctx := context.Background()

	_, err := s.CreateConnectionRequest(ctx, "a", "b")
	require.NoError(t, err)

	_, err = s.CreateConnectionRequest(ctx, "a", "b")
	assert.ErrorIs(t, err, storage.ErrConflict)

	_, err = s.CreateConnectionRequest(ctx, "b", "a")
	assert.ErrorIs(t, err, storage.ErrConflict)
}

func TestCreateConnectionRequest_AlreadyConnected(t *testing.T) {
	s := storagetest.New(t)
	storagetest.Connect(t, s, "a", "b")

	_, err := s.CreateConnectionRequest(context.Background(), "b", "a")

	assert.ErrorIs(t, err, storage.ErrConflict)
}

func TestCreateConnectionRequest_AfterRejection(t *testing.T) {
	s := storagetest.New(t)
	ctx := context.Background()

	req, err := s.CreateConnectionRequest(ctx, "a", "b")
	require.NoError(t, err)
	_, err = s.RejectConnectionRequest(ctx, req.ID, "b")
	require.NoError(t, err)

	again, err := s.CreateConnectionRequest(ctx, "a", "b")

	require.NoError(t, err)
	assert.NotEqual(t, req.ID, again.ID)
}

func TestAcceptConnectionRequest(t *testing.T) {
	s := storagetest.New(t)
	ctx := context.Background()

	req, err := s.CreateConnectionRequest(ctx, "sender", "receiver")
	require.NoError(t, err)

	connected, err := s.AreConnected(ctx, "sender", "receiver")
	require.NoError(t, err)
	assert.False(t, connected)

	accepted, err := s.AcceptConnectionRequest(ctx, req.ID, "receiver")
	require.NoError(t, err)
	assert.Equal(t, models.ConnectionStatusAccepted, accepted.Status)

	for _, pair := range [][2]string{{"sender", "receiver"}, {"receiver", "sender"}} {
		connected, err := s.AreConnected(ctx, pair[0], pair[1])
		require.NoError(t, err)
		assert.True(t, connected, "%s -> %s", pair[0], pair[1])
	}

	_, err = s.AcceptConnectionRequest(ctx, req.ID, "receiver")
	assert.ErrorIs(t, err, storage.ErrConflict)
	_, err = s.RejectConnectionRequest(ctx, req.ID, "receiver")
	assert.ErrorIs(t, err, storage.ErrConflict)
}

func TestAcceptConnectionRequest_Guards(t *testing.T) {
	s := storagetest.New(t)
	ctx := context.Background()

	req, err := s.CreateConnectionRequest(ctx, "sender", "receiver")
	require.NoError(t, err)

	_, err = s.AcceptConnectionRequest(ctx, "missing", "receiver")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = s.AcceptConnectionRequest(ctx, req.ID, "sender")
	assert.ErrorIs(t, err, storage.ErrUnauthorized)

	_, err = s.RejectConnectionRequest(ctx, req.ID, "stranger")
	assert.ErrorIs(t, err, storage.ErrUnauthorized)

	connected, err := s.AreConnected(ctx, "sender", "receiver")
	require.NoError(t, err)
	assert.False(t, connected)
}

func TestRejectConnectionRequest(t *testing.T) {
	s := storagetest.New(t)
	ctx := context.Background()

	req, err := s.CreateConnectionRequest(ctx, "a", "b")
	require.NoError(t, err)

	rejected, err := s.RejectConnectionRequest(ctx, req.ID, "b")
	require.NoError(t, err)
	assert.Equal(t, models.ConnectionStatusRejected, rejected.Status)

	connected, err := s.AreConnected(ctx, "a", "b")
	require.NoError(t, err)
	assert.False(t, connected)

	_, err = s.AcceptConnectionRequest(ctx, req.ID, "b")
	assert.ErrorIs(t, err, storage.ErrConflict)
}

func TestAcceptConnectionRequest_ConcurrentDuplicates(t *testing.T) {
	s := storagetest.New(t)
	ctx := context.Background()

	req, err := s.CreateConnectionRequest(ctx, "a", "b")
	require.NoError(t, err)

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.AcceptConnectionRequest(ctx, req.ID, "b")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, storage.ErrConflict)
	}
	assert.Equal(t, 1, succeeded)

	ids, err := s.ListConnectionIDs(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids)
}

func TestAreConnected_Symmetric(t *testing.T) {
	s := storagetest.New(t)
	ctx := context.Background()
	storagetest.Connect(t, s, "u1", "u2")
	storagetest.Connect(t, s, "u3", "u1")

	users := []string{"u1", "u2", "u3", "u4"}
	for _, a := range users {
		for _, b := range users {
			ab, err := s.AreConnected(ctx, a, b)
			require.NoError(t, err)
			ba, err := s.AreConnected(ctx, b, a)
			require.NoError(t, err)
			assert.Equal(t, ab, ba, "%s/%s", a, b)
		}
	}
}

func TestAreConnected_IdsContainingSeparator(t *testing.T) {
	s := storagetest.New(t)
	ctx := context.Background()
	storagetest.Connect(t, s, "a:b", "c")

	connected, err := s.AreConnected(ctx, "a", "b:c")
	require.NoError(t, err)
	assert.False(t, connected)

	connected, err = s.AreConnected(ctx, "c", "a:b")
	require.NoError(t, err)
	assert.True(t, connected)

	req, err := s.CreateConnectionRequest(ctx, "a", "b:c")
	require.NoError(t, err)
	assert.Equal(t, models.ConnectionStatusPending, req.Status)
}

func TestListPendingAndOutgoing(t *testing.T) {
	s := storagetest.New(t)
	ctx := context.Background()

	r1, err := s.CreateConnectionRequest(ctx, "a", "me")
	require.NoError(t, err)
	r2, err := s.CreateConnectionRequest(ctx, "me", "b")
	require.NoError(t, err)
	r3, err := s.CreateConnectionRequest(ctx, "c", "me")
	require.NoError(t, err)
	_, err = s.RejectConnectionRequest(ctx, r3.ID, "me")
	require.NoError(t, err)

	pending, err := s.ListPendingRequests(ctx, "me")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, r1.ID, pending[0].ID)

	outgoing, err := s.ListOutgoingRequests(ctx, "me")
	require.NoError(t, err)
	require.Len(t, outgoing, 1)
	assert.Equal(t, r2.ID, outgoing[0].ID)

	none, err := s.ListPendingRequests(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestListConnectionIDs(t *testing.T) {
	s := storagetest.New(t)
	ctx := context.Background()
	storagetest.Connect(t, s, "me", "zed")
	storagetest.Connect(t, s, "amy", "me")

	ids, err := s.ListConnectionIDs(ctx, "me")

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"zed", "amy"}, ids)
}

func TestImportConnections_Idempotent(t *testing.T) {
	s := storagetest.New(t)
	ctx := context.Background()
	storagetest.Connect(t, s, "me", "a")

	created, err := s.ImportConnections(ctx, "me", []string{"a", "b", "me", "", "c"})
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	created, err = s.ImportConnections(ctx, "me", []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Zero(t, created)

	connected, err := s.AreConnected(ctx, "c", "me")
	require.NoError(t, err)
	assert.True(t, connected)
}

func TestReconcileConnections_RepairsMissingEdge(t *testing.T) {
	s := storagetest.New(t)
	ctx := context.Background()
	req := storagetest.Connect(t, s, "a", "b")

	// Simulate a partial failure that lost the edge after the status write.
	require.NoError(t, s.DB.Where("pair_key = ?", req.PairKey).Delete(&models.Connection{}).Error)
	connected, err := s.AreConnected(ctx, "a", "b")
	require.NoError(t, err)
	require.False(t, connected)

	repaired, err := s.ReconcileConnections(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, repaired)

	connected, err = s.AreConnected(ctx, "b", "a")
	require.NoError(t, err)
	assert.True(t, connected)

	repaired, err = s.ReconcileConnections(ctx)
	require.NoError(t, err)
	assert.Zero(t, repaired)
}
