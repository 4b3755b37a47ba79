package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/porchlight-app/server/internal/helpers"
	"github.com/porchlight-app/server/internal/models"
)

func TestRegisterDeduplicatesTokens(t *testing.T) {
	_, _, _, _, push := newTestServices(t)
	me := helpers.Identity{UID: "me-1"}

	record, err := push.Register(context.Background(), me, &PushRegisterInput{Token: "tok-b", Platform: "iOS"})
	require.NoError(t, err)
	record, err = push.Register(context.Background(), me, &PushRegisterInput{Token: "tok-a", Platform: "android"})
	require.NoError(t, err)
	record, err = push.Register(context.Background(), me, &PushRegisterInput{Token: "tok-b", Platform: "ios"})
	require.NoError(t, err)

	assert.Equal(t, []string{"tok-a", "tok-b"}, record.Tokens)
	assert.Equal(t, "ios", record.Platforms["tok-b"])
	assert.Equal(t, "android", record.Platforms["tok-a"])
}

func TestRegisterDefaultsPlatform(t *testing.T) {
	_, _, _, _, push := newTestServices(t)
	me := helpers.Identity{UID: "me-1"}

	record, err := push.Register(context.Background(), me, &PushRegisterInput{Token: "tok-1"})
	require.NoError(t, err)
	assert.Equal(t, "unknown", record.Platforms["tok-1"])
}

func TestRegisterRequiresToken(t *testing.T) {
	_, _, _, _, push := newTestServices(t)

	_, err := push.Register(context.Background(), helpers.Identity{UID: "me-1"}, &PushRegisterInput{})
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "token", verr.Field)
}

func TestRegisterOnBehalfRequiresAdmin(t *testing.T) {
	_, _, _, _, push := newTestServices(t)

	_, err := push.Register(context.Background(), helpers.Identity{UID: "me-1"}, &PushRegisterInput{
		Token: "tok-1",
		UID:   "someone-else",
	})
	assert.ErrorIs(t, err, models.ErrForbidden)

	admin := helpers.Identity{UID: "admin-1", Admin: true}
	record, err := push.Register(context.Background(), admin, &PushRegisterInput{
		Token: "tok-1",
		UID:   "someone-else",
	})
	require.NoError(t, err)
	assert.Equal(t, "someone-else", record.UID)
}

func TestGetAbsentRecordReadsEmpty(t *testing.T) {
	_, _, _, _, push := newTestServices(t)

	record, err := push.Get(context.Background(), helpers.Identity{UID: "me-1"}, "")
	require.NoError(t, err)
	assert.Equal(t, "me-1", record.UID)
	assert.Empty(t, record.Tokens)

	_, err = push.Get(context.Background(), helpers.Identity{UID: "me-1"}, "someone-else")
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestUnregisterIsIdempotent(t *testing.T) {
	_, _, _, _, push := newTestServices(t)
	me := helpers.Identity{UID: "me-1"}

	_, err := push.Register(context.Background(), me, &PushRegisterInput{Token: "tok-1"})
	require.NoError(t, err)

	record, err := push.Unregister(context.Background(), me, "tok-1")
	require.NoError(t, err)
	assert.Empty(t, record.Tokens)
	assert.NotContains(t, record.Platforms, "tok-1")

	// Second removal and removal without any record are both no-ops.
	_, err = push.Unregister(context.Background(), me, "tok-1")
	require.NoError(t, err)
	_, err = push.Unregister(context.Background(), helpers.Identity{UID: "fresh"}, "tok-9")
	require.NoError(t, err)
}
