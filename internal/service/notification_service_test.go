package service_test

import (
	"context"
	"testing"

	"docflow/internal/model"
	"docflow/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) notificationTypes(t *testing.T, user string) []string {
	t.Helper()

	notifications, _, err := e.notifications.ListForUser(context.Background(), e.userID(user), false, 1, 50)
	require.NoError(t, err)
	types := make([]string, 0, len(notifications))
	for _, n := range notifications {
		types = append(types, n.Type)
	}
	return types
}

func TestApprovalAdvancesNotifications(t *testing.T) {
	env := setupEnv(t)
	doc := env.createDocument(t, "alice", "bob")

	_, err := env.decide(t, doc, 0, "alice", service.DecisionApprove)
	require.NoError(t, err)

	// The next approver is asked for review, the initiator hears about
	// the progress.
	assert.Contains(t, env.notificationTypes(t, "bob"), model.NotifyApprovalRequest)
	assert.Contains(t, env.notificationTypes(t, "dave"), model.NotifyApprovalAction)

	_, err = env.decide(t, doc, 1, "bob", service.DecisionApprove)
	require.NoError(t, err)

	// Final approval: only the initiator is told, nobody is asked for more
	daveTypes := env.notificationTypes(t, "dave")
	assert.Len(t, daveTypes, 2)
	assert.NotContains(t, env.notificationTypes(t, "carol"), model.NotifyApprovalRequest)
}

func TestRejectionNotifiesInitiatorOnly(t *testing.T) {
	env := setupEnv(t)
	doc := env.createDocument(t, "alice", "bob")

	_, err := env.decide(t, doc, 0, "alice", service.DecisionReject)
	require.NoError(t, err)

	assert.Equal(t, []string{model.NotifyApprovalAction}, env.notificationTypes(t, "dave"))
	// Bob's step never became actionable, so he was never asked
	assert.Empty(t, env.notificationTypes(t, "bob"))
}

func TestUnreadCountAndMarkRead(t *testing.T) {
	env := setupEnv(t)
	env.createDocument(t, "alice")

	count, err := env.notifications.UnreadCount(context.Background(), env.userID("alice"))
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	notifications, _, err := env.notifications.ListForUser(context.Background(), env.userID("alice"), true, 1, 10)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	id := mustParse(t, notifications[0].ID)

	// Another user cannot acknowledge Alice's notification
	err = env.notifications.MarkRead(context.Background(), id, env.userID("bob"))
	assert.ErrorIs(t, err, service.ErrNotFound)

	require.NoError(t, env.notifications.MarkRead(context.Background(), id, env.userID("alice")))

	count, err = env.notifications.UnreadCount(context.Background(), env.userID("alice"))
	require.NoError(t, err)
	assert.Zero(t, count)
}
