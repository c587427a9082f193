package service_test

import (
	"context"
	"testing"

	"docflow/internal/model"
	"docflow/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttachCommentNotifiesCounterparty(t *testing.T) {
	env := setupEnv(t)
	doc := env.createDocument(t, "alice", "bob")

	docID := mustParse(t, doc.ID)
	stepID := mustParse(t, doc.Approvals[0].ID)

	// Initiator comments: the step's approver hears about it
	comment, err := env.comments.Attach(context.Background(), docID, stepID, env.userID("dave"), "please prioritize")
	require.NoError(t, err)
	assert.Equal(t, "please prioritize", comment.Content)
	assert.Equal(t, doc.Approvals[0].ID, comment.ApprovalID)

	aliceNotifs, _, err := env.notifications.ListForUser(context.Background(), env.userID("alice"), false, 1, 20)
	require.NoError(t, err)
	require.NotEmpty(t, aliceNotifs)
	assert.Equal(t, model.NotifyComment, aliceNotifs[0].Type)

	// Approver comments back: the initiator hears about it
	_, err = env.comments.Attach(context.Background(), docID, stepID, env.userID("alice"), "needs a second quote")
	require.NoError(t, err)

	daveNotifs, _, err := env.notifications.ListForUser(context.Background(), env.userID("dave"), false, 1, 20)
	require.NoError(t, err)
	require.NotEmpty(t, daveNotifs)
	assert.Equal(t, model.NotifyComment, daveNotifs[0].Type)

	actions := env.auditActions(t, doc)
	assert.Equal(t, []string{model.AuditCreated, model.AuditCommented, model.AuditCommented}, actions)
}

func TestAttachCommentToForeignApproval(t *testing.T) {
	env := setupEnv(t)
	doc := env.createDocument(t, "alice")
	other := env.createDocument(t, "bob")

	_, err := env.comments.Attach(context.Background(),
		mustParse(t, doc.ID), mustParse(t, other.Approvals[0].ID),
		env.userID("dave"), "wrong door")
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestListCommentsForApproval(t *testing.T) {
	env := setupEnv(t)
	doc := env.createDocument(t, "alice", "bob")

	docID := mustParse(t, doc.ID)
	firstStep := mustParse(t, doc.Approvals[0].ID)
	secondStep := mustParse(t, doc.Approvals[1].ID)

	_, err := env.comments.Attach(context.Background(), docID, firstStep, env.userID("dave"), "context for alice")
	require.NoError(t, err)
	_, err = env.comments.Attach(context.Background(), docID, secondStep, env.userID("dave"), "context for bob")
	require.NoError(t, err)

	comments, err := env.comments.ListForApproval(context.Background(), docID, secondStep)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "context for bob", comments[0].Content)
	assert.Equal(t, doc.Approvals[1].ID, comments[0].ApprovalID)

	// A step of another document is invisible through this document
	other := env.createDocument(t, "carol")
	_, err = env.comments.ListForApproval(context.Background(), docID, mustParse(t, other.Approvals[0].ID))
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestCommentsAreListedOldestFirst(t *testing.T) {
	env := setupEnv(t)
	doc := env.createDocument(t, "alice")

	docID := mustParse(t, doc.ID)
	stepID := mustParse(t, doc.Approvals[0].ID)

	for _, text := range []string{"first", "second", "third"} {
		_, err := env.comments.Attach(context.Background(), docID, stepID, env.userID("dave"), text)
		require.NoError(t, err)
	}

	comments, total, err := env.comments.ListForDocument(context.Background(), docID, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, comments, 3)
	assert.Equal(t, "first", comments[0].Content)
	assert.Equal(t, "third", comments[2].Content)
}
