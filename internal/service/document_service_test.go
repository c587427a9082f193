package service_test

import (
	"context"
	"testing"

	"docflow/internal/model"
	"docflow/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildChain(t *testing.T) {
	docID := uuid.New()
	a, b := uuid.New(), uuid.New()

	t.Run("dense 1-based sequence", func(t *testing.T) {
		chain, err := service.BuildChain(docID, []uuid.UUID{a, b, a})
		require.NoError(t, err)
		require.Len(t, chain, 3)
		for i, step := range chain {
			assert.Equal(t, model.SequenceBase+i, step.SequenceOrder)
			assert.Equal(t, model.ApprovalPending, step.Status)
			assert.Equal(t, docID, step.DocumentID)
		}
	})

	t.Run("empty sequence", func(t *testing.T) {
		_, err := service.BuildChain(docID, nil)
		assert.ErrorIs(t, err, service.ErrEmptyChain)
	})

	t.Run("consecutive duplicate approver", func(t *testing.T) {
		_, err := service.BuildChain(docID, []uuid.UUID{a, a, b})
		assert.ErrorIs(t, err, service.ErrDuplicateApprover)
	})
}

func TestCreateDocumentWithEmptyChain(t *testing.T) {
	env := setupEnv(t)

	_, err := env.documents.CreateDocument(context.Background(), env.userID("dave"), service.CreateDocumentRequest{
		Title: "no approvers",
	})
	assert.ErrorIs(t, err, service.ErrEmptyChain)
}

func TestCreateDocumentAuditsAndNotifies(t *testing.T) {
	env := setupEnv(t)
	doc := env.createDocument(t, "alice", "bob")

	assert.Equal(t, []string{model.AuditCreated}, env.auditActions(t, doc))

	// The first actionable approver is asked for review
	notifications, total, err := env.notifications.ListForUser(context.Background(), env.userID("alice"), true, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, model.NotifyApprovalRequest, notifications[0].Type)

	// The second approver hears nothing yet
	_, total, err = env.notifications.ListForUser(context.Background(), env.userID("bob"), true, 1, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestCreateDocumentFromTemplate(t *testing.T) {
	env := setupEnv(t)

	template, err := env.templates.CreateTemplate(context.Background(), service.CreateTemplateRequest{
		Name: "standard review",
		ApproverIDs: []string{
			env.userID("alice").String(),
			env.userID("bob").String(),
		},
	})
	require.NoError(t, err)

	doc, err := env.documents.CreateDocument(context.Background(), env.userID("dave"), service.CreateDocumentRequest{
		Title:      "templated",
		TemplateID: template.ID,
	})
	require.NoError(t, err)

	require.Len(t, doc.Approvals, 2)
	assert.Equal(t, env.userID("alice").String(), doc.Approvals[0].ApproverID)
	assert.Equal(t, env.userID("bob").String(), doc.Approvals[1].ApproverID)
	require.NotNil(t, doc.TemplateID)
	assert.Equal(t, template.ID, *doc.TemplateID)
}

func TestCreateDocumentFromEmptyTemplate(t *testing.T) {
	env := setupEnv(t)

	// A template with zero steps can only exist through direct writes,
	// but the chain builder still refuses it.
	empty := model.Template{Name: "hollow"}
	require.NoError(t, env.db.Create(&empty).Error)

	_, err := env.documents.CreateDocument(context.Background(), env.userID("dave"), service.CreateDocumentRequest{
		Title:      "from hollow template",
		TemplateID: empty.ID.String(),
	})
	assert.ErrorIs(t, err, service.ErrInvalidTemplate)
}

func TestUpdateDocumentRequiresInitiator(t *testing.T) {
	env := setupEnv(t)
	doc := env.createDocument(t, "alice")

	_, err := env.documents.UpdateDocument(context.Background(), mustParse(t, doc.ID), env.userID("alice"),
		service.UpdateDocumentRequest{Title: "hijacked"})
	assert.ErrorIs(t, err, service.ErrNotAuthorized)

	updated, err := env.documents.UpdateDocument(context.Background(), mustParse(t, doc.ID), env.userID("dave"),
		service.UpdateDocumentRequest{Title: "amended title"})
	require.NoError(t, err)
	assert.Equal(t, "amended title", updated.Title)

	actions := env.auditActions(t, doc)
	assert.Equal(t, model.AuditModified, actions[len(actions)-1])
}

func TestResubmitReopensRevisionStep(t *testing.T) {
	env := setupEnv(t)
	doc := env.createDocument(t, "alice", "bob", "carol")

	_, err := env.decide(t, doc, 0, "alice", service.DecisionApprove)
	require.NoError(t, err)
	_, err = env.decide(t, doc, 1, "bob", service.DecisionRequestRevision)
	require.NoError(t, err)

	// Only the initiator may resubmit
	_, err = env.documents.Resubmit(context.Background(), mustParse(t, doc.ID), env.userID("bob"))
	assert.ErrorIs(t, err, service.ErrNotAuthorized)

	reopened, err := env.documents.Resubmit(context.Background(), mustParse(t, doc.ID), env.userID("dave"))
	require.NoError(t, err)
	assert.Equal(t, model.DocStatusInProgress, reopened.Status)
	assert.Equal(t, model.ApprovalApproved, reopened.Approvals[0].Status)
	assert.Equal(t, model.ApprovalPending, reopened.Approvals[1].Status)

	// Bob is back in the loop and can now complete the chain
	_, err = env.decide(t, doc, 1, "bob", service.DecisionApprove)
	require.NoError(t, err)
	_, err = env.decide(t, doc, 2, "carol", service.DecisionApprove)
	require.NoError(t, err)
	assert.Equal(t, model.DocStatusApproved, env.reload(t, doc).Status)
}

func TestResubmitStepOneRevisionIsPending(t *testing.T) {
	env := setupEnv(t)
	doc := env.createDocument(t, "alice", "bob")

	_, err := env.decide(t, doc, 0, "alice", service.DecisionRequestRevision)
	require.NoError(t, err)

	// No step is approved, so the reopened chain is untouched again and
	// the document must agree with the aggregator, not jump to IN_PROGRESS.
	reopened, err := env.documents.Resubmit(context.Background(), mustParse(t, doc.ID), env.userID("dave"))
	require.NoError(t, err)
	assert.Equal(t, model.DocStatusPending, reopened.Status)
	assert.Equal(t, model.ApprovalPending, reopened.Approvals[0].Status)

	// The repair endpoint finds nothing to repair
	status, err := env.approvals.Recompute(context.Background(), mustParse(t, doc.ID))
	require.NoError(t, err)
	assert.Equal(t, model.DocStatusPending, status)

	_, err = env.decide(t, doc, 0, "alice", service.DecisionApprove)
	require.NoError(t, err)
	assert.Equal(t, model.DocStatusInProgress, env.reload(t, doc).Status)
}

func TestResubmitRequiresRevisionRequested(t *testing.T) {
	env := setupEnv(t)
	doc := env.createDocument(t, "alice")

	_, err := env.documents.Resubmit(context.Background(), mustParse(t, doc.ID), env.userID("dave"))
	assert.ErrorIs(t, err, service.ErrNotResubmittable)
}

func TestListDocumentsFilters(t *testing.T) {
	env := setupEnv(t)
	doc := env.createDocument(t, "alice")
	env.createDocument(t, "bob")

	_, err := env.decide(t, doc, 0, "alice", service.DecisionApprove)
	require.NoError(t, err)

	approved, total, err := env.documents.ListDocuments(context.Background(), service.DocumentFilter{
		Status: model.DocStatusApproved, Page: 1, Limit: 10,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, approved, 1)
	assert.Equal(t, doc.ID, approved[0].ID)

	_, total, err = env.documents.ListDocuments(context.Background(), service.DocumentFilter{
		InitiatorID: env.userID("dave"), Page: 1, Limit: 10,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
}
