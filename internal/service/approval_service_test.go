package service_test

import (
	"context"
	"testing"

	"docflow/internal/model"
	"docflow/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFullChainApproval(t *testing.T) {
	env := setupEnv(t)
	doc := env.createDocument(t, "alice", "bob", "carol")

	assert.Equal(t, model.DocStatusPending, doc.Status)

	for step, approver := range []string{"alice", "bob", "carol"} {
		decided, err := env.decide(t, doc, step, approver, service.DecisionApprove)
		require.NoError(t, err)
		assert.Equal(t, model.ApprovalApproved, decided.Status)
		assert.NotNil(t, decided.ApprovedAt)
	}

	final := env.reload(t, doc)
	assert.Equal(t, model.DocStatusApproved, final.Status)
	assert.NotNil(t, final.CompletedAt)
	for _, a := range final.Approvals {
		assert.Equal(t, model.ApprovalApproved, a.Status)
	}

	assert.Equal(t, []string{
		model.AuditCreated,
		model.AuditApproved,
		model.AuditApproved,
		model.AuditApproved,
	}, env.auditActions(t, doc))
}

func TestIntermediateApprovalIsInProgress(t *testing.T) {
	env := setupEnv(t)
	doc := env.createDocument(t, "alice", "bob")

	_, err := env.decide(t, doc, 0, "alice", service.DecisionApprove)
	require.NoError(t, err)

	assert.Equal(t, model.DocStatusInProgress, env.reload(t, doc).Status)
}

func TestDecideOutOfSequence(t *testing.T) {
	env := setupEnv(t)
	doc := env.createDocument(t, "alice", "bob", "carol")

	// Bob (step 2) cannot act before Alice (step 1)
	_, err := env.decide(t, doc, 1, "bob", service.DecisionApprove)
	assert.ErrorIs(t, err, service.ErrOutOfSequence)

	assert.Equal(t, model.DocStatusPending, env.reload(t, doc).Status)
	assert.Equal(t, []string{model.AuditCreated}, env.auditActions(t, doc))
}

func TestDecideTwiceIsAlreadyDecided(t *testing.T) {
	env := setupEnv(t)
	doc := env.createDocument(t, "alice", "bob")

	_, err := env.decide(t, doc, 0, "alice", service.DecisionApprove)
	require.NoError(t, err)

	_, err = env.decide(t, doc, 0, "alice", service.DecisionApprove)
	assert.ErrorIs(t, err, service.ErrAlreadyDecided)
}

func TestDecideWrongActor(t *testing.T) {
	env := setupEnv(t)
	doc := env.createDocument(t, "alice", "bob")

	_, err := env.decide(t, doc, 0, "bob", service.DecisionApprove)
	assert.ErrorIs(t, err, service.ErrNotAuthorized)
}

func TestDecideUnknownApproval(t *testing.T) {
	env := setupEnv(t)
	doc := env.createDocument(t, "alice")
	other := env.createDocument(t, "bob")

	// Approval exists but belongs to another document
	_, err := env.approvals.Decide(context.Background(),
		mustParse(t, doc.ID), mustParse(t, other.Approvals[0].ID),
		env.userID("alice"), service.DecideRequest{Decision: service.DecisionApprove})
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestRejectionFreezesChain(t *testing.T) {
	env := setupEnv(t)
	doc := env.createDocument(t, "alice", "bob", "carol")

	_, err := env.decide(t, doc, 0, "alice", service.DecisionApprove)
	require.NoError(t, err)
	_, err = env.decide(t, doc, 1, "bob", service.DecisionApprove)
	require.NoError(t, err)
	_, err = env.decide(t, doc, 2, "carol", service.DecisionReject)
	require.NoError(t, err)

	final := env.reload(t, doc)
	assert.Equal(t, model.DocStatusRejected, final.Status)
	assert.Nil(t, final.CompletedAt)

	// Earlier approvals are not rolled back
	assert.Equal(t, model.ApprovalApproved, final.Approvals[0].Status)
	assert.Equal(t, model.ApprovalApproved, final.Approvals[1].Status)
	assert.Equal(t, model.ApprovalRejected, final.Approvals[2].Status)

	assert.Equal(t, []string{
		model.AuditCreated,
		model.AuditApproved,
		model.AuditApproved,
		model.AuditRejected,
	}, env.auditActions(t, doc))
}

func TestRevisionRequestKeepsDownstreamPending(t *testing.T) {
	env := setupEnv(t)
	doc := env.createDocument(t, "alice", "bob", "carol")

	_, err := env.decide(t, doc, 0, "alice", service.DecisionApprove)
	require.NoError(t, err)
	_, err = env.decide(t, doc, 1, "bob", service.DecisionRequestRevision)
	require.NoError(t, err)

	final := env.reload(t, doc)
	assert.Equal(t, model.DocStatusRevisionRequested, final.Status)
	assert.Equal(t, model.ApprovalApproved, final.Approvals[0].Status)
	assert.Equal(t, model.ApprovalRevisionRequested, final.Approvals[1].Status)
	assert.Equal(t, model.ApprovalPending, final.Approvals[2].Status)

	// Nothing is actionable until the initiator resubmits
	_, err = env.decide(t, doc, 2, "carol", service.DecisionApprove)
	assert.ErrorIs(t, err, service.ErrOutOfSequence)
}

func TestNoDecisionsAfterTerminalStatus(t *testing.T) {
	env := setupEnv(t)
	doc := env.createDocument(t, "alice", "bob")

	_, err := env.decide(t, doc, 0, "alice", service.DecisionReject)
	require.NoError(t, err)

	_, err = env.decide(t, doc, 1, "bob", service.DecisionApprove)
	assert.ErrorIs(t, err, service.ErrOutOfSequence)
}

func TestRecomputeIsIdempotent(t *testing.T) {
	env := setupEnv(t)
	doc := env.createDocument(t, "alice", "bob")

	_, err := env.decide(t, doc, 0, "alice", service.DecisionApprove)
	require.NoError(t, err)

	first, err := env.approvals.Recompute(context.Background(), mustParse(t, doc.ID))
	require.NoError(t, err)
	second, err := env.approvals.Recompute(context.Background(), mustParse(t, doc.ID))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, model.DocStatusInProgress, second)
}

func TestRecomputeRepairsDriftedState(t *testing.T) {
	env := setupEnv(t)
	doc := env.createDocument(t, "alice", "bob", "carol")

	// Corrupt the chain behind the engine's back: step 2 asked for
	// revision while step 3 somehow got approved.
	require.NoError(t, env.db.Model(&model.Approval{}).
		Where("id = ?", doc.Approvals[1].ID).
		Update("status", model.ApprovalRevisionRequested).Error)
	require.NoError(t, env.db.Model(&model.Approval{}).
		Where("id = ?", doc.Approvals[2].ID).
		Update("status", model.ApprovalApproved).Error)

	status, err := env.approvals.Recompute(context.Background(), mustParse(t, doc.ID))
	require.NoError(t, err)
	assert.Equal(t, model.DocStatusRevisionRequested, status)

	final := env.reload(t, doc)
	// Downstream of the revision step is reset to PENDING; the revision
	// step itself keeps its status.
	assert.Equal(t, model.ApprovalRevisionRequested, final.Approvals[1].Status)
	assert.Equal(t, model.ApprovalPending, final.Approvals[2].Status)
}

func TestRecomputeDoesNotResetCompletedAt(t *testing.T) {
	env := setupEnv(t)
	doc := env.createDocument(t, "alice")

	_, err := env.decide(t, doc, 0, "alice", service.DecisionApprove)
	require.NoError(t, err)

	completedAt := env.reload(t, doc).CompletedAt
	require.NotNil(t, completedAt)

	_, err = env.approvals.Recompute(context.Background(), mustParse(t, doc.ID))
	require.NoError(t, err)
	assert.Equal(t, *completedAt, *env.reload(t, doc).CompletedAt)
}

func TestDecideWithCommentCreatesComment(t *testing.T) {
	env := setupEnv(t)
	doc := env.createDocument(t, "alice", "bob")

	_, err := env.approvals.Decide(context.Background(),
		mustParse(t, doc.ID), mustParse(t, doc.Approvals[0].ID), env.userID("alice"),
		service.DecideRequest{Decision: service.DecisionRequestRevision, Comment: "missing cost breakdown"})
	require.NoError(t, err)

	comments, total, err := env.comments.ListForDocument(context.Background(), mustParse(t, doc.ID), 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "missing cost breakdown", comments[0].Content)
	assert.Equal(t, doc.Approvals[0].ID, comments[0].ApprovalID)
}

func TestListPendingForApprover(t *testing.T) {
	env := setupEnv(t)
	doc := env.createDocument(t, "alice", "bob")
	env.createDocument(t, "bob", "carol")

	pending, total, err := env.approvals.ListPendingForApprover(context.Background(), env.userID("bob"), 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, pending, 2)

	// A rejected document's steps disappear from the pending list
	_, err = env.decide(t, doc, 0, "alice", service.DecisionReject)
	require.NoError(t, err)

	_, total, err = env.approvals.ListPendingForApprover(context.Background(), env.userID("bob"), 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestAggregateStatus(t *testing.T) {
	mk := func(statuses ...string) []model.Approval {
		chain := make([]model.Approval, 0, len(statuses))
		for i, s := range statuses {
			chain = append(chain, model.Approval{SequenceOrder: model.SequenceBase + i, Status: s})
		}
		return chain
	}

	cases := []struct {
		name  string
		chain []model.Approval
		want  string
	}{
		{"empty chain", nil, model.DocStatusPending},
		{"untouched", mk(model.ApprovalPending, model.ApprovalPending), model.DocStatusPending},
		{"partially approved", mk(model.ApprovalApproved, model.ApprovalPending), model.DocStatusInProgress},
		{"fully approved", mk(model.ApprovalApproved, model.ApprovalApproved), model.DocStatusApproved},
		{"rejection wins", mk(model.ApprovalApproved, model.ApprovalRejected, model.ApprovalPending), model.DocStatusRejected},
		{"rejection beats revision", mk(model.ApprovalRevisionRequested, model.ApprovalRejected), model.DocStatusRejected},
		{"revision requested", mk(model.ApprovalApproved, model.ApprovalRevisionRequested, model.ApprovalPending), model.DocStatusRevisionRequested},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, service.AggregateStatus(tc.chain))
		})
	}
}

func TestCurrentActionable(t *testing.T) {
	chain := []model.Approval{
		{SequenceOrder: 1, Status: model.ApprovalApproved},
		{SequenceOrder: 2, Status: model.ApprovalPending},
		{SequenceOrder: 3, Status: model.ApprovalPending},
	}
	actionable := service.CurrentActionable(chain)
	require.NotNil(t, actionable)
	assert.Equal(t, 2, actionable.SequenceOrder)

	// A blocked chain has no actionable step
	chain[1].Status = model.ApprovalRevisionRequested
	assert.Nil(t, service.CurrentActionable(chain))

	chain[1].Status = model.ApprovalRejected
	assert.Nil(t, service.CurrentActionable(chain))

	// Fully approved chain has nothing left to do
	chain[1].Status = model.ApprovalApproved
	chain[2].Status = model.ApprovalApproved
	assert.Nil(t, service.CurrentActionable(chain))
}
