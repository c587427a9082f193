package service_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"docflow/internal/database"
	"docflow/internal/model"
	"docflow/internal/repository"
	"docflow/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testEnv wires the full service stack against an in-memory sqlite
// database, one isolated database per test.
type testEnv struct {
	db            *gorm.DB
	users         map[string]model.User
	documents     service.DocumentService
	approvals     service.ApprovalService
	comments      service.CommentService
	notifications service.NotificationService
	audit         service.AuditService
	templates     service.TemplateService
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	txm := repository.NewTransactionManager(db)
	documentRepo := repository.NewDocumentRepository(db)
	approvalRepo := repository.NewApprovalRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	templateRepo := repository.NewTemplateRepository(db)

	notifications := service.NewNotificationService(notificationRepo, nil, nil)
	templates := service.NewTemplateService(templateRepo)

	env := &testEnv{
		db:            db,
		users:         make(map[string]model.User),
		notifications: notifications,
		documents:     service.NewDocumentService(txm, documentRepo, approvalRepo, templates, auditRepo, notifications),
		approvals:     service.NewApprovalService(txm, approvalRepo, documentRepo, commentRepo, auditRepo, notifications),
		comments:      service.NewCommentService(txm, commentRepo, approvalRepo, documentRepo, auditRepo, notifications),
		audit:         service.NewAuditService(auditRepo),
		templates:     templates,
	}

	for _, u := range []struct{ name, role string }{
		{"alice", model.RoleApprover},
		{"bob", model.RoleApprover},
		{"carol", model.RoleApprover},
		{"dave", model.RoleInitiator},
	} {
		user := model.User{
			Username: u.name,
			Email:    u.name + "@example.com",
			Password: "x",
			Role:     u.role,
		}
		require.NoError(t, db.Create(&user).Error)
		env.users[u.name] = user
	}

	return env
}

func (e *testEnv) userID(name string) uuid.UUID {
	return e.users[name].ID
}

// createDocument stamps out a document with an ad-hoc chain of the named
// approvers, initiated by dave.
func (e *testEnv) createDocument(t *testing.T, approvers ...string) *service.DocumentResponse {
	t.Helper()

	ids := make([]string, 0, len(approvers))
	for _, name := range approvers {
		ids = append(ids, e.userID(name).String())
	}

	doc, err := e.documents.CreateDocument(context.Background(), e.userID("dave"), service.CreateDocumentRequest{
		Title:        "Q3 capex request",
		DocumentType: model.DocTypeCapex,
		Amount:       "12500.50",
		ApproverIDs:  ids,
	})
	require.NoError(t, err)
	require.Len(t, doc.Approvals, len(approvers))
	return doc
}

// decide applies one decision as the named user on the given step index
// (0-based into the ordered chain).
func (e *testEnv) decide(t *testing.T, doc *service.DocumentResponse, step int, as string, decision string) (*service.ApprovalResponse, error) {
	t.Helper()

	docID := mustParse(t, doc.ID)
	approvalID := mustParse(t, doc.Approvals[step].ID)
	return e.approvals.Decide(context.Background(), docID, approvalID, e.userID(as), service.DecideRequest{Decision: decision})
}

func (e *testEnv) reload(t *testing.T, doc *service.DocumentResponse) *service.DocumentResponse {
	t.Helper()

	fresh, err := e.documents.GetDocument(context.Background(), mustParse(t, doc.ID))
	require.NoError(t, err)
	return fresh
}

func (e *testEnv) auditActions(t *testing.T, doc *service.DocumentResponse) []string {
	t.Helper()

	history, err := e.audit.GetDocumentHistory(context.Background(), mustParse(t, doc.ID))
	require.NoError(t, err)
	actions := make([]string, 0, len(history))
	for _, entry := range history {
		actions = append(actions, entry.Action)
	}
	return actions
}

func mustParse(t *testing.T, s string) uuid.UUID {
	t.Helper()
	id, err := uuid.Parse(s)
	require.NoError(t, err)
	return id
}
