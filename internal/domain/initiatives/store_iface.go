package initiatives

import (
	"context"
	"time"
)

type StoreAPI interface {
	Get(ctx context.Context, id string) (Initiative, error)
	List(ctx context.Context, filter ListFilter) ([]Initiative, int, error)
	SuperviseeInitiatives(ctx context.Context, supervisorID string) ([]Initiative, error)
	Create(ctx context.Context, in Initiative, assigneeIDs, documentIDs []string) (string, error)
	Update(ctx context.Context, id string, in UpdateInput) error
	Delete(ctx context.Context, id string) error

	SetStatus(ctx context.Context, id, status string) error
	Approve(ctx context.Context, id, approverID string) error
	Reject(ctx context.Context, id, reason string) error
	Review(ctx context.Context, id string, score int, feedback, status string) error
	MarkOverdue(ctx context.Context, now time.Time) ([]string, error)

	Submit(ctx context.Context, id, userID, report string, documentIDs []string) (Submission, error)
	Submissions(ctx context.Context, id string) ([]Submission, error)

	HasPendingExtension(ctx context.Context, id string) (bool, error)
	CreateExtension(ctx context.Context, ext Extension) (Extension, error)
	GetExtension(ctx context.Context, extensionID string) (Extension, error)
	ReviewExtension(ctx context.Context, extensionID, reviewerID string, approved bool) (Extension, error)

	CreateDocument(ctx context.Context, doc Document) (Document, error)
	GetDocument(ctx context.Context, documentID string) (Document, error)
	Documents(ctx context.Context, initiativeID string) ([]Document, error)

	UserRef(ctx context.Context, userID string) (UserRef, error)
	SuperviseeCount(ctx context.Context, userID string) (int, error)
	AssignableUsers(ctx context.Context, orgIDs []string) ([]UserRef, error)
}
