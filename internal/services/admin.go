package services

import (
	"context"
	"net/http"
	"net/url"

	"github.com/pondok-digital/portal/internal/apiclient"
	"github.com/pondok-digital/portal/internal/schemas"
)

const defaultActivityPageSize = 20

// ContactService covers the public contact form and the admin inbox
type ContactService struct {
	client *apiclient.Client
}

func (s *ContactService) Submit(ctx context.Context, in MessageInput) error {
	return send(ctx, s.client, http.MethodPost, "/contact", nil, in, "", nil)
}

func (s *ContactService) ListMessages(ctx context.Context) ([]Message, error) {
	var messages []Message
	if err := get(ctx, s.client, "/messages", nil, schemas.MessageList, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (s *ContactService) MarkRead(ctx context.Context, id uint) error {
	return send(ctx, s.client, http.MethodPut, idPath("/messages", id, "read"), nil, nil, "", nil)
}

func (s *ContactService) DeleteMessage(ctx context.Context, id uint) error {
	return send(ctx, s.client, http.MethodDelete, idPath("/messages", id), nil, nil, "", nil)
}

// AdmissionService covers new student (PSB) registration
type AdmissionService struct {
	client *apiclient.Client
}

func (s *AdmissionService) Register(ctx context.Context, in RegistrationInput) error {
	return send(ctx, s.client, http.MethodPost, "/psb/register", nil, in, "", nil)
}

// ListRegistrants filters by status when status is not empty
func (s *AdmissionService) ListRegistrants(ctx context.Context, status string) ([]Registrant, error) {
	var query url.Values
	if status != "" {
		query = url.Values{"status": {status}}
	}

	var registrants []Registrant
	if err := get(ctx, s.client, "/psb/registrants", query, schemas.RegistrantList, &registrants); err != nil {
		return nil, err
	}
	return registrants, nil
}

func (s *AdmissionService) UpdateStatus(ctx context.Context, id uint, status string) error {
	return send(ctx, s.client, http.MethodPut, idPath("/psb/registrants", id, "status"), nil, StatusInput{Status: status}, "", nil)
}

type ActivityLogService struct {
	client *apiclient.Client
}

func (s *ActivityLogService) List(ctx context.Context, page, limit int) (*Page[ActivityLog], error) {
	var result Page[ActivityLog]
	if err := get(ctx, s.client, "/activity-logs", pageQuery(page, limit, defaultActivityPageSize), schemas.ActivityLogPage, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

type DashboardService struct {
	client *apiclient.Client
}

func (s *DashboardService) Stats(ctx context.Context) (*DashboardStats, error) {
	var stats DashboardStats
	if err := get(ctx, s.client, "/dashboard/stats", nil, schemas.DashboardStats, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}
