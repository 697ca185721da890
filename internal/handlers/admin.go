package handlers

import (
	"net/http"
	"slices"
	"strconv"
	"time"

	portal "github.com/pondok-digital/portal"
	"github.com/pondok-digital/portal/internal/response"
	"github.com/pondok-digital/portal/internal/services"
	"github.com/pondok-digital/portal/internal/store"
	"github.com/pondok-digital/portal/internal/version"
)

const defaultActivityPageSize = 20

type AdminHandler struct {
	store *store.Store
}

func NewAdminHandler(s *store.Store) *AdminHandler {
	return &AdminHandler{store: s}
}

// LivenessHandler godoc
//
//	@Summary		Liveness Check
//	@Description	Check if the backend is alive and responding.
//	@Tags			Health
//	@Produce		plain
//
//	@Success		200	{string}	string	"OK"
//
//	@Router			/health [get]
func (a *AdminHandler) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (a *AdminHandler) VersionHandler(w http.ResponseWriter, r *http.Request) {
	response.RespondWithJSON(w, http.StatusOK, version.Get())
}

// SubmitMessageHandler stores a message sent through the public contact form
func (a *AdminHandler) SubmitMessageHandler(w http.ResponseWriter, r *http.Request) {
	var req services.MessageInput
	if !decodeValid(w, r, &req) {
		return
	}

	msg, err := a.store.Messages.Insert(func(id uint) (services.Message, error) {
		return services.Message{
			ID:        id,
			Name:      req.Name,
			Email:     req.Email,
			Subject:   req.Subject,
			Message:   req.Message,
			CreatedAt: time.Now().UTC(),
		}, nil
	}, nil)
	if err != nil {
		respondWithStoreError(w, r, err, "message")
		return
	}
	response.RespondWithData(w, r, http.StatusCreated, "Message sent", msg)
}

// GetMessagesHandler lists the inbox, newest first
func (a *AdminHandler) GetMessagesHandler(w http.ResponseWriter, r *http.Request) {
	messages := a.store.Messages.List()
	slices.Reverse(messages)
	response.RespondWithData(w, r, http.StatusOK, "Messages retrieved", messages)
}

func (a *AdminHandler) MarkMessageReadHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if _, err := a.store.Messages.Update(id, func(m *services.Message) error {
		m.IsRead = true
		return nil
	}); err != nil {
		respondWithStoreError(w, r, err, "message")
		return
	}
	audit(a.store, r, "UPDATE", "message", id)
	response.RespondWithData(w, r, http.StatusOK, "Message marked as read", nil)
}

func (a *AdminHandler) DeleteMessageHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := a.store.Messages.Delete(id); err != nil {
		respondWithStoreError(w, r, err, "message")
		return
	}
	audit(a.store, r, "DELETE", "message", id)
	response.RespondWithData(w, r, http.StatusOK, "Message deleted", nil)
}

// RegisterHandler godoc
//
//	@Summary		Register a new santri
//	@Description	Public admission (PSB) form. New registrants start as PENDING. The NIK must be unique.
//	@Tags			psb
//
//	@Param			request	body	services.RegistrationInput	true	"registration"
//	@Success		201
//	@Failure		400	{object}	response.Envelope	"validation_failed"
//	@Failure		409	{object}	response.Envelope	"resource_already_exists"
//	@Router			/psb/register [post]
func (a *AdminHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req services.RegistrationInput
	if !decodeValid(w, r, &req) {
		return
	}

	registrant, err := a.store.Registrants.Insert(func(id uint) (services.Registrant, error) {
		return services.Registrant{
			ID:          id,
			FullName:    req.FullName,
			NIK:         req.NIK,
			BirthPlace:  req.BirthPlace,
			BirthDate:   req.BirthDate,
			Gender:      req.Gender,
			Address:     req.Address,
			ParentName:  req.FatherName,
			ParentPhone: req.ParentPhone,
			PhotoURL:    req.PhotoURL,
			Status:      "PENDING",
			CreatedAt:   time.Now().UTC(),
		}, nil
	}, func(existing, row services.Registrant) bool {
		return existing.NIK == row.NIK
	})
	if err != nil {
		respondWithStoreError(w, r, err, "registrant with this NIK")
		return
	}
	response.RespondWithData(w, r, http.StatusCreated, "Registration successful", registrant)
}

// GetRegistrantsHandler lists registrants, newest first, optionally filtered by ?status=
func (a *AdminHandler) GetRegistrantsHandler(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status != "" && !portal.ValidRegistrantStatuses[status] {
		respondInvalid(w, r, "invalid status: "+status)
		return
	}

	registrants := a.store.Registrants.Filter(func(reg services.Registrant) bool {
		return status == "" || reg.Status == status
	})
	slices.Reverse(registrants)
	response.RespondWithData(w, r, http.StatusOK, "Registrants retrieved", registrants)
}

func (a *AdminHandler) UpdateRegistrantStatusHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req services.StatusInput
	if !decodeValid(w, r, &req) {
		return
	}

	registrant, err := a.store.Registrants.Update(id, func(reg *services.Registrant) error {
		reg.Status = req.Status
		return nil
	})
	if err != nil {
		respondWithStoreError(w, r, err, "registrant")
		return
	}

	audit(a.store, r, "VERIFY", "santri", id)
	response.RespondWithData(w, r, http.StatusOK, "Status updated", registrant)
}

// GetActivityLogsHandler godoc
//
//	@Summary		Activity logs
//	@Description	Paginated audit trail, newest first (super_admin only)
//	@Tags			activity-logs
//
//	@Param			page	query	int		false	"page number (default 1)"
//	@Param			limit	query	int		false	"items per page (default 20)"
//	@Param			user_id	query	int		false	"filter by user id"
//	@Param			action	query	string	false	"filter by action (CREATE, UPDATE, DELETE, LOGIN, LOGOUT, VERIFY)"
//	@Router			/activity-logs [get]
func (a *AdminHandler) GetActivityLogsHandler(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r, defaultActivityPageSize)

	var userID uint64
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		var err error
		if userID, err = strconv.ParseUint(raw, 10, 64); err != nil {
			respondInvalid(w, r, "invalid user_id: "+raw)
			return
		}
	}
	action := r.URL.Query().Get("action")

	logs := a.store.ActivityLogs.Filter(func(l services.ActivityLog) bool {
		return (userID == 0 || uint64(l.UserID) == userID) && (action == "" || l.Action == action)
	})
	slices.Reverse(logs)

	items, meta := paginate(logs, page, limit)
	response.RespondWithPage(w, r, "Activity logs retrieved", items, meta)
}

func (a *AdminHandler) GetDashboardStatsHandler(w http.ResponseWriter, r *http.Request) {
	response.RespondWithData(w, r, http.StatusOK, "Dashboard stats retrieved", services.DashboardStats{
		TotalSantri:   int64(a.store.Registrants.Count()),
		TotalArticles: int64(a.store.Articles.Count()),
		TotalUsers:    int64(a.store.Users.Count()),
	})
}
