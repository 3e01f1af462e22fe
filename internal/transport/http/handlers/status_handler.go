package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ivankudzin/botgate/internal/domain/model"
	statussvc "github.com/ivankudzin/botgate/internal/services/status"
	"github.com/ivankudzin/botgate/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/botgate/internal/transport/http/errors"
)

type StatusHandler struct {
	service *statussvc.Service
}

func NewStatusHandler(service *statussvc.Service) *StatusHandler {
	return &StatusHandler{service: service}
}

func (h *StatusHandler) Health(w http.ResponseWriter, _ *http.Request) {
	httperrors.Write(w, http.StatusOK, dto.HealthResponse{Status: "ok"})
}

func (h *StatusHandler) Pending(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "STATUS_SERVICE_UNAVAILABLE", "status service is unavailable")
		return
	}

	var communityID int64
	if raw := strings.TrimSpace(r.URL.Query().Get("community_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeBadRequest(w, "INVALID_COMMUNITY_ID", "community_id must be an integer")
			return
		}
		communityID = id
	}

	overview := h.service.Pending(communityID)
	items := make([]dto.PendingCase, 0, len(overview.Pending))
	for _, p := range overview.Pending {
		items = append(items, pendingCaseDTO(p))
	}

	httperrors.Write(w, http.StatusOK, dto.PendingResponse{
		Items:          items,
		ApprovedCount:  overview.ApprovedCount,
		TimeoutSeconds: int64(overview.Timeout.Seconds()),
	})
}

func (h *StatusHandler) Logs(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "STATUS_SERVICE_UNAVAILABLE", "status service is unavailable")
		return
	}

	communityID, ok := int64URLParam(r, "id")
	if !ok {
		writeBadRequest(w, "INVALID_COMMUNITY_ID", "community id must be an integer")
		return
	}

	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			writeBadRequest(w, "INVALID_LIMIT", "limit must be an integer")
			return
		}
		limit = v
	}

	report, err := h.service.Logs(r.Context(), communityID, limit)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to load audit log")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.LogsResponse{
		Items:   auditRecordsDTO(report.Records),
		Limit:   report.Limit,
		Overall: auditCountsDTO(report.Stats.Overall),
		Recent:  auditCountsDTO(report.Stats.Recent),
	})
}

func (h *StatusHandler) History(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "STATUS_SERVICE_UNAVAILABLE", "status service is unavailable")
		return
	}

	entityID, ok := int64URLParam(r, "id")
	if !ok {
		writeBadRequest(w, "INVALID_ENTITY_ID", "entity id must be an integer")
		return
	}

	records, err := h.service.History(r.Context(), entityID)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to load entity history")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.HistoryResponse{
		EntityID: entityID,
		Items:    auditRecordsDTO(records),
	})
}

func pendingCaseDTO(p statussvc.PendingCase) dto.PendingCase {
	c := p.Case
	item := dto.PendingCase{
		CaseID:           c.ID,
		EntityID:         c.EntityID,
		EntityName:       c.EntityName,
		CommunityID:      c.CommunityID,
		CommunityName:    c.CommunityName,
		Permissions:      c.Permissions.Names(),
		DangerousPerms:   c.Permissions.Dangerous(),
		CreatedAt:        c.CreatedAt,
		Deadline:         c.Deadline,
		RemainingSeconds: int64(p.Remaining.Seconds()),
		Notified:         len(c.Receipts),
		EntityCreatedAt:  c.EntityCreatedAt,
	}
	if c.Inviter != nil {
		id, name := c.Inviter.ID, c.Inviter.Name
		item.InviterID = &id
		item.InviterName = &name
	}
	return item
}

func auditRecordsDTO(records []model.AuditRecord) []dto.AuditRecord {
	items := make([]dto.AuditRecord, 0, len(records))
	for _, rec := range records {
		items = append(items, dto.AuditRecord{
			ID:             rec.ID,
			Action:         string(rec.Action),
			EntityID:       rec.EntityID,
			EntityName:     rec.EntityName,
			CommunityID:    rec.CommunityID,
			CommunityName:  rec.CommunityName,
			ModeratorID:    rec.ModeratorID,
			ModeratorName:  rec.ModeratorName,
			InviterID:      rec.InviterID,
			InviterName:    rec.InviterName,
			Reason:         rec.Reason,
			Permissions:    rec.Permissions,
			AccountAgeDays: rec.AccountAgeDays,
			CreatedAt:      rec.CreatedAt,
		})
	}
	return items
}

func auditCountsDTO(c model.AuditCounts) dto.AuditCounts {
	return dto.AuditCounts{
		Total:      c.Total,
		Approved:   c.Approved,
		Rejected:   c.Rejected,
		AutoKicked: c.AutoKicked,
		Detected:   c.Detected,
	}
}

func int64URLParam(r *http.Request, name string) (int64, bool) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func writeBadRequest(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusBadRequest, httperrors.APIError{Code: code, Message: message})
}

func writeInternal(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusInternalServerError, httperrors.APIError{Code: code, Message: message})
}
