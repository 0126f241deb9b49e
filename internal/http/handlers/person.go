package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lessonworks/pianoschool-backend/internal/data/repos/person"
	"github.com/lessonworks/pianoschool-backend/internal/http/response"
	"github.com/lessonworks/pianoschool-backend/internal/platform/logger"
	"github.com/lessonworks/pianoschool-backend/internal/services"
	"github.com/lessonworks/pianoschool-backend/internal/types"
)

type PersonHandler struct {
	log           *logger.Logger
	personService services.PersonService
}

func NewPersonHandler(log *logger.Logger, personService services.PersonService) *PersonHandler {
	return &PersonHandler{
		log:           log.With("handler", "PersonHandler"),
		personService: personService,
	}
}

func (h *PersonHandler) Create(c *gin.Context) {
	var req struct {
		Name  string   `json:"name"`
		Email *string  `json:"email"`
		Phone *string  `json:"phone"`
		Roles []string `json:"roles"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	p := types.Person{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
	}
	created, err := h.personService.Create(c.Request.Context(), &p, req.Roles)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"person": created})
}

func (h *PersonHandler) Get(c *gin.Context) {
	personID := idParam(c, "id")
	if personID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_person_id", nil)
		return
	}
	p, err := h.personService.Get(c.Request.Context(), personID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"person": p})
}

func (h *PersonHandler) List(c *gin.Context) {
	offset, limit := pageParams(c)
	filter := person.ListFilter{
		Role:   c.Query("role"),
		Status: c.Query("status"),
		Name:   c.Query("name"),
		Offset: offset,
		Limit:  limit,
	}
	people, total, err := h.personService.List(c.Request.Context(), filter)
	if err != nil {
		h.log.Error("List failed", "error", err)
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"people": people, "total": total})
}

func (h *PersonHandler) Update(c *gin.Context) {
	personID := idParam(c, "id")
	if personID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_person_id", nil)
		return
	}
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := h.personService.Update(c.Request.Context(), personID, fields); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

func (h *PersonHandler) Delete(c *gin.Context) {
	personID := idParam(c, "id")
	if personID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_person_id", nil)
		return
	}
	if err := h.personService.Delete(c.Request.Context(), personID); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

func (h *PersonHandler) Roles(c *gin.Context) {
	personID := idParam(c, "id")
	if personID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_person_id", nil)
		return
	}
	roles, err := h.personService.RolesOf(c.Request.Context(), personID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"roles": roles})
}

func (h *PersonHandler) SetRoles(c *gin.Context) {
	personID := idParam(c, "id")
	if personID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_person_id", nil)
		return
	}
	var req struct {
		Roles []string `json:"roles"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := h.personService.SetRoles(c.Request.Context(), personID, req.Roles); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
