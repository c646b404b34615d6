package handler

import (
	"log/slog"
	"net/http"

	"github.com/msomdec/stitch-flow/internal/domain"
	"github.com/msomdec/stitch-flow/internal/service"
)

// ProjectHandler handles project HTTP requests.
type ProjectHandler struct {
	projects *service.ProjectService
	logger   *slog.Logger
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(projects *service.ProjectService, logger *slog.Logger) *ProjectHandler {
	return &ProjectHandler{projects: projects, logger: logger}
}

type createProjectRequest struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	CraftType      string `json:"craftType"`
	Status         string `json:"status"`
	TotalRows      int    `json:"totalRows"`
	CompletedRows  int    `json:"completedRows"`
	NeedleSize     string `json:"needleSize"`
	StitchType     string `json:"stitchType"`
	UsesAICounting bool   `json:"usesAICounting"`
}

// updateProjectRequest carries only the fields being changed.
type updateProjectRequest struct {
	Name           *string `json:"name"`
	CraftType      *string `json:"craftType"`
	Status         *string `json:"status"`
	TotalRows      *int    `json:"totalRows"`
	CompletedRows  *int    `json:"completedRows"`
	NeedleSize     *string `json:"needleSize"`
	StitchType     *string `json:"stitchType"`
	UsesAICounting *bool   `json:"usesAICounting"`
	LastWorked     *string `json:"lastWorked"`
}

func (req *updateProjectRequest) apply(p *domain.Project) {
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.CraftType != nil {
		p.CraftType = *req.CraftType
	}
	if req.Status != nil {
		p.Status = domain.ProjectStatus(*req.Status)
	}
	if req.TotalRows != nil {
		p.TotalRows = *req.TotalRows
	}
	if req.CompletedRows != nil {
		p.CompletedRows = *req.CompletedRows
	}
	if req.NeedleSize != nil {
		p.NeedleSize = *req.NeedleSize
	}
	if req.StitchType != nil {
		p.StitchType = *req.StitchType
	}
	if req.UsesAICounting != nil {
		p.UsesAICounting = *req.UsesAICounting
	}
	if req.LastWorked != nil {
		p.LastWorked = *req.LastWorked
	}
}

type setActiveRequest struct {
	ID string `json:"id"`
}

// HandleList returns all projects, newest first.
func (h *ProjectHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	snap := h.projects.Snapshot()
	writeJSON(w, http.StatusOK, toProjectViews(snap.Projects, snap.ActiveID))
}

// HandleCreate creates a project.
func (h *ProjectHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := h.projects.Create(r.Context(), domain.Project{
		ID:             req.ID,
		Name:           req.Name,
		CraftType:      req.CraftType,
		Status:         domain.ProjectStatus(req.Status),
		TotalRows:      req.TotalRows,
		CompletedRows:  req.CompletedRows,
		NeedleSize:     req.NeedleSize,
		StitchType:     req.StitchType,
		UsesAICounting: req.UsesAICounting,
	})
	if err != nil {
		writeServiceError(w, h.logger, "create project", err)
		return
	}
	writeJSON(w, http.StatusCreated, toProjectView(*p, h.projects.Snapshot().ActiveID))
}

// HandleGet returns a single project.
func (h *ProjectHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	p, err := h.projects.Get(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, h.logger, "get project", err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectView(*p, h.projects.Snapshot().ActiveID))
}

// HandleUpdate applies a partial update.
func (h *ProjectHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateProjectRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := h.projects.Update(r.Context(), r.PathValue("id"), req.apply)
	if err != nil {
		writeServiceError(w, h.logger, "update project", err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectView(*p, h.projects.Snapshot().ActiveID))
}

// HandleDelete removes a project.
func (h *ProjectHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.projects.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, h.logger, "delete project", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleGetActive returns the active project, or 404 when none is set.
func (h *ProjectHandler) HandleGetActive(w http.ResponseWriter, r *http.Request) {
	p := h.projects.Active()
	if p == nil {
		writeError(w, http.StatusNotFound, "no active project")
		return
	}
	writeJSON(w, http.StatusOK, toProjectView(*p, p.ID))
}

// HandleSetActive points the active project at the given id; an empty id
// clears it.
func (h *ProjectHandler) HandleSetActive(w http.ResponseWriter, r *http.Request) {
	var req setActiveRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.projects.SetActive(r.Context(), req.ID); err != nil {
		writeServiceError(w, h.logger, "set active project", err)
		return
	}
	if req.ID == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.HandleGetActive(w, r)
}
