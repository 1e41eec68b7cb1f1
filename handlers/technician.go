package handlers

import (
	"errors"
	"net/http"

	technicianRepo "fixhive/database/repository/technician"
	"fixhive/models"
	"fixhive/utils"

	"github.com/gin-gonic/gin"
)

// TechnicianHandler exposes the technician-side endpoints the matching flow
// depends on: profile reads and location heartbeats.
type TechnicianHandler struct {
	Repo technicianRepo.TechnicianRepository
}

func NewTechnicianHandler(repo technicianRepo.TechnicianRepository) *TechnicianHandler {
	return &TechnicianHandler{Repo: repo}
}

func (h *TechnicianHandler) GetTechnician(c *gin.Context) {
	tech, err := h.Repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, technicianRepo.ErrNotFound) {
			utils.JSONError(c, http.StatusNotFound, "Technician not found", "")
			return
		}
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, tech)
}

type locationInput struct {
	Lat float64 `json:"lat" binding:"required"`
	Lon float64 `json:"lon" binding:"required"`
}

// UpdateLocation records a location heartbeat. Heartbeats never interact with
// assignment state; they only move the pin the geo search reads.
func (h *TechnicianHandler) UpdateLocation(c *gin.Context) {
	var input locationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	point := models.NewGeoPoint(input.Lat, input.Lon)
	if err := h.Repo.UpdateLocation(c.Request.Context(), c.Param("id"), point); err != nil {
		if errors.Is(err, technicianRepo.ErrNotFound) {
			utils.JSONError(c, http.StatusNotFound, "Technician not found", "")
			return
		}
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}
