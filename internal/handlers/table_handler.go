package handlers

import (
	"net/http"
	"resto_manager/internal/services"

	"github.com/gin-gonic/gin"
)

type TableHandler struct {
	tableService services.TableService
}

func NewTableHandler(tableService services.TableService) *TableHandler {
	return &TableHandler{tableService: tableService}
}

func (h *TableHandler) GetTables(c *gin.Context) {
	tables, err := h.tableService.GetTables()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tables": tables})
}

func (h *TableHandler) StartSession(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	session, err := h.tableService.StartSession(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session": session})
}

func (h *TableHandler) EndSession(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid session token"})
		return
	}

	if err := h.tableService.EndSession(token); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Session ended"})
}

func (h *TableHandler) FreeTable(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	table, err := h.tableService.FreeTable(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"table": table})
}
