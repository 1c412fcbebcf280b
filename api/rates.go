package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xraph/faktura/id"
	"github.com/xraph/faktura/rate"
)

func (s *Server) saveMaterial(c *gin.Context) {
	var m rate.Material
	if err := c.ShouldBindJSON(&m); err != nil {
		badRequest(c, "invalid material", err)
		return
	}
	if err := s.engine.SaveMaterial(c.Request.Context(), &m); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (s *Server) getMaterial(c *gin.Context) {
	materialID, ok := pathID(c, id.ParseMaterialID)
	if !ok {
		return
	}
	m, err := s.engine.GetMaterial(c.Request.Context(), materialID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (s *Server) savePersonnel(c *gin.Context) {
	var p rate.Personnel
	if err := c.ShouldBindJSON(&p); err != nil {
		badRequest(c, "invalid personnel", err)
		return
	}
	if err := s.engine.SavePersonnel(c.Request.Context(), &p); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) getPersonnel(c *gin.Context) {
	personnelID, ok := pathID(c, id.ParsePersonnelID)
	if !ok {
		return
	}
	p, err := s.engine.GetPersonnel(c.Request.Context(), personnelID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
