package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xraph/faktura"
	"github.com/xraph/faktura/id"
	"github.com/xraph/faktura/offer"
)

func (s *Server) createOffer(c *gin.Context) {
	var req OfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid offer", err)
		return
	}

	o, err := s.engine.CreateOffer(c.Request.Context(), faktura.OfferInput{
		DocumentInput: req.input(),
		ValidUntil:    req.ValidUntil,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, o)
}

func (s *Server) listOffers(c *gin.Context) {
	limit, offset, err := paging(c)
	if err != nil {
		badRequest(c, "invalid query", err)
		return
	}
	list, err := s.engine.ListOffers(c.Request.Context(), offer.ListOpts{
		State:  faktura.State(c.Query("state")),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) getOffer(c *gin.Context) {
	s.withOffer(c, s.engine.GetOffer, http.StatusOK)
}

func (s *Server) updateOffer(c *gin.Context) {
	offerID, ok := pathID(c, id.ParseOfferID)
	if !ok {
		return
	}
	var req OfferPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid offer patch", err)
		return
	}

	o, err := s.engine.UpdateOffer(c.Request.Context(), offerID, faktura.OfferPatch{
		DocumentPatch: req.patch(),
		ValidUntil:    req.ValidUntil,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (s *Server) setOfferState(c *gin.Context) {
	offerID, ok := pathID(c, id.ParseOfferID)
	if !ok {
		return
	}
	var req StateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid state", err)
		return
	}

	o, err := s.engine.SetOfferState(c.Request.Context(), offerID, req.State)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (s *Server) sendOffer(c *gin.Context) {
	s.withOffer(c, s.engine.SendOffer, http.StatusOK)
}

func (s *Server) acceptOffer(c *gin.Context) {
	s.withOffer(c, s.engine.AcceptOffer, http.StatusOK)
}

func (s *Server) lockOffer(c *gin.Context) {
	s.withOffer(c, s.engine.LockOfferSnapshot, http.StatusOK)
}

func (s *Server) unlockOffer(c *gin.Context) {
	s.withOffer(c, s.engine.UnlockOfferSnapshot, http.StatusOK)
}

func (s *Server) recalculateOffer(c *gin.Context) {
	s.withOffer(c, s.engine.RecalculateOfferCosting, http.StatusOK)
}

func (s *Server) convertOffer(c *gin.Context) {
	offerID, ok := pathID(c, id.ParseOfferID)
	if !ok {
		return
	}
	o, err := s.engine.ConvertOfferToOrder(c.Request.Context(), offerID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, o)
}

// withOffer runs an engine call taking only the offer ID from the path.
func (s *Server) withOffer(c *gin.Context, call func(context.Context, id.OfferID) (*offer.Offer, error), status int) {
	offerID, ok := pathID(c, id.ParseOfferID)
	if !ok {
		return
	}
	o, err := call(c.Request.Context(), offerID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(status, o)
}

// pathID parses the :id path parameter, answering 400 when it is malformed.
func pathID(c *gin.Context, parse func(string) (id.ID, error)) (id.ID, bool) {
	v, err := parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid id", err)
		return id.ID{}, false
	}
	return v, true
}
