package member

import (
	"net/http"

	"github.com/communitylink/membership-api/internal/fee"
	"github.com/communitylink/membership-api/internal/model"
	sharedContext "github.com/communitylink/membership-api/internal/shared/context"
	"github.com/communitylink/membership-api/internal/shared/handler"
	"github.com/gin-gonic/gin"
)

type MemberHandler struct {
	memberService *MemberService
	lifecycle     *Lifecycle
}

func NewMemberHandler(memberService *MemberService, lifecycle *Lifecycle) *MemberHandler {
	return &MemberHandler{
		memberService: memberService,
		lifecycle:     lifecycle,
	}
}

func (h *MemberHandler) GetProfile(c *gin.Context) {
	accountID, ok := sharedContext.RequireAccountID(c)
	if !ok {
		return
	}

	response, err := h.memberService.GetProfile(c.Request.Context(), accountID)
	if err != nil {
		handler.RespondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *MemberHandler) Get(c *gin.Context) {
	response, err := h.memberService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handler.RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

func (h *MemberHandler) Family(c *gin.Context) {
	response, err := h.memberService.Family(c.Request.Context(), c.Param("id"))
	if err != nil {
		handler.RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

func (h *MemberHandler) Approve(c *gin.Context) {
	var req ApproveRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	h.transition(c, func(target *model.Member, actorID string) (*model.Member, error) {
		return h.lifecycle.Approve(c.Request.Context(), target.ID, actorID, req.Password)
	})
}

func (h *MemberHandler) Reject(c *gin.Context) {
	var req ReasonRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	h.transition(c, func(target *model.Member, actorID string) (*model.Member, error) {
		return h.lifecycle.Reject(c.Request.Context(), target.ID, actorID, req.Reason)
	})
}

func (h *MemberHandler) Suspend(c *gin.Context) {
	var req ReasonRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	h.transition(c, func(target *model.Member, actorID string) (*model.Member, error) {
		return h.lifecycle.Suspend(c.Request.Context(), target.ID, actorID, req.Reason)
	})
}

func (h *MemberHandler) Reactivate(c *gin.Context) {
	h.transition(c, func(target *model.Member, actorID string) (*model.Member, error) {
		return h.lifecycle.Reactivate(c.Request.Context(), target.ID, actorID)
	})
}

func (h *MemberHandler) Renew(c *gin.Context) {
	h.transition(c, func(target *model.Member, actorID string) (*model.Member, error) {
		return h.lifecycle.Renew(c.Request.Context(), target.ID, actorID)
	})
}

func (h *MemberHandler) RecordInstallment(c *gin.Context) {
	var req InstallmentRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	h.transition(c, func(target *model.Member, actorID string) (*model.Member, error) {
		return h.lifecycle.RecordInstallmentPayment(c.Request.Context(), target.ID, actorID, fee.ToCents(req.Amount))
	})
}

func (h *MemberHandler) SetBadge(c *gin.Context) {
	var req BadgeRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	h.transition(c, func(target *model.Member, actorID string) (*model.Member, error) {
		return h.lifecycle.SetBadgeTaken(c.Request.Context(), target.ID, actorID, req.BadgeTaken)
	})
}

func (h *MemberHandler) ExpireDue(c *gin.Context) {
	expired, err := h.lifecycle.ExpireDue(c.Request.Context())
	if err != nil {
		handler.RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, ExpireResponse{Expired: expired})
}

// transition resolves the :id target and the acting admin, then runs fn.
func (h *MemberHandler) transition(c *gin.Context, fn func(target *model.Member, actorID string) (*model.Member, error)) {
	actorID, ok := sharedContext.RequireAccountID(c)
	if !ok {
		return
	}

	target, err := h.memberService.Resolve(c.Request.Context(), c.Param("id"))
	if err != nil {
		handler.RespondDomainError(c, err)
		return
	}

	updated, err := fn(target, actorID)
	if err != nil {
		handler.RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, NewMemberResponse(updated))
}

// bindOptionalJSON accepts an empty body as the zero request.
func bindOptionalJSON(c *gin.Context, obj any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	return handler.BindJSON(c, obj)
}
