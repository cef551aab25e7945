package assignment

import (
	"github.com/choreloop/choreloop/internal/model"
)

// OpenExchange asks another member to take over a pending assignment. Only
// the current owner can open a request, and the responder must be an active
// member of the same home.
func (s *Service) OpenExchange(assignmentID, requestedBy, responderID int64, kind model.ExchangeKind, message string) (*model.ExchangeRequest, error) {
	a, err := s.assignments.GetByID(assignmentID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrAssignmentNotFound
	}
	if a.MemberID != requestedBy {
		return nil, ErrNotOwner
	}
	if a.Status != model.AssignmentPending {
		return nil, ErrNotPending
	}

	requester, err := s.members.GetByID(requestedBy)
	if err != nil {
		return nil, err
	}
	responder, err := s.members.GetByID(responderID)
	if err != nil {
		return nil, err
	}
	if requester == nil || responder == nil {
		return nil, ErrMemberNotFound
	}
	if responder.Status != model.MemberActive {
		return nil, ErrMemberInactive
	}
	if responder.HomeID != requester.HomeID {
		return nil, ErrHomeMismatch
	}

	return s.exchanges.Create(assignmentID, requestedBy, responderID, kind, message)
}

// RespondToExchange resolves a pending request. The transition is terminal:
// pending -> accepted or rejected, nothing further. Accepting a swap
// reassigns the target assignment to the responder.
func (s *Service) RespondToExchange(requestID int64, accept bool) (*model.ExchangeRequest, error) {
	req, err := s.exchanges.GetByID(requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrExchangeNotFound
	}
	if req.Status != model.ExchangePending {
		return nil, ErrAlreadyResolved
	}

	status := model.ExchangeRejected
	if accept {
		status = model.ExchangeAccepted
	}

	resolved, err := s.exchanges.Resolve(req.ID, status, s.now())
	if err != nil {
		return nil, err
	}
	if !resolved {
		// Someone else resolved it between the read and the update.
		return nil, ErrAlreadyResolved
	}

	if accept && req.Kind == model.ExchangeSwap {
		if err := s.assignments.Reassign(req.AssignmentID, req.ResponderID); err != nil {
			return nil, err
		}
	}

	s.logger.Info("exchange resolved", "request_id", req.ID, "status", status)
	return s.exchanges.GetByID(req.ID)
}
