/*
service.go - Requisition orchestration

PURPOSE:
  Ties the pieces together for callers: row-level validation, the per-asset
  totality check, then execution. The totality check runs on EVERY path,
  interactive assignment included; row-level checks alone cannot see two
  rows in the same batch draining one asset, and leaving that to the bulk
  path only would let the interactive endpoint oversubscribe stock.

FLOW:
  ValidateRequisitions -> group accepted rows by asset ->
  RunTotalityCheck per distinct asset against open commitments ->
  AssignmentExecutor.Assign

SEE ALSO:
  - validator.go, timeline.go, executor.go
*/
package inventory

import (
	"context"

	"github.com/sirupsen/logrus"
)

// =============================================================================
// REQUISITION SERVICE
// =============================================================================

type RequisitionService struct {
	Validator *RequisitionValidator
	Ledger    *Ledger
	Executor  *AssignmentExecutor
	Users     UserDirectory
	Log       logrus.FieldLogger
}

func NewRequisitionService(store TxStore, log logrus.FieldLogger) *RequisitionService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &RequisitionService{
		Validator: NewRequisitionValidator(store),
		Ledger:    NewLedger(store),
		Executor:  NewAssignmentExecutor(store),
		Users:     store,
		Log:       log,
	}
}

// AssignResult reports one validate-and-assign pass.
type AssignResult struct {
	Outcome    ValidationOutcome
	Shortfalls []ShortfallError
	Assigned   bool
}

// CheckBatchTotality runs the totality check for every distinct asset the
// accepted grants reference, merging the batch's own rows with the asset's
// existing open commitments. All violations across all assets are returned.
func (s *RequisitionService) CheckBatchTotality(
	ctx context.Context,
	now DateStamp,
	grants []Grant,
) ([]ShortfallError, error) {
	byAsset := make(map[AssetID][]RequisitionRequest)
	assets := make(map[AssetID]*Asset)
	var order []AssetID

	for _, g := range grants {
		id := g.Asset.ID
		if _, seen := byAsset[id]; !seen {
			order = append(order, id)
			assets[id] = g.Asset
		}
		byAsset[id] = append(byAsset[id], RequisitionRequest{
			AssetID:   id,
			Quantity:  g.Quantity,
			StartDate: g.StartDate,
			EndDate:   g.EndDate,
		})
	}

	var shortfalls []ShortfallError
	for _, id := range order {
		existing, err := s.Ledger.OpenCommitments(ctx, id, now)
		if err != nil {
			return nil, err
		}
		ok, violations := RunTotalityCheck(id, assets[id].Quantity, now, byAsset[id], existing)
		if !ok {
			shortfalls = append(shortfalls, violations...)
		}
	}
	return shortfalls, nil
}

// ValidateAndAssign runs the full pipeline for the interactive path: row
// validation, totality check, then atomic execution for the target user.
// Rule violations come back in the result; only store failures return an error.
func (s *RequisitionService) ValidateAndAssign(
	ctx context.Context,
	now DateStamp,
	userID UserID,
	requests []RequisitionRequest,
) (AssignResult, error) {
	if _, err := s.Users.GetUser(ctx, userID); err != nil {
		return AssignResult{}, err
	}

	outcome, err := s.Validator.ValidateRequisitions(ctx, now, requests)
	if err != nil {
		return AssignResult{}, err
	}
	if !outcome.Accepted {
		s.Log.WithFields(logrus.Fields{
			"user":   userID,
			"rows":   len(requests),
			"errors": len(outcome.Messages()),
		}).Warn("requisition batch rejected by row validation")
		return AssignResult{Outcome: outcome}, nil
	}

	shortfalls, err := s.CheckBatchTotality(ctx, now, outcome.Grants)
	if err != nil {
		return AssignResult{}, err
	}
	if len(shortfalls) > 0 {
		s.Log.WithFields(logrus.Fields{
			"user":       userID,
			"shortfalls": len(shortfalls),
		}).Warn("requisition batch rejected by totality check")
		return AssignResult{Outcome: outcome, Shortfalls: shortfalls}, nil
	}

	if err := s.Executor.Assign(ctx, userID, now, outcome.Grants); err != nil {
		return AssignResult{}, err
	}

	s.Log.WithFields(logrus.Fields{
		"user":   userID,
		"grants": len(outcome.Grants),
	}).Info("requisition batch assigned")
	return AssignResult{Outcome: outcome, Assigned: true}, nil
}
