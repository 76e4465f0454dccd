// Package enrollment runs signup and cancellation across the offer roster and
// the volunteer's application list, which live in different documents and
// cannot be written together.
package enrollment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wolontariat/internal/apperr"
	"wolontariat/internal/events"
	"wolontariat/internal/ledger"
	"wolontariat/internal/roster"
	"wolontariat/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Coordinator orders the roster and ledger writes. The application is always
// written first and removed last, so a failure in between leaves at most an
// application without a roster entry, which the volunteer can see and
// Reconcile can finish.
type Coordinator struct {
	roster    *roster.Manager
	ledger    *ledger.Ledger
	publisher events.Publisher
	log       *zap.Logger
	now       func() time.Time
}

func NewCoordinator(r *roster.Manager, l *ledger.Ledger, publisher events.Publisher, log *zap.Logger) *Coordinator {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Coordinator{
		roster:    r,
		ledger:    l,
		publisher: publisher,
		log:       log.Named("enrollment"),
		now:       time.Now,
	}
}

// Signup enrolls volunteerID in offerID.
//
// On success the enrollment is FullyJoined. When the roster turns out to be
// full, or the offer is gone, the new application is removed again and the
// join error (apperr.ErrFull or apperr.ErrNotFound) is returned; if that
// removal fails too, the returned enrollment is ApplicationOnly. A store
// failure during the roster step also leaves ApplicationOnly. A Cancel that
// removes the application while the join is in flight wins: the roster entry
// is released and apperr.ErrSignupCancelled is returned.
func (c *Coordinator) Signup(ctx context.Context, volunteerID, offerID string) (*Enrollment, error) {
	now := c.now().UTC()

	offer, err := c.roster.Get(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if !offer.AcceptsSignups(now) {
		return nil, fmt.Errorf("signup for offer %s: %w", offerID, apperr.ErrOfferClosed)
	}
	if offer.IsFull() && !offer.HasParticipant(volunteerID) {
		return nil, fmt.Errorf("signup for offer %s: %w", offerID, apperr.ErrFull)
	}
	if _, exists, err := c.ledger.Find(ctx, volunteerID, offerID); err != nil {
		return nil, err
	} else if exists {
		return nil, fmt.Errorf("signup for offer %s: %w", offerID, apperr.ErrDuplicateApplication)
	}

	app := models.Application{
		ID:               uuid.NewString(),
		OfferID:          offer.ID,
		OfferTitle:       offer.Title,
		OrganizationName: offer.OrganizationName,
		Status:           models.ApplicationPending,
		AppliedAt:        now,
	}
	if err := c.ledger.Append(ctx, volunteerID, app); err != nil {
		return nil, err
	}

	enrollment := &Enrollment{OfferID: offerID, VolunteerID: volunteerID, Application: &app}

	_, joinErr := c.roster.Join(ctx, offerID, volunteerID)
	switch {
	case joinErr == nil, errors.Is(joinErr, apperr.ErrAlreadyMember):
		if c.withdrawnDuringJoin(ctx, volunteerID, offerID, app.ID) {
			return c.releaseWithdrawn(ctx, enrollment)
		}
		enrollment.State = StateFullyJoined
		c.log.Info("signup complete", zap.String("volunteerId", volunteerID), zap.String("offerId", offerID))
		c.publish(ctx, enrollment)
		return enrollment, nil

	case errors.Is(joinErr, apperr.ErrFull), errors.Is(joinErr, apperr.ErrNotFound):
		// Lost the race for the last place, or the offer vanished: undo our own append
		if _, err := c.ledger.Remove(ctx, volunteerID, app.ID); err != nil {
			enrollment.State = StateApplicationOnly
			c.log.Warn("signup rollback failed, application left for reconciliation",
				zap.String("volunteerId", volunteerID),
				zap.String("offerId", offerID),
				zap.String("applicationId", app.ID),
				zap.Error(err))
			c.publish(ctx, enrollment)
			return enrollment, fmt.Errorf("signup for offer %s: %w (rollback failed: %v)", offerID, joinErr, err)
		}
		c.log.Info("signup rolled back", zap.String("volunteerId", volunteerID), zap.String("offerId", offerID), zap.Error(joinErr))
		return nil, fmt.Errorf("signup for offer %s: %w", offerID, joinErr)

	default:
		enrollment.State = StateApplicationOnly
		c.log.Warn("roster join failed, application left for reconciliation",
			zap.String("volunteerId", volunteerID),
			zap.String("offerId", offerID),
			zap.Error(joinErr))
		c.publish(ctx, enrollment)
		return enrollment, joinErr
	}
}

// withdrawnDuringJoin reports whether the application written by this signup
// was removed before the roster entry landed. A failed read is logged and
// treated as not withdrawn; the sweep covers that case.
func (c *Coordinator) withdrawnDuringJoin(ctx context.Context, volunteerID, offerID, applicationID string) bool {
	current, found, err := c.ledger.Find(ctx, volunteerID, offerID)
	if err != nil {
		c.log.Warn("could not confirm application after join",
			zap.String("volunteerId", volunteerID),
			zap.String("offerId", offerID),
			zap.Error(err))
		return false
	}
	return !found || current.ID != applicationID
}

// releaseWithdrawn undoes the roster entry of a signup that was cancelled
// while joining
func (c *Coordinator) releaseWithdrawn(ctx context.Context, enrollment *Enrollment) (*Enrollment, error) {
	enrollment.Application = nil
	if _, err := c.roster.Leave(ctx, enrollment.OfferID, enrollment.VolunteerID); err != nil {
		enrollment.State = StateRosterOnly
		c.log.Warn("release after concurrent cancel failed, roster entry left for reconciliation",
			zap.String("volunteerId", enrollment.VolunteerID),
			zap.String("offerId", enrollment.OfferID),
			zap.Error(err))
		c.publish(ctx, enrollment)
		return enrollment, fmt.Errorf("signup for offer %s: %w (release failed: %v)", enrollment.OfferID, apperr.ErrSignupCancelled, err)
	}
	enrollment.State = StateNone
	c.log.Info("signup cancelled while joining",
		zap.String("volunteerId", enrollment.VolunteerID),
		zap.String("offerId", enrollment.OfferID))
	c.publish(ctx, enrollment)
	return enrollment, fmt.Errorf("signup for offer %s: %w", enrollment.OfferID, apperr.ErrSignupCancelled)
}

// Cancel withdraws volunteerID from offerID. The roster entry is released
// first and the application is removed whatever happened to the roster; only
// a failed application removal fails the call.
func (c *Coordinator) Cancel(ctx context.Context, volunteerID, offerID string) (*CancelResult, error) {
	result := &CancelResult{OfferID: offerID, VolunteerID: volunteerID}

	released, err := c.roster.Leave(ctx, offerID, volunteerID)
	switch {
	case err == nil:
		result.RosterReleased = released
	case errors.Is(err, apperr.ErrNotFound):
		c.log.Debug("cancel for missing offer", zap.String("offerId", offerID))
	default:
		result.RosterLeaveFailed = true
		c.log.Warn("roster leave failed during cancel",
			zap.String("volunteerId", volunteerID),
			zap.String("offerId", offerID),
			zap.Error(err))
	}

	app, found, err := c.ledger.Find(ctx, volunteerID, offerID)
	if err != nil {
		return result, fmt.Errorf("cancel offer %s: %w", offerID, err)
	}
	if found {
		removed, err := c.ledger.Remove(ctx, volunteerID, app.ID)
		if err != nil {
			return result, fmt.Errorf("cancel offer %s: %w", offerID, err)
		}
		result.ApplicationRemoved = removed

		// A signup still joining when the first leave ran sees its application
		// gone only if it checks after our removal; release again for the
		// join that landed in between, unless a newer signup already holds
		// an application for the offer.
		c.releaseAfterRemove(ctx, result)
	}

	c.log.Info("enrollment cancelled",
		zap.String("volunteerId", volunteerID),
		zap.String("offerId", offerID),
		zap.Bool("rosterReleased", result.RosterReleased),
		zap.Bool("applicationRemoved", result.ApplicationRemoved))

	state := StateNone
	if result.RosterLeaveFailed {
		state = StateRosterOnly
	}
	c.publish(ctx, &Enrollment{OfferID: offerID, VolunteerID: volunteerID, State: state})
	return result, nil
}

func (c *Coordinator) releaseAfterRemove(ctx context.Context, result *CancelResult) {
	if _, newer, err := c.ledger.Find(ctx, result.VolunteerID, result.OfferID); err != nil || newer {
		return
	}
	again, err := c.roster.Leave(ctx, result.OfferID, result.VolunteerID)
	switch {
	case err == nil:
		result.RosterReleased = result.RosterReleased || again
		result.RosterLeaveFailed = false
	case errors.Is(err, apperr.ErrNotFound):
	default:
		result.RosterLeaveFailed = true
		c.log.Warn("second roster leave failed during cancel",
			zap.String("volunteerId", result.VolunteerID),
			zap.String("offerId", result.OfferID),
			zap.Error(err))
	}
}

// Status reads both documents and reports the current enrollment state
func (c *Coordinator) Status(ctx context.Context, volunteerID, offerID string) (*Enrollment, error) {
	app, found, err := c.ledger.Find(ctx, volunteerID, offerID)
	if err != nil {
		return nil, err
	}
	member, err := c.roster.IsMember(ctx, offerID, volunteerID)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}

	enrollment := &Enrollment{
		OfferID:     offerID,
		VolunteerID: volunteerID,
		State:       stateOf(found, member),
	}
	if found {
		enrollment.Application = &app
	}
	return enrollment, nil
}

// Reconcile drives a half-finished enrollment to a consistent state. An
// application without a roster entry is joined, or removed when the offer has
// no room left; a roster entry without an application is released.
func (c *Coordinator) Reconcile(ctx context.Context, volunteerID, offerID string) (*Enrollment, error) {
	current, err := c.Status(ctx, volunteerID, offerID)
	if err != nil {
		return nil, err
	}

	switch current.State {
	case StateApplicationOnly:
		_, joinErr := c.roster.Join(ctx, offerID, volunteerID)
		switch {
		case joinErr == nil, errors.Is(joinErr, apperr.ErrAlreadyMember):
			current.State = StateFullyJoined
		case errors.Is(joinErr, apperr.ErrFull), errors.Is(joinErr, apperr.ErrNotFound):
			if _, err := c.ledger.Remove(ctx, volunteerID, current.Application.ID); err != nil {
				return current, err
			}
			current.State = StateNone
			current.Application = nil
			c.publish(ctx, current)
			return current, joinErr
		default:
			return current, joinErr
		}

	case StateRosterOnly:
		if _, err := c.roster.Leave(ctx, offerID, volunteerID); err != nil {
			return current, err
		}
		current.State = StateNone

	default:
		return current, nil
	}

	c.log.Info("enrollment reconciled",
		zap.String("volunteerId", volunteerID),
		zap.String("offerId", offerID),
		zap.String("state", current.State.String()))
	c.publish(ctx, current)
	return current, nil
}

// ReconcileVolunteer reconciles every offer the volunteer has an application
// for or a roster entry in.
func (c *Coordinator) ReconcileVolunteer(ctx context.Context, volunteerID string) (*SweepReport, error) {
	apps, err := c.ledger.List(ctx, volunteerID)
	if err != nil {
		return nil, err
	}
	joined, err := c.roster.ListJoined(ctx, volunteerID)
	if err != nil {
		return nil, err
	}

	var offerIDs []string
	seen := make(map[string]bool)
	for _, app := range apps {
		if !seen[app.OfferID] {
			seen[app.OfferID] = true
			offerIDs = append(offerIDs, app.OfferID)
		}
	}
	for _, offer := range joined {
		if !seen[offer.ID] {
			seen[offer.ID] = true
			offerIDs = append(offerIDs, offer.ID)
		}
	}

	report := &SweepReport{}
	for _, offerID := range offerIDs {
		report.Checked++
		before, err := c.Status(ctx, volunteerID, offerID)
		if err != nil {
			report.fail(volunteerID, offerID, err)
			continue
		}
		if before.State == StateFullyJoined {
			continue
		}
		if _, err := c.Reconcile(ctx, volunteerID, offerID); err != nil && !apperr.IsTerminal(err) && !errors.Is(err, apperr.ErrNotFound) {
			report.fail(volunteerID, offerID, err)
			continue
		}
		report.Repaired++
	}
	return report, nil
}

// Sweep reconciles every volunteer known to either the ledger or a roster
func (c *Coordinator) Sweep(ctx context.Context) (*SweepReport, error) {
	volunteerIDs, err := c.ledger.VolunteerIDs(ctx)
	if err != nil {
		return nil, err
	}
	offers, err := c.roster.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(volunteerIDs))
	for _, id := range volunteerIDs {
		seen[id] = true
	}
	for _, offer := range offers {
		for _, id := range offer.Participants {
			if !seen[id] {
				seen[id] = true
				volunteerIDs = append(volunteerIDs, id)
			}
		}
	}

	total := &SweepReport{}
	for _, volunteerID := range volunteerIDs {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		report, err := c.ReconcileVolunteer(ctx, volunteerID)
		if err != nil {
			total.fail(volunteerID, "*", err)
			continue
		}
		total.Checked += report.Checked
		total.Repaired += report.Repaired
		total.Failed += report.Failed
		total.Errors = append(total.Errors, report.Errors...)
	}
	c.log.Info("reconciliation sweep finished",
		zap.Int("volunteers", len(volunteerIDs)),
		zap.Int("checked", total.Checked),
		zap.Int("repaired", total.Repaired),
		zap.Int("failed", total.Failed))
	return total, nil
}

func (r *SweepReport) fail(volunteerID, offerID string, err error) {
	r.Failed++
	r.Errors = append(r.Errors, fmt.Sprintf("%s/%s: %v", volunteerID, offerID, err))
}

func (c *Coordinator) publish(ctx context.Context, e *Enrollment) {
	event := models.GamificationEvent{
		Type:      models.EventEnrollmentChanged,
		UserID:    e.VolunteerID,
		OfferID:   e.OfferID,
		State:     e.State.String(),
		Timestamp: c.now().UTC(),
	}
	if err := c.publisher.Publish(ctx, event); err != nil {
		c.log.Warn("failed to publish enrollment event", zap.String("offerId", e.OfferID), zap.Error(err))
	}
}
