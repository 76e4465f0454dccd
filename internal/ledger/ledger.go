// Package ledger owns the applications embedded in a volunteer document.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"wolontariat/db"
	"wolontariat/internal/apperr"
	"wolontariat/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// Ledger is the only writer of Volunteer.Applications
type Ledger struct {
	store       db.Store
	log         *zap.Logger
	maxAttempts int
	now         func() time.Time
}

func NewLedger(store db.Store, log *zap.Logger, maxAttempts int) *Ledger {
	return &Ledger{
		store:       store,
		log:         log.Named("ledger"),
		maxAttempts: maxAttempts,
		now:         time.Now,
	}
}

func (l *Ledger) volunteer(ctx context.Context, volunteerID string) (*models.Volunteer, error) {
	var v models.Volunteer
	if err := l.store.Get(ctx, db.VolunteersCollection, volunteerID, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// Append adds app to the volunteer's list. A volunteer without a document gets
// one created with app as its only entry. A second application for the same
// offer is rejected with apperr.ErrDuplicateApplication.
func (l *Ledger) Append(ctx context.Context, volunteerID string, app models.Application) error {
	err := db.RetryOnConflict(ctx, l.maxAttempts, func() error {
		v, err := l.volunteer(ctx, volunteerID)
		if errors.Is(err, apperr.ErrNotFound) {
			return l.bootstrap(ctx, volunteerID, app)
		}
		if err != nil {
			return err
		}
		if _, exists := v.ApplicationForOffer(app.OfferID); exists {
			return apperr.ErrDuplicateApplication
		}

		applications := append(slices.Clone(v.Applications), app)
		return l.store.UpdateIfVersion(ctx, db.VolunteersCollection, volunteerID, v.Version, bson.M{
			"applications": applications,
			"updatedAt":    l.now().UTC(),
		})
	})
	if err != nil {
		return fmt.Errorf("append application for offer %s: %w", app.OfferID, err)
	}

	l.log.Info("application recorded",
		zap.String("volunteerId", volunteerID),
		zap.String("applicationId", app.ID),
		zap.String("offerId", app.OfferID))
	return nil
}

func (l *Ledger) bootstrap(ctx context.Context, volunteerID string, app models.Application) error {
	now := l.now().UTC()
	doc := models.Volunteer{
		ID:           volunteerID,
		Applications: []models.Application{app},
		Badges:       []models.BadgeState{},
		Comments:     []models.RatingComment{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err := l.store.Create(ctx, db.VolunteersCollection, &doc)
	if errors.Is(err, apperr.ErrDuplicate) {
		// Someone created the document between our read and our insert
		return apperr.ErrConflict
	}
	if err == nil {
		l.log.Debug("volunteer document bootstrapped", zap.String("volunteerId", volunteerID))
	}
	return err
}

// Remove drops the application with applicationID. An absent application or
// volunteer document is not an error; the bool reports whether anything was removed.
func (l *Ledger) Remove(ctx context.Context, volunteerID, applicationID string) (bool, error) {
	removed := false
	err := db.RetryOnConflict(ctx, l.maxAttempts, func() error {
		removed = false
		v, err := l.volunteer(ctx, volunteerID)
		if errors.Is(err, apperr.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		applications := slices.DeleteFunc(slices.Clone(v.Applications), func(a models.Application) bool {
			return a.ID == applicationID
		})
		if len(applications) == len(v.Applications) {
			return nil
		}
		err = l.store.UpdateIfVersion(ctx, db.VolunteersCollection, volunteerID, v.Version, bson.M{
			"applications": applications,
			"updatedAt":    l.now().UTC(),
		})
		if err != nil {
			return err
		}
		removed = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("remove application %s: %w", applicationID, err)
	}

	if removed {
		l.log.Info("application removed", zap.String("volunteerId", volunteerID), zap.String("applicationId", applicationID))
	}
	return removed, nil
}

// SetStatus updates the status of one application. The rejection reason is
// kept only for rejected applications.
func (l *Ledger) SetStatus(ctx context.Context, volunteerID, applicationID string, status models.ApplicationStatus, reason string) (*models.Application, error) {
	if !status.Valid() {
		return nil, apperr.ErrInvalidStatus
	}
	if status != models.ApplicationRejected {
		reason = ""
	}

	var updated models.Application
	err := db.RetryOnConflict(ctx, l.maxAttempts, func() error {
		v, err := l.volunteer(ctx, volunteerID)
		if err != nil {
			return err
		}

		applications := slices.Clone(v.Applications)
		idx := slices.IndexFunc(applications, func(a models.Application) bool {
			return a.ID == applicationID
		})
		if idx < 0 {
			return apperr.ErrNotFound
		}
		applications[idx].Status = status
		applications[idx].RejectionReason = reason
		updated = applications[idx]

		return l.store.UpdateIfVersion(ctx, db.VolunteersCollection, volunteerID, v.Version, bson.M{
			"applications": applications,
			"updatedAt":    l.now().UTC(),
		})
	})
	if err != nil {
		return nil, fmt.Errorf("set status of application %s: %w", applicationID, err)
	}

	l.log.Info("application status changed",
		zap.String("volunteerId", volunteerID),
		zap.String("applicationId", applicationID),
		zap.String("status", string(status)))
	return &updated, nil
}

// List returns the applications in storage order. A volunteer without a
// document has no applications.
func (l *Ledger) List(ctx context.Context, volunteerID string) ([]models.Application, error) {
	v, err := l.volunteer(ctx, volunteerID)
	if errors.Is(err, apperr.ErrNotFound) {
		return []models.Application{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	if v.Applications == nil {
		return []models.Application{}, nil
	}
	return v.Applications, nil
}

// Find returns the volunteer's application for offerID
func (l *Ledger) Find(ctx context.Context, volunteerID, offerID string) (models.Application, bool, error) {
	apps, err := l.List(ctx, volunteerID)
	if err != nil {
		return models.Application{}, false, err
	}
	for _, app := range apps {
		if app.OfferID == offerID {
			return app, true, nil
		}
	}
	return models.Application{}, false, nil
}

// VolunteerIDs lists the ids of every volunteer document
func (l *Ledger) VolunteerIDs(ctx context.Context) ([]string, error) {
	var volunteers []models.Volunteer
	if err := l.store.Query(ctx, db.VolunteersCollection, nil, &volunteers); err != nil {
		return nil, fmt.Errorf("list volunteers: %w", err)
	}
	ids := make([]string, 0, len(volunteers))
	for _, v := range volunteers {
		ids = append(ids, v.ID)
	}
	return ids, nil
}
