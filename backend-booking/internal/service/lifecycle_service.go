package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/JideOgun/Pro-Dj-sub004/backend-booking/internal/domain"
	"github.com/JideOgun/Pro-Dj-sub004/backend-booking/internal/dto"
	"github.com/JideOgun/Pro-Dj-sub004/backend-booking/internal/metrics"
	"github.com/JideOgun/Pro-Dj-sub004/backend-booking/internal/repository"
	"github.com/JideOgun/Pro-Dj-sub004/pkg/logger"
	"github.com/JideOgun/Pro-Dj-sub004/pkg/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// MaxReasonLength bounds the free-text reason of a transition
const MaxReasonLength = 500

// Sweep triggers, used for metrics and logs
const (
	TriggerAdmin  = "admin"
	TriggerCron   = "cron"
	TriggerWorker = "worker"
	TriggerCLI    = "cli"
)

// LifecycleService governs booking status transitions and their side effects
type LifecycleService interface {
	// GetBooking returns a booking visible to the actor
	GetBooking(ctx context.Context, actor domain.Actor, bookingID string) (*domain.Booking, error)

	// TransitionStatus applies a legal transition on behalf of an admin or the assigned DJ
	TransitionStatus(ctx context.Context, actor domain.Actor, bookingID, newStatus, reason string) (*domain.Booking, error)

	// AcceptBooking accepts a PENDING booking and binds it to a DJ when it
	// has none. A DJ claims an unassigned booking for their own profile; an
	// admin names the profile with djProfileID.
	AcceptBooking(ctx context.Context, actor domain.Actor, bookingID, djProfileID, reason string) (*domain.Booking, error)

	// ForceStatus is an admin override outside the transition table
	ForceStatus(ctx context.Context, actor domain.Actor, bookingID, newStatus, reason string) (*domain.Booking, error)

	// DeclineBooking cancels a PENDING or ACCEPTED booking and runs rejection recovery
	DeclineBooking(ctx context.Context, actor domain.Actor, bookingID, reason string) (*domain.Booking, error)

	// MarkPaid confirms an ACCEPTED booking and records the payment
	MarkPaid(ctx context.Context, actor domain.Actor, bookingID string) (*domain.Booking, error)

	// MarkPaidByCheckoutSession resolves the booking from a checkout session, then marks it paid
	MarkPaidByCheckoutSession(ctx context.Context, sessionID string) (*domain.Booking, error)

	// ProcessExpiredPendingBookings cancels PENDING bookings older than the pending timeout
	ProcessExpiredPendingBookings(ctx context.Context, trigger string) (*dto.SweepResult, error)

	// ListExpiredPendingBookings lists what the next sweep would cancel
	ListExpiredPendingBookings(ctx context.Context) (*dto.ExpiredBookingsResponse, error)
}

// LifecycleConfig contains configuration for the lifecycle service
type LifecycleConfig struct {
	PendingTimeout time.Duration
	SweepBatchSize int
	ListLimit      int
	// Now is the clock; tests replace it
	Now func() time.Time
}

// LifecycleDeps groups the collaborators of the lifecycle service
type LifecycleDeps struct {
	Bookings repository.BookingRepository
	Writer   repository.StatusWriter
	Users    repository.UserRepository
	DJs      repository.DjProfileRepository
	Lock     repository.SweepLock
	Recovery RejectionRecovery
	Email    EmailSender
}

type lifecycleService struct {
	bookings repository.BookingRepository
	writer   repository.StatusWriter
	users    repository.UserRepository
	djs      repository.DjProfileRepository
	lock     repository.SweepLock
	recovery RejectionRecovery
	email    EmailSender

	pendingTimeout time.Duration
	batchSize      int
	listLimit      int
	now            func() time.Time
}

// NewLifecycleService creates a new lifecycle service
func NewLifecycleService(deps LifecycleDeps, cfg *LifecycleConfig) LifecycleService {
	s := &lifecycleService{
		bookings:       deps.Bookings,
		writer:         deps.Writer,
		users:          deps.Users,
		djs:            deps.DJs,
		lock:           deps.Lock,
		recovery:       deps.Recovery,
		email:          deps.Email,
		pendingTimeout: 48 * time.Hour,
		batchSize:      100,
		listLimit:      500,
		now:            time.Now,
	}
	if cfg != nil {
		if cfg.PendingTimeout > 0 {
			s.pendingTimeout = cfg.PendingTimeout
		}
		if cfg.SweepBatchSize > 0 {
			s.batchSize = cfg.SweepBatchSize
		}
		if cfg.ListLimit > 0 {
			s.listLimit = cfg.ListLimit
		}
		if cfg.Now != nil {
			s.now = cfg.Now
		}
	}
	return s
}

// GetBooking returns a booking to an admin, its client or its assigned DJ
func (s *lifecycleService) GetBooking(ctx context.Context, actor domain.Actor, bookingID string) (*domain.Booking, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.lifecycle.get_booking")
	defer span.End()

	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := validateBookingID(bookingID); err != nil {
		return nil, err
	}

	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if !actor.IsAdmin() && !booking.BelongsToClient(actor.UserID) && !booking.IsAssignedDJ(actor.UserID) {
		return nil, domain.ErrForbidden
	}
	return booking, nil
}

// TransitionStatus applies a regular transition. Confirming is a payment
// and goes through the same path as MarkPaid.
func (s *lifecycleService) TransitionStatus(ctx context.Context, actor domain.Actor, bookingID, newStatus, reason string) (*domain.Booking, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.lifecycle.transition_status")
	defer span.End()

	to, reason, err := validateTransitionInput(actor, bookingID, newStatus, reason)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.String("booking_id", bookingID),
		attribute.String("to", to.String()),
		attribute.String("actor_role", string(actor.Role)),
	)

	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if to == domain.BookingStatusAccepted {
		return s.accept(ctx, actor, booking, "", reason)
	}

	if !canManage(actor, booking) {
		return nil, domain.ErrForbidden
	}

	if to == domain.BookingStatusConfirmed {
		if !actor.IsAdmin() {
			return nil, domain.ErrForbidden
		}
		return s.confirmPaid(ctx, actor, booking, "admin")
	}

	if err := checkTransition(booking.Status, to); err != nil {
		return nil, err
	}

	updated, err := s.apply(ctx, booking, actor, to, reason, kindRegular, domain.EventTypeForStatus(to), false, nil)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if to == domain.BookingStatusDeclined || to == domain.BookingStatusCancelled {
		s.runRecovery(ctx, updated, reason, "transition")
	}

	span.SetStatus(codes.Ok, "")
	return updated, nil
}

// AcceptBooking accepts a PENDING booking, assigning djProfileID when the
// booking has no DJ yet
func (s *lifecycleService) AcceptBooking(ctx context.Context, actor domain.Actor, bookingID, djProfileID, reason string) (*domain.Booking, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.lifecycle.accept_booking")
	defer span.End()

	_, reason, err := validateTransitionInput(actor, bookingID, domain.BookingStatusAccepted.String(), reason)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	djProfileID = strings.TrimSpace(djProfileID)
	if djProfileID != "" {
		if _, err := uuid.Parse(djProfileID); err != nil {
			return nil, domain.ErrInvalidDjProfileID
		}
	}

	span.SetAttributes(
		attribute.String("booking_id", bookingID),
		attribute.String("dj_profile_id", djProfileID),
		attribute.String("actor_role", string(actor.Role)),
	)

	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return s.accept(ctx, actor, booking, djProfileID, reason)
}

// accept moves booking to ACCEPTED. An unassigned booking is bound to the
// accepting DJ, or to djProfileID when an admin accepts.
func (s *lifecycleService) accept(ctx context.Context, actor domain.Actor, booking *domain.Booking, djProfileID, reason string) (*domain.Booking, error) {
	span := trace.SpanFromContext(ctx)

	assign, err := s.resolveAssignment(ctx, actor, booking, djProfileID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if err := checkTransition(booking.Status, domain.BookingStatusAccepted); err != nil {
		return nil, err
	}

	updated, err := s.apply(ctx, booking, actor, domain.BookingStatusAccepted, reason, kindRegular,
		domain.EventTypeForStatus(domain.BookingStatusAccepted), false, assign)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if assign != nil {
		logger.Get().Info("DJ assigned on accept",
			zap.String("booking_id", updated.ID),
			zap.String("dj_profile_id", assign.ID),
			zap.String("actor_id", actor.UserID),
		)
	}

	span.SetStatus(codes.Ok, "")
	return updated, nil
}

// resolveAssignment returns the profile to bind on accept, or nil when the
// booking already has its DJ
func (s *lifecycleService) resolveAssignment(ctx context.Context, actor domain.Actor, booking *domain.Booking, djProfileID string) (*domain.DjProfile, error) {
	if booking.HasDJ() {
		if djProfileID != "" && djProfileID != booking.DjID {
			return nil, domain.ErrDjAlreadyAssigned
		}
		if !canManage(actor, booking) {
			return nil, domain.ErrForbidden
		}
		return nil, nil
	}

	if s.djs == nil {
		return nil, domain.ErrDjRequired
	}

	var profile *domain.DjProfile
	switch {
	case actor.IsAdmin():
		if djProfileID == "" {
			return nil, domain.ErrDjRequired
		}
		p, err := s.djs.GetDjProfile(ctx, djProfileID)
		if err != nil {
			return nil, err
		}
		profile = p
	case actor.Role == domain.RoleDJ:
		if _, err := uuid.Parse(actor.UserID); err != nil {
			return nil, domain.ErrForbidden
		}
		p, err := s.djs.GetDjProfileByUserID(ctx, actor.UserID)
		if errors.Is(err, domain.ErrDjProfileNotFound) {
			return nil, domain.ErrForbidden
		}
		if err != nil {
			return nil, err
		}
		if djProfileID != "" && djProfileID != p.ID {
			return nil, domain.ErrForbidden
		}
		profile = p
	default:
		return nil, domain.ErrForbidden
	}

	if !profile.IsAvailable() {
		return nil, domain.ErrDjUnavailable
	}
	return profile, nil
}

// ForceStatus sets any status on a non-terminal booking. It is admin only,
// needs a reason and is recorded as forced in history, logs and events.
func (s *lifecycleService) ForceStatus(ctx context.Context, actor domain.Actor, bookingID, newStatus, reason string) (*domain.Booking, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.lifecycle.force_status")
	defer span.End()

	to, reason, err := validateTransitionInput(actor, bookingID, newStatus, reason)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	if reason == "" {
		return nil, domain.ErrReasonRequired
	}

	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if booking.Status.IsTerminal() {
		return nil, domain.ErrTerminalStatus
	}
	if booking.Status == to {
		return nil, domain.ErrIllegalTransition
	}
	if !booking.HasDJ() && (to == domain.BookingStatusAccepted || to == domain.BookingStatusConfirmed) {
		return nil, domain.ErrDjRequired
	}

	updated, err := s.apply(ctx, booking, actor, to, reason, kindOverride, domain.BookingEventStatusOverridden, to == domain.BookingStatusConfirmed, nil)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	logger.Get().Warn("Booking status overridden",
		zap.String("booking_id", updated.ID),
		zap.String("from", booking.Status.String()),
		zap.String("to", to.String()),
		zap.String("actor_id", actor.UserID),
		zap.String("reason", reason),
		zap.Bool("forced", true),
	)

	span.SetAttributes(attribute.Bool("forced", true))
	return updated, nil
}

// DeclineBooking always ends in CANCELLED
func (s *lifecycleService) DeclineBooking(ctx context.Context, actor domain.Actor, bookingID, reason string) (*domain.Booking, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.lifecycle.decline_booking")
	defer span.End()

	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := validateBookingID(bookingID); err != nil {
		return nil, err
	}
	reason, err := validateReason(reason)
	if err != nil {
		return nil, err
	}
	if reason == "" {
		return nil, domain.ErrReasonRequired
	}

	span.SetAttributes(attribute.String("booking_id", bookingID))

	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if !canManage(actor, booking) {
		return nil, domain.ErrForbidden
	}
	if err := checkTransition(booking.Status, domain.BookingStatusCancelled); err != nil {
		return nil, err
	}

	updated, err := s.apply(ctx, booking, actor, domain.BookingStatusCancelled, reason, kindDecline, domain.BookingEventDeclined, false, nil)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	s.runRecovery(ctx, updated, reason, "decline")

	span.SetStatus(codes.Ok, "")
	return updated, nil
}

// MarkPaid confirms an ACCEPTED booking. A booking already confirmed and
// paid is returned unchanged.
func (s *lifecycleService) MarkPaid(ctx context.Context, actor domain.Actor, bookingID string) (*domain.Booking, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.lifecycle.mark_paid")
	defer span.End()

	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	if err := validateBookingID(bookingID); err != nil {
		return nil, err
	}

	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	source := "admin"
	if actor.IsSystem() {
		source = "payment_event"
	}
	return s.confirmPaid(ctx, actor, booking, source)
}

// MarkPaidByCheckoutSession is used by the payment webhook
func (s *lifecycleService) MarkPaidByCheckoutSession(ctx context.Context, sessionID string) (*domain.Booking, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.lifecycle.mark_paid_by_checkout_session")
	defer span.End()

	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, domain.ErrInvalidSessionID
	}

	booking, err := s.bookings.GetByCheckoutSession(ctx, sessionID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.String("booking_id", booking.ID))
	return s.confirmPaid(ctx, domain.SystemActor, booking, "stripe")
}

func (s *lifecycleService) confirmPaid(ctx context.Context, actor domain.Actor, booking *domain.Booking, source string) (*domain.Booking, error) {
	if booking.IsPaidConfirmed() {
		return booking, nil
	}
	if booking.Status != domain.BookingStatusAccepted {
		return nil, domain.ErrNotPayable
	}

	updated, err := s.apply(ctx, booking, actor, domain.BookingStatusConfirmed, "", kindPayment, domain.BookingEventPaid, true, nil)
	if errors.Is(err, domain.ErrStatusChanged) {
		// a concurrent payment path may have won
		current, gerr := s.bookings.GetByID(ctx, booking.ID)
		if gerr == nil && current.IsPaidConfirmed() {
			return current, nil
		}
	}
	if err != nil {
		return nil, err
	}

	metrics.RecordPayment(ctx, source)
	s.sendConfirmationEmail(ctx, updated)
	return updated, nil
}

// ProcessExpiredPendingBookings is the timeout sweep. Each booking is
// handled independently; a compare-and-set miss counts as skipped.
func (s *lifecycleService) ProcessExpiredPendingBookings(ctx context.Context, trigger string) (*dto.SweepResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.lifecycle.process_expired")
	defer span.End()

	log := logger.Get()
	start := s.now()
	result := &dto.SweepResult{Cutoff: start.Add(-s.pendingTimeout)}

	span.SetAttributes(
		attribute.String("trigger", trigger),
		attribute.String("cutoff", result.Cutoff.Format(time.RFC3339)),
	)

	if s.lock != nil {
		release, acquired, err := s.lock.TryAcquire(ctx)
		switch {
		case err != nil:
			log.Warn("Sweep lock unavailable, running without it", zap.Error(err))
		case !acquired:
			result.LockHeld = true
			span.SetAttributes(attribute.Bool("lock_held", true))
			log.Info("Timeout sweep skipped, lock held elsewhere", zap.String("trigger", trigger))
			return result, nil
		default:
			defer release()
		}
	}

	reason := timeoutReason(s.pendingTimeout)
	seen := make(map[string]struct{})

	for ctx.Err() == nil {
		// bookings that failed stay PENDING and sort first; ask past them
		limit := s.batchSize + result.Failed + result.Skipped
		batch, err := s.bookings.ListExpiredPending(ctx, result.Cutoff, limit)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}

		progressed := false
		for _, b := range batch {
			if _, ok := seen[b.ID]; ok {
				continue
			}
			seen[b.ID] = struct{}{}
			progressed = true

			if ctx.Err() != nil {
				break
			}
			s.expireOne(ctx, b, reason, result)
		}

		if !progressed || len(batch) < limit {
			break
		}
	}

	result.Duration = s.now().Sub(start)
	metrics.RecordSweep(ctx, trigger, result.Processed, result.Failed, result.Duration.Seconds())

	span.SetAttributes(
		attribute.Int("processed", result.Processed),
		attribute.Int("failed", result.Failed),
		attribute.Int("skipped", result.Skipped),
	)

	fields := []zap.Field{
		zap.String("trigger", trigger),
		zap.Int("processed", result.Processed),
		zap.Int("failed", result.Failed),
		zap.Int("skipped", result.Skipped),
		zap.Duration("duration", result.Duration),
	}
	if result.Failed > 0 {
		log.Warn("Timeout sweep completed with failures", append(fields, zap.Strings("errors", result.Errors))...)
	} else {
		log.Info("Timeout sweep completed", fields...)
	}

	return result, nil
}

func (s *lifecycleService) expireOne(ctx context.Context, b *domain.Booking, reason string, result *dto.SweepResult) {
	updated, err := s.apply(ctx, b, domain.SystemActor, domain.BookingStatusCancelled, reason, kindExpiry, domain.BookingEventExpired, false, nil)
	switch {
	case errors.Is(err, domain.ErrStatusChanged), errors.Is(err, domain.ErrBookingNotFound):
		result.Skipped++
		return
	case err != nil:
		result.Failed++
		result.Errors = append(result.Errors, fmt.Sprintf("booking %s: %v", b.ID, err))
		logger.Get().Error("Failed to expire booking", zap.String("booking_id", b.ID), zap.Error(err))
		return
	}

	result.Processed++
	s.runRecovery(ctx, updated, reason, "expiry")
}

// ListExpiredPendingBookings reports PENDING bookings past the deadline
func (s *lifecycleService) ListExpiredPendingBookings(ctx context.Context) (*dto.ExpiredBookingsResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.lifecycle.list_expired")
	defer span.End()

	cutoff := s.now().Add(-s.pendingTimeout)

	count, err := s.bookings.CountExpiredPending(ctx, cutoff)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	bookings, err := s.bookings.ListExpiredPending(ctx, cutoff, s.listLimit)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	return &dto.ExpiredBookingsResponse{
		Count:    count,
		Cutoff:   cutoff,
		Bookings: dto.FromDomainList(bookings),
	}, nil
}

// apply writes one transition with its history, notifications and event
func (s *lifecycleService) apply(
	ctx context.Context,
	booking *domain.Booking,
	actor domain.Actor,
	to domain.BookingStatus,
	reason string,
	kind transitionKind,
	eventType domain.BookingEventType,
	setPaid bool,
	assign *domain.DjProfile,
) (*domain.Booking, error) {
	forced := kind == kindOverride
	change := domain.NewStatusChange(booking.ID, booking.Status, to, actor, reason, forced)

	notified := booking
	if assign != nil {
		cp := *booking
		cp.DjID, cp.DjUserID = assign.ID, assign.UserID
		notified = &cp
	}

	updated, err := s.writer.ApplyStatusChange(ctx, &repository.StatusUpdate{
		BookingID:     booking.ID,
		Expected:      booking.Status,
		Change:        change,
		SetPaid:       setPaid,
		AssignDj:      assign,
		EventType:     eventType,
		Notifications: buildNotifications(notified, to, reason, kind),
	})
	if err != nil {
		return nil, err
	}

	if err := updated.CheckPaidInvariant(); err != nil {
		logger.Get().Error("Paid invariant violated after transition",
			zap.String("booking_id", updated.ID),
			zap.String("status", updated.Status.String()),
			zap.Bool("is_paid", updated.IsPaid),
		)
		return nil, err
	}

	metrics.RecordTransition(ctx, booking.Status.String(), to.String(), forced)
	return updated, nil
}

// runRecovery invokes rejection recovery; failures are logged only
func (s *lifecycleService) runRecovery(ctx context.Context, booking *domain.Booking, reason, trigger string) {
	if s.recovery == nil {
		return
	}
	err := s.recovery.Recover(ctx, booking, reason)
	metrics.RecordRecovery(ctx, trigger, err == nil)
	if err != nil {
		metrics.RecordSideEffectFailure(ctx, "recovery")
		logger.Get().Error("Rejection recovery failed",
			zap.String("booking_id", booking.ID),
			zap.String("trigger", trigger),
			zap.Error(err),
		)
	}
}

// sendConfirmationEmail is best effort
func (s *lifecycleService) sendConfirmationEmail(ctx context.Context, booking *domain.Booking) {
	if s.email == nil || s.users == nil {
		return
	}

	log := logger.Get()
	client, err := s.users.GetByID(ctx, booking.ClientUserID)
	if err == nil {
		err = s.email.SendBookingConfirmation(ctx, client, booking)
	}
	if err != nil {
		metrics.RecordSideEffectFailure(ctx, "email")
		log.Error("Failed to send confirmation email",
			zap.String("booking_id", booking.ID),
			zap.String("client_user_id", booking.ClientUserID),
			zap.Error(err),
		)
	}
}

// canManage reports whether actor may change the booking's status
func canManage(actor domain.Actor, booking *domain.Booking) bool {
	return actor.IsAdmin() || (actor.Role == domain.RoleDJ && booking.IsAssignedDJ(actor.UserID))
}

func checkTransition(from, to domain.BookingStatus) error {
	if from.IsTerminal() {
		return domain.ErrTerminalStatus
	}
	if !from.CanTransitionTo(to) {
		return domain.ErrIllegalTransition
	}
	return nil
}

func requireActor(actor domain.Actor) error {
	if actor.UserID == "" && !actor.IsSystem() {
		return domain.ErrUnauthenticated
	}
	return nil
}

func validateBookingID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrInvalidBookingID
	}
	return nil
}

func validateReason(reason string) (string, error) {
	reason = strings.TrimSpace(reason)
	if utf8.RuneCountInString(reason) > MaxReasonLength {
		return "", domain.ErrReasonTooLong
	}
	return reason, nil
}

func validateTransitionInput(actor domain.Actor, bookingID, newStatus, reason string) (domain.BookingStatus, string, error) {
	if err := requireActor(actor); err != nil {
		return "", "", err
	}
	if err := validateBookingID(bookingID); err != nil {
		return "", "", err
	}
	to, err := domain.ParseBookingStatus(newStatus)
	if err != nil {
		return "", "", err
	}
	reason, err = validateReason(reason)
	if err != nil {
		return "", "", err
	}
	return to, reason, nil
}

// timeoutReason renders the reason recorded on expired bookings
func timeoutReason(timeout time.Duration) string {
	return fmt.Sprintf("Booking request timed out after %s without a response", formatTimeout(timeout))
}

func formatTimeout(d time.Duration) string {
	if d%time.Hour == 0 {
		return fmt.Sprintf("%dh", int64(d/time.Hour))
	}
	return d.String()
}
