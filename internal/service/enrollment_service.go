package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"service-enrollment/internal/domain"
	"service-enrollment/internal/repository"
)

// EnrollmentService is the entry point for the three state-changing
// operations. The acting identity is always passed in explicitly.
type EnrollmentService struct {
	txManager repository.TxManager
	guard     *AuthorizationGuard
	ledger    *Ledger
	logger    *zap.Logger
}

func NewEnrollmentService(
	txManager repository.TxManager,
	guard *AuthorizationGuard,
	ledger *Ledger,
	logger *zap.Logger,
) *EnrollmentService {
	return &EnrollmentService{
		txManager: txManager,
		guard:     guard,
		ledger:    ledger,
		logger:    logger,
	}
}

func (s *EnrollmentService) Enroll(ctx context.Context, actor domain.Identity, courseID uuid.UUID) (domain.Enrollment, error) {
	fields := []zap.Field{zap.String("student_id", actor.ID.String()), zap.String("course_id", courseID.String())}
	if err := s.guard.Authorize(actor, ActionEnroll, nil); err != nil {
		s.logFailure("enroll", err, fields...)
		return domain.Enrollment{}, err
	}

	var enrollment domain.Enrollment
	err := s.txManager.WithTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		var err error
		enrollment, err = s.ledger.Enroll(ctx, repos, actor.ID, courseID)
		return err
	})
	if err != nil {
		s.logFailure("enroll", err, fields...)
		return domain.Enrollment{}, err
	}

	s.logger.Info("student enrolled", append(fields, zap.String("enrollment_id", enrollment.ID.String()))...)
	return enrollment, nil
}

func (s *EnrollmentService) Unenroll(ctx context.Context, actor domain.Identity, courseID uuid.UUID) error {
	fields := []zap.Field{zap.String("student_id", actor.ID.String()), zap.String("course_id", courseID.String())}
	if err := s.guard.Authorize(actor, ActionUnenroll, nil); err != nil {
		s.logFailure("unenroll", err, fields...)
		return err
	}

	var removed domain.Enrollment
	err := s.txManager.WithTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		var err error
		removed, err = s.ledger.Unenroll(ctx, repos, actor.ID, courseID)
		return err
	})
	if err != nil {
		s.logFailure("unenroll", err, fields...)
		return err
	}

	s.logger.Info("student unenrolled", append(fields, zap.Float64("discarded_grade", removed.Grade))...)
	return nil
}

func (s *EnrollmentService) UpdateGrade(ctx context.Context, actor domain.Identity, enrollmentID uuid.UUID, grade string) (domain.Enrollment, error) {
	fields := []zap.Field{zap.String("teacher_id", actor.ID.String()), zap.String("enrollment_id", enrollmentID.String())}
	if err := s.guard.Authorize(actor, ActionUpdateGrade, nil); err != nil {
		s.logFailure("update grade", err, fields...)
		return domain.Enrollment{}, err
	}

	var updated domain.Enrollment
	err := s.txManager.WithTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		var err error
		updated, err = s.ledger.UpdateGrade(ctx, repos, actor, enrollmentID, grade)
		return err
	})
	if err != nil {
		s.logFailure("update grade", err, fields...)
		return domain.Enrollment{}, err
	}

	s.logger.Info("grade updated", append(fields, zap.Float64("grade", updated.Grade))...)
	return updated, nil
}

func (s *EnrollmentService) logFailure(operation string, err error, fields ...zap.Field) {
	fields = append(fields, zap.String("operation", operation), zap.Error(err))
	switch {
	case isExpected(err):
		s.logger.Info("request rejected", fields...)
	case IsRetryable(err):
		s.logger.Warn("storage busy", fields...)
	default:
		s.logger.Error("storage failure", fields...)
	}
}
