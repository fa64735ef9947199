package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"codeprep/internal/app/access"
	"codeprep/internal/common"
	"codeprep/internal/domain/model"
	"codeprep/internal/domain/repository"
	"codeprep/internal/platform/database"
	"codeprep/internal/platform/payment"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PaymentService struct {
	paymentRepo repository.PaymentRepository
	userRepo    repository.UserRepository
	tx          database.Transactor
	gateway     payment.Gateway
	logger      *zap.Logger
	now         func() time.Time
}

func NewPaymentService(
	paymentRepo repository.PaymentRepository,
	userRepo repository.UserRepository,
	tx database.Transactor,
	gateway payment.Gateway,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		paymentRepo: paymentRepo,
		userRepo:    userRepo,
		tx:          tx,
		gateway:     gateway,
		logger:      logger,
		now:         time.Now,
	}
}

type CreateOrderRequest struct {
	Plan string `json:"plan" validate:"required,oneof=pro premium premium_monthly premium_yearly"`
}

type CreateOrderResponse struct {
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Plan     string `json:"plan"`
	KeyID    string `json:"key_id"`
}

// VerifyPaymentRequest carries the checkout handler response as Razorpay
// sends it.
type VerifyPaymentRequest struct {
	OrderID   string `json:"razorpay_order_id" validate:"required"`
	PaymentID string `json:"razorpay_payment_id" validate:"required"`
	Signature string `json:"razorpay_signature" validate:"required"`
}

type PaymentFailureRequest struct {
	OrderID string `json:"razorpay_order_id" validate:"required"`
}

func (s *PaymentService) CreateOrder(ctx context.Context, p access.Principal, req CreateOrderRequest) (*CreateOrderResponse, error) {
	if err := access.RequireUser(p); err != nil {
		return nil, err
	}
	req.Plan = strings.ToLower(strings.TrimSpace(req.Plan))
	if err := common.Validate(req); err != nil {
		return nil, err
	}
	price, ok := model.PriceForPlan(req.Plan)
	if !ok {
		return nil, fmt.Errorf("plan %q is not purchasable: %w", req.Plan, common.ErrValidation)
	}

	order, err := s.gateway.CreateOrder(ctx, payment.OrderRequest{
		Amount:   price.Amount,
		Currency: price.Currency,
		Receipt:  "rcpt_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:20],
		Notes:    map[string]string{"user_id": p.UserID, "plan": price.Plan},
	})
	if err != nil {
		s.logger.Error("failed to create gateway order", zap.String("user_id", p.UserID), zap.Error(err))
		return nil, err
	}

	record := &model.Payment{
		ID:       uuid.NewString(),
		UserID:   p.UserID,
		OrderID:  order.ID,
		Plan:     price.Plan,
		Amount:   price.Amount,
		Currency: price.Currency,
		Status:   model.PaymentCreated,
	}
	if err := s.paymentRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}
	s.logger.Info("payment order created", zap.String("order_id", order.ID), zap.String("plan", price.Plan))

	return &CreateOrderResponse{
		OrderID:  order.ID,
		Amount:   price.Amount,
		Currency: price.Currency,
		Plan:     price.Plan,
		KeyID:    s.gateway.KeyID(),
	}, nil
}

func (s *PaymentService) Status(ctx context.Context, p access.Principal) (*model.SubscriptionStatus, error) {
	if err := access.RequireUser(p); err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindByID(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	return &model.SubscriptionStatus{
		Plan:      user.SubscriptionPlan,
		Active:    user.HasActiveSubscription(s.now()),
		ExpiresAt: user.SubscriptionExpiresAt,
	}, nil
}

// Verify checks the checkout signature first; a mismatch changes nothing.
// On a match the payment is marked paid and the subscription activated in one
// transaction. Verifying an already paid order again is a no-op.
func (s *PaymentService) Verify(ctx context.Context, p access.Principal, req VerifyPaymentRequest) (*model.SubscriptionStatus, error) {
	if err := access.RequireUser(p); err != nil {
		return nil, err
	}
	if err := common.Validate(req); err != nil {
		return nil, err
	}
	if !s.gateway.VerifySignature(req.OrderID, req.PaymentID, req.Signature) {
		s.logger.Warn("payment signature mismatch", zap.String("order_id", req.OrderID), zap.String("user_id", p.UserID))
		return nil, common.ErrPaymentVerification
	}

	var status *model.SubscriptionStatus
	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		record, err := s.paymentRepo.FindByOrderID(ctx, tx, req.OrderID)
		if err != nil {
			return err
		}
		if record.UserID != p.UserID {
			return fmt.Errorf("order belongs to another user: %w", common.ErrForbidden)
		}
		if record.Status == model.PaymentPaid {
			return nil
		}
		price, ok := model.PriceForPlan(record.Plan)
		if !ok {
			return fmt.Errorf("unknown plan %q on order %s", record.Plan, record.OrderID)
		}

		user, err := s.userRepo.FindByID(ctx, p.UserID)
		if err != nil {
			return err
		}

		if err := s.paymentRepo.MarkPaid(ctx, tx, record.OrderID, req.PaymentID); err != nil {
			return err
		}
		expiresAt := extendFrom(s.now().UTC(), user).Add(price.Duration)
		if err := s.userRepo.ActivateSubscription(ctx, tx, p.UserID, price.Plan, expiresAt); err != nil {
			return err
		}
		status = &model.SubscriptionStatus{Plan: price.Plan, Active: true, ExpiresAt: &expiresAt}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to verify payment: %w", err)
	}
	if status == nil {
		return s.Status(ctx, p)
	}
	s.logger.Info("subscription activated", zap.String("user_id", p.UserID), zap.String("plan", status.Plan))
	return status, nil
}

// extendFrom returns the point a new purchase starts counting from: the end
// of a still running subscription, otherwise now.
func extendFrom(now time.Time, user *model.User) time.Time {
	if user.HasActiveSubscription(now) && user.SubscriptionExpiresAt != nil && user.SubscriptionExpiresAt.After(now) {
		return user.SubscriptionExpiresAt.UTC()
	}
	return now
}

// ReportFailure records a checkout the gateway reported as failed. Only
// orders still in created state move.
func (s *PaymentService) ReportFailure(ctx context.Context, p access.Principal, req PaymentFailureRequest) error {
	if err := access.RequireUser(p); err != nil {
		return err
	}
	if err := common.Validate(req); err != nil {
		return err
	}
	record, err := s.paymentRepo.FindByOrderID(ctx, nil, req.OrderID)
	if err != nil {
		return err
	}
	if err := access.RequireOwner(p, record.UserID); err != nil {
		return err
	}
	return s.paymentRepo.MarkFailed(ctx, record.OrderID)
}
