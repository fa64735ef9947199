package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"codeprep/internal/common"
	"codeprep/internal/domain/model"
	"codeprep/internal/platform/payment"
	"codeprep/internal/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeGateway struct {
	orders    []payment.OrderRequest
	signature string
	err       error
}

func (g *fakeGateway) CreateOrder(_ context.Context, req payment.OrderRequest) (*payment.Order, error) {
	if g.err != nil {
		return nil, g.err
	}
	g.orders = append(g.orders, req)
	return &payment.Order{ID: "order_123", Amount: req.Amount, Currency: req.Currency, Receipt: req.Receipt, Status: "created"}, nil
}

func (g *fakeGateway) VerifySignature(_, _, signature string) bool {
	return signature == g.signature
}

func (g *fakeGateway) KeyID() string { return "rzp_test_key" }

var paymentNow = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func newPaymentService(payments *testhelpers.MockPaymentRepo, users *testhelpers.MockUserRepo, gw payment.Gateway) (*PaymentService, *testhelpers.Transactor) {
	if users == nil {
		users = &testhelpers.MockUserRepo{}
	}
	tx := &testhelpers.Transactor{}
	svc := NewPaymentService(payments, users, tx, gw, zap.NewNop())
	svc.now = fixedClock(paymentNow)
	return svc, tx
}

func TestCreateOrderRecordsPayment(t *testing.T) {
	var stored *model.Payment
	payments := &testhelpers.MockPaymentRepo{CreateFn: func(p *model.Payment) error {
		stored = p
		return nil
	}}
	gw := &fakeGateway{}
	svc, _ := newPaymentService(payments, nil, gw)

	resp, err := svc.CreateOrder(context.Background(), alice, CreateOrderRequest{Plan: "Premium_Yearly"})
	require.NoError(t, err)
	assert.Equal(t, "order_123", resp.OrderID)
	assert.Equal(t, int64(499900), resp.Amount)
	assert.Equal(t, "rzp_test_key", resp.KeyID)
	require.Len(t, gw.orders, 1)
	assert.Equal(t, alice.UserID, gw.orders[0].Notes["user_id"])
	assert.Equal(t, model.PaymentCreated, stored.Status)
	assert.Equal(t, model.PlanPremiumYearly, stored.Plan)
}

func TestCreateOrderRejectsFreemium(t *testing.T) {
	gw := &fakeGateway{}
	svc, _ := newPaymentService(&testhelpers.MockPaymentRepo{}, nil, gw)

	_, err := svc.CreateOrder(context.Background(), alice, CreateOrderRequest{Plan: "freemium"})
	assert.ErrorIs(t, err, common.ErrValidation)
	assert.Empty(t, gw.orders)
}

func TestCreateOrderGatewayDown(t *testing.T) {
	payments := &testhelpers.MockPaymentRepo{CreateFn: func(*model.Payment) error {
		t.Fatal("no payment should be recorded")
		return nil
	}}
	svc, _ := newPaymentService(payments, nil, &fakeGateway{err: common.ErrServiceUnavailable})

	_, err := svc.CreateOrder(context.Background(), alice, CreateOrderRequest{Plan: "pro"})
	assert.ErrorIs(t, err, common.ErrServiceUnavailable)
}

func TestVerifyTamperedSignatureTouchesNothing(t *testing.T) {
	payments := &testhelpers.MockPaymentRepo{
		MarkPaidFn: func(string, string) error {
			t.Fatal("payment must not be marked paid")
			return nil
		},
	}
	users := &testhelpers.MockUserRepo{ActivateSubscriptionFn: func(string, string, time.Time) error {
		t.Fatal("subscription must not be activated")
		return nil
	}}
	svc, tx := newPaymentService(payments, users, &fakeGateway{signature: "good"})

	_, err := svc.Verify(context.Background(), alice, VerifyPaymentRequest{OrderID: "order_123", PaymentID: "pay_1", Signature: "forged"})
	assert.ErrorIs(t, err, common.ErrPaymentVerification)
	assert.Zero(t, tx.Commits+tx.Rollbacks)
}

func TestVerifyActivatesSubscription(t *testing.T) {
	var paidWith, activatedPlan string
	var activatedUntil time.Time
	payments := &testhelpers.MockPaymentRepo{
		FindByOrderIDFn: func(orderID string) (*model.Payment, error) {
			return &model.Payment{OrderID: orderID, UserID: alice.UserID, Plan: model.PlanPro, Status: model.PaymentCreated}, nil
		},
		MarkPaidFn: func(_, paymentID string) error {
			paidWith = paymentID
			return nil
		},
	}
	users := &testhelpers.MockUserRepo{
		FindByIDFn: func(id string) (*model.User, error) {
			return &model.User{ID: id, SubscriptionPlan: model.PlanFreemium}, nil
		},
		ActivateSubscriptionFn: func(userID, plan string, expiresAt time.Time) error {
			assert.Equal(t, alice.UserID, userID)
			activatedPlan = plan
			activatedUntil = expiresAt
			return nil
		},
	}
	svc, tx := newPaymentService(payments, users, &fakeGateway{signature: "good"})

	status, err := svc.Verify(context.Background(), alice, VerifyPaymentRequest{OrderID: "order_123", PaymentID: "pay_1", Signature: "good"})
	require.NoError(t, err)
	assert.True(t, status.Active)
	assert.Equal(t, "pay_1", paidWith)
	assert.Equal(t, model.PlanPro, activatedPlan)
	assert.Equal(t, paymentNow.Add(30*24*time.Hour), activatedUntil)
	assert.Equal(t, 1, tx.Commits)
}

func TestVerifyExtendsRunningSubscription(t *testing.T) {
	yearlyEnd := paymentNow.Add(200 * 24 * time.Hour)
	lapsed := paymentNow.Add(-24 * time.Hour)
	cases := []struct {
		name string
		user model.User
		want time.Time
	}{
		{"running yearly", model.User{IsSubscribed: true, SubscriptionPlan: model.PlanPremiumYearly, SubscriptionExpiresAt: &yearlyEnd}, yearlyEnd.Add(30 * 24 * time.Hour)},
		{"lapsed", model.User{IsSubscribed: true, SubscriptionPlan: model.PlanPro, SubscriptionExpiresAt: &lapsed}, paymentNow.Add(30 * 24 * time.Hour)},
		{"never subscribed", model.User{}, paymentNow.Add(30 * 24 * time.Hour)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var activatedUntil time.Time
			payments := &testhelpers.MockPaymentRepo{FindByOrderIDFn: func(orderID string) (*model.Payment, error) {
				return &model.Payment{OrderID: orderID, UserID: alice.UserID, Plan: model.PlanPro, Status: model.PaymentCreated}, nil
			}}
			users := &testhelpers.MockUserRepo{
				FindByIDFn: func(id string) (*model.User, error) {
					u := tc.user
					u.ID = id
					return &u, nil
				},
				ActivateSubscriptionFn: func(_, _ string, expiresAt time.Time) error {
					activatedUntil = expiresAt
					return nil
				},
			}
			svc, _ := newPaymentService(payments, users, &fakeGateway{signature: "good"})

			status, err := svc.Verify(context.Background(), alice, VerifyPaymentRequest{OrderID: "order_123", PaymentID: "pay_1", Signature: "good"})
			require.NoError(t, err)
			assert.Equal(t, tc.want, activatedUntil)
			assert.Equal(t, tc.want, *status.ExpiresAt)
		})
	}
}

func TestVerifyRequestDecodesCheckoutResponse(t *testing.T) {
	var req VerifyPaymentRequest
	body := `{"razorpay_order_id":"order_1","razorpay_payment_id":"pay_1","razorpay_signature":"abc"}`
	require.NoError(t, json.Unmarshal([]byte(body), &req))
	assert.Equal(t, VerifyPaymentRequest{OrderID: "order_1", PaymentID: "pay_1", Signature: "abc"}, req)
	assert.NoError(t, common.Validate(req))
}

func TestVerifyAlreadyPaidIsNoop(t *testing.T) {
	expires := paymentNow.Add(10 * 24 * time.Hour)
	payments := &testhelpers.MockPaymentRepo{
		FindByOrderIDFn: func(orderID string) (*model.Payment, error) {
			return &model.Payment{OrderID: orderID, UserID: alice.UserID, Plan: model.PlanPro, Status: model.PaymentPaid}, nil
		},
		MarkPaidFn: func(string, string) error {
			t.Fatal("paid order must not be marked again")
			return nil
		},
	}
	users := &testhelpers.MockUserRepo{FindByIDFn: func(id string) (*model.User, error) {
		return &model.User{ID: id, IsSubscribed: true, SubscriptionPlan: model.PlanPro, SubscriptionExpiresAt: &expires}, nil
	}}
	svc, _ := newPaymentService(payments, users, &fakeGateway{signature: "good"})

	status, err := svc.Verify(context.Background(), alice, VerifyPaymentRequest{OrderID: "order_123", PaymentID: "pay_1", Signature: "good"})
	require.NoError(t, err)
	assert.True(t, status.Active)
	assert.Equal(t, &expires, status.ExpiresAt)
}

func TestVerifyOtherUsersOrder(t *testing.T) {
	payments := &testhelpers.MockPaymentRepo{FindByOrderIDFn: func(orderID string) (*model.Payment, error) {
		return &model.Payment{OrderID: orderID, UserID: bob.UserID, Plan: model.PlanPro, Status: model.PaymentCreated}, nil
	}}
	svc, tx := newPaymentService(payments, nil, &fakeGateway{signature: "good"})

	_, err := svc.Verify(context.Background(), alice, VerifyPaymentRequest{OrderID: "order_123", PaymentID: "pay_1", Signature: "good"})
	assert.ErrorIs(t, err, common.ErrForbidden)
	assert.Equal(t, 1, tx.Rollbacks)
}

func TestReportFailure(t *testing.T) {
	failed := ""
	payments := &testhelpers.MockPaymentRepo{
		FindByOrderIDFn: func(orderID string) (*model.Payment, error) {
			return &model.Payment{OrderID: orderID, UserID: alice.UserID, Status: model.PaymentCreated}, nil
		},
		MarkFailedFn: func(orderID string) error {
			failed = orderID
			return nil
		},
	}
	svc, _ := newPaymentService(payments, nil, &fakeGateway{})

	assert.ErrorIs(t, svc.ReportFailure(context.Background(), bob, PaymentFailureRequest{OrderID: "order_123"}), common.ErrForbidden)
	assert.Empty(t, failed)

	require.NoError(t, svc.ReportFailure(context.Background(), alice, PaymentFailureRequest{OrderID: "order_123"}))
	assert.Equal(t, "order_123", failed)
}
