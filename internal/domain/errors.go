package domain

import "errors"

var (
	ErrNotFound      = errors.New("record not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrUserNotFound  = errors.New("user not found")
	ErrUserDisabled  = errors.New("account is disabled")
	ErrEmailTaken    = errors.New("email already registered")
	ErrBadReferral   = errors.New("invalid referral code")
	ErrBadPassword   = errors.New("invalid email or password")
	ErrPlanNotFound  = errors.New("plan not found or inactive")
	ErrPlanInUse     = errors.New("plan is referenced by orders or codes")
	ErrServerMissing = errors.New("server not found")

	ErrCodeNotFound = errors.New("invalid redemption code")
	ErrCodeUsed     = errors.New("redemption code already used")
	ErrCodeExpired  = errors.New("redemption code expired")
	ErrCodeClaimed  = errors.New("redemption code was redeemed concurrently")
	ErrRedeemTarget = errors.New("sign in or provide the account email")

	ErrOrderNotFound   = errors.New("order not found")
	ErrOrderNotPending = errors.New("order is not pending")
	ErrOrderNotPaid    = errors.New("order is not paid")

	ErrNoSubscription = errors.New("no active subscription")

	ErrCommissionNotPending = errors.New("commission is not pending")
	ErrWithdrawalNotFound   = errors.New("withdrawal not found")
	ErrWithdrawalProcessed  = errors.New("withdrawal already processed")
	ErrBelowMinimum         = errors.New("amount below minimum withdrawal")
	ErrInsufficientBalance  = errors.New("insufficient commission balance")
)
